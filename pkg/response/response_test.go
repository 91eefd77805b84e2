package response

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/milan604/fluenthttp/pkg/apperr"
	fhttp "github.com/milan604/fluenthttp/pkg/http"
)

type item struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

var errNameRequired = apperr.NewErrorCode("validation_failed", "Validation failed", 1, http.StatusUnprocessableEntity)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/items/1", func(c *gin.Context) { Success(c, item{ID: 1, Name: "pen"}) })
	r.GET("/items", func(c *gin.Context) {
		JSONSuccess(c, 0, []item{{1, "pen"}, {2, "ink"}}, map[string]any{"total": 2})
	})
	r.POST("/items", func(c *gin.Context) {
		JSONError(c, apperr.New(errNameRequired).AddSuggestion("name", "is required"))
	})
	r.GET("/boom", func(c *gin.Context) { Error(c, assert.AnError) })
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func newClient() *fhttp.Client {
	return fhttp.NewClient(fhttp.NewConfig(fhttp.WithMainExecutor(fhttp.Inline), fhttp.WithLoggingLevel(fhttp.LogNone)))
}

func TestDataUnwrapsEnvelope(t *testing.T) {
	srv := newServer(t)
	c := newClient()

	got, err := fhttp.Fetch[item](context.Background(), c.Get(srv.URL+"/items/1"), Data[item]{})
	require.NoError(t, err)
	assert.Equal(t, item{ID: 1, Name: "pen"}, got)

	list, err := fhttp.FetchArray[item](context.Background(), c.Get(srv.URL+"/items"), Data[item]{})
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestDataRejectsNonEnvelopes(t *testing.T) {
	_, ok := Data[item]{}.FromBytes([]byte(`{"id":1}`))
	assert.False(t, ok)
	_, ok = Data[item]{}.FromBytes([]byte(`{"success":false,"code":"x"}`))
	assert.False(t, ok)
	_, ok = Data[item]{}.ArrayFromBytes([]byte(`not json`))
	assert.False(t, ok)
}

func TestFromErrorReadsServerEnvelope(t *testing.T) {
	srv := newServer(t)
	r := newClient().Post(srv.URL+"/items").AddParam("name", "")
	_, err := fhttp.Fetch[item](context.Background(), r, Data[item]{})
	require.Error(t, err)

	ae, ok := FromError(err)
	require.True(t, ok)
	assert.Equal(t, "validation_failed", ae.Code)
	assert.Equal(t, "Validation failed", ae.Message)
	assert.Equal(t, http.StatusUnprocessableEntity, ae.HTTPStatus)
	assert.Equal(t, []apperr.Suggestion{{Field: "name", Message: "is required"}}, ae.Suggestions)
	assert.True(t, apperr.IsCode(ae.Unwrap(), apperr.ErrorCodeBadStatus))
}

func TestFromErrorInternal(t *testing.T) {
	srv := newServer(t)
	_, err := fhttp.Fetch[item](context.Background(), newClient().Get(srv.URL+"/boom"), Data[item]{})
	ae, ok := FromError(err)
	require.True(t, ok)
	assert.Equal(t, apperr.ErrorCodeInternal.Code(), ae.Code)
	assert.Equal(t, http.StatusInternalServerError, ae.HTTPStatus)
}

func TestFromErrorWithoutEnvelope(t *testing.T) {
	_, ok := FromError(apperr.New(apperr.ErrorCodeBadStatus).WithDetail("Error", "Error Response Code"))
	assert.False(t, ok)
	_, ok = FromError(assert.AnError)
	assert.False(t, ok)
}
