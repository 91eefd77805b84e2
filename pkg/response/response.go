// Package response reads and writes the standard API envelope
// {success, code, message, data, errors, meta}.
package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/milan604/fluenthttp/pkg/apperr"
	"github.com/milan604/fluenthttp/pkg/convert"
)

// APIResponse is the standard API envelope.
type APIResponse[T any] struct {
	Success bool                `json:"success"`
	Code    string              `json:"code"`
	Message string              `json:"message"`
	Data    T                   `json:"data,omitempty"`
	Errors  []apperr.Suggestion `json:"errors,omitempty"`
	Meta    map[string]any      `json:"meta,omitempty"`
}

// Data is a converter that unwraps the data field of a successful envelope.
// A body that is not an envelope, or reports success false, is rejected.
type Data[T any] struct{}

func (Data[T]) FromBytes(body []byte) (T, bool) {
	var env APIResponse[T]
	if err := json.Unmarshal(body, &env); err != nil || !env.Success {
		var zero T
		return zero, false
	}
	return env.Data, true
}

func (Data[T]) ArrayFromBytes(body []byte) ([]T, bool) {
	var env APIResponse[[]T]
	if err := json.Unmarshal(body, &env); err != nil || !env.Success {
		return nil, false
	}
	return env.Data, true
}

var _ convert.Converter[int] = Data[int]{}

// FromError turns the envelope carried by a bad_status error into an
// AppError with the server's code, message and field errors. ok is false
// when err carries no envelope.
func FromError(err error) (*apperr.AppError, bool) {
	var ae *apperr.AppError
	if !errors.As(err, &ae) || !apperr.IsCode(err, apperr.ErrorCodeBadStatus) {
		return nil, false
	}
	code, _ := ae.Details["code"].(string)
	if code == "" {
		return nil, false
	}
	out := &apperr.AppError{
		Code:       code,
		HTTPStatus: ae.HTTPStatus,
		Details:    map[string]any{},
	}
	out.Message, _ = ae.Details["message"].(string)
	if list, ok := ae.Details["errors"].([]any); ok {
		for _, item := range list {
			m, ok := item.(map[string]any)
			if !ok {
				continue
			}
			field, _ := m["field"].(string)
			msg, _ := m["message"].(string)
			out.AddSuggestion(field, msg)
		}
	}
	if meta, ok := ae.Details["meta"].(map[string]any); ok {
		out.Details = meta
	}
	return out.Wrap(ae), true
}

// JSONSuccess writes a success envelope.
func JSONSuccess(ctx *gin.Context, status int, data any, meta map[string]any) {
	if status == 0 {
		status = http.StatusOK
	}
	ctx.JSON(status, APIResponse[any]{
		Success: true,
		Code:    "success",
		Message: "OK",
		Data:    data,
		Meta:    meta,
	})
}

// JSONError writes an error envelope for appErr.
func JSONError(ctx *gin.Context, appErr *apperr.AppError) {
	if appErr == nil {
		appErr = apperr.New(apperr.ErrorCodeInternal)
	}
	status := appErr.HTTPStatus
	if status == 0 {
		status = http.StatusInternalServerError
	}
	ctx.JSON(status, APIResponse[any]{
		Success: false,
		Code:    appErr.Code,
		Message: appErr.Message,
		Errors:  appErr.Suggestions,
	})
}

// Success is JSONSuccess with http.StatusOK and no meta.
func Success(ctx *gin.Context, data any) {
	JSONSuccess(ctx, http.StatusOK, data, nil)
}

// Error writes err as an error envelope, wrapping errors that are not
// AppErrors as internal errors.
func Error(ctx *gin.Context, err error) {
	JSONError(ctx, apperr.FromError(apperr.ErrorCodeInternal, err))
}
