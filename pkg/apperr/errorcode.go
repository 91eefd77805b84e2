package apperr

import "net/http"

// Predefined client error codes. Value orders them roughly by the stage of a
// request in which they occur.
var (
	ErrorCodeInvalidURL    = NewErrorCode("invalid_url", "Invalid URL", 10, http.StatusInternalServerError)
	ErrorCodeBodyEncoding  = NewErrorCode("body_encoding", "Could not encode request body", 20, http.StatusInternalServerError)
	ErrorCodeTransport     = NewErrorCode("transport", "Request failed", 30, 0)
	ErrorCodeBadStatus     = NewErrorCode("bad_status", "Error Response Code", 40, 0)
	ErrorCodeDecode        = NewErrorCode("decode", "Could not parse response", 50, http.StatusInternalServerError)
	ErrorCodeUnsent        = NewErrorCode("unsent", "Request was released before it was sent", 60, 0)
	ErrorCodeInvalidConfig = NewErrorCode("invalid_config", "Invalid configuration", 70, 0)
	ErrorCodeInternal      = NewErrorCode("internal_error", "Internal error", 100, http.StatusInternalServerError)
)

// ErrorCode describes a canonical client error code.
// It carries a numeric priority (Value) and a default HTTP status.
type ErrorCode struct {
	code       string
	message    string
	value      int
	httpStatus int
}

func NewErrorCode(code, message string, value, httpStatus int) *ErrorCode {
	return &ErrorCode{code: code, message: message, value: value, httpStatus: httpStatus}
}

func (ec *ErrorCode) Code() string    { return ec.code }
func (ec *ErrorCode) Message() string { return ec.message }
func (ec *ErrorCode) Value() int      { return ec.value }
func (ec *ErrorCode) HTTPStatus() int { return ec.httpStatus }
