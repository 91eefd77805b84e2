package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	gvalidator "github.com/go-playground/validator/v10"

	"github.com/milan604/fluenthttp/pkg/apperr"
)

// TagErrorBuilder describes how to convert a validator.FieldError into a message
type TagErrorBuilder struct {
	Code    *apperr.ErrorCode
	Builder func(fe gvalidator.FieldError) string
}

// Validator is the wrapper around go-playground validator with extra features.
type Validator struct {
	v                *gvalidator.Validate
	tagErrorBuilders map[string]TagErrorBuilder
}

// ValidatorEngine defines the interface for validation engines
// This allows for custom implementations and easier testing
type ValidatorEngine interface {
	Struct(s any) *apperr.AppError
	RegisterValidation(tag string, fn gvalidator.Func) error
	RegisterTagError(tag string, code *apperr.ErrorCode, builder func(gvalidator.FieldError) string)
	ParseError(err error) *apperr.AppError
}

var (
	defaultOnce sync.Once
	defaultV    *Validator
)

// Default returns a shared Validator.
func Default() *Validator {
	defaultOnce.Do(func() { defaultV = New() })
	return defaultV
}

// New creates a Validator that reports fields by their mapstructure or json
// name and knows the header_name tag.
func New() *Validator {
	v := gvalidator.New(gvalidator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(fieldName)

	vi := &Validator{
		v:                v,
		tagErrorBuilders: make(map[string]TagErrorBuilder),
	}
	_ = vi.RegisterValidation("header_name", func(fl gvalidator.FieldLevel) bool {
		return IsHeaderName(fl.Field().String())
	})
	vi.RegisterTagError("header_name", apperr.ErrorCodeInvalidConfig, func(fe gvalidator.FieldError) string {
		return fmt.Sprintf("%q is not a valid header name", fe.Value())
	})
	vi.RegisterTagError("oneof", apperr.ErrorCodeInvalidConfig, func(fe gvalidator.FieldError) string {
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	})
	return vi
}

func fieldName(f reflect.StructField) string {
	for _, tag := range []string{"mapstructure", "json"} {
		if name := getTagName(f, tag); name != "" {
			return name
		}
	}
	return f.Name
}

// helper to get tag name
func getTagName(f reflect.StructField, tagName string) string {
	tagValue := f.Tag.Get(tagName)
	if tagValue == "-" {
		return ""
	}
	return strings.SplitN(tagValue, ",", 2)[0]
}

// IsHeaderName reports whether s is a non-empty RFC 7230 token.
func IsHeaderName(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case strings.IndexByte("!#$%&'*+-.^_`|~", c) >= 0:
		default:
			return false
		}
	}
	return true
}

// Struct validates s and converts failures into *apperr.AppError.
func (vi *Validator) Struct(s any) *apperr.AppError {
	return vi.ParseError(vi.v.Struct(s))
}

// RegisterValidation registers a custom validator (name) to the engine.
func (vi *Validator) RegisterValidation(tag string, fn gvalidator.Func) error {
	return vi.v.RegisterValidation(tag, fn)
}

// RegisterTagError allows mapping tag -> ErrorCode + message builder.
func (vi *Validator) RegisterTagError(tag string, code *apperr.ErrorCode, builder func(gvalidator.FieldError) string) {
	vi.tagErrorBuilders[tag] = TagErrorBuilder{Code: code, Builder: builder}
}

// ParseError converts a validator error into *apperr.AppError with one
// suggestion per failing field.
func (vi *Validator) ParseError(err error) *apperr.AppError {
	if err == nil {
		return nil
	}

	var verrs gvalidator.ValidationErrors
	if errors.As(err, &verrs) {
		appErr := apperr.New(apperr.ErrorCodeInvalidConfig)
		for _, fe := range verrs {
			appErr.AddSuggestion(fe.Namespace(), vi.buildMessageForField(fe))
		}
		return appErr
	}

	var invalid *gvalidator.InvalidValidationError
	if errors.As(err, &invalid) {
		return apperr.FromError(apperr.ErrorCodeInternal, err)
	}

	return apperr.FromError(apperr.ErrorCodeInvalidConfig, err)
}

// buildMessageForField uses registered tag builders or defaults
func (vi *Validator) buildMessageForField(fe gvalidator.FieldError) string {
	if b, ok := vi.tagErrorBuilders[fe.Tag()]; ok && b.Builder != nil {
		return b.Builder(fe)
	}
	if fe.Param() != "" {
		return fmt.Sprintf("field %s failed on '%s' validation (param=%s)", fe.Field(), fe.Tag(), fe.Param())
	}
	return fmt.Sprintf("field %s failed on '%s' validation", fe.Field(), fe.Tag())
}

var _ ValidatorEngine = (*Validator)(nil)
