package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeRateLimited    Code = "RATE_LIMITED"
	CodeNoData         Code = "NO_DATA"
	CodeUpstream       Code = "UPSTREAM_ERROR"
	CodeMissingColumns Code = "MISSING_COLUMNS"
	CodeNetwork        Code = "NETWORK_ERROR"
	CodeRetryExhausted Code = "RETRY_EXHAUSTED"
	CodeValidation     Code = "VALIDATION_ERROR"
	CodeInternal       Code = "INTERNAL_ERROR"
)

type Metadata struct {
	HTTPStatus  int
	Retryable   bool
	Fatal       bool
	Description string
}

var metadataByCode = map[Code]Metadata{
	CodeRateLimited: {
		HTTPStatus:  http.StatusTooManyRequests,
		Retryable:   true,
		Description: "upstream rate limit reached",
	},
	CodeNoData: {
		HTTPStatus:  http.StatusNoContent,
		Retryable:   false,
		Description: "upstream returned no data",
	},
	CodeUpstream: {
		HTTPStatus:  http.StatusBadGateway,
		Retryable:   false,
		Description: "upstream returned an error",
	},
	CodeMissingColumns: {
		HTTPStatus:  http.StatusUnprocessableEntity,
		Retryable:   false,
		Fatal:       true,
		Description: "required sheet columns not found",
	},
	CodeNetwork: {
		HTTPStatus:  http.StatusServiceUnavailable,
		Retryable:   true,
		Description: "network failure talking to upstream",
	},
	CodeRetryExhausted: {
		HTTPStatus:  http.StatusServiceUnavailable,
		Retryable:   false,
		Description: "retry attempts exhausted",
	},
	CodeValidation: {
		HTTPStatus:  http.StatusBadRequest,
		Retryable:   false,
		Description: "validation failed",
	},
	CodeInternal: {
		HTTPStatus:  http.StatusInternalServerError,
		Retryable:   false,
		Description: "internal error",
	},
}

func MetadataFor(code Code) Metadata {
	if meta, ok := metadataByCode[code]; ok {
		return meta
	}
	return metadataByCode[CodeInternal]
}

// UpstreamDetails is attached to UPSTREAM_ERROR and RATE_LIMITED errors.
type UpstreamDetails struct {
	Status int    `json:"status"`
	Body   string `json:"body,omitempty"`
	URL    string `json:"url,omitempty"`
}

type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

func Wrap(code Code, err error, message string) *Error {
	if err == nil {
		return New(code, message)
	}
	return &Error{code: code, message: message, cause: err}
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

func (e *Error) WithDetails(details any) *Error {
	if e == nil {
		return nil
	}
	e.details = details
	return e
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.code, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

func As(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

// HasCode reports whether any typed error in the chain carries code.
func HasCode(err error, code Code) bool {
	for err != nil {
		typed := As(err)
		if typed == nil {
			return false
		}
		if typed.code == code {
			return true
		}
		err = typed.cause
	}
	return false
}

// IsRetryable reports whether the outermost typed error is retryable.
func IsRetryable(err error) bool {
	typed := As(err)
	if typed == nil {
		return false
	}
	return MetadataFor(typed.Code()).Retryable
}
