package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindBadRequest Kind = "bad_request"
	KindNotFound   Kind = "not_found"
	KindConflict   Kind = "conflict"
	KindDownstream Kind = "downstream"
	KindTimeout    Kind = "timeout"
	KindInternal   Kind = "internal"
)

type Error struct {
	Status int
	Code   string
	Kind   Kind
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Kind: kindForStatus(status), Err: err}
}

func BadRequest(code, msg string) *Error {
	return &Error{Status: http.StatusBadRequest, Code: code, Kind: KindBadRequest, Err: errors.New(msg)}
}

func NotFound(code, msg string) *Error {
	return &Error{Status: http.StatusNotFound, Code: code, Kind: KindNotFound, Err: errors.New(msg)}
}

func Conflict(code, msg string) *Error {
	return &Error{Status: http.StatusConflict, Code: code, Kind: KindConflict, Err: errors.New(msg)}
}

// Downstream wraps a failure reported by an external collaborator. The
// collaborator's message is kept in the error string.
func Downstream(code string, err error) *Error {
	return &Error{Status: http.StatusBadGateway, Code: code, Kind: KindDownstream, Err: err}
}

func Timeout(code string, err error) *Error {
	return &Error{Status: http.StatusGatewayTimeout, Code: code, Kind: KindTimeout, Err: err}
}

// As returns the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) && e != nil {
		return e, true
	}
	return nil, false
}

// IsKind reports whether err carries an *Error of kind k.
func IsKind(err error, k Kind) bool {
	e, ok := As(err)
	return ok && e.Kind == k
}

// StatusOf maps err to an HTTP status; unknown errors are 500.
func StatusOf(err error) int {
	if e, ok := As(err); ok && e.Status != 0 {
		return e.Status
	}
	return http.StatusInternalServerError
}

func kindForStatus(status int) Kind {
	switch {
	case status == http.StatusNotFound:
		return KindNotFound
	case status == http.StatusConflict:
		return KindConflict
	case status == http.StatusGatewayTimeout:
		return KindTimeout
	case status == http.StatusBadGateway:
		return KindDownstream
	case status >= 400 && status < 500:
		return KindBadRequest
	default:
		return KindInternal
	}
}
