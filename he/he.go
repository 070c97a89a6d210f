// Package he carries the engine's error taxonomy.  Every error that a caller
// is expected to act on is an *HTTPError with a Kind; anything else is an
// internal failure and maps to 500.
package he

import (
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"
)

// Kind classifies errors the way callers need to react to them.
type Kind int

const (
	KindInternal Kind = iota
	// KindValidation is a rejected operation: bad input shape or value.
	KindValidation
	// KindNotFound is an operation against a night, card, or putt-off that
	// doesn't exist.
	KindNotFound
	// KindEmptyInput is an operation that needs input that isn't there,
	// e.g. generating cards with nobody checked in.
	KindEmptyInput
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not found"
	case KindEmptyInput:
		return "empty input"
	default:
		return "internal"
	}
}

// HTTPError probably represents the wrong abstraction, but the status code
// is what the read-only web surface needs.
type HTTPError struct {
	code int
	kind Kind
	err  error
}

func HTTPCodedErrorf(code int, f string, more ...any) *HTTPError {
	return &HTTPError{
		code: code,
		kind: kindForCode(code),
		err:  fmt.Errorf(f, more...),
	}
}

func New(code int, err error) *HTTPError {
	return &HTTPError{
		code: code,
		kind: kindForCode(code),
		err:  err,
	}
}

func ValidationErrorf(f string, more ...any) *HTTPError {
	return &HTTPError{code: http.StatusBadRequest, kind: KindValidation, err: fmt.Errorf(f, more...)}
}

func NotFoundErrorf(f string, more ...any) *HTTPError {
	return &HTTPError{code: http.StatusNotFound, kind: KindNotFound, err: fmt.Errorf(f, more...)}
}

func EmptyInputErrorf(f string, more ...any) *HTTPError {
	return &HTTPError{code: http.StatusUnprocessableEntity, kind: KindEmptyInput, err: fmt.Errorf(f, more...)}
}

func kindForCode(code int) Kind {
	switch code {
	case http.StatusBadRequest:
		return KindValidation
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusUnprocessableEntity:
		return KindEmptyInput
	default:
		return KindInternal
	}
}

func (e *HTTPError) Error() string {
	return e.err.Error()
}

func (e *HTTPError) Unwrap() error {
	return e.err
}

func (e *HTTPError) Code() int {
	return e.code
}

func (e *HTTPError) Kind() Kind {
	return e.kind
}

// KindOf finds the first *HTTPError in err's chain.
func KindOf(err error) Kind {
	var he *HTTPError
	if errors.As(err, &he) {
		return he.kind
	}
	return KindInternal
}

// Code returns the status code for err, 500 if it isn't one of ours.
func Code(err error) int {
	var he *HTTPError
	if errors.As(err, &he) {
		return he.code
	}
	return http.StatusInternalServerError
}

func IsValidation(err error) bool { return KindOf(err) == KindValidation }
func IsNotFound(err error) bool   { return KindOf(err) == KindNotFound }
func IsEmptyInput(err error) bool { return KindOf(err) == KindEmptyInput }

// SendErrorToHTTPClient sends err as an HTTP error.  If it happens to be our
// special HTTPError, we can include a better response code; otherwise,
// client gets 500 and it's on us.
func SendErrorToHTTPClient(w http.ResponseWriter, while string, err error) {
	code := Code(err)
	txt := fmt.Sprintf("can't %s: %v", while, err)
	if code >= 500 {
		zap.S().Errorf("%d: %s", code, txt)
	} else {
		zap.S().Infof("%d: %s", code, txt)
	}
	http.Error(w, txt, code)
}
