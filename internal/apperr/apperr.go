package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies failures that callers (and ultimately the UI) branch on.
type Kind string

const (
	KindQuotaExceeded Kind = "quota_exceeded"
	KindGeneration    Kind = "generation_failed"
	KindPersistence   Kind = "persistence_failed"
	KindNotFound      Kind = "not_found"
)

type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Err.Error())
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the Kind wrapped anywhere in err's chain, or "" when err is
// not an application error.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return ""
}

func IsQuotaExceeded(err error) bool { return KindOf(err) == KindQuotaExceeded }
func IsGeneration(err error) bool    { return KindOf(err) == KindGeneration }
func IsNotFound(err error) bool      { return KindOf(err) == KindNotFound }
