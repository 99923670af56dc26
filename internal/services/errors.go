package services

import (
	"errors"
	"fmt"
)

// Kind classifies a service failure for the transport layer.
type Kind string

const (
	KindValidation Kind = "validation"
	KindNotFound   Kind = "not_found"
	KindStorage    Kind = "storage"
)

var (
	// ErrValidation matches any missing or malformed input error
	ErrValidation = errors.New("validation failed")

	// ErrNotFound matches any missing voice or user error
	ErrNotFound = errors.New("not found")

	// ErrStorage matches any persistence failure
	ErrStorage = errors.New("storage failure")
)

// Error carries a machine-readable kind and a message safe to show clients.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is match on the kind sentinels.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrValidation:
		return e.Kind == KindValidation
	case ErrNotFound:
		return e.Kind == KindNotFound
	case ErrStorage:
		return e.Kind == KindStorage
	}
	return false
}

func validationError(format string, args ...any) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func notFoundError(format string, args ...any) error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// storageError wraps err unless it already is a service error, so a
// validation or not-found result raised inside a transaction keeps its kind.
func storageError(message string, err error) error {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return err
	}
	return &Error{Kind: KindStorage, Message: message, Err: err}
}

// KindOf returns the kind of err, or storage for unclassified errors.
func KindOf(err error) Kind {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr.Kind
	}
	return KindStorage
}
