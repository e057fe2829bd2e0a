package apperrors

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrValidation         = errors.New("validation failed")
	ErrAlreadyMatched     = errors.New("already matched")
	ErrConflict           = errors.New("conflict")
	ErrIncompleteMatching = errors.New("incomplete matching")
	ErrInvalidFormat      = errors.New("invalid format")
	ErrLockContention     = errors.New("lock contention")
)

// NotFoundError указывает, какой ресурс не найден.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return e.Resource + " not found"
	}
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

func NotFound(resource, id string) error {
	return &NotFoundError{Resource: resource, ID: id}
}

type ForbiddenError struct {
	Message string
}

func (e *ForbiddenError) Error() string { return e.Message }

func (e *ForbiddenError) Is(target error) bool { return target == ErrForbidden }

func Forbidden(message string) error {
	return &ForbiddenError{Message: message}
}

type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	msg := e.Message
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func (e *ValidationError) Unwrap() error { return e.Err }

func Validation(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// WrapValidation превращает ошибку нормализации в ошибку валидации,
// сохраняя исходную причину.
func WrapValidation(field, message string, err error) error {
	return &ValidationError{Field: field, Message: message, Err: err}
}

// AlreadyMatchedError содержит значение кандидата, уже привязанного к контакту.
type AlreadyMatchedError struct {
	Kind  string // phone | email
	Value string
}

func (e *AlreadyMatchedError) Error() string {
	return fmt.Sprintf("%s %s is already matched", e.Kind, e.Value)
}

func (e *AlreadyMatchedError) Is(target error) bool { return target == ErrAlreadyMatched }

type IncompleteMatchingError struct {
	UnmatchedPhones int64
	UnmatchedEmails int64
}

func (e *IncompleteMatchingError) Error() string {
	return fmt.Sprintf("cannot complete matching. %d items still unmatched", e.UnmatchedPhones+e.UnmatchedEmails)
}

func (e *IncompleteMatchingError) Is(target error) bool { return target == ErrIncompleteMatching }

// FormatError описывает отклоненный телефон или email.
type FormatError struct {
	Kind     string
	Input    string
	Expected string
	Digits   int
	Reason   string
}

func (e *FormatError) Error() string {
	switch {
	case e.Expected != "":
		return fmt.Sprintf("invalid %s format: expected %s, got %d digits: %s", e.Kind, e.Expected, e.Digits, e.Input)
	case e.Reason != "":
		return fmt.Sprintf("invalid %s format: %s: %s", e.Kind, e.Reason, e.Input)
	default:
		return fmt.Sprintf("invalid %s format: %s", e.Kind, e.Input)
	}
}

func (e *FormatError) Is(target error) bool { return target == ErrInvalidFormat }
