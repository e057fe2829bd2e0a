package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypedErrorsMatchSentinels(t *testing.T) {
	assert.ErrorIs(t, NotFound("raw record", "abc"), ErrNotFound)
	assert.ErrorIs(t, Validation("firstName", "first name is required"), ErrValidation)
	assert.ErrorIs(t, &AlreadyMatchedError{Kind: "phone", Value: "05321234567"}, ErrAlreadyMatched)
	assert.ErrorIs(t, &IncompleteMatchingError{UnmatchedPhones: 1}, ErrIncompleteMatching)
	assert.ErrorIs(t, &FormatError{Kind: "phone", Input: "123"}, ErrInvalidFormat)
	assert.ErrorIs(t, Forbidden("you do not have a lock on this record"), ErrForbidden)
}

func TestWrapValidation_KeepsCause(t *testing.T) {
	cause := &FormatError{Kind: "phone", Input: "0123", Expected: "11 digits (0xxxxxxxxxx)", Digits: 4}
	err := fmt.Errorf("batch assign: %w", WrapValidation("phoneIds", "phone normalization failed", cause))

	assert.ErrorIs(t, err, ErrValidation)
	assert.ErrorIs(t, err, ErrInvalidFormat)

	var verr *ValidationError
	assert.True(t, errors.As(err, &verr))
	assert.Equal(t, "phoneIds", verr.Field)
	assert.Contains(t, err.Error(), "got 4 digits")
}

func TestMessages(t *testing.T) {
	assert.Equal(t, "raw record abc not found", NotFound("raw record", "abc").Error())
	assert.Equal(t, "job title not found", NotFound("job title", "").Error())
	assert.Equal(t, "email a@b.co is already matched", (&AlreadyMatchedError{Kind: "email", Value: "a@b.co"}).Error())
	assert.Equal(t, "cannot complete matching. 3 items still unmatched",
		(&IncompleteMatchingError{UnmatchedPhones: 2, UnmatchedEmails: 1}).Error())
	assert.Equal(t, "invalid email format: consecutive dots: a..b@x.com",
		(&FormatError{Kind: "email", Input: "a..b@x.com", Reason: "consecutive dots"}).Error())
}
