package utils

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orubacontacts/internal/apperrors"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"spaces", "0532 123 45 67", "05321234567"},
		{"dashes without leading zero", "532-123-4567", "05321234567"},
		{"parentheses and dots", "(0312) 444.55.66", "03124445566"},
		{"plus sign and letters", "+ 532 abc 123 45 67", "05321234567"},
		{"already normalized", "05321234567", "05321234567"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizePhone(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizePhone_DigitCountMismatch(t *testing.T) {
	_, err := NormalizePhone("123")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidFormat)

	var ferr *apperrors.FormatError
	require.True(t, errors.As(err, &ferr))
	assert.Equal(t, 4, ferr.Digits)
	assert.Equal(t, "11 digits (0xxxxxxxxxx)", ferr.Expected)
	assert.Equal(t, "0123", ferr.Input)
}

func TestNormalizePhone_Rejects(t *testing.T) {
	for _, in := range []string{"", "   ", "()-.", "+90 532 123 45 67", "05321234567890"} {
		_, err := NormalizePhone(in)
		assert.ErrorIs(t, err, apperrors.ErrInvalidFormat, in)
	}
}

func TestNormalizePhone_Idempotent(t *testing.T) {
	for _, in := range []string{"0532 123 45 67", "532-123-4567", "(216) 555 00 11", "0 (212) 333-22-11"} {
		once, err := NormalizePhone(in)
		require.NoError(t, err, in)
		twice, err := NormalizePhone(once)
		require.NoError(t, err, in)
		assert.Equal(t, once, twice, in)
	}
}

func TestNormalizeEmail(t *testing.T) {
	got, err := NormalizeEmail("  John.Doe@Example.COM ")
	require.NoError(t, err)
	assert.Equal(t, "john.doe@example.com", got)

	got, err = NormalizeEmail("satin alma@ankara.saglik.gov.tr")
	require.NoError(t, err)
	assert.Equal(t, "satinalma@ankara.saglik.gov.tr", got)

	got, err = NormalizeEmail("john\u00a0doe@example.com")
	require.NoError(t, err)
	assert.Equal(t, "johndoe@example.com", got)

	got, err = NormalizeEmail("john\vdoe@example.com")
	require.NoError(t, err)
	assert.Equal(t, "johndoe@example.com", got)

	got, err = NormalizeEmail("\u2003john@example.com\u3000")
	require.NoError(t, err)
	assert.Equal(t, "john@example.com", got)

	got, err = NormalizeEmail("o'brien+tag@mail.co.uk")
	require.NoError(t, err)
	assert.Equal(t, "o'brien+tag@mail.co.uk", got)
}

func TestNormalizeEmail_Rejects(t *testing.T) {
	tests := []struct {
		in     string
		reason string
	}{
		{"a..b@x.com", "consecutive dots"},
		{"@x.com", "cannot start or end with @ symbol"},
		{"john@", "cannot start or end with @ symbol"},
		{"john.example.com", "missing @ symbol"},
		{"john@example", "domain must contain at least one dot"},
		{"john@-example.com", "malformed address"},
		{"jo@hn@example.com", "malformed address"},
		{"", "email address is required"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			_, err := NormalizeEmail(tt.in)
			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrInvalidFormat)

			var ferr *apperrors.FormatError
			require.True(t, errors.As(err, &ferr))
			assert.Equal(t, tt.reason, ferr.Reason)
			assert.Equal(t, tt.in, ferr.Input)
		})
	}
}

func TestNormalizeEmail_Idempotent(t *testing.T) {
	once, err := NormalizeEmail(" Doktor@Ankara.Saglik.Gov.TR")
	require.NoError(t, err)
	twice, err := NormalizeEmail(once)
	require.NoError(t, err)
	assert.Equal(t, once, twice)
}
