package repositories

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"clean", "hello", "hello"},
		{"null bytes removed", "he\x00llo\x00", "hello"},
		{"whitespace trimmed", "  hello \n", "hello"},
		{"null bytes then trim", "\x00  hello  \x00", "hello"},
		{"only null bytes", "\x00\x00", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeText(tt.input))
		})
	}
}

func TestSanitizeText_Idempotent(t *testing.T) {
	once := SanitizeText(" a\x00b ")
	assert.Equal(t, once, SanitizeText(once))
}

func TestSanitize(t *testing.T) {
	t.Run("nil passes through", func(t *testing.T) {
		assert.Nil(t, Sanitize(nil))
	})

	t.Run("empty collapses to nil", func(t *testing.T) {
		s := "  \x00 "
		assert.Nil(t, Sanitize(&s))
	})

	t.Run("content preserved", func(t *testing.T) {
		s := " body\x00 "
		got := Sanitize(&s)
		require.NotNil(t, got)
		assert.Equal(t, "body", *got)
	})

	t.Run("input not mutated", func(t *testing.T) {
		s := " body "
		Sanitize(&s)
		assert.Equal(t, " body ", s)
	})
}
