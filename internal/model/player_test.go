package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		name     string
		username string
		wantErr  bool
	}{
		{"empty", "", true},
		{"whitespace only", "     ", true},
		{"too short", "ab", true},
		{"minimum length", "bob", false},
		{"padded short name", " ab ", false},
		{"maximum length", "abcdefghijabcdefghijabcdefghijabcdefghijabcdefghij", false},
		{"too long", "abcdefghijabcdefghijabcdefghijabcdefghijabcdefghijk", true},
		{"multibyte counted as runes", "äöü", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUsername(tt.username)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidUsername)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParsePlayerID(t *testing.T) {
	id, err := ParsePlayerID("42")
	assert.NoError(t, err)
	assert.Equal(t, PlayerID(42), id)
	assert.Equal(t, "42", id.String())

	for _, bad := range []string{"", "abc", "0", "-3", "1.5"} {
		_, err := ParsePlayerID(bad)
		assert.ErrorIs(t, err, ErrInvalidPlayerID, bad)
	}
}
