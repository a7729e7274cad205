package security_test

import (
	"strings"
	"testing"

	"github.com/ashudevin/caremind/internal/security"
	"github.com/stretchr/testify/assert"
)

func TestMessageSanitizer_Sanitize(t *testing.T) {
	s := security.NewMessageSanitizer()

	tests := []struct {
		name    string
		in      string
		want    string
		wantErr error
	}{
		{"plain", "I feel great", "I feel great", nil},
		{"trims", "  hello \n", "hello", nil},
		{"keeps newlines", "line one\nline two", "line one\nline two", nil},
		{"strips control", "hi\x00there\x07", "hithere", nil},
		{"blank", "   ", "", nil},
		{"unicode", "je me sens très bien 😊", "je me sens très bien 😊", nil},
		{"too long", strings.Repeat("a", security.MaxMessageLength+1), "", security.ErrMessageTooLong},
		{"bad utf8", string([]byte{0xff, 0xfe}), "", security.ErrInvalidEncoding},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Sanitize(tt.in)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
