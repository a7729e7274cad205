package security

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxMessageLength is the longest chat message accepted, in runes
const MaxMessageLength = 4000

var ErrMessageTooLong = fmt.Errorf("message exceeds %d characters", MaxMessageLength)

var ErrInvalidEncoding = errors.New("message is not valid UTF-8")

// MessageSanitizer normalizes user chat input before it reaches the
// conversation or is embedded into a generation prompt
type MessageSanitizer struct {
	maxLength int
}

// NewMessageSanitizer creates a sanitizer with the default length limit
func NewMessageSanitizer() *MessageSanitizer {
	return &MessageSanitizer{maxLength: MaxMessageLength}
}

// Sanitize strips control characters other than newline and tab, and
// trims surrounding whitespace. The result may be empty. Invalid UTF-8 is
// rejected; input decoded by encoding/json already has such bytes replaced
// with U+FFFD and passes.
func (s *MessageSanitizer) Sanitize(msg string) (string, error) {
	if !utf8.ValidString(msg) {
		return "", ErrInvalidEncoding
	}

	cleaned := strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, msg)
	cleaned = strings.TrimSpace(cleaned)

	if utf8.RuneCountInString(cleaned) > s.maxLength {
		return "", ErrMessageTooLong
	}
	return cleaned, nil
}
