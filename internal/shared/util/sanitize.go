package util

import (
	"errors"
	"strings"
	"unicode"
)

const maxKeySegmentRunes = 200

// ErrInvalidKeySegment is returned for names that cannot be one segment of
// an object key.
var ErrInvalidKeySegment = errors.New("invalid object key segment")

// SanitizeKeySegment turns name into a single object-key segment. Path
// separators and whitespace become underscores, control characters are
// dropped, and traversal names are rejected.
func SanitizeKeySegment(name string) (string, error) {
	s := strings.TrimSpace(name)
	if strings.Contains(s, "..") {
		return "", ErrInvalidKeySegment
	}
	var b strings.Builder
	n := 0
	for _, r := range s {
		if n == maxKeySegmentRunes {
			break
		}
		switch {
		case unicode.IsControl(r):
			continue
		case r == '/' || r == '\\' || unicode.IsSpace(r):
			b.WriteRune('_')
		default:
			b.WriteRune(r)
		}
		n++
	}
	out := b.String()
	if out == "" || out == "." {
		return "", ErrInvalidKeySegment
	}
	return out, nil
}
