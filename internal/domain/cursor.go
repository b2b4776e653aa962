package domain

import (
	"encoding/base64"
	"strings"
)

// Cursor tokens are opaque to clients: a base64url wrapping of the record
// identifier behind a fixed prefix. The prefix makes a raw identifier (or a
// token from some other listing) fail decoding instead of silently paging
// from the wrong spot. No cryptographic protection is needed; the token
// guards against string-concatenation pagination bugs, not tampering.
const cursorPrefix = "rec:"

// EncodeCursor creates an opaque page-boundary token from a record identifier.
func EncodeCursor(id string) string {
	return base64.URLEncoding.EncodeToString([]byte(cursorPrefix + id))
}

// DecodeCursor is the inverse of EncodeCursor. A token that does not decode
// to a prefixed identifier yields an InvalidCursorError.
func DecodeCursor(token string) (string, error) {
	raw, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return "", ErrInvalidCursor("malformed cursor %q", token)
	}
	s := string(raw)
	if !strings.HasPrefix(s, cursorPrefix) || len(s) == len(cursorPrefix) {
		return "", ErrInvalidCursor("malformed cursor %q", token)
	}
	return s[len(cursorPrefix):], nil
}
