package pagination

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidPageToken reports a page token that was not produced by EncodeToken.
var ErrInvalidPageToken = errors.New("pagination: invalid pageToken")

const tokenVersion = 1

// Cursor holds the values of the last item on the previous page, in query order.
type Cursor struct {
	After []any
}

// Empty reports whether the cursor points at the first page.
func (c Cursor) Empty() bool { return len(c.After) == 0 }

type wireCursor struct {
	Version int   `json:"v"`
	After   []any `json:"a"`
}

// EncodeToken renders a cursor as base64url JSON. The first page has an empty token.
func EncodeToken(cursor Cursor) (string, error) {
	if cursor.Empty() {
		return "", nil
	}
	data, err := json.Marshal(wireCursor{Version: tokenVersion, After: cursor.After})
	if err != nil {
		return "", fmt.Errorf("pagination: encode token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

// DecodeToken reverses EncodeToken. Numbers decode as float64.
func DecodeToken(token string) (Cursor, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Cursor{}, nil
	}
	data, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return Cursor{}, fmt.Errorf("%w: not base64url", ErrInvalidPageToken)
	}
	var wire wireCursor
	if err := json.Unmarshal(data, &wire); err != nil {
		return Cursor{}, fmt.Errorf("%w: malformed cursor", ErrInvalidPageToken)
	}
	if wire.Version != tokenVersion {
		return Cursor{}, fmt.Errorf("%w: unsupported version %d", ErrInvalidPageToken, wire.Version)
	}
	if len(wire.After) == 0 {
		return Cursor{}, fmt.Errorf("%w: empty cursor", ErrInvalidPageToken)
	}
	return Cursor{After: wire.After}, nil
}

// NextToken encodes the cursor following the given values. Encoding failures yield "" which
// ends iteration rather than failing the page.
func NextToken(after ...any) string {
	token, err := EncodeToken(Cursor{After: after})
	if err != nil {
		return ""
	}
	return token
}
