package source

import (
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Decoder turns raw file bytes into a string.
type Decoder interface {
	Decode(b []byte) (string, error)
}

// UTF8Decoder decodes UTF-8 best-effort: a UTF-8 or UTF-16 byte order mark selects the
// encoding and is dropped, invalid sequences become U+FFFD.
type UTF8Decoder struct{}

func (UTF8Decoder) Decode(b []byte) (string, error) {
	out, _, err := transform.Bytes(unicode.BOMOverride(unicode.UTF8.NewDecoder()), b)
	if err != nil {
		return "", err
	}
	return strings.ToValidUTF8(string(out), "�"), nil
}
