package vt100

import (
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

// DefaultCharset decodes the two byte characters that arrive with the high bit set.
const DefaultCharset = "euc-jp"

// Charset decodes legacy double-byte characters.
type Charset struct {
	name string
	enc  encoding.Encoding
}

// NewCharset looks up an encoding by its WHATWG name or label, such as
// "euc-jp", "shift_jis" or "gbk".
func NewCharset(name string) (*Charset, error) {
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("charset %q: %w", name, err)
	}
	canonical, err := htmlindex.Name(enc)
	if err != nil {
		canonical = name
	}
	return &Charset{name: canonical, enc: enc}, nil
}

// Name is the canonical name of the encoding.
func (c *Charset) Name() string {
	return c.name
}

// Decode converts the bytes of one character. The trailing byte is not
// validated; undecodable input yields the replacement character.
func (c *Charset) Decode(b []byte) string {
	out, err := c.enc.NewDecoder().Bytes(b)
	if err != nil || len(out) == 0 {
		return string(utf8.RuneError)
	}
	return string(out)
}
