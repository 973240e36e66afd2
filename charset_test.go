package vt100

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCharset_Decode(t *testing.T) {
	tests := map[string]struct {
		charset  string
		input    []byte
		expected string
	}{
		"euc-jp hiragana": {charset: "euc-jp", input: []byte{0xa4, 0xa2}, expected: "あ"},
		"shift_jis kanji": {charset: "shift_jis", input: []byte{0x88, 0x9f}, expected: "亜"},
		"gbk":             {charset: "gbk", input: []byte{0xc4, 0xe3}, expected: "你"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			cs, err := NewCharset(tt.charset)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, cs.Decode(tt.input))
		})
	}
}

func TestCharset_Name(t *testing.T) {
	cs, err := NewCharset("EUC-JP")
	require.NoError(t, err)
	assert.Equal(t, "euc-jp", cs.Name())

	_, err = NewCharset("klingon")
	assert.Error(t, err)
}

func TestTerminal_SetCharset(t *testing.T) {
	term, screen, _ := newTestTerminal(t, 4, 1)
	cs, err := NewCharset("gbk")
	require.NoError(t, err)
	term.SetCharset(cs)
	term.SetCharset(nil)

	feed(t, term, "\xc4\xe3")
	r, _ := screen.Cell(0, 0)
	assert.Equal(t, '你', r)
}
