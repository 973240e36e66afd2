package vt100

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyCode(t *testing.T) {
	assert.Equal(t, []byte("\r"), KeyCode(KeyEnter))
	assert.Equal(t, []byte("\x1bOD"), KeyCode(KeyLeft))
	assert.Equal(t, []byte("\x1bOx"), KeyCode(KeyF10))
	assert.Nil(t, KeyCode(Key(-1)))

	code := KeyCode(KeyUp)
	code[2] = 'Z'
	assert.Equal(t, []byte("\x1bOA"), KeyCode(KeyUp), "callers get a copy")
}

func TestMode_String(t *testing.T) {
	assert.Equal(t, "ANSI|WrapAround", (ModeANSI | ModeWrapAround).String())
	assert.Equal(t, "", Mode(0).String())
}

func TestLookupMode(t *testing.T) {
	m, ok := LookupMode(PrivateModes, 3)
	assert.True(t, ok)
	assert.Equal(t, ModeWideColumn, m)

	_, ok = LookupMode(PrivateModes, 25)
	assert.False(t, ok)
	_, ok = LookupMode(NormalModes, 1)
	assert.False(t, ok)
}
