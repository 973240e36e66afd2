package vt100

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTerminal_Backspace(t *testing.T) {
	term, screen, _ := newTestTerminal(t, 10, 2)
	feed(t, term, "Hi")
	assert.Equal(t, "Hi", screenText(screen))

	feed(t, term, "\bello")
	assert.Equal(t, "Hello", screenText(screen))
}

func TestTerminal_BackspaceWraps(t *testing.T) {
	term, _, _ := newTestTerminal(t, 5, 2)

	feed(t, term, "\x1b[2;1H\b")
	x, y := term.Cursor()
	assert.Equal(t, 4, x)
	assert.Equal(t, 1, y)

	feed(t, term, "\x1b[1;1H\b")
	x, y = term.Cursor()
	assert.Equal(t, 0, x)
	assert.Equal(t, 1, y)
}

func TestTerminal_Autowrap(t *testing.T) {
	term, screen, _ := newTestTerminal(t, 2, 3)

	feed(t, term, "aa")
	x, y := term.Cursor()
	assert.Equal(t, 2, x, "wrap is pending until the next character")
	assert.Equal(t, 1, y)

	feed(t, term, "a")
	assert.Equal(t, "aa\na", screenText(screen))
	x, y = term.Cursor()
	assert.Equal(t, 1, x)
	assert.Equal(t, 2, y)
}

func TestTerminal_CarriageReturnLineFeed(t *testing.T) {
	term, screen, _ := newTestTerminal(t, 10, 3)

	feed(t, term, "one\r\ntwo\nthree")
	assert.Equal(t, "one\ntwo\n   three", screenText(screen))
}

func TestTerminal_Tab(t *testing.T) {
	tests := map[string]struct {
		input string
		x, y  int
	}{
		"first stop":   {input: "a\t", x: 8, y: 1},
		"next stop":    {input: "\x1b[1;9H\t", x: 16, y: 1},
		"wraps at end": {input: "\x1b[1;17H\t", x: 0, y: 2},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			term, _, _ := newTestTerminal(t, 20, 3)
			feed(t, term, tt.input)
			x, y := term.Cursor()
			assert.Equal(t, tt.x, x)
			assert.Equal(t, tt.y, y)
		})
	}
}

func TestTerminal_Bell(t *testing.T) {
	term, screen, display := newTestTerminal(t, 10, 2)

	feed(t, term, "a\a\ab")
	assert.Equal(t, 2, display.Beeps())
	assert.Equal(t, "ab", screenText(screen))
}

func TestTerminal_IgnoredControls(t *testing.T) {
	term, screen, _ := newTestTerminal(t, 10, 2)

	feed(t, term, "a\x00b\x7fc\x0ed")
	assert.Equal(t, "abcd", screenText(screen))
}

func TestTerminal_ScrollIntoScrollback(t *testing.T) {
	term, screen, _ := newTestTerminal(t, 4, 2)
	sb := NewScrollback()
	term.SetScrollback(sb)

	feed(t, term, "ab\r\ncd\r\nef")
	assert.Equal(t, "cd\nef", screenText(screen))
	assert.Equal(t, 1, sb.LineCount())
	assert.Equal(t, "ab  \n", sb.Lines())
}

func TestTerminal_ScrollRegionKeepsScrollback(t *testing.T) {
	term, _, _ := newTestTerminal(t, 4, 4)
	sb := NewScrollback()
	term.SetScrollback(sb)

	feed(t, term, "\x1b[2;4r\x1b[4;1H\n\n")
	assert.Equal(t, 0, sb.LineCount())
}

func TestTerminal_DoubleByte(t *testing.T) {
	term, screen, _ := newTestTerminal(t, 10, 2)

	feed(t, term, "a\xa4\xa2b")
	r, _ := screen.Cell(1, 0)
	assert.Equal(t, 'あ', r)
	r, _ = screen.Cell(2, 0)
	assert.Equal(t, 'b', r)
	x, _ := term.Cursor()
	assert.Equal(t, 3, x)
}

func TestTerminal_TextStyle(t *testing.T) {
	term, screen, _ := newTestTerminal(t, 10, 2)

	feed(t, term, "\x1b[1;31mA\x1b[0mB")
	_, style := screen.Cell(0, 0)
	assert.Equal(t, Style{Foreground: ColorRed, Options: OptionBold}, style.Style())
	_, style = screen.Cell(1, 0)
	assert.Equal(t, EmptyStyleID, style)
}

func TestTerminal_WriteString(t *testing.T) {
	term, screen, display := newTestTerminal(t, 3, 2)

	screen.Lock()
	term.WriteString("héllo")
	screen.Unlock()

	assert.Equal(t, "hél\nlo", screenText(screen))
	x, y := display.Cursor()
	assert.Equal(t, 2, x)
	assert.Equal(t, 2, y)
}

func TestTerminal_Resize(t *testing.T) {
	term, screen, _ := newTestTerminal(t, 10, 5)
	feed(t, term, "\x1b[2;4r\x1b[5;3H")

	screen.Lock()
	term.Resize(Size{Width: 8, Height: 4}, OriginUser)
	screen.Unlock()

	top, bottom := term.ScrollRegion()
	assert.Equal(t, 2, top)
	assert.Equal(t, 3, bottom)
	x, y := term.Cursor()
	assert.Equal(t, 2, x)
	assert.Equal(t, 4, y)
	assert.Equal(t, Size{Width: 8, Height: 4}, term.Size())
}
