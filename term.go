package vt100

import (
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
)

type savedCursor struct {
	x, y int
}

// Terminal interprets decoded actions: it keeps the cursor, scroll region,
// modes and current style, and applies text and control functions to a
// ScreenBuffer and its Display.
//
// Every method expects the ScreenBuffer to be locked by the caller, except
// Replay which locks it per action.
type Terminal struct {
	display    Display
	screen     *ScreenBuffer
	scrollback *Scrollback
	responder  io.Writer
	charset    *Charset

	style StyleState

	// cursorX is 0-based and may equal width while a wrap is pending,
	// cursorY is 1-based.
	cursorX, cursorY        int
	width, height           int
	scrollTop, scrollBottom int
	modes                   Mode
	saved                   *savedCursor

	log *log.Logger
}

// NewTerminal returns a terminal drawing on screen through display, sized
// from the display.
func NewTerminal(display Display, screen *ScreenBuffer) *Terminal {
	t := &Terminal{
		display: display,
		screen:  screen,
		cursorY: 1,
		width:   display.ColumnCount(),
		height:  display.RowCount(),
		modes:   ModeANSI,
		log:     logger.With("component", "terminal"),
	}
	t.scrollTop, t.scrollBottom = 1, t.height
	if cs, err := NewCharset(DefaultCharset); err == nil {
		t.charset = cs
	}
	return t
}

// SetScrollback sets where lines scrolled off the top of the screen go.
func (t *Terminal) SetScrollback(s *Scrollback) {
	t.scrollback = s
}

// SetResponder sets where answers to queries such as device attributes are written.
func (t *Terminal) SetResponder(w io.Writer) {
	t.responder = w
}

// SetCharset sets the encoding of double-byte characters.
func (t *Terminal) SetCharset(c *Charset) {
	if c != nil {
		t.charset = c
	}
}

// Cursor returns the 0-based column and 1-based row of the cursor.
func (t *Terminal) Cursor() (x, y int) {
	return t.cursorX, t.cursorY
}

// ScrollRegion returns the 1-based, inclusive top and bottom rows of the scroll region.
func (t *Terminal) ScrollRegion() (top, bottom int) {
	return t.scrollTop, t.scrollBottom
}

// Size returns the columns and rows the terminal believes it has.
func (t *Terminal) Size() Size {
	return Size{Width: t.width, Height: t.height}
}

// Modes returns the active modes.
func (t *Terminal) Modes() Mode {
	return t.modes
}

// Style returns the style new text is drawn with.
func (t *Terminal) Style() Style {
	return t.style.Style()
}

// DistanceToLineEnd is the longest text run that fits before the next wrap.
func (t *Terminal) DistanceToLineEnd() int {
	if t.cursorX >= t.width {
		return t.width
	}
	return t.width - t.cursorX
}

// Apply performs one decoded action.
func (t *Terminal) Apply(a Action) {
	switch a.Kind {
	case ActionText:
		t.writeASCII(a.Text)
	case ActionControl:
		t.handleControl(a.Control)
	case ActionEscape:
		t.handleEscape(a.Intermediates, a.Final)
	case ActionCSI:
		t.handleControlSequence(a.Sequence)
	case ActionDoubleByte:
		t.writeDoubleByte(a.Text)
	}
}

// Replay decodes everything r yields and applies it, locking the screen for
// each action. It returns nil once r is exhausted.
func (t *Terminal) Replay(r io.Reader) error {
	ch, err := NewByteChannel(r)
	if err != nil {
		return err
	}
	defer ch.Close()

	dec := NewDecoder(ch)
	for {
		t.screen.Lock()
		limit := t.DistanceToLineEnd()
		t.screen.Unlock()

		a, err := dec.Next(limit)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		t.screen.Lock()
		t.Apply(a)
		t.screen.Unlock()
	}
}

// Resize asks the display for a new size, then moves the scroll region
// bottom and cursor with the bottom of the screen. It returns the pixel size
// the display settled on.
func (t *Terminal) Resize(size Size, origin RequestOrigin) Size {
	oldHeight := t.height
	pixel := t.display.DoResize(size, origin)
	t.width, t.height = t.display.ColumnCount(), t.display.RowCount()

	delta := t.height - oldHeight
	t.scrollBottom = clamp(t.scrollBottom+delta, 1, t.height)
	t.scrollTop = clamp(t.scrollTop, 1, t.scrollBottom)
	t.cursorY = clamp(t.cursorY+delta, 1, max(t.height, 1))
	t.cursorX = clamp(t.cursorX, 0, t.width)
	t.display.SetCursor(t.cursorX, t.cursorY)
	return pixel
}

func (t *Terminal) setMode(mode Mode) {
	t.modes |= mode
	switch mode {
	case ModeWideColumn:
		t.Resize(Size{Width: 132, Height: 24}, OriginRemote)
		t.clearScreen()
		t.restoreCursor(nil)
	}
}

func (t *Terminal) unsetMode(mode Mode) {
	t.modes &^= mode
	switch mode {
	case ModeWideColumn:
		t.Resize(Size{Width: 80, Height: 24}, OriginRemote)
		t.clearScreen()
		t.restoreCursor(nil)
	}
}

func (t *Terminal) saveCursor() {
	t.saved = &savedCursor{x: t.cursorX, y: t.cursorY}
}

// restoreCursor moves to a saved position, or home when there is none.
func (t *Terminal) restoreCursor(s *savedCursor) {
	t.cursorX, t.cursorY = 0, 1
	if s != nil {
		t.cursorX = clamp(s.x, 0, t.width)
		t.cursorY = clamp(s.y, 1, max(t.height, 1))
	}
	t.display.SetCursor(t.cursorX, t.cursorY)
}

// moveCursor puts the cursor at a 0-based column and 1-based row, clamped to the screen.
func (t *Terminal) moveCursor(x, y int) {
	t.cursorX = clamp(x, 0, max(t.width-1, 0))
	t.cursorY = clamp(y, 1, max(t.height, 1))
	t.display.SetCursor(t.cursorX, t.cursorY)
}

// scrollArea moves the rows of the 1-based, inclusive region [top, bottom]
// by dy. Rows leaving the top of the screen are kept in the scrollback.
func (t *Terminal) scrollArea(top, bottom, dy int) {
	height := bottom - top + 1
	if height <= 0 || dy == 0 {
		return
	}
	if dy < 0 && top == 1 && t.scrollback != nil {
		t.screen.pumpRuns(0, 0, t.width, min(-dy, height), t.scrollback)
	}
	t.display.ScrollArea(top-1, height, dy)
	t.screen.ScrollArea(top-1, height, dy)
}

// index moves down a row, scrolling the region up at its bottom margin.
func (t *Terminal) index() {
	switch {
	case t.cursorY == t.scrollBottom:
		t.scrollArea(t.scrollTop, t.scrollBottom, -1)
		t.clearLines(t.scrollBottom-1, t.scrollBottom)
	case t.cursorY < t.height:
		t.cursorY++
	}
	t.display.SetCursor(t.cursorX, t.cursorY)
}

// reverseIndex moves up a row, scrolling the region down at its top margin.
func (t *Terminal) reverseIndex() {
	switch {
	case t.cursorY == t.scrollTop:
		t.scrollArea(t.scrollTop, t.scrollBottom, 1)
		t.clearLines(t.scrollTop-1, t.scrollTop)
	case t.cursorY > 1:
		t.cursorY--
	}
	t.display.SetCursor(t.cursorX, t.cursorY)
}

func (t *Terminal) nextLine() {
	t.cursorX = 0
	t.index()
}

// clearLines blanks the 0-based rows [begin, end).
func (t *Terminal) clearLines(begin, end int) {
	t.screen.ClearArea(0, begin, t.width, end)
}

func (t *Terminal) clearScreen() {
	t.clearLines(0, t.height)
}

// fillScreen covers the screen with c, the DEC screen alignment test.
func (t *Terminal) fillScreen(c rune) {
	line := make([]rune, t.width)
	for i := range line {
		line[i] = c
	}
	for row := 1; row <= t.height; row++ {
		t.screen.DrawString(string(line), 0, row, t.style.Current())
	}
}

func (t *Terminal) respond(b []byte) {
	if t.responder == nil {
		t.log.Debug("no responder for reply", "bytes", DescribeBytes(b))
		return
	}
	if _, err := t.responder.Write(b); err != nil {
		t.log.Warn("reply failed", "bytes", DescribeBytes(b), "err", err)
	}
}

func (t *Terminal) String() string {
	return fmt.Sprintf("cursor (%d,%d) size %dx%d region %d-%d modes %s",
		t.cursorX, t.cursorY, t.width, t.height, t.scrollTop, t.scrollBottom, t.modes)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
