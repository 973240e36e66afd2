package vt100

import (
	"context"
	"sync"
)

// Size is a width and height, in cells for a terminal and in pixels for a window.
type Size struct {
	Width, Height int
}

// RequestOrigin says who asked for a resize.
type RequestOrigin int

const (
	// OriginUser is a resize of the window by the user.
	OriginUser RequestOrigin = iota
	// OriginRemote is a resize requested by the remote end, such as DECCOLM.
	OriginRemote
)

func (o RequestOrigin) String() string {
	if o == OriginRemote {
		return "remote"
	}
	return "user"
}

// Display is the rendering surface a Terminal drives.
// Its methods are called with the ScreenBuffer locked.
type Display interface {
	RowCount() int
	ColumnCount() int
	// SetCursor moves the cursor to 0-based column x of 1-based row y.
	SetCursor(x, y int)
	Beep()
	// DoResize resizes the surface and its ScreenBuffer and returns the
	// resulting pixel size.
	DoResize(pending Size, origin RequestOrigin) Size
	// ScrollArea is told about rows of the 0-based region [top, top+height)
	// moving by dy before the ScreenBuffer moves them.
	ScrollArea(top, height, dy int)
}

// Transport is the byte stream to and from the remote end: an SSH session,
// a local shell or anything else producing terminal output.
//
// A Read returning no bytes ends the session.
type Transport interface {
	Init(ctx context.Context) error
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	// Resize tells the remote end about a new terminal size.
	Resize(term, pixel Size) error
	Close() error
	ExitStatus() int
	Name() string
}

// Controller decides what happens to a session when its emulator stops.
type Controller interface {
	CloseOnError() bool
	CloseOnExit() bool
	Close()
}

// SessionPolicy is a Controller built from configuration.
type SessionPolicy struct {
	OnError bool
	OnExit  bool
	OnClose func()
}

func (p SessionPolicy) CloseOnError() bool {
	return p.OnError
}

func (p SessionPolicy) CloseOnExit() bool {
	return p.OnExit
}

func (p SessionPolicy) Close() {
	if p.OnClose != nil {
		p.OnClose()
	}
}

// BufferDisplay is a Display with no surface of its own: the ScreenBuffer is
// the picture. It suits headless use and renderers that poll the buffer.
type BufferDisplay struct {
	screen *ScreenBuffer

	// CellSize converts cell sizes to the pixel sizes reported by DoResize.
	CellSize Size

	mu      sync.Mutex
	cursorX int
	cursorY int
	beeps   int
	scrolls int
}

// NewBufferDisplay returns a display over screen with the cursor at the home position.
func NewBufferDisplay(screen *ScreenBuffer) *BufferDisplay {
	return &BufferDisplay{screen: screen, cursorY: 1}
}

// Screen is the buffer this display shows.
func (d *BufferDisplay) Screen() *ScreenBuffer {
	return d.screen
}

func (d *BufferDisplay) RowCount() int {
	return d.screen.Height()
}

func (d *BufferDisplay) ColumnCount() int {
	return d.screen.Width()
}

func (d *BufferDisplay) SetCursor(x, y int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cursorX, d.cursorY = x, y
}

// Cursor returns the last position given to SetCursor.
func (d *BufferDisplay) Cursor() (x, y int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cursorX, d.cursorY
}

func (d *BufferDisplay) Beep() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.beeps++
}

// Beeps counts the bells rung so far.
func (d *BufferDisplay) Beeps() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.beeps
}

func (d *BufferDisplay) DoResize(pending Size, _ RequestOrigin) Size {
	d.screen.Resize(pending.Width, pending.Height)
	return Size{Width: pending.Width * d.CellSize.Width, Height: pending.Height * d.CellSize.Height}
}

func (d *BufferDisplay) ScrollArea(_, _, _ int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.scrolls++
}

// Scrolls counts the ScrollArea notifications received.
func (d *BufferDisplay) Scrolls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.scrolls
}
