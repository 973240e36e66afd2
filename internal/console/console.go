// Package console shows a vt100 session inside the terminal the program runs
// in, using tcell.
package console

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gdamore/tcell/v2"
	"golang.org/x/sync/errgroup"

	"github.com/fyne-io/vt100"
)

const paintInterval = 20 * time.Millisecond

// QuitKey ends the session from the keyboard, like telnet's escape.
const QuitKey = tcell.KeyCtrlRightSq

// ErrQuit is returned by Run when the user pressed QuitKey.
var ErrQuit = errors.New("quit from keyboard")

var _ vt100.Display = (*Console)(nil)

var keys = map[tcell.Key]vt100.Key{
	tcell.KeyEnter: vt100.KeyEnter,
	tcell.KeyUp:    vt100.KeyUp,
	tcell.KeyDown:  vt100.KeyDown,
	tcell.KeyRight: vt100.KeyRight,
	tcell.KeyLeft:  vt100.KeyLeft,
	tcell.KeyF1:    vt100.KeyF1,
	tcell.KeyF2:    vt100.KeyF2,
	tcell.KeyF3:    vt100.KeyF3,
	tcell.KeyF4:    vt100.KeyF4,
	tcell.KeyF5:    vt100.KeyF5,
	tcell.KeyF6:    vt100.KeyF6,
	tcell.KeyF7:    vt100.KeyF7,
	tcell.KeyF8:    vt100.KeyF8,
	tcell.KeyF9:    vt100.KeyF9,
	tcell.KeyF10:   vt100.KeyF10,
}

// Console is a Display drawing a ScreenBuffer onto a tcell screen.
type Console struct {
	screen tcell.Screen
	buf    *vt100.ScreenBuffer

	mu               sync.Mutex
	cursorX, cursorY int
	styles           map[vt100.StyleID]tcell.Style

	full  atomic.Bool
	dirty atomic.Bool
	bells atomic.Int32

	log *log.Logger
}

// New returns a console over an initialised screen.
func New(screen tcell.Screen, buf *vt100.ScreenBuffer) *Console {
	c := &Console{
		screen:  screen,
		buf:     buf,
		cursorY: 1,
		styles:  make(map[vt100.StyleID]tcell.Style),
		log:     vt100.Logger().With("component", "console"),
	}
	c.full.Store(true)
	return c
}

// NewBuffer returns a screen buffer the size of screen, so the first resize
// in Run does not move the cursor.
func NewBuffer(screen tcell.Screen) *vt100.ScreenBuffer {
	w, h := screen.Size()
	return vt100.NewScreenBuffer(max(w, 1), max(h, 1))
}

// Run runs emu on this console until the session ends or the user quits.
// The screen is sized to the console first.
func (c *Console) Run(ctx context.Context, emu *vt100.Emulator) error {
	w, h := c.screen.Size()
	if err := emu.PostResize(vt100.Size{Width: w, Height: h}, vt100.OriginUser); err != nil {
		c.log.Warn("initial resize failed", "err", err)
	}

	ctx, stop := context.WithCancel(ctx)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer stop()
		return emu.Run(ctx)
	})
	g.Go(func() error {
		return c.events(ctx, emu)
	})
	g.Go(func() error {
		c.paintLoop(ctx)
		return nil
	})
	err := g.Wait()
	c.Paint()
	return err
}

// events forwards keys and resizes until ctx ends or QuitKey is pressed.
func (c *Console) events(ctx context.Context, emu *vt100.Emulator) error {
	go func() {
		<-ctx.Done()
		_ = c.screen.PostEvent(tcell.NewEventInterrupt(nil))
	}()
	for {
		switch ev := c.screen.PollEvent().(type) {
		case nil:
			return nil
		case *tcell.EventInterrupt:
			if ctx.Err() != nil {
				return nil
			}
		case *tcell.EventResize:
			w, h := ev.Size()
			if err := emu.PostResize(vt100.Size{Width: w, Height: h}, vt100.OriginUser); err != nil {
				c.log.Warn("resize failed", "err", err)
			}
			c.screen.Sync()
		case *tcell.EventKey:
			if ev.Key() == QuitKey {
				return ErrQuit
			}
			if err := c.sendKey(emu, ev); err != nil {
				c.log.Warn("failed to send key", "key", ev.Name(), "err", err)
			}
		}
	}
}

func (c *Console) sendKey(emu *vt100.Emulator, ev *tcell.EventKey) error {
	if k, ok := keys[ev.Key()]; ok {
		return emu.SendKey(k)
	}
	if b := InputBytes(ev); b != nil {
		return emu.SendBytes(b)
	}
	return nil
}

// InputBytes is what a key without a special code sends: the character
// typed, or the control character of a chord.
func InputBytes(ev *tcell.EventKey) []byte {
	switch {
	case ev.Key() == tcell.KeyRune:
		return []byte(string(ev.Rune()))
	case ev.Key() < 0x80:
		return []byte{byte(ev.Key())}
	}
	return nil
}

func (c *Console) paintLoop(ctx context.Context) {
	ticker := time.NewTicker(paintInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if c.dirty.Swap(false) || c.full.Load() || c.buf.HasDamage() {
				c.Paint()
			}
		}
	}
}

// Paint draws the damaged cells and the cursor. It must not be called with
// the ScreenBuffer locked.
func (c *Console) Paint() {
	for n := c.bells.Swap(0); n > 0; n-- {
		_ = c.screen.Beep()
	}
	c.buf.DrainDamage(vt100.RunConsumerFunc(c.drawRun), c.full.Swap(false))

	w, _ := c.buf.Size()
	c.mu.Lock()
	x, y := min(c.cursorX, max(w-1, 0)), c.cursorY-1
	c.mu.Unlock()
	c.screen.ShowCursor(x, y)
	c.screen.Show()
}

func (c *Console) drawRun(x, y int, style vt100.StyleID, text []rune) {
	st := c.style(style)
	for i, r := range text {
		c.screen.SetContent(x+i, y, r, nil, st)
	}
}

func (c *Console) style(id vt100.StyleID) tcell.Style {
	c.mu.Lock()
	defer c.mu.Unlock()
	if st, ok := c.styles[id]; ok {
		return st
	}
	st := Style(id.Style())
	c.styles[id] = st
	return st
}

// Style converts a rendition to a tcell style.
func Style(s vt100.Style) tcell.Style {
	fg, bg := color(s.Foreground), color(s.Background)
	if s.Has(vt100.OptionHidden) {
		fg = bg
	}
	return tcell.StyleDefault.
		Foreground(fg).
		Background(bg).
		Bold(s.Has(vt100.OptionBold)).
		Blink(s.Has(vt100.OptionBlink)).
		Dim(s.Has(vt100.OptionDim)).
		Reverse(s.Has(vt100.OptionReverse)).
		Underline(s.Has(vt100.OptionUnderscore))
}

func color(c vt100.Color) tcell.Color {
	if c == vt100.ColorDefault {
		return tcell.ColorDefault
	}
	return tcell.PaletteColor(int(c - vt100.ColorBlack))
}

func (c *Console) RowCount() int {
	return c.buf.Height()
}

func (c *Console) ColumnCount() int {
	return c.buf.Width()
}

func (c *Console) SetCursor(x, y int) {
	c.mu.Lock()
	c.cursorX, c.cursorY = x, y
	c.mu.Unlock()
	c.dirty.Store(true)
}

func (c *Console) Beep() {
	c.bells.Add(1)
	c.dirty.Store(true)
}

// DoResize resizes the buffer. Cells of a text console have no pixel size.
func (c *Console) DoResize(pending vt100.Size, origin vt100.RequestOrigin) vt100.Size {
	c.buf.Resize(pending.Width, pending.Height)
	c.full.Store(true)
	c.log.Debug("resized", "columns", pending.Width, "rows", pending.Height, "origin", origin)
	return vt100.Size{}
}

func (c *Console) ScrollArea(_, _, _ int) {
	c.full.Store(true)
}
