// Package widget is the fyne rendering surface of a vt100 session.
package widget

import (
	"context"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/fyne-io/vt100"
)

const (
	paintInterval = 20 * time.Millisecond
	bellFlash     = 150 * time.Millisecond

	asciiBackspace = 0x7f
)

var (
	_ vt100.Display     = (*Terminal)(nil)
	_ fyne.Focusable    = (*Terminal)(nil)
	_ fyne.Shortcutable = (*Terminal)(nil)
	_ fyne.Draggable    = (*Terminal)(nil)
	_ fyne.Tappable     = (*Terminal)(nil)
)

// keys maps fyne keys onto the terminal's special keys.
var keys = map[fyne.KeyName]vt100.Key{
	fyne.KeyReturn: vt100.KeyEnter,
	fyne.KeyEnter:  vt100.KeyEnter,
	fyne.KeyUp:     vt100.KeyUp,
	fyne.KeyDown:   vt100.KeyDown,
	fyne.KeyRight:  vt100.KeyRight,
	fyne.KeyLeft:   vt100.KeyLeft,
	fyne.KeyF1:     vt100.KeyF1,
	fyne.KeyF2:     vt100.KeyF2,
	fyne.KeyF3:     vt100.KeyF3,
	fyne.KeyF4:     vt100.KeyF4,
	fyne.KeyF5:     vt100.KeyF5,
	fyne.KeyF6:     vt100.KeyF6,
	fyne.KeyF7:     vt100.KeyF7,
	fyne.KeyF8:     vt100.KeyF8,
	fyne.KeyF9:     vt100.KeyF9,
	fyne.KeyF10:    vt100.KeyF10,
}

// plainKeys are keys that send a single control character.
var plainKeys = map[fyne.KeyName]byte{
	fyne.KeyBackspace: asciiBackspace,
	fyne.KeyTab:       '\t',
	fyne.KeyEscape:    0x1b,
}

// Terminal is a widget showing a ScreenBuffer. It is the Display of the
// session's Terminal and feeds keyboard input back to the Emulator.
type Terminal struct {
	widget.BaseWidget

	screen  *vt100.ScreenBuffer
	content *TermGrid
	cursor  *canvas.Rectangle
	styles  *styleCache

	mu               sync.Mutex
	cursorX, cursorY int
	bell             bool
	focused          bool
	cell             fyne.Size
	emu              *vt100.Emulator
	selStart, selEnd *vt100.Position

	full    atomic.Bool
	dirty   atomic.Bool
	queued  atomic.Bool
	resizes chan vt100.Size

	log *log.Logger
}

// NewTerminal returns a widget drawing screen.
func NewTerminal(screen *vt100.ScreenBuffer) *Terminal {
	t := &Terminal{
		screen:  screen,
		content: NewTermGrid(),
		styles:  newStyleCache(DefaultPalette()),
		cursorY: 1,
		resizes: make(chan vt100.Size, 1),
		log:     vt100.Logger().With("component", "widget"),
	}
	t.full.Store(true)
	t.ExtendBaseWidget(t)
	return t
}

// SetPalette changes the colours used for new paints and repaints everything.
func (t *Terminal) SetPalette(p Palette) {
	fyne.Do(func() {
		t.styles.reset(p)
		t.full.Store(true)
		t.paint()
	})
}

// Run runs emu with this widget as its surface until the session ends.
// Resizes of the widget are forwarded to the session while it runs.
func (t *Terminal) Run(ctx context.Context, emu *vt100.Emulator) error {
	t.mu.Lock()
	t.emu = emu
	t.mu.Unlock()

	ctx, stop := context.WithCancel(ctx)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer stop()
		return emu.Run(ctx)
	})
	g.Go(func() error {
		t.resizeLoop(ctx, emu)
		return nil
	})
	g.Go(func() error {
		t.paintLoop(ctx)
		return nil
	})
	err := g.Wait()
	t.requestPaint()
	return err
}

func (t *Terminal) resizeLoop(ctx context.Context, emu *vt100.Emulator) {
	for {
		select {
		case <-ctx.Done():
			return
		case size := <-t.resizes:
			if err := emu.PostResize(size, vt100.OriginUser); err != nil {
				t.log.Warn("resize failed", "err", err)
			}
		}
	}
}

// paintLoop paints whenever the screen or the cursor changed. Display methods
// run with the screen locked, so they only flag the change.
func (t *Terminal) paintLoop(ctx context.Context) {
	ticker := time.NewTicker(paintInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if t.dirty.Swap(false) || t.full.Load() || t.screen.HasDamage() {
				t.requestPaint()
			}
		}
	}
}

func (t *Terminal) requestPaint() {
	if t.queued.CompareAndSwap(false, true) {
		fyne.Do(t.paint)
	}
}

// paint copies the damaged runs into the grid. It runs on the fyne thread.
func (t *Terminal) paint() {
	t.queued.Store(false)
	w, h := t.screen.Size()
	t.content.resizeGrid(w, h)
	painter := &gridPainter{grid: t.content, styles: t.styles}
	t.screen.DrainDamage(painter, t.full.Swap(false))
	t.Refresh()
}

func (t *Terminal) RowCount() int {
	return t.screen.Height()
}

func (t *Terminal) ColumnCount() int {
	return t.screen.Width()
}

func (t *Terminal) SetCursor(x, y int) {
	t.mu.Lock()
	t.cursorX, t.cursorY = x, y
	t.mu.Unlock()
	t.dirty.Store(true)
}

// cursorCell is the 0-based cell the cursor covers. A cursor waiting to wrap
// stays on the last column.
func (t *Terminal) cursorCell() (col, row int) {
	w, _ := t.screen.Size()
	t.mu.Lock()
	defer t.mu.Unlock()
	col = min(t.cursorX, max(w-1, 0))
	return col, t.cursorY - 1
}

func (t *Terminal) Beep() {
	t.mu.Lock()
	t.bell = true
	t.mu.Unlock()
	time.AfterFunc(bellFlash, func() {
		t.mu.Lock()
		t.bell = false
		t.mu.Unlock()
		t.dirty.Store(true)
	})
	t.dirty.Store(true)
}

func (t *Terminal) DoResize(pending vt100.Size, origin vt100.RequestOrigin) vt100.Size {
	t.screen.Resize(pending.Width, pending.Height)
	t.full.Store(true)
	t.log.Debug("resized", "columns", pending.Width, "rows", pending.Height, "origin", origin)

	cell := t.cellSize()
	return vt100.Size{
		Width:  int(cell.Width) * pending.Width,
		Height: int(cell.Height) * pending.Height,
	}
}

func (t *Terminal) ScrollArea(_, _, _ int) {
	t.full.Store(true)
}

func (t *Terminal) cellSize() fyne.Size {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cell.Width == 0 || t.cell.Height == 0 {
		size := fyne.MeasureText("M", theme.TextSize(), fyne.TextStyle{Monospace: true})
		t.cell = fyne.NewSize(float32(math.Round(float64(size.Width))), float32(math.Round(float64(size.Height))))
	}
	return t.cell
}

// Resize lays the widget out and asks the session for as many cells as fit.
func (t *Terminal) Resize(s fyne.Size) {
	t.BaseWidget.Resize(s)
	cell := t.cellSize()
	if cell.Width <= 0 || cell.Height <= 0 {
		return
	}
	size := vt100.Size{
		Width:  max(int(s.Width/cell.Width), 1),
		Height: max(int(s.Height/cell.Height), 1),
	}
	if w, h := t.screen.Size(); w == size.Width && h == size.Height {
		return
	}
	select {
	case <-t.resizes:
	default:
	}
	t.resizes <- size
}

func (t *Terminal) MinSize() fyne.Size {
	t.ExtendBaseWidget(t)
	return t.BaseWidget.MinSize()
}

func (t *Terminal) FocusGained() {
	t.mu.Lock()
	t.focused = true
	t.mu.Unlock()
	t.Refresh()
}

func (t *Terminal) FocusLost() {
	t.mu.Lock()
	t.focused = false
	t.mu.Unlock()
	t.Refresh()
}

// AcceptsTab keeps Tab for the shell rather than focus traversal.
func (t *Terminal) AcceptsTab() bool {
	return true
}

func (t *Terminal) TypedRune(r rune) {
	t.send([]byte(string(r)))
}

func (t *Terminal) TypedKey(ev *fyne.KeyEvent) {
	if k, ok := keys[ev.Name]; ok {
		if emu := t.emulator(); emu != nil {
			if err := emu.SendKey(k); err != nil {
				t.log.Warn("failed to send key", "key", ev.Name, "err", err)
			}
		}
		return
	}
	if b, ok := plainKeys[ev.Name]; ok {
		t.send([]byte{b})
	}
}

// TypedShortcut handles copy and paste, and sends other control chords as
// control characters.
func (t *Terminal) TypedShortcut(s fyne.Shortcut) {
	switch sc := s.(type) {
	case *fyne.ShortcutCopy:
		if text := t.SelectedText(); text != "" {
			sc.Clipboard.SetContent(text)
			return
		}
		t.send([]byte{controlCode(fyne.KeyC)})
	case *fyne.ShortcutPaste:
		t.send([]byte(sc.Clipboard.Content()))
	case *desktop.CustomShortcut:
		if sc.Modifier == fyne.KeyModifierControl {
			if code := controlCode(sc.KeyName); code != 0 {
				t.send([]byte{code})
			}
		}
	}
}

// controlCode is the C0 code of Ctrl+key for the letters A to Z.
func controlCode(key fyne.KeyName) byte {
	if len(key) != 1 || key[0] < 'A' || key[0] > 'Z' {
		return 0
	}
	return key[0] - 'A' + 1
}

func (t *Terminal) emulator() *vt100.Emulator {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.emu
}

func (t *Terminal) send(b []byte) {
	emu := t.emulator()
	if emu == nil {
		return
	}
	if err := emu.SendBytes(b); err != nil {
		t.log.Warn("failed to send input", "err", err)
	}
}

// positionAt converts a point on the widget to the 0-based cell under it.
func (t *Terminal) positionAt(pos fyne.Position) vt100.Position {
	cell := t.cellSize()
	w, h := t.screen.Size()
	col := int(max(pos.X, 0) / cell.Width)
	row := int(max(pos.Y, 0) / cell.Height)
	return vt100.Position{Col: min(col, w), Row: min(row, h-1)}
}

// Dragged extends the selection. Cells are resolved before t.mu is taken,
// positionAt needs both the screen lock and t.mu.
func (t *Terminal) Dragged(ev *fyne.DragEvent) {
	start := t.positionAt(ev.Position.Subtract(ev.Dragged))
	end := t.positionAt(ev.Position)
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.selStart == nil {
		t.selStart = &start
	}
	t.selEnd = &end
}

func (t *Terminal) DragEnd() {}

// Tapped clears the selection.
func (t *Terminal) Tapped(*fyne.PointEvent) {
	t.mu.Lock()
	t.selStart, t.selEnd = nil, nil
	t.mu.Unlock()
}

// SelectedText is the text between the ends of the last drag.
func (t *Terminal) SelectedText() string {
	t.mu.Lock()
	if t.selStart == nil || t.selEnd == nil {
		t.mu.Unlock()
		return ""
	}
	sel := vt100.NewSelectionConsumer(*t.selStart, *t.selEnd)
	t.mu.Unlock()

	t.screen.PumpRows(sel.Begin.Row, sel.End.Row-sel.Begin.Row+1, sel)
	return sel.Text()
}
