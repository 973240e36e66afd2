package widget

import (
	"context"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"github.com/fyne-io/vt100"
)

const blinkingInterval = 500 * time.Millisecond

// TermGrid is a monospaced grid of characters.
// This is designed to be used by our terminal emulator.
type TermGrid struct {
	widget.TextGrid

	tickerCancel context.CancelFunc
}

// NewTermGrid creates a new empty TextGrid widget.
func NewTermGrid() *TermGrid {
	grid := &TermGrid{}
	grid.ExtendBaseWidget(grid)

	grid.Scroll = container.ScrollNone
	return grid
}

// termGridRenderer draws underlines, which TextGrid has no style for, as
// thin rectangles over the base renderer.
type termGridRenderer struct {
	grid       *TermGrid
	base       fyne.WidgetRenderer
	underlines []fyne.CanvasObject
}

// CreateRenderer is a private method to Fyne which links this widget to its renderer
func (t *TermGrid) CreateRenderer() fyne.WidgetRenderer {
	t.ExtendBaseWidget(t)
	return &termGridRenderer{grid: t, base: t.TextGrid.CreateRenderer()}
}

func (r *termGridRenderer) Layout(size fyne.Size) {
	r.base.Layout(size)
	r.updateUnderlines(size)
}

func (r *termGridRenderer) MinSize() fyne.Size {
	return r.base.MinSize()
}

func (r *termGridRenderer) Refresh() {
	r.base.Refresh()
	r.updateUnderlines(r.grid.Size())
}

func (r *termGridRenderer) Objects() []fyne.CanvasObject {
	return append(r.base.Objects(), r.underlines...)
}

func (r *termGridRenderer) Destroy() {
	r.base.Destroy()
	r.underlines = nil
}

func (r *termGridRenderer) updateUnderlines(size fyne.Size) {
	r.underlines = r.underlines[:0]
	rows := len(r.grid.Rows)
	if rows == 0 || len(r.grid.Rows[0].Cells) == 0 {
		return
	}
	cellWidth := size.Width / float32(len(r.grid.Rows[0].Cells))
	cellHeight := size.Height / float32(rows)

	for rowIdx, row := range r.grid.Rows {
		for colIdx, cell := range row.Cells {
			s, ok := cell.Style.(*TextGridStyle)
			if !ok || !s.Underline {
				continue
			}
			line := canvas.NewRectangle(s.TextColor())
			line.Move(fyne.NewPos(float32(colIdx)*cellWidth, float32(rowIdx)*cellHeight+cellHeight*0.9))
			line.Resize(fyne.NewSize(cellWidth, cellHeight*0.08))
			r.underlines = append(r.underlines, line)
		}
	}
}

// resizeGrid makes the grid exactly columns by rows cells, keeping content
// that still fits.
func (t *TermGrid) resizeGrid(columns, rows int) {
	if len(t.Rows) > rows {
		t.Rows = t.Rows[:rows]
	}
	for len(t.Rows) < rows {
		t.Rows = append(t.Rows, widget.TextGridRow{})
	}
	for i := range t.Rows {
		cells := t.Rows[i].Cells
		if len(cells) > columns {
			cells = cells[:columns]
		}
		for len(cells) < columns {
			cells = append(cells, widget.TextGridCell{Rune: ' '})
		}
		t.Rows[i].Cells = cells
	}
}

// gridPainter copies runs of a ScreenBuffer into the grid cells.
type gridPainter struct {
	grid   *TermGrid
	styles *styleCache
	blinks bool
}

func (p *gridPainter) ConsumeRun(x, y int, style vt100.StyleID, text []rune) {
	if y >= len(p.grid.Rows) {
		return
	}
	s := p.styles.get(style)
	p.blinks = p.blinks || s.BlinkEnabled
	cells := p.grid.Rows[y].Cells
	for i, r := range text {
		if x+i >= len(cells) {
			return
		}
		cells[x+i] = widget.TextGridCell{Rune: r, Style: s}
	}
}

// Refresh will be called when this grid should update.
// We update our blinking status and then call the TextGrid we extended to refresh too.
func (t *TermGrid) Refresh() {
	if t.Rows == nil {
		return
	}
	t.refreshBlink(false)
}

func (t *TermGrid) refreshBlink(blink bool) {
	shouldBlink := false
	for _, row := range t.Rows {
		for _, cell := range row.Cells {
			if s, ok := cell.Style.(*TextGridStyle); ok && s.BlinkEnabled {
				shouldBlink = true
				s.blink(blink)
			}
		}
	}

	t.TextGrid.Refresh()

	switch {
	case shouldBlink && t.tickerCancel == nil:
		t.runBlink()
	case !shouldBlink && t.tickerCancel != nil:
		t.StopBlink()
	}
}

// StopBlink stops any active blinking animation
func (t *TermGrid) StopBlink() {
	if t.tickerCancel != nil {
		t.tickerCancel()
		t.tickerCancel = nil
	}
}

func (t *TermGrid) runBlink() {
	t.StopBlink()
	var tickerContext context.Context
	tickerContext, t.tickerCancel = context.WithCancel(context.Background())
	ticker := time.NewTicker(blinkingInterval)
	blinking := false
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-tickerContext.Done():
				return
			case <-ticker.C:
				blinking = !blinking
				off := blinking
				fyne.Do(func() {
					t.refreshBlink(off)
				})
			}
		}
	}()
}
