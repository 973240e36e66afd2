package vt100

import (
	"fmt"
	"strings"
	"sync"

	"github.com/bits-and-blooms/bitset"
	"github.com/charmbracelet/log"
)

const emptyChar = ' '

// ScreenBuffer is the live character grid of a terminal.
//
// Cells are stored row-major with a parallel style array and a damage bit per
// cell. Mutating methods (Clear, ClearArea, DrawBytes, DrawString, ScrollArea,
// Resize) must be called with the buffer locked so that a compound update is
// never observed half applied. Query methods lock the buffer themselves and
// must be called without holding the lock.
//
// A Scrollback fed from the buffer has a lock of its own. It is taken after
// the screen lock, never before it.
type ScreenBuffer struct {
	mu sync.Mutex

	width, height int
	chars         []rune
	cellStyles    []StyleID
	damage        *bitset.BitSet

	log *log.Logger
}

// NewScreenBuffer returns a blank buffer of the given size.
func NewScreenBuffer(width, height int) *ScreenBuffer {
	s := &ScreenBuffer{log: logger.With("component", "screen")}
	s.allocate(width, height)
	return s
}

func (s *ScreenBuffer) allocate(width, height int) {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	s.width, s.height = width, height
	s.chars = make([]rune, width*height)
	for i := range s.chars {
		s.chars[i] = emptyChar
	}
	s.cellStyles = make([]StyleID, width*height)
	s.damage = bitset.New(uint(width * height))
}

// Lock acquires the buffer for a compound update.
func (s *ScreenBuffer) Lock() {
	s.mu.Lock()
}

// Unlock releases the buffer.
func (s *ScreenBuffer) Unlock() {
	s.mu.Unlock()
}

// TryLock acquires the buffer if it is free and reports whether it did.
func (s *ScreenBuffer) TryLock() bool {
	return s.mu.TryLock()
}

// Width is the number of columns. The caller must hold the lock
// or be the goroutine that resizes the buffer.
func (s *ScreenBuffer) Width() int {
	return s.width
}

// Height is the number of rows. The caller must hold the lock
// or be the goroutine that resizes the buffer.
func (s *ScreenBuffer) Height() int {
	return s.height
}

// Size returns the current columns and rows.
func (s *ScreenBuffer) Size() (width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.width, s.height
}

// Clear blanks every cell and marks the whole grid damaged.
func (s *ScreenBuffer) Clear() {
	for i := range s.chars {
		s.chars[i] = emptyChar
		s.cellStyles[i] = EmptyStyleID
	}
	setRange(s.damage, 0, len(s.chars))
}

// ClearArea blanks the rectangle of 0-based columns [left, right) and rows
// [top, bottom). Parts outside the grid are skipped and logged.
func (s *ScreenBuffer) ClearArea(left, top, right, bottom int) {
	if top > bottom {
		s.log.Warn("clear of upside down area", "top", top, "bottom", bottom)
		return
	}
	if left > right {
		s.log.Warn("clear of backwards area", "left", left, "right", right)
		return
	}
	if left < 0 || right > s.width {
		s.log.Warn("clear outside columns", "left", left, "right", right, "width", s.width)
		left, right = max(left, 0), min(right, s.width)
	}
	for y := top; y < bottom; y++ {
		if y < 0 || y >= s.height {
			s.log.Warn("clear outside rows", "row", y, "left", left, "top", top, "right", right, "bottom", bottom)
			continue
		}
		from, to := y*s.width+left, y*s.width+right
		for i := from; i < to; i++ {
			s.chars[i] = emptyChar
			s.cellStyles[i] = EmptyStyleID
		}
		setRange(s.damage, from, to)
	}
}

// DrawBytes writes single-byte characters at 0-based column x of 1-based row y.
func (s *ScreenBuffer) DrawBytes(b []byte, x, y int, style StyleID) {
	loc, n, ok := s.drawSpan(len(b), x, y)
	if !ok {
		if s.log.GetLevel() <= log.DebugLevel {
			s.log.Debug("draw out of bounds", "x", x, "y", y, "bytes", DescribeBytes(b))
		}
		return
	}
	for i := 0; i < n; i++ {
		s.chars[loc+i] = rune(b[i])
		s.cellStyles[loc+i] = style
	}
	setRange(s.damage, loc, loc+n)
}

// DrawString writes str at 0-based column x of 1-based row y, one cell per rune.
func (s *ScreenBuffer) DrawString(str string, x, y int, style StyleID) {
	runes := []rune(str)
	loc, n, ok := s.drawSpan(len(runes), x, y)
	if !ok {
		s.log.Debug("draw out of bounds", "x", x, "y", y, "text", str)
		return
	}
	copy(s.chars[loc:loc+n], runes[:n])
	for i := loc; i < loc+n; i++ {
		s.cellStyles[i] = style
	}
	setRange(s.damage, loc, loc+n)
}

// drawSpan clips a draw of n cells to the row and returns its start index.
func (s *ScreenBuffer) drawSpan(n, x, y int) (loc, clipped int, ok bool) {
	row := y - 1
	if row < 0 || row >= s.height || x < 0 || x >= s.width {
		return 0, 0, false
	}
	if x+n > s.width {
		s.log.Warn("draw past end of row", "x", x, "y", y, "len", n, "width", s.width)
		n = s.width - x
	}
	return row*s.width + x, n, true
}

// ScrollArea moves the rows of the 0-based region [top, top+height) by dy
// rows, down when dy is positive. Damage moves with its row. Rows vacated by
// the move keep their old content for the caller to clear.
func (s *ScreenBuffer) ScrollArea(top, height, dy int) {
	if dy == 0 || height <= 0 {
		return
	}
	if top < 0 || top+height > s.height {
		s.log.Warn("scroll region outside screen", "top", top, "height", height, "rows", s.height)
		if top < 0 {
			height += top
			top = 0
		}
		height = min(height, s.height-top)
		if height <= 0 {
			return
		}
	}
	last := top + height
	if dy > 0 {
		for line := last - 1 - dy; line >= top; line-- {
			s.copyRow(line, line+dy)
		}
		return
	}
	for line := top - dy; line < last; line++ {
		s.copyRow(line, line+dy)
	}
}

func (s *ScreenBuffer) copyRow(from, to int) {
	src, dst := from*s.width, to*s.width
	copy(s.chars[dst:dst+s.width], s.chars[src:src+s.width])
	copy(s.cellStyles[dst:dst+s.width], s.cellStyles[src:src+s.width])
	for i := 0; i < s.width; i++ {
		s.damage.SetTo(uint(dst+i), s.damage.Test(uint(src+i)))
	}
}

// Resize reallocates the grid. The overlap of old and new content is kept
// aligned to the bottom left, and everything is marked damaged.
func (s *ScreenBuffer) Resize(width, height int) {
	oldChars, oldStyles := s.chars, s.cellStyles
	oldWidth, oldHeight := s.width, s.height
	s.allocate(width, height)

	copyWidth := min(oldWidth, s.width)
	copyHeight := min(oldHeight, s.height)
	oldStart := oldHeight - copyHeight
	start := s.height - copyHeight
	for i := 0; i < copyHeight; i++ {
		src := (oldStart + i) * oldWidth
		dst := (start + i) * s.width
		copy(s.chars[dst:dst+copyWidth], oldChars[src:src+copyWidth])
		copy(s.cellStyles[dst:dst+copyWidth], oldStyles[src:src+copyWidth])
	}
	setRange(s.damage, 0, len(s.chars))
}

// PumpRuns emits the styled runs covering the rectangle of w columns and
// h rows whose top left cell is at 0-based (x, y).
func (s *ScreenBuffer) PumpRuns(x, y, w, h int, consumer RunConsumer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pumpRuns(x, y, w, h, consumer)
}

func (s *ScreenBuffer) pumpRuns(x, y, w, h int, consumer RunConsumer) {
	startCol, endCol := x, x+w
	startRow, endRow := y, y+h
	if startCol < 0 || startRow < 0 || endCol > s.width || endRow > s.height {
		s.log.Warn("requested out of bounds runs", "x", x, "y", y, "w", w, "h", h)
		startCol, startRow = max(startCol, 0), max(startRow, 0)
		endCol, endRow = min(endCol, s.width), min(endRow, s.height)
	}
	if startCol >= endCol {
		return
	}

	for row := startRow; row < endRow; row++ {
		base := row * s.width
		begin := startCol
		last := s.cellStyles[base+startCol]
		for col := startCol + 1; col < endCol; col++ {
			if style := s.cellStyles[base+col]; style != last {
				consumer.ConsumeRun(begin, row, last, s.chars[base+begin:base+col])
				begin, last = col, style
			}
		}
		consumer.ConsumeRun(begin, row, last, s.chars[base+begin:base+endCol])
	}
}

// PumpRows emits the runs of h full rows starting at 0-based row y. The
// width is read under the same lock, so a concurrent resize cannot tear it.
func (s *ScreenBuffer) PumpRows(y, h int, consumer RunConsumer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pumpRuns(0, y, s.width, h, consumer)
}

// PumpRunsFromDamage emits the styled runs covering damaged cells only.
// Undamaged cells split runs without being emitted.
func (s *ScreenBuffer) PumpRunsFromDamage(consumer RunConsumer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pumpRunsFromDamage(consumer)
}

func (s *ScreenBuffer) pumpRunsFromDamage(consumer RunConsumer) {
	for row := 0; row < s.height; row++ {
		base := row * s.width
		begin, open := 0, false
		var last StyleID
		for col := 0; col < s.width; col++ {
			loc := base + col
			style := s.cellStyles[loc]
			switch {
			case !s.damage.Test(uint(loc)):
				if open {
					consumer.ConsumeRun(begin, row, last, s.chars[base+begin:loc])
					open = false
				}
			case !open:
				begin, last, open = col, style, true
			case style != last:
				consumer.ConsumeRun(begin, row, last, s.chars[base+begin:loc])
				begin, last = col, style
			}
		}
		if open {
			consumer.ConsumeRun(begin, row, last, s.chars[base+begin:base+s.width])
		}
	}
}

// DrainDamage emits the damaged runs and marks every cell as rendered in one
// step, so damage drawn meanwhile waits for the next call. With all set every
// run is emitted.
func (s *ScreenBuffer) DrainDamage(consumer RunConsumer, all bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if all {
		s.pumpRuns(0, 0, s.width, s.height, consumer)
	} else {
		s.pumpRunsFromDamage(consumer)
	}
	s.damage.ClearAll()
}

// HasDamage reports whether any cell changed since the last ResetDamage.
func (s *ScreenBuffer) HasDamage() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.damage.NextSet(0)
	return ok
}

// ResetDamage marks every cell as rendered.
func (s *ScreenBuffer) ResetDamage() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.damage.ClearAll()
}

// Cell returns the character and style at 0-based column x and row y.
func (s *ScreenBuffer) Cell(x, y int) (rune, StyleID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if x < 0 || x >= s.width || y < 0 || y >= s.height {
		return emptyChar, EmptyStyleID
	}
	return s.chars[y*s.width+x], s.cellStyles[y*s.width+x]
}

// Lines dumps the characters of the grid, one line per row.
func (s *ScreenBuffer) Lines() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var sb strings.Builder
	for row := 0; row < s.height; row++ {
		sb.WriteString(string(s.chars[row*s.width : (row+1)*s.width]))
		sb.WriteByte('\n')
	}
	return sb.String()
}

// StyleLines dumps the style id of every cell.
func (s *ScreenBuffer) StyleLines() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var sb strings.Builder
	for row := 0; row < s.height; row++ {
		for col := 0; col < s.width; col++ {
			fmt.Fprintf(&sb, "%03d ", s.cellStyles[row*s.width+col])
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// DamageLines dumps the damage map, X for damaged and - for clean cells.
func (s *ScreenBuffer) DamageLines() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var sb strings.Builder
	for row := 0; row < s.height; row++ {
		for col := 0; col < s.width; col++ {
			if s.damage.Test(uint(row*s.width + col)) {
				sb.WriteByte('X')
			} else {
				sb.WriteByte('-')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func setRange(b *bitset.BitSet, from, to int) {
	for i := from; i < to; i++ {
		b.Set(uint(i))
	}
}
