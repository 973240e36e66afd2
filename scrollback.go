package vt100

import (
	"strings"
	"sync"

	"github.com/bits-and-blooms/bitset"
	"github.com/charmbracelet/log"
)

const (
	sectionSize = 8192
	sectionRuns = 128
)

// section is one chunk of scrollback: a fixed-size character arena and a
// table of runs into it. Once sealed it never changes again.
type section struct {
	buf        []rune
	runStarts  []int
	runStyles  []StyleID
	lineStarts *bitset.BitSet
	sealed     bool
}

func newSection() *section {
	return &section{
		buf:        make([]rune, 0, sectionSize),
		runStarts:  make([]int, 0, sectionRuns),
		runStyles:  make([]StyleID, 0, sectionRuns),
		lineStarts: bitset.New(sectionRuns),
	}
}

// put appends a run, or reports false if the arena has no room for it.
func (s *section) put(newLine bool, style StyleID, text []rune) bool {
	if s.sealed || len(s.buf)+len(text) > sectionSize {
		return false
	}
	s.ensureRuns()
	run := len(s.runStarts)
	s.lineStarts.SetTo(uint(run), newLine)
	s.runStarts = append(s.runStarts, len(s.buf))
	s.runStyles = append(s.runStyles, style)
	s.buf = append(s.buf, text...)
	return true
}

func (s *section) ensureRuns() {
	if len(s.runStarts) < cap(s.runStarts) {
		return
	}
	n := cap(s.runStarts) * 2
	starts := make([]int, len(s.runStarts), n)
	copy(starts, s.runStarts)
	runStyles := make([]StyleID, len(s.runStyles), n)
	copy(runStyles, s.runStyles)
	s.runStarts, s.runStyles = starts, runStyles
}

// seal trims every array to its fill and freezes the section.
func (s *section) seal() {
	runs := len(s.runStarts)
	s.buf = append([]rune(nil), s.buf...)
	s.runStarts = append([]int(nil), s.runStarts...)
	s.runStyles = append([]StyleID(nil), s.runStyles...)
	lineStarts := bitset.New(uint(runs))
	for i := 0; i < runs; i++ {
		lineStarts.SetTo(uint(i), s.lineStarts.Test(uint(i)))
	}
	s.lineStarts = lineStarts
	s.sealed = true
}

func (s *section) lineCount() int {
	return int(s.lineStarts.Count())
}

// pumpCursor is the position of the last emitted run, carried across sections.
type pumpCursor struct {
	x, y int
}

// pump replays the runs that fall on lines [from, to) and reports whether
// the caller should carry on with the next section.
func (s *section) pump(cur *pumpCursor, from, to int, consumer RunConsumer) bool {
	for i, start := range s.runStarts {
		if s.lineStarts.Test(uint(i)) {
			cur.x = 0
			cur.y++
		}
		if cur.y >= to {
			return false
		}
		end := len(s.buf)
		if i+1 < len(s.runStarts) {
			end = s.runStarts[i+1]
		}
		if cur.y >= from {
			consumer.ConsumeRun(cur.x, cur.y, s.runStyles[i], s.buf[start:end])
		}
		cur.x += end - start
	}
	return true
}

// Scrollback keeps the lines that scrolled off the top of the screen.
//
// It is itself a RunConsumer: runs starting at column zero begin a new line.
// Lines are numbered backwards from the live screen, so the most recent one is
// -1 and the oldest is -LineCount().
type Scrollback struct {
	mu         sync.Mutex
	sealed     []*section
	open       *section
	totalLines int

	log *log.Logger
}

// NewScrollback returns an empty scrollback.
func NewScrollback() *Scrollback {
	return &Scrollback{open: newSection(), log: logger.With("component", "scrollback")}
}

// ConsumeRun appends a run to the history.
func (b *Scrollback) ConsumeRun(x, _ int, style StyleID, text []rune) {
	b.mu.Lock()
	defer b.mu.Unlock()

	newLine := x == 0
	if newLine {
		b.totalLines++
	}
	if b.open.put(newLine, style, text) {
		return
	}
	b.open.seal()
	b.sealed = append(b.sealed, b.open)
	b.open = newSection()
	if !b.open.put(newLine, style, text) {
		b.log.Error("run does not fit in an empty section", "len", len(text), "capacity", sectionSize)
	}
}

// LineCount is the number of lines in the history.
func (b *Scrollback) LineCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.totalLines
}

// Sections reports how many sections hold the history, including the open one.
func (b *Scrollback) Sections() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.sealed) + 1
}

// PumpRuns replays the runs on lines [firstLine, firstLine+height).
// Requests reaching before the oldest line start from the oldest line.
func (b *Scrollback) PumpRuns(firstLine, height int, consumer RunConsumer) {
	b.mu.Lock()
	defer b.mu.Unlock()

	lastLine := firstLine + height
	sections := make([]*section, 0, len(b.sealed)+1)
	sections = append(sections, b.sealed...)
	sections = append(sections, b.open)

	// find the section holding firstLine, counting forward from the oldest
	line := -b.totalLines
	i := 0
	for ; i < len(sections)-1; i++ {
		n := sections[i].lineCount()
		if line+n > firstLine {
			break
		}
		line += n
	}

	cur := pumpCursor{y: line - 1}
	for ; i < len(sections); i++ {
		if !sections[i].pump(&cur, firstLine, lastLine, consumer) {
			return
		}
	}
}

// Lines dumps the whole history, one line per row.
func (b *Scrollback) Lines() string {
	var sb strings.Builder
	started := false
	b.PumpRuns(-b.LineCount(), b.LineCount(), RunConsumerFunc(func(x, _ int, _ StyleID, text []rune) {
		if x == 0 && started {
			sb.WriteByte('\n')
		}
		started = true
		sb.WriteString(string(text))
	}))
	if started {
		sb.WriteByte('\n')
	}
	return sb.String()
}
