package vt100

import (
	"fmt"
	"strings"
)

// Position is a cell address: a 0-based column and a row as numbered by the
// run source, 0-based on screen and negative in scrollback.
type Position struct {
	Col, Row int
}

func (p Position) String() string {
	return fmt.Sprintf("row: %d, col: %d", p.Row, p.Col)
}

// Before reports whether p comes earlier than o in reading order.
func (p Position) Before(o Position) bool {
	return p.Row < o.Row || (p.Row == o.Row && p.Col < o.Col)
}

// SelectionConsumer copies the text between Begin and End, End exclusive,
// out of the runs it is fed. Pump the rows from Begin.Row to End.Row into it.
type SelectionConsumer struct {
	Begin, End Position

	sb      strings.Builder
	started bool
}

// NewSelectionConsumer returns a consumer for the selection between two
// points, in whichever order they were given.
func NewSelectionConsumer(a, b Position) *SelectionConsumer {
	if b.Before(a) {
		a, b = b, a
	}
	return &SelectionConsumer{Begin: a, End: b}
}

func (s *SelectionConsumer) ConsumeRun(x, y int, _ StyleID, text []rune) {
	if len(text) == 0 || y < s.Begin.Row || y > s.End.Row {
		return
	}
	start, extent := 0, len(text)
	if y == s.End.Row {
		extent = min(s.End.Col-x, extent)
	}
	if y == s.Begin.Row {
		adj := max(0, s.Begin.Col-x)
		start += adj
		extent -= adj
	}
	if extent < 0 {
		// off the left edge of the first line or the right edge of the last
		return
	}

	if s.started && x == 0 {
		s.sb.WriteByte('\n')
	}
	s.started = true
	s.sb.WriteString(string(text[start : start+extent]))
}

// Text is the selection copied so far.
func (s *SelectionConsumer) Text() string {
	return s.sb.String()
}
