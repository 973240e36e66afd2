package vt100

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPosition_Before(t *testing.T) {
	assert.True(t, Position{Col: 5, Row: 0}.Before(Position{Col: 0, Row: 1}))
	assert.True(t, Position{Col: 1, Row: 2}.Before(Position{Col: 2, Row: 2}))
	assert.False(t, Position{Col: 2, Row: 2}.Before(Position{Col: 2, Row: 2}))
	assert.Equal(t, "row: 3, col: 4", Position{Col: 4, Row: 3}.String())
}

func TestSelectionConsumer(t *testing.T) {
	screen := NewScreenBuffer(5, 3)
	screen.Lock()
	screen.DrawString("hello", 0, 1, EmptyStyleID)
	screen.DrawString("world", 0, 2, EmptyStyleID)
	screen.DrawString("again", 0, 3, EmptyStyleID)
	screen.Unlock()

	tests := map[string]struct {
		from, to Position
		expected string
	}{
		"one line":   {from: Position{Col: 1, Row: 0}, to: Position{Col: 3, Row: 0}, expected: "el"},
		"many lines": {from: Position{Col: 1, Row: 0}, to: Position{Col: 3, Row: 2}, expected: "ello\nworld\naga"},
		"backwards":  {from: Position{Col: 3, Row: 2}, to: Position{Col: 1, Row: 0}, expected: "ello\nworld\naga"},
		"empty":      {from: Position{Col: 2, Row: 1}, to: Position{Col: 2, Row: 1}, expected: ""},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			sel := NewSelectionConsumer(tt.from, tt.to)
			screen.PumpRuns(0, sel.Begin.Row, 5, sel.End.Row-sel.Begin.Row+1, sel)
			assert.Equal(t, tt.expected, sel.Text())
		})
	}
}

func TestSelectionConsumer_SplitRuns(t *testing.T) {
	screen := NewScreenBuffer(6, 1)
	bold := Intern(Style{Options: OptionBold})
	screen.Lock()
	screen.DrawString("abc", 0, 1, EmptyStyleID)
	screen.DrawString("def", 3, 1, bold)
	screen.Unlock()

	sel := NewSelectionConsumer(Position{Col: 2, Row: 0}, Position{Col: 5, Row: 0})
	screen.PumpRuns(0, 0, 6, 1, sel)
	assert.Equal(t, "cde", sel.Text())
}

func TestSelectionConsumer_Scrollback(t *testing.T) {
	sb := NewScrollback()
	sb.ConsumeRun(0, 0, EmptyStyleID, []rune("first"))
	sb.ConsumeRun(0, 0, EmptyStyleID, []rune("second"))

	sel := NewSelectionConsumer(Position{Col: 2, Row: -2}, Position{Col: 3, Row: -1})
	sb.PumpRuns(-2, 2, sel)
	assert.Equal(t, "rst\nsec", sel.Text())
}
