package vt100

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScrollback_Empty(t *testing.T) {
	sb := NewScrollback()
	assert.Equal(t, 0, sb.LineCount())
	assert.Equal(t, 1, sb.Sections())
	assert.Equal(t, "", sb.Lines())

	collector := &RunCollector{}
	sb.PumpRuns(-5, 5, collector)
	assert.Empty(t, collector.Runs)
}

func TestScrollback_Lines(t *testing.T) {
	sb := NewScrollback()
	bold := Intern(Style{Options: OptionBold})
	sb.ConsumeRun(0, 0, EmptyStyleID, []rune("ab"))
	sb.ConsumeRun(2, 0, bold, []rune("cd"))
	sb.ConsumeRun(0, 1, EmptyStyleID, []rune("ef"))
	sb.ConsumeRun(0, 2, EmptyStyleID, []rune("gh"))

	assert.Equal(t, 3, sb.LineCount())
	assert.Equal(t, "abcd\nef\ngh\n", sb.Lines())

	collector := &RunCollector{}
	sb.PumpRuns(-3, 1, collector)
	assert.Equal(t, []Run{
		{X: 0, Y: -3, Style: EmptyStyleID, Text: "ab"},
		{X: 2, Y: -3, Style: bold, Text: "cd"},
	}, collector.Runs)

	collector = &RunCollector{}
	sb.PumpRuns(-2, 2, collector)
	assert.Equal(t, []Run{
		{X: 0, Y: -2, Style: EmptyStyleID, Text: "ef"},
		{X: 0, Y: -1, Style: EmptyStyleID, Text: "gh"},
	}, collector.Runs)
}

func TestScrollback_BeforeOldest(t *testing.T) {
	sb := NewScrollback()
	sb.ConsumeRun(0, 0, EmptyStyleID, []rune("one"))
	sb.ConsumeRun(0, 0, EmptyStyleID, []rune("two"))

	collector := &RunCollector{}
	sb.PumpRuns(-10, 9, collector)
	assert.Equal(t, "one", collector.Text())
}

func TestScrollback_Sections(t *testing.T) {
	const width = 80
	lines := 3 * sectionSize / width

	sb := NewScrollback()
	for i := 0; i < lines; i++ {
		text := fmt.Sprintf("%-*d", width, i)
		sb.ConsumeRun(0, 0, EmptyStyleID, []rune(text))
	}

	require.Equal(t, lines, sb.LineCount())
	assert.Greater(t, sb.Sections(), 3)

	// lines are numbered consecutively across section boundaries
	perSection := sectionSize / width
	for _, first := range []int{-lines, -lines + perSection - 1, -2*perSection - 3, -1} {
		collector := &RunCollector{}
		sb.PumpRuns(first, 2, collector)
		want := min(2, -first)
		require.Len(t, collector.Runs, want, "from line %d", first)
		for j, run := range collector.Runs {
			assert.Equal(t, first+j, run.Y)
			assert.Equal(t, fmt.Sprint(lines+first+j), strings.TrimSpace(run.Text))
		}
	}
}

func TestScrollback_FromScreen(t *testing.T) {
	term, _, _ := newTestTerminal(t, 3, 2)
	sb := NewScrollback()
	term.SetScrollback(sb)

	feed(t, term, "\x1b[31mA\x1b[mbc\r\ndef\r\nghi\r\n")
	assert.Equal(t, 2, sb.LineCount())
	assert.Equal(t, "Abc\ndef\n", sb.Lines())

	collector := &RunCollector{}
	sb.PumpRuns(-2, 1, collector)
	require.Len(t, collector.Runs, 2)
	assert.Equal(t, Style{Foreground: ColorRed}, collector.Runs[0].Style.Style())
	assert.Equal(t, 1, collector.Runs[1].X)
}
