package vt100

import "strings"

// RunConsumer receives styled runs, the maximal spans of same-style cells on
// one row, from a ScreenBuffer or Scrollback.
//
// x is the 0-based column the run starts at and y its row. text is only valid
// for the duration of the call.
type RunConsumer interface {
	ConsumeRun(x, y int, style StyleID, text []rune)
}

// RunConsumerFunc adapts a function to RunConsumer.
type RunConsumerFunc func(x, y int, style StyleID, text []rune)

// ConsumeRun calls f.
func (f RunConsumerFunc) ConsumeRun(x, y int, style StyleID, text []rune) {
	f(x, y, style, text)
}

// Run is a copied run, for consumers that need to keep what they were given.
type Run struct {
	X, Y  int
	Style StyleID
	Text  string
}

// RunCollector keeps a copy of every run it receives.
type RunCollector struct {
	Runs []Run
}

func (c *RunCollector) ConsumeRun(x, y int, style StyleID, text []rune) {
	c.Runs = append(c.Runs, Run{X: x, Y: y, Style: style, Text: string(text)})
}

// Text joins the collected runs, starting a new line whenever a run begins
// at column zero after the first.
func (c *RunCollector) Text() string {
	var sb strings.Builder
	for i, r := range c.Runs {
		if i > 0 && r.X == 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(r.Text)
	}
	return sb.String()
}
