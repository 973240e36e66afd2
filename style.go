package vt100

import (
	"strings"
	"sync"
)

// Color is one of the eight ANSI colours, or the display default.
type Color uint8

const (
	// ColorDefault selects the display's own foreground or background colour.
	ColorDefault Color = iota
	ColorBlack
	ColorRed
	ColorGreen
	ColorYellow
	ColorBlue
	ColorMagenta
	ColorCyan
	ColorWhite
)

var colorNames = [...]string{"default", "black", "red", "green", "yellow", "blue", "magenta", "cyan", "white"}

func (c Color) String() string {
	if int(c) < len(colorNames) {
		return colorNames[c]
	}
	return "unknown"
}

// Option is a set of character rendition flags.
type Option uint8

const (
	OptionBold Option = 1 << iota
	OptionBlink
	OptionDim
	OptionReverse
	OptionUnderscore
	OptionHidden
)

var optionNames = [...]string{"bold", "blink", "dim", "reverse", "underscore", "hidden"}

func (o Option) String() string {
	var names []string
	for i, name := range optionNames {
		if o&(1<<i) != 0 {
			names = append(names, name)
		}
	}
	return strings.Join(names, "|")
}

// Style is an immutable character rendition.
// Two styles are the same exactly when their fields are equal.
type Style struct {
	Foreground Color
	Background Color
	Options    Option
}

// EmptyStyle is the rendition of a cell that was never drawn.
var EmptyStyle = Style{}

// Has reports whether opt is set.
func (s Style) Has(opt Option) bool {
	return s.Options&opt != 0
}

// With returns a copy of s with opt switched on or off.
func (s Style) With(opt Option, on bool) Style {
	if on {
		s.Options |= opt
	} else {
		s.Options &^= opt
	}
	return s
}

// ForegroundForRun is the colour to paint glyphs with, honouring reverse video.
func (s Style) ForegroundForRun() Color {
	if s.Has(OptionReverse) {
		return s.Background
	}
	return s.Foreground
}

// BackgroundForRun is the colour to fill the cell with, honouring reverse video.
func (s Style) BackgroundForRun() Color {
	if s.Has(OptionReverse) {
		return s.Foreground
	}
	return s.Background
}

// StyleID is the canonical identity of an interned Style.
// Equal ids mean equal styles, so run splitting compares ids only.
type StyleID uint32

// EmptyStyleID is the id of EmptyStyle.
const EmptyStyleID StyleID = 0

// styleTable is an append-only arena of styles with a structural index.
// Entries live for the whole process; there are only a few hundred
// distinct renditions with eight colours and six flags.
type styleTable struct {
	mu    sync.RWMutex
	arena []Style
	index map[Style]StyleID
}

var styles = newStyleTable()

func newStyleTable() *styleTable {
	t := &styleTable{index: make(map[Style]StyleID)}
	t.intern(EmptyStyle)
	return t
}

func (t *styleTable) intern(s Style) StyleID {
	t.mu.RLock()
	id, ok := t.index[s]
	t.mu.RUnlock()
	if ok {
		return id
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if id, ok := t.index[s]; ok {
		return id
	}
	id = StyleID(len(t.arena))
	t.arena = append(t.arena, s)
	t.index[s] = id
	return id
}

func (t *styleTable) lookup(id StyleID) Style {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if int(id) >= len(t.arena) {
		return EmptyStyle
	}
	return t.arena[id]
}

func (t *styleTable) len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.arena)
}

// Intern returns the canonical id for s, adding it to the table if needed.
func Intern(s Style) StyleID {
	return styles.intern(s)
}

// InternedStyles reports how many distinct styles have been interned.
func InternedStyles() int {
	return styles.len()
}

// Style returns the style this id stands for.
// Unknown ids resolve to EmptyStyle.
func (id StyleID) Style() Style {
	return styles.lookup(id)
}

// StyleState holds the style stamped onto newly drawn cells.
// Every change produces a new Style value, so a canonical style is never
// altered after cells refer to it. The zero value starts at EmptyStyle.
type StyleState struct {
	current Style
	id      StyleID
	stale   bool
}

// Current returns the canonical id of the current style.
func (s *StyleState) Current() StyleID {
	if s.stale {
		s.id = Intern(s.current)
		s.stale = false
	}
	return s.id
}

// Style returns the current style value.
func (s *StyleState) Style() Style {
	return s.current
}

// SetForeground changes the current foreground colour.
func (s *StyleState) SetForeground(c Color) {
	s.roll(Style{Foreground: c, Background: s.current.Background, Options: s.current.Options})
}

// SetBackground changes the current background colour.
func (s *StyleState) SetBackground(c Color) {
	s.roll(Style{Foreground: s.current.Foreground, Background: c, Options: s.current.Options})
}

// SetOption switches a rendition flag on or off.
func (s *StyleState) SetOption(opt Option, on bool) {
	s.roll(s.current.With(opt, on))
}

// Reset returns to the default colours with no flags.
func (s *StyleState) Reset() {
	s.roll(EmptyStyle)
}

func (s *StyleState) roll(next Style) {
	if next == s.current {
		return
	}
	s.current = next
	s.stale = true
}
