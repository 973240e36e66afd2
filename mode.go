package vt100

import "strings"

// Mode is a set of terminal modes.
type Mode uint16

const (
	ModeNull Mode = 1 << iota
	// ModeCursorKey is DECCKM, cursor keys send application sequences.
	ModeCursorKey
	// ModeANSI is DECANM; it is set from the start.
	ModeANSI
	// ModeWideColumn is DECCOLM, a 132 column screen.
	ModeWideColumn
	ModeSmoothScroll
	ModeReverseScreen
	// ModeRelativeOrigin is DECOM, cursor addressing relative to the scroll region.
	ModeRelativeOrigin
	ModeWrapAround
	ModeAutoRepeat
	ModeInterlace
)

var modeNames = [...]string{
	"Null", "CursorKey", "ANSI", "WideColumn", "SmoothScroll",
	"ReverseScreen", "RelativeOrigin", "WrapAround", "AutoRepeat", "Interlace",
}

func (m Mode) String() string {
	var names []string
	for i, name := range modeNames {
		if m&(1<<i) != 0 {
			names = append(names, name)
		}
	}
	return strings.Join(names, "|")
}

// privateModes is indexed by the parameter of "ESC [ ? Pn h".
var privateModes = [...]Mode{
	ModeNull, ModeCursorKey, ModeANSI, ModeWideColumn, ModeSmoothScroll,
	ModeReverseScreen, ModeRelativeOrigin, ModeWrapAround, ModeAutoRepeat, ModeInterlace,
}

// normalModes has no entries; every ANSI mode number is unknown.
var normalModes = [...]Mode{}

// LookupMode returns the mode numbered n in a mode table.
func LookupMode(table ModeTable, n int) (Mode, bool) {
	modes := normalModes[:]
	if table == PrivateModes {
		modes = privateModes[:]
	}
	if n < 0 || n >= len(modes) {
		return 0, false
	}
	return modes[n], true
}
