package vt100

import (
	"github.com/charmbracelet/log"
)

var escapes = map[byte]func(*Terminal, *ControlSequence){
	'A': escapeMoveCursorUp,
	'B': escapeMoveCursorDown,
	'C': escapeMoveCursorRight,
	'D': escapeMoveCursorLeft,
	'H': escapeMoveCursor,
	'f': escapeMoveCursor,
	'J': escapeEraseInScreen,
	'K': escapeEraseInLine,
	'c': escapeDeviceAttribute,
	'h': escapeModeOn,
	'l': escapeModeOff,
	'm': escapeColorMode,
	'r': escapeSetScrollArea,
}

func (t *Terminal) handleControlSequence(cs *ControlSequence) {
	if esc, ok := escapes[cs.Final]; ok {
		esc(t, cs)
		return
	}
	t.log.Info("unhandled control sequence", "sequence", cs.String())
}

// handleEscape performs the two byte ESC functions.
func (t *Terminal) handleEscape(intermediates []byte, final byte) {
	switch final {
	case 'M':
		t.reverseIndex()
	case 'D':
		t.index()
	case 'E':
		t.nextLine()
	case '7':
		t.saveCursor()
	case '8':
		if len(intermediates) > 0 && intermediates[0] == '#' {
			t.fillScreen('E')
			return
		}
		t.restoreCursor(t.saved)
	default:
		if t.log.GetLevel() <= log.DebugLevel {
			t.log.Debug("unhandled escape sequence", "sequence", "ESC "+DescribeBytes(append(intermediates, final)))
		}
	}
}

func escapeMoveCursorUp(t *Terminal, cs *ControlSequence) {
	t.moveCursor(t.cursorX, t.cursorY-atLeastOne(cs.Arg(0, 1)))
}

func escapeMoveCursorDown(t *Terminal, cs *ControlSequence) {
	t.moveCursor(t.cursorX, t.cursorY+atLeastOne(cs.Arg(0, 1)))
}

func escapeMoveCursorRight(t *Terminal, cs *ControlSequence) {
	t.moveCursor(t.cursorX+atLeastOne(cs.Arg(0, 1)), t.cursorY)
}

func escapeMoveCursorLeft(t *Terminal, cs *ControlSequence) {
	x := min(t.cursorX, t.width-1)
	t.moveCursor(x-atLeastOne(cs.Arg(0, 1)), t.cursorY)
}

func escapeMoveCursor(t *Terminal, cs *ControlSequence) {
	row := atLeastOne(cs.Arg(0, 1))
	col := atLeastOne(cs.Arg(1, 1))
	t.moveCursor(col-1, row)
}

func escapeEraseInScreen(t *Terminal, cs *ControlSequence) {
	switch mode := cs.Arg(0, 0); mode {
	case 0:
		if t.cursorX < t.width {
			t.screen.ClearArea(t.cursorX, t.cursorY-1, t.width, t.cursorY)
		}
		t.clearLines(t.cursorY, t.height)
	case 1:
		t.screen.ClearArea(0, t.cursorY-1, min(t.cursorX+1, t.width), t.cursorY)
		t.clearLines(0, t.cursorY-1)
	case 2:
		t.clearScreen()
	default:
		t.log.Info("unsupported erase in display mode", "mode", mode)
	}
}

func escapeEraseInLine(t *Terminal, cs *ControlSequence) {
	switch mode := cs.Arg(0, 0); mode {
	case 0:
		if t.cursorX < t.width {
			t.screen.ClearArea(t.cursorX, t.cursorY-1, t.width, t.cursorY)
		}
	case 1:
		t.screen.ClearArea(0, t.cursorY-1, min(t.cursorX+1, t.width), t.cursorY)
	case 2:
		t.clearLines(t.cursorY-1, t.cursorY)
	default:
		t.log.Info("unsupported erase in line mode", "mode", mode)
	}
}

func escapeDeviceAttribute(t *Terminal, cs *ControlSequence) {
	if cs.Arg(0, 0) != 0 {
		t.log.Info("unhandled device attribute query", "sequence", cs.String())
		return
	}
	t.log.Debug("identifying to remote system as VT102")
	t.respond(DeviceAttributesResponse)
}

func escapeModeOn(t *Terminal, cs *ControlSequence) {
	escapeMode(t, cs, true)
}

func escapeModeOff(t *Terminal, cs *ControlSequence) {
	escapeMode(t, cs, false)
}

func escapeMode(t *Terminal, cs *ControlSequence, enable bool) {
	for i := 0; i < cs.Count(); i++ {
		num := cs.Arg(i, -1)
		mode, ok := LookupMode(cs.Table, num)
		if !ok {
			t.log.Info("unknown mode", "mode", num, "table", cs.Table)
			continue
		}
		if enable {
			t.log.Debug("modes: adding", "mode", mode)
			t.setMode(mode)
		} else {
			t.log.Debug("modes: removing", "mode", mode)
			t.unsetMode(mode)
		}
	}
}

func escapeSetScrollArea(t *Terminal, cs *ControlSequence) {
	top := cs.Arg(0, 1)
	bottom := cs.Arg(1, t.height)
	if top < 1 || bottom > t.height || top >= bottom {
		t.log.Warn("invalid scroll region", "top", top, "bottom", bottom, "rows", t.height)
		return
	}
	t.scrollTop, t.scrollBottom = top, bottom
}

func atLeastOne(n int) int {
	if n < 1 {
		return 1
	}
	return n
}
