package vt100

const (
	asciiBell      = 7
	asciiBackspace = 8
	asciiEscape    = 27
	asciiDelete    = 0x7f

	tabWidth = 8
)

// specialChars maps the control characters the terminal acts on.
// A nil entry is accepted and ignored.
var specialChars = map[byte]func(t *Terminal){
	0:              nil,
	asciiBell:      handleOutputBell,
	asciiBackspace: handleOutputBackspace,
	'\n':           handleOutputLineFeed,
	'\v':           handleOutputLineFeed,
	'\f':           handleOutputLineFeed,
	'\r':           handleOutputCarriageReturn,
	'\t':           handleOutputTab,
	asciiDelete:    nil,
}

func (t *Terminal) handleControl(b byte) {
	out, ok := specialChars[b]
	if !ok {
		t.log.Info("unhandled control character", "char", DescribeBytes([]byte{b}))
		return
	}
	if out != nil {
		out(t)
	}
}

func handleOutputBell(t *Terminal) {
	t.display.Beep()
}

func handleOutputBackspace(t *Terminal) {
	t.cursorX--
	if t.cursorX < 0 {
		t.cursorY--
		t.cursorX = t.width - 1
		if t.cursorY < 1 {
			t.cursorX, t.cursorY = 0, 1
		}
	}
	t.display.SetCursor(t.cursorX, t.cursorY)
}

func handleOutputCarriageReturn(t *Terminal) {
	t.cursorX = 0
	t.display.SetCursor(t.cursorX, t.cursorY)
}

func handleOutputLineFeed(t *Terminal) {
	t.index()
}

func handleOutputTab(t *Terminal) {
	t.cursorX = (t.cursorX/tabWidth + 1) * tabWidth
	if t.cursorX >= t.width {
		t.cursorX = 0
		t.index()
		return
	}
	t.display.SetCursor(t.cursorX, t.cursorY)
}

// wrapLines performs a wrap left pending by text that filled the line.
func (t *Terminal) wrapLines() {
	if t.cursorX >= t.width {
		t.cursorX = 0
		t.index()
	}
}

// writeASCII draws a run that fits on the rest of the line.
func (t *Terminal) writeASCII(b []byte) {
	t.wrapLines()
	if len(b) > 0 {
		t.screen.ClearArea(t.cursorX, t.cursorY-1, min(t.cursorX+len(b), t.width), t.cursorY)
		t.screen.DrawBytes(b, t.cursorX, t.cursorY, t.style.Current())
	}
	t.cursorX = min(t.cursorX+len(b), t.width)
	t.display.SetCursor(t.cursorX, t.cursorY)
}

func (t *Terminal) writeDoubleByte(b []byte) {
	if t.charset == nil {
		t.log.Warn("no charset for double-byte character", "bytes", DescribeBytes(b))
		return
	}
	t.WriteString(t.charset.Decode(b))
}

// WriteString draws text at the cursor one cell per rune, wrapping at the
// end of each line.
func (t *Terminal) WriteString(s string) {
	if t.width <= 0 {
		return
	}
	runes := []rune(s)
	for len(runes) > 0 {
		t.wrapLines()
		n := min(t.DistanceToLineEnd(), len(runes))
		t.screen.ClearArea(t.cursorX, t.cursorY-1, t.cursorX+n, t.cursorY)
		t.screen.DrawString(string(runes[:n]), t.cursorX, t.cursorY, t.style.Current())
		t.cursorX += n
		runes = runes[n:]
	}
	t.display.SetCursor(t.cursorX, t.cursorY)
}
