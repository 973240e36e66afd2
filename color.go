package vt100

// sgrOptions maps the SGR codes that switch a rendition flag.
var sgrOptions = map[int]struct {
	opt Option
	on  bool
}{
	1:  {OptionBold, true},
	2:  {OptionDim, true},
	4:  {OptionUnderscore, true},
	5:  {OptionBlink, true},
	7:  {OptionReverse, true},
	8:  {OptionHidden, true},
	24: {OptionUnderscore, false},
	25: {OptionBlink, false},
	27: {OptionReverse, false},
	28: {OptionHidden, false},
}

func escapeColorMode(t *Terminal, cs *ControlSequence) {
	t.setCharacterAttributes(cs)
}

// setCharacterAttributes applies SGR parameters in order. No parameters is a reset.
func (t *Terminal) setCharacterAttributes(cs *ControlSequence) {
	if cs.Count() == 0 {
		t.style.Reset()
		return
	}
	for i := 0; i < cs.Count(); i++ {
		t.handleColorMode(cs.Arg(i, 0))
	}
}

func (t *Terminal) handleColorMode(mode int) {
	if o, ok := sgrOptions[mode]; ok {
		t.style.SetOption(o.opt, o.on)
		return
	}

	switch {
	case mode == 0:
		t.style.Reset()
	case mode == 22:
		t.style.SetOption(OptionBold, false)
		t.style.SetOption(OptionDim, false)
	case mode >= 30 && mode <= 37:
		t.style.SetForeground(ColorBlack + Color(mode-30))
	case mode == 39:
		t.style.SetForeground(ColorDefault)
	case mode >= 40 && mode <= 47:
		t.style.SetBackground(ColorBlack + Color(mode-40))
	case mode == 49:
		t.style.SetBackground(ColorDefault)
	default:
		t.log.Info("unknown character attribute", "code", mode)
	}
}
