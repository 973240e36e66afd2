package widget

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"

	"github.com/fyne-io/vt100"
)

// Theme colour names for the eight ANSI colours and their bold variants. A
// theme that does not know them gets the fallback palette.
var (
	basicColorNames = [...]fyne.ThemeColorName{
		"ansiBlack", "ansiRed", "ansiGreen", "ansiYellow",
		"ansiBlue", "ansiMagenta", "ansiCyan", "ansiWhite",
	}
	brightColorNames = [...]fyne.ThemeColorName{
		"ansiBrightBlack", "ansiBrightRed", "ansiBrightGreen", "ansiBrightYellow",
		"ansiBrightBlue", "ansiBrightMagenta", "ansiBrightCyan", "ansiBrightWhite",
	}

	basicFallback = [...]color.NRGBA{
		{0, 0, 0, 255},
		{170, 0, 0, 255},
		{0, 170, 0, 255},
		{170, 170, 0, 255},
		{0, 0, 170, 255},
		{170, 0, 170, 255},
		{0, 170, 170, 255},
		{170, 170, 170, 255},
	}
	brightFallback = [...]color.NRGBA{
		{85, 85, 85, 255},
		{255, 85, 85, 255},
		{85, 255, 85, 255},
		{255, 255, 85, 255},
		{85, 85, 255, 255},
		{255, 85, 255, 255},
		{85, 255, 255, 255},
		{255, 255, 255, 255},
	}
)

// Palette turns renditions into colours from a fyne theme.
type Palette struct {
	Theme   fyne.Theme
	Variant fyne.ThemeVariant
}

// DefaultPalette follows the current application theme.
func DefaultPalette() Palette {
	return Palette{Theme: theme.Current(), Variant: theme.VariantDark}
}

// Color resolves an ANSI colour. Default resolves to the theme foreground or
// background depending on foreground.
func (p Palette) Color(c vt100.Color, bright, foreground bool) color.Color {
	if c == vt100.ColorDefault {
		if foreground {
			return p.Theme.Color(theme.ColorNameForeground, p.Variant)
		}
		return p.Theme.Color(theme.ColorNameBackground, p.Variant)
	}

	index := int(c - vt100.ColorBlack)
	if index < 0 || index >= len(basicColorNames) {
		return color.White
	}
	name, fallback := basicColorNames[index], basicFallback[index]
	if bright {
		name, fallback = brightColorNames[index], brightFallback[index]
	}
	if themed := p.Theme.Color(name, p.Variant); themed != nil && themed != color.Transparent {
		return themed
	}
	return fallback
}

// TextGridStyle renders one interned vt100 style.
type TextGridStyle struct {
	FGColor, BGColor color.Color
	TextStyle        fyne.TextStyle
	Underline        bool
	BlinkEnabled     bool

	blinked bool
}

// NewTextGridStyle resolves the colours of style through the palette.
func NewTextGridStyle(style vt100.Style, p Palette) *TextGridStyle {
	bold := style.Has(vt100.OptionBold)
	fg := p.Color(style.ForegroundForRun(), bold, !style.Has(vt100.OptionReverse))
	bg := p.Color(style.BackgroundForRun(), false, style.Has(vt100.OptionReverse))
	if style.Has(vt100.OptionDim) {
		fg = dim(fg)
	}
	if style.Has(vt100.OptionHidden) {
		fg = bg
	}
	return &TextGridStyle{
		FGColor:      fg,
		BGColor:      bg,
		TextStyle:    fyne.TextStyle{Monospace: true, Bold: bold},
		Underline:    style.Has(vt100.OptionUnderscore),
		BlinkEnabled: style.Has(vt100.OptionBlink),
	}
}

func dim(c color.Color) color.Color {
	r, g, b, a := c.RGBA()
	return color.NRGBA{R: uint8(r >> 9), G: uint8(g >> 9), B: uint8(b >> 9), A: uint8(a >> 8)}
}

func (s *TextGridStyle) Style() fyne.TextStyle {
	return s.TextStyle
}

// TextColor is the background while a blinking cell is in its off phase.
func (s *TextGridStyle) TextColor() color.Color {
	if s.blinked {
		return s.BGColor
	}
	return s.FGColor
}

func (s *TextGridStyle) BackgroundColor() color.Color {
	return s.BGColor
}

func (s *TextGridStyle) blink(off bool) {
	s.blinked = off && s.BlinkEnabled
}

// styleCache keeps one TextGridStyle per style id, so that blinking cells of
// one style toggle together.
type styleCache struct {
	palette Palette
	styles  map[vt100.StyleID]*TextGridStyle
}

func newStyleCache(p Palette) *styleCache {
	return &styleCache{palette: p, styles: make(map[vt100.StyleID]*TextGridStyle)}
}

func (c *styleCache) get(id vt100.StyleID) *TextGridStyle {
	if s, ok := c.styles[id]; ok {
		return s
	}
	s := NewTextGridStyle(id.Style(), c.palette)
	c.styles[id] = s
	return s
}

// reset drops resolved colours after a theme change.
func (c *styleCache) reset(p Palette) {
	c.palette = p
	clear(c.styles)
}
