package main

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
)

const (
	// ANSI basic colors (0-7)
	termColorBlack   = fyne.ThemeColorName("ansiBlack")
	termColorRed     = fyne.ThemeColorName("ansiRed")
	termColorGreen   = fyne.ThemeColorName("ansiGreen")
	termColorYellow  = fyne.ThemeColorName("ansiYellow")
	termColorBlue    = fyne.ThemeColorName("ansiBlue")
	termColorMagenta = fyne.ThemeColorName("ansiMagenta")
	termColorCyan    = fyne.ThemeColorName("ansiCyan")
	termColorWhite   = fyne.ThemeColorName("ansiWhite")

	// ANSI bright colors, used for bold text
	termColorBrightBlack   = fyne.ThemeColorName("ansiBrightBlack")
	termColorBrightRed     = fyne.ThemeColorName("ansiBrightRed")
	termColorBrightGreen   = fyne.ThemeColorName("ansiBrightGreen")
	termColorBrightYellow  = fyne.ThemeColorName("ansiBrightYellow")
	termColorBrightBlue    = fyne.ThemeColorName("ansiBrightBlue")
	termColorBrightMagenta = fyne.ThemeColorName("ansiBrightMagenta")
	termColorBrightCyan    = fyne.ThemeColorName("ansiBrightCyan")
	termColorBrightWhite   = fyne.ThemeColorName("ansiBrightWhite")
)

var termColors = map[fyne.ThemeColorName]color.NRGBA{
	termColorBlack:   {0, 0, 0, 255},
	termColorRed:     {170, 0, 0, 255},
	termColorGreen:   {0, 170, 0, 255},
	termColorYellow:  {170, 85, 0, 255},
	termColorBlue:    {0, 0, 170, 255},
	termColorMagenta: {170, 0, 170, 255},
	termColorCyan:    {0, 170, 170, 255},
	termColorWhite:   {170, 170, 170, 255},

	termColorBrightBlack:   {85, 85, 85, 255},
	termColorBrightRed:     {255, 85, 85, 255},
	termColorBrightGreen:   {85, 255, 85, 255},
	termColorBrightYellow:  {255, 255, 85, 255},
	termColorBrightBlue:    {85, 85, 255, 255},
	termColorBrightMagenta: {255, 85, 255, 255},
	termColorBrightCyan:    {85, 255, 255, 255},
	termColorBrightWhite:   {255, 255, 255, 255},
}

type termTheme struct {
	fyne.Theme

	fontSize float32
}

func newTermTheme(base fyne.Theme) *termTheme {
	return &termTheme{
		Theme:    base,
		fontSize: 12,
	}
}

// Color adds the ANSI colours and keeps the rest of the interface dark.
func (t *termTheme) Color(n fyne.ThemeColorName, v fyne.ThemeVariant) color.Color {
	if c, ok := termColors[n]; ok {
		return c
	}
	switch n {
	case theme.ColorNameBackground, theme.ColorNameForeground:
		return t.Theme.Color(n, v)
	}
	return t.Theme.Color(n, theme.VariantDark)
}

func (t *termTheme) Size(n fyne.ThemeSizeName) float32 {
	if n == theme.SizeNameText {
		return t.fontSize
	}

	return t.Theme.Size(n)
}

// Font is always monospaced, bold text keeps its weight.
func (t *termTheme) Font(style fyne.TextStyle) fyne.Resource {
	return t.Theme.Font(fyne.TextStyle{Monospace: true, Bold: style.Bold})
}
