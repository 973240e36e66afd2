package console

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyne-io/vt100"
)

type pipeTransport struct {
	io.Reader

	mu      sync.Mutex
	written bytes.Buffer
}

func (p *pipeTransport) Init(context.Context) error { return nil }

func (p *pipeTransport) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.written.Write(b)
}

func (p *pipeTransport) output() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.written.String()
}

func (p *pipeTransport) Resize(_, _ vt100.Size) error { return nil }

func (p *pipeTransport) Close() error {
	if c, ok := p.Reader.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (p *pipeTransport) ExitStatus() int { return 0 }
func (p *pipeTransport) Name() string    { return "pipe" }

func newSimScreen(t *testing.T, columns, rows int) tcell.SimulationScreen {
	t.Helper()
	sim := tcell.NewSimulationScreen("UTF-8")
	require.NoError(t, sim.Init())
	sim.SetSize(columns, rows)
	t.Cleanup(sim.Fini)
	return sim
}

func simText(sim tcell.SimulationScreen) string {
	cells, w, _ := sim.GetContents()
	var sb strings.Builder
	for i, cell := range cells {
		if len(cell.Runes) > 0 {
			sb.WriteRune(cell.Runes[0])
		} else {
			sb.WriteByte(' ')
		}
		if (i+1)%w == 0 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

func TestConsole_Paint(t *testing.T) {
	sim := newSimScreen(t, 5, 2)
	buf := vt100.NewScreenBuffer(5, 2)
	c := New(sim, buf)
	term := vt100.NewTerminal(c, buf)

	require.NoError(t, term.Replay(strings.NewReader("\x1b[1;32mok\x1b[m\r\n!\a")))
	c.Paint()

	assert.Equal(t, "ok   \n!    \n", simText(sim))
	x, y, visible := sim.GetCursor()
	assert.Equal(t, 1, x)
	assert.Equal(t, 1, y)
	assert.True(t, visible)

	cells, _, _ := sim.GetContents()
	fg, _, attrs := cells[0].Style.Decompose()
	assert.Equal(t, tcell.PaletteColor(2), fg)
	assert.NotZero(t, attrs&tcell.AttrBold)
	assert.Zero(t, c.bells.Load(), "bells are rung on paint")
}

func TestStyle(t *testing.T) {
	tests := map[string]struct {
		style  vt100.Style
		fg, bg tcell.Color
		attrs  tcell.AttrMask
	}{
		"empty": {
			style: vt100.EmptyStyle,
			fg:    tcell.ColorDefault, bg: tcell.ColorDefault,
		},
		"colours": {
			style: vt100.Style{Foreground: vt100.ColorRed, Background: vt100.ColorWhite},
			fg:    tcell.PaletteColor(1), bg: tcell.PaletteColor(7),
		},
		"reverse underscore": {
			style: vt100.Style{Options: vt100.OptionReverse | vt100.OptionUnderscore},
			fg:    tcell.ColorDefault, bg: tcell.ColorDefault,
			attrs: tcell.AttrReverse | tcell.AttrUnderline,
		},
		"hidden": {
			style: vt100.Style{Foreground: vt100.ColorRed, Background: vt100.ColorBlue, Options: vt100.OptionHidden},
			fg:    tcell.PaletteColor(4), bg: tcell.PaletteColor(4),
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			fg, bg, attrs := Style(tt.style).Decompose()
			assert.Equal(t, tt.fg, fg)
			assert.Equal(t, tt.bg, bg)
			assert.Equal(t, tt.attrs, attrs)
		})
	}
}

func TestInputBytes(t *testing.T) {
	tests := map[string]struct {
		event    *tcell.EventKey
		expected []byte
	}{
		"rune":      {event: tcell.NewEventKey(tcell.KeyRune, 'é', tcell.ModNone), expected: []byte("é")},
		"ctrl-c":    {event: tcell.NewEventKey(tcell.KeyCtrlC, 0, tcell.ModCtrl), expected: []byte{0x03}},
		"backspace": {event: tcell.NewEventKey(tcell.KeyBackspace2, 0, tcell.ModNone), expected: []byte{0x7f}},
		"home":      {event: tcell.NewEventKey(tcell.KeyHome, 0, tcell.ModNone), expected: nil},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.expected, InputBytes(tt.event))
		})
	}
}

func TestConsole_Run(t *testing.T) {
	sim := newSimScreen(t, 8, 3)
	buf := NewBuffer(sim)
	c := New(sim, buf)
	r, w := io.Pipe()
	defer w.Close()
	tr := &pipeTransport{Reader: r}
	emu := vt100.NewEmulator(tr, c, buf)

	errs := make(chan error, 1)
	go func() {
		errs <- c.Run(context.Background(), emu)
	}()
	require.Eventually(t, emu.Running, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, 8, buf.Width(), "sized to the console")

	_, err := w.Write([]byte("hey"))
	require.NoError(t, err)
	sim.InjectKey(tcell.KeyRune, 'l', tcell.ModNone)
	sim.InjectKey(tcell.KeyUp, 0, tcell.ModNone)
	sim.InjectKey(tcell.KeyEnter, 0, tcell.ModNone)
	require.Eventually(t, func() bool {
		return tr.output() == "l\x1bOA\r"
	}, 5*time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool {
		return strings.HasPrefix(buf.Lines(), "hey")
	}, 5*time.Second, 10*time.Millisecond)

	sim.InjectKey(QuitKey, 0, tcell.ModCtrl)
	select {
	case err := <-errs:
		assert.ErrorIs(t, err, ErrQuit)
	case <-time.After(5 * time.Second):
		t.Fatal("console did not quit")
	}
	assert.Equal(t, "hey     \n        \n        \n", simText(sim))
}

func TestNewBuffer(t *testing.T) {
	sim := newSimScreen(t, 12, 5)
	w, h := NewBuffer(sim).Size()
	assert.Equal(t, 12, w)
	assert.Equal(t, 5, h)
}

func TestConsole_PaintWhileResizing(t *testing.T) {
	sim := newSimScreen(t, 8, 4)
	buf := NewBuffer(sim)
	c := New(sim, buf)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			buf.Lock()
			buf.Resize(4+i%5, 2+i%3)
			buf.Unlock()
		}
	}()
	for i := 0; i < 200; i++ {
		c.Paint()
	}
	<-done
}
