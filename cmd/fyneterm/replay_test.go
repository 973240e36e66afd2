package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyne-io/vt100"
)

func TestReplay(t *testing.T) {
	setLanguage("en")
	var out bytes.Buffer
	opts := replayOptions{size: vt100.Size{Width: 3, Height: 2}, charset: vt100.DefaultCharset}

	require.NoError(t, replay(&out, strings.NewReader("one\r\ntwo\r\nsix\a"), opts))
	assert.True(t, strings.HasPrefix(out.String(),
		"-- scrollback (1 lines) --\none\n-- screen --\ntwo\nsix\n"), out.String())
	assert.Contains(t, out.String(), "row 2, 1 bells")
	assert.NotContains(t, out.String(), "-- styles --")
}

func TestReplay_Dumps(t *testing.T) {
	setLanguage("en")
	var out bytes.Buffer
	opts := replayOptions{size: vt100.Size{Width: 2, Height: 1}, charset: vt100.DefaultCharset, styles: true, damage: true}

	require.NoError(t, replay(&out, strings.NewReader("\x1b[1mX"), opts))
	lines := strings.Split(out.String(), "\n")
	require.GreaterOrEqual(t, len(lines), 6)
	assert.Equal(t, "-- screen --", lines[0])
	assert.Equal(t, "X ", lines[1])
	assert.Equal(t, "-- styles --", lines[2])
	assert.Equal(t, "-- damage --", lines[4])
	assert.Equal(t, byte('X'), lines[5][0], "written cell is damaged")
	assert.NotContains(t, out.String(), "scrollback")
}

func TestReplay_UnknownCharset(t *testing.T) {
	opts := replayOptions{size: vt100.Size{Width: 2, Height: 1}, charset: "no-such-charset"}
	assert.Error(t, replay(&bytes.Buffer{}, strings.NewReader("x"), opts))
}

func TestReplayCommand(t *testing.T) {
	capture := filepath.Join(t.TempDir(), "capture.bin")
	require.NoError(t, os.WriteFile(capture, []byte("\x1b[2Jhello"), 0o600))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"replay", "--rows", "2", "--columns", "6", "--lang", "de", capture})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
		setLanguage("en")
	})

	require.NoError(t, rootCmd.Execute())
	assert.True(t, strings.HasPrefix(out.String(), "-- Bildschirm --\nhello \n      \n"), out.String())
	assert.Contains(t, out.String(), "Zeile 1")
}
