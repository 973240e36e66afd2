//go:build !windows

package tty

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyne-io/vt100"
)

func TestLocalShell_Defaults(t *testing.T) {
	t.Setenv("SHELL", "")
	sh := NewLocalShell("", "")
	assert.Equal(t, "bash", sh.Command)
	assert.Equal(t, "local:bash", sh.Name())

	_, err := sh.Read(make([]byte, 1))
	assert.ErrorIs(t, err, vt100.ErrNotConnected)
	assert.Equal(t, ^uintptr(0), sh.Fd())
	require.NoError(t, sh.Close())
}

func TestLocalShell_Emulator(t *testing.T) {
	sh := NewLocalShell("/bin/sh", t.TempDir())
	screen := vt100.NewScreenBuffer(40, 5)
	emu := vt100.NewEmulator(sh, vt100.NewBufferDisplay(screen), screen)
	require.NoError(t, emu.PostResize(vt100.Size{Width: 40, Height: 5}, vt100.OriginUser))

	errs := make(chan error, 1)
	go func() {
		errs <- emu.Run(context.Background())
	}()
	defer sh.Close()
	require.Eventually(t, emu.Running, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, emu.SendBytes([]byte("stty size; echo $TERM; exit 4\r")))
	select {
	case <-sh.Done():
	case <-time.After(10 * time.Second):
		t.Fatal("shell did not exit")
	}
	assert.Equal(t, 4, sh.ExitStatus())

	// Linux reports EIO on the pty once the shell is gone.
	select {
	case <-errs:
	case <-time.After(5 * time.Second):
		t.Fatal("emulator did not stop")
	}
	text := screen.Lines()
	assert.True(t, strings.Contains(text, "5 40"), text)
	assert.True(t, strings.Contains(text, "vt100"), text)
}
