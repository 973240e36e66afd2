package tty

import (
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyne-io/vt100"
)

func TestConn_ReadWrite(t *testing.T) {
	local, remote := net.Pipe()
	defer remote.Close()
	c := NewConn("pipe", local)
	require.NoError(t, c.Init(context.Background()))

	go func() {
		_, _ = remote.Write([]byte("hi"))
	}()
	buf := make([]byte, 8)
	n, err := c.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "hi", string(buf[:n]))

	go func() {
		_, _ = c.Write([]byte("ls\r"))
	}()
	n, err = remote.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "ls\r", string(buf[:n]))

	require.NoError(t, c.Resize(vt100.Size{Width: 100, Height: 30}, vt100.Size{}))
	assert.Equal(t, vt100.Size{Width: 100, Height: 30}, c.Size())
	assert.Equal(t, "pipe", c.Name())
}

func TestConn_Closed(t *testing.T) {
	local, remote := net.Pipe()
	defer remote.Close()
	c := NewConn("pipe", local)

	require.NoError(t, c.Close())
	require.NoError(t, c.Close(), "closing twice is fine")
	assert.ErrorIs(t, c.Init(context.Background()), vt100.ErrNotConnected)
	_, err := c.Read(make([]byte, 1))
	assert.ErrorIs(t, err, vt100.ErrNotConnected)
	_, err = c.Write([]byte("x"))
	assert.ErrorIs(t, err, vt100.ErrNotConnected)
}

func TestDial(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		_, _ = conn.Write([]byte("login: "))
	}()

	c, err := Dial(context.Background(), ln.Addr().String())
	require.NoError(t, err)
	defer c.Close()
	assert.Equal(t, "tcp:"+ln.Addr().String(), c.Name())

	out, err := io.ReadAll(c)
	require.NoError(t, err)
	assert.Equal(t, "login: ", string(out))
}

func TestConn_EmulatorCancel(t *testing.T) {
	local, remote := net.Pipe()
	defer remote.Close()
	c := NewConn("pipe", local)
	screen := vt100.NewScreenBuffer(10, 2)
	emu := vt100.NewEmulator(c, vt100.NewBufferDisplay(screen), screen)

	ctx, cancel := context.WithCancel(context.Background())
	errs := make(chan error, 1)
	go func() {
		errs <- emu.Run(ctx)
	}()

	_, err := remote.Write([]byte("ok"))
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return screen.Lines() == "ok        \n          \n"
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-errs:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("emulator did not stop")
	}
}
