package tty

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"

	"github.com/fyne-io/vt100"
)

// sshServer is a one-connection shell server. The shell echoes what it
// receives until it reads "exit".
type sshServer struct {
	ln net.Listener

	mu    sync.Mutex
	term  string
	sizes []vt100.Size
}

func newSSHServer(t *testing.T) *sshServer {
	t.Helper()
	_, key, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	signer, err := ssh.NewSignerFromKey(key)
	require.NoError(t, err)

	cfg := &ssh.ServerConfig{
		PasswordCallback: func(c ssh.ConnMetadata, pass []byte) (*ssh.Permissions, error) {
			if c.User() == "vt" && string(pass) == "secret" {
				return nil, nil
			}
			return nil, fmt.Errorf("password rejected for %q", c.User())
		},
	}
	cfg.AddHostKey(signer)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	s := &sshServer{ln: ln}
	go s.serve(cfg)
	return s
}

func (s *sshServer) config(password string) SSHConfig {
	host, port, _ := net.SplitHostPort(s.ln.Addr().String())
	p, _ := strconv.Atoi(port)
	return SSHConfig{Host: host, Port: p, User: "vt", Password: password, Timeout: 5 * time.Second}
}

func (s *sshServer) serve(cfg *ssh.ServerConfig) {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		go func() {
			_, chans, reqs, err := ssh.NewServerConn(conn, cfg)
			if err != nil {
				_ = conn.Close()
				return
			}
			go ssh.DiscardRequests(reqs)
			for nc := range chans {
				if nc.ChannelType() != "session" {
					_ = nc.Reject(ssh.UnknownChannelType, "sessions only")
					continue
				}
				ch, requests, err := nc.Accept()
				if err != nil {
					continue
				}
				go s.session(ch, requests)
			}
		}()
	}
}

func (s *sshServer) session(ch ssh.Channel, requests <-chan *ssh.Request) {
	for req := range requests {
		switch req.Type {
		case "pty-req":
			term, cols, rows := parsePtyRequest(req.Payload)
			s.mu.Lock()
			s.term = term
			s.sizes = append(s.sizes, vt100.Size{Width: cols, Height: rows})
			s.mu.Unlock()
			_ = req.Reply(true, nil)
		case "window-change":
			s.mu.Lock()
			s.sizes = append(s.sizes, vt100.Size{
				Width:  int(binary.BigEndian.Uint32(req.Payload)),
				Height: int(binary.BigEndian.Uint32(req.Payload[4:])),
			})
			s.mu.Unlock()
		case "shell":
			_ = req.Reply(true, nil)
			go echo(ch)
		default:
			_ = req.Reply(false, nil)
		}
	}
}

func parsePtyRequest(p []byte) (string, int, int) {
	n := binary.BigEndian.Uint32(p)
	term := string(p[4 : 4+n])
	p = p[4+n:]
	return term, int(binary.BigEndian.Uint32(p)), int(binary.BigEndian.Uint32(p[4:]))
}

func echo(ch ssh.Channel) {
	defer ch.Close()
	_, _ = ch.Write([]byte("$ "))
	buf := make([]byte, 256)
	var line []byte
	for {
		n, err := ch.Read(buf)
		if err != nil {
			return
		}
		_, _ = ch.Write(buf[:n])
		line = append(line, buf[:n]...)
		if bytes.Contains(line, []byte("exit\r")) {
			status := ssh.Marshal(struct{ Status uint32 }{3})
			_, _ = ch.SendRequest("exit-status", false, status)
			return
		}
	}
}

func (s *sshServer) seen() (string, []vt100.Size) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.term, append([]vt100.Size(nil), s.sizes...)
}

func TestSSHShell_Session(t *testing.T) {
	srv := newSSHServer(t)
	sh := NewSSHShell(srv.config("secret"))
	require.NoError(t, sh.Resize(vt100.Size{Width: 100, Height: 30}, vt100.Size{}))
	require.NoError(t, sh.Init(context.Background()))
	defer sh.Close()

	buf := make([]byte, 2)
	_, err := io.ReadFull(sh, buf)
	require.NoError(t, err)
	assert.Equal(t, "$ ", string(buf))

	require.NoError(t, sh.Resize(vt100.Size{Width: 120, Height: 40}, vt100.Size{}))
	_, err = sh.Write([]byte("exit\r"))
	require.NoError(t, err)

	out, err := io.ReadAll(sh)
	require.NoError(t, err)
	assert.Equal(t, "exit\r", string(out))

	select {
	case <-sh.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("session did not end")
	}
	assert.Equal(t, 3, sh.ExitStatus())

	want := []vt100.Size{{Width: 100, Height: 30}, {Width: 120, Height: 40}}
	require.Eventually(t, func() bool {
		_, sizes := srv.seen()
		return len(sizes) == len(want)
	}, 5*time.Second, 10*time.Millisecond)
	term, sizes := srv.seen()
	assert.Equal(t, "vt100", term)
	assert.Equal(t, want, sizes)
}

func TestSSHShell_Emulator(t *testing.T) {
	srv := newSSHServer(t)
	sh := NewSSHShell(srv.config("secret"))
	screen := vt100.NewScreenBuffer(10, 2)
	emu := vt100.NewEmulator(sh, vt100.NewBufferDisplay(screen), screen)

	errs := make(chan error, 1)
	go func() {
		errs <- emu.Run(context.Background())
	}()
	require.Eventually(t, emu.Running, 5*time.Second, 10*time.Millisecond)
	require.NoError(t, emu.SendBytes([]byte("exit")))
	require.NoError(t, emu.SendKey(vt100.KeyEnter))

	select {
	case err := <-errs:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("emulator did not stop")
	}
	assert.Equal(t, "$ exit    \n          \n", screen.Lines())
	<-sh.Done()
	assert.Equal(t, 3, emu.ExitStatus())
}

func TestSSHShell_BadPassword(t *testing.T) {
	srv := newSSHServer(t)
	sh := NewSSHShell(srv.config("wrong"))

	err := sh.Init(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ssh handshake with target")
	_, err = sh.Read(make([]byte, 1))
	assert.ErrorIs(t, err, vt100.ErrNotConnected)
}

func TestSSHShell_NoAuth(t *testing.T) {
	sh := NewSSHShell(SSHConfig{Host: "127.0.0.1", Port: 1, User: "vt"})
	assert.Equal(t, "ssh:vt@127.0.0.1:1", sh.Name())

	methods, err := sh.buildAuthMethods()
	require.NoError(t, err)
	assert.Empty(t, methods)
	assert.Equal(t, "127.0.0.1:22", SSHConfig{Host: "127.0.0.1"}.Addr())
}
