//go:build !windows

package tty

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/creack/pty"

	"github.com/fyne-io/vt100"
)

const hangupGrace = 2 * time.Second

// LocalShell runs a shell on a pseudo-terminal of this machine.
type LocalShell struct {
	Command string
	Dir     string
	Env     []string

	mu     sync.Mutex
	cmd    *exec.Cmd
	pty    *os.File
	size   vt100.Size
	status int
	done   chan struct{}

	log *log.Logger
}

// NewLocalShell prepares a shell session. An empty command uses $SHELL, or bash.
func NewLocalShell(command, dir string) *LocalShell {
	if command == "" {
		command = os.Getenv("SHELL")
	}
	if command == "" {
		command = "bash"
	}
	return &LocalShell{
		Command: command,
		Dir:     dir,
		size:    vt100.Size{Width: 80, Height: 24},
		log:     vt100.Logger().With("transport", "local:"+command),
	}
}

func (l *LocalShell) Init(ctx context.Context) error {
	env := append(os.Environ(), l.Env...)
	env = append(env, "TERM=vt100")
	c := exec.CommandContext(ctx, l.Command)
	c.Dir = l.startingDir()
	c.Env = env

	l.mu.Lock()
	size := l.size
	l.mu.Unlock()

	// Start the command with a pty.
	f, err := pty.StartWithSize(c, &pty.Winsize{Rows: uint16(size.Height), Cols: uint16(size.Width)})
	if err != nil {
		return fmt.Errorf("start %s: %w", l.Command, err)
	}

	l.mu.Lock()
	l.cmd, l.pty = c, f
	l.done = make(chan struct{})
	l.mu.Unlock()
	go l.wait()
	return nil
}

func (l *LocalShell) startingDir() string {
	if l.Dir != "" {
		return l.Dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return home
}

func (l *LocalShell) wait() {
	err := l.cmd.Wait()
	status := 0
	var exit *exec.ExitError
	if errors.As(err, &exit) {
		status = exit.ExitCode()
	} else if err != nil {
		l.log.Warn("shell wait failed", "err", err)
		status = -1
	}
	l.log.Debug("shell exited", "status", status)

	l.mu.Lock()
	l.status = status
	l.mu.Unlock()
	close(l.done)
}

func (l *LocalShell) file() (*os.File, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.pty == nil {
		return nil, vt100.ErrNotConnected
	}
	return l.pty, nil
}

func (l *LocalShell) Read(p []byte) (int, error) {
	f, err := l.file()
	if err != nil {
		return 0, err
	}
	return f.Read(p)
}

func (l *LocalShell) Write(p []byte) (int, error) {
	f, err := l.file()
	if err != nil {
		return 0, err
	}
	return f.Write(p)
}

// Fd exposes the pty so that blocked reads can be cancelled.
func (l *LocalShell) Fd() uintptr {
	f, err := l.file()
	if err != nil {
		return ^uintptr(0)
	}
	return f.Fd()
}

// Resize sets the pty window size. Before Init it sets the starting size.
func (l *LocalShell) Resize(term, pixel vt100.Size) error {
	l.mu.Lock()
	l.size = term
	f := l.pty
	l.mu.Unlock()
	if f == nil {
		return nil
	}
	return pty.Setsize(f, &pty.Winsize{
		Rows: uint16(term.Height), Cols: uint16(term.Width),
		X: uint16(pixel.Width), Y: uint16(pixel.Height)})
}

// Close closes the pty, which hangs up the shell, and waits for it to exit.
func (l *LocalShell) Close() error {
	l.mu.Lock()
	f, done, cmd := l.pty, l.done, l.cmd
	l.pty = nil
	l.mu.Unlock()
	if f == nil {
		return nil
	}
	err := f.Close()
	select {
	case <-done:
	case <-time.After(hangupGrace):
		l.log.Warn("shell ignored hangup, killing it")
		_ = cmd.Process.Kill()
		<-done
	}
	return err
}

// ExitStatus is the exit code of the shell, valid once it has exited.
func (l *LocalShell) ExitStatus() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.status
}

// Done is closed when the shell exits.
func (l *LocalShell) Done() <-chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.done
}

func (l *LocalShell) Name() string {
	return "local:" + l.Command
}
