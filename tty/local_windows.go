//go:build windows

package tty

import (
	"context"
	"fmt"
	"os"
	"sync"
	"syscall"

	"github.com/ActiveState/termtest/conpty"
	"github.com/charmbracelet/log"

	"github.com/fyne-io/vt100"
)

// LocalShell runs a shell on a Windows pseudo console.
type LocalShell struct {
	Command string
	Dir     string
	Env     []string

	mu     sync.Mutex
	cpty   *conpty.ConPty
	proc   *os.Process
	size   vt100.Size
	status int
	done   chan struct{}

	log *log.Logger
}

// NewLocalShell prepares a shell session. An empty command uses %ComSpec%, or cmd.exe.
func NewLocalShell(command, dir string) *LocalShell {
	if command == "" {
		command = os.Getenv("ComSpec")
	}
	if command == "" {
		command = "cmd.exe"
	}
	return &LocalShell{
		Command: command,
		Dir:     dir,
		size:    vt100.Size{Width: 80, Height: 24},
		log:     vt100.Logger().With("transport", "local:"+command),
	}
}

func (l *LocalShell) Init(ctx context.Context) error {
	l.mu.Lock()
	size := l.size
	l.mu.Unlock()

	c, err := conpty.New(int16(size.Width), int16(size.Height))
	if err != nil {
		return fmt.Errorf("create pseudo console: %w", err)
	}

	env := append(os.Environ(), l.Env...)
	env = append(env, "TERM=vt100")
	pid, _, err := c.Spawn(l.Command, []string{}, &syscall.ProcAttr{Dir: l.Dir, Env: env})
	if err != nil {
		_ = c.Close()
		return fmt.Errorf("start %s: %w", l.Command, err)
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		_ = c.Close()
		return fmt.Errorf("find %s: %w", l.Command, err)
	}

	l.mu.Lock()
	l.cpty, l.proc = c, proc
	l.done = make(chan struct{})
	l.mu.Unlock()
	go l.wait()
	go func() {
		select {
		case <-ctx.Done():
			_ = proc.Kill()
		case <-l.done:
		}
	}()
	return nil
}

func (l *LocalShell) wait() {
	state, err := l.proc.Wait()
	status := -1
	if err != nil {
		l.log.Warn("shell wait failed", "err", err)
	} else {
		status = state.ExitCode()
	}
	l.log.Debug("shell exited", "status", status)

	l.mu.Lock()
	l.status = status
	l.mu.Unlock()
	close(l.done)
}

func (l *LocalShell) console() (*conpty.ConPty, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cpty == nil {
		return nil, vt100.ErrNotConnected
	}
	return l.cpty, nil
}

func (l *LocalShell) Read(p []byte) (int, error) {
	c, err := l.console()
	if err != nil {
		return 0, err
	}
	return c.OutPipe().Read(p)
}

func (l *LocalShell) Write(p []byte) (int, error) {
	c, err := l.console()
	if err != nil {
		return 0, err
	}
	n, err := c.Write(p)
	return int(n), err
}

// Resize sets the console size. Before Init it sets the starting size.
func (l *LocalShell) Resize(term, _ vt100.Size) error {
	l.mu.Lock()
	l.size = term
	c := l.cpty
	l.mu.Unlock()
	if c == nil {
		return nil
	}
	return c.Resize(uint16(term.Width), uint16(term.Height))
}

// Close releases the pseudo console and stops the shell.
func (l *LocalShell) Close() error {
	l.mu.Lock()
	c, proc, done := l.cpty, l.proc, l.done
	l.cpty = nil
	l.mu.Unlock()
	if c == nil {
		return nil
	}
	_ = proc.Kill()
	<-done
	return c.Close()
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
