package vt100

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Emulator runs a terminal session: it pulls bytes from a Transport, decodes
// them and applies them to a Terminal until the stream ends.
type Emulator struct {
	id         uuid.UUID
	transport  Transport
	screen     *ScreenBuffer
	term       *Terminal
	scrollback *Scrollback
	controller Controller

	running atomic.Bool
	log     *log.Logger
}

// NewEmulator returns an emulator for a session on transport, drawing on
// screen through display.
func NewEmulator(transport Transport, display Display, screen *ScreenBuffer) *Emulator {
	id := uuid.New()
	e := &Emulator{
		id:         id,
		transport:  transport,
		screen:     screen,
		term:       NewTerminal(display, screen),
		scrollback: NewScrollback(),
		log:        logger.With("session", id.String(), "transport", transport.Name()),
	}
	e.term.SetScrollback(e.scrollback)
	e.term.SetResponder(transport)
	return e
}

// ID identifies the session in logs.
func (e *Emulator) ID() uuid.UUID {
	return e.id
}

// Terminal is the cursor engine of the session.
func (e *Emulator) Terminal() *Terminal {
	return e.term
}

// Scrollback holds the lines scrolled off the screen.
func (e *Emulator) Scrollback() *Scrollback {
	return e.scrollback
}

// Screen is the live screen of the session.
func (e *Emulator) Screen() *ScreenBuffer {
	return e.screen
}

// SetController sets who is asked to close the session when Run ends.
func (e *Emulator) SetController(c Controller) {
	e.controller = c
}

// Running reports whether the decode loop is active.
func (e *Emulator) Running() bool {
	return e.running.Load()
}

// Run initialises the transport and decodes its output until the stream
// closes or ctx is cancelled. A closed stream is a normal end and returns nil.
func (e *Emulator) Run(ctx context.Context) error {
	if err := e.transport.Init(ctx); err != nil {
		e.log.Error("transport failed to start", "err", err)
		e.finish(true)
		return fmt.Errorf("init %s: %w", e.transport.Name(), err)
	}

	ch, err := NewByteChannel(e.transport)
	if err != nil {
		e.finish(true)
		return err
	}
	defer ch.Close()

	e.running.Store(true)
	done := make(chan struct{})
	g := new(errgroup.Group)
	g.Go(func() error {
		defer close(done)
		return e.loop(NewDecoder(ch))
	})
	g.Go(func() error {
		select {
		case <-ctx.Done():
			ch.Cancel()
		case <-done:
		}
		return nil
	})
	err = g.Wait()
	e.running.Store(false)

	hasError := false
	switch {
	case errors.Is(err, ErrStreamClosed):
		e.log.Info("terminal exiting", "reason", err)
		err = ctx.Err()
	default:
		e.log.Error("caught error in terminal loop", "err", err)
		hasError = true
	}
	e.finish(hasError)
	return err
}

func (e *Emulator) loop(dec *Decoder) error {
	for {
		e.screen.Lock()
		limit := e.term.DistanceToLineEnd()
		e.screen.Unlock()

		a, err := dec.Next(limit)
		if err != nil {
			return err
		}
		if err := e.apply(a); err != nil {
			return err
		}
	}
}

// apply performs one action with the screen locked.
func (e *Emulator) apply(a Action) (err error) {
	e.screen.Lock()
	defer e.screen.Unlock()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("applying %s action: %v", a.Kind, r)
		}
	}()
	e.term.Apply(a)
	return nil
}

func (e *Emulator) finish(hasError bool) {
	if e.controller == nil {
		return
	}
	if hasError && e.controller.CloseOnError() {
		e.controller.Close()
	} else if e.controller.CloseOnExit() {
		e.controller.Close()
	}
}

// SendBytes writes to the remote end while the session runs.
func (e *Emulator) SendBytes(b []byte) error {
	if !e.running.Load() {
		return nil
	}
	_, err := e.transport.Write(b)
	return err
}

// SendKey writes the code of a special key.
func (e *Emulator) SendKey(k Key) error {
	code := KeyCode(k)
	if code == nil {
		return fmt.Errorf("no code for key %d", k)
	}
	return e.SendBytes(code)
}

// PostResize resizes the terminal and tells the remote end. It must not be
// called with the screen locked.
func (e *Emulator) PostResize(size Size, origin RequestOrigin) error {
	e.screen.Lock()
	pixel := e.term.Resize(size, origin)
	term := e.term.Size()
	e.screen.Unlock()

	if err := e.transport.Resize(term, pixel); err != nil {
		return fmt.Errorf("resize %s: %w", e.transport.Name(), err)
	}
	return nil
}

// ExitStatus is the exit status reported by the transport.
func (e *Emulator) ExitStatus() int {
	return e.transport.ExitStatus()
}
