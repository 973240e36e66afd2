// Package tty provides the transports a terminal session can run over: a
// local shell on a pseudo-terminal, an SSH shell, a WebSocket stream or any
// other byte stream.
package tty

import (
	"context"
	"io"
	"net"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/fyne-io/vt100"
)

// Conn is a Transport over a plain byte stream. It has no notion of a
// terminal size, so Resize only records it.
type Conn struct {
	name string

	mu     sync.Mutex
	rw     io.ReadWriteCloser
	size   vt100.Size
	closed bool

	log *log.Logger
}

// NewConn returns a transport over an already open stream.
func NewConn(name string, rw io.ReadWriteCloser) *Conn {
	return &Conn{
		name: name,
		rw:   rw,
		log:  vt100.Logger().With("transport", name),
	}
}

// Dial connects to a raw TCP service, such as a serial console server.
func Dial(ctx context.Context, address string) (*Conn, error) {
	var d net.Dialer
	c, err := d.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, err
	}
	return NewConn("tcp:"+address, c), nil
}

func (c *Conn) Init(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.rw == nil {
		return vt100.ErrNotConnected
	}
	return nil
}

func (c *Conn) stream() (io.ReadWriteCloser, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.rw == nil {
		return nil, vt100.ErrNotConnected
	}
	return c.rw, nil
}

func (c *Conn) Read(p []byte) (int, error) {
	rw, err := c.stream()
	if err != nil {
		return 0, err
	}
	return rw.Read(p)
}

func (c *Conn) Write(p []byte) (int, error) {
	rw, err := c.stream()
	if err != nil {
		return 0, err
	}
	return rw.Write(p)
}

func (c *Conn) Resize(term, _ vt100.Size) error {
	c.mu.Lock()
	c.size = term
	c.mu.Unlock()
	c.log.Debug("stream has no window size, ignoring resize", "columns", term.Width, "rows", term.Height)
	return nil
}

// Size is the last size given to Resize.
func (c *Conn) Size() vt100.Size {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size
}

func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.rw == nil {
		return nil
	}
	c.closed = true
	return c.rw.Close()
}

func (c *Conn) ExitStatus() int {
	return 0
}

func (c *Conn) Name() string {
	return c.name
}
