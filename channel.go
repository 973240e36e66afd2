package vt100

import (
	"errors"
	"fmt"
	"io"

	"github.com/muesli/cancelreader"
)

const channelBufferSize = 1024

// ByteChannel is a buffered reader over a transport that supports pushing
// bytes back to be read again.
//
// The buffer is refilled in place, so positions into it are only meaningful
// while Serial is unchanged.
type ByteChannel struct {
	reader cancelreader.CancelReader
	closer io.Closer

	buf    [channelBufferSize]byte
	offset int
	length int
	serial int
}

// NewByteChannel wraps r. Reads can be interrupted by Cancel when r exposes a
// file descriptor (see cancelreader.File); for anything else Cancel closes r
// if it is an io.Closer.
func NewByteChannel(r io.Reader) (*ByteChannel, error) {
	cr, err := cancelreader.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("cancelable reader: %w", err)
	}
	c := &ByteChannel{reader: cr}
	if closer, ok := r.(io.Closer); ok {
		c.closer = closer
	}
	return c, nil
}

func (c *ByteChannel) fill() error {
	c.offset, c.length = 0, 0
	n, err := c.reader.Read(c.buf[:])
	c.serial++
	if n <= 0 {
		if errors.Is(err, cancelreader.ErrCanceled) {
			return fmt.Errorf("%w: %w", ErrStreamClosed, ErrCanceled)
		}
		if err == nil {
			err = io.ErrNoProgress
		}
		return fmt.Errorf("%w: %w", ErrStreamClosed, err)
	}
	c.length = n
	return nil
}

// NextByte returns the next byte, blocking on the transport when the buffer
// is empty. It fails with ErrStreamClosed once the transport yields nothing.
func (c *ByteChannel) NextByte() (byte, error) {
	if c.length == 0 {
		if err := c.fill(); err != nil {
			return 0, err
		}
	}
	b := c.buf[c.offset]
	c.offset++
	c.length--
	return b, nil
}

// PushBack returns b to the front of the buffer.
func (c *ByteChannel) PushBack(b byte) error {
	if c.offset == 0 {
		if c.length == len(c.buf) {
			return ErrPushBackOverflow
		}
		// move what is left to the end to make room at the front
		c.offset = len(c.buf) - c.length
		copy(c.buf[c.offset:], c.buf[:c.length])
		c.serial++
	}
	c.offset--
	c.length++
	c.buf[c.offset] = b
	return nil
}

// PushBackBuffer returns a whole sequence so that the following reads
// reproduce it byte for byte. Nothing is pushed if it would not fit.
func (c *ByteChannel) PushBackBuffer(b []byte) error {
	if len(b)+c.length > len(c.buf) {
		return fmt.Errorf("%w: %d bytes with %d buffered", ErrPushBackOverflow, len(b), c.length)
	}
	for i := len(b) - 1; i >= 0; i-- {
		if err := c.PushBack(b[i]); err != nil {
			return err
		}
	}
	return nil
}

// AdvanceRun consumes up to limit printable ASCII bytes and returns them.
// The slice aliases the buffer and is only valid until the next read.
// An empty result means the next byte needs decoding on its own.
func (c *ByteChannel) AdvanceRun(limit int) ([]byte, error) {
	if c.length == 0 {
		if err := c.fill(); err != nil {
			return nil, err
		}
	}
	start := c.offset
	n := min(limit, c.length)
	i := 0
	for ; i < n; i++ {
		if b := c.buf[start+i]; b < 0x20 || b > 0x7e {
			break
		}
	}
	c.offset += i
	c.length -= i
	return c.buf[start : start+i], nil
}

// Buffered is the number of bytes read from the transport but not yet consumed.
func (c *ByteChannel) Buffered() int {
	return c.length
}

// Serial changes every time the buffer is refilled or rearranged.
func (c *ByteChannel) Serial() int {
	return c.serial
}

// Offset is the buffer position of the next byte.
func (c *ByteChannel) Offset() int {
	return c.offset
}

// Span returns a copy of n bytes starting at buffer position start, provided
// the buffer has not been refilled since serial was taken.
func (c *ByteChannel) Span(start, n, serial int) ([]byte, bool) {
	if serial != c.serial || start < 0 || n < 0 || start+n > len(c.buf) {
		return nil, false
	}
	return append([]byte(nil), c.buf[start:start+n]...), true
}

// Cancel interrupts a blocked read. If the transport cannot be interrupted
// it is closed instead, which ends the read with an error.
func (c *ByteChannel) Cancel() {
	if c.reader.Cancel() {
		return
	}
	if c.closer != nil {
		_ = c.closer.Close()
	}
}

// Close releases the cancel machinery. It does not close the transport.
func (c *ByteChannel) Close() error {
	return c.reader.Close()
}
