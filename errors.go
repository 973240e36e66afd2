package vt100

import "errors"

var (
	// ErrStreamClosed is returned once the transport stops yielding bytes.
	// It usually wraps the transport's own error.
	ErrStreamClosed = errors.New("stream closed")

	// ErrCanceled is returned by a read interrupted by Cancel.
	ErrCanceled = errors.New("read canceled")

	// ErrPushBackOverflow means a push-back would not fit in the channel buffer.
	ErrPushBackOverflow = errors.New("push-back exceeds channel buffer")

	// ErrNotConnected is returned by a Transport used before Init or after Close.
	ErrNotConnected = errors.New("transport not connected")
)
