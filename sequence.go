package vt100

import (
	"fmt"
	"strconv"
	"strings"
)

// maxArgs is the number of parameter slots in a control sequence.
// Parameters past the last slot overwrite it.
const maxArgs = 10

// ModeTable selects how the parameters of a set or reset mode sequence are
// numbered. A leading '?' selects the private (DEC) table.
type ModeTable int

const (
	NormalModes ModeTable = iota
	PrivateModes
)

func (m ModeTable) String() string {
	if m == PrivateModes {
		return "private"
	}
	return "normal"
}

// ControlSequence is a parsed CSI sequence, the bytes following "ESC [".
type ControlSequence struct {
	Final byte
	Table ModeTable

	args  [maxArgs]int
	set   [maxArgs]bool
	count int

	unhandled []byte

	// where the sequence sat in the channel buffer, for diagnostics
	start, length, serial int
}

// ReadControlSequence consumes a control sequence from ch, which must be
// positioned just after the introducer. Bytes the grammar does not model are
// kept aside; see Unhandled.
func ReadControlSequence(ch *ByteChannel) (*ControlSequence, error) {
	cs := &ControlSequence{
		start:  ch.Offset(),
		serial: ch.Serial(),
	}

	argc := 0
	params := false
	for pos := 0; ; pos++ {
		b, err := ch.NextByte()
		if err != nil {
			return nil, err
		}
		switch {
		case b == '?' && pos == 0:
			cs.Table = PrivateModes
		case b == ';':
			// an empty parameter keeps its slot and reads as the default,
			// so ESC[;5H is column 5 rather than row 5
			params = true
			argc++
			if argc == maxArgs {
				argc = maxArgs - 1
				cs.args[argc], cs.set[argc] = 0, false
			}
		case b >= '0' && b <= '9':
			params = true
			cs.args[argc] = cs.args[argc]*10 + int(b-'0')
			cs.set[argc] = true
		case b >= 0x40 && b <= 0x7e:
			cs.Final = b
			if params {
				cs.count = argc + 1
			}
			if cs.serial == ch.Serial() {
				cs.length = ch.Offset() - cs.start
			} else {
				cs.length = -1
			}
			return cs, nil
		default:
			cs.unhandled = append(cs.unhandled, b)
		}
	}
}

// Count is the number of parameters given, including empty ones.
func (cs *ControlSequence) Count() int {
	return cs.count
}

// Arg returns parameter i, or def when it was not given or left empty.
func (cs *ControlSequence) Arg(i, def int) int {
	if i < 0 || i >= cs.count || !cs.set[i] {
		return def
	}
	return cs.args[i]
}

// Unhandled returns the bytes that were read but are not part of the
// modelled grammar, such as ':' sub-parameters or intermediates.
func (cs *ControlSequence) Unhandled() []byte {
	return cs.unhandled
}

// Reencode returns the bytes to replay for a sequence with unhandled
// bytes: those bytes first, then the canonical form of the sequence.
func (cs *ControlSequence) Reencode() ([]byte, error) {
	out := make([]byte, 0, len(cs.unhandled)+4+cs.count*4)
	out = append(out, cs.unhandled...)
	out = append(out, asciiEscape, '[')
	out = append(out, cs.canonical()...)
	if len(out) > channelBufferSize {
		return nil, fmt.Errorf("%w: re-encoded sequence is %d bytes", ErrPushBackOverflow, len(out))
	}
	return out, nil
}

// PushBackReordered replays a sequence that has unhandled bytes through ch
// and reports whether it did. Sequences without unhandled bytes are left
// for dispatch.
func (cs *ControlSequence) PushBackReordered(ch *ByteChannel) (bool, error) {
	if len(cs.unhandled) == 0 {
		return false, nil
	}
	b, err := cs.Reencode()
	if err != nil {
		return false, err
	}
	return true, ch.PushBackBuffer(b)
}

// canonical is the sequence after the introducer, parameters without
// leading zeros.
func (cs *ControlSequence) canonical() string {
	var sb strings.Builder
	if cs.Table == PrivateModes {
		sb.WriteByte('?')
	}
	for i := 0; i < cs.count; i++ {
		if i > 0 {
			sb.WriteByte(';')
		}
		if cs.set[i] {
			sb.WriteString(strconv.Itoa(cs.args[i]))
		}
	}
	sb.WriteByte(cs.Final)
	return sb.String()
}

func (cs *ControlSequence) String() string {
	s := "ESC[" + cs.canonical()
	if len(cs.unhandled) > 0 {
		s += " unhandled: " + DescribeBytes(cs.unhandled)
	}
	return s
}

// RawBytes describes the bytes the sequence was parsed from, if they are
// still in the channel buffer.
func (cs *ControlSequence) RawBytes(ch *ByteChannel) string {
	if cs.length < 0 {
		return "buffer refilled while reading"
	}
	raw, ok := ch.Span(cs.start, cs.length, cs.serial)
	if !ok {
		return "buffer refilled after reading"
	}
	return "ESC [" + DescribeBytes(raw)
}
