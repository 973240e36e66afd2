package vt100

import (
	"github.com/charmbracelet/log"
)

const maxIntermediates = 10

// ActionKind says what a decoded Action carries.
type ActionKind int

const (
	// ActionText is a run of printable ASCII.
	ActionText ActionKind = iota
	// ActionControl is a single C0 control character or DEL.
	ActionControl
	// ActionEscape is an ESC sequence other than CSI.
	ActionEscape
	// ActionCSI is a control sequence.
	ActionCSI
	// ActionDoubleByte is a two byte legacy character.
	ActionDoubleByte
)

var actionNames = [...]string{"text", "control", "escape", "csi", "double-byte"}

func (k ActionKind) String() string {
	if int(k) < len(actionNames) {
		return actionNames[k]
	}
	return "unknown"
}

// Action is one decoded step of the byte stream.
type Action struct {
	Kind ActionKind

	// Text holds the bytes of a text run or double-byte character. For text
	// runs it aliases the channel buffer and is valid until the next decode.
	Text []byte

	// Control is the control character of an ActionControl.
	Control byte

	// Intermediates and Final make up an ActionEscape.
	Intermediates []byte
	Final         byte

	Sequence *ControlSequence
}

// Decoder turns the bytes of a ByteChannel into Actions.
//
// Malformed escapes and control sequences using bytes outside the modelled
// grammar are pushed back into the channel and read again as data, so the
// decoder never loses bytes and never dispatches them.
type Decoder struct {
	ch  *ByteChannel
	log *log.Logger
}

// NewDecoder returns a decoder reading from ch.
func NewDecoder(ch *ByteChannel) *Decoder {
	return &Decoder{ch: ch, log: logger.With("component", "decoder")}
}

// Next blocks until one action has been decoded. Text runs are at most
// limit bytes long. The only errors are from the channel, which wrap
// ErrStreamClosed.
func (d *Decoder) Next(limit int) (Action, error) {
	if limit < 1 {
		limit = 1
	}
	for {
		b, err := d.ch.NextByte()
		if err != nil {
			return Action{}, err
		}

		switch {
		case b == asciiEscape:
			a, ok, err := d.escape()
			if err != nil || ok {
				return a, err
			}
		case b < 0x20 || b == asciiDelete:
			return Action{Kind: ActionControl, Control: b}, nil
		case b > asciiDelete:
			trail, err := d.ch.NextByte()
			if err != nil {
				return Action{}, err
			}
			return Action{Kind: ActionDoubleByte, Text: []byte{b, trail}}, nil
		default:
			if err := d.ch.PushBack(b); err != nil {
				return Action{}, err
			}
			run, err := d.ch.AdvanceRun(limit)
			if err != nil {
				return Action{}, err
			}
			return Action{Kind: ActionText, Text: run}, nil
		}
	}
}

// escape decodes what follows an ESC. It reports false when the bytes were
// pushed back instead of forming an action.
func (d *Decoder) escape() (Action, bool, error) {
	b, err := d.ch.NextByte()
	if err != nil {
		return Action{}, false, err
	}
	if b == '[' {
		return d.controlSequence()
	}

	var intermediates []byte
	for b >= 0x20 && b <= 0x2f {
		if len(intermediates) == maxIntermediates {
			break
		}
		intermediates = append(intermediates, b)
		if b, err = d.ch.NextByte(); err != nil {
			return Action{}, false, err
		}
	}
	if b >= 0x30 && b <= 0x7e {
		return Action{Kind: ActionEscape, Intermediates: intermediates, Final: b}, true, nil
	}

	consumed := append(intermediates, b)
	d.log.Warn("malformed escape sequence, pushing back", "bytes", "ESC "+DescribeBytes(consumed))
	d.pushBack(consumed)
	return Action{}, false, nil
}

func (d *Decoder) controlSequence() (Action, bool, error) {
	cs, err := ReadControlSequence(d.ch)
	if err != nil {
		return Action{}, false, err
	}
	if d.log.GetLevel() <= log.DebugLevel {
		d.log.Debug("control sequence", "parsed", cs.String(), "read", cs.RawBytes(d.ch))
	}
	if len(cs.Unhandled()) == 0 {
		return Action{Kind: ActionCSI, Sequence: cs}, true, nil
	}

	replay, err := cs.Reencode()
	if err != nil {
		d.log.Error("control sequence dropped", "sequence", cs.String(), "err", err)
		return Action{}, false, nil
	}
	d.pushBack(replay)
	return Action{}, false, nil
}

func (d *Decoder) pushBack(b []byte) {
	if err := d.ch.PushBackBuffer(b); err != nil {
		d.log.Error("bytes dropped", "bytes", DescribeBytes(b), "err", err)
	}
}
