package protocol

import "fmt"

// State is the position of a Decoder within a frame.
type State int

// Decoder states. StateComplete and StateFailed are terminal for one frame;
// the next Feed starts over at StateAwaitStart.
const (
	StateAwaitStart State = iota
	StateCode
	StateLenLo
	StateLenHi
	StateData
	StateCrcLo
	StateCrcHi
	StateAwaitEnd
	StateComplete
	StateFailed
)

var stateNames = [...]string{
	StateAwaitStart: "await-start",
	StateCode:       "code",
	StateLenLo:      "len-lo",
	StateLenHi:      "len-hi",
	StateData:       "data",
	StateCrcLo:      "crc-lo",
	StateCrcHi:      "crc-hi",
	StateAwaitEnd:   "await-end",
	StateComplete:   "complete",
	StateFailed:     "failed",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Decoder is the receive state machine. It is fed bytes from any source
// (a serial port, a buffer in a test) and is independent of the I/O mechanism.
//
// The zero value is ready to use. A Decoder is not safe for concurrent use.
type Decoder struct {
	state   State
	code    byte
	length  uint16
	payload []byte
	crc     uint16
	err     error

	// discarded counts bytes dropped while waiting for a start marker
	discarded int
}

// Feed consumes one byte and returns the resulting state.
//
// When Feed returns StateComplete, Frame holds the decoded frame. When it returns
// StateFailed, Err describes the failure (ErrCRCMismatch or ErrFraming). Either
// way the following Feed begins a new frame.
func (d *Decoder) Feed(b byte) State {
	if d.state == StateComplete || d.state == StateFailed {
		d.Reset()
	}

	switch d.state {
	case StateAwaitStart:
		if b == StartMarker {
			d.state = StateCode
		} else {
			d.discarded++
		}

	case StateCode:
		d.code = b
		d.state = StateLenLo

	case StateLenLo:
		d.length = uint16(b)
		d.state = StateLenHi

	case StateLenHi:
		d.length |= uint16(b) << 8
		d.payload = make([]byte, 0, d.length)
		if d.length == 0 {
			d.state = StateCrcLo
		} else {
			d.state = StateData
		}

	case StateData:
		d.payload = append(d.payload, b)
		if len(d.payload) == int(d.length) {
			d.state = StateCrcLo
		}

	case StateCrcLo:
		d.crc = uint16(b)
		d.state = StateCrcHi

	case StateCrcHi:
		d.crc |= uint16(b) << 8
		d.state = StateAwaitEnd

	case StateAwaitEnd:
		if b != EndMarker {
			d.err = &DecodeError{Kind: ErrFraming, Code: d.code, Got: uint16(b), Want: EndMarker}
			d.state = StateFailed
			break
		}
		if want := frameCRC(d.code, d.payload); want != d.crc {
			d.err = &DecodeError{Kind: ErrCRCMismatch, Code: d.code, Got: d.crc, Want: want}
			d.state = StateFailed
			break
		}
		d.state = StateComplete
	}

	return d.state
}

// FeedBytes feeds p until a frame completes or fails, returning the number of
// bytes consumed and the state reached. Bytes after a terminal state are not consumed.
func (d *Decoder) FeedBytes(p []byte) (int, State) {
	for i, b := range p {
		if st := d.Feed(b); st == StateComplete || st == StateFailed {
			return i + 1, st
		}
	}
	return len(p), d.state
}

// State returns the current state.
func (d *Decoder) State() State {
	return d.state
}

// Frame returns the code and payload of the last completed frame.
// The payload is owned by the caller. It is only meaningful after StateComplete.
func (d *Decoder) Frame() (code byte, payload []byte) {
	if d.state != StateComplete {
		return 0, nil
	}
	return d.code, d.payload
}

// Err returns the failure of the last frame, or nil.
func (d *Decoder) Err() error {
	if d.state != StateFailed {
		return nil
	}
	return d.err
}

// Discarded returns the number of bytes dropped while waiting for the
// start marker of the current frame.
func (d *Decoder) Discarded() int {
	return d.discarded
}

// Reset returns the decoder to StateAwaitStart, dropping any partial frame.
func (d *Decoder) Reset() {
	*d = Decoder{}
}
