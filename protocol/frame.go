package protocol

import (
	"encoding/binary"
	"fmt"
)

// Encode constructs a complete frame for code and payload.
//
// Frame structure:
//
//	[START][CODE][LEN_L][LEN_H][PAYLOAD...][CRC_L][CRC_H][END]
//
// Returns ErrPayloadTooLarge if the payload does not fit the 16-bit length field.
func Encode(code byte, payload []byte) ([]byte, error) {
	if len(payload) > MaxPayloadSize {
		return nil, fmt.Errorf("%w: %d bytes, maximum is %d", ErrPayloadTooLarge, len(payload), MaxPayloadSize)
	}

	frame := make([]byte, 0, FrameOverhead+len(payload))
	frame = append(frame, StartMarker, code)
	frame = binary.LittleEndian.AppendUint16(frame, uint16(len(payload)))
	frame = append(frame, payload...)
	frame = binary.LittleEndian.AppendUint16(frame, frameCRC(code, payload))
	frame = append(frame, EndMarker)

	return frame, nil
}

// Response is one decoded reply frame.
type Response struct {
	// Code is the response code (RespOK, RespError, ...)
	Code byte

	// Data is the reply payload, empty when the frame carried none
	Data []byte
}

// OK reports whether the response code is RespOK.
func (r *Response) OK() bool {
	return r != nil && r.Code == RespOK
}

// DecodeFrame decodes exactly one frame held in buf.
// Leading bytes before the start marker are skipped; bytes after the end marker are ignored.
func DecodeFrame(buf []byte) (*Response, error) {
	var dec Decoder
	for _, b := range buf {
		switch dec.Feed(b) {
		case StateComplete:
			code, payload := dec.Frame()
			return &Response{Code: code, Data: payload}, nil
		case StateFailed:
			return nil, dec.Err()
		}
	}
	return nil, fmt.Errorf("%w: incomplete frame (%d bytes)", ErrFraming, len(buf))
}
