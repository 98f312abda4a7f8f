// Package protocol implements the UART file-system protocol spoken by the device firmware.
//
// This package provides the frame codec (encoding, CRC-16 and a byte-at-a-time
// decoder), request payload builders and typed response parsers. It performs no I/O;
// see package transport for the byte stream side.
//
// # Protocol Overview
//
// Every request and every reply is one frame:
//
//	Request:  [START][CMD][LEN_L][LEN_H][DATA...][CRC_L][CRC_H][END]
//	Response: [START][RESP][LEN_L][LEN_H][DATA...][CRC_L][CRC_H][END]
//
// Where:
//   - START = Start marker (0xAA)
//   - END = End marker (0x55)
//   - LEN = 16-bit payload length (little-endian)
//   - CRC = CRC-16/MODBUS over CMD||DATA (little-endian), the length field is not covered
//
// # Encoding
//
// Use Encode to build a frame ready to write:
//
//	frame, err := protocol.Encode(protocol.CmdFileList, protocol.BuildPathPayload("/"))
//
// # Decoding
//
// A Decoder is fed one byte at a time and reports when a frame is complete:
//
//	var dec protocol.Decoder
//	for _, b := range received {
//	    switch dec.Feed(b) {
//	    case protocol.StateComplete:
//	        code, payload := dec.Frame()
//	        // ...
//	    case protocol.StateFailed:
//	        err := dec.Err() // errors.Is(err, protocol.ErrCRCMismatch) or ErrFraming
//	    }
//	}
//
// Bytes received while waiting for a start marker are discarded, so the decoder
// resynchronizes on the next frame after garbage or a rejected frame.
//
// # Response Parsers
//
// The Parse* functions decode reply payloads into typed values:
//
//	status, err := protocol.ParseStatusResponse(data)
//	entries := protocol.ParseListResponse(data) // tolerates a truncated trailing record
//	meta, err := protocol.ParseStatResponse(data)
//
// # Error Handling
//
// Non-OK response codes are reported with ProtocolError:
//
//	if resp.Code != protocol.RespOK {
//	    return &protocol.ProtocolError{Operation: "stat", Code: resp.Code}
//	    // Error(): "stat failed: FILE_NOT_FOUND (0xE2)"
//	}
package protocol
