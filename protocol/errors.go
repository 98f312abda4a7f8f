package protocol

import (
	"errors"
	"fmt"
)

// Transport-level decode failures. A DecodeError matches one of these with errors.Is.
var (
	// ErrFraming indicates a frame whose end marker did not match
	ErrFraming = errors.New("framing error")

	// ErrCRCMismatch indicates a frame whose CRC did not match code||payload
	ErrCRCMismatch = errors.New("crc mismatch")

	// ErrPayloadTooLarge indicates a payload longer than MaxPayloadSize
	ErrPayloadTooLarge = errors.New("payload too large")

	// ErrInvalidPath indicates a path that is empty, too long or not valid UTF-8
	ErrInvalidPath = errors.New("invalid path")
)

// DecodeError describes a rejected frame.
type DecodeError struct {
	// Kind is ErrFraming or ErrCRCMismatch
	Kind error

	// Code is the code byte of the rejected frame
	Code byte

	// Got is the received end marker or CRC
	Got uint16

	// Want is the expected end marker or computed CRC
	Want uint16
}

func (e *DecodeError) Error() string {
	if errors.Is(e.Kind, ErrCRCMismatch) {
		return fmt.Sprintf("%v: received 0x%04X, computed 0x%04X (code 0x%02X)", e.Kind, e.Got, e.Want, e.Code)
	}
	return fmt.Sprintf("%v: end marker 0x%02X, expected 0x%02X (code 0x%02X)", e.Kind, e.Got, e.Want, e.Code)
}

func (e *DecodeError) Unwrap() error {
	return e.Kind
}

// ProtocolError represents a decoded reply whose response code is not RespOK.
type ProtocolError struct {
	// Operation is the command that failed
	Operation string

	// Code is the response code from the device
	Code byte
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%s failed: %s (0x%02X)", e.Operation, ResponseName(e.Code), e.Code)
}

// IsProtocolError returns true if err is or wraps a ProtocolError.
func IsProtocolError(err error) bool {
	var pe *ProtocolError
	return errors.As(err, &pe)
}

// ResponseCodeOf returns the response code carried by a ProtocolError in err's chain.
func ResponseCodeOf(err error) (byte, bool) {
	var pe *ProtocolError
	if errors.As(err, &pe) {
		return pe.Code, true
	}
	return 0, false
}

// ShortResponseError indicates a reply payload shorter than its fixed layout requires.
type ShortResponseError struct {
	Operation string
	Got       int
	Want      int
}

func (e *ShortResponseError) Error() string {
	return fmt.Sprintf("invalid data length for %s response: got %d bytes, need at least %d", e.Operation, e.Got, e.Want)
}

// ResponseName returns the protocol name of a response code.
func ResponseName(code byte) string {
	switch code {
	case RespOK:
		return "OK"
	case RespError:
		return "ERROR"
	case RespFileNotFound:
		return "FILE_NOT_FOUND"
	case RespDiskFull:
		return "DISK_FULL"
	case RespInvalidParam:
		return "INVALID_PARAM"
	default:
		return fmt.Sprintf("UNKNOWN(0x%02X)", code)
	}
}

// CommandName returns a short name for a command code, used in logs and metrics labels.
func CommandName(code byte) string {
	switch code {
	case CmdPing:
		return "ping"
	case CmdReset:
		return "reset"
	case CmdFileList:
		return "list"
	case CmdFileInfo:
		return "stat"
	case CmdFileExist:
		return "exists"
	case CmdFileOpen:
		return "open"
	case CmdFileData:
		return "data"
	case CmdFileClose:
		return "close"
	case CmdFileDelete:
		return "delete"
	case CmdDirCreate:
		return "mkdir"
	case CmdDirDelete:
		return "rmdir"
	default:
		return fmt.Sprintf("0x%02X", code)
	}
}
