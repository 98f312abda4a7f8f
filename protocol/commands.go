package protocol

import (
	"encoding/binary"
	"fmt"
	"unicode/utf8"
)

// ValidatePath checks that path can be sent to the device.
func ValidatePath(path string) error {
	if path == "" {
		return fmt.Errorf("%w: empty", ErrInvalidPath)
	}
	if len(path) > MaxPathLength {
		return fmt.Errorf("%w: %d bytes exceeds maximum %d", ErrInvalidPath, len(path), MaxPathLength)
	}
	if !utf8.ValidString(path) {
		return fmt.Errorf("%w: not valid UTF-8", ErrInvalidPath)
	}
	return nil
}

// BuildPathPayload builds the payload shared by list, stat, exists, delete,
// mkdir and rmdir: the UTF-8 path bytes, without terminator.
//
// Payload structure:
//
//	[PATH...]
func BuildPathPayload(path string) ([]byte, error) {
	if err := ValidatePath(path); err != nil {
		return nil, err
	}
	return []byte(path), nil
}

// BuildOpenPayload builds a File Open payload.
//
// Payload structure:
//
//	[MODE][PATH...]
func BuildOpenPayload(mode byte, path string) ([]byte, error) {
	if mode > ModeAppend {
		return nil, fmt.Errorf("invalid open mode %d", mode)
	}
	if err := ValidatePath(path); err != nil {
		return nil, err
	}

	payload := make([]byte, 0, 1+len(path))
	payload = append(payload, mode)
	payload = append(payload, path...)
	return payload, nil
}

// BuildWritePayload builds a write-direction File Data payload.
// The chunk must be non-empty; the device rejects empty writes.
//
// Payload structure:
//
//	[0x01][CHUNK...]
func BuildWritePayload(chunk []byte) ([]byte, error) {
	if len(chunk) == 0 {
		return nil, fmt.Errorf("chunk cannot be empty")
	}
	if 1+len(chunk) > MaxRequestPayload {
		return nil, fmt.Errorf("chunk length %d exceeds maximum %d bytes", len(chunk), MaxRequestPayload-1)
	}

	payload := make([]byte, 0, 1+len(chunk))
	payload = append(payload, DirectionWrite)
	payload = append(payload, chunk...)
	return payload, nil
}

// BuildReadPayload builds a read-direction File Data payload requesting up to size bytes.
//
// Payload structure:
//
//	[0x00][SIZE_L][SIZE_H]
func BuildReadPayload(size uint16) []byte {
	payload := make([]byte, 3)
	payload[0] = DirectionRead
	binary.LittleEndian.PutUint16(payload[1:], size)
	return payload
}
