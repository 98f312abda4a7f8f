package protocol

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProtocolError(t *testing.T) {
	tests := []struct {
		code byte
		want string
	}{
		{RespError, "delete failed: ERROR (0xE1)"},
		{RespFileNotFound, "delete failed: FILE_NOT_FOUND (0xE2)"},
		{RespDiskFull, "delete failed: DISK_FULL (0xE3)"},
		{RespInvalidParam, "delete failed: INVALID_PARAM (0xE4)"},
		{0x7F, "delete failed: UNKNOWN(0x7F) (0x7F)"},
	}

	for _, tt := range tests {
		err := &ProtocolError{Operation: "delete", Code: tt.code}
		assert.Equal(t, tt.want, err.Error())
	}
}

func TestIsProtocolError(t *testing.T) {
	wrapped := fmt.Errorf("upload: %w", &ProtocolError{Operation: "open", Code: RespDiskFull})

	assert.True(t, IsProtocolError(wrapped))
	assert.False(t, IsProtocolError(errors.New("other")))

	code, ok := ResponseCodeOf(wrapped)
	assert.True(t, ok)
	assert.Equal(t, byte(RespDiskFull), code)

	_, ok = ResponseCodeOf(ErrFraming)
	assert.False(t, ok)
}

func TestDecodeErrorMessages(t *testing.T) {
	crc := &DecodeError{Kind: ErrCRCMismatch, Code: RespOK, Got: 0x1234, Want: 0xABCD}
	assert.Contains(t, crc.Error(), "crc mismatch")
	assert.Contains(t, crc.Error(), "0x1234")
	assert.ErrorIs(t, crc, ErrCRCMismatch)

	framing := &DecodeError{Kind: ErrFraming, Code: RespOK, Got: 0x00, Want: EndMarker}
	assert.Contains(t, framing.Error(), "end marker 0x00")
	assert.ErrorIs(t, framing, ErrFraming)
}

func TestCommandName(t *testing.T) {
	assert.Equal(t, "ping", CommandName(CmdPing))
	assert.Equal(t, "rmdir", CommandName(CmdDirDelete))
	assert.Equal(t, "0x99", CommandName(0x99))
}
