package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCRC16(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		expected uint16
	}{
		{
			name:     "empty data",
			data:     []byte{},
			expected: 0xFFFF, // initial register, nothing shifted
		},
		{
			name:     "check string",
			data:     []byte("123456789"),
			expected: 0x4B37, // CRC-16/MODBUS check value
		},
		{
			name:     "ping command",
			data:     []byte{CmdPing},
			expected: 0x807E,
		},
		{
			name:     "list root",
			data:     []byte{CmdFileList, '/'},
			expected: 0xAC4D,
		},
		{
			name:     "ok response",
			data:     []byte{RespOK},
			expected: 0xC8BE,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CRC16(tt.data), "CRC16() = 0x%04X, want 0x%04X", CRC16(tt.data), tt.expected)
		})
	}
}

func TestFrameCRCMatchesConcatenation(t *testing.T) {
	payload := []byte("/sd/data/log.txt")
	joined := append([]byte{CmdFileInfo}, payload...)

	assert.Equal(t, CRC16(joined), frameCRC(CmdFileInfo, payload))
}
