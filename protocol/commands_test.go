package protocol

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPathPayload(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		wantErr bool
		errMsg  string
	}{
		{
			name: "root",
			path: "/",
		},
		{
			name: "nested utf-8 path",
			path: "/写真/2024/夏.jpg",
		},
		{
			name: "maximum length",
			path: "/" + strings.Repeat("a", MaxPathLength-1),
		},
		{
			name:    "empty path",
			path:    "",
			wantErr: true,
			errMsg:  "empty",
		},
		{
			name:    "too long",
			path:    "/" + strings.Repeat("a", MaxPathLength),
			wantErr: true,
			errMsg:  "exceeds maximum",
		},
		{
			name:    "invalid utf-8",
			path:    "/bad\xff",
			wantErr: true,
			errMsg:  "UTF-8",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, err := BuildPathPayload(tt.path)

			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidPath)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, []byte(tt.path), payload)
		})
	}
}

func TestBuildOpenPayload(t *testing.T) {
	payload, err := BuildOpenPayload(ModeWrite, "/logs/a.txt")
	require.NoError(t, err)
	assert.Equal(t, append([]byte{0x01}, "/logs/a.txt"...), payload)

	payload, err = BuildOpenPayload(ModeAppend, "/x")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x02, '/', 'x'}, payload)

	_, err = BuildOpenPayload(3, "/x")
	assert.Error(t, err)

	_, err = BuildOpenPayload(ModeRead, "")
	assert.ErrorIs(t, err, ErrInvalidPath)
}

func TestBuildWritePayload(t *testing.T) {
	tests := []struct {
		name    string
		chunk   []byte
		wantErr bool
	}{
		{name: "single byte", chunk: []byte{0x42}},
		{name: "one KiB", chunk: bytes.Repeat([]byte{0x01}, 1024)},
		{name: "largest accepted", chunk: make([]byte, MaxRequestPayload-1)},
		{name: "empty", chunk: nil, wantErr: true},
		{name: "over device buffer", chunk: make([]byte, MaxRequestPayload), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, err := BuildWritePayload(tt.chunk)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Len(t, payload, len(tt.chunk)+1)
			assert.Equal(t, byte(DirectionWrite), payload[0])
			assert.Equal(t, tt.chunk, payload[1:])
		})
	}
}

func TestBuildReadPayload(t *testing.T) {
	assert.Equal(t, []byte{0x00, 0x00, 0x04}, BuildReadPayload(1024))
	assert.Equal(t, []byte{0x00, 0x00, 0x10}, BuildReadPayload(MaxChunkSize))
	assert.Equal(t, []byte{0x00, 0x01, 0x00}, BuildReadPayload(1))
}
