package client

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moffa90/go-uartfs/protocol"
	"github.com/moffa90/go-uartfs/transport"
)

type sentCommand struct {
	code    byte
	payload []byte
}

type mockReply struct {
	resp *protocol.Response
	err  error
}

// MockSender replays queued replies and records every command sent.
// With the queue empty it behaves like a silent device.
type MockSender struct {
	mu      sync.Mutex
	replies []mockReply
	sent    []sentCommand
}

func NewMockSender() *MockSender {
	return &MockSender{}
}

func (m *MockSender) SendCommand(_ context.Context, code byte, payload []byte) (*protocol.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sent = append(m.sent, sentCommand{code: code, payload: append([]byte(nil), payload...)})
	if len(m.replies) == 0 {
		return nil, transport.ErrTimeout
	}
	r := m.replies[0]
	m.replies = m.replies[1:]
	return r.resp, r.err
}

func (m *MockSender) AddResponse(code byte, data []byte) {
	m.replies = append(m.replies, mockReply{resp: &protocol.Response{Code: code, Data: data}})
}

func (m *MockSender) AddError(err error) {
	m.replies = append(m.replies, mockReply{err: err})
}

func (m *MockSender) Codes() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	codes := make([]byte, len(m.sent))
	for i, s := range m.sent {
		codes[i] = s.code
	}
	return codes
}

// MockLogger records messages by level.
type MockLogger struct {
	mu        sync.Mutex
	debugMsgs []string
	infoMsgs  []string
	errorMsgs []string
}

func (l *MockLogger) Debug(msg string, kv ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.debugMsgs = append(l.debugMsgs, msg)
}

func (l *MockLogger) Info(msg string, kv ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.infoMsgs = append(l.infoMsgs, msg)
}

func (l *MockLogger) Error(msg string, kv ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errorMsgs = append(l.errorMsgs, msg)
}

func TestNew(t *testing.T) {
	c := New(NewMockSender())
	assert.Equal(t, protocol.DefaultChunkSize, c.config.ChunkSize)
	assert.Equal(t, protocol.DefaultChunkSize, c.config.ReadChunkSize)
	assert.NotNil(t, c.config.Fs)

	c = New(NewMockSender(), WithChunkSize(4096), WithReadChunkSize(512))
	assert.Equal(t, 4096, c.config.ChunkSize)
	assert.Equal(t, 512, c.config.ReadChunkSize)

	// out-of-range sizes keep the default
	c = New(NewMockSender(), WithChunkSize(0), WithReadChunkSize(protocol.MaxChunkSize+1))
	assert.Equal(t, protocol.DefaultChunkSize, c.config.ChunkSize)
	assert.Equal(t, protocol.DefaultChunkSize, c.config.ReadChunkSize)

	assert.Panics(t, func() { New(nil) })
}

func TestPing(t *testing.T) {
	full := protocol.EncodeStatusResponse(protocol.StatusInfo{
		HeapFree:       123456,
		StorageMounted: true,
		StorageTotal:   1000000000,
		StorageFree:    500000000,
		UptimeSeconds:  3600,
	})

	tests := []struct {
		name       string
		code       byte
		data       []byte
		wantUptime uint32
		wantErr    bool
	}{
		{name: "full status", code: protocol.RespOK, data: full, wantUptime: 3600},
		{name: "status without uptime", code: protocol.RespOK, data: full[:17], wantUptime: 0},
		{name: "too short", code: protocol.RespOK, data: full[:16], wantErr: true},
		{name: "rejected", code: protocol.RespError, data: nil, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sender := NewMockSender()
			sender.AddResponse(tt.code, tt.data)
			c := New(sender)

			info, err := c.Ping(context.Background())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, uint32(123456), info.HeapFree)
			assert.True(t, info.StorageMounted)
			assert.Equal(t, uint64(1000000000), info.StorageTotal)
			assert.Equal(t, uint64(500000000), info.StorageFree)
			assert.Equal(t, tt.wantUptime, info.UptimeSeconds)
			assert.Equal(t, []byte{protocol.CmdPing}, sender.Codes())
		})
	}
}

func TestReset(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(*MockSender)
		wantErr bool
	}{
		{name: "ok reply", setup: func(m *MockSender) { m.AddResponse(protocol.RespOK, nil) }},
		{name: "no reply", setup: func(*MockSender) {}},
		{name: "link closed", setup: func(m *MockSender) { m.AddError(transport.ErrClosed) }},
		{name: "eof", setup: func(m *MockSender) { m.AddError(io.EOF) }},
		{
			name:    "rejected",
			setup:   func(m *MockSender) { m.AddResponse(protocol.RespError, nil) },
			wantErr: true,
		},
		{
			name: "corrupt reply",
			setup: func(m *MockSender) {
				m.AddError(&protocol.DecodeError{Kind: protocol.ErrCRCMismatch})
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sender := NewMockSender()
			tt.setup(sender)
			logger := &MockLogger{}
			c := New(sender, WithLogger(logger))

			err := c.Reset(context.Background())
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, []byte{protocol.CmdReset}, sender.Codes())
		})
	}
}

func TestList(t *testing.T) {
	var data []byte
	data = protocol.AppendDirEntry(data, protocol.DirEntry{Name: "a.txt", Size: 10, Modified: 1})
	data = protocol.AppendDirEntry(data, protocol.DirEntry{Name: "sub", Kind: protocol.KindDirectory})
	partial := protocol.AppendDirEntry(nil, protocol.DirEntry{Name: "cut-off"})
	data = append(data, partial[:12]...)

	sender := NewMockSender()
	sender.AddResponse(protocol.RespOK, data)
	c := New(sender)

	entries, err := c.List(context.Background(), "/")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "a.txt", entries[0].Name)
	assert.True(t, entries[1].IsDir())
	assert.Equal(t, []byte("/"), sender.sent[0].payload)
}

func TestListNotFound(t *testing.T) {
	sender := NewMockSender()
	sender.AddResponse(protocol.RespFileNotFound, nil)
	c := New(sender)

	_, err := c.List(context.Background(), "/missing")
	require.Error(t, err)
	code, ok := protocol.ResponseCodeOf(err)
	assert.True(t, ok)
	assert.Equal(t, byte(protocol.RespFileNotFound), code)
	assert.Contains(t, err.Error(), "list failed: FILE_NOT_FOUND")
}

func TestStatAndExists(t *testing.T) {
	meta := protocol.FileMeta{Kind: protocol.KindFile, Size: 99, Created: 5, Modified: 6}

	sender := NewMockSender()
	sender.AddResponse(protocol.RespOK, protocol.EncodeStatResponse(meta))
	sender.AddResponse(protocol.RespOK, []byte{0x00, 0x01, 0x02}) // short stat
	sender.AddResponse(protocol.RespOK, []byte{1, 1})
	sender.AddResponse(protocol.RespOK, []byte{1}) // short exists
	c := New(sender)
	ctx := context.Background()

	got, err := c.Stat(ctx, "/f")
	require.NoError(t, err)
	assert.Equal(t, &meta, got)

	_, err = c.Stat(ctx, "/f")
	var short *protocol.ShortResponseError
	assert.ErrorAs(t, err, &short)

	info, err := c.Exists(ctx, "/d")
	require.NoError(t, err)
	assert.True(t, info.Exists)
	assert.Equal(t, protocol.KindDirectory, info.Kind)

	_, err = c.Exists(ctx, "/d")
	assert.ErrorAs(t, err, &short)

	assert.Equal(t, []byte{
		protocol.CmdFileInfo, protocol.CmdFileInfo, protocol.CmdFileExist, protocol.CmdFileExist,
	}, sender.Codes())
}

func TestManagementCommands(t *testing.T) {
	tests := []struct {
		name string
		code byte
		call func(*Client) error
	}{
		{"delete", protocol.CmdFileDelete, func(c *Client) error { return c.Delete(context.Background(), "/x") }},
		{"mkdir", protocol.CmdDirCreate, func(c *Client) error { return c.Mkdir(context.Background(), "/x") }},
		{"rmdir", protocol.CmdDirDelete, func(c *Client) error { return c.RemoveAll(context.Background(), "/x") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sender := NewMockSender()
			sender.AddResponse(protocol.RespOK, nil)
			sender.AddResponse(protocol.RespError, nil)
			c := New(sender)

			require.NoError(t, tt.call(c))
			err := tt.call(c)
			require.Error(t, err)
			assert.True(t, protocol.IsProtocolError(err))

			require.Len(t, sender.sent, 2)
			assert.Equal(t, tt.code, sender.sent[0].code)
			assert.Equal(t, []byte("/x"), sender.sent[0].payload)
		})
	}
}

func TestTransportErrorsPropagate(t *testing.T) {
	sender := NewMockSender()
	c := New(sender)

	err := c.Mkdir(context.Background(), "/x")
	assert.ErrorIs(t, err, transport.ErrTimeout)
	assert.False(t, protocol.IsProtocolError(err))
}

func TestInvalidPathNotSent(t *testing.T) {
	sender := NewMockSender()
	c := New(sender)
	ctx := context.Background()

	_, err := c.List(ctx, "")
	assert.ErrorIs(t, err, protocol.ErrInvalidPath)
	_, err = c.Stat(ctx, string(make([]byte, protocol.MaxPathLength+1)))
	assert.ErrorIs(t, err, protocol.ErrInvalidPath)
	assert.ErrorIs(t, c.Delete(ctx, "\xff"), protocol.ErrInvalidPath)

	assert.Empty(t, sender.Codes())
}

func TestExchangeWrapsOperation(t *testing.T) {
	sender := NewMockSender()
	sender.AddError(errors.New("boom"))
	c := New(sender)

	_, err := c.Exists(context.Background(), "/x")
	require.Error(t, err)
	assert.Equal(t, "exists: boom", err.Error())
}
