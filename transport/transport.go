package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/moffa90/go-uartfs/metrics"
	"github.com/moffa90/go-uartfs/protocol"
)

var (
	// ErrTimeout is returned when no complete reply arrives in time.
	ErrTimeout = errors.New("timeout waiting for response")

	// ErrClosed is returned after Close or when the underlying stream fails.
	ErrClosed = errors.New("transport closed")
)

const readBufferSize = 512

// inputResetter is implemented by serial ports that can discard the OS receive buffer.
type inputResetter interface {
	ResetInputBuffer() error
}

// Transport sends frames over a byte stream and waits for their replies.
//
// Transport is safe for concurrent use; requests are serialized.
type Transport struct {
	port   io.ReadWriteCloser
	config Config

	// mu gates the link: one request in flight
	mu      sync.Mutex
	limiter *rate.Limiter

	rx         chan []byte
	readerDone chan struct{}
	readErr    error

	closed    chan struct{}
	closeOnce sync.Once
	closeErr  error
}

// New creates a Transport that takes ownership of port and starts reading from it.
// The port is closed by Close.
func New(port io.ReadWriteCloser, opts ...Option) *Transport {
	if port == nil {
		panic("port cannot be nil")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	t := &Transport{
		port:       port,
		config:     cfg,
		rx:         make(chan []byte, 64),
		readerDone: make(chan struct{}),
		closed:     make(chan struct{}),
	}
	if cfg.MinInterval > 0 {
		t.limiter = rate.NewLimiter(rate.Every(cfg.MinInterval), 1)
	}

	go t.readLoop()
	return t
}

// SendCommand sends code with payload and returns the decoded reply.
//
// Bytes already received before the send are discarded. The reply code is not
// interpreted; a non-OK reply is returned without error. Decode failures are
// returned as *protocol.DecodeError, matching protocol.ErrCRCMismatch or
// protocol.ErrFraming. If no reply completes within the timeout, the error
// matches ErrTimeout.
func (t *Transport) SendCommand(ctx context.Context, code byte, payload []byte) (*protocol.Response, error) {
	frame, err := protocol.Encode(code, payload)
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	select {
	case <-t.closed:
		return nil, ErrClosed
	default:
	}

	if t.limiter != nil {
		if err := t.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	if n := t.discardStale(); n > 0 {
		t.logDebug("discarded stale bytes", "count", n)
		t.config.Metrics.AddStaleBytes(n)
	}

	start := time.Now()
	t.logDebug("sending command", "cmd", fmt.Sprintf("0x%02X", code), "len", len(payload))

	if _, err := t.port.Write(frame); err != nil {
		t.config.Metrics.ObserveRequest(code, metrics.ResultFailed, time.Since(start))
		return nil, fmt.Errorf("write frame: %w", err)
	}

	resp, err := t.receive(ctx)
	elapsed := time.Since(start)
	t.observe(code, resp, err, elapsed)
	if err != nil {
		if errors.Is(err, ErrTimeout) {
			return nil, fmt.Errorf("%w after %s (cmd %s)", ErrTimeout, t.config.Timeout, protocol.CommandName(code))
		}
		return nil, err
	}

	t.logDebug("received response",
		"cmd", fmt.Sprintf("0x%02X", code),
		"resp", protocol.ResponseName(resp.Code),
		"len", len(resp.Data),
		"elapsed", elapsed)
	return resp, nil
}

// receive feeds incoming bytes to a fresh decoder until one frame completes or fails.
func (t *Transport) receive(ctx context.Context) (*protocol.Response, error) {
	var dec protocol.Decoder

	timer := time.NewTimer(t.config.Timeout)
	defer timer.Stop()

	for {
		select {
		case chunk := <-t.rx:
			n, state := dec.FeedBytes(chunk)
			switch state {
			case protocol.StateComplete:
				if rest := len(chunk) - n; rest > 0 {
					t.config.Metrics.AddStaleBytes(rest)
				}
				code, data := dec.Frame()
				return &protocol.Response{Code: code, Data: data}, nil
			case protocol.StateFailed:
				return nil, dec.Err()
			}

		case <-t.readerDone:
			if len(t.rx) > 0 {
				continue
			}
			return nil, fmt.Errorf("%w: %v", ErrClosed, t.readErr)

		case <-t.closed:
			return nil, ErrClosed

		case <-timer.C:
			return nil, ErrTimeout

		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// discardStale drops everything received since the last exchange.
// The OS buffer is reset before rx is drained so that bytes the reader
// delivered in the meantime are dropped too.
func (t *Transport) discardStale() int {
	if r, ok := t.port.(inputResetter); ok {
		_ = r.ResetInputBuffer()
	}

	n := 0
	for {
		select {
		case chunk := <-t.rx:
			n += len(chunk)
			continue
		default:
		}
		break
	}
	return n
}

func (t *Transport) readLoop() {
	defer close(t.readerDone)

	buf := make([]byte, readBufferSize)
	for {
		n, err := t.port.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			select {
			case t.rx <- chunk:
			case <-t.closed:
				return
			}
		}
		if err != nil {
			t.readErr = err
			return
		}
		select {
		case <-t.closed:
			t.readErr = ErrClosed
			return
		default:
		}
	}
}

func (t *Transport) observe(code byte, resp *protocol.Response, err error, elapsed time.Duration) {
	m := t.config.Metrics
	switch {
	case err == nil && resp.OK():
		m.ObserveRequest(code, metrics.ResultOK, elapsed)
	case err == nil:
		m.ObserveRequest(code, metrics.ResultRejected, elapsed)
	case errors.Is(err, ErrTimeout):
		m.ObserveRequest(code, metrics.ResultTimeout, elapsed)
	default:
		m.ObserveRequest(code, metrics.ResultFailed, elapsed)
		if errors.Is(err, protocol.ErrCRCMismatch) {
			m.FrameError("crc")
		} else if errors.Is(err, protocol.ErrFraming) {
			m.FrameError("framing")
		}
		t.logError("receive failed", "cmd", fmt.Sprintf("0x%02X", code), "error", err)
	}
}

// Close closes the underlying stream. It is safe to call more than once.
func (t *Transport) Close() error {
	t.closeOnce.Do(func() {
		close(t.closed)
		t.closeErr = t.port.Close()
	})
	return t.closeErr
}

func (t *Transport) logDebug(msg string, keysAndValues ...interface{}) {
	if t.config.Logger != nil {
		t.config.Logger.Debug(msg, keysAndValues...)
	}
}

func (t *Transport) logError(msg string, keysAndValues ...interface{}) {
	if t.config.Logger != nil {
		t.config.Logger.Error(msg, keysAndValues...)
	}
}
