package transport

import (
	"time"

	"github.com/moffa90/go-uartfs/logging"
	"github.com/moffa90/go-uartfs/metrics"
)

// DefaultTimeout is how long SendCommand waits for a reply.
const DefaultTimeout = 5 * time.Second

// Config holds the transport configuration.
type Config struct {
	// Timeout bounds the wait for one reply frame
	Timeout time.Duration

	// MinInterval is the minimum time between two commands (0 = no pacing)
	MinInterval time.Duration

	// Logger is used for frame-level logging (optional)
	Logger logging.Logger

	// Metrics records requests and frame errors (optional)
	Metrics *metrics.Protocol
}

func defaultConfig() Config {
	return Config{
		Timeout: DefaultTimeout,
	}
}

// Option is a functional option for configuring the Transport.
type Option func(*Config)

// WithTimeout sets the reply timeout. Non-positive values are ignored.
//
// Example:
//
//	tr := transport.New(port, transport.WithTimeout(2*time.Second))
func WithTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		if timeout > 0 {
			c.Timeout = timeout
		}
	}
}

// WithMinInterval paces commands so that two sends are at least d apart.
// Slow firmware that polls its UART can drop frames sent back to back.
func WithMinInterval(d time.Duration) Option {
	return func(c *Config) {
		if d >= 0 {
			c.MinInterval = d
		}
	}
}

// WithLogger sets a logger for frame-level events.
func WithLogger(logger logging.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithMetrics records request counts, latencies and frame errors in m.
func WithMetrics(m *metrics.Protocol) Option {
	return func(c *Config) {
		c.Metrics = m
	}
}
