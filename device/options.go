package device

import (
	"github.com/moffa90/go-uartfs/logging"
	"github.com/moffa90/go-uartfs/protocol"
)

// Config holds the emulator configuration.
type Config struct {
	// Logger is used for logging handled commands (optional)
	Logger logging.Logger

	// HeapFree is reported by ping
	HeapFree uint32

	// Capacity is the storage size; writes beyond it fail with DISK_FULL
	Capacity uint64

	// StatusSize is the length of the ping reply (protocol.StatusMinSize..StatusFullSize)
	StatusSize int

	// SilentReset makes reset reboot without replying
	SilentReset bool

	// OnReset is called after a reset command (optional)
	OnReset func()
}

func defaultConfig() Config {
	return Config{
		HeapFree:   180 * 1024,
		Capacity:   1 << 30,
		StatusSize: protocol.StatusFullSize,
	}
}

// Option is a functional option for configuring the Device.
type Option func(*Config)

// WithLogger sets a logger for the emulator.
func WithLogger(logger logging.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithHeapFree sets the free heap reported by ping.
func WithHeapFree(n uint32) Option {
	return func(c *Config) {
		c.HeapFree = n
	}
}

// WithCapacity sets the emulated storage size in bytes.
func WithCapacity(n uint64) Option {
	return func(c *Config) {
		if n > 0 {
			c.Capacity = n
		}
	}
}

// WithStatusSize truncates ping replies to n bytes, as older firmware does.
func WithStatusSize(n int) Option {
	return func(c *Config) {
		if n >= protocol.StatusMinSize && n <= protocol.StatusFullSize {
			c.StatusSize = n
		}
	}
}

// WithSilentReset makes the device reboot on reset before it can reply.
func WithSilentReset() Option {
	return func(c *Config) {
		c.SilentReset = true
	}
}

// WithResetHook calls fn whenever a reset command is handled.
func WithResetHook(fn func()) Option {
	return func(c *Config) {
		c.OnReset = fn
	}
}
