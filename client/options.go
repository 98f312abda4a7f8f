package client

import (
	"github.com/spf13/afero"

	"github.com/moffa90/go-uartfs/logging"
	"github.com/moffa90/go-uartfs/metrics"
	"github.com/moffa90/go-uartfs/protocol"
)

// Config holds the client configuration.
type Config struct {
	// Logger is used for logging operations (optional)
	Logger logging.Logger

	// Metrics records transferred bytes and device gauges (optional)
	Metrics *metrics.Protocol

	// ChunkSize is the number of file bytes per upload data command
	ChunkSize int

	// ReadChunkSize is the number of bytes requested per download data command
	ReadChunkSize int

	// Fs is the local file system used by UploadFile and DownloadFile
	Fs afero.Fs
}

func defaultConfig() Config {
	return Config{
		ChunkSize:     protocol.DefaultChunkSize,
		ReadChunkSize: protocol.DefaultChunkSize,
		Fs:            afero.NewOsFs(),
	}
}

// Option is a functional option for configuring the Client.
type Option func(*Config)

// WithLogger sets a logger for client operations.
//
// Example:
//
//	c := client.New(tr, client.WithLogger(logging.NewZap(zapLogger)))
func WithLogger(logger logging.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithMetrics records transfer bytes and ping results in m.
func WithMetrics(m *metrics.Protocol) Option {
	return func(c *Config) {
		c.Metrics = m
	}
}

// WithChunkSize sets the upload chunk size.
// Values outside 1..protocol.MaxChunkSize are ignored.
func WithChunkSize(size int) Option {
	return func(c *Config) {
		if size > 0 && size <= protocol.MaxChunkSize {
			c.ChunkSize = size
		}
	}
}

// WithReadChunkSize sets the download chunk size.
// Values outside 1..protocol.MaxChunkSize are ignored.
func WithReadChunkSize(size int) Option {
	return func(c *Config) {
		if size > 0 && size <= protocol.MaxChunkSize {
			c.ReadChunkSize = size
		}
	}
}

// WithFs sets the local file system used by UploadFile and DownloadFile.
func WithFs(fs afero.Fs) Option {
	return func(c *Config) {
		if fs != nil {
			c.Fs = fs
		}
	}
}

type transferConfig struct {
	mode     byte
	observer ProgressObserver
}

// TransferOption configures a single upload or download.
type TransferOption func(*transferConfig)

// WithAppend makes Upload append to the remote file instead of truncating it.
func WithAppend() TransferOption {
	return func(t *transferConfig) {
		t.mode = protocol.ModeAppend
	}
}

// WithObserver reports progress of the transfer to obs.
func WithObserver(obs ProgressObserver) TransferOption {
	return func(t *transferConfig) {
		t.observer = obs
	}
}
