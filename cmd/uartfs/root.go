package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/moffa90/go-uartfs/client"
	"github.com/moffa90/go-uartfs/config"
	"github.com/moffa90/go-uartfs/logging"
	"github.com/moffa90/go-uartfs/metrics"
	"github.com/moffa90/go-uartfs/transport"
)

var (
	// Global flags
	cfgFile string

	// Shared state set during PersistentPreRun
	v             = viper.New()
	cfg           *config.Config
	logger        *zap.Logger
	registry      *prometheus.Registry
	protoMetrics  *metrics.Protocol
	metricsServer *http.Server
	out           *printer
)

// dial opens the link to the device. Tests replace it with an emulator.
var dial = func(c *config.Config, opts ...transport.Option) (*transport.Transport, error) {
	return transport.Dial(c.Serial.Port, c.Serial.Baud, opts...)
}

var rootCmd = &cobra.Command{
	Use:   "uartfs",
	Short: "Browse and transfer files on a device over a serial link",
	Long: `uartfs speaks the uartfs frame protocol to a device's storage over UART.
It queries device status, lists and inspects directories, uploads and downloads
files in 1 KiB chunks, and can emulate a device for testing.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(v, cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		logger, err = logging.New(cfg.Logging)
		if err != nil {
			return fmt.Errorf("failed to init logger: %w", err)
		}
		if f := config.ConfigFile(v); f != "" {
			logger.Debug("config loaded", zap.String("file", f))
		}

		registry = metrics.NewRegistry()
		protoMetrics = metrics.NewProtocol(registry)
		if cfg.Metrics.Addr != "" {
			startMetricsServer(cfg.Metrics)
		}

		out = newPrinter(cfg.Output, cmd.OutOrStdout())
		return nil
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.uartfs.yaml or ./uartfs.yaml)")
	pf.StringP("output", "o", "table", "output format: table, json, yaml")
	pf.StringP("port", "p", "", "serial port of the device")
	pf.IntP("baud", "b", 115200, "baud rate")
	pf.Duration("timeout", 5*time.Second, "reply timeout per command")
	pf.Duration("min-interval", 0, "minimum delay between commands")
	pf.String("log-level", "info", "log level: debug, info, warn, error")
	pf.String("metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9100)")

	for key, flag := range map[string]string{
		"output":             "output",
		"serial.port":        "port",
		"serial.baud":        "baud",
		"serial.timeout":     "timeout",
		"serial.minInterval": "min-interval",
		"logging.level":      "log-level",
		"metrics.addr":       "metrics-addr",
	} {
		_ = v.BindPFlag(key, pf.Lookup(flag))
	}

	rootCmd.AddCommand(
		statusCmd, lsCmd, statCmd, existsCmd,
		uploadCmd, downloadCmd,
		rmCmd, mkdirCmd, rmdirCmd, resetCmd,
		serveCmd, versionCmd,
	)
}

func startMetricsServer(mc config.MetricsConfig) {
	mux := http.NewServeMux()
	mux.Handle(mc.Path, metrics.Handler(registry))
	metricsServer = &http.Server{Addr: mc.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		logger.Info("metrics listening", zap.String("addr", mc.Addr), zap.String("path", mc.Path))
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", zap.Error(err))
		}
	}()
}

func shutdown() {
	if metricsServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		_ = metricsServer.Shutdown(ctx)
		cancel()
		metricsServer = nil
	}
	if logger != nil {
		_ = logger.Sync()
	}
}

// withClient connects to the device, runs fn and disconnects.
// The port is closed on every return path.
func withClient(cmd *cobra.Command, fn func(ctx context.Context, c *client.Client) error) error {
	if cfg.Serial.Port == "" {
		return errors.New("no serial port: use --port or set serial.port")
	}

	l := logging.NewZap(logger)
	tr, err := dial(cfg,
		transport.WithTimeout(cfg.Serial.Timeout),
		transport.WithMinInterval(cfg.Serial.MinInterval),
		transport.WithLogger(l),
		transport.WithMetrics(protoMetrics),
	)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer tr.Close()

	logger.Debug("connected", zap.String("port", cfg.Serial.Port), zap.Int("baud", cfg.Serial.Baud))

	c := client.New(tr,
		client.WithLogger(l),
		client.WithMetrics(protoMetrics),
		client.WithChunkSize(cfg.Transfer.ChunkSize),
		client.WithReadChunkSize(cfg.Transfer.ReadChunkSize),
	)
	return fn(cmd.Context(), c)
}
