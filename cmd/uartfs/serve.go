package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/moffa90/go-uartfs/device"
	"github.com/moffa90/go-uartfs/logging"
	"github.com/moffa90/go-uartfs/transport"
)

// openPort opens the serial port the emulator listens on. Tests replace it.
var openPort = func(name string, baud int) (io.ReadWriteCloser, error) {
	port, err := transport.OpenSerial(name, baud)
	if err != nil {
		return nil, err
	}
	return port, nil
}

var (
	serveRoot     string
	serveCapacity uint64
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Emulate a device on a serial port, backed by a local directory",
	Long: `Serve answers uartfs commands on the configured serial port as a device
would, storing files below --root. Use it with a null-modem cable or a virtual
serial pair to test hosts without hardware. Stop it with Ctrl+C.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Serial.Port == "" {
			return errors.New("no serial port: use --port or set serial.port")
		}
		info, err := os.Stat(serveRoot)
		if err != nil {
			return fmt.Errorf("root: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("root: %s is not a directory", serveRoot)
		}

		port, err := openPort(cfg.Serial.Port, cfg.Serial.Baud)
		if err != nil {
			return err
		}
		defer port.Close()

		dev := device.New(
			afero.NewBasePathFs(afero.NewOsFs(), serveRoot),
			device.WithLogger(logging.NewZap(logger)),
			device.WithCapacity(serveCapacity),
			device.WithResetHook(func() { logger.Info("reset requested") }),
		)
		defer dev.Close()

		logger.Info("emulator serving",
			zap.String("port", cfg.Serial.Port),
			zap.Int("baud", cfg.Serial.Baud),
			zap.String("root", serveRoot),
		)

		err = dev.Serve(cmd.Context(), port)
		if errors.Is(err, context.Canceled) {
			logger.Info("emulator stopped")
			return nil
		}
		return err
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveRoot, "root", ".", "directory exposed as the device's storage")
	serveCmd.Flags().Uint64Var(&serveCapacity, "capacity", 1<<30, "reported storage size in bytes; writes beyond it fail with DISK_FULL")
}
