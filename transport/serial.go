package transport

import (
	"fmt"
	"time"

	"go.bug.st/serial"
)

// serialReadTimeout bounds each blocking read so the reader notices Close.
const serialReadTimeout = 100 * time.Millisecond

// SerialPort is an open serial device. It satisfies io.ReadWriteCloser and
// discards its OS receive buffer on ResetInputBuffer.
type SerialPort struct {
	serial.Port
	name string
}

// Name returns the device path the port was opened with.
func (p *SerialPort) Name() string {
	return p.name
}

// OpenSerial opens name at baud with 8 data bits, no parity and one stop bit.
func OpenSerial(name string, baud int) (*SerialPort, error) {
	if name == "" {
		return nil, fmt.Errorf("serial port name cannot be empty")
	}

	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(name, mode)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	if err := port.SetReadTimeout(serialReadTimeout); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("set read timeout on %s: %w", name, err)
	}
	return &SerialPort{Port: port, name: name}, nil
}

// Dial opens the serial port and wraps it in a Transport.
func Dial(name string, baud int, opts ...Option) (*Transport, error) {
	port, err := OpenSerial(name, baud)
	if err != nil {
		return nil, err
	}
	return New(port, opts...), nil
}
