// Package transport carries frames between the host and the device over a
// reliable byte stream such as a serial port.
//
// A Transport owns the stream. SendCommand writes one encoded frame and blocks
// until exactly one reply frame is decoded, the timeout expires, or the context
// is cancelled. Calls from concurrent goroutines queue on a single mutex, so at
// most one request is ever outstanding on the link.
//
// Example:
//
//	port, err := transport.OpenSerial("/dev/ttyUSB0", 115200)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	tr := transport.New(port, transport.WithTimeout(2*time.Second))
//	defer tr.Close()
//
//	resp, err := tr.SendCommand(ctx, protocol.CmdPing, nil)
package transport
