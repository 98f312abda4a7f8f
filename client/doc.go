// Package client provides typed operations on a device's file system over the
// uartfs frame protocol.
//
// # Overview
//
// A Client wraps a Sender (normally a *transport.Transport) and offers:
//   - Status and control: Ping, Reset
//   - Queries: List, Stat, Exists
//   - Management: Delete, Mkdir, RemoveAll
//   - Transfers: Upload, Download, UploadFile, DownloadFile
//
// # Basic Usage
//
//	tr, err := transport.Dial("/dev/ttyUSB0", 115200)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer tr.Close()
//
//	c := client.New(tr)
//	status, err := c.Ping(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("free heap: %d bytes\n", status.HeapFree)
//
// # Errors
//
// Transport failures (timeout, CRC mismatch, framing) and device rejections are
// reported separately. A rejection is a *protocol.ProtocolError carrying the
// response code; use protocol.ResponseCodeOf to inspect it:
//
//	if code, ok := protocol.ResponseCodeOf(err); ok && code == protocol.RespFileNotFound {
//	    // ...
//	}
//
// No operation is retried internally.
//
// # Transfers
//
// The device has a single file slot. Every transfer that sends an open command
// also sends close, whether or not the transfer succeeded. Progress is reported
// through a ProgressObserver:
//
//	_, err := c.UploadFile(ctx, "fw.bin", "/fw.bin",
//	    client.WithObserver(client.ProgressFunc(func(sent, total int64) {
//	        fmt.Printf("\r%d/%d", sent, total)
//	    })),
//	)
//
// # Thread Safety
//
// A Client holds no per-call state and is safe for concurrent use when its Sender
// is. Concurrent transfers on one link are not: the device has one file slot.
package client
