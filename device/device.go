// Package device emulates the firmware side of the uartfs protocol on top of an
// afero file system. It backs the client tests and the "uartfs serve" command.
package device

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"sync"
	"time"

	"github.com/spf13/afero"

	"github.com/moffa90/go-uartfs/protocol"
)

// Device is an emulated device. Handle and Serve may be used from one goroutine
// at a time per link; the file slot is shared.
type Device struct {
	fs     afero.Fs
	config Config
	booted time.Time

	mu   sync.Mutex
	file afero.File
	mode byte
	name string
}

// New creates a Device serving fs. Paths received from the host are rooted at fs's root.
//
// Example:
//
//	dev := device.New(afero.NewBasePathFs(afero.NewOsFs(), "/srv/sd"))
//	err := dev.Serve(ctx, port)
func New(fs afero.Fs, opts ...Option) *Device {
	if fs == nil {
		panic("fs cannot be nil")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Device{
		fs:     fs,
		config: cfg,
		booted: time.Now(),
	}
}

// reply is a response code with its data; a nil *reply means no response is sent.
type reply struct {
	code byte
	data []byte
}

func success(data []byte) *reply { return &reply{code: protocol.RespOK, data: data} }
func failure(code byte) *reply  { return &reply{code: code} }

// Handle executes one command and returns the response frame, or nil when the
// device sends nothing back.
func (d *Device) Handle(code byte, payload []byte) []byte {
	r := d.dispatch(code, payload)
	if r == nil {
		return nil
	}
	d.logDebug("handled command",
		"cmd", protocol.CommandName(code),
		"resp", protocol.ResponseName(r.code),
		"len", len(r.data))

	frame, err := protocol.Encode(r.code, r.data)
	if err != nil {
		d.logError("encode response", "cmd", protocol.CommandName(code), "error", err)
		frame, _ = protocol.Encode(protocol.RespError, nil)
	}
	return frame
}

func (d *Device) dispatch(code byte, payload []byte) *reply {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch code {
	case protocol.CmdPing:
		return d.handlePing()
	case protocol.CmdReset:
		return d.handleReset()
	case protocol.CmdFileList:
		return d.handleList(payload)
	case protocol.CmdFileInfo:
		return d.handleInfo(payload)
	case protocol.CmdFileExist:
		return d.handleExist(payload)
	case protocol.CmdFileOpen:
		return d.handleOpen(payload)
	case protocol.CmdFileData:
		return d.handleData(payload)
	case protocol.CmdFileClose:
		return d.handleClose()
	case protocol.CmdFileDelete:
		return d.handleDelete(payload)
	case protocol.CmdDirCreate:
		return d.handleMkdir(payload)
	case protocol.CmdDirDelete:
		return d.handleRmdir(payload)
	default:
		d.logInfo("unknown command", "cmd", fmt.Sprintf("0x%02X", code))
		return failure(protocol.RespInvalidParam)
	}
}

func (d *Device) handlePing() *reply {
	used := d.usage()
	free := uint64(0)
	if used < d.config.Capacity {
		free = d.config.Capacity - used
	}

	data := protocol.EncodeStatusResponse(protocol.StatusInfo{
		HeapFree:       d.config.HeapFree,
		StorageMounted: true,
		StorageTotal:   d.config.Capacity,
		StorageFree:    free,
		UptimeSeconds:  uint32(time.Since(d.booted) / time.Second),
	})
	return success(data[:d.config.StatusSize])
}

func (d *Device) handleReset() *reply {
	d.closeFile()
	d.booted = time.Now()
	if d.config.OnReset != nil {
		d.config.OnReset()
	}
	if d.config.SilentReset {
		return nil
	}
	return success(nil)
}

func (d *Device) handleList(payload []byte) *reply {
	dir := "/"
	if len(payload) > 0 {
		p, valid := devicePath(payload)
		if !valid {
			return failure(protocol.RespInvalidParam)
		}
		dir = p
	}

	infos, err := afero.ReadDir(d.fs, dir)
	if err != nil {
		return failure(protocol.RespFileNotFound)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name() < infos[j].Name() })

	var buf []byte
	for _, fi := range infos {
		name := fi.Name()
		if len(name) > protocol.MaxNameLength || len(dir)+len(name)+1 > protocol.MaxPathLength {
			continue
		}
		if len(buf)+protocol.ListRecordHeaderSize+len(name) > protocol.MaxRequestPayload {
			d.logInfo("listing truncated", "path", dir, "bytes", len(buf))
			break
		}
		buf = protocol.AppendDirEntry(buf, entryOf(fi))
	}
	return success(buf)
}

func (d *Device) handleInfo(payload []byte) *reply {
	p, valid := devicePath(payload)
	if !valid {
		return failure(protocol.RespInvalidParam)
	}

	fi, err := d.fs.Stat(p)
	if err != nil {
		return failure(protocol.RespFileNotFound)
	}

	e := entryOf(fi)
	return success(protocol.EncodeStatResponse(protocol.FileMeta{
		Kind:     e.Kind,
		Size:     e.Size,
		Created:  e.Modified,
		Modified: e.Modified,
	}))
}

func (d *Device) handleExist(payload []byte) *reply {
	if len(payload) == 0 {
		return failure(protocol.RespInvalidParam)
	}

	var info protocol.ExistsInfo
	if p, valid := devicePath(payload); valid {
		if fi, err := d.fs.Stat(p); err == nil {
			info.Exists = true
			info.Kind = entryOf(fi).Kind
		}
	}
	return success(protocol.EncodeExistsResponse(info))
}

func (d *Device) handleOpen(payload []byte) *reply {
	if len(payload) < 2 {
		return failure(protocol.RespInvalidParam)
	}

	// opening always drops the previous file
	d.closeFile()

	mode := payload[0]
	p, valid := devicePath(payload[1:])
	if !valid || mode > protocol.ModeAppend {
		return failure(protocol.RespFileNotFound)
	}

	var (
		f   afero.File
		err error
	)
	switch mode {
	case protocol.ModeRead:
		f, err = d.fs.Open(p)
		if err == nil {
			if fi, serr := f.Stat(); serr != nil || fi.IsDir() {
				_ = f.Close()
				err = errors.New("not a regular file")
			}
		}
	default:
		if err = d.fs.MkdirAll(path.Dir(p), 0o755); err != nil {
			break
		}
		flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
		if mode == protocol.ModeAppend {
			flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
		}
		f, err = d.fs.OpenFile(p, flags, 0o644)
	}
	if err != nil {
		d.logInfo("open failed", "path", p, "mode", mode, "error", err)
		return failure(protocol.RespFileNotFound)
	}

	d.file, d.mode, d.name = f, mode, p
	return success(nil)
}

func (d *Device) handleData(payload []byte) *reply {
	if len(payload) < 1 {
		return failure(protocol.RespInvalidParam)
	}

	switch payload[0] {
	case protocol.DirectionRead:
		size := protocol.MaxChunkSize
		if len(payload) >= 3 {
			size = int(payload[1]) | int(payload[2])<<8
			if size > protocol.MaxChunkSize {
				size = protocol.MaxChunkSize
			}
		}
		if d.file == nil || d.mode != protocol.ModeRead {
			return failure(protocol.RespError)
		}

		buf := make([]byte, size)
		n, err := io.ReadFull(d.file, buf)
		eof := n < size
		if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
			return failure(protocol.RespError)
		}
		return success(protocol.EncodeReadChunkResponse(eof, buf[:n]))

	case protocol.DirectionWrite:
		chunk := payload[1:]
		if len(chunk) == 0 {
			return failure(protocol.RespInvalidParam)
		}
		if d.file == nil || d.mode == protocol.ModeRead {
			return failure(protocol.RespError)
		}
		if d.usage()+uint64(len(chunk)) > d.config.Capacity {
			return failure(protocol.RespDiskFull)
		}
		if _, err := d.file.Write(chunk); err != nil {
			return failure(protocol.RespError)
		}
		return success(nil)

	default:
		return failure(protocol.RespInvalidParam)
	}
}

func (d *Device) handleClose() *reply {
	if err := d.closeFile(); err != nil {
		return failure(protocol.RespError)
	}
	return success(nil)
}

func (d *Device) handleDelete(payload []byte) *reply {
	p, valid := devicePath(payload)
	if !valid {
		return failure(protocol.RespInvalidParam)
	}
	if p == "/" {
		return failure(protocol.RespError)
	}

	fi, err := d.fs.Stat(p)
	if err != nil {
		return failure(protocol.RespError)
	}
	if fi.IsDir() {
		// only empty directories
		if names, err := afero.ReadDir(d.fs, p); err != nil || len(names) > 0 {
			return failure(protocol.RespError)
		}
	}
	if err := d.fs.Remove(p); err != nil {
		return failure(protocol.RespError)
	}
	return success(nil)
}

func (d *Device) handleMkdir(payload []byte) *reply {
	p, valid := devicePath(payload)
	if !valid {
		return failure(protocol.RespInvalidParam)
	}

	if fi, err := d.fs.Stat(p); err == nil {
		if fi.IsDir() {
			return success(nil)
		}
		return failure(protocol.RespError)
	}
	if err := d.fs.Mkdir(p, 0o755); err != nil {
		return failure(protocol.RespError)
	}
	return success(nil)
}

func (d *Device) handleRmdir(payload []byte) *reply {
	p, valid := devicePath(payload)
	if !valid {
		return failure(protocol.RespInvalidParam)
	}
	if p == "/" {
		return failure(protocol.RespError)
	}

	fi, err := d.fs.Stat(p)
	if err != nil || !fi.IsDir() {
		return failure(protocol.RespError)
	}
	if err := d.fs.RemoveAll(p); err != nil {
		return failure(protocol.RespError)
	}
	return success(nil)
}

// Close releases the open file slot.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closeFile()
}

func (d *Device) closeFile() error {
	if d.file == nil {
		return nil
	}
	err := d.file.Close()
	d.logDebug("file closed", "path", d.name)
	d.file, d.mode, d.name = nil, 0, ""
	return err
}

// usage sums the sizes of all regular files.
func (d *Device) usage() uint64 {
	var used uint64
	_ = afero.Walk(d.fs, "/", func(_ string, fi os.FileInfo, err error) error {
		if err == nil && !fi.IsDir() {
			used += uint64(fi.Size())
		}
		return nil
	})
	return used
}

// devicePath converts a request path to a clean absolute path.
func devicePath(payload []byte) (string, bool) {
	p := string(payload)
	if protocol.ValidatePath(p) != nil {
		return "", false
	}
	return path.Clean("/" + p), true
}

func entryOf(fi os.FileInfo) protocol.DirEntry {
	e := protocol.DirEntry{
		Name:     fi.Name(),
		Kind:     protocol.KindFile,
		Size:     uint32(fi.Size()),
		Modified: uint32(fi.ModTime().Unix()),
	}
	if fi.IsDir() {
		e.Kind = protocol.KindDirectory
		e.Size = 0
	}
	return e
}

// Serve reads request frames from rw and writes the replies until ctx is done
// or rw fails. Corrupted frames are answered with ERROR; frames larger than the
// device's receive buffer are dropped without a reply. If rw is an io.Closer it
// is closed when ctx is done.
func (d *Device) Serve(ctx context.Context, rw io.ReadWriter) error {
	if c, ok := rw.(io.Closer); ok {
		stop := context.AfterFunc(ctx, func() { _ = c.Close() })
		defer stop()
	}

	var dec protocol.Decoder
	buf := make([]byte, 4096)
	for {
		n, err := rw.Read(buf)
		for _, b := range buf[:n] {
			var out []byte
			switch dec.Feed(b) {
			case protocol.StateComplete:
				code, payload := dec.Frame()
				if len(payload) > protocol.MaxRequestPayload {
					d.logInfo("dropping oversized frame", "cmd", protocol.CommandName(code), "len", len(payload))
					continue
				}
				out = d.Handle(code, payload)
			case protocol.StateFailed:
				d.logInfo("bad frame", "error", dec.Err())
				out, _ = protocol.Encode(protocol.RespError, nil)
			default:
				continue
			}
			if out == nil {
				continue
			}
			if _, werr := rw.Write(out); werr != nil {
				return d.serveErr(ctx, werr)
			}
		}
		if err != nil {
			return d.serveErr(ctx, err)
		}
	}
}

func (d *Device) serveErr(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) {
		return nil
	}
	return err
}

func (d *Device) logDebug(msg string, keysAndValues ...interface{}) {
	if d.config.Logger != nil {
		d.config.Logger.Debug(msg, keysAndValues...)
	}
}

func (d *Device) logInfo(msg string, keysAndValues ...interface{}) {
	if d.config.Logger != nil {
		d.config.Logger.Info(msg, keysAndValues...)
	}
}

func (d *Device) logError(msg string, keysAndValues ...interface{}) {
	if d.config.Logger != nil {
		d.config.Logger.Error(msg, keysAndValues...)
	}
}
