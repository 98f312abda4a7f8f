package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/moffa90/go-uartfs/protocol"
)

// Transfer directions, also used as metrics labels.
const (
	DirectionUpload   = "upload"
	DirectionDownload = "download"
)

// TransferResult summarizes a completed transfer.
type TransferResult struct {
	// ID identifies the transfer in logs
	ID string

	Direction string
	Path      string

	// Bytes is the number of file bytes moved
	Bytes int64

	// Chunks is the number of data exchanges
	Chunks int

	Elapsed time.Duration
}

// session is one open → data* → close sequence on the device's file slot.
type session struct {
	c      *Client
	id     string
	dir    string
	path   string
	cfg    transferConfig
	start  time.Time
	bytes  int64
	chunks int
}

func (c *Client) newSession(dir, path string, opts []TransferOption) *session {
	cfg := transferConfig{mode: protocol.ModeWrite}
	for _, opt := range opts {
		opt(&cfg)
	}
	// WithAppend has no meaning for reads
	if dir == DirectionDownload {
		cfg.mode = protocol.ModeRead
	}

	return &session{
		c:     c,
		id:    uuid.NewString(),
		dir:   dir,
		path:  path,
		cfg:   cfg,
		start: time.Now(),
	}
}

func (s *session) fail(stage string, err error) error {
	return &TransferError{Direction: s.dir, Path: s.path, Stage: stage, Bytes: s.bytes, Err: err}
}

func (s *session) progress(total int64) {
	if s.cfg.observer != nil {
		s.cfg.observer.OnProgress(s.bytes, total)
	}
}

func (s *session) open(ctx context.Context) error {
	payload, err := protocol.BuildOpenPayload(s.cfg.mode, s.path)
	if err != nil {
		return err
	}
	s.c.logDebug("opening remote file", "session", s.id, "path", s.path, "mode", s.cfg.mode)
	_, err = s.c.exchange(ctx, "open", protocol.CmdFileOpen, payload)
	return err
}

// finish sends close and combines its outcome with the transfer's.
// After a failed transfer, a close failure is logged and the original error returned.
func (s *session) finish(ctx context.Context, err error) (*TransferResult, error) {
	// close is sent even if ctx was cancelled mid-transfer
	closeCtx := ctx
	if ctx.Err() != nil {
		closeCtx = context.WithoutCancel(ctx)
	}
	_, closeErr := s.c.exchange(closeCtx, "close", protocol.CmdFileClose, nil)

	if err != nil {
		if closeErr != nil {
			s.c.logError("close after failed transfer", "session", s.id, "path", s.path, "error", closeErr)
		}
		s.c.logError("transfer failed", "session", s.id, "direction", s.dir, "path", s.path,
			"bytes", s.bytes, "error", err)
		return nil, err
	}
	if closeErr != nil {
		return nil, s.fail(StageClose, closeErr)
	}

	result := &TransferResult{
		ID:        s.id,
		Direction: s.dir,
		Path:      s.path,
		Bytes:     s.bytes,
		Chunks:    s.chunks,
		Elapsed:   time.Since(s.start),
	}
	s.c.logInfo("transfer complete",
		"session", s.id,
		"direction", s.dir,
		"path", s.path,
		"bytes", s.bytes,
		"chunks", s.chunks,
		"elapsed", result.Elapsed.String(),
	)
	return result, nil
}

// Upload writes src to the remote file at path in chunks of the configured size.
// size is reported as the progress total; pass UnknownTotal if it is not known.
//
// The remote file is truncated unless WithAppend is given. Once open has been
// sent, close is always sent, also when open or a data exchange failed.
//
// Example:
//
//	f, _ := os.Open("log.txt")
//	res, err := c.Upload(ctx, "/log.txt", f, fileSize)
func (c *Client) Upload(ctx context.Context, path string, src io.Reader, size int64, opts ...TransferOption) (*TransferResult, error) {
	if err := protocol.ValidatePath(path); err != nil {
		return nil, fmt.Errorf("upload: %w", err)
	}

	s := c.newSession(DirectionUpload, path, opts)
	if err := s.open(ctx); err != nil {
		return s.finish(ctx, s.fail(StageOpen, err))
	}

	buf := make([]byte, c.config.ChunkSize)
	for {
		if err := ctx.Err(); err != nil {
			return s.finish(ctx, s.fail(StageData, err))
		}

		n, rerr := io.ReadFull(src, buf)
		if n > 0 {
			payload, err := protocol.BuildWritePayload(buf[:n])
			if err != nil {
				return s.finish(ctx, s.fail(StageData, err))
			}
			if _, err := c.exchange(ctx, "write", protocol.CmdFileData, payload); err != nil {
				return s.finish(ctx, s.fail(StageData, err))
			}
			s.bytes += int64(n)
			s.chunks++
			c.config.Metrics.AddTransferBytes(DirectionUpload, n)
			s.progress(size)
		}

		if errors.Is(rerr, io.EOF) || errors.Is(rerr, io.ErrUnexpectedEOF) {
			break
		}
		if rerr != nil {
			return s.finish(ctx, s.fail(StageLocal, rerr))
		}
	}

	return s.finish(ctx, nil)
}

// Download reads the remote file at path into dst.
//
// Chunks of the configured read size are requested until the device sets the
// EOF flag. Progress totals are UnknownTotal. Once open has been sent, close is
// always sent.
func (c *Client) Download(ctx context.Context, path string, dst io.Writer, opts ...TransferOption) (*TransferResult, error) {
	return c.download(ctx, path, func() (io.Writer, error) { return dst, nil }, opts)
}

// download runs a download session. openDst is called once the remote open
// has succeeded, so nothing local is touched when the remote file is missing.
func (c *Client) download(ctx context.Context, path string, openDst func() (io.Writer, error), opts []TransferOption) (*TransferResult, error) {
	if err := protocol.ValidatePath(path); err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}

	s := c.newSession(DirectionDownload, path, opts)
	if err := s.open(ctx); err != nil {
		return s.finish(ctx, s.fail(StageOpen, err))
	}

	dst, err := openDst()
	if err != nil {
		return s.finish(ctx, s.fail(StageLocal, err))
	}

	request := protocol.BuildReadPayload(uint16(c.config.ReadChunkSize))
	for {
		if err := ctx.Err(); err != nil {
			return s.finish(ctx, s.fail(StageData, err))
		}

		data, err := c.exchange(ctx, "read", protocol.CmdFileData, request)
		if err != nil {
			return s.finish(ctx, s.fail(StageData, err))
		}
		chunk, err := protocol.ParseReadChunkResponse(data)
		if err != nil {
			return s.finish(ctx, s.fail(StageData, err))
		}
		s.chunks++

		if len(chunk.Data) > 0 {
			if _, err := dst.Write(chunk.Data); err != nil {
				return s.finish(ctx, s.fail(StageLocal, err))
			}
			s.bytes += int64(len(chunk.Data))
			c.config.Metrics.AddTransferBytes(DirectionDownload, len(chunk.Data))
		}
		s.progress(UnknownTotal)

		if chunk.EOF {
			break
		}
		if len(chunk.Data) == 0 {
			return s.finish(ctx, s.fail(StageData, fmt.Errorf("device returned an empty chunk without EOF")))
		}
	}

	return s.finish(ctx, nil)
}

// UploadFile uploads the local file at localPath to remotePath.
func (c *Client) UploadFile(ctx context.Context, localPath, remotePath string, opts ...TransferOption) (*TransferResult, error) {
	f, err := c.config.Fs.Open(localPath)
	if err != nil {
		return nil, fmt.Errorf("upload: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("upload: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("upload: %s is a directory", localPath)
	}

	return c.Upload(ctx, remotePath, f, info.Size(), opts...)
}

// DownloadFile downloads remotePath into the local file at localPath.
// The local file is created or truncated only after the device has opened
// remotePath. On failure the local file is removed if this call created it.
func (c *Client) DownloadFile(ctx context.Context, remotePath, localPath string, opts ...TransferOption) (*TransferResult, error) {
	var (
		f       afero.File
		created bool
	)
	openLocal := func() (io.Writer, error) {
		_, err := c.config.Fs.Stat(localPath)
		created = errors.Is(err, os.ErrNotExist)

		f, err = c.config.Fs.OpenFile(localPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
		if err != nil {
			created = false
			return nil, err
		}
		return f, nil
	}

	res, err := c.download(ctx, remotePath, openLocal, opts)
	if f != nil {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = &TransferError{Direction: DirectionDownload, Path: remotePath, Stage: StageLocal, Bytes: res.Bytes, Err: cerr}
		}
	}
	if err != nil {
		if created {
			if rerr := c.config.Fs.Remove(localPath); rerr != nil {
				c.logError("remove partial download", "path", localPath, "error", rerr)
			}
		}
		return nil, err
	}
	return res, nil
}
