package client

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/moffa90/go-uartfs/protocol"
	"github.com/moffa90/go-uartfs/transport"
)

// Sender sends one command and returns the decoded reply.
// *transport.Transport implements Sender.
type Sender interface {
	SendCommand(ctx context.Context, code byte, payload []byte) (*protocol.Response, error)
}

// Client performs file-system operations on the device.
type Client struct {
	sender Sender
	config Config
}

// New creates a Client that sends commands through sender.
//
// Example:
//
//	c := client.New(tr,
//	    client.WithLogger(logger),
//	    client.WithChunkSize(2048),
//	)
func New(sender Sender, opts ...Option) *Client {
	if sender == nil {
		panic("sender cannot be nil")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Client{
		sender: sender,
		config: cfg,
	}
}

// Ping queries the device status.
//
// Example:
//
//	status, err := c.Ping(ctx)
//	fmt.Printf("heap=%d mounted=%v uptime=%s\n",
//	    status.HeapFree, status.StorageMounted, status.Uptime())
func (c *Client) Ping(ctx context.Context) (*protocol.StatusInfo, error) {
	data, err := c.exchange(ctx, "ping", protocol.CmdPing, nil)
	if err != nil {
		return nil, err
	}

	info, err := protocol.ParseStatusResponse(data)
	if err != nil {
		return nil, err
	}
	c.config.Metrics.SetStatus(info)
	return info, nil
}

// Reset restarts the device.
//
// The device may reboot before it can reply, so a missing reply (timeout or a
// closed link) counts as success. A reply with a non-OK code is still an error.
func (c *Client) Reset(ctx context.Context) error {
	resp, err := c.sender.SendCommand(ctx, protocol.CmdReset, nil)
	if err != nil {
		if isSilence(err) {
			c.logInfo("no reply to reset, assuming device rebooted", "error", err)
			return nil
		}
		return fmt.Errorf("reset: %w", err)
	}
	if !resp.OK() {
		return &protocol.ProtocolError{Operation: "reset", Code: resp.Code}
	}
	return nil
}

// isSilence reports whether err means no reply was received.
func isSilence(err error) bool {
	return errors.Is(err, transport.ErrTimeout) ||
		errors.Is(err, transport.ErrClosed) ||
		errors.Is(err, io.EOF)
}

// List returns the entries of the directory at path, in device order.
// A listing cut short by the device returns the complete entries only.
func (c *Client) List(ctx context.Context, path string) ([]protocol.DirEntry, error) {
	data, err := c.pathCommand(ctx, "list", protocol.CmdFileList, path)
	if err != nil {
		return nil, err
	}
	return protocol.ParseListResponse(data), nil
}

// Stat returns the metadata of path.
func (c *Client) Stat(ctx context.Context, path string) (*protocol.FileMeta, error) {
	data, err := c.pathCommand(ctx, "stat", protocol.CmdFileInfo, path)
	if err != nil {
		return nil, err
	}
	return protocol.ParseStatResponse(data)
}

// Exists reports whether path exists and whether it is a directory.
func (c *Client) Exists(ctx context.Context, path string) (*protocol.ExistsInfo, error) {
	data, err := c.pathCommand(ctx, "exists", protocol.CmdFileExist, path)
	if err != nil {
		return nil, err
	}
	return protocol.ParseExistsResponse(data)
}

// Delete removes the file at path.
func (c *Client) Delete(ctx context.Context, path string) error {
	_, err := c.pathCommand(ctx, "delete", protocol.CmdFileDelete, path)
	return err
}

// Mkdir creates the directory at path.
func (c *Client) Mkdir(ctx context.Context, path string) error {
	_, err := c.pathCommand(ctx, "mkdir", protocol.CmdDirCreate, path)
	return err
}

// RemoveAll removes the directory at path and everything below it.
func (c *Client) RemoveAll(ctx context.Context, path string) error {
	_, err := c.pathCommand(ctx, "rmdir", protocol.CmdDirDelete, path)
	return err
}

func (c *Client) pathCommand(ctx context.Context, op string, code byte, path string) ([]byte, error) {
	payload, err := protocol.BuildPathPayload(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return c.exchange(ctx, op, code, payload)
}

// exchange sends one command and returns the reply data of an OK reply.
func (c *Client) exchange(ctx context.Context, op string, code byte, payload []byte) ([]byte, error) {
	resp, err := c.sender.SendCommand(ctx, code, payload)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !resp.OK() {
		c.logDebug("command rejected", "op", op, "resp", protocol.ResponseName(resp.Code))
		return nil, &protocol.ProtocolError{Operation: op, Code: resp.Code}
	}
	return resp.Data, nil
}

func (c *Client) logDebug(msg string, keysAndValues ...interface{}) {
	if c.config.Logger != nil {
		c.config.Logger.Debug(msg, keysAndValues...)
	}
}

func (c *Client) logInfo(msg string, keysAndValues ...interface{}) {
	if c.config.Logger != nil {
		c.config.Logger.Info(msg, keysAndValues...)
	}
}

func (c *Client) logError(msg string, keysAndValues ...interface{}) {
	if c.config.Logger != nil {
		c.config.Logger.Error(msg, keysAndValues...)
	}
}
