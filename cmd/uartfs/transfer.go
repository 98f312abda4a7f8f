package main

import (
	"context"
	"io"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/moffa90/go-uartfs/client"
)

type transferView struct {
	ID        string `json:"id" yaml:"id"`
	Direction string `json:"direction" yaml:"direction"`
	Local     string `json:"local" yaml:"local"`
	Remote    string `json:"remote" yaml:"remote"`
	Bytes     int64  `json:"bytes" yaml:"bytes"`
	Chunks    int    `json:"chunks" yaml:"chunks"`
	Elapsed   string `json:"elapsed" yaml:"elapsed"`
}

func newTransferView(res *client.TransferResult, local string) transferView {
	return transferView{
		ID:        res.ID,
		Direction: res.Direction,
		Local:     local,
		Remote:    res.Path,
		Bytes:     res.Bytes,
		Chunks:    res.Chunks,
		Elapsed:   res.Elapsed.Round(time.Millisecond).String(),
	}
}

func (t transferView) rows() [][]string {
	return [][]string{
		{"DIRECTION", "LOCAL", "REMOTE", "SIZE", "CHUNKS", "ELAPSED"},
		{t.Direction, t.Local, t.Remote, humanize.Bytes(uint64(t.Bytes)), humanize.Comma(int64(t.Chunks)), t.Elapsed},
	}
}

// progressBar draws transfer progress with pterm.
type progressBar struct {
	bar  *pterm.ProgressbarPrinter
	last int64
}

// newProgressBar returns nil when no bar should be drawn.
func newProgressBar(title string, total int64, w io.Writer) *progressBar {
	if !out.interactive() || total <= 0 {
		return nil
	}
	bar, err := pterm.DefaultProgressbar.
		WithTotal(int(total)).
		WithTitle(title).
		WithWriter(w).
		Start()
	if err != nil {
		logger.Sugar().Debugw("progress bar unavailable", "error", err)
		return nil
	}
	return &progressBar{bar: bar}
}

func (p *progressBar) OnProgress(transferred, total int64) {
	if delta := transferred - p.last; delta > 0 {
		p.bar.Add(int(delta))
		p.last = transferred
	}
}

func (p *progressBar) stop() {
	if p != nil {
		_, _ = p.bar.Stop()
	}
}

// observerOpts adds bar as the progress observer when it is drawn.
func observerOpts(bar *progressBar, opts ...client.TransferOption) []client.TransferOption {
	if bar != nil {
		opts = append(opts, client.WithObserver(bar))
	}
	return opts
}

var uploadAppend bool

var uploadCmd = &cobra.Command{
	Use:   "upload <local> [remote]",
	Short: "Upload a local file to the device",
	Long: `Upload a local file to the device. The remote path defaults to the
local file name in the root directory. The remote file is replaced unless
--append is given.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		local := args[0]
		remote := "/" + filepath.Base(local)
		if len(args) == 2 {
			remote = args[1]
		}

		return withClient(cmd, func(ctx context.Context, c *client.Client) error {
			var total int64
			if fi, err := os.Stat(local); err == nil {
				total = fi.Size()
			}

			var opts []client.TransferOption
			if uploadAppend {
				opts = append(opts, client.WithAppend())
			}
			bar := newProgressBar("Uploading "+remote, total, cmd.ErrOrStderr())
			res, err := c.UploadFile(ctx, local, remote, observerOpts(bar, opts...)...)
			bar.stop()
			if err != nil {
				return err
			}
			return out.print(newTransferView(res, local))
		})
	},
}

var downloadCmd = &cobra.Command{
	Use:   "download <remote> [local]",
	Short: "Download a file from the device",
	Long: `Download a file from the device. The local path defaults to the
remote file name in the current directory. A partially written local file
is removed when the transfer fails.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		remote := args[0]
		local := path.Base(remote)
		if len(args) == 2 {
			local = args[1]
		}

		return withClient(cmd, func(ctx context.Context, c *client.Client) error {
			// the size is only used for the progress bar
			var total int64
			if out.interactive() {
				if meta, err := c.Stat(ctx, remote); err == nil {
					total = int64(meta.Size)
				}
			}

			bar := newProgressBar("Downloading "+remote, total, cmd.ErrOrStderr())
			res, err := c.DownloadFile(ctx, remote, local, observerOpts(bar)...)
			bar.stop()
			if err != nil {
				return err
			}
			return out.print(newTransferView(res, local))
		})
	},
}

func init() {
	uploadCmd.Flags().BoolVar(&uploadAppend, "append", false, "append to the remote file instead of replacing it")
}
