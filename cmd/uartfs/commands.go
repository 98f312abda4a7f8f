package main

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/moffa90/go-uartfs/client"
	"github.com/moffa90/go-uartfs/protocol"
)

// ---------------------------------------------------------------------------
// status
// ---------------------------------------------------------------------------

type statusView struct {
	HeapFree       uint32 `json:"heapFree" yaml:"heapFree"`
	StorageMounted bool   `json:"storageMounted" yaml:"storageMounted"`
	StorageTotal   uint64 `json:"storageTotal" yaml:"storageTotal"`
	StorageFree    uint64 `json:"storageFree" yaml:"storageFree"`
	Uptime         string `json:"uptime" yaml:"uptime"`
}

func newStatusView(s *protocol.StatusInfo) statusView {
	return statusView{
		HeapFree:       s.HeapFree,
		StorageMounted: s.StorageMounted,
		StorageTotal:   s.StorageTotal,
		StorageFree:    s.StorageFree,
		Uptime:         s.Uptime().String(),
	}
}

func (s statusView) rows() [][]string {
	return [][]string{
		{"FIELD", "VALUE"},
		{"Heap free", humanize.IBytes(uint64(s.HeapFree))},
		{"Storage mounted", strconv.FormatBool(s.StorageMounted)},
		{"Storage total", humanize.IBytes(s.StorageTotal)},
		{"Storage free", humanize.IBytes(s.StorageFree)},
		{"Uptime", s.Uptime},
	}
}

var statusWatch time.Duration

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Query device heap, storage and uptime",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, func(ctx context.Context, c *client.Client) error {
			for {
				info, err := c.Ping(ctx)
				if err != nil {
					return err
				}
				if err := out.print(newStatusView(info)); err != nil {
					return err
				}
				if statusWatch <= 0 {
					return nil
				}

				select {
				case <-ctx.Done():
					return nil
				case <-time.After(statusWatch):
				}
			}
		})
	},
}

// ---------------------------------------------------------------------------
// ls
// ---------------------------------------------------------------------------

type entryView struct {
	Name     string    `json:"name" yaml:"name"`
	Type     string    `json:"type" yaml:"type"`
	Size     uint32    `json:"size" yaml:"size"`
	Modified time.Time `json:"modified" yaml:"modified"`
}

type listView struct {
	Path    string      `json:"path" yaml:"path"`
	Entries []entryView `json:"entries" yaml:"entries"`
}

func (l listView) rows() [][]string {
	rows := [][]string{{"NAME", "TYPE", "SIZE", "MODIFIED"}}
	for _, e := range l.Entries {
		size := humanize.Bytes(uint64(e.Size))
		if e.Type == protocol.KindDirectory.String() {
			size = "-"
		}
		rows = append(rows, []string{e.Name, e.Type, size, humanize.Time(e.Modified)})
	}
	return rows
}

// sortEntries orders a listing in place. Directories come first for "name".
func sortEntries(entries []protocol.DirEntry, by string) error {
	var less func(a, b protocol.DirEntry) bool
	switch by {
	case "", "name":
		less = func(a, b protocol.DirEntry) bool {
			if a.IsDir() != b.IsDir() {
				return a.IsDir()
			}
			return a.Name < b.Name
		}
	case "size":
		less = func(a, b protocol.DirEntry) bool { return a.Size > b.Size }
	case "time":
		less = func(a, b protocol.DirEntry) bool { return a.Modified > b.Modified }
	default:
		return fmt.Errorf("invalid sort key %q: use name, size or time", by)
	}
	sort.SliceStable(entries, func(i, j int) bool { return less(entries[i], entries[j]) })
	return nil
}

var lsSort string

var lsCmd = &cobra.Command{
	Use:   "ls [path]",
	Short: "List a directory on the device",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "/"
		if len(args) == 1 {
			path = args[0]
		}
		return withClient(cmd, func(ctx context.Context, c *client.Client) error {
			entries, err := c.List(ctx, path)
			if err != nil {
				return err
			}
			if err := sortEntries(entries, lsSort); err != nil {
				return err
			}

			view := listView{Path: path, Entries: make([]entryView, 0, len(entries))}
			for _, e := range entries {
				view.Entries = append(view.Entries, entryView{
					Name:     e.Name,
					Type:     e.Kind.String(),
					Size:     e.Size,
					Modified: e.ModTime().UTC(),
				})
			}
			return out.print(view)
		})
	},
}

// ---------------------------------------------------------------------------
// stat / exists
// ---------------------------------------------------------------------------

type statView struct {
	Path     string    `json:"path" yaml:"path"`
	Type     string    `json:"type" yaml:"type"`
	Size     uint32    `json:"size" yaml:"size"`
	Created  time.Time `json:"created" yaml:"created"`
	Modified time.Time `json:"modified" yaml:"modified"`
}

func (s statView) rows() [][]string {
	return [][]string{
		{"FIELD", "VALUE"},
		{"Path", s.Path},
		{"Type", s.Type},
		{"Size", fmt.Sprintf("%d (%s)", s.Size, humanize.Bytes(uint64(s.Size)))},
		{"Created", s.Created.Format(time.RFC3339)},
		{"Modified", s.Modified.Format(time.RFC3339)},
	}
}

var statCmd = &cobra.Command{
	Use:   "stat <path>",
	Short: "Show metadata of a file or directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, func(ctx context.Context, c *client.Client) error {
			meta, err := c.Stat(ctx, args[0])
			if err != nil {
				return err
			}
			return out.print(statView{
				Path:     args[0],
				Type:     meta.Kind.String(),
				Size:     meta.Size,
				Created:  time.Unix(int64(meta.Created), 0).UTC(),
				Modified: time.Unix(int64(meta.Modified), 0).UTC(),
			})
		})
	},
}

type existsView struct {
	Path   string `json:"path" yaml:"path"`
	Exists bool   `json:"exists" yaml:"exists"`
	Type   string `json:"type,omitempty" yaml:"type,omitempty"`
}

func (e existsView) rows() [][]string {
	return [][]string{{"PATH", "EXISTS", "TYPE"}, {e.Path, strconv.FormatBool(e.Exists), e.Type}}
}

var existsCmd = &cobra.Command{
	Use:   "exists <path>",
	Short: "Check whether a path exists",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, func(ctx context.Context, c *client.Client) error {
			info, err := c.Exists(ctx, args[0])
			if err != nil {
				return err
			}
			view := existsView{Path: args[0], Exists: info.Exists}
			if info.Exists {
				view.Type = info.Kind.String()
			}
			return out.print(view)
		})
	},
}

// ---------------------------------------------------------------------------
// rm / mkdir / rmdir / reset
// ---------------------------------------------------------------------------

// pathCommand builds a command that runs one path operation and prints "ok".
func pathCommand(use, short string, op func(*client.Client, context.Context, string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <path>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, c *client.Client) error {
				if err := op(c, ctx, args[0]); err != nil {
					return err
				}
				return out.print(message{Op: use, Path: args[0], Result: "ok"})
			})
		},
	}
}

var (
	rmCmd    = pathCommand("rm", "Delete a file or an empty directory", (*client.Client).Delete)
	mkdirCmd = pathCommand("mkdir", "Create a directory", (*client.Client).Mkdir)
	rmdirCmd = pathCommand("rmdir", "Delete a directory and everything below it", (*client.Client).RemoveAll)
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reboot the device",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, func(ctx context.Context, c *client.Client) error {
			if err := c.Reset(ctx); err != nil {
				return err
			}
			return out.print(message{Op: "reset", Result: "ok"})
		})
	},
}

func init() {
	statusCmd.Flags().DurationVar(&statusWatch, "watch", 0, "repeat the query at this interval until interrupted")
	lsCmd.Flags().StringVar(&lsSort, "sort", "name", "sort by name, size or time")
}
