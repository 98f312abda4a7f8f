package main

import (
	"runtime"

	"github.com/spf13/cobra"
)

// Set with -ldflags "-X main.version=..."
var (
	version = "dev"
	commit  = "none"
)

type versionView struct {
	Version string `json:"version" yaml:"version"`
	Commit  string `json:"commit" yaml:"commit"`
	Go      string `json:"go" yaml:"go"`
}

func (v versionView) rows() [][]string {
	return [][]string{{"VERSION", "COMMIT", "GO"}, {v.Version, v.Commit, v.Go}}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return out.print(versionView{Version: version, Commit: commit, Go: runtime.Version()})
	},
}
