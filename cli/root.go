// Package cli wraps the search coordinator's Operation surface
// (package pool) in a cobra command tree. It is a demonstration
// harness only: no query or scoring logic lives here, only wiring.
package cli

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"
	"strings"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version information (set via ldflags)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// configPath is the YAML configuration file read by "serve".
var configPath string

// Execute runs the CLI.
func Execute(ctx context.Context) error {
	root := &cobra.Command{
		Use:   "ftsctl",
		Short: "ftsctl - embeddable full-text search engine control surface",
		Long: `ftsctl drives the search coordinator's Operation surface over
newline-delimited JSON on stdin/stdout.

Get started:
  ftsctl serve    Run the coordinator, reading operations from stdin`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.SetVersionTemplate("ftsctl {{.Version}}\n")
	root.Version = versionString()
	root.PersistentFlags().StringVar(&configPath, "config", "ftsctl.yaml", "Path to YAML config file")

	root.AddCommand(NewServe())

	if err := fang.Execute(ctx, root,
		fang.WithVersion(Version),
		fang.WithCommit(Commit),
	); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("[ERROR] "+err.Error()))
		return err
	}
	return nil
}

func versionString() string {
	if strings.TrimSpace(Version) != "" && Version != "dev" {
		return Version
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		if bi.Main.Version != "" && bi.Main.Version != "(devel)" {
			return bi.Main.Version
		}
	}
	return "dev"
}
