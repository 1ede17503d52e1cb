package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Set with -ldflags "-X main.version=... -X main.GitCommit=... -X main.BuildTime=...".
var (
	version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print rbxsync version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "rbxsync %s (commit %s, built %s)\n", version, GitCommit, BuildTime)
		},
	}
}
