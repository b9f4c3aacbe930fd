// Package main provides the CLI entry point for the Haya gateway: a
// long-running process that bridges messaging channels to an LLM agent
// runtime over a token-authenticated WebSocket RPC surface.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Build information, populated by ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := buildRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var configPath string

func buildRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "haya",
		Short:         "Haya connects messaging channels to an LLM agent over a gateway",
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "haya.json", "Path to the haya configuration file")

	root.AddCommand(
		buildInitCmd(),
		buildStartCmd(),
		buildChannelsCmd(),
		buildCronCmd(),
		buildSendersCmd(),
		buildConfigCmd(),
		buildAuditCmd(),
		buildDoctorCmd(),
		buildOnboardCmd(),
		buildUsageCmd(),
	)
	return root
}
