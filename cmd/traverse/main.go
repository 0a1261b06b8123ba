// Command traverse runs the Guided Hierarchical Traversal Engine over a
// legal document tree for a consumer-rights case, following the
// persistent-flag-plus-subcommand shape of cmd/bd/main.go.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Hidde-Heijnen/know-your-rights/internal/ui"
)

var (
	configPath string
	rootCtx    context.Context
	rootCancel context.CancelFunc
)

var rootCmd = &cobra.Command{
	Use:   "traverse",
	Short: "Guided hierarchical traversal of a legal document tree",
	Long: `traverse normalises, validates, and traverses a legal document tree
to find the sections relevant to a consumer-rights case, guided by an
LLM oracle, and records a full auditable decision trace.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "path to config.yaml")
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(resultCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(serveCmd)
}

func main() {
	rootCtx, rootCancel = signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer rootCancel()

	if err := rootCmd.ExecuteContext(rootCtx); err != nil {
		fmt.Fprintln(os.Stderr, ui.RenderFail("Error: "+err.Error()))
		os.Exit(1)
	}
}
