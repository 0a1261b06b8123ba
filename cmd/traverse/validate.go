package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Hidde-Heijnen/know-your-rights/internal/engine"
	"github.com/Hidde-Heijnen/know-your-rights/internal/ui"
)

var validateDocumentPath string

// validateCmd runs the Normaliser and Validator alone, a cheap
// pre-flight check before spending oracle budget on a document tree.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a document tree without running a traversal",
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := os.ReadFile(validateDocumentPath)
		if err != nil {
			return fmt.Errorf("read document: %w", err)
		}

		tree, err := engine.ValidateOnly(raw)
		if err != nil {
			fmt.Println(ui.RenderFail(err.Error()))
			os.Exit(1)
		}

		fmt.Println(ui.RenderAccent(fmt.Sprintf("valid: %d node(s), %d root(s)", len(tree.Nodes), len(tree.RootNodes))))
		return nil
	},
}

func init() {
	validateCmd.Flags().StringVar(&validateDocumentPath, "document", "", "path to the raw document tree (JSON or YAML)")
	_ = validateCmd.MarkFlagRequired("document")
}
