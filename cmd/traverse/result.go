package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Hidde-Heijnen/know-your-rights/internal/decisionlog"
	"github.com/Hidde-Heijnen/know-your-rights/internal/ui"
)

var resultCmd = &cobra.Command{
	Use:   "result",
	Short: "Inspect or clear the single-slot result store",
}

var resultShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the most recently stored result",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store := decisionlog.NewStore(cfg.ResultStorePath)
		result, ok, err := store.Get()
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println(ui.RenderWarn("no result stored"))
			return nil
		}
		fmt.Println(ui.RenderResult(result))
		return nil
	},
}

var resultClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear the stored result",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store := decisionlog.NewStore(cfg.ResultStorePath)
		if err := store.Clear(); err != nil {
			return err
		}
		fmt.Println(ui.RenderAccent("result cleared"))
		return nil
	},
}

func init() {
	resultCmd.AddCommand(resultShowCmd)
	resultCmd.AddCommand(resultClearCmd)
}
