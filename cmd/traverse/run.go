package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Hidde-Heijnen/know-your-rights/internal/config"
	"github.com/Hidde-Heijnen/know-your-rights/internal/decisionlog"
	"github.com/Hidde-Heijnen/know-your-rights/internal/engine"
	"github.com/Hidde-Heijnen/know-your-rights/internal/oracle"
	"github.com/Hidde-Heijnen/know-your-rights/internal/ui"
)

var (
	documentPath string
	caseInfoPath string
	maxDepthFlag int
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one traversal over a document tree",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		raw, err := os.ReadFile(documentPath)
		if err != nil {
			return fmt.Errorf("read document: %w", err)
		}

		caseInfo, err := readCaseInfo(caseInfoPath)
		if err != nil {
			return err
		}

		capability, err := oracle.NewAnthropicCapability("", cfg.Model)
		if err != nil {
			return err
		}

		eng := &engine.Engine{
			OracleClient: oracle.NewClient(capability),
			Capability:   capability,
			Store:        decisionlog.NewStore(cfg.ResultStorePath),
			AuditLog:     decisionlog.NewAuditLog(cfg.AuditLogPath, 10, 5),
			MaxDepth:     cfg.MaxDepth,
			Threshold:    cfg.Threshold,
		}
		defer eng.AuditLog.Close()

		var maxDepth *int
		if cmd.Flags().Changed("max-depth") {
			maxDepth = &maxDepthFlag
		}

		result, err := eng.Run(cmd.Context(), raw, caseInfo, maxDepth)
		if err != nil {
			return err
		}

		fmt.Println(ui.RenderResult(result))
		return nil
	},
}

func init() {
	runCmd.Flags().StringVar(&documentPath, "document", "", "path to the raw document tree (JSON or YAML)")
	runCmd.Flags().StringVar(&caseInfoPath, "case-info", "", "path to a JSON file describing the case")
	runCmd.Flags().IntVar(&maxDepthFlag, "max-depth", 0, "override the configured traversal depth bound for this run")
	_ = runCmd.MarkFlagRequired("document")
}

func loadConfig() (config.Config, error) {
	loader, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, err
	}
	return loader.Current(), nil
}

func readCaseInfo(path string) (map[string]any, error) {
	if path == "" {
		return map[string]any{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read case info: %w", err)
	}
	var caseInfo map[string]any
	if err := json.Unmarshal(data, &caseInfo); err != nil {
		return nil, fmt.Errorf("parse case info: %w", err)
	}
	return caseInfo, nil
}
