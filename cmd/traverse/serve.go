package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/Hidde-Heijnen/know-your-rights/internal/decisionlog"
	"github.com/Hidde-Heijnen/know-your-rights/internal/engine"
	"github.com/Hidde-Heijnen/know-your-rights/internal/httpapi"
	"github.com/Hidde-Heijnen/know-your-rights/internal/oracle"
	"github.com/Hidde-Heijnen/know-your-rights/internal/telemetry"
	"github.com/Hidde-Heijnen/know-your-rights/internal/ui"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP ingress/egress adapter",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		shutdown, err := telemetry.Init(os.Stderr)
		if err != nil {
			return fmt.Errorf("init telemetry: %w", err)
		}
		defer shutdown(cmd.Context())

		capability, err := oracle.NewAnthropicCapability("", cfg.Model)
		if err != nil {
			return err
		}

		store := decisionlog.NewStore(cfg.ResultStorePath)
		auditLog := decisionlog.NewAuditLog(cfg.AuditLogPath, 10, 5)
		defer auditLog.Close()

		eng := &engine.Engine{
			OracleClient: oracle.NewClient(capability, oracle.WithMetrics(oracle.NewOTelMetrics(telemetry.Meter("oracle")))),
			Capability:   capability,
			Store:        store,
			AuditLog:     auditLog,
			MaxDepth:     cfg.MaxDepth,
			Threshold:    cfg.Threshold,
		}

		server := httpapi.NewServer(eng, store)
		fmt.Println(ui.RenderAccent("listening on " + cfg.HTTPAddr))
		return http.ListenAndServe(cfg.HTTPAddr, server)
	},
}
