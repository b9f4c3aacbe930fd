package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sunggeunkim/haya/internal/config"
	"github.com/sunggeunkim/haya/internal/security"
)

func buildAuditCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "audit",
		Short: "Run a security audit over the configuration and on-disk state",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			report, err := security.RunAudit(security.AuditOptions{
				ConfigPath:        configPath,
				Config:            cfg,
				StateDir:          "data",
				IncludeFilesystem: true,
				IncludeGateway:    true,
				IncludeConfig:     true,
				CheckSymlinks:     true,
			})
			if err != nil {
				return fmt.Errorf("run audit: %w", err)
			}
			for _, finding := range report.Findings {
				fmt.Printf("[%s] %s: %s\n", finding.Severity, finding.Title, finding.Detail)
			}
			fmt.Printf("\n%d findings (%v)\n", len(report.Findings), report.CountBySeverity())
			if report.HasCritical() {
				return fmt.Errorf("audit found critical issues")
			}
			return nil
		},
	}
}
