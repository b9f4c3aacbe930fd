package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sunggeunkim/haya/internal/config"
	"github.com/sunggeunkim/haya/internal/cron"
)

func buildCronCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cron",
		Short: "Inspect scheduled jobs",
	}
	cmd.AddCommand(buildCronListCmd())
	return cmd
}

func buildCronListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List configured cron jobs and their next run time",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			scheduler, err := cron.NewScheduler(cfg.Cron)
			if err != nil {
				return fmt.Errorf("build scheduler: %w", err)
			}
			jobs := scheduler.Jobs()
			if len(jobs) == 0 {
				fmt.Println("no cron jobs configured")
				return nil
			}
			for _, job := range jobs {
				fmt.Printf("%-20s %-10s enabled=%v next=%s\n", job.ID, job.Type, job.Enabled, job.NextRun.Format("2006-01-02T15:04:05Z07:00"))
			}
			return nil
		},
	}
}
