package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sunggeunkim/haya/internal/config"
)

func buildChannelsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "channels",
		Short: "Inspect configured channel adapters",
	}
	cmd.AddCommand(buildChannelsListCmd())
	return cmd
}

func buildChannelsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List configured channels and whether each is enabled",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			rows := []struct {
				name    string
				enabled bool
			}{
				{"telegram", cfg.Channels.Telegram.Enabled},
				{"discord", cfg.Channels.Discord.Enabled},
				{"slack", cfg.Channels.Slack.Enabled},
				{"whatsapp", cfg.Channels.WhatsApp.Enabled},
				{"matrix", cfg.Channels.Matrix.Enabled},
				{"teams", cfg.Channels.Teams.Enabled},
				{"webhook", cfg.Channels.Webhook.Enabled},
				{"webchat", cfg.Channels.WebChat.Enabled},
			}
			for _, row := range rows {
				status := "disabled"
				if row.enabled {
					status = "enabled"
				}
				fmt.Printf("%-10s %s\n", row.name, status)
			}
			return nil
		},
	}
}
