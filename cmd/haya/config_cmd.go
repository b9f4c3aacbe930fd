package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sunggeunkim/haya/internal/config"
)

func buildConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the loaded configuration",
	}
	cmd.AddCommand(buildConfigShowCmd())
	return cmd
}

func buildConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the resolved configuration as JSON, with secrets redacted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			redacted := *cfg
			redacted.Gateway.Auth.Token = redactSecret(redacted.Gateway.Auth.Token)
			for name, provCfg := range redacted.LLM.Providers {
				provCfg.APIKey = redactSecret(provCfg.APIKey)
				redacted.LLM.Providers[name] = provCfg
			}
			redacted.Channels.Telegram.BotToken = redactSecret(redacted.Channels.Telegram.BotToken)
			redacted.Channels.Discord.BotToken = redactSecret(redacted.Channels.Discord.BotToken)
			redacted.Channels.Slack.BotToken = redactSecret(redacted.Channels.Slack.BotToken)
			redacted.Channels.Slack.AppToken = redactSecret(redacted.Channels.Slack.AppToken)
			redacted.Channels.Matrix.AccessToken = redactSecret(redacted.Channels.Matrix.AccessToken)

			data, err := json.MarshalIndent(redacted, "", "  ")
			if err != nil {
				return fmt.Errorf("marshal config: %w", err)
			}
			fmt.Println(string(data))
			return nil
		},
	}
}

func redactSecret(value string) string {
	if value == "" {
		return ""
	}
	return "<redacted>"
}
