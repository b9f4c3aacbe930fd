package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sunggeunkim/haya/internal/config"
	"github.com/sunggeunkim/haya/internal/usage"
)

func buildUsageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "usage",
		Short: "Fetch and print token usage/cost for configured providers",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			registry := usage.NewUsageFetcherRegistry()
			for name, provCfg := range cfg.LLM.Providers {
				if provCfg.APIKey == "" {
					continue
				}
				switch name {
				case "anthropic":
					registry.Register(&usage.AnthropicUsageFetcher{APIKey: provCfg.APIKey})
				case "openai":
					registry.Register(&usage.OpenAIUsageFetcher{APIKey: provCfg.APIKey})
				case "google":
					registry.Register(&usage.GeminiUsageFetcher{APIKey: provCfg.APIKey})
				}
			}

			ctx := cmd.Context()
			for name := range cfg.LLM.Providers {
				result, err := registry.Fetch(ctx, name)
				if err != nil {
					fmt.Printf("%-10s error: %v\n", name, err)
					continue
				}
				if result.Error != "" {
					fmt.Printf("%-10s %s\n", name, result.Error)
					continue
				}
				fmt.Printf("%-10s tokens=%s cost=%s\n",
					name,
					usage.FormatTokenCount(result.TotalTokens),
					usage.FormatUSD(result.TotalCostUSD))
			}
			return nil
		},
	}
}
