package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// buildOnboardCmd walks a new operator through the minimum steps to a
// running gateway: write a config if one doesn't exist yet, then point them
// at the remaining manual steps (provider credentials, channel tokens).
func buildOnboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "onboard",
		Short: "Guide first-time setup of a haya gateway",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(configPath); err == nil {
				fmt.Printf("%s already exists, skipping init\n", configPath)
			} else {
				token, err := generateBootstrapToken()
				if err != nil {
					return fmt.Errorf("generate bootstrap token: %w", err)
				}
				contents := fmt.Sprintf(defaultConfigTemplate, token)
				if err := os.WriteFile(configPath, []byte(contents), 0o600); err != nil {
					return fmt.Errorf("write config: %w", err)
				}
				fmt.Printf("wrote %s with a fresh bootstrap token\n", configPath)
			}

			fmt.Println()
			fmt.Println("next steps:")
			fmt.Println("  1. set llm.providers.<name>.api_key, or export the provider's API key env var")
			fmt.Println("  2. enable and configure any channels under \"channels\" in", configPath)
			fmt.Println("  3. run `haya doctor` to verify the setup")
			fmt.Println("  4. run `haya start` to bring the gateway up")
			return nil
		},
	}
}
