package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const defaultConfigTemplate = `{
  "gateway": {
    "port": 8443,
    "bind": "loopback",
    "auth": {
      "mode": "token",
      "token": "%s"
    }
  },
  "llm": {
    "default_provider": "anthropic",
    "providers": {
      "anthropic": {
        "api_key": "",
        "default_model": "claude-sonnet-4-5"
      }
    }
  },
  "channels": {},
  "cron": {
    "enabled": true,
    "jobs": []
  },
  "logging": {
    "level": "info",
    "format": "json"
  }
}
`

func buildInitCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter haya.json configuration with a fresh bootstrap token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(configPath); err == nil && !force {
				return fmt.Errorf("%s already exists; pass --force to overwrite", configPath)
			}
			token, err := generateBootstrapToken()
			if err != nil {
				return fmt.Errorf("generate bootstrap token: %w", err)
			}
			contents := fmt.Sprintf(defaultConfigTemplate, token)
			if err := os.WriteFile(configPath, []byte(contents), 0o600); err != nil {
				return fmt.Errorf("write config: %w", err)
			}
			fmt.Printf("wrote %s\n", configPath)
			fmt.Println("gateway bootstrap token (store this, it will not be shown again):")
			fmt.Println(token)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config file")
	return cmd
}

func generateBootstrapToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
