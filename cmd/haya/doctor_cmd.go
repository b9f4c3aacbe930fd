package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sunggeunkim/haya/internal/config"
)

// buildDoctorCmd runs a quick set of sanity checks a maintainer would reach
// for before starting the gateway: does the config load and validate, is a
// provider credential present, is a bootstrap token configured.
func buildDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check the config and environment for common startup problems",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				fmt.Printf("FAIL  config: %v\n", err)
				return err
			}
			fmt.Println("OK    config loads and validates")

			provCfg, ok := cfg.LLM.Providers[cfg.LLM.DefaultProvider]
			if !ok || provCfg.APIKey == "" {
				fmt.Printf("WARN  no api_key configured for default provider %q\n", cfg.LLM.DefaultProvider)
			} else {
				fmt.Printf("OK    default provider %q has an api_key\n", cfg.LLM.DefaultProvider)
			}

			if cfg.Gateway.Auth.Token == "" {
				fmt.Println("WARN  gateway.auth.token is empty; the gateway will accept unauthenticated requests")
			} else if len(cfg.Gateway.Auth.Token) < 64 {
				fmt.Println("FAIL  gateway.auth.token is shorter than the required 64 characters")
			} else {
				fmt.Println("OK    gateway bootstrap token is configured")
			}

			if cfg.Gateway.Bind != "loopback" && !cfg.Gateway.TLS.Enabled {
				fmt.Println("FAIL  gateway.bind is non-loopback but TLS is disabled")
			}

			return nil
		},
	}
}
