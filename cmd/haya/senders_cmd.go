package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sunggeunkim/haya/internal/pairing"
)

func buildSendersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "senders",
		Short: "Manage per-channel sender pairing and allowlists",
	}
	cmd.AddCommand(buildSendersListCmd(), buildSendersApproveCmd(), buildSendersAllowCmd())
	return cmd
}

func buildSendersListCmd() *cobra.Command {
	var channel string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List pending pairing requests for a channel",
		RunE: func(cmd *cobra.Command, args []string) error {
			if channel == "" {
				return fmt.Errorf("--channel is required")
			}
			store := pairing.NewStore("data")
			requests, err := store.ListRequests(channel)
			if err != nil {
				return fmt.Errorf("list requests: %w", err)
			}
			for _, req := range requests {
				fmt.Printf("%-20s code=%s expired=%v\n", req.ID, req.Code, req.IsExpired())
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&channel, "channel", "", "channel to list requests for")
	return cmd
}

func buildSendersApproveCmd() *cobra.Command {
	var channel, code string
	cmd := &cobra.Command{
		Use:   "approve",
		Short: "Approve a pairing code, adding the sender to the channel's allowlist",
		RunE: func(cmd *cobra.Command, args []string) error {
			if channel == "" || code == "" {
				return fmt.Errorf("--channel and --code are required")
			}
			store := pairing.NewStore("data")
			id, _, err := store.ApproveCode(channel, code)
			if err != nil {
				return fmt.Errorf("approve code: %w", err)
			}
			fmt.Printf("approved %s on %s\n", id, channel)
			return nil
		},
	}
	cmd.Flags().StringVar(&channel, "channel", "", "channel the code was issued for")
	cmd.Flags().StringVar(&code, "code", "", "pairing code to approve")
	return cmd
}

func buildSendersAllowCmd() *cobra.Command {
	var channel, sender string
	cmd := &cobra.Command{
		Use:   "allow",
		Short: "Add a sender directly to a channel's allowlist",
		RunE: func(cmd *cobra.Command, args []string) error {
			if channel == "" || sender == "" {
				return fmt.Errorf("--channel and --sender are required")
			}
			store := pairing.NewStore("data")
			if err := store.AddToAllowlist(channel, sender); err != nil {
				return fmt.Errorf("add to allowlist: %w", err)
			}
			fmt.Printf("allowed %s on %s\n", sender, channel)
			return nil
		},
	}
	cmd.Flags().StringVar(&channel, "channel", "", "channel to allow the sender on")
	cmd.Flags().StringVar(&sender, "sender", "", "sender identifier to allow")
	return cmd
}
