package main

import (
	"log/slog"

	"github.com/sunggeunkim/haya/internal/channels"
	"github.com/sunggeunkim/haya/internal/channels/discord"
	"github.com/sunggeunkim/haya/internal/channels/matrix"
	"github.com/sunggeunkim/haya/internal/channels/slack"
	"github.com/sunggeunkim/haya/internal/channels/telegram"
	"github.com/sunggeunkim/haya/internal/config"
)

// buildChannelRegistry constructs and registers every enabled channel
// adapter named in cfg. Adapters that fail to construct are logged and
// skipped rather than aborting startup, so a misconfigured channel doesn't
// take down the whole gateway.
func buildChannelRegistry(cfg config.ChannelsConfig, logger *slog.Logger) *channels.Registry {
	registry := channels.NewRegistry()

	if cfg.Telegram.Enabled {
		adapter, err := telegram.NewAdapter(telegram.Config{Token: cfg.Telegram.BotToken})
		if err != nil {
			logger.Warn("channels: telegram adapter disabled", "error", err)
		} else {
			registry.Register(adapter)
		}
	}

	if cfg.Discord.Enabled {
		adapter, err := discord.NewAdapter(discord.Config{Token: cfg.Discord.BotToken})
		if err != nil {
			logger.Warn("channels: discord adapter disabled", "error", err)
		} else {
			registry.Register(adapter)
		}
	}

	if cfg.Slack.Enabled {
		registry.Register(slack.NewAdapter(slack.Config{
			BotToken: cfg.Slack.BotToken,
			AppToken: cfg.Slack.AppToken,
		}))
	}

	if cfg.Matrix.Enabled {
		adapter, err := matrix.NewAdapter(matrix.Config{
			Homeserver:   cfg.Matrix.Homeserver,
			UserID:       cfg.Matrix.UserID,
			AccessToken:  cfg.Matrix.AccessToken,
			DeviceID:     cfg.Matrix.DeviceID,
			AllowedRooms: cfg.Matrix.AllowedRooms,
		})
		if err != nil {
			logger.Warn("channels: matrix adapter disabled", "error", err)
		} else {
			registry.Register(adapter)
		}
	}

	return registry
}
