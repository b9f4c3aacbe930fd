// Package processor implements the inbound message pipeline (C13, §4.9):
// wrap untrusted content, check sender auth, route group-chat mentions,
// resolve the session, invoke the agent runtime, and send the reply back
// through the originating channel.
package processor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/sunggeunkim/haya/internal/agent"
	"github.com/sunggeunkim/haya/internal/channels"
	"github.com/sunggeunkim/haya/internal/config"
	"github.com/sunggeunkim/haya/internal/contentguard"
	"github.com/sunggeunkim/haya/internal/pairing"
	"github.com/sunggeunkim/haya/internal/policy"
	"github.com/sunggeunkim/haya/internal/sessions"
	"github.com/sunggeunkim/haya/pkg/models"
)

// UsageRecorder records token/cost usage produced by processing one message.
// Implemented by the scheduler's usage tracker; nil is a valid no-op.
type UsageRecorder interface {
	RecordUsage(ctx context.Context, sessionID string, chunk *agent.ResponseChunk)
}

// Pipeline wires the channel dock, pairing/allowlist store, session store,
// and agent runtime into the inbound handling sequence named in §4.9.
type Pipeline struct {
	Runtime  *agent.Runtime
	Sessions sessions.Store
	Pairing  *pairing.Store
	Channels *channels.Registry
	Policies config.ChannelsConfig
	Usage    UsageRecorder
	Logger   *slog.Logger

	// AgentID identifies the agent sessions are scoped under. The gateway
	// currently runs a single configured agent per process.
	AgentID string
}

// New constructs a Pipeline. Logger defaults to slog.Default() if nil.
func New(runtime *agent.Runtime, store sessions.Store, pairingStore *pairing.Store, registry *channels.Registry, policies config.ChannelsConfig) *Pipeline {
	return &Pipeline{
		Runtime:  runtime,
		Sessions: store,
		Pairing:  pairingStore,
		Channels: registry,
		Policies: policies,
		AgentID:  "default",
		Logger:   slog.Default(),
	}
}

// Run consumes the channel dock's aggregated inbound stream until ctx is
// canceled, handling each message through the pipeline.
func (p *Pipeline) Run(ctx context.Context) {
	for msg := range p.Channels.AggregateMessages(ctx) {
		go func(msg *models.Message) {
			if err := p.Handle(ctx, msg); err != nil {
				p.logger().Warn("processor: handling failed", "channel", msg.Channel, "error", err)
			}
		}(msg)
	}
}

func (p *Pipeline) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}

// Handle runs one inbound message through the full pipeline (§4.9 step 1-6).
func (p *Pipeline) Handle(ctx context.Context, msg *models.Message) error {
	wrapped := contentguard.Wrap(msg.Content)
	if len(wrapped.Warnings) > 0 {
		if msg.Metadata == nil {
			msg.Metadata = map[string]any{}
		}
		msg.Metadata["content_warnings"] = wrapped.Warnings
		p.logger().Warn("processor: suspicious content detected", "channel", msg.Channel, "warnings", wrapped.Warnings)
	}

	senderID := msg.ChannelID
	isGroup, _ := msg.Metadata["is_group"].(bool)
	allowed, err := p.authorizeSender(string(msg.Channel), senderID, isGroup)
	if err != nil {
		return fmt.Errorf("processor: sender auth: %w", err)
	}
	if !allowed {
		p.logger().Info("processor: sender not authorized, dropping", "channel", msg.Channel, "sender", senderID)
		return nil
	}

	if isGroup && !p.shouldActivateInGroup(msg) {
		return nil
	}

	key := sessions.SessionKey(p.AgentID, msg.Channel, msg.ChannelID)
	session, err := p.Sessions.GetOrCreate(ctx, key, p.AgentID, msg.Channel, msg.ChannelID)
	if err != nil {
		return fmt.Errorf("processor: resolve session: %w", err)
	}

	inbound := &models.Message{
		ID:        uuid.NewString(),
		SessionID: session.ID,
		Channel:   msg.Channel,
		ChannelID: msg.ChannelID,
		Direction: models.DirectionInbound,
		Role:      models.RoleUser,
		Content:   wrapped.Wrapped,
		Metadata:  msg.Metadata,
		CreatedAt: time.Now(),
	}
	if err := p.Sessions.AppendMessage(ctx, session.ID, inbound); err != nil {
		return fmt.Errorf("processor: append inbound message: %w", err)
	}

	chunks, err := p.Runtime.Process(ctx, session, inbound)
	if err != nil {
		return fmt.Errorf("processor: invoke runtime: %w", err)
	}

	var reply string
	for chunk := range chunks {
		if chunk.Error != nil {
			return fmt.Errorf("processor: runtime error: %w", chunk.Error)
		}
		reply += chunk.Text
		if p.Usage != nil {
			p.Usage.RecordUsage(ctx, session.ID, chunk)
		}
	}
	if reply == "" {
		return nil
	}

	outbound := &models.Message{
		ID:        uuid.NewString(),
		SessionID: session.ID,
		Channel:   msg.Channel,
		ChannelID: msg.ChannelID,
		Direction: models.DirectionOutbound,
		Role:      models.RoleAssistant,
		Content:   reply,
		CreatedAt: time.Now(),
	}
	if err := p.Sessions.AppendMessage(ctx, session.ID, outbound); err != nil {
		return fmt.Errorf("processor: append outbound message: %w", err)
	}

	return p.reply(ctx, msg.Channel, outbound)
}

func (p *Pipeline) reply(ctx context.Context, channelType models.ChannelType, msg *models.Message) error {
	out, ok := p.Channels.GetOutbound(channelType)
	if !ok {
		return fmt.Errorf("no outbound adapter for channel %q", channelType)
	}
	return out.Send(ctx, msg)
}

func (p *Pipeline) authorizeSender(channel, senderID string, isGroup bool) (bool, error) {
	policyCfg := p.policyFor(channel, isGroup)
	switch policyCfg.Policy {
	case "", "open":
		return true, nil
	case "disabled":
		return false, nil
	case "allowlist":
		if p.Pairing == nil {
			return false, nil
		}
		return p.Pairing.IsAllowed(channel, senderID)
	case "pairing":
		if p.Pairing == nil {
			return false, nil
		}
		allowed, err := p.Pairing.IsAllowed(channel, senderID)
		if err != nil || allowed {
			return allowed, err
		}
		_, _, err = p.Pairing.UpsertRequest(channel, senderID, nil)
		return false, err
	default:
		return false, fmt.Errorf("unknown sender policy %q", policyCfg.Policy)
	}
}

func (p *Pipeline) policyFor(channel string, isGroup bool) config.ChannelPolicyConfig {
	var dm, group config.ChannelPolicyConfig
	switch models.ChannelType(channel) {
	case models.ChannelTelegram:
		dm, group = p.Policies.Telegram.DM, p.Policies.Telegram.Group
	case models.ChannelDiscord:
		dm, group = p.Policies.Discord.DM, p.Policies.Discord.Group
	case models.ChannelSlack:
		dm, group = p.Policies.Slack.DM, p.Policies.Slack.Group
	default:
		return config.ChannelPolicyConfig{Policy: "open"}
	}
	if isGroup {
		return group
	}
	return dm
}

// shouldActivateInGroup applies the group-chat activation mode: "mention"
// requires the message to carry a mentioned flag (set by the channel
// adapter), "always" activates unconditionally.
func (p *Pipeline) shouldActivateInGroup(msg *models.Message) bool {
	raw, _ := msg.Metadata["group_activation"].(string)
	mode := policy.NormalizeGroupActivation(raw)
	if mode == nil {
		m := policy.ActivationMention
		mode = &m
	}
	if *mode == policy.ActivationAlways {
		return true
	}
	wasMentioned, _ := msg.Metadata["mentioned"].(bool)
	return wasMentioned
}
