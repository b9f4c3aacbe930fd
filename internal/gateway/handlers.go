package gateway

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/sunggeunkim/haya/internal/channels"
	"github.com/sunggeunkim/haya/internal/config"
	"github.com/sunggeunkim/haya/internal/sessions"
	"github.com/sunggeunkim/haya/pkg/models"
)

// methodHandler dispatches one RPC method against a connection.
type methodHandler func(ctx context.Context, c *connection, req Request)

// methods is the minimum RPC surface named in §4.8.
var methods = map[string]methodHandler{
	"chat.send":        handleChatSend,
	"chat.stream":      handleChatStream,
	"sessions.list":    handleSessionsList,
	"sessions.create":  handleSessionsCreate,
	"sessions.delete":  handleSessionsDelete,
	"sessions.history": handleSessionsHistory,
	"channels.list":    handleChannelsList,
	"channels.start":   handleChannelsStart,
	"channels.stop":    handleChannelsStop,
	"cron.list":        handleCronList,
	"cron.status":      handleCronStatus,
	"cron.add":         handleCronAdd,
	"cron.remove":      handleCronRemove,
}

type chatParams struct {
	SessionID string `json:"session_id"`
	AgentID   string `json:"agent_id"`
	Channel   string `json:"channel"`
	ChannelID string `json:"channel_id"`
	Content   string `json:"content"`
}

func (c *connection) resolveSession(ctx context.Context, p chatParams) (*models.Session, error) {
	if p.SessionID != "" {
		return c.server.sessions.Get(ctx, p.SessionID)
	}
	channel := models.ChannelType(p.Channel)
	if channel == "" {
		channel = "web-chat"
	}
	key := sessions.SessionKey(p.AgentID, channel, p.ChannelID)
	return c.server.sessions.GetOrCreate(ctx, key, p.AgentID, channel, p.ChannelID)
}

func handleChatSend(ctx context.Context, c *connection, req Request) {
	var p chatParams
	if err := decodeParams(req.Params, &p); err != nil {
		c.sendResponse(errorResponse(req.ID, CodeValidation, "invalid params: "+err.Error()))
		return
	}
	if p.Content == "" {
		c.sendResponse(errorResponse(req.ID, CodeValidation, "content is required"))
		return
	}

	session, err := c.resolveSession(ctx, p)
	if err != nil {
		c.sendResponse(errorResponse(req.ID, CodeInternal, err.Error()))
		return
	}

	msg := &models.Message{
		ID:        uuid.NewString(),
		SessionID: session.ID,
		Channel:   session.Channel,
		ChannelID: session.ChannelID,
		Direction: models.DirectionInbound,
		Role:      models.RoleUser,
		Content:   p.Content,
		CreatedAt: time.Now(),
	}

	chunks, err := c.server.runtime.Process(ctx, session, msg)
	if err != nil {
		c.sendResponse(errorResponse(req.ID, CodeInternal, err.Error()))
		return
	}

	var reply string
	for chunk := range chunks {
		if chunk.Error != nil {
			c.sendResponse(errorResponse(req.ID, CodeInternal, chunk.Error.Error()))
			return
		}
		reply += chunk.Text
	}
	c.sendResponse(resultResponse(req.ID, map[string]any{"session_id": session.ID, "content": reply}))
}

func handleChatStream(ctx context.Context, c *connection, req Request) {
	var p chatParams
	if err := decodeParams(req.Params, &p); err != nil {
		c.sendResponse(errorResponse(req.ID, CodeValidation, "invalid params: "+err.Error()))
		return
	}

	session, err := c.resolveSession(ctx, p)
	if err != nil {
		c.sendResponse(errorResponse(req.ID, CodeInternal, err.Error()))
		return
	}

	msg := &models.Message{
		ID:        uuid.NewString(),
		SessionID: session.ID,
		Channel:   session.Channel,
		ChannelID: session.ChannelID,
		Direction: models.DirectionInbound,
		Role:      models.RoleUser,
		Content:   p.Content,
		CreatedAt: time.Now(),
	}

	chunks, err := c.server.runtime.Process(ctx, session, msg)
	if err != nil {
		c.sendResponse(errorResponse(req.ID, CodeInternal, err.Error()))
		return
	}

	var full string
	for chunk := range chunks {
		if chunk.Error != nil {
			c.sendResponse(errorResponse(req.ID, CodeInternal, chunk.Error.Error()))
			return
		}
		if chunk.Text == "" {
			continue
		}
		full += chunk.Text
		c.sendEvent(Event{Event: "chat.delta", Data: map[string]any{"session_id": session.ID, "delta": chunk.Text}})
	}
	c.sendResponse(resultResponse(req.ID, map[string]any{"session_id": session.ID, "content": full}))
}

func handleSessionsList(ctx context.Context, c *connection, req Request) {
	var p struct {
		AgentID string `json:"agent_id"`
		Limit   int    `json:"limit"`
		Offset  int    `json:"offset"`
	}
	if err := decodeParams(req.Params, &p); err != nil {
		c.sendResponse(errorResponse(req.ID, CodeValidation, "invalid params: "+err.Error()))
		return
	}
	list, err := c.server.sessions.List(ctx, p.AgentID, sessions.ListOptions{Limit: p.Limit, Offset: p.Offset})
	if err != nil {
		c.sendResponse(errorResponse(req.ID, CodeInternal, err.Error()))
		return
	}
	c.sendResponse(resultResponse(req.ID, list))
}

func handleSessionsCreate(ctx context.Context, c *connection, req Request) {
	var p struct {
		AgentID   string `json:"agent_id"`
		Channel   string `json:"channel"`
		ChannelID string `json:"channel_id"`
	}
	if err := decodeParams(req.Params, &p); err != nil {
		c.sendResponse(errorResponse(req.ID, CodeValidation, "invalid params: "+err.Error()))
		return
	}
	channel := models.ChannelType(p.Channel)
	key := sessions.SessionKey(p.AgentID, channel, p.ChannelID)
	session, err := c.server.sessions.GetOrCreate(ctx, key, p.AgentID, channel, p.ChannelID)
	if err != nil {
		c.sendResponse(errorResponse(req.ID, CodeInternal, err.Error()))
		return
	}
	c.sendResponse(resultResponse(req.ID, session))
}

func handleSessionsDelete(ctx context.Context, c *connection, req Request) {
	var p struct {
		SessionID string `json:"session_id"`
	}
	if err := decodeParams(req.Params, &p); err != nil || p.SessionID == "" {
		c.sendResponse(errorResponse(req.ID, CodeValidation, "session_id is required"))
		return
	}
	if err := c.server.sessions.Delete(ctx, p.SessionID); err != nil {
		c.sendResponse(errorResponse(req.ID, CodeInternal, err.Error()))
		return
	}
	c.sendResponse(resultResponse(req.ID, map[string]any{"deleted": true}))
}

func handleSessionsHistory(ctx context.Context, c *connection, req Request) {
	var p struct {
		SessionID string `json:"session_id"`
		Limit     int    `json:"limit"`
	}
	if err := decodeParams(req.Params, &p); err != nil || p.SessionID == "" {
		c.sendResponse(errorResponse(req.ID, CodeValidation, "session_id is required"))
		return
	}
	limit := p.Limit
	if limit <= 0 {
		limit = 50
	}
	history, err := c.server.sessions.GetHistory(ctx, p.SessionID, limit)
	if err != nil {
		c.sendResponse(errorResponse(req.ID, CodeInternal, err.Error()))
		return
	}
	c.sendResponse(resultResponse(req.ID, history))
}

func handleChannelsList(ctx context.Context, c *connection, req Request) {
	if c.server.channels == nil {
		c.sendResponse(resultResponse(req.ID, []any{}))
		return
	}
	type entry struct {
		Type   string          `json:"type"`
		Status channels.Status `json:"status"`
	}
	var out []entry
	for _, adapter := range c.server.channels.All() {
		status := channels.Status{}
		if health, ok := c.server.channels.HealthAdapters()[adapter.Type()]; ok {
			status = health.Status()
		}
		out = append(out, entry{Type: string(adapter.Type()), Status: status})
	}
	c.sendResponse(resultResponse(req.ID, out))
}

func handleChannelsStart(ctx context.Context, c *connection, req Request) {
	channelLifecycle(ctx, c, req, func(ctx context.Context, a channels.LifecycleAdapter) error {
		return a.Start(ctx)
	})
}

func handleChannelsStop(ctx context.Context, c *connection, req Request) {
	channelLifecycle(ctx, c, req, func(ctx context.Context, a channels.LifecycleAdapter) error {
		return a.Stop(ctx)
	})
}

func channelLifecycle(ctx context.Context, c *connection, req Request, fn func(context.Context, channels.LifecycleAdapter) error) {
	var p struct {
		Channel string `json:"channel"`
	}
	if err := decodeParams(req.Params, &p); err != nil || p.Channel == "" {
		c.sendResponse(errorResponse(req.ID, CodeValidation, "channel is required"))
		return
	}
	if c.server.channels == nil {
		c.sendResponse(errorResponse(req.ID, CodeNotFound, "no channels configured"))
		return
	}
	adapter, ok := c.server.channels.Get(models.ChannelType(p.Channel))
	if !ok {
		c.sendResponse(errorResponse(req.ID, CodeNotFound, "unknown channel: "+p.Channel))
		return
	}
	lifecycle, ok := adapter.(channels.LifecycleAdapter)
	if !ok {
		c.sendResponse(errorResponse(req.ID, CodeInvalidRequest, "channel does not support start/stop"))
		return
	}
	if err := fn(ctx, lifecycle); err != nil {
		c.sendResponse(errorResponse(req.ID, CodeInternal, err.Error()))
		return
	}
	c.sendResponse(resultResponse(req.ID, map[string]any{"ok": true}))
}

func handleCronList(ctx context.Context, c *connection, req Request) {
	if c.server.scheduler == nil {
		c.sendResponse(resultResponse(req.ID, []any{}))
		return
	}
	c.sendResponse(resultResponse(req.ID, c.server.scheduler.Jobs()))
}

func handleCronStatus(ctx context.Context, c *connection, req Request) {
	var p struct {
		ID string `json:"id"`
	}
	if err := decodeParams(req.Params, &p); err != nil || p.ID == "" {
		c.sendResponse(errorResponse(req.ID, CodeValidation, "id is required"))
		return
	}
	if c.server.scheduler == nil {
		c.sendResponse(errorResponse(req.ID, CodeNotFound, "cron is not configured"))
		return
	}
	for _, job := range c.server.scheduler.Jobs() {
		if job.ID == p.ID {
			c.sendResponse(resultResponse(req.ID, job))
			return
		}
	}
	c.sendResponse(errorResponse(req.ID, CodeNotFound, "job not found: "+p.ID))
}

func handleCronAdd(ctx context.Context, c *connection, req Request) {
	var cfg config.CronJobConfig
	if err := decodeParams(req.Params, &cfg); err != nil {
		c.sendResponse(errorResponse(req.ID, CodeValidation, "invalid params: "+err.Error()))
		return
	}
	if c.server.scheduler == nil {
		c.sendResponse(errorResponse(req.ID, CodeNotFound, "cron is not configured"))
		return
	}
	job, err := c.server.scheduler.RegisterJob(cfg)
	if err != nil {
		c.sendResponse(errorResponse(req.ID, CodeValidation, err.Error()))
		return
	}
	c.sendResponse(resultResponse(req.ID, job))
}

func handleCronRemove(ctx context.Context, c *connection, req Request) {
	var p struct {
		ID string `json:"id"`
	}
	if err := decodeParams(req.Params, &p); err != nil || p.ID == "" {
		c.sendResponse(errorResponse(req.ID, CodeValidation, "id is required"))
		return
	}
	if c.server.scheduler == nil {
		c.sendResponse(errorResponse(req.ID, CodeNotFound, "cron is not configured"))
		return
	}
	if !c.server.scheduler.UnregisterJob(p.ID) {
		c.sendResponse(errorResponse(req.ID, CodeNotFound, "job not found: "+p.ID))
		return
	}
	c.sendResponse(resultResponse(req.ID, map[string]any{"removed": true}))
}
