package config

// ChannelsConfig configures the channel dock (C12) — one section per supported
// channel family, plus the always-on Webhook and WebChat reserved channels.
type ChannelsConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
	Discord  DiscordConfig  `yaml:"discord"`
	Slack    SlackConfig    `yaml:"slack"`
	WhatsApp WhatsAppConfig `yaml:"whatsapp"`
	Matrix   MatrixConfig   `yaml:"matrix"`
	Teams    TeamsConfig    `yaml:"teams"`
	Webhook  WebhookConfig  `yaml:"webhook"`
	WebChat  WebChatConfig  `yaml:"webchat"`
}

// ChannelPolicyConfig controls sender-auth policy for a channel.
type ChannelPolicyConfig struct {
	// Policy controls access: "open", "allowlist", "pairing", or "disabled".
	Policy string `yaml:"policy"`
	// AllowFrom is a list of sender identifiers allowed for this policy.
	AllowFrom []string `yaml:"allow_from"`
}

// ChannelMarkdownConfig configures markdown processing for a channel.
type ChannelMarkdownConfig struct {
	// Tables specifies how to handle markdown tables: "off", "bullets", or "code".
	Tables string `yaml:"tables"`
}

type TelegramConfig struct {
	Enabled  bool   `yaml:"enabled"`
	BotToken string `yaml:"bot_token"`
	Webhook  string `yaml:"webhook"`

	DM    ChannelPolicyConfig `yaml:"dm"`
	Group ChannelPolicyConfig `yaml:"group"`

	Markdown ChannelMarkdownConfig `yaml:"markdown"`
}

type DiscordConfig struct {
	Enabled  bool   `yaml:"enabled"`
	BotToken string `yaml:"bot_token"`
	AppID    string `yaml:"app_id"`

	DM    ChannelPolicyConfig `yaml:"dm"`
	Group ChannelPolicyConfig `yaml:"group"`

	Markdown ChannelMarkdownConfig `yaml:"markdown"`
}

type SlackConfig struct {
	Enabled           bool   `yaml:"enabled"`
	BotToken          string `yaml:"bot_token"`
	AppToken          string `yaml:"app_token"`
	SigningSecret     string `yaml:"signing_secret"`
	UploadAttachments bool   `yaml:"upload_attachments"`

	DM    ChannelPolicyConfig `yaml:"dm"`
	Group ChannelPolicyConfig `yaml:"group"`

	Markdown ChannelMarkdownConfig `yaml:"markdown"`
}

type WhatsAppConfig struct {
	Enabled      bool   `yaml:"enabled"`
	SessionPath  string `yaml:"session_path"`
	MediaPath    string `yaml:"media_path"`
	SyncContacts bool   `yaml:"sync_contacts"`

	DM    ChannelPolicyConfig `yaml:"dm"`
	Group ChannelPolicyConfig `yaml:"group"`

	Presence WhatsAppPresenceConfig `yaml:"presence"`
	Markdown ChannelMarkdownConfig  `yaml:"markdown"`
}

type WhatsAppPresenceConfig struct {
	SendReadReceipts bool `yaml:"send_read_receipts"`
	SendTyping       bool `yaml:"send_typing"`
	BroadcastOnline  bool `yaml:"broadcast_online"`
}

type MatrixConfig struct {
	Enabled      bool     `yaml:"enabled"`
	Homeserver   string   `yaml:"homeserver"`
	UserID       string   `yaml:"user_id"`
	AccessToken  string   `yaml:"access_token"`
	DeviceID     string   `yaml:"device_id"`
	AllowedRooms []string `yaml:"allowed_rooms"`
	AllowedUsers []string `yaml:"allowed_users"`
	JoinOnInvite bool     `yaml:"join_on_invite"`

	DM    ChannelPolicyConfig `yaml:"dm"`
	Group ChannelPolicyConfig `yaml:"group"`
}

type TeamsConfig struct {
	Enabled      bool   `yaml:"enabled"`
	TenantID     string `yaml:"tenant_id"`
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	WebhookURL   string `yaml:"webhook_url"`
	PollInterval string `yaml:"poll_interval"`

	DM    ChannelPolicyConfig `yaml:"dm"`
	Group ChannelPolicyConfig `yaml:"group"`
}

// WebhookConfig configures the generic inbound webhook channel (§6).
type WebhookConfig struct {
	Enabled bool `yaml:"enabled"`
	// Token is the shared secret required on inbound webhook requests.
	Token string `yaml:"token"`
	// MaxBodyBytes limits the request body size (default: 256KB).
	MaxBodyBytes int64 `yaml:"max_body_bytes"`

	DM    ChannelPolicyConfig `yaml:"dm"`
	Group ChannelPolicyConfig `yaml:"group"`
}

// WebChatConfig configures the embedded WebSocket web-chat channel, whose
// reserved channel id is always "webchat" (§9 Open Question 1).
type WebChatConfig struct {
	Enabled bool `yaml:"enabled"`

	DM ChannelPolicyConfig `yaml:"dm"`
}
