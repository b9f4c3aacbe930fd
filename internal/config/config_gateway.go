package config

// GatewayConfig configures the RPC gateway's listening surface, auth, and
// routing behavior (C11/C13), per §6.
type GatewayConfig struct {
	// Port is the TCP port the gateway listens on.
	Port int `yaml:"port"`
	// Bind determines which interface the gateway binds: loopback, lan, or
	// custom (Host must then be set).
	Bind string `yaml:"bind"`
	Host string `yaml:"host"`

	Auth           GatewayAuthConfig `yaml:"auth"`
	TLS            GatewayTLSConfig  `yaml:"tls"`
	TrustedProxies []string          `yaml:"trusted_proxies"`

	Broadcast BroadcastConfig `yaml:"broadcast"`
	Commands  CommandsConfig  `yaml:"commands"`
}

// GatewayAuthConfig configures the gateway's token auth (§4.8). This is the
// single bootstrap token compared against inbound WebSocket/HTTP requests —
// distinct from the multi-user JWT/API-key auth in AuthConfig.
type GatewayAuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// GatewayTLSConfig configures the gateway's TLS material. When Enabled and
// CertPath/KeyPath are unset, the gateway bootstraps a self-signed cert.
type GatewayTLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertPath string `yaml:"cert_path"`
	KeyPath  string `yaml:"key_path"`
}

// CommandsConfig configures gateway slash-command handling.
type CommandsConfig struct {
	// Enabled toggles text command handling. Defaults to true.
	Enabled *bool `yaml:"enabled"`

	// AllowFrom restricts command-only messages by channel/provider.
	// Example: {"telegram": ["12345", "67890"], "discord": ["*"]}
	AllowFrom map[string][]string `yaml:"allow_from"`
}

// BroadcastConfig configures broadcast groups for message routing.
type BroadcastConfig struct {
	// Strategy defines how messages are processed: "parallel" or "sequential".
	Strategy string `yaml:"strategy"`

	// Groups maps peer_id to a list of agent_ids that should process messages.
	Groups map[string][]string `yaml:"groups"`
}
