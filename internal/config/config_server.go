package config

// ServerConfig configures the gateway's listening surfaces (§6).
type ServerConfig struct {
	Host        string `yaml:"host"`
	HTTPPort    int    `yaml:"http_port"`
	MetricsPort int    `yaml:"metrics_port"`

	// TLSCertFile/TLSKeyFile point at a cert bootstrapped on first run
	// when unset. See internal/security for self-signed generation.
	TLSCertFile string `yaml:"tls_cert_file"`
	TLSKeyFile  string `yaml:"tls_key_file"`
}
