package config

import "time"

// Config is the root configuration structure for roomcast.
// Serialised to ~/.roomcast/config.json.
type Config struct {
	Database DatabaseConfig `mapstructure:"database" json:"database"`
	Gateway  GatewayConfig  `mapstructure:"gateway"  json:"gateway"`
	Auth     AuthConfig     `mapstructure:"auth"     json:"auth"`
	Notify   NotifyConfig   `mapstructure:"notify"   json:"notify"`
}

// DatabaseConfig controls the storage backend.
type DatabaseConfig struct {
	// Driver is "sqlite" (default) or "mysql".
	Driver string `mapstructure:"driver" json:"driver"`
	// Path is the SQLite file path (expanded at runtime).
	Path string `mapstructure:"path"   json:"path"`
	// DSN is the MySQL data source name (used when Driver == "mysql").
	DSN string `mapstructure:"dsn"    json:"dsn"`
}

// GatewayConfig controls the HTTP daemon.
type GatewayConfig struct {
	Host string `mapstructure:"host" json:"host"`
	// Port is the HTTP port the gateway listens on (default: 6090).
	Port int `mapstructure:"port" json:"port"`
	// KeepAlive is the cron spec for SSE keep-alive frames ("@every 20s").
	KeepAlive string `mapstructure:"keepalive" json:"keepalive"`
	// CORSOrigins lists browser origins allowed to call the API and open
	// streams. Empty disables CORS headers.
	CORSOrigins []string `mapstructure:"cors_origins" json:"cors_origins"`
}

// AuthConfig controls bearer token verification.
type AuthConfig struct {
	// Secret is the HS256 key shared with whatever issues student tokens.
	Secret   string        `mapstructure:"secret"    json:"secret"`
	TokenTTL time.Duration `mapstructure:"token_ttl" json:"token_ttl"`
}

// NotifyConfig tunes the subscription registry.
type NotifyConfig struct {
	Shards int `mapstructure:"shards" json:"shards"`
	// Buffer is how many undelivered events one connection may hold before it
	// is treated as disconnected.
	Buffer int `mapstructure:"buffer" json:"buffer"`
	// MaxLifetime closes subscriptions after this long; 0 keeps them open.
	MaxLifetime time.Duration `mapstructure:"max_lifetime" json:"max_lifetime"`
	Webhook     WebhookConfig `mapstructure:"webhook"      json:"webhook"`
}

// WebhookConfig mirrors published events to an HTTP endpoint.
type WebhookConfig struct {
	URL string `mapstructure:"url"    json:"url"`
	// Secret enables HMAC-SHA256 signing when non-empty.
	Secret string `mapstructure:"secret" json:"secret"`
}
