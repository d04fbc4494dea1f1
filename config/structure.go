package config

import (
	"time"

	"github.com/knadh/koanf/v2"
)

// ClientConfig is the root configuration for an HTTP client. Fields map
// one-to-one onto builder options; zero values fall back to the client
// defaults.
type ClientConfig struct {
	Timeout   time.Duration     `koanf:"timeout" validate:"gte=0"`
	Retry     RetryConfig       `koanf:"retry"`
	Rate      RateConfig        `koanf:"rate"`
	Auth      AuthConfig        `koanf:"auth"`
	Headers   map[string]string `koanf:"headers" validate:"omitempty,dive,keys,header_name,endkeys"`
	Log       LogConfig         `koanf:"log"`
	Trace     TraceConfig       `koanf:"trace"`
	Transport TransportConfig   `koanf:"transport"`

	k *koanf.Koanf `json:"-" yaml:"-" toml:"-" mapstructure:"-"`
}

// RetryConfig controls the retry behavior for failed requests.
type RetryConfig struct {
	Max   int           `koanf:"max" validate:"gte=0"`
	Delay time.Duration `koanf:"delay" validate:"gte=0"`
}

// RateConfig caps the client-side request rate. A zero limit disables
// rate limiting.
type RateConfig struct {
	Limit float64 `koanf:"limit" validate:"gte=0"`
	Burst int     `koanf:"burst" validate:"gte=0"`
}

// AuthConfig holds credentials applied to outgoing requests. Basic auth
// takes precedence over the bearer token when both are set.
type AuthConfig struct {
	Username    string `koanf:"username"`
	Password    string `koanf:"password"`
	BearerToken string `koanf:"bearer"`
}

// LogConfig controls payload logging.
type LogConfig struct {
	Payloads        bool `koanf:"payloads"`
	MaxPayloadBytes int  `koanf:"maxbytes" validate:"gte=0"`
}

// TraceConfig controls trace header propagation.
type TraceConfig struct {
	IDHeader  string `koanf:"header" validate:"omitempty,header_name"`
	EnableW3C bool   `koanf:"w3c"`
}
