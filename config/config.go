package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	env "github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const (
	// DefaultConfigFile is the YAML file Load looks for in the working
	// directory when no explicit source is given.
	DefaultConfigFile = "httpclient.yaml"

	envPrefix = "HTTPCLIENT_"
)

// Load builds a ClientConfig from built-in defaults, an optional
// httpclient.yaml in the working directory, and HTTPCLIENT_* environment
// variables, in ascending order of precedence.
func Load() (*ClientConfig, error) {
	return load("", nil)
}

// LoadFromPath is Load with an explicit YAML file. Unlike Load, a missing
// file is an error.
func LoadFromPath(path string) (*ClientConfig, error) {
	return load(path, nil)
}

// LoadFromBytes is Load with raw YAML content instead of a file.
func LoadFromBytes(raw []byte) (*ClientConfig, error) {
	return load("", raw)
}

func load(path string, raw []byte) (*ClientConfig, error) {
	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	switch {
	case raw != nil:
		if err := k.Load(rawbytes.Provider(raw), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to parse config bytes: %w", err)
		}
	case path != "":
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	default:
		if _, err := os.Stat(DefaultConfigFile); err == nil {
			if err := k.Load(file.Provider(DefaultConfigFile), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("failed to load config file %s: %w", DefaultConfigFile, err)
			}
		}
	}

	if err := loadEnv(k); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &ClientConfig{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.k = k

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func loadDefaults(k *koanf.Koanf) error {
	defaults := map[string]any{
		"timeout":      "30s",
		"retry.max":    0,
		"retry.delay":  "1s",
		"rate.limit":   0.0,
		"rate.burst":   1,
		"log.payloads": false,
		"log.maxbytes": 1024,
		"trace.header": "X-Request-ID",
		"trace.w3c":    false,

		"transport.dial.timeout":           "30s",
		"transport.dial.keepalive":         "30s",
		"transport.tls.timeout":            "10s",
		"transport.responseheader.timeout": "0s",
		"transport.idle.timeout":           "90s",
		"transport.idle.maxconns":          100,
		"transport.idle.maxconnsperhost":   0,
	}
	return k.Load(confmap.Provider(defaults, "."), nil)
}

// loadEnv maps HTTPCLIENT_RETRY_MAX style variables onto retry.max style
// keys. Key segments are single words, so the underscore-to-dot rewrite is
// unambiguous.
func loadEnv(k *koanf.Koanf) error {
	return k.Load(env.Provider(".", env.Opt{
		Prefix: envPrefix,
		TransformFunc: func(key, value string) (string, any) {
			key = strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(key, envPrefix)), "_", ".")
			return key, value
		},
	}), nil)
}
