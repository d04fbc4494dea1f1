package config

import (
	"fmt"
	"strings"
	"time"
)

// Typed getters expose raw configuration values beyond the ClientConfig
// fields, for callers that keep application keys in the same file. All
// getters are nil-safe and accept an optional default.

// GetString returns the string at key, or the default when absent.
func (c *ClientConfig) GetString(key string, defaultVal ...string) string {
	if c == nil || c.k == nil || !c.k.Exists(key) {
		return optionalDefault("", defaultVal...)
	}
	return c.k.String(key)
}

// GetInt returns the int at key, or the default when absent.
func (c *ClientConfig) GetInt(key string, defaultVal ...int) int {
	if c == nil || c.k == nil || !c.k.Exists(key) {
		return optionalDefault(0, defaultVal...)
	}
	return c.k.Int(key)
}

// GetFloat64 returns the float64 at key, or the default when absent.
func (c *ClientConfig) GetFloat64(key string, defaultVal ...float64) float64 {
	if c == nil || c.k == nil || !c.k.Exists(key) {
		return optionalDefault(0, defaultVal...)
	}
	return c.k.Float64(key)
}

// GetBool returns the bool at key, or the default when absent.
func (c *ClientConfig) GetBool(key string, defaultVal ...bool) bool {
	if c == nil || c.k == nil || !c.k.Exists(key) {
		return optionalDefault(false, defaultVal...)
	}
	return c.k.Bool(key)
}

// GetDuration returns the duration at key, or the default when absent.
func (c *ClientConfig) GetDuration(key string, defaultVal ...time.Duration) time.Duration {
	if c == nil || c.k == nil || !c.k.Exists(key) {
		return optionalDefault(0, defaultVal...)
	}
	return c.k.Duration(key)
}

// GetRequiredString returns the non-empty string at key or an error.
func (c *ClientConfig) GetRequiredString(key string) (string, error) {
	val := strings.TrimSpace(c.GetString(key))
	if val == "" {
		return "", fmt.Errorf("required configuration key %q is missing or empty", key)
	}
	return val, nil
}

// GetRequiredInt returns the int at key or an error when the key is absent.
func (c *ClientConfig) GetRequiredInt(key string) (int, error) {
	if c == nil || c.k == nil || !c.k.Exists(key) {
		return 0, fmt.Errorf("required configuration key %q is missing", key)
	}
	return c.k.Int(key), nil
}

// Exists reports whether key was present in any configuration source.
func (c *ClientConfig) Exists(key string) bool {
	return c != nil && c.k != nil && c.k.Exists(key)
}

// Unmarshal decodes the subtree at key into out.
func (c *ClientConfig) Unmarshal(key string, out any) error {
	if c == nil || c.k == nil {
		return fmt.Errorf("configuration is not loaded")
	}
	return c.k.Unmarshal(key, out)
}

// Custom returns the free-form custom section, or nil when absent.
func (c *ClientConfig) Custom() map[string]any {
	if c == nil || c.k == nil {
		return nil
	}
	if m, ok := c.k.Get("custom").(map[string]any); ok {
		return m
	}
	return nil
}

func optionalDefault[T any](zero T, overrides ...T) T {
	if len(overrides) > 0 {
		return overrides[0]
	}
	return zero
}
