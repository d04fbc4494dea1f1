package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadGetterConfig(t *testing.T) *ClientConfig {
	t.Helper()

	cfg, err := LoadFromBytes([]byte(`
timeout: 5s
custom:
  service: billing
  pagesize: 25
  ratio: 0.75
  enabled: true
  window: 90s
  blank: "  "
  endpoint:
    url: https://api.example.com
    retries: 2
`))
	require.NoError(t, err)
	return cfg
}

func TestTypedGetters(t *testing.T) {
	cfg := loadGetterConfig(t)

	t.Run("string", func(t *testing.T) {
		assert.Equal(t, "billing", cfg.GetString("custom.service"))
		assert.Equal(t, "", cfg.GetString("custom.missing"))
		assert.Equal(t, "fallback", cfg.GetString("custom.missing", "fallback"))
	})

	t.Run("int", func(t *testing.T) {
		assert.Equal(t, 25, cfg.GetInt("custom.pagesize"))
		assert.Equal(t, 10, cfg.GetInt("custom.missing", 10))
	})

	t.Run("float64", func(t *testing.T) {
		assert.Equal(t, 0.75, cfg.GetFloat64("custom.ratio"))
		assert.Equal(t, 1.5, cfg.GetFloat64("custom.missing", 1.5))
	})

	t.Run("bool", func(t *testing.T) {
		assert.True(t, cfg.GetBool("custom.enabled"))
		assert.True(t, cfg.GetBool("custom.missing", true))
		assert.False(t, cfg.GetBool("custom.missing"))
	})

	t.Run("duration", func(t *testing.T) {
		assert.Equal(t, 90*time.Second, cfg.GetDuration("custom.window"))
		assert.Equal(t, 5*time.Second, cfg.GetDuration("custom.missing", 5*time.Second))
	})

	t.Run("exists", func(t *testing.T) {
		assert.True(t, cfg.Exists("custom.service"))
		assert.False(t, cfg.Exists("custom.missing"))
	})
}

func TestRequiredGetters(t *testing.T) {
	cfg := loadGetterConfig(t)

	val, err := cfg.GetRequiredString("custom.service")
	require.NoError(t, err)
	assert.Equal(t, "billing", val)

	_, err = cfg.GetRequiredString("custom.missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required configuration key")

	_, err = cfg.GetRequiredString("custom.blank")
	require.Error(t, err, "whitespace-only values count as missing")

	n, err := cfg.GetRequiredInt("custom.pagesize")
	require.NoError(t, err)
	assert.Equal(t, 25, n)

	_, err = cfg.GetRequiredInt("custom.missing")
	require.Error(t, err)
}

func TestUnmarshalSubtree(t *testing.T) {
	cfg := loadGetterConfig(t)

	var endpoint struct {
		URL     string `koanf:"url"`
		Retries int    `koanf:"retries"`
	}
	require.NoError(t, cfg.Unmarshal("custom.endpoint", &endpoint))
	assert.Equal(t, "https://api.example.com", endpoint.URL)
	assert.Equal(t, 2, endpoint.Retries)
}

func TestCustomSection(t *testing.T) {
	cfg := loadGetterConfig(t)

	custom := cfg.Custom()
	require.NotNil(t, custom)
	assert.Equal(t, "billing", custom["service"])

	empty, err := LoadFromBytes([]byte("timeout: 1s\n"))
	require.NoError(t, err)
	assert.Nil(t, empty.Custom())
}

func TestGettersNilSafety(t *testing.T) {
	var cfg *ClientConfig

	assert.Equal(t, "fallback", cfg.GetString("any", "fallback"))
	assert.Equal(t, 0, cfg.GetInt("any"))
	assert.False(t, cfg.Exists("any"))
	assert.Nil(t, cfg.Custom())

	_, err := cfg.GetRequiredString("any")
	assert.Error(t, err)

	err = cfg.Unmarshal("any", &struct{}{})
	assert.Error(t, err)

	unloaded := &ClientConfig{}
	assert.Equal(t, "fallback", unloaded.GetString("any", "fallback"))
	assert.False(t, unloaded.Exists("any"))
}
