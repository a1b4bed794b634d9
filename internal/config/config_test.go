package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8*time.Second, cfg.Scraper.DelayBase)
	assert.Equal(t, 7*time.Second, cfg.Scraper.DelayJitter)
	assert.False(t, cfg.Scraper.FailClosedBotCheck)
	assert.Equal(t, []string{"30328", "10001", "60614"}, cfg.Walmart.Zips)
	assert.Equal(t, 12, cfg.Product.ExpectedCount)

	require.NoError(t, cfg.Validate())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("SCRAPER_DELAY_BASE", "2s")
	t.Setenv("SCRAPER_FAIL_CLOSED_BOT_CHECK", "true")
	t.Setenv("WALMART_ZIPS", "30328, 94103")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 2*time.Second, cfg.Scraper.DelayBase)
	assert.True(t, cfg.Scraper.FailClosedBotCheck)
	assert.Equal(t, []string{"30328", "94103"}, cfg.Walmart.Zips)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "negative delay",
			mutate:  func(c *Config) { c.Scraper.DelayBase = -time.Second },
			wantErr: "delays",
		},
		{
			name:    "missing product url",
			mutate:  func(c *Config) { c.Walmart.ProductURL = "" },
			wantErr: "WALMART_PRODUCT_URL",
		},
		{
			name:    "no regions",
			mutate:  func(c *Config) { c.Walmart.Zips = nil },
			wantErr: "WALMART_ZIPS",
		},
		{
			name:    "zero expected count",
			mutate:  func(c *Config) { c.Product.ExpectedCount = 0 },
			wantErr: "PRODUCT_EXPECTED_COUNT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load()
			require.NoError(t, err)

			tt.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.wantErr)
		})
	}
}
