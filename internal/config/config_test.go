package config

import (
	"testing"
	"time"

	"ConcertSync/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{Port: 8080, Mode: "release"},
		Sync: SyncConfig{
			Countries:             "US,CA",
			PastRetentionDays:     90,
			FutureRetentionMonths: 18,
			Interval:              6 * time.Hour,
			RunTimeout:            2 * time.Hour,
			EnabledSources:        []string{"ticketmaster"},
		},
		Sources: map[string]SourceConfig{
			"ticketmaster": {
				BaseURL:       "https://app.ticketmaster.com/discovery/v2",
				APIKey:        "key",
				Timeout:       30,
				PageSize:      100,
				PageHardLimit: 1000,
			},
		},
	}
}

func TestCountryList(t *testing.T) {
	s := SyncConfig{Countries: " US, CA ,,DE "}
	assert.Equal(t, []string{"US", "CA", "DE"}, s.CountryList())

	s.Countries = ""
	assert.Empty(t, s.CountryList())
}

func TestValidateAcceptsCompleteConfig(t *testing.T) {
	require.NoError(t, validConfig().Validate())
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"空国家列表", func(c *Config) { c.Sync.Countries = " , " }, "sync.countries"},
		{"保留天数为0", func(c *Config) { c.Sync.PastRetentionDays = 0 }, "sync.past_retention_days"},
		{"未来月数为负", func(c *Config) { c.Sync.FutureRetentionMonths = -1 }, "sync.future_retention_months"},
		{"调度间隔为0", func(c *Config) { c.Sync.Interval = 0 }, "sync.interval"},
		{"单轮超时为0", func(c *Config) { c.Sync.RunTimeout = 0 }, "sync.run_timeout"},
		{"未启用任何票务源", func(c *Config) { c.Sync.EnabledSources = nil }, "sync.enabled_sources"},
		{"启用的源缺少配置段", func(c *Config) { c.Sync.EnabledSources = []string{"missing"} }, "sources.missing"},
		{"页大小为0", func(c *Config) {
			src := c.Sources["ticketmaster"]
			src.PageSize = 0
			c.Sources["ticketmaster"] = src
		}, "sources.ticketmaster.page_size"},
		{"分页硬上限为0", func(c *Config) {
			src := c.Sources["ticketmaster"]
			src.PageHardLimit = 0
			c.Sources["ticketmaster"] = src
		}, "sources.ticketmaster.page_hard_limit"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)

			var cfgErr *model.ConfigurationError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tc.field, cfgErr.Field)
		})
	}
}

func TestOverrideFromEnv(t *testing.T) {
	t.Setenv("TICKETMASTER_API_KEY", "env-key")
	t.Setenv("TICKETMASTER_PROXY", "http://proxy.local:8888")
	t.Setenv("POSTGRES_DSN", "host=db user=app dbname=concert_sync")

	cfg := validConfig()
	overrideFromEnv(cfg)

	assert.Equal(t, "env-key", cfg.Sources["ticketmaster"].APIKey)
	assert.Equal(t, "http://proxy.local:8888", cfg.Sources["ticketmaster"].Proxy)
	assert.Equal(t, "host=db user=app dbname=concert_sync", cfg.Postgres.DSN)
}
