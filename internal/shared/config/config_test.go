package config

import (
	"errors"
	"testing"
	"time"
)

func TestParseLeagues(t *testing.T) {
	got := ParseLeagues(" soccer_epl=Premier League , soccer_spain_la_liga,,=Orphan ")
	want := []League{
		{Key: "soccer_epl", Name: "Premier League"},
		{Key: "soccer_spain_la_liga"},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d leagues, want %d: %+v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("league %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func validConfig() Config {
	return Config{
		OddsAPIKey:             "k",
		OddsAPIBaseURL:         "http://localhost:8081/v4",
		Leagues:                []League{{Key: "soccer_epl", Name: "Premier League"}},
		OddsRangeLow:           1.3,
		OddsRangeHigh:          1.6,
		InitialBalance:         "1000",
		DefaultStakePercentage: 5,
		DefaultSort:            "time",
		FetchPolicy:            PolicyFailFast,
		FetchTimeout:           time.Second,
		FetchConcurrency:       2,
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(*Config)
		field string
	}{
		{"ok", func(*Config) {}, ""},
		{"missing key", func(c *Config) { c.OddsAPIKey = "  " }, "ODDS_API_KEY"},
		{"no leagues", func(c *Config) { c.Leagues = nil }, "SPORT_KEYS"},
		{"duplicate league", func(c *Config) {
			c.Leagues = append(c.Leagues, League{Key: "soccer_epl"})
		}, "SPORT_KEYS"},
		{"inverted range", func(c *Config) { c.OddsRangeLow, c.OddsRangeHigh = 2, 1.5 }, "ODDS_RANGE_LOW/ODDS_RANGE_HIGH"},
		{"zero low", func(c *Config) { c.OddsRangeLow = 0 }, "ODDS_RANGE_LOW/ODDS_RANGE_HIGH"},
		{"single point range", func(c *Config) { c.OddsRangeLow, c.OddsRangeHigh = 1.5, 1.5 }, ""},
		{"bad balance", func(c *Config) { c.InitialBalance = "abc" }, "INITIAL_BALANCE"},
		{"negative balance", func(c *Config) { c.InitialBalance = "-1" }, "INITIAL_BALANCE"},
		{"stake zero", func(c *Config) { c.DefaultStakePercentage = 0 }, "DEFAULT_STAKE_PERCENTAGE"},
		{"stake over", func(c *Config) { c.DefaultStakePercentage = 101 }, "DEFAULT_STAKE_PERCENTAGE"},
		{"bad sort", func(c *Config) { c.DefaultSort = "league" }, "DEFAULT_SORT"},
		{"bad policy", func(c *Config) { c.FetchPolicy = "retry" }, "FETCH_POLICY"},
		{"zero timeout", func(c *Config) { c.FetchTimeout = 0 }, "FETCH_TIMEOUT"},
		{"zero concurrency", func(c *Config) { c.FetchConcurrency = 0 }, "FETCH_CONCURRENCY"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.edit(&c)
			err := c.Validate()
			if tt.field == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var ce *ConfigError
			if !errors.As(err, &ce) {
				t.Fatalf("expected *ConfigError, got %v", err)
			}
			if ce.Field != tt.field {
				t.Errorf("field = %q, want %q", ce.Field, tt.field)
			}
		})
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SERVICE_NAME", "odds-provider-simulator")
	t.Setenv("SPORT_KEYS", "soccer_epl=Premier League,soccer_brazil_campeonato")
	t.Setenv("ODDS_RANGE_LOW", "1.25")
	t.Setenv("FETCH_TIMEOUT", "not-a-duration")

	c := Load()
	if c.HTTPPort != "8081" || c.MetricsPort != "9094" {
		t.Errorf("ports = %s/%s, want 8081/9094", c.HTTPPort, c.MetricsPort)
	}
	if len(c.Leagues) != 2 || c.Leagues[1].Name != "" {
		t.Errorf("leagues = %+v", c.Leagues)
	}
	if c.OddsRangeLow != 1.25 {
		t.Errorf("low = %v, want 1.25", c.OddsRangeLow)
	}
	if c.FetchTimeout != 10*time.Second {
		t.Errorf("timeout fallback = %v, want 10s", c.FetchTimeout)
	}
}
