package config

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ConfigError indica configuração inválida detectada na inicialização (fatal)
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %s", e.Field, e.Reason)
}

// Validate verifica os parâmetros exigidos pelo odds-dashboard
// Retorna o primeiro *ConfigError encontrado
func (c Config) Validate() error {
	if strings.TrimSpace(c.OddsAPIKey) == "" {
		return &ConfigError{Field: "ODDS_API_KEY", Reason: "missing credential"}
	}
	if c.OddsAPIBaseURL == "" {
		return &ConfigError{Field: "ODDS_API_BASE_URL", Reason: "empty"}
	}
	if len(c.Leagues) == 0 {
		return &ConfigError{Field: "SPORT_KEYS", Reason: "no sport keys configured"}
	}
	seen := make(map[string]struct{}, len(c.Leagues))
	for _, l := range c.Leagues {
		if _, dup := seen[l.Key]; dup {
			return &ConfigError{Field: "SPORT_KEYS", Reason: "duplicate sport key " + l.Key}
		}
		seen[l.Key] = struct{}{}
	}
	if c.OddsRangeLow <= 0 || c.OddsRangeHigh < c.OddsRangeLow {
		return &ConfigError{
			Field:  "ODDS_RANGE_LOW/ODDS_RANGE_HIGH",
			Reason: fmt.Sprintf("invalid range [%g, %g]", c.OddsRangeLow, c.OddsRangeHigh),
		}
	}
	bal, err := decimal.NewFromString(c.InitialBalance)
	if err != nil {
		return &ConfigError{Field: "INITIAL_BALANCE", Reason: err.Error()}
	}
	if bal.IsNegative() {
		return &ConfigError{Field: "INITIAL_BALANCE", Reason: "must be non-negative"}
	}
	if c.DefaultStakePercentage < 1 || c.DefaultStakePercentage > 100 {
		return &ConfigError{Field: "DEFAULT_STAKE_PERCENTAGE", Reason: "must be between 1 and 100"}
	}
	switch c.DefaultSort {
	case "", "none", "time", "odds", "bookmaker":
	default:
		return &ConfigError{Field: "DEFAULT_SORT", Reason: "unknown sort key " + c.DefaultSort}
	}
	switch c.FetchPolicy {
	case PolicyFailFast, PolicyBestEffort:
	default:
		return &ConfigError{Field: "FETCH_POLICY", Reason: "unknown policy " + c.FetchPolicy}
	}
	if c.FetchTimeout <= 0 {
		return &ConfigError{Field: "FETCH_TIMEOUT", Reason: "must be positive"}
	}
	if c.FetchConcurrency < 1 {
		return &ConfigError{Field: "FETCH_CONCURRENCY", Reason: "must be at least 1"}
	}
	return nil
}
