package events

import "time"

// BetRecord é a unidade achatada publicada para consumidores externos
type BetRecord struct {
	Matchup      string    `json:"matchup"`
	Team         string    `json:"team"`
	Odds         float64   `json:"odds"`
	Bookmaker    string    `json:"bookmaker"`
	League       string    `json:"league"`
	CommenceTime time.Time `json:"commence_time"`
}

// Evento publicado no tópico "odds_band_refreshed" após cada refresh bem-sucedido
type OddsBandRefreshed struct {
	RefreshID  string      `json:"refresh_id"`
	FetchedAt  time.Time   `json:"fetched_at"`
	RangeLow   float64     `json:"range_low"`
	RangeHigh  float64     `json:"range_high"`
	SportKeys  []string    `json:"sport_keys"`
	FailedKeys []string    `json:"failed_keys,omitempty"`
	Records    []BetRecord `json:"records"`
	Source     string      `json:"source"` // "odds-dashboard"
}
