package dto

import "time"

// OddsRange é o intervalo decimal inclusivo usado para selecionar as odds "seguras"
type OddsRange struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// Contains testa Low <= odds <= High sem arredondamento
func (r OddsRange) Contains(odds float64) bool {
	return odds >= r.Low && odds <= r.High
}

// BetRecord é a unidade achatada e filtrada exibida no dashboard
// Imutável depois de produzida
type BetRecord struct {
	Matchup      string    `json:"matchup"` // "{home} vs {away}"
	Team         string    `json:"team"`
	Odds         float64   `json:"odds"`
	Bookmaker    string    `json:"bookmaker"`
	League       string    `json:"league"`
	CommenceTime time.Time `json:"commenceTime"`
}
