package provider

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Game é um jogo retornado por /sports/{sport}/odds
type Game struct {
	ID           string      `json:"id"`
	SportKey     string      `json:"sport_key"`
	SportTitle   string      `json:"sport_title"`
	CommenceTime KickoffTime `json:"commence_time"`
	HomeTeam     string      `json:"home_team"`
	AwayTeam     string      `json:"away_team"`
	Bookmakers   []Bookmaker `json:"bookmakers"`
}

// Bookmaker agrupa os mercados de uma casa de apostas
type Bookmaker struct {
	Key     string   `json:"key"`
	Title   string   `json:"title"`
	Markets []Market `json:"markets"`
}

// Market é um mercado (ex: "h2h") com suas seleções
type Market struct {
	Key      string    `json:"key"`
	Outcomes []Outcome `json:"outcomes"`
}

// Outcome é uma seleção com preço decimal
type Outcome struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// KickoffTime aceita epoch em segundos (número ou string de dígitos) e strings RFC 3339
// Normaliza sempre para time.Time em UTC
type KickoffTime struct {
	time.Time
}

func (k *KickoffTime) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if raw == "" || raw == "null" {
		return fmt.Errorf("commence_time: missing value")
	}

	if raw[0] != '"' {
		t, err := parseEpoch(raw)
		if err != nil {
			return fmt.Errorf("commence_time: %w", err)
		}
		k.Time = t
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("commence_time: %w", err)
	}
	s = strings.TrimSpace(s)
	if isDigits(s) {
		t, err := parseEpoch(s)
		if err != nil {
			return fmt.Errorf("commence_time: %w", err)
		}
		k.Time = t
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return fmt.Errorf("commence_time: %w", err)
	}
	k.Time = t.UTC()
	return nil
}

func (k KickoffTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.Time.UTC().Format(time.RFC3339))
}

func parseEpoch(s string) (time.Time, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return time.Time{}, err
	}
	// fora do intervalo de int64 a conversão de segundos perde o valor
	if math.IsNaN(f) || math.IsInf(f, 0) || f < math.MinInt64 || f >= math.MaxInt64 {
		return time.Time{}, fmt.Errorf("invalid epoch %q", s)
	}
	sec, frac := math.Modf(f)
	return time.Unix(int64(sec), int64(frac*1e9)).UTC(), nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
