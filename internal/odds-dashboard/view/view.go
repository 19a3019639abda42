package view

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/radieske/odds-band-dashboard/internal/odds-dashboard/dto"
)

var (
	ErrInvalidSortKey   = errors.New("invalid sort key")
	ErrStakePercentage  = errors.New("stake percentage must be between 1 and 100")
	ErrNegativeBalance  = errors.New("balance must be non-negative")
	ErrInvalidDateRange = errors.New("date range start is after end")
)

// AllLeagues desativa o filtro de liga (assim como a string vazia)
const AllLeagues = "all"

// SortKey define a ordenação da view
type SortKey string

const (
	SortNone      SortKey = "" // ordem do provedor
	SortTime      SortKey = "time"
	SortOdds      SortKey = "odds"
	SortBookmaker SortKey = "bookmaker"
)

// ParseSortKey aceita "", "none", "time", "odds" e "bookmaker"
func ParseSortKey(s string) (SortKey, error) {
	switch k := SortKey(strings.ToLower(strings.TrimSpace(s))); k {
	case SortNone, SortTime, SortOdds, SortBookmaker:
		return k, nil
	case "none":
		return SortNone, nil
	default:
		return SortNone, fmt.Errorf("%w: %q", ErrInvalidSortKey, s)
	}
}

// DateRange limita o horário de início (inclusivo nas duas pontas)
// Um limite zero fica aberto daquele lado
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (r DateRange) Validate() error {
	if !r.Start.IsZero() && !r.End.IsZero() && r.Start.After(r.End) {
		return ErrInvalidDateRange
	}
	return nil
}

func (r DateRange) Contains(t time.Time) bool {
	if !r.Start.IsZero() && t.Before(r.Start) {
		return false
	}
	if !r.End.IsZero() && t.After(r.End) {
		return false
	}
	return true
}

// State é o estado mutável da view, controlado pela UI
type State struct {
	SortKey         SortKey         `json:"sortKey"`
	League          string          `json:"league"`
	DateRange       *DateRange      `json:"dateRange,omitempty"`
	StakePercentage int             `json:"stakePercentage"`
	Balance         decimal.Decimal `json:"balance"`
}

func (s State) Validate() error {
	if _, err := ParseSortKey(string(s.SortKey)); err != nil {
		return err
	}
	if s.DateRange != nil {
		if err := s.DateRange.Validate(); err != nil {
			return err
		}
	}
	if s.StakePercentage < 1 || s.StakePercentage > 100 {
		return ErrStakePercentage
	}
	if s.Balance.IsNegative() {
		return ErrNegativeBalance
	}
	return nil
}

// Sort devolve uma cópia ordenada de forma estável; a entrada não é alterada
func Sort(records []dto.BetRecord, key SortKey) []dto.BetRecord {
	out := slices.Clone(records)
	switch key {
	case SortTime:
		slices.SortStableFunc(out, func(a, b dto.BetRecord) int {
			return a.CommenceTime.Compare(b.CommenceTime)
		})
	case SortOdds:
		slices.SortStableFunc(out, func(a, b dto.BetRecord) int {
			return cmp.Compare(a.Odds, b.Odds)
		})
	case SortBookmaker:
		// comparação byte a byte, sensível a maiúsculas
		slices.SortStableFunc(out, func(a, b dto.BetRecord) int {
			return strings.Compare(a.Bookmaker, b.Bookmaker)
		})
	}
	return out
}

// FilterByLeague mantém só os registros da liga; "" ou "all" devolve a entrada sem cópia
func FilterByLeague(records []dto.BetRecord, league string) []dto.BetRecord {
	if league == "" || league == AllLeagues {
		return records
	}
	out := make([]dto.BetRecord, 0, len(records))
	for _, r := range records {
		if r.League == league {
			out = append(out, r)
		}
	}
	return out
}

// FilterByDateRange mantém start <= CommenceTime <= end, preservando a ordem
func FilterByDateRange(records []dto.BetRecord, start, end time.Time) []dto.BetRecord {
	rng := DateRange{Start: start, End: end}
	out := make([]dto.BetRecord, 0, len(records))
	for _, r := range records {
		if rng.Contains(r.CommenceTime) {
			out = append(out, r)
		}
	}
	return out
}

// ComputeStake calcula balance * pct / 100 arredondado para 2 casas (metade para longe do zero)
func ComputeStake(balance decimal.Decimal, pct int) decimal.Decimal {
	return balance.Mul(decimal.NewFromInt(int64(pct))).Div(decimal.NewFromInt(100)).Round(2)
}

// Derive produz a view: ordena, depois filtra por liga e por data
// Nunca altera o dataset
func Derive(dataset []dto.BetRecord, s State) []dto.BetRecord {
	out := Sort(dataset, s.SortKey)
	out = FilterByLeague(out, s.League)
	if s.DateRange != nil {
		out = FilterByDateRange(out, s.DateRange.Start, s.DateRange.End)
	}
	return out
}
