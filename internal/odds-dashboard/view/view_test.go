package view

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/radieske/odds-band-dashboard/internal/odds-dashboard/dto"
)

var t0 = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

func rec(team string, odds float64, bookmaker, league string, hours int) dto.BetRecord {
	return dto.BetRecord{
		Matchup:      team + " vs X",
		Team:         team,
		Odds:         odds,
		Bookmaker:    bookmaker,
		League:       league,
		CommenceTime: t0.Add(time.Duration(hours) * time.Hour),
	}
}

func dataset() []dto.BetRecord {
	return []dto.BetRecord{
		rec("a", 1.50, "Sky Bet", "EPL", 3),
		rec("b", 1.35, "Betfair", "La Liga", 1),
		rec("c", 1.50, "betway", "EPL", 1),
		rec("d", 1.40, "Betfair", "EPL", 2),
		rec("e", 1.35, "Paddy Power", "La Liga", 3),
	}
}

func teams(recs []dto.BetRecord) string {
	s := ""
	for _, r := range recs {
		s += r.Team
	}
	return s
}

func TestSort(t *testing.T) {
	tests := []struct {
		key  SortKey
		want string
	}{
		{SortNone, "abcde"},
		{SortTime, "bcdae"},
		{SortOdds, "bedac"},
		// maiúsculas antes de minúsculas; empates mantêm a ordem original
		{SortBookmaker, "bdeac"},
	}
	for _, tt := range tests {
		t.Run(string(tt.key), func(t *testing.T) {
			in := dataset()
			got := Sort(in, tt.key)
			if teams(got) != tt.want {
				t.Errorf("Sort(%q) = %s, want %s", tt.key, teams(got), tt.want)
			}
			if teams(in) != "abcde" {
				t.Error("Sort modified its input")
			}
		})
	}
}

func TestSortEdgeCases(t *testing.T) {
	single := []dto.BetRecord{rec("a", 1.5, "Sky Bet", "EPL", 1)}
	for _, key := range []SortKey{SortNone, SortTime, SortOdds, SortBookmaker} {
		t.Run(string(key), func(t *testing.T) {
			if got := Sort(nil, key); len(got) != 0 {
				t.Errorf("Sort(nil) = %v, want empty", got)
			}
			if got := Sort([]dto.BetRecord{}, key); len(got) != 0 {
				t.Errorf("Sort(empty) = %v, want empty", got)
			}
			if got := Sort(single, key); teams(got) != "a" {
				t.Errorf("Sort(single) = %s, want a", teams(got))
			}

			once := Sort(dataset(), key)
			twice := Sort(once, key)
			if teams(once) != teams(twice) {
				t.Errorf("not idempotent: %s then %s", teams(once), teams(twice))
			}
		})
	}
}

func TestSortNonDecreasing(t *testing.T) {
	tests := []struct {
		key  SortKey
		less func(a, b dto.BetRecord) bool
	}{
		{SortTime, func(a, b dto.BetRecord) bool { return b.CommenceTime.Before(a.CommenceTime) }},
		{SortOdds, func(a, b dto.BetRecord) bool { return b.Odds < a.Odds }},
		{SortBookmaker, func(a, b dto.BetRecord) bool { return b.Bookmaker < a.Bookmaker }},
	}
	for _, tt := range tests {
		got := Sort(dataset(), tt.key)
		for i := 1; i < len(got); i++ {
			if tt.less(got[i-1], got[i]) {
				t.Errorf("%s: position %d out of order (%+v before %+v)", tt.key, i, got[i-1], got[i])
			}
		}
	}
}

func TestParseSortKey(t *testing.T) {
	for in, want := range map[string]SortKey{"": SortNone, "none": SortNone, "TIME": SortTime, " odds ": SortOdds, "bookmaker": SortBookmaker} {
		got, err := ParseSortKey(in)
		if err != nil || got != want {
			t.Errorf("ParseSortKey(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseSortKey("league"); !errors.Is(err, ErrInvalidSortKey) {
		t.Errorf("expected ErrInvalidSortKey, got %v", err)
	}
}

func TestFilterByLeague(t *testing.T) {
	if got := teams(FilterByLeague(dataset(), "EPL")); got != "acd" {
		t.Errorf("EPL = %s, want acd", got)
	}
	if got := teams(FilterByLeague(dataset(), "Serie A")); got != "" {
		t.Errorf("unknown league = %s, want empty", got)
	}
	for _, l := range []string{"", AllLeagues} {
		if got := teams(FilterByLeague(dataset(), l)); got != "abcde" {
			t.Errorf("%q = %s, want abcde", l, got)
		}
	}
}

func TestFilterByDateRange(t *testing.T) {
	tests := []struct {
		name       string
		start, end time.Time
		want       string
	}{
		{"inclusive bounds", t0.Add(1 * time.Hour), t0.Add(2 * time.Hour), "bcd"},
		{"open start", time.Time{}, t0.Add(1 * time.Hour), "bc"},
		{"open end", t0.Add(3 * time.Hour), time.Time{}, "ae"},
		{"both open", time.Time{}, time.Time{}, "abcde"},
		{"empty window", t0.Add(4 * time.Hour), t0.Add(5 * time.Hour), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := teams(FilterByDateRange(dataset(), tt.start, tt.end)); got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestComputeStake(t *testing.T) {
	tests := []struct {
		balance string
		pct     int
		want    string
	}{
		{"1000", 5, "50.00"},
		{"0", 50, "0.00"},
		{"1000", 100, "1000.00"},
		{"33.33", 1, "0.33"},
		{"0.5", 1, "0.01"}, // 0.005 arredonda para cima
		{"123.45", 17, "20.99"},
	}
	for _, tt := range tests {
		got := ComputeStake(decimal.RequireFromString(tt.balance), tt.pct).StringFixed(2)
		if got != tt.want {
			t.Errorf("ComputeStake(%s, %d) = %s, want %s", tt.balance, tt.pct, got, tt.want)
		}
	}
}

func TestComputeStakeMonotonic(t *testing.T) {
	balance := decimal.RequireFromString("987.65")
	prev := decimal.Zero
	for pct := 1; pct <= 100; pct++ {
		s := ComputeStake(balance, pct)
		if s.LessThan(prev) {
			t.Fatalf("stake decreased at %d%%: %s < %s", pct, s, prev)
		}
		prev = s
	}
	if !prev.Equal(balance) {
		t.Errorf("100%% stake = %s, want %s", prev, balance)
	}
}

func TestDerive(t *testing.T) {
	s := State{
		SortKey:         SortOdds,
		League:          "EPL",
		DateRange:       &DateRange{Start: t0.Add(2 * time.Hour)},
		StakePercentage: 5,
	}
	if got := teams(Derive(dataset(), s)); got != "da" {
		t.Errorf("Derive = %s, want da", got)
	}
}

func TestStateValidate(t *testing.T) {
	ok := State{StakePercentage: 5, Balance: decimal.NewFromInt(10)}
	if err := ok.Validate(); err != nil {
		t.Fatalf("valid state: %v", err)
	}
	tests := []struct {
		name string
		edit func(*State)
		want error
	}{
		{"sort", func(s *State) { s.SortKey = "x" }, ErrInvalidSortKey},
		{"pct", func(s *State) { s.StakePercentage = 0 }, ErrStakePercentage},
		{"balance", func(s *State) { s.Balance = decimal.NewFromInt(-1) }, ErrNegativeBalance},
		{"range", func(s *State) { s.DateRange = &DateRange{Start: t0, End: t0.Add(-time.Hour)} }, ErrInvalidDateRange},
	}
	for _, tt := range tests {
		s := ok
		tt.edit(&s)
		if err := s.Validate(); !errors.Is(err, tt.want) {
			t.Errorf("%s: got %v, want %v", tt.name, err, tt.want)
		}
	}
}
