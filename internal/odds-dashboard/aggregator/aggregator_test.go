package aggregator

import (
	"testing"
	"time"

	"github.com/radieske/odds-band-dashboard/internal/odds-dashboard/dto"
	"github.com/radieske/odds-band-dashboard/internal/odds-dashboard/provider"
)

var kickoff = time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC)

func game(home, away, title string, books ...provider.Bookmaker) provider.Game {
	return provider.Game{
		SportTitle:   title,
		CommenceTime: provider.KickoffTime{Time: kickoff},
		HomeTeam:     home,
		AwayTeam:     away,
		Bookmakers:   books,
	}
}

func book(title string, prices map[string]float64, order ...string) provider.Bookmaker {
	var outs []provider.Outcome
	for _, name := range order {
		outs = append(outs, provider.Outcome{Name: name, Price: prices[name]})
	}
	return provider.Bookmaker{Title: title, Markets: []provider.Market{{Key: "h2h", Outcomes: outs}}}
}

func TestFlattenBandIsInclusive(t *testing.T) {
	band := dto.OddsRange{Low: 1.3, High: 1.6}
	prices := map[string]float64{"low": 1.3, "high": 1.6, "below": 1.29, "above": 1.61, "mid": 1.45}
	g := game("H", "A", "EPL", book("BK", prices, "below", "low", "mid", "high", "above"))

	recs := Flatten([]provider.Game{g}, dto.NewLeague("soccer_epl", "Premier League"), band)
	var teams []string
	for _, r := range recs {
		teams = append(teams, r.Team)
	}
	want := []string{"low", "mid", "high"}
	if len(teams) != len(want) {
		t.Fatalf("teams = %v, want %v", teams, want)
	}
	for i := range want {
		if teams[i] != want[i] {
			t.Errorf("teams = %v, want %v", teams, want)
			break
		}
	}
}

func TestFlattenNestingOrder(t *testing.T) {
	band := dto.OddsRange{Low: 1, High: 10}
	market := func(key string, names ...string) provider.Market {
		m := provider.Market{Key: key}
		for _, n := range names {
			m.Outcomes = append(m.Outcomes, provider.Outcome{Name: n, Price: 2})
		}
		return m
	}
	games := []provider.Game{
		game("G1H", "G1A", "", provider.Bookmaker{Title: "B1", Markets: []provider.Market{
			market("h2h", "g1-b1-m1-o1", "g1-b1-m1-o2"),
			market("h2h_lay", "g1-b1-m2-o1"),
		}}, provider.Bookmaker{Title: "B2", Markets: []provider.Market{
			market("h2h", "g1-b2-m1-o1"),
		}}),
		game("G2H", "G2A", "", provider.Bookmaker{Title: "B1", Markets: []provider.Market{
			market("h2h", "g2-b1-m1-o1"),
			market("h2h_lay", "g2-b1-m2-o1", "g2-b1-m2-o2"),
		}}),
	}

	recs := Flatten(games, dto.NewLeague("soccer_epl", "Premier League"), band)
	want := []struct{ team, matchup, bookmaker string }{
		{"g1-b1-m1-o1", "G1H vs G1A", "B1"},
		{"g1-b1-m1-o2", "G1H vs G1A", "B1"},
		{"g1-b1-m2-o1", "G1H vs G1A", "B1"},
		{"g1-b2-m1-o1", "G1H vs G1A", "B2"},
		{"g2-b1-m1-o1", "G2H vs G2A", "B1"},
		{"g2-b1-m2-o1", "G2H vs G2A", "B1"},
		{"g2-b1-m2-o2", "G2H vs G2A", "B1"},
	}
	if len(recs) != len(want) {
		t.Fatalf("records = %d, want %d", len(recs), len(want))
	}
	for i, w := range want {
		r := recs[i]
		if r.Team != w.team || r.Matchup != w.matchup || r.Bookmaker != w.bookmaker {
			t.Errorf("record %d = %s/%s/%s, want %s/%s/%s", i, r.Team, r.Matchup, r.Bookmaker, w.team, w.matchup, w.bookmaker)
		}
	}
}

func TestFlattenFields(t *testing.T) {
	band := dto.OddsRange{Low: 1, High: 10}
	g := game("Arsenal", "Chelsea", "EPL",
		book("William Hill", map[string]float64{"Arsenal": 1.4}, "Arsenal"),
		book("Betfair", map[string]float64{"Arsenal": 1.42}, "Arsenal"),
	)

	recs := Flatten([]provider.Game{g}, dto.NewLeague("soccer_epl", "Premier League"), band)
	if len(recs) != 2 {
		t.Fatalf("records = %d, want 2 (no dedup across bookmakers)", len(recs))
	}
	r := recs[0]
	if r.Matchup != "Arsenal vs Chelsea" || r.Team != "Arsenal" || r.Odds != 1.4 ||
		r.Bookmaker != "William Hill" || r.League != "Premier League" || !r.CommenceTime.Equal(kickoff) {
		t.Errorf("unexpected record %+v", r)
	}
	if recs[1].Bookmaker != "Betfair" {
		t.Errorf("second record bookmaker = %s, want Betfair", recs[1].Bookmaker)
	}
}

func TestFlattenLeagueFromProvider(t *testing.T) {
	band := dto.OddsRange{Low: 1, High: 10}
	games := []provider.Game{
		game("A", "B", "La Liga - Spain", book("BK", map[string]float64{"A": 2}, "A")),
		game("C", "D", "", book("BK", map[string]float64{"C": 2}, "C")),
	}
	recs := Flatten(games, dto.NewLeague("soccer_spain_la_liga", ""), band)
	if recs[0].League != "La Liga - Spain" {
		t.Errorf("league = %q, want sport_title", recs[0].League)
	}
	if recs[1].League != "soccer_spain_la_liga" {
		t.Errorf("league = %q, want sport key fallback", recs[1].League)
	}
}

func TestAggregate(t *testing.T) {
	band := dto.OddsRange{Low: 1.3, High: 1.6}
	results := []provider.Result{
		{League: dto.NewLeague("a", "League A"), Games: []provider.Game{
			game("H1", "A1", "", book("BK", map[string]float64{"H1": 1.2, "A1": 1.45}, "H1", "A1")),
		}},
		{League: dto.NewLeague("b", "League B"), Games: nil},
		{League: dto.NewLeague("c", "League C"), Games: []provider.Game{
			game("H2", "A2", "", book("BK", map[string]float64{"H2": 1.5, "A2": 3.1}, "H2", "A2")),
		}},
	}
	recs := Aggregate(results, band)
	if len(recs) != 2 {
		t.Fatalf("records = %d, want 2", len(recs))
	}
	if recs[0].League != "League A" || recs[1].League != "League C" {
		t.Errorf("unexpected order %+v", recs)
	}

	empty := Aggregate(nil, band)
	if empty == nil || len(empty) != 0 {
		t.Errorf("Aggregate(nil) = %#v, want empty non-nil slice", empty)
	}
}
