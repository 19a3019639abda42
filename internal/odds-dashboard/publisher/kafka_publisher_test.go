package publisher

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/radieske/odds-band-dashboard/internal/odds-dashboard/dashboard"
	"github.com/radieske/odds-band-dashboard/internal/odds-dashboard/dto"
)

func TestEvent(t *testing.T) {
	at := time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC)
	snap := dashboard.Snapshot{
		RefreshID:  "r1",
		FetchedAt:  at,
		Band:       dto.OddsRange{Low: 1.3, High: 1.6},
		SportKeys:  []string{"soccer_epl", "soccer_spain_la_liga"},
		FailedKeys: []string{"soccer_spain_la_liga"},
		Records: []dto.BetRecord{
			{Matchup: "Arsenal vs Chelsea", Team: "Arsenal", Odds: 1.45, Bookmaker: "Sky Bet", League: "Premier League", CommenceTime: at},
		},
	}

	ev := Event(snap, "odds-dashboard")
	if ev.RefreshID != "r1" || ev.RangeLow != 1.3 || ev.RangeHigh != 1.6 || ev.Source != "odds-dashboard" {
		t.Errorf("unexpected event %+v", ev)
	}
	if len(ev.Records) != 1 || ev.Records[0].Team != "Arsenal" || ev.Records[0].Odds != 1.45 {
		t.Errorf("unexpected records %+v", ev.Records)
	}

	b, err := json.Marshal(ev)
	if err != nil {
		t.Fatal(err)
	}
	var raw map[string]any
	_ = json.Unmarshal(b, &raw)
	for _, k := range []string{"refresh_id", "fetched_at", "failed_keys", "records"} {
		if _, ok := raw[k]; !ok {
			t.Errorf("payload missing %q: %s", k, b)
		}
	}
}
