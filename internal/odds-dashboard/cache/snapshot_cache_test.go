package cache

import (
	"testing"

	"github.com/radieske/odds-band-dashboard/internal/odds-dashboard/dto"
)

func TestKeyDependsOnBand(t *testing.T) {
	a := key(dto.OddsRange{Low: 1.3, High: 1.6})
	b := key(dto.OddsRange{Low: 1.3, High: 1.7})
	if a != "odds_band:snapshot:1.3-1.6" {
		t.Errorf("key = %q", a)
	}
	if a == b {
		t.Error("different bands share a cache key")
	}
}
