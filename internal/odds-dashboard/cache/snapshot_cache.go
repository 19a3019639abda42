package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/radieske/odds-band-dashboard/internal/odds-dashboard/dashboard"
	"github.com/radieske/odds-band-dashboard/internal/odds-dashboard/dto"
)

// SnapshotCache guarda o último dataset bom no Redis com TTL
// Usado para warm start de novas réplicas
type SnapshotCache struct {
	Client *redis.Client
	TTL    time.Duration
}

// NewSnapshotCache cria o cache com TTL configurável
func NewSnapshotCache(c *redis.Client, ttl time.Duration) *SnapshotCache {
	return &SnapshotCache{Client: c, TTL: ttl}
}

// key inclui a faixa de odds para não misturar datasets de configurações diferentes
func key(band dto.OddsRange) string {
	return fmt.Sprintf("odds_band:snapshot:%g-%g", band.Low, band.High)
}

// Set armazena o snapshot serializado em JSON
func (c *SnapshotCache) Set(ctx context.Context, band dto.OddsRange, snap dashboard.Snapshot) error {
	b, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return c.Client.Set(ctx, key(band), b, c.TTL).Err()
}

// Get devolve (snapshot, true) se houver um snapshot válido no Redis
func (c *SnapshotCache) Get(ctx context.Context, band dto.OddsRange) (dashboard.Snapshot, bool, error) {
	var snap dashboard.Snapshot
	b, err := c.Client.Get(ctx, key(band)).Bytes()
	if err == redis.Nil {
		return snap, false, nil
	}
	if err != nil {
		return snap, false, err
	}
	if err := json.Unmarshal(b, &snap); err != nil {
		return snap, false, err
	}
	return snap, true, nil
}
