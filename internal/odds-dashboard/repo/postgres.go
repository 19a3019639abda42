package repo

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"

	"github.com/radieske/odds-band-dashboard/internal/odds-dashboard/dashboard"
	"github.com/radieske/odds-band-dashboard/internal/odds-dashboard/dto"
)

// RefreshSummary é uma linha de odds_band_refreshes
type RefreshSummary struct {
	RefreshID   string    `json:"refreshId"`
	FetchedAt   time.Time `json:"fetchedAt"`
	RangeLow    float64   `json:"rangeLow"`
	RangeHigh   float64   `json:"rangeHigh"`
	RecordCount int       `json:"recordCount"`
	FailedKeys  []string  `json:"failedKeys,omitempty"`
}

// HistoryRepo registra o histórico de refreshes no Postgres
type HistoryRepo struct {
	DB *sql.DB
}

// NewHistoryRepo retorna uma instância de repositório Postgres
func NewHistoryRepo(db *sql.DB) *HistoryRepo {
	return &HistoryRepo{DB: db}
}

// SaveRefresh grava o resumo e os registros de um refresh numa única transação
// Os registros são copiados em lote (COPY) preservando a posição no dataset
func (r *HistoryRepo) SaveRefresh(ctx context.Context, snap dashboard.Snapshot) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	failed := snap.FailedKeys
	if failed == nil {
		failed = []string{} // pq.Array(nil) vira NULL
	}

	const q = `
		INSERT INTO odds_band_refreshes
		  (refresh_id, fetched_at, range_low, range_high, record_count, failed_keys)
		VALUES
		  ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (refresh_id) DO NOTHING
	`
	if _, err := tx.ExecContext(ctx, q,
		snap.RefreshID, snap.FetchedAt, snap.Band.Low, snap.Band.High,
		len(snap.Records), pq.Array(failed),
	); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, pq.CopyIn("odds_band_records",
		"refresh_id", "position", "matchup", "team", "odds", "bookmaker", "league", "commence_time"))
	if err != nil {
		return err
	}
	for i, rec := range snap.Records {
		if _, err := stmt.ExecContext(ctx,
			snap.RefreshID, i, rec.Matchup, rec.Team, rec.Odds, rec.Bookmaker, rec.League, rec.CommenceTime,
		); err != nil {
			_ = stmt.Close()
			return err
		}
	}
	if _, err := stmt.ExecContext(ctx); err != nil {
		_ = stmt.Close()
		return err
	}
	if err := stmt.Close(); err != nil {
		return err
	}

	return tx.Commit()
}

// ListRefreshes retorna os refreshes mais recentes primeiro
func (r *HistoryRepo) ListRefreshes(ctx context.Context, limit int) ([]RefreshSummary, error) {
	const q = `
		SELECT refresh_id, fetched_at, range_low, range_high, record_count, failed_keys
		FROM odds_band_refreshes
		ORDER BY fetched_at DESC
		LIMIT $1;
	`
	rows, err := r.DB.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []RefreshSummary{}
	for rows.Next() {
		var s RefreshSummary
		if err := rows.Scan(&s.RefreshID, &s.FetchedAt, &s.RangeLow, &s.RangeHigh, &s.RecordCount, pq.Array(&s.FailedKeys)); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// RecordsByRefresh retorna os registros de um refresh na ordem original
func (r *HistoryRepo) RecordsByRefresh(ctx context.Context, refreshID string) ([]dto.BetRecord, error) {
	const q = `
		SELECT matchup, team, odds, bookmaker, league, commence_time
		FROM odds_band_records
		WHERE refresh_id = $1
		ORDER BY position;
	`
	rows, err := r.DB.QueryContext(ctx, q, refreshID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []dto.BetRecord{}
	for rows.Next() {
		var rec dto.BetRecord
		if err := rows.Scan(&rec.Matchup, &rec.Team, &rec.Odds, &rec.Bookmaker, &rec.League, &rec.CommenceTime); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
