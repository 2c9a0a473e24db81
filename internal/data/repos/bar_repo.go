package repos

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/aegis-signal/internal/contracts"
)

// BarRepository implements contracts.BarSource over bars already loaded by acquisition
// ⭐ SSOT: 바 데이터 조회는 여기서만 (쓰기는 수집 서비스 담당)
type BarRepository struct {
	pool *pgxpool.Pool
}

// NewBarRepository creates a new bar repository
func NewBarRepository(pool *pgxpool.Pool) *BarRepository {
	return &BarRepository{pool: pool}
}

// LoadSeries returns the latest limit bars at or before asOf, oldest first
func (r *BarRepository) LoadSeries(ctx context.Context, instrument string, tf contracts.Timeframe, interval string, limit int, asOf time.Time) (contracts.TimeframeSeries, error) {
	query := `
		SELECT ts, open, high, low, close, volume
		FROM signals.price_bars
		WHERE instrument = $1 AND interval = $2 AND ts <= $3
		ORDER BY ts DESC
		LIMIT $4
	`

	series := contracts.TimeframeSeries{Timeframe: tf, Interval: interval}

	rows, err := r.pool.Query(ctx, query, instrument, interval, asOf, limit)
	if err != nil {
		return series, fmt.Errorf("failed to query bars for %s/%s: %w", instrument, interval, err)
	}
	defer rows.Close()

	for rows.Next() {
		var b contracts.PriceBar
		if err := rows.Scan(&b.Timestamp, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return series, fmt.Errorf("failed to scan bar: %w", err)
		}
		series.Bars = append(series.Bars, b)
	}
	if err := rows.Err(); err != nil {
		return series, fmt.Errorf("error iterating rows: %w", err)
	}

	reverseBars(series.Bars)
	return series, nil
}

// ListInstruments returns every instrument with at least one bar at or before asOf
func (r *BarRepository) ListInstruments(ctx context.Context, asOf time.Time) ([]string, error) {
	query := `
		SELECT DISTINCT instrument
		FROM signals.price_bars
		WHERE ts <= $1
		ORDER BY instrument
	`

	rows, err := r.pool.Query(ctx, query, asOf)
	if err != nil {
		return nil, fmt.Errorf("failed to list instruments: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan instrument: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// reverseBars flips DESC query order into series order (oldest first)
func reverseBars(bars []contracts.PriceBar) {
	for i, j := 0, len(bars)-1; i < j; i, j = i+1, j-1 {
		bars[i], bars[j] = bars[j], bars[i]
	}
}

var _ contracts.BarSource = (*BarRepository)(nil)
