package database

import (
	"context"
	"fmt"
)

// schemaStatements creates the tables the scorer reads and writes.
// 바 데이터(signals.price_bars)는 수집 서비스가 적재, 스코어러는 읽기만 함
var schemaStatements = []string{
	`CREATE SCHEMA IF NOT EXISTS signals`,

	`CREATE TABLE IF NOT EXISTS signals.price_bars (
		instrument  TEXT             NOT NULL,
		interval    TEXT             NOT NULL,
		ts          TIMESTAMPTZ      NOT NULL,
		open        DOUBLE PRECISION NOT NULL,
		high        DOUBLE PRECISION NOT NULL,
		low         DOUBLE PRECISION NOT NULL,
		close       DOUBLE PRECISION NOT NULL,
		volume      DOUBLE PRECISION NOT NULL,
		PRIMARY KEY (instrument, interval, ts)
	)`,

	`CREATE TABLE IF NOT EXISTS signals.opportunities (
		id                  UUID             PRIMARY KEY,
		run_id              UUID             NOT NULL,
		instrument          TEXT             NOT NULL,
		ts                  TIMESTAMPTZ      NOT NULL,
		direction           TEXT             NOT NULL,
		pattern             TEXT             NOT NULL,
		entry_price         DOUBLE PRECISION NOT NULL,
		composite           DOUBLE PRECISION NOT NULL,
		confidence          DOUBLE PRECISION NOT NULL,
		robustness          DOUBLE PRECISION NOT NULL,
		robustness_momentum DOUBLE PRECISION NOT NULL,
		context             DOUBLE PRECISION NOT NULL,
		context_momentum    DOUBLE PRECISION NOT NULL,
		master_score        DOUBLE PRECISION NOT NULL,
		tier                TEXT             NOT NULL,
		special_day         TEXT             NOT NULL,
		position_fraction   DOUBLE PRECISION NOT NULL,
		filter_failures     TEXT[]           NOT NULL DEFAULT '{}',
		config_hash         TEXT             NOT NULL,
		created_at          TIMESTAMPTZ      NOT NULL DEFAULT NOW()
	)`,

	`CREATE INDEX IF NOT EXISTS idx_opportunities_instrument_ts
		ON signals.opportunities (instrument, ts DESC)`,
}

// EnsureSchema creates the scorer tables if they do not exist
func (db *DB) EnsureSchema(ctx context.Context) error {
	for i, stmt := range schemaStatements {
		if _, err := db.Pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i, err)
		}
	}
	return nil
}
