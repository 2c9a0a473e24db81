package repos

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/aegis-signal/internal/contracts"
)

// OpportunityRepository implements contracts.OpportunityLogger on Postgres
// ⭐ SSOT: Opportunity 저장/조회는 여기서만
type OpportunityRepository struct {
	pool *pgxpool.Pool
}

// NewOpportunityRepository creates a new opportunity repository
func NewOpportunityRepository(pool *pgxpool.Pool) *OpportunityRepository {
	return &OpportunityRepository{pool: pool}
}

const insertOpportunity = `
	INSERT INTO signals.opportunities (
		id, run_id, instrument, ts,
		direction, pattern, entry_price,
		composite, confidence, robustness, robustness_momentum,
		context, context_momentum, master_score, tier,
		special_day, position_fraction, filter_failures, config_hash
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	ON CONFLICT (id) DO NOTHING
`

// LogOpportunities writes every record in one transaction
func (r *OpportunityRepository) LogOpportunities(ctx context.Context, opps []contracts.Opportunity) error {
	if len(opps) == 0 {
		return nil
	}

	// Begin transaction
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, o := range opps {
		batch.Queue(insertOpportunity,
			o.ID, o.RunID, o.Instrument, o.Timestamp,
			string(o.Direction), o.Pattern, o.EntryPrice,
			o.Composite, o.Confidence, o.Robustness, o.RobustnessMom,
			o.Context, o.ContextMomentum, o.MasterScore, string(o.Tier),
			string(o.SpecialDay), o.PositionFraction, nonNil(o.FilterFailures), o.ConfigHash,
		)
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to insert opportunities: %w", err)
	}

	// Commit transaction
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetByInstrument retrieves the most recent opportunities for an instrument
func (r *OpportunityRepository) GetByInstrument(ctx context.Context, instrument string, since time.Time, limit int) ([]contracts.Opportunity, error) {
	query := `
		SELECT
			id, run_id, instrument, ts,
			direction, pattern, entry_price,
			composite, confidence, robustness, robustness_momentum,
			context, context_momentum, master_score, tier,
			special_day, position_fraction, filter_failures, config_hash
		FROM signals.opportunities
		WHERE instrument = $1 AND ts >= $2
		ORDER BY ts DESC
		LIMIT $3
	`

	rows, err := r.pool.Query(ctx, query, instrument, since, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query opportunities: %w", err)
	}
	defer rows.Close()

	var opps []contracts.Opportunity
	for rows.Next() {
		var o contracts.Opportunity
		var direction, tier, specialDay string

		err := rows.Scan(
			&o.ID, &o.RunID, &o.Instrument, &o.Timestamp,
			&direction, &o.Pattern, &o.EntryPrice,
			&o.Composite, &o.Confidence, &o.Robustness, &o.RobustnessMom,
			&o.Context, &o.ContextMomentum, &o.MasterScore, &tier,
			&specialDay, &o.PositionFraction, &o.FilterFailures, &o.ConfigHash,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		o.Direction = contracts.Direction(direction)
		o.Tier = contracts.Tier(tier)
		o.SpecialDay = contracts.CalendarClass(specialDay)

		opps = append(opps, o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return opps, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

var _ contracts.OpportunityLogger = (*OpportunityRepository)(nil)
