package costs

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// PostgresLedger appends entries to sp_costs.
type PostgresLedger struct {
	db *sql.DB
}

func NewPostgresLedger(db *sql.DB) *PostgresLedger {
	return &PostgresLedger{db: db}
}

func (l *PostgresLedger) Append(ctx context.Context, e Entry) error {
	query := `
		INSERT INTO sp_costs (issuer, cost_type, transaction_id, trace_id, created_at)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), $5)
	`
	if _, err := l.db.ExecContext(ctx, query, e.Issuer, e.CostType, e.TransactionID, e.TraceID, e.CreatedAt); err != nil {
		return fmt.Errorf("insert sp cost: %w", err)
	}
	return nil
}

// CountSince returns the number of entries of costType for issuer since t.
func (l *PostgresLedger) CountSince(ctx context.Context, issuer, costType string, t time.Time) (int, error) {
	var n int
	err := l.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sp_costs WHERE issuer = $1 AND cost_type = $2 AND created_at >= $3`,
		issuer, costType, t,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count sp costs: %w", err)
	}
	return n, nil
}
