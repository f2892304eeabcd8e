package ssn

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

// PostgresProfileStore reads the profiles table.
type PostgresProfileStore struct {
	db *sql.DB
}

func NewPostgresProfileStore(db *sql.DB) *PostgresProfileStore {
	return &PostgresProfileStore{db: db}
}

func (s *PostgresProfileStore) FindBySignatures(ctx context.Context, q Query) ([]Profile, error) {
	if len(q.Signatures) == 0 {
		return nil, nil
	}

	var b strings.Builder
	b.WriteString(`
		SELECT id, user_id, active, facial_match, COALESCE(initiating_service_provider_issuer, ''), ssn_signature
		FROM profiles
		WHERE ssn_signature = ANY($1) AND user_id <> $2`)
	args := []any{pq.Array(q.Signatures), q.ExcludeUserID}
	if q.ActiveOnly {
		b.WriteString(` AND active`)
	}
	if len(q.Issuers) > 0 {
		args = append(args, pq.Array(q.Issuers))
		fmt.Fprintf(&b, ` AND initiating_service_provider_issuer = ANY($%d)`, len(args))
	}

	rows, err := s.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("query profiles: %w", err)
	}
	defer rows.Close()

	var out []Profile
	for rows.Next() {
		var p Profile
		if err := rows.Scan(&p.ID, &p.UserID, &p.Active, &p.FacialMatch, &p.InitiatingIssuer, &p.SSNSignature); err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate profiles: %w", err)
	}
	return out, nil
}

// Insert stores a profile. Used by provisioning and integration tests.
func (s *PostgresProfileStore) Insert(ctx context.Context, p Profile) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO profiles (id, user_id, active, facial_match, initiating_service_provider_issuer, ssn_signature)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6)`,
		p.ID, p.UserID, p.Active, p.FacialMatch, p.InitiatingIssuer, p.SSNSignature,
	)
	if err != nil {
		return fmt.Errorf("insert profile: %w", err)
	}
	return nil
}
