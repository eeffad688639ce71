package pgsql

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/finpost/voucher_posting_engine/internal/core/domain"
	"github.com/finpost/voucher_posting_engine/internal/core/ports/repositories"
)

type numberRepository struct {
	baseRepository
}

// NewNumberRepository creates the repository for voucher number sequences.
func NewNumberRepository(pool *pgxpool.Pool) repositories.NumberSequenceRepository {
	return &numberRepository{baseRepository{pool: pool}}
}

// NextNumber atomically allocates the next sequence value for the company,
// kind and year. The upsert makes the first allocation of a sequence and
// every later increment a single statement, safe under concurrency.
func (r *numberRepository) NextNumber(ctx context.Context, companyID string, kind domain.VoucherKind, year int) (int64, error) {
	query := `
		INSERT INTO voucher_number_sequences (company_id, kind, year, last_value)
		VALUES ($1, $2, $3, 1)
		ON CONFLICT (company_id, kind, year)
		DO UPDATE SET last_value = voucher_number_sequences.last_value + 1
		RETURNING last_value;
	`
	var value int64
	if err := r.pool.QueryRow(ctx, query, companyID, kind, year).Scan(&value); err != nil {
		return 0, fmt.Errorf("failed to advance %s sequence for company %s: %w", kind, companyID, err)
	}
	return value, nil
}
