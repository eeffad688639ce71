package pgsql

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/finpost/voucher_posting_engine/internal/core/domain"
	"github.com/finpost/voucher_posting_engine/internal/core/ports/repositories"
)

type ledgerRepository struct {
	baseRepository
}

// NewLedgerRepository creates the repository for posted ledger rows.
func NewLedgerRepository(pool *pgxpool.Pool) repositories.LedgerRepository {
	return &ledgerRepository{baseRepository{pool: pool}}
}

const ledgerColumns = `
	entry_id, company_id, voucher_id, voucher_line_id, account_id, entry_date, side,
	base_amount, base_currency_code, currency_code, amount, exchange_rate,
	cost_center_id, dimensions, posted_at`

// RecordForVoucher derives and inserts one ledger row per voucher line.
// Entry ids are deterministic ("<voucherID>_<lineID>") so a retried posting
// attempt can never produce duplicate rows.
func (r *ledgerRepository) RecordForVoucher(ctx context.Context, tx pgx.Tx, v domain.Voucher) error {
	conn := r.conn(tx)
	entries := domain.EntriesForVoucher(v)

	batch := &pgx.Batch{}
	query := `
		INSERT INTO ledger_entries (` + ledgerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15);
	`
	for _, e := range entries {
		dimensionsJSON, err := json.Marshal(e.Dimensions)
		if err != nil {
			return fmt.Errorf("failed to marshal dimensions for entry %s: %w", e.EntryID, err)
		}
		batch.Queue(query,
			e.EntryID, e.CompanyID, e.VoucherID, e.VoucherLineID, e.AccountID, e.Date, e.Side,
			e.BaseAmount, e.BaseCurrencyCode, e.CurrencyCode, e.Amount, e.ExchangeRate,
			nullable(e.CostCenterID), dimensionsJSON, e.PostedAt,
		)
	}
	br := conn.SendBatch(ctx, batch)
	if err := br.Close(); err != nil {
		return fmt.Errorf("failed to insert ledger entries for voucher %s: %w", v.VoucherID, err)
	}
	return nil
}

// DeleteForVoucher removes every ledger row of a voucher. Used when editing
// or deleting a posted voucher under a flexible lock.
func (r *ledgerRepository) DeleteForVoucher(ctx context.Context, tx pgx.Tx, companyID, voucherID string) error {
	conn := r.conn(tx)
	if _, err := conn.Exec(ctx,
		`DELETE FROM ledger_entries WHERE company_id = $1 AND voucher_id = $2;`,
		companyID, voucherID); err != nil {
		return fmt.Errorf("failed to delete ledger entries for voucher %s: %w", voucherID, err)
	}
	return nil
}

// FindEntriesByVoucher returns the voucher's ledger rows in line order.
func (r *ledgerRepository) FindEntriesByVoucher(ctx context.Context, companyID, voucherID string) ([]domain.LedgerEntry, error) {
	query := `SELECT ` + ledgerColumns + ` FROM ledger_entries WHERE company_id = $1 AND voucher_id = $2 ORDER BY entry_id;`
	return r.queryEntries(ctx, query, companyID, voucherID)
}

// GetGeneralLedger returns ledger rows matching the filters, oldest first.
func (r *ledgerRepository) GetGeneralLedger(ctx context.Context, companyID string, filters repositories.LedgerFilters) ([]domain.LedgerEntry, error) {
	clauses := []string{"company_id = $1"}
	args := []any{companyID}
	if filters.AccountID != nil {
		args = append(args, *filters.AccountID)
		clauses = append(clauses, fmt.Sprintf("account_id = $%d", len(args)))
	}
	if filters.VoucherID != nil {
		args = append(args, *filters.VoucherID)
		clauses = append(clauses, fmt.Sprintf("voucher_id = $%d", len(args)))
	}
	if filters.FromDate != nil {
		args = append(args, *filters.FromDate)
		clauses = append(clauses, fmt.Sprintf("entry_date >= $%d", len(args)))
	}
	if filters.ToDate != nil {
		args = append(args, *filters.ToDate)
		clauses = append(clauses, fmt.Sprintf("entry_date <= $%d", len(args)))
	}

	query := `SELECT ` + ledgerColumns + ` FROM ledger_entries WHERE ` +
		strings.Join(clauses, " AND ") + ` ORDER BY entry_date, entry_id;`
	return r.queryEntries(ctx, query, args...)
}

// GetAccountLedger returns one account's rows within [from, to].
func (r *ledgerRepository) GetAccountLedger(ctx context.Context, companyID, accountID string, from, to time.Time) ([]domain.LedgerEntry, error) {
	query := `SELECT ` + ledgerColumns + ` FROM ledger_entries
		WHERE company_id = $1 AND account_id = $2 AND entry_date >= $3 AND entry_date <= $4
		ORDER BY entry_date, entry_id;`
	return r.queryEntries(ctx, query, companyID, accountID, from, to)
}

// GetTrialBalance aggregates per-account debit and credit totals through a
// date, joined to the chart of accounts for display fields.
func (r *ledgerRepository) GetTrialBalance(ctx context.Context, companyID string, through time.Time) ([]domain.TrialBalanceRow, error) {
	query := `
		SELECT le.account_id, a.code, a.name, a.account_type,
		       COALESCE(SUM(le.base_amount) FILTER (WHERE le.side = 'DEBIT'), 0) AS total_debit,
		       COALESCE(SUM(le.base_amount) FILTER (WHERE le.side = 'CREDIT'), 0) AS total_credit
		FROM ledger_entries le
		JOIN accounts a ON a.account_id = le.account_id
		WHERE le.company_id = $1 AND le.entry_date <= $2
		GROUP BY le.account_id, a.code, a.name, a.account_type
		ORDER BY a.code;
	`
	rows, err := r.pool.Query(ctx, query, companyID, through)
	if err != nil {
		return nil, fmt.Errorf("failed to query trial balance: %w", err)
	}
	defer rows.Close()

	result := []domain.TrialBalanceRow{}
	for rows.Next() {
		var row domain.TrialBalanceRow
		if err := rows.Scan(&row.AccountID, &row.AccountCode, &row.AccountName, &row.AccountType, &row.TotalDebit, &row.TotalCredit); err != nil {
			return nil, fmt.Errorf("failed to scan trial balance row: %w", err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trial balance rows: %w", err)
	}
	return result, nil
}

func (r *ledgerRepository) queryEntries(ctx context.Context, query string, args ...any) ([]domain.LedgerEntry, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger entries: %w", err)
	}
	defer rows.Close()

	entries := []domain.LedgerEntry{}
	for rows.Next() {
		var (
			e              domain.LedgerEntry
			costCenterID   *string
			dimensionsJSON []byte
		)
		if err := rows.Scan(
			&e.EntryID, &e.CompanyID, &e.VoucherID, &e.VoucherLineID, &e.AccountID, &e.Date, &e.Side,
			&e.BaseAmount, &e.BaseCurrencyCode, &e.CurrencyCode, &e.Amount, &e.ExchangeRate,
			&costCenterID, &dimensionsJSON, &e.PostedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry row: %w", err)
		}
		e.CostCenterID = deref(costCenterID)
		if len(dimensionsJSON) > 0 {
			if err := json.Unmarshal(dimensionsJSON, &e.Dimensions); err != nil {
				return nil, fmt.Errorf("failed to unmarshal dimensions for entry %s: %w", e.EntryID, err)
			}
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ledger entry rows: %w", err)
	}
	return entries, nil
}
