package pgsql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/finpost/voucher_posting_engine/internal/apperrors"
	"github.com/finpost/voucher_posting_engine/internal/core/domain"
	"github.com/finpost/voucher_posting_engine/internal/core/ports/repositories"
)

type voucherRepository struct {
	baseRepository
}

// NewVoucherRepository creates the repository for voucher and line data.
func NewVoucherRepository(pool *pgxpool.Pool) repositories.VoucherRepositoryWithTx {
	return &voucherRepository{baseRepository{pool: pool}}
}

const voucherColumns = `
	voucher_id, company_id, voucher_number, kind, voucher_date, description,
	currency_code, base_currency_code, exchange_rate, total_debit, total_credit,
	status, approval_mode, pending_financial_approval, pending_custodians, confirmed_custodians,
	correction_group_id, replaces_voucher_id, extra,
	created_by, created_at,
	approved_by, approved_at, rejected_by, rejected_at,
	cancelled_by, cancelled_at, posted_by, posted_at,
	lock_policy, reverses_voucher_id, reversed_by_voucher_id, external_ref`

// SaveVoucher upserts the voucher header and fully replaces its lines. The
// aggregate is saved as a whole every time; partial line updates do not exist.
func (r *voucherRepository) SaveVoucher(ctx context.Context, tx pgx.Tx, v domain.Voucher) error {
	conn := r.conn(tx)

	extraJSON, err := json.Marshal(v.Extra)
	if err != nil {
		return fmt.Errorf("failed to marshal voucher extra for %s: %w", v.VoucherID, err)
	}

	query := `
		INSERT INTO vouchers (` + voucherColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17,
		        $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30, $31, $32, $33)
		ON CONFLICT (voucher_id) DO UPDATE SET
			voucher_date = EXCLUDED.voucher_date,
			description = EXCLUDED.description,
			exchange_rate = EXCLUDED.exchange_rate,
			total_debit = EXCLUDED.total_debit,
			total_credit = EXCLUDED.total_credit,
			status = EXCLUDED.status,
			approval_mode = EXCLUDED.approval_mode,
			pending_financial_approval = EXCLUDED.pending_financial_approval,
			pending_custodians = EXCLUDED.pending_custodians,
			confirmed_custodians = EXCLUDED.confirmed_custodians,
			correction_group_id = EXCLUDED.correction_group_id,
			replaces_voucher_id = EXCLUDED.replaces_voucher_id,
			extra = EXCLUDED.extra,
			approved_by = EXCLUDED.approved_by,
			approved_at = EXCLUDED.approved_at,
			rejected_by = EXCLUDED.rejected_by,
			rejected_at = EXCLUDED.rejected_at,
			cancelled_by = EXCLUDED.cancelled_by,
			cancelled_at = EXCLUDED.cancelled_at,
			posted_by = EXCLUDED.posted_by,
			posted_at = EXCLUDED.posted_at,
			lock_policy = EXCLUDED.lock_policy,
			reverses_voucher_id = EXCLUDED.reverses_voucher_id,
			reversed_by_voucher_id = EXCLUDED.reversed_by_voucher_id,
			external_ref = EXCLUDED.external_ref;
	`
	approvedBy, approvedAt := stampFields(v.ApprovedRec)
	rejectedBy, rejectedAt := stampFields(v.RejectedRec)
	cancelledBy, cancelledAt := stampFields(v.CancelledRec)
	postedBy, postedAt := stampFields(v.PostedRec)

	_, err = conn.Exec(ctx, query,
		v.VoucherID, v.CompanyID, v.VoucherNumber, v.Kind, v.Date, v.Description,
		v.CurrencyCode, v.BaseCurrencyCode, v.ExchangeRate, v.TotalDebit, v.TotalCredit,
		v.Status, v.Approval.Mode, v.Approval.PendingFinancialApproval,
		v.Approval.PendingCustodyConfirmations, v.Approval.ConfirmedCustodians,
		nullable(v.Correction.CorrectionGroupID), nullable(v.Correction.ReplacesVoucherID), extraJSON,
		v.CreatedBy, v.CreatedAt,
		approvedBy, approvedAt, rejectedBy, rejectedAt,
		cancelledBy, cancelledAt, postedBy, postedAt,
		nullable(string(v.LockPolicy)), nullable(v.ReversesVoucherID), nullable(v.ReversedByVoucherID), nullable(v.ExternalRef),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert voucher %s: %w", v.VoucherID, err)
	}

	if _, err := conn.Exec(ctx, `DELETE FROM voucher_lines WHERE voucher_id = $1;`, v.VoucherID); err != nil {
		return fmt.Errorf("failed to clear lines for voucher %s: %w", v.VoucherID, err)
	}

	batch := &pgx.Batch{}
	lineQuery := `
		INSERT INTO voucher_lines (line_id, voucher_id, company_id, line_index, account_id, side,
			amount, currency_code, base_amount, base_currency_code, exchange_rate,
			notes, cost_center_id, dimensions)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14);
	`
	for _, line := range v.Lines {
		dimensionsJSON, err := json.Marshal(line.Dimensions)
		if err != nil {
			return fmt.Errorf("failed to marshal dimensions for line %s: %w", line.LineID, err)
		}
		batch.Queue(lineQuery,
			line.LineID, v.VoucherID, v.CompanyID, line.Index, line.AccountID, line.Side,
			line.Amount, line.CurrencyCode, line.BaseAmount, line.BaseCurrencyCode, line.ExchangeRate,
			nullable(line.Notes), nullable(line.CostCenterID), dimensionsJSON,
		)
	}
	br := conn.SendBatch(ctx, batch)
	if err := br.Close(); err != nil {
		return fmt.Errorf("failed to insert lines for voucher %s: %w", v.VoucherID, err)
	}
	return nil
}

// DeleteVoucher removes a voucher and its lines.
func (r *voucherRepository) DeleteVoucher(ctx context.Context, tx pgx.Tx, companyID, voucherID string) (bool, error) {
	conn := r.conn(tx)
	if _, err := conn.Exec(ctx, `DELETE FROM voucher_lines WHERE voucher_id = $1 AND company_id = $2;`, voucherID, companyID); err != nil {
		return false, fmt.Errorf("failed to delete lines for voucher %s: %w", voucherID, err)
	}
	tag, err := conn.Exec(ctx, `DELETE FROM vouchers WHERE voucher_id = $1 AND company_id = $2;`, voucherID, companyID)
	if err != nil {
		return false, fmt.Errorf("failed to delete voucher %s: %w", voucherID, err)
	}
	return tag.RowsAffected() > 0, nil
}

// FindVoucherByID retrieves a voucher with its lines.
func (r *voucherRepository) FindVoucherByID(ctx context.Context, companyID, voucherID string) (*domain.Voucher, error) {
	query := `SELECT ` + voucherColumns + ` FROM vouchers WHERE voucher_id = $1 AND company_id = $2;`
	return r.loadOne(ctx, r.pool, query, voucherID, companyID)
}

// FindVoucherByIDForUpdate retrieves a voucher inside tx, locking its row so
// concurrent posting attempts serialize.
func (r *voucherRepository) FindVoucherByIDForUpdate(ctx context.Context, tx pgx.Tx, companyID, voucherID string) (*domain.Voucher, error) {
	query := `SELECT ` + voucherColumns + ` FROM vouchers WHERE voucher_id = $1 AND company_id = $2 FOR UPDATE;`
	return r.loadOne(ctx, tx, query, voucherID, companyID)
}

// FindReversalOf scans for the reversal voucher linked to the original.
func (r *voucherRepository) FindReversalOf(ctx context.Context, companyID, originalVoucherID string) (*domain.Voucher, error) {
	query := `SELECT ` + voucherColumns + ` FROM vouchers WHERE reverses_voucher_id = $1 AND company_id = $2;`
	return r.loadOne(ctx, r.pool, query, originalVoucherID, companyID)
}

// FindReplacementOf scans for the replacement voucher created during a
// reverse-and-replace correction of the original.
func (r *voucherRepository) FindReplacementOf(ctx context.Context, companyID, originalVoucherID string) (*domain.Voucher, error) {
	query := `SELECT ` + voucherColumns + ` FROM vouchers WHERE replaces_voucher_id = $1 AND company_id = $2;`
	return r.loadOne(ctx, r.pool, query, originalVoucherID, companyID)
}

func (r *voucherRepository) ListVouchersByCompany(ctx context.Context, companyID string, limit, offset int) ([]domain.Voucher, error) {
	query := `SELECT ` + voucherColumns + ` FROM vouchers WHERE company_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3;`
	return r.loadMany(ctx, query, companyID, limit, offset)
}

func (r *voucherRepository) ListVouchersByKind(ctx context.Context, companyID string, kind domain.VoucherKind, limit, offset int) ([]domain.Voucher, error) {
	query := `SELECT ` + voucherColumns + ` FROM vouchers WHERE company_id = $1 AND kind = $2 ORDER BY created_at DESC LIMIT $3 OFFSET $4;`
	return r.loadMany(ctx, query, companyID, kind, limit, offset)
}

func (r *voucherRepository) ListVouchersByStatus(ctx context.Context, companyID string, status domain.VoucherStatus, limit, offset int) ([]domain.Voucher, error) {
	query := `SELECT ` + voucherColumns + ` FROM vouchers WHERE company_id = $1 AND status = $2 ORDER BY created_at DESC LIMIT $3 OFFSET $4;`
	return r.loadMany(ctx, query, companyID, status, limit, offset)
}

func (r *voucherRepository) ListVouchersByDateRange(ctx context.Context, companyID string, from, to time.Time, limit, offset int) ([]domain.Voucher, error) {
	query := `SELECT ` + voucherColumns + ` FROM vouchers WHERE company_id = $1 AND voucher_date >= $2 AND voucher_date <= $3 ORDER BY voucher_date DESC, created_at DESC LIMIT $4 OFFSET $5;`
	return r.loadMany(ctx, query, companyID, from, to, limit, offset)
}

// ExistsByNumber reports whether a voucher number is already taken.
func (r *voucherRepository) ExistsByNumber(ctx context.Context, companyID, voucherNumber string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM vouchers WHERE company_id = $1 AND voucher_number = $2);`,
		companyID, voucherNumber).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check voucher number %s: %w", voucherNumber, err)
	}
	return exists, nil
}

func (r *voucherRepository) loadOne(ctx context.Context, conn querier, query string, args ...any) (*domain.Voucher, error) {
	voucher, err := scanVoucher(conn.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load voucher: %w", err)
	}
	lines, err := r.loadLines(ctx, conn, voucher.VoucherID)
	if err != nil {
		return nil, err
	}
	voucher.Lines = lines
	return voucher, nil
}

func (r *voucherRepository) loadMany(ctx context.Context, query string, args ...any) ([]domain.Voucher, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query vouchers: %w", err)
	}
	defer rows.Close()

	vouchers := []domain.Voucher{}
	for rows.Next() {
		voucher, err := scanVoucher(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan voucher row: %w", err)
		}
		vouchers = append(vouchers, *voucher)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating voucher rows: %w", err)
	}

	for i := range vouchers {
		lines, err := r.loadLines(ctx, r.pool, vouchers[i].VoucherID)
		if err != nil {
			return nil, err
		}
		vouchers[i].Lines = lines
	}
	return vouchers, nil
}

func (r *voucherRepository) loadLines(ctx context.Context, conn querier, voucherID string) ([]domain.VoucherLine, error) {
	query := `
		SELECT line_id, line_index, account_id, side, amount, currency_code,
		       base_amount, base_currency_code, exchange_rate, notes, cost_center_id, dimensions
		FROM voucher_lines
		WHERE voucher_id = $1
		ORDER BY line_index;
	`
	rows, err := conn.Query(ctx, query, voucherID)
	if err != nil {
		return nil, fmt.Errorf("failed to query lines for voucher %s: %w", voucherID, err)
	}
	defer rows.Close()

	lines := []domain.VoucherLine{}
	for rows.Next() {
		var (
			line           domain.VoucherLine
			notes          *string
			costCenterID   *string
			dimensionsJSON []byte
		)
		if err := rows.Scan(
			&line.LineID, &line.Index, &line.AccountID, &line.Side, &line.Amount, &line.CurrencyCode,
			&line.BaseAmount, &line.BaseCurrencyCode, &line.ExchangeRate, &notes, &costCenterID, &dimensionsJSON,
		); err != nil {
			return nil, fmt.Errorf("failed to scan line row for voucher %s: %w", voucherID, err)
		}
		line.Notes = deref(notes)
		line.CostCenterID = deref(costCenterID)
		if len(dimensionsJSON) > 0 {
			if err := json.Unmarshal(dimensionsJSON, &line.Dimensions); err != nil {
				return nil, fmt.Errorf("failed to unmarshal dimensions for voucher %s: %w", voucherID, err)
			}
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating line rows for voucher %s: %w", voucherID, err)
	}
	return lines, nil
}

func scanVoucher(row pgx.Row) (*domain.Voucher, error) {
	var (
		v                 domain.Voucher
		correctionGroupID *string
		replacesVoucherID *string
		extraJSON         []byte
		approvedBy        *string
		approvedAt        *time.Time
		rejectedBy        *string
		rejectedAt        *time.Time
		cancelledBy       *string
		cancelledAt       *time.Time
		postedBy          *string
		postedAt          *time.Time
		lockPolicy        *string
		reversesID        *string
		reversedByID      *string
		externalRef       *string
	)
	err := row.Scan(
		&v.VoucherID, &v.CompanyID, &v.VoucherNumber, &v.Kind, &v.Date, &v.Description,
		&v.CurrencyCode, &v.BaseCurrencyCode, &v.ExchangeRate, &v.TotalDebit, &v.TotalCredit,
		&v.Status, &v.Approval.Mode, &v.Approval.PendingFinancialApproval,
		&v.Approval.PendingCustodyConfirmations, &v.Approval.ConfirmedCustodians,
		&correctionGroupID, &replacesVoucherID, &extraJSON,
		&v.CreatedBy, &v.CreatedAt,
		&approvedBy, &approvedAt, &rejectedBy, &rejectedAt,
		&cancelledBy, &cancelledAt, &postedBy, &postedAt,
		&lockPolicy, &reversesID, &reversedByID, &externalRef,
	)
	if err != nil {
		return nil, err
	}

	v.Correction.CorrectionGroupID = deref(correctionGroupID)
	v.Correction.ReplacesVoucherID = deref(replacesVoucherID)
	if len(extraJSON) > 0 {
		if err := json.Unmarshal(extraJSON, &v.Extra); err != nil {
			return nil, fmt.Errorf("failed to unmarshal voucher extra: %w", err)
		}
	}
	v.ApprovedRec = stampFrom(approvedBy, approvedAt)
	v.RejectedRec = stampFrom(rejectedBy, rejectedAt)
	v.CancelledRec = stampFrom(cancelledBy, cancelledAt)
	v.PostedRec = stampFrom(postedBy, postedAt)
	v.LockPolicy = domain.LockPolicy(deref(lockPolicy))
	v.ReversesVoucherID = deref(reversesID)
	v.ReversedByVoucherID = deref(reversedByID)
	v.ExternalRef = deref(externalRef)
	return &v, nil
}

func stampFields(stamp *domain.ActionStamp) (*string, *time.Time) {
	if stamp == nil {
		return nil, nil
	}
	return &stamp.By, &stamp.At
}

func stampFrom(by *string, at *time.Time) *domain.ActionStamp {
	if by == nil || at == nil {
		return nil
	}
	return &domain.ActionStamp{By: *by, At: *at}
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
