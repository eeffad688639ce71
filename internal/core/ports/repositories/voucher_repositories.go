package repositories

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/finpost/voucher_posting_engine/internal/core/domain"
)

// VoucherReader defines read operations for voucher data.
type VoucherReader interface {
	// FindVoucherByID retrieves a voucher with its lines, or ErrNotFound.
	FindVoucherByID(ctx context.Context, companyID, voucherID string) (*domain.Voucher, error)

	// FindVoucherByIDForUpdate retrieves a voucher inside tx, locking its row
	// so concurrent posting attempts on the same voucher serialize.
	FindVoucherByIDForUpdate(ctx context.Context, tx pgx.Tx, companyID, voucherID string) (*domain.Voucher, error)

	// FindReversalOf scans for a voucher whose metadata links back to the
	// given original. Used for reversal idempotency.
	FindReversalOf(ctx context.Context, companyID, originalVoucherID string) (*domain.Voucher, error)

	// FindReplacementOf scans for the voucher created to replace the given
	// original during a reverse-and-replace correction.
	FindReplacementOf(ctx context.Context, companyID, originalVoucherID string) (*domain.Voucher, error)

	// ListVouchersByCompany retrieves vouchers for a company, newest first.
	ListVouchersByCompany(ctx context.Context, companyID string, limit, offset int) ([]domain.Voucher, error)

	// ListVouchersByKind retrieves vouchers of one kind.
	ListVouchersByKind(ctx context.Context, companyID string, kind domain.VoucherKind, limit, offset int) ([]domain.Voucher, error)

	// ListVouchersByStatus retrieves vouchers in one workflow status.
	ListVouchersByStatus(ctx context.Context, companyID string, status domain.VoucherStatus, limit, offset int) ([]domain.Voucher, error)

	// ListVouchersByDateRange retrieves vouchers whose accounting date falls
	// within [from, to].
	ListVouchersByDateRange(ctx context.Context, companyID string, from, to time.Time, limit, offset int) ([]domain.Voucher, error)

	// ExistsByNumber reports whether a voucher number is already taken.
	ExistsByNumber(ctx context.Context, companyID, voucherNumber string) (bool, error)
}

// VoucherWriter defines write operations for voucher data. A nil tx targets
// the pool directly; posting paths always pass the orchestrator's tx.
type VoucherWriter interface {
	// SaveVoucher inserts or fully replaces a voucher and its lines.
	SaveVoucher(ctx context.Context, tx pgx.Tx, v domain.Voucher) error

	// DeleteVoucher removes a voucher and its lines. Returns false when the
	// voucher did not exist.
	DeleteVoucher(ctx context.Context, tx pgx.Tx, companyID, voucherID string) (bool, error)
}

// VoucherRepositoryFacade combines read and write voucher operations.
type VoucherRepositoryFacade interface {
	VoucherReader
	VoucherWriter
}

// VoucherRepositoryWithTx extends the facade with transaction control.
type VoucherRepositoryWithTx interface {
	VoucherRepositoryFacade
	TransactionManager
}
