package domain_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finpost/voucher_posting_engine/internal/core/domain"
)

func TestEntriesForVoucher(t *testing.T) {
	posted := postedVoucher(t, domain.FlexibleLocked)

	entries := domain.EntriesForVoucher(posted)
	require.Len(t, entries, 2)

	for i, entry := range entries {
		line := posted.Lines[i]
		assert.Equal(t, domain.LedgerEntryID(posted.VoucherID, line.LineID), entry.EntryID)
		assert.Equal(t, posted.VoucherID, entry.VoucherID)
		assert.Equal(t, line.AccountID, entry.AccountID)
		assert.Equal(t, line.Side, entry.Side)
		assert.True(t, entry.BaseAmount.Equal(line.BaseAmount))
		assert.Equal(t, posted.PostedRec.At, entry.PostedAt)
	}

	net := decimal.Zero
	for _, entry := range entries {
		net = net.Add(entry.SignedBaseAmount())
	}
	assert.True(t, net.IsZero())
}

func TestDateOnly_NormalizesAcrossTimezones(t *testing.T) {
	est := time.FixedZone("EST", -5*3600)
	local := time.Date(2025, 1, 15, 23, 30, 0, 0, est)

	normalized := domain.DateOnly(local)
	// 2025-01-15T23:30-05:00 is 2025-01-16T04:30Z; the UTC calendar day wins.
	assert.Equal(t, time.Date(2025, 1, 16, 0, 0, 0, 0, time.UTC), normalized)
}
