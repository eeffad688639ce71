package services

import (
	"context"
	"fmt"
	"time"

	"github.com/finpost/voucher_posting_engine/internal/core/domain"
	portsrepo "github.com/finpost/voucher_posting_engine/internal/core/ports/repositories"
	portssvc "github.com/finpost/voucher_posting_engine/internal/core/ports/services"
)

// kindPrefixes are the document-number prefixes per voucher kind.
var kindPrefixes = map[domain.VoucherKind]string{
	domain.Payment:        "PV",
	domain.Receipt:        "RV",
	domain.JournalEntry:   "JE",
	domain.OpeningBalance: "OB",
	domain.Reversal:       "RX",
}

// numberService issues human-facing voucher numbers like "PV-2026-000042",
// sequenced per company, kind and accounting year.
type numberService struct {
	sequences portsrepo.NumberSequenceRepository
}

// NewNumberService creates the voucher number generator.
func NewNumberService(sequences portsrepo.NumberSequenceRepository) portssvc.NumberSvcFacade {
	return &numberService{sequences: sequences}
}

var _ portssvc.NumberSvcFacade = (*numberService)(nil)

func (s *numberService) Generate(ctx context.Context, companyID string, kind domain.VoucherKind, date time.Time) (string, error) {
	prefix, ok := kindPrefixes[kind]
	if !ok {
		prefix = "VX"
	}
	year := date.UTC().Year()
	seq, err := s.sequences.NextNumber(ctx, companyID, kind, year)
	if err != nil {
		return "", fmt.Errorf("failed to allocate %s sequence for %d: %w", prefix, year, err)
	}
	return fmt.Sprintf("%s-%d-%06d", prefix, year, seq), nil
}
