package kinds

import (
	"fmt"

	"github.com/finpost/voucher_posting_engine/internal/core/domain"
)

// Registry maps voucher kinds to their handlers. The handler set is small
// and known at compile time; registration happens once at construction.
type Registry struct {
	handlers map[domain.VoucherKind]Handler
}

// NewRegistry builds a registry with every posting kind registered.
func NewRegistry() *Registry {
	r := &Registry{handlers: make(map[domain.VoucherKind]Handler)}
	r.mustRegister(&paymentHandler{})
	r.mustRegister(&receiptHandler{})
	r.mustRegister(&journalEntryHandler{})
	r.mustRegister(&openingBalanceHandler{})
	return r
}

func (r *Registry) mustRegister(h Handler) {
	if _, exists := r.handlers[h.Kind()]; exists {
		panic(fmt.Sprintf("duplicate handler for voucher kind %s", h.Kind()))
	}
	r.handlers[h.Kind()] = h
}

// Get retrieves the handler for a voucher kind.
func (r *Registry) Get(kind domain.VoucherKind) (Handler, error) {
	h, exists := r.handlers[kind]
	if !exists {
		return nil, fmt.Errorf("no handler registered for voucher kind %s", kind)
	}
	return h, nil
}

// Has reports whether a handler exists for the kind.
func (r *Registry) Has(kind domain.VoucherKind) bool {
	_, exists := r.handlers[kind]
	return exists
}
