package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/roach88/payrecon/internal/ledger"
	"github.com/roach88/payrecon/internal/model"
)

// FakeLedger is an in-memory ledger.Ledger.
type FakeLedger struct {
	mu       sync.Mutex
	payments map[string]model.AuthoritativePayment
	errs     map[string]error
}

// NewFakeLedger creates a ledger holding payments, keyed by PaymentID.
func NewFakeLedger(payments ...model.AuthoritativePayment) *FakeLedger {
	l := &FakeLedger{
		payments: make(map[string]model.AuthoritativePayment),
		errs:     make(map[string]error),
	}
	for _, p := range payments {
		l.Put(p)
	}
	return l
}

// Put adds or replaces a payment.
func (l *FakeLedger) Put(p model.AuthoritativePayment) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if p.Ref == "" {
		p.Ref = "ref-" + p.PaymentID
	}
	l.payments[p.PaymentID] = p
}

// FailFor makes lookups of paymentID return err.
func (l *FakeLedger) FailFor(paymentID string, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errs[paymentID] = err
}

// FindByPaymentID implements ledger.Ledger.
func (l *FakeLedger) FindByPaymentID(ctx context.Context, paymentID string) (model.AuthoritativePayment, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err, ok := l.errs[paymentID]; ok {
		return model.AuthoritativePayment{}, err
	}
	p, ok := l.payments[paymentID]
	if !ok {
		return model.AuthoritativePayment{}, fmt.Errorf("fake ledger %q: %w", paymentID, ledger.ErrNotFound)
	}
	return p, nil
}
