package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/roach88/payrecon/internal/gateway"
)

// FakeGateway serves a fixed sequence of pages. Page i is returned for the
// i-th call; its cursor is "page-<i+1>" unless it is the last page.
type FakeGateway struct {
	mu       sync.Mutex
	pages    [][]gateway.Payment
	failAt   int
	failErr  error
	requests []gateway.ListRequest
}

// NewFakeGateway creates a gateway serving pages in order.
func NewFakeGateway(pages ...[]gateway.Payment) *FakeGateway {
	return &FakeGateway{pages: pages, failAt: -1}
}

// FailOnCall makes the n-th call (0-based) return err.
func (g *FakeGateway) FailOnCall(n int, err error) *FakeGateway {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failAt = n
	g.failErr = err
	return g
}

// Requests returns a copy of every request received.
func (g *FakeGateway) Requests() []gateway.ListRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]gateway.ListRequest(nil), g.requests...)
}

// ListPayments implements gateway.Client.
func (g *FakeGateway) ListPayments(ctx context.Context, req gateway.ListRequest) (gateway.ListPage, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	call := len(g.requests)
	g.requests = append(g.requests, req)

	if call == g.failAt {
		return gateway.ListPage{}, g.failErr
	}
	if call >= len(g.pages) {
		return gateway.ListPage{}, nil
	}

	page := gateway.ListPage{Payments: g.pages[call]}
	if call < len(g.pages)-1 {
		page.Cursor = fmt.Sprintf("page-%d", call+1)
	}
	return page, nil
}

// PaymentSpec describes a gateway payment for tests.
type PaymentSpec struct {
	ID        string
	Amount    int64 // minor units
	Currency  string
	Status    string
	CardLast4 string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewPayment builds a gateway payment with its raw JSON filled in.
func NewPayment(s PaymentSpec) gateway.Payment {
	p := gateway.Payment{
		ID:          s.ID,
		Status:      s.Status,
		AmountMoney: &gateway.Money{Amount: s.Amount, Currency: s.Currency},
	}
	if p.AmountMoney.Currency == "" {
		p.AmountMoney.Currency = "USD"
	}
	if s.CardLast4 != "" {
		p.CardDetails = &gateway.CardDetails{Card: &gateway.Card{Last4: s.CardLast4}}
	}
	if !s.CreatedAt.IsZero() {
		p.CreatedAt = s.CreatedAt.UTC().Format(time.RFC3339Nano)
	}
	if !s.UpdatedAt.IsZero() {
		p.UpdatedAt = s.UpdatedAt.UTC().Format(time.RFC3339Nano)
	}
	p, err := p.WithRaw()
	if err != nil {
		panic(err)
	}
	return p
}

// Payments builds n payments with ids prefix-0 … prefix-(n-1).
func Payments(prefix string, n int) []gateway.Payment {
	out := make([]gateway.Payment, n)
	for i := range out {
		out[i] = NewPayment(PaymentSpec{ID: fmt.Sprintf("%s-%d", prefix, i), Amount: 100, Status: "COMPLETED"})
	}
	return out
}
