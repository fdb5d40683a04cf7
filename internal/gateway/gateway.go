// Package gateway defines the port the ingestion loop pages through.
//
// The shape follows Square's List Payments endpoint: a time window, a sort
// order, an opaque cursor, and a page limit. Payments keep the raw JSON the
// gateway sent so the staging store can persist it verbatim.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// MaxPageSize is the largest page the gateway serves.
const MaxPageSize = 100

// SortOrder of a list call.
type SortOrder string

const (
	SortAsc  SortOrder = "ASC"
	SortDesc SortOrder = "DESC"
)

// Client lists payments one page at a time.
type Client interface {
	ListPayments(ctx context.Context, req ListRequest) (ListPage, error)
}

// ListRequest is one page request. An empty Cursor asks for the first page.
type ListRequest struct {
	BeginTime  time.Time
	EndTime    time.Time
	SortOrder  SortOrder
	Cursor     string
	Limit      int
	LocationID string
}

// ListPage is one page of results. An empty Cursor means no more pages.
type ListPage struct {
	Payments []Payment
	Cursor   string
}

// Payment is the subset of a gateway payment the reconciler reads.
type Payment struct {
	ID          string       `json:"id"`
	AmountMoney *Money       `json:"amount_money,omitempty"`
	Status      string       `json:"status,omitempty"`
	CardDetails *CardDetails `json:"card_details,omitempty"`
	CreatedAt   string       `json:"created_at,omitempty"`
	UpdatedAt   string       `json:"updated_at,omitempty"`
	LocationID  string       `json:"location_id,omitempty"`

	// Raw is the payload exactly as received.
	Raw json.RawMessage `json:"-"`

	// DecodeErr is set when Raw did not decode into the fields above.
	// ID is then filled only if the payload's id was readable.
	DecodeErr error `json:"-"`
}

// Money is an amount in the currency's minor unit.
type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// CardDetails wraps the card used for the payment.
type CardDetails struct {
	Card *Card `json:"card,omitempty"`
}

// Card carries the masked card number suffix.
type Card struct {
	Last4 string `json:"last_4,omitempty"`
}

// ParsePayment decodes a raw gateway payload and keeps the bytes.
func ParsePayment(raw json.RawMessage) (Payment, error) {
	var p Payment
	if err := json.Unmarshal(raw, &p); err != nil {
		return Payment{}, fmt.Errorf("parse payment: %w", err)
	}
	p.Raw = append(json.RawMessage(nil), raw...)
	return p, nil
}

// DecodePayment is ParsePayment for list results. A payload that does not
// decode still yields a Payment with Raw and DecodeErr set, so one bad
// record can be reported without losing the rest of its page.
func DecodePayment(raw json.RawMessage) Payment {
	p, err := ParsePayment(raw)
	if err == nil {
		return p
	}
	var head struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(raw, &head)
	return Payment{
		ID:        head.ID,
		Raw:       append(json.RawMessage(nil), raw...),
		DecodeErr: err,
	}
}

// WithRaw returns p with Raw set to its own JSON encoding. Useful when a
// payment is built in code rather than received.
func (p Payment) WithRaw() (Payment, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return Payment{}, fmt.Errorf("encode payment %q: %w", p.ID, err)
	}
	p.Raw = b
	return p, nil
}

// AmountMajor converts the minor-unit amount to major units. A payment with
// no amount counts as zero.
func (p Payment) AmountMajor() decimal.Decimal {
	if p.AmountMoney == nil {
		return decimal.Zero
	}
	return decimal.New(p.AmountMoney.Amount, -2)
}

// CardLast4 returns the card suffix, or "" if the payment carries none.
func (p Payment) CardLast4() string {
	if p.CardDetails == nil || p.CardDetails.Card == nil {
		return ""
	}
	return p.CardDetails.Card.Last4
}

// LastUpdated returns updated_at, falling back to created_at.
func (p Payment) LastUpdated() (time.Time, error) {
	s := p.UpdatedAt
	if s == "" {
		s = p.CreatedAt
	}
	if s == "" {
		return time.Time{}, fmt.Errorf("payment %q has no created_at or updated_at", p.ID)
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("payment %q: parse timestamp %q: %w", p.ID, s, err)
	}
	return t, nil
}
