package model

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// RetentionWindow is how long a staging record lives after first insertion.
const RetentionWindow = 7 * 24 * time.Hour

// StagingRecord is the staged copy of one gateway payment.
type StagingRecord struct {
	ExternalPaymentID    string                `json:"externalPaymentId"`
	Status               Status                `json:"status"`
	FetchedAt            time.Time             `json:"fetchedAt"`
	ExpiresAt            time.Time             `json:"expiresAt"`
	RawPayload           json.RawMessage       `json:"rawPayload"`
	ReconciliationResult *ReconciliationResult `json:"reconciliationResult,omitempty"`
}

// NewStagingRecord builds a first-sighting record. ExpiresAt is derived from
// fetchedAt here and nowhere else.
func NewStagingRecord(id string, payload json.RawMessage, fetchedAt time.Time) StagingRecord {
	return StagingRecord{
		ExternalPaymentID: id,
		Status:            StatusNew,
		FetchedAt:         fetchedAt,
		ExpiresAt:         fetchedAt.Add(RetentionWindow),
		RawPayload:        payload,
	}
}

// ReconciliationResult is the verdict of comparing one staging record with
// its authoritative counterpart.
type ReconciliationResult struct {
	CheckedAt        time.Time      `json:"checkedAt"`
	MatchFound       bool           `json:"matchFound"`
	AuthoritativeRef string         `json:"authoritativeRef,omitempty"`
	MatchedFields    *MatchedFields `json:"matchedFields,omitempty"`
	Discrepancies    []Discrepancy  `json:"discrepancies,omitempty"`

	// Inconclusive names comparisons that had too little data to decide.
	Inconclusive []string `json:"inconclusive,omitempty"`
}

// MatchedFields flags which of the compared fields agreed.
type MatchedFields struct {
	Amount    bool `json:"amount"`
	Status    bool `json:"status"`
	CardLast4 bool `json:"cardLast4"`
	UpdatedAt bool `json:"updatedAt"`
}

// Discrepancy is a single field-level mismatch.
type Discrepancy struct {
	Field         string `json:"field"`
	ExternalValue string `json:"externalValue"`
	InternalValue string `json:"internalValue"`
	Reason        string `json:"reason"`
}

// Compared field names, used in Discrepancy.Field and Inconclusive.
const (
	FieldAmount    = "amount"
	FieldStatus    = "status"
	FieldCardLast4 = "cardLast4"
	FieldUpdatedAt = "updatedAt"
)

// AuthoritativePayment is the system-of-record payment. Read-only here.
type AuthoritativePayment struct {
	// Ref is the ledger's own row identifier.
	Ref              string
	PaymentID        string
	GrossAmount      decimal.Decimal
	Status           string
	CardLast4        string
	UpdatedAt        *time.Time
	GatewayUpdatedAt *time.Time
}

// StatsSummary is the staging histogram.
type StatsSummary struct {
	Total         int `json:"total"`
	New           int `json:"new"`
	Checked       int `json:"checked"`
	Completed     int `json:"completed"`
	Discrepancies int `json:"discrepancies"`
	ExpiringIn24h int `json:"expiringIn24h"`

	// Unmatched is the subset of Checked with no authoritative counterpart.
	Unmatched int `json:"unmatched"`
}
