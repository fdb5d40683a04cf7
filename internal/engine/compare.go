package engine

import (
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/roach88/payrecon/internal/gateway"
	"github.com/roach88/payrecon/internal/model"
)

var (
	// AmountTolerance is the largest amount difference, exclusive, that
	// still counts as a match.
	AmountTolerance = decimal.New(1, -2)

	// TimestampTolerance is the largest update-time difference, exclusive,
	// that still counts as a match.
	TimestampTolerance = 60 * time.Second
)

// gatewayStatusMap translates gateway status codes into ledger vocabulary.
// Codes not listed pass through lower-cased.
var gatewayStatusMap = map[string]string{
	"COMPLETED": "paid",
	"APPROVED":  "paid",
	"PENDING":   "pending",
	"FAILED":    "failed",
	"CANCELED":  "cancelled",
}

// MapGatewayStatus returns the ledger status a gateway status code means.
func MapGatewayStatus(code string) string {
	if mapped, ok := gatewayStatusMap[code]; ok {
		return mapped
	}
	return cases.Lower(language.Und).String(code)
}

// comparison is the outcome of comparing one field.
type comparison struct {
	matched      bool
	discrepancy  *model.Discrepancy
	inconclusive bool
}

// compareFields runs the four field comparisons between a gateway payment
// and its ledger record. The comparisons are independent of each other.
func compareFields(p gateway.Payment, a model.AuthoritativePayment) (model.MatchedFields, []model.Discrepancy, []string) {
	var (
		matched       model.MatchedFields
		discrepancies []model.Discrepancy
		inconclusive  []string
	)

	collect := func(field string, c comparison, flag *bool) {
		*flag = c.matched
		if c.discrepancy != nil {
			discrepancies = append(discrepancies, *c.discrepancy)
		}
		if c.inconclusive {
			inconclusive = append(inconclusive, field)
		}
	}

	collect(model.FieldAmount, compareAmount(p, a), &matched.Amount)
	collect(model.FieldStatus, compareStatus(p, a), &matched.Status)
	collect(model.FieldCardLast4, compareCardLast4(p, a), &matched.CardLast4)
	collect(model.FieldUpdatedAt, compareUpdatedAt(p, a), &matched.UpdatedAt)

	return matched, discrepancies, inconclusive
}

func compareAmount(p gateway.Payment, a model.AuthoritativePayment) comparison {
	external := p.AmountMajor()
	if external.Sub(a.GrossAmount).Abs().LessThan(AmountTolerance) {
		return comparison{matched: true}
	}
	return comparison{discrepancy: &model.Discrepancy{
		Field:         model.FieldAmount,
		ExternalValue: external.StringFixed(2),
		InternalValue: a.GrossAmount.StringFixed(2),
		Reason:        "Amount mismatch",
	}}
}

func compareStatus(p gateway.Payment, a model.AuthoritativePayment) comparison {
	mapped := MapGatewayStatus(p.Status)
	internal := "unknown"
	if a.Status != "" {
		internal = cases.Lower(language.Und).String(a.Status)
	}

	fold := cases.Fold()
	if fold.String(mapped) == fold.String(internal) {
		return comparison{matched: true}
	}
	return comparison{discrepancy: &model.Discrepancy{
		Field:         model.FieldStatus,
		ExternalValue: p.Status,
		InternalValue: a.Status,
		Reason:        fmt.Sprintf("Status mismatch (mapped: %s vs %s)", mapped, internal),
	}}
}

// compareCardLast4 treats a suffix present on only one side as inconclusive:
// neither a match nor a discrepancy.
func compareCardLast4(p gateway.Payment, a model.AuthoritativePayment) comparison {
	external := p.CardLast4()
	switch {
	case external == "" && a.CardLast4 == "":
		return comparison{matched: true}
	case external == "" || a.CardLast4 == "":
		return comparison{inconclusive: true}
	case external == a.CardLast4:
		return comparison{matched: true}
	default:
		return comparison{discrepancy: &model.Discrepancy{
			Field:         model.FieldCardLast4,
			ExternalValue: external,
			InternalValue: a.CardLast4,
			Reason:        "Card last 4 digits mismatch",
		}}
	}
}

// compareUpdatedAt is skipped when the ledger has no timestamp. A gateway
// payment without a usable timestamp is a discrepancy.
func compareUpdatedAt(p gateway.Payment, a model.AuthoritativePayment) comparison {
	internal := a.GatewayUpdatedAt
	if internal == nil {
		internal = a.UpdatedAt
	}
	if internal == nil {
		return comparison{inconclusive: true}
	}
	internalValue := internal.UTC().Format(time.RFC3339Nano)

	external, err := p.LastUpdated()
	if err != nil {
		return comparison{discrepancy: &model.Discrepancy{
			Field:         model.FieldUpdatedAt,
			InternalValue: internalValue,
			Reason:        "Gateway timestamp missing or invalid",
		}}
	}

	diff := external.Sub(*internal)
	if diff < 0 {
		diff = -diff
	}
	if diff < TimestampTolerance {
		return comparison{matched: true}
	}
	return comparison{discrepancy: &model.Discrepancy{
		Field:         model.FieldUpdatedAt,
		ExternalValue: external.UTC().Format(time.RFC3339Nano),
		InternalValue: internalValue,
		Reason:        "Timestamp difference: " + strconv.FormatFloat(diff.Seconds(), 'f', -1, 64) + " seconds",
	}}
}
