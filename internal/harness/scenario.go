package harness

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/roach88/payrecon/internal/model"
)

// DefaultNow is the scenario clock when a scenario sets none.
var DefaultNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// Scenario defines one end-to-end reconciliation case.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Now is the initial clock reading. Defaults to DefaultNow.
	Now time.Time `yaml:"now,omitempty"`

	// PageSize splits Payments into gateway pages. Zero serves one page.
	PageSize int `yaml:"page_size,omitempty"`

	// Payments are served by the gateway in order.
	Payments []PaymentFixture `yaml:"payments"`

	// Ledger holds the authoritative rows.
	Ledger []LedgerFixture `yaml:"ledger,omitempty"`

	// Steps run in order. See the package doc for the vocabulary.
	Steps []string `yaml:"steps"`

	// Assertions are checked against the final state.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// PaymentFixture is one gateway payment. Amount is in minor units.
type PaymentFixture struct {
	ID        string     `yaml:"id"`
	Amount    int64      `yaml:"amount"`
	Currency  string     `yaml:"currency,omitempty"`
	Status    string     `yaml:"status"`
	CardLast4 string     `yaml:"card_last4,omitempty"`
	CreatedAt *time.Time `yaml:"created_at,omitempty"`
	UpdatedAt *time.Time `yaml:"updated_at,omitempty"`
}

// LedgerFixture is one authoritative payment row.
type LedgerFixture struct {
	Ref              string     `yaml:"ref,omitempty"`
	PaymentID        string     `yaml:"payment_id"`
	GrossAmount      string     `yaml:"gross_amount"`
	Status           string     `yaml:"status,omitempty"`
	CardLast4        string     `yaml:"card_last4,omitempty"`
	UpdatedAt        *time.Time `yaml:"updated_at,omitempty"`
	GatewayUpdatedAt *time.Time `yaml:"gateway_updated_at,omitempty"`
}

// Authoritative converts the fixture into a ledger payment.
func (f LedgerFixture) Authoritative() (model.AuthoritativePayment, error) {
	gross, err := decimal.NewFromString(f.GrossAmount)
	if err != nil {
		return model.AuthoritativePayment{}, fmt.Errorf("ledger %s: gross_amount: %w", f.PaymentID, err)
	}
	return model.AuthoritativePayment{
		Ref:              f.Ref,
		PaymentID:        f.PaymentID,
		GrossAmount:      gross,
		Status:           f.Status,
		CardLast4:        f.CardLast4,
		UpdatedAt:        utcPtr(f.UpdatedAt),
		GatewayUpdatedAt: utcPtr(f.GatewayUpdatedAt),
	}, nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

// Assertion checks the final state.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Payment is the staging record id (status, match_found, discrepancies,
	// inconclusive, absent).
	Payment string `yaml:"payment,omitempty"`

	// Status is the expected record status (status).
	Status string `yaml:"status,omitempty"`

	// MatchFound is the expected verdict flag (match_found).
	MatchFound *bool `yaml:"match_found,omitempty"`

	// Fields are the expected discrepancy or inconclusive field names, in
	// order (discrepancies, inconclusive).
	Fields []string `yaml:"fields,omitempty"`

	// Stats are expected StatsSummary values keyed by JSON name (stats).
	// Only listed keys are checked.
	Stats map[string]int `yaml:"stats,omitempty"`
}

// Assertion type constants.
const (
	AssertStatus        = "status"
	AssertMatchFound    = "match_found"
	AssertDiscrepancies = "discrepancies"
	AssertInconclusive  = "inconclusive"
	AssertAbsent        = "absent"
	AssertStats         = "stats"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML with strict field checking.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if s.PageSize < 0 {
		return fmt.Errorf("page_size must not be negative")
	}

	seen := make(map[string]bool)
	for i, p := range s.Payments {
		if p.ID == "" {
			return fmt.Errorf("payments[%d]: id is required", i)
		}
		if seen[p.ID] {
			return fmt.Errorf("payments[%d]: duplicate id %q", i, p.ID)
		}
		seen[p.ID] = true
	}
	for i, l := range s.Ledger {
		if l.PaymentID == "" {
			return fmt.Errorf("ledger[%d]: payment_id is required", i)
		}
		if _, err := l.Authoritative(); err != nil {
			return fmt.Errorf("ledger[%d]: %w", i, err)
		}
	}
	for i, step := range s.Steps {
		if _, err := parseStep(step); err != nil {
			return fmt.Errorf("steps[%d]: %w", i, err)
		}
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(a); err != nil {
			return fmt.Errorf("assertions[%d]: %w", i, err)
		}
	}
	return nil
}

func validateAssertion(a Assertion) error {
	switch a.Type {
	case AssertStatus:
		if _, err := model.ParseStatus(a.Status); err != nil {
			return err
		}
	case AssertMatchFound:
		if a.MatchFound == nil {
			return fmt.Errorf("match_found assertion requires match_found")
		}
	case AssertDiscrepancies, AssertInconclusive, AssertAbsent:
	case AssertStats:
		if len(a.Stats) == 0 {
			return fmt.Errorf("stats assertion requires stats")
		}
		return nil
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	if a.Payment == "" {
		return fmt.Errorf("%s assertion requires payment", a.Type)
	}
	return nil
}

// step is one parsed entry of Scenario.Steps.
type step struct {
	kind string
	arg  string
	dur  time.Duration
}

// Step kinds.
const (
	stepIngest       = "ingest"
	stepReconcile    = "reconcile"
	stepReconcileNew = "reconcile_new"
	stepComplete     = "complete"
	stepAdvance      = "advance"
	stepPurge        = "purge"
)

func parseStep(s string) (step, error) {
	kind, arg, hasArg := strings.Cut(s, ":")
	switch kind {
	case stepIngest, stepReconcile, stepReconcileNew, stepPurge:
		if hasArg {
			return step{}, fmt.Errorf("step %q takes no argument", kind)
		}
		return step{kind: kind}, nil
	case stepComplete:
		if arg == "" {
			return step{}, fmt.Errorf("complete needs a payment id")
		}
		return step{kind: kind, arg: arg}, nil
	case stepAdvance:
		d, err := time.ParseDuration(arg)
		if err != nil {
			return step{}, fmt.Errorf("advance: %w", err)
		}
		return step{kind: kind, arg: arg, dur: d}, nil
	default:
		return step{}, fmt.Errorf("unknown step %q", s)
	}
}
