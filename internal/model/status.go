package model

import "fmt"

// Status is the reconciliation state of a staging record.
type Status string

const (
	StatusNew         Status = "new"
	StatusChecked     Status = "checked"
	StatusDiscrepancy Status = "discrepancy"
	StatusCompleted   Status = "completed"
)

// AllStatuses lists the vocabulary in display order.
var AllStatuses = []Status{StatusNew, StatusChecked, StatusDiscrepancy, StatusCompleted}

// transitions is the single table of legal status moves.
// Re-running reconciliation may flip checked and discrepancy either way.
// Completed is terminal and is only reached from checked.
var transitions = map[Status][]Status{
	StatusNew:         {StatusChecked, StatusDiscrepancy},
	StatusChecked:     {StatusChecked, StatusDiscrepancy, StatusCompleted},
	StatusDiscrepancy: {StatusChecked, StatusDiscrepancy},
	StatusCompleted:   {},
}

// Valid reports whether s is part of the vocabulary.
func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// Terminal reports whether no transition leaves s.
func (s Status) Terminal() bool {
	return s.Valid() && len(transitions[s]) == 0
}

// CanTransition reports whether from → to is in the transition table.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition returns to if the move is legal, or an *InvalidTransitionError.
func Transition(from, to Status) (Status, error) {
	if !CanTransition(from, to) {
		return from, &InvalidTransitionError{From: from, To: to}
	}
	return to, nil
}

// ParseStatus converts a stored string into a Status.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.Valid() {
		return "", fmt.Errorf("unknown status %q", s)
	}
	return st, nil
}

// VerdictStatus is the status a reconciliation result drives a record to.
func VerdictStatus(r ReconciliationResult) Status {
	if len(r.Discrepancies) > 0 {
		return StatusDiscrepancy
	}
	return StatusChecked
}
