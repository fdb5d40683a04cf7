package engine

import "fmt"

// PhaseFetch tags an ingest error raised by the page fetch itself rather
// than by one record.
const PhaseFetch = "fetch"

// IngestError is one entry of IngestStats.Errors.
//
// A per-record failure carries PaymentID. A page-fetch failure carries
// Phase=PhaseFetch and no PaymentID.
type IngestError struct {
	PaymentID string `json:"paymentId,omitempty"`
	Phase     string `json:"phase,omitempty"`
	Error     string `json:"error"`
}

// String renders the entry for logs and text output.
func (e IngestError) String() string {
	switch {
	case e.Phase != "":
		return fmt.Sprintf("[%s] %s", e.Phase, e.Error)
	case e.PaymentID != "":
		return fmt.Sprintf("%s: %s", e.PaymentID, e.Error)
	default:
		return e.Error
	}
}
