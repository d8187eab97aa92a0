package crmq

// RecordResult is one record's outcome inside a ResultEnvelope. A successful
// record carries an empty error list; a failed one carries the messages the
// provider (or the runner) attached.
type RecordResult struct {
	ID      string   `json:"id"               yaml:"id"`
	Success bool     `json:"success"          yaml:"success"`
	Errors  []string `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// ResultEnvelope is the canonical per-record plus aggregate outcome structure
// returned by all runners. Invariant: Total == SuccessCount+ErrorCount ==
// len(Records).
type ResultEnvelope struct {
	Records      []RecordResult `json:"records"      yaml:"records"`
	Total        int            `json:"total"        yaml:"total"`
	SuccessCount int            `json:"successCount" yaml:"successCount"`
	ErrorCount   int            `json:"errorCount"   yaml:"errorCount"`
}

// NewResultEnvelope builds an envelope where every id carries the same
// outcome: an empty error list on success, or a one-element list containing
// message on failure. Pure; it cannot fail given well-formed inputs.
func NewResultEnvelope(ids []string, success bool, message string) *ResultEnvelope {
	envelope := &ResultEnvelope{
		Records: make([]RecordResult, 0, len(ids)),
	}

	for _, id := range ids {
		record := RecordResult{ID: id, Success: success}
		if !success {
			record.Errors = []string{message}
		}

		envelope.Records = append(envelope.Records, record)
	}

	envelope.recount()

	return envelope
}

// Append adds one record outcome and updates the aggregate counts.
func (e *ResultEnvelope) Append(id string, success bool, errs ...string) {
	record := RecordResult{ID: id, Success: success}
	if !success {
		record.Errors = errs
	}

	e.Records = append(e.Records, record)
	e.recount()
}

// HasErrors reports whether any record in the envelope failed.
func (e *ResultEnvelope) HasErrors() bool {
	return e.ErrorCount > 0
}

func (e *ResultEnvelope) recount() {
	e.Total = len(e.Records)
	e.SuccessCount = 0
	e.ErrorCount = 0

	for _, record := range e.Records {
		if record.Success {
			e.SuccessCount++
		} else {
			e.ErrorCount++
		}
	}
}
