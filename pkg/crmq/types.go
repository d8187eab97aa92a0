package crmq

import (
	"time"
)

// Record represents a single CRM record. Field names follow the provider's
// casing, with "Id" as the identifier field.
type Record map[string]interface{}

// ID returns the record's identifier field, or "" when absent.
func (r Record) ID() string {
	return r.StringField("Id")
}

// StringField returns the named field as a string, or "" when the field is
// absent or not a string.
func (r Record) StringField(name string) string {
	value, ok := r[name].(string)
	if !ok {
		return ""
	}

	return value
}

// QueryResult is the accumulated outcome of a query, synchronous or bulk.
type QueryResult struct {
	Records        []Record `json:"records"                  yaml:"records"`
	TotalSize      int      `json:"totalSize"                yaml:"totalSize"`
	Done           bool     `json:"done"                     yaml:"done"`
	NextRecordsURL string   `json:"nextRecordsUrl,omitempty" yaml:"nextRecordsUrl,omitempty"`
}

// Job represents a provider-side asynchronous bulk job. It lives only for
// the duration of one runner invocation.
type Job struct {
	ID                     string     `json:"id"                         yaml:"id"`
	Object                 string     `json:"object,omitempty"           yaml:"object,omitempty"`
	Operation              string     `json:"operation,omitempty"        yaml:"operation,omitempty"`
	State                  string     `json:"state"                      yaml:"state"`
	CreatedAt              time.Time  `json:"createdAt"                  yaml:"createdAt"`
	UpdatedAt              time.Time  `json:"updatedAt"                  yaml:"updatedAt"`
	NumberRecordsProcessed int        `json:"numberRecordsProcessed"     yaml:"numberRecordsProcessed"`
	NumberRecordsFailed    int        `json:"numberRecordsFailed"        yaml:"numberRecordsFailed"`
	Errors                 []APIError `json:"errors,omitempty"           yaml:"errors,omitempty"`
}

// Job states observed via polling.
const (
	JobStateQueued         = "QUEUED"
	JobStateProcessing     = "PROCESSING"
	JobStateUploadComplete = "UPLOAD_COMPLETE"
	JobStateComplete       = "COMPLETE"
	JobStateFailed         = "FAILED"
	JobStateAborted        = "ABORTED"
)

// IsTerminal reports whether the job has reached a terminal state.
func (j *Job) IsTerminal() bool {
	return j.State == JobStateComplete || j.State == JobStateFailed || j.State == JobStateAborted
}

// Ingest operations supported by the bulk mutation runner. Upsert matches on
// the provider-configured external id field.
const (
	OperationInsert = "insert"
	OperationUpdate = "update"
	OperationUpsert = "upsert"
	OperationDelete = "delete"
)

// IngestRecordResult is one record's outcome from a bulk mutation job.
type IngestRecordResult struct {
	ID      string `json:"id"                yaml:"id"`
	Success bool   `json:"success"           yaml:"success"`
	Created bool   `json:"created,omitempty" yaml:"created,omitempty"`
	Error   string `json:"error,omitempty"   yaml:"error,omitempty"`
}

// IngestResult is the outcome of one bulk mutation job: raw per-record
// results plus aggregate counts.
type IngestResult struct {
	JobID        string               `json:"jobId"        yaml:"jobId"`
	Results      []IngestRecordResult `json:"results"      yaml:"results"`
	Total        int                  `json:"total"        yaml:"total"`
	SuccessCount int                  `json:"successCount" yaml:"successCount"`
	ErrorCount   int                  `json:"errorCount"   yaml:"errorCount"`
}

// Envelope converts the ingest result into the canonical result envelope.
func (r *IngestResult) Envelope() *ResultEnvelope {
	envelope := &ResultEnvelope{
		Records: make([]RecordResult, 0, len(r.Results)),
	}

	for _, result := range r.Results {
		record := RecordResult{ID: result.ID, Success: result.Success}
		if !result.Success {
			record.Errors = []string{result.Error}
		}

		envelope.Records = append(envelope.Records, record)
	}

	envelope.recount()

	return envelope
}

// RootInfo represents the API root response used for endpoint discovery.
type RootInfo struct {
	Links map[string]Link `json:"links" yaml:"links"`
}

// Link represents a single link in API responses.
type Link struct {
	Href   string `json:"href"             yaml:"href"`
	Method string `json:"method,omitempty" yaml:"method,omitempty"`
}
