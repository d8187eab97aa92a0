// Package integration exercises complete workflows through the public client
// against a simulated CRM API.
package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/crmforce-io/crmq-client/pkg/crmq"
)

// fakeCRM simulates the CRM API surface used by the client: synchronous
// queries, bulk query jobs, ingest jobs, and the tooling endpoints. Jobs
// reach a terminal state immediately so polling completes on the first look.
type fakeCRM struct {
	mu sync.Mutex

	// records served by query endpoints
	records []crmq.Record

	// bulkFailures makes the first n bulk query jobs fail with a provider
	// timeout before jobs start succeeding.
	bulkFailures int

	// failDeleteIDs marks tooling delete ids that should fail.
	failDeleteIDs map[string]bool

	queryJobs  int
	ingestJobs int
	lastBatch  []crmq.Record
}

func newFakeCRM(records []crmq.Record) *fakeCRM {
	return &fakeCRM{
		records:       records,
		failDeleteIDs: map[string]bool{},
	}
}

func (f *fakeCRM) server() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(f.handle))
}

func (f *fakeCRM) handle(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")

	path := r.URL.Path

	switch {
	case path == "/":
		f.writeJSON(w, map[string]interface{}{
			"links": map[string]interface{}{
				"query": map[string]string{"href": "/v1/query"},
			},
		})
	case path == "/v1/query" || path == "/v1/tooling/query":
		f.writeJSON(w, crmq.QueryResult{
			Records:   f.records,
			TotalSize: len(f.records),
			Done:      true,
		})
	case path == "/v1/jobs/query" && r.Method == http.MethodPost:
		f.queryJobs++
		f.writeJSON(w, f.queryJob(f.queryJobs))
	case strings.HasPrefix(path, "/v1/jobs/query/") && strings.HasSuffix(path, "/results"):
		f.writeJSON(w, map[string]interface{}{"records": f.records})
	case strings.HasPrefix(path, "/v1/jobs/query/"):
		f.writeJSON(w, f.queryJob(f.queryJobs))
	case path == "/v1/jobs/ingest" && r.Method == http.MethodPost:
		f.ingestJobs++
		f.writeJSON(w, crmq.Job{ID: fmt.Sprintf("ingest-%d", f.ingestJobs), State: crmq.JobStateQueued})
	case strings.HasSuffix(path, "/batches"):
		_ = json.NewDecoder(r.Body).Decode(&f.lastBatch)
		w.WriteHeader(http.StatusCreated)
	case strings.HasPrefix(path, "/v1/jobs/ingest/") && strings.HasSuffix(path, "/results"):
		f.writeJSON(w, map[string]interface{}{"results": f.ingestResults()})
	case strings.HasPrefix(path, "/v1/jobs/ingest/") && r.Method == http.MethodPatch:
		f.writeJSON(w, crmq.Job{State: crmq.JobStateUploadComplete})
	case strings.HasPrefix(path, "/v1/jobs/ingest/"):
		f.writeJSON(w, crmq.Job{State: crmq.JobStateComplete})
	case path == "/v1/tooling/delete":
		f.writeJSON(w, f.deleteResults(r))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

// queryJob returns the job for the n-th bulk query, failing with a provider
// timeout while the failure budget lasts.
func (f *fakeCRM) queryJob(n int) crmq.Job {
	job := crmq.Job{ID: fmt.Sprintf("query-%d", n)}

	if n <= f.bulkFailures {
		job.State = crmq.JobStateFailed
		job.Errors = []crmq.APIError{{ErrorCode: "QUERY_TIMEOUT", Message: "connect ETIMEDOUT"}}

		return job
	}

	job.State = crmq.JobStateComplete
	job.NumberRecordsProcessed = len(f.records)

	return job
}

func (f *fakeCRM) ingestResults() []crmq.IngestRecordResult {
	results := make([]crmq.IngestRecordResult, 0, len(f.lastBatch))
	for _, record := range f.lastBatch {
		results = append(results, crmq.IngestRecordResult{ID: record.ID(), Success: true})
	}

	return results
}

func (f *fakeCRM) deleteResults(r *http.Request) []map[string]interface{} {
	var req struct {
		IDs []string `json:"ids"`
	}

	_ = json.NewDecoder(r.Body).Decode(&req)

	results := make([]map[string]interface{}, 0, len(req.IDs))

	for _, id := range req.IDs {
		if f.failDeleteIDs[id] {
			results = append(results, map[string]interface{}{
				"id":      id,
				"success": false,
				"errors":  []map[string]string{{"errorCode": "ENTITY_IS_DELETED", "message": "entity is deleted"}},
			})

			continue
		}

		results = append(results, map[string]interface{}{"id": id, "success": true})
	}

	return results
}

func (f *fakeCRM) writeJSON(w http.ResponseWriter, v interface{}) {
	_ = json.NewEncoder(w).Encode(v)
}
