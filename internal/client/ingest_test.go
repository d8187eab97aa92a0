package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crmforce-io/crmq-client/internal/constants"
	internalhttp "github.com/crmforce-io/crmq-client/internal/http"
	"github.com/crmforce-io/crmq-client/pkg/crmq"
)

func newTestIngestClient(baseURL string) *IngestClient {
	client := NewIngestClient(internalhttp.NewClient(baseURL, nil), nil)
	client.pollInterval = constants.QuickPollInterval

	return client
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestIngestClient_Execute(t *testing.T) {
	var (
		uploadedRecords []crmq.Record
		uploadCompleted bool
	)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/v1/jobs/ingest":
			var body map[string]string

			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "Account", body["object"])
			assert.Equal(t, crmq.OperationUpdate, body["operation"])

			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(crmq.Job{ID: "ingest-1", State: crmq.JobStateQueued})
		case r.Method == http.MethodPut && r.URL.Path == "/v1/jobs/ingest/ingest-1/batches":
			require.NoError(t, json.NewDecoder(r.Body).Decode(&uploadedRecords))
			w.WriteHeader(http.StatusCreated)
		case r.Method == http.MethodPatch && r.URL.Path == "/v1/jobs/ingest/ingest-1":
			var body map[string]string

			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, crmq.JobStateUploadComplete, body["state"])

			uploadCompleted = true

			_ = json.NewEncoder(w).Encode(crmq.Job{ID: "ingest-1", State: crmq.JobStateUploadComplete})
		case r.Method == http.MethodGet && r.URL.Path == "/v1/jobs/ingest/ingest-1":
			state := crmq.JobStateProcessing
			if uploadCompleted {
				state = crmq.JobStateComplete
			}

			_ = json.NewEncoder(w).Encode(crmq.Job{
				ID:                     "ingest-1",
				State:                  state,
				NumberRecordsProcessed: 2,
				NumberRecordsFailed:    1,
			})
		case r.Method == http.MethodGet && r.URL.Path == "/v1/jobs/ingest/ingest-1/results":
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"results": []crmq.IngestRecordResult{
					{ID: "001xx0001", Success: true},
					{ID: "001xx0002", Success: false, Error: "REQUIRED_FIELD_MISSING: Name"},
				},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := newTestIngestClient(server.URL)

	records := []crmq.Record{
		{"Id": "001xx0001", "Name": "Acme"},
		{"Id": "001xx0002"},
	}

	result, err := client.Execute(context.Background(), "Account", crmq.OperationUpdate, records)
	require.NoError(t, err)
	assert.Equal(t, "ingest-1", result.JobID)
	assert.Equal(t, 2, result.Total)
	assert.Equal(t, 1, result.SuccessCount)
	assert.Equal(t, 1, result.ErrorCount)
	assert.Len(t, uploadedRecords, 2)

	envelope := result.Envelope()
	assert.Equal(t, result.Total, envelope.Total)
	assert.Equal(t, envelope.SuccessCount+envelope.ErrorCount, envelope.Total)
	assert.True(t, envelope.HasErrors())
}

func TestIngestClient_Execute_NoRecords(t *testing.T) {
	client := newTestIngestClient("http://localhost:0")

	result, err := client.Execute(context.Background(), "Account", crmq.OperationInsert, nil)
	require.Error(t, err)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, crmq.ErrNoRecordsProvided)
}

func TestIngestClient_Execute_JobFailureClosesJob(t *testing.T) {
	jobClosed := false

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		switch {
		case r.Method == http.MethodPost:
			_ = json.NewEncoder(w).Encode(crmq.Job{ID: "ingest-2", State: crmq.JobStateQueued})
		case r.Method == http.MethodPut || r.Method == http.MethodPatch:
			w.WriteHeader(http.StatusOK)
		case r.Method == http.MethodGet && r.URL.Path == "/v1/jobs/ingest/ingest-2":
			_ = json.NewEncoder(w).Encode(crmq.Job{
				ID:     "ingest-2",
				State:  crmq.JobStateFailed,
				Errors: []crmq.APIError{{ErrorCode: "INVALID_FIELD", Message: "No such column"}},
			})
		case r.Method == http.MethodDelete && r.URL.Path == "/v1/jobs/ingest/ingest-2":
			jobClosed = true

			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := newTestIngestClient(server.URL)

	result, err := client.Execute(context.Background(), "Account", crmq.OperationDelete, []crmq.Record{{"Id": "001xx0001"}})
	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, jobClosed)

	var mutationErr *crmq.BulkMutationError

	require.True(t, errors.As(err, &mutationErr))
	assert.Equal(t, "Account", mutationErr.Object)
	assert.Equal(t, crmq.OperationDelete, mutationErr.Operation)
	assert.Equal(t, "ingest-2", mutationErr.JobID)
	assert.ErrorIs(t, err, crmq.ErrJobFailed)
}

func TestIngestClient_Execute_NeverRetries(t *testing.T) {
	jobsCreated := 0

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		switch {
		case r.Method == http.MethodPost:
			jobsCreated++

			_ = json.NewEncoder(w).Encode(crmq.Job{ID: "ingest-3", State: crmq.JobStateQueued})
		case r.Method == http.MethodPut || r.Method == http.MethodPatch || r.Method == http.MethodDelete:
			w.WriteHeader(http.StatusOK)
		case r.Method == http.MethodGet:
			// Timeout-flagged failure; mutations must still not be retried.
			_ = json.NewEncoder(w).Encode(crmq.Job{
				ID:     "ingest-3",
				State:  crmq.JobStateFailed,
				Errors: []crmq.APIError{{ErrorCode: "QUERY_TIMEOUT", Message: "ETIMEDOUT"}},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := newTestIngestClient(server.URL)

	_, err := client.Execute(context.Background(), "Account", crmq.OperationUpdate, []crmq.Record{{"Id": "001xx0001"}})
	require.Error(t, err)
	assert.Equal(t, 1, jobsCreated)
}
