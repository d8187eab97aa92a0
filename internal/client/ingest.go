package client

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/crmforce-io/crmq-client/internal/constants"
	"github.com/crmforce-io/crmq-client/internal/http"
	"github.com/crmforce-io/crmq-client/pkg/crmq"
)

// IngestClient implements crmq.IngestClient. One Execute drives one bulk
// mutation job: create, upload exactly one batch, close the upload, wait,
// and collect per-record results. Mutations are never retried automatically.
type IngestClient struct {
	httpClient   *http.Client
	progress     crmq.ProgressReporter
	pollInterval time.Duration
	pollTimeout  time.Duration
}

// NewIngestClient creates a new bulk mutation client.
func NewIngestClient(httpClient *http.Client, progress crmq.ProgressReporter) *IngestClient {
	if progress == nil {
		progress = crmq.NoOpProgress{}
	}

	return &IngestClient{
		httpClient:   httpClient,
		progress:     progress,
		pollInterval: constants.DefaultIngestPollInterval,
		pollTimeout:  constants.DefaultIngestPollTimeout,
	}
}

// Execute implements crmq.IngestClient.Execute.
func (c *IngestClient) Execute(ctx context.Context, object, operation string, records []crmq.Record) (*crmq.IngestResult, error) {
	if len(records) == 0 {
		return nil, &crmq.BulkMutationError{Object: object, Operation: operation, Err: crmq.ErrNoRecordsProvided}
	}

	c.progress.Start(fmt.Sprintf("Running bulk %s of %d %s records", operation, len(records), object))

	job, err := c.createJob(ctx, object, operation)
	if err != nil {
		c.progress.Fail(fmt.Sprintf("Bulk %s failed: %v", operation, err))

		return nil, &crmq.BulkMutationError{Object: object, Operation: operation, Err: err}
	}

	result, err := c.runJob(ctx, job, records)
	if err != nil {
		// Closing the job tells the provider to stop processing; best
		// effort since the job may already be terminal.
		_ = c.closeJob(ctx, job.ID)

		c.progress.Fail(fmt.Sprintf("Bulk %s failed: %v", operation, err))

		return nil, &crmq.BulkMutationError{Object: object, Operation: operation, JobID: job.ID, Err: err}
	}

	c.progress.Done(fmt.Sprintf("Bulk %s finished: %d succeeded, %d failed", operation, result.SuccessCount, result.ErrorCount))

	return result, nil
}

func (c *IngestClient) runJob(ctx context.Context, job *crmq.Job, records []crmq.Record) (*crmq.IngestResult, error) {
	err := c.uploadBatch(ctx, job.ID, records)
	if err != nil {
		return nil, err
	}

	err = c.completeUpload(ctx, job.ID)
	if err != nil {
		return nil, err
	}

	job, err = c.waitForJob(ctx, job.ID)
	if err != nil {
		return nil, err
	}

	return c.collectResults(ctx, job)
}

func (c *IngestClient) createJob(ctx context.Context, object, operation string) (*crmq.Job, error) {
	body := map[string]interface{}{
		"object":    object,
		"operation": operation,
	}

	resp, err := c.httpClient.Post(ctx, constants.APIPathIngestJobs, body)
	if err != nil {
		return nil, fmt.Errorf("creating ingest job: %w", err)
	}

	var job crmq.Job

	err = json.Unmarshal(resp.Body, &job)
	if err != nil {
		return nil, fmt.Errorf("parsing ingest job: %w", err)
	}

	return &job, nil
}

func (c *IngestClient) uploadBatch(ctx context.Context, jobID string, records []crmq.Record) error {
	_, err := c.httpClient.Put(ctx, constants.APIPathIngestJobs+"/"+jobID+"/batches", records)
	if err != nil {
		return fmt.Errorf("uploading batch: %w", err)
	}

	return nil
}

func (c *IngestClient) completeUpload(ctx context.Context, jobID string) error {
	body := map[string]string{"state": crmq.JobStateUploadComplete}

	_, err := c.httpClient.Patch(ctx, constants.APIPathIngestJobs+"/"+jobID, body)
	if err != nil {
		return fmt.Errorf("completing upload: %w", err)
	}

	return nil
}

// closeJob deletes the job resource on the provider side.
func (c *IngestClient) closeJob(ctx context.Context, jobID string) error {
	_, err := c.httpClient.Delete(ctx, constants.APIPathIngestJobs+"/"+jobID)
	if err != nil {
		return fmt.Errorf("closing ingest job: %w", err)
	}

	return nil
}

func (c *IngestClient) getJob(ctx context.Context, jobID string) (*crmq.Job, error) {
	resp, err := c.httpClient.Get(ctx, constants.APIPathIngestJobs+"/"+jobID, nil)
	if err != nil {
		return nil, fmt.Errorf("getting ingest job: %w", err)
	}

	var job crmq.Job

	err = json.Unmarshal(resp.Body, &job)
	if err != nil {
		return nil, fmt.Errorf("parsing ingest job: %w", err)
	}

	return &job, nil
}

func (c *IngestClient) waitForJob(ctx context.Context, jobID string) (*crmq.Job, error) {
	pollCtx, cancel := context.WithTimeout(ctx, c.pollTimeout)
	defer cancel()

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	job, err := c.getJob(pollCtx, jobID)
	if err != nil {
		return nil, err
	}

	for !job.IsTerminal() {
		select {
		case <-pollCtx.Done():
			return nil, fmt.Errorf("%w: job %s still %s", crmq.ErrJobTimeout, jobID, job.State)
		case <-ticker.C:
			job, err = c.getJob(pollCtx, jobID)
			if err != nil {
				return nil, err
			}
		}
	}

	switch job.State {
	case crmq.JobStateFailed:
		return nil, jobFailure(job)
	case crmq.JobStateAborted:
		return nil, fmt.Errorf("%w: job %s", crmq.ErrJobAborted, jobID)
	}

	return job, nil
}

// ingestResultsResponse is the per-record results body of a finished ingest
// job.
type ingestResultsResponse struct {
	Results []crmq.IngestRecordResult `json:"results"`
}

func (c *IngestClient) collectResults(ctx context.Context, job *crmq.Job) (*crmq.IngestResult, error) {
	resp, err := c.httpClient.Get(ctx, constants.APIPathIngestJobs+"/"+job.ID+"/results", nil)
	if err != nil {
		return nil, fmt.Errorf("fetching ingest results: %w", err)
	}

	var body ingestResultsResponse

	err = json.Unmarshal(resp.Body, &body)
	if err != nil {
		return nil, fmt.Errorf("parsing ingest results: %w", err)
	}

	result := &crmq.IngestResult{
		JobID:   job.ID,
		Results: body.Results,
		Total:   len(body.Results),
	}

	for _, record := range body.Results {
		if record.Success {
			result.SuccessCount++
		} else {
			result.ErrorCount++
		}
	}

	return result, nil
}
