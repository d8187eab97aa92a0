package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/crmforce-io/crmq-client/internal/constants"
	"github.com/crmforce-io/crmq-client/internal/http"
	"github.com/crmforce-io/crmq-client/pkg/crmq"
)

// BulkQueryClient implements crmq.BulkQueryClient. One Run drives one bulk
// query job to completion, retrying the whole job on timeout-flagged
// failures up to maxRetry total tries. Any other failure is fatal
// immediately.
type BulkQueryClient struct {
	httpClient   *http.Client
	maxRetry     int
	progress     crmq.ProgressReporter
	pollInterval time.Duration
	pollTimeout  time.Duration
}

// NewBulkQueryClient creates a new bulk query client. maxRetry bounds total
// tries including the first.
func NewBulkQueryClient(httpClient *http.Client, maxRetry int, progress crmq.ProgressReporter) *BulkQueryClient {
	if maxRetry <= 0 {
		maxRetry = constants.DefaultMaxQueryRetry
	}

	if progress == nil {
		progress = crmq.NoOpProgress{}
	}

	return &BulkQueryClient{
		httpClient:   httpClient,
		maxRetry:     maxRetry,
		progress:     progress,
		pollInterval: constants.DefaultQueryPollInterval,
		pollTimeout:  constants.DefaultQueryPollTimeout,
	}
}

// Run implements crmq.BulkQueryClient.Run.
func (c *BulkQueryClient) Run(ctx context.Context, query string) (*crmq.QueryResult, error) {
	c.progress.Start("Running bulk query")

	var lastErr error

	for attempt := 1; attempt <= c.maxRetry; attempt++ {
		if attempt > 1 {
			c.progress.Update(fmt.Sprintf("Retrying bulk query (attempt %d of %d)", attempt, c.maxRetry))
		}

		result, err := c.runOnce(ctx, query)
		if err == nil {
			c.progress.Done(fmt.Sprintf("Bulk query returned %d records", result.TotalSize))

			return result, nil
		}

		lastErr = err

		// Only timeout-flagged failures are worth another try; everything
		// else fails the run immediately.
		if !crmq.IsTimeout(err) {
			c.progress.Fail(fmt.Sprintf("Bulk query failed: %v", err))

			return nil, &crmq.BulkQueryError{Query: query, Attempts: attempt, Err: err}
		}
	}

	c.progress.Fail(fmt.Sprintf("Bulk query failed after %d attempts: %v", c.maxRetry, lastErr))

	return nil, &crmq.BulkQueryError{Query: query, Attempts: c.maxRetry, Err: lastErr}
}

// runOnce creates one bulk query job, waits for it to finish, and collects
// its result pages.
func (c *BulkQueryClient) runOnce(ctx context.Context, query string) (*crmq.QueryResult, error) {
	job, err := c.createJob(ctx, query)
	if err != nil {
		return nil, err
	}

	job, err = c.waitForJob(ctx, job.ID)
	if err != nil {
		return nil, err
	}

	return c.collectResults(ctx, job)
}

func (c *BulkQueryClient) createJob(ctx context.Context, query string) (*crmq.Job, error) {
	body := map[string]interface{}{
		"operation": "query",
		"query":     query,
	}

	resp, err := c.httpClient.Post(ctx, constants.APIPathQueryJobs, body)
	if err != nil {
		return nil, fmt.Errorf("creating bulk query job: %w", err)
	}

	var job crmq.Job

	err = json.Unmarshal(resp.Body, &job)
	if err != nil {
		return nil, fmt.Errorf("parsing bulk query job: %w", err)
	}

	return &job, nil
}

func (c *BulkQueryClient) getJob(ctx context.Context, jobID string) (*crmq.Job, error) {
	resp, err := c.httpClient.Get(ctx, constants.APIPathQueryJobs+"/"+jobID, nil)
	if err != nil {
		return nil, fmt.Errorf("getting bulk query job: %w", err)
	}

	var job crmq.Job

	err = json.Unmarshal(resp.Body, &job)
	if err != nil {
		return nil, fmt.Errorf("parsing bulk query job: %w", err)
	}

	return &job, nil
}

// waitForJob polls the job until it reaches a terminal state or the poll
// budget runs out.
func (c *BulkQueryClient) waitForJob(ctx context.Context, jobID string) (*crmq.Job, error) {
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

// collectResults fetches all result pages of a completed job, following the
// locator until the provider reports no more pages.
func (c *BulkQueryClient) collectResults(ctx context.Context, job *crmq.Job) (*crmq.QueryResult, error) {
	combined := &crmq.QueryResult{Done: true}
	locator := ""

	for {
		page, nextLocator, err := c.getResultPage(ctx, job.ID, locator)
		if err != nil {
			return nil, err
		}

		combined.Records = append(combined.Records, page...)

		if nextLocator == "" {
			break
		}

		locator = nextLocator
	}

	combined.TotalSize = len(combined.Records)

	return combined, nil
}

// resultPage is one page of a bulk query job's results.
type resultPage struct {
	Records []crmq.Record `json:"records"`
	Locator string        `json:"locator,omitempty"`
}

func (c *BulkQueryClient) getResultPage(ctx context.Context, jobID, locator string) ([]crmq.Record, string, error) {
	var query url.Values
	if locator != "" {
		query = url.Values{"locator": []string{locator}}
	}

	resp, err := c.httpClient.Get(ctx, constants.APIPathQueryJobs+"/"+jobID+"/results", query)
	if err != nil {
		return nil, "", fmt.Errorf("fetching bulk query results: %w", err)
	}

	var page resultPage

	err = json.Unmarshal(resp.Body, &page)
	if err != nil {
		return nil, "", fmt.Errorf("parsing bulk query results: %w", err)
	}

	return page.Records, page.Locator, nil
}

// jobFailure converts a failed job into an error carrying the provider's
// error details, preserving timeout flagging for the retry decision.
func jobFailure(job *crmq.Job) error {
	if len(job.Errors) > 0 {
		first := job.Errors[0]

		return fmt.Errorf("%w: %w", crmq.ErrJobFailed, &first)
	}

	return fmt.Errorf("%w: job %s", crmq.ErrJobFailed, job.ID)
}
