package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/crmforce-io/crmq-client/internal/constants"
	"github.com/crmforce-io/crmq-client/internal/http"
	"github.com/crmforce-io/crmq-client/pkg/crmq"
)

// genericDeleteFailure is attached to failed records when the provider gave
// no message of its own.
const genericDeleteFailure = "tooling delete failed for one or more records"

// ToolingClient implements crmq.ToolingClient against the tooling API
// surface.
type ToolingClient struct {
	httpClient *http.Client
}

// NewToolingClient creates a new tooling client.
func NewToolingClient(httpClient *http.Client) *ToolingClient {
	return &ToolingClient{httpClient: httpClient}
}

// Query implements crmq.ToolingClient.Query.
func (c *ToolingClient) Query(ctx context.Context, query string) (*crmq.QueryResult, error) {
	queryParams := url.Values{"q": []string{query}}

	resp, err := c.httpClient.Get(ctx, constants.APIPathToolingQuery, queryParams)
	if err != nil {
		return nil, fmt.Errorf("running tooling query: %w", err)
	}

	return parseQueryResult(resp.Body)
}

// deleteResult is one record's outcome in the tooling delete response.
type deleteResult struct {
	ID      string          `json:"id"`
	Success bool            `json:"success"`
	Errors  []crmq.APIError `json:"errors,omitempty"`
}

// Delete implements crmq.ToolingClient.Delete. It always requests
// allOrNone=false: individual record failures are carried in the envelope
// and are not an error. Only a request-level failure returns an error,
// together with an envelope marking every id failed.
func (c *ToolingClient) Delete(ctx context.Context, object string, ids []string) (*crmq.ResultEnvelope, error) {
	if len(ids) == 0 {
		return nil, &crmq.ToolingDeleteError{Object: object, Err: crmq.ErrNoIDsProvided}
	}

	body := map[string]interface{}{
		"object":    object,
		"ids":       ids,
		"allOrNone": false,
	}

	resp, err := c.httpClient.Post(ctx, constants.APIPathToolingDelete, body)
	if err != nil {
		return crmq.NewResultEnvelope(ids, false, genericDeleteFailure),
			&crmq.ToolingDeleteError{Object: object, Err: err}
	}

	var results []deleteResult

	err = json.Unmarshal(resp.Body, &results)
	if err != nil {
		return crmq.NewResultEnvelope(ids, false, genericDeleteFailure),
			&crmq.ToolingDeleteError{Object: object, Err: fmt.Errorf("parsing delete results: %w", err)}
	}

	envelope := &crmq.ResultEnvelope{}

	for i, result := range results {
		id := result.ID
		if id == "" && i < len(ids) {
			id = ids[i]
		}

		if result.Success {
			envelope.Append(id, true)

			continue
		}

		messages := make([]string, 0, len(result.Errors))
		for _, apiErr := range result.Errors {
			messages = append(messages, apiErr.Message)
		}

		if len(messages) == 0 {
			messages = []string{genericDeleteFailure}
		}

		envelope.Append(id, false, messages...)
	}

	return envelope, nil
}
