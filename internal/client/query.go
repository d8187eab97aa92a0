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

// QueryClient implements crmq.QueryClient against the synchronous query
// endpoint.
type QueryClient struct {
	httpClient *http.Client
	cache      crmq.Cache
}

// NewQueryClient creates a new synchronous query client. The cache may be
// nil.
func NewQueryClient(httpClient *http.Client, cache crmq.Cache) *QueryClient {
	return &QueryClient{
		httpClient: httpClient,
		cache:      cache,
	}
}

// Query implements crmq.QueryClient.Query. It follows nextRecordsUrl pages
// until the result is done and returns the accumulated records.
func (c *QueryClient) Query(ctx context.Context, query string) (*crmq.QueryResult, error) {
	if cached, ok := c.cachedResult(ctx, query); ok {
		return cached, nil
	}

	result, err := c.QueryOne(ctx, query)
	if err != nil {
		return nil, err
	}

	for !result.Done && result.NextRecordsURL != "" {
		page, err := c.QueryMore(ctx, result.NextRecordsURL)
		if err != nil {
			return nil, err
		}

		result.Records = append(result.Records, page.Records...)
		result.Done = page.Done
		result.NextRecordsURL = page.NextRecordsURL
	}

	result.TotalSize = len(result.Records)

	c.storeResult(ctx, query, result)

	return result, nil
}

// QueryOne implements crmq.QueryClient.QueryOne.
func (c *QueryClient) QueryOne(ctx context.Context, query string) (*crmq.QueryResult, error) {
	queryParams := url.Values{"q": []string{query}}

	resp, err := c.httpClient.Get(ctx, constants.APIPathQuery, queryParams)
	if err != nil {
		return nil, fmt.Errorf("running query: %w", err)
	}

	return parseQueryResult(resp.Body)
}

// QueryMore implements crmq.QueryClient.QueryMore.
func (c *QueryClient) QueryMore(ctx context.Context, nextRecordsURL string) (*crmq.QueryResult, error) {
	if nextRecordsURL == "" {
		return nil, crmq.ErrNoMoreRecords
	}

	resp, err := c.httpClient.Get(ctx, nextRecordsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("fetching next records: %w", err)
	}

	return parseQueryResult(resp.Body)
}

func (c *QueryClient) cachedResult(ctx context.Context, query string) (*crmq.QueryResult, bool) {
	if c.cache == nil {
		return nil, false
	}

	entry, err := c.cache.Get(ctx, crmq.QueryCacheKey(constants.APIPathQuery, query))
	if err != nil {
		return nil, false
	}

	var result crmq.QueryResult

	err = json.Unmarshal(entry.Data, &result)
	if err != nil {
		return nil, false
	}

	return &result, true
}

func (c *QueryClient) storeResult(ctx context.Context, query string, result *crmq.QueryResult) {
	if c.cache == nil {
		return
	}

	data, err := json.Marshal(result)
	if err != nil {
		return
	}

	_ = c.cache.Set(ctx, crmq.QueryCacheKey(constants.APIPathQuery, query), &crmq.CacheEntry{
		Data:      data,
		ExpiresAt: time.Now().Add(constants.DefaultCacheTTL),
	})
}

func parseQueryResult(body []byte) (*crmq.QueryResult, error) {
	var result crmq.QueryResult

	err := json.Unmarshal(body, &result)
	if err != nil {
		return nil, fmt.Errorf("parsing query result: %w", err)
	}

	return &result, nil
}
