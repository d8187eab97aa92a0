package crmq_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crmforce-io/crmq-client/pkg/crmq"
)

// Test static errors.
var errChunkBoom = errors.New("boom")

// recordingRunner records every query it receives and replies from a script.
type recordingRunner struct {
	queries []string
	results []*crmq.QueryResult
	errs    []error
}

func (r *recordingRunner) Run(ctx context.Context, query string) (*crmq.QueryResult, error) {
	call := len(r.queries)
	r.queries = append(r.queries, query)

	if call < len(r.errs) && r.errs[call] != nil {
		return nil, r.errs[call]
	}

	if call < len(r.results) {
		return r.results[call], nil
	}

	return &crmq.QueryResult{Done: true}, nil
}

func makeValues(n int) []string {
	values := make([]string, 0, n)
	for i := 0; i < n; i++ {
		values = append(values, fmt.Sprintf("001xx%06d", i))
	}

	return values
}

func TestQueryInChunks_SplitsOnDefaultChunkSize(t *testing.T) {
	t.Parallel()

	runner := &recordingRunner{
		results: []*crmq.QueryResult{
			{Records: []crmq.Record{{"Id": "a"}}, Done: true},
			{Records: []crmq.Record{{"Id": "b"}}, Done: true},
			{Records: []crmq.Record{{"Id": "c"}}, Done: true},
		},
	}

	values := makeValues(2500)
	template := "SELECT Id FROM Contact WHERE AccountId IN ({in})"

	result, err := crmq.QueryInChunks(context.Background(), runner, template, values)
	require.NoError(t, err)

	// 2500 values at the default chunk size of 1000 means three chunks of
	// 1000, 1000, and 500, in input order.
	require.Len(t, runner.queries, 3)
	assert.Equal(t, 1000, strings.Count(runner.queries[0], "','")+1)
	assert.Equal(t, 1000, strings.Count(runner.queries[1], "','")+1)
	assert.Equal(t, 500, strings.Count(runner.queries[2], "','")+1)

	// First value of each chunk preserves input order.
	assert.Contains(t, runner.queries[0], "'001xx000000'")
	assert.Contains(t, runner.queries[1], "'001xx001000'")
	assert.Contains(t, runner.queries[2], "'001xx002000'")

	// Combined result concatenates chunk results in order.
	assert.Equal(t, 3, result.TotalSize)
	assert.Equal(t, "a", result.Records[0].ID())
	assert.Equal(t, "c", result.Records[2].ID())
	assert.True(t, result.Done)
}

func TestQueryInChunks_CustomChunkSize(t *testing.T) {
	t.Parallel()

	runner := &recordingRunner{}

	_, err := crmq.QueryInChunks(context.Background(), runner,
		"SELECT Id FROM Contact WHERE AccountId IN ({in})",
		[]string{"a", "b", "c"},
		crmq.WithChunkSize(2))
	require.NoError(t, err)

	require.Len(t, runner.queries, 2)
	assert.Contains(t, runner.queries[0], "IN ('a','b')")
	assert.Contains(t, runner.queries[1], "IN ('c')")
}

func TestQueryInChunks_QuotesAndEscapes(t *testing.T) {
	t.Parallel()

	runner := &recordingRunner{}

	_, err := crmq.QueryInChunks(context.Background(), runner,
		"SELECT Id FROM Account WHERE Name IN ({in})",
		[]string{`O'Brien`, `back\slash`})
	require.NoError(t, err)

	require.Len(t, runner.queries, 1)
	assert.Contains(t, runner.queries[0], `IN ('O\'Brien','back\\slash')`)
}

func TestQueryInChunks_FirstFailureAborts(t *testing.T) {
	t.Parallel()

	runner := &recordingRunner{
		errs: []error{nil, errChunkBoom},
	}

	result, err := crmq.QueryInChunks(context.Background(), runner,
		"SELECT Id FROM Contact WHERE AccountId IN ({in})",
		makeValues(5),
		crmq.WithChunkSize(2))
	require.Error(t, err)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, errChunkBoom)

	// The third chunk is never attempted.
	assert.Len(t, runner.queries, 2)
}

func TestQueryInChunks_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		runner   crmq.BulkQuerier
		template string
		opts     []crmq.ChunkOption
		expected error
	}{
		{
			name:     "nil runner",
			runner:   nil,
			template: "SELECT Id FROM Contact WHERE AccountId IN ({in})",
			expected: crmq.ErrBulkQuerierRequired,
		},
		{
			name:     "missing placeholder",
			runner:   &recordingRunner{},
			template: "SELECT Id FROM Contact",
			expected: crmq.ErrMissingInPlaceholder,
		},
		{
			name:     "multiple placeholders",
			runner:   &recordingRunner{},
			template: "SELECT Id FROM Contact WHERE A IN ({in}) OR B IN ({in})",
			expected: crmq.ErrMultipleInPlaceholder,
		},
		{
			name:     "invalid chunk size",
			runner:   &recordingRunner{},
			template: "SELECT Id FROM Contact WHERE AccountId IN ({in})",
			opts:     []crmq.ChunkOption{crmq.WithChunkSize(-1)},
			expected: crmq.ErrInvalidChunkSize,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result, err := crmq.QueryInChunks(context.Background(), tt.runner, tt.template, []string{"a"}, tt.opts...)
			require.Error(t, err)
			assert.Nil(t, result)
			assert.ErrorIs(t, err, tt.expected)
		})
	}
}

func TestQueryInChunks_EmptyValues(t *testing.T) {
	t.Parallel()

	runner := &recordingRunner{}

	result, err := crmq.QueryInChunks(context.Background(), runner,
		"SELECT Id FROM Contact WHERE AccountId IN ({in})", nil)
	require.NoError(t, err)
	assert.Empty(t, runner.queries)
	assert.Equal(t, 0, result.TotalSize)
	assert.True(t, result.Done)
}
