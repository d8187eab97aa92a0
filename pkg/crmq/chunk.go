package crmq

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/crmforce-io/crmq-client/internal/constants"
)

// InPlaceholder is the substitution token a chunked query template must
// contain exactly once, in place of the quoted IN list.
const InPlaceholder = "{in}"

// Static errors for err113 compliance.
var (
	ErrBulkQuerierRequired   = errors.New("bulk querier is required")
	ErrMissingInPlaceholder  = errors.New("query template must contain the {in} placeholder")
	ErrMultipleInPlaceholder = errors.New("query template must contain exactly one {in} placeholder")
	ErrInvalidChunkSize      = errors.New("chunk size must be positive")
)

// BulkQuerier runs one bulk query job to completion. Implemented by the bulk
// query client; narrow on purpose so chunked queries are testable in
// isolation.
type BulkQuerier interface {
	Run(ctx context.Context, query string) (*QueryResult, error)
}

type chunkOptions struct {
	chunkSize int
}

// ChunkOption configures QueryInChunks.
type ChunkOption func(*chunkOptions)

// WithChunkSize overrides the default chunk size. Remote query languages cap
// the number of literals in one IN (...) filter; the chunk size must stay at
// or below that cap.
func WithChunkSize(size int) ChunkOption {
	return func(o *chunkOptions) {
		o.chunkSize = size
	}
}

// QueryInChunks splits values into contiguous slices of at most the chunk
// size (default 1000), substitutes each quoted, comma-joined slice into the
// template's {in} placeholder, and concatenates the results of sequential
// runner invocations in input order. The first failing slice aborts the
// remaining ones.
func QueryInChunks(ctx context.Context, runner BulkQuerier, template string, values []string, opts ...ChunkOption) (*QueryResult, error) {
	if runner == nil {
		return nil, ErrBulkQuerierRequired
	}

	switch strings.Count(template, InPlaceholder) {
	case 0:
		return nil, ErrMissingInPlaceholder
	case 1:
		// ok
	default:
		return nil, ErrMultipleInPlaceholder
	}

	options := chunkOptions{chunkSize: constants.DefaultQueryChunkSize}
	for _, opt := range opts {
		opt(&options)
	}

	if options.chunkSize <= 0 {
		return nil, ErrInvalidChunkSize
	}

	combined := &QueryResult{Done: true}

	for start := 0; start < len(values); start += options.chunkSize {
		end := start + options.chunkSize
		if end > len(values) {
			end = len(values)
		}

		query := strings.Replace(template, InPlaceholder, quoteJoin(values[start:end]), 1)

		result, err := runner.Run(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("querying chunk starting at %d: %w", start, err)
		}

		combined.Records = append(combined.Records, result.Records...)
	}

	combined.TotalSize = len(combined.Records)

	return combined, nil
}

// quoteJoin single-quotes each value, escaping embedded quotes and
// backslashes, and joins them with commas.
func quoteJoin(values []string) string {
	var builder strings.Builder

	for i, value := range values {
		if i > 0 {
			builder.WriteByte(',')
		}

		builder.WriteByte('\'')
		builder.WriteString(escapeQuoted(value))
		builder.WriteByte('\'')
	}

	return builder.String()
}

func escapeQuoted(value string) string {
	value = strings.ReplaceAll(value, `\`, `\\`)

	return strings.ReplaceAll(value, `'`, `\'`)
}
