package constants

import "time"

// File and directory permissions.
const (
	// ConfigDirPerm is the permission for configuration directories.
	ConfigDirPerm = 0750

	// ConfigFilePerm is the permission for configuration files.
	ConfigFilePerm = 0600
)

// HTTP and network timeouts.
const (
	// DefaultHTTPTimeout is the default timeout for HTTP requests.
	DefaultHTTPTimeout = 30 * time.Second

	// ShortHTTPTimeout is used for quick operations such as discovery.
	ShortHTTPTimeout = 10 * time.Second
)

// Transport retry limits (HTTP-level, distinct from bulk query job retries).
const (
	// DefaultRetryMax is the default maximum number of HTTP retries.
	DefaultRetryMax = 3

	// DefaultRetryWaitMin is the minimum backoff between HTTP retries.
	DefaultRetryWaitMin = 1 * time.Second

	// DefaultRetryWaitMax is the maximum backoff between HTTP retries.
	DefaultRetryWaitMax = 30 * time.Second
)

// Bulk job polling bounds.
const (
	// DefaultQueryPollInterval is the poll interval for bulk query jobs.
	DefaultQueryPollInterval = 5 * time.Second

	// DefaultQueryPollTimeout is the per-attempt budget for one bulk query
	// job to reach a terminal state.
	DefaultQueryPollTimeout = 60 * time.Second

	// DefaultIngestPollInterval is the poll interval for bulk mutation jobs.
	DefaultIngestPollInterval = 3 * time.Second

	// DefaultIngestPollTimeout is the budget for one bulk mutation job to
	// reach a terminal state.
	DefaultIngestPollTimeout = 120 * time.Second

	// QuickPollInterval is used by tests to poll fast.
	QuickPollInterval = 10 * time.Millisecond
)

// Bulk query retry bound.
const (
	// DefaultMaxQueryRetry bounds the total tries of one bulk query,
	// including the first attempt.
	DefaultMaxQueryRetry = 5

	// MaxQueryRetryEnvVar overrides DefaultMaxQueryRetry.
	MaxQueryRetryEnvVar = "CRMQ_MAX_QUERY_RETRY"
)

// Chunked query limits.
const (
	// DefaultQueryChunkSize is the maximum number of literals substituted
	// into one IN (...) filter.
	DefaultQueryChunkSize = 1000
)

// Cache sizing.
const (
	// DefaultCacheSize is the default cache size limit.
	DefaultCacheSize = 1000

	// DefaultCacheTTL is the default cache time-to-live.
	DefaultCacheTTL = 5 * time.Minute
)

// Token handling.
const (
	// TokenExpirationBuffer is the buffer time before token expiration.
	TokenExpirationBuffer = 30 * time.Second

	// DefaultPublicClientID is the OAuth2 client id used for the password
	// grant when no client credentials are configured.
	DefaultPublicClientID = "crmq"
)

// API paths.
const (
	// APIPathQuery is the synchronous query endpoint.
	APIPathQuery = "/v1/query"

	// APIPathToolingQuery is the tooling-flavored query endpoint.
	APIPathToolingQuery = "/v1/tooling/query"

	// APIPathToolingDelete is the tooling delete endpoint.
	APIPathToolingDelete = "/v1/tooling/delete"

	// APIPathQueryJobs is the bulk query job collection.
	APIPathQueryJobs = "/v1/jobs/query"

	// APIPathIngestJobs is the bulk ingest job collection.
	APIPathIngestJobs = "/v1/jobs/ingest"
)

// HTTP headers.
const (
	// DefaultUserAgent identifies the client library in requests.
	DefaultUserAgent = "crmq-client/1.0"
)

// Output formats.
const (
	// FormatJSON for JSON output format.
	FormatJSON = "json"

	// FormatYAML for YAML output format.
	FormatYAML = "yaml"
)
