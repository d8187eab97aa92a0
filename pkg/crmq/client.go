package crmq

import (
	"context"
	"time"
)

// QueryClient runs synchronous queries against the data endpoint.
type QueryClient interface {
	// Query runs a query and follows nextRecordsUrl pages until done.
	Query(ctx context.Context, query string) (*QueryResult, error)
	// QueryOne runs a query and returns the first page only.
	QueryOne(ctx context.Context, query string) (*QueryResult, error)
	// QueryMore fetches the next page for a previous result.
	QueryMore(ctx context.Context, nextRecordsURL string) (*QueryResult, error)
}

// BulkQueryClient drives one asynchronous bulk query job per call. A
// timeout-flagged failure is retried up to the configured bound; any other
// failure is fatal.
type BulkQueryClient interface {
	Run(ctx context.Context, query string) (*QueryResult, error)
}

// IngestClient drives one bulk mutation job per call: exactly one batch, no
// automatic retry.
type IngestClient interface {
	Execute(ctx context.Context, object, operation string, records []Record) (*IngestResult, error)
}

// ToolingClient accesses the tooling API surface.
type ToolingClient interface {
	Query(ctx context.Context, query string) (*QueryResult, error)
	// Delete removes records by id with allOrNone=false; partial success is
	// carried in the envelope, not as an error.
	Delete(ctx context.Context, object string, ids []string) (*ResultEnvelope, error)
}

// Client is the composite client for the CRM API.
type Client interface {
	Query() QueryClient
	BulkQuery() BulkQueryClient
	Ingest() IngestClient
	Tooling() ToolingClient

	// GetRootInfo fetches the API root links.
	GetRootInfo(ctx context.Context) (*RootInfo, error)
	// GetToken returns the current access token.
	GetToken(ctx context.Context) (string, error)
}

// Logger interface for logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// Config represents client configuration for building a crmq.Client.
//
// # Authentication precedence
//
//  1. AccessToken: used directly as a static Bearer token.
//  2. ClientID/ClientSecret: OAuth2 client_credentials grant. A RefreshToken,
//     Username, or Password lets the token manager refresh or use an
//     alternate grant.
//  3. Username/Password: OAuth2 password grant with the default public
//     client id.
//  4. No credentials: requests are sent unauthenticated.
//
// If authentication is required and TokenURL is empty, crmclient.New
// discovers the auth endpoint from the API root ("/" → links.auth) and
// constructs TokenURL as "<auth>/oauth/token".
type Config struct {
	// APIEndpoint is the base URL for the CRM API. crmclient.New trims a
	// trailing slash and adds "https://" when no scheme is present.
	APIEndpoint string

	// Authentication options (provide one).
	ClientID     string
	ClientSecret string
	Username     string
	Password     string
	RefreshToken string
	AccessToken  string
	// TokenURL is the full OAuth2 token endpoint; discovered when empty.
	TokenURL string

	// HTTPTimeout is an optional default HTTP timeout; prefer context
	// timeouts on individual calls.
	HTTPTimeout time.Duration
	// RetryMax bounds transport-level retries (>=500, 429, connection
	// errors). These are distinct from bulk query job retries.
	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration

	// MaxQueryRetry bounds the total tries of one bulk query, including the
	// first. Defaults to 5; overridable via CRMQ_MAX_QUERY_RETRY.
	MaxQueryRetry int

	// Debug enables verbose HTTP request/response logging when Logger is set.
	Debug bool
	// Logger is an optional structured logger used by the HTTP layer.
	Logger Logger
	// UserAgent overrides the default User-Agent header.
	UserAgent string
	// SkipTLSVerify skips TLS verification during token-URL discovery only,
	// and only when CRMQ_DEV_MODE is set. Development use only.
	SkipTLSVerify bool

	// Progress receives operator-facing status updates from the bulk
	// runners. Defaults to NoOpProgress; one reporter per client, reused
	// across that client's sequential calls.
	Progress ProgressReporter

	// Cache, when set, caches synchronous query responses.
	Cache Cache
}
