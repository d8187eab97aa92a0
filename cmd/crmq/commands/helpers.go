package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/crmforce-io/crmq-client/internal/auth"
	"github.com/crmforce-io/crmq-client/internal/client"
	"github.com/crmforce-io/crmq-client/internal/constants"
	"github.com/crmforce-io/crmq-client/pkg/crmclient"
	"github.com/crmforce-io/crmq-client/pkg/crmq"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Common string constants used throughout the commands package.
const (
	NotAvailable = "N/A"

	// Output formats.
	OutputFormatJSON  = "json"
	OutputFormatYAML  = "yaml"
	OutputFormatTable = "table"

	Masked = "***"

	maxTableCellWidth = 60
)

// Common static errors used throughout the commands package.
var (
	ErrAPIConfigNotFound       = errors.New("API configuration not found")
	ErrAPIEndpointRequired     = errors.New("API endpoint is required")
	ErrNoAPIEndpointConfigured = errors.New("no API endpoint configured")
	ErrNotAuthenticated        = errors.New("not authenticated")
	ErrUnknownConfigKey        = errors.New("unknown configuration key")
	ErrQueryRequired           = errors.New("a query string is required")
	ErrRecordsFileRequired     = errors.New("a records file is required")
	ErrNoRecordsInFile         = errors.New("records file contains no records")
	ErrValuesRequired          = errors.New("at least one value is required")
)

// CreateClientWithAPI builds a CRM client for the API selected by the --api
// flag (or the current API). Stored tokens refresh automatically and the
// refreshed token is written back to the config file.
func CreateClientWithAPI(apiFlag string) (crmq.Client, error) {
	apiConfig, apiDomain, err := getAPIConfigByFlag(apiFlag)
	if err != nil {
		return nil, err
	}

	if apiConfig.Endpoint == "" {
		return nil, fmt.Errorf("%w, use 'crmq login' first", ErrNoAPIEndpointConfigured)
	}

	config := buildClientConfig(apiConfig)

	if hasAuthInfo(apiConfig) {
		tokenManager := createTokenManager(apiConfig, apiDomain)

		crmClient, err := client.NewWithTokenManager(config, tokenManager)
		if err != nil {
			return nil, fmt.Errorf("failed to create client: %w", err)
		}

		return crmClient, nil
	}

	return nil, fmt.Errorf("%w, use 'crmq login' first", ErrNotAuthenticated)
}

func hasAuthInfo(apiConfig *APIConfig) bool {
	return apiConfig.Token != "" || apiConfig.RefreshToken != "" || apiConfig.Username != ""
}

func buildClientConfig(apiConfig *APIConfig) *crmq.Config {
	return &crmq.Config{
		APIEndpoint: apiConfig.Endpoint,
		Username:    apiConfig.Username,
		TokenURL:    resolveTokenURL(apiConfig),
		Debug:       viper.GetBool("verbose"),
		Progress:    newProgressReporter(),
	}
}

func createTokenManager(apiConfig *APIConfig, apiDomain string) auth.TokenManager {
	oauth2Config := &auth.OAuth2Config{
		TokenURL:     resolveTokenURL(apiConfig),
		ClientID:     clientIDOrDefault(apiConfig),
		Username:     apiConfig.Username,
		RefreshToken: apiConfig.RefreshToken,
		AccessToken:  apiConfig.Token,
	}

	initialExpiry := time.Time{}
	if apiConfig.TokenExpiresAt != nil {
		initialExpiry = *apiConfig.TokenExpiresAt
	}

	return auth.NewConfigTokenManager(oauth2Config, NewConfigPersister(), apiDomain, apiConfig.Token, initialExpiry)
}

func resolveTokenURL(apiConfig *APIConfig) string {
	if apiConfig.TokenURL != "" {
		return apiConfig.TokenURL
	}

	return strings.TrimSuffix(apiConfig.Endpoint, "/") + "/oauth/token"
}

func clientIDOrDefault(apiConfig *APIConfig) string {
	if apiConfig.ClientID != "" {
		return apiConfig.ClientID
	}

	return constants.DefaultPublicClientID
}

// connectClient builds a client directly from a crmq.Config. Used by login,
// where no API configuration has been stored yet.
func connectClient(ctx context.Context, config *crmq.Config) (crmq.Client, error) {
	config.Debug = viper.GetBool("verbose")
	config.Progress = newProgressReporter()

	crmClient, err := crmclient.New(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return crmClient, nil
}

// renderOutput writes v to stdout in the configured output format. Table
// rendering only applies to types with a dedicated renderer; anything else
// falls back to YAML.
func renderOutput(v interface{}) error {
	switch viper.GetString("output") {
	case OutputFormatJSON:
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")

		err := encoder.Encode(v)
		if err != nil {
			return fmt.Errorf("failed to encode JSON: %w", err)
		}

		return nil
	default:
		encoder := yaml.NewEncoder(os.Stdout)

		err := encoder.Encode(v)
		if err != nil {
			return fmt.Errorf("failed to encode YAML: %w", err)
		}

		return nil
	}
}

// renderQueryResult writes a query result in the configured output format.
// The table format derives its columns from the union of record field names.
func renderQueryResult(result *crmq.QueryResult) error {
	output := viper.GetString("output")
	if output == OutputFormatJSON || output == OutputFormatYAML {
		return renderOutput(result)
	}

	if len(result.Records) == 0 {
		fmt.Println("No records found")

		return nil
	}

	columns := recordColumns(result.Records)

	header := make([]interface{}, 0, len(columns))
	for _, column := range columns {
		header = append(header, column)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header(header...)

	for _, record := range result.Records {
		row := make([]interface{}, 0, len(columns))
		for _, column := range columns {
			row = append(row, fieldString(record[column]))
		}

		_ = table.Append(row...)
	}

	err := table.Render()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	fmt.Printf("\nTotal: %d record(s)\n", result.TotalSize)

	return nil
}

// recordColumns returns the union of field names across records, Id first,
// the rest sorted. Provider bookkeeping fields are skipped.
func recordColumns(records []crmq.Record) []string {
	seen := make(map[string]bool)
	columns := make([]string, 0)

	for _, record := range records {
		for name := range record {
			if name == "attributes" || seen[name] {
				continue
			}

			seen[name] = true

			columns = append(columns, name)
		}
	}

	sort.Slice(columns, func(i, j int) bool {
		if columns[i] == "Id" {
			return true
		}

		if columns[j] == "Id" {
			return false
		}

		return columns[i] < columns[j]
	})

	return columns
}

func fieldString(value interface{}) string {
	if value == nil {
		return NotAvailable
	}

	text := fmt.Sprintf("%v", value)
	if len(text) > maxTableCellWidth {
		text = text[:maxTableCellWidth-3] + "..."
	}

	return text
}

// renderEnvelope writes a result envelope in the configured output format.
func renderEnvelope(envelope *crmq.ResultEnvelope) error {
	output := viper.GetString("output")
	if output == OutputFormatJSON || output == OutputFormatYAML {
		return renderOutput(envelope)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("ID", "Success", "Errors")

	for _, record := range envelope.Records {
		id := record.ID
		if id == "" {
			id = NotAvailable
		}

		_ = table.Append(id, fmt.Sprintf("%t", record.Success), strings.Join(record.Errors, "; "))
	}

	err := table.Render()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	fmt.Printf("\nTotal: %d, succeeded: %d, failed: %d\n", envelope.Total, envelope.SuccessCount, envelope.ErrorCount)

	return nil
}
