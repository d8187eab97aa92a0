package commands

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/crmforce-io/crmq-client/internal/constants"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config is the CLI configuration stored in ~/.crmq/config.yml.
type Config struct {
	// Global settings
	Output     string `json:"output,omitempty"      yaml:"output,omitempty"`
	CurrentAPI string `json:"current_api,omitempty" yaml:"current_api,omitempty"`

	// APIs maps a short name (usually the API domain) to its configuration.
	APIs map[string]*APIConfig `json:"apis,omitempty" yaml:"apis,omitempty"`
}

// APIConfig holds the configuration for one CRM API endpoint.
type APIConfig struct {
	Endpoint       string     `json:"endpoint"                   yaml:"endpoint"`
	Username       string     `json:"username,omitempty"         yaml:"username,omitempty"`
	ClientID       string     `json:"client_id,omitempty"        yaml:"client_id,omitempty"`
	Token          string     `json:"token,omitempty"            yaml:"token,omitempty"`
	RefreshToken   string     `json:"refresh_token,omitempty"    yaml:"refresh_token,omitempty"`
	TokenURL       string     `json:"token_url,omitempty"        yaml:"token_url,omitempty"`
	TokenExpiresAt *time.Time `json:"token_expires_at,omitempty" yaml:"token_expires_at,omitempty"`
	LastRefreshed  *time.Time `json:"last_refreshed,omitempty"   yaml:"last_refreshed,omitempty"`
}

// loadConfig reads the CLI configuration through viper, so values from the
// config file, environment, and flags all apply.
func loadConfig() *Config {
	config := &Config{
		Output:     viper.GetString("output"),
		CurrentAPI: viper.GetString("current_api"),
		APIs:       make(map[string]*APIConfig),
	}

	for domain, apiRaw := range viper.GetStringMap("apis") {
		if apiMap, ok := apiRaw.(map[string]interface{}); ok {
			config.APIs[domain] = parseAPIConfig(apiMap)
		}
	}

	return config
}

func parseAPIConfig(apiMap map[string]interface{}) *APIConfig {
	stringField := func(key string) string {
		value, _ := apiMap[key].(string)

		return value
	}

	apiConfig := &APIConfig{
		Endpoint:     stringField("endpoint"),
		Username:     stringField("username"),
		ClientID:     stringField("client_id"),
		Token:        stringField("token"),
		RefreshToken: stringField("refresh_token"),
		TokenURL:     stringField("token_url"),
	}

	if expiresAt := stringField("token_expires_at"); expiresAt != "" {
		t, err := time.Parse(time.RFC3339, expiresAt)
		if err == nil {
			apiConfig.TokenExpiresAt = &t
		}
	}

	if lastRefreshed := stringField("last_refreshed"); lastRefreshed != "" {
		t, err := time.Parse(time.RFC3339, lastRefreshed)
		if err == nil {
			apiConfig.LastRefreshed = &t
		}
	}

	return apiConfig
}

// saveConfigStruct writes the configuration back to the active config file,
// creating ~/.crmq/config.yml when no file is in use yet.
func saveConfigStruct(config *Config) error {
	configFile := viper.ConfigFileUsed()
	if configFile == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get user home directory: %w", err)
		}

		configDir := filepath.Join(home, ".crmq")

		err = os.MkdirAll(configDir, constants.ConfigDirPerm)
		if err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}

		configFile = filepath.Join(configDir, "config.yml")
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	err = os.WriteFile(configFile, data, constants.ConfigFilePerm)
	if err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ResolveAPIEndpoint resolves a short name from the APIs map to its endpoint
// URL. Input that is not a known short name is treated as a direct endpoint.
func ResolveAPIEndpoint(apiNameOrEndpoint string) (string, error) {
	if apiNameOrEndpoint == "" {
		return "", ErrAPIEndpointRequired
	}

	config := loadConfig()

	if apiConfig, exists := config.APIs[apiNameOrEndpoint]; exists {
		return apiConfig.Endpoint, nil
	}

	return apiNameOrEndpoint, nil
}

// getAPIConfigByFlag returns the API configuration selected by the --api flag
// value, falling back to the current API when the flag is empty.
func getAPIConfigByFlag(apiFlag string) (*APIConfig, string, error) {
	config := loadConfig()

	name := apiFlag
	if name == "" {
		name = config.CurrentAPI
	}

	if name == "" {
		return nil, "", fmt.Errorf("%w, use 'crmq login' first", ErrNoAPIEndpointConfigured)
	}

	if apiConfig, exists := config.APIs[name]; exists {
		return apiConfig, name, nil
	}

	// Not a short name; match by endpoint so --api can take a URL.
	for domain, apiConfig := range config.APIs {
		if apiConfig.Endpoint == name || apiConfig.Endpoint == normalizeEndpoint(name) {
			return apiConfig, domain, nil
		}
	}

	return nil, "", fmt.Errorf("API configuration for '%s': %w", name, ErrAPIConfigNotFound)
}

// normalizeEndpoint adds an https scheme when missing and trims any trailing
// slash.
func normalizeEndpoint(endpoint string) string {
	endpoint = strings.TrimSuffix(strings.TrimSpace(endpoint), "/")
	if endpoint != "" && !strings.Contains(endpoint, "://") {
		endpoint = "https://" + endpoint
	}

	return endpoint
}

// extractDomainFromEndpoint returns the host part of an endpoint URL, used as
// the default short name for a stored API.
func extractDomainFromEndpoint(endpoint string) string {
	parsed, err := url.Parse(normalizeEndpoint(endpoint))
	if err != nil || parsed.Host == "" {
		return endpoint
	}

	return parsed.Host
}

// NewConfigCommand creates the config command group.
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration",
		Long:  "View and modify crmq CLI configuration",
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigSetCommand())

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig()

			// Never print stored credentials.
			for _, apiConfig := range config.APIs {
				if apiConfig.Token != "" {
					apiConfig.Token = Masked
				}

				if apiConfig.RefreshToken != "" {
					apiConfig.RefreshToken = Masked
				}
			}

			return renderOutput(config)
		},
	}
}

func newConfigSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig()

			key, value := args[0], args[1]
			switch key {
			case "output":
				config.Output = value
			case "current_api":
				if _, exists := config.APIs[value]; !exists {
					return fmt.Errorf("API configuration for '%s': %w", value, ErrAPIConfigNotFound)
				}

				config.CurrentAPI = value
			default:
				return fmt.Errorf("'%s': %w", key, ErrUnknownConfigKey)
			}

			err := saveConfigStruct(config)
			if err != nil {
				return err
			}

			cmd.Printf("Set %s to %s\n", key, value)

			return nil
		},
	}
}
