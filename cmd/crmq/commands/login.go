package commands

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/crmforce-io/crmq-client/pkg/crmq"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
)

// NewLoginCommand creates the login command.
func NewLoginCommand() *cobra.Command {
	var (
		apiEndpoint  string
		username     string
		password     string
		clientID     string
		clientSecret string
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Login to a CRM API",
		Long:  "Authenticate with a CRM API endpoint and store the session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			originalInput := apiEndpoint
			if apiEndpoint == "" {
				apiEndpoint = viper.GetString("api")
				originalInput = apiEndpoint
			}

			if apiEndpoint == "" {
				config := loadConfig()
				if config.CurrentAPI != "" {
					if _, exists := config.APIs[config.CurrentAPI]; exists {
						apiEndpoint = config.CurrentAPI
						originalInput = config.CurrentAPI
					}
				}
			}

			if apiEndpoint == "" {
				reader := bufio.NewReader(os.Stdin)
				fmt.Print("API endpoint (or short name): ")
				apiEndpoint, _ = reader.ReadString('\n')
				apiEndpoint = strings.TrimSpace(apiEndpoint)
				originalInput = apiEndpoint
			}

			if apiEndpoint == "" {
				return ErrAPIEndpointRequired
			}

			resolvedEndpoint, err := ResolveAPIEndpoint(apiEndpoint)
			if err != nil {
				return err
			}

			apiEndpoint = resolvedEndpoint

			config := &crmq.Config{
				APIEndpoint: apiEndpoint,
			}

			switch {
			case clientID != "" && clientSecret != "":
				config.ClientID = clientID
				config.ClientSecret = clientSecret
			default:
				if username == "" {
					reader := bufio.NewReader(os.Stdin)
					fmt.Print("Username: ")
					username, _ = reader.ReadString('\n')
					username = strings.TrimSpace(username)
				}

				if password == "" {
					fmt.Print("Password: ")

					bytePassword, err := term.ReadPassword(int(syscall.Stdin))
					if err != nil {
						return fmt.Errorf("failed to read password: %w", err)
					}

					password = string(bytePassword)

					fmt.Println()
				}

				config.Username = username
				config.Password = password
			}

			ctx := context.Background()

			client, err := connectClient(ctx, config)
			if err != nil {
				return err
			}

			// Fetching a token proves the credentials work.
			token, err := client.GetToken(ctx)
			if err != nil {
				return fmt.Errorf("failed to authenticate: %w", err)
			}

			rootInfo, err := client.GetRootInfo(ctx)
			if err != nil {
				fmt.Printf("Warning: could not fetch API root info: %v\n", err)
			}

			normalizedEndpoint := normalizeEndpoint(apiEndpoint)

			configStruct := loadConfig()
			if configStruct.APIs == nil {
				configStruct.APIs = make(map[string]*APIConfig)
			}

			// Preserve a short name when the input was one.
			configKey := originalInput
			if _, exists := configStruct.APIs[originalInput]; !exists {
				configKey = extractDomainFromEndpoint(normalizedEndpoint)
			}

			apiConfig, exists := configStruct.APIs[configKey]
			if !exists {
				apiConfig = &APIConfig{
					Endpoint: normalizedEndpoint,
				}
				configStruct.APIs[configKey] = apiConfig
			}

			apiConfig.Username = username
			apiConfig.ClientID = clientID
			apiConfig.Token = token

			if rootInfo != nil {
				if authLink, ok := rootInfo.Links["auth"]; ok && authLink.Href != "" {
					apiConfig.TokenURL = strings.TrimSuffix(authLink.Href, "/") + "/oauth/token"
				}
			}

			if configStruct.CurrentAPI == "" || len(configStruct.APIs) == 1 {
				configStruct.CurrentAPI = configKey
			}

			err = saveConfigStruct(configStruct)
			if err != nil {
				return fmt.Errorf("failed to save configuration: %w", err)
			}

			fmt.Printf("Successfully logged in to %s\n", normalizedEndpoint)
			fmt.Printf("API '%s' set as current target\n", configStruct.CurrentAPI)

			return nil
		},
	}

	cmd.Flags().StringVarP(&apiEndpoint, "api", "a", "", "API endpoint URL or short name")
	cmd.Flags().StringVarP(&username, "username", "u", "", "username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password (prompted when omitted)")
	cmd.Flags().StringVar(&clientID, "client-id", "", "OAuth2 client id for client credentials flow")
	cmd.Flags().StringVar(&clientSecret, "client-secret", "", "OAuth2 client secret for client credentials flow")

	return cmd
}

// NewLogoutCommand creates the logout command.
func NewLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Log out of the current CRM API",
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig()

			if config.CurrentAPI == "" {
				return fmt.Errorf("%w, nothing to log out from", ErrNoAPIEndpointConfigured)
			}

			if apiConfig, exists := config.APIs[config.CurrentAPI]; exists {
				apiConfig.Token = ""
				apiConfig.RefreshToken = ""
				apiConfig.TokenExpiresAt = nil
			}

			err := saveConfigStruct(config)
			if err != nil {
				return fmt.Errorf("failed to save configuration: %w", err)
			}

			cmd.Printf("Logged out of '%s'\n", config.CurrentAPI)

			return nil
		},
	}
}
