package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewTargetCommand creates the target command.
func NewTargetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "target [api-name]",
		Short: "Show or switch the current API target",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig()

			if len(args) == 0 {
				if config.CurrentAPI == "" {
					cmd.Println("No API targeted, use 'crmq login' first")

					return nil
				}

				apiConfig := config.APIs[config.CurrentAPI]
				cmd.Printf("API:      %s\n", config.CurrentAPI)

				if apiConfig != nil {
					cmd.Printf("Endpoint: %s\n", apiConfig.Endpoint)

					if apiConfig.Username != "" {
						cmd.Printf("User:     %s\n", apiConfig.Username)
					}
				}

				return nil
			}

			name := args[0]
			if _, exists := config.APIs[name]; !exists {
				return fmt.Errorf("API configuration for '%s': %w", name, ErrAPIConfigNotFound)
			}

			config.CurrentAPI = name

			err := saveConfigStruct(config)
			if err != nil {
				return fmt.Errorf("failed to save configuration: %w", err)
			}

			cmd.Printf("Now targeting '%s'\n", name)

			return nil
		},
	}
}
