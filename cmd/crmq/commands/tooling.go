package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// NewToolingCommand creates the tooling command group.
func NewToolingCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tooling",
		Short: "Access the tooling API",
	}

	cmd.AddCommand(newToolingQueryCommand())
	cmd.AddCommand(newToolingDeleteCommand())

	return cmd
}

func newToolingQueryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query <query>",
		Short: "Run a query against the tooling API",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.TrimSpace(args[0])
			if query == "" {
				return ErrQueryRequired
			}

			client, err := CreateClientWithAPI(cmd.Flag("api").Value.String())
			if err != nil {
				return err
			}

			result, err := client.Tooling().Query(cmd.Context(), query)
			if err != nil {
				return err
			}

			return renderQueryResult(result)
		},
	}

	cmd.Flags().String("api", "", "API name or endpoint (defaults to current target)")

	return cmd
}

func newToolingDeleteCommand() *cobra.Command {
	var (
		idsArg  string
		idsFile string
	)

	cmd := &cobra.Command{
		Use:   "delete <object>",
		Short: "Delete tooling records by id",
		Long: `Delete tooling API records by id.

Records are deleted independently; a partial failure is reported per record
in the result, and the command still exits successfully.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := collectValues(idsArg, idsFile)
			if err != nil {
				return err
			}

			client, err := CreateClientWithAPI(cmd.Flag("api").Value.String())
			if err != nil {
				return err
			}

			envelope, err := client.Tooling().Delete(cmd.Context(), args[0], ids)
			if err != nil {
				if envelope != nil {
					_ = renderEnvelope(envelope)
				}

				return err
			}

			err = renderEnvelope(envelope)
			if err != nil {
				return err
			}

			if envelope.ErrorCount > 0 {
				fmt.Printf("Warning: %d of %d deletes failed\n", envelope.ErrorCount, envelope.Total)
			}

			return nil
		},
	}

	cmd.Flags().String("api", "", "API name or endpoint (defaults to current target)")
	cmd.Flags().StringVar(&idsArg, "ids", "", "comma-separated record ids")
	cmd.Flags().StringVar(&idsFile, "ids-file", "", "file with one record id per line")

	return cmd
}
