package commands

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/crmforce-io/crmq-client/pkg/crmq"
	"github.com/spf13/cobra"
)

// NewQueryCommand creates the query command.
func NewQueryCommand() *cobra.Command {
	var (
		useBulk   bool
		valuesArg string
		inFile    string
		chunkSize int
	)

	cmd := &cobra.Command{
		Use:   "query <query>",
		Short: "Run a query",
		Long: `Run a query against the targeted CRM API.

Synchronous by default; --bulk submits an asynchronous bulk query job and
waits for its results. With --values or --in-file the query is a template
containing one {in} placeholder, filled chunk by chunk:

  crmq query "SELECT Id FROM Account WHERE Id IN ({in})" --in-file ids.txt`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.TrimSpace(args[0])
			if query == "" {
				return ErrQueryRequired
			}

			client, err := CreateClientWithAPI(cmd.Flag("api").Value.String())
			if err != nil {
				return err
			}

			ctx := cmd.Context()

			if valuesArg != "" || inFile != "" {
				values, err := collectValues(valuesArg, inFile)
				if err != nil {
					return err
				}

				opts := []crmq.ChunkOption{}
				if chunkSize > 0 {
					opts = append(opts, crmq.WithChunkSize(chunkSize))
				}

				result, err := crmq.QueryInChunks(ctx, client.BulkQuery(), query, values, opts...)
				if err != nil {
					return err
				}

				return renderQueryResult(result)
			}

			if useBulk {
				result, err := client.BulkQuery().Run(ctx, query)
				if err != nil {
					return err
				}

				return renderQueryResult(result)
			}

			result, err := client.Query().Query(ctx, query)
			if err != nil {
				return err
			}

			return renderQueryResult(result)
		},
	}

	cmd.Flags().String("api", "", "API name or endpoint (defaults to current target)")
	cmd.Flags().BoolVar(&useBulk, "bulk", false, "run as an asynchronous bulk query job")
	cmd.Flags().StringVar(&valuesArg, "values", "", "comma-separated values for the {in} placeholder")
	cmd.Flags().StringVar(&inFile, "in-file", "", "file with one {in} placeholder value per line")
	cmd.Flags().IntVar(&chunkSize, "chunk-size", 0, "values per chunked query (default 1000)")

	return cmd
}

// collectValues gathers IN-list values from the --values flag and/or a file
// with one value per line. Blank lines are skipped.
func collectValues(valuesArg, inFile string) ([]string, error) {
	values := make([]string, 0)

	if valuesArg != "" {
		for _, value := range strings.Split(valuesArg, ",") {
			value = strings.TrimSpace(value)
			if value != "" {
				values = append(values, value)
			}
		}
	}

	if inFile != "" {
		file, err := os.Open(inFile) // #nosec G304 -- path given by the operator
		if err != nil {
			return nil, fmt.Errorf("failed to open values file: %w", err)
		}
		defer func() { _ = file.Close() }()

		scanner := bufio.NewScanner(file)
		for scanner.Scan() {
			value := strings.TrimSpace(scanner.Text())
			if value != "" {
				values = append(values, value)
			}
		}

		err = scanner.Err()
		if err != nil {
			return nil, fmt.Errorf("failed to read values file: %w", err)
		}
	}

	if len(values) == 0 {
		return nil, ErrValuesRequired
	}

	return values, nil
}
