package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/crmforce-io/crmq-client/pkg/crmq"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// NewBulkCommand creates the bulk command group.
func NewBulkCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bulk",
		Short: "Run bulk record mutations",
		Long: `Submit bulk mutation jobs against the targeted CRM API.

Each invocation runs exactly one job with one batch of records. Failed jobs
are never retried automatically; rerun the command after fixing the input.`,
	}

	cmd.AddCommand(newBulkOperationCommand("insert", "Insert records from a file"))
	cmd.AddCommand(newBulkOperationCommand("update", "Update records from a file"))
	cmd.AddCommand(newBulkOperationCommand("upsert", "Upsert records from a file"))
	cmd.AddCommand(newBulkOperationCommand("delete", "Delete records listed in a file"))

	return cmd
}

func newBulkOperationCommand(operation, short string) *cobra.Command {
	var recordsFile string

	cmd := &cobra.Command{
		Use:   operation + " <object>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			object := args[0]

			records, err := readRecordsFile(recordsFile)
			if err != nil {
				return err
			}

			client, err := CreateClientWithAPI(cmd.Flag("api").Value.String())
			if err != nil {
				return err
			}

			result, err := client.Ingest().Execute(cmd.Context(), object, operation, records)
			if err != nil {
				var mutationErr *crmq.BulkMutationError
				if errors.As(err, &mutationErr) && mutationErr.JobID != "" {
					return fmt.Errorf("job %s: %w", mutationErr.JobID, err)
				}

				return err
			}

			return renderEnvelope(result.Envelope())
		},
	}

	cmd.Flags().String("api", "", "API name or endpoint (defaults to current target)")
	cmd.Flags().StringVarP(&recordsFile, "file", "f", "", "JSON or YAML file with an array of records (required)")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

// readRecordsFile loads an array of records from a JSON or YAML file, picking
// the format by file extension.
func readRecordsFile(path string) ([]crmq.Record, error) {
	if path == "" {
		return nil, ErrRecordsFileRequired
	}

	data, err := os.ReadFile(path) // #nosec G304 -- path given by the operator
	if err != nil {
		return nil, fmt.Errorf("failed to read records file: %w", err)
	}

	var records []crmq.Record

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &records)
	default:
		err = json.Unmarshal(data, &records)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to parse records file: %w", err)
	}

	if len(records) == 0 {
		return nil, ErrNoRecordsInFile
	}

	return records, nil
}
