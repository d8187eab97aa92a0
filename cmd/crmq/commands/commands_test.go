package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewQueryCommand(t *testing.T) {
	cmd := NewQueryCommand()
	assert.Equal(t, "query <query>", cmd.Use)
	assert.NotNil(t, cmd.RunE)
	assert.NotNil(t, cmd.Args)

	assert.NotNil(t, cmd.Flags().Lookup("bulk"))
	assert.NotNil(t, cmd.Flags().Lookup("values"))
	assert.NotNil(t, cmd.Flags().Lookup("in-file"))
	assert.NotNil(t, cmd.Flags().Lookup("chunk-size"))
}

func TestNewBulkCommand(t *testing.T) {
	cmd := NewBulkCommand()
	assert.Equal(t, "bulk", cmd.Use)

	var commandNames []string
	for _, subcmd := range cmd.Commands() {
		commandNames = append(commandNames, subcmd.Name())
	}

	assert.Contains(t, commandNames, "insert")
	assert.Contains(t, commandNames, "update")
	assert.Contains(t, commandNames, "upsert")
	assert.Contains(t, commandNames, "delete")
}

func TestNewToolingCommand(t *testing.T) {
	cmd := NewToolingCommand()
	assert.Equal(t, "tooling", cmd.Use)

	var commandNames []string
	for _, subcmd := range cmd.Commands() {
		commandNames = append(commandNames, subcmd.Name())
	}

	assert.Contains(t, commandNames, "query")
	assert.Contains(t, commandNames, "delete")
}

func TestNormalizeEndpoint(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "adds https scheme", input: "api.example.com", expected: "https://api.example.com"},
		{name: "keeps existing scheme", input: "http://api.example.com", expected: "http://api.example.com"},
		{name: "trims trailing slash", input: "https://api.example.com/", expected: "https://api.example.com"},
		{name: "trims whitespace", input: "  api.example.com  ", expected: "https://api.example.com"},
		{name: "empty stays empty", input: "", expected: ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, normalizeEndpoint(tt.input))
		})
	}
}

func TestExtractDomainFromEndpoint(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "api.example.com", extractDomainFromEndpoint("https://api.example.com/v1"))
	assert.Equal(t, "api.example.com", extractDomainFromEndpoint("api.example.com"))
}

func TestCollectValues(t *testing.T) {
	t.Run("from flag", func(t *testing.T) {
		values, err := collectValues("a, b,,c", "")
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b", "c"}, values)
	})

	t.Run("from file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "ids.txt")
		require.NoError(t, os.WriteFile(path, []byte("001\n\n002\n"), 0o600))

		values, err := collectValues("", path)
		require.NoError(t, err)
		assert.Equal(t, []string{"001", "002"}, values)
	})

	t.Run("flag and file combine", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "ids.txt")
		require.NoError(t, os.WriteFile(path, []byte("002\n"), 0o600))

		values, err := collectValues("001", path)
		require.NoError(t, err)
		assert.Equal(t, []string{"001", "002"}, values)
	})

	t.Run("no values", func(t *testing.T) {
		_, err := collectValues("", "")
		assert.ErrorIs(t, err, ErrValuesRequired)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := collectValues("", filepath.Join(t.TempDir(), "missing.txt"))
		assert.Error(t, err)
	})
}

func TestReadRecordsFile(t *testing.T) {
	t.Run("json records", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "records.json")
		require.NoError(t, os.WriteFile(path, []byte(`[{"Id":"001","Name":"Acme"}]`), 0o600))

		records, err := readRecordsFile(path)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "001", records[0].ID())
	})

	t.Run("yaml records", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "records.yaml")
		require.NoError(t, os.WriteFile(path, []byte("- Id: \"001\"\n  Name: Acme\n"), 0o600))

		records, err := readRecordsFile(path)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "001", records[0].ID())
	})

	t.Run("empty array", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "records.json")
		require.NoError(t, os.WriteFile(path, []byte(`[]`), 0o600))

		_, err := readRecordsFile(path)
		assert.ErrorIs(t, err, ErrNoRecordsInFile)
	})

	t.Run("no path", func(t *testing.T) {
		_, err := readRecordsFile("")
		assert.ErrorIs(t, err, ErrRecordsFileRequired)
	})
}
