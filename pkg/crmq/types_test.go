package crmq_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crmforce-io/crmq-client/pkg/crmq"
)

func TestRecord_ID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		record   crmq.Record
		expected string
	}{
		{
			name:     "string id",
			record:   crmq.Record{"Id": "001xx0001"},
			expected: "001xx0001",
		},
		{
			name:     "missing id",
			record:   crmq.Record{"Name": "Acme"},
			expected: "",
		},
		{
			name:     "non-string id",
			record:   crmq.Record{"Id": 42},
			expected: "",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, tt.record.ID())
		})
	}
}

func TestRecord_StringField(t *testing.T) {
	t.Parallel()

	record := crmq.Record{"Name": "Acme", "AnnualRevenue": 1000000.0}

	assert.Equal(t, "Acme", record.StringField("Name"))
	assert.Empty(t, record.StringField("AnnualRevenue"))
	assert.Empty(t, record.StringField("Missing"))
}

func TestJob_IsTerminal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		state    string
		terminal bool
	}{
		{crmq.JobStateQueued, false},
		{crmq.JobStateProcessing, false},
		{crmq.JobStateUploadComplete, false},
		{crmq.JobStateComplete, true},
		{crmq.JobStateFailed, true},
		{crmq.JobStateAborted, true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.state, func(t *testing.T) {
			t.Parallel()

			job := &crmq.Job{State: tt.state}
			assert.Equal(t, tt.terminal, job.IsTerminal())
		})
	}
}

func TestQueryResult_Unmarshal(t *testing.T) {
	t.Parallel()

	body := []byte(`{
		"records": [{"Id": "001xx0001", "Name": "Acme"}],
		"totalSize": 42,
		"done": false,
		"nextRecordsUrl": "/v1/query/next"
	}`)

	var result crmq.QueryResult

	require.NoError(t, json.Unmarshal(body, &result))
	assert.Equal(t, 42, result.TotalSize)
	assert.False(t, result.Done)
	assert.Equal(t, "/v1/query/next", result.NextRecordsURL)
	assert.Equal(t, "Acme", result.Records[0].StringField("Name"))
}
