package integration

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crmforce-io/crmq-client/pkg/crmclient"
	"github.com/crmforce-io/crmq-client/pkg/crmq"
)

func newTestClient(t *testing.T, endpoint string) crmq.Client {
	t.Helper()

	client, err := crmclient.NewWithToken(context.Background(), endpoint, "integration-token")
	require.NoError(t, err)

	return client
}

func TestWorkflow_QueryAndBulkQuery(t *testing.T) {
	records := []crmq.Record{
		{"Id": "001xx000001", "Name": "Acme"},
		{"Id": "001xx000002", "Name": "Globex"},
	}

	fake := newFakeCRM(records)
	server := fake.server()
	defer server.Close()

	client := newTestClient(t, server.URL)
	ctx := context.Background()

	// Synchronous query
	result, err := client.Query().Query(ctx, "SELECT Id, Name FROM Account")
	require.NoError(t, err)
	assert.Equal(t, 2, result.TotalSize)
	assert.Equal(t, "001xx000001", result.Records[0].ID())

	// Bulk query over the same data
	bulkResult, err := client.BulkQuery().Run(ctx, "SELECT Id, Name FROM Account")
	require.NoError(t, err)
	assert.Equal(t, 2, bulkResult.TotalSize)
	assert.True(t, bulkResult.Done)
	assert.Equal(t, 1, fake.queryJobs)
}

func TestWorkflow_BulkQueryRecoversFromTimeout(t *testing.T) {
	fake := newFakeCRM([]crmq.Record{{"Id": "001xx000001"}})
	fake.bulkFailures = 2
	server := fake.server()
	defer server.Close()

	client := newTestClient(t, server.URL)

	result, err := client.BulkQuery().Run(context.Background(), "SELECT Id FROM Account")
	require.NoError(t, err)
	assert.Equal(t, 1, result.TotalSize)

	// Two timed-out jobs plus the successful third
	assert.Equal(t, 3, fake.queryJobs)
}

func TestWorkflow_ChunkedQuery(t *testing.T) {
	fake := newFakeCRM([]crmq.Record{{"Id": "001xx000001"}})
	server := fake.server()
	defer server.Close()

	client := newTestClient(t, server.URL)

	ids := make([]string, 0, 1500)
	for i := 0; i < 1500; i++ {
		ids = append(ids, fmt.Sprintf("001xx%06d", i))
	}

	result, err := crmq.QueryInChunks(context.Background(), client.BulkQuery(),
		"SELECT Id FROM Account WHERE Id IN ({in})", ids)
	require.NoError(t, err)

	// 1500 ids split at 1000 per chunk means two bulk query jobs, each
	// returning the fake's single record.
	assert.Equal(t, 2, fake.queryJobs)
	assert.Equal(t, 2, result.TotalSize)
}

func TestWorkflow_BulkUpdate(t *testing.T) {
	fake := newFakeCRM(nil)
	server := fake.server()
	defer server.Close()

	client := newTestClient(t, server.URL)

	records := []crmq.Record{
		{"Id": "001xx000001", "Industry": "Technology"},
		{"Id": "001xx000002", "Industry": "Finance"},
	}

	result, err := client.Ingest().Execute(context.Background(), "Account", crmq.OperationUpdate, records)
	require.NoError(t, err)

	envelope := result.Envelope()
	assert.Equal(t, 2, envelope.Total)
	assert.Equal(t, 2, envelope.SuccessCount)
	assert.Equal(t, 0, envelope.ErrorCount)
	assert.Len(t, fake.lastBatch, 2)
}

func TestWorkflow_ToolingDeletePartialFailure(t *testing.T) {
	fake := newFakeCRM(nil)
	fake.failDeleteIDs["07Lxx000002"] = true
	server := fake.server()
	defer server.Close()

	client := newTestClient(t, server.URL)

	ids := []string{"07Lxx000001", "07Lxx000002", "07Lxx000003"}

	envelope, err := client.Tooling().Delete(context.Background(), "ApexLog", ids)
	require.NoError(t, err)

	assert.Equal(t, 3, envelope.Total)
	assert.Equal(t, 2, envelope.SuccessCount)
	assert.Equal(t, 1, envelope.ErrorCount)

	assert.False(t, envelope.Records[1].Success)
	assert.Equal(t, []string{"entity is deleted"}, envelope.Records[1].Errors)
}
