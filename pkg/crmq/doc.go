// Package crmq provides a client library for the CRM platform's query,
// bulk-data, and tooling APIs.
//
// The package exposes the public types, the error taxonomy, and the
// composable helpers (result envelopes, chunked queries, response caching).
// Concrete clients are created through the crmclient package:
//
//	client, err := crmclient.New(ctx, &crmq.Config{
//		APIEndpoint: "https://api.crm.example.com",
//		Username:    "integration@example.com",
//		Password:    "secret",
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result, err := client.Query().Query(ctx, "SELECT Id, Name FROM Account")
//
// Bulk queries run as asynchronous provider-side jobs. The bulk query client
// polls the job to completion, accumulates records in arrival order, and
// retries the whole job when the failure is timeout-flagged:
//
//	result, err := client.BulkQuery().Run(ctx, "SELECT Id FROM Contact")
//
// Queries whose IN filter exceeds the provider's literal limit can be run in
// chunks; QueryInChunks splits the value list, substitutes each slice into
// the {in} placeholder, and concatenates the results:
//
//	result, err := crmq.QueryInChunks(ctx, client.BulkQuery(),
//		"SELECT Id FROM Contact WHERE AccountId IN ({in})", accountIDs)
//
// Bulk mutations (insert/update/upsert/delete) and tooling deletes report
// per-record outcomes through ResultEnvelope; partial failure is data, not an
// error. Only job-level failures surface as *BulkQueryError,
// *BulkMutationError, or *ToolingDeleteError.
package crmq
