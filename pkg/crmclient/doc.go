// Package crmclient provides the primary entry point for constructing a CRM
// API client that implements the crmq.Client interface.
//
// It layers configuration, HTTP transport, authentication, and auth endpoint
// discovery on top of the interfaces and types defined in the crmq package.
// Most applications should import crmclient to build a client, then use the
// returned crmq.Client to run queries and bulk jobs.
//
// Quick start
//
//	import (
//	  "context"
//	  "log"
//
//	  "github.com/crmforce-io/crmq-client/pkg/crmclient"
//	  "github.com/crmforce-io/crmq-client/pkg/crmq"
//	)
//
//	func example() {
//	  ctx := context.Background()
//
//	  // Minimal: just an API endpoint (no auth).
//	  cli, err := crmclient.New(ctx, &crmq.Config{APIEndpoint: "https://api.example.com"})
//	  if err != nil { log.Fatal(err) }
//
//	  // Or with an access token you already have:
//	  cli, err = crmclient.New(ctx, &crmq.Config{
//	    APIEndpoint: "https://api.example.com",
//	    AccessToken: "eyJhbGciOi...", // bearer token
//	  })
//
//	  // Or with username/password or client credentials. When credentials
//	  // are provided and no token URL is set, crmclient discovers the auth
//	  // endpoint from the API root (/) and sets TokenURL automatically.
//	  cli, err = crmclient.New(ctx, &crmq.Config{
//	    APIEndpoint:  "https://api.example.com",
//	    Username:     "user",
//	    Password:     "pass",
//	    // alternatively:
//	    // ClientID:     "client-id",
//	    // ClientSecret: "client-secret",
//	  })
//	  if err != nil { log.Fatal(err) }
//
//	  // Run a bulk query job with retry-on-timeout.
//	  result, err := cli.BulkQuery().Run(ctx, "SELECT Id, Name FROM Account")
//	  if err != nil { log.Fatal(err) }
//	  _ = result
//	}
//
// # TLS and development mode
//
// For local development, you can set Config.SkipTLSVerify=true. This is gated
// by the environment variable CRMQ_DEV_MODE to avoid accidental insecure
// usage in production environments.
//
// # Helpers
//
// The package also provides convenience constructors NewWithEndpoint,
// NewWithToken, NewWithClientCredentials, and NewWithPassword that wrap New
// with the appropriate configuration.
package crmclient
