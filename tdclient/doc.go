// Package tdclient provides a Go client for the job API of a managed
// query service (Treasure Data compatible v3 endpoints).
//
// The client submits queries as asynchronous jobs, polls them until they
// reach a terminal status, and streams their results. Transport failures
// (503 answers and transient network errors) are retried with a doubling
// delay.
//
// # Getting Started
//
// Create a client and run a query:
//
//	client, err := tdclient.NewClient(apiKey, "https://api.treasuredata.com")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	job, _, err := client.Query(ctx, tdclient.EnginePresto, "sample_datasets", "SELECT 1")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := job.Wait(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// # Failures
//
// A job that finished with JobStatusError carries the engine output in its
// detail. Presto syntax errors name a line and column:
//
//	detail, err := job.Detail(ctx)
//	loc, err := tdclient.ParseErrorLocation(detail.Debug.Stderr)
//
// # Result Streaming
//
// Rows are decoded one at a time:
//
//	err = job.Drain(ctx, func(row tdclient.Row) error {
//	    // process row
//	    return nil
//	})
package tdclient
