package tdclient_test

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"testing"
	"time"

	"github.com/ethanyzhang/tdq/tdclient"
	"github.com/ethanyzhang/tdq/tdclient/tdtest"
)

// =============================================================================
// Getting Started Examples
//
// These tests serve as executable documentation showing how to use tdclient.
// They run against the in-process mock job server from tdtest, so the same
// calls work unchanged against the real service once the endpoint and API key
// are swapped in.
// =============================================================================

func exampleServer(t *testing.T) *tdtest.MockJobServer {
	t.Helper()
	mockServer := tdtest.NewMockJobServer()
	t.Cleanup(mockServer.Close)
	mockServer.AddQuery(&tdtest.MockJobTemplate{
		SQL:          "SELECT id, name FROM users",
		Columns:      []tdclient.Column{{Name: "id", Type: "bigint"}, {Name: "name", Type: "varchar"}},
		Data:         [][]any{{1, "alice"}, {2, "bob"}},
		PendingPolls: 2,
	})
	mockServer.AddQuery(&tdtest.MockJobTemplate{
		SQL:    "SELECT idd FROM users",
		Stderr: "Query 20240101_000000_00001_abcde failed: line 1:8: Column 'idd' cannot be resolved",
	})
	mockServer.AddQuery(&tdtest.MockJobTemplate{
		SQL:          "SELECT count(*) FROM huge_table",
		Data:         [][]any{{42}},
		PendingPolls: 1000,
		Latency:      5 * time.Millisecond,
	})
	return mockServer
}

// --- Job Lifecycle ---

func TestExample_QueryAndDrain(t *testing.T) {
	mockServer := exampleServer(t)

	client, err := tdclient.NewClient("1/example-key", mockServer.URL())
	if err != nil {
		log.Fatal(err)
	}
	client.WaitInterval(10 * time.Millisecond)

	ctx := context.Background()
	job, _, err := client.Query(ctx, tdclient.EnginePresto, "sample_db", "SELECT id, name FROM users")
	if err != nil {
		log.Fatal(err)
	}

	// Wait polls the job status until the job finishes.
	if err := job.Wait(ctx); err != nil {
		log.Fatal(err)
	}

	// The column names come from the job detail, the rows from the result.
	detail, err := job.Detail(ctx)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(detail.ColumnNames())

	err = job.Drain(ctx, func(row tdclient.Row) error {
		fmt.Println(row...)
		return nil
	})
	if err != nil {
		log.Fatal(err)
	}
}

func TestExample_FailedJob(t *testing.T) {
	mockServer := exampleServer(t)

	client, err := tdclient.NewClient("1/example-key", mockServer.URL())
	if err != nil {
		log.Fatal(err)
	}
	client.WaitInterval(10 * time.Millisecond)

	ctx := context.Background()
	job, _, err := client.Query(ctx, tdclient.EnginePresto, "sample_db", "SELECT idd FROM users")
	if err != nil {
		log.Fatal(err)
	}
	if err := job.Wait(ctx); err != nil {
		log.Fatal(err)
	}

	// A job that ran and failed is not a Go error: check Failed and read the
	// engine output from the job detail.
	if job.Failed() {
		detail, err := job.Detail(ctx)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println("job", job.ID, "finished with status", job.Status())

		// Presto failures point at the offending line and column.
		if loc, err := tdclient.ParseErrorLocation(detail.Debug.Stderr); err == nil {
			fmt.Println("error at", loc)
		}
	}
}

func TestExample_CancelWithContext(t *testing.T) {
	mockServer := exampleServer(t)

	client, err := tdclient.NewClient("1/example-key", mockServer.URL())
	if err != nil {
		log.Fatal(err)
	}
	client.WaitInterval(10 * time.Millisecond)

	job, _, err := client.Query(context.Background(), tdclient.EnginePresto, "sample_db", "SELECT count(*) FROM huge_table")
	if err != nil {
		log.Fatal(err)
	}

	// When the context is done, Wait returns and asks the service to kill
	// the job.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := job.Wait(ctx); errors.Is(err, context.DeadlineExceeded) {
		fmt.Println("gave up on job", job.ID)
	}
}

// --- Client Configuration ---

func TestExample_RequestOptions(t *testing.T) {
	mockServer := exampleServer(t)

	client, err := tdclient.NewClient("1/example-key", mockServer.URL())
	if err != nil {
		log.Fatal(err)
	}

	// Options set on the client apply to every request it sends.
	client.UserAgent("my-tool/1.0").
		HTTPClient(&http.Client{Timeout: 30 * time.Second}).
		RequestOptions(func(req *http.Request) {
			req.Header.Set("X-Request-Source", "examples")
		})

	// Options passed to a single call apply to that request only.
	_, _, err = client.Query(context.Background(), tdclient.EnginePresto, "sample_db", "SELECT id, name FROM users",
		func(req *http.Request) {
			req.Header.Set("X-Trace-Id", "abc123")
		})
	if err != nil {
		log.Fatal(err)
	}
}

func TestExample_HandleErrors(t *testing.T) {
	mockServer := exampleServer(t)
	mockServer.RequireAPIKey("1/the-right-key")

	client, err := tdclient.NewClient("1/a-wrong-key", mockServer.URL())
	if err != nil {
		log.Fatal(err)
	}

	_, _, err = client.Query(context.Background(), tdclient.EnginePresto, "sample_db", "SELECT id, name FROM users")
	var apiErr *tdclient.ErrorResponse
	if errors.As(err, &apiErr) && apiErr.Unauthorized() {
		fmt.Println("check the API key:", apiErr)
	}
}
