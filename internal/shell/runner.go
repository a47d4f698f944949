package shell

import (
	"context"
	"fmt"
	"time"

	"github.com/ethanyzhang/tdq/internal/render"
	"github.com/ethanyzhang/tdq/tdclient"
	"github.com/rs/zerolog/log"
)

// Failure describes a job that finished with an error or was killed.
type Failure struct {
	JobID  string
	Status tdclient.JobStatus
	// Query is the query text as the service recorded it.
	Query string
	// Stderr is the engine output; Presto errors carry a line:column.
	Stderr string
}

// Outcome is the result of submitting one statement. Exactly one field is
// set: Result when the job succeeded, Failure when the job failed, Err
// when the statement could not be run or waited for.
type Outcome struct {
	Result  *render.ResultSet
	Failure *Failure
	Err     error
}

// Runner submits a statement and waits for its outcome.
type Runner interface {
	Run(ctx context.Context, engine tdclient.Engine, database, query string) Outcome
}

// ClientRunner runs statements as jobs through a tdclient.Client.
type ClientRunner struct {
	Client *tdclient.Client
}

// NewClientRunner returns a Runner backed by client.
func NewClientRunner(client *tdclient.Client) *ClientRunner {
	return &ClientRunner{Client: client}
}

// Run issues the query, waits for the job, and collects its result or
// failure detail. Cancelling ctx stops the wait and asks the service to
// kill the job.
func (r *ClientRunner) Run(ctx context.Context, engine tdclient.Engine, database, query string) Outcome {
	started := time.Now()
	job, _, err := r.Client.Query(ctx, engine, database, query)
	if err != nil {
		return Outcome{Err: err}
	}
	if err := job.Wait(ctx); err != nil {
		return Outcome{Err: err}
	}

	detail, err := job.Detail(ctx)
	if err != nil {
		return Outcome{Err: fmt.Errorf("cannot show job %s: %w", job.ID, err)}
	}
	if job.Failed() {
		log.Debug().Str("job_id", job.ID).Stringer("status", job.Status()).Dur("elapsed", time.Since(started)).Msg("job failed")
		query := detail.Query
		if query == "" {
			query = job.Query
		}
		return Outcome{Failure: &Failure{
			JobID:  job.ID,
			Status: job.Status(),
			Query:  query,
			Stderr: detail.Debug.Stderr,
		}}
	}

	rs := &render.ResultSet{Columns: detail.ColumnNames()}
	err = job.Drain(ctx, func(row tdclient.Row) error {
		rs.Rows = append(rs.Rows, row)
		return nil
	})
	if err != nil {
		return Outcome{Err: err}
	}
	fillColumnNames(rs)
	log.Debug().Str("job_id", job.ID).Int("rows", len(rs.Rows)).Dur("elapsed", time.Since(started)).Msg("job succeeded")
	return Outcome{Result: rs}
}

// fillColumnNames names columns the result schema did not describe, the
// way Hive names unaliased expressions.
func fillColumnNames(rs *render.ResultSet) {
	width := len(rs.Columns)
	for _, row := range rs.Rows {
		width = max(width, len(row))
	}
	for i := len(rs.Columns); i < width; i++ {
		rs.Columns = append(rs.Columns, fmt.Sprintf("_c%d", i))
	}
}
