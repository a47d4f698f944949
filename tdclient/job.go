package tdclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"
)

// ErrNoDatabase is returned by Query when no database is selected.
var ErrNoDatabase = errors.New("no database selected")

// Job is a handle on a server-side query execution.
type Job struct {
	// ID is the job id assigned by the service
	ID string

	// Database is the database the query runs against
	Database string

	// Engine is the backend executing the query
	Engine Engine

	// Query is the query text as submitted
	Query string

	status JobStatus
	client *Client
}

type issueResponse struct {
	JobID    string `json:"job_id"`
	Job      string `json:"job"`
	Database string `json:"database"`
}

// Query submits a query as a new job and returns its handle. The job is
// queued on return; call Wait to block until it reaches a terminal status.
//
// Example:
//
//	job, _, err := client.Query(ctx, tdclient.EnginePresto, "sample_datasets", "SELECT 1")
//	if err != nil {
//	    return err
//	}
//	if err := job.Wait(ctx); err != nil {
//	    return err
//	}
func (c *Client) Query(ctx context.Context, engine Engine, database, query string, opts ...RequestOption) (*Job, *http.Response, error) {
	if database == "" {
		return nil, nil, ErrNoDatabase
	}
	path := fmt.Sprintf("v3/job/issue/%s/%s", engine, url.PathEscape(database))
	req, err := c.NewRequest("POST", path, url.Values{"query": {query}}, opts...)
	if err != nil {
		return nil, nil, err
	}

	issued := new(issueResponse)
	resp, err := c.Do(ctx, req, issued)
	if err != nil {
		return nil, resp, fmt.Errorf("issue %s job failed: %w", engine, err)
	}

	id := issued.JobID
	if id == "" {
		id = issued.Job
	}
	if id == "" {
		return nil, resp, errors.New("issue job failed: the service returned no job id")
	}
	log.Debug().Str("job_id", id).Str("database", database).Stringer("engine", engine).Msg("job issued")

	return &Job{
		ID:       id,
		Database: database,
		Engine:   engine,
		Query:    query,
		status:   JobStatusQueued,
		client:   c,
	}, resp, nil
}

// Status returns the status seen by the last Update or Wait.
func (j *Job) Status() JobStatus {
	return j.status
}

// Finished reports whether the job reached a terminal status.
func (j *Job) Finished() bool {
	return j.status.Finished()
}

// Failed reports whether the job finished with an error or was killed.
func (j *Job) Failed() bool {
	return j.status == JobStatusError || j.status == JobStatusKilled
}

// Update refreshes the job status from the service.
func (j *Job) Update(ctx context.Context) error {
	info, _, err := j.client.GetJobStatus(ctx, j.ID)
	if err != nil {
		return err
	}
	j.status = info.Status
	return nil
}

// Wait polls the job status until the job finishes. The polling interval
// starts at the client's wait interval and doubles up to MaxWaitInterval.
//
// If ctx is cancelled the wait stops and a kill request is sent with a
// background context. The kill is best effort: the job may still run to
// completion on the server.
func (j *Job) Wait(ctx context.Context) error {
	if j == nil || j.client == nil {
		return errors.New("cannot wait: job has no client")
	}
	interval := j.client.waitInterval
	started := time.Now()

	for {
		if err := j.Update(ctx); err != nil {
			if ctx.Err() != nil {
				j.killOnCancel()
				return fmt.Errorf("wait for job %s interrupted: %w", j.ID, ctx.Err())
			}
			return fmt.Errorf("wait for job %s failed: %w", j.ID, err)
		}
		if j.Finished() {
			log.Debug().Str("job_id", j.ID).Stringer("status", j.status).Dur("elapsed", time.Since(started)).Msg("job finished")
			return nil
		}

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			j.killOnCancel()
			return fmt.Errorf("wait for job %s interrupted: %w", j.ID, ctx.Err())
		case <-timer.C:
		}
		if interval < MaxWaitInterval {
			interval = min(interval*2, MaxWaitInterval)
		}
	}
}

func (j *Job) killOnCancel() {
	// Use background context for cleanup to ensure it executes despite cancellation
	if _, err := j.client.KillJob(context.Background(), j.ID); err != nil {
		log.Debug().Err(err).Str("job_id", j.ID).Msg("failed to kill job after context cancellation")
		return
	}
	log.Debug().Str("job_id", j.ID).Msg("killed job because the context was cancelled")
}

// KillJob asks the service to stop a job.
func (c *Client) KillJob(ctx context.Context, jobID string, opts ...RequestOption) (*http.Response, error) {
	req, err := c.NewRequest("POST", "v3/job/kill/"+url.PathEscape(jobID), nil, opts...)
	if err != nil {
		return nil, err
	}
	return c.Do(ctx, req, nil)
}
