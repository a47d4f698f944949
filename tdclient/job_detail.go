package tdclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// Column describes one column of a job's result.
type Column struct {
	// Name is the column name
	Name string `json:"name"`

	// Type is the engine's type name as a string (e.g. "bigint", "varchar")
	Type string `json:"type"`
}

// JobDebug carries the engine output captured for a job.
type JobDebug struct {
	Cmdout string `json:"cmdout"`
	Stderr string `json:"stderr"`
}

// JobDetail is the answer of the v3/job/show endpoint.
type JobDetail struct {
	JobID      string    `json:"job_id"`
	Type       string    `json:"type"`
	Database   string    `json:"database"`
	Query      string    `json:"query"`
	Status     JobStatus `json:"status"`
	URL        string    `json:"url"`
	NumRecords *int64    `json:"num_records,omitempty"`
	ResultSize *int64    `json:"result_size,omitempty"`
	Debug      JobDebug  `json:"debug"`

	// HiveResultSchema is the result schema as the service sends it: a
	// JSON-encoded string holding [name, type] pairs.
	HiveResultSchema string `json:"hive_result_schema"`

	// ResultSchema is HiveResultSchema decoded. Populated by ShowJob.
	ResultSchema []Column `json:"-"`
}

// ColumnNames returns the result column names in order.
func (d *JobDetail) ColumnNames() []string {
	names := make([]string, len(d.ResultSchema))
	for i, col := range d.ResultSchema {
		names[i] = col.Name
	}
	return names
}

func (d *JobDetail) parseResultSchema() error {
	d.ResultSchema = nil
	if d.HiveResultSchema == "" || d.HiveResultSchema == "null" {
		return nil
	}
	var pairs [][]string
	if err := json.Unmarshal([]byte(d.HiveResultSchema), &pairs); err != nil {
		return fmt.Errorf("cannot decode result schema of job %s: %w", d.JobID, err)
	}
	d.ResultSchema = make([]Column, 0, len(pairs))
	for _, pair := range pairs {
		col := Column{}
		if len(pair) > 0 {
			col.Name = pair[0]
		}
		if len(pair) > 1 {
			col.Type = pair[1]
		}
		d.ResultSchema = append(d.ResultSchema, col)
	}
	return nil
}

// ShowJob retrieves the full detail of a job: query text, status, result
// schema and the engine's debug output.
func (c *Client) ShowJob(ctx context.Context, jobID string, opts ...RequestOption) (*JobDetail, *http.Response, error) {
	req, err := c.NewRequest("GET", "v3/job/show/"+url.PathEscape(jobID), nil, opts...)
	if err != nil {
		return nil, nil, err
	}

	detail := new(JobDetail)
	resp, err := c.Do(ctx, req, detail)
	if err != nil {
		return nil, resp, err
	}
	if err := detail.parseResultSchema(); err != nil {
		return nil, resp, err
	}
	return detail, resp, nil
}

// Detail is ShowJob for this job.
func (j *Job) Detail(ctx context.Context) (*JobDetail, error) {
	detail, _, err := j.client.ShowJob(ctx, j.ID)
	return detail, err
}
