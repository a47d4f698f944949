package tdclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"strings"

	"github.com/ethanyzhang/tdq/utils"
)

// JobStatus is the life-cycle stage of a job.
type JobStatus int8

const (
	// JobStatusUnknown is any status this client does not know about. It is
	// treated as still in progress.
	JobStatusUnknown JobStatus = iota
	// JobStatusQueued indicates the job waits for resources
	JobStatusQueued
	// JobStatusBooting indicates the job is being scheduled
	JobStatusBooting
	// JobStatusRunning indicates the job is executing
	JobStatusRunning
	// JobStatusSuccess indicates successful completion
	JobStatusSuccess
	// JobStatusError indicates the query failed
	JobStatusError
	// JobStatusKilled indicates the job was killed before finishing
	JobStatusKilled
)

var jobStatusMap = utils.NewBiMap(map[JobStatus]string{
	JobStatusUnknown: "unknown",
	JobStatusQueued:  "queued",
	JobStatusBooting: "booting",
	JobStatusRunning: "running",
	JobStatusSuccess: "success",
	JobStatusError:   "error",
	JobStatusKilled:  "killed",
})

// String returns the wire name of the status.
func (s JobStatus) String() string {
	if value, ok := jobStatusMap.Lookup(s); ok {
		return value
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Finished reports whether the status is terminal.
func (s JobStatus) Finished() bool {
	return s == JobStatusSuccess || s == JobStatusError || s == JobStatusKilled
}

// ParseJobStatus parses a wire status name.
// If the string is unknown, it returns JobStatusUnknown and an error.
func ParseJobStatus(str string) (JobStatus, error) {
	if key, ok := jobStatusMap.RLookup(str); ok {
		return key, nil
	}
	return JobStatusUnknown, fmt.Errorf("unknown job status %q", str)
}

// MarshalText implements the encoding.TextMarshaler interface.
func (s JobStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements the encoding.TextUnmarshaler interface.
// Unknown names decode to JobStatusUnknown without an error so a status
// added by the service does not break polling.
func (s *JobStatus) UnmarshalText(text []byte) error {
	*s, _ = ParseJobStatus(string(text))
	return nil
}

// JobStatusInfo is the answer of the v3/job/status endpoint.
type JobStatusInfo struct {
	JobID      string    `json:"job_id"`
	Status     JobStatus `json:"status"`
	CreatedAt  string    `json:"created_at"`
	StartAt    string    `json:"start_at"`
	EndAt      string    `json:"end_at"`
	Duration   *int64    `json:"duration,omitempty"`
	NumRecords *int64    `json:"num_records,omitempty"`
	ResultSize *int64    `json:"result_size,omitempty"`
}

// GetJobStatus retrieves the current status of a job.
func (c *Client) GetJobStatus(ctx context.Context, jobID string, opts ...RequestOption) (*JobStatusInfo, *http.Response, error) {
	req, err := c.NewRequest("GET", "v3/job/status/"+url.PathEscape(jobID), nil, opts...)
	if err != nil {
		return nil, nil, err
	}

	info := new(JobStatusInfo)
	resp, err := c.Do(ctx, req, info)
	if err != nil {
		return nil, resp, err
	}
	return info, resp, nil
}

// GenerateHttpQueryParameter converts a struct with `query` tags into a URL query string.
// Nil pointer fields are skipped.
func GenerateHttpQueryParameter(v any) string {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return ""
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return ""
	}
	values := url.Values{}
	vt := rv.Type()
	for i := range vt.NumField() {
		fv, ft := rv.Field(i), vt.Field(i)
		tag := ft.Tag.Get("query")
		if tag == "" || !ft.IsExported() {
			continue
		}
		if fv.Kind() == reflect.Pointer {
			if fv.IsNil() {
				continue
			}
			fv = fv.Elem()
		}
		values.Set(tag, fmt.Sprint(fv.Interface()))
	}
	return values.Encode()
}

// appendQuery joins path and the encoded query parameters of opts.
func appendQuery(path string, opts any) string {
	if params := GenerateHttpQueryParameter(opts); params != "" {
		if strings.Contains(path, "?") {
			return path + "&" + params
		}
		return path + "?" + params
	}
	return path
}
