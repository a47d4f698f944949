package tdtest

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethanyzhang/tdq/tdclient"
)

// --- Data Models ---

// MockJobTemplate defines the outcome of a specific query text. It acts as
// an immutable blueprint from which MockActiveJob instances are created.
//
// Life cycle:
//
//  1. The issue request creates a job in status "queued".
//  2. The first PendingPolls status requests answer "running".
//  3. The next status request answers "error" when Stderr is set,
//     "success" otherwise. The job then stays in that status.
type MockJobTemplate struct {
	SQL          string            // The query text used for template matching.
	Columns      []tdclient.Column // Result schema.
	Data         [][]any           // Result rows.
	Stderr       string            // Optional engine output; makes the job fail.
	PendingPolls int               // Number of status polls answering "running".
	Latency      time.Duration     // Delay applied to every status request.
}

// MockActiveJob represents a live execution instance of a template.
type MockActiveJob struct {
	ID       string
	Engine   string
	Database string
	Query    string
	Template *MockJobTemplate
	Status   tdclient.JobStatus
	Polls    int
}

// IssuedJob records one issue request.
type IssuedJob struct {
	ID       string
	Engine   string
	Database string
	Query    string
}

// --- Mock Server Implementation ---

// MockJobServer simulates the job API of the query service for tests.
type MockJobServer struct {
	server *httptest.Server

	// templates maps query texts to their blueprints.
	templates map[string]*MockJobTemplate

	// jobs maps job ids to their current state.
	jobs map[string]*MockActiveJob

	issued []IssuedJob
	killed []string
	apiKey string

	mu sync.RWMutex // Protects the maps and slices above.

	jobIDCounter atomic.Int64
}

// NewMockJobServer starts a mock job API server.
func NewMockJobServer() *MockJobServer {
	mock := &MockJobServer{
		templates: make(map[string]*MockJobTemplate),
		jobs:      make(map[string]*MockActiveJob),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v3/job/issue/{engine}/{database}", mock.handleIssue)
	mux.HandleFunc("GET /v3/job/status/{jobId}", mock.handleStatus)
	mux.HandleFunc("GET /v3/job/show/{jobId}", mock.handleShow)
	mux.HandleFunc("GET /v3/job/result/{jobId}", mock.handleResult)
	mux.HandleFunc("POST /v3/job/kill/{jobId}", mock.handleKill)

	mock.server = httptest.NewServer(mock.authenticate(mux))
	return mock
}

// AddQuery registers a query template.
func (m *MockJobServer) AddQuery(tmpl *MockJobTemplate) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if tmpl.PendingPolls < 0 {
		tmpl.PendingPolls = 0
	}
	m.templates[tmpl.SQL] = tmpl
}

// RequireAPIKey makes every request without "Authorization: TD1 <key>"
// fail with 401.
func (m *MockJobServer) RequireAPIKey(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.apiKey = key
}

// IssuedJobs returns the issue requests received so far, in order.
func (m *MockJobServer) IssuedJobs() []IssuedJob {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]IssuedJob(nil), m.issued...)
}

// KilledJobs returns the ids of the jobs a kill was requested for.
func (m *MockJobServer) KilledJobs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.killed...)
}

// URL returns the base URL of the mock server.
func (m *MockJobServer) URL() string { return m.server.URL }

// Close shuts down the mock server.
func (m *MockJobServer) Close() { m.server.Close() }

// --- Request Handlers ---

func (m *MockJobServer) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.mu.RLock()
		key := m.apiKey
		m.mu.RUnlock()
		if key != "" && r.Header.Get(tdclient.AuthorizationHeader) != "TD1 "+key {
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"error":    "Authentication failed",
				"message":  "Authentication failed",
				"severity": "error",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (m *MockJobServer) handleIssue(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	query := r.PostForm.Get("query")
	engine := r.PathValue("engine")
	database := r.PathValue("database")
	if engine != "presto" && engine != "hive" {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": fmt.Sprintf("Unknown job type: %s", engine)})
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	template, exists := m.templates[query]
	if !exists {
		template = &MockJobTemplate{
			SQL:     query,
			Columns: []tdclient.Column{{Name: "result", Type: "varchar"}},
			Data:    [][]any{{"Query template not found; default success"}},
		}
	}

	id := fmt.Sprintf("%d", 1000+m.jobIDCounter.Add(1))
	m.jobs[id] = &MockActiveJob{
		ID:       id,
		Engine:   engine,
		Database: database,
		Query:    query,
		Template: template,
		Status:   tdclient.JobStatusQueued,
	}
	m.issued = append(m.issued, IssuedJob{ID: id, Engine: engine, Database: database, Query: query})

	writeJSON(w, http.StatusOK, map[string]string{"job": id, "job_id": id, "database": database})
}

func (m *MockJobServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("jobId")

	m.mu.RLock()
	job, exists := m.jobs[id]
	var latency time.Duration
	if exists {
		latency = job.Template.Latency
	}
	m.mu.RUnlock()
	if !exists {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Job not found"})
		return
	}
	if latency > 0 {
		time.Sleep(latency)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if !job.Status.Finished() {
		job.Polls++
		switch {
		case job.Polls <= job.Template.PendingPolls:
			job.Status = tdclient.JobStatusRunning
		case job.Template.Stderr != "":
			job.Status = tdclient.JobStatusError
		default:
			job.Status = tdclient.JobStatusSuccess
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"job_id":      job.ID,
		"status":      job.Status.String(),
		"num_records": len(job.Template.Data),
	})
}

func (m *MockJobServer) handleShow(w http.ResponseWriter, r *http.Request) {
	m.mu.RLock()
	job, exists := m.jobs[r.PathValue("jobId")]
	m.mu.RUnlock()
	if !exists {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Job not found"})
		return
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	pairs := make([][]string, len(job.Template.Columns))
	for i, col := range job.Template.Columns {
		pairs[i] = []string{col.Name, col.Type}
	}
	schema, _ := json.Marshal(pairs)

	writeJSON(w, http.StatusOK, map[string]any{
		"job_id":             job.ID,
		"type":               job.Engine,
		"database":           job.Database,
		"query":              job.Query,
		"status":             job.Status.String(),
		"num_records":        len(job.Template.Data),
		"hive_result_schema": string(schema),
		"debug": map[string]string{
			"cmdout": "",
			"stderr": job.Template.Stderr,
		},
	})
}

func (m *MockJobServer) handleResult(w http.ResponseWriter, r *http.Request) {
	m.mu.RLock()
	job, exists := m.jobs[r.PathValue("jobId")]
	m.mu.RUnlock()
	if !exists {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Job not found"})
		return
	}
	if format := r.URL.Query().Get("format"); format != "json" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "unsupported format: " + format})
		return
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if job.Status != tdclient.JobStatusSuccess {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "job is not finished successfully"})
		return
	}

	// Results are newline-delimited JSON arrays, gzipped when accepted.
	w.Header().Set("Content-Type", "application/json")
	var sink io.Writer = w
	var gz *gzip.Writer
	if strings.Contains(r.Header.Get("Accept-Encoding"), tdclient.ContentEncodingGzip) {
		w.Header().Set("Content-Encoding", tdclient.ContentEncodingGzip)
		gz = gzip.NewWriter(w)
		sink = gz
	}
	w.WriteHeader(http.StatusOK)
	enc := json.NewEncoder(sink)
	for _, row := range job.Template.Data {
		_ = enc.Encode(row)
	}
	if gz != nil {
		_ = gz.Close()
	}
}

func (m *MockJobServer) handleKill(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("jobId")
	m.mu.Lock()
	defer m.mu.Unlock()
	job, exists := m.jobs[id]
	if !exists {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Job not found"})
		return
	}
	former := job.Status
	if !job.Status.Finished() {
		job.Status = tdclient.JobStatusKilled
	}
	m.killed = append(m.killed, id)
	writeJSON(w, http.StatusOK, map[string]string{"job_id": id, "former_status": former.String()})
}

// writeJSON encodes v as JSON and writes it to the response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(v)
}
