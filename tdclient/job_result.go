package tdclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
)

// Row is one result row. Numbers are kept as json.Number so their text
// form survives unchanged.
type Row []any

// RowHandler is called once per result row by Drain.
type RowHandler func(row Row) error

// ResultOptions are the query parameters of the v3/job/result endpoint.
type ResultOptions struct {
	Format *string `query:"format"`
}

const resultFormatJSON = "json"

// Drain streams the result rows of a finished job to handler. Rows are
// decoded one at a time from the newline-delimited JSON result, so memory
// use does not grow with the result size.
//
// Example:
//
//	err := job.Drain(ctx, func(row tdclient.Row) error {
//	    fmt.Println(row...)
//	    return nil
//	})
func (j *Job) Drain(ctx context.Context, handler RowHandler) error {
	if j == nil || j.client == nil {
		return errors.New("cannot drain results: job has no client")
	}
	format := resultFormatJSON
	path := appendQuery("v3/job/result/"+url.PathEscape(j.ID), &ResultOptions{Format: &format})
	req, err := j.client.NewRequest("GET", path, nil)
	if err != nil {
		return err
	}

	count := 0
	_, err = j.client.Do(ctx, req, BodyReader(func(r io.Reader) error {
		dec := json.NewDecoder(r)
		dec.UseNumber()
		for {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			var row Row
			if err := dec.Decode(&row); err != nil {
				if err == io.EOF {
					return nil
				}
				return fmt.Errorf("cannot decode row %d: %w", count+1, err)
			}
			count++
			if handler == nil {
				continue
			}
			if err := handler(row); err != nil {
				return fmt.Errorf("row handler returned error for job %s: %w", j.ID, err)
			}
		}
	}))
	if err != nil {
		return fmt.Errorf("drain operation failed for job %s: %w", j.ID, err)
	}
	return nil
}
