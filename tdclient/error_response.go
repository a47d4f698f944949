package tdclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// ErrorResponse represents a non-200 answer from the job API.
type ErrorResponse struct {
	// Response is the original HTTP response
	Response *http.Response

	// Message is the service's error message, or the raw body when the
	// body is not the usual JSON error document
	Message string
}

// apiError is the JSON error document returned by the job API.
type apiError struct {
	Error    string `json:"error"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
}

// Error implements the error interface for ErrorResponse.
func (e *ErrorResponse) Error() string {
	return fmt.Sprintf("%s (status code: %d)", e.Message, e.Response.StatusCode)
}

// Unauthorized reports whether the service rejected the credentials.
func (e *ErrorResponse) Unauthorized() bool {
	return e.Response.StatusCode == http.StatusUnauthorized || e.Response.StatusCode == http.StatusForbidden
}

// NewErrorResponse creates a new ErrorResponse from an HTTP response.
// It reads the response body and closes it.
func NewErrorResponse(resp *http.Response) error {
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	message := strings.TrimSpace(string(body))
	var doc apiError
	if json.Unmarshal(body, &doc) == nil {
		switch {
		case doc.Message != "":
			message = doc.Message
		case doc.Error != "":
			message = doc.Error
		}
	}
	return &ErrorResponse{
		Response: resp,
		Message:  message,
	}
}
