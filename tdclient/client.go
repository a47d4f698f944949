package tdclient

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Job API protocol constants
const (
	AuthorizationHeader = "Authorization"
	UserAgentHeader     = "User-Agent"

	DefaultEndpoint     = "https://api.treasuredata.co.jp/"
	DefaultUserAgent    = "tdq-go-client"
	ContentEncodingGzip = "gzip"
	MaxRetryAttempts    = 10
	MaxRetryDelay       = 30 * time.Second
	DefaultWaitInterval = time.Second
	MaxWaitInterval     = 5 * time.Second
)

// RequestOption allows for functional overrides on individual requests
type RequestOption func(*http.Request)

// BodyReader consumes a successful response body as a stream instead of
// decoding it as a single JSON document. Pass it as the destination of Do.
type BodyReader func(r io.Reader) error

// Client talks to the job API of the query service. It holds the endpoint,
// the credentials and the transport; it has no per-query state and can be
// reused for every statement of a shell session.
type Client struct {
	httpClient     *http.Client
	endpoint       *url.URL
	apiKey         string
	userAgent      string
	requestOptions []RequestOption
	waitInterval   time.Duration
	retryDelay     time.Duration
}

// --- Initialization & Configuration ---

// NewClient validates the endpoint and builds a client authenticating with
// apiKey. An endpoint without a scheme is treated as https. apiKey may be
// empty when a RequestOption supplies the Authorization header instead.
func NewClient(apiKey, endpoint string) (*Client, error) {
	if strings.TrimSpace(endpoint) == "" {
		return nil, errors.New("tdclient: endpoint is required")
	}
	if !strings.Contains(endpoint, "://") {
		endpoint = "https://" + endpoint
	}
	parsed, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint URL: %w", err)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("invalid endpoint URL %q: missing host", endpoint)
	}
	// Relative API paths are resolved against the endpoint, so it must end
	// with a slash to keep any path prefix.
	if !strings.HasSuffix(parsed.Path, "/") {
		parsed.Path += "/"
	}

	return &Client{
		httpClient:   &http.Client{},
		endpoint:     parsed,
		apiKey:       apiKey,
		userAgent:    DefaultUserAgent,
		waitInterval: DefaultWaitInterval,
		retryDelay:   time.Second,
	}, nil
}

// Endpoint returns the normalized endpoint URL.
func (c *Client) Endpoint() string {
	return c.endpoint.String()
}

func (c *Client) UserAgent(ua string) *Client {
	c.userAgent = ua
	return c
}

func (c *Client) HTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// WaitInterval sets the first status polling interval used by Job.Wait.
// Later polls back off up to MaxWaitInterval.
func (c *Client) WaitInterval(d time.Duration) *Client {
	if d > 0 {
		c.waitInterval = d
	}
	return c
}

// RequestOptions appends options applied to every request of this client,
// before any per-call options.
func (c *Client) RequestOptions(opts ...RequestOption) *Client {
	c.requestOptions = append(c.requestOptions, opts...)
	return c
}

// --- Request Lifecycle ---

// NewRequest builds an http.Request for an API path relative to the
// endpoint, with credentials and client options applied.
func (c *Client) NewRequest(method, urlStr string, body any, options ...RequestOption) (*http.Request, error) {
	u, err := c.endpoint.Parse(urlStr)
	if err != nil {
		return nil, err
	}

	bodyReader, contentType, err := prepareRequestBody(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest(method, u.String(), bodyReader)
	if err != nil {
		return nil, err
	}

	if c.apiKey != "" {
		req.Header.Set(AuthorizationHeader, "TD1 "+c.apiKey)
	}
	req.Header.Set(UserAgentHeader, c.userAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Encoding", ContentEncodingGzip)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	for _, opt := range c.requestOptions {
		opt(req)
	}
	for _, opt := range options {
		opt(req)
	}

	return req, nil
}

// Do executes the request, retrying on 503 and transient network errors,
// and decodes a 200 response into v. Any other status is returned as an
// *ErrorResponse.
func (c *Client) Do(ctx context.Context, req *http.Request, v any) (*http.Response, error) {
	req = req.WithContext(ctx)

	// Buffer the request body so it can be replayed on retries.
	if req.Body != nil && req.GetBody == nil {
		bodyBytes, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read request body: %w", err)
		}
		req.Body.Close()
		req.Body = io.NopCloser(bytes.NewReader(bodyBytes))
		req.GetBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(bodyBytes)), nil
		}
	}

	retryDelay := c.retryDelay
	backoff := func() {
		if req.GetBody != nil {
			req.Body, _ = req.GetBody()
		}
		time.Sleep(retryDelay)
		retryDelay = min(retryDelay*2, MaxRetryDelay)
	}

	for attempt := 0; attempt < MaxRetryAttempts; attempt++ {
		resp, err := c.httpClient.Do(req)
		if err != nil {
			if !isRetryableNetError(err) {
				return nil, err
			}
			log.Debug().Err(err).Int("attempt", attempt+1).Str("url", req.URL.Path).Msg("retrying on connection error")
			backoff()
			continue
		}

		if resp.StatusCode == http.StatusOK {
			return resp, decodeResponseBody(resp, v)
		}

		if resp.StatusCode == http.StatusServiceUnavailable {
			if closeErr := resp.Body.Close(); closeErr != nil {
				log.Debug().Err(closeErr).Msg("failed to close response body")
			}
			log.Debug().Int("attempt", attempt+1).Str("url", req.URL.Path).Msg("retrying on service unavailable")
			backoff()
			continue
		}

		return resp, NewErrorResponse(resp)
	}
	return nil, fmt.Errorf("max retries exceeded for %s %s", req.Method, req.URL.Path)
}

// isRetryableNetError returns true for transient network errors that warrant
// a retry (connection refused, DNS failures, connection reset, network timeouts).
// Context cancellation and deadline exceeded errors are NOT retried.
func isRetryableNetError(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}

// --- Body Handling ---

func prepareRequestBody(body any) (io.Reader, string, error) {
	switch b := body.(type) {
	case nil:
		return nil, "", nil
	case string:
		return strings.NewReader(b), "text/plain", nil
	case url.Values:
		return strings.NewReader(b.Encode()), "application/x-www-form-urlencoded", nil
	}
	jsonBuf := &bytes.Buffer{}
	if err := json.NewEncoder(jsonBuf).Encode(body); err != nil {
		return nil, "", err
	}
	return jsonBuf, "application/json", nil
}

func decodeResponseBody(resp *http.Response, v any) (err error) {
	defer func() {
		closeErr := resp.Body.Close()
		if err == nil {
			err = closeErr
		}
	}()

	if v == nil {
		return nil
	}

	var reader io.Reader = resp.Body

	if resp.Header.Get("Content-Encoding") == ContentEncodingGzip {
		gz, gzErr := gzip.NewReader(resp.Body)
		if gzErr != nil {
			return fmt.Errorf("failed to create gzip reader: %w", gzErr)
		}
		defer func() {
			if cErr := gz.Close(); cErr != nil {
				log.Debug().Err(cErr).Msg("failed to close gzip reader")
			}
		}()
		reader = gz
	}

	switch dst := v.(type) {
	case BodyReader:
		return dst(reader)
	case io.Writer:
		_, err = io.Copy(dst, reader)
		return err
	}

	if err = json.NewDecoder(reader).Decode(v); err != nil {
		if err == io.EOF {
			return nil
		}
		return fmt.Errorf("failed to decode JSON: %w", err)
	}
	return nil
}
