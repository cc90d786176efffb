// Package backend talks JSON over HTTP to the exam-preparation backend API.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/examprep/portal/core"
)

const (
	defaultTimeout  = 10 * time.Second
	defaultRetryNap = 100 * time.Millisecond
	maxErrorBody    = 4 << 10
)

// StatusError is a backend answer with an unexpected status code.
type StatusError struct {
	Method  string
	Path    string
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	msg := e.Method + " " + e.Path + ": " + http.StatusText(e.Code)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// Options configures a Client. Only BaseURL is required.
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
	// RetryNap is the pause between two attempts of a GET.
	RetryNap   time.Duration
	HTTPClient *http.Client
}

// Client is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	maxRetries int
	nap        time.Duration
	logger     core.Logger
}

func New(opts Options, logger core.Logger) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(opts.BaseURL))
	if err != nil {
		return nil, errors.Wrap(err, "parsing backend base url")
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return nil, errors.Errorf("invalid backend base url %q", opts.BaseURL)
	}
	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}
	nap := opts.RetryNap
	if nap <= 0 {
		nap = defaultRetryNap
	}
	retries := opts.MaxRetries
	if retries < 0 {
		retries = 0
	}
	return &Client{
		baseURL:    strings.TrimRight(u.String(), "/"),
		httpClient: hc,
		maxRetries: retries,
		nap:        nap,
		logger:     logger,
	}, nil
}

// NewFromConfig builds a Client from the backend section of the app config.
func NewFromConfig(conf core.BackendConfig, logger core.Logger) (*Client, error) {
	return New(Options{BaseURL: conf.BaseURL, Timeout: conf.Timeout, MaxRetries: conf.MaxRetries}, logger)
}

// do sends a request and returns the response body of a 2xx answer.
// Only GETs are retried: on transport errors and on 502, 503 and 504.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, token string, body interface{}) ([]byte, error) {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return nil, errors.Wrap(err, "encoding request body")
		}
	}
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	attempts := 1
	if method == http.MethodGet {
		attempts += c.maxRetries
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, errors.Wrap(ctx.Err(), lastErr.Error())
			case <-time.After(c.nap):
			}
		}

		data, retryable, err := c.attempt(ctx, method, target, path, token, payload)
		if err == nil {
			return data, nil
		}
		lastErr = err
		if !retryable || ctx.Err() != nil {
			break
		}
		if c.logger != nil {
			c.logger.Debug("retrying backend call", err, map[string]interface{}{"attempt": attempt + 1})
		}
	}
	return nil, lastErr
}

func (c *Client) attempt(ctx context.Context, method, target, path, token string, payload []byte) (data []byte, retryable bool, err error) {
	var rdr io.Reader
	if payload != nil {
		rdr = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, rdr)
	if err != nil {
		return nil, false, errors.Wrap(err, "building backend request")
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, true, errors.Wrapf(err, "%s %s", method, path)
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		retryable = true
	}
	if res.StatusCode >= 400 {
		return nil, retryable, statusError(res, method, path)
	}

	data, err = io.ReadAll(res.Body)
	if err != nil {
		return nil, true, errors.Wrapf(err, "reading %s %s", method, path)
	}
	return data, false, nil
}

func statusError(res *http.Response, method, path string) error {
	raw, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
	switch res.StatusCode {
	case http.StatusNotFound:
		return errors.Wrapf(core.ErrNotFound, "%s %s", method, path)
	case http.StatusUnauthorized, http.StatusForbidden:
		return errors.Wrapf(core.ErrUnauthorized, "%s %s", method, path)
	}
	return &StatusError{Method: method, Path: path, Code: res.StatusCode, Message: errorMessage(raw)}
}

// errorMessage extracts the message of a backend error body: `{"message": ...}`, `{"error": ...}` or text.
func errorMessage(raw []byte) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err == nil {
		if body.Message != "" {
			return body.Message
		}
		return body.Error
	}
	return strings.TrimSpace(string(raw))
}

// unwrap strips the `{"data": ...}` envelope some endpoints answer with.
func unwrap(raw []byte) []byte {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return trimmed
	}
	var env map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return trimmed
	}
	if data, ok := env["data"]; ok && len(env) <= 3 { // data (+ message, success)
		return data
	}
	return trimmed
}

func decode(raw []byte, out interface{}) error {
	if err := json.Unmarshal(unwrap(raw), out); err != nil {
		return errors.Wrap(err, "decoding backend response")
	}
	return nil
}
