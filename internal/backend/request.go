package backend

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	contentType     = "application/json"
	contentEncoding = "gzip"
	requestIDHeader = "X-Request-ID"
)

// APIError is returned for every non-2xx answer of the backend.
type APIError struct {
	Status     int
	StatusText string
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("bad status: %s: %s", e.StatusText, e.Detail)
	}
	return fmt.Sprintf("bad status: %s", e.StatusText)
}

// Message returns the text a user should see for err.
// The backend error detail wins when present, fallback is used otherwise.
func Message(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail
	}
	return fallback
}

// errorPayload covers both error shapes the backend produces.
type errorPayload struct {
	Detail  any    `json:"detail"`
	Message string `json:"message"`
}

func (c *Client) getJSON(url string, target any) error {
	return c.doJSON(http.MethodGet, url, nil, target)
}

func (c *Client) postJSON(url string, payload, target any) error {
	return c.doJSON(http.MethodPost, url, payload, target)
}

func (c *Client) putJSON(url string, payload, target any) error {
	return c.doJSON(http.MethodPut, url, payload, target)
}

func (c *Client) doJSON(method, url string, payload, target any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(c.ctx, method, url, body)
	if err != nil {
		return err
	}

	req = c.setHeaders(req)
	req.Header.Set("Content-Type", contentType)

	resp, err := c.request(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gzipReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return err
		}
		defer gzipReader.Close()
		reader = gzipReader
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return parseError(resp, data)
	}

	if target == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}

func parseError(resp *http.Response, data []byte) error {
	apiErr := &APIError{Status: resp.StatusCode, StatusText: resp.Status}

	var payload errorPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return apiErr
	}

	switch detail := payload.Detail.(type) {
	case string:
		apiErr.Detail = detail
	case nil:
		apiErr.Detail = payload.Message
	default:
		// Validation failures come back as a list of objects.
		raw, _ := json.Marshal(detail)
		apiErr.Detail = string(raw)
	}

	return apiErr
}

func (c *Client) request(req *http.Request) (*http.Response, error) {
	c.logger.Debug("make request",
		zap.String("method", req.Method),
		zap.String("url", req.URL.String()),
		zap.String("request_id", req.Header.Get(requestIDHeader)),
	)
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}

	return resp, nil
}

func (c *Client) setHeaders(req *http.Request) *http.Request {
	if c.token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.token))
	}
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept-Encoding", contentEncoding)
	req.Header.Set(requestIDHeader, uuid.NewString())

	return req
}
