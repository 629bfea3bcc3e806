// internal/common/api/client.go
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"engagement-coordinator/internal/common/errors"
	"engagement-coordinator/internal/common/logger"
	"engagement-coordinator/internal/common/metrics"
	"engagement-coordinator/internal/common/observability"
)

// Client is the typed REST client for the upstream marketplace API. All
// coordinator components go through it; it owns status-code-to-error mapping
// so callers only ever see the standard error taxonomy.
type Client struct {
	baseURL    string
	authToken  string
	httpClient *http.Client
	logger     logger.Logger
	obs        *observability.Observability
}

// errorEnvelope is the JSON error body shape the upstream returns on non-2xx.
// Some endpoints use "message", some "msg"; both are honored and surfaced
// verbatim.
type errorEnvelope struct {
	Message string `json:"message"`
	Msg     string `json:"msg"`
}

func NewClient(baseURL, authToken string, timeout time.Duration, log logger.Logger, obs *observability.Observability) *Client {
	return &Client{
		baseURL:   baseURL,
		authToken: authToken,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: log.WithFields(map[string]interface{}{"component": "api-client"}),
		obs:    obs,
	}
}

// Do executes a round trip and decodes a 2xx body into out (skipped when out
// is nil). Non-2xx responses come back as typed errors: 404 as NOT_FOUND,
// 401/403 as UNAUTHORIZED, anything else as NETWORK_OR_SERVER_ERROR carrying
// the upstream message verbatim.
func (c *Client) Do(ctx context.Context, operation, method, path string, body, out interface{}) error {
	raw, err := c.DoRaw(ctx, operation, method, path, body)
	if err != nil {
		return err
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return errors.NewValidationError(fmt.Sprintf("malformed response for %s: %s", operation, err.Error()))
	}
	return nil
}

// DoRaw is Do without the decode step, for callers that validate the payload
// shape before unmarshaling.
func (c *Client) DoRaw(ctx context.Context, operation, method, path string, body interface{}) ([]byte, error) {
	start := time.Now()
	raw, err := c.roundTrip(ctx, method, path, body)
	if c.obs != nil {
		c.obs.RecordRequestDuration(ctx, time.Since(start), operation)
		c.obs.RecordRequest(ctx, operation, outcomeOf(err))
	}
	metrics.UpstreamRequests.WithLabelValues(operation, outcomeOf(err)).Inc()
	return raw, err
}

func (c *Client) roundTrip(ctx context.Context, method, path string, body interface{}) ([]byte, error) {
	url := c.baseURL + path

	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, errors.NewValidationError(fmt.Sprintf("marshal request body: %s", err.Error()))
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, errors.NewNetworkError(err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.NewNetworkError(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.NewNetworkError(err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return respBody, nil
	}

	c.logger.Warn("upstream request failed", map[string]interface{}{
		"method":     method,
		"path":       path,
		"statusCode": resp.StatusCode,
	})

	switch resp.StatusCode {
	case http.StatusNotFound:
		return nil, errors.NewNotFoundError("resource", path)
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, errors.NewUnauthorizedError(fmt.Sprintf("status %d for %s %s", resp.StatusCode, method, path))
	}

	return nil, errors.NewServerError(resp.StatusCode, upstreamMessage(respBody, resp.StatusCode))
}

// upstreamMessage pulls the human-readable message out of the error body so
// it can be surfaced verbatim to the user.
func upstreamMessage(body []byte, statusCode int) string {
	var envelope errorEnvelope
	if err := json.Unmarshal(body, &envelope); err == nil {
		if envelope.Message != "" {
			return envelope.Message
		}
		if envelope.Msg != "" {
			return envelope.Msg
		}
	}
	return fmt.Sprintf("upstream returned status %d", statusCode)
}

func outcomeOf(err error) string {
	if err == nil {
		return "success"
	}
	if code := errors.CodeOf(err); code != "" {
		return string(code)
	}
	return "error"
}
