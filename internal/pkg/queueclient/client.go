// Package queueclient is a typed facade over the remote job-queue's
// HTTPS RPC endpoint: query and mutation calls carrying a bearer token,
// with success/error envelope parsing on top of the resilient external
// HTTP client.
package queueclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"zenpdf-worker/internal/pkg/external"
	"zenpdf-worker/internal/pkg/workererr"
)

const clientHeaderValue = "zenpdf-worker"

// envelope is the wire request body for both query and mutation calls.
type envelope struct {
	Path   string        `json:"path"`
	Format string        `json:"format"`
	Args   []interface{} `json:"args"`
}

// response is the wire response body. Value is left as raw JSON so
// callers can unmarshal it into whatever shape the RPC path returns.
type response struct {
	Status       string          `json:"status"`
	Value        json.RawMessage `json:"value"`
	ErrorMessage string          `json:"errorMessage"`
	ErrorData    json.RawMessage `json:"errorData"`
}

// Client issues query and mutation RPCs against a queue service. A
// single instance is shared between the worker loop and its heartbeat
// goroutine, so every RPC is serialized behind mu.
type Client struct {
	http  external.Client
	token string

	mu sync.Mutex
}

// New builds a Client against baseURL, authenticating with token when
// non-empty. retryCfg and timeout configure the underlying resilient
// HTTP client's retry and per-request timeout.
func New(baseURL, token string, retryCfg external.RetryConfig, timeout time.Duration) *Client {
	return &Client{
		http:  external.NewHTTPClient(baseURL, "queue-client", retryCfg, timeout),
		token: token,
	}
}

// Query issues a read-only RPC at path, encoding args (a single
// named-field object, e.g. a struct or map) as the method's one
// argument, and decoding the success value into out (a pointer).
func (c *Client) Query(ctx context.Context, path string, args interface{}, out interface{}) error {
	return c.call(ctx, "/api/query", path, args, out)
}

// Mutation issues a state-changing RPC at path, encoding args (a single
// named-field object) as the method's one argument, and decoding the
// success value into out (a pointer).
func (c *Client) Mutation(ctx context.Context, path string, args interface{}, out interface{}) error {
	return c.call(ctx, "/api/mutation", path, args, out)
}

func (c *Client) call(ctx context.Context, route, path string, args interface{}, out interface{}) error {
	if args == nil {
		args = struct{}{}
	}
	body, err := json.Marshal(envelope{Path: path, Format: "convex_encoded_json", Args: []interface{}{args}})
	if err != nil {
		return fmt.Errorf("encode rpc request for %s: %w", path, err)
	}

	headers := map[string]string{
		"Content-Type":  "application/json",
		"Convex-Client": clientHeaderValue,
	}
	if c.token != "" {
		headers["Authorization"] = "Bearer " + c.token
	}

	c.mu.Lock()
	resp, err := c.http.ExecuteRequest(ctx, &external.Request{
		Method:  http.MethodPost,
		URL:     route,
		Headers: headers,
		Body:    body,
	})
	c.mu.Unlock()
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != 560 {
		return fmt.Errorf("rpc %s: unexpected status %d", path, resp.StatusCode)
	}

	var env response
	if err := json.Unmarshal(resp.Body, &env); err != nil {
		return fmt.Errorf("decode rpc response for %s: %w", path, err)
	}

	if env.Status == "error" {
		return workererr.Userf("%s: %s", path, env.ErrorMessage)
	}

	if out != nil && len(env.Value) > 0 {
		if err := json.Unmarshal(env.Value, out); err != nil {
			return fmt.Errorf("decode rpc value for %s: %w", path, err)
		}
	}
	return nil
}
