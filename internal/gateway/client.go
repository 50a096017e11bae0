// Package gateway is the query/mutation client for a GraphQL library gateway.
package gateway

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"slices"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"golang.org/x/time/rate"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const maxResponseBytes = 4 << 20

// Config configures a Client.
type Config struct {
	Endpoint          string
	Timeout           time.Duration
	RequestsPerSecond float64
	CacheTTL          time.Duration
	// HTTPClient overrides the default client; Timeout is ignored when set.
	HTTPClient *http.Client
}

// Client sends the library operations over HTTP and caches query results.
type Client struct {
	endpoint string
	http     *http.Client
	limiter  *rate.Limiter
	cache    *resultCache
	sent     atomic.Int64
}

// NewClient builds a Client. A non-positive RequestsPerSecond disables rate limiting.
func NewClient(cfg Config) *Client {
	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	limit := rate.Inf
	burst := 1
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
		burst = int(cfg.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
	}
	return &Client{
		endpoint: cfg.Endpoint,
		http:     hc,
		limiter:  rate.NewLimiter(limit, burst),
		cache:    newResultCache(cfg.CacheTTL),
	}
}

// Endpoint returns the URL requests are posted to.
func (c *Client) Endpoint() string { return c.endpoint }

// Sent returns how many requests reached the transport.
func (c *Client) Sent() int64 { return c.sent.Load() }

// ResetCache drops every cached query result.
func (c *Client) ResetCache() { c.cache.reset() }

type request struct {
	Query         string `json:"query"`
	OperationName string `json:"operationName"`
	Variables     any    `json:"variables"`
}

type response struct {
	Data   jsoniter.RawMessage `json:"data"`
	Errors []GraphQLError      `json:"errors"`
}

// Execute sends op with vars and decodes the response "data" object into out.
// out may be nil. Queries go through the cache according to policy; mutations
// always go to the network and are never cached.
func (c *Client) Execute(ctx context.Context, op Operation, policy FetchPolicy, vars any, out any) error {
	if vars == nil {
		vars = map[string]any{}
	}
	varsJSON, err := json.Marshal(vars)
	if err != nil {
		return fmt.Errorf("%s: encode variables: %w", op.Name, err)
	}
	if err := checkVariables(op, varsJSON); err != nil {
		return err
	}
	key := op.Name + ":" + string(varsJSON)

	if !op.IsMutation() && policy == CacheFirst {
		if data, ok := c.cache.get(key); ok {
			return decodeData(op, data, out)
		}
	}

	data, err := c.post(ctx, op, jsoniter.RawMessage(varsJSON))
	if err != nil {
		return err
	}
	if !op.IsMutation() {
		c.cache.put(key, data)
	}
	return decodeData(op, data, out)
}

func (c *Client) post(ctx context.Context, op Operation, vars jsoniter.RawMessage) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%s: rate limit: %w", op.Name, err)
	}

	body, err := json.Marshal(request{Query: op.Document, OperationName: op.Name, Variables: vars})
	if err != nil {
		return nil, fmt.Errorf("%s: encode request: %w", op.Name, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", op.Name, err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", requestID)

	start := time.Now()
	c.sent.Add(1)
	resp, err := c.http.Do(req)
	if err != nil {
		log.Printf("gateway: op=%s request_id=%s err=%v", op.Name, requestID, err)
		return nil, fmt.Errorf("%s: %w", op.Name, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	log.Printf("gateway: op=%s request_id=%s status=%d duration_ms=%d", op.Name, requestID, resp.StatusCode, time.Since(start).Milliseconds())
	if err != nil {
		return nil, fmt.Errorf("%s: read response: %w", op.Name, err)
	}

	var decoded response
	if jerr := json.Unmarshal(raw, &decoded); jerr != nil {
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, &ResponseError{Operation: op.Name, StatusCode: resp.StatusCode}
		}
		return nil, fmt.Errorf("%s: decode response: %w", op.Name, jerr)
	}
	if len(decoded.Errors) > 0 {
		return nil, &ResponseError{Operation: op.Name, StatusCode: resp.StatusCode, Errors: decoded.Errors}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ResponseError{Operation: op.Name, StatusCode: resp.StatusCode}
	}
	if len(decoded.Data) == 0 || string(decoded.Data) == "null" {
		return nil, fmt.Errorf("%s: %w", op.Name, ErrNoData)
	}
	return decoded.Data, nil
}

// checkVariables rejects variables the operation does not declare.
func checkVariables(op Operation, varsJSON []byte) error {
	var sent map[string]jsoniter.RawMessage
	if err := json.Unmarshal(varsJSON, &sent); err != nil {
		return fmt.Errorf("%s: variables must be an object: %w", op.Name, err)
	}
	for name := range sent {
		if !slices.Contains(op.Variables, name) {
			return fmt.Errorf("%s: variable %q is not declared by the operation", op.Name, name)
		}
	}
	return nil
}

func decodeData(op Operation, data []byte, out any) error {
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s: decode data: %w", op.Name, err)
	}
	return nil
}
