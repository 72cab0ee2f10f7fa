// Package httpclient is the uniform fetch layer used by device-side
// services (offline sync, fulfillment subscriber): bearer injection,
// TTL response caching, in-flight de-duplication and structured
// transient errors so timer loops never have to parse failures.
package httpclient

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"canteen-backend/internal/apperr"
)

// CodeBackendUnavailable is the structured code the dev proxy emits for
// connection-refused upstreams. Retry logic keys off this code, never
// off the raw HTTP status.
const CodeBackendUnavailable = "BACKEND_UNAVAILABLE"

const defaultCacheTTL = 30 * time.Second

// Options tune one request.
type Options struct {
	// CacheKey enables caching and in-flight de-duplication under the
	// given key. Empty means de-dup by method+url+body hash only.
	CacheKey string
	// CacheTTL is how long a successful response stays fresh. Zero
	// picks the default for GET and disables caching for writes.
	CacheTTL time.Duration
	// ForceRefresh bypasses the cache and replaces the entry on
	// success.
	ForceRefresh bool
}

// Response is the cached-friendly subset of an HTTP response.
type Response struct {
	StatusCode int
	Body       []byte
}

// OK reports a 2xx status.
func (r *Response) OK() bool { return r.StatusCode >= 200 && r.StatusCode < 300 }

// Client is safe for concurrent use.
type Client struct {
	http  *http.Client
	cache *gocache.Cache
	group singleflight.Group
	token func() string
}

// New builds a client. token supplies the bearer credential per call
// and may return "" for unauthenticated requests.
func New(httpClient *http.Client, token func() string) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	if token == nil {
		token = func() string { return "" }
	}
	return &Client{
		http:  httpClient,
		cache: gocache.New(defaultCacheTTL, time.Minute),
		token: token,
	}
}

// Do performs a request with caching and de-duplication semantics.
func (c *Client) Do(ctx context.Context, method, url string, body []byte, opts Options) (*Response, error) {
	key := opts.CacheKey
	if key == "" {
		key = requestKey(method, url, body)
	}

	ttl := opts.CacheTTL
	if ttl == 0 && method == http.MethodGet {
		ttl = defaultCacheTTL
	}
	cacheable := opts.CacheKey != "" && ttl > 0

	if cacheable && !opts.ForceRefresh {
		if hit, ok := c.cache.Get(key); ok {
			resp := hit.(*Response)
			return resp, nil
		}
	}

	result, err, _ := c.group.Do(key, func() (interface{}, error) {
		resp, err := c.roundTrip(ctx, method, url, body)
		if err != nil {
			return nil, err
		}
		if cacheable && resp.OK() {
			if opts.ForceRefresh {
				c.cache.Delete(key)
			}
			c.cache.Set(key, resp, ttl)
		}
		return resp, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*Response), nil
}

// GetJSON fetches and decodes a JSON body in one step.
func (c *Client) GetJSON(ctx context.Context, url string, out interface{}, opts Options) error {
	resp, err := c.Do(ctx, http.MethodGet, url, nil, opts)
	if err != nil {
		return err
	}
	if !resp.OK() {
		return apperr.Newf(apperr.Internal, "GET %s returned HTTP %d", url, resp.StatusCode)
	}
	return json.Unmarshal(resp.Body, out)
}

// Purge drops a cached entry, used after writes invalidate a read key.
func (c *Client) Purge(cacheKey string) {
	c.cache.Delete(cacheKey)
}

func (c *Client) roundTrip(ctx context.Context, method, url string, body []byte) (*Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "build request", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := c.token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	httpResp, err := c.http.Do(req)
	if err != nil {
		// Network-level failure: surface as a structured transient
		// error so callers can keep their timers running.
		return nil, apperr.Wrap(apperr.Transient, "backend unreachable", err).WithCode(CodeBackendUnavailable)
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, apperr.Wrap(apperr.Transient, "read response", err)
	}

	resp := &Response{StatusCode: httpResp.StatusCode, Body: data}
	if transient, code := classifyTransient(resp); transient {
		return nil, apperr.New(apperr.Transient, "backend unavailable").WithCode(code)
	}
	return resp, nil
}

// classifyTransient detects the proxy's structured unavailable envelope
// and the bare connection-refused shapes some proxies emit instead.
func classifyTransient(resp *Response) (bool, string) {
	if resp.StatusCode != http.StatusInternalServerError &&
		resp.StatusCode != http.StatusBadGateway &&
		resp.StatusCode != http.StatusServiceUnavailable {
		return false, ""
	}
	var envelope struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(resp.Body, &envelope); err == nil && envelope.Code == CodeBackendUnavailable {
		return true, CodeBackendUnavailable
	}
	if strings.Contains(string(resp.Body), "ECONNREFUSED") {
		return true, CodeBackendUnavailable
	}
	return false, ""
}

func requestKey(method, url string, body []byte) string {
	sum := sha256.Sum256(body)
	return method + " " + url + " " + hex.EncodeToString(sum[:8])
}
