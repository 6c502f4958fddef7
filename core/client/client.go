// Package client is the storefront's only path to the REST backend. Reads go
// through Query, which caches and retries once. Writes go through Mutate,
// which never retries and invalidates cached reads on success.
package client

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"shophub/core/apiurl"
	"shophub/core/cache"
)

type ctxKey int

const (
	credentialsKey ctxKey = iota
	idempotencyKey
)

// WithCredentials attaches the visitor's Cookie header to ctx. Every request
// issued with that ctx forwards it.
func WithCredentials(ctx context.Context, cookie string) context.Context {
	if cookie == "" {
		return ctx
	}
	return context.WithValue(ctx, credentialsKey, cookie)
}

// WithIdempotencyKey sets the Idempotency-Key header for mutations issued with ctx.
func WithIdempotencyKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, idempotencyKey, key)
}

type Options struct {
	BaseURL    string
	Token      string
	StaleTime  time.Duration
	RetryDelay time.Duration
	HTTPClient *http.Client
	Store      cache.Store
	Logger     logrus.FieldLogger
}

type Client struct {
	base       string
	token      string
	staleTime  time.Duration
	retryDelay time.Duration
	http       *http.Client
	store      cache.Store
	log        logrus.FieldLogger
}

func New(opts Options) *Client {
	c := &Client{
		base:       opts.BaseURL,
		token:      opts.Token,
		staleTime:  opts.StaleTime,
		retryDelay: opts.RetryDelay,
		http:       opts.HTTPClient,
		store:      opts.Store,
		log:        opts.Logger,
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: 15 * time.Second}
	}
	if c.store == nil {
		c.store = cache.NewCache()
	}
	if c.log == nil {
		c.log = logrus.StandardLogger()
	}
	return c
}

// URL resolves path against the backend base.
func (c *Client) URL(path string) string {
	return apiurl.Resolve(c.base, path)
}

// Query GETs key and decodes the JSON reply into out. A failed attempt is
// retried once after the retry delay.
func (c *Client) Query(ctx context.Context, key Key, out interface{}) error {
	k := key.String()
	ck := cacheKey(ctx, k)
	if c.staleTime > 0 {
		if b, ok := c.store.Get(ck); ok {
			return decode(b, out, k)
		}
	}

	body, err := c.do(ctx, http.MethodGet, k, nil)
	if err != nil && ctx.Err() == nil {
		c.log.WithError(err).WithField("key", k).Warn("query failed, retrying")
		t := time.NewTimer(c.retryDelay)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
		body, err = c.do(ctx, http.MethodGet, k, nil)
	}
	if err != nil {
		return err
	}
	if c.staleTime > 0 {
		c.store.Set(ck, body, c.staleTime, tagsFor(key.Path))
	}
	return decode(body, out, k)
}

// cacheKey scopes reads made with credentials to the caller so one visitor's
// response is never served to another. Tags stay path based.
func cacheKey(ctx context.Context, k string) string {
	cookie, ok := ctx.Value(credentialsKey).(string)
	if !ok {
		return k
	}
	sum := sha256.Sum256([]byte(cookie))
	return k + "#" + hex.EncodeToString(sum[:8])
}

// Mutate sends body as JSON with method to path. It is never retried.
// On success every root in invalidate is dropped from the cache before
// Mutate returns.
func (c *Client) Mutate(ctx context.Context, method, path string, body, out interface{}, invalidate ...string) error {
	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		payload = b
	}
	resp, err := c.do(ctx, method, path, payload)
	if err != nil {
		return err
	}
	c.Invalidate(invalidate...)
	if out == nil || len(bytes.TrimSpace(resp)) == 0 {
		return nil
	}
	return decode(resp, out, path)
}

// Invalidate drops every cached read under the given roots.
func (c *Client) Invalidate(roots ...string) {
	for _, r := range roots {
		c.store.DeleteByTag(r)
	}
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	var rd io.Reader
	if payload != nil {
		rd = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.URL(path), rd)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie, ok := ctx.Value(credentialsKey).(string); ok {
		req.Header.Set("Cookie", cookie)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if key, ok := ctx.Value(idempotencyKey).(string); ok && method != http.MethodGet {
		req.Header.Set("Idempotency-Key", key)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	c.log.WithFields(logrus.Fields{
		"method":  method,
		"path":    path,
		"status":  resp.StatusCode,
		"latency": time.Since(start).String(),
	}).Debug("api call")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errorFromResponse(resp)
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s %s: %w", method, path, err)
	}
	return b, nil
}

func decode(b []byte, out interface{}, what string) error {
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("decode %s: %w", what, err)
	}
	return nil
}
