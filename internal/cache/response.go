// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// response.go provides a Valkey-backed cache for JSON list responses.
// Successful GETs are stored per group and query string; any successful
// write routed through the same group drops every entry of that group.
package cache

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// keyPrefix is the Valkey key prefix for cached API responses.
	keyPrefix = "api:"

	// DefaultTTL is how long a cached listing stays valid.
	DefaultTTL = 30 * time.Second

	// Groups of cached responses, invalidated together.
	GroupCategories = "categories"
	GroupPosts      = "posts"
)

// Observer is notified of cache lookups.
type Observer interface {
	CacheHit()
	CacheMiss()
}

// ResponseCache caches JSON responses in Valkey. A nil *ResponseCache, or
// one built without a client, passes every request straight through.
type ResponseCache struct {
	client   *redis.Client
	ttl      time.Duration
	observer Observer
}

// NewResponseCache creates a response cache backed by the given Valkey
// client. A nil client yields a pass-through cache.
func NewResponseCache(client *redis.Client, ttl time.Duration, observer Observer) *ResponseCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &ResponseCache{client: client, ttl: ttl, observer: observer}
}

func (rc *ResponseCache) enabled() bool {
	return rc != nil && rc.client != nil
}

// Key returns the cache key for a group and a request query. Query
// parameters are re-encoded in sorted order so equivalent URLs share a key.
func Key(group string, query url.Values) string {
	return keyPrefix + group + ":" + query.Encode()
}

// Get retrieves a cached body. Returns false on miss or error.
func (rc *ResponseCache) Get(ctx context.Context, key string) ([]byte, bool) {
	if !rc.enabled() {
		return nil, false
	}
	val, err := rc.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		slog.Warn("response cache get error", "key", key, "error", err)
		return nil, false
	}
	return val, true
}

// Set stores a body under key with the configured TTL.
func (rc *ResponseCache) Set(ctx context.Context, key string, body []byte) {
	if !rc.enabled() {
		return
	}
	if err := rc.client.Set(ctx, key, body, rc.ttl).Err(); err != nil {
		slog.Warn("response cache set error", "key", key, "error", err)
	}
}

// Invalidate removes every cached response of a group by scanning for
// its prefix.
func (rc *ResponseCache) Invalidate(ctx context.Context, group string) {
	if !rc.enabled() {
		return
	}
	var cursor uint64
	var deleted int
	for {
		keys, next, err := rc.client.Scan(ctx, cursor, keyPrefix+group+":*", 100).Result()
		if err != nil {
			slog.Warn("response cache scan error", "group", group, "error", err)
			return
		}
		if len(keys) > 0 {
			if err := rc.client.Del(ctx, keys...).Err(); err != nil {
				slog.Warn("response cache bulk delete error", "group", group, "error", err)
			}
			deleted += len(keys)
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	if deleted > 0 {
		slog.Debug("response cache invalidated", "group", group, "deleted", deleted)
	}
}

// Middleware caches successful GET responses for a single listing route
// under group. Mount it on that route only.
func (rc *ResponseCache) Middleware(group string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !rc.enabled() {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				next.ServeHTTP(w, r)
				return
			}

			key := Key(group, r.URL.Query())
			if body, ok := rc.Get(r.Context(), key); ok {
				rc.hit()
				w.Header().Set("Content-Type", "application/json; charset=utf-8")
				w.Header().Set("X-Cache", "HIT")
				w.WriteHeader(http.StatusOK)
				w.Write(body)
				return
			}
			rc.miss()

			rec := &bodyRecorder{ResponseWriter: w, status: http.StatusOK}
			w.Header().Set("X-Cache", "MISS")
			next.ServeHTTP(rec, r)

			if rec.status == http.StatusOK {
				rc.Set(r.Context(), key, rec.body.Bytes())
			}
		})
	}
}

// Invalidates drops group after every successful non-GET request handled
// by next.
func (rc *ResponseCache) Invalidates(group string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !rc.enabled() {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet || r.Method == http.MethodHead {
				next.ServeHTTP(w, r)
				return
			}
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			if rec.status < 300 {
				rc.Invalidate(context.WithoutCancel(r.Context()), group)
			}
		})
	}
}

func (rc *ResponseCache) hit() {
	if rc.observer != nil {
		rc.observer.CacheHit()
	}
}

func (rc *ResponseCache) miss() {
	if rc.observer != nil {
		rc.observer.CacheMiss()
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(code int) {
	if !r.wroteHeader {
		r.status = code
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	r.wroteHeader = true
	return r.ResponseWriter.Write(b)
}

// bodyRecorder tees the response body so it can be cached.
type bodyRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
	body        bytes.Buffer
}

func (r *bodyRecorder) WriteHeader(code int) {
	if !r.wroteHeader {
		r.status = code
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *bodyRecorder) Write(b []byte) (int, error) {
	r.wroteHeader = true
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}
