// Package cascade supplies the ordered list of candidate models.
package cascade

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Defaults for remote cascade lookups.
const (
	DefaultTTL          = 5 * time.Minute
	DefaultFetchTimeout = 3 * time.Second
)

// Origin tells where a returned list came from.
type Origin string

const (
	OriginCache    Origin = "cache"
	OriginRemote   Origin = "remote"
	OriginFallback Origin = "fallback"
)

// maxBodySize bounds the remote cascade document.
const maxBodySize = 1 << 20

var errEmptyCascade = errors.New("remote cascade is empty")

// Options configures a Source.
type Options struct {
	// URL of the remote cascade document. Empty disables remote lookups.
	URL          string
	TTL          time.Duration
	FetchTimeout time.Duration
	// Fallback replaces DefaultFallback when non-empty.
	Fallback []string
	Client   *http.Client
	Logger   *zap.Logger
}

// Source returns the model cascade, preferring a cached remote list and
// falling back to a static one. It never fails.
type Source struct {
	url          string
	ttl          time.Duration
	fetchTimeout time.Duration
	fallback     []string
	client       *http.Client
	logger       *zap.Logger
	nowFunc      func() time.Time

	group singleflight.Group

	mu      sync.Mutex
	cached  []string
	expires time.Time
}

// New creates a Source.
func New(opts Options) *Source {
	s := &Source{
		url:          opts.URL,
		ttl:          opts.TTL,
		fetchTimeout: opts.FetchTimeout,
		fallback:     opts.Fallback,
		client:       opts.Client,
		logger:       opts.Logger,
		nowFunc:      time.Now,
	}
	if s.ttl <= 0 {
		s.ttl = DefaultTTL
	}
	if s.fetchTimeout <= 0 {
		s.fetchTimeout = DefaultFetchTimeout
	}
	if len(s.fallback) == 0 {
		s.fallback = DefaultFallback
	}
	if s.client == nil {
		s.client = http.DefaultClient
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

// SetClock replaces the time source used for cache expiry.
func (s *Source) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nowFunc = now
}

// Models returns the current cascade.
func (s *Source) Models(ctx context.Context) []string {
	models, _ := s.Lookup(ctx)
	return models
}

// Lookup returns the current cascade and where it came from. The returned
// slice is a copy and may be modified by the caller.
func (s *Source) Lookup(ctx context.Context) ([]string, Origin) {
	if models, ok := s.fromCache(); ok {
		return models, OriginCache
	}
	if s.url == "" {
		return clone(s.fallback), OriginFallback
	}

	// Concurrent misses share one fetch. The fetch is detached from any
	// single caller so one cancelled request does not fail the others.
	v, err, _ := s.group.Do("cascade", func() (any, error) {
		if models, ok := s.fromCache(); ok {
			return models, nil
		}
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.fetchTimeout)
		defer cancel()

		models, err := s.fetch(fetchCtx)
		if err != nil {
			return nil, err
		}
		s.store(models)
		return models, nil
	})
	if err != nil {
		s.logger.Warn("remote cascade unavailable, using fallback",
			zap.String("url", s.url), zap.Error(err))
		return clone(s.fallback), OriginFallback
	}
	return clone(v.([]string)), OriginRemote
}

// Fallback returns a copy of the static fallback list.
func (s *Source) Fallback() []string {
	return clone(s.fallback)
}

func (s *Source) fromCache() ([]string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cached == nil || !s.nowFunc().Before(s.expires) {
		return nil, false
	}
	return clone(s.cached), true
}

func (s *Source) store(models []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cached = clone(models)
	s.expires = s.nowFunc().Add(s.ttl)
}

func (s *Source) fetch(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("remote cascade returned %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var raw []string
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode cascade: %w", err)
	}

	models := raw[:0]
	for _, m := range raw {
		if m != "" {
			models = append(models, m)
		}
	}
	if len(models) == 0 {
		return nil, errEmptyCascade
	}
	return models, nil
}

func clone(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}
