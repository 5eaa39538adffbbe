package cache

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/shindan/internal/knowledge"
	"github.com/hyperjump/shindan/internal/models"
	"github.com/hyperjump/shindan/internal/storage"
	"github.com/hyperjump/shindan/pkg/utils"
)

const catalogPrefix = "catalog"

// Store wraps a storage.Storage and caches catalog and weight reads.
// Cache failures fall through to the underlying store.
type Store struct {
	storage.Storage
	cache  Client
	ttl    time.Duration
	logger *zap.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// NewStore returns a caching decorator around inner.
func NewStore(inner storage.Storage, client Client, ttl time.Duration, opts ...Option) *Store {
	s := &Store{Storage: inner, cache: client, ttl: ttl}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = utils.OrNop(s.logger)
	return s
}

// readThrough returns the cached value for key, or loads, stores, and returns it.
func readThrough[T any](ctx context.Context, s *Store, key string, load func() (T, error)) (T, error) {
	if data, err := s.cache.Get(ctx, key); err == nil {
		var v T
		if err := json.Unmarshal(data, &v); err == nil {
			return v, nil
		}
		s.logger.Warn("discarding undecodable cache entry", zap.String("key", key))
	} else if !errors.Is(err, ErrCacheMiss) {
		s.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
	}

	v, err := load()
	if err != nil {
		return v, err
	}
	if data, err := json.Marshal(v); err == nil {
		if err := s.cache.Set(ctx, key, data, s.ttl); err != nil {
			s.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return v, nil
}

// AllSymptoms returns the cached catalog.
func (s *Store) AllSymptoms(ctx context.Context) ([]models.Symptom, error) {
	return readThrough(ctx, s, Key(catalogPrefix, "symptoms"), func() ([]models.Symptom, error) {
		return s.Storage.AllSymptoms(ctx)
	})
}

// SearchSymptoms returns cached search results.
func (s *Store) SearchSymptoms(ctx context.Context, term string) ([]models.Symptom, error) {
	key := Key(catalogPrefix, "search", strings.ToLower(strings.TrimSpace(term)))
	return readThrough(ctx, s, key, func() ([]models.Symptom, error) {
		return s.Storage.SearchSymptoms(ctx, term)
	})
}

// Categories returns the cached category list.
func (s *Store) Categories(ctx context.Context) ([]string, error) {
	return readThrough(ctx, s, Key(catalogPrefix, "categories"), func() ([]string, error) {
		return s.Storage.Categories(ctx)
	})
}

// Weights returns cached weight rows for the symptom set.
func (s *Store) Weights(ctx context.Context, symptomIDs []int64) ([]models.WeightedAdvice, error) {
	return readThrough(ctx, s, Key(catalogPrefix, "weights", idKey(symptomIDs)), func() ([]models.WeightedAdvice, error) {
		return s.Storage.Weights(ctx, symptomIDs)
	})
}

// Import imports into the underlying store and invalidates cached catalog data when it changed.
func (s *Store) Import(ctx context.Context, kb *knowledge.Base, force bool) (bool, error) {
	changed, err := s.Storage.Import(ctx, kb, force)
	if err != nil || !changed {
		return changed, err
	}
	if err := s.Invalidate(ctx); err != nil {
		s.logger.Warn("cache invalidation failed", zap.Error(err))
	}
	return changed, nil
}

// Invalidate drops all cached catalog data.
func (s *Store) Invalidate(ctx context.Context) error {
	return s.cache.DeleteByPrefix(ctx, catalogPrefix+":")
}

// Close closes the cache and the underlying store.
func (s *Store) Close() error {
	cacheErr := s.cache.Close()
	if err := s.Storage.Close(); err != nil {
		return err
	}
	return cacheErr
}

func idKey(ids []int64) string {
	sorted := append([]int64(nil), ids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	parts := make([]string, len(sorted))
	for i, id := range sorted {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}
