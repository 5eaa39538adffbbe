package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/shindan/internal/knowledge"
	"github.com/hyperjump/shindan/internal/models"
	"github.com/hyperjump/shindan/internal/storage"
)

type countingStore struct {
	storage.Storage
	symptomCalls int
	weightCalls  int
	imported     bool
}

func (c *countingStore) AllSymptoms(context.Context) ([]models.Symptom, error) {
	c.symptomCalls++
	return []models.Symptom{{ID: 1, Name: "Headache", Severity: models.SeverityMedium}}, nil
}

func (c *countingStore) Weights(_ context.Context, ids []int64) ([]models.WeightedAdvice, error) {
	c.weightCalls++
	return []models.WeightedAdvice{{
		Mapping: models.Mapping{SymptomID: ids[0], AdviceID: 7, Weight: 0.9},
		Advice:  models.AdviceEntry{ID: 7, Title: "Rest", Severity: models.SeverityLow},
	}}, nil
}

func (c *countingStore) Import(context.Context, *knowledge.Base, bool) (bool, error) {
	c.imported = true
	return true, nil
}

func (c *countingStore) Close() error { return nil }

func TestStore_readThrough(t *testing.T) {
	inner := &countingStore{}
	store := NewStore(inner, NewMemoryClient(), time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		got, err := store.AllSymptoms(ctx)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, models.SeverityMedium, got[0].Severity)
	}
	assert.Equal(t, 1, inner.symptomCalls)

	_, err := store.Weights(ctx, []int64{2, 1})
	require.NoError(t, err)
	rows, err := store.Weights(ctx, []int64{1, 2})
	require.NoError(t, err)
	assert.Equal(t, 1, inner.weightCalls, "id order should not affect the cache key")
	assert.Equal(t, 0.9, rows[0].Weight)
	assert.Equal(t, "Rest", rows[0].Advice.Title)
}

func TestStore_importInvalidates(t *testing.T) {
	inner := &countingStore{}
	client := NewMemoryClient()
	store := NewStore(inner, client, time.Minute)
	ctx := context.Background()

	_, err := store.AllSymptoms(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, client.Len())

	changed, err := store.Import(ctx, &knowledge.Base{}, false)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.True(t, inner.imported)
	assert.Equal(t, 0, client.Len())

	_, err = store.AllSymptoms(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, inner.symptomCalls)
}

func TestMemoryClient_expiry(t *testing.T) {
	c := NewMemoryClient()
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "a", []byte("1"), time.Millisecond))
	require.NoError(t, c.Set(ctx, "b", []byte("2"), 0))
	time.Sleep(5 * time.Millisecond)

	_, err := c.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrCacheMiss)
	v, err := c.Get(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, []byte("2"), v)
}

func TestKey(t *testing.T) {
	assert.Equal(t, "catalog:search:head", Key("catalog", "search", "head"))
	assert.Equal(t, "1,2,15", idKey([]int64{15, 2, 1}))
}
