package index

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEmbedder maps known texts to fixed vectors so similarity ordering is
// deterministic.
type fakeEmbedder struct {
	vectors map[string][]float32
}

func (f *fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, ok := f.vectors[t]
		if !ok {
			v = []float32{0, 0, 1}
		}
		out[i] = v
	}
	return out, nil
}

func (f *fakeEmbedder) EmbeddingModel() string { return "fake-embedding" }

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	emb := &fakeEmbedder{vectors: map[string][]float32{
		"paris":  {1, 0, 0},
		"berlin": {0.9, 0.1, 0},
		"tokyo":  {0, 1, 0},
		"other":  {0, 0, 1},
	}}
	return NewManager(t.TempDir(), emb)
}

func TestRebuildAndSearchOrdering(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, m.Rebuild(ctx, 1, []string{"tokyo", "berlin", "paris"}))

	got, err := m.Search(ctx, 1, []float32{1, 0, 0}, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"paris", "berlin"}, got)
}

func TestRebuildEmptyCorpus(t *testing.T) {
	m := newTestManager(t)
	assert.ErrorIs(t, m.Rebuild(context.Background(), 1, nil), ErrEmptyCorpus)
}

func TestSearchWithoutIndex(t *testing.T) {
	m := newTestManager(t)
	_, err := m.Search(context.Background(), 1, []float32{1, 0, 0}, 3)
	assert.ErrorIs(t, err, ErrIndexMissing)
}

func TestRebuildReplacesPriorEntries(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, m.Rebuild(ctx, 1, []string{"paris", "berlin"}))
	require.NoError(t, m.Rebuild(ctx, 1, []string{"tokyo"}))

	got, err := m.Search(ctx, 1, []float32{1, 0, 0}, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"tokyo"}, got, "stale entries survived the rebuild")
}

func TestSearchScopedPerUser(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, m.Rebuild(ctx, 1, []string{"paris"}))
	require.NoError(t, m.Rebuild(ctx, 2, []string{"tokyo"}))

	got, err := m.Search(ctx, 2, []float32{1, 0, 0}, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"tokyo"}, got, "user 2 saw user 1's chunks")

	got, err = m.Search(ctx, 1, []float32{1, 0, 0}, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"paris"}, got)
}

func TestDestroy(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, m.Rebuild(ctx, 1, []string{"paris"}))
	require.True(t, m.Exists(1))

	require.NoError(t, m.Destroy(1))
	assert.False(t, m.Exists(1))

	_, err := m.Search(ctx, 1, []float32{1, 0, 0}, 1)
	assert.ErrorIs(t, err, ErrIndexMissing)

	assert.NoError(t, m.Destroy(1), "destroying an absent index should be idempotent")
}

func TestSearchDimensionMismatch(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, m.Rebuild(ctx, 1, []string{"paris"}))
	_, err := m.Search(ctx, 1, []float32{1, 0}, 1)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrIndexMissing)
}

func TestSearchDefaultTopK(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, m.Rebuild(ctx, 1, []string{"paris", "berlin", "tokyo", "other", "paris", "berlin"}))
	got, err := m.Search(ctx, 1, []float32{1, 0, 0}, 0)
	require.NoError(t, err)
	assert.Len(t, got, defaultTopK)
}

func TestConcurrentRebuildsAndSearches(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	require.NoError(t, m.Rebuild(ctx, 1, []string{"paris"}))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = m.Rebuild(ctx, 1, []string{"paris", "berlin"})
		}()
		go func() {
			defer wg.Done()
			got, err := m.Search(ctx, 1, []float32{1, 0, 0}, 1)
			if err == nil {
				assert.Equal(t, "paris", got[0])
			}
		}()
	}
	wg.Wait()
}
