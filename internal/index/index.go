// Package index maintains one persisted nearest-neighbor index per user
// over the embeddings of that user's document chunks. Index files are
// derived state: any of them can be deleted and rebuilt from the chunk
// rows at any time.
package index

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

var (
	// ErrEmptyCorpus is returned when a rebuild is requested with no chunks.
	ErrEmptyCorpus = errors.New("no text chunks to index")
	// ErrIndexMissing is returned when a search targets a user with no
	// built index.
	ErrIndexMissing = errors.New("vector index not built yet")
)

const defaultTopK = 4

// Embedder turns texts into fixed-dimension vectors. The manager must be
// given the same embedder used for query embedding, otherwise search
// distances are meaningless.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	EmbeddingModel() string
}

type indexEntry struct {
	Text   string    `json:"text"`
	Vector []float32 `json:"vector"`
}

type indexFile struct {
	Model     string       `json:"model"`
	Dimension int          `json:"dimension"`
	Entries   []indexEntry `json:"entries"`
}

// Manager owns the index files under root, one per user. Rebuild and
// Destroy take an exclusive per-user lock; Search takes a shared one, so
// readers never observe a partially written index.
type Manager struct {
	root     string
	embedder Embedder

	mu    sync.Mutex
	locks map[uint]*sync.RWMutex
}

func NewManager(root string, embedder Embedder) *Manager {
	return &Manager{
		root:     root,
		embedder: embedder,
		locks:    make(map[uint]*sync.RWMutex),
	}
}

// Rebuild embeds every text and atomically replaces the user's index with a
// fresh one. The previous index, if any, stays readable until the swap.
func (m *Manager) Rebuild(ctx context.Context, userID uint, texts []string) error {
	if len(texts) == 0 {
		return ErrEmptyCorpus
	}

	vectors, err := m.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed corpus failed: %w", err)
	}
	if len(vectors) != len(texts) {
		return fmt.Errorf("embed corpus failed: got %d vectors for %d texts", len(vectors), len(texts))
	}

	file := indexFile{
		Model:     m.embedder.EmbeddingModel(),
		Dimension: len(vectors[0]),
		Entries:   make([]indexEntry, len(texts)),
	}
	for i := range texts {
		if len(vectors[i]) != file.Dimension {
			return fmt.Errorf("embed corpus failed: inconsistent dimension at entry %d", i)
		}
		file.Entries[i] = indexEntry{Text: texts[i], Vector: vectors[i]}
	}

	lock := m.lockFor(userID)
	lock.Lock()
	defer lock.Unlock()
	return m.write(userID, &file)
}

// Search returns the k chunk texts nearest to vector, nearest first.
func (m *Manager) Search(ctx context.Context, userID uint, vector []float32, k int) ([]string, error) {
	if k <= 0 {
		k = defaultTopK
	}

	lock := m.lockFor(userID)
	lock.RLock()
	defer lock.RUnlock()

	file, err := m.read(userID)
	if err != nil {
		return nil, err
	}
	if len(vector) != file.Dimension {
		return nil, fmt.Errorf("query vector dimension %d does not match index dimension %d", len(vector), file.Dimension)
	}

	type scored struct {
		text  string
		score float32
	}
	results := make([]scored, len(file.Entries))
	for i, entry := range file.Entries {
		results[i] = scored{text: entry.Text, score: cosineSimilarity(vector, entry.Vector)}
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].score > results[j].score
	})

	if k > len(results) {
		k = len(results)
	}
	texts := make([]string, k)
	for i := 0; i < k; i++ {
		texts[i] = results[i].text
	}
	return texts, nil
}

// Destroy removes the user's persisted index. Removing an index that was
// never built is not an error.
func (m *Manager) Destroy(userID uint) error {
	lock := m.lockFor(userID)
	lock.Lock()
	defer lock.Unlock()

	if err := os.Remove(m.path(userID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove index failed: %w", err)
	}
	return nil
}

// Exists reports whether the user currently has a built index.
func (m *Manager) Exists(userID uint) bool {
	lock := m.lockFor(userID)
	lock.RLock()
	defer lock.RUnlock()

	_, err := os.Stat(m.path(userID))
	return err == nil
}

func (m *Manager) lockFor(userID uint) *sync.RWMutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	lock, ok := m.locks[userID]
	if !ok {
		lock = &sync.RWMutex{}
		m.locks[userID] = lock
	}
	return lock
}

func (m *Manager) path(userID uint) string {
	return filepath.Join(m.root, fmt.Sprintf("user_%d.json", userID))
}

// write serializes the index to a temp file and renames it over the old
// one, so concurrent readers see either the old or the new index, never a
// partial file.
func (m *Manager) write(userID uint, file *indexFile) error {
	if err := os.MkdirAll(m.root, 0o755); err != nil {
		return fmt.Errorf("create index dir failed: %w", err)
	}

	tmp, err := os.CreateTemp(m.root, fmt.Sprintf("user_%d_*.tmp", userID))
	if err != nil {
		return fmt.Errorf("create temp index failed: %w", err)
	}
	tmpName := tmp.Name()

	if err := json.NewEncoder(tmp).Encode(file); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("encode index failed: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp index failed: %w", err)
	}
	if err := os.Rename(tmpName, m.path(userID)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("swap index failed: %w", err)
	}
	return nil
}

func (m *Manager) read(userID uint) (*indexFile, error) {
	raw, err := os.ReadFile(m.path(userID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrIndexMissing
		}
		return nil, fmt.Errorf("read index failed: %w", err)
	}
	var file indexFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("decode index failed: %w", err)
	}
	return &file, nil
}
