package app

import (
	"context"
	"errors"
	"hash/fnv"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	redisv9 "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"docqa/internal/ai"
	"docqa/internal/cache"
	"docqa/internal/index"
	"docqa/internal/model"
	"docqa/internal/pkg/splitter"
	"docqa/internal/repository"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// Each pooled connection to :memory: opens its own database; pin the
	// pool to one connection so concurrent test goroutines share state.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.Student{},
		&model.Document{},
		&model.DocumentChunk{},
		&model.QueryHistory{},
		&model.AuditEvent{},
	))
	return db
}

type stubExtractor struct {
	text string
	err  error
}

func (s stubExtractor) Extract(string) (string, error) { return s.text, s.err }

type stubConnectivity struct{ err error }

func (s stubConnectivity) CheckConnectivity(context.Context) error { return s.err }

type stubAnswerer struct {
	answer string
	err    error
	chunks []string
}

func (s *stubAnswerer) Answer(_ context.Context, _ string, chunks []string) (string, error) {
	s.chunks = chunks
	return s.answer, s.err
}

type recordingPublisher struct{ events []model.AuditEvent }

func (p *recordingPublisher) Publish(_ context.Context, event model.AuditEvent) error {
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) actions() []string {
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Action
	}
	return out
}

// fakeEmbedder derives a deterministic three-dimensional vector from the
// text hash, enough for the index manager to build and search for real.
type fakeEmbedder struct{}

func (fakeEmbedder) EmbeddingModel() string { return "fake-embedding" }

func (fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	return hashVector(text), nil
}

func (f fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = hashVector(text)
	}
	return out, nil
}

func hashVector(text string) []float32 {
	h := fnv.New32a()
	h.Write([]byte(text))
	v := h.Sum32()
	return []float32{float32(v%97) / 97, float32(v%89) / 89, 1}
}

type fixture struct {
	db        *gorm.DB
	docRepo   *repository.DocumentRepository
	chunkRepo *repository.ChunkRepository
	histRepo  *repository.HistoryRepository
	index     *index.Manager
	publisher *recordingPublisher
	uploadDir string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTestDB(t)
	return &fixture{
		db:        db,
		docRepo:   repository.NewDocumentRepository(db),
		chunkRepo: repository.NewChunkRepository(db),
		histRepo:  repository.NewHistoryRepository(db),
		index:     index.NewManager(filepath.Join(t.TempDir(), "indexes"), fakeEmbedder{}),
		publisher: &recordingPublisher{},
		uploadDir: t.TempDir(),
	}
}

func (f *fixture) ingest(extractor TextExtractor, connectivity ConnectivityChecker) *IngestService {
	return NewIngestService(
		f.docRepo, f.chunkRepo,
		extractor, splitter.New(100, 10),
		f.index, connectivity, f.publisher,
		f.uploadDir, 10*1024*1024,
	)
}

func (f *fixture) query(answerer AnswerProvider, cache HistoryStore) *QueryService {
	return NewQueryService(
		f.docRepo, f.histRepo,
		fakeEmbedder{}, f.index, answerer,
		stubConnectivity{}, cache, f.publisher, 4,
	)
}

func upload(t *testing.T, svc *IngestService, userID uint, name string) *model.Document {
	t.Helper()
	body := "%PDF-1.4 stand-in"
	doc, err := svc.Upload(context.Background(), UploadInput{
		UserID:   userID,
		FileName: name,
		Size:     int64(len(body)),
		Reader:   strings.NewReader(body),
	})
	require.NoError(t, err)
	return doc
}

func TestUploadProcessesDocument(t *testing.T) {
	f := newFixture(t)
	svc := f.ingest(stubExtractor{text: "alpha section one\n\nbeta section two"}, stubConnectivity{})

	doc := upload(t, svc, 1, "notes.pdf")
	require.True(t, doc.Processed)
	require.Equal(t, "notes.pdf", doc.FileName)

	list, err := svc.List(1)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.True(t, list[0].Processed)

	texts, err := f.chunkRepo.ListTextsByUserID(1)
	require.NoError(t, err)
	require.NotEmpty(t, texts)
	require.True(t, f.index.Exists(1))

	require.Contains(t, f.publisher.actions(), model.AuditDocumentProcessed)
	require.Contains(t, f.publisher.actions(), model.AuditIndexRebuilt)
}

func TestUploadPreconditions(t *testing.T) {
	f := newFixture(t)
	svc := f.ingest(stubExtractor{text: "text"}, stubConnectivity{})
	ctx := context.Background()

	_, err := svc.Upload(ctx, UploadInput{UserID: 1})
	require.ErrorIs(t, err, ErrNoFile)

	_, err = svc.Upload(ctx, UploadInput{UserID: 1, FileName: "resume.docx", Size: 10, Reader: strings.NewReader("x")})
	require.ErrorIs(t, err, ErrNotPDF)

	_, err = svc.Upload(ctx, UploadInput{UserID: 1, FileName: "big.pdf", Size: 11 * 1024 * 1024, Reader: strings.NewReader("x")})
	require.ErrorIs(t, err, ErrFileTooLarge)

	offline := f.ingest(stubExtractor{text: "text"}, stubConnectivity{err: ai.ErrUnreachable})
	_, err = offline.Upload(ctx, UploadInput{UserID: 1, FileName: "a.pdf", Size: 10, Reader: strings.NewReader("x")})
	require.ErrorIs(t, err, ai.ErrUnreachable)
}

func TestUploadRollsBackOnExtractionFailure(t *testing.T) {
	f := newFixture(t)
	boom := errors.New("extraction exploded")
	svc := f.ingest(stubExtractor{err: boom}, stubConnectivity{})

	_, err := svc.Upload(context.Background(), UploadInput{
		UserID: 1, FileName: "broken.pdf", Size: 10, Reader: strings.NewReader("0123456789"),
	})
	require.ErrorIs(t, err, boom)

	count, err := f.docRepo.CountByUserID(1)
	require.NoError(t, err)
	require.Zero(t, count)

	chunks, err := f.chunkRepo.CountByUserID(1)
	require.NoError(t, err)
	require.Zero(t, chunks)

	require.False(t, f.index.Exists(1))

	matches, err := filepath.Glob(filepath.Join(f.uploadDir, "*.pdf"))
	require.NoError(t, err)
	require.Empty(t, matches)
}

func TestDeleteDocument(t *testing.T) {
	f := newFixture(t)
	svc := f.ingest(stubExtractor{text: "some indexed content"}, stubConnectivity{})
	ctx := context.Background()

	first := upload(t, svc, 1, "first.pdf")
	second := upload(t, svc, 1, "second.pdf")

	require.ErrorIs(t, svc.Delete(ctx, 1, 9999), ErrDocumentNotFound)
	require.ErrorIs(t, svc.Delete(ctx, 2, first.ID), ErrDocumentNotFound)

	require.NoError(t, svc.Delete(ctx, 1, first.ID))
	require.True(t, f.index.Exists(1))

	require.NoError(t, svc.Delete(ctx, 1, second.ID))
	require.False(t, f.index.Exists(1))
	require.Contains(t, f.publisher.actions(), model.AuditIndexDestroyed)

	count, err := f.docRepo.CountByUserID(1)
	require.NoError(t, err)
	require.Zero(t, count)
}

// sequenceExtractor returns a different text per extraction so concurrent
// uploads produce distinguishable chunks.
type sequenceExtractor struct {
	mu    sync.Mutex
	texts []string
	next  int
}

func (s *sequenceExtractor) Extract(string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	text := s.texts[s.next%len(s.texts)]
	s.next++
	return text, nil
}

// gatedIndex parks the first Rebuild until released, letting a test hold
// one ingestion inside its index refresh while another runs.
type gatedIndex struct {
	inner   VectorIndex
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (g *gatedIndex) Rebuild(ctx context.Context, userID uint, texts []string) error {
	g.once.Do(func() {
		close(g.entered)
		<-g.release
	})
	return g.inner.Rebuild(ctx, userID, texts)
}

func (g *gatedIndex) Search(ctx context.Context, userID uint, vector []float32, k int) ([]string, error) {
	return g.inner.Search(ctx, userID, vector, k)
}

func (g *gatedIndex) Destroy(userID uint) error { return g.inner.Destroy(userID) }

func (g *gatedIndex) Exists(userID uint) bool { return g.inner.Exists(userID) }

func TestConcurrentUploadsIndexAllChunks(t *testing.T) {
	f := newFixture(t)
	extractor := &sequenceExtractor{texts: []string{"alpha only contents", "bravo only contents"}}
	gate := &gatedIndex{
		inner:   f.index,
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	svc := NewIngestService(
		f.docRepo, f.chunkRepo,
		extractor, splitter.New(100, 10),
		gate, stubConnectivity{}, f.publisher,
		f.uploadDir, 10*1024*1024,
	)

	run := func(name string, done chan<- error) {
		body := "%PDF-1.4 stand-in"
		_, err := svc.Upload(context.Background(), UploadInput{
			UserID:   1,
			FileName: name,
			Size:     int64(len(body)),
			Reader:   strings.NewReader(body),
		})
		done <- err
	}

	done := make(chan error, 2)
	go run("a.pdf", done)
	<-gate.entered

	go run("b.pdf", done)
	time.Sleep(50 * time.Millisecond)
	close(gate.release)

	require.NoError(t, <-done)
	require.NoError(t, <-done)

	texts, err := f.chunkRepo.ListTextsByUserID(1)
	require.NoError(t, err)
	require.Len(t, texts, 2)

	// Both uploads succeeded, so the surviving index must cover both
	// documents' chunks, whichever rebuild ran last.
	results, err := f.index.Search(context.Background(), 1, hashVector("alpha only contents"), 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	joined := strings.Join(results, "\n")
	require.Contains(t, joined, "alpha only contents")
	require.Contains(t, joined, "bravo only contents")
}

func TestAskValidations(t *testing.T) {
	f := newFixture(t)
	svc := f.query(&stubAnswerer{answer: "ok"}, nil)
	ctx := context.Background()

	_, err := svc.Ask(ctx, 1, "   ")
	require.ErrorIs(t, err, ErrEmptyQuestion)

	_, err = svc.Ask(ctx, 1, "anything uploaded yet?")
	require.ErrorIs(t, err, ErrNoProcessedDocuments)
}

func TestAskAnswersAndRecordsHistory(t *testing.T) {
	f := newFixture(t)
	ingest := f.ingest(stubExtractor{text: "the deadline is friday"}, stubConnectivity{})
	upload(t, ingest, 1, "plan.pdf")

	answerer := &stubAnswerer{answer: "The deadline is Friday."}
	svc := f.query(answerer, nil)

	result, err := svc.Ask(context.Background(), 1, "when is the deadline?")
	require.NoError(t, err)
	require.Equal(t, "when is the deadline?", result.Question)
	require.Equal(t, "The deadline is Friday.", result.Answer)
	require.NotEmpty(t, answerer.chunks)

	entries, err := svc.History(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "when is the deadline?", entries[0].Question)

	require.Contains(t, f.publisher.actions(), model.AuditQuestionAnswered)
}

func TestAskAuditDetailTruncatesOnRunes(t *testing.T) {
	f := newFixture(t)
	ingest := f.ingest(stubExtractor{text: "content"}, stubConnectivity{})
	upload(t, ingest, 1, "doc.pdf")

	svc := f.query(&stubAnswerer{answer: "ok"}, nil)
	question := strings.Repeat("é", 300)
	_, err := svc.Ask(context.Background(), 1, question)
	require.NoError(t, err)

	var detail string
	for _, event := range f.publisher.events {
		if event.Action == model.AuditQuestionAnswered {
			detail = event.Detail
		}
	}
	require.NotEmpty(t, detail)
	require.True(t, utf8.ValidString(detail))
	require.Equal(t, 200, utf8.RuneCountInString(detail))
}

func TestAskFailureWritesNoHistory(t *testing.T) {
	f := newFixture(t)
	ingest := f.ingest(stubExtractor{text: "content"}, stubConnectivity{})
	upload(t, ingest, 1, "doc.pdf")

	boom := errors.New("model unavailable")
	svc := f.query(&stubAnswerer{err: boom}, nil)

	_, err := svc.Ask(context.Background(), 1, "question?")
	require.ErrorIs(t, err, boom)

	count, err := f.histRepo.CountByUserID(1)
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestHistoryServedFromCache(t *testing.T) {
	f := newFixture(t)
	mr := miniredis.RunT(t)
	client := redisv9.NewClient(&redisv9.Options{Addr: mr.Addr()})
	histCache := cache.NewHistoryCache(client, time.Minute)

	require.NoError(t, f.histRepo.Create(&model.QueryHistory{UserID: 1, Question: "q1", Answer: "a1"}))

	svc := f.query(&stubAnswerer{answer: "x"}, histCache)
	ctx := context.Background()

	first, err := svc.History(ctx, 1)
	require.NoError(t, err)
	require.Len(t, first, 1)

	// A row written behind the cache's back stays invisible until the
	// cache is invalidated.
	require.NoError(t, f.histRepo.Create(&model.QueryHistory{UserID: 1, Question: "q2", Answer: "a2"}))
	cached, err := svc.History(ctx, 1)
	require.NoError(t, err)
	require.Len(t, cached, 1)

	require.NoError(t, histCache.Invalidate(ctx, 1))
	fresh, err := svc.History(ctx, 1)
	require.NoError(t, err)
	require.Len(t, fresh, 2)
}
