package app

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"docqa/internal/model"
	"docqa/internal/pkg/textutil"
	"docqa/internal/repository"
)

// TextExtractor pulls plain text from a stored PDF file.
type TextExtractor interface {
	Extract(path string) (string, error)
}

// Chunker splits extracted text into overlapping chunks.
type Chunker interface {
	Split(text string) ([]string, error)
}

// VectorIndex is the per-user retrieval index the pipelines maintain.
type VectorIndex interface {
	Rebuild(ctx context.Context, userID uint, texts []string) error
	Search(ctx context.Context, userID uint, vector []float32, k int) ([]string, error)
	Destroy(userID uint) error
	Exists(userID uint) bool
}

// ConnectivityChecker probes whether the model endpoint is reachable.
type ConnectivityChecker interface {
	CheckConnectivity(ctx context.Context) error
}

// AuditPublisher fans pipeline events out to the audit queue. Best-effort:
// publish failures are logged, never returned.
type AuditPublisher interface {
	Publish(ctx context.Context, event model.AuditEvent) error
}

// IngestService runs the document pipeline: store the upload, extract and
// chunk its text, persist the chunks and rebuild the owner's index. A
// failure at any stage rolls the whole upload back.
type IngestService struct {
	docRepo      *repository.DocumentRepository
	chunkRepo    *repository.ChunkRepository
	extractor    TextExtractor
	chunker      Chunker
	index        VectorIndex
	connectivity ConnectivityChecker
	publisher    AuditPublisher

	uploadDir      string
	maxUploadBytes int64

	mu        sync.Mutex
	userLocks map[uint]*sync.Mutex
}

func NewIngestService(
	docRepo *repository.DocumentRepository,
	chunkRepo *repository.ChunkRepository,
	extractor TextExtractor,
	chunker Chunker,
	index VectorIndex,
	connectivity ConnectivityChecker,
	publisher AuditPublisher,
	uploadDir string,
	maxUploadBytes int64,
) *IngestService {
	return &IngestService{
		docRepo:        docRepo,
		chunkRepo:      chunkRepo,
		extractor:      extractor,
		chunker:        chunker,
		index:          index,
		connectivity:   connectivity,
		publisher:      publisher,
		uploadDir:      uploadDir,
		maxUploadBytes: maxUploadBytes,
		userLocks:      make(map[uint]*sync.Mutex),
	}
}

type UploadInput struct {
	UserID   uint
	FileName string
	Size     int64
	Reader   io.Reader
}

func (s *IngestService) Upload(ctx context.Context, input UploadInput) (*model.Document, error) {
	if input.UserID == 0 {
		return nil, ErrInvalidInput
	}
	if input.Reader == nil || strings.TrimSpace(input.FileName) == "" {
		return nil, ErrNoFile
	}
	if !strings.EqualFold(filepath.Ext(input.FileName), ".pdf") {
		return nil, ErrNotPDF
	}
	if input.Size > s.maxUploadBytes {
		return nil, ErrFileTooLarge
	}
	if err := s.connectivity.CheckConnectivity(ctx); err != nil {
		return nil, err
	}

	path, err := s.storeFile(input)
	if err != nil {
		return nil, err
	}

	doc := &model.Document{
		UserID:   input.UserID,
		FileName: filepath.Base(input.FileName),
		FilePath: path,
	}
	if err := s.docRepo.Create(doc); err != nil {
		_ = os.Remove(path)
		return nil, err
	}

	if err := s.process(ctx, doc); err != nil {
		s.rollback(doc)
		return nil, err
	}

	doc.Processed = true
	return doc, nil
}

func (s *IngestService) process(ctx context.Context, doc *model.Document) error {
	raw, err := s.extractor.Extract(doc.FilePath)
	if err != nil {
		return err
	}

	chunks, err := s.chunker.Split(textutil.Sanitize(raw))
	if err != nil {
		return err
	}

	rows := make([]model.DocumentChunk, len(chunks))
	for i, chunk := range chunks {
		rows[i] = model.DocumentChunk{
			DocumentID: doc.ID,
			ChunkText:  textutil.Sanitize(chunk),
			ChunkIndex: i,
		}
	}
	if err := s.chunkRepo.CreateBatch(rows); err != nil {
		return err
	}

	total, err := s.refreshIndex(ctx, doc.UserID)
	if err != nil {
		return err
	}

	if err := s.docRepo.MarkProcessed(doc.ID); err != nil {
		return err
	}

	s.audit(ctx, doc.UserID, doc.ID, model.AuditDocumentProcessed, fmt.Sprintf("%s split into %d chunks", doc.FileName, len(rows)))
	s.audit(ctx, doc.UserID, 0, model.AuditIndexRebuilt, fmt.Sprintf("%d chunks indexed", total))
	return nil
}

// refreshIndex reassembles the user's corpus and rebuilds (or, when empty,
// destroys) their index. The per-user lock covers the snapshot and the
// rebuild together: a concurrent ingest or delete cannot overwrite the
// index with a corpus read before its own chunks landed. Returns the
// indexed chunk count, zero when the index was destroyed.
func (s *IngestService) refreshIndex(ctx context.Context, userID uint) (int, error) {
	lock := s.lockFor(userID)
	lock.Lock()
	defer lock.Unlock()

	texts, err := s.chunkRepo.ListTextsByUserID(userID)
	if err != nil {
		return 0, err
	}
	if len(texts) == 0 {
		if err := s.index.Destroy(userID); err != nil {
			return 0, err
		}
		return 0, nil
	}
	if err := s.index.Rebuild(ctx, userID, texts); err != nil {
		return 0, err
	}
	return len(texts), nil
}

func (s *IngestService) lockFor(userID uint) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.userLocks[userID]
	if !ok {
		lock = &sync.Mutex{}
		s.userLocks[userID] = lock
	}
	return lock
}

// Delete removes the document, its chunks and its stored file, then brings
// the owner's index back in line with what remains.
func (s *IngestService) Delete(ctx context.Context, userID, documentID uint) error {
	doc, err := s.docRepo.GetByIDAndUserID(documentID, userID)
	if err != nil {
		return err
	}
	if doc == nil {
		return ErrDocumentNotFound
	}

	if err := s.chunkRepo.DeleteByDocumentID(doc.ID); err != nil {
		return err
	}
	if err := s.docRepo.Delete(doc.ID); err != nil {
		return err
	}
	if err := os.Remove(doc.FilePath); err != nil && !os.IsNotExist(err) {
		log.Printf("remove stored file %s failed: %v", doc.FilePath, err)
	}

	total, err := s.refreshIndex(ctx, userID)
	if err != nil {
		return err
	}
	if total == 0 {
		s.audit(ctx, userID, 0, model.AuditIndexDestroyed, "last document removed")
	} else {
		s.audit(ctx, userID, 0, model.AuditIndexRebuilt, fmt.Sprintf("%d chunks indexed", total))
	}

	s.audit(ctx, userID, doc.ID, model.AuditDocumentDeleted, doc.FileName)
	return nil
}

func (s *IngestService) List(userID uint) ([]model.Document, error) {
	return s.docRepo.ListByUserID(userID)
}

func (s *IngestService) storeFile(input UploadInput) (string, error) {
	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir failed: %w", err)
	}

	path := filepath.Join(s.uploadDir, uuid.NewString()+".pdf")
	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create upload file failed: %w", err)
	}

	// The declared size is checked above; limit the copy too in case the
	// stream is longer than declared.
	written, err := io.Copy(dst, io.LimitReader(input.Reader, s.maxUploadBytes+1))
	if closeErr := dst.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("store upload failed: %w", err)
	}
	if written > s.maxUploadBytes {
		_ = os.Remove(path)
		return "", ErrFileTooLarge
	}
	return path, nil
}

// rollback undoes a failed upload: chunks, document row, stored file. The
// index was either not touched or already rebuilt before the failure.
func (s *IngestService) rollback(doc *model.Document) {
	if err := s.chunkRepo.DeleteByDocumentID(doc.ID); err != nil {
		log.Printf("rollback chunks for document %d failed: %v", doc.ID, err)
	}
	if err := s.docRepo.Delete(doc.ID); err != nil {
		log.Printf("rollback document %d failed: %v", doc.ID, err)
	}
	if err := os.Remove(doc.FilePath); err != nil && !os.IsNotExist(err) {
		log.Printf("rollback stored file %s failed: %v", doc.FilePath, err)
	}
}

func (s *IngestService) audit(ctx context.Context, userID, documentID uint, action, detail string) {
	if s.publisher == nil {
		return
	}
	event := model.AuditEvent{
		UserID:     userID,
		DocumentID: documentID,
		Action:     action,
		Detail:     detail,
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		log.Printf("publish audit event %s failed: %v", action, err)
	}
}
