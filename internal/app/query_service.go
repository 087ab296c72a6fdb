package app

import (
	"context"
	"log"
	"strings"

	"docqa/internal/model"
	"docqa/internal/pkg/textutil"
	"docqa/internal/repository"
)

// QuestionEmbedder embeds a single question with the same model the index
// was built with.
type QuestionEmbedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// AnswerProvider produces an answer grounded in the retrieved chunks.
type AnswerProvider interface {
	Answer(ctx context.Context, question string, chunks []string) (string, error)
}

// HistoryStore caches a user's history listing between writes.
type HistoryStore interface {
	Get(ctx context.Context, userID uint) ([]model.QueryHistory, bool, error)
	Set(ctx context.Context, userID uint, entries []model.QueryHistory) error
	Invalidate(ctx context.Context, userID uint) error
}

// QueryService answers questions against the caller's indexed documents and
// records every answered question in the history.
type QueryService struct {
	docRepo      *repository.DocumentRepository
	historyRepo  *repository.HistoryRepository
	embedder     QuestionEmbedder
	index        VectorIndex
	answerer     AnswerProvider
	connectivity ConnectivityChecker
	cache        HistoryStore
	publisher    AuditPublisher
	topK         int
}

func NewQueryService(
	docRepo *repository.DocumentRepository,
	historyRepo *repository.HistoryRepository,
	embedder QuestionEmbedder,
	index VectorIndex,
	answerer AnswerProvider,
	connectivity ConnectivityChecker,
	cache HistoryStore,
	publisher AuditPublisher,
	topK int,
) *QueryService {
	return &QueryService{
		docRepo:      docRepo,
		historyRepo:  historyRepo,
		embedder:     embedder,
		index:        index,
		answerer:     answerer,
		connectivity: connectivity,
		cache:        cache,
		publisher:    publisher,
		topK:         topK,
	}
}

type AskResult struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Ask runs the retrieval pipeline: embed the question, fetch the nearest
// chunks, generate an answer, then record it. The history row is written
// before returning so a successful response is always visible in /history/.
func (s *QueryService) Ask(ctx context.Context, userID uint, question string) (*AskResult, error) {
	question = strings.TrimSpace(textutil.Sanitize(question))
	if question == "" {
		return nil, ErrEmptyQuestion
	}

	if err := s.connectivity.CheckConnectivity(ctx); err != nil {
		return nil, err
	}

	processed, err := s.docRepo.CountProcessedByUserID(userID)
	if err != nil {
		return nil, err
	}
	if processed == 0 {
		return nil, ErrNoProcessedDocuments
	}

	vector, err := s.embedder.Embed(ctx, question)
	if err != nil {
		return nil, err
	}

	chunks, err := s.index.Search(ctx, userID, vector, s.topK)
	if err != nil {
		return nil, err
	}

	answer, err := s.answerer.Answer(ctx, question, chunks)
	if err != nil {
		return nil, err
	}

	entry := model.QueryHistory{
		UserID:   userID,
		Question: question,
		Answer:   answer,
	}
	if err := s.historyRepo.Create(&entry); err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, userID); err != nil {
			log.Printf("invalidate history cache for user %d failed: %v", userID, err)
		}
	}
	s.audit(ctx, userID, question)

	return &AskResult{Question: question, Answer: answer}, nil
}

// History lists the user's answered questions, newest first.
func (s *QueryService) History(ctx context.Context, userID uint) ([]model.QueryHistory, error) {
	if s.cache != nil {
		entries, ok, err := s.cache.Get(ctx, userID)
		if err != nil {
			log.Printf("read history cache for user %d failed: %v", userID, err)
		} else if ok {
			return entries, nil
		}
	}

	entries, err := s.historyRepo.ListByUserID(userID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, userID, entries); err != nil {
			log.Printf("write history cache for user %d failed: %v", userID, err)
		}
	}
	return entries, nil
}

func (s *QueryService) audit(ctx context.Context, userID uint, question string) {
	if s.publisher == nil {
		return
	}
	detail := question
	if runes := []rune(detail); len(runes) > 200 {
		detail = string(runes[:200])
	}
	event := model.AuditEvent{
		UserID: userID,
		Action: model.AuditQuestionAnswered,
		Detail: detail,
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		log.Printf("publish audit event %s failed: %v", model.AuditQuestionAnswered, err)
	}
}
