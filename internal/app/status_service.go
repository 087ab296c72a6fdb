package app

import (
	"docqa/internal/model"
	"docqa/internal/repository"
)

// KeyedClient reports whether a model API key is configured.
type KeyedClient interface {
	HasAPIKey() bool
}

// StatusService assembles the per-user pipeline diagnostics served by the
// debug endpoint.
type StatusService struct {
	docRepo     *repository.DocumentRepository
	chunkRepo   *repository.ChunkRepository
	historyRepo *repository.HistoryRepository
	auditRepo   *repository.AuditRepository
	index       VectorIndex
	client      KeyedClient
}

func NewStatusService(
	docRepo *repository.DocumentRepository,
	chunkRepo *repository.ChunkRepository,
	historyRepo *repository.HistoryRepository,
	auditRepo *repository.AuditRepository,
	index VectorIndex,
	client KeyedClient,
) *StatusService {
	return &StatusService{
		docRepo:     docRepo,
		chunkRepo:   chunkRepo,
		historyRepo: historyRepo,
		auditRepo:   auditRepo,
		index:       index,
		client:      client,
	}
}

type Status struct {
	HasAPIKey          bool               `json:"has_api_key"`
	IndexExists        bool               `json:"index_exists"`
	TotalDocuments     int64              `json:"total_documents"`
	ProcessedDocuments int64              `json:"processed_documents"`
	DocumentChunks     int64              `json:"document_chunks"`
	HistoryEntries     int64              `json:"history_entries"`
	RecentEvents       []model.AuditEvent `json:"recent_events"`
}

func (s *StatusService) Status(userID uint) (*Status, error) {
	total, err := s.docRepo.CountByUserID(userID)
	if err != nil {
		return nil, err
	}
	processed, err := s.docRepo.CountProcessedByUserID(userID)
	if err != nil {
		return nil, err
	}
	chunks, err := s.chunkRepo.CountByUserID(userID)
	if err != nil {
		return nil, err
	}
	history, err := s.historyRepo.CountByUserID(userID)
	if err != nil {
		return nil, err
	}
	events, err := s.auditRepo.ListRecentByUserID(userID, 20)
	if err != nil {
		return nil, err
	}

	return &Status{
		HasAPIKey:          s.client.HasAPIKey(),
		IndexExists:        s.index.Exists(userID),
		TotalDocuments:     total,
		ProcessedDocuments: processed,
		DocumentChunks:     chunks,
		HistoryEntries:     history,
		RecentEvents:       events,
	}, nil
}
