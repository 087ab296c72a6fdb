package model

import "time"

// Audit actions published by the ingestion and query pipelines.
const (
	AuditDocumentProcessed = "document.processed"
	AuditDocumentDeleted   = "document.deleted"
	AuditIndexRebuilt      = "index.rebuilt"
	AuditIndexDestroyed    = "index.destroyed"
	AuditQuestionAnswered  = "question.answered"
)

// AuditEvent is a pipeline event persisted asynchronously by the audit
// worker. Best-effort: losing one never fails a request.
type AuditEvent struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"not null;index" json:"user_id"`
	DocumentID uint      `gorm:"index" json:"document_id"` // 0 when not document-scoped
	Action     string    `gorm:"size:64;not null;index" json:"action"`
	Detail     string    `gorm:"size:512" json:"detail"`
	CreatedAt  time.Time `json:"created_at"`
}
