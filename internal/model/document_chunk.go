package model

// DocumentChunk is one sanitized slice of a document's extracted text,
// immutable once created. ChunkIndex is zero-based within the document.
// Embeddings are not stored here; they live in the owner's index file,
// which is derived state rebuilt from these rows.
type DocumentChunk struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	DocumentID uint   `gorm:"not null;index" json:"document_id"`
	ChunkText  string `gorm:"type:text;not null" json:"chunk_text"`
	ChunkIndex int    `gorm:"not null" json:"chunk_index"`
}
