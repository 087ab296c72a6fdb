package model

import "time"

// Document is an uploaded PDF. Processed flips to true only after the whole
// ingestion pipeline (extract, chunk, persist, index) has succeeded; a
// failed upload leaves no Document row behind.
type Document struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"not null;index" json:"user_id"`
	FileName   string    `gorm:"size:256;not null" json:"file_name"`
	FilePath   string    `gorm:"size:512;not null" json:"file_path"`
	UploadedAt time.Time `gorm:"autoCreateTime" json:"uploaded_at"`
	Processed  bool      `gorm:"default:false" json:"processed"`
}
