package kb

import (
	"time"

	"github.com/google/uuid"
)

// DocumentStatus tracks ingestion progress.
type DocumentStatus string

const (
	DocumentStatusPending    DocumentStatus = "pending"
	DocumentStatusProcessing DocumentStatus = "processing"
	DocumentStatusProcessed  DocumentStatus = "processed"
	DocumentStatusFailed     DocumentStatus = "failed"
)

// Document is one knowledge-base file managed by admins. The knowledge base
// is shared: every chatbot answer draws from the same corpus.
type Document struct {
	ID            uuid.UUID      `json:"id"`
	Title         string         `json:"title"`
	FileType      string         `json:"fileType"`
	Status        DocumentStatus `json:"status"`
	FailureReason *string        `json:"failureReason,omitempty"`
	SHA256        string         `json:"sha256"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

// FileObject stores uploaded blob metadata.
type FileObject struct {
	ID         uuid.UUID `json:"id"`
	DocumentID uuid.UUID `json:"documentId"`
	StorageKey string    `json:"storageKey"`
	SizeBytes  int64     `json:"sizeBytes"`
	MimeType   string    `json:"mimeType"`
	ETag       string    `json:"etag"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Chunk is an embedded slice of a document.
type Chunk struct {
	ID         uuid.UUID `json:"id"`
	DocumentID uuid.UUID `json:"documentId"`
	ChunkIndex int       `json:"chunkIndex"`
	Content    string    `json:"content"`
	TokenCount int       `json:"tokenCount"`
	Embedding  []float32 `json:"embedding"`
	CreatedAt  time.Time `json:"createdAt"`
}

// ChunkCandidate is produced by the chunker before embedding.
type ChunkCandidate struct {
	Index      int
	Content    string
	TokenCount int
}

// RetrievedChunk bundles a chunk with its retrieval score.
type RetrievedChunk struct {
	Chunk    Chunk    `json:"chunk"`
	Document Document `json:"document"`
	Score    float64  `json:"score"`
}

// StoredObject captures persisted blob metadata.
type StoredObject struct {
	Key      string
	Size     int64
	MimeType string
	ETag     string
}

// IngestProgress summarizes knowledge-base state for the admin console.
type IngestProgress struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	Processing int `json:"processing"`
	Processed  int `json:"processed"`
	Failed     int `json:"failed"`
}
