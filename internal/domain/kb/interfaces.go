package kb

import (
	"context"
	"io"

	"github.com/google/uuid"
)

// ObjectStorage abstracts blob storage (S3/R2/minio/local).
type ObjectStorage interface {
	Put(ctx context.Context, key string, data []byte, mimeType string) (StoredObject, error)
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// Embedder produces embeddings for free form text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Chunker splits extracted text into candidate pieces.
type Chunker interface {
	Chunk(text string) []ChunkCandidate
}

// DocumentRepository persists document metadata.
type DocumentRepository interface {
	Create(ctx context.Context, doc Document) error
	Update(ctx context.Context, doc Document) error
	Get(ctx context.Context, docID uuid.UUID) (Document, bool, error)
	List(ctx context.Context) ([]Document, error)
	Delete(ctx context.Context, docID uuid.UUID) error
}

// FileObjectRepository persists uploaded file metadata.
type FileObjectRepository interface {
	Create(ctx context.Context, file FileObject) error
	FindByDocument(ctx context.Context, docID uuid.UUID) (FileObject, bool, error)
	DeleteByDocument(ctx context.Context, docID uuid.UUID) error
}

// ChunkRepository stores embedded chunks and serves retrieval.
type ChunkRepository interface {
	InsertBatch(ctx context.Context, chunks []Chunk) error
	DeleteByDocument(ctx context.Context, docID uuid.UUID) error
	SearchSimilar(ctx context.Context, embedding []float32, limit int) ([]RetrievedChunk, error)
	SearchLexical(ctx context.Context, terms []string, limit int) ([]RetrievedChunk, error)
}

// JobQueue hands documents to the background processor.
type JobQueue interface {
	Enqueue(ctx context.Context, name string, payload any) error
}
