package repo

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yanqian/campusbot/internal/domain/kb"
)

// MemoryDocumentRepository is a simple in-memory store for documents.
type MemoryDocumentRepository struct {
	mu   sync.RWMutex
	data map[uuid.UUID]kb.Document
}

// NewMemoryDocumentRepository constructs a document repository.
func NewMemoryDocumentRepository() *MemoryDocumentRepository {
	return &MemoryDocumentRepository{
		data: make(map[uuid.UUID]kb.Document),
	}
}

func (r *MemoryDocumentRepository) Create(_ context.Context, doc kb.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[doc.ID] = doc
	return nil
}

func (r *MemoryDocumentRepository) Update(_ context.Context, doc kb.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[doc.ID]; !ok {
		return nil
	}
	doc.UpdatedAt = time.Now()
	r.data[doc.ID] = doc
	return nil
}

func (r *MemoryDocumentRepository) Get(_ context.Context, docID uuid.UUID) (kb.Document, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.data[docID]
	if !ok {
		return kb.Document{}, false, nil
	}
	return doc, true, nil
}

func (r *MemoryDocumentRepository) List(_ context.Context) ([]kb.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]kb.Document, 0, len(r.data))
	for _, doc := range r.data {
		out = append(out, doc)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *MemoryDocumentRepository) Delete(_ context.Context, docID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.data, docID)
	return nil
}

var _ kb.DocumentRepository = (*MemoryDocumentRepository)(nil)

// MemoryFileRepository stores file metadata.
type MemoryFileRepository struct {
	mu    sync.RWMutex
	files map[uuid.UUID]kb.FileObject
}

// NewMemoryFileRepository constructs a file repository.
func NewMemoryFileRepository() *MemoryFileRepository {
	return &MemoryFileRepository{
		files: make(map[uuid.UUID]kb.FileObject),
	}
}

func (r *MemoryFileRepository) Create(_ context.Context, file kb.FileObject) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.files[file.DocumentID] = file
	return nil
}

func (r *MemoryFileRepository) FindByDocument(_ context.Context, docID uuid.UUID) (kb.FileObject, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	file, ok := r.files[docID]
	return file, ok, nil
}

func (r *MemoryFileRepository) DeleteByDocument(_ context.Context, docID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.files, docID)
	return nil
}

var _ kb.FileObjectRepository = (*MemoryFileRepository)(nil)

// MemoryChunkRepository stores embedded chunks for retrieval.
type MemoryChunkRepository struct {
	mu   sync.RWMutex
	data map[uuid.UUID][]kb.Chunk
	docs kb.DocumentRepository
}

// NewMemoryChunkRepository constructs a chunk repository.
func NewMemoryChunkRepository(docs kb.DocumentRepository) *MemoryChunkRepository {
	return &MemoryChunkRepository{
		data: make(map[uuid.UUID][]kb.Chunk),
		docs: docs,
	}
}

func (r *MemoryChunkRepository) InsertBatch(_ context.Context, chunks []kb.Chunk) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, chunk := range chunks {
		r.data[chunk.DocumentID] = append(r.data[chunk.DocumentID], chunk)
	}
	return nil
}

func (r *MemoryChunkRepository) DeleteByDocument(_ context.Context, docID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.data, docID)
	return nil
}

func (r *MemoryChunkRepository) SearchSimilar(ctx context.Context, embedding []float32, limit int) ([]kb.RetrievedChunk, error) {
	return r.search(ctx, limit, func(chunk kb.Chunk) float64 {
		return cosineSimilarity(embedding, chunk.Embedding)
	})
}

func (r *MemoryChunkRepository) SearchLexical(ctx context.Context, terms []string, limit int) ([]kb.RetrievedChunk, error) {
	if len(terms) == 0 {
		return nil, nil
	}
	return r.search(ctx, limit, func(chunk kb.Chunk) float64 {
		content := strings.ToLower(chunk.Content)
		hits := 0
		for _, term := range terms {
			if strings.Contains(content, term) {
				hits++
			}
		}
		return float64(hits) / float64(len(terms))
	})
}

func (r *MemoryChunkRepository) search(ctx context.Context, limit int, score func(kb.Chunk) float64) ([]kb.RetrievedChunk, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	results := make([]kb.RetrievedChunk, 0)
	for docID, chunks := range r.data {
		doc, found, err := r.docs.Get(ctx, docID)
		if err != nil || !found || doc.Status != kb.DocumentStatusProcessed {
			continue
		}
		for _, chunk := range chunks {
			s := score(chunk)
			if s <= 0 {
				continue
			}
			results = append(results, kb.RetrievedChunk{
				Chunk:    chunk,
				Document: doc,
				Score:    s,
			})
		}
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

var _ kb.ChunkRepository = (*MemoryChunkRepository)(nil)

func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}
	var dot float64
	var magA float64
	var magB float64
	for i := 0; i < len(a); i++ {
		dot += float64(a[i] * b[i])
		magA += float64(a[i] * a[i])
		magB += float64(b[i] * b[i])
	}
	den := math.Sqrt(magA) * math.Sqrt(magB)
	if den == 0 {
		return 0
	}
	return dot / den
}
