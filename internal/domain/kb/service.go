package kb

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/yanqian/campusbot/pkg/errors"
)

// JobProcessDocument is the queue job name for document ingestion.
const JobProcessDocument = "kb.process_document"

// Service manages the shared knowledge base: upload, ingestion, retrieval.
type Service interface {
	Upload(ctx context.Context, title, mimeType string, data []byte) (Document, error)
	Process(ctx context.Context, docID uuid.UUID) error
	List(ctx context.Context) ([]Document, error)
	Delete(ctx context.Context, docID uuid.UUID) error
	Reindex(ctx context.Context, force bool) (int, error)
	Progress(ctx context.Context) (IngestProgress, error)
	Retrieve(ctx context.Context, query string) ([]RetrievedChunk, error)
}

type service struct {
	cfg      Config
	docs     DocumentRepository
	files    FileObjectRepository
	chunks   ChunkRepository
	storage  ObjectStorage
	chunker  Chunker
	embedder Embedder
	queue    JobQueue
	logger   *slog.Logger
}

// NewService wires up the knowledge base domain.
func NewService(cfg Config, docs DocumentRepository, files FileObjectRepository, chunks ChunkRepository, storage ObjectStorage, chunker Chunker, embedder Embedder, queue JobQueue, logger *slog.Logger) Service {
	return &service{
		cfg:      cfg.Sanitize(),
		docs:     docs,
		files:    files,
		chunks:   chunks,
		storage:  storage,
		chunker:  chunker,
		embedder: embedder,
		queue:    queue,
		logger:   logger.With("component", "kb.service"),
	}
}

func (s *service) Upload(ctx context.Context, title, mimeType string, data []byte) (Document, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return Document{}, apperrors.Wrap("invalid_input", "title cannot be empty", nil)
	}
	if len(data) == 0 {
		return Document{}, apperrors.Wrap("invalid_input", "file is empty", nil)
	}
	if int64(len(data)) > s.cfg.MaxFileBytes {
		return Document{}, apperrors.Wrap("invalid_input", fmt.Sprintf("file exceeds %d bytes", s.cfg.MaxFileBytes), nil)
	}
	fileType, ok := fileTypeFor(title, mimeType)
	if !ok {
		return Document{}, apperrors.Wrap("invalid_input", "unsupported file type, expected txt, md, or csv", nil)
	}

	now := time.Now().UTC()
	doc := Document{
		ID:        uuid.New(),
		Title:     title,
		FileType:  fileType,
		Status:    DocumentStatusPending,
		SHA256:    hashBytes(data),
		CreatedAt: now,
		UpdatedAt: now,
	}

	key := fmt.Sprintf("kb/%s/%s", doc.ID, title)
	stored, err := s.storage.Put(ctx, key, data, mimeType)
	if err != nil {
		return Document{}, apperrors.Wrap("kb_error", "failed to store file", err)
	}
	if err := s.docs.Create(ctx, doc); err != nil {
		return Document{}, apperrors.Wrap("kb_error", "failed to create document", err)
	}
	file := FileObject{
		ID:         uuid.New(),
		DocumentID: doc.ID,
		StorageKey: stored.Key,
		SizeBytes:  stored.Size,
		MimeType:   stored.MimeType,
		ETag:       stored.ETag,
		CreatedAt:  now,
	}
	if err := s.files.Create(ctx, file); err != nil {
		return Document{}, apperrors.Wrap("kb_error", "failed to record file", err)
	}

	if err := s.queue.Enqueue(ctx, JobProcessDocument, map[string]any{"documentId": doc.ID.String()}); err != nil {
		s.logger.Error("enqueue processing failed", "document", doc.ID, "error", err)
		s.failDocument(ctx, doc, "failed to schedule processing")
		return doc, apperrors.Wrap("kb_error", "failed to schedule processing", err)
	}

	s.logger.Info("document uploaded", "document", doc.ID, "title", title, "bytes", len(data))
	return doc, nil
}

// Process extracts, chunks, and embeds one document, replacing any previous
// chunks for it.
func (s *service) Process(ctx context.Context, docID uuid.UUID) error {
	doc, found, err := s.docs.Get(ctx, docID)
	if err != nil {
		return apperrors.Wrap("kb_error", "failed to load document", err)
	}
	if !found {
		return apperrors.Wrap("not_found", "document not found", nil)
	}

	doc.Status = DocumentStatusProcessing
	doc.FailureReason = nil
	doc.UpdatedAt = time.Now().UTC()
	if err := s.docs.Update(ctx, doc); err != nil {
		return apperrors.Wrap("kb_error", "failed to update document", err)
	}

	file, found, err := s.files.FindByDocument(ctx, docID)
	if err != nil || !found {
		s.failDocument(ctx, doc, "file object missing")
		return apperrors.Wrap("kb_error", "file object missing", err)
	}
	reader, err := s.storage.Get(ctx, file.StorageKey)
	if err != nil {
		s.failDocument(ctx, doc, "file unreadable")
		return apperrors.Wrap("kb_error", "failed to read stored file", err)
	}
	data, err := io.ReadAll(reader)
	_ = reader.Close()
	if err != nil {
		s.failDocument(ctx, doc, "file unreadable")
		return apperrors.Wrap("kb_error", "failed to read stored file", err)
	}

	text, err := extractText(doc.FileType, data)
	if err != nil {
		s.failDocument(ctx, doc, err.Error())
		return apperrors.Wrap("kb_error", "failed to extract text", err)
	}

	candidates := s.chunker.Chunk(text)
	if len(candidates) == 0 {
		s.failDocument(ctx, doc, "no extractable content")
		return apperrors.Wrap("kb_error", "no extractable content", nil)
	}

	texts := make([]string, len(candidates))
	for i, c := range candidates {
		texts[i] = c.Content
	}
	vectors, err := s.embedder.Embed(ctx, texts)
	if err != nil || len(vectors) != len(candidates) {
		s.failDocument(ctx, doc, "embedding failed")
		return apperrors.Wrap("kb_error", "embedding failed", err)
	}

	now := time.Now().UTC()
	chunks := make([]Chunk, len(candidates))
	for i, c := range candidates {
		chunks[i] = Chunk{
			ID:         uuid.New(),
			DocumentID: docID,
			ChunkIndex: c.Index,
			Content:    c.Content,
			TokenCount: c.TokenCount,
			Embedding:  vectors[i],
			CreatedAt:  now,
		}
	}

	if err := s.chunks.DeleteByDocument(ctx, docID); err != nil {
		s.failDocument(ctx, doc, "failed to clear old chunks")
		return apperrors.Wrap("kb_error", "failed to clear old chunks", err)
	}
	if err := s.chunks.InsertBatch(ctx, chunks); err != nil {
		s.failDocument(ctx, doc, "failed to store chunks")
		return apperrors.Wrap("kb_error", "failed to store chunks", err)
	}

	doc.Status = DocumentStatusProcessed
	doc.SHA256 = hashBytes(data)
	doc.UpdatedAt = time.Now().UTC()
	if err := s.docs.Update(ctx, doc); err != nil {
		return apperrors.Wrap("kb_error", "failed to finalize document", err)
	}
	s.logger.Info("document processed", "document", docID, "chunks", len(chunks))
	return nil
}

func (s *service) List(ctx context.Context) ([]Document, error) {
	docs, err := s.docs.List(ctx)
	if err != nil {
		return nil, apperrors.Wrap("kb_error", "failed to list documents", err)
	}
	return docs, nil
}

func (s *service) Delete(ctx context.Context, docID uuid.UUID) error {
	doc, found, err := s.docs.Get(ctx, docID)
	if err != nil {
		return apperrors.Wrap("kb_error", "failed to load document", err)
	}
	if !found {
		return apperrors.Wrap("not_found", "document not found", nil)
	}
	if file, ok, _ := s.files.FindByDocument(ctx, docID); ok {
		if err := s.storage.Delete(ctx, file.StorageKey); err != nil {
			s.logger.Warn("blob delete failed", "document", docID, "error", err)
		}
	}
	if err := s.chunks.DeleteByDocument(ctx, docID); err != nil {
		return apperrors.Wrap("kb_error", "failed to delete chunks", err)
	}
	if err := s.files.DeleteByDocument(ctx, docID); err != nil {
		return apperrors.Wrap("kb_error", "failed to delete file record", err)
	}
	if err := s.docs.Delete(ctx, docID); err != nil {
		return apperrors.Wrap("kb_error", "failed to delete document", err)
	}
	s.logger.Info("document deleted", "document", doc.ID, "title", doc.Title)
	return nil
}

// Reindex re-queues documents whose stored content hash no longer matches the
// document record, or every document when force is set. Returns the number of
// documents queued.
func (s *service) Reindex(ctx context.Context, force bool) (int, error) {
	docs, err := s.docs.List(ctx)
	if err != nil {
		return 0, apperrors.Wrap("kb_error", "failed to list documents", err)
	}
	queued := 0
	for _, doc := range docs {
		if !force && !s.hasChanged(ctx, doc) {
			continue
		}
		if err := s.queue.Enqueue(ctx, JobProcessDocument, map[string]any{"documentId": doc.ID.String()}); err != nil {
			s.logger.Error("reindex enqueue failed", "document", doc.ID, "error", err)
			continue
		}
		queued++
	}
	s.logger.Info("reindex scheduled", "queued", queued, "force", force)
	return queued, nil
}

// hasChanged compares the stored blob's hash with the document record; an
// unreadable blob counts as changed.
func (s *service) hasChanged(ctx context.Context, doc Document) bool {
	file, found, err := s.files.FindByDocument(ctx, doc.ID)
	if err != nil || !found {
		return true
	}
	reader, err := s.storage.Get(ctx, file.StorageKey)
	if err != nil {
		return true
	}
	data, err := io.ReadAll(reader)
	_ = reader.Close()
	if err != nil {
		return true
	}
	return hashBytes(data) != doc.SHA256
}

func (s *service) Progress(ctx context.Context) (IngestProgress, error) {
	docs, err := s.docs.List(ctx)
	if err != nil {
		return IngestProgress{}, apperrors.Wrap("kb_error", "failed to list documents", err)
	}
	progress := IngestProgress{Total: len(docs)}
	for _, doc := range docs {
		switch doc.Status {
		case DocumentStatusPending:
			progress.Pending++
		case DocumentStatusProcessing:
			progress.Processing++
		case DocumentStatusProcessed:
			progress.Processed++
		case DocumentStatusFailed:
			progress.Failed++
		}
	}
	return progress, nil
}

// Retrieve runs hybrid retrieval: vector similarity blended with lexical
// term matches, deduplicated by chunk, best score first.
func (s *service) Retrieve(ctx context.Context, query string) ([]RetrievedChunk, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperrors.Wrap("invalid_input", "query cannot be empty", nil)
	}

	vectors, err := s.embedder.Embed(ctx, []string{query})
	if err != nil || len(vectors) == 0 {
		return nil, apperrors.Wrap("kb_error", "query embedding failed", err)
	}

	fetch := s.cfg.TopK * 2
	vecHits, err := s.chunks.SearchSimilar(ctx, vectors[0], fetch)
	if err != nil {
		return nil, apperrors.Wrap("kb_error", "similarity search failed", err)
	}
	lexHits, err := s.chunks.SearchLexical(ctx, queryTerms(query), fetch)
	if err != nil {
		s.logger.Warn("lexical search failed", "error", err)
		lexHits = nil
	}

	merged := make(map[uuid.UUID]RetrievedChunk, len(vecHits)+len(lexHits))
	for _, hit := range vecHits {
		hit.Score = hit.Score * s.cfg.VectorWeight
		merged[hit.Chunk.ID] = hit
	}
	lexWeight := 1 - s.cfg.VectorWeight
	for _, hit := range lexHits {
		if existing, ok := merged[hit.Chunk.ID]; ok {
			existing.Score += hit.Score * lexWeight
			merged[hit.Chunk.ID] = existing
			continue
		}
		hit.Score = hit.Score * lexWeight
		merged[hit.Chunk.ID] = hit
	}

	results := make([]RetrievedChunk, 0, len(merged))
	for _, hit := range merged {
		if hit.Score < s.cfg.MinScore {
			continue
		}
		results = append(results, hit)
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score == results[j].Score {
			return results[i].Chunk.ChunkIndex < results[j].Chunk.ChunkIndex
		}
		return results[i].Score > results[j].Score
	})
	if len(results) > s.cfg.TopK {
		results = results[:s.cfg.TopK]
	}
	return results, nil
}

func (s *service) failDocument(ctx context.Context, doc Document, reason string) {
	doc.Status = DocumentStatusFailed
	doc.FailureReason = &reason
	doc.UpdatedAt = time.Now().UTC()
	if err := s.docs.Update(ctx, doc); err != nil {
		s.logger.Error("failed to mark document failed", "document", doc.ID, "error", err)
	}
}

func hashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func queryTerms(query string) []string {
	fields := strings.Fields(strings.ToLower(query))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, ".,!?\"'()")
		if len(f) >= 2 {
			out = append(out, f)
		}
	}
	return out
}

func fileTypeFor(title, mimeType string) (string, bool) {
	lower := strings.ToLower(title)
	switch {
	case strings.HasSuffix(lower, ".txt"), mimeType == "text/plain":
		return "txt", true
	case strings.HasSuffix(lower, ".md"), mimeType == "text/markdown":
		return "md", true
	case strings.HasSuffix(lower, ".csv"), mimeType == "text/csv":
		return "csv", true
	default:
		return "", false
	}
}
