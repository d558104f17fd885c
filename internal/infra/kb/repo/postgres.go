package repo

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"

	"github.com/yanqian/campusbot/internal/domain/kb"
)

// PostgresDocumentRepository persists knowledge-base documents in Postgres.
type PostgresDocumentRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresDocumentRepository constructs the repository.
func NewPostgresDocumentRepository(pool *pgxpool.Pool) *PostgresDocumentRepository {
	return &PostgresDocumentRepository{pool: pool}
}

func (r *PostgresDocumentRepository) Create(ctx context.Context, doc kb.Document) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO kb_documents (id, title, file_type, status, failure_reason, sha256, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, doc.ID, doc.Title, doc.FileType, doc.Status, doc.FailureReason, doc.SHA256, doc.CreatedAt, doc.UpdatedAt)
	return err
}

func (r *PostgresDocumentRepository) Update(ctx context.Context, doc kb.Document) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE kb_documents
		SET title = $1, file_type = $2, status = $3, failure_reason = $4, sha256 = $5, updated_at = NOW()
		WHERE id = $6
	`, doc.Title, doc.FileType, doc.Status, doc.FailureReason, doc.SHA256, doc.ID)
	return err
}

func (r *PostgresDocumentRepository) Get(ctx context.Context, docID uuid.UUID) (kb.Document, bool, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, title, file_type, status, failure_reason, sha256, created_at, updated_at
		FROM kb_documents
		WHERE id = $1
		LIMIT 1
	`, docID)
	doc, err := scanDocument(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return kb.Document{}, false, nil
		}
		return kb.Document{}, false, err
	}
	return doc, true, nil
}

func (r *PostgresDocumentRepository) List(ctx context.Context) ([]kb.Document, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, title, file_type, status, failure_reason, sha256, created_at, updated_at
		FROM kb_documents
		ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []kb.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (r *PostgresDocumentRepository) Delete(ctx context.Context, docID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM kb_documents WHERE id = $1`, docID)
	return err
}

var _ kb.DocumentRepository = (*PostgresDocumentRepository)(nil)

func scanDocument(row pgx.Row) (kb.Document, error) {
	var doc kb.Document
	var failureReason *string
	if err := row.Scan(&doc.ID, &doc.Title, &doc.FileType, &doc.Status, &failureReason, &doc.SHA256, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
		return kb.Document{}, err
	}
	doc.FailureReason = failureReason
	return doc, nil
}

// PostgresFileRepository persists file metadata.
type PostgresFileRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresFileRepository constructs the repository.
func NewPostgresFileRepository(pool *pgxpool.Pool) *PostgresFileRepository {
	return &PostgresFileRepository{pool: pool}
}

func (r *PostgresFileRepository) Create(ctx context.Context, file kb.FileObject) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO kb_file_objects (id, document_id, storage_key, size_bytes, mime_type, etag, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, file.ID, file.DocumentID, file.StorageKey, file.SizeBytes, file.MimeType, file.ETag, file.CreatedAt)
	return err
}

func (r *PostgresFileRepository) FindByDocument(ctx context.Context, docID uuid.UUID) (kb.FileObject, bool, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, document_id, storage_key, size_bytes, mime_type, etag, created_at
		FROM kb_file_objects
		WHERE document_id = $1
		LIMIT 1
	`, docID)
	var file kb.FileObject
	if err := row.Scan(&file.ID, &file.DocumentID, &file.StorageKey, &file.SizeBytes, &file.MimeType, &file.ETag, &file.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return kb.FileObject{}, false, nil
		}
		return kb.FileObject{}, false, err
	}
	return file, true, nil
}

func (r *PostgresFileRepository) DeleteByDocument(ctx context.Context, docID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM kb_file_objects WHERE document_id = $1`, docID)
	return err
}

var _ kb.FileObjectRepository = (*PostgresFileRepository)(nil)

// PostgresChunkRepository stores chunks and serves similarity search via pgvector.
type PostgresChunkRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresChunkRepository constructs the chunk repository.
func NewPostgresChunkRepository(pool *pgxpool.Pool) *PostgresChunkRepository {
	return &PostgresChunkRepository{pool: pool}
}

func (r *PostgresChunkRepository) InsertBatch(ctx context.Context, chunks []kb.Chunk) error {
	batch := &pgx.Batch{}
	for _, chunk := range chunks {
		batch.Queue(`
			INSERT INTO kb_chunks (id, document_id, chunk_index, content, token_count, embedding, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, chunk.ID, chunk.DocumentID, chunk.ChunkIndex, chunk.Content, chunk.TokenCount, pgvector.NewVector(chunk.Embedding), chunk.CreatedAt)
	}
	return r.pool.SendBatch(ctx, batch).Close()
}

func (r *PostgresChunkRepository) DeleteByDocument(ctx context.Context, docID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM kb_chunks WHERE document_id = $1`, docID)
	return err
}

func (r *PostgresChunkRepository) SearchSimilar(ctx context.Context, embedding []float32, limit int) ([]kb.RetrievedChunk, error) {
	if limit <= 0 {
		limit = 16
	}
	rows, err := r.pool.Query(ctx, `
		SELECT
			c.id, c.document_id, c.chunk_index, c.content, c.token_count, c.embedding, c.created_at,
			d.id, d.title, d.file_type, d.status, d.failure_reason, d.sha256, d.created_at, d.updated_at,
			(1.0 / (1.0 + (c.embedding <-> $1))) AS score
		FROM kb_chunks c
		JOIN kb_documents d ON d.id = c.document_id
		WHERE d.status = $2
		ORDER BY (c.embedding <-> $1) ASC
		LIMIT $3
	`, pgvector.NewVector(embedding), kb.DocumentStatusProcessed, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRetrieved(rows)
}

func (r *PostgresChunkRepository) SearchLexical(ctx context.Context, terms []string, limit int) ([]kb.RetrievedChunk, error) {
	if len(terms) == 0 {
		return nil, nil
	}
	if limit <= 0 {
		limit = 16
	}

	// Score each chunk by the share of query terms it contains.
	conds := make([]string, 0, len(terms))
	args := []any{kb.DocumentStatusProcessed}
	argPos := 2
	for _, term := range terms {
		conds = append(conds, `(CASE WHEN c.content ILIKE $`+itoa(argPos)+` THEN 1 ELSE 0 END)`)
		args = append(args, "%"+term+"%")
		argPos++
	}
	args = append(args, len(terms), limit)

	query := `
		SELECT
			c.id, c.document_id, c.chunk_index, c.content, c.token_count, c.embedding, c.created_at,
			d.id, d.title, d.file_type, d.status, d.failure_reason, d.sha256, d.created_at, d.updated_at,
			(` + strings.Join(conds, " + ") + `)::float / $` + itoa(argPos) + ` AS score
		FROM kb_chunks c
		JOIN kb_documents d ON d.id = c.document_id
		WHERE d.status = $1
		ORDER BY score DESC
		LIMIT $` + itoa(argPos+1)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results, err := collectRetrieved(rows)
	if err != nil {
		return nil, err
	}
	filtered := results[:0]
	for _, res := range results {
		if res.Score > 0 {
			filtered = append(filtered, res)
		}
	}
	return filtered, nil
}

var _ kb.ChunkRepository = (*PostgresChunkRepository)(nil)

func collectRetrieved(rows pgx.Rows) ([]kb.RetrievedChunk, error) {
	var results []kb.RetrievedChunk
	for rows.Next() {
		var (
			chunk         kb.Chunk
			doc           kb.Document
			failureReason *string
			score         float64
			embeddingRaw  any
		)
		if err := rows.Scan(
			&chunk.ID, &chunk.DocumentID, &chunk.ChunkIndex, &chunk.Content, &chunk.TokenCount, &embeddingRaw, &chunk.CreatedAt,
			&doc.ID, &doc.Title, &doc.FileType, &doc.Status, &failureReason, &doc.SHA256, &doc.CreatedAt, &doc.UpdatedAt,
			&score,
		); err != nil {
			return nil, err
		}
		parsed, err := normalizeEmbedding(embeddingRaw)
		if err != nil {
			return nil, err
		}
		chunk.Embedding = parsed
		doc.FailureReason = failureReason
		results = append(results, kb.RetrievedChunk{
			Chunk:    chunk,
			Document: doc,
			Score:    score,
		})
	}
	return results, rows.Err()
}

func itoa(v int) string {
	return strconv.Itoa(v)
}

func normalizeEmbedding(raw any) ([]float32, error) {
	switch v := raw.(type) {
	case pgvector.Vector:
		return append([]float32(nil), v.Slice()...), nil
	case []float32:
		return append([]float32(nil), v...), nil
	case []float64:
		out := make([]float32, len(v))
		for i, f := range v {
			out[i] = float32(f)
		}
		return out, nil
	case string:
		trimmed := strings.TrimSpace(v)
		trimmed = strings.TrimPrefix(trimmed, "[")
		trimmed = strings.TrimSuffix(trimmed, "]")
		if trimmed == "" {
			return nil, nil
		}
		parts := strings.Split(trimmed, ",")
		out := make([]float32, 0, len(parts))
		for _, p := range parts {
			numStr := strings.TrimSpace(p)
			if numStr == "" {
				continue
			}
			f, err := strconv.ParseFloat(numStr, 32)
			if err != nil {
				return nil, err
			}
			out = append(out, float32(f))
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported embedding type %T", raw)
	}
}
