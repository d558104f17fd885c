package kb

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	apperrors "github.com/yanqian/campusbot/pkg/errors"
)

type fakeDocs struct {
	docs map[uuid.UUID]Document
}

func newFakeDocs() *fakeDocs { return &fakeDocs{docs: make(map[uuid.UUID]Document)} }

func (f *fakeDocs) Create(_ context.Context, doc Document) error {
	f.docs[doc.ID] = doc
	return nil
}

func (f *fakeDocs) Update(_ context.Context, doc Document) error {
	f.docs[doc.ID] = doc
	return nil
}

func (f *fakeDocs) Get(_ context.Context, docID uuid.UUID) (Document, bool, error) {
	doc, ok := f.docs[docID]
	return doc, ok, nil
}

func (f *fakeDocs) List(_ context.Context) ([]Document, error) {
	out := make([]Document, 0, len(f.docs))
	for _, doc := range f.docs {
		out = append(out, doc)
	}
	return out, nil
}

func (f *fakeDocs) Delete(_ context.Context, docID uuid.UUID) error {
	delete(f.docs, docID)
	return nil
}

type fakeFiles struct {
	files map[uuid.UUID]FileObject
}

func newFakeFiles() *fakeFiles { return &fakeFiles{files: make(map[uuid.UUID]FileObject)} }

func (f *fakeFiles) Create(_ context.Context, file FileObject) error {
	f.files[file.DocumentID] = file
	return nil
}

func (f *fakeFiles) FindByDocument(_ context.Context, docID uuid.UUID) (FileObject, bool, error) {
	file, ok := f.files[docID]
	return file, ok, nil
}

func (f *fakeFiles) DeleteByDocument(_ context.Context, docID uuid.UUID) error {
	delete(f.files, docID)
	return nil
}

type fakeChunks struct {
	chunks  map[uuid.UUID][]Chunk
	vecHits []RetrievedChunk
	lexHits []RetrievedChunk
	lexErr  error
}

func newFakeChunks() *fakeChunks { return &fakeChunks{chunks: make(map[uuid.UUID][]Chunk)} }

func (f *fakeChunks) InsertBatch(_ context.Context, chunks []Chunk) error {
	for _, c := range chunks {
		f.chunks[c.DocumentID] = append(f.chunks[c.DocumentID], c)
	}
	return nil
}

func (f *fakeChunks) DeleteByDocument(_ context.Context, docID uuid.UUID) error {
	delete(f.chunks, docID)
	return nil
}

func (f *fakeChunks) SearchSimilar(_ context.Context, _ []float32, _ int) ([]RetrievedChunk, error) {
	return f.vecHits, nil
}

func (f *fakeChunks) SearchLexical(_ context.Context, _ []string, _ int) ([]RetrievedChunk, error) {
	return f.lexHits, f.lexErr
}

type fakeStorage struct {
	blobs map[string][]byte
}

func newFakeStorage() *fakeStorage { return &fakeStorage{blobs: make(map[string][]byte)} }

func (f *fakeStorage) Put(_ context.Context, key string, data []byte, mimeType string) (StoredObject, error) {
	f.blobs[key] = data
	return StoredObject{Key: key, Size: int64(len(data)), MimeType: mimeType, ETag: "etag"}, nil
}

func (f *fakeStorage) Get(_ context.Context, key string) (io.ReadCloser, error) {
	data, ok := f.blobs[key]
	if !ok {
		return nil, errors.New("not found")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f *fakeStorage) Delete(_ context.Context, key string) error {
	delete(f.blobs, key)
	return nil
}

type fakeChunker struct{}

func (fakeChunker) Chunk(text string) []ChunkCandidate {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	return []ChunkCandidate{{Index: 0, Content: text, TokenCount: len(strings.Fields(text))}}
}

type fakeEmbedder struct {
	err error
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0, 0}
	}
	return out, nil
}

type fakeQueue struct {
	jobs []map[string]any
	err  error
}

func (f *fakeQueue) Enqueue(_ context.Context, name string, payload any) error {
	if f.err != nil {
		return f.err
	}
	typed, _ := payload.(map[string]any)
	f.jobs = append(f.jobs, map[string]any{"name": name, "payload": typed})
	return nil
}

type kbFixture struct {
	svc     Service
	docs    *fakeDocs
	files   *fakeFiles
	chunks  *fakeChunks
	storage *fakeStorage
	queue   *fakeQueue
}

func newKBFixture(cfg Config) *kbFixture {
	f := &kbFixture{
		docs:    newFakeDocs(),
		files:   newFakeFiles(),
		chunks:  newFakeChunks(),
		storage: newFakeStorage(),
		queue:   &fakeQueue{},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.svc = NewService(cfg, f.docs, f.files, f.chunks, f.storage, fakeChunker{}, &fakeEmbedder{}, f.queue, logger)
	return f
}

func TestService_UploadQueuesProcessing(t *testing.T) {
	f := newKBFixture(Config{})
	ctx := context.Background()

	doc, err := f.svc.Upload(ctx, "panduan.txt", "text/plain", []byte("Isi panduan akademik."))
	require.NoError(t, err)
	require.Equal(t, DocumentStatusPending, doc.Status)
	require.Equal(t, "txt", doc.FileType)
	require.NotEmpty(t, doc.SHA256)

	_, ok, err := f.docs.Get(ctx, doc.ID)
	require.NoError(t, err)
	require.True(t, ok)

	file, ok, err := f.files.FindByDocument(ctx, doc.ID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, int64(len("Isi panduan akademik.")), file.SizeBytes)

	require.Len(t, f.queue.jobs, 1)
	require.Equal(t, JobProcessDocument, f.queue.jobs[0]["name"])
	payload := f.queue.jobs[0]["payload"].(map[string]any)
	require.Equal(t, doc.ID.String(), payload["documentId"])
}

func TestService_UploadValidation(t *testing.T) {
	f := newKBFixture(Config{MaxFileBytes: 10})
	ctx := context.Background()

	_, err := f.svc.Upload(ctx, "  ", "text/plain", []byte("x"))
	require.True(t, apperrors.IsCode(err, "invalid_input"))

	_, err = f.svc.Upload(ctx, "a.txt", "text/plain", nil)
	require.True(t, apperrors.IsCode(err, "invalid_input"))

	_, err = f.svc.Upload(ctx, "a.txt", "text/plain", []byte("more than ten bytes"))
	require.True(t, apperrors.IsCode(err, "invalid_input"))

	_, err = f.svc.Upload(ctx, "a.exe", "application/octet-stream", []byte("x"))
	require.True(t, apperrors.IsCode(err, "invalid_input"))
}

func TestService_UploadEnqueueFailureMarksDocument(t *testing.T) {
	f := newKBFixture(Config{})
	f.queue.err = errors.New("queue down")
	ctx := context.Background()

	doc, err := f.svc.Upload(ctx, "panduan.txt", "text/plain", []byte("isi"))
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, "kb_error"))

	stored, ok, err := f.docs.Get(ctx, doc.ID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, DocumentStatusFailed, stored.Status)
	require.NotNil(t, stored.FailureReason)
}

func TestService_ProcessEmbedsChunks(t *testing.T) {
	f := newKBFixture(Config{})
	ctx := context.Background()

	doc, err := f.svc.Upload(ctx, "panduan.txt", "text/plain", []byte("Isi panduan akademik."))
	require.NoError(t, err)

	require.NoError(t, f.svc.Process(ctx, doc.ID))

	stored, _, err := f.docs.Get(ctx, doc.ID)
	require.NoError(t, err)
	require.Equal(t, DocumentStatusProcessed, stored.Status)
	require.Nil(t, stored.FailureReason)

	chunks := f.chunks.chunks[doc.ID]
	require.Len(t, chunks, 1)
	require.Equal(t, "Isi panduan akademik.", chunks[0].Content)
	require.Len(t, chunks[0].Embedding, 3)
}

func TestService_ProcessCSV(t *testing.T) {
	f := newKBFixture(Config{})
	ctx := context.Background()

	csvData := []byte("mata_kuliah,sks\nAlgoritma,3\nBasis Data,3\n")
	doc, err := f.svc.Upload(ctx, "kurikulum.csv", "text/csv", csvData)
	require.NoError(t, err)

	require.NoError(t, f.svc.Process(ctx, doc.ID))

	chunks := f.chunks.chunks[doc.ID]
	require.Len(t, chunks, 1)
	require.Contains(t, chunks[0].Content, "mata_kuliah: Algoritma")
	require.Contains(t, chunks[0].Content, "sks: 3")
}

func TestService_ProcessUnknownDocument(t *testing.T) {
	f := newKBFixture(Config{})

	err := f.svc.Process(context.Background(), uuid.New())
	require.True(t, apperrors.IsCode(err, "not_found"))
}

func TestService_ProcessEmbedFailureMarksDocument(t *testing.T) {
	f := newKBFixture(Config{})
	ctx := context.Background()

	doc, err := f.svc.Upload(ctx, "panduan.txt", "text/plain", []byte("isi dokumen"))
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	broken := NewService(Config{}, f.docs, f.files, f.chunks, f.storage, fakeChunker{}, &fakeEmbedder{err: errors.New("api down")}, f.queue, logger)

	err = broken.Process(ctx, doc.ID)
	require.True(t, apperrors.IsCode(err, "kb_error"))

	stored, _, err := f.docs.Get(ctx, doc.ID)
	require.NoError(t, err)
	require.Equal(t, DocumentStatusFailed, stored.Status)
}

func TestService_DeleteRemovesEverything(t *testing.T) {
	f := newKBFixture(Config{})
	ctx := context.Background()

	doc, err := f.svc.Upload(ctx, "panduan.txt", "text/plain", []byte("isi"))
	require.NoError(t, err)
	require.NoError(t, f.svc.Process(ctx, doc.ID))

	require.NoError(t, f.svc.Delete(ctx, doc.ID))

	_, ok, err := f.docs.Get(ctx, doc.ID)
	require.NoError(t, err)
	require.False(t, ok)
	require.Empty(t, f.chunks.chunks[doc.ID])
	require.Empty(t, f.storage.blobs)

	err = f.svc.Delete(ctx, doc.ID)
	require.True(t, apperrors.IsCode(err, "not_found"))
}

func TestService_ReindexSkipsUnchangedDocuments(t *testing.T) {
	f := newKBFixture(Config{})
	ctx := context.Background()

	doc, err := f.svc.Upload(ctx, "panduan.txt", "text/plain", []byte("isi"))
	require.NoError(t, err)
	require.NoError(t, f.svc.Process(ctx, doc.ID))
	f.queue.jobs = nil

	queued, err := f.svc.Reindex(ctx, false)
	require.NoError(t, err)
	require.Equal(t, 0, queued)

	// modify the stored blob so the hash no longer matches
	file, _, err := f.files.FindByDocument(ctx, doc.ID)
	require.NoError(t, err)
	f.storage.blobs[file.StorageKey] = []byte("isi yang berubah")

	queued, err = f.svc.Reindex(ctx, false)
	require.NoError(t, err)
	require.Equal(t, 1, queued)
}

func TestService_ReindexForceQueuesAll(t *testing.T) {
	f := newKBFixture(Config{})
	ctx := context.Background()

	for _, name := range []string{"a.txt", "b.txt"} {
		doc, err := f.svc.Upload(ctx, name, "text/plain", []byte("isi "+name))
		require.NoError(t, err)
		require.NoError(t, f.svc.Process(ctx, doc.ID))
	}
	f.queue.jobs = nil

	queued, err := f.svc.Reindex(ctx, true)
	require.NoError(t, err)
	require.Equal(t, 2, queued)
}

func TestService_ProgressCountsStatuses(t *testing.T) {
	f := newKBFixture(Config{})
	ctx := context.Background()

	first, err := f.svc.Upload(ctx, "a.txt", "text/plain", []byte("isi a"))
	require.NoError(t, err)
	require.NoError(t, f.svc.Process(ctx, first.ID))

	_, err = f.svc.Upload(ctx, "b.txt", "text/plain", []byte("isi b"))
	require.NoError(t, err)

	progress, err := f.svc.Progress(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, progress.Total)
	require.Equal(t, 1, progress.Processed)
	require.Equal(t, 1, progress.Pending)
}

func TestService_RetrieveBlendsScores(t *testing.T) {
	f := newKBFixture(Config{TopK: 3, VectorWeight: 0.7, MinScore: 0.05})

	shared := uuid.New()
	vecOnly := uuid.New()
	lexOnly := uuid.New()
	f.chunks.vecHits = []RetrievedChunk{
		{Chunk: Chunk{ID: shared, ChunkIndex: 0, Content: "bersama"}, Score: 0.5},
		{Chunk: Chunk{ID: vecOnly, ChunkIndex: 1, Content: "vektor"}, Score: 0.9},
	}
	f.chunks.lexHits = []RetrievedChunk{
		{Chunk: Chunk{ID: shared, ChunkIndex: 0, Content: "bersama"}, Score: 1.0},
		{Chunk: Chunk{ID: lexOnly, ChunkIndex: 2, Content: "leksikal"}, Score: 0.5},
	}

	got, err := f.svc.Retrieve(context.Background(), "jadwal krs")
	require.NoError(t, err)
	require.Len(t, got, 3)

	// shared: 0.5*0.7 + 1.0*0.3 = 0.65, vector-only: 0.9*0.7 = 0.63, lexical-only: 0.5*0.3 = 0.15
	require.Equal(t, shared, got[0].Chunk.ID)
	require.InDelta(t, 0.65, got[0].Score, 1e-9)
	require.Equal(t, vecOnly, got[1].Chunk.ID)
	require.InDelta(t, 0.63, got[1].Score, 1e-9)
	require.Equal(t, lexOnly, got[2].Chunk.ID)
}

func TestService_RetrieveFiltersLowScores(t *testing.T) {
	f := newKBFixture(Config{TopK: 5, VectorWeight: 0.7, MinScore: 0.5})

	f.chunks.vecHits = []RetrievedChunk{
		{Chunk: Chunk{ID: uuid.New(), Content: "kuat"}, Score: 0.9},
		{Chunk: Chunk{ID: uuid.New(), Content: "lemah"}, Score: 0.1},
	}

	got, err := f.svc.Retrieve(context.Background(), "pertanyaan")
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "kuat", got[0].Chunk.Content)
}

func TestService_RetrieveToleratesLexicalFailure(t *testing.T) {
	f := newKBFixture(Config{})
	f.chunks.vecHits = []RetrievedChunk{
		{Chunk: Chunk{ID: uuid.New(), Content: "isi"}, Score: 0.9},
	}
	f.chunks.lexErr = errors.New("ilike blew up")

	got, err := f.svc.Retrieve(context.Background(), "pertanyaan")
	require.NoError(t, err)
	require.Len(t, got, 1)
}

func TestService_RetrieveRejectsEmptyQuery(t *testing.T) {
	f := newKBFixture(Config{})

	_, err := f.svc.Retrieve(context.Background(), "   ")
	require.True(t, apperrors.IsCode(err, "invalid_input"))
}

func TestQueryTerms(t *testing.T) {
	got := queryTerms(`Bagaimana cara "mengisi" KRS? a`)
	require.Equal(t, []string{"bagaimana", "cara", "mengisi", "krs"}, got)
}
