// Package storage provides kb.ObjectStorage implementations.
package storage

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"io"
	"sync"

	"github.com/yanqian/campusbot/internal/domain/kb"
)

// Memory keeps blobs in process memory for tests and local dev.
type Memory struct {
	mu    sync.RWMutex
	blobs map[string]blob
}

type blob struct {
	data     []byte
	mimeType string
	etag     string
}

// NewMemory constructs the storage.
func NewMemory() *Memory {
	return &Memory{blobs: make(map[string]blob)}
}

// Put stores the blob and returns metadata.
func (s *Memory) Put(_ context.Context, key string, data []byte, mimeType string) (kb.StoredObject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sum := md5.Sum(data)
	etag := hex.EncodeToString(sum[:])
	stored := make([]byte, len(data))
	copy(stored, data)
	s.blobs[key] = blob{data: stored, mimeType: mimeType, etag: etag}
	return kb.StoredObject{Key: key, Size: int64(len(data)), MimeType: mimeType, ETag: etag}, nil
}

// Get returns a reader for the stored blob.
func (s *Memory) Get(_ context.Context, key string) (io.ReadCloser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.blobs[key]
	if !ok {
		return nil, errors.New("blob not found")
	}
	return io.NopCloser(bytes.NewReader(b.data)), nil
}

// Delete removes the blob.
func (s *Memory) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, key)
	return nil
}

var _ kb.ObjectStorage = (*Memory)(nil)
