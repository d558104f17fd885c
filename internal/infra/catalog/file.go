// Package catalog loads the FAQ catalog from its external source.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/yanqian/campusbot/internal/domain/faqflow"
	apperrors "github.com/yanqian/campusbot/pkg/errors"
)

type fileEntry struct {
	Question string   `json:"question"`
	Answer   string   `json:"answer"`
	Keywords []string `json:"keywords,omitempty"`
}

// LoadFile reads a JSON list of question/answer objects and builds a catalog.
// A missing, malformed, or empty source yields a catalog_load error; callers
// degrade to an empty catalog.
func LoadFile(path string) (*faqflow.Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.Wrap("catalog_load", "read catalog file", err)
	}
	return Parse(data)
}

// Parse builds a catalog from raw JSON.
func Parse(data []byte) (*faqflow.Catalog, error) {
	var raw []fileEntry
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, apperrors.Wrap("catalog_load", "parse catalog file", err)
	}
	entries := make([]faqflow.Entry, 0, len(raw))
	for i, item := range raw {
		question := strings.TrimSpace(item.Question)
		answer := strings.TrimSpace(item.Answer)
		if question == "" || answer == "" {
			return nil, apperrors.Wrap("catalog_load", fmt.Sprintf("entry %d missing question or answer", i+1), nil)
		}
		entries = append(entries, faqflow.Entry{
			Question: question,
			Answer:   answer,
			Keywords: item.Keywords,
		})
	}
	if len(entries) == 0 {
		return nil, apperrors.Wrap("catalog_load", "catalog source is empty", nil)
	}
	return faqflow.NewCatalog(entries), nil
}
