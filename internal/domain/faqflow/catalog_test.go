package faqflow

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func testEntries() []Entry {
	return []Entry{
		{Question: "Bagaimana cara mengajukan cuti kuliah?", Answer: "Lewat AIS.", Keywords: []string{"cuti", "kuliah"}},
		{Question: "Kapan jadwal pengisian KRS?", Answer: "Dua pekan sebelum kuliah.", Keywords: []string{"krs", "jadwal"}},
		{Question: "Berapa SKS minimal untuk lulus?", Answer: "144 SKS.", Keywords: []string{"sks", "lulus"}},
	}
}

func TestCatalog_AssignsPositions(t *testing.T) {
	cat := NewCatalog(testEntries())
	require.Equal(t, 3, cat.Size())

	entries := cat.Entries()
	for i, entry := range entries {
		require.Equal(t, i+1, entry.Position)
	}

	entry, ok := cat.Get(2)
	require.True(t, ok)
	require.Equal(t, "Kapan jadwal pengisian KRS?", entry.Question)

	_, ok = cat.Get(0)
	require.False(t, ok)
	_, ok = cat.Get(4)
	require.False(t, ok)
}

func TestCatalog_DerivesKeywordsFromQuestion(t *testing.T) {
	cat := NewCatalog([]Entry{
		{Question: "Bagaimana prosedur sidang skripsi?", Answer: "Daftar lewat AIS."},
	})

	got := cat.Suggest("jadwal sidang", 3)
	require.Len(t, got, 1)
	require.Equal(t, 1, got[0].Position)
}

func TestCatalog_SuggestRanksByOverlap(t *testing.T) {
	cat := NewCatalog(testEntries())

	got := cat.Suggest("jadwal krs kuliah", 3)
	require.NotEmpty(t, got)
	// two keyword hits beat one
	require.Equal(t, 2, got[0].Position)

	require.Empty(t, cat.Suggest("tidak cocok sama sekali", 3))
	require.Empty(t, cat.Suggest("jadwal", 0))
}

func TestCatalog_SuggestHonorsLimit(t *testing.T) {
	cat := NewCatalog(testEntries())
	got := cat.Suggest("cuti krs sks", 2)
	require.Len(t, got, 2)
}
