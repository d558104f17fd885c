package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	apperrors "github.com/yanqian/campusbot/pkg/errors"
)

func TestParse_BuildsCatalogInOrder(t *testing.T) {
	data := []byte(`[
		{"question": "Bagaimana cara mengajukan cuti?", "answer": "Lewat AIS."},
		{"question": "Kapan jadwal KRS?", "answer": "Lihat kalender akademik.", "keywords": ["krs"]}
	]`)

	cat, err := Parse(data)
	require.NoError(t, err)
	require.Equal(t, 2, cat.Size())

	entry, ok := cat.Get(1)
	require.True(t, ok)
	require.Equal(t, "Bagaimana cara mengajukan cuti?", entry.Question)

	entry, ok = cat.Get(2)
	require.True(t, ok)
	require.Equal(t, []string{"krs"}, entry.Keywords)
}

func TestParse_RejectsBadInput(t *testing.T) {
	cases := []struct {
		name string
		data string
	}{
		{name: "not json", data: `{{`},
		{name: "empty list", data: `[]`},
		{name: "missing answer", data: `[{"question": "Q?"}]`},
		{name: "blank question", data: `[{"question": "  ", "answer": "A"}]`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.data))
			require.Error(t, err)
			require.True(t, apperrors.IsCode(err, "catalog_load"))
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "faq.json")
	payload := `[{"question": "Berapa SKS minimal?", "answer": "144 SKS."}]`
	require.NoError(t, os.WriteFile(path, []byte(payload), 0o600))

	cat, err := LoadFile(path)
	require.NoError(t, err)
	require.Equal(t, 1, cat.Size())

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, "catalog_load"))
}
