package chat

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormatLinks(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "bare url link collapses",
			in:   "* [https://tif.uinjkt.ac.id](https://tif.uinjkt.ac.id)",
			want: "https://tif.uinjkt.ac.id",
		},
		{
			name: "descriptive link kept",
			in:   "* [Kurikulum 2024](https://tif.uinjkt.ac.id/kurikulum)",
			want: "[Kurikulum 2024](https://tif.uinjkt.ac.id/kurikulum)",
		},
		{
			name: "bare url list item",
			in:   "* https://ais.uinjkt.ac.id",
			want: "https://ais.uinjkt.ac.id",
		},
		{
			name: "blank runs collapse",
			in:   "satu\n\n\n\ndua",
			want: "satu\n\ndua",
		},
		{
			name: "empty passthrough",
			in:   "",
			want: "",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, FormatLinks(tc.in))
		})
	}
}

func TestFormatForWhatsApp(t *testing.T) {
	in := "### Informasi\n\n* [Kurikulum](https://tif.uinjkt.ac.id/kurikulum)\n- poin kedua\n\n   \n* https://ais.uinjkt.ac.id"
	got := FormatForWhatsApp(in)

	require.NotContains(t, got, "](")
	require.Contains(t, got, "https://tif.uinjkt.ac.id/kurikulum")
	require.Contains(t, got, "https://ais.uinjkt.ac.id")
	require.Contains(t, got, "poin kedua")
	for _, line := range strings.Split(got, "\n") {
		require.False(t, strings.HasPrefix(line, "* "), "list marker left in %q", line)
		require.False(t, strings.HasPrefix(line, "- "), "list marker left in %q", line)
	}
}

func TestRenderReply(t *testing.T) {
	t.Run("appends closing and footer", func(t *testing.T) {
		got := renderReply("Jawaban singkat.", false)
		require.Contains(t, got, "Jawaban singkat.")
		require.Contains(t, got, "Apakah ada pertanyaan lain yang bisa saya bantu? 😊")
		require.Contains(t, got, "\"Jelaskan Lebih Jelas\" untuk rincian.")
		require.Contains(t, got, "\"Menu FAQ\" untuk daftar pertanyaan umum.")
	})

	t.Run("question ending skips the closing", func(t *testing.T) {
		got := renderReply("Apakah maksud Anda jadwal KRS?", false)
		require.NotContains(t, got, "Apakah ada pertanyaan lain")
		require.Contains(t, got, "Jelaskan Lebih Jelas")
	})

	t.Run("strips leaked context tags", func(t *testing.T) {
		got := renderReply("Sebelum <context>rahasia</context> sesudah", false)
		require.NotContains(t, got, "rahasia")
		require.NotContains(t, got, "<context>")
	})

	t.Run("faq replies never get the footer", func(t *testing.T) {
		got := renderReply("1. Pertanyaan pertama\r\n2. Pertanyaan kedua", true)
		require.NotContains(t, got, "Jelaskan Lebih Jelas")
		require.NotContains(t, got, "\r")
		require.Contains(t, got, "1. Pertanyaan pertama\n2. Pertanyaan kedua")
	})
}
