package faqflow

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalize_EveryPositionInEveryForm(t *testing.T) {
	const size = 35
	for k := 1; k <= size; k++ {
		forms := []string{
			strconv.Itoa(k),
			indonesianWord(k),
			englishWord(k),
			indonesianOrdinal(k),
			englishOrdinal(k),
		}
		for _, form := range forms {
			in := Normalize(form, size)
			require.Equalf(t, InputSelection, in.Kind, "form %q for position %d", form, k)
			require.Equalf(t, k, in.Position, "form %q for position %d", form, k)
		}
	}
}

func TestNormalize_Selections(t *testing.T) {
	const size = 30

	cases := []struct {
		name     string
		raw      string
		position int
	}{
		{name: "plain digit", raw: "5", position: 5},
		{name: "surrounding whitespace", raw: "  5  ", position: 5},
		{name: "trailing period", raw: "5.", position: 5},
		{name: "trailing comma", raw: "12,", position: 12},
		{name: "indonesian unit", raw: "lima", position: 5},
		{name: "indonesian teen", raw: "tujuh belas", position: 17},
		{name: "indonesian tens spaced", raw: "dua puluh lima", position: 25},
		{name: "indonesian tens joined", raw: "duapuluhlima", position: 25},
		{name: "indonesian ordinal first", raw: "pertama", position: 1},
		{name: "indonesian ordinal", raw: "kelima", position: 5},
		{name: "english unit", raw: "five", position: 5},
		{name: "english teen", raw: "thirteen", position: 13},
		{name: "english tens hyphenated", raw: "twenty-five", position: 25},
		{name: "english ordinal first", raw: "first", position: 1},
		{name: "english ordinal third", raw: "third", position: 3},
		{name: "english ordinal twelfth", raw: "twelfth", position: 12},
		{name: "english ordinal twentieth", raw: "twentieth", position: 20},
		{name: "english ordinal twenty-first", raw: "twenty-first", position: 21},
		{name: "uppercase word", raw: "LIMA", position: 5},
		{name: "prefixed nomor", raw: "nomor 5", position: 5},
		{name: "prefixed no", raw: "no 5", position: 5},
		{name: "prefixed no period", raw: "no. 5", position: 5},
		{name: "prefixed hash", raw: "#5", position: 5},
		{name: "prefixed word", raw: "nomor lima", position: 5},
		{name: "collapsed whitespace", raw: "  nomor   5 ", position: 5},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := Normalize(tc.raw, size)
			require.Equal(t, InputSelection, in.Kind, "raw=%q", tc.raw)
			require.Equal(t, tc.position, in.Position)
		})
	}
}

func TestNormalize_OutOfRange(t *testing.T) {
	cases := []struct {
		name   string
		raw    string
		parsed int
	}{
		{name: "zero", raw: "0", parsed: 0},
		{name: "negative", raw: "-3", parsed: -3},
		{name: "beyond catalog", raw: "99", parsed: 99},
		{name: "prefixed beyond catalog", raw: "nomor 42", parsed: 42},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := Normalize(tc.raw, 8)
			require.Equal(t, InputUnrecognized, in.Kind)
			require.Equal(t, ReasonOutOfRange, in.Reason)
			require.Equal(t, tc.parsed, in.Parsed)
		})
	}
}

func TestNormalize_Commands(t *testing.T) {
	cases := []struct {
		raw     string
		command Command
	}{
		{raw: "bantuan", command: CommandHelp},
		{raw: "help", command: CommandHelp},
		{raw: "?", command: CommandHelp},
		{raw: "keluar", command: CommandExit},
		{raw: "exit", command: CommandExit},
		{raw: "cancel", command: CommandExit},
		{raw: "lihat lagi", command: CommandRelist},
		{raw: "tampilkan lagi", command: CommandRelist},
		{raw: "KELUAR", command: CommandExit},
	}

	for _, tc := range cases {
		t.Run(tc.raw, func(t *testing.T) {
			in := Normalize(tc.raw, 8)
			require.Equal(t, InputCommand, in.Kind)
			require.Equal(t, tc.command, in.Command)
		})
	}
}

func TestNormalize_Unrecognized(t *testing.T) {
	for _, raw := range []string{"", "   ", "halo", "5a", "nomor", "kapan wisuda"} {
		in := Normalize(raw, 8)
		require.Equal(t, InputUnrecognized, in.Kind, "raw=%q", raw)
		require.Equal(t, ReasonNotNumber, in.Reason)
	}
}

func TestNormalize_WordBeyondCatalogIsNotNumber(t *testing.T) {
	// Number words are only generated up to the catalog size, so a spelled
	// value beyond it reads as free text rather than an out-of-range number.
	in := Normalize("sepuluh", 5)
	require.Equal(t, InputUnrecognized, in.Kind)
	require.Equal(t, ReasonNotNumber, in.Reason)
}
