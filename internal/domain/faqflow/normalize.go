package faqflow

import (
	"strconv"
	"strings"
)

// maxWordNumber caps number-word generation; catalogs are small and spelled
// numbers above this are not worth matching.
const maxWordNumber = 99

var (
	helpSynonyms   = []string{"help", "bantuan", "?"}
	exitSynonyms   = []string{"keluar", "exit", "cancel"}
	relistSynonyms = []string{"lihat lagi", "tampilkan lagi"}

	numberPrefixes = []string{"nomor", "no.", "no", "#"}
)

// Normalize converts free-form text into a selection, a command, or an
// unrecognized input. It is a pure function: matching precedence is exact
// digits, then number words, then prefixed forms, then command synonyms.
func Normalize(raw string, catalogSize int) Input {
	msg := collapse(strings.ToLower(raw))
	if msg == "" {
		return Input{Kind: InputUnrecognized, Raw: raw, Reason: ReasonNotNumber}
	}

	if n, ok := parseDigits(msg); ok {
		return selectionOrOutOfRange(raw, n, catalogSize)
	}

	words := wordNumbers(catalogSize)
	if n, ok := words[compact(msg)]; ok {
		return Input{Kind: InputSelection, Position: n}
	}

	if rest, ok := stripNumberPrefix(msg); ok {
		if n, parsed := parseDigits(rest); parsed {
			return selectionOrOutOfRange(raw, n, catalogSize)
		}
		if n, found := words[compact(rest)]; found {
			return Input{Kind: InputSelection, Position: n}
		}
	}

	if cmd, ok := matchCommand(msg); ok {
		return Input{Kind: InputCommand, Command: cmd}
	}

	return Input{Kind: InputUnrecognized, Raw: raw, Reason: ReasonNotNumber}
}

func selectionOrOutOfRange(raw string, n, catalogSize int) Input {
	if n >= 1 && n <= catalogSize {
		return Input{Kind: InputSelection, Position: n}
	}
	return Input{Kind: InputUnrecognized, Raw: raw, Reason: ReasonOutOfRange, Parsed: n}
}

func matchCommand(msg string) (Command, bool) {
	for _, s := range helpSynonyms {
		if msg == s {
			return CommandHelp, true
		}
	}
	for _, s := range exitSynonyms {
		if msg == s {
			return CommandExit, true
		}
	}
	for _, s := range relistSynonyms {
		if msg == s {
			return CommandRelist, true
		}
	}
	return "", false
}

func stripNumberPrefix(msg string) (string, bool) {
	for _, prefix := range numberPrefixes {
		if !strings.HasPrefix(msg, prefix) {
			continue
		}
		rest := strings.TrimSpace(msg[len(prefix):])
		if rest != "" {
			return rest, true
		}
	}
	return "", false
}

// parseDigits accepts an optionally signed digit sequence, tolerating the
// trailing punctuation users type ("5.", "5,").
func parseDigits(msg string) (int, bool) {
	trimmed := strings.TrimRight(msg, ".,!")
	if trimmed == "" {
		return 0, false
	}
	body := strings.TrimPrefix(trimmed, "-")
	if body == "" {
		return 0, false
	}
	for _, r := range body {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, false
	}
	return n, true
}

// collapse trims and squeezes internal whitespace.
func collapse(msg string) string {
	return strings.Join(strings.Fields(msg), " ")
}

// compact removes separators so spelled numbers match whether written joined,
// spaced, or hyphenated ("dua puluh lima", "duapuluhlima", "twenty-five").
func compact(msg string) string {
	var b strings.Builder
	b.Grow(len(msg))
	for _, r := range msg {
		switch r {
		case ' ', '-', '.', ',':
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// wordNumbers maps compacted Indonesian and English cardinals and ordinals to
// their value, generated for 1..size.
func wordNumbers(size int) map[string]int {
	if size > maxWordNumber {
		size = maxWordNumber
	}
	out := make(map[string]int, size*4)
	for n := 1; n <= size; n++ {
		out[indonesianWord(n)] = n
		out[englishWord(n)] = n
		out[indonesianOrdinal(n)] = n
		out[englishOrdinal(n)] = n
	}
	return out
}

var (
	indonesianUnits = []string{"", "satu", "dua", "tiga", "empat", "lima", "enam", "tujuh", "delapan", "sembilan"}
	englishUnits    = []string{"", "one", "two", "three", "four", "five", "six", "seven", "eight", "nine"}
	englishTeens    = []string{"ten", "eleven", "twelve", "thirteen", "fourteen", "fifteen", "sixteen", "seventeen", "eighteen", "nineteen"}
	englishTens     = []string{"", "", "twenty", "thirty", "forty", "fifty", "sixty", "seventy", "eighty", "ninety"}
)

func indonesianWord(n int) string {
	switch {
	case n < 10:
		return indonesianUnits[n]
	case n == 10:
		return "sepuluh"
	case n == 11:
		return "sebelas"
	case n < 20:
		return indonesianUnits[n-10] + "belas"
	default:
		word := indonesianUnits[n/10] + "puluh"
		if n%10 != 0 {
			word += indonesianUnits[n%10]
		}
		return word
	}
}

func englishWord(n int) string {
	switch {
	case n < 10:
		return englishUnits[n]
	case n < 20:
		return englishTeens[n-10]
	default:
		word := englishTens[n/10]
		if n%10 != 0 {
			word += englishUnits[n%10]
		}
		return word
	}
}

func indonesianOrdinal(n int) string {
	if n == 1 {
		return "pertama"
	}
	return "ke" + indonesianWord(n)
}

var englishOrdinalSpecials = map[int]string{
	1: "first", 2: "second", 3: "third", 5: "fifth", 8: "eighth", 9: "ninth", 12: "twelfth",
}

func englishOrdinal(n int) string {
	if word, ok := englishOrdinalSpecials[n]; ok {
		return word
	}
	if n >= 20 {
		if n%10 == 0 {
			return strings.TrimSuffix(englishTens[n/10], "y") + "ieth"
		}
		return englishTens[n/10] + englishOrdinal(n%10)
	}
	word := englishWord(n)
	if strings.HasSuffix(word, "y") {
		return strings.TrimSuffix(word, "y") + "ieth"
	}
	return word + "th"
}
