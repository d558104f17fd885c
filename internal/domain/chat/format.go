package chat

import (
	"regexp"
	"strings"
)

var (
	contextTagRe   = regexp.MustCompile(`(?is)<context>.*?</context>`)
	listLinkRe     = regexp.MustCompile(`\* \[([^\]]+)\]\(([^)]+)\)`)
	bareURLListRe  = regexp.MustCompile(`\* (https?://[^\s\n]+)`)
	markdownLinkRe = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)
	listMarkerRe   = regexp.MustCompile(`^[\s\-*+]+`)
	blankRunsRe    = regexp.MustCompile(`\n{3,}`)
)

// FormatLinks rewrites markdown list links so chat surfaces render them as
// clickable URLs. Descriptive link text is kept, bare URL links collapse to
// the URL itself.
func FormatLinks(text string) string {
	if text == "" {
		return text
	}
	out := listLinkRe.ReplaceAllStringFunc(text, func(m string) string {
		groups := listLinkRe.FindStringSubmatch(m)
		linkText, linkURL := groups[1], groups[2]
		if strings.HasPrefix(linkText, "http://") || strings.HasPrefix(linkText, "https://") {
			return linkURL
		}
		return "[" + linkText + "](" + linkURL + ")"
	})
	out = bareURLListRe.ReplaceAllString(out, "$1")
	return blankRunsRe.ReplaceAllString(out, "\n\n")
}

// FormatForWhatsApp strips markdown links down to bare URLs and removes list
// markers so WhatsApp's link detection works.
func FormatForWhatsApp(text string) string {
	if text == "" {
		return text
	}
	out := markdownLinkRe.ReplaceAllString(text, "$2")

	lines := strings.Split(out, "\n")
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		line = listMarkerRe.ReplaceAllString(strings.TrimSpace(line), "")
		if line != "" {
			cleaned = append(cleaned, line)
		}
	}
	out = strings.Join(cleaned, "\n")
	return blankRunsRe.ReplaceAllString(out, "\n\n")
}

const replyFooter = "\n\n----\nKetik:\n• \"Jelaskan Lebih Jelas\" untuk rincian.\n• \"Menu FAQ\" untuk daftar pertanyaan umum."

// renderReply post-processes an answer before it leaves the service. FAQ
// replies keep their structure and never get the footer, which would loop
// users back into the menu.
func renderReply(answer string, faq bool) string {
	answer = strings.ReplaceAll(answer, "\r\n", "\n")
	answer = strings.ReplaceAll(answer, "\r", "\n")
	answer = contextTagRe.ReplaceAllString(answer, "")
	if faq {
		return FormatLinks(answer)
	}

	answer = strings.TrimSpace(answer)
	if !strings.HasSuffix(answer, "?") {
		answer += "\n\nApakah ada pertanyaan lain yang bisa saya bantu? 😊"
	}
	answer += replyFooter
	return FormatLinks(answer)
}
