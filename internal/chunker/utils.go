package chunker

import (
	"regexp"
	"strings"
)

// paragraphBreak matches one or more blank lines, including lines holding
// only whitespace.
var paragraphBreak = regexp.MustCompile(`\n\s*\n`)

// NormalizeNewlines converts CRLF and lone CR line endings to LF.
func NormalizeNewlines(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n")
}

// SplitByParagraphs splits text on blank lines and returns the trimmed,
// non-empty paragraphs in order.
func SplitByParagraphs(text string) []string {
	var result []string
	for _, p := range paragraphBreak.Split(NormalizeNewlines(text), -1) {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

// JoinParagraphs joins paragraphs with a single blank line, dropping empty
// ones and normalizing line endings. Extractors use it to produce the text
// Split expects.
func JoinParagraphs(paragraphs []string) string {
	kept := make([]string, 0, len(paragraphs))
	for _, p := range paragraphs {
		p = strings.TrimSpace(NormalizeNewlines(p))
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "\n\n")
}
