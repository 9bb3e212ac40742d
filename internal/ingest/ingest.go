// Package ingest turns uploaded résumé content into plain text for the
// engine. The engine only ever sees decoded text; HTML markup is stripped
// here, preserving line structure so the downstream line-based heuristics
// still work.
package ingest

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// maxInputBytes caps accepted résumé payloads.
const maxInputBytes = 1 << 20 // 1 MiB

var excessiveBlankLines = regexp.MustCompile(`\n{3,}`)

// Error represents a failure to decode ingested content.
type Error struct {
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("ingest error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("ingest error: %s", e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Decode converts raw résumé input into normalized plain text. Content that
// looks like HTML is stripped of markup; anything else is passed through
// with whitespace normalization.
func Decode(raw string) (string, error) {
	if len(raw) > maxInputBytes {
		return "", &Error{Message: fmt.Sprintf("input exceeds %d bytes", maxInputBytes)}
	}
	if looksLikeHTML(raw) {
		text, err := htmlToText(raw)
		if err != nil {
			return "", err
		}
		return normalize(text), nil
	}
	return normalize(raw), nil
}

// looksLikeHTML is a cheap structural sniff; pasted plain text with a stray
// angle bracket stays plain text.
func looksLikeHTML(raw string) bool {
	trimmed := strings.TrimSpace(strings.ToLower(raw))
	return strings.HasPrefix(trimmed, "<!doctype html") ||
		strings.HasPrefix(trimmed, "<html") ||
		strings.Contains(trimmed, "<body") ||
		strings.Contains(trimmed, "</p>") ||
		strings.Contains(trimmed, "</div>")
}

// htmlToText strips markup while inserting line breaks at block boundaries
// so section headings and bullet lines survive as separate lines.
func htmlToText(raw string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return "", &Error{Message: "failed to parse HTML", Cause: err}
	}

	doc.Find("script, style, noscript, head").Remove()
	doc.Find("br").Each(func(_ int, s *goquery.Selection) {
		s.ReplaceWithHtml("\n")
	})
	doc.Find("p, div, li, ul, ol, h1, h2, h3, h4, h5, h6, tr, section, article").Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})

	body := doc.Find("body")
	if body.Length() == 0 {
		return doc.Text(), nil
	}
	return body.Text(), nil
}

// normalize trims per-line whitespace, collapses runs of blank lines and
// normalizes line endings.
func normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	out := strings.Join(lines, "\n")
	out = excessiveBlankLines.ReplaceAllString(out, "\n\n")
	return strings.TrimSpace(out)
}
