// Package extract turns uploaded documents into source material.
package extract

import (
	"context"
	"fmt"
	"html"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/microcosm-cc/bluemonday"

	"github.com/PabloGalante/socratic-dialogue/internal/observability"
)

const DefaultMaxBytes = 5 << 20

var blankRuns = regexp.MustCompile(`\n[ \t]*(\n[ \t]*)+`)

// PlainText accepts any text document and strips markup from HTML. Binary
// formats get a placeholder telling the learner to paste the text instead.
type PlainText struct {
	maxBytes int
	policy   *bluemonday.Policy
}

func NewPlainText(maxBytes int) *PlainText {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &PlainText{
		maxBytes: maxBytes,
		policy:   bluemonday.StrictPolicy(),
	}
}

func (p *PlainText) Extract(ctx context.Context, filename string, data []byte) string {
	log := observability.LoggerFromContext(ctx).With("filename", filename, "bytes", len(data))

	if len(data) == 0 {
		return placeholder(filename, "the file is empty")
	}
	if len(data) > p.maxBytes {
		log.Warn("document too large")
		return placeholder(filename, fmt.Sprintf("the file is larger than %d bytes", p.maxBytes))
	}

	mt := mimetype.Detect(data)
	log = log.With("mime", mt.String())

	if isHTML(filename, mt) {
		text := html.UnescapeString(p.policy.Sanitize(string(data)))
		log.Info("extracted html document")
		return tidy(text)
	}

	if !isText(mt) || !utf8.Valid(data) {
		log.Warn("unsupported document")
		return placeholder(filename, fmt.Sprintf("%s documents are not supported", mt.String()))
	}

	log.Info("extracted text document")
	return tidy(string(data))
}

func isHTML(filename string, mt *mimetype.MIME) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".html", ".htm":
		return true
	}
	return mt.Is("text/html")
}

func isText(mt *mimetype.MIME) bool {
	for m := mt; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	return false
}

func tidy(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = blankRuns.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

func placeholder(filename, reason string) string {
	return fmt.Sprintf("[Could not read %q: %s. Paste the text of the document instead.]", filename, reason)
}
