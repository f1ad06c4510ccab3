// Package render turns model output into HTML for the browser.
package render

import (
	"bytes"
	"strings"

	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var md = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
)

// Markdown converts Markdown text to HTML with surrounding whitespace trimmed. Raw HTML in
// the input is omitted.
func Markdown(text string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(text), &buf); err != nil {
		return "", errors.Wrap(err, "converting markdown")
	}
	return strings.TrimSpace(buf.String()), nil
}
