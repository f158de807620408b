// Package htmlutil extracts readable text from HTML fragments. Chapter
// character offsets are computed from this text, so the rules here define
// what a "character" means for pagination.
package htmlutil

import (
	"io"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// blockTags is the set of tags that produce a line break during text
// extraction, preserving paragraph structure.
var blockTags = map[atom.Atom]bool{
	atom.P:          true,
	atom.Br:         true,
	atom.Div:        true,
	atom.H1:         true,
	atom.H2:         true,
	atom.H3:         true,
	atom.H4:         true,
	atom.H5:         true,
	atom.H6:         true,
	atom.Li:         true,
	atom.Tr:         true,
	atom.Blockquote: true,
	atom.Hr:         true,
}

// skipTags is the set of tags whose content is not readable text.
var skipTags = map[atom.Atom]bool{
	atom.Script: true,
	atom.Style:  true,
}

// ExtractText returns the plain-text content of an HTML fragment. Block
// elements produce newlines, script/style content is skipped, runs of
// whitespace collapse to a single space, and entities are decoded by the
// tokenizer.
func ExtractText(fragment string) (string, error) {
	tokenizer := html.NewTokenizer(strings.NewReader(fragment))

	var buf strings.Builder
	skipDepth := 0
	lastWasNewline := true

	for {
		tt := tokenizer.Next()
		switch tt {
		case html.ErrorToken:
			err := tokenizer.Err()
			if errors.Is(err, io.EOF) {
				return strings.TrimSpace(buf.String()), nil
			}
			return "", errors.WithStack(err)

		case html.StartTagToken, html.SelfClosingTagToken:
			tn, _ := tokenizer.TagName()
			a := atom.Lookup(tn)
			if skipTags[a] && tt == html.StartTagToken {
				skipDepth++
				continue
			}
			if skipDepth > 0 {
				continue
			}
			if blockTags[a] && buf.Len() > 0 && !lastWasNewline {
				buf.WriteByte('\n')
				lastWasNewline = true
			}

		case html.EndTagToken:
			tn, _ := tokenizer.TagName()
			a := atom.Lookup(tn)
			if skipTags[a] {
				if skipDepth > 0 {
					skipDepth--
				}
				continue
			}
			if skipDepth > 0 {
				continue
			}
			if blockTags[a] && buf.Len() > 0 && !lastWasNewline {
				buf.WriteByte('\n')
				lastWasNewline = true
			}

		case html.TextToken:
			if skipDepth > 0 {
				continue
			}
			text := collapseWhitespace(string(tokenizer.Text()))
			if text == "" {
				continue
			}
			if lastWasNewline {
				text = strings.TrimLeft(text, " ")
			}
			if text == "" {
				continue
			}
			buf.WriteString(text)
			lastWasNewline = false
		}
	}
}

// TextLength returns the number of readable characters (runes, not bytes) in
// an HTML fragment. Offset arithmetic across chapters is done in these
// units.
func TextLength(fragment string) (int, error) {
	text, err := ExtractText(fragment)
	if err != nil {
		return 0, err
	}
	return utf8.RuneCountInString(text), nil
}

// collapseWhitespace replaces each run of whitespace with a single space.
func collapseWhitespace(s string) string {
	var buf strings.Builder
	inSpace := false
	for _, r := range s {
		switch r {
		case ' ', '\t', '\n', '\r', '\f', ' ':
			if !inSpace {
				buf.WriteByte(' ')
				inSpace = true
			}
		default:
			buf.WriteRune(r)
			inSpace = false
		}
	}
	return buf.String()
}
