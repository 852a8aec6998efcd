// Package textutil provides the text processing used to turn raw messages into terms.
package textutil

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// tokenizeRe matches runs of two or more word characters (Python's (?u)\b\w\w+\b).
var tokenizeRe = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)

// Tokenize extracts word tokens from text.
func Tokenize(text string) []string {
	return tokenizeRe.FindAllString(text, -1)
}

// TokenNgrams returns n-grams from a list of tokens, joined by space.
func TokenNgrams(tokens []string, minN, maxN int) []string {
	tLen := len(tokens)
	var res []string
	for n := minN; n <= maxN && n <= tLen; n++ {
		for i := 0; i <= tLen-n; i++ {
			res = append(res, strings.Join(tokens[i:i+n], " "))
		}
	}
	return res
}

// RemoveWords drops every token present in words. The input slice is not modified.
func RemoveWords(tokens []string, words map[string]bool) []string {
	if len(words) == 0 {
		return tokens
	}
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if !words[t] {
			out = append(out, t)
		}
	}
	return out
}

var (
	newlineRe    = regexp.MustCompile(`[\n\r]`)
	multiSpaceRe = regexp.MustCompile(`\s{2,}`)
	htmlTagRe    = regexp.MustCompile(`(?i)</?[a-z][a-z0-9]*(\s[^<>]*)?/?>`)
)

// NormalizeWhitespaces replaces newlines and multiple whitespace with a single space.
func NormalizeWhitespaces(text string) string {
	text = newlineRe.ReplaceAllString(text, " ")
	return multiSpaceRe.ReplaceAllString(text, " ")
}

// LooksLikeHTML reports whether text contains at least one HTML tag.
func LooksLikeHTML(text string) bool {
	return strings.IndexByte(text, '<') >= 0 && htmlTagRe.MatchString(text)
}

// StripHTML returns the visible text of an HTML message body. Script and style
// contents are dropped. Text without markup is returned unchanged.
func StripHTML(text string) string {
	if !LooksLikeHTML(text) {
		return text
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
	if err != nil {
		return text
	}
	doc.Find("script, style, head").Remove()

	var parts []string
	collectText(doc.Find("body"), &parts)
	return NormalizeWhitespaces(strings.Join(parts, " "))
}

// collectText appends every non-blank text node below s, in document order.
func collectText(s *goquery.Selection, parts *[]string) {
	s.Contents().Each(func(_ int, c *goquery.Selection) {
		if goquery.NodeName(c) == "#text" {
			if t := strings.TrimSpace(c.Text()); t != "" {
				*parts = append(*parts, t)
			}
			return
		}
		collectText(c, parts)
	})
}
