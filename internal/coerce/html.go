// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package coerce

import (
	"strings"

	"golang.org/x/net/html"
)

// StripHTML removes markup from s and returns only the visible text, with
// entities decoded. Text that merely resembles markup (a bare "<", a file
// path, a URL) passes through unchanged; the tokenizer never fails on it.
func StripHTML(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return s
	}

	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(s))
	for {
		switch z.Next() {
		case html.ErrorToken:
			// io.EOF is the only error a strings.Reader can produce.
			return b.String()
		case html.TextToken:
			b.Write(z.Text())
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			if string(name) == "br" {
				b.WriteByte('\n')
			}
		}
	}
}
