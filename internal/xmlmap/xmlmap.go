// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package xmlmap parses XML documents into nested maps. An attribute "name"
// on element E appears as key "@name" inside E's map, and the text content
// of an element that also has attributes appears under "#text". Elements
// with text only collapse to a string. Repeated sibling elements become a
// []any; a single occurrence stays a bare value.
package xmlmap

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/clbanning/mxj/v2"
)

// AttrPrefix marks attribute keys in parsed maps.
const AttrPrefix = "@"

// TextKey holds element text when the element also carries attributes.
const TextKey = "#text"

func init() {
	mxj.SetAttrPrefix(AttrPrefix)
}

// Parse decodes raw XML into a nested map keyed by the root element name.
// DOCTYPE declarations are skipped and CDATA sections become plain text.
func Parse(raw []byte) (map[string]any, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, fmt.Errorf("parsing XML: empty document")
	}
	m, err := mxj.NewMapXml(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing XML: %w", err)
	}
	return map[string]any(m), nil
}

// Root returns the name of the single top-level element of a parsed document.
func Root(doc map[string]any) string {
	for k := range doc {
		return k
	}
	return ""
}

// Dig walks a path of element names through nested maps. It returns false
// when any step is missing or is not a map.
func Dig(doc map[string]any, path ...string) (any, bool) {
	var cur any = doc
	for _, key := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[key]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// DigString is Dig for leaf text values. Elements with attributes yield
// their #text content.
func DigString(doc map[string]any, path ...string) (string, bool) {
	v, ok := Dig(doc, path...)
	if !ok {
		return "", false
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t), true
	case map[string]any:
		if s, ok := t[TextKey].(string); ok {
			return strings.TrimSpace(s), true
		}
	}
	return "", false
}

// IsXML reports whether raw looks like an XML document rather than binary or
// delimited report content.
func IsXML(raw []byte) bool {
	trimmed := bytes.TrimSpace(raw)
	return bytes.HasPrefix(trimmed, []byte("<?xml")) || bytes.HasPrefix(trimmed, []byte("<!DOCTYPE")) ||
		(len(trimmed) > 1 && trimmed[0] == '<' && isNameStart(trimmed[1]))
}

func isNameStart(b byte) bool {
	return b == '_' || (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
}
