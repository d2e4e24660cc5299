// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package qualys

import (
	"fmt"

	"github.com/pdiddy/qualys-vmdr/internal/coerce"
	"github.com/pdiddy/qualys-vmdr/internal/xmlmap"
)

// SimpleReturn is the generic envelope Qualys answers with for errors,
// confirmations and empty results.
const SimpleReturn = "SIMPLE_RETURN"

// Envelope is a parsed XML response.
type Envelope struct {
	doc map[string]any
}

// ParseEnvelope parses raw as an XML response document.
func ParseEnvelope(raw []byte) (*Envelope, error) {
	doc, err := xmlmap.Parse(raw)
	if err != nil {
		return nil, err
	}
	return &Envelope{doc: doc}, nil
}

// Root returns the document's root element name.
func (e *Envelope) Root() string { return xmlmap.Root(e.doc) }

// Has reports whether the document's root is name.
func (e *Envelope) Has(name string) bool {
	_, ok := e.doc[name]
	return ok
}

// Dig walks path from the document root.
func (e *Envelope) Dig(path ...string) (any, bool) { return xmlmap.Dig(e.doc, path...) }

// DigString walks path from the document root to a text value.
func (e *Envelope) DigString(path ...string) (string, bool) {
	return xmlmap.DigString(e.doc, path...)
}

// Expect checks that the document is the envelope root. A SIMPLE_RETURN
// document becomes its APIError; any other root is an unexpected response.
func (e *Envelope) Expect(root string) error {
	if e.Has(root) {
		return nil
	}
	if apiErr := e.SimpleReturnError(); apiErr != nil {
		return apiErr
	}
	return &APIError{
		Message: fmt.Sprintf("expected %s response, got %q", root, e.Root()),
		Err:     ErrUnexpectedResponse,
	}
}

// SimpleReturnError returns the failure a SIMPLE_RETURN document reports,
// or nil when the document is not one.
func (e *Envelope) SimpleReturnError() *APIError {
	if !e.Has(SimpleReturn) {
		return nil
	}
	text, _ := e.DigString(SimpleReturn, "RESPONSE", "TEXT")
	apiErr := &APIError{Message: text}
	if code, ok := e.DigString(SimpleReturn, "RESPONSE", "CODE"); ok && code != "" {
		if n, err := coerce.Int(code); err == nil {
			apiErr.Code = n
		}
	}
	return apiErr
}

// Items returns the records under path, applying the one-or-many rule. A
// missing path yields an empty result.
func (e *Envelope) Items(path ...string) ([]map[string]any, error) {
	v, ok := e.Dig(path...)
	if !ok || v == nil {
		return nil, nil
	}
	if s, isText := v.(string); isText && s == "" {
		return nil, nil
	}
	return coerce.Maps(v)
}

// simpleReturnFromBody parses raw and returns its SIMPLE_RETURN failure, or
// nil when raw is not a SIMPLE_RETURN document.
func simpleReturnFromBody(raw []byte) *APIError {
	if !xmlmap.IsXML(raw) {
		return nil
	}
	env, err := ParseEnvelope(raw)
	if err != nil {
		return nil
	}
	return env.SimpleReturnError()
}
