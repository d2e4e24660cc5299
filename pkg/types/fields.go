// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"time"

	"github.com/pdiddy/qualys-vmdr/internal/coerce"
)

// fields reads typed values out of one parsed XML element. The first
// coercion failure is kept and every later read becomes a no-op, so a
// constructor can read all its fields and check err once.
type fields struct {
	record string
	m      map[string]any
	err    error
}

// readFields checks the required keys of m and returns a reader over it.
func readFields(record string, m map[string]any, required ...string) (*fields, error) {
	if missing := coerce.Missing(m, required...); len(missing) > 0 {
		return nil, &ValidationError{Record: record, Missing: missing}
	}
	return &fields{record: record, m: m}, nil
}

func (f *fields) fail(key string, err error) {
	if f.err == nil {
		f.err = &ValidationError{Record: f.record, Field: key, Err: err}
	}
}

// get returns the raw value for key. Absent keys and explicit nils both
// report false.
func (f *fields) get(key string) (any, bool) {
	if f.err != nil {
		return nil, false
	}
	v, ok := f.m[key]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// blank reports whether v is an empty element.
func blank(v any) bool {
	s, ok := v.(string)
	return ok && s == ""
}

func (f *fields) int(key string) int {
	v, ok := f.get(key)
	if !ok {
		if f.err == nil {
			f.fail(key, fmt.Errorf("value is empty"))
		}
		return 0
	}
	n, err := coerce.Int(v)
	if err != nil {
		f.fail(key, err)
	}
	return n
}

func (f *fields) str(key string) string {
	v, ok := f.get(key)
	if !ok {
		if f.err == nil {
			f.fail(key, fmt.Errorf("value is empty"))
		}
		return ""
	}
	s, err := coerce.String(v)
	if err != nil {
		f.fail(key, err)
	}
	return s
}

func (f *fields) optInt(key string) *int {
	v, ok := f.get(key)
	if !ok || blank(v) {
		return nil
	}
	n, err := coerce.Int(v)
	if err != nil {
		f.fail(key, err)
		return nil
	}
	return &n
}

func (f *fields) optFloat(key string) *float64 {
	v, ok := f.get(key)
	if !ok || blank(v) {
		return nil
	}
	n, err := coerce.Float(v)
	if err != nil {
		f.fail(key, err)
		return nil
	}
	return &n
}

func (f *fields) optBool(key string) *bool {
	v, ok := f.get(key)
	if !ok || blank(v) {
		return nil
	}
	b, err := coerce.Bool(v)
	if err != nil {
		f.fail(key, err)
		return nil
	}
	return &b
}

func (f *fields) optString(key string) *string {
	v, ok := f.get(key)
	if !ok {
		return nil
	}
	s, err := coerce.String(v)
	if err != nil {
		f.fail(key, err)
		return nil
	}
	return &s
}

// optText is optString with markup stripped down to visible text.
func (f *fields) optText(key string) *string {
	s := f.optString(key)
	if s == nil {
		return nil
	}
	plain := coerce.StripHTML(*s)
	return &plain
}

func (f *fields) optTime(key string) *time.Time {
	v, ok := f.get(key)
	if !ok {
		return nil
	}
	t, err := coerce.Time(v)
	if err != nil {
		f.fail(key, err)
		return nil
	}
	return t
}

// nested returns the mapping under key, or nil when the key is absent or the
// element is empty.
func (f *fields) nested(key string) map[string]any {
	v, ok := f.get(key)
	if !ok || blank(v) {
		return nil
	}
	m, err := coerce.Map(v)
	if err != nil {
		f.fail(key, err)
		return nil
	}
	return m
}

// repeated returns the elements named child inside the container element
// key, applying the one-or-many rule. An absent or empty container yields nil.
func (f *fields) repeated(key, child string) []map[string]any {
	container := f.nested(key)
	if container == nil {
		return nil
	}
	items, ok := container[child]
	if !ok || items == nil {
		return nil
	}
	maps, err := coerce.Maps(items)
	if err != nil {
		f.fail(key, err)
		return nil
	}
	return maps
}

// wrap records a nested construction failure against key.
func (f *fields) wrap(key string, err error) {
	if err != nil {
		f.fail(key, err)
	}
}

// Value helpers used by ToMap implementations. Absent optionals become nil.

func intOrNil(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

func floatOrNil(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

func boolOrNil(p *bool) any {
	if p == nil {
		return nil
	}
	return *p
}

func stringOrNil(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func timeOrNil(p *time.Time) any {
	if p == nil {
		return nil
	}
	return *p
}

// Copy helpers for pointer fields.

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}
