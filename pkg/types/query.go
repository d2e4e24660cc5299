// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"slices"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/vm"

	"github.com/pdiddy/qualys-vmdr/internal/coerce"
)

// Query is a compiled record filter. The language is expr
// (https://expr-lang.org) evaluated over a record's ToMap form, e.g.
//
//	SEVERITY >= 4 and STATUS != "Fixed" and like(RESULTS, "openssl")
//	QDS["#text"] >= 90 and LAST_FOUND_DATETIME > date("2024-02-01")
//
// like(field, text) is a case-insensitive substring match. A record whose
// evaluation fails, for example an ordered comparison against an absent
// (nil) field, does not match.
type Query struct {
	src     string
	program *vm.Program
}

// CompileQuery compiles src. When fields is non-empty, identifiers other
// than those field names are rejected.
func CompileQuery(src string, fields []string) (*Query, error) {
	if strings.TrimSpace(src) == "" {
		return nil, fmt.Errorf("empty query")
	}

	check := &fieldCheck{known: fields, seen: map[string]int{}}
	program, err := expr.Compile(src,
		expr.AsBool(),
		expr.Function("like", like, new(func(any, string) bool)),
		expr.Patch(check),
	)
	if err != nil {
		return nil, fmt.Errorf("compiling query: %w", err)
	}
	if unknown := check.unknown(); len(unknown) > 0 {
		return nil, fmt.Errorf("query %q: unknown field %s", src, strings.Join(unknown, ", "))
	}
	return &Query{src: src, program: program}, nil
}

// String returns the query source.
func (q *Query) String() string { return q.src }

// Match reports whether the record mapping m satisfies q.
func (q *Query) Match(m map[string]any) bool {
	out, err := expr.Run(q.program, m)
	if err != nil {
		return false
	}
	ok, _ := out.(bool)
	return ok
}

// like is a nil-safe case-insensitive substring test.
func like(params ...any) (any, error) {
	if params[0] == nil {
		return false, nil
	}
	s, err := coerce.String(params[0])
	if err != nil {
		return false, nil
	}
	sub, _ := params[1].(string)
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub)), nil
}

// fieldCheck records the identifiers a query references. Function callees
// are discounted when their call node is visited.
type fieldCheck struct {
	known []string
	seen  map[string]int
}

func (c *fieldCheck) Visit(node *ast.Node) {
	switch n := (*node).(type) {
	case *ast.IdentifierNode:
		c.seen[n.Value]++
	case *ast.CallNode:
		if id, ok := n.Callee.(*ast.IdentifierNode); ok {
			c.seen[id.Value]--
		}
	}
}

func (c *fieldCheck) unknown() []string {
	if len(c.known) == 0 {
		return nil
	}
	var out []string
	for name, n := range c.seen {
		if n > 0 && !slices.Contains(c.known, name) {
			out = append(out, name)
		}
	}
	slices.Sort(out)
	return out
}

// Where returns the records of l whose ToMap form satisfies src. Field
// names are the element names of T.
func Where[T Mapper](l List[T], src string) (List[T], error) {
	var zero T
	fields := make([]string, 0, 24)
	for k := range zero.ToMap() {
		fields = append(fields, k)
	}

	q, err := CompileQuery(src, fields)
	if err != nil {
		return nil, err
	}
	return l.Filter(func(item T) bool {
		return q.Match(item.ToMap())
	}), nil
}
