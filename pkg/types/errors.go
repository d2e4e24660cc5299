// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"strings"
)

// ValidationError reports that a record could not be built from a parsed
// API element. Either Missing lists absent required keys, or Field names the
// key whose value could not be coerced and Err holds the cause.
type ValidationError struct {
	// Record is the record type being built (e.g. "Detection").
	Record string

	// Missing lists required keys absent from the input, sorted.
	Missing []string

	// Field is the key whose value was malformed.
	Field string

	// Err is the coercion failure for Field.
	Err error
}

func (e *ValidationError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("%s: missing required field(s): %s", e.Record, strings.Join(e.Missing, ", "))
	}
	return fmt.Sprintf("%s: invalid %s: %v", e.Record, e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }
