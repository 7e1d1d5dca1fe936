// Package validation checks request parameters before they reach the services.
package validation

import (
	"fmt"
	"slices"
	"strings"
)

// Error collects per-field validation messages.
type Error struct {
	Fields map[string]string
}

func (e *Error) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		msgs = append(msgs, fmt.Sprintf("%s: %s", field, msg))
	}
	slices.Sort(msgs)
	return strings.Join(msgs, "; ")
}
