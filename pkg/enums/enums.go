// Package enums holds the closed string sets persisted in the database.
package enums

import (
	"fmt"
	"slices"
)

// parse returns raw as a T when it is one of known.
func parse[T ~string](kind string, known []T, raw string) (T, error) {
	if v := T(raw); slices.Contains(known, v) {
		return v, nil
	}
	return "", fmt.Errorf("invalid %s %q", kind, raw)
}
