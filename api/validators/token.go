package validators

import (
	"errors"
	"strings"
)

var ErrInvalidToken = errors.New("invalid auth token")

func isTokenScheme(word string) bool {
	return strings.EqualFold(word, "bearer") || strings.EqualFold(word, "jwt")
}

// ParseAuthToken strips the Bearer or JWT scheme from an Authorization header value.
// A bare token is accepted; a scheme with no token is not.
func ParseAuthToken(raw string) (string, error) {
	parts := strings.Fields(raw)
	switch {
	case len(parts) == 1 && !isTokenScheme(parts[0]):
		return parts[0], nil
	case len(parts) == 2 && isTokenScheme(parts[0]):
		return parts[1], nil
	}
	return "", ErrInvalidToken
}
