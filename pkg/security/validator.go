package security

import (
	"errors"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// MaxSearchQueryLength defines the maximum allowed length for search queries, in characters
	MaxSearchQueryLength = 100
)

var (
	errQueryTooLong     = errors.New("search query too long")
	errQueryInvalidChar = errors.New("search query contains invalid characters")
	errQueryBadPattern  = errors.New("search query is not a valid pattern")
)

// ValidateSearchQuery validates a name search query before it is used as a
// case-insensitive regular expression against the store.
func ValidateSearchQuery(query string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", nil
	}

	if utf8.RuneCountInString(query) > MaxSearchQueryLength {
		return "", errQueryTooLong
	}

	for _, char := range query {
		if !isValidSearchChar(char) {
			return "", errQueryInvalidChar
		}
	}

	if _, err := regexp.Compile("(?i)" + query); err != nil {
		return "", errQueryBadPattern
	}

	return query, nil
}

// isValidSearchChar rejects control characters and invalid UTF-8
func isValidSearchChar(char rune) bool {
	return char != utf8.RuneError && !unicode.IsControl(char)
}
