package config

import "strings"

// enumNormalizer maps case-insensitive user input onto a typed enum value.
type enumNormalizer[T ~string] struct {
	values map[string]T
}

func newEnumNormalizer[T ~string](values ...T) enumNormalizer[T] {
	m := make(map[string]T, len(values))
	for _, v := range values {
		m[string(v)] = v
	}
	return enumNormalizer[T]{values: m}
}

// normalize returns the typed value or "" when raw is unknown.
func (n enumNormalizer[T]) normalize(raw string) T {
	return n.values[strings.ToLower(strings.TrimSpace(raw))]
}

// SortBy selects the ordering key of a collection.
type SortBy string

const (
	SortByDate  SortBy = "date"
	SortByTitle SortBy = "title"
	SortByPath  SortBy = "path"
)

var sortByNormalizer = newEnumNormalizer(SortByDate, SortByTitle, SortByPath)

// NormalizeSortBy converts user input into a SortBy, returning "" for unknown values.
func NormalizeSortBy(raw string) SortBy { return sortByNormalizer.normalize(raw) }

// RetryBackoffMode enumerates supported backoff strategies for retries.
type RetryBackoffMode string

const (
	RetryBackoffFixed       RetryBackoffMode = "fixed"
	RetryBackoffLinear      RetryBackoffMode = "linear"
	RetryBackoffExponential RetryBackoffMode = "exponential"
)

var retryBackoffNormalizer = newEnumNormalizer(RetryBackoffFixed, RetryBackoffLinear, RetryBackoffExponential)

// NormalizeRetryBackoff converts arbitrary user input (case-insensitive) into a typed mode, returning empty string for unknown.
func NormalizeRetryBackoff(raw string) RetryBackoffMode {
	return retryBackoffNormalizer.normalize(raw)
}
