// Package strings holds small list helpers shared by config parsing and
// store queries.
package strings

import (
	"strings"
)

// DedupeAndTrim trims each value and drops empties and repeats, keeping the
// first occurrence's position.
func DedupeAndTrim(values []string) []string {
	if len(values) == 0 {
		return values
	}
	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		result = append(result, trimmed)
	}
	return result
}

// SplitList splits a separated list such as "kafka-1:9092, kafka-2:9092,"
// and cleans it with DedupeAndTrim. An all-blank input yields nil.
func SplitList(s, sep string) []string {
	out := DedupeAndTrim(strings.Split(s, sep))
	if len(out) == 0 {
		return nil
	}
	return out
}
