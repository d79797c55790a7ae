package util

import "strings"

// Normalize performs basic string normalization (lowercase + trim)
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// CleanTag prepares a hashtag for the sentiment model. The '#' marker is
// noise to a classifier trained on natural text, and underscores stand in
// for spaces in multi-word tags.
func CleanTag(tag string) string {
	tag = strings.ReplaceAll(tag, "#", "")
	return strings.ReplaceAll(tag, "_", " ")
}

// RegionSlug converts a region label to its URL path segment.
func RegionSlug(region string) string {
	return strings.ReplaceAll(Normalize(region), " ", "-")
}

// UniqueStrings removes duplicates while preserving first-seen order.
func UniqueStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))

	for _, v := range values {
		if _, exists := seen[v]; !exists {
			seen[v] = struct{}{}
			result = append(result, v)
		}
	}

	return result
}
