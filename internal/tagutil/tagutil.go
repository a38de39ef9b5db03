// Package tagutil canonicalizes tag names and extracts hashtags from note
// content. Normalize produces the display form; Key produces the lowercase
// identity every lookup and uniqueness check runs on.
package tagutil

import (
	"regexp"
	"strings"
	"unicode"
)

// hashtagRe matches #tag with Unicode letters, digits, and underscore.
var hashtagRe = regexp.MustCompile(`#([\p{L}\p{N}_]+)`)

// Normalize trims surrounding whitespace and leading/trailing '#' from a raw
// tag name, producing the display form. Idempotent. An empty result means
// "no tag" and must be discarded by the caller.
func Normalize(raw string) string {
	return strings.TrimFunc(raw, func(r rune) bool {
		return unicode.IsSpace(r) || r == '#'
	})
}

// Key lowercases a normalized display name into the comparison key.
func Key(displayName string) string {
	return strings.ToLower(displayName)
}

// NormalizedKey is shorthand for Key(Normalize(raw)).
func NormalizedKey(raw string) string {
	return Key(Normalize(raw))
}

// ExtractHashtags returns all #tag names in text, deduplicated by first
// occurrence, order preserved. The returned names are raw captures without
// the leading '#'.
func ExtractHashtags(text string) []string {
	matches := hashtagRe.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(matches))
	tags := make([]string, 0, len(matches))
	for _, m := range matches {
		name := m[1]
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		tags = append(tags, name)
	}
	return tags
}
