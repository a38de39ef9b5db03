// Package testutil provides shared generators for property-based testing.
// String generators are intentionally aggressive to catch edge cases.
package testutil

import (
	"strings"

	"pgregory.net/rapid"
)

// ArbitraryNoteContent generates note content: normal text, Unicode,
// hashtag-heavy text, SQL injection attempts, whitespace padding, and long
// strings. Never blank after trimming.
func ArbitraryNoteContent() *rapid.Generator[string] {
	return rapid.OneOf(
		rapid.StringMatching(`[a-zA-Z0-9 .,!?]{1,100}`),
		arbitraryHashtagText(),
		arbitraryUnicode(),
		arbitrarySQLInjection(),
		arbitraryPadded(),
		arbitraryLongString(),
	)
}

// ArbitraryTagName generates raw tag names the way users type them:
// with and without '#' edges, mixed case, Unicode, padded.
func ArbitraryTagName() *rapid.Generator[string] {
	return rapid.Custom(func(t *rapid.T) string {
		core := rapid.OneOf(
			rapid.StringMatching(`[a-zA-Z0-9_]{1,20}`),
			rapid.SampledFrom([]string{"读书", "работа", "日記", "идея_2024"}),
		).Draw(t, "core")
		prefix := rapid.SampledFrom([]string{"", "#", "##", " #", "  "}).Draw(t, "prefix")
		suffix := rapid.SampledFrom([]string{"", "#", " ", " #"}).Draw(t, "suffix")
		return prefix + core + suffix
	})
}

// ArbitrarySearchQuery generates free-text search inputs, including strings
// that would break a naive LIKE query.
func ArbitrarySearchQuery() *rapid.Generator[string] {
	return rapid.OneOf(
		rapid.StringMatching(`[a-z]{1,15}`),
		rapid.SampledFrom([]string{"%", "_", "%%", `\`, `'`, "读书"}),
		arbitrarySQLInjection(),
	)
}

func arbitraryHashtagText() *rapid.Generator[string] {
	return rapid.Custom(func(t *rapid.T) string {
		body := rapid.StringMatching(`[a-z ]{1,40}`).Draw(t, "body")
		tag := rapid.StringMatching(`[a-z_]{1,10}`).Draw(t, "tag")
		return body + " #" + tag
	})
}

func arbitraryUnicode() *rapid.Generator[string] {
	return rapid.SampledFrom([]string{
		"今日は良い天気 #天気",
		"работа над проектом",
		"café ☕ notes",
		"emoji only 🎉🎊",
		" nbsp padded ",
	})
}

func arbitrarySQLInjection() *rapid.Generator[string] {
	return rapid.SampledFrom([]string{
		`' OR 1=1 --`,
		`'; DROP TABLE notes; --`,
		`" OR ""="`,
		`Robert'); DROP TABLE tags;--`,
	})
}

func arbitraryPadded() *rapid.Generator[string] {
	return rapid.Custom(func(t *rapid.T) string {
		core := rapid.StringMatching(`[a-z]{1,20}`).Draw(t, "core")
		pad := rapid.SampledFrom([]string{" ", "  ", "\t", "\n", " \n "}).Draw(t, "pad")
		return pad + core + pad
	})
}

func arbitraryLongString() *rapid.Generator[string] {
	return rapid.Custom(func(t *rapid.T) string {
		word := rapid.StringMatching(`[a-z]{3,8}`).Draw(t, "word")
		n := rapid.IntRange(100, 500).Draw(t, "n")
		return strings.Repeat(word+" ", n)
	})
}
