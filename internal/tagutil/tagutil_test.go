package tagutil

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func testNormalize_Idempotent(t *rapid.T) {
	raw := rapid.String().Draw(t, "raw")
	once := Normalize(raw)
	twice := Normalize(once)
	if once != twice {
		t.Fatalf("Normalize not idempotent: %q -> %q -> %q", raw, once, twice)
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	t.Parallel()
	rapid.Check(t, testNormalize_Idempotent)
}

func testNormalize_NeverKeepsEdgeHashOrSpace(t *rapid.T) {
	raw := rapid.String().Draw(t, "raw")
	got := Normalize(raw)
	if got == "" {
		return
	}
	if strings.HasPrefix(got, "#") || strings.HasSuffix(got, "#") {
		t.Fatalf("Normalize(%q) = %q keeps edge '#'", raw, got)
	}
	if got != strings.TrimSpace(got) {
		t.Fatalf("Normalize(%q) = %q keeps edge whitespace", raw, got)
	}
}

func TestNormalize_NeverKeepsEdgeHashOrSpace(t *testing.T) {
	t.Parallel()
	rapid.Check(t, testNormalize_NeverKeepsEdgeHashOrSpace)
}

func TestNormalize_Examples(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"work":      "work",
		"#work":     "work",
		"#work ":    "work",
		" # work #": "work",
		"##":        "",
		"   ":       "",
		"#读书":       "读书",
		"a#b":       "a#b",
	}
	for raw, want := range cases {
		assert.Equal(t, want, Normalize(raw), "Normalize(%q)", raw)
	}
}

func TestKey_CaseInsensitive(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Key(Normalize("Work")), Key(Normalize("work")))
	assert.Equal(t, "work", Key(Normalize("#work ")))
	assert.Equal(t, "读书", NormalizedKey("#读书"))
}

func TestExtractHashtags_DedupAndOrder(t *testing.T) {
	t.Parallel()

	tags := ExtractHashtags("plan #Work then #life and #Work again #工作_2")
	assert.Equal(t, []string{"Work", "life", "工作_2"}, tags)
}

func TestExtractHashtags_NoTags(t *testing.T) {
	t.Parallel()

	assert.Nil(t, ExtractHashtags("no tags here"))
	assert.Nil(t, ExtractHashtags(""))
	// A bare '#' with no word characters is not a tag.
	assert.Nil(t, ExtractHashtags("# ## #!"))
}

func testExtractHashtags_AllExtractedNormalizeNonEmpty(t *rapid.T) {
	words := rapid.SliceOfN(rapid.StringMatching(`[a-zA-Z0-9_]{1,8}`), 1, 6).Draw(t, "words")
	var b strings.Builder
	for _, w := range words {
		b.WriteString("#")
		b.WriteString(w)
		b.WriteString(" filler ")
	}
	for _, tag := range ExtractHashtags(b.String()) {
		if Normalize(tag) == "" {
			t.Fatalf("extracted tag %q normalizes to empty", tag)
		}
	}
}

func TestExtractHashtags_AllExtractedNormalizeNonEmpty(t *testing.T) {
	t.Parallel()
	rapid.Check(t, testExtractHashtags_AllExtractedNormalizeNonEmpty)
}
