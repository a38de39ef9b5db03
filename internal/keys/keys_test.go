package keys

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestFromPassphraseDeterministic(t *testing.T) {
	a := FromPassphrase("correct horse battery staple")
	b := FromPassphrase("correct horse battery staple")
	assert.Equal(t, a, b)
	assert.Len(t, a, KeySize)
}

func TestFromPassphraseDistinct(t *testing.T) {
	assert.NotEqual(t, FromPassphrase("one"), FromPassphrase("two"))
	assert.NotEqual(t, FromPassphrase(""), FromPassphrase(" "))
}

func TestFromPassphraseProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		p := rapid.String().Draw(t, "passphrase")
		key := FromPassphrase(p)
		if len(key) != KeySize {
			t.Fatalf("key length %d", len(key))
		}
		if string(key) == p {
			t.Fatal("key must not echo the passphrase")
		}
	})
}
