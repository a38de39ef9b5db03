// Package keys derives the 32-byte SQLCipher database key. A raw hex key can
// be supplied directly; a human-chosen passphrase goes through HKDF-SHA256
// with a fixed info string for domain separation, so the same passphrase
// always opens the same database and never doubles as a key elsewhere.
package keys

import (
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// KeySize is the SQLCipher key size in bytes (256 bits).
const KeySize = 32

const derivationInfo = "bbmemo:sqlcipher:v1"

// FromPassphrase derives a database key from a passphrase.
func FromPassphrase(passphrase string) []byte {
	r := hkdf.New(sha256.New, []byte(passphrase), nil, []byte(derivationInfo))
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(r, key); err != nil {
		// HKDF cannot fail for valid inputs at this output length.
		panic(fmt.Sprintf("HKDF failed: %v", err))
	}
	return key
}
