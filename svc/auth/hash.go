package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"

	"github.com/hkauso/pastemd/svc/util"
)

// GeneratedPasswordLength is the size of the plaintext handed back to a
// creator who supplied no edit password.
const GeneratedPasswordLength = 10

// Hasher is the credential codec for edit passwords. Hashing is
// deterministic: equal plaintexts always produce the same opaque, which
// keeps stored hashes comparable across records and restarts.
type Hasher struct{}

func NewHasher() *Hasher {
	return &Hasher{}
}

func (h *Hasher) Hash(plaintext string) string {
	sum := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(sum[:])
}

func (h *Hasher) Verify(plaintext, opaque string) bool {
	computed := h.Hash(plaintext)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(opaque)) == 1
}

// GeneratePassword returns a fresh random plaintext. The caller persists
// only its hash; the plaintext is returned to the creator exactly once.
func (h *Hasher) GeneratePassword() (string, error) {
	return util.RandomString(GeneratedPasswordLength)
}
