package hasher

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/satriahrh/confidant/domain"
)

// New returns a domain.Hasher backed by SHA-256, optionally salted so
// fingerprints of short phrases cannot be looked up in a table.
func New(salt string) domain.Hasher { return sha256Hasher{salt: []byte(salt)} }

type sha256Hasher struct {
	salt []byte
}

func (h sha256Hasher) Hash(data []byte) string {
	sum := sha256.New()
	sum.Write(h.salt)
	sum.Write(data)
	return hex.EncodeToString(sum.Sum(nil))
}
