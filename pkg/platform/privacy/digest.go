package privacy

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// ErrEmptyKey is returned when a Hasher is constructed without a key.
var ErrEmptyKey = errors.New("privacy: digest key must not be empty")

// Hasher produces stable keyed digests of identifiers (government ids, emails)
// so they can be correlated across events without being stored in clear text.
type Hasher struct {
	key []byte
}

// NewHasher builds a Hasher. The key is used as a BLAKE2b MAC key and must be
// between 1 and 64 bytes.
func NewHasher(key string) (*Hasher, error) {
	if key == "" {
		return nil, ErrEmptyKey
	}
	if len(key) > blake2b.Size {
		return nil, fmt.Errorf("privacy: digest key longer than %d bytes", blake2b.Size)
	}
	return &Hasher{key: []byte(key)}, nil
}

// Digest returns the hex encoded keyed BLAKE2b-256 digest of value.
// Values are case-folded and trimmed first so "ab12 " and "AB12" correlate.
func (h *Hasher) Digest(value string) string {
	if h == nil || value == "" {
		return ""
	}
	mac, err := blake2b.New256(h.key)
	if err != nil {
		// key length is validated in NewHasher
		return ""
	}
	mac.Write([]byte(strings.ToLower(strings.TrimSpace(value))))
	return hex.EncodeToString(mac.Sum(nil))
}
