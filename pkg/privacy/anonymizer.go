package privacy

import (
	"crypto/sha256"
	"encoding/hex"

	lru "github.com/hashicorp/golang-lru/v2"
)

// anonCacheSize bounds the hash memoization cache. Hot sessions hit the
// cache on every event; cold entries age out under LRU pressure.
const anonCacheSize = 4096

// Anonymizer replaces raw session identifiers with a one-way, deterministic
// hash. The same raw id always maps to the same reference, so correlated
// events can be grouped without ever storing the raw identifier.
type Anonymizer struct {
	salt  string
	cache *lru.Cache[string, string]
}

// NewAnonymizer creates an anonymizer. The salt is mixed into every hash;
// deployments that need cross-restart stability must configure a fixed salt.
func NewAnonymizer(salt string) (*Anonymizer, error) {
	cache, err := lru.New[string, string](anonCacheSize)
	if err != nil {
		return nil, err
	}
	return &Anonymizer{salt: salt, cache: cache}, nil
}

// Anonymize returns the stable anonymous reference for raw. Empty input
// yields an empty reference.
func (a *Anonymizer) Anonymize(raw string) string {
	if raw == "" {
		return ""
	}
	if ref, ok := a.cache.Get(raw); ok {
		return ref
	}
	sum := sha256.Sum256([]byte(a.salt + ":" + raw))
	ref := "anon-" + hex.EncodeToString(sum[:8])
	a.cache.Add(raw, ref)
	return ref
}
