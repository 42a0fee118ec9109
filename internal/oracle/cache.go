package oracle

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"slices"
)

// Cache stores validated oracle responses keyed by [CacheKey]. A cache is an
// optimisation only: the client treats every cache error as a miss.
//
// Implementations must be safe for concurrent use. See package
// oracle/cache for in-memory and persistent implementations.
type Cache interface {
	// Get returns the stored response for key. ok is false on a miss.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)

	// Set stores value under key.
	Set(ctx context.Context, key string, value []byte) error
}

// CacheKey derives a stable cache key from the template identity, the
// variable bindings, and the schema name. Bindings are hashed in sorted key
// order so map iteration order never changes the key.
func CacheKey(tmpl *Template, vars Vars, schema *Schema) string {
	h := sha256.New()
	write := func(s string) {
		h.Write([]byte(s))
		h.Write([]byte{0})
	}

	write(tmpl.Name)
	write(tmpl.Text)
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		write(k)
		write(vars[k])
	}
	write(schema.Name)
	return hex.EncodeToString(h.Sum(nil))
}
