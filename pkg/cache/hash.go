package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Hash returns the hex SHA-256 digest of data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// HashJSON digests the JSON encoding of values, in order. Problems and
// solutions hash by content, so an edited file never hits a stale entry.
func HashJSON(values ...any) (string, error) {
	h := sha256.New()
	enc := json.NewEncoder(h)
	for _, v := range values {
		if err := enc.Encode(v); err != nil {
			return "", err
		}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// hashKey namespaces the digest of parts under prefix: "prefix:digest".
// Parts are strings and numbers, which always encode.
func hashKey(prefix string, parts ...any) string {
	digest, _ := HashJSON(parts...)
	return prefix + ":" + digest
}
