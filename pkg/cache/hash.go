package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// hashKey derives "kind:<hex sha256>" from the JSON encoding of parts.
// parts must be JSON-encodable; map keys are sorted by encoding/json so
// equal option sets hash equally.
func hashKey(kind string, parts ...any) string {
	data, err := json.Marshal(parts)
	if err != nil {
		panic("cache: unhashable key part: " + err.Error())
	}
	return kind + ":" + Hash(data)
}

// Hash returns the hex SHA-256 of data. It identifies .lay payloads.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
