// Package shortcode derives fixed-length short codes from URLs.
package shortcode

import (
	"crypto/sha256"
	"encoding/base64"
)

// Length is the fixed size of every generated code.
const Length = 7

// Generate maps (url, salt) to a 7-character code over the unpadded
// base64url alphabet. It is deterministic and pure: the collision-retry
// loop in the registrar depends on regenerating identical candidates, so
// there is no randomness and no clock here. Collision resolution appends a
// counter as the salt and re-hashes.
func Generate(url, salt string) string {
	sum := sha256.Sum256([]byte(url + salt))
	return base64.RawURLEncoding.EncodeToString(sum[:])[:Length]
}
