package keys

import (
	"crypto/sha256"
	"encoding/base64"
	"errors"
)

// MaxLen is the longest physical key written to the store, in bytes.
const MaxLen = 250

var ErrEmpty = errors.New("bucketcache: empty key")

// Join returns the logical key inside its region: "region:key", or key when
// region is empty.
func Join(region, key string) string {
	if region == "" {
		return key
	}
	return region + ":" + key
}

// Store derives the physical key for (region, key). Keys longer than MaxLen
// are replaced by the base64 SHA-256 digest of the joined form.
// digested reports whether the digest was applied.
func Store(region, key string) (storeKey string, digested bool, err error) {
	if key == "" {
		return "", false, ErrEmpty
	}
	full := Join(region, key)
	if len(full) <= MaxLen {
		return full, false, nil
	}
	return Digest(full), true, nil
}

// Digest is base64(sha256(s)), always 44 bytes.
func Digest(s string) string {
	sum := sha256.Sum256([]byte(s))
	return base64.StdEncoding.EncodeToString(sum[:])
}
