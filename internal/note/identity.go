package note

import (
	"crypto/sha1"
	"encoding/hex"
	"strconv"
)

// DeriveGUID returns a stable key for a note. A non-empty rawGUID is trusted
// as globally unique and returned unchanged. Otherwise a deterministic sha1
// digest over (title, created, updated, html) is used, so re-importing
// byte-identical archives without native identifiers stays idempotent.
//
// The field order is a compatibility contract: reordering it changes derived
// guids for every historical archive.
func DeriveGUID(rawGUID, title string, createdAt, updatedAt *int64, html string) string {
	if rawGUID != "" {
		return rawGUID
	}

	h := sha1.New()
	h.Write([]byte(title))
	h.Write([]byte(timestampKey(createdAt)))
	h.Write([]byte(timestampKey(updatedAt)))
	h.Write([]byte(html))
	return hex.EncodeToString(h.Sum(nil))
}

// timestampKey renders a nullable timestamp for hashing: decimal seconds, or
// the empty string when absent.
func timestampKey(ts *int64) string {
	if ts == nil {
		return ""
	}
	return strconv.FormatInt(*ts, 10)
}
