package pas

import (
	"strings"

	"github.com/google/uuid"
)

// normalizeGUID returns the canonical form of raw, or "" for empty, malformed
// or all-zero values. The PAS answers "no match" with the zero GUID.
func normalizeGUID(raw string) string {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil || id == uuid.Nil {
		return ""
	}
	return id.String()
}

func isNilGUID(raw string) bool {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	return err == nil && id == uuid.Nil
}
