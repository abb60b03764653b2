package storage

import (
	"fmt"
	"strings"
)

// MaxPayloadBytes caps a single archived payload.
const MaxPayloadBytes int64 = 5 << 20

// ValidateObjectKey rejects keys that would escape the archive prefix.
func ValidateObjectKey(key string) error {
	if key == "" {
		return fmt.Errorf("object key is empty")
	}
	if strings.HasPrefix(key, "/") || strings.Contains(key, "..") || strings.Contains(key, "\\") {
		return fmt.Errorf("object key %q is not allowed", key)
	}
	return nil
}

// ValidatePayloadSize checks if the payload size is within limits.
func ValidatePayloadSize(sizeBytes int64) error {
	if sizeBytes <= 0 {
		return fmt.Errorf("payload size must be greater than 0")
	}
	if sizeBytes > MaxPayloadBytes {
		return fmt.Errorf("payload size %d bytes exceeds maximum allowed size of %d bytes", sizeBytes, MaxPayloadBytes)
	}
	return nil
}
