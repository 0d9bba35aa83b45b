package env

import (
	"os"
	"strings"
)

// String returns the first non-blank value among keys, or fallback.
func String(fallback string, keys ...string) string {
	for _, key := range keys {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return v
		}
	}
	return fallback
}
