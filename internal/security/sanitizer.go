// internal/security/sanitizer.go
package security

import "strings"

// SanitizeValue sanitizes an event-supplied template value before it is
// interpolated into a destination path:
//   - strips control characters
//   - collapses ".." segments so webhook payloads cannot traverse upward
//   - truncates to 256 characters
func SanitizeValue(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r < 0x20 || r == 0x7f {
			continue
		}
		b.WriteRune(r)
	}
	result := b.String()

	for strings.Contains(result, "..") {
		result = strings.ReplaceAll(result, "..", ".")
	}

	if len(result) > 256 {
		result = result[:256]
	}

	return result
}
