// internal/security/scrubber.go
package security

import "regexp"

var (
	// rclone connection-string style credentials: :backend,pass=...: or flags
	// like --password=..., --sftp-pass=...
	credFlagPattern = regexp.MustCompile(`(?i)(--?[\w-]*(?:pass|password|token|secret|key-id|client-secret)[\w-]*)=\S+`)
	// Bearer tokens in proxied HTTP debug output
	bearerPattern = regexp.MustCompile(`Bearer\s+\S{20,}`)
	// Signed URL credentials (S3 presign, SAS) in verbose output
	signedURLPattern = regexp.MustCompile(`(?i)(X-Amz-(?:Signature|Credential)|sig|sv)=[\w%/+-]{16,}`)
	// Long hex strings (32+ chars), likely API keys
	hexKeyPattern = regexp.MustCompile(`\b[0-9a-fA-F]{32,}\b`)
)

// ScrubOutput redacts credential-looking content from captured rclone output
// before it is stored in the history database.
func ScrubOutput(output string) string {
	result := credFlagPattern.ReplaceAllString(output, "$1=[REDACTED]")
	result = bearerPattern.ReplaceAllString(result, "Bearer [REDACTED]")
	result = signedURLPattern.ReplaceAllString(result, "$1=[REDACTED]")
	result = hexKeyPattern.ReplaceAllString(result, "[REDACTED]")
	return result
}
