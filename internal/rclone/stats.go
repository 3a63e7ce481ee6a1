// internal/rclone/stats.go
package rclone

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

// Stats summarizes the trailing stat block rclone prints. Parsed for
// reporting only; transfer control decisions never depend on it.
type Stats struct {
	TransferredBytes uint64
	Checks           int
	Deleted          int
	Errors           int
}

var (
	transferredBytesRe = regexp.MustCompile(`(?m)^\s*Transferred:\s+([0-9.]+\s*[KMGTPEkmgtpe]?i?B(?:ytes)?)\b`)
	checksRe           = regexp.MustCompile(`(?m)^\s*Checks:\s+(\d+)`)
	deletedRe          = regexp.MustCompile(`(?m)^\s*Deleted:\s+(\d+)`)
	errorsRe           = regexp.MustCompile(`(?m)^\s*Errors:\s+(\d+)`)
)

// ParseStats extracts transfer statistics from captured rclone output. rclone
// repeats the stat block periodically; the last occurrence of each line wins.
func ParseStats(output string) Stats {
	var stats Stats

	if m := lastMatch(transferredBytesRe, output); m != "" {
		// Older rclone prints "GBytes", humanize wants "GB".
		normalized := strings.ReplaceAll(m, "Bytes", "B")
		if bytes, err := humanize.ParseBytes(normalized); err == nil {
			stats.TransferredBytes = bytes
		}
	}
	if m := lastMatch(checksRe, output); m != "" {
		stats.Checks, _ = strconv.Atoi(m)
	}
	if m := lastMatch(deletedRe, output); m != "" {
		stats.Deleted, _ = strconv.Atoi(m)
	}
	if m := lastMatch(errorsRe, output); m != "" {
		stats.Errors, _ = strconv.Atoi(m)
	}

	return stats
}

func lastMatch(re *regexp.Regexp, s string) string {
	matches := re.FindAllStringSubmatch(s, -1)
	if len(matches) == 0 {
		return ""
	}
	return matches[len(matches)-1][1]
}
