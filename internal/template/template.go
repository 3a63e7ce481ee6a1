// internal/template/template.go
package template

import (
	"fmt"
	"regexp"
	"time"
)

var templateVar = regexp.MustCompile(`\{\{(\w+)\}\}`)

// Expand replaces {{variable}} placeholders with values from data
func Expand(tmpl string, data map[string]any) string {
	return templateVar.ReplaceAllStringFunc(tmpl, func(match string) string {
		varName := match[2 : len(match)-2]

		if val, ok := data[varName]; ok {
			return fmt.Sprintf("%v", val)
		}
		return match // Keep original if not found
	})
}

// PathData builds the standard variable set available to dest path templates.
// Event data, if any, is layered on top so a webhook can steer the target.
func PathData(remoteName string, now time.Time, eventData map[string]any) map[string]any {
	data := map[string]any{
		"remote": remoteName,
		"date":   now.Format("2006-01-02"),
		"year":   now.Format("2006"),
		"month":  now.Format("01"),
		"day":    now.Format("02"),
	}
	for k, v := range eventData {
		data[k] = v
	}
	return data
}
