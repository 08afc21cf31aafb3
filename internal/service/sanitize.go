package service

import (
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

// sanitizeNote 清理配置备注里的 HTML，移动端会直接渲染这段内容。
func sanitizeNote(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return ""
	}
	return noteSanitizer().Sanitize(trimmed)
}

var noteSanitizer = sync.OnceValue(func() *bluemonday.Policy {
	policy := bluemonday.UGCPolicy()
	policy.RequireNoFollowOnLinks(true)
	policy.AllowURLSchemes("http", "https")
	policy.AddTargetBlankToFullyQualifiedLinks(true)
	return policy
})

// stripTags removes all markup; used for identifiers arriving from ad SDK callbacks.
func stripTags(input string) string {
	return strings.TrimSpace(strictSanitizer().Sanitize(strings.TrimSpace(input)))
}

var strictSanitizer = sync.OnceValue(bluemonday.StrictPolicy)
