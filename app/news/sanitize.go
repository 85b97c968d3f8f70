package news

import (
	"strings"
)

// Stored field bounds, in runes. Outlet payloads and extracted pages are
// clipped to these before insert.
const (
	MaxTitleRunes   = 512
	MaxContentRunes = 20000
)

// ToValidUTF8 normalizes a string to valid UTF-8; some outlets serve
// mixed-encoding content that would otherwise be rejected on insert.
func ToValidUTF8(s string) string {
	return strings.ToValidUTF8(s, "�")
}

// TruncateRunes bounds a string by rune count so oversized outlet payloads
// cannot blow up stored rows.
func TruncateRunes(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	s = strings.TrimSpace(s)
	rs := []rune(s)
	if len(rs) <= limit {
		return s
	}
	return string(rs[:limit])
}
