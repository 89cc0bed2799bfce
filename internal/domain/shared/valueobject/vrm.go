package valueobject

import (
	"regexp"
	"strings"
)

var vrmPattern = regexp.MustCompile(`^[A-Z0-9]{2,8}$`)

// NormalizeVRM uppercases a registration mark and strips spaces and dashes,
// so "ab12 cde" and "AB12-CDE" compare equal.
func NormalizeVRM(vrm string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(vrm) {
		if r == ' ' || r == '-' || r == '\t' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// IsValidVRM reports whether vrm looks like a UK registration after normalizing
func IsValidVRM(vrm string) bool {
	return vrmPattern.MatchString(NormalizeVRM(vrm))
}
