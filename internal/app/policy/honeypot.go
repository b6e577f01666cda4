package policy

import "strings"

// IsSpam reports whether the honeypot field was filled in.
func IsSpam(honeypot string) bool {
	return strings.TrimSpace(honeypot) != ""
}
