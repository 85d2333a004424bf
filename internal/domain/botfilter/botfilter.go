// Package botfilter detects automated form submissions.
package botfilter

import "strings"

// DefaultHoneypotField is the hidden form field humans never fill in.
const DefaultHoneypotField = "website"

// IsLikelyBot reports whether the honeypot field was filled in. An empty
// field name falls back to DefaultHoneypotField.
func IsLikelyBot(fields map[string]string, honeypotField string) bool {
	if honeypotField == "" {
		honeypotField = DefaultHoneypotField
	}
	v, ok := fields[honeypotField]
	return ok && strings.TrimSpace(v) != ""
}
