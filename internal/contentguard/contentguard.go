// Package contentguard wraps untrusted inbound channel text with fixed
// boundary markers and flags suspicious prompt-injection patterns before the
// text reaches the agent runtime (C15, §4.9 step 1).
package contentguard

import (
	"regexp"
	"strings"
)

const (
	boundaryStart = "<<<EXTERNAL_CONTENT_START>>>"
	boundaryEnd   = "<<<EXTERNAL_CONTENT_END>>>"
)

// suspiciousPatterns are regexes over common prompt-injection phrasings:
// attempts to override prior instructions, impersonate a system role, or
// exfiltrate hidden instructions. Matching is case-insensitive and does not
// block the message — it only annotates it for the model and for logging.
var suspiciousPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)ignore (all|any|the) (previous|prior|above) instructions`),
	regexp.MustCompile(`(?i)disregard (all|any|the) (previous|prior|above)`),
	regexp.MustCompile(`(?i)you are now`),
	regexp.MustCompile(`(?i)system prompt`),
	regexp.MustCompile(`(?i)reveal your (instructions|prompt|system message)`),
	regexp.MustCompile(`(?i)\bact as\b.*\b(admin|root|developer mode|dan)\b`),
	regexp.MustCompile(`(?i)new instructions?:`),
}

// Result is the wrapped text plus any suspicious-pattern warnings found in
// the original, unwrapped content.
type Result struct {
	Wrapped  string
	Warnings []string
}

// Wrap prefixes and suffixes text with boundary markers and scans it for
// suspicious patterns. The markers make it unambiguous to the model where
// untrusted external content begins and ends, mitigating prompt injection
// that tries to blend instructions into the surrounding context.
func Wrap(text string) Result {
	var warnings []string
	for _, pattern := range suspiciousPatterns {
		if pattern.MatchString(text) {
			warnings = append(warnings, "suspicious pattern: "+pattern.String())
		}
	}

	var b strings.Builder
	b.WriteString(boundaryStart)
	b.WriteByte('\n')
	b.WriteString(text)
	b.WriteByte('\n')
	b.WriteString(boundaryEnd)

	return Result{Wrapped: b.String(), Warnings: warnings}
}
