package privacy

import (
	"regexp"
	"strings"
)

// maxStackFrames is how many leading stack frames survive sanitization.
const maxStackFrames = 5

// Placeholder tokens substituted for scrubbed content.
const (
	emailPlaceholder  = "<email>"
	digitsPlaceholder = "<digits>"
	tokenPlaceholder  = "<token>"
	pathPlaceholder   = "<path>"
)

var (
	emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	// Seven or more consecutive digits look like a phone number or account id.
	digitRunPattern = regexp.MustCompile(`\d{7,}`)
	// Twenty or more consecutive alphanumerics look like a token or API key.
	tokenRunPattern = regexp.MustCompile(`[A-Za-z0-9]{20,}`)
	pathPattern     = regexp.MustCompile(`(?:/[\w.~-]+){2,}`)
)

// SanitizeMessage scrubs free-text error messages of email addresses,
// phone-like digit runs, and token-like alphanumeric runs before storage.
func SanitizeMessage(msg string) string {
	out := emailPattern.ReplaceAllString(msg, emailPlaceholder)
	out = digitRunPattern.ReplaceAllString(out, digitsPlaceholder)
	out = tokenRunPattern.ReplaceAllString(out, tokenPlaceholder)
	return out
}

// SanitizeStack truncates a stack trace to its leading frames, replaces
// filesystem path segments with a placeholder, and applies the same text
// scrubbing as SanitizeMessage to whatever remains.
func SanitizeStack(stack string) string {
	if stack == "" {
		return ""
	}
	lines := strings.Split(stack, "\n")
	if len(lines) > maxStackFrames {
		lines = lines[:maxStackFrames]
	}
	out := strings.Join(lines, "\n")
	out = pathPattern.ReplaceAllString(out, pathPlaceholder)
	return SanitizeMessage(out)
}
