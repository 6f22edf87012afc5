// Package redact strips details that must not reach logs or error
// responses: file system paths of the journal store, SQL statements from
// the SQLite adapter, stack traces, and quoted journal text echoed back by
// decoders.
package redact

import (
	"regexp"
)

// Constants for redaction placeholders
const (
	RedactedPathPlaceholder  = "[REDACTED_PATH]"
	RedactedSQLPlaceholder   = "[REDACTED_SQL]"
	RedactedStackPlaceholder = "[STACK_TRACE_REDACTED]"
	RedactedTextPlaceholder  = "[REDACTED_TEXT]"
)

// rule pairs a pattern with its placeholder. Rules run in order.
type rule struct {
	pattern     *regexp.Regexp
	placeholder string
}

var rules = []rule{
	// Stack trace fragments go first so their paths are not redacted piecemeal.
	{
		regexp.MustCompile(`(?:goroutine \d+|panic:)[\s\S]*?(\n\t.*)+`),
		RedactedStackPlaceholder,
	},
	// SQL statements and fragments
	{
		regexp.MustCompile(
			`\b(SELECT|INSERT|UPDATE|DELETE|CREATE|ALTER|DROP)\b[\s\w,*()?]+\b(?:FROM|INTO|SET|TABLE|INDEX)\b(?:[\s\w,*()?='".]+)?`,
		),
		RedactedSQLPlaceholder,
	},
	// Windows and Unix file paths
	{regexp.MustCompile(`[A-Za-z]:\\[^\\\s]+(\\[^\\\s]+)+`), RedactedPathPlaceholder},
	{regexp.MustCompile(`(/[\w.-]+){2,}`), RedactedPathPlaceholder},
	// Long quoted strings are usually user text
	{regexp.MustCompile(`"[^"]{24,}"`), RedactedTextPlaceholder},
}

// String redacts sensitive information from the input string
func String(input string) string {
	if input == "" {
		return input
	}

	result := input
	for _, r := range rules {
		result = r.pattern.ReplaceAllString(result, r.placeholder)
	}
	return result
}

// Error redacts sensitive information from an error's Error() output
func Error(err error) string {
	if err == nil {
		return ""
	}

	return String(err.Error())
}
