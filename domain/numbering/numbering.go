// Package numbering formats human-readable invoice numbers from a pattern,
// a date and a per-day sequence.
//
// Supported placeholders:
//
//	{YYYY}  four-digit year
//	{YY}    last two digits of the year
//	{MM}    two-digit month
//	{DD}    two-digit day of month
//	{0000}  sequence, zero-padded to at least four digits
//	{####}  sequence, unpadded
//
// Only the first occurrence of each placeholder is substituted; any later
// repeat is left in the output verbatim. Text outside placeholders is kept.
package numbering

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultPattern is used when no pattern is configured.
const DefaultPattern = "INV-{YYYY}{MM}-{0000}"

// ExampleUnavailable is returned by Example when no preview can be produced.
const ExampleUnavailable = "Invalid pattern"

// Placeholder tokens.
const (
	TokenYear4     = "{YYYY}"
	TokenYear2     = "{YY}"
	TokenMonth     = "{MM}"
	TokenDay       = "{DD}"
	TokenSeqPadded = "{0000}"
	TokenSeq       = "{####}"
)

// Placeholders lists every supported token in substitution order.
var Placeholders = []string{TokenYear4, TokenYear2, TokenMonth, TokenDay, TokenSeqPadded, TokenSeq}

// Format substitutes date fields and seq into pattern.
func Format(pattern string, date time.Time, seq int) string {
	year := date.Year()
	values := map[string]string{
		TokenYear4:     fmt.Sprintf("%04d", year),
		TokenYear2:     fmt.Sprintf("%02d", year%100),
		TokenMonth:     fmt.Sprintf("%02d", int(date.Month())),
		TokenDay:       fmt.Sprintf("%02d", date.Day()),
		TokenSeqPadded: fmt.Sprintf("%04d", seq),
		TokenSeq:       strconv.Itoa(seq),
	}

	out := pattern
	for _, token := range Placeholders {
		out = strings.Replace(out, token, values[token], 1)
	}
	return out
}

// Generate returns the next number for date given how many invoices the
// same user already created on that calendar day. An empty pattern falls
// back to DefaultPattern.
//
// Generate does not check uniqueness: two callers reading the same count
// concurrently receive the same number.
func Generate(pattern string, date time.Time, countToday int) string {
	if pattern == "" {
		pattern = DefaultPattern
	}
	return Format(pattern, date, countToday+1)
}

// ValidatePattern reports whether pattern is usable. Any non-empty string
// is accepted, including one without placeholders.
func ValidatePattern(pattern string) bool {
	return pattern != ""
}

// Example previews the first number of the day for pattern at now.
// It never fails: an invalid pattern or an internal fault yields
// ExampleUnavailable.
func Example(pattern string, now time.Time) (example string) {
	if !ValidatePattern(pattern) {
		return ExampleUnavailable
	}
	defer func() {
		if r := recover(); r != nil {
			example = ExampleUnavailable
		}
	}()
	return Format(pattern, now, 1)
}

// DayBounds returns the calendar day containing t in t's location as the
// half-open interval [start, end).
func DayBounds(t time.Time) (start, end time.Time) {
	y, m, d := t.Date()
	start = time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	end = start.AddDate(0, 0, 1)
	return start, end
}

// HasSequence reports whether pattern contains a sequence placeholder.
// Patterns without one produce the same number all day.
func HasSequence(pattern string) bool {
	return strings.Contains(pattern, TokenSeqPadded) || strings.Contains(pattern, TokenSeq)
}
