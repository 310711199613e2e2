// Package units parses the dual-unit measurement strings used by sailing
// listing sites, e.g. "42.50 ft / 12.95 m" or "16,000 lb / 7,257 kg".
//
// Unparseable input always yields an absent value (nil pointer), never a
// zero or sentinel number.
package units

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Pair holds one quantity expressed in two units. Primary is the first
// (imperial) token of the source string, Secondary the second (metric).
type Pair struct {
	Primary   *float64 `json:"primary,omitempty"`
	Secondary *float64 `json:"secondary,omitempty"`
}

// Empty reports whether neither unit value is present.
func (p *Pair) Empty() bool {
	return p == nil || (p.Primary == nil && p.Secondary == nil)
}

var (
	leadingFloat = regexp.MustCompile(`^[-+]?(\d+(\.\d*)?|\.\d+)`)
	leadingInt   = regexp.MustCompile(`^[-+]?\d+`)
)

// ParsePair parses both positions of a dual-unit string. The result may
// have either side absent; callers prune fully empty pairs.
func ParsePair(s string) *Pair {
	pair := &Pair{
		Primary:   ParseAt(s, 0),
		Secondary: ParseAt(s, 1),
	}
	if pair.Empty() {
		return nil
	}
	return pair
}

// ParseAt extracts the numeric value at the given slash-delimited position:
// ParseAt("42.5 ft / 12.95 m", 1) = 12.95.
func ParseAt(s string, pos int) *float64 {
	parts := strings.Split(s, "/")
	if pos < 0 || pos >= len(parts) {
		return nil
	}
	return ParseFloat(parts[pos])
}

// ParseFloat parses the leading number of the first whitespace-delimited
// chunk, after stripping thousands separators. "16,000 lbs" parses as 16000.
func ParseFloat(s string) *float64 {
	token := firstToken(s)
	if token == "" {
		return nil
	}
	match := leadingFloat.FindString(token)
	if match == "" {
		return nil
	}
	v, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return nil
	}
	return &v
}

// ParseInt parses the leading integer of the input, absent on failure.
func ParseInt(s string) *int {
	token := firstToken(s)
	if token == "" {
		return nil
	}
	match := leadingInt.FindString(token)
	if match == "" {
		return nil
	}
	v, err := strconv.Atoi(match)
	if err != nil {
		return nil
	}
	return &v
}

// dateLayouts covers the shapes seen in "First Built" values; most rows
// carry a bare year.
var dateLayouts = []string{
	"2006",
	"Jan 2006",
	"January 2006",
	"January 2, 2006",
	"2006-01-02",
	"1/2/2006",
}

// ParseDate parses a free-text date, absent when no layout matches.
func ParseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return &t
		}
	}
	return nil
}

func firstToken(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return strings.ReplaceAll(fields[0], ",", "")
}

// Float returns a pointer to v; a convenience for building records.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v.
func Int(v int) *int { return &v }
