// Package ingest implements the chat draft workflow: it accumulates partial
// transcripts per submitter and commits them to the archive once a date
// arrives.
package ingest

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var months = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

// datePattern turns one regexp match into year, month and day.
type datePattern struct {
	re      *regexp.Regexp
	extract func(m []string, now time.Time) (year int, month time.Month, day int, ok bool)
}

// datePatterns are tried in priority order on every line.
var datePatterns = []datePattern{
	{
		re: regexp.MustCompile(`(\d{4})-(\d{2})-(\d{2})`),
		extract: func(m []string, _ time.Time) (int, time.Month, int, bool) {
			return atoi(m[1]), time.Month(atoi(m[2])), atoi(m[3]), true
		},
	},
	{
		re: regexp.MustCompile(`(\d{4})\.\s*(\d{1,2})\.\s*(\d{1,2})`),
		extract: func(m []string, _ time.Time) (int, time.Month, int, bool) {
			return atoi(m[1]), time.Month(atoi(m[2])), atoi(m[3]), true
		},
	},
	{
		re: regexp.MustCompile(`(\d{1,2})\s*월\s*(\d{1,2})\s*일`),
		extract: func(m []string, now time.Time) (int, time.Month, int, bool) {
			return now.Year(), time.Month(atoi(m[1])), atoi(m[2]), true
		},
	},
	{
		re: regexp.MustCompile(`(\d{1,2})[\s-]([A-Za-z]{3})[A-Za-z]*[\s-](\d{4})`),
		extract: func(m []string, _ time.Time) (int, time.Month, int, bool) {
			month, ok := months[strings.ToLower(m[2])]
			return atoi(m[3]), month, atoi(m[1]), ok
		},
	},
	{
		re: regexp.MustCompile(`(\d{1,2})[\s-]([A-Za-z]{3})`),
		extract: func(m []string, now time.Time) (int, time.Month, int, bool) {
			month, ok := months[strings.ToLower(m[2])]
			return now.Year(), month, atoi(m[1]), ok
		},
	},
}

// ExtractDate looks for a date in the first scanLines lines of text and
// returns it as YYYY-MM-DD. Lines are scanned in order and, within a line,
// patterns in priority order: ISO, "YYYY. M. D", "M월 D일", "DD-MMM-YYYY" and
// "DD MMM". Formats without a year use the year of now. Impossible calendar
// dates such as 2월 30일 are skipped.
func ExtractDate(text string, now time.Time, scanLines int) (string, bool) {
	lines := strings.Split(text, "\n")
	if scanLines > 0 && len(lines) > scanLines {
		lines = lines[:scanLines]
	}

	for _, line := range lines {
		for _, p := range datePatterns {
			for _, m := range p.re.FindAllStringSubmatch(line, -1) {
				y, mo, d, ok := p.extract(m, now)
				if !ok {
					continue
				}
				if date, ok := calendarDate(y, mo, d); ok {
					return date, true
				}
			}
		}
	}
	return "", false
}

func calendarDate(year int, month time.Month, day int) (string, bool) {
	if month < time.January || month > time.December || day < 1 {
		return "", false
	}
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || t.Month() != month || t.Day() != day {
		return "", false
	}
	return fmt.Sprintf("%04d-%02d-%02d", year, month, day), true
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return -1
	}
	return n
}
