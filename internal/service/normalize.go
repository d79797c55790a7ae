package service

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/kapu/trendwatch-go/internal/util"
)

var (
	countPattern = regexp.MustCompile(`^(\d+(?:\.\d+)?)([km])?`)
	digitPattern = regexp.MustCompile(`\d+`)
)

// absoluteDateLayouts are the fixed month-day-year formats the history
// pages use, e.g. "Jan 5, 2024" and "Jan 5, 24".
var absoluteDateLayouts = []string{"Jan 2, 2006", "Jan 2, 06"}

// ParseCount turns a compact human-readable magnitude string ("12.3K",
// "1,234", "3M") into a non-negative integer. The fraction is truncated,
// not rounded. Unparseable input yields 0.
func ParseCount(text string) int {
	text = strings.ReplaceAll(text, ",", "")
	text = strings.ToLower(strings.TrimSpace(text))

	m := countPattern.FindStringSubmatch(text)
	if m == nil {
		return 0
	}

	num, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0
	}

	switch m[2] {
	case "k":
		num *= 1_000
	case "m":
		num *= 1_000_000
	}

	return int(num)
}

// NormalizeDate resolves a scraped date cell to an ISO calendar date.
// Relative phrases ("34 min ago", "5 hours ago", "3 days ago") are taken
// against now; otherwise the absolute layouts are tried. Anything else
// falls back to today.
func NormalizeDate(text string, now time.Time) string {
	trimmed := strings.TrimSpace(text)
	raw := strings.ToLower(trimmed)

	switch {
	case strings.Contains(raw, "min"):
		return util.FormatDate(now)
	case strings.Contains(raw, "hour"):
		return util.FormatDate(now.Add(-time.Duration(firstInt(raw)) * time.Hour))
	case strings.Contains(raw, "day"):
		return util.FormatDate(now.AddDate(0, 0, -firstInt(raw)))
	}

	for _, layout := range absoluteDateLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return util.FormatDate(t)
		}
	}

	return util.FormatDate(now)
}

func firstInt(s string) int {
	m := digitPattern.FindString(s)
	if m == "" {
		return 0
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}
	return n
}
