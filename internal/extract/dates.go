package extract

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DateOptions tunes deadline normalization.
type DateOptions struct {
	// RollForwardPastMonths assumes a named month that already passed
	// means its next occurrence. Product policy, not a law of nature.
	RollForwardPastMonths bool
}

// DefaultDateOptions matches the shipped product behavior.
func DefaultDateOptions() DateOptions {
	return DateOptions{RollForwardPastMonths: true}
}

const isoDate = "2006-01-02"

var (
	isoDateRE      = regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2})\b`)
	qualifiedRelRE = regexp.MustCompile(`(?i)\b(?:in|within|dans|d'ici)\s+(\d+)\s*(days?|weeks?|months?|years?|jours?|semaines?|mois|ans?|années?)\b`)
	bareRelRE      = regexp.MustCompile(`(?i)\b(\d+)\s*(days?|weeks?|months?|years?|jours?|semaines?|mois|ans?|années?)\b`)
	namedMonthRE   = regexp.MustCompile(`(?i)\b(january|february|march|april|may|june|july|august|september|october|november|december|janvier|février|mars|avril|mai|juin|juillet|août|septembre|octobre|novembre|décembre)\b(?:\s+(?:of\s+)?(\d{4}))?`)
)

var monthNumbers = map[string]time.Month{
	"january": time.January, "janvier": time.January,
	"february": time.February, "février": time.February,
	"march": time.March, "mars": time.March,
	"april": time.April, "avril": time.April,
	"may": time.May, "mai": time.May,
	"june": time.June, "juin": time.June,
	"july": time.July, "juillet": time.July,
	"august": time.August, "août": time.August,
	"september": time.September, "septembre": time.September,
	"october": time.October, "octobre": time.October,
	"november": time.November, "novembre": time.November,
	"december": time.December, "décembre": time.December,
}

// genericLayouts are tried as a last resort against the whole text.
var genericLayouts = []string{
	"2006/01/02",
	"02/01/2006",
	"January 2, 2006",
	"2 January 2006",
	"Jan 2, 2006",
}

// NormalizeDeadline converts a free-text deadline into an ISO date
// relative to ref. Returns ("", false) when nothing parses — the caller
// omits the field rather than committing a wrong date.
func NormalizeDeadline(text string, ref time.Time) (string, bool) {
	return NormalizeDeadlineWith(text, ref, DefaultDateOptions())
}

// NormalizeDeadlineWith is NormalizeDeadline with explicit options.
// Resolution order, first match wins: ISO passthrough, relative with
// qualifier ("in 2 months"), bare relative ("2 months"), named month
// with optional year (end of month, rolled forward if already past),
// generic date parse.
func NormalizeDeadlineWith(text string, ref time.Time, opts DateOptions) (string, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", false
	}

	if m := isoDateRE.FindStringSubmatch(text); m != nil {
		if _, err := time.Parse(isoDate, m[1]); err == nil {
			return m[1], true
		}
	}

	if m := qualifiedRelRE.FindStringSubmatch(text); m != nil {
		return addRelative(ref, m[1], m[2])
	}

	if m := bareRelRE.FindStringSubmatch(text); m != nil {
		return addRelative(ref, m[1], m[2])
	}

	if m := namedMonthRE.FindStringSubmatch(text); m != nil {
		month := monthNumbers[strings.ToLower(m[1])]
		year := ref.Year()
		if m[2] != "" {
			year, _ = strconv.Atoi(m[2])
		}
		end := endOfMonth(year, month, ref.Location())
		if end.Before(ref) && opts.RollForwardPastMonths {
			end = endOfMonth(year+1, month, ref.Location())
		}
		return end.Format(isoDate), true
	}

	for _, layout := range genericLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return t.Format(isoDate), true
		}
	}

	return "", false
}

func addRelative(ref time.Time, amountStr, unit string) (string, bool) {
	amount, err := strconv.Atoi(amountStr)
	if err != nil || amount <= 0 {
		return "", false
	}
	unit = strings.ToLower(unit)
	var t time.Time
	switch {
	case strings.HasPrefix(unit, "day") || strings.HasPrefix(unit, "jour"):
		t = ref.AddDate(0, 0, amount)
	case strings.HasPrefix(unit, "week") || strings.HasPrefix(unit, "semaine"):
		t = ref.AddDate(0, 0, 7*amount)
	case strings.HasPrefix(unit, "month") || unit == "mois":
		t = ref.AddDate(0, amount, 0)
	case strings.HasPrefix(unit, "year") || strings.HasPrefix(unit, "an"):
		t = ref.AddDate(amount, 0, 0)
	default:
		return "", false
	}
	return t.Format(isoDate), true
}

func endOfMonth(year int, month time.Month, loc *time.Location) time.Time {
	// Day 0 of the following month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc)
}
