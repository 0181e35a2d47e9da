// Package extract turns a free-text user message into profile fields.
// The model-backed extractor is the primary path; the pattern-based
// fallback in this file is always available and never calls out.
package extract

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/nicolas-geysse/encode-club-hackathon-2026-sub002/internal/flow"
	"github.com/nicolas-geysse/encode-club-hackathon-2026-sub002/internal/patterns"
	"github.com/nicolas-geysse/encode-club-hackathon-2026-sub002/internal/profile"
)

var (
	nameRE     = regexp.MustCompile(`(?i)(?:my name is|my name's|i am|i'm|call me|je m'appelle|moi c'est)\s+([\p{Lu}][\p{L}'-]+)`)
	cityRE     = regexp.MustCompile(`(?i)(?:live in|living in|based in|i'm from|i am from|moved to|j'habite à|je vis à)\s+([\p{L}][\p{L} '-]*)`)
	numberRE   = regexp.MustCompile(`\d+(?:[.,]\d+)?`)
	incomeRE   = regexp.MustCompile(`(?i)(?:earn|make|get|receive|income(?: of| is)?|gagne|touche)\D{0,12}?(\d+(?:[.,]\d+)?)`)
	expensesRE = regexp.MustCompile(`(?i)(?:spend|expenses?(?: are| of)?|costs? me|dépense)\D{0,12}?(\d+(?:[.,]\d+)?)`)
	hoursRE    = regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*(?:hours?|hrs?|heures?|h)\b`)
	rateRE     = regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*(?:€|\$|£)?\s*(?:per hour|an hour|/h\b|/hr\b|de l'heure)`)
	currencyRE = regexp.MustCompile(`(?i)\b(eur|euros?|usd|dollars?|gbp|pounds?|chf|francs?|cad|jpy|yen)\b`)
	examRE     = regexp.MustCompile(`(?i)\b(exams?|finals?|partiels?|midterms?)\b`)
	internRE   = regexp.MustCompile(`(?i)\b(internship|stage)\b`)
)

var currencyWords = map[string]string{
	"eur": "EUR", "euro": "EUR", "euros": "EUR",
	"usd": "USD", "dollar": "USD", "dollars": "USD",
	"gbp": "GBP", "pound": "GBP", "pounds": "GBP",
	"chf": "CHF", "franc": "CHF", "francs": "CHF",
	"cad": "CAD",
	"jpy": "JPY", "yen": "JPY",
}

// stepExtractors dispatches a message to the rule set for one step. Each
// entry is a pure function; the branches are independent of each other.
var stepExtractors = map[flow.Step]func(in fallbackInput) *profile.ProfileData{
	flow.StepGreeting:        extractGreeting,
	flow.StepCurrencyConfirm: extractCurrencyConfirm,
	flow.StepName:            extractName,
	flow.StepStudies:         extractStudies,
	flow.StepSkills:          extractSkills,
	flow.StepCertifications:  extractCertifications,
	flow.StepBudget:          extractBudget,
	flow.StepWorkPreferences: extractWorkPreferences,
	flow.StepGoal:            extractGoal,
	flow.StepAcademicEvents:  extractAcademicEvents,
	flow.StepInventory:       extractInventory,
	flow.StepTrade:           extractTrade,
	flow.StepLifestyle:       extractLifestyle,
}

type fallbackInput struct {
	message  string
	lower    string
	existing *profile.ProfileData
	ref      time.Time
}

// Fallback extracts profile fields from a message using only the static
// pattern tables. Deterministic: identical inputs always yield identical
// output. The terminal step and unknown steps extract nothing.
func Fallback(message string, step flow.Step, existing *profile.ProfileData, ref time.Time) *profile.ProfileData {
	fn, ok := stepExtractors[step]
	if !ok {
		return &profile.ProfileData{}
	}
	in := fallbackInput{
		message:  strings.TrimSpace(message),
		lower:    strings.ToLower(strings.TrimSpace(message)),
		existing: existing,
		ref:      ref,
	}
	return fn(in)
}

func extractGreeting(in fallbackInput) *profile.ProfileData {
	out := &profile.ProfileData{}

	city, known := patterns.KnownCity(in.lower)
	if !known {
		if m := cityRE.FindStringSubmatch(in.message); m != nil {
			city = strings.TrimSpace(m[1])
		} else if bare := bareShortAnswer(in.message); bare != "" {
			city = bare
		}
	}
	if city == "" {
		return out
	}
	out.City = profile.String(city)
	if cur, ok := patterns.CityCurrency(city); ok {
		out.Currency = profile.String(cur)
	}
	return out
}

func extractCurrencyConfirm(in fallbackInput) *profile.ProfileData {
	out := &profile.ProfileData{}
	if m := currencyRE.FindStringSubmatch(in.lower); m != nil {
		if code, ok := currencyWords[strings.ToLower(m[1])]; ok {
			out.Currency = profile.String(code)
		}
	}
	return out
}

func extractName(in fallbackInput) *profile.ProfileData {
	out := &profile.ProfileData{}

	var name string
	if m := nameRE.FindStringSubmatch(in.message); m != nil {
		name = m[1]
	} else if bare := bareShortAnswer(in.message); bare != "" {
		name = bare
	}

	if name == "" {
		// Content recognized but off-topic: defer to a confirmation
		// instead of committing or ignoring.
		flagOffTopic(out, in.lower)
		return out
	}
	out.Name = profile.String(strings.TrimRight(name, ".!,;:"))
	return out
}

func extractStudies(in fallbackInput) *profile.ProfileData {
	out := &profile.ProfileData{}
	if diploma, ok := patterns.FirstMatch(patterns.Diplomas, in.lower); ok {
		out.Diploma = profile.String(diploma)
	}
	if field, ok := patterns.FirstMatch(patterns.FieldsOfStudy, in.lower); ok {
		out.Field = profile.String(field)
	}
	if out.Diploma == nil && out.Field == nil {
		flagOffTopic(out, in.lower)
	}
	return out
}

func extractSkills(in fallbackInput) *profile.ProfileData {
	out := &profile.ProfileData{}
	if skills := patterns.AllMatches(patterns.Skills, in.lower); len(skills) > 0 {
		out.Skills = skills
	}
	return out
}

func extractCertifications(in fallbackInput) *profile.ProfileData {
	out := &profile.ProfileData{}
	if patterns.IsNegative(in.message) {
		out.Certifications = []string{}
		return out
	}
	if certs := patterns.AllMatches(patterns.Certifications, in.lower); len(certs) > 0 {
		out.Certifications = certs
	}
	return out
}

func extractBudget(in fallbackInput) *profile.ProfileData {
	out := &profile.ProfileData{}
	if m := incomeRE.FindStringSubmatch(in.message); m != nil {
		out.Income = parseAmount(m[1])
	}
	if m := expensesRE.FindStringSubmatch(in.message); m != nil {
		out.Expenses = parseAmount(m[1])
	}
	if out.Income == nil && out.Expenses == nil {
		// No named pattern: first bare number is income, second expenses.
		nums := numberRE.FindAllString(in.message, 2)
		if len(nums) > 0 {
			out.Income = parseAmount(nums[0])
		}
		if len(nums) > 1 {
			out.Expenses = parseAmount(nums[1])
		}
	}
	return out
}

func extractWorkPreferences(in fallbackInput) *profile.ProfileData {
	out := &profile.ProfileData{}
	if m := rateRE.FindStringSubmatch(in.message); m != nil {
		out.MinHourlyRate = parseAmount(m[1])
	}
	// The rate pattern also contains a bare "<n> h"; strip its match
	// before looking for hours so "15€/h" does not read as 15 hours.
	hourSource := rateRE.ReplaceAllString(in.message, "")
	if m := hoursRE.FindStringSubmatch(hourSource); m != nil {
		out.MaxWeeklyHours = parseAmount(m[1])
	}
	if out.MaxWeeklyHours == nil && out.MinHourlyRate == nil {
		// No named pattern: hours before rate, in message order.
		nums := numberRE.FindAllString(in.message, 2)
		if len(nums) > 0 {
			out.MaxWeeklyHours = parseAmount(nums[0])
		}
		if len(nums) > 1 {
			out.MinHourlyRate = parseAmount(nums[1])
		}
	}
	return out
}

func extractGoal(in fallbackInput) *profile.ProfileData {
	out := &profile.ProfileData{}
	if name, ok := patterns.FirstMatch(patterns.Goals, in.lower); ok {
		out.GoalName = profile.String(name)
	}
	if deadline, ok := NormalizeDeadline(in.message, in.ref); ok {
		out.GoalDeadline = profile.String(deadline)
	}
	// Deadline digits (ISO dates, "2 months") must not read as amounts.
	amountSource := isoDateRE.ReplaceAllString(in.message, "")
	amountSource = qualifiedRelRE.ReplaceAllString(amountSource, "")
	amountSource = bareRelRE.ReplaceAllString(amountSource, "")
	amountSource = namedMonthRE.ReplaceAllString(amountSource, "")
	if m := numberRE.FindString(amountSource); m != "" {
		out.GoalAmount = parseAmount(m)
	}
	// An amount without a recognizable goal is a graceful degrade, not
	// an error: ask what the goal is for.
	if out.GoalAmount != nil && out.GoalName == nil {
		out.MissingInfo = []string{"goalName"}
	}
	return out
}

func extractAcademicEvents(in fallbackInput) *profile.ProfileData {
	out := &profile.ProfileData{}
	if patterns.IsNegative(in.message) {
		out.AcademicEvents = []profile.AcademicEvent{}
		return out
	}

	var name string
	switch {
	case examRE.MatchString(in.message):
		name = "Exams"
	case internRE.MatchString(in.message):
		name = "Internship"
	default:
		return out
	}

	event := profile.AcademicEvent{Name: name}
	if m := namedMonthRE.FindStringSubmatch(in.message); m != nil {
		month := monthNumbers[strings.ToLower(m[1])]
		year := in.ref.Year()
		if m[2] != "" {
			year, _ = strconv.Atoi(m[2])
		}
		start := time.Date(year, month, 1, 0, 0, 0, 0, in.ref.Location())
		if start.Before(in.ref) && m[2] == "" {
			start = start.AddDate(1, 0, 0)
		}
		event.StartDate = start.Format(isoDate)
	}
	out.AcademicEvents = []profile.AcademicEvent{event}
	return out
}

func extractInventory(in fallbackInput) *profile.ProfileData {
	out := &profile.ProfileData{}
	if patterns.IsNegative(in.message) {
		out.InventoryItems = []profile.InventoryItem{}
		return out
	}

	var items []profile.InventoryItem
	seen := make(map[string]bool)
	for _, a := range patterns.InventoryCategories {
		if seen[a.Fragment] || !strings.Contains(in.lower, a.Fragment) {
			continue
		}
		seen[a.Fragment] = true
		items = append(items, profile.InventoryItem{
			Name:     strings.ToUpper(a.Fragment[:1]) + a.Fragment[1:],
			Category: a.Canonical,
		})
	}
	if len(items) == 1 {
		if m := numberRE.FindString(in.message); m != "" {
			items[0].EstimatedValue = parseAmount(m)
		}
	}
	if items != nil {
		out.InventoryItems = items
	}
	return out
}

func extractTrade(in fallbackInput) *profile.ProfileData {
	out := &profile.ProfileData{}
	if patterns.IsNegative(in.message) {
		out.TradeOpportunities = []profile.TradeOpportunity{}
		return out
	}
	var trades []profile.TradeOpportunity
	for _, name := range patterns.AllMatches(patterns.TradeOpportunities, in.lower) {
		trades = append(trades, profile.TradeOpportunity{Name: name})
	}
	if trades != nil {
		out.TradeOpportunities = trades
	}
	return out
}

func extractLifestyle(in fallbackInput) *profile.ProfileData {
	out := &profile.ProfileData{}
	if patterns.IsNegative(in.message) {
		out.Subscriptions = []profile.Subscription{}
		return out
	}
	var subs []profile.Subscription
	for _, name := range patterns.AllMatches(patterns.Subscriptions, in.lower) {
		subs = append(subs, profile.Subscription{Name: name})
	}
	if subs != nil {
		out.Subscriptions = subs
	}
	return out
}

// flagOffTopic marks recognized but topically inconsistent content as
// ambiguous so the turn defers to a user confirmation. Rule-based
// approximation of the model path's instructed judgment.
func flagOffTopic(out *profile.ProfileData, lower string) {
	if subs := patterns.AllMatches(patterns.Subscriptions, lower); len(subs) > 0 {
		out.AmbiguousFields = map[string]any{"subscriptions": subs}
		return
	}
	if items := patterns.AllMatches(patterns.InventoryCategories, lower); len(items) > 0 {
		out.AmbiguousFields = map[string]any{"inventoryItems": items}
	}
}

// bareShortAnswer returns a 1-2 word capitalized message, e.g. a city or
// first name typed on its own. Empty string otherwise.
func bareShortAnswer(message string) string {
	trimmed := strings.TrimRight(strings.TrimSpace(message), ".!,;:")
	words := strings.Fields(trimmed)
	if len(words) == 0 || len(words) > 2 || len(trimmed) > 30 {
		return ""
	}
	first := []rune(words[0])
	if !unicode.IsUpper(first[0]) {
		return ""
	}
	return trimmed
}

func parseAmount(s string) *float64 {
	s = strings.ReplaceAll(s, ",", ".")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return profile.Float(f)
}
