package profile

import (
	"strings"

	"github.com/nicolas-geysse/encode-club-hackathon-2026-sub002/internal/flow"
)

// homeSteps maps each list field to the step where it is actively
// collected. When the user is on that step, new items are appended and
// deduplicated; when the field is amended from any other step, the new
// list replaces the old one (a revisit usually means "here is the
// corrected list").
var homeSteps = map[string]flow.Step{
	"skills":             flow.StepSkills,
	"certifications":     flow.StepCertifications,
	"academicEvents":     flow.StepAcademicEvents,
	"inventoryItems":     flow.StepInventory,
	"tradeOpportunities": flow.StepTrade,
	"subscriptions":      flow.StepLifestyle,
}

// expenseWeights is the fixed split applied when a budget amendment
// arrives as one combined expenses figure.
var expenseWeights = map[string]float64{
	"rent":          0.50,
	"food":          0.25,
	"transport":     0.10,
	"subscriptions": 0.05,
	"other":         0.10,
}

// SplitExpenses divides a combined monthly expenses figure into the
// fixed weighted sub-categories.
func SplitExpenses(total float64) map[string]float64 {
	out := make(map[string]float64, len(expenseWeights))
	for cat, w := range expenseWeights {
		out[cat] = total * w
	}
	return out
}

// Merge folds extracted fields into the existing profile and returns the
// result; neither argument is mutated. Scalars are last-write-wins. List
// fields use the home-step rule above. MissingInfo is carried over from
// the extraction (it is per-turn, not accumulated); AmbiguousFields are
// never merged — the caller must resolve them first.
func Merge(existing, extracted *ProfileData, step flow.Step) *ProfileData {
	out := existing.Clone()
	if out == nil {
		out = &ProfileData{}
	}
	if extracted == nil {
		out.MissingInfo = nil
		return out
	}

	if extracted.Name != nil {
		out.Name = cloneStringPtr(extracted.Name)
	}
	if extracted.Diploma != nil {
		out.Diploma = cloneStringPtr(extracted.Diploma)
	}
	if extracted.Field != nil {
		out.Field = cloneStringPtr(extracted.Field)
	}
	if extracted.City != nil {
		out.City = cloneStringPtr(extracted.City)
	}
	if extracted.Currency != nil {
		out.Currency = cloneStringPtr(extracted.Currency)
	}
	if extracted.Income != nil {
		out.Income = cloneFloatPtr(extracted.Income)
	}
	if extracted.Expenses != nil {
		out.Expenses = cloneFloatPtr(extracted.Expenses)
		// An expenses figure arriving outside the budget step is an
		// amendment: split it into the weighted sub-categories.
		if step != flow.StepBudget {
			out.ExpenseBreakdown = SplitExpenses(*extracted.Expenses)
		}
	}
	if extracted.MaxWeeklyHours != nil {
		out.MaxWeeklyHours = cloneFloatPtr(extracted.MaxWeeklyHours)
	}
	if extracted.MinHourlyRate != nil {
		out.MinHourlyRate = cloneFloatPtr(extracted.MinHourlyRate)
	}
	if extracted.GoalName != nil {
		out.GoalName = cloneStringPtr(extracted.GoalName)
	}
	if extracted.GoalAmount != nil {
		out.GoalAmount = cloneFloatPtr(extracted.GoalAmount)
	}
	if extracted.GoalDeadline != nil {
		out.GoalDeadline = cloneStringPtr(extracted.GoalDeadline)
	}

	if extracted.Skills != nil {
		out.Skills = mergeStrings(out.Skills, extracted.Skills, onHomeStep("skills", step))
	}
	if extracted.Certifications != nil {
		out.Certifications = mergeStrings(out.Certifications, extracted.Certifications, onHomeStep("certifications", step))
	}
	if extracted.AcademicEvents != nil {
		events := normalizeEvents(extracted.AcademicEvents)
		if onHomeStep("academicEvents", step) {
			out.AcademicEvents = appendEvents(out.AcademicEvents, events)
		} else {
			out.AcademicEvents = events
		}
	}
	if extracted.InventoryItems != nil {
		if onHomeStep("inventoryItems", step) {
			out.InventoryItems = appendItems(out.InventoryItems, extracted.InventoryItems)
		} else {
			out.InventoryItems = append([]InventoryItem{}, extracted.InventoryItems...)
		}
	}
	if extracted.TradeOpportunities != nil {
		if onHomeStep("tradeOpportunities", step) {
			out.TradeOpportunities = appendTrades(out.TradeOpportunities, extracted.TradeOpportunities)
		} else {
			out.TradeOpportunities = append([]TradeOpportunity{}, extracted.TradeOpportunities...)
		}
	}
	if extracted.Subscriptions != nil {
		if onHomeStep("subscriptions", step) {
			out.Subscriptions = appendSubscriptions(out.Subscriptions, extracted.Subscriptions)
		} else {
			out.Subscriptions = append([]Subscription{}, extracted.Subscriptions...)
		}
	}

	out.MissingInfo = nil
	if extracted.MissingInfo != nil {
		out.MissingInfo = append([]string{}, extracted.MissingInfo...)
	}
	out.AmbiguousFields = nil
	return out
}

func onHomeStep(field string, step flow.Step) bool {
	return homeSteps[field] == step
}

// mergeStrings appends with case-insensitive dedup when onHome, otherwise
// replaces. An explicit empty incoming list always wins: the user said
// "none".
func mergeStrings(existing, incoming []string, onHome bool) []string {
	if !onHome || len(incoming) == 0 {
		return append([]string{}, incoming...)
	}
	out := append([]string{}, existing...)
	seen := make(map[string]bool, len(out))
	for _, s := range out {
		seen[strings.ToLower(s)] = true
	}
	for _, s := range incoming {
		if !seen[strings.ToLower(s)] {
			out = append(out, s)
			seen[strings.ToLower(s)] = true
		}
	}
	return out
}

// normalizeEvents defaults a missing end date to the start date.
func normalizeEvents(events []AcademicEvent) []AcademicEvent {
	out := make([]AcademicEvent, len(events))
	for i, e := range events {
		if e.EndDate == "" {
			e.EndDate = e.StartDate
		}
		out[i] = e
	}
	return out
}

func appendEvents(existing, incoming []AcademicEvent) []AcademicEvent {
	out := append([]AcademicEvent{}, existing...)
	seen := make(map[string]bool, len(out))
	for _, e := range out {
		seen[strings.ToLower(e.Name)+"|"+e.StartDate] = true
	}
	for _, e := range incoming {
		key := strings.ToLower(e.Name) + "|" + e.StartDate
		if !seen[key] {
			out = append(out, e)
			seen[key] = true
		}
	}
	return out
}

func appendItems(existing, incoming []InventoryItem) []InventoryItem {
	out := append([]InventoryItem{}, existing...)
	seen := make(map[string]bool, len(out))
	for _, it := range out {
		seen[strings.ToLower(it.Name)] = true
	}
	for _, it := range incoming {
		if !seen[strings.ToLower(it.Name)] {
			out = append(out, it)
			seen[strings.ToLower(it.Name)] = true
		}
	}
	return out
}

func appendTrades(existing, incoming []TradeOpportunity) []TradeOpportunity {
	out := append([]TradeOpportunity{}, existing...)
	seen := make(map[string]bool, len(out))
	for _, tr := range out {
		seen[strings.ToLower(tr.Name)] = true
	}
	for _, tr := range incoming {
		if !seen[strings.ToLower(tr.Name)] {
			out = append(out, tr)
			seen[strings.ToLower(tr.Name)] = true
		}
	}
	return out
}

func appendSubscriptions(existing, incoming []Subscription) []Subscription {
	out := append([]Subscription{}, existing...)
	seen := make(map[string]bool, len(out))
	for _, s := range out {
		seen[strings.ToLower(s.Name)] = true
	}
	for _, s := range incoming {
		if !seen[strings.ToLower(s.Name)] {
			out = append(out, s)
			seen[strings.ToLower(s.Name)] = true
		}
	}
	return out
}
