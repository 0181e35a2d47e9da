// Package intent classifies free-form messages once guided onboarding is
// over. Classification is rule-based and synchronous: patterns are
// evaluated in a fixed priority order and the first match wins, so a
// message always maps to exactly one intent and the classifier never
// needs a network call.
package intent

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// Mode says which conversational regime should handle the next turn.
type Mode string

const (
	ModeOnboarding   Mode = "onboarding"
	ModeConversation Mode = "conversation"
	ModeProfileEdit  Mode = "profile-edit"
)

// Actions attached to a detected intent.
const (
	ActionContinueOnboarding = "continue_onboarding"
	ActionNewProfile         = "new_profile"
	ActionUpdateProfile      = "update_profile"
	ActionUpdateField        = "update_field"
	ActionNewGoal            = "new_goal"
	ActionShowProgress       = "show_progress"
	ActionGiveAdvice         = "give_advice"
	ActionShowPlan           = "show_plan"
)

// GoalDraft carries the sub-extracted pieces of a goal declaration.
// Amount is nil when the message named no figure; Deadline is the raw
// phrase, left for the caller to normalize.
type GoalDraft struct {
	Name     string   `json:"name,omitempty"`
	Amount   *float64 `json:"amount,omitempty"`
	Deadline string   `json:"deadline,omitempty"`
}

// Intent is the classification of one message. MatchedPattern names the
// rule that fired and is diagnostic only.
type Intent struct {
	Mode           Mode       `json:"mode"`
	Action         string     `json:"action,omitempty"`
	Field          string     `json:"field,omitempty"`
	ExtractedValue string     `json:"extractedValue,omitempty"`
	ExtractedGoal  *GoalDraft `json:"extractedGoal,omitempty"`
	MatchedPattern string     `json:"matchedPattern,omitempty"`
}

// Classifier holds the compiled pattern set. Build one with
// NewClassifier and reuse it; classification itself is stateless.
type Classifier struct {
	continueOnboarding *regexp.Regexp
	newProfile         *regexp.Regexp
	updateProfile      *regexp.Regexp
	namePrefix         *regexp.Regexp
	changeField        *regexp.Regexp
	cityValue          *regexp.Regexp
	nameValue          *regexp.Regexp
	budgetKeyword      *regexp.Regexp
	amount             *regexp.Regexp
	goalDeclaration    *regexp.Regexp
	goalDeadline       *regexp.Regexp
	progressCheck      *regexp.Regexp
	adviceRequest      *regexp.Regexp
	planView           *regexp.Regexp
}

// NewClassifier compiles the pattern set.
func NewClassifier() *Classifier {
	return &Classifier{
		continueOnboarding: regexp.MustCompile(`(?i)\b(continue|resume|finish|complete)\b.{0,20}\b(onboarding|setup|questions|profile)\b`),
		newProfile:         regexp.MustCompile(`(?i)\b(new profile|start over|restart|from scratch|reset my profile)\b`),
		updateProfile:      regexp.MustCompile(`(?i)\b(update|redo|edit)\b.{0,10}\bmy profile\b`),
		namePrefix:         regexp.MustCompile(`(?i)^(my name is|i am|i'm|call me|je m'appelle)\s+`),
		changeField:        regexp.MustCompile(`(?i)\b(change|update|set|correct|fix)\b.{0,12}\bmy\s+(city|location|name|skills?|work|hours|rate|budget|income|expenses)\b`),
		cityValue:          regexp.MustCompile(`\b(?i:to|in)\s+([A-Z]\p{L}*(?:[ -][A-Z]\p{L}*)*)`),
		nameValue:          regexp.MustCompile(`\b(?i:to)\s+([A-Z]\p{L}*(?:[ -][A-Z]\p{L}*)*)`),
		budgetKeyword:      regexp.MustCompile(`(?i)\b(budget|income|earn|salary|expenses?|spend(?:ing)?|rent)\b`),
		amount:             regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*(?:€|\$|£|k\b)?`),
		goalDeclaration:    regexp.MustCompile(`(?i)\b(?:i want to (?:buy|save for|get)|saving (?:up )?for|my (?:new )?goal is|new goal[:,]?)\s+(?:an?\s+|the\s+)?([\p{L}\d' -]{2,40}?)(?:\s+(?:for|at|by|before|in|worth|costing)\b|[.,!]|$)`),
		goalDeadline:       regexp.MustCompile(`(?i)\b(?:by|before|until|d'ici)\s+(.{2,30}?)(?:[.,!]|$)|\b(in|within|dans)\s+(\d+)\s*(months?|weeks?|mois|semaines?)\b`),
		progressCheck:      regexp.MustCompile(`(?i)\b(how (?:am i|is it) (?:doing|going)|my progress|progress so far|am i on track|how close am i)\b`),
		adviceRequest:      regexp.MustCompile(`(?i)\b(advice|suggest|recommend|what should i|how (?:can|do) i (?:earn|save|make))\b`),
		planView:           regexp.MustCompile(`(?i)\b(my plan|show (?:me )?the plan|weekly plan|what's planned|see my tasks)\b`),
	}
}

// Classify maps a message to a DetectedIntent. It never fails: when no
// pattern fires the result is a plain conversation intent.
func (c *Classifier) Classify(message string) Intent {
	trimmed := strings.TrimSpace(message)

	if c.continueOnboarding.MatchString(trimmed) {
		return Intent{Mode: ModeOnboarding, Action: ActionContinueOnboarding, MatchedPattern: "continue-onboarding"}
	}
	if c.newProfile.MatchString(trimmed) {
		return Intent{Mode: ModeOnboarding, Action: ActionNewProfile, MatchedPattern: "new-profile"}
	}
	if c.updateProfile.MatchString(trimmed) {
		return Intent{Mode: ModeOnboarding, Action: ActionUpdateProfile, MatchedPattern: "update-profile"}
	}
	if name, ok := c.bareName(trimmed); ok {
		return Intent{Mode: ModeProfileEdit, Action: ActionUpdateField, Field: "name", ExtractedValue: name, MatchedPattern: "bare-name"}
	}
	if m := c.changeField.FindStringSubmatch(trimmed); m != nil {
		return c.fieldEdit(trimmed, strings.ToLower(m[2]))
	}
	if intent, ok := c.implicitBudget(trimmed); ok {
		return intent
	}
	if m := c.goalDeclaration.FindStringSubmatch(trimmed); m != nil {
		return Intent{Mode: ModeConversation, Action: ActionNewGoal, ExtractedGoal: c.goalDraft(trimmed, m[1]), MatchedPattern: "new-goal"}
	}
	if c.progressCheck.MatchString(trimmed) {
		return Intent{Mode: ModeConversation, Action: ActionShowProgress, MatchedPattern: "progress-check"}
	}
	if c.adviceRequest.MatchString(trimmed) {
		return Intent{Mode: ModeConversation, Action: ActionGiveAdvice, MatchedPattern: "advice-request"}
	}
	if c.planView.MatchString(trimmed) {
		return Intent{Mode: ModeConversation, Action: ActionShowPlan, MatchedPattern: "plan-view"}
	}
	return Intent{Mode: ModeConversation, MatchedPattern: "fallback"}
}

// bareName recognizes a short message that is just a name, optionally
// behind a self-introduction phrase. The remainder must be one or two
// capitalized words.
func (c *Classifier) bareName(message string) (string, bool) {
	if len(message) > 40 {
		return "", false
	}
	rest := c.namePrefix.ReplaceAllString(message, "")
	rest = strings.TrimRight(rest, ".!,")
	words := strings.Fields(rest)
	if len(words) == 0 || len(words) > 2 {
		return "", false
	}
	for _, w := range words {
		runes := []rune(w)
		if !unicode.IsUpper(runes[0]) {
			return "", false
		}
	}
	// A prefix-less message must be a single word to count as a name,
	// otherwise "Paris France" style fragments would be swallowed too.
	if rest == message && len(words) != 1 {
		return "", false
	}
	return strings.Join(words, " "), true
}

// fieldEdit resolves an explicit "change my X" request, sub-extracting
// the replacement value where the phrasing allows it.
func (c *Classifier) fieldEdit(message, rawField string) Intent {
	field := map[string]string{
		"city": "city", "location": "city",
		"name":   "name",
		"skill":  "skills",
		"skills": "skills",
		"work":   "work", "hours": "work", "rate": "work",
		"budget": "budget", "income": "budget", "expenses": "budget",
	}[rawField]

	intent := Intent{Mode: ModeProfileEdit, Action: ActionUpdateField, Field: field, MatchedPattern: "change-my-" + field}
	switch field {
	case "city":
		if m := c.cityValue.FindStringSubmatch(message); m != nil {
			intent.ExtractedValue = strings.TrimSpace(m[1])
		}
	case "name":
		if m := c.nameValue.FindStringSubmatch(message); m != nil {
			intent.ExtractedValue = strings.TrimSpace(m[1])
		}
	case "budget":
		if m := c.amount.FindStringSubmatch(message); m != nil {
			intent.ExtractedValue = m[1]
		}
	}
	return intent
}

// implicitBudget catches a budget keyword next to a figure without an
// explicit change verb ("my rent went up to 800").
func (c *Classifier) implicitBudget(message string) (Intent, bool) {
	if !c.budgetKeyword.MatchString(message) {
		return Intent{}, false
	}
	m := c.amount.FindStringSubmatch(message)
	if m == nil {
		return Intent{}, false
	}
	return Intent{
		Mode:           ModeProfileEdit,
		Action:         ActionUpdateField,
		Field:          "budget",
		ExtractedValue: m[1],
		MatchedPattern: "implicit-budget",
	}, true
}

// goalDraft sub-extracts amount and deadline around an already matched
// goal name.
func (c *Classifier) goalDraft(message, name string) *GoalDraft {
	draft := &GoalDraft{Name: strings.TrimSpace(name)}

	withoutDeadline := message
	if m := c.goalDeadline.FindStringSubmatch(message); m != nil {
		if m[1] != "" {
			draft.Deadline = strings.TrimSpace(m[1])
		} else {
			draft.Deadline = strings.ToLower(strings.Join([]string{m[2], m[3], m[4]}, " "))
		}
		withoutDeadline = c.goalDeadline.ReplaceAllString(message, "")
	}
	if m := c.amount.FindStringSubmatch(withoutDeadline); m != nil {
		if v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", "."), 64); err == nil {
			draft.Amount = &v
		}
	}
	return draft
}
