package pipeline

import (
	"fmt"
	"strings"

	"github.com/nicolas-geysse/encode-club-hackathon-2026-sub002/internal/flow"
	"github.com/nicolas-geysse/encode-club-hackathon-2026-sub002/internal/profile"
)

// fieldLabels humanize field names in clarification questions.
var fieldLabels = map[string]string{
	"name":           "your name",
	"city":           "which city you live in",
	"diploma":        "which diploma you're working toward",
	"field":          "your field of study",
	"skills":         "a few skills you have",
	"income":         "your monthly income",
	"expenses":       "your monthly expenses",
	"maxWeeklyHours": "how many hours a week you can work",
	"minHourlyRate":  "your minimum hourly rate",
	"goalName":       "what you're saving for",
	"goalAmount":     "how much your goal costs",
}

// confirmationTopics phrase the ambiguity questions per field.
var confirmationTopics = map[string]string{
	"subscriptions":  "a subscription",
	"inventoryItems": "something you own",
}

// buildReply composes the turn's reply text from how the flow moved.
func buildReply(current, next flow.Step, extracted, merged *profile.ProfileData) string {
	switch {
	case flow.IsTerminal(next):
		return flow.Prompt(flow.StepComplete)
	case next != current:
		if ack := acknowledge(extracted); ack != "" {
			return ack + " " + flow.Prompt(next)
		}
		return flow.Prompt(next)
	default:
		return clarify(current, extracted, merged)
	}
}

// acknowledge names what the turn captured, so advancement doesn't feel
// abrupt.
func acknowledge(extracted *profile.ProfileData) string {
	switch {
	case extracted.Name != nil:
		return fmt.Sprintf("Nice to meet you, %s!", *extracted.Name)
	case extracted.City != nil:
		return fmt.Sprintf("Got it, %s.", *extracted.City)
	case extracted.GoalName != nil:
		return fmt.Sprintf("%s — noted.", *extracted.GoalName)
	case len(extracted.Skills) > 0:
		return fmt.Sprintf("%s — good to know.", strings.Join(extracted.Skills, ", "))
	case extracted.FieldCount() > 0:
		return "Got it."
	}
	return ""
}

// clarify asks for what is still missing on the current step. The
// extractor's own follow-ups (missingInfo) win over the generic gate.
func clarify(step flow.Step, extracted, merged *profile.ProfileData) string {
	for _, f := range extracted.MissingInfo {
		if label, ok := fieldLabels[f]; ok {
			return fmt.Sprintf("Almost there — can you tell me %s?", label)
		}
	}

	missing := flow.Missing(step, merged)
	if len(missing) == 0 {
		return flow.Prompt(step)
	}

	labels := make([]string, 0, len(missing))
	for _, f := range missing {
		if label, ok := fieldLabels[f]; ok {
			labels = append(labels, label)
		}
	}
	if len(labels) == 0 {
		return flow.Prompt(step)
	}
	return fmt.Sprintf("I didn't catch everything — could you tell me %s?", strings.Join(labels, " and "))
}

func confirmationQuestion(field string, value any) string {
	topic, ok := confirmationTopics[field]
	if !ok {
		topic = "that"
	}
	return fmt.Sprintf("You mentioned %v — is that %s you'd like me to record? We can also keep going and come back to it.", value, topic)
}
