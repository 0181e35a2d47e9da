package extract

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nicolas-geysse/encode-club-hackathon-2026-sub002/internal/flow"
	"github.com/nicolas-geysse/encode-club-hackathon-2026-sub002/internal/llm"
	"github.com/nicolas-geysse/encode-club-hackathon-2026-sub002/internal/profile"
)

const (
	// historyTurns bounds how many prior messages are replayed.
	historyTurns = 6
	// historyCharBudget truncates each replayed message to bound token cost.
	historyCharBudget = 400
)

const systemPromptTemplate = `You are a profile extraction engine for a student budgeting assistant. Analyze the user's message and output ONLY a single valid JSON object. No prose, no markdown.

Fields (include only what the message states):
- "name": string — the user's first name
- "diploma": string — degree level (Bachelor, Master, PhD, BTS, DUT, High School)
- "field": string — field of study
- "city": string, "currency": string — ISO code
- "skills": string[], "certifications": string[]
- "income": number, "expenses": number — monthly amounts
- "maxWeeklyHours": number, "minHourlyRate": number
- "goalName": string, "goalAmount": number, "goalDeadline": string — deadline as the user phrased it
- "academicEvents": [{"name","startDate","endDate"}] — ISO dates
- "inventoryItems": [{"name","category","estimatedValue"}]
- "tradeOpportunities": [{"name","description"}]
- "subscriptions": [{"name","monthlyCost"}]
- "ambiguousFields": object — see rules

Rules:
- Extract only facts the user actually stated. Never invent values.
- If the user says they have none of a list field ("none", "nothing", "skip"), output that field as an empty array [].
- Do not re-extract facts already present in the known profile unless the user corrects them.
- If the message contains information unrelated to the current step's topic (e.g. a subscription name while you are asked for their first name), do NOT put it in the data fields. Put it under "ambiguousFields" keyed by field name instead.
- Output {} if the message contains nothing to extract.`

// stepHints steer the model towards the current step's topic.
var stepHints = map[flow.Step]string{
	flow.StepGreeting:        "You are collecting the user's city. Map it to its currency if you are certain.",
	flow.StepCurrencyConfirm: "You are confirming the budget currency. Extract the currency ISO code.",
	flow.StepName:            "You are collecting the user's first name only.",
	flow.StepStudies:         "You are collecting the diploma level and field of study.",
	flow.StepSkills:          "You are collecting skills. Short canonical labels, e.g. 'Python', 'Tutoring'.",
	flow.StepCertifications:  "You are collecting certifications. 'none' means an empty array.",
	flow.StepBudget:          "You are collecting monthly income and expenses as plain numbers.",
	flow.StepWorkPreferences: "You are collecting max weekly work hours and minimum hourly rate.",
	flow.StepGoal:            "You are collecting a savings goal: name, amount, and optional deadline.",
	flow.StepAcademicEvents:  "You are collecting upcoming academic events with dates. 'none' means an empty array.",
	flow.StepInventory:       "You are collecting items the user could sell. 'none' means an empty array.",
	flow.StepTrade:           "You are collecting services the user could offer. 'none' means an empty array.",
	flow.StepLifestyle:       "You are collecting paid subscriptions. 'none' means an empty array.",
}

// BuildPrompt constructs the chat messages for one extraction call:
// system instruction, optional working-memory facts, a bounded slice of
// history, and a final instruction embedding the step, the raw message,
// and the known profile.
func BuildPrompt(message string, step flow.Step, existing *profile.ProfileData, history []llm.Message, workingMemory []string) []llm.Message {
	var sb strings.Builder
	sb.WriteString(systemPromptTemplate)
	if len(workingMemory) > 0 {
		sb.WriteString("\n\n[Known facts — do not re-extract]\n")
		for _, fact := range workingMemory {
			fmt.Fprintf(&sb, "- %s\n", fact)
		}
	}

	messages := []llm.Message{{Role: "system", Content: sb.String()}}

	if len(history) > historyTurns {
		history = history[len(history)-historyTurns:]
	}
	for _, m := range history {
		messages = append(messages, llm.Message{Role: m.Role, Content: truncate(m.Content, historyCharBudget)})
	}

	profileJSON := "{}"
	if existing != nil {
		if b, err := json.Marshal(existing); err == nil {
			profileJSON = string(b)
		}
	}

	final := fmt.Sprintf("Current step: %s\n%s\n\nUser message:\n%s\n\nKnown profile:\n%s",
		step, stepHints[step], message, profileJSON)
	return append(messages, llm.Message{Role: "user", Content: final})
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	// Don't split a multi-byte rune.
	for max > 0 && s[max]&0xC0 == 0x80 {
		max--
	}
	return s[:max] + "…"
}
