// Package flow implements the onboarding step state machine: the fixed
// step order, the per-step required fields, and next-step computation.
package flow

// Step identifies one stage of the onboarding sequence.
type Step string

const (
	StepGreeting        Step = "greeting"
	StepCurrencyConfirm Step = "currency_confirm"
	StepName            Step = "name"
	StepStudies         Step = "studies"
	StepSkills          Step = "skills"
	StepCertifications  Step = "certifications"
	StepBudget          Step = "budget"
	StepWorkPreferences Step = "work_preferences"
	StepGoal            Step = "goal"
	StepAcademicEvents  Step = "academic_events"
	StepInventory       Step = "inventory"
	StepTrade           Step = "trade"
	StepLifestyle       Step = "lifestyle"
	StepComplete        Step = "complete"
)

// order is the total order of steps. StepComplete is terminal.
var order = []Step{
	StepGreeting,
	StepCurrencyConfirm,
	StepName,
	StepStudies,
	StepSkills,
	StepCertifications,
	StepBudget,
	StepWorkPreferences,
	StepGoal,
	StepAcademicEvents,
	StepInventory,
	StepTrade,
	StepLifestyle,
	StepComplete,
}

// requiredFields gates advancement: a step only advances once every
// listed field is present in the turn's extraction. Steps with an empty
// list are optional and advance on any visit.
var requiredFields = map[Step][]string{
	StepGreeting:        {"city"},
	StepCurrencyConfirm: {},
	StepName:            {"name"},
	StepStudies:         {"diploma", "field"},
	StepSkills:          {"skills"},
	StepCertifications:  {},
	StepBudget:          {"income", "expenses"},
	StepWorkPreferences: {"maxWeeklyHours", "minHourlyRate"},
	StepGoal:            {"goalName", "goalAmount"},
	StepAcademicEvents:  {},
	StepInventory:       {},
	StepTrade:           {},
	StepLifestyle:       {},
	StepComplete:        {},
}

// Fields is the view of extracted or merged profile data the state
// machine needs. Implemented by profile.ProfileData.
type Fields interface {
	Has(name string) bool
}

// Order returns the full step sequence.
func Order() []Step {
	out := make([]Step, len(order))
	copy(out, order)
	return out
}

// Valid reports whether s is a known step.
func Valid(s Step) bool {
	_, ok := requiredFields[s]
	return ok
}

// IsTerminal reports whether s is the terminal step.
func IsTerminal(s Step) bool { return s == StepComplete }

// Required returns the required field names for a step.
func Required(s Step) []string {
	return append([]string{}, requiredFields[s]...)
}

// Missing returns the required fields of s not present in extracted.
func Missing(s Step, extracted Fields) []string {
	var missing []string
	for _, f := range requiredFields[s] {
		if extracted == nil || !extracted.Has(f) {
			missing = append(missing, f)
		}
	}
	return missing
}

// Next computes the step after processing a message at current.
// Advancement is driven by the fields extracted this turn; merged is the
// post-merge profile, consulted only for the currency skip. Unknown
// steps and the terminal step return current unchanged — never an error.
func Next(current Step, extracted, merged Fields) Step {
	if current == StepComplete {
		return StepComplete
	}
	idx := indexOf(current)
	if idx < 0 {
		return current
	}
	if len(Missing(current, extracted)) > 0 {
		return current
	}
	next := order[idx+1]
	// Currency auto-detected from the city makes confirmation pointless.
	if next == StepCurrencyConfirm && merged != nil && merged.Has("currency") {
		next = StepName
	}
	return next
}

func indexOf(s Step) int {
	for i, st := range order {
		if st == s {
			return i
		}
	}
	return -1
}

// prompts are the guiding questions asked when entering each step.
var prompts = map[Step]string{
	StepGreeting:        "Hi! I'm your budget sidekick. To get started, which city do you live in?",
	StepCurrencyConfirm: "Which currency should I use for your budget?",
	StepName:            "Great! What should I call you?",
	StepStudies:         "What are you studying, and towards which diploma?",
	StepSkills:          "What skills do you have? Anything counts — software, languages, tutoring...",
	StepCertifications:  "Do you hold any certifications (TOEFL, first aid, driving license...)? Say 'none' if not.",
	StepBudget:          "Let's talk money. Roughly how much do you earn and spend per month?",
	StepWorkPreferences: "How many hours per week could you work, and what's your minimum hourly rate?",
	StepGoal:            "What are you saving for, and how much do you need?",
	StepAcademicEvents:  "Any exams or internships coming up I should plan around? Say 'none' if not.",
	StepInventory:       "Do you own anything you'd consider selling (books, electronics, a bike...)? Say 'none' if not.",
	StepTrade:           "Any services you could offer — tutoring, babysitting, deliveries? Say 'none' if not.",
	StepLifestyle:       "Last one: any paid subscriptions (Netflix, Spotify, gym...)? Say 'none' if not.",
	StepComplete:        "You're all set! Ask me anything about your budget or goals.",
}

// Prompt returns the question asked when the conversation is on s.
func Prompt(s Step) string {
	if p, ok := prompts[s]; ok {
		return p
	}
	return prompts[StepGreeting]
}
