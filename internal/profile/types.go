// Package profile defines the accumulated user profile and the merge
// rules that fold newly extracted fields into it.
package profile

// ProfileData accumulates everything the onboarding dialogue learns about
// the user. Every field is independently optional: a nil pointer or nil
// slice means "not yet known", while a non-nil empty slice means the user
// explicitly confirmed they have none.
type ProfileData struct {
	Name     *string `json:"name,omitempty"`
	Diploma  *string `json:"diploma,omitempty"`
	Field    *string `json:"field,omitempty"`
	City     *string `json:"city,omitempty"`
	Currency *string `json:"currency,omitempty"`

	Skills         []string `json:"skills,omitempty"`
	Certifications []string `json:"certifications,omitempty"`

	Income   *float64 `json:"income,omitempty"`
	Expenses *float64 `json:"expenses,omitempty"`

	// ExpenseBreakdown is derived from Expenses when the budget is amended
	// with a single combined figure; it is never extracted directly.
	ExpenseBreakdown map[string]float64 `json:"expenseBreakdown,omitempty"`

	MaxWeeklyHours *float64 `json:"maxWeeklyHours,omitempty"`
	MinHourlyRate  *float64 `json:"minHourlyRate,omitempty"`

	GoalName     *string  `json:"goalName,omitempty"`
	GoalAmount   *float64 `json:"goalAmount,omitempty"`
	GoalDeadline *string  `json:"goalDeadline,omitempty"`

	AcademicEvents     []AcademicEvent    `json:"academicEvents,omitempty"`
	InventoryItems     []InventoryItem    `json:"inventoryItems,omitempty"`
	TradeOpportunities []TradeOpportunity `json:"tradeOpportunities,omitempty"`
	Subscriptions      []Subscription     `json:"subscriptions,omitempty"`

	// Control fields: not user data.
	MissingInfo     []string       `json:"missingInfo,omitempty"`
	AmbiguousFields map[string]any `json:"ambiguousFields,omitempty"`
}

// AcademicEvent is a dated entry in the user's academic calendar.
type AcademicEvent struct {
	Name      string `json:"name"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate,omitempty"`
}

// InventoryItem is something the user owns and could sell.
type InventoryItem struct {
	Name           string   `json:"name"`
	Category       string   `json:"category,omitempty"`
	EstimatedValue *float64 `json:"estimatedValue,omitempty"`
}

// TradeOpportunity is a service or gig the user could offer.
type TradeOpportunity struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Subscription is a recurring paid service.
type Subscription struct {
	Name        string   `json:"name"`
	MonthlyCost *float64 `json:"monthlyCost,omitempty"`
}

// String returns a pointer to s. Convenience for building profiles.
func String(s string) *string { return &s }

// Float returns a pointer to f.
func Float(f float64) *float64 { return &f }

// Has reports whether the named data field is set. Control fields
// (missingInfo, ambiguousFields) are not data and always report false.
// For list fields an explicit empty list counts as set.
func (p *ProfileData) Has(name string) bool {
	if p == nil {
		return false
	}
	switch name {
	case "name":
		return p.Name != nil
	case "diploma":
		return p.Diploma != nil
	case "field":
		return p.Field != nil
	case "city":
		return p.City != nil
	case "currency":
		return p.Currency != nil
	case "skills":
		return p.Skills != nil
	case "certifications":
		return p.Certifications != nil
	case "income":
		return p.Income != nil
	case "expenses":
		return p.Expenses != nil
	case "maxWeeklyHours":
		return p.MaxWeeklyHours != nil
	case "minHourlyRate":
		return p.MinHourlyRate != nil
	case "goalName":
		return p.GoalName != nil
	case "goalAmount":
		return p.GoalAmount != nil
	case "goalDeadline":
		return p.GoalDeadline != nil
	case "academicEvents":
		return p.AcademicEvents != nil
	case "inventoryItems":
		return p.InventoryItems != nil
	case "tradeOpportunities":
		return p.TradeOpportunities != nil
	case "subscriptions":
		return p.Subscriptions != nil
	}
	return false
}

// dataFields lists every data field name, in declaration order.
var dataFields = []string{
	"name", "diploma", "field", "city", "currency",
	"skills", "certifications",
	"income", "expenses",
	"maxWeeklyHours", "minHourlyRate",
	"goalName", "goalAmount", "goalDeadline",
	"academicEvents", "inventoryItems", "tradeOpportunities", "subscriptions",
}

// FieldCount returns the number of set data fields. Control fields are
// excluded: an extraction that produced only an ambiguity flag still
// counts as zero fields.
func (p *ProfileData) FieldCount() int {
	n := 0
	for _, f := range dataFields {
		if p.Has(f) {
			n++
		}
	}
	return n
}

// IsEmpty reports whether no data field is set.
func (p *ProfileData) IsEmpty() bool { return p.FieldCount() == 0 }

// Clone returns a deep copy.
func (p *ProfileData) Clone() *ProfileData {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Name = cloneStringPtr(p.Name)
	cp.Diploma = cloneStringPtr(p.Diploma)
	cp.Field = cloneStringPtr(p.Field)
	cp.City = cloneStringPtr(p.City)
	cp.Currency = cloneStringPtr(p.Currency)
	cp.GoalName = cloneStringPtr(p.GoalName)
	cp.GoalDeadline = cloneStringPtr(p.GoalDeadline)
	cp.Income = cloneFloatPtr(p.Income)
	cp.Expenses = cloneFloatPtr(p.Expenses)
	cp.MaxWeeklyHours = cloneFloatPtr(p.MaxWeeklyHours)
	cp.MinHourlyRate = cloneFloatPtr(p.MinHourlyRate)
	cp.GoalAmount = cloneFloatPtr(p.GoalAmount)
	if p.Skills != nil {
		cp.Skills = append([]string{}, p.Skills...)
	}
	if p.Certifications != nil {
		cp.Certifications = append([]string{}, p.Certifications...)
	}
	if p.AcademicEvents != nil {
		cp.AcademicEvents = append([]AcademicEvent{}, p.AcademicEvents...)
	}
	if p.InventoryItems != nil {
		cp.InventoryItems = append([]InventoryItem{}, p.InventoryItems...)
	}
	if p.TradeOpportunities != nil {
		cp.TradeOpportunities = append([]TradeOpportunity{}, p.TradeOpportunities...)
	}
	if p.Subscriptions != nil {
		cp.Subscriptions = append([]Subscription{}, p.Subscriptions...)
	}
	if p.ExpenseBreakdown != nil {
		cp.ExpenseBreakdown = make(map[string]float64, len(p.ExpenseBreakdown))
		for k, v := range p.ExpenseBreakdown {
			cp.ExpenseBreakdown[k] = v
		}
	}
	if p.MissingInfo != nil {
		cp.MissingInfo = append([]string{}, p.MissingInfo...)
	}
	if p.AmbiguousFields != nil {
		cp.AmbiguousFields = make(map[string]any, len(p.AmbiguousFields))
		for k, v := range p.AmbiguousFields {
			cp.AmbiguousFields[k] = v
		}
	}
	return &cp
}

func cloneStringPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneFloatPtr(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}
