package profile

import (
	"math"
	"reflect"
	"testing"

	"github.com/nicolas-geysse/encode-club-hackathon-2026-sub002/internal/flow"
)

func TestMerge_ScalarOverwrite(t *testing.T) {
	existing := &ProfileData{Name: String("Alex"), City: String("Paris")}
	extracted := &ProfileData{Name: String("Alexandra")}

	got := Merge(existing, extracted, flow.StepName)
	if got.Name == nil || *got.Name != "Alexandra" {
		t.Errorf("Name = %v, want Alexandra", got.Name)
	}
	if got.City == nil || *got.City != "Paris" {
		t.Errorf("City = %v, want Paris (untouched)", got.City)
	}
	// Inputs must not be mutated.
	if *existing.Name != "Alex" {
		t.Error("Merge mutated the existing profile")
	}
}

func TestMerge_SmartMergeAsymmetry(t *testing.T) {
	existing := &ProfileData{Skills: []string{"Excel"}}
	extracted := &ProfileData{Skills: []string{"Python"}}

	// On the skills step: append and dedup.
	got := Merge(existing, extracted, flow.StepSkills)
	if want := []string{"Excel", "Python"}; !reflect.DeepEqual(got.Skills, want) {
		t.Errorf("on-step merge = %v, want %v", got.Skills, want)
	}

	// Amended from another step: replace.
	got = Merge(existing, extracted, flow.StepCertifications)
	if want := []string{"Python"}; !reflect.DeepEqual(got.Skills, want) {
		t.Errorf("off-step merge = %v, want %v", got.Skills, want)
	}
}

func TestMerge_DedupIsCaseInsensitive(t *testing.T) {
	existing := &ProfileData{Skills: []string{"Python"}}
	extracted := &ProfileData{Skills: []string{"python", "SQL"}}

	got := Merge(existing, extracted, flow.StepSkills)
	if want := []string{"Python", "SQL"}; !reflect.DeepEqual(got.Skills, want) {
		t.Errorf("Skills = %v, want %v", got.Skills, want)
	}
}

func TestMerge_ExplicitEmptyListSurvives(t *testing.T) {
	existing := &ProfileData{}
	extracted := &ProfileData{Certifications: []string{}}

	got := Merge(existing, extracted, flow.StepCertifications)
	if got.Certifications == nil {
		t.Fatal("Certifications = nil, want explicit empty list")
	}
	if len(got.Certifications) != 0 {
		t.Errorf("Certifications = %v, want empty", got.Certifications)
	}
}

func TestMerge_AcademicEventEndDateDefaults(t *testing.T) {
	extracted := &ProfileData{AcademicEvents: []AcademicEvent{
		{Name: "Finals", StartDate: "2026-05-10"},
		{Name: "Internship", StartDate: "2026-06-01", EndDate: "2026-08-31"},
	}}

	got := Merge(&ProfileData{}, extracted, flow.StepAcademicEvents)
	if got.AcademicEvents[0].EndDate != "2026-05-10" {
		t.Errorf("EndDate = %q, want startDate default", got.AcademicEvents[0].EndDate)
	}
	if got.AcademicEvents[1].EndDate != "2026-08-31" {
		t.Errorf("EndDate = %q, want explicit value kept", got.AcademicEvents[1].EndDate)
	}
}

func TestMerge_BudgetAmendmentSplitsExpenses(t *testing.T) {
	extracted := &ProfileData{Expenses: Float(1000)}

	// Amended outside the budget step → weighted breakdown.
	got := Merge(&ProfileData{}, extracted, flow.StepComplete)
	want := map[string]float64{"rent": 500, "food": 250, "transport": 100, "subscriptions": 50, "other": 100}
	for cat, amount := range want {
		if math.Abs(got.ExpenseBreakdown[cat]-amount) > 1e-9 {
			t.Errorf("breakdown[%s] = %v, want %v", cat, got.ExpenseBreakdown[cat], amount)
		}
	}

	// On the budget step itself → no breakdown.
	got = Merge(&ProfileData{}, extracted, flow.StepBudget)
	if got.ExpenseBreakdown != nil {
		t.Errorf("breakdown on budget step = %v, want nil", got.ExpenseBreakdown)
	}
}

func TestMerge_ControlFieldsNotAccumulated(t *testing.T) {
	existing := &ProfileData{MissingInfo: []string{"goalName"}}
	got := Merge(existing, &ProfileData{}, flow.StepGoal)
	if got.MissingInfo != nil {
		t.Errorf("MissingInfo = %v, want nil (per-turn)", got.MissingInfo)
	}

	extracted := &ProfileData{MissingInfo: []string{"goalAmount"}}
	got = Merge(&ProfileData{}, extracted, flow.StepGoal)
	if want := []string{"goalAmount"}; !reflect.DeepEqual(got.MissingInfo, want) {
		t.Errorf("MissingInfo = %v, want %v", got.MissingInfo, want)
	}
}

func TestMerge_NilExisting(t *testing.T) {
	got := Merge(nil, &ProfileData{Name: String("Ana")}, flow.StepName)
	if got.Name == nil || *got.Name != "Ana" {
		t.Errorf("Name = %v, want Ana", got.Name)
	}
}

func TestFieldCount_IgnoresControlFields(t *testing.T) {
	p := &ProfileData{
		AmbiguousFields: map[string]any{"subscriptions": []string{"Netflix"}},
		MissingInfo:     []string{"goalName"},
	}
	if n := p.FieldCount(); n != 0 {
		t.Errorf("FieldCount() = %d, want 0", n)
	}
	p.Skills = []string{}
	if n := p.FieldCount(); n != 1 {
		t.Errorf("FieldCount() with empty skills = %d, want 1", n)
	}
}
