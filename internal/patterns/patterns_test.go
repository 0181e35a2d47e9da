package patterns

import (
	"reflect"
	"testing"
)

func TestFirstMatch_OrderWins(t *testing.T) {
	// "master of computer science" contains both "master" and "m1"
	// fragments; table order decides.
	got, ok := FirstMatch(Diplomas, "i'm doing a master, previously an l3")
	if !ok || got != "Master" {
		t.Errorf("FirstMatch() = %q, %v; want Master, true", got, ok)
	}
}

func TestFirstMatch_NoMatch(t *testing.T) {
	if got, ok := FirstMatch(Diplomas, "hello there"); ok {
		t.Errorf("FirstMatch() = %q, true; want no match", got)
	}
}

func TestAllMatches_Dedup(t *testing.T) {
	got := AllMatches(Skills, "i know python, excel and a bit of python tutoring")
	want := []string{"Python", "Excel", "Tutoring"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("AllMatches() = %v, want %v", got, want)
	}
}

func TestCityCurrency(t *testing.T) {
	tests := []struct {
		city string
		want string
		ok   bool
	}{
		{"Paris", "EUR", true},
		{"london", "GBP", true},
		{"  New York ", "USD", true},
		{"Atlantis", "", false},
	}
	for _, tt := range tests {
		got, ok := CityCurrency(tt.city)
		if got != tt.want || ok != tt.ok {
			t.Errorf("CityCurrency(%q) = %q, %v; want %q, %v", tt.city, got, ok, tt.want, tt.ok)
		}
	}
}

func TestKnownCity_TitleCase(t *testing.T) {
	got, ok := KnownCity("i just moved to new york last month")
	if !ok || got != "New York" {
		t.Errorf("KnownCity() = %q, %v; want New York, true", got, ok)
	}
}

func TestIsNegative(t *testing.T) {
	for _, msg := range []string{"none", "Nothing", "skip", "  nope.", "rien", "I don't have any certifications"} {
		if !IsNegative(msg) {
			t.Errorf("IsNegative(%q) = false, want true", msg)
		}
	}
	for _, msg := range []string{"TOEFL and first aid", "a bike and some books"} {
		if IsNegative(msg) {
			t.Errorf("IsNegative(%q) = true, want false", msg)
		}
	}
}
