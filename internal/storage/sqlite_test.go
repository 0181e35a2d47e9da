package storage

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("opening in-memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestMigrationsApply(t *testing.T) {
	s := openTestStore(t)

	versions, err := s.AppliedMigrations()
	if err != nil {
		t.Fatalf("listing migrations: %v", err)
	}
	if len(versions) < 2 {
		t.Fatalf("applied migrations = %v, want at least sessions and goals", versions)
	}
	for i := 1; i < len(versions); i++ {
		if versions[i] <= versions[i-1] {
			t.Errorf("migration versions not ascending: %v", versions)
		}
	}
}

func TestSessionRoundTrip(t *testing.T) {
	s := openTestStore(t)

	id := uuid.NewString()
	if err := s.CreateSession(Session{ID: id, CurrentStep: "greeting"}); err != nil {
		t.Fatalf("creating session: %v", err)
	}

	got, err := s.GetSession(id)
	if err != nil {
		t.Fatalf("getting session: %v", err)
	}
	if got.CurrentStep != "greeting" {
		t.Errorf("current step = %q, want greeting", got.CurrentStep)
	}
	if got.ChatMode != "onboarding" {
		t.Errorf("chat mode = %q, want onboarding default", got.ChatMode)
	}
	if got.ProfileJSON != "{}" {
		t.Errorf("profile json = %q, want empty object default", got.ProfileJSON)
	}
	if got.CreatedAt.IsZero() || got.UpdatedAt.IsZero() {
		t.Error("timestamps should be set")
	}
}

func TestGetSessionNotFound(t *testing.T) {
	s := openTestStore(t)

	_, err := s.GetSession("nonexistent")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestSaveSession(t *testing.T) {
	s := openTestStore(t)

	id := uuid.NewString()
	if err := s.CreateSession(Session{ID: id, CurrentStep: "greeting"}); err != nil {
		t.Fatalf("creating session: %v", err)
	}

	profile := `{"name":"Lucas","city":"Paris"}`
	if err := s.SaveSession(id, "studies", "onboarding", profile); err != nil {
		t.Fatalf("saving session: %v", err)
	}

	got, err := s.GetSession(id)
	if err != nil {
		t.Fatalf("getting session: %v", err)
	}
	if got.CurrentStep != "studies" {
		t.Errorf("current step = %q, want studies", got.CurrentStep)
	}
	if got.ProfileJSON != profile {
		t.Errorf("profile json = %q", got.ProfileJSON)
	}

	if err := s.SaveSession("nonexistent", "greeting", "onboarding", "{}"); !errors.Is(err, ErrNotFound) {
		t.Errorf("saving unknown session: err = %v, want ErrNotFound", err)
	}
}

func TestMessageHistory(t *testing.T) {
	s := openTestStore(t)

	id := uuid.NewString()
	if err := s.CreateSession(Session{ID: id, CurrentStep: "greeting"}); err != nil {
		t.Fatalf("creating session: %v", err)
	}

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		role := "user"
		if i%2 == 1 {
			role = "assistant"
		}
		err := s.AppendMessage(Message{
			ID:        uuid.NewString(),
			SessionID: id,
			Role:      role,
			Content:   fmt.Sprintf("message %d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		})
		if err != nil {
			t.Fatalf("appending message %d: %v", i, err)
		}
	}

	got, err := s.RecentMessages(id, 3)
	if err != nil {
		t.Fatalf("reading history: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	// Last three, oldest first.
	for i, want := range []string{"message 2", "message 3", "message 4"} {
		if got[i].Content != want {
			t.Errorf("message[%d] = %q, want %q", i, got[i].Content, want)
		}
	}

	other, err := s.RecentMessages(uuid.NewString(), 10)
	if err != nil {
		t.Fatalf("reading empty history: %v", err)
	}
	if len(other) != 0 {
		t.Errorf("unknown session should have no history, got %d", len(other))
	}
}

func TestReplaceGoalKeepsSingleActive(t *testing.T) {
	s := openTestStore(t)

	id := uuid.NewString()
	if err := s.CreateSession(Session{ID: id, CurrentStep: "goal"}); err != nil {
		t.Fatalf("creating session: %v", err)
	}

	if _, err := s.ActiveGoal(id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("fresh session active goal: err = %v, want ErrNotFound", err)
	}

	first := Goal{ID: uuid.NewString(), Name: "Laptop", Amount: 800, Deadline: "2025-12-01"}
	if err := s.ReplaceGoal(id, first); err != nil {
		t.Fatalf("creating first goal: %v", err)
	}

	second := Goal{ID: uuid.NewString(), Name: "Road bike", Amount: 450}
	if err := s.ReplaceGoal(id, second); err != nil {
		t.Fatalf("replacing goal: %v", err)
	}

	active, err := s.ActiveGoal(id)
	if err != nil {
		t.Fatalf("reading active goal: %v", err)
	}
	if active.Name != "Road bike" || active.Amount != 450 {
		t.Errorf("active goal = %+v, want the replacement", active)
	}

	archived, err := s.ArchivedGoals(id)
	if err != nil {
		t.Fatalf("reading archived goals: %v", err)
	}
	if len(archived) != 1 || archived[0].Name != "Laptop" {
		t.Errorf("archived goals = %+v, want the original laptop goal", archived)
	}
}
