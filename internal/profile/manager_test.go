package profile

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/nicolas-geysse/encode-club-hackathon-2026-sub002/internal/flow"
	"github.com/nicolas-geysse/encode-club-hackathon-2026-sub002/internal/storage"
)

type fakeSessionStore struct {
	sessions map[string]storage.Session
	gets     int
	saves    int
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: make(map[string]storage.Session)}
}

func (f *fakeSessionStore) GetSession(id string) (storage.Session, error) {
	f.gets++
	s, ok := f.sessions[id]
	if !ok {
		return storage.Session{}, storage.ErrNotFound
	}
	return s, nil
}

func (f *fakeSessionStore) SaveSession(id, currentStep, chatMode, profileJSON string) error {
	f.saves++
	s, ok := f.sessions[id]
	if !ok {
		return storage.ErrNotFound
	}
	s.CurrentStep = currentStep
	s.ChatMode = chatMode
	s.ProfileJSON = profileJSON
	f.sessions[id] = s
	return nil
}

type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time { return f.now }

func (f *fakeClock) advance(d time.Duration) { f.now = f.now.Add(d) }

func seedSession(t *testing.T, store *fakeSessionStore, id string, step flow.Step, data *ProfileData) {
	t.Helper()
	b, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshalling profile: %v", err)
	}
	store.sessions[id] = storage.Session{
		ID:          id,
		CurrentStep: string(step),
		ChatMode:    "onboarding",
		ProfileJSON: string(b),
	}
}

func TestManagerCachesWithinTTL(t *testing.T) {
	store := newFakeSessionStore()
	clock := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	m := NewManagerWithClock(store, clock, time.Minute)

	name := "Lucas"
	seedSession(t, store, "s1", flow.StepStudies, &ProfileData{Name: &name})

	st, err := m.State("s1")
	if err != nil {
		t.Fatalf("first load: %v", err)
	}
	if st.Step != flow.StepStudies || st.Profile.Name == nil || *st.Profile.Name != "Lucas" {
		t.Fatalf("state = %+v", st)
	}

	clock.advance(30 * time.Second)
	if _, err := m.State("s1"); err != nil {
		t.Fatalf("second load: %v", err)
	}
	if store.gets != 1 {
		t.Errorf("store reads = %d, want 1 (cache hit)", store.gets)
	}

	clock.advance(time.Minute)
	if _, err := m.State("s1"); err != nil {
		t.Fatalf("post-expiry load: %v", err)
	}
	if store.gets != 2 {
		t.Errorf("store reads = %d, want 2 (TTL expired)", store.gets)
	}
}

func TestManagerSaveWritesThrough(t *testing.T) {
	store := newFakeSessionStore()
	clock := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	m := NewManagerWithClock(store, clock, time.Minute)

	seedSession(t, store, "s1", flow.StepGreeting, &ProfileData{})

	city := "Paris"
	err := m.Save("s1", State{Step: flow.StepName, Mode: "onboarding", Profile: &ProfileData{City: &city}})
	if err != nil {
		t.Fatalf("saving: %v", err)
	}

	st, err := m.State("s1")
	if err != nil {
		t.Fatalf("loading after save: %v", err)
	}
	if st.Step != flow.StepName || st.Profile.City == nil || *st.Profile.City != "Paris" {
		t.Errorf("state = %+v", st)
	}
	if store.gets != 0 {
		t.Errorf("store reads = %d, want 0 (save populated the cache)", store.gets)
	}
	if got := store.sessions["s1"].CurrentStep; got != "name" {
		t.Errorf("persisted step = %q, want name", got)
	}
}

func TestManagerReturnsCopies(t *testing.T) {
	store := newFakeSessionStore()
	clock := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	m := NewManagerWithClock(store, clock, time.Minute)

	seedSession(t, store, "s1", flow.StepSkills, &ProfileData{Skills: []string{"Excel"}})

	first, err := m.State("s1")
	if err != nil {
		t.Fatalf("first load: %v", err)
	}
	first.Profile.Skills[0] = "mutated"

	second, err := m.State("s1")
	if err != nil {
		t.Fatalf("second load: %v", err)
	}
	if second.Profile.Skills[0] != "Excel" {
		t.Errorf("cache was mutated through a returned state: %+v", second.Profile.Skills)
	}
}

func TestManagerUnknownSession(t *testing.T) {
	m := NewManagerWithClock(newFakeSessionStore(), &fakeClock{now: time.Now()}, time.Minute)

	_, err := m.State("missing")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}
