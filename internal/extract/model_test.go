package extract

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/nicolas-geysse/encode-club-hackathon-2026-sub002/internal/flow"
	"github.com/nicolas-geysse/encode-club-hackathon-2026-sub002/internal/llm"
)

// fakeChatter implements llm.Chatter for testing.
type fakeChatter struct {
	response string
	usage    llm.Usage
	err      error

	calls        int
	lastMessages []llm.Message
}

func (f *fakeChatter) ChatJSON(ctx context.Context, model string, messages []llm.Message, maxTokens int) (string, llm.Usage, error) {
	f.calls++
	f.lastMessages = messages
	return f.response, f.usage, f.err
}

func TestModelExtract_Success(t *testing.T) {
	fake := &fakeChatter{
		response: `{"city":"Paris","currency":"EUR"}`,
		usage:    llm.Usage{PromptTokens: 200, CompletionTokens: 12},
	}
	e := NewModelExtractor(fake, "gpt-4o-mini")

	res, err := e.Extract(context.Background(), "I live in Paris", flow.StepGreeting, nil, nil, nil, testRef)
	if err != nil {
		t.Fatalf("Extract() error: %v", err)
	}
	if res.Data.City == nil || *res.Data.City != "Paris" {
		t.Errorf("City = %v, want Paris", res.Data.City)
	}
	if res.Source != SourceModel {
		t.Errorf("Source = %q, want llm", res.Source)
	}
	if res.Usage.PromptTokens != 200 {
		t.Errorf("Usage = %+v", res.Usage)
	}
	if res.Cost <= 0 {
		t.Errorf("Cost = %v, want > 0 for a priced model", res.Cost)
	}
}

func TestModelExtract_TransportFailureReturnsNil(t *testing.T) {
	fake := &fakeChatter{err: errors.New("connection refused")}
	e := NewModelExtractor(fake, "gpt-4o-mini")

	res, err := e.Extract(context.Background(), "hi", flow.StepName, nil, nil, nil, testRef)
	if err == nil {
		t.Fatal("want error on transport failure")
	}
	if res != nil {
		t.Errorf("result = %+v, want nil", res)
	}
}

func TestModelExtract_MalformedJSONReturnsNil(t *testing.T) {
	fake := &fakeChatter{response: `sure! here is the JSON {{{`}
	e := NewModelExtractor(fake, "gpt-4o-mini")

	if res, err := e.Extract(context.Background(), "hi", flow.StepName, nil, nil, nil, testRef); err == nil {
		t.Fatalf("want error on malformed output, got %+v", res)
	}
}

func TestModelExtract_EmptyObjectIsNotAnError(t *testing.T) {
	fake := &fakeChatter{response: `{}`, usage: llm.Usage{PromptTokens: 50}}
	e := NewModelExtractor(fake, "gpt-4o-mini")

	res, err := e.Extract(context.Background(), "hmm", flow.StepName, nil, nil, nil, testRef)
	if err != nil {
		t.Fatalf("Extract() error: %v", err)
	}
	if !res.Data.IsEmpty() {
		t.Errorf("Data = %+v, want empty", res.Data)
	}
}

func TestModelExtract_SkipStepsAvoidTheCall(t *testing.T) {
	fake := &fakeChatter{response: `{"name":"should not happen"}`}
	e := NewModelExtractor(fake, "gpt-4o-mini")

	for _, step := range []flow.Step{flow.StepComplete, flow.StepLifestyle} {
		res, err := e.Extract(context.Background(), "netflix", step, nil, nil, nil, testRef)
		if err != nil {
			t.Fatalf("Extract(%s) error: %v", step, err)
		}
		if !res.Data.IsEmpty() || res.Usage.PromptTokens != 0 {
			t.Errorf("Extract(%s) = %+v, want zero-usage empty result", step, res)
		}
	}
	if fake.calls != 0 {
		t.Errorf("calls = %d, want 0", fake.calls)
	}
}

func TestModelExtract_Postprocessing(t *testing.T) {
	fake := &fakeChatter{
		response: `{"name":"Lucas.","diploma":"","goalDeadline":"March 2027","certifications":[]}`,
	}
	e := NewModelExtractor(fake, "gpt-4o-mini")

	res, err := e.Extract(context.Background(), "msg", flow.StepName, nil, nil, nil, testRef)
	if err != nil {
		t.Fatalf("Extract() error: %v", err)
	}
	if res.Data.Name == nil || *res.Data.Name != "Lucas" {
		t.Errorf("Name = %v, want trailing punctuation stripped", res.Data.Name)
	}
	if res.Data.Diploma != nil {
		t.Errorf("Diploma = %q, want empty string dropped", *res.Data.Diploma)
	}
	if res.Data.GoalDeadline == nil || *res.Data.GoalDeadline != "2027-03-31" {
		t.Errorf("GoalDeadline = %v, want 2027-03-31", res.Data.GoalDeadline)
	}
	// Explicit empty array must survive postprocessing.
	if res.Data.Certifications == nil || len(res.Data.Certifications) != 0 {
		t.Errorf("Certifications = %v, want explicit empty", res.Data.Certifications)
	}
}

func TestModelExtract_UnparsableDeadlineDropped(t *testing.T) {
	fake := &fakeChatter{response: `{"goalName":"Travel","goalDeadline":"someday"}`}
	e := NewModelExtractor(fake, "gpt-4o-mini")

	res, err := e.Extract(context.Background(), "msg", flow.StepGoal, nil, nil, nil, testRef)
	if err != nil {
		t.Fatalf("Extract() error: %v", err)
	}
	if res.Data.GoalDeadline != nil {
		t.Errorf("GoalDeadline = %q, want dropped", *res.Data.GoalDeadline)
	}
	if res.Data.GoalName == nil {
		t.Error("GoalName dropped alongside the bad deadline")
	}
}

func TestModelExtract_CurrencyAutoAttach(t *testing.T) {
	fake := &fakeChatter{response: `{"city":"London"}`}
	e := NewModelExtractor(fake, "gpt-4o-mini")

	res, err := e.Extract(context.Background(), "London", flow.StepGreeting, nil, nil, nil, testRef)
	if err != nil {
		t.Fatalf("Extract() error: %v", err)
	}
	if res.Data.Currency == nil || *res.Data.Currency != "GBP" {
		t.Errorf("Currency = %v, want GBP auto-attached", res.Data.Currency)
	}
}

func TestBuildPrompt_HistoryBounds(t *testing.T) {
	long := strings.Repeat("x", 2000)
	history := make([]llm.Message, 10)
	for i := range history {
		history[i] = llm.Message{Role: "user", Content: long}
	}

	messages := BuildPrompt("hi", flow.StepName, nil, history, []string{"city: Paris"})
	// system + 6 history turns + final instruction
	if len(messages) != 8 {
		t.Fatalf("len(messages) = %d, want 8", len(messages))
	}
	for _, m := range messages[1:7] {
		if len(m.Content) > historyCharBudget+len("…") {
			t.Errorf("history message not truncated: %d chars", len(m.Content))
		}
	}
	if !strings.Contains(messages[0].Content, "city: Paris") {
		t.Error("working memory missing from system prompt")
	}
	final := messages[len(messages)-1].Content
	if !strings.Contains(final, "Current step: name") {
		t.Errorf("final instruction missing step: %q", final)
	}
}
