// Package api exposes the turn pipeline over HTTP and MCP. The HTTP
// surface owns session persistence: it loads state, runs the turn, and
// writes the merged profile back, so the pipeline itself stays
// storage-free.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/nicolas-geysse/encode-club-hackathon-2026-sub002/internal/extract"
	"github.com/nicolas-geysse/encode-club-hackathon-2026-sub002/internal/flow"
	"github.com/nicolas-geysse/encode-club-hackathon-2026-sub002/internal/intent"
	"github.com/nicolas-geysse/encode-club-hackathon-2026-sub002/internal/llm"
	"github.com/nicolas-geysse/encode-club-hackathon-2026-sub002/internal/pipeline"
	"github.com/nicolas-geysse/encode-club-hackathon-2026-sub002/internal/profile"
	"github.com/nicolas-geysse/encode-club-hackathon-2026-sub002/internal/storage"
)

const maxRequestBodySize = 1 << 20 // 1MB

const historyWindow = 12

// Chat modes persisted on the session.
const (
	ModeOnboarding   = "onboarding"
	ModeConversation = "conversation"
)

type AppDeps struct {
	Store     *storage.Store
	Sessions  *profile.Manager
	Processor *pipeline.Processor
	Intents   *intent.Classifier
	Token     string
}

// TurnRequest is the body of POST /v1/sessions/{id}/turns.
type TurnRequest struct {
	Message       string   `json:"message"`
	WorkingMemory []string `json:"workingMemory,omitempty"`
	ReferenceDate string   `json:"referenceDate,omitempty"`
}

// TurnResponse mirrors pipeline.TurnOutput on the wire, plus the
// detected intent on free-conversation turns.
type TurnResponse struct {
	Response   string               `json:"response"`
	Extracted  *profile.ProfileData `json:"extractedData,omitempty"`
	NextStep   flow.Step            `json:"nextStep"`
	IsComplete bool                 `json:"isComplete"`
	Profile    *profile.ProfileData `json:"profileData"`
	Source     extract.Source       `json:"source"`
	UIResource *pipeline.UIResource `json:"uiResource,omitempty"`
	Intent     *intent.Intent       `json:"intent,omitempty"`
}

func NewAppHandler(deps AppDeps) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(deps.Token))
		r.Post("/v1/sessions", handleCreateSession(deps))
		r.Post("/v1/sessions/{id}/turns", handleTurn(deps))
		r.Get("/v1/sessions/{id}/profile", handleGetProfile(deps))
	})

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func handleCreateSession(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		if err := deps.Store.CreateSession(storage.Session{ID: id, CurrentStep: string(flow.StepGreeting)}); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to create session: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"id":     id,
			"step":   string(flow.StepGreeting),
			"prompt": flow.Prompt(flow.StepGreeting),
		})
	}
}

func handleTurn(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		var req TurnRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if req.Message == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "message is required")
			return
		}

		ref, err := parseReferenceDate(req.ReferenceDate)
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid referenceDate: %v", err)
			return
		}

		state, err := deps.Sessions.State(id)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "session not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to load session: %v", err)
			return
		}

		var resp TurnResponse
		if state.Mode == ModeConversation {
			resp = conversationTurn(deps, id, req.Message, state, ref)
		} else {
			resp = onboardingTurn(r.Context(), deps, id, req, state, ref, "http")
		}

		recordExchange(deps, id, req.Message, resp.Response)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}
}

func onboardingTurn(ctx context.Context, deps AppDeps, id string, req TurnRequest, state profile.State, ref time.Time, surface string) TurnResponse {
	history, err := deps.Store.RecentMessages(id, historyWindow)
	if err != nil {
		history = nil
	}

	out := deps.Processor.ProcessTurn(ctx, pipeline.TurnInput{
		Message:       req.Message,
		Step:          state.Step,
		Profile:       state.Profile,
		History:       toLLMMessages(history),
		WorkingMemory: req.WorkingMemory,
		ReferenceDate: ref,
		Surface:       surface,
	})

	mode := ModeOnboarding
	if out.IsComplete {
		mode = ModeConversation
		saveGoalFromProfile(deps, id, out.Profile)
	}
	if err := deps.Sessions.Save(id, profile.State{Step: out.NextStep, Mode: mode, Profile: out.Profile}); err != nil {
		// The reply is still valid; the next turn reloads from storage.
		httpLogSaveFailure(id, err)
	}

	return TurnResponse{
		Response:   out.Response,
		Extracted:  out.Extracted,
		NextStep:   out.NextStep,
		IsComplete: out.IsComplete,
		Profile:    out.Profile,
		Source:     out.Source,
		UIResource: out.UIResource,
	}
}

func conversationTurn(deps AppDeps, id, message string, state profile.State, ref time.Time) TurnResponse {
	det := deps.Intents.Classify(message)

	resp := TurnResponse{
		NextStep:   state.Step,
		IsComplete: true,
		Profile:    state.Profile,
		Source:     extract.SourceFallback,
		Intent:     &det,
	}

	switch det.Action {
	case intent.ActionNewProfile:
		// Start over: wipe the profile and restart the guided flow.
		fresh := &profile.ProfileData{}
		if err := deps.Sessions.Save(id, profile.State{Step: flow.StepGreeting, Mode: ModeOnboarding, Profile: fresh}); err != nil {
			httpLogSaveFailure(id, err)
		}
		resp.NextStep = flow.StepGreeting
		resp.IsComplete = false
		resp.Profile = fresh
		resp.Response = flow.Prompt(flow.StepGreeting)
	case intent.ActionNewGoal:
		resp.Response = applyNewGoal(deps, id, det.ExtractedGoal, state, ref)
	case intent.ActionUpdateField:
		resp.Response, resp.Profile = applyFieldEdit(deps, id, det, state)
	case intent.ActionContinueOnboarding, intent.ActionUpdateProfile:
		// Re-open the guided flow at the first step with unmet fields.
		step := resumeStep(state.Profile)
		if err := deps.Sessions.Save(id, profile.State{Step: step, Mode: ModeOnboarding, Profile: state.Profile}); err != nil {
			httpLogSaveFailure(id, err)
		}
		resp.NextStep = step
		resp.IsComplete = false
		resp.Response = flow.Prompt(step)
	case intent.ActionShowProgress:
		resp.Response = progressSummary(deps, id)
	case intent.ActionShowPlan, intent.ActionGiveAdvice:
		resp.Response = "Let's look at your numbers: keep your expenses in check and lean on your skills for side income. What would you like to dig into?"
	default:
		resp.Response = "I'm here to help with your budget and goals. You can update your profile, set a new goal, or ask how you're doing."
	}

	return resp
}

func applyNewGoal(deps AppDeps, id string, draft *intent.GoalDraft, state profile.State, ref time.Time) string {
	if draft == nil || draft.Name == "" {
		return "What would you like to save for?"
	}

	goal := storage.Goal{ID: uuid.NewString(), Name: draft.Name}
	if draft.Amount != nil {
		goal.Amount = *draft.Amount
	}
	if draft.Deadline != "" {
		if iso, ok := extract.NormalizeDeadline(draft.Deadline, ref); ok {
			goal.Deadline = iso
		}
	}

	if err := deps.Store.ReplaceGoal(id, goal); err != nil {
		return "I couldn't save that goal, sorry. Try again?"
	}
	if goal.Amount > 0 {
		return fmt.Sprintf("New goal: %s (%.0f). Your previous goal, if any, is archived.", goal.Name, goal.Amount)
	}
	return fmt.Sprintf("New goal: %s. How much do you need for it?", goal.Name)
}

func applyFieldEdit(deps AppDeps, id string, det intent.Intent, state profile.State) (string, *profile.ProfileData) {
	if det.ExtractedValue == "" {
		return "What should I change it to?", state.Profile
	}

	updated := state.Profile.Clone()
	if updated == nil {
		updated = &profile.ProfileData{}
	}
	switch det.Field {
	case "name":
		updated.Name = profile.String(det.ExtractedValue)
	case "city":
		updated.City = profile.String(det.ExtractedValue)
	case "budget":
		v, err := strconv.ParseFloat(det.ExtractedValue, 64)
		if err != nil || v <= 0 {
			return "What should your monthly expenses be?", state.Profile
		}
		// An amendment arrives as one combined figure: keep the total
		// and derive the weighted breakdown, like a mid-flow merge does.
		updated.Expenses = profile.Float(v)
		updated.ExpenseBreakdown = profile.SplitExpenses(v)
	default:
		return fmt.Sprintf("To update that, tell me the full detail — for example \"change my %s to ...\".", det.Field), state.Profile
	}

	if err := deps.Sessions.Save(id, profile.State{Step: state.Step, Mode: state.Mode, Profile: updated}); err != nil {
		httpLogSaveFailure(id, err)
		return "I couldn't save that change, sorry.", state.Profile
	}
	return fmt.Sprintf("Done — %s updated to %s.", det.Field, det.ExtractedValue), updated
}

// resumeStep finds the first step whose required fields are unmet.
func resumeStep(data *profile.ProfileData) flow.Step {
	for _, s := range flow.Order() {
		if flow.IsTerminal(s) {
			break
		}
		if len(flow.Missing(s, data)) > 0 {
			return s
		}
	}
	return flow.StepGreeting
}

func progressSummary(deps AppDeps, id string) string {
	goal, err := deps.Store.ActiveGoal(id)
	if err != nil {
		return "No active goal yet — tell me what you're saving for."
	}
	if goal.Deadline != "" {
		return fmt.Sprintf("You're saving for %s (%.0f) by %s. Keep at it!", goal.Name, goal.Amount, goal.Deadline)
	}
	return fmt.Sprintf("You're saving for %s (%.0f). Keep at it!", goal.Name, goal.Amount)
}

// saveGoalFromProfile turns the onboarding goal fields into the
// session's active goal once the flow completes.
func saveGoalFromProfile(deps AppDeps, id string, data *profile.ProfileData) {
	if data == nil || data.GoalName == nil {
		return
	}
	goal := storage.Goal{ID: uuid.NewString(), Name: *data.GoalName}
	if data.GoalAmount != nil {
		goal.Amount = *data.GoalAmount
	}
	if data.GoalDeadline != nil {
		goal.Deadline = *data.GoalDeadline
	}
	_ = deps.Store.ReplaceGoal(id, goal)
}

func handleGetProfile(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		state, err := deps.Sessions.State(id)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "session not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to load session: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"step":       state.Step,
			"chatMode":   state.Mode,
			"profile":    state.Profile,
			"isComplete": flow.IsTerminal(state.Step),
		})
	}
}

func httpLogSaveFailure(id string, err error) {
	slog.Warn("failed to persist session state", "session", id, "error", err)
}

func recordExchange(deps AppDeps, id, userMsg, reply string) {
	now := time.Now().UTC()
	_ = deps.Store.AppendMessage(storage.Message{
		ID: uuid.NewString(), SessionID: id, Role: "user", Content: userMsg, CreatedAt: now,
	})
	_ = deps.Store.AppendMessage(storage.Message{
		ID: uuid.NewString(), SessionID: id, Role: "assistant", Content: reply, CreatedAt: now.Add(time.Millisecond),
	})
}

func toLLMMessages(history []storage.Message) []llm.Message {
	out := make([]llm.Message, 0, len(history))
	for _, m := range history {
		out = append(out, llm.Message{Role: m.Role, Content: m.Content})
	}
	return out
}

func parseReferenceDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}
