package api

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/nicolas-geysse/encode-club-hackathon-2026-sub002/internal/intent"
	"github.com/nicolas-geysse/encode-club-hackathon-2026-sub002/internal/pipeline"
	"github.com/nicolas-geysse/encode-club-hackathon-2026-sub002/internal/profile"
	"github.com/nicolas-geysse/encode-club-hackathon-2026-sub002/internal/storage"
)

func setupMCPDeps(t *testing.T) AppDeps {
	t.Helper()
	store, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return AppDeps{
		Store:     store,
		Sessions:  profile.NewManager(store),
		Processor: pipeline.NewProcessor(nil, nil),
		Intents:   intent.NewClassifier(),
	}
}

func callTool(t *testing.T, handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]any) (string, bool) {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args

	res, err := handler(context.Background(), req)
	if err != nil {
		t.Fatalf("tool handler returned error: %v", err)
	}
	if len(res.Content) == 0 {
		t.Fatal("tool returned no content")
	}
	text, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content type = %T, want TextContent", res.Content[0])
	}
	return text.Text, res.IsError
}

func TestMCPCreateSessionAndTurn(t *testing.T) {
	deps := setupMCPDeps(t)

	created, isErr := callTool(t, mcpCreateSession(deps), nil)
	if isErr {
		t.Fatalf("create_session failed: %s", created)
	}
	var sess map[string]string
	if err := json.Unmarshal([]byte(created), &sess); err != nil {
		t.Fatalf("decoding session: %v", err)
	}
	if sess["id"] == "" || sess["step"] != "greeting" {
		t.Fatalf("session = %v", sess)
	}

	out, isErr := callTool(t, mcpProcessTurn(deps), map[string]any{
		"session_id":     sess["id"],
		"message":        "Paris",
		"reference_date": "2025-01-15",
	})
	if isErr {
		t.Fatalf("process_turn failed: %s", out)
	}
	var resp TurnResponse
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("decoding turn: %v", err)
	}
	if resp.NextStep != "name" {
		t.Errorf("next step = %q, want name", resp.NextStep)
	}
	if resp.Profile == nil || resp.Profile.Currency == nil || *resp.Profile.Currency != "EUR" {
		t.Errorf("profile = %+v", resp.Profile)
	}

	prof, isErr := callTool(t, mcpGetProfile(deps), map[string]any{"session_id": sess["id"]})
	if isErr {
		t.Fatalf("get_profile failed: %s", prof)
	}
	var snapshot struct {
		Step string `json:"step"`
	}
	if err := json.Unmarshal([]byte(prof), &snapshot); err != nil {
		t.Fatalf("decoding profile: %v", err)
	}
	if snapshot.Step != "name" {
		t.Errorf("step = %q, want name", snapshot.Step)
	}
}

func TestMCPProcessTurnUnknownSession(t *testing.T) {
	deps := setupMCPDeps(t)

	out, isErr := callTool(t, mcpProcessTurn(deps), map[string]any{
		"session_id": "missing",
		"message":    "hello",
	})
	if !isErr {
		t.Errorf("expected error result, got %s", out)
	}
}

func TestMCPClassifyIntent(t *testing.T) {
	deps := setupMCPDeps(t)

	out, isErr := callTool(t, mcpClassifyIntent(deps), map[string]any{
		"message": "change my city to Berlin",
	})
	if isErr {
		t.Fatalf("classify_intent failed: %s", out)
	}
	var det intent.Intent
	if err := json.Unmarshal([]byte(out), &det); err != nil {
		t.Fatalf("decoding intent: %v", err)
	}
	if det.Mode != intent.ModeProfileEdit || det.Field != "city" || det.ExtractedValue != "Berlin" {
		t.Errorf("intent = %+v", det)
	}
}

func TestMCPSessionResource(t *testing.T) {
	deps := setupMCPDeps(t)

	created, _ := callTool(t, mcpCreateSession(deps), nil)
	var sess map[string]string
	if err := json.Unmarshal([]byte(created), &sess); err != nil {
		t.Fatalf("decoding session: %v", err)
	}

	readReq := mcp.ReadResourceRequest{}
	readReq.Params.URI = "session://" + sess["id"]

	contents, err := mcpResourceSession(deps)(context.Background(), readReq)
	if err != nil {
		t.Fatalf("reading resource: %v", err)
	}
	if len(contents) != 1 {
		t.Fatalf("contents = %d, want 1", len(contents))
	}
	text, ok := contents[0].(mcp.TextResourceContents)
	if !ok {
		t.Fatalf("content type = %T", contents[0])
	}
	if text.MIMEType != "application/json" {
		t.Errorf("mime = %q", text.MIMEType)
	}
}
