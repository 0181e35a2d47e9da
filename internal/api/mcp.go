package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/nicolas-geysse/encode-club-hackathon-2026-sub002/internal/flow"
	"github.com/nicolas-geysse/encode-club-hackathon-2026-sub002/internal/storage"
)

// NewMCPServer creates an MCP server exposing the onboarding pipeline
// to agent hosts: process turns, read profiles, classify intents.
func NewMCPServer(deps AppDeps) *server.MCPServer {
	s := server.NewMCPServer(
		"sidequest",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("sidequest — conversational budget onboarding for students: process turns, read the collected profile, classify free-form messages."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("create_session",
			mcp.WithDescription("Start a new onboarding session and return its id and opening prompt."),
		),
		mcpCreateSession(deps),
	)

	s.AddTool(
		mcp.NewTool("process_turn",
			mcp.WithDescription("Process one conversational turn for a session: extract profile fields, merge, advance the flow, and return the reply."),
			mcp.WithString("session_id", mcp.Description("Session identifier"), mcp.Required()),
			mcp.WithString("message", mcp.Description("The user's message"), mcp.Required()),
			mcp.WithString("reference_date", mcp.Description("Optional ISO date used to resolve relative deadlines")),
		),
		mcpProcessTurn(deps),
	)

	s.AddTool(
		mcp.NewTool("get_profile",
			mcp.WithDescription("Return the session's collected profile, current step, and completion state."),
			mcp.WithString("session_id", mcp.Description("Session identifier"), mcp.Required()),
		),
		mcpGetProfile(deps),
	)

	s.AddTool(
		mcp.NewTool("classify_intent",
			mcp.WithDescription("Classify a free-form message into a conversational intent (profile edit, new goal, progress check...)."),
			mcp.WithString("message", mcp.Description("The message to classify"), mcp.Required()),
		),
		mcpClassifyIntent(deps),
	)

	s.AddResourceTemplate(
		mcp.NewResourceTemplate(
			"session://{id}",
			"Session Profile",
			mcp.WithTemplateDescription("Collected profile snapshot for a session, as JSON"),
			mcp.WithTemplateMIMEType("application/json"),
		),
		mcpResourceSession(deps),
	)

	return s
}

func mcpCreateSession(deps AppDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id := uuid.NewString()
		if err := deps.Store.CreateSession(storage.Session{ID: id, CurrentStep: string(flow.StepGreeting)}); err != nil {
			return mcpError(fmt.Sprintf("failed to create session: %v", err)), nil
		}
		b, err := json.Marshal(map[string]string{
			"id":     id,
			"step":   string(flow.StepGreeting),
			"prompt": flow.Prompt(flow.StepGreeting),
		})
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal session: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpProcessTurn(deps AppDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sessionID, err := req.RequireString("session_id")
		if err != nil {
			return mcpError("session_id is required"), nil
		}
		message, err := req.RequireString("message")
		if err != nil {
			return mcpError("message is required"), nil
		}

		ref, err := parseReferenceDate(req.GetString("reference_date", ""))
		if err != nil {
			return mcpError(fmt.Sprintf("invalid reference_date: %v", err)), nil
		}

		state, err := deps.Sessions.State(sessionID)
		if errors.Is(err, storage.ErrNotFound) {
			return mcpError("session not found"), nil
		}
		if err != nil {
			return mcpError(fmt.Sprintf("failed to load session: %v", err)), nil
		}

		var resp TurnResponse
		if state.Mode == ModeConversation {
			resp = conversationTurn(deps, sessionID, message, state, refOrNow(ref))
		} else {
			resp = onboardingTurn(ctx, deps, sessionID, TurnRequest{Message: message}, state, ref, "mcp")
		}

		recordExchange(deps, sessionID, message, resp.Response)

		b, err := json.Marshal(resp)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal turn result: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpGetProfile(deps AppDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sessionID, err := req.RequireString("session_id")
		if err != nil {
			return mcpError("session_id is required"), nil
		}

		state, err := deps.Sessions.State(sessionID)
		if errors.Is(err, storage.ErrNotFound) {
			return mcpError("session not found"), nil
		}
		if err != nil {
			return mcpError(fmt.Sprintf("failed to load session: %v", err)), nil
		}

		b, err := json.Marshal(map[string]any{
			"step":       state.Step,
			"chatMode":   state.Mode,
			"profile":    state.Profile,
			"isComplete": flow.IsTerminal(state.Step),
		})
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal profile: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpClassifyIntent(deps AppDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		message, err := req.RequireString("message")
		if err != nil {
			return mcpError("message is required"), nil
		}

		det := deps.Intents.Classify(message)
		b, err := json.Marshal(det)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal intent: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpResourceSession(deps AppDeps) server.ResourceTemplateHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		id := strings.TrimPrefix(req.Params.URI, "session://")
		if id == "" || id == req.Params.URI {
			return nil, fmt.Errorf("invalid session URI %q", req.Params.URI)
		}

		state, err := deps.Sessions.State(id)
		if err != nil {
			return nil, fmt.Errorf("loading session %s: %w", id, err)
		}

		b, err := json.Marshal(state.Profile)
		if err != nil {
			return nil, fmt.Errorf("marshalling profile: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func refOrNow(ref time.Time) time.Time {
	if ref.IsZero() {
		return time.Now()
	}
	return ref
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
