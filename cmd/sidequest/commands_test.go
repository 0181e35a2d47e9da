package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type recordedRequest struct {
	Method string
	Path   string
	Body   string
	Auth   string
}

type testServer struct {
	server   *httptest.Server
	requests []recordedRequest
}

func newTestServer(t *testing.T, responses map[string]string) *testServer {
	t.Helper()
	ts := &testServer{}

	ts.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body bytes.Buffer
		body.ReadFrom(r.Body)

		ts.requests = append(ts.requests, recordedRequest{
			Method: r.Method,
			Path:   r.URL.RequestURI(),
			Body:   body.String(),
			Auth:   r.Header.Get("Authorization"),
		})

		key := r.Method + " " + r.URL.Path
		if resp, ok := responses[key]; ok {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(resp))
			return
		}

		w.WriteHeader(404)
		w.Write([]byte(`{"error":{"message":"not found","type":"not_found"}}`))
	}))

	t.Cleanup(ts.server.Close)
	return ts
}

func (ts *testServer) client() *apiClient {
	return &apiClient{
		baseURL:    ts.server.URL,
		token:      "test-token",
		httpClient: ts.server.Client(),
	}
}

var ctx = context.Background()

func TestClientCreatesSession(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"POST /v1/sessions": `{"id":"sess-123","step":"greeting","prompt":"Hi! Which city do you live in?"}`,
	})

	resp, err := ts.client().post(ctx, "/v1/sessions", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var created struct {
		ID     string `json:"id"`
		Prompt string `json:"prompt"`
	}
	if err := decodeJSON(resp, &created); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if created.ID != "sess-123" {
		t.Errorf("id = %q, want sess-123", created.ID)
	}
	if created.Prompt == "" {
		t.Error("expected a greeting prompt")
	}

	if len(ts.requests) != 1 {
		t.Fatalf("expected 1 request, got %d", len(ts.requests))
	}
	if ts.requests[0].Auth != "Bearer test-token" {
		t.Errorf("auth = %q, want Bearer test-token", ts.requests[0].Auth)
	}
}

func TestClientPostsTurn(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"POST /v1/sessions/sess-123/turns": `{"response":"Got it, Paris.","nextStep":"name","isComplete":false}`,
	})

	resp, err := ts.client().post(ctx, "/v1/sessions/sess-123/turns", map[string]any{
		"message": "I live in Paris",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var turn struct {
		Response   string `json:"response"`
		NextStep   string `json:"nextStep"`
		IsComplete bool   `json:"isComplete"`
	}
	if err := decodeJSON(resp, &turn); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if turn.NextStep != "name" {
		t.Errorf("nextStep = %q, want name", turn.NextStep)
	}

	r := ts.requests[0]
	if r.Method != "POST" {
		t.Errorf("method = %q, want POST", r.Method)
	}
	var body map[string]any
	if err := json.Unmarshal([]byte(r.Body), &body); err != nil {
		t.Fatalf("body parse error: %v", err)
	}
	if body["message"] != "I live in Paris" {
		t.Errorf("body.message = %v, want the turn text", body["message"])
	}
}

func TestDecodeJSONSurfacesErrorBody(t *testing.T) {
	ts := newTestServer(t, nil)

	resp, err := ts.client().get(ctx, "/v1/sessions/nope/profile")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var out any
	err = decodeJSON(resp, &out)
	if err == nil {
		t.Fatal("expected error for 404 response")
	}
	if !strings.Contains(err.Error(), "404") || !strings.Contains(err.Error(), "not found") {
		t.Errorf("error = %q, want status and body surfaced", err.Error())
	}
}

func TestConfigSetUnknownKey(t *testing.T) {
	defer rootCmd.SetArgs(nil)

	rootCmd.SetArgs([]string{"config", "set", "bogus.key", "42"})
	err := rootCmd.Execute()
	if err == nil {
		t.Fatal("expected error for unknown key")
	}
	if !strings.Contains(err.Error(), "unknown config key") {
		t.Errorf("error = %q, want it to mention the unknown key", err.Error())
	}
}
