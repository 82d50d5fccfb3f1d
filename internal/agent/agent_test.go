package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"studio/internal/studio"
)

// fakeOpenRouter replays canned chat-completion responses in order and
// records the request bodies it saw.
type fakeOpenRouter struct {
	t         *testing.T
	responses []string
	requests  []chatRequest
}

func (f *fakeOpenRouter) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			f.t.Errorf("unexpected path %s", r.URL.Path)
			http.NotFound(w, r)
			return
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			f.t.Errorf("auth header = %q", got)
		}

		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			f.t.Errorf("decode request: %v", err)
		}
		f.requests = append(f.requests, req)

		i := len(f.requests) - 1
		if i >= len(f.responses) {
			f.t.Errorf("unexpected call %d", i)
			http.Error(w, "too many calls", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(f.responses[i]))
	}
}

func textResponse(text string) string {
	b, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"role": "assistant", "content": text}},
		},
	})
	return string(b)
}

func toolCallResponse(id, name, arguments string) string {
	b, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{
				"role":    "assistant",
				"content": nil,
				"tool_calls": []map[string]any{
					{"id": id, "type": "function", "function": map[string]any{
						"name": name, "arguments": arguments,
					}},
				},
			}},
		},
	})
	return string(b)
}

func newTestAgent(srvURL string, st studio.Store) *Agent {
	return &Agent{
		APIKey:      "test-key",
		Model:       "test-model",
		Endpoint:    srvURL,
		UserContext: "Current user: Guest",
		Tools:       &Toolset{Store: st, Inspiration: &InspirationClient{}},
	}
}

func TestChatPlainReply(t *testing.T) {
	fake := &fakeOpenRouter{t: t, responses: []string{textResponse("Try a limited palette study.")}}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	a := newTestAgent(srv.URL, studio.NewGuestStore())
	res, err := a.Chat(context.Background(), nil, "What should I paint tonight?")
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if res.Response != "Try a limited palette study." {
		t.Fatalf("response = %q", res.Response)
	}
	if len(res.ToolCalls) != 0 {
		t.Fatalf("unexpected tool calls %+v", res.ToolCalls)
	}

	if len(fake.requests) != 1 {
		t.Fatalf("made %d calls, want 1", len(fake.requests))
	}
	req := fake.requests[0]
	if req.Model != "test-model" || req.MaxTokens != 500 {
		t.Fatalf("unexpected request %+v", req)
	}
	if req.Messages[0].Role != "system" || !strings.Contains(*req.Messages[0].Content, "Art Studio Companion") {
		t.Fatal("system prompt missing")
	}
	if len(req.Tools) != 4 {
		t.Fatalf("sent %d tool schemas, want 4", len(req.Tools))
	}
}

func TestChatToolLoop(t *testing.T) {
	fake := &fakeOpenRouter{t: t, responses: []string{
		toolCallResponse("call_1", "inventory_tool", `{"action":"add","item":{"name":"Acrylic Set","quantity":3}}`),
		textResponse("Added the acrylic set to your inventory."),
	}}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	st := studio.NewGuestStore()
	a := newTestAgent(srv.URL, st)

	res, err := a.Chat(context.Background(), nil, "Add an acrylic set, I have three.")
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if res.Response != "Added the acrylic set to your inventory." {
		t.Fatalf("response = %q", res.Response)
	}

	// the tool actually ran against the store
	supplies, err := st.ListSupplies(context.Background())
	if err != nil || len(supplies) != 1 {
		t.Fatalf("supplies = %v %v", supplies, err)
	}
	if supplies[0].Name != "Acrylic Set" || supplies[0].Quantity != 3 {
		t.Fatalf("stored supply %+v", supplies[0])
	}

	// and the call was recorded for the transcript
	if len(res.ToolCalls) != 1 || res.ToolCalls[0].Tool != "inventory_tool" {
		t.Fatalf("recorded calls %+v", res.ToolCalls)
	}
	if !strings.Contains(res.ToolCalls[0].Result, `"success":true`) {
		t.Fatalf("tool result = %s", res.ToolCalls[0].Result)
	}

	// second request carried the tool result back to the model
	if len(fake.requests) != 2 {
		t.Fatalf("made %d calls, want 2", len(fake.requests))
	}
	last := fake.requests[1].Messages
	var sawToolTurn bool
	for _, m := range last {
		if m.Role == "tool" && m.ToolCallID == "call_1" {
			sawToolTurn = true
		}
	}
	if !sawToolTurn {
		t.Fatal("tool result turn not sent back")
	}
}

func TestChatParallelToolCalls(t *testing.T) {
	first, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{
				"role":    "assistant",
				"content": nil,
				"tool_calls": []map[string]any{
					{"id": "call_1", "type": "function", "function": map[string]any{
						"name": "inventory_tool", "arguments": `{"action":"add","item":{"name":"Gesso","quantity":1}}`,
					}},
					{"id": "call_2", "type": "function", "function": map[string]any{
						"name": "inventory_tool", "arguments": `{"action":"list"}`,
					}},
				},
			}},
		},
	})
	fake := &fakeOpenRouter{t: t, responses: []string{
		string(first),
		textResponse("Done, gesso is in."),
	}}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	a := newTestAgent(srv.URL, studio.NewGuestStore())
	res, err := a.Chat(context.Background(), nil, "Add gesso then show my supplies.")
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if len(res.ToolCalls) != 2 {
		t.Fatalf("recorded %d calls, want 2", len(res.ToolCalls))
	}

	// the follow-up request carries one assistant turn holding both
	// tool calls, then one tool turn per result
	if len(fake.requests) != 2 {
		t.Fatalf("made %d calls, want 2", len(fake.requests))
	}
	msgs := fake.requests[1].Messages
	var assistantTurns int
	var toolIDs []string
	for _, m := range msgs {
		if m.Role == "assistant" && len(m.ToolCalls) > 0 {
			assistantTurns++
			if len(m.ToolCalls) != 2 {
				t.Fatalf("assistant turn carries %d tool calls, want 2", len(m.ToolCalls))
			}
		}
		if m.Role == "tool" {
			toolIDs = append(toolIDs, m.ToolCallID)
		}
	}
	if assistantTurns != 1 {
		t.Fatalf("saw %d assistant tool-call turns, want 1", assistantTurns)
	}
	if len(toolIDs) != 2 || toolIDs[0] != "call_1" || toolIDs[1] != "call_2" {
		t.Fatalf("tool turns = %v", toolIDs)
	}
}

func TestChatHistoryIncluded(t *testing.T) {
	fake := &fakeOpenRouter{t: t, responses: []string{textResponse("ok")}}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	a := newTestAgent(srv.URL, studio.NewGuestStore())
	history := []studio.Message{
		{Role: studio.RoleUser, Content: "I like gouache."},
		{Role: studio.RoleAssistant, Content: "Noted!"},
	}
	if _, err := a.Chat(context.Background(), history, "Suggest a subject."); err != nil {
		t.Fatalf("chat: %v", err)
	}

	msgs := fake.requests[0].Messages
	var sawHistory bool
	for _, m := range msgs {
		if m.Content != nil && *m.Content == "I like gouache." {
			sawHistory = true
		}
	}
	if !sawHistory {
		t.Fatal("history turn not sent")
	}
	if last := msgs[len(msgs)-1]; last.Role != "user" || *last.Content != "Suggest a subject." {
		t.Fatalf("last turn = %+v", last)
	}
}

func TestChatAPIFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"rate limited"}}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	a := newTestAgent(srv.URL, studio.NewGuestStore())
	_, err := a.Chat(context.Background(), nil, "hello")
	var ce *CollaboratorError
	if !errors.As(err, &ce) {
		t.Fatalf("error = %v, want CollaboratorError", err)
	}
}

func TestChatMissingKey(t *testing.T) {
	a := &Agent{Tools: &Toolset{Store: studio.NewGuestStore()}}
	_, err := a.Chat(context.Background(), nil, "hello")
	var ce *CollaboratorError
	if !errors.As(err, &ce) {
		t.Fatalf("error = %v, want CollaboratorError", err)
	}
}

func TestChatToolLoopBounded(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprint(w, toolCallResponse("call_x", "inventory_tool", `{"action":"list"}`))
	}))
	defer srv.Close()

	a := newTestAgent(srv.URL, studio.NewGuestStore())
	res, err := a.Chat(context.Background(), nil, "loop forever")
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if calls > maxToolRounds+1 {
		t.Fatalf("made %d calls", calls)
	}
	if res == nil {
		t.Fatal("no result")
	}
}
