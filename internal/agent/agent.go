package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"studio/internal/studio"
)

// historyLimit caps the transcript sent per call.
const historyLimit = 10

// maxToolRounds bounds the tool-call loop so a confused model cannot spin.
const maxToolRounds = 8

// CollaboratorError marks an LLM transport or API failure. The chat handler
// turns it into an apologetic message instead of a 5xx crash.
type CollaboratorError struct {
	Err error
}

func (e *CollaboratorError) Error() string { return "llm collaborator: " + e.Err.Error() }
func (e *CollaboratorError) Unwrap() error { return e.Err }

// Agent talks to OpenRouter's chat-completions API with the four studio
// tools. One Agent serves one request: it carries the caller's store binding
// and context and is thrown away afterwards. There is no shared instance.
type Agent struct {
	APIKey   string
	Model    string
	Endpoint string

	UserContext string
	Tools       *Toolset

	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Result is one completed chat turn.
type Result struct {
	Response  string
	ToolCalls studio.ToolCallList
}

type ToolDefinition struct {
	Type     string             `json:"type"`
	Function FunctionDefinition `json:"function"`
}

type FunctionDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

type chatMessage struct {
	Role       string        `json:"role"`
	Content    *string       `json:"content"`
	ToolCalls  []wireToolCall `json:"tool_calls,omitempty"`
	ToolCallID string        `json:"tool_call_id,omitempty"`
}

type wireToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function wireFunction `json:"function"`
}

type wireFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type chatRequest struct {
	Model       string           `json:"model"`
	Messages    []chatMessage    `json:"messages"`
	Temperature float64          `json:"temperature"`
	MaxTokens   int              `json:"max_tokens"`
	Tools       []ToolDefinition `json:"tools,omitempty"`
	ToolChoice  string           `json:"tool_choice,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func strptr(s string) *string { return &s }

// Chat sends one user message, runs the tool-call loop to completion, and
// returns the final assistant text plus every tool call made on the way.
func (a *Agent) Chat(ctx context.Context, history []studio.Message, message string) (*Result, error) {
	if a.APIKey == "" {
		return nil, &CollaboratorError{Err: errors.New("openrouter api key not configured")}
	}

	transcript := make([]chatMessage, 0, len(history)+2)
	for _, m := range history {
		content := m.Content
		transcript = append(transcript, chatMessage{Role: m.Role, Content: &content})
	}
	transcript = append(transcript, chatMessage{Role: "user", Content: strptr(message)})

	var made studio.ToolCallList

	for round := 0; ; round++ {
		reply, err := a.complete(ctx, transcript)
		if err != nil {
			return nil, err
		}

		if len(reply.ToolCalls) == 0 || round >= maxToolRounds {
			text := ""
			if reply.Content != nil {
				text = *reply.Content
			}
			return &Result{Response: text, ToolCalls: made}, nil
		}

		transcript = append(transcript, chatMessage{Role: "assistant", Content: nil, ToolCalls: reply.ToolCalls})

		for _, tc := range reply.ToolCalls {
			args := json.RawMessage(tc.Function.Arguments)
			result := a.Tools.Dispatch(ctx, tc.Function.Name, args)
			made = append(made, studio.ToolCall{
				Tool:   tc.Function.Name,
				Args:   args,
				Result: result,
			})

			if a.Logger != nil {
				a.Logger.Debug("tool call",
					zap.String("tool", tc.Function.Name),
					zap.Int("round", round))
			}

			transcript = append(transcript, chatMessage{Role: "tool", Content: strptr(result), ToolCallID: tc.ID})
		}
	}
}

func (a *Agent) complete(ctx context.Context, transcript []chatMessage) (*chatMessage, error) {
	system := systemPrompt
	if a.UserContext != "" {
		system += "\n\nUser: " + a.UserContext
	}

	recent := transcript
	if len(recent) > historyLimit {
		recent = recent[len(recent)-historyLimit:]
	}

	messages := append([]chatMessage{{Role: "system", Content: strptr(system)}}, recent...)

	body, err := json.Marshal(chatRequest{
		Model:       a.Model,
		Messages:    messages,
		Temperature: 0.7,
		MaxTokens:   500,
		Tools:       Definitions(),
		ToolChoice:  "auto",
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.Endpoint+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+a.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("HTTP-Referer", "http://localhost:8080")
	req.Header.Set("X-Title", "Art Studio Companion")

	client := a.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, &CollaboratorError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, &CollaboratorError{Err: err}
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, &CollaboratorError{Err: fmt.Errorf("decode response: %w", err)}
	}
	if resp.StatusCode != http.StatusOK {
		msg := resp.Status
		if parsed.Error != nil {
			msg = parsed.Error.Message
		}
		return nil, &CollaboratorError{Err: fmt.Errorf("openrouter: %s", msg)}
	}
	if len(parsed.Choices) == 0 {
		return nil, &CollaboratorError{Err: errors.New("openrouter: empty choices")}
	}

	return &parsed.Choices[0].Message, nil
}
