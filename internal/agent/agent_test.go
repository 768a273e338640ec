package agent

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/msto63/rechenwerk/internal/accumulator"
	"github.com/msto63/rechenwerk/internal/dispatch"
	"github.com/msto63/rechenwerk/internal/ollama"
)

// MockLLMFunc creates a mock LLM function for testing
func MockLLMFunc(responses []string) LLMFunc {
	index := 0
	return func(ctx context.Context, messages []Message) (string, error) {
		if index >= len(responses) {
			return responses[len(responses)-1], nil
		}
		resp := responses[index]
		index++
		return resp, nil
	}
}

func newTestAgent(t *testing.T, llm LLMFunc) *Agent {
	t.Helper()
	session, err := dispatch.NewSession(dispatch.SessionConfig{Accumulator: accumulator.DefaultConfig()})
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}
	a, err := New(session, Config{LLMFunc: llm})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return a
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(nil, Config{LLMFunc: MockLLMFunc([]string{"{}"})}); err == nil {
		t.Error("New() without session should fail")
	}

	session, _ := dispatch.NewSession(dispatch.SessionConfig{Accumulator: accumulator.DefaultConfig()})
	if _, err := New(session, Config{}); err == nil {
		t.Error("New() without LLM function should fail")
	}

	a, err := New(session, Config{LLMFunc: MockLLMFunc([]string{"{}"})})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if a.maxAttempts != 2 {
		t.Errorf("maxAttempts = %d, want default 2", a.maxAttempts)
	}
}

func TestAgent_Ask(t *testing.T) {
	a := newTestAgent(t, MockLLMFunc([]string{
		`Here you go: {"tool_calls":[{"name":"add","arguments":{"number":27}},{"name":"add","arguments":{"number":15}},{"name":"get_total"}]}`,
	}))

	turn, err := a.Ask(context.Background(), "add twenty-seven and fifteen")
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if len(turn.Calls) != 3 || len(turn.Results) != 3 {
		t.Fatalf("calls = %d, results = %d, want 3/3", len(turn.Calls), len(turn.Results))
	}
	if turn.Reply() != "42.00" {
		t.Errorf("Reply() = %s, want 42.00", turn.Reply())
	}
	if turn.Display != "42.00" {
		t.Errorf("Display = %s, want 42.00", turn.Display)
	}
	if turn.Attempts != 1 {
		t.Errorf("Attempts = %d, want 1", turn.Attempts)
	}
	if turn.ID == "" || turn.EndedAt.Before(turn.StartedAt) {
		t.Errorf("turn metadata = %+v", turn)
	}
}

func TestAgent_AskKeepsStateAcrossTurns(t *testing.T) {
	a := newTestAgent(t, MockLLMFunc([]string{
		`{"name":"add","arguments":{"number":10}}`,
		`{"name":"multiply","arguments":{"number":"2.5"}}`,
	}))

	a.Ask(context.Background(), "add ten")
	turn, err := a.Ask(context.Background(), "times two and a half")
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if turn.Reply() != "25.00" {
		t.Errorf("Reply() = %s, want 25.00", turn.Reply())
	}
}

func TestAgent_AskRetriesUnparseableOutput(t *testing.T) {
	var seen [][]Message
	responses := []string{"I think the answer is five", `{"name":"add","arguments":{"number":5}}`}
	llm := func(ctx context.Context, messages []Message) (string, error) {
		seen = append(seen, append([]Message(nil), messages...))
		return responses[len(seen)-1], nil
	}
	a := newTestAgent(t, llm)

	turn, err := a.Ask(context.Background(), "add five")
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if turn.Attempts != 2 {
		t.Errorf("Attempts = %d, want 2", turn.Attempts)
	}
	if len(seen[1]) != 4 || !strings.HasPrefix(seen[1][3].Content, "ERROR:") {
		t.Errorf("retry conversation = %+v", seen[1])
	}
	if turn.Reply() != "5.00" {
		t.Errorf("Reply() = %s, want 5.00", turn.Reply())
	}
}

func TestAgent_AskGivesUpAfterMaxAttempts(t *testing.T) {
	a := newTestAgent(t, MockLLMFunc([]string{"no json here"}))

	turn, err := a.Ask(context.Background(), "add five")
	if !errors.Is(err, dispatch.ErrMalformedCall) {
		t.Fatalf("Ask() error = %v, want ErrMalformedCall", err)
	}
	if turn.Attempts != 2 {
		t.Errorf("Attempts = %d, want 2", turn.Attempts)
	}
	if !strings.HasPrefix(turn.Reply(), "Error: ") {
		t.Errorf("Reply() = %s", turn.Reply())
	}
}

func TestAgent_AskReportsCalculatorErrors(t *testing.T) {
	a := newTestAgent(t, MockLLMFunc([]string{`[{"name":"add","arguments":{"number":8}},{"name":"divide","arguments":{"number":0}}]`}))

	turn, err := a.Ask(context.Background(), "add eight and divide by zero")
	if !errors.Is(err, accumulator.ErrDivideByZero) {
		t.Fatalf("Ask() error = %v, want ErrDivideByZero", err)
	}
	if turn.Attempts != 1 {
		t.Errorf("calculator errors must not be retried, Attempts = %d", turn.Attempts)
	}
	if turn.Display != "8.00" {
		t.Errorf("Display = %s, want 8.00", turn.Display)
	}
}

func TestAgent_AskNoCalls(t *testing.T) {
	a := newTestAgent(t, MockLLMFunc([]string{`{"tool_calls":[]}`}))

	turn, err := a.Ask(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if len(turn.Results) != 0 || turn.Reply() != "0.00" {
		t.Errorf("turn = %+v", turn)
	}
}

func TestAgent_AskLLMError(t *testing.T) {
	a := newTestAgent(t, func(ctx context.Context, messages []Message) (string, error) {
		return "", errors.New("model offline")
	})

	_, err := a.Ask(context.Background(), "add one")
	if err == nil || !strings.Contains(err.Error(), "model offline") {
		t.Errorf("Ask() error = %v", err)
	}
}

func TestAgent_AskEmptyInput(t *testing.T) {
	called := false
	a := newTestAgent(t, func(ctx context.Context, messages []Message) (string, error) {
		called = true
		return "{}", nil
	})

	if _, err := a.Ask(context.Background(), "   "); !errors.Is(err, ErrNoInput) {
		t.Errorf("Ask() error = %v, want ErrNoInput", err)
	}
	if called {
		t.Error("model should not be called for empty input")
	}
}

func TestAgent_AskCanceled(t *testing.T) {
	a := newTestAgent(t, MockLLMFunc([]string{`{"name":"add","arguments":{"number":1}}`}))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := a.Ask(ctx, "add one"); !errors.Is(err, context.Canceled) {
		t.Errorf("Ask() error = %v, want context.Canceled", err)
	}
}

func TestNewOllamaLLM(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ollama.ChatRequest
		json.NewDecoder(r.Body).Decode(&req)

		if req.Model != "functiongemma" {
			t.Errorf("Model = %v", req.Model)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" {
			t.Errorf("Messages = %+v", req.Messages)
		}
		if req.Options["num_predict"] != float64(200) {
			t.Errorf("num_predict = %v", req.Options["num_predict"])
		}

		json.NewEncoder(w).Encode(ollama.ChatResponse{
			Message: ollama.ChatMessage{Role: "assistant", Content: `{"name":"add","arguments":{"number":3}}`},
			Done:    true,
		})
	}))
	defer server.Close()

	client := ollama.NewClient(ollama.Config{BaseURL: server.URL, Timeout: 5 * time.Second})
	a := newTestAgent(t, NewOllamaLLM(client, OllamaConfig{Model: "functiongemma", MaxTokens: 200}))

	turn, err := a.Ask(context.Background(), "add three")
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if turn.Reply() != "3.00" {
		t.Errorf("Reply() = %s, want 3.00", turn.Reply())
	}
}
