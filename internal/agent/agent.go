// ============================================================================
// meinRECHENWERK - Lokaler KI-Rechner
// ============================================================================
//
// Package:     agent
// Description: Natural-language turns: user text to model to tool calls
// Author:      Mike Stoffels
// Created:     2026-10-19
// License:     MIT
// ============================================================================

package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	mdwerror "github.com/msto63/rechenwerk/foundation/core/error"
	"github.com/msto63/rechenwerk/internal/dispatch"
	"github.com/msto63/rechenwerk/internal/prompt"
	"github.com/msto63/rechenwerk/pkg/core/logging"
)

// LLMFunc is a function that generates LLM responses
type LLMFunc func(ctx context.Context, messages []Message) (string, error)

// Message represents a chat message
type Message struct {
	Role    string
	Content string
}

// ErrNoInput is returned for an empty question
var ErrNoInput = mdwerror.New("empty input").
	WithCode(mdwerror.CodeInvalidInput)

// Turn is one question answered by the model and executed on the session
type Turn struct {
	ID        string
	Input     string
	Raw       string
	Calls     []dispatch.Call
	Results   []dispatch.Result
	Total     decimal.Decimal
	Display   string
	Attempts  int
	Err       error
	StartedAt time.Time
	EndedAt   time.Time
}

// Reply returns the text shown to the user: the last result, the error, or
// the total when the model made no call
func (t *Turn) Reply() string {
	if t.Err != nil {
		return "Error: " + t.Err.Error()
	}
	if len(t.Results) > 0 {
		return t.Results[len(t.Results)-1].Display
	}
	return t.Display
}

// Config holds agent configuration
type Config struct {
	// MaxAttempts bounds model calls per turn. Only unparseable output is
	// retried; nothing has been executed at that point.
	MaxAttempts int
	LLMFunc     LLMFunc
	Logger      *logging.Logger
}

// DefaultConfig returns default agent configuration
func DefaultConfig() Config {
	return Config{
		MaxAttempts: 2,
	}
}

// Agent turns natural language into calculator calls
type Agent struct {
	session     *dispatch.Session
	llmFunc     LLMFunc
	logger      *logging.Logger
	maxAttempts int
}

// New creates an agent operating on session
func New(session *dispatch.Session, cfg Config) (*Agent, error) {
	if session == nil {
		return nil, fmt.Errorf("session not set")
	}
	if cfg.LLMFunc == nil {
		return nil, fmt.Errorf("LLM function not set")
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultConfig().MaxAttempts
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.New("agent")
	}
	return &Agent{
		session:     session,
		llmFunc:     cfg.LLMFunc,
		logger:      logger,
		maxAttempts: cfg.MaxAttempts,
	}, nil
}

// Session returns the session the agent operates on
func (a *Agent) Session() *dispatch.Session {
	return a.session
}

// Ask sends text to the model and executes the returned calls. The turn is
// always returned; err is the turn's error.
func (a *Agent) Ask(ctx context.Context, text string) (*Turn, error) {
	turn := &Turn{
		ID:        uuid.New().String(),
		Input:     strings.TrimSpace(text),
		StartedAt: time.Now(),
	}
	defer func() {
		turn.EndedAt = time.Now()
		turn.Total = a.session.Total()
		turn.Display = a.session.Format(turn.Total)
	}()

	if turn.Input == "" {
		turn.Err = ErrNoInput
		return turn, turn.Err
	}

	a.logger.Info("Starting turn", "turn", turn.ID, "input", turn.Input)

	messages := toMessages(prompt.Messages(turn.Input))
	for attempt := 1; attempt <= a.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			turn.Err = err
			return turn, err
		}
		turn.Attempts = attempt

		response, err := a.llmFunc(ctx, messages)
		if err != nil {
			turn.Err = fmt.Errorf("LLM error: %w", err)
			a.logger.Error("Model call failed", "turn", turn.ID, "error", err)
			return turn, turn.Err
		}
		turn.Raw = response

		calls, err := dispatch.ParseCalls(dispatch.ExtractJSON(response))
		if err != nil {
			turn.Err = err
			a.logger.Warn("Unparseable model output", "turn", turn.ID, "attempt", attempt, "raw", response)
			messages = append(messages,
				Message{Role: "assistant", Content: response},
				Message{Role: "user", Content: fmt.Sprintf("ERROR: %v. Respond ONLY with JSON function calls.", err)},
			)
			continue
		}

		turn.Err = nil
		turn.Calls = calls
		turn.Results, turn.Err = a.session.Run(ctx, calls)
		a.logTurn(turn)
		return turn, turn.Err
	}

	return turn, turn.Err
}

func (a *Agent) logTurn(turn *Turn) {
	names := make([]string, 0, len(turn.Calls))
	for _, c := range turn.Calls {
		names = append(names, c.String())
	}

	if turn.Err != nil {
		level := a.logger.Warn
		var mdwErr *mdwerror.Error
		if !errors.As(turn.Err, &mdwErr) {
			level = a.logger.Error
		}
		level("Turn failed", "turn", turn.ID, "calls", names, "error", turn.Err)
		return
	}
	a.logger.Info("Turn completed", "turn", turn.ID, "calls", names, "attempts", turn.Attempts)
}

func toMessages(in []prompt.Message) []Message {
	out := make([]Message, len(in))
	for i, m := range in {
		out[i] = Message{Role: m.Role, Content: m.Content}
	}
	return out
}
