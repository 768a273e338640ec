package dispatch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/msto63/rechenwerk/internal/accumulator"
	"github.com/msto63/rechenwerk/pkg/core/logging"
)

// Execution describes one executed command for auditing
type Execution struct {
	SessionID string
	Op        Operation
	Operand   string
	Total     string
	Err       error
	At        time.Time
}

// Recorder receives every executed command
type Recorder interface {
	RecordExecution(ctx context.Context, e Execution) error
}

// Result is the outcome of one command. Total and HasUndo describe the
// accumulator right after the command; on failure Total is the unchanged total.
type Result struct {
	Op      Operation
	Operand any
	Total   decimal.Decimal
	Display string
	HasUndo bool
	Err     error
}

// OK reports whether the command succeeded
func (r Result) OK() bool {
	return r.Err == nil
}

// SessionConfig holds session configuration
type SessionConfig struct {
	Accumulator accumulator.Config
	Recorder    Recorder
	Logger      *logging.Logger
}

// Session serializes access to one accumulator
type Session struct {
	id       string
	mu       sync.Mutex
	acc      *accumulator.Accumulator
	recorder Recorder
	logger   *logging.Logger
}

// NewSession creates a session with a fresh accumulator
func NewSession(cfg SessionConfig) (*Session, error) {
	acc, err := accumulator.New(cfg.Accumulator)
	if err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.New("dispatch")
	}

	id := uuid.New().String()
	return &Session{
		id:       id,
		acc:      acc,
		recorder: cfg.Recorder,
		logger:   logger.With("session", id),
	}, nil
}

// ID returns the session identifier
func (s *Session) ID() string {
	return s.id
}

// Execute runs one command
func (s *Session) Execute(ctx context.Context, cmd Command) Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return s.result(cmd, err)
	}

	_, err := s.apply(cmd)
	res := s.result(cmd, err)
	s.record(ctx, res)
	return res
}

// result must be called with s.mu held
func (s *Session) result(cmd Command, err error) Result {
	total := s.acc.Total()
	return Result{
		Op:      cmd.Op,
		Operand: cmd.Operand,
		Total:   total,
		Display: s.acc.Format(total),
		HasUndo: s.acc.HasUndo(),
		Err:     err,
	}
}

// ExecuteCall resolves and runs one call
func (s *Session) ExecuteCall(ctx context.Context, call Call) Result {
	cmd, err := call.Command()
	if err != nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		res := s.result(cmd, err)
		s.record(ctx, res)
		return res
	}
	return s.Execute(ctx, cmd)
}

// Run executes calls in order and stops at the first failure. The returned
// results include the failing one; the error is that result's error.
func (s *Session) Run(ctx context.Context, calls []Call) ([]Result, error) {
	results := make([]Result, 0, len(calls))
	for _, call := range calls {
		res := s.ExecuteCall(ctx, call)
		results = append(results, res)
		if res.Err != nil {
			return results, res.Err
		}
	}
	return results, nil
}

// Dispatch parses raw model output and runs every call in it. The reply to
// show a user is the last result.
func (s *Session) Dispatch(ctx context.Context, raw string) ([]Result, error) {
	calls, err := ParseCalls(raw)
	if err != nil {
		s.logger.Warn("Unparseable tool calls", "error", err)
		return nil, err
	}
	return s.Run(ctx, calls)
}

// Total returns the current total
func (s *Session) Total() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.acc.Total()
}

// Snapshot returns the current accumulator state
func (s *Session) Snapshot() accumulator.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.acc.Snapshot()
}

// Format renders d with the session precision
func (s *Session) Format(d decimal.Decimal) string {
	return s.acc.Format(d)
}

func (s *Session) apply(cmd Command) (decimal.Decimal, error) {
	switch cmd.Op {
	case OpAdd:
		return s.acc.Add(cmd.Operand)
	case OpSubtract:
		return s.acc.Subtract(cmd.Operand)
	case OpMultiply:
		return s.acc.Multiply(cmd.Operand)
	case OpDivide:
		return s.acc.Divide(cmd.Operand)
	case OpPercent:
		return s.acc.Percent(cmd.Operand)
	case OpPercentAdd:
		return s.acc.PercentAdd(cmd.Operand)
	case OpPercentSubtract:
		return s.acc.PercentSubtract(cmd.Operand)
	case OpGetTotal:
		return s.acc.Total(), nil
	case OpClear:
		return s.acc.Clear(), nil
	case OpClearAll:
		return s.acc.ClearAll(), nil
	default:
		return decimal.Zero, ErrUnknownOperation.WithDetail("operation", int(cmd.Op))
	}
}

// record must be called with s.mu held so entries keep execution order
func (s *Session) record(ctx context.Context, res Result) {
	operand := ""
	if res.Operand != nil {
		operand = fmt.Sprint(res.Operand)
	}

	if res.Err != nil {
		s.logger.Warn("Command rejected", "op", res.Op.String(), "operand", operand, "total", res.Display, "error", res.Err)
	} else {
		s.logger.Debug("Command executed", "op", res.Op.String(), "operand", operand, "total", res.Display)
	}

	if s.recorder == nil {
		return
	}
	err := s.recorder.RecordExecution(ctx, Execution{
		SessionID: s.id,
		Op:        res.Op,
		Operand:   operand,
		Total:     res.Display,
		Err:       res.Err,
		At:        time.Now().UTC(),
	})
	if err != nil {
		s.logger.Warn("Failed to record command", "op", res.Op.String(), "error", err)
	}
}
