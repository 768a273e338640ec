package dispatch

import (
	"encoding/json"
	"fmt"
	"strings"

	mdwerror "github.com/msto63/rechenwerk/foundation/core/error"
)

// operandKeys lists the argument names accepted for the operand, in priority
// order
var operandKeys = []string{"number", "value", "amount", "divisor", "factor", "percent", "percentage"}

var (
	// ErrMalformedCall is returned for payloads that are not tool calls
	ErrMalformedCall = mdwerror.New("malformed tool call").
				WithCode(mdwerror.CodeInvalidInput)

	// ErrMissingOperand is returned when an operation needs a number and the
	// call carries none
	ErrMissingOperand = mdwerror.New("missing required argument: 'number'").
				WithCode(mdwerror.CodeInvalidInput)
)

// Call is a tool call as emitted by the model
type Call struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// Command is a resolved call ready for execution
type Command struct {
	Op      Operation
	Operand any
}

// NewCall builds a call with a single "number" argument, or none when
// operand is nil
func NewCall(op Operation, operand any) Call {
	c := Call{Name: op.String()}
	if operand != nil {
		c.Arguments = map[string]any{"number": operand}
	}
	return c
}

// Command resolves the call name and its operand
func (c Call) Command() (Command, error) {
	op, err := ParseOperation(c.Name)
	if err != nil {
		return Command{}, err
	}
	if !op.NeedsOperand() {
		return Command{Op: op}, nil
	}

	v, ok := c.operand()
	if !ok {
		return Command{Op: op}, ErrMissingOperand.WithOperation(op.String())
	}
	return Command{Op: op, Operand: v}, nil
}

func (c Call) operand() (any, bool) {
	for _, key := range operandKeys {
		if v, ok := c.Arguments[key]; ok {
			return v, true
		}
	}
	if len(c.Arguments) == 1 {
		for _, v := range c.Arguments {
			return v, true
		}
	}
	return nil, false
}

// String renders the call as name(operand)
func (c Call) String() string {
	if v, ok := c.operand(); ok {
		return fmt.Sprintf("%s(%v)", c.Name, v)
	}
	return c.Name + "()"
}

// ParseCalls decodes model output into calls. Accepted shapes are a single
// call object, an object with a "tool_calls" list, and a JSON array of calls.
// Numbers are kept as json.Number so no float rounding happens on the way in.
func ParseCalls(raw string) ([]Call, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()

	var payload any
	if err := dec.Decode(&payload); err != nil {
		return nil, ErrMalformedCall.WithCause(fmt.Errorf("invalid JSON: %w", err))
	}
	if dec.More() {
		return nil, ErrMalformedCall.WithCause(fmt.Errorf("trailing data after JSON value"))
	}

	var items []any
	switch p := payload.(type) {
	case map[string]any:
		if list, ok := p["tool_calls"].([]any); ok && len(list) > 0 {
			items = list
		} else if _, ok := p["name"]; ok {
			items = []any{p}
		}
	case []any:
		items = p
	default:
		return nil, ErrMalformedCall.WithCause(fmt.Errorf("unsupported model output: %T", payload))
	}

	calls := make([]Call, 0, len(items))
	for i, item := range items {
		call, err := toCall(item)
		if err != nil {
			return nil, err.WithDetail("index", i)
		}
		calls = append(calls, call)
	}
	return calls, nil
}

func toCall(item any) (Call, *mdwerror.Error) {
	obj, ok := item.(map[string]any)
	if !ok {
		return Call{}, ErrMalformedCall.WithCause(fmt.Errorf("call must be an object, got %T", item))
	}

	name, ok := obj["name"].(string)
	if !ok {
		return Call{}, ErrMalformedCall.WithCause(fmt.Errorf("call has no string name"))
	}

	call := Call{Name: name}
	switch args := obj["arguments"].(type) {
	case nil:
	case map[string]any:
		call.Arguments = args
	default:
		return Call{}, ErrMalformedCall.WithCause(fmt.Errorf("arguments of %q must be an object, got %T", name, args))
	}
	return call, nil
}

// ExtractJSON returns the part of text from the first '{' or '[' up to the
// last matching closer. Without an opener, or without a closer after it, the
// trimmed text is returned unchanged.
func ExtractJSON(text string) string {
	s := strings.TrimSpace(text)

	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return s
	}

	closer := byte('}')
	if s[start] == '[' {
		closer = ']'
	}
	end := strings.LastIndexByte(s, closer)
	if end < start {
		return s
	}
	return s[start : end+1]
}
