// ============================================================================
// meinRECHENWERK - Lokaler KI-Rechner
// ============================================================================
//
// Package:     prompt
// Description: Function-calling prompts for the calculator model
// Author:      Mike Stoffels
// Created:     2026-10-19
// License:     MIT
// ============================================================================

package prompt

import (
	"fmt"
	"strings"

	"github.com/msto63/rechenwerk/internal/dispatch"
)

// Function describes one callable calculator function
type Function struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Parameter   string `json:"parameter,omitempty"`
}

// Signature renders the function as name(parameter)
func (f Function) Signature() string {
	return fmt.Sprintf("%s(%s)", f.Name, f.Parameter)
}

// Message is a chat message
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

var descriptions = map[dispatch.Operation]string{
	dispatch.OpAdd:             "Add a number to the running total",
	dispatch.OpSubtract:        "Subtract a number from the running total",
	dispatch.OpMultiply:        "Multiply the running total by a number",
	dispatch.OpDivide:          "Divide the running total by a number",
	dispatch.OpPercent:         "Replace the running total with the given percentage of it",
	dispatch.OpPercentAdd:      "Increase the running total by the given percentage",
	dispatch.OpPercentSubtract: "Decrease the running total by the given percentage",
	dispatch.OpGetTotal:        "Return the running total",
	dispatch.OpClear:           "Undo the last operation",
	dispatch.OpClearAll:        "Reset the running total to zero",
}

// Functions describes every calculator operation
func Functions() []Function {
	ops := dispatch.Operations()
	fns := make([]Function, 0, len(ops))
	for _, op := range ops {
		fn := Function{Name: op.String(), Description: descriptions[op]}
		if op.NeedsOperand() {
			fn.Parameter = "number"
		}
		fns = append(fns, fn)
	}
	return fns
}

// SystemPrompt returns the instructions given to the model
func SystemPrompt() string {
	var b strings.Builder
	b.WriteString("You are a system that converts calculator requests into JSON function calls.\n\n")
	b.WriteString("Available functions:\n\n")
	for _, fn := range Functions() {
		b.WriteString(fn.Signature())
		b.WriteString("\n")
	}
	b.WriteString("\nCall add once per number instead of passing lists.\n")
	b.WriteString(`Use {"name": ..., "arguments": {"number": ...}} for each call and {"tool_calls": [...]} for several.`)
	b.WriteString("\n\nRespond ONLY with JSON.\n")
	return b.String()
}

// Build renders a completion prompt for userInput
func Build(userInput string) string {
	return fmt.Sprintf("%s\nUser: %s\nAssistant:", SystemPrompt(), strings.TrimSpace(userInput))
}

// Messages renders the prompt as a chat message list
func Messages(userInput string) []Message {
	return []Message{
		{Role: "system", Content: SystemPrompt()},
		{Role: "user", Content: strings.TrimSpace(userInput)},
	}
}
