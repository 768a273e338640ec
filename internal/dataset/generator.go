// ============================================================================
// meinRECHENWERK - Lokaler KI-Rechner
// ============================================================================
//
// Package:     dataset
// Description: Synthetic function-calling examples for fine-tuning
// Author:      Mike Stoffels
// Created:     2026-10-19
// License:     MIT
// ============================================================================

package dataset

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"strconv"

	"github.com/msto63/rechenwerk/internal/dispatch"
	"github.com/msto63/rechenwerk/pkg/core/logging"
)

// Example is one training line
type Example struct {
	User      string          `json:"user"`
	ToolCalls []dispatch.Call `json:"tool_calls"`
}

// Config holds generator configuration
type Config struct {
	Seed uint64
	// Min and Max bound the operands, inclusive
	Min int
	Max int
	// DigitRatio is the share of operands written as digits instead of words
	DigitRatio float64
}

// DefaultConfig returns default generator configuration
func DefaultConfig() Config {
	return Config{
		Seed: 42,
		Min:  1,
		Max:  100,
	}
}

// Generator produces examples from templates. The same seed and templates
// always yield the same examples.
type Generator struct {
	templates []Template
	cfg       Config
	rng       *rand.Rand
	logger    *logging.Logger
}

// NewGenerator creates a generator. Nil templates select the built-in set.
func NewGenerator(templates []Template, cfg Config) (*Generator, error) {
	if cfg.Min < 0 || cfg.Max > MaxWordNumber || cfg.Min > cfg.Max {
		return nil, fmt.Errorf("operand range %d..%d must lie within 0..%d", cfg.Min, cfg.Max, MaxWordNumber)
	}
	if cfg.DigitRatio < 0 || cfg.DigitRatio > 1 {
		return nil, fmt.Errorf("digit ratio %v must lie within 0..1", cfg.DigitRatio)
	}
	if templates == nil {
		var err error
		if templates, err = DefaultTemplates(); err != nil {
			return nil, err
		}
	}
	if len(templates) == 0 {
		return nil, fmt.Errorf("no templates")
	}

	return &Generator{
		templates: templates,
		cfg:       cfg,
		rng:       rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)),
		logger:    logging.New("dataset"),
	}, nil
}

// Example renders one randomly chosen template
func (g *Generator) Example() Example {
	t := g.templates[g.rng.IntN(len(g.templates))]

	values := make(map[string]int)
	text := placeholder.ReplaceAllStringFunc(t.Text, func(m string) string {
		name := m[1 : len(m)-1]
		n, ok := values[name]
		if !ok {
			n = g.cfg.Min + g.rng.IntN(g.cfg.Max-g.cfg.Min+1)
			values[name] = n
		}
		return g.spell(n)
	})

	calls := make([]dispatch.Call, 0, len(t.Calls))
	for _, c := range t.Calls {
		call := dispatch.Call{Name: c.Name}
		if c.Arg != "" {
			call.Arguments = map[string]any{"number": values[c.Arg]}
		}
		calls = append(calls, call)
	}
	return Example{User: text, ToolCalls: calls}
}

// Generate returns n examples
func (g *Generator) Generate(n int) []Example {
	examples := make([]Example, 0, n)
	for i := 0; i < n; i++ {
		examples = append(examples, g.Example())
	}
	g.logger.Debug("Generated examples", "count", n, "templates", len(g.templates))
	return examples
}

func (g *Generator) spell(n int) string {
	if g.cfg.DigitRatio > 0 && g.rng.Float64() < g.cfg.DigitRatio {
		return strconv.Itoa(n)
	}
	words, err := NumberToWords(n)
	if err != nil {
		// unreachable: NewGenerator keeps the range within NumberToWords
		return strconv.Itoa(n)
	}
	return words
}

// WriteJSONL writes one JSON document per line
func WriteJSONL(w io.Writer, examples []Example) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	enc.SetEscapeHTML(false)
	for i, ex := range examples {
		if err := enc.Encode(ex); err != nil {
			return fmt.Errorf("encode example %d: %w", i, err)
		}
	}
	return bw.Flush()
}
