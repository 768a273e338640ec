package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/msto63/rechenwerk/internal/accumulator"
	"github.com/msto63/rechenwerk/internal/agent"
	"github.com/msto63/rechenwerk/internal/dispatch"
	"github.com/msto63/rechenwerk/internal/journal"
	"github.com/msto63/rechenwerk/internal/ollama"
	"github.com/msto63/rechenwerk/pkg/core/logging"
)

// modelListTTL bounds how long health probes reuse Ollama's model list
const modelListTTL = 30 * time.Second

// app bundles the collaborators commands share
type app struct {
	journal *journal.Store
	ollama  *ollama.Client
	models  *ollama.ModelChecker
	logger  *logging.Logger
}

func newApp() (*app, error) {
	a := &app{
		ollama: ollama.NewClient(ollama.Config{
			BaseURL: appConfig.Model.BaseURL,
			Timeout: appConfig.Model.Timeout.Duration,
		}),
		logger: logging.New("rechenwerk"),
	}
	a.models = ollama.NewModelChecker(a.ollama, modelListTTL)

	if appConfig.Journal.Enabled {
		store, err := journal.Open(journal.Config{Path: appConfig.Journal.Path})
		if err != nil {
			return nil, fmt.Errorf("open journal: %w", err)
		}
		a.journal = store
	}
	return a, nil
}

func (a *app) Close() {
	if a.journal != nil {
		if err := a.journal.Close(); err != nil {
			a.logger.Warn("Failed to close journal", "error", err)
		}
	}
}

func (a *app) accumulatorConfig() accumulator.Config {
	return accumulator.Config{
		Precision:    appConfig.Calculator.Precision,
		MaxMagnitude: appConfig.Calculator.MaxMagnitude,
	}
}

func (a *app) newSession() (*dispatch.Session, error) {
	cfg := dispatch.SessionConfig{Accumulator: a.accumulatorConfig()}
	if a.journal != nil {
		cfg.Recorder = a.journal
	}
	return dispatch.NewSession(cfg)
}

func (a *app) llm() agent.LLMFunc {
	return agent.NewOllamaLLM(a.ollama, agent.OllamaConfig{
		Model:       appConfig.Model.Name,
		Temperature: appConfig.Model.Temperature,
		MaxTokens:   appConfig.Model.MaxTokens,
	})
}

func (a *app) newAgent(session *dispatch.Session) (*agent.Agent, error) {
	return agent.New(session, agent.Config{LLMFunc: a.llm()})
}

// checkModel reports an error when Ollama is down or the model is missing
func (a *app) checkModel(ctx context.Context) error {
	err := a.models.Check(ctx, appConfig.Model.Name)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ollama.ErrModelMissing):
		return fmt.Errorf("%w (run: rechenwerk models pull %s)", err, appConfig.Model.Name)
	default:
		return fmt.Errorf("%w (start it with: ollama serve)", err)
	}
}

func printResults(results []dispatch.Result) {
	for _, r := range results {
		call := dispatch.NewCall(r.Op, r.Operand).String()
		if r.Err != nil {
			fmt.Printf("%-28s error: %v\n", call, r.Err)
			continue
		}
		fmt.Printf("%-28s = %s\n", call, r.Display)
	}
}
