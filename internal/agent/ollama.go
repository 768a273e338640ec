package agent

import (
	"context"

	"github.com/msto63/rechenwerk/internal/ollama"
)

// OllamaConfig selects the model and sampling parameters
type OllamaConfig struct {
	Model       string
	Temperature float64
	MaxTokens   int
}

// NewOllamaLLM adapts an Ollama client to an LLMFunc using the chat API
func NewOllamaLLM(client *ollama.Client, cfg OllamaConfig) LLMFunc {
	return func(ctx context.Context, messages []Message) (string, error) {
		chatMessages := make([]ollama.ChatMessage, len(messages))
		for i, m := range messages {
			chatMessages[i] = ollama.ChatMessage{Role: m.Role, Content: m.Content}
		}

		options := map[string]interface{}{
			"temperature": cfg.Temperature,
		}
		if cfg.MaxTokens > 0 {
			options["num_predict"] = cfg.MaxTokens
		}

		resp, err := client.Chat(ctx, &ollama.ChatRequest{
			Model:    cfg.Model,
			Messages: chatMessages,
			Options:  options,
		})
		if err != nil {
			return "", err
		}
		return resp.Message.Content, nil
	}
}
