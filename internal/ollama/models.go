package ollama

import (
	"context"
	"fmt"
	"time"

	mdwerror "github.com/msto63/rechenwerk/foundation/core/error"
	"github.com/msto63/rechenwerk/pkg/core/cache"
)

const modelsKey = "models"

// ErrModelMissing is returned when the configured model is not installed
var ErrModelMissing = mdwerror.New("model not installed").
	WithCode(mdwerror.CodeNotFound)

// ModelChecker answers "is the model usable" with a cached model list, so
// frequent health probes do not hit Ollama every time. Failures are not
// cached.
type ModelChecker struct {
	client *Client
	models *cache.Cache[*ListModelsResponse]
}

// NewModelChecker creates a checker that keeps the model list for ttl
func NewModelChecker(client *Client, ttl time.Duration) *ModelChecker {
	return &ModelChecker{
		client: client,
		models: cache.New[*ListModelsResponse](cache.Config{MaxItems: 1, TTL: ttl}),
	}
}

// Models returns the installed models, cached
func (m *ModelChecker) Models(ctx context.Context) (*ListModelsResponse, error) {
	return m.models.GetOrSet(modelsKey, func() (*ListModelsResponse, error) {
		return m.client.ListModels(ctx)
	})
}

// Check returns nil when Ollama answers and name is installed
func (m *ModelChecker) Check(ctx context.Context, name string) error {
	models, err := m.Models(ctx)
	if err != nil {
		return mdwerror.Wrap(err, fmt.Sprintf("ollama not reachable at %s", m.client.BaseURL())).
			WithCode(mdwerror.CodeServiceUnavailable)
	}
	if !models.HasModel(name) {
		return ErrModelMissing.WithDetail("model", name)
	}
	return nil
}

// Invalidate drops the cached model list, e.g. after a pull
func (m *ModelChecker) Invalidate() {
	m.models.Delete(modelsKey)
}
