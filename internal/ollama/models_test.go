package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	mdwerror "github.com/msto63/rechenwerk/foundation/core/error"
)

func TestModelChecker(t *testing.T) {
	var hits atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		json.NewEncoder(w).Encode(ListModelsResponse{Models: []ModelInfo{{Name: "functiongemma:latest"}}})
	})
	checker := NewModelChecker(client, time.Minute)
	ctx := context.Background()

	if err := checker.Check(ctx, "functiongemma"); err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if err := checker.Check(ctx, "functiongemma"); err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if got := hits.Load(); got != 1 {
		t.Errorf("server hit %d times, want 1 (cached)", got)
	}

	err := checker.Check(ctx, "llama3")
	if !errors.Is(err, ErrModelMissing) {
		t.Errorf("Check(llama3) error = %v, want ErrModelMissing", err)
	}

	checker.Invalidate()
	checker.Check(ctx, "functiongemma")
	if got := hits.Load(); got != 2 {
		t.Errorf("server hit %d times after Invalidate, want 2", got)
	}
}

func TestModelChecker_Unavailable(t *testing.T) {
	var hits atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})
	checker := NewModelChecker(client, time.Minute)

	for i := 0; i < 2; i++ {
		err := checker.Check(context.Background(), "functiongemma")
		if !mdwerror.HasCode(err, mdwerror.CodeServiceUnavailable) {
			t.Fatalf("Check() error = %v, want SERVICE_UNAVAILABLE", err)
		}
	}
	if got := hits.Load(); got != 2 {
		t.Errorf("server hit %d times, want 2 (failures are not cached)", got)
	}
}
