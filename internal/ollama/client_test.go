package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(Config{BaseURL: server.URL + "/", Timeout: 5 * time.Second})
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.BaseURL != "http://localhost:11434" {
		t.Errorf("BaseURL = %v, want http://localhost:11434", cfg.BaseURL)
	}
	if cfg.Timeout != 120*time.Second {
		t.Errorf("Timeout = %v, want 120s", cfg.Timeout)
	}
}

func TestNewClient_TrimsTrailingSlash(t *testing.T) {
	client := NewClient(Config{BaseURL: "http://ollama:11434/"})
	if client.BaseURL() != "http://ollama:11434" {
		t.Errorf("BaseURL() = %v", client.BaseURL())
	}
}

func TestClient_Generate(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("Path = %v, want /api/generate", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Errorf("Method = %v, want POST", r.Method)
		}

		var req GenerateRequest
		json.NewDecoder(r.Body).Decode(&req)

		if req.Model != "functiongemma" {
			t.Errorf("Model = %v, want functiongemma", req.Model)
		}
		if req.Stream {
			t.Error("Stream should be false")
		}

		json.NewEncoder(w).Encode(GenerateResponse{
			Model:    "functiongemma",
			Response: `{"name":"get_total"}`,
			Done:     true,
		})
	})

	resp, err := client.Generate(context.Background(), &GenerateRequest{
		Model:  "functiongemma",
		Prompt: "what is the total",
		Stream: true,
	})

	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if resp.Response != `{"name":"get_total"}` {
		t.Errorf("Response = %v", resp.Response)
	}
}

func TestClient_Generate_Error(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"model not found"}`))
	})

	_, err := client.Generate(context.Background(), &GenerateRequest{Model: "missing", Prompt: "Hello"})

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Generate() error = %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusNotFound || apiErr.Body != `{"error":"model not found"}` {
		t.Errorf("APIError = %+v", apiErr)
	}
}

func TestClient_Chat(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("Path = %v, want /api/chat", r.URL.Path)
		}

		var req ChatRequest
		json.NewDecoder(r.Body).Decode(&req)

		if len(req.Messages) != 2 {
			t.Errorf("len(Messages) = %d, want 2", len(req.Messages))
		}
		if req.Options["temperature"] != float64(0) {
			t.Errorf("temperature = %v", req.Options["temperature"])
		}

		json.NewEncoder(w).Encode(ChatResponse{
			Message: ChatMessage{Role: "assistant", Content: `{"name":"add","arguments":{"number":5}}`},
			Done:    true,
		})
	})

	resp, err := client.Chat(context.Background(), &ChatRequest{
		Model: "functiongemma",
		Messages: []ChatMessage{
			{Role: "system", Content: "sys"},
			{Role: "user", Content: "add five"},
		},
		Options: map[string]interface{}{"temperature": 0},
	})

	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if resp.Message.Content != `{"name":"add","arguments":{"number":5}}` {
		t.Errorf("Content = %v", resp.Message.Content)
	}
}

func TestClient_Chat_InvalidJSON(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	})

	if _, err := client.Chat(context.Background(), &ChatRequest{Model: "m"}); err == nil {
		t.Error("Chat() should fail on invalid JSON")
	}
}

func TestClient_ListModels(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" || r.Method != http.MethodGet {
			t.Errorf("%s %s, want GET /api/tags", r.Method, r.URL.Path)
		}
		w.Write([]byte(`{"models":[{"name":"functiongemma:latest","size":123},{"name":"llama3.2:3b"}]}`))
	})

	resp, err := client.ListModels(context.Background())
	if err != nil {
		t.Fatalf("ListModels() error = %v", err)
	}
	if len(resp.Models) != 2 {
		t.Fatalf("len(Models) = %d, want 2", len(resp.Models))
	}
	if !resp.HasModel("functiongemma") {
		t.Error("HasModel(functiongemma) = false")
	}
	if !resp.HasModel("llama3.2:3b") {
		t.Error("HasModel(llama3.2:3b) = false")
	}
	if resp.HasModel("mistral") {
		t.Error("HasModel(mistral) = true")
	}
}

func TestClient_Ping(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Ollama is running"))
	})

	if err := client.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
}

func TestClient_Ping_Unavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := NewClient(Config{BaseURL: url, Timeout: time.Second})
	if err := client.Ping(context.Background()); err == nil {
		t.Error("Ping() should fail when the server is down")
	}
}

func TestClient_PullModel(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req PullRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Name != "functiongemma" || !req.Stream {
			t.Errorf("PullRequest = %+v", req)
		}
		enc := json.NewEncoder(w)
		enc.Encode(PullProgress{Status: "pulling manifest"})
		enc.Encode(PullProgress{Status: "downloading", Total: 100, Completed: 50})
		enc.Encode(PullProgress{Status: "success"})
	})

	progressCh, errCh := client.PullModel(context.Background(), "functiongemma")

	var statuses []string
	for p := range progressCh {
		statuses = append(statuses, p.Status)
	}
	if err := <-errCh; err != nil {
		t.Fatalf("PullModel() error = %v", err)
	}
	if len(statuses) != 3 || statuses[2] != "success" {
		t.Errorf("statuses = %v", statuses)
	}
}

func TestClient_PullModel_StreamError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":"pull model manifest: file does not exist"}` + "\n"))
	})

	progressCh, errCh := client.PullModel(context.Background(), "nope")
	for range progressCh {
	}
	if err := <-errCh; err == nil {
		t.Error("PullModel() should report the stream error")
	}
}
