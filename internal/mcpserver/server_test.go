package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/msto63/rechenwerk/internal/accumulator"
	"github.com/msto63/rechenwerk/internal/dispatch"
)

func connect(t *testing.T) (*Server, *mcp.ClientSession) {
	t.Helper()

	session, err := dispatch.NewSession(dispatch.SessionConfig{Accumulator: accumulator.DefaultConfig()})
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}
	srv, err := New(session, DefaultConfig())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	serverTransport, clientTransport := mcp.NewInMemoryTransports()

	done := make(chan error, 1)
	go func() { done <- srv.RunTransport(ctx, serverTransport) }()

	client := mcp.NewClient(&mcp.Implementation{Name: "client", Version: "v0.0.1"}, nil)
	connectCtx, connectCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer connectCancel()
	cs, err := client.Connect(connectCtx, clientTransport, nil)
	if err != nil {
		cancel()
		t.Fatalf("Connect() error = %v", err)
	}

	t.Cleanup(func() {
		cs.Close()
		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Error("server did not stop")
		}
	})
	return srv, cs
}

func callTool(t *testing.T, cs *mcp.ClientSession, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	params := &mcp.CallToolParams{Name: name}
	if args != nil {
		params.Arguments = args
	} else {
		params.Arguments = map[string]any{}
	}
	res, err := cs.CallTool(ctx, params)
	if err != nil {
		t.Fatalf("CallTool(%s) error = %v", name, err)
	}
	return res
}

func textOf(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	var parts []string
	for _, c := range res.Content {
		if tc, ok := c.(*mcp.TextContent); ok {
			parts = append(parts, tc.Text)
		}
	}
	return strings.Join(parts, "")
}

func stateOf(t *testing.T, res *mcp.CallToolResult) State {
	t.Helper()
	if res.IsError {
		t.Fatalf("unexpected tool error: %s", textOf(t, res))
	}
	var st State
	if err := json.Unmarshal([]byte(textOf(t, res)), &st); err != nil {
		t.Fatalf("decode state %q: %v", textOf(t, res), err)
	}
	return st
}

func TestNew_RequiresSession(t *testing.T) {
	if _, err := New(nil, DefaultConfig()); err == nil {
		t.Error("New(nil) should fail")
	}
}

func TestListTools(t *testing.T) {
	_, cs := connect(t)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	res, err := cs.ListTools(ctx, nil)
	if err != nil {
		t.Fatalf("ListTools() error = %v", err)
	}

	got := map[string]bool{}
	for _, tool := range res.Tools {
		got[tool.Name] = true
		if tool.Description == "" {
			t.Errorf("tool %s has no description", tool.Name)
		}
	}
	for _, op := range dispatch.Operations() {
		if !got[op.String()] {
			t.Errorf("tool %s not registered", op)
		}
	}
}

func TestCallTool_Sequence(t *testing.T) {
	_, cs := connect(t)

	steps := []struct {
		tool      string
		args      map[string]any
		wantTotal string
		wantUndo  bool
	}{
		{"add", map[string]any{"number": 10}, "10.00", true},
		{"multiply", map[string]any{"number": "1.5"}, "15.00", true},
		{"percent_subtract", map[string]any{"number": 20}, "12.00", true},
		{"clear", nil, "15.00", false},
		{"get_total", nil, "15.00", false},
		{"divide", map[string]any{"number": 4}, "3.75", true},
		{"clear_all", nil, "0.00", false},
	}

	for _, step := range steps {
		st := stateOf(t, callTool(t, cs, step.tool, step.args))
		if st.Total != step.wantTotal || st.UndoAvailable != step.wantUndo {
			t.Errorf("%s: got {%s %v}, want {%s %v}", step.tool, st.Total, st.UndoAvailable, step.wantTotal, step.wantUndo)
		}
	}
}

func TestCallTool_Errors(t *testing.T) {
	srv, cs := connect(t)

	stateOf(t, callTool(t, cs, "add", map[string]any{"number": 5}))

	tests := []struct {
		name     string
		tool     string
		args     map[string]any
		wantText string
	}{
		{"divide by zero", "divide", map[string]any{"number": 0}, "division by zero"},
		{"magnitude", "multiply", map[string]any{"number": 1000}, "total max value reached"},
		{"bad literal", "add", map[string]any{"number": "abc"}, "invalid numeric"},
		{"missing operand", "subtract", map[string]any{}, "missing required argument"},
		{"huge exponent", "add", map[string]any{"number": "1e2147483647"}, "exponent"},
		{"tiny exponent", "multiply", map[string]any{"number": "1e-2147483647"}, "exponent"},
		{"far above bound", "add", map[string]any{"number": "1e999999"}, "total max value reached"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := callTool(t, cs, tt.tool, tt.args)
			if !res.IsError {
				t.Fatalf("expected tool error, got %s", textOf(t, res))
			}
			if text := textOf(t, res); !strings.Contains(text, tt.wantText) {
				t.Errorf("error text = %q, want it to contain %q", text, tt.wantText)
			}
		})
	}

	if got := srv.Session().Format(srv.Session().Total()); got != "5.00" {
		t.Errorf("total after failed calls = %s, want 5.00", got)
	}
}

func TestCallTool_ConcurrentStateMatchesCall(t *testing.T) {
	_, cs := connect(t)

	const n = 20
	totals := make(chan string, n)
	errs := make(chan error, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			res, err := cs.CallTool(ctx, &mcp.CallToolParams{
				Name:      "add",
				Arguments: map[string]any{"number": 1},
			})
			if err != nil {
				errs <- err
				return
			}
			var st State
			var text string
			for _, c := range res.Content {
				if tc, ok := c.(*mcp.TextContent); ok {
					text += tc.Text
				}
			}
			if err := json.Unmarshal([]byte(text), &st); err != nil {
				errs <- err
				return
			}
			if !st.UndoAvailable {
				errs <- errors.New("undo_available = false after add")
				return
			}
			totals <- st.Total
		}()
	}
	wg.Wait()
	close(totals)
	close(errs)

	for err := range errs {
		t.Fatalf("concurrent add: %v", err)
	}

	// every call reports the total it produced, so each running total appears once
	seen := make(map[string]bool)
	for total := range totals {
		if seen[total] {
			t.Errorf("total %s reported twice", total)
		}
		seen[total] = true
	}
	if len(seen) != n {
		t.Errorf("distinct totals = %d, want %d", len(seen), n)
	}
	for i := 1; i <= n; i++ {
		want := fmt.Sprintf("%d.00", i)
		if !seen[want] {
			t.Errorf("missing total %s", want)
		}
	}
}
