package prompt

import (
	"strings"
	"testing"
)

func TestFunctions(t *testing.T) {
	fns := Functions()
	if len(fns) != 10 {
		t.Fatalf("len(Functions()) = %d, want 10", len(fns))
	}

	byName := make(map[string]Function)
	for _, fn := range fns {
		if fn.Description == "" {
			t.Errorf("%s has no description", fn.Name)
		}
		byName[fn.Name] = fn
	}

	if byName["add"].Signature() != "add(number)" {
		t.Errorf("add signature = %s", byName["add"].Signature())
	}
	if byName["get_total"].Signature() != "get_total()" {
		t.Errorf("get_total signature = %s", byName["get_total"].Signature())
	}
}

func TestSystemPrompt(t *testing.T) {
	p := SystemPrompt()

	for _, want := range []string{"add(number)", "percent_subtract(number)", "clear_all()", "Respond ONLY with JSON."} {
		if !strings.Contains(p, want) {
			t.Errorf("SystemPrompt() missing %q", want)
		}
	}
}

func TestBuild(t *testing.T) {
	p := Build("  add five and seven ")

	if !strings.HasPrefix(p, SystemPrompt()) {
		t.Error("Build() should start with the system prompt")
	}
	if !strings.HasSuffix(p, "\nUser: add five and seven\nAssistant:") {
		t.Errorf("Build() suffix = %q", p[len(p)-40:])
	}
}

func TestMessages(t *testing.T) {
	msgs := Messages("what is the total?")

	if len(msgs) != 2 {
		t.Fatalf("len(Messages()) = %d, want 2", len(msgs))
	}
	if msgs[0].Role != "system" || msgs[1].Role != "user" {
		t.Errorf("roles = %s, %s", msgs[0].Role, msgs[1].Role)
	}
	if msgs[1].Content != "what is the total?" {
		t.Errorf("user content = %q", msgs[1].Content)
	}
}
