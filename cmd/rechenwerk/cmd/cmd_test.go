package cmd

import (
	"context"
	"strings"
	"testing"

	"github.com/msto63/rechenwerk/internal/accumulator"
	"github.com/msto63/rechenwerk/internal/dispatch"
)

func TestParseCalcArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    []string
		wantErr bool
	}{
		{"single", []string{"add", "5"}, []string{"add(5)"}, false},
		{"sequence", []string{"add", "10.5", "percent_add", "10", "get_total"}, []string{"add(10.5)", "percent_add(10)", "get_total()"}, false},
		{"no operand ops", []string{"clear", "clear_all"}, []string{"clear()", "clear_all()"}, false},
		{"case and alias", []string{"ADD", "1", "percent_substract", "5"}, []string{"add(1)", "percent_subtract(5)"}, false},
		{"missing value", []string{"add"}, nil, true},
		{"unknown op", []string{"sqrt", "4"}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls, err := parseCalcArgs(tt.args)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseCalcArgs() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if len(calls) != len(tt.want) {
				t.Fatalf("got %d calls, want %d", len(calls), len(tt.want))
			}
			for i, c := range calls {
				if got := c.String(); got != tt.want[i] {
					t.Errorf("call %d = %s, want %s", i, got, tt.want[i])
				}
			}
		})
	}
}

func TestRunLines(t *testing.T) {
	input := strings.Join([]string{
		`{"name":"add","arguments":{"number":5}}`,
		``,
		`# comment`,
		`[{"name":"multiply","arguments":{"number":3}}]`,
		`not json`,
		`{"name":"subtract","arguments":{"number":1}}`,
	}, "\n")

	tests := []struct {
		name         string
		keepGoing    bool
		wantFailures int
		wantTotal    string
	}{
		{"stop at first failure", false, 1, "15.00"},
		{"keep going", true, 1, "14.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session, err := dispatch.NewSession(dispatch.SessionConfig{Accumulator: accumulator.DefaultConfig()})
			if err != nil {
				t.Fatalf("NewSession() error = %v", err)
			}

			failures, err := runLines(context.Background(), session, strings.NewReader(input), tt.keepGoing)
			if err != nil {
				t.Fatalf("runLines() error = %v", err)
			}
			if failures != tt.wantFailures {
				t.Errorf("failures = %d, want %d", failures, tt.wantFailures)
			}
			if got := session.Format(session.Total()); got != tt.wantTotal {
				t.Errorf("total = %s, want %s", got, tt.wantTotal)
			}
		})
	}
}

func TestFormatSize(t *testing.T) {
	tests := []struct {
		bytes int64
		want  string
	}{
		{512, "512 B"},
		{2048, "2.0 KB"},
		{5 * 1024 * 1024, "5.0 MB"},
		{3 * 1024 * 1024 * 1024, "3.0 GB"},
	}
	for _, tt := range tests {
		if got := formatSize(tt.bytes); got != tt.want {
			t.Errorf("formatSize(%d) = %q, want %q", tt.bytes, got, tt.want)
		}
	}
}
