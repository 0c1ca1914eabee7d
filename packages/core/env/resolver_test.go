package env

import (
	"regexp"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestResolverResolve(t *testing.T) {
	t.Setenv("JSONCALL_TEST_SECRET", "from-env")

	tests := []struct {
		name      string
		input     string
		variables map[string]string
		expected  string
	}{
		{
			name:     "no references",
			input:    "hello world",
			expected: "hello world",
		},
		{
			name:      "variable",
			input:     "Bearer {{token}}",
			variables: map[string]string{"token": "abc"},
			expected:  "Bearer abc",
		},
		{
			name:      "whitespace inside braces",
			input:     "{{ token }}",
			variables: map[string]string{"token": "abc"},
			expected:  "abc",
		},
		{
			name:     "explicit environment variable",
			input:    "{{$JSONCALL_TEST_SECRET}}",
			expected: "from-env",
		},
		{
			name:     "variable falls back to environment",
			input:    "{{JSONCALL_TEST_SECRET}}",
			expected: "from-env",
		},
		{
			name:      "variable wins over environment",
			input:     "{{JSONCALL_TEST_SECRET}}",
			variables: map[string]string{"JSONCALL_TEST_SECRET": "from-file"},
			expected:  "from-file",
		},
		{
			name:      "unresolved left in place",
			input:     "{{host}}/{{missing}}",
			variables: map[string]string{"host": "api"},
			expected:  "api/{{missing}}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver()
			r.SetVariables(tt.variables)
			if got := r.Resolve(tt.input); got != tt.expected {
				t.Errorf("Resolve(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestResolverDynamicValues(t *testing.T) {
	r := NewResolver()
	r.now = func() time.Time { return time.Unix(1700000000, 0) }

	if got := r.Resolve("{{$timestamp}}"); got != "1700000000" {
		t.Errorf("Resolve($timestamp) = %q", got)
	}

	uuidPattern := regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)
	first := r.Resolve("{{$uuid}}")
	if !uuidPattern.MatchString(first) {
		t.Errorf("Resolve($uuid) = %q, not a UUID", first)
	}
	if second := r.Resolve("{{$uuid}}"); second == first {
		t.Errorf("Resolve($uuid) repeated %q", first)
	}
}

func TestResolverWarnsOnUnresolved(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	r := NewResolver(WithLogger(zap.New(core)))

	r.Resolve("{{nope_not_set_anywhere}}")

	entries := logs.FilterMessage("unresolved variable").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 warning, got %d", len(entries))
	}
	if got := entries[0].ContextMap()["name"]; got != "nope_not_set_anywhere" {
		t.Errorf("warning name = %v", got)
	}
}

func TestResolverUnresolved(t *testing.T) {
	r := NewResolver()
	r.SetVariable("a", "1")

	got := r.Unresolved("{{a}} {{b_not_set_anywhere}} {{$uuid}}")
	if len(got) != 1 || got[0] != "b_not_set_anywhere" {
		t.Errorf("Unresolved() = %v", got)
	}
}
