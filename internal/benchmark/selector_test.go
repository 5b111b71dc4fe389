package benchmark

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stellarlinkco/memory-bench/internal/memory"
)

type stubProvider struct {
	text string
	err  error
	last string
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) Complete(ctx context.Context, prompt string) (string, error) {
	s.last = prompt
	return s.text, s.err
}

func TestParseChoiceIndex(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"3. Answer is option 3", 3},
		{"I'm not sure", 0},
		{"", 0},
		{"The answer is 7", 7},
		{"0", 0},
		{"option (9) looks right", 9},
		{"no digits here!", 0},
	}

	for _, tc := range tests {
		if got := ParseChoiceIndex(tc.in); got != tc.want {
			t.Fatalf("ParseChoiceIndex(%q): got %d want %d", tc.in, got, tc.want)
		}
	}
}

func TestFormatEvidence(t *testing.T) {
	if got := FormatEvidence(nil); got != noMemoriesMarker {
		t.Fatalf("FormatEvidence(nil): got %q", got)
	}

	m1 := memory.Recalled{Score: 0.9}
	m1.Experience.Content = "Melanie painted a sunrise."
	m2 := memory.Recalled{Score: 0.4, Content: "Caroline went hiking."}

	got := FormatEvidence([]memory.Recalled{m1, m2})
	want := "[Memory 1]: Melanie painted a sunrise.\n\n[Memory 2]: Caroline went hiking."
	if got != want {
		t.Fatalf("FormatEvidence: got %q want %q", got, want)
	}
}

func TestBuildAnswerPrompt(t *testing.T) {
	choices := []string{"a sunrise", "a lighthouse", "her dog"}
	prompt := BuildAnswerPrompt("What did Melanie paint?", choices, noMemoriesMarker)

	for _, want := range []string{
		"RETRIEVED MEMORIES:\n" + noMemoriesMarker,
		"QUESTION: What did Melanie paint?",
		"0. a sunrise\n1. a lighthouse\n2. her dog",
		"Respond with ONLY the option number (0-9)",
		"Your answer (single digit 0-9):",
	} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestSelector_Select(t *testing.T) {
	p := &stubProvider{text: "2"}
	sel := &Selector{Provider: p}

	got, err := sel.Select(context.Background(), "q", []string{"x", "y", "z"}, nil)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if got != 2 {
		t.Fatalf("Select: got %d want 2", got)
	}
	if !strings.Contains(p.last, noMemoriesMarker) {
		t.Fatal("prompt should carry the no-memories marker when recall is empty")
	}
}

func TestSelector_ProviderFailureDefaultsToZero(t *testing.T) {
	sel := &Selector{Provider: &stubProvider{err: errors.New("boom")}}

	got, err := sel.Select(context.Background(), "q", []string{"x", "y"}, nil)
	if err == nil {
		t.Fatal("Select: expected informational error")
	}
	if got != 0 {
		t.Fatalf("Select: got %d want 0", got)
	}
}
