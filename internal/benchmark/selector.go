package benchmark

import (
	"context"
	"fmt"
	"strings"

	"github.com/stellarlinkco/memory-bench/internal/llm"
	"github.com/stellarlinkco/memory-bench/internal/memory"
)

const noMemoriesMarker = "(No relevant memories found)"

// FormatEvidence renders recalled memories for the answer prompt.
func FormatEvidence(memories []memory.Recalled) string {
	if len(memories) == 0 {
		return noMemoriesMarker
	}

	parts := make([]string, 0, len(memories))
	for i, m := range memories {
		parts = append(parts, fmt.Sprintf("[Memory %d]: %s", i+1, m.Text()))
	}
	return strings.Join(parts, "\n\n")
}

// BuildAnswerPrompt assembles the single multiple-choice prompt: evidence,
// question, enumerated choices, and the single-digit answer instruction.
func BuildAnswerPrompt(question string, choices []string, evidence string) string {
	var sb strings.Builder
	sb.WriteString("Based on the following conversation memories, answer the question by selecting the correct option.\n\n")
	sb.WriteString("RETRIEVED MEMORIES:\n")
	sb.WriteString(evidence)
	sb.WriteString("\n\nQUESTION: ")
	sb.WriteString(question)
	sb.WriteString("\n\nOPTIONS:\n")
	for i, choice := range choices {
		fmt.Fprintf(&sb, "%d. %s\n", i, choice)
	}
	sb.WriteString("\nInstructions:\n")
	sb.WriteString("- Analyze the memories to find relevant information\n")
	sb.WriteString("- Select the option that best answers the question\n")
	sb.WriteString("- Respond with ONLY the option number (0-9)\n")
	sb.WriteString("- If unsure, make your best guess based on available information\n\n")
	sb.WriteString("Your answer (single digit 0-9):")
	return sb.String()
}

// ParseChoiceIndex scans raw left to right and returns the value of the
// first digit character. It is deliberately permissive and never fails:
// no digit means index 0, the benchmark's forced best-effort guess.
func ParseChoiceIndex(raw string) int {
	for i := 0; i < len(raw); i++ {
		if raw[i] >= '0' && raw[i] <= '9' {
			return int(raw[i] - '0')
		}
	}
	return 0
}

// Selector answers one multiple-choice question from recalled evidence.
type Selector struct {
	Provider llm.Provider
}

// Select builds the prompt, runs the provider, and parses a choice index.
// A provider failure is returned for logging but never aborts the item: the
// prediction defaults to index 0.
func (s *Selector) Select(ctx context.Context, question string, choices []string, memories []memory.Recalled) (int, error) {
	if s == nil || s.Provider == nil {
		return 0, fmt.Errorf("benchmark: nil provider")
	}

	prompt := BuildAnswerPrompt(question, choices, FormatEvidence(memories))
	answer, err := s.Provider.Complete(ctx, prompt)
	if err != nil {
		return 0, err
	}
	return ParseChoiceIndex(answer), nil
}
