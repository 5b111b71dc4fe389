// Package benchmark implements the LoCoMo-MC10 evaluation: loading items,
// chunking their dialogue haystacks into memories, selecting answers from
// recalled evidence, and aggregating results.
package benchmark

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

const (
	minChoices = 2
	maxChoices = 10
)

// Turn is one dialogue utterance. Records carry a speaker or role field
// depending on the source; only content matters for storage.
type Turn struct {
	Speaker string `json:"speaker,omitempty"`
	Role    string `json:"role,omitempty"`
	Content string `json:"content"`
}

// Session is one multi-turn conversation segment within an item's haystack.
type Session []Turn

// Item is one benchmark record: a question over a haystack of sessions.
type Item struct {
	QuestionID               string    `json:"question_id"`
	Question                 string    `json:"question"`
	QuestionType             string    `json:"question_type"`
	Choices                  []string  `json:"choices"`
	CorrectChoiceIndex       int       `json:"correct_choice_index"`
	HaystackSessions         []Session `json:"haystack_sessions"`
	HaystackSessionSummaries []string  `json:"haystack_session_summaries"`
	HaystackSessionDatetimes []string  `json:"haystack_session_datetimes,omitempty"`
}

// Validate checks the fields aggregation depends on. A malformed record
// fails the whole run rather than silently mis-scoring.
func (it *Item) Validate() error {
	if it == nil {
		return errors.New("nil item")
	}
	if strings.TrimSpace(it.QuestionID) == "" {
		return errors.New("missing question_id")
	}
	if strings.TrimSpace(it.Question) == "" {
		return errors.New("missing question")
	}
	if len(it.Choices) < minChoices || len(it.Choices) > maxChoices {
		return fmt.Errorf("choices: got %d, expected %d-%d", len(it.Choices), minChoices, maxChoices)
	}
	if it.CorrectChoiceIndex < 0 || it.CorrectChoiceIndex >= len(it.Choices) {
		return fmt.Errorf("correct_choice_index %d out of range [0,%d)", it.CorrectChoiceIndex, len(it.Choices))
	}
	return nil
}

// Summary returns the session summary aligned to index i, or "" when the
// summary list is shorter than the session list.
func (it *Item) Summary(i int) string {
	if it == nil || i < 0 || i >= len(it.HaystackSessionSummaries) {
		return ""
	}
	return it.HaystackSessionSummaries[i]
}

// Datetime returns the session timestamp aligned to index i, or "".
func (it *Item) Datetime(i int) string {
	if it == nil || i < 0 || i >= len(it.HaystackSessionDatetimes) {
		return ""
	}
	return it.HaystackSessionDatetimes[i]
}

// LoadItems reads newline-delimited JSON items from path, validating each
// record eagerly. limit <= 0 loads everything.
func LoadItems(path string, limit int) ([]Item, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("benchmark: empty dataset path")
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("benchmark: open dataset: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	// Haystacks run long; one item can be several megabytes of dialogue.
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var out []Item
	line := 0
	for sc.Scan() {
		line++
		raw := bytes.TrimSpace(sc.Bytes())
		if len(raw) == 0 {
			continue
		}

		var it Item
		if err := json.Unmarshal(raw, &it); err != nil {
			return nil, fmt.Errorf("benchmark: parse %s line %d: %w", path, line, err)
		}
		if err := it.Validate(); err != nil {
			return nil, fmt.Errorf("benchmark: invalid item at %s line %d: %w", path, line, err)
		}

		out = append(out, it)
		if limit > 0 && len(out) >= limit {
			return out, nil
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("benchmark: read dataset: %w", err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("benchmark: no items in %s", path)
	}
	return out, nil
}
