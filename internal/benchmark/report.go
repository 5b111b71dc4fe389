package benchmark

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// RandomBaseline is the reference accuracy for the 10-choice-slot design.
const RandomBaseline = 10.0

// Report is the persisted outcome of one evaluation run. Accuracy values are
// percentages.
type Report struct {
	Provider           string             `json:"provider"`
	Model              string             `json:"model"`
	TotalItems         int                `json:"total_items"`
	OverallAccuracy    float64            `json:"overall_accuracy"`
	AccuracyByType     map[string]float64 `json:"accuracy_by_type"`
	LatencyStoreMsAvg  float64            `json:"latency_store_ms_avg"`
	LatencyRecallMsAvg float64            `json:"latency_recall_ms_avg"`
	NumMemoriesAvg     float64            `json:"num_memories_avg"`
	RandomBaseline     float64            `json:"random_baseline"`
	Results            []EvalResult       `json:"results"`
}

// NewReport aggregates results into a report. The result slice is the sole
// input: re-aggregating the same results always yields the same report.
func NewReport(provider string, model string, results []EvalResult) (*Report, error) {
	if len(results) == 0 {
		return nil, errors.New("benchmark: no results to report")
	}

	r := &Report{
		Provider:       strings.TrimSpace(provider),
		Model:          strings.TrimSpace(model),
		TotalItems:     len(results),
		AccuracyByType: make(map[string]float64),
		RandomBaseline: RandomBaseline,
		Results:        results,
	}

	correct := 0
	var storeSum, recallSum float64
	var memSum int
	byType := make(map[string][2]int) // correct, total

	for _, res := range results {
		if res.Correct {
			correct++
		}
		storeSum += res.LatencyStoreMs
		recallSum += res.LatencyRecallMs
		memSum += res.NumMemoriesStored

		c := byType[res.QuestionType]
		if res.Correct {
			c[0]++
		}
		c[1]++
		byType[res.QuestionType] = c
	}

	n := float64(len(results))
	r.OverallAccuracy = float64(correct) / n * 100
	r.LatencyStoreMsAvg = storeSum / n
	r.LatencyRecallMsAvg = recallSum / n
	r.NumMemoriesAvg = float64(memSum) / n

	for qtype, c := range byType {
		r.AccuracyByType[qtype] = float64(c[0]) / float64(c[1]) * 100
	}

	return r, nil
}

// TypeOrder returns question types in stable sorted order for printing.
func (r *Report) TypeOrder() []string {
	if r == nil {
		return nil
	}
	out := make([]string, 0, len(r.AccuracyByType))
	for qtype := range r.AccuracyByType {
		out = append(out, qtype)
	}
	sort.Strings(out)
	return out
}

// Write persists the report as indented JSON.
func (r *Report) Write(path string) error {
	if r == nil {
		return errors.New("benchmark: nil report")
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return errors.New("benchmark: empty report path")
	}

	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("benchmark: create report dir: %w", err)
		}
	}

	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("benchmark: encode report: %w", err)
	}
	if err := os.WriteFile(path, append(b, '\n'), 0o644); err != nil {
		return fmt.Errorf("benchmark: write report: %w", err)
	}
	return nil
}
