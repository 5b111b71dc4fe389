package benchmark

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/stellarlinkco/memory-bench/internal/llm"
	"github.com/stellarlinkco/memory-bench/internal/memory"
)

// userIDPrefix namespaces each item's memories. Question ids are unique, so
// two items never share stored state even against one shared backend.
const userIDPrefix = "locomo_"

// MemoryStore is the slice of the memory client the driver depends on.
type MemoryStore interface {
	Remember(ctx context.Context, userID string, unit memory.Unit) error
	RememberBatch(ctx context.Context, userID string, units []memory.Unit, opts memory.BatchOptions) (int, error)
	Recall(ctx context.Context, userID string, query string, limit int, mode string) ([]memory.Recalled, error)
	DeleteUser(ctx context.Context, userID string, purge bool) error
}

// EvalResult is the scored outcome for one item. Exactly one is produced per
// item regardless of store/recall/provider failures, so aggregate statistics
// stay well-defined over the full dataset.
type EvalResult struct {
	QuestionID        string  `json:"question_id"`
	QuestionType      string  `json:"question_type"`
	Correct           bool    `json:"correct"`
	PredictedIdx      int     `json:"predicted_idx"`
	CorrectIdx        int     `json:"correct_idx"`
	LatencyStoreMs    float64 `json:"latency_store_ms"`
	LatencyRecallMs   float64 `json:"latency_recall_ms"`
	NumMemoriesStored int     `json:"num_memories_stored"`
}

// Driver sequences store, recall, answer, and score for each item and
// aggregates results across the dataset. Items run strictly one at a time so
// latency measurements stay uncontaminated by concurrent traffic.
type Driver struct {
	Store    MemoryStore
	Provider llm.Provider
	Chunker  *Chunker

	RecallLimit int
	RecallMode  string
	Batch       bool // use remember/batch with entity extraction

	Progress io.Writer // optional per-item progress lines
}

// EvaluateItem runs one item through store, recall, answer, and score.
// Transport failures against the memory service degrade to zero stored or
// zero recalled; provider failures degrade to the index-0 default. The
// item's user namespace is deleted on the way out.
func (d *Driver) EvaluateItem(ctx context.Context, item *Item) (EvalResult, error) {
	res := EvalResult{}
	if d == nil || d.Store == nil || d.Provider == nil || d.Chunker == nil {
		return res, errors.New("benchmark: driver not fully configured")
	}
	if ctx == nil {
		return res, errors.New("benchmark: nil context")
	}
	if item == nil {
		return res, errors.New("benchmark: nil item")
	}

	userID := userIDPrefix + item.QuestionID
	defer func() {
		// Best-effort teardown; namespaces are unique per item anyway.
		_ = d.Store.DeleteUser(ctx, userID, true)
	}()

	res.QuestionID = item.QuestionID
	res.QuestionType = item.QuestionType
	res.CorrectIdx = item.CorrectChoiceIndex

	stored, storeMs := d.storeHaystack(ctx, userID, item)
	res.NumMemoriesStored = stored
	res.LatencyStoreMs = storeMs

	start := time.Now()
	memories, err := d.Store.Recall(ctx, userID, item.Question, d.RecallLimit, d.RecallMode)
	res.LatencyRecallMs = msSince(start)
	if err != nil {
		// Degraded recall is not fatal; the selector sees no evidence.
		memories = nil
	}

	sel := &Selector{Provider: d.Provider}
	predicted, selErr := sel.Select(ctx, item.Question, item.Choices, memories)
	if selErr != nil && d.Progress != nil {
		fmt.Fprintf(d.Progress, "  provider error on %s: %v\n", item.QuestionID, selErr)
	}

	res.PredictedIdx = predicted
	res.Correct = predicted == item.CorrectChoiceIndex
	return res, nil
}

// storeHaystack chunks and stores every session in the item, returning the
// stored-unit count and elapsed wall-clock milliseconds. A failed store call
// counts as zero units for that call and the walk continues.
func (d *Driver) storeHaystack(ctx context.Context, userID string, item *Item) (int, float64) {
	start := time.Now()
	count := 0

	for i, session := range item.HaystackSessions {
		units := d.Chunker.Chunk(i, session, item.Summary(i), item.Datetime(i))
		if len(units) == 0 {
			continue
		}

		if d.Batch {
			created, err := d.Store.RememberBatch(ctx, userID, units, memory.BatchOptions{
				ExtractEntities: true,
				CreateEdges:     true,
			})
			if err == nil {
				count += created
			}
			continue
		}

		for _, unit := range units {
			if err := d.Store.Remember(ctx, userID, unit); err == nil {
				count++
			}
		}
	}

	return count, msSince(start)
}

// Run evaluates items sequentially and returns one result per completed
// item. Context cancellation returns the partial results alongside the
// error.
func (d *Driver) Run(ctx context.Context, items []Item) ([]EvalResult, error) {
	if d == nil {
		return nil, errors.New("benchmark: nil driver")
	}
	if ctx == nil {
		return nil, errors.New("benchmark: nil context")
	}
	if len(items) == 0 {
		return nil, errors.New("benchmark: no items")
	}

	results := make([]EvalResult, 0, len(items))
	for i := range items {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		res, err := d.EvaluateItem(ctx, &items[i])
		if err != nil {
			return results, err
		}
		results = append(results, res)

		if d.Progress != nil {
			mark := "FAIL"
			if res.Correct {
				mark = "ok"
			}
			fmt.Fprintf(d.Progress, "[%d/%d] %s %s (predicted=%d correct=%d stored=%d)\n",
				i+1, len(items), res.QuestionID, mark, res.PredictedIdx, res.CorrectIdx, res.NumMemoriesStored)
		}
	}
	return results, nil
}

func msSince(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000.0
}
