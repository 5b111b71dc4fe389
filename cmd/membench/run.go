package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/stellarlinkco/memory-bench/internal/benchmark"
	"github.com/stellarlinkco/memory-bench/internal/leaderboard"
	"github.com/stellarlinkco/memory-bench/internal/llm"
	"github.com/stellarlinkco/memory-bench/internal/memory"
)

const datasetName = "locomo_mc10"

const persistTimeout = 5 * time.Second

var notifyContext = func() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

type runOptions struct {
	provider  string
	model     string
	apiBase   string
	apiKey    string
	dataset   string
	limit     int
	full      bool
	memoryURL string
	memoryKey string
	output    string
	mode      string
	chunkSize int
	batch     bool
}

func newRunCmd(st *cliState) *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the evaluation against a memory service",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig(st)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEval(cmd, st, &opts)
		},
	}

	cmd.Flags().StringVar(&opts.provider, "provider", "", "LLM provider: openai|openai-compatible|claude|ollama|baseten")
	cmd.Flags().StringVar(&opts.model, "model", "", "model name (overrides config)")
	cmd.Flags().StringVar(&opts.apiBase, "api-base", "", "provider base URL (overrides config)")
	cmd.Flags().StringVar(&opts.apiKey, "api-key", "", "provider API key (overrides config and env)")
	cmd.Flags().StringVar(&opts.dataset, "dataset", "", "path to the dataset (JSONL)")
	cmd.Flags().IntVar(&opts.limit, "limit", 50, "number of items to evaluate (0 = all)")
	cmd.Flags().BoolVar(&opts.full, "full", false, "evaluate the whole dataset (same as --limit 0)")
	cmd.Flags().StringVar(&opts.memoryURL, "memory-url", "", "memory service base URL (overrides config)")
	cmd.Flags().StringVar(&opts.memoryKey, "memory-key", "", "memory service API key (overrides config)")
	cmd.Flags().StringVar(&opts.output, "output", "", "report output path (overrides config)")
	cmd.Flags().StringVar(&opts.mode, "mode", "", "recall mode (overrides config)")
	cmd.Flags().IntVar(&opts.chunkSize, "chunk-size", 0, "chunk target size in characters (overrides config)")
	cmd.Flags().BoolVar(&opts.batch, "batch", false, "store memories via the batch endpoint with entity extraction")

	return cmd
}

func runEval(cmd *cobra.Command, st *cliState, opts *runOptions) error {
	if st == nil || st.cfg == nil {
		return fmt.Errorf("run: missing config (internal error)")
	}
	if opts == nil {
		return fmt.Errorf("run: nil options")
	}

	dataset := strings.TrimSpace(opts.dataset)
	if dataset == "" {
		return fmt.Errorf("run: missing --dataset")
	}

	limit := opts.limit
	if opts.full {
		limit = 0
	}
	items, err := benchmark.LoadItems(dataset, limit)
	if err != nil {
		return err
	}

	provider, err := llm.New(st.cfg, llm.Options{
		Provider: opts.provider,
		Model:    opts.model,
		APIBase:  opts.apiBase,
		APIKey:   opts.apiKey,
	})
	if err != nil {
		return err
	}
	modelName := llm.ModelName(provider)

	memURL := strings.TrimSpace(opts.memoryURL)
	if memURL == "" {
		memURL = st.cfg.Memory.URL
	}
	memKey := strings.TrimSpace(opts.memoryKey)
	if memKey == "" {
		memKey = st.cfg.Memory.APIKey
	}
	client := memory.NewClient(memURL, memKey)

	ctx, stop := notifyContext()
	defer stop()

	if err := client.Health(ctx); err != nil {
		return fmt.Errorf("run: memory service unreachable at %s: %w", memURL, err)
	}

	chunkSize := opts.chunkSize
	if chunkSize <= 0 {
		chunkSize = st.cfg.Evaluation.ChunkSize
	}
	mode := strings.TrimSpace(opts.mode)
	if mode == "" {
		mode = st.cfg.Evaluation.RecallMode
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Evaluating %d items with %s/%s against %s\n", len(items), provider.Name(), modelName, memURL)

	d := &benchmark.Driver{
		Store:       client,
		Provider:    provider,
		Chunker:     benchmark.NewChunker(chunkSize, st.cfg.Evaluation.SummaryMax),
		RecallLimit: st.cfg.Evaluation.RecallLimit,
		RecallMode:  mode,
		Batch:       opts.batch,
		Progress:    out,
	}

	results, runErr := d.Run(ctx, items)
	if len(results) == 0 {
		return runErr
	}
	if runErr != nil {
		// Interrupted: report on what completed.
		fmt.Fprintf(out, "Run stopped early after %d/%d items: %v\n", len(results), len(items), runErr)
	}

	report, err := benchmark.NewReport(provider.Name(), modelName, results)
	if err != nil {
		return err
	}
	printSummary(out, report)

	output := strings.TrimSpace(opts.output)
	if output == "" {
		output = st.cfg.Evaluation.OutputPath
	}
	if err := report.Write(output); err != nil {
		return err
	}
	fmt.Fprintf(out, "Report written to %s\n", output)

	dbPath := strings.TrimSpace(st.cfg.Storage.Path)
	if dbPath != "" {
		lb, err := leaderboard.NewStore(dbPath)
		if err != nil {
			return err
		}
		defer lb.Close()

		entry := &leaderboard.Entry{
			Provider:           report.Provider,
			Model:              report.Model,
			Dataset:            datasetName,
			Accuracy:           report.OverallAccuracy,
			TotalItems:         report.TotalItems,
			LatencyStoreMsAvg:  report.LatencyStoreMsAvg,
			LatencyRecallMsAvg: report.LatencyRecallMsAvg,
			EvalDate:           time.Now().UTC(),
		}
		// The run context is already cancelled after an interrupt; the
		// completed prefix still gets persisted.
		saveCtx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		if err := lb.Save(saveCtx, entry); err != nil {
			return err
		}
		fmt.Fprintf(out, "Leaderboard entry saved: id=%d\n", entry.ID)
	}

	return runErr
}

func printSummary(out io.Writer, r *benchmark.Report) {
	fmt.Fprintf(out, "\n=== Results: %s/%s ===\n", r.Provider, r.Model)
	fmt.Fprintf(out, "Items:            %d\n", r.TotalItems)
	fmt.Fprintf(out, "Overall accuracy: %.1f%%\n", r.OverallAccuracy)
	for _, qtype := range r.TypeOrder() {
		fmt.Fprintf(out, "  %-22s %.1f%%\n", qtype+":", r.AccuracyByType[qtype])
	}
	fmt.Fprintf(out, "Store latency:    %.1f ms/item\n", r.LatencyStoreMsAvg)
	fmt.Fprintf(out, "Recall latency:   %.1f ms/item\n", r.LatencyRecallMsAvg)
	fmt.Fprintf(out, "Memories stored:  %.1f/item\n", r.NumMemoriesAvg)
	fmt.Fprintf(out, "Random baseline:  %.1f%% (%+.1f pts)\n", r.RandomBaseline, r.OverallAccuracy-r.RandomBaseline)
}
