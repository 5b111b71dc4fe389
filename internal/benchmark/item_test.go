package benchmark

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeDataset(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dataset.jsonl")
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		t.Fatalf("write dataset: %v", err)
	}
	return path
}

const validLine = `{"question_id":"q1","question":"What did Melanie paint?","question_type":"single-hop","choices":["a lighthouse","a sunrise"],"correct_choice_index":1,"haystack_sessions":[[{"speaker":"Melanie","content":"I painted a sunrise."}]],"haystack_session_summaries":["Melanie paints."],"haystack_session_datetimes":["2023-05-25T13:14:00"]}`

func TestLoadItems(t *testing.T) {
	path := writeDataset(t,
		validLine,
		strings.ReplaceAll(validLine, `"q1"`, `"q2"`),
		"",
		strings.ReplaceAll(validLine, `"q1"`, `"q3"`),
	)

	items, err := LoadItems(path, 0)
	if err != nil {
		t.Fatalf("LoadItems: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("items: got %d want 3", len(items))
	}

	it := items[0]
	if it.QuestionID != "q1" || it.CorrectChoiceIndex != 1 {
		t.Fatalf("item: %+v", it)
	}
	if len(it.HaystackSessions) != 1 || it.HaystackSessions[0][0].Content != "I painted a sunrise." {
		t.Fatalf("sessions: %+v", it.HaystackSessions)
	}
	if it.Summary(0) != "Melanie paints." || it.Summary(5) != "" {
		t.Fatalf("summary accessor: %q %q", it.Summary(0), it.Summary(5))
	}
	if it.Datetime(0) != "2023-05-25T13:14:00" || it.Datetime(9) != "" {
		t.Fatalf("datetime accessor: %q", it.Datetime(0))
	}
}

func TestLoadItems_Limit(t *testing.T) {
	path := writeDataset(t,
		validLine,
		strings.ReplaceAll(validLine, `"q1"`, `"q2"`),
		strings.ReplaceAll(validLine, `"q1"`, `"q3"`),
	)

	items, err := LoadItems(path, 2)
	if err != nil {
		t.Fatalf("LoadItems: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("items: got %d want 2", len(items))
	}
}

func TestLoadItems_FailsEagerlyOnBadRecords(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{
			name: "missing question_id",
			line: strings.ReplaceAll(validLine, `"question_id":"q1"`, `"question_id":""`),
		},
		{
			name: "index out of range",
			line: strings.ReplaceAll(validLine, `"correct_choice_index":1`, `"correct_choice_index":7`),
		},
		{
			name: "too few choices",
			line: strings.ReplaceAll(validLine, `["a lighthouse","a sunrise"]`, `["a sunrise"]`),
		},
		{
			name: "not json",
			line: `{"question_id": `,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := writeDataset(t, validLine, tc.line)
			if _, err := LoadItems(path, 0); err == nil {
				t.Fatal("LoadItems: expected error")
			} else if !strings.Contains(err.Error(), "line 2") {
				t.Fatalf("LoadItems: error should name the line: %v", err)
			}
		})
	}
}

func TestLoadItems_MissingFile(t *testing.T) {
	if _, err := LoadItems(filepath.Join(t.TempDir(), "nope.jsonl"), 0); err == nil {
		t.Fatal("LoadItems: expected error")
	}
	if _, err := LoadItems("  ", 0); err == nil {
		t.Fatal("LoadItems: expected error for empty path")
	}
}
