package benchmark

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/stellarlinkco/memory-bench/internal/memory"
)

// Chunker turns one session and its optional summary into storable units.
// Dialogue turns are grouped into chunks near TargetSize without ever
// splitting a turn, so a chunk may exceed the target by at most one turn.
type Chunker struct {
	TargetSize int // character target per dialogue chunk
	SummaryMax int // summary truncation bound
}

func NewChunker(targetSize int, summaryMax int) *Chunker {
	if targetSize <= 0 {
		targetSize = 800
	}
	if summaryMax <= 0 {
		summaryMax = 2000
	}
	return &Chunker{TargetSize: targetSize, SummaryMax: summaryMax}
}

// Chunk emits the units for session index i (0-based): an optional Context
// unit for the summary followed by Conversation units for the dialogue.
// A session with no summary and no non-empty turns yields nothing.
func (c *Chunker) Chunk(i int, session Session, summary string, datetime string) []memory.Unit {
	if c == nil {
		return nil
	}

	prefix := datetimePrefix(datetime)
	label := fmt.Sprintf("Session %d", i+1)
	sessionTag := fmt.Sprintf("session_%d", i+1)

	var out []memory.Unit

	if s := strings.TrimSpace(summary); s != "" {
		out = append(out, memory.Unit{
			Content:    prefix + label + " Summary: " + truncate(s, c.SummaryMax),
			MemoryType: memory.TypeContext,
			Tags:       []string{sessionTag, "summary"},
		})
	}

	flush := func(turns []string) {
		out = append(out, memory.Unit{
			Content:    prefix + label + ":\n" + strings.Join(turns, "\n"),
			MemoryType: memory.TypeConversation,
			Tags:       []string{sessionTag, "dialogue"},
		})
	}

	var chunk []string
	chunkLen := 0
	for _, turn := range session {
		content := strings.TrimSpace(turn.Content)
		if content == "" {
			continue
		}

		// Sizes count characters, not bytes, so multi-byte text chunks
		// the same as ASCII.
		n := utf8.RuneCountInString(content)
		if chunkLen > 0 && chunkLen+n > c.TargetSize {
			flush(chunk)
			chunk = nil
			chunkLen = 0
		}
		chunk = append(chunk, content)
		chunkLen += n
	}
	if len(chunk) > 0 {
		flush(chunk)
	}

	return out
}

// datetimePrefix renders a session timestamp as a short human-readable
// prefix. Unparseable timestamps are embedded verbatim rather than dropped;
// the model still gets the temporal signal.
func datetimePrefix(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return "[Conversation on " + t.Format("January 02, 2006 at 03:04 PM") + "] "
		}
	}
	return "[" + raw + "] "
}

// truncate cuts s to at most max characters, never mid-rune.
func truncate(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i]
		}
		n++
	}
	return s
}
