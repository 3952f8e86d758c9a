// Package gen talks to the OpenAI-compatible generation backend that turns
// crawled announcements into audience-specific summaries and answers.
package gen

import (
	"context"
	"regexp"
	"strings"

	"github.com/smartcampus/newsdigest/internal/news"
)

// Summary is one generated digest. When the backend honors the structured
// output contract, Items holds one entry per summarized point and the
// effective count is exact; otherwise Items is empty and Text carries
// whatever free-form markdown came back.
type Summary struct {
	Text  string   `json:"summary"`
	Items []string `json:"items"`
}

// Generator is the generation backend seen by the orchestrator and the QA
// service. It is injected at construction time so tests substitute a
// deterministic fake.
type Generator interface {
	Summarize(ctx context.Context, text string, audience news.Audience) (Summary, error)
	Answer(ctx context.Context, history, question string, audience news.Audience) (string, error)
}

var (
	headingPattern = regexp.MustCompile(`(?m)^\s*#{1,6}\s+\S`)
	bulletPattern  = regexp.MustCompile(`【[^】]+】：`)
)

// EffectiveCount reports how many distinct items a summary surfaced.
// A structured item list gives the exact answer; free-form text falls back
// to counting markdown heading markers, then the 【要点】： convention the
// backend uses in ordered lists.
func EffectiveCount(s Summary) int {
	if len(s.Items) > 0 {
		return len(s.Items)
	}
	text := strings.TrimSpace(s.Text)
	if text == "" {
		return 0
	}
	if n := len(headingPattern.FindAllString(text, -1)); n > 0 {
		return n
	}
	if n := len(bulletPattern.FindAllString(text, -1)); n > 0 {
		return n
	}
	return 1
}
