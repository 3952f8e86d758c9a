// Package qa answers user questions from recent daily briefs.
package qa

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/smartcampus/newsdigest/internal/gen"
	"github.com/smartcampus/newsdigest/internal/news"
	"github.com/smartcampus/newsdigest/internal/store"
)

// Per-day brief cap in runes when building the history context.
const maxBriefLength = 1500

// DefaultDays is the history window consulted when the caller does not pick
// one.
const DefaultDays = 7

const emptyHistory = "【历史简报】：\n暂无最近的新闻简报。"

// ReportStore is the read side of the daily report store.
type ReportStore interface {
	Get(date string) (news.DailyReport, error)
}

// Answer is one answered question with its context metadata.
type Answer struct {
	Question   string `json:"question"`
	Answer     string `json:"answer"`
	Days       int    `json:"days_referenced"`
	Audience   string `json:"user_identity"`
	AnsweredAt string `json:"answered_at"`
}

// Service loads recent briefs and delegates the actual answering to the
// generation backend.
type Service struct {
	reports   ReportStore
	generator gen.Generator
	clock     news.Clock
	logger    *zap.Logger
}

// NewService builds the QA service.
func NewService(reports ReportStore, generator gen.Generator, clock news.Clock, logger *zap.Logger) *Service {
	return &Service{reports: reports, generator: generator, clock: clock, logger: logger}
}

// Ask answers question from up to days recent briefs for the audience.
// Zero-news days are skipped; an empty history still goes to the backend
// with a fixed placeholder so the reply says so instead of hallucinating.
func (s *Service) Ask(ctx context.Context, question string, days int, audience news.Audience) (Answer, error) {
	if days <= 0 {
		days = DefaultDays
	}
	now := s.clock.Now()
	history := s.historyBriefs(days, audience, now)

	s.logger.Info("answering question",
		zap.Int("days", days), zap.String("audience", string(audience)))
	reply, err := s.generator.Answer(ctx, history, question, audience)
	if err != nil {
		return Answer{}, fmt.Errorf("answer question: %w", err)
	}
	return Answer{
		Question:   question,
		Answer:     reply,
		Days:       days,
		Audience:   string(audience),
		AnsweredAt: now.Format("2006-01-02 15:04:05"),
	}, nil
}

// historyBriefs formats the recent briefs oldest first, one [date]：summary
// line per day, each summary capped so a verbose week stays within the
// prompt budget. The window starts at yesterday.
func (s *Service) historyBriefs(days int, audience news.Audience, now time.Time) string {
	var reports []news.DailyReport
	for i := 1; i <= days; i++ {
		date := now.AddDate(0, 0, -i).Format(news.DateLayout)
		report, err := s.reports.Get(date)
		if err != nil {
			if !errors.Is(err, store.ErrNotFound) {
				s.logger.Warn("report unreadable", zap.String("date", date), zap.Error(err))
			}
			continue
		}
		if report.NewsCount == 0 {
			continue
		}
		reports = append(reports, report)
	}
	if len(reports) == 0 {
		return emptyHistory
	}
	sort.Slice(reports, func(i, j int) bool { return reports[i].Date < reports[j].Date })

	lines := make([]string, 0, len(reports))
	for _, report := range reports {
		summary := report.StudentSummary
		if audience == news.AudienceTeacher {
			summary = report.TeacherSummary
		}
		summary = strings.TrimSpace(summary)
		if runes := []rune(summary); len(runes) > maxBriefLength {
			summary = string(runes[:maxBriefLength]) + "..."
		}
		lines = append(lines, "["+report.Date+"]："+summary)
	}
	return "【历史简报】：\n" + strings.Join(lines, "\n")
}
