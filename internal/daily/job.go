// Package daily orchestrates the cache-or-crawl-then-summarize pipeline that
// produces one report per calendar date.
package daily

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/smartcampus/newsdigest/internal/gen"
	"github.com/smartcampus/newsdigest/internal/metrics"
	"github.com/smartcampus/newsdigest/internal/news"
	"github.com/smartcampus/newsdigest/internal/store"
)

// Job outcome statuses. "no_news" is a normal outcome, not a failure.
const (
	StatusSuccess = "success"
	StatusNoNews  = "no_news"
)

// Content cap per item when building the generation prompt, in runes.
const maxItemContent = 2000

const generatedAtLayout = "2006-01-02 15:04:05"

// Crawler fetches all announcements published on a target date.
type Crawler interface {
	CrawlDate(ctx context.Context, target string) []news.Item
}

// NewsStore is the per-date announcement cache.
type NewsStore interface {
	SaveDay(date string, items []news.Item) error
	LoadDay(date string) ([]news.Item, error)
}

// ReportStore persists one daily report per date.
type ReportStore interface {
	Save(report news.DailyReport) error
	Get(date string) (news.DailyReport, error)
	Recent(n int, now time.Time) []news.DailyReport
}

// Archive folds freshly crawled items into the unified all-time store.
type Archive interface {
	Merge(incoming []news.Item) ([]news.Item, error)
}

// Result is what one job run reports back to the caller.
type Result struct {
	Status    string           `json:"status"`
	NewsCount int              `json:"news_count"`
	Report    news.DailyReport `json:"report"`
}

// Service wires crawler, stores and generation backend into the daily job.
// All collaborators are injected; tests substitute fakes.
type Service struct {
	crawler   Crawler
	newsStore NewsStore
	reports   ReportStore
	archive   Archive
	generator gen.Generator
	clock     news.Clock
	logger    *zap.Logger
}

// NewService builds the orchestrator. archive may be nil to skip the
// unified merge.
func NewService(crawler Crawler, newsStore NewsStore, reports ReportStore,
	archive Archive, generator gen.Generator, clock news.Clock, logger *zap.Logger) *Service {
	return &Service{
		crawler:   crawler,
		newsStore: newsStore,
		reports:   reports,
		archive:   archive,
		generator: generator,
		clock:     clock,
		logger:    logger,
	}
}

// Run executes the daily job for target ("" means yesterday, "today" means
// today, otherwise a YYYY-MM-DD or MM-DD date). The per-date cache is
// consulted first; a miss triggers a crawl whose result is persisted even
// when empty, so a re-run does not hit the origin site again. Crawl
// shortfalls only truncate the input; a generation failure fails the job.
func (s *Service) Run(ctx context.Context, target string) (Result, error) {
	now := s.clock.Now()
	date := news.ResolveTarget(target, now)
	s.logger.Info("daily job started", zap.String("date", date))

	items, err := s.newsStore.LoadDay(date)
	switch {
	case err == nil:
		s.logger.Info("loaded cached day", zap.String("date", date), zap.Int("items", len(items)))
	case errors.Is(err, store.ErrNotFound):
		items = s.crawler.CrawlDate(ctx, date)
		if saveErr := s.newsStore.SaveDay(date, items); saveErr != nil {
			s.logger.Error("persisting day file failed", zap.String("date", date), zap.Error(saveErr))
		}
		// The unified archive is secondary output; a merge failure never
		// blocks report generation.
		if s.archive != nil && len(items) > 0 {
			if _, mergeErr := s.archive.Merge(items); mergeErr != nil {
				s.logger.Error("unified merge failed", zap.String("date", date), zap.Error(mergeErr))
			}
		}
	default:
		metrics.DailyJobs.WithLabelValues("error").Inc()
		return Result{}, fmt.Errorf("load day %s: %w", date, err)
	}

	if len(items) == 0 {
		report := news.DailyReport{
			Date:           date,
			StudentSummary: news.EmptyDaySummary,
			TeacherSummary: news.EmptyDaySummary,
			GeneratedAt:    now.Format(generatedAtLayout),
		}
		if err := s.reports.Save(report); err != nil {
			metrics.DailyJobs.WithLabelValues("error").Inc()
			return Result{}, fmt.Errorf("save empty report %s: %w", date, err)
		}
		metrics.DailyJobs.WithLabelValues(StatusNoNews).Inc()
		s.logger.Info("daily job finished with no news", zap.String("date", date))
		return Result{Status: StatusNoNews, Report: report}, nil
	}

	block := buildNewsBlock(date, items)

	student, err := s.generator.Summarize(ctx, block, news.AudienceStudent)
	if err != nil {
		metrics.DailyJobs.WithLabelValues("error").Inc()
		return Result{}, fmt.Errorf("generate student summary %s: %w", date, err)
	}
	teacher, err := s.generator.Summarize(ctx, block, news.AudienceTeacher)
	if err != nil {
		metrics.DailyJobs.WithLabelValues("error").Inc()
		return Result{}, fmt.Errorf("generate teacher summary %s: %w", date, err)
	}

	report := news.DailyReport{
		Date:                  date,
		NewsCount:             len(items),
		StudentEffectiveCount: gen.EffectiveCount(student),
		TeacherEffectiveCount: gen.EffectiveCount(teacher),
		StudentSummary:        student.Text,
		TeacherSummary:        teacher.Text,
		GeneratedAt:           now.Format(generatedAtLayout),
	}
	if err := s.reports.Save(report); err != nil {
		metrics.DailyJobs.WithLabelValues("error").Inc()
		return Result{}, fmt.Errorf("save report %s: %w", date, err)
	}

	metrics.DailyJobs.WithLabelValues(StatusSuccess).Inc()
	s.logger.Info("daily job finished",
		zap.String("date", date), zap.Int("news_count", len(items)))
	return Result{Status: StatusSuccess, NewsCount: len(items), Report: report}, nil
}

// ReportByDate returns the persisted report for date.
func (s *Service) ReportByDate(date string) (news.DailyReport, error) {
	return s.reports.Get(date)
}

// RecentReports returns up to n reports walking back from today.
func (s *Service) RecentReports(n int) []news.DailyReport {
	return s.reports.Recent(n, s.clock.Now())
}

// buildNewsBlock concatenates all items into the single prompt block shared
// by both audiences. Each item's content is capped to bound prompt size.
func buildNewsBlock(date string, items []news.Item) string {
	blocks := make([]string, 0, len(items)+1)
	blocks = append(blocks, "【日期】"+date)
	for i, it := range items {
		blocks = append(blocks, fmt.Sprintf(
			"【新闻%d】\n标题：%s\n来源：%s\n发布时间：%s\n正文：\n%s\n",
			i+1, it.Title, it.Source, it.PublishTime, capRunes(it.ContentClean, maxItemContent)))
	}
	return strings.Join(blocks, "\n")
}

func capRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
