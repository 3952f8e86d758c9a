package daily

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/smartcampus/newsdigest/internal/gen"
	"github.com/smartcampus/newsdigest/internal/news"
	"github.com/smartcampus/newsdigest/internal/store"
)

// Weekly synthesizes a digest over the seven-day window ending at end
// (inclusive; empty or unparseable end means the window ends yesterday).
// Any date without a persisted report is backfilled by running the daily
// job for it first, so aggregation cost is up to seven full crawl and
// generate cycles. Zero-news days are excluded from the concatenation.
// The result is not persisted.
func (s *Service) Weekly(ctx context.Context, end string) (news.WeeklyReport, error) {
	now := s.clock.Now()
	window := news.WeekWindow(end, now)
	startDate, endDate := window[0], window[len(window)-1]
	s.logger.Info("weekly aggregation started",
		zap.String("start", startDate), zap.String("end", endDate))

	var days []news.DailyReport
	total := 0
	for _, date := range window {
		report, err := s.reports.Get(date)
		if errors.Is(err, store.ErrNotFound) {
			s.logger.Info("backfilling missing report", zap.String("date", date))
			result, runErr := s.Run(ctx, date)
			if runErr != nil {
				return news.WeeklyReport{}, fmt.Errorf("backfill %s: %w", date, runErr)
			}
			report = result.Report
		} else if err != nil {
			return news.WeeklyReport{}, fmt.Errorf("load report %s: %w", date, err)
		}
		if report.NewsCount > 0 {
			days = append(days, report)
			total += report.NewsCount
		}
	}

	if len(days) == 0 {
		s.logger.Info("weekly window has no news",
			zap.String("start", startDate), zap.String("end", endDate))
		return news.WeeklyReport{
			StartDate:      startDate,
			EndDate:        endDate,
			StudentSummary: news.EmptyWeekSummary,
			TeacherSummary: news.EmptyWeekSummary,
			GeneratedAt:    now.Format(generatedAtLayout),
		}, nil
	}

	student, err := s.generator.Summarize(ctx,
		buildWeekBlock(days, func(r news.DailyReport) string { return r.StudentSummary }),
		news.AudienceStudent)
	if err != nil {
		return news.WeeklyReport{}, fmt.Errorf("generate student weekly: %w", err)
	}
	teacher, err := s.generator.Summarize(ctx,
		buildWeekBlock(days, func(r news.DailyReport) string { return r.TeacherSummary }),
		news.AudienceTeacher)
	if err != nil {
		return news.WeeklyReport{}, fmt.Errorf("generate teacher weekly: %w", err)
	}

	return news.WeeklyReport{
		StartDate:             startDate,
		EndDate:               endDate,
		NewsCount:             total,
		StudentEffectiveCount: gen.EffectiveCount(student),
		TeacherEffectiveCount: gen.EffectiveCount(teacher),
		StudentSummary:        student.Text,
		TeacherSummary:        teacher.Text,
		GeneratedAt:           now.Format(generatedAtLayout),
	}, nil
}

// buildWeekBlock concatenates one audience's daily summaries under 【date】
// headings with an explicit weekly digest framing.
func buildWeekBlock(days []news.DailyReport, pick func(news.DailyReport) string) string {
	blocks := make([]string, 0, len(days)+1)
	blocks = append(blocks, "以下是本周各日的新闻简报，请汇总生成一份本周摘要。")
	for _, r := range days {
		blocks = append(blocks, "【"+r.Date+"】\n"+pick(r))
	}
	return strings.Join(blocks, "\n\n")
}
