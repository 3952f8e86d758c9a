package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/smartcampus/newsdigest/internal/news"
)

// ReportStore keeps exactly one daily report JSON file per date. Saving an
// existing date overwrites it in place.
type ReportStore struct {
	dir    string
	logger *zap.Logger
}

// NewReportStore ensures dir exists and returns the store.
func NewReportStore(dir string, logger *zap.Logger) (*ReportStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create report dir %s: %w", dir, err)
	}
	return &ReportStore{dir: dir, logger: logger}, nil
}

func (s *ReportStore) reportFile(date string) string {
	return filepath.Join(s.dir, "report_"+date+".json")
}

// Save writes the report for its date, replacing any previous one.
func (s *ReportStore) Save(report news.DailyReport) error {
	payload, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report %s: %w", report.Date, err)
	}
	target := s.reportFile(report.Date)
	if err := os.WriteFile(target, payload, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", target, err)
	}
	s.logger.Info("saved daily report",
		zap.String("date", report.Date), zap.Int("news_count", report.NewsCount))
	return nil
}

// Get returns the report for date, or ErrNotFound.
func (s *ReportStore) Get(date string) (news.DailyReport, error) {
	raw, err := os.ReadFile(s.reportFile(date))
	if err != nil {
		if os.IsNotExist(err) {
			return news.DailyReport{}, ErrNotFound
		}
		return news.DailyReport{}, fmt.Errorf("read report %s: %w", date, err)
	}
	var report news.DailyReport
	if err := json.Unmarshal(raw, &report); err != nil {
		return news.DailyReport{}, fmt.Errorf("decode report %s: %w", date, err)
	}
	return report, nil
}

// Recent returns up to n reports walking backwards day by day from today.
// Dates with no report are silently omitted, not padded.
func (s *ReportStore) Recent(n int, now time.Time) []news.DailyReport {
	reports := make([]news.DailyReport, 0, n)
	for i := 0; i < n; i++ {
		date := now.AddDate(0, 0, -i).Format(news.DateLayout)
		report, err := s.Get(date)
		if err != nil {
			continue
		}
		reports = append(reports, report)
	}
	return reports
}
