package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/smartcampus/newsdigest/internal/news"
)

func item(id, url, title string) news.Item {
	return news.Item{
		ID:           id,
		URL:          url,
		Source:       news.SourceLabel,
		PublishTime:  "2025-11-27",
		CrawlTime:    "2025-11-28",
		Title:        title,
		ContentClean: "正文内容。",
		Attachments:  []string{},
	}
}

func TestNewsStore_SaveAndLoadDay(t *testing.T) {
	t.Parallel()

	s, err := NewNewsStore(t.TempDir(), zap.NewNop())
	require.NoError(t, err)

	items := []news.Item{item("news_1", "https://example.com/1", "通知一")}
	require.NoError(t, s.SaveDay("2025-11-27", items))

	loaded, err := s.LoadDay("2025-11-27")
	require.NoError(t, err)
	require.Equal(t, items, loaded)

	// MM-DD and full dates address the same file.
	loaded, err = s.LoadDay("11-27")
	require.NoError(t, err)
	require.Len(t, loaded, 1)
}

func TestNewsStore_SaveDayOverwritesWholesale(t *testing.T) {
	t.Parallel()

	s, err := NewNewsStore(t.TempDir(), zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, s.SaveDay("2025-11-27", []news.Item{
		item("news_1", "https://example.com/1", "旧通知"),
		item("news_2", "https://example.com/2", "旧通知二"),
	}))
	require.NoError(t, s.SaveDay("2025-11-27", []news.Item{
		item("news_1", "https://example.com/3", "新通知"),
	}))

	loaded, err := s.LoadDay("2025-11-27")
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	require.Equal(t, "新通知", loaded[0].Title)
}

func TestNewsStore_SaveDayDropsInvalidRecords(t *testing.T) {
	t.Parallel()

	s, err := NewNewsStore(t.TempDir(), zap.NewNop())
	require.NoError(t, err)

	bad := item("news_2", "https://example.com/2", "坏记录")
	bad.ContentClean = news.NotFound
	require.NoError(t, s.SaveDay("2025-11-27", []news.Item{
		item("news_1", "https://example.com/1", "好记录"),
		bad,
	}))

	loaded, err := s.LoadDay("2025-11-27")
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	require.Equal(t, "好记录", loaded[0].Title)
}

func TestNewsStore_LoadDayMissingIsNotFound(t *testing.T) {
	t.Parallel()

	s, err := NewNewsStore(t.TempDir(), zap.NewNop())
	require.NoError(t, err)

	_, err = s.LoadDay("2025-01-01")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestNewsStore_EmptyDayIsCrawledNotMissing(t *testing.T) {
	t.Parallel()

	s, err := NewNewsStore(t.TempDir(), zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, s.SaveDay("2025-11-27", nil))
	loaded, err := s.LoadDay("2025-11-27")
	require.NoError(t, err)
	require.Empty(t, loaded)
}

func TestMergeIntoUnified_NewArchive(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "news_data.json")
	merged, err := MergeIntoUnified(path, []news.Item{
		item("", "https://example.com/1", "第一条"),
		item("", "https://example.com/2", "第二条"),
	}, zap.NewNop())
	require.NoError(t, err)
	require.Len(t, merged, 2)
	require.Equal(t, "unique_id_1", merged[0].ID)
	require.Equal(t, "unique_id_2", merged[1].ID)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var onDisk []news.Item
	require.NoError(t, json.Unmarshal(raw, &onDisk))
	require.Equal(t, merged, onDisk)
}

func TestMergeIntoUnified_DeduplicatesByURL(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "news_data.json")
	first, err := MergeIntoUnified(path, []news.Item{
		item("", "https://example.com/1", "第一条"),
	}, zap.NewNop())
	require.NoError(t, err)
	require.Len(t, first, 1)
	existingID := first[0].ID

	dup := item("", "https://example.com/1", "重复标题")
	second, err := MergeIntoUnified(path, []news.Item{dup}, zap.NewNop())
	require.NoError(t, err)

	// Count unchanged, existing record and its ID untouched.
	require.Len(t, second, 1)
	require.Equal(t, existingID, second[0].ID)
	require.Equal(t, "第一条", second[0].Title)
}

func TestMergeIntoUnified_IDsContinueFromMax(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "news_data.json")
	existing := []news.Item{
		item("unique_id_7", "https://example.com/7", "旧记录"),
		item("unique_id_3", "https://example.com/3", "更旧记录"),
	}
	payload, err := json.Marshal(existing)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, payload, 0o600))

	merged, err := MergeIntoUnified(path, []news.Item{
		item("", "https://example.com/8", "新记录"),
	}, zap.NewNop())
	require.NoError(t, err)
	require.Len(t, merged, 3)
	require.Equal(t, "unique_id_8", merged[2].ID)
}

func TestMergeIntoUnified_CorruptArchiveTreatedAsNew(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "news_data.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	merged, err := MergeIntoUnified(path, []news.Item{
		item("", "https://example.com/1", "新数据"),
	}, zap.NewNop())
	require.NoError(t, err)
	require.Len(t, merged, 1)
	require.Equal(t, "unique_id_1", merged[0].ID)
}

func TestMergeIntoUnified_ReadsLineDelimitedArchive(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "news_data.json")
	a, err := json.Marshal(item("unique_id_1", "https://example.com/1", "甲"))
	require.NoError(t, err)
	b, err := json.Marshal(item("unique_id_2", "https://example.com/2", "乙"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, append(append(a, '\n'), b...), 0o600))

	merged, err := MergeIntoUnified(path, []news.Item{
		item("", "https://example.com/3", "丙"),
	}, zap.NewNop())
	require.NoError(t, err)
	require.Len(t, merged, 3)
	require.Equal(t, "unique_id_3", merged[2].ID)
}

func TestMergeIntoUnified_FiltersInvalidIncoming(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "news_data.json")
	bad := item("", "https://example.com/1", "")
	merged, err := MergeIntoUnified(path, []news.Item{bad}, zap.NewNop())
	require.NoError(t, err)
	require.Empty(t, merged)
}

func TestMergeIntoUnified_NoTempFileLeftBehind(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "news_data.json")
	_, err := MergeIntoUnified(path, []news.Item{
		item("", "https://example.com/1", "通知"),
	}, zap.NewNop())
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "news_data.json", entries[0].Name())
}

func TestReportStore_SaveOverwritesInPlace(t *testing.T) {
	t.Parallel()

	s, err := NewReportStore(t.TempDir(), zap.NewNop())
	require.NoError(t, err)

	report := news.DailyReport{Date: "2025-11-27", NewsCount: 2, StudentSummary: "v1"}
	require.NoError(t, s.Save(report))
	report.StudentSummary = "v2"
	require.NoError(t, s.Save(report))

	got, err := s.Get("2025-11-27")
	require.NoError(t, err)
	require.Equal(t, "v2", got.StudentSummary)
}

func TestReportStore_GetMissing(t *testing.T) {
	t.Parallel()

	s, err := NewReportStore(t.TempDir(), zap.NewNop())
	require.NoError(t, err)

	_, err = s.Get("2025-01-01")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestReportStore_RecentOmitsGaps(t *testing.T) {
	t.Parallel()

	s, err := NewReportStore(t.TempDir(), zap.NewNop())
	require.NoError(t, err)

	now := time.Date(2025, 11, 28, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.Save(news.DailyReport{Date: "2025-11-27", NewsCount: 1}))
	require.NoError(t, s.Save(news.DailyReport{Date: "2025-11-25", NewsCount: 3}))

	recent := s.Recent(7, now)
	require.Len(t, recent, 2)
	require.Equal(t, "2025-11-27", recent[0].Date)
	require.Equal(t, "2025-11-25", recent[1].Date)
}
