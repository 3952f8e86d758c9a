// Package news defines core types shared across the crawl and report subsystems.
package news

import "time"

// SourceLabel is the fixed origin label stamped on every crawled record.
const SourceLabel = "教务处"

// NotFound is the legacy placeholder for a field that could not be extracted.
// Records carrying it anywhere in a required field are never persisted.
const NotFound = "未找到"

// Audience selects one of the two report variants.
type Audience string

// Audience values accepted throughout the service.
const (
	AudienceStudent Audience = "student"
	AudienceTeacher Audience = "teacher"
)

// Valid reports whether a is one of the known audiences.
func (a Audience) Valid() bool {
	return a == AudienceStudent || a == AudienceTeacher
}

// Item is one crawled announcement.
type Item struct {
	ID           string   `json:"id"`
	URL          string   `json:"url"`
	Source       string   `json:"source"`
	PublishTime  string   `json:"publish_time"`
	CrawlTime    string   `json:"crawl_time"`
	Title        string   `json:"title"`
	ContentRaw   string   `json:"content_raw"`
	ContentClean string   `json:"content_clean"`
	Attachments  []string `json:"attachments"`
}

// Valid reports whether the item carries all required fields with
// non-placeholder values. Invalid items are never persisted.
func (it Item) Valid() bool {
	required := []string{it.Title, it.PublishTime, it.ContentClean}
	for _, v := range required {
		if v == "" || v == NotFound {
			return false
		}
	}
	return true
}

// DailyReport is the per-date generated digest. Exactly one exists per date
// in the report store; regeneration overwrites in place.
type DailyReport struct {
	Date                  string `json:"date"`
	NewsCount             int    `json:"news_count"`
	StudentEffectiveCount int    `json:"student_effective_count"`
	TeacherEffectiveCount int    `json:"teacher_effective_count"`
	StudentSummary        string `json:"student_summary"`
	TeacherSummary        string `json:"teacher_summary"`
	GeneratedAt           string `json:"generated_at"`
}

// WeeklyReport is computed on demand from up to seven daily reports and is
// not persisted.
type WeeklyReport struct {
	StartDate             string `json:"start_date"`
	EndDate               string `json:"end_date"`
	NewsCount             int    `json:"news_count"`
	StudentEffectiveCount int    `json:"student_effective_count"`
	TeacherEffectiveCount int    `json:"teacher_effective_count"`
	StudentSummary        string `json:"student_summary"`
	TeacherSummary        string `json:"teacher_summary"`
	GeneratedAt           string `json:"generated_at"`
}

// Sentinel texts emitted when a date or window has no news.
const (
	EmptyDaySummary  = "今日无重要新闻通知。"
	EmptyWeekSummary = "本周无重要新闻通知。"
)

// Clock returns the current time; injected so date resolution is testable.
type Clock interface {
	Now() time.Time
}
