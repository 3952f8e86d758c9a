// Package store persists crawled announcements and generated reports as JSON
// files under configured directories.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/smartcampus/newsdigest/internal/news"
)

// ErrNotFound signals an absent record; callers treat it as "no data", not a
// failure.
var ErrNotFound = errors.New("not found")

// NewsStore keeps one JSON file of announcements per calendar date.
type NewsStore struct {
	dir    string
	logger *zap.Logger
}

// NewNewsStore ensures dir exists and returns the store.
func NewNewsStore(dir string, logger *zap.Logger) (*NewsStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create news dir %s: %w", dir, err)
	}
	return &NewsStore{dir: dir, logger: logger}, nil
}

// dayFile derives the per-date filename: news_<MMDD>.json.
func (s *NewsStore) dayFile(date string) string {
	compact := strings.ReplaceAll(news.MonthDay(date), "-", "")
	return filepath.Join(s.dir, "news_"+compact+".json")
}

// SaveDay replaces the whole per-date file with items. Invalid records are
// dropped before writing; an empty batch still writes an empty array so a
// later load distinguishes "crawled, nothing found" from "never crawled".
func (s *NewsStore) SaveDay(date string, items []news.Item) error {
	valid := make([]news.Item, 0, len(items))
	for _, it := range items {
		if it.Valid() {
			valid = append(valid, it)
		}
	}
	payload, err := json.MarshalIndent(valid, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal day %s: %w", date, err)
	}
	target := s.dayFile(date)
	if err := os.WriteFile(target, payload, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", target, err)
	}
	s.logger.Info("saved day file", zap.String("date", date), zap.Int("items", len(valid)))
	return nil
}

// LoadDay reads the per-date file. ErrNotFound means the date was never
// crawled; an unreadable file is reported as an error, not silently empty.
func (s *NewsStore) LoadDay(date string) ([]news.Item, error) {
	target := s.dayFile(date)
	raw, err := os.ReadFile(target)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read %s: %w", target, err)
	}
	items, err := decodeItems(raw)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", target, err)
	}
	return items, nil
}
