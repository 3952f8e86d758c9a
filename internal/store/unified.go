package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/smartcampus/newsdigest/internal/news"
)

var unifiedIDPattern = regexp.MustCompile(`^unique_id_(\d+)$`)

// UnifiedStore is the append-only archive of every announcement ever
// crawled, one JSON array file deduplicated by URL.
type UnifiedStore struct {
	path   string
	logger *zap.Logger
}

// NewUnifiedStore returns the archive rooted at path.
func NewUnifiedStore(path string, logger *zap.Logger) *UnifiedStore {
	return &UnifiedStore{path: path, logger: logger}
}

// Merge folds incoming items into the archive and returns the full set.
func (s *UnifiedStore) Merge(incoming []news.Item) ([]news.Item, error) {
	return MergeIntoUnified(s.path, incoming, s.logger)
}

// MergeIntoUnified merges incoming announcements into the unified archive at
// path and returns the full record set after the merge.
//
// Semantics:
//   - an absent or corrupt archive is tolerated: the batch is treated as all
//     new data rather than failing;
//   - records missing required fields are filtered on both sides;
//   - incoming records whose URL already exists are dropped, leaving the
//     existing record and its ID untouched;
//   - new records receive unique_id_N IDs continuing from the highest numeric
//     suffix among existing records;
//   - the result is written to a temp file and atomically renamed over the
//     target, so readers never observe a half-written archive;
//   - if the write fails, the merged set is saved to a timestamped sibling
//     backup instead of being lost.
func MergeIntoUnified(path string, incoming []news.Item, logger *zap.Logger) ([]news.Item, error) {
	existing := loadUnified(path, logger)

	seen := make(map[string]struct{}, len(existing))
	maxID := 0
	for _, it := range existing {
		seen[it.URL] = struct{}{}
		if m := unifiedIDPattern.FindStringSubmatch(it.ID); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil && n > maxID {
				maxID = n
			}
		}
	}

	nextID := maxID + 1
	merged := existing
	added := 0
	for _, it := range incoming {
		if !it.Valid() {
			continue
		}
		if _, dup := seen[it.URL]; dup {
			continue
		}
		seen[it.URL] = struct{}{}
		it.ID = fmt.Sprintf("unique_id_%d", nextID)
		nextID++
		added++
		merged = append(merged, it)
	}

	// Existing records that predate ID assignment get one; assigned IDs are
	// never renumbered.
	for i := range merged {
		if merged[i].ID == "" {
			merged[i].ID = fmt.Sprintf("unique_id_%d", nextID)
			nextID++
		}
	}

	if err := writeUnified(path, merged); err != nil {
		backup := backupPath(path)
		logger.Error("unified write failed, saving backup",
			zap.String("path", path), zap.String("backup", backup), zap.Error(err))
		if backupErr := writeUnified(backup, merged); backupErr != nil {
			return merged, fmt.Errorf("write unified: %w (backup also failed: %v)", err, backupErr)
		}
		return merged, nil
	}

	logger.Info("unified archive merged",
		zap.String("path", path), zap.Int("existing", len(existing)), zap.Int("added", added))
	return merged, nil
}

// loadUnified reads and filters the existing archive. Corruption falls back
// to an empty set so new data is never blocked by an unreadable file.
func loadUnified(path string, logger *zap.Logger) []news.Item {
	raw, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("unified archive unreadable, starting fresh", zap.String("path", path), zap.Error(err))
		}
		return nil
	}
	items, err := decodeItems(raw)
	if err != nil {
		logger.Warn("unified archive corrupt, starting fresh", zap.String("path", path), zap.Error(err))
		return nil
	}
	valid := items[:0]
	for _, it := range items {
		if it.Valid() {
			valid = append(valid, it)
		}
	}
	return valid
}

// decodeItems reads either a JSON array or line-delimited JSON, detected by
// the first non-whitespace byte.
func decodeItems(raw []byte) ([]news.Item, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, nil
	}
	if trimmed[0] == '[' {
		var items []news.Item
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("parse array: %w", err)
		}
		return items, nil
	}
	var items []news.Item
	for _, line := range bytes.Split(trimmed, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		var it news.Item
		if err := json.Unmarshal(line, &it); err != nil {
			return nil, fmt.Errorf("parse line: %w", err)
		}
		items = append(items, it)
	}
	return items, nil
}

func writeUnified(path string, items []news.Item) error {
	payload, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal unified: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o600); err != nil {
		return fmt.Errorf("write temp %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

func backupPath(path string) string {
	return path + ".backup_" + time.Now().UTC().Format("20060102T150405")
}
