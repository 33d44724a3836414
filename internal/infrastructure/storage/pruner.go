package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

// prunableExts lists the archived export renditions
var prunableExts = map[string]bool{".xlsx": true, ".pdf": true}

// ExportPruner deletes archived exports older than a retention period.
// Only regular files directly under the archive directory are considered.
type ExportPruner struct {
	dir    string
	maxAge time.Duration
	now    func() time.Time
	logger *zap.Logger
}

// NewExportPruner creates a pruner for the archive directory
func NewExportPruner(dir string, maxAge time.Duration, logger *zap.Logger) *ExportPruner {
	return &ExportPruner{
		dir:    dir,
		maxAge: maxAge,
		now:    time.Now,
		logger: logger,
	}
}

// Prune removes expired archives and returns how many were deleted.
// A missing archive directory is not an error.
func (p *ExportPruner) Prune(ctx context.Context) (int, error) {
	if p.maxAge <= 0 {
		return 0, nil
	}

	entries, err := os.ReadDir(p.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to list archive directory: %w", err)
	}

	cutoff := p.now().Add(-p.maxAge)
	removed := 0
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		if !entry.Type().IsRegular() || !prunableExts[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}

		path := filepath.Join(p.dir, entry.Name())
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			p.logger.Error("Failed to remove expired export", zap.String("path", path), zap.Error(err))
			continue
		}
		removed++
	}

	p.logger.Info("Export archive pruned",
		zap.String("dir", p.dir),
		zap.Int("removed", removed),
		zap.Duration("max_age", p.maxAge))

	return removed, nil
}
