// Package backup snapshots the sqlite database and keeps the newest copies.
package backup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/aTrapDeer/portfolio-backend/internal/metrics"
)

const (
	filePrefix = "portfolio-"
	fileSuffix = ".db"
	stampFmt   = "20060102T150405Z"
)

// ErrUnsupported is returned when the database is not sqlite.
var ErrUnsupported = errors.New("backups are only supported for sqlite")

type Snapshotter struct {
	db   *gorm.DB
	dir  string
	keep int
	now  func() time.Time
	log  *slog.Logger
}

func New(db *gorm.DB, dir string, keep int, log *slog.Logger) *Snapshotter {
	return &Snapshotter{db: db, dir: dir, keep: keep, now: time.Now, log: log}
}

// Run writes a consistent copy of the live database into the backup dir and
// prunes old copies. It returns the path of the new snapshot.
func (s *Snapshotter) Run(ctx context.Context) (string, error) {
	path, err := s.run(ctx)
	if err != nil {
		metrics.Backups.WithLabelValues("failure").Inc()
		return "", err
	}
	metrics.Backups.WithLabelValues("success").Inc()
	return path, nil
}

func (s *Snapshotter) run(ctx context.Context) (string, error) {
	if s.db.Dialector.Name() != "sqlite" {
		return "", ErrUnsupported
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create backup dir: %w", err)
	}
	path := filepath.Join(s.dir, filePrefix+s.now().UTC().Format(stampFmt)+fileSuffix)
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("snapshot %s already exists", path)
	}

	if err := s.db.WithContext(ctx).Exec("VACUUM INTO ?", path).Error; err != nil {
		return "", fmt.Errorf("vacuum into %s: %w", path, err)
	}
	removed, err := Prune(s.dir, s.keep)
	if err != nil {
		return path, fmt.Errorf("prune backups: %w", err)
	}
	s.log.Info("database snapshot written", "path", path, "pruned", len(removed))
	return path, nil
}

// Loop takes a snapshot every interval until ctx is done.
func (s *Snapshotter) Loop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Run(ctx); err != nil {
				s.log.Error("database snapshot failed", "err", err)
			}
		}
	}
}

// Start runs Loop in the background. The returned channel is closed once the
// loop has returned, so callers can wait for an in-flight snapshot before
// closing the database.
func (s *Snapshotter) Start(ctx context.Context, interval time.Duration) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Loop(ctx, interval)
	}()
	return done
}

// Prune deletes all but the newest keep snapshots in dir and returns the
// removed paths. Files not named like snapshots are left alone.
func Prune(dir string, keep int) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var snapshots []string
	for _, e := range entries {
		name := e.Name()
		if e.Type().IsRegular() && strings.HasPrefix(name, filePrefix) && strings.HasSuffix(name, fileSuffix) {
			snapshots = append(snapshots, name)
		}
	}
	if len(snapshots) <= keep {
		return nil, nil
	}
	// timestamps sort lexically
	sort.Sort(sort.Reverse(sort.StringSlice(snapshots)))

	var removed []string
	for _, name := range snapshots[keep:] {
		path := filepath.Join(dir, name)
		if err := os.Remove(path); err != nil {
			return removed, err
		}
		removed = append(removed, path)
	}
	return removed, nil
}
