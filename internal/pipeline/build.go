package pipeline

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"nanpa/internal"
)

// Builder folds every tabular file under a directory into one dataset.
type Builder struct {
	normalizer *Normalizer
	log        *zap.Logger
}

func NewBuilder(normalizer *Normalizer, log *zap.Logger) *Builder {
	return &Builder{normalizer: normalizer, log: log}
}

// Build walks dir in lexical order. Each accepted row replaces whatever
// record its prefix held before, so the last file and row processed win.
// Unreadable files are skipped; rows read before a mid-file failure stay.
func (b *Builder) Build(dir string) (internal.Dataset, internal.BuildStats, error) {
	data := internal.Dataset{}
	var stats internal.BuildStats

	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		b.log.Warn("working directory missing, nothing to parse", zap.String("dir", dir))
		return data, stats, nil
	}

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			b.log.Warn("skipping unreadable path", zap.String("path", path), zap.Error(err))
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() || !IsTabular(path) {
			return nil
		}
		stats.FilesScanned++
		if err := b.ingestFile(path, data, &stats); err != nil {
			stats.FilesSkipped++
			b.log.Warn("file skipped", zap.String("file", path), zap.Error(err))
		}
		return nil
	})
	if err != nil {
		return nil, stats, err
	}

	b.log.Info("parsed files",
		zap.Int("files", stats.FilesScanned),
		zap.Int("files_skipped", stats.FilesSkipped),
		zap.Int("rows_read", stats.RowsRead),
		zap.Int("rows_accepted", stats.RowsAccepted),
	)
	return data, stats, nil
}

func (b *Builder) ingestFile(path string, data internal.Dataset, stats *internal.BuildStats) error {
	rows, err := OpenRows(path)
	if err != nil {
		return err
	}
	defer rows.Close()

	source := filepath.Base(path)
	for {
		row, err := rows.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		stats.RowsRead++
		rec, ok := b.normalizer.Normalize(row, source)
		if !ok {
			continue
		}
		data[rec.Prefix] = rec
		stats.RowsAccepted++
	}
}
