package pipeline

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"nanpa/internal"
	"nanpa/internal/classify"
	"nanpa/internal/config"
	"nanpa/internal/storage"
)

// Fetcher refreshes the local archive directory from the remote site.
type Fetcher interface {
	FetchLatest(ctx context.Context, zipDir string) ([]string, error)
}

type UpdateService struct {
	db      *storage.DB
	cfg     config.Config
	fetcher Fetcher
	builder *Builder
	log     *zap.Logger
	now     func() time.Time
}

func NewUpdateService(db *storage.DB, cfg config.Config, classifier *classify.Classifier, fetcher Fetcher, log *zap.Logger) *UpdateService {
	return &UpdateService{
		db:      db,
		cfg:     cfg,
		fetcher: fetcher,
		builder: NewBuilder(NewNormalizer(classifier), log),
		log:     log,
		now:     time.Now,
	}
}

type UpdateOptions struct {
	NoFetch bool
}

type UpdateResult struct {
	Downloaded int
	Extract    internal.ExtractResult
	Stats      internal.BuildStats
	Summary    internal.Summary
	BackupPath string
}

// Run performs one full refresh: fetch, extract, build, then replace the
// document and table. Setup and storage failures abort the run; fetch
// failures only downgrade to using the archives already on disk.
func (s *UpdateService) Run(ctx context.Context, opts UpdateOptions) (UpdateResult, error) {
	start := s.now()
	var res UpdateResult

	if err := os.MkdirAll(s.cfg.ZipsDir, 0o755); err != nil {
		return res, fmt.Errorf("create zips dir: %w", err)
	}

	if !opts.NoFetch && s.fetcher != nil {
		downloaded, err := s.fetcher.FetchLatest(ctx, s.cfg.ZipsDir)
		if err != nil {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			s.log.Warn("fetch failed, using existing zips", zap.Error(err))
		}
		res.Downloaded = len(downloaded)
		if len(downloaded) == 0 {
			s.log.Info("no new files downloaded (using existing zips)")
		}
	}

	extract, err := ExtractArchives(s.log, s.cfg.ZipsDir, s.cfg.FilesDir)
	if err != nil {
		return res, err
	}
	res.Extract = extract

	s.log.Info("building prefix dataset", zap.String("dir", s.cfg.FilesDir))
	data, stats, err := s.builder.Build(s.cfg.FilesDir)
	if err != nil {
		return res, err
	}
	res.Stats = stats

	if res.BackupPath, err = s.Persist(data); err != nil {
		return res, err
	}

	res.Summary = Summarize(data)
	LogSummary(s.log, res.Summary)

	finished := s.now()
	_ = s.db.SetMetadata("nanpa.last_update", finished.UTC().Format(time.RFC3339))
	_ = s.db.InsertRun(traceID(), map[string]float64{"totalMs": float64(finished.Sub(start).Milliseconds())}, map[string]int{
		"downloaded":   res.Downloaded,
		"archives":     extract.Extracted,
		"files":        stats.FilesScanned,
		"rowsRead":     stats.RowsRead,
		"rowsAccepted": stats.RowsAccepted,
		"prefixes":     res.Summary.Total,
	})
	return res, nil
}

// Persist backs up the previous document, then writes the document and
// the table. It returns the backup path, or "" when no prior document existed.
func (s *UpdateService) Persist(data internal.Dataset) (string, error) {
	backup, err := BackupDocument(s.cfg.OutputJSON, s.cfg.BackupDir, s.now())
	if err != nil {
		return "", fmt.Errorf("backup: %w", err)
	}
	if backup != "" {
		s.log.Info("backup saved", zap.String("path", backup))
	}

	if err := WriteDocument(s.cfg.OutputJSON, data); err != nil {
		return backup, err
	}
	s.log.Info("wrote document", zap.String("path", s.cfg.OutputJSON), zap.Int("prefixes", len(data)))

	if err := s.db.ReplacePrefixes(data); err != nil {
		return backup, fmt.Errorf("write prefixes table: %w", err)
	}
	s.log.Info("wrote database", zap.String("path", s.cfg.DBPath))
	return backup, nil
}

// LogSummary emits the per-type histogram as operational log lines.
func LogSummary(log *zap.Logger, s internal.Summary) {
	log.Info("update summary", zap.Int("total_prefixes", s.Total))
	for _, t := range internal.KnownTypes {
		log.Info("  "+string(t), zap.Int("count", s.ByType[t]))
	}
	log.Info("  Unknown", zap.Int("count", s.ByType[internal.TypeUnknown]))
}

func traceID() string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return fmt.Sprintf("run-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b[:])
}
