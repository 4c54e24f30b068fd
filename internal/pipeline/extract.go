package pipeline

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"
	"go.uber.org/zap"

	"nanpa/internal"
)

// ExtractArchives wipes outDir and unpacks every .zip found directly in
// zipDir into it. Corrupt archives are skipped with a warning; only failing
// to reset outDir is fatal.
func ExtractArchives(log *zap.Logger, zipDir, outDir string) (internal.ExtractResult, error) {
	var res internal.ExtractResult

	if err := os.RemoveAll(outDir); err != nil {
		return res, fmt.Errorf("clear %s: %w", outDir, err)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return res, fmt.Errorf("create %s: %w", outDir, err)
	}

	entries, err := os.ReadDir(zipDir)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return res, fmt.Errorf("read %s: %w", zipDir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(strings.ToLower(entry.Name()), ".zip") {
			continue
		}
		res.Archives++
		zpath := filepath.Join(zipDir, entry.Name())
		n, err := extractZip(log, zpath, outDir)
		if err != nil {
			res.Corrupt++
			log.Warn("corrupt zip skipped", zap.String("archive", entry.Name()), zap.Error(err))
			continue
		}
		res.Extracted++
		log.Info("extracted archive", zap.String("archive", entry.Name()), zap.Int("files", n), zap.String("dest", outDir))
	}

	if res.Extracted == 0 {
		log.Warn("no zip files extracted (nothing to parse)", zap.String("dir", zipDir))
	}
	return res, nil
}

// extractZip unpacks one archive into a staging directory under outDir and
// moves the files into place only once every entry has been written, so a
// corrupt archive leaves nothing behind.
func extractZip(log *zap.Logger, zpath, outDir string) (int, error) {
	r, err := zip.OpenReader(zpath)
	if err != nil && !errors.Is(err, zip.ErrInsecurePath) {
		return 0, err
	}
	defer r.Close()

	staging, err := os.MkdirTemp(outDir, ".extract-")
	if err != nil {
		return 0, err
	}
	defer os.RemoveAll(staging)

	root := filepath.Clean(staging) + string(os.PathSeparator)
	files := 0
	for _, f := range r.File {
		target := filepath.Join(staging, f.Name)
		if !strings.HasPrefix(target, root) {
			log.Warn("unsafe zip entry skipped", zap.String("archive", filepath.Base(zpath)), zap.String("entry", f.Name))
			continue
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return 0, err
			}
			continue
		}
		if err := writeZipEntry(f, target); err != nil {
			return 0, fmt.Errorf("%s: %w", f.Name, err)
		}
		files++
	}
	if err := promote(staging, outDir); err != nil {
		return 0, err
	}
	return files, nil
}

// promote moves the staged tree into outDir, replacing same-named files
// from earlier archives.
func promote(staging, outDir string) error {
	return filepath.WalkDir(staging, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(staging, p)
		if err != nil || rel == "." {
			return err
		}
		dest := filepath.Join(outDir, rel)
		if d.IsDir() {
			return os.MkdirAll(dest, 0o755)
		}
		return os.Rename(p, dest)
	})
}

func writeZipEntry(f *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	src, err := f.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(target)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return err
	}
	return dst.Close()
}
