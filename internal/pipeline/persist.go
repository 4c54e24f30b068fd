package pipeline

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"

	"nanpa/internal"
)

const backupStampLayout = "20060102_1504"

// BackupDocument copies the current document into backupDir as
// data_YYYYMMDD_HHMM.json. It returns "" when there is nothing to back up.
func BackupDocument(docPath, backupDir string, now time.Time) (string, error) {
	if err := os.MkdirAll(backupDir, 0o755); err != nil {
		return "", fmt.Errorf("create backup dir: %w", err)
	}
	src, err := os.Open(docPath)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	defer src.Close()

	stem := trimExt(filepath.Base(docPath))
	dest := filepath.Join(backupDir, fmt.Sprintf("%s_%s%s", stem, now.Format(backupStampLayout), filepath.Ext(docPath)))
	dst, err := os.Create(dest)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return "", err
	}
	if err := dst.Close(); err != nil {
		return "", err
	}
	if info, err := src.Stat(); err == nil {
		_ = os.Chtimes(dest, info.ModTime(), info.ModTime())
	}
	return dest, nil
}

// WriteDocument writes the dataset as one JSON object keyed by prefix.
// Keys come out sorted and HTML characters stay literal ("AT&T").
func WriteDocument(path string, data internal.Dataset) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	enc := json.NewEncoder(tmp)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if data == nil {
		data = internal.Dataset{}
	}
	if err := enc.Encode(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// ReadDocument loads a document written by WriteDocument.
func ReadDocument(path string) (internal.Dataset, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var data internal.Dataset
	if err := json.Unmarshal(blob, &data); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return data, nil
}

// Summarize counts records per service type; blank types land in Unknown.
func Summarize(data internal.Dataset) internal.Summary {
	s := internal.Summary{Total: len(data), ByType: map[internal.ServiceType]int{}}
	for _, t := range internal.KnownTypes {
		s.ByType[t] = 0
	}
	s.ByType[internal.TypeUnknown] = 0
	for _, rec := range data {
		if _, known := s.ByType[rec.Type]; known {
			s.ByType[rec.Type]++
			continue
		}
		s.ByType[internal.TypeUnknown]++
	}
	return s
}

func trimExt(name string) string {
	return name[:len(name)-len(filepath.Ext(name))]
}
