package pipeline

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"nanpa/internal"
)

func TestBackupDocument(t *testing.T) {
	dir := t.TempDir()
	doc := filepath.Join(dir, "data.json")
	backups := filepath.Join(dir, "backups")
	now := time.Date(2026, 10, 19, 8, 5, 0, 0, time.UTC)

	path, err := BackupDocument(doc, backups, now)
	require.NoError(t, err)
	require.Empty(t, path)
	require.DirExists(t, backups)

	writeFile(t, doc, `{"old":true}`)
	path, err = BackupDocument(doc, backups, now)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(backups, "data_20261019_0805.json"), path)

	blob, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, `{"old":true}`, string(blob))
}

func TestWriteDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "data.json")
	data := internal.Dataset{
		"303555": {Prefix: "303555", Carrier: "Acme"},
		"212555": {Prefix: "212555", Company: "AT&T Mobility LLC", Carrier: "AT&T", Type: internal.TypeMobile},
	}
	require.NoError(t, WriteDocument(path, data))

	blob, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(blob)
	require.Contains(t, text, `"carrier": "AT&T"`)
	require.Less(t, strings.Index(text, `"212555"`), strings.Index(text, `"303555"`))
	for _, field := range []string{"prefix", "ocn", "company", "company_original", "carrier", "type", "rate_center", "city", "state", "last_source"} {
		require.Contains(t, text, `"`+field+`":`)
	}

	back, err := ReadDocument(path)
	require.NoError(t, err)
	require.Equal(t, data, back)
}

func TestWriteDocumentEmptyDataset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	require.NoError(t, WriteDocument(path, nil))
	back, err := ReadDocument(path)
	require.NoError(t, err)
	require.Empty(t, back)
}

func TestSummarize(t *testing.T) {
	s := Summarize(internal.Dataset{
		"1": {Type: internal.TypeMobile},
		"2": {Type: internal.TypeMobile},
		"3": {Type: internal.TypeLandline},
		"4": {Type: internal.TypeUnknown},
		"5": {Type: "Satellite"},
	})
	require.Equal(t, 5, s.Total)
	require.Equal(t, 2, s.ByType[internal.TypeMobile])
	require.Equal(t, 1, s.ByType[internal.TypeLandline])
	require.Equal(t, 0, s.ByType[internal.TypeVoIP])
	require.Equal(t, 0, s.ByType[internal.TypePaging])
	require.Equal(t, 2, s.ByType[internal.TypeUnknown])
}
