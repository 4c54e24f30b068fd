package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"nanpa/internal"
)

func TestBuildEndToEndText(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "NPA-NXX,Company,State\n212-555,AT&T Mobility LLC,NY\nABC-DEF,Nobody,NY\n")

	data, stats, err := newTestBuilder(t).Build(dir)
	require.NoError(t, err)
	require.Equal(t, internal.BuildStats{FilesScanned: 1, RowsRead: 2, RowsAccepted: 1}, stats)

	rec := data["212555"]
	require.Equal(t, "212555", rec.Prefix)
	require.Equal(t, "AT&T", rec.Carrier)
	require.Equal(t, internal.TypeMobile, rec.Type)
	require.Equal(t, "New York", rec.State)
}

func TestBuildLastWriterWins(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.csv"), "NPA-NXX,Company,OCN,Rate Center,State\n303-555,Frontier Communications,1111,DENVER,CO\n")
	writeFile(t, filepath.Join(dir, "b.csv"), "NPA-NXX,Company,State\n303-555,Acme Rural Telephone,ZZ\n")

	data, stats, err := newTestBuilder(t).Build(dir)
	require.NoError(t, err)
	require.Equal(t, 2, stats.RowsAccepted)
	require.Len(t, data, 1)
	require.Equal(t, internal.PrefixRecord{
		Prefix:          "303555",
		Company:         "Acme Rural Telephone",
		CompanyOriginal: "Acme Rural Telephone",
		Carrier:         "Acme Rural Telephone",
		State:           "ZZ",
		LastSource:      "b.csv",
	}, data["303555"])
}

func TestBuildWithinFileDuplicates(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "NPA\tNXX\tCompany\n212\t555\tVerizon Wireless\n212\t555\tLevel 3 Communications\n")

	data, _, err := newTestBuilder(t).Build(dir)
	require.NoError(t, err)
	require.Equal(t, internal.TypeVoIP, data["212555"].Type)
	require.Equal(t, "Level 3 Communications", data["212555"].Carrier)
}

func TestBuildMixedFormatsAndNesting(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "notes.pdf"), "not tabular")
	writeFile(t, filepath.Join(dir, "sub", "deep.TXT"), "NPA-NXX,Company\n617230,Cricket Wireless\n")
	mkXLSX(t, filepath.Join(dir, "sheet.xlsx"), [][]any{
		{"NPA", "NXX", "Company", "State"},
		{907, 201, "Frontier Communications", "ak"},
	})

	data, stats, err := newTestBuilder(t).Build(dir)
	require.NoError(t, err)
	require.Equal(t, 2, stats.FilesScanned)
	require.Equal(t, "AT&T", data["617230"].Carrier)
	require.Equal(t, internal.TypeLandline, data["907201"].Type)
	require.Equal(t, "Alaska", data["907201"].State)
}

func TestBuildSkipsBrokenFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "broken.xlsx"), "this is not a spreadsheet")
	writeFile(t, filepath.Join(dir, "good.csv"), "NPA-NXX,Company\n212-555,Frontier\n")

	data, stats, err := newTestBuilder(t).Build(dir)
	require.NoError(t, err)
	require.Equal(t, 2, stats.FilesScanned)
	require.Equal(t, 1, stats.FilesSkipped)
	require.Len(t, data, 1)
}

func TestBuildMissingDir(t *testing.T) {
	data, stats, err := newTestBuilder(t).Build(filepath.Join(t.TempDir(), "absent"))
	require.NoError(t, err)
	require.Empty(t, data)
	require.Zero(t, stats.FilesScanned)
}

func TestBuildIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.csv"), "NPA-NXX,Company,State\n212-555,AT&T Mobility LLC,NY\n303-201,Qwest Corporation,CO\n")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "empty"), 0o755))

	b := newTestBuilder(t)
	first, _, err := b.Build(dir)
	require.NoError(t, err)
	second, _, err := b.Build(dir)
	require.NoError(t, err)
	require.Equal(t, first, second)
}
