package pipeline

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Row maps a trimmed header name to a trimmed cell value.
type Row map[string]string

// RowReader yields rows one at a time; Next returns io.EOF after the last row.
type RowReader interface {
	Next() (Row, error)
	Close() error
}

var tabularExts = map[string]bool{".txt": true, ".csv": true, ".xlsx": true}

// IsTabular reports whether path has one of the supported source extensions.
func IsTabular(path string) bool {
	return tabularExts[strings.ToLower(filepath.Ext(path))]
}

func OpenRows(path string) (RowReader, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return openXLSXRows(path)
	}
	return openDelimitedRows(path)
}

type xlsxRows struct {
	file    *excelize.File
	rows    *excelize.Rows
	headers []string
}

func openXLSXRows(path string) (*xlsxRows, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	if sheet == "" {
		if list := f.GetSheetList(); len(list) > 0 {
			sheet = list[0]
		}
	}
	rows, err := f.Rows(sheet)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &xlsxRows{file: f, rows: rows}, nil
}

func (x *xlsxRows) Next() (Row, error) {
	for x.rows.Next() {
		cells, err := x.rows.Columns()
		if err != nil {
			return nil, err
		}
		if x.headers == nil {
			x.headers = trimAll(cells)
			continue
		}
		return zipRow(x.headers, cells), nil
	}
	if err := x.rows.Error(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}

func (x *xlsxRows) Close() error {
	rowsErr := x.rows.Close()
	if err := x.file.Close(); err != nil {
		return err
	}
	return rowsErr
}

type delimitedRows struct {
	file    *os.File
	reader  *csv.Reader
	headers []string
}

// openDelimitedRows sniffs the first line: a tab anywhere in it selects
// tab-separated parsing, otherwise comma.
func openDelimitedRows(path string) (*delimitedRows, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	br := bufio.NewReader(f)
	first, err := br.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		_ = f.Close()
		return nil, err
	}

	r := csv.NewReader(io.MultiReader(strings.NewReader(first), br))
	if strings.Contains(first, "\t") {
		r.Comma = '\t'
	}
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	d := &delimitedRows{file: f, reader: r}
	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return d, nil
	}
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	d.headers = trimAll(header)
	return d, nil
}

func (d *delimitedRows) Next() (Row, error) {
	if d.headers == nil {
		return nil, io.EOF
	}
	record, err := d.reader.Read()
	if err != nil {
		return nil, err
	}
	return zipRow(d.headers, record), nil
}

func (d *delimitedRows) Close() error {
	return d.file.Close()
}

// zipRow pairs values with headers by position. Missing cells become "";
// values past the last header are dropped. Invalid UTF-8 bytes are removed.
func zipRow(headers, values []string) Row {
	row := make(Row, len(headers))
	for i, h := range headers {
		v := ""
		if i < len(values) {
			v = cleanCell(values[i])
		}
		row[h] = v
	}
	return row
}

func trimAll(cells []string) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = cleanCell(c)
	}
	return out
}

func cleanCell(s string) string {
	return strings.TrimSpace(strings.ToValidUTF8(s, ""))
}
