package pipeline

import (
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"nanpa/internal"
)

var exportHeaders = []string{
	"prefix", "ocn", "company", "company_original", "carrier",
	"type", "rate_center", "city", "state", "last_source",
}

// ExportRecordsToXLSX writes one row per record under a header row.
func ExportRecordsToXLSX(records []internal.PrefixRecord, outputPath string) error {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	for i, h := range exportHeaders {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}

	for i, rec := range records {
		values := []string{
			rec.Prefix, rec.OCN, rec.Company, rec.CompanyOriginal, rec.Carrier,
			string(rec.Type), rec.RateCenter, rec.City, rec.State, rec.LastSource,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := make([]any, len(values))
		for j, v := range values {
			row[j] = v
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}
