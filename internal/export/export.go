package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"artisan-voice-go/internal/types"
)

const sheetName = "Listings"

var headers = []string{"ID", "Artisan Name", "About", "Description", "Keywords", "Transcript", "Audio Path"}

// Workbook builds an XLSX catalog of all persisted listings, one row per
// record.
func Workbook(records []types.ListingRecord) (*excelize.File, error) {
	f := excelize.NewFile()
	idx, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("drop default sheet: %w", err)
	}

	for col, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return nil, fmt.Errorf("write header: %w", err)
		}
	}

	for row, rec := range records {
		values := []string{
			rec.ID,
			rec.Content.ArtisanName,
			rec.Content.AboutText,
			rec.Content.Description,
			strings.Join(rec.Content.Keywords, ", "),
			rec.Transcript,
			rec.AudioPath,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return nil, fmt.Errorf("write row %d: %w", row+2, err)
			}
		}
	}
	return f, nil
}

// Write streams the catalog workbook to w.
func Write(w io.Writer, records []types.ListingRecord) error {
	f, err := Workbook(records)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Write(w)
}
