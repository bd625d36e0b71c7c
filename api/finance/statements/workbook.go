package statements

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"time"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"

	"MvpxArtistSaas/api/constants"
)

// SheetData is one raw sheet as read from the uploaded workbook, before
// any normalization. One sheet corresponds to one artist.
type SheetData struct {
	Name string
	Rows [][]string
}

// ParseWorkbook reads every sheet of an .xlsx or .xls upload into raw
// string cells. Reserved non-artist sheets are dropped here.
func ParseWorkbook(data []byte, filename string) ([]SheetData, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx":
		return parseXLSX(data)
	case ".xls":
		return parseXLS(data)
	}
	return nil, errors.New(constants.ErrUnsupportedFileType)
}

func parseXLSX(data []byte) ([]SheetData, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := make([]SheetData, 0, f.SheetCount)
	for _, name := range f.GetSheetList() {
		if isReservedSheet(name) {
			continue
		}
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, err
		}
		sheets = append(sheets, SheetData{Name: name, Rows: rows})
	}
	return sheets, nil
}

func parseXLS(data []byte) ([]SheetData, error) {
	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, err
	}
	sheets := make([]SheetData, 0, wb.NumSheets())
	for i := 0; i < wb.NumSheets(); i++ {
		ws := wb.GetSheet(i)
		if ws == nil || isReservedSheet(ws.Name) {
			continue
		}
		rows := make([][]string, 0, int(ws.MaxRow)+1)
		for r := 0; r <= int(ws.MaxRow); r++ {
			row := ws.Row(r)
			if row == nil {
				rows = append(rows, nil)
				continue
			}
			cells := make([]string, 0, row.LastCol()+1)
			for c := 0; c <= row.LastCol(); c++ {
				cells = append(cells, row.Col(c))
			}
			rows = append(rows, cells)
		}
		sheets = append(sheets, SheetData{Name: ws.Name, Rows: rows})
	}
	return sheets, nil
}

func isReservedSheet(name string) bool {
	for _, reserved := range constants.ReservedSheetNames {
		if strings.EqualFold(strings.TrimSpace(name), reserved) {
			return true
		}
	}
	return false
}

// ArtistInfo is the metadata block some sheets carry above the ledger:
// a label in column B with its value in column E, within the first ten
// rows.
type ArtistInfo struct {
	LegalName   string
	PeriodStart time.Time
	PeriodEnd   time.Time
}

func extractArtistInfo(rows [][]string, dn *dateNormalizer) ArtistInfo {
	var info ArtistInfo
	limit := len(rows)
	if limit > 10 {
		limit = 10
	}
	for i := 0; i < limit; i++ {
		label := strings.ToLower(cellAt(rows[i], 1))
		value := cellAt(rows[i], 4)
		if label == "" || value == "" {
			continue
		}
		switch {
		case strings.Contains(label, "nombre legal"):
			info.LegalName = value
		case strings.Contains(label, "fecha de inicio") || strings.Contains(label, "fecha inicio"):
			if d, ok := dn.ParseCached(value); ok {
				info.PeriodStart = d
			}
		case strings.Contains(label, "fecha fin") || strings.Contains(label, "fecha de finalizacion"):
			if d, ok := dn.ParseCached(value); ok {
				info.PeriodEnd = d
			}
		}
	}
	return info
}

// findHeaderRow locates the ledger header: the first row mentioning both
// "fecha" and "concepto". Returns -1 when the sheet has none.
func findHeaderRow(rows [][]string) int {
	for i, row := range rows {
		joined := strings.ToLower(strings.Join(row, " "))
		if strings.Contains(joined, "fecha") && strings.Contains(joined, "concepto") {
			return i
		}
	}
	return -1
}
