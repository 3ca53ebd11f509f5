// Package report turns a lookup job log into spreadsheets and counters for the operator.
package report

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"RecordSync/internal/domain"
	"RecordSync/internal/infrastructure/storage"
)

const (
	byteOrderMark = "\uFEFF"
	sheetName     = "results"
)

// Header is the column row of every export.
var Header = []string{
	"入力事業所名",
	"入力住所",
	"見つかった",
	"マッチ件数",
	"マッチ事業所名",
	"マッチ住所",
	"サービス種類",
	"事業所番号",
	"詳細URL",
}

// Row is one exported line: an input with one of its matches, or with none.
type Row struct {
	InputName    string
	InputAddress string
	Found        bool
	MatchCount   int
	Match        domain.CandidateRecord
}

// Values renders the row in Header order.
func (r Row) Values() []string {
	found := "FALSE"
	if r.Found {
		found = "TRUE"
	}
	return []string{
		r.InputName,
		r.InputAddress,
		found,
		strconv.Itoa(r.MatchCount),
		r.Match.Name,
		r.Match.Address,
		r.Match.ServiceType,
		r.Match.RegistryID,
		r.Match.DetailLocator,
	}
}

// ExportSummary counts what went into an export.
type ExportSummary struct {
	Exported int
	Found    int
	NotFound int
	Skipped  int
}

// Rows flattens the log into export rows. Error outcomes are left out and counted as skipped.
func Rows(log domain.JobLog) ([]Row, ExportSummary) {
	var (
		rows    []Row
		summary ExportSummary
	)
	for _, o := range log.Outcomes {
		if o.Failed() {
			summary.Skipped++
			continue
		}
		summary.Exported++
		if len(o.Matches) == 0 {
			summary.NotFound++
			rows = append(rows, Row{InputName: o.InputName, InputAddress: o.InputAddress, Found: o.Found})
			continue
		}
		summary.Found++
		for _, m := range o.Matches {
			rows = append(rows, Row{
				InputName:    o.InputName,
				InputAddress: o.InputAddress,
				Found:        true,
				MatchCount:   len(o.Matches),
				Match:        m,
			})
		}
	}
	return rows, summary
}

// WriteCSV writes a BOM-prefixed UTF-8 table with every field double-quoted.
func WriteCSV(w io.Writer, rows []Row) error {
	var b strings.Builder
	b.WriteString(byteOrderMark)
	writeQuoted(&b, Header)
	for _, r := range rows {
		writeQuoted(&b, r.Values())
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func writeQuoted(b *strings.Builder, fields []string) {
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('"')
		b.WriteString(strings.ReplaceAll(f, `"`, `""`))
		b.WriteByte('"')
	}
	b.WriteByte('\n')
}

// WriteXLSX writes the same table as a single-sheet workbook.
func WriteXLSX(w io.Writer, rows []Row) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	for i, h := range Header {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheetName, cell, h)
	}

	for i, r := range rows {
		line := i + 2
		for col, v := range r.Values() {
			cell, _ := excelize.CoordinatesToCellName(col+1, line)
			if col == 3 {
				_ = f.SetCellValue(sheetName, cell, r.MatchCount)
				continue
			}
			_ = f.SetCellValue(sheetName, cell, v)
		}
	}

	_ = f.SetColWidth(sheetName, "A", "B", 32)
	_ = f.SetColWidth(sheetName, "C", "D", 10)
	_ = f.SetColWidth(sheetName, "E", "F", 32)
	_ = f.SetColWidth(sheetName, "G", "H", 16)
	_ = f.SetColWidth(sheetName, "I", "I", 60)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}
	_, err = w.Write(buf.Bytes())
	return err
}

// DefaultExportPath is data/wam_search_<date>.csv.
func DefaultExportPath(dataDir string, now time.Time) string {
	return filepath.Join(dataDir, fmt.Sprintf("wam_search_%s.csv", now.Format("2006-01-02")))
}

// Export writes the log to path, as XLSX when the path ends in .xlsx and CSV otherwise.
func Export(path string, log domain.JobLog) (ExportSummary, error) {
	rows, summary := Rows(log)

	var buf bytes.Buffer
	var err error
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		err = WriteXLSX(&buf, rows)
	} else {
		err = WriteCSV(&buf, rows)
	}
	if err != nil {
		return summary, fmt.Errorf("render export: %w", err)
	}

	if err := storage.WriteFileAtomic(path, buf.Bytes(), 0o644); err != nil {
		return summary, fmt.Errorf("write export %s: %w", path, err)
	}
	return summary, nil
}
