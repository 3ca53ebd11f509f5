// Package tabular reads the operator's facility table.
package tabular

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"RecordSync/internal/domain"
)

// ReadInputFile opens path and reads it with ReadInputRecords.
func ReadInputFile(path string) ([]domain.InputRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input table: %w", err)
	}
	defer f.Close()
	return ReadInputRecords(f)
}

// ReadInputRecords parses a name,address table. The first row is a header; blank lines and
// rows with fewer than two fields are skipped, and every field is trimmed.
func ReadInputRecords(r io.Reader) ([]domain.InputRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var (
		records []domain.InputRecord
		header  = true
	)
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read input table: %w", err)
		}
		if header {
			header = false
			continue
		}
		if len(row) < 2 {
			continue
		}
		records = append(records, domain.InputRecord{
			Name:    strings.TrimSpace(row[0]),
			Address: strings.TrimSpace(row[1]),
		})
	}
	return records, nil
}
