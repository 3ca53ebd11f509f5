// Package livestock reads breeding and pregnancy events out of saved livestock-app grid
// pages and keeps them as per-date extraction documents.
package livestock

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"RecordSync/internal/domain"
)

const (
	rowSelector  = ".ui-grid-row"
	cellSelector = ".ui-grid-cell-contents"

	minBreedingCells  = 18
	minPregnancyCells = 6
)

// ParseBreedingGrid extracts breeding events. Rows with fewer than 18 cells are skipped.
func ParseBreedingGrid(r io.Reader) ([]domain.BreedingRecord, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse breeding grid: %w", err)
	}

	records := make([]domain.BreedingRecord, 0)
	doc.Find(rowSelector).Each(func(_ int, row *goquery.Selection) {
		cells := row.Find(cellSelector)
		if cells.Length() < minBreedingCells {
			return
		}
		records = append(records, domain.BreedingRecord{
			CowNo:        cowNumber(cells.Eq(0)),
			IndividualID: cellText(cells, 1),
			Date:         cellText(cells, 2),
			Staff:        cellText(cells, 3),
			Time:         cellText(cells, 4),
			Method:       cellText(cells, 5),
			SemenName:    cellText(cells, 7),
			SemenNo:      cellText(cells, 8),
			Memo:         cellText(cells, 17),
		})
	})
	return records, nil
}

// ParsePregnancyGrid extracts pregnancy diagnoses. The memo is the last cell when the row
// has more than the six fixed columns.
func ParsePregnancyGrid(r io.Reader) ([]domain.PregnancyRecord, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse pregnancy grid: %w", err)
	}

	records := make([]domain.PregnancyRecord, 0)
	doc.Find(rowSelector).Each(func(_ int, row *goquery.Selection) {
		cells := row.Find(cellSelector)
		n := cells.Length()
		if n < minPregnancyCells {
			return
		}
		var memo string
		if n > minPregnancyCells {
			memo = cellText(cells, n-1)
		}
		records = append(records, domain.PregnancyRecord{
			CowNo:        cowNumber(cells.Eq(0)),
			IndividualID: cellText(cells, 1),
			Date:         cellText(cells, 2),
			Staff:        cellText(cells, 3),
			Result:       cellText(cells, 4),
			Memo:         memo,
		})
	})
	return records, nil
}

// cowNumber prefers the link text, which drops badges rendered next to the number.
func cowNumber(cell *goquery.Selection) string {
	if link := cell.Find("a").First(); link.Length() > 0 {
		return strings.TrimSpace(link.Text())
	}
	return strings.TrimSpace(cell.Text())
}

func cellText(cells *goquery.Selection, i int) string {
	return strings.TrimSpace(cells.Eq(i).Text())
}
