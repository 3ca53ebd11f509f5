package converter

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"

	"RecordSync/internal/domain"
)

// RenderBreedingPreview prints the converted breeding records next to their source rows so
// the operator can check them before anything is submitted. Rows with warnings are marked
// with "!".
func RenderBreedingPreview(w io.Writer, records []domain.BreedingRecord, conversions []Conversion) {
	fmt.Fprintf(w, "\n=== breeding preview (%d) ===\n", len(conversions))
	table := newPreviewTable(w, []string{"", "牛番号", "畜主ID", "個体識別番号", "区分", "精液番号"})
	for i, c := range conversions {
		cowNo := ""
		if i < len(records) {
			cowNo = records[i].CowNo
		}
		table.Append([]string{
			flag(c),
			cowNo,
			c.Record.OwnerID,
			c.Record.IndividualID,
			c.Record.ClassificationCode.Label(),
			c.Record.ContentID,
		})
	}
	table.Render()
	renderWarnings(w, conversions)
}

// RenderPregnancyPreview prints the converted pregnancy diagnoses for review.
func RenderPregnancyPreview(w io.Writer, records []domain.PregnancyRecord, conversions []Conversion) {
	fmt.Fprintf(w, "\n=== pregnancy preview (%d) ===\n", len(conversions))
	table := newPreviewTable(w, []string{"", "牛番号", "畜主ID", "個体識別番号", "結果", "区分"})
	for i, c := range conversions {
		cowNo, result := "", ""
		if i < len(records) {
			cowNo, result = records[i].CowNo, records[i].Result
		}
		table.Append([]string{
			flag(c),
			cowNo,
			c.Record.OwnerID,
			c.Record.IndividualID,
			result,
			c.Record.ClassificationCode.Label(),
		})
	}
	table.Render()
	renderWarnings(w, conversions)
}

func newPreviewTable(w io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	return table
}

func flag(c Conversion) string {
	if c.Ambiguous() {
		return "!"
	}
	return ""
}

func renderWarnings(w io.Writer, conversions []Conversion) {
	for i, c := range conversions {
		for _, warning := range c.Warnings {
			fmt.Fprintf(w, "! row %d: %s\n", i+1, warning)
		}
	}
}
