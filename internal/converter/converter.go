// Package converter maps livestock-app records to the entries typed into the billing app.
//
// Every function here is total: unrecognized text falls back to a default code instead of
// failing, and doubtful owner identifiers are reported as warnings next to the record.
package converter

import (
	"fmt"
	"strconv"
	"strings"

	"RecordSync/internal/domain"
)

// Conversion pairs a submission record with the warnings the operator should check.
type Conversion struct {
	Record   domain.SubmissionRecord
	Warnings []string
}

// Ambiguous reports whether the conversion carries at least one warning.
func (c Conversion) Ambiguous() bool {
	return len(c.Warnings) > 0
}

var (
	embryoTransferKeywords = []string{"移植", "et"}
	inseminationKeywords   = []string{"授精", "ai"}
	estrusKeywords         = []string{"発情"}

	nonConceptionKeywords = []string{"未受胎", "空胎", "−", "－"}
	conceptionKeywords    = []string{"受胎", "＋"}
)

// ExtractOwnerID derives the owner identifier from the leading digits of a cow number.
// "20016" gives "20", "185776" gives "185" and "1073956" gives "107".
func ExtractOwnerID(raw string) string {
	digits := digitsOnly(raw)
	if len(digits) < 3 {
		return digits
	}

	var prefix string
	if len(digits) <= 5 {
		prefix = (strings.Repeat("0", 6-len(digits)) + digits)[:3]
	} else {
		prefix = digits[:3]
	}

	n, err := strconv.Atoi(prefix)
	if err != nil {
		return prefix
	}
	return strconv.Itoa(n)
}

// OwnerIDAmbiguous reports whether the digit count of raw falls outside the 5 to 7 digits the
// derivation rule has been observed on.
func OwnerIDAmbiguous(raw string) bool {
	n := len(digitsOnly(raw))
	return n < 5 || n > 7
}

// ClassificationCode maps a breeding method to its billing code. Transfer keywords win over
// insemination keywords; anything unrecognized is treated as insemination.
func ClassificationCode(method string) domain.ClassificationCode {
	m := strings.ToLower(method)
	switch {
	case containsAny(m, embryoTransferKeywords):
		return domain.CodeEmbryoTransfer
	case containsAny(m, inseminationKeywords):
		return domain.CodeInsemination
	case containsAny(m, estrusKeywords):
		return domain.CodeEstrus
	default:
		return domain.CodeInsemination
	}
}

// PregnancyClassificationCode maps a diagnosis result to its billing code. Unrecognized
// results become the undetermined code.
func PregnancyClassificationCode(result string) domain.ClassificationCode {
	r := strings.TrimSpace(strings.ToLower(result))
	switch {
	case r == "-" || containsAny(r, nonConceptionKeywords):
		return domain.CodeNonConception
	case r == "+" || containsAny(r, conceptionKeywords):
		return domain.CodeConception
	default:
		return domain.CodeUndetermined
	}
}

// FormatDate swaps slashes for dashes. It does not validate the date.
func FormatDate(date string) string {
	return strings.ReplaceAll(date, "/", "-")
}

// IndividualSearchTerm is the form of an individual identifier typed into the billing
// app's picker: "13470-0278-8" becomes "1347002788".
func IndividualSearchTerm(individualID string) string {
	return strings.ReplaceAll(individualID, "-", "")
}

// ConvertBreeding converts one breeding event.
func ConvertBreeding(rec domain.BreedingRecord) Conversion {
	return Conversion{
		Record: domain.SubmissionRecord{
			Date:               FormatDate(rec.Date),
			OwnerID:            ExtractOwnerID(rec.CowNo),
			IndividualID:       rec.IndividualID,
			ClassificationCode: ClassificationCode(rec.Method),
			ContentID:          rec.SemenNo,
			Quantity:           1,
			Price:              0,
			Memo:               "",
		},
		Warnings: ownerWarnings(rec.CowNo),
	}
}

// ConvertPregnancy converts one pregnancy diagnosis.
func ConvertPregnancy(rec domain.PregnancyRecord) Conversion {
	code := PregnancyClassificationCode(rec.Result)
	return Conversion{
		Record: domain.SubmissionRecord{
			Date:                       FormatDate(rec.Date),
			OwnerID:                    ExtractOwnerID(rec.CowNo),
			IndividualID:               rec.IndividualID,
			ClassificationCode:         code,
			ContentID:                  "",
			Quantity:                   1,
			Price:                      0,
			Memo:                       "",
			RequiresAuxiliarySelection: code.RequiresAuxiliarySelection(),
		},
		Warnings: ownerWarnings(rec.CowNo),
	}
}

// ConvertBreedingRecords converts records in order.
func ConvertBreedingRecords(records []domain.BreedingRecord) []Conversion {
	out := make([]Conversion, 0, len(records))
	for _, rec := range records {
		out = append(out, ConvertBreeding(rec))
	}
	return out
}

// ConvertPregnancyRecords converts records in order.
func ConvertPregnancyRecords(records []domain.PregnancyRecord) []Conversion {
	out := make([]Conversion, 0, len(records))
	for _, rec := range records {
		out = append(out, ConvertPregnancy(rec))
	}
	return out
}

// Records drops the warnings and returns the submission records.
func Records(conversions []Conversion) []domain.SubmissionRecord {
	out := make([]domain.SubmissionRecord, 0, len(conversions))
	for _, c := range conversions {
		out = append(out, c.Record)
	}
	return out
}

func ownerWarnings(cowNo string) []string {
	if !OwnerIDAmbiguous(cowNo) {
		return nil
	}
	return []string{fmt.Sprintf("cow number %q has %d digits; owner id %q needs confirmation",
		cowNo, len(digitsOnly(cowNo)), ExtractOwnerID(cowNo))}
}

func digitsOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
