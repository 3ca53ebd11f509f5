package domain

import (
	"fmt"
	"strings"
	"time"
)

// DataType selects which livestock events a run works on.
type DataType string

const (
	DataTypeAll       DataType = "all"
	DataTypeBreeding  DataType = "breeding"
	DataTypePregnancy DataType = "pregnancy"
)

// ParseDataType accepts all, breeding or pregnancy.
func ParseDataType(value string) (DataType, error) {
	switch dt := DataType(strings.ToLower(strings.TrimSpace(value))); dt {
	case DataTypeAll, DataTypeBreeding, DataTypePregnancy:
		return dt, nil
	case "":
		return DataTypeAll, nil
	default:
		return "", fmt.Errorf("unknown data type %q (want all, breeding or pregnancy)", value)
	}
}

// IncludesBreeding reports whether breeding events are part of the selection.
func (d DataType) IncludesBreeding() bool {
	return d == DataTypeAll || d == DataTypeBreeding
}

// IncludesPregnancy reports whether pregnancy diagnoses are part of the selection.
func (d DataType) IncludesPregnancy() bool {
	return d == DataTypeAll || d == DataTypePregnancy
}

// BreedingRecord is an insemination or embryo-transfer event read from the livestock app.
type BreedingRecord struct {
	CowNo        string `json:"cowNo"`
	IndividualID string `json:"individualId"`
	Date         string `json:"date"`
	Staff        string `json:"staff"`
	Time         string `json:"time"`
	Method       string `json:"method"`
	SemenName    string `json:"semenName"`
	SemenNo      string `json:"semenNo"`
	Memo         string `json:"memo"`
}

// PregnancyRecord is a pregnancy diagnosis read from the livestock app.
type PregnancyRecord struct {
	CowNo        string `json:"cowNo"`
	IndividualID string `json:"individualId"`
	Date         string `json:"date"`
	Staff        string `json:"staff"`
	Time         string `json:"time"`
	Result       string `json:"result"`
	Memo         string `json:"memo"`
}

// ExtractionBatch is the per-date document written after reading one grid.
type ExtractionBatch[T BreedingRecord | PregnancyRecord] struct {
	Records    []T       `json:"records"`
	ScrapedAt  time.Time `json:"scrapedAt"`
	Date       string    `json:"date"`
	TotalCount int       `json:"totalCount"`
}

// NewExtractionBatch wraps records read for a date.
func NewExtractionBatch[T BreedingRecord | PregnancyRecord](date string, records []T, at time.Time) ExtractionBatch[T] {
	if records == nil {
		records = []T{}
	}
	return ExtractionBatch[T]{Records: records, ScrapedAt: at, Date: date, TotalCount: len(records)}
}

// ClassificationCode is the billing app's event subtype.
type ClassificationCode string

const (
	CodeInsemination   ClassificationCode = "1"
	CodeEmbryoTransfer ClassificationCode = "2"
	CodeEstrus         ClassificationCode = "3"
	CodeConception     ClassificationCode = "4"
	CodeNonConception  ClassificationCode = "5"
	CodeUndetermined   ClassificationCode = "6"
)

// ClassificationCodes lists every valid code in order.
var ClassificationCodes = []ClassificationCode{
	CodeInsemination,
	CodeEmbryoTransfer,
	CodeEstrus,
	CodeConception,
	CodeNonConception,
	CodeUndetermined,
}

// Valid reports whether the code is part of the enumeration.
func (c ClassificationCode) Valid() bool {
	for _, code := range ClassificationCodes {
		if c == code {
			return true
		}
	}
	return false
}

// Label is the short name the billing app shows for the code.
func (c ClassificationCode) Label() string {
	switch c {
	case CodeInsemination:
		return "授精"
	case CodeEmbryoTransfer:
		return "移植"
	case CodeEstrus:
		return "発情"
	case CodeConception:
		return "妊鑑＋"
	case CodeNonConception:
		return "妊鑑−"
	case CodeUndetermined:
		return "妊鑑+-"
	default:
		return string(c)
	}
}

// RequiresAuxiliarySelection reports whether entering the code needs the insemination date
// picker in the billing app.
func (c ClassificationCode) RequiresAuxiliarySelection() bool {
	return c == CodeConception
}

// SubmissionRecord is one entry to type into the billing app.
type SubmissionRecord struct {
	Date                       string             `json:"date"`
	OwnerID                    string             `json:"ownerId"`
	IndividualID               string             `json:"individualId"`
	ClassificationCode         ClassificationCode `json:"classificationCode"`
	ContentID                  string             `json:"contentId"`
	Quantity                   int                `json:"quantity"`
	Price                      int                `json:"price"`
	Memo                       string             `json:"memo"`
	RequiresAuxiliarySelection bool               `json:"requiresAuxiliarySelection"`
}

// SubmissionBatch is the reviewable document of records prepared for one date.
type SubmissionBatch struct {
	Date       string             `json:"date"`
	DataType   DataType           `json:"dataType"`
	PreparedAt time.Time          `json:"preparedAt"`
	Records    []SubmissionRecord `json:"records"`
}
