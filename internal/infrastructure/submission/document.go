// Package submission stores the reviewable documents of prepared billing entries and hands
// the records to a submission driver.
package submission

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"RecordSync/internal/domain"
	"RecordSync/internal/infrastructure/storage"
)

// ErrInvalidDocument is returned when an edited document no longer matches its schema.
var ErrInvalidDocument = errors.New("invalid submission document")

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

// DocumentPath is the per-batch document location, e.g. data/breeding-2026-01-16-inputs.json.
func DocumentPath(dataDir string, dataType domain.DataType, date string) string {
	return filepath.Join(dataDir, fmt.Sprintf("%s-%s-inputs.json", dataType, date))
}

// WriteDocument stores the batch for operator review.
func WriteDocument(path string, batch domain.SubmissionBatch) error {
	if batch.Records == nil {
		batch.Records = []domain.SubmissionRecord{}
	}
	return storage.WriteJSON(path, batch)
}

// ReadDocument re-reads a possibly hand-edited batch. The auxiliary-selection flag is derived
// again from each record's classification code, so an edited code carries its flag with it.
func ReadDocument(path string) (domain.SubmissionBatch, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return domain.SubmissionBatch{}, fmt.Errorf("read submission document: %w", err)
	}
	if err := validate(raw); err != nil {
		return domain.SubmissionBatch{}, fmt.Errorf("%w: %s: %v", ErrInvalidDocument, filepath.Base(path), err)
	}

	var batch domain.SubmissionBatch
	if err := json.Unmarshal(raw, &batch); err != nil {
		return domain.SubmissionBatch{}, fmt.Errorf("%w: %s: %v", ErrInvalidDocument, filepath.Base(path), err)
	}
	for i := range batch.Records {
		rec := &batch.Records[i]
		rec.RequiresAuxiliarySelection = rec.ClassificationCode.RequiresAuxiliarySelection()
	}
	return batch, nil
}

func validate(raw []byte) error {
	schema, err := documentSchema()
	if err != nil {
		return err
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}

func documentSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		b, err := json.Marshal(schemaMap())
		if err != nil {
			schemaErr = fmt.Errorf("marshal schema: %w", err)
			return
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("submission.json", bytes.NewReader(b)); err != nil {
			schemaErr = fmt.Errorf("add schema: %w", err)
			return
		}
		compiledSchema, schemaErr = compiler.Compile("submission.json")
	})
	return compiledSchema, schemaErr
}

func schemaMap() map[string]any {
	codes := make([]any, 0, len(domain.ClassificationCodes))
	for _, c := range domain.ClassificationCodes {
		codes = append(codes, string(c))
	}

	record := map[string]any{
		"type":     "object",
		"required": []any{"date", "ownerId", "individualId", "classificationCode", "quantity", "price"},
		"properties": map[string]any{
			"date":                       map[string]any{"type": "string"},
			"ownerId":                    map[string]any{"type": "string"},
			"individualId":               map[string]any{"type": "string"},
			"classificationCode":         map[string]any{"type": "string", "enum": codes},
			"contentId":                  map[string]any{"type": "string"},
			"quantity":                   map[string]any{"type": "integer", "minimum": 1},
			"price":                      map[string]any{"type": "integer", "minimum": 0},
			"memo":                       map[string]any{"type": "string"},
			"requiresAuxiliarySelection": map[string]any{"type": "boolean"},
		},
	}

	return map[string]any{
		"$schema":  "http://json-schema.org/draft-07/schema#",
		"type":     "object",
		"required": []any{"date", "records"},
		"properties": map[string]any{
			"date":       map[string]any{"type": "string"},
			"dataType":   map[string]any{"type": "string", "enum": []any{"all", "breeding", "pregnancy"}},
			"preparedAt": map[string]any{"type": "string"},
			"records":    map[string]any{"type": "array", "items": record},
		},
	}
}
