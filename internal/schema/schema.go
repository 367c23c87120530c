// Package schema rejects structurally invalid résumé JSON before it is decoded.
// A document that fails here is an InvalidInputShape error; everything that
// passes is scorable, however sparse.
package schema

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"atsscorer/internal/errors"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed resume.schema.json
var resumeSchemaJSON []byte

// MaxBatchItems bounds a batch scoring request.
const MaxBatchItems = 50

// FieldError is one schema violation.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type schemas struct {
	resume *gojsonschema.Schema
	score  *gojsonschema.Schema
	batch  *gojsonschema.Schema
}

var compiled = sync.OnceValues(compile)

// compile builds the resume schema and the request envelopes that wrap it.
func compile() (*schemas, error) {
	var resume map[string]any
	if err := json.Unmarshal(resumeSchemaJSON, &resume); err != nil {
		return nil, fmt.Errorf("failed to parse embedded resume schema: %w", err)
	}
	definitions := resume["definitions"]

	scoreRequest := map[string]any{
		"type":     "object",
		"required": []any{"resume"},
		"properties": map[string]any{
			"resume":         stripMeta(resume),
			"jobDescription": map[string]any{"type": "string"},
			"useAI":          map[string]any{"type": "boolean"},
			"targetKeywords": map[string]any{
				"type":  []any{"array", "null"},
				"items": map[string]any{"type": "string"},
			},
		},
		"definitions": definitions,
	}

	batchRequest := map[string]any{
		"type":     "object",
		"required": []any{"items"},
		"properties": map[string]any{
			"items": map[string]any{
				"type":     "array",
				"minItems": 1,
				"maxItems": MaxBatchItems,
				"items":    stripMeta(scoreRequest),
			},
		},
		"definitions": definitions,
	}

	s := &schemas{}
	var err error
	if s.resume, err = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(resumeSchemaJSON)); err != nil {
		return nil, fmt.Errorf("failed to compile resume schema: %w", err)
	}
	if s.score, err = gojsonschema.NewSchema(gojsonschema.NewGoLoader(scoreRequest)); err != nil {
		return nil, fmt.Errorf("failed to compile score request schema: %w", err)
	}
	if s.batch, err = gojsonschema.NewSchema(gojsonschema.NewGoLoader(batchRequest)); err != nil {
		return nil, fmt.Errorf("failed to compile batch request schema: %w", err)
	}
	return s, nil
}

// stripMeta drops the keys that only make sense at a schema root.
// Definitions stay reachable because every envelope re-declares them.
func stripMeta(schema map[string]any) map[string]any {
	out := make(map[string]any, len(schema))
	for k, v := range schema {
		switch k {
		case "$schema", "definitions", "title":
			continue
		}
		out[k] = v
	}
	return out
}

// ValidateResume checks a raw ResumeDocument.
func ValidateResume(raw []byte) error {
	return validate(raw, func(s *schemas) *gojsonschema.Schema { return s.resume })
}

// ValidateScoreRequest checks a raw {resume, jobDescription, targetKeywords} body.
func ValidateScoreRequest(raw []byte) error {
	return validate(raw, func(s *schemas) *gojsonschema.Schema { return s.score })
}

// ValidateBatchRequest checks a raw {items: [...]} body.
func ValidateBatchRequest(raw []byte) error {
	return validate(raw, func(s *schemas) *gojsonschema.Schema { return s.batch })
}

func validate(raw []byte, pick func(*schemas) *gojsonschema.Schema) error {
	s, err := compiled()
	if err != nil {
		return errors.NewInternalError("SCHEMA_UNAVAILABLE", "input schema failed to compile", err)
	}

	if !json.Valid(raw) {
		return errors.NewInputShapeError("request body is not valid JSON", nil)
	}

	result, err := pick(s).Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return errors.NewInputShapeError("request body could not be read as JSON", err)
	}
	if result.Valid() {
		return nil
	}

	fields := make([]FieldError, 0, len(result.Errors()))
	msgs := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		fields = append(fields, FieldError{Field: field, Message: desc.Description()})
		msgs = append(msgs, field+": "+desc.Description())
	}

	return errors.NewInputShapeError("invalid input shape: "+strings.Join(msgs, "; "), nil).
		WithContext("fields", fields)
}
