package schema

import (
	"fmt"
	"strings"
	"testing"

	"atsscorer/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validResume = `{
  "personalInfo": {"fullName": "Ada Lovelace", "email": "ada@example.com"},
  "summary": "Engineer",
  "workHistory": [{
    "title": "Engineer", "company": "Analytical", "startDate": "2020-01", "isCurrent": true,
    "achievements": ["Led migration that cut costs 30%"]
  }],
  "skills": ["Go", "SQL"],
  "projects": [{"name": "Engine", "description": "Difference engine"}]
}`

func TestValidateResume(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantField string
	}{
		{name: "valid", body: validResume},
		{name: "empty object is degraded not malformed", body: `{}`},
		{name: "null lists", body: `{"skills": null, "workHistory": null}`},
		{name: "root is an array", body: `[]`, wantField: "(root)"},
		{name: "skills not a list", body: `{"skills": "Go, SQL"}`, wantField: "skills"},
		{name: "achievement not a string", body: `{"workHistory": [{"achievements": [42]}]}`, wantField: "workHistory.0.achievements.0"},
		{name: "personal info not an object", body: `{"personalInfo": "Ada"}`, wantField: "personalInfo"},
		{name: "project value not a string", body: `{"projects": [{"name": 1}]}`, wantField: "projects.0.name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateResume([]byte(tt.body))
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidInputShape))

			appErr, ok := errors.As(err)
			require.True(t, ok)
			fields, ok := appErr.Context["fields"].([]FieldError)
			require.True(t, ok)
			var names []string
			for _, f := range fields {
				names = append(names, f.Field)
			}
			assert.Contains(t, names, tt.wantField)
		})
	}
}

func TestValidateResumeRejectsMalformedJSON(t *testing.T) {
	err := ValidateResume([]byte(`{"personalInfo": `))
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidInputShape))
}

func TestValidateScoreRequest(t *testing.T) {
	assert.NoError(t, ValidateScoreRequest([]byte(`{"resume": `+validResume+`, "jobDescription": "Go", "targetKeywords": ["Go"]}`)))

	err := ValidateScoreRequest([]byte(`{"jobDescription": "Go"}`))
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidInputShape))

	err = ValidateScoreRequest([]byte(`{"resume": {"skills": [1]}}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "resume.skills.0")

	err = ValidateScoreRequest([]byte(`{"resume": {}, "targetKeywords": "Go"}`))
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidInputShape))
}

func TestValidateBatchRequest(t *testing.T) {
	item := `{"resume": ` + validResume + `}`
	assert.NoError(t, ValidateBatchRequest([]byte(`{"items": [`+item+`,`+item+`]}`)))

	assert.Error(t, ValidateBatchRequest([]byte(`{"items": []}`)))

	items := make([]string, MaxBatchItems+1)
	for i := range items {
		items[i] = `{"resume": {}}`
	}
	err := ValidateBatchRequest([]byte(fmt.Sprintf(`{"items": [%s]}`, strings.Join(items, ","))))
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidInputShape))

	err = ValidateBatchRequest([]byte(`{"items": [{"resume": {"projects": [{"name": false}]}}]}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "items.0.resume.projects.0.name")
}
