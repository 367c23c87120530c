package common

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atsscorer/internal/errors"
	"atsscorer/internal/types"
)

const resumeJSON = `{
  "personalInfo": {"fullName": "Ada Lovelace", "email": "ada@example.com"},
  "summary": "Engineer",
  "workHistory": [{"title": "Engineer", "company": "Analytical", "startDate": "2020-01", "achievements": ["Built the engine"]}],
  "education": [],
  "skills": ["Go", "SQL"]
}`

const resumeYAML = `personalInfo:
  fullName: Ada Lovelace
  email: ada@example.com
summary: Engineer
workHistory:
  - title: Engineer
    company: Analytical
    startDate: "2020-01"
    achievements:
      - Built the engine
education: []
skills: [Go, SQL]
`

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestReadDocument(t *testing.T) {
	fp := NewFileProcessor(errors.NewDiscard(), 0)

	for _, tc := range []struct{ name, content string }{
		{"resume.json", resumeJSON},
		{"resume.yaml", resumeYAML},
	} {
		t.Run(tc.name, func(t *testing.T) {
			doc, err := fp.ReadDocument(writeTemp(t, tc.name, tc.content))
			require.NoError(t, err)
			assert.Equal(t, "Ada Lovelace", doc.PersonalInfo.FullName)
			assert.Equal(t, []string{"Built the engine"}, doc.WorkHistory[0].Achievements)
			assert.Equal(t, []string{"Go", "SQL"}, doc.Skills)
		})
	}
}

func TestReadDocumentShapeErrors(t *testing.T) {
	fp := NewFileProcessor(errors.NewDiscard(), 0)

	tests := []struct {
		name    string
		file    string
		content string
	}{
		{name: "invalid json", file: "bad.json", content: `{"personalInfo":`},
		{name: "wrong type", file: "bad.json", content: `{"skills": "Go"}`},
		{name: "invalid yaml", file: "bad.yaml", content: "skills: [Go\n"},
		{name: "yaml wrong type", file: "bad.yml", content: "workHistory: nope\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeTemp(t, tt.file, tt.content)
			_, err := fp.ReadDocument(path)
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidInputShape), "got %v", err)

			appErr, ok := errors.As(err)
			require.True(t, ok)
			assert.Equal(t, path, appErr.Context["file"])
		})
	}
}

func TestReadDocumentFileErrors(t *testing.T) {
	_, err := NewFileProcessor(nil, 0).ReadDocument(filepath.Join(t.TempDir(), "missing.json"))
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))

	big := writeTemp(t, "big.json", resumeJSON)
	_, err = NewFileProcessor(nil, 16).ReadDocument(big)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid file")
}

func TestReadJobDescription(t *testing.T) {
	fp := NewFileProcessor(errors.NewDiscard(), 0)

	jd, err := fp.ReadJobDescription("")
	require.NoError(t, err)
	assert.Empty(t, jd)

	jd, err = fp.ReadJobDescription(writeTemp(t, "job.html", "<p>Go</p>"))
	require.NoError(t, err)
	assert.Equal(t, "<p>Go</p>", jd)
}

func TestRunCommand(t *testing.T) {
	resumePath := writeTemp(t, "resume.json", resumeJSON)
	outPath := filepath.Join(t.TempDir(), "out", "result.json")

	var logged string
	err := RunCommand(context.Background(), errors.NewDiscard(),
		CommandConfig{OutputFile: outPath, OutputFormat: "json"},
		[]string{resumePath},
		func(fp *FileProcessor, args []string) (types.ResumeDocument, error) {
			return fp.ReadDocument(args[0])
		},
		func(_ context.Context, doc types.ResumeDocument) (types.KeywordExtractResponse, error) {
			return types.KeywordExtractResponse{Keywords: doc.Skills, Source: types.KeywordSourceHeuristic}, nil
		},
		func(doc types.ResumeDocument, _ CommandConfig) { logged = doc.PersonalInfo.FullName },
	)
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", logged)

	written, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Contains(t, string(written), `"source": "heuristic"`)
}

func TestRunCommandPropagatesInputErrors(t *testing.T) {
	err := RunCommand(context.Background(), errors.NewDiscard(),
		CommandConfig{OutputFormat: "json"},
		[]string{filepath.Join(t.TempDir(), "missing.json")},
		func(fp *FileProcessor, args []string) (types.ResumeDocument, error) {
			return fp.ReadDocument(args[0])
		},
		func(context.Context, types.ResumeDocument) (string, error) {
			t.Fatal("operation must not run")
			return "", nil
		},
		nil,
	)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
}

func TestOutputHandlerStdout(t *testing.T) {
	var buf bytes.Buffer
	oh := NewOutputHandler(errors.NewDiscard())
	oh.stdout = &buf

	err := oh.HandleOutput(types.KeywordExtractResponse{Keywords: []string{"go"}, Source: "heuristic"}, CommandConfig{OutputFormat: "text"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(buf.String(), "Keywords (1, source: heuristic)"))

	err = oh.HandleOutput(types.KeywordExtractResponse{}, CommandConfig{OutputFormat: "xml"})
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidFormat))
}
