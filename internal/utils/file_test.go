package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateInputFile(t *testing.T) {
	dir := t.TempDir()
	small := filepath.Join(dir, "resume.json")
	require.NoError(t, os.WriteFile(small, []byte(`{"summary":"x"}`), 0600))

	tests := []struct {
		name    string
		path    string
		maxSize int64
		wantErr string
	}{
		{name: "ok", path: small},
		{name: "within limit", path: small, maxSize: 1024},
		{name: "empty name", path: "", wantErr: "cannot be empty"},
		{name: "missing", path: filepath.Join(dir, "nope.json"), wantErr: "does not exist"},
		{name: "directory", path: dir, wantErr: "is a directory"},
		{name: "too large", path: small, maxSize: 4, wantErr: "limit is 4 B"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateInputFile(tt.path, tt.maxSize)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestFileKinds(t *testing.T) {
	assert.True(t, IsDocumentFile("a.JSON"))
	assert.True(t, IsDocumentFile("a.yml"))
	assert.False(t, IsDocumentFile("a.txt"))
	assert.True(t, IsYAMLFile("cv.yaml"))
	assert.False(t, IsYAMLFile("cv.json"))
	assert.True(t, IsTextFile("job.html"))
	assert.True(t, IsTextFile("job.md"))
	assert.False(t, IsTextFile("job.pdf"))
}

func TestListDocuments(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.yaml", "a.json", "notes.txt", ".hidden.json"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("{}"), 0600))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.json"), 0750))

	files, err := ListDocuments(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.json"), filepath.Join(dir, "b.yaml")}, files)

	_, err = ListDocuments(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestFormatFileSize(t *testing.T) {
	assert.Equal(t, "512 B", FormatFileSize(512))
	assert.Equal(t, "1.5 KB", FormatFileSize(1536))
	assert.Equal(t, "2.0 MB", FormatFileSize(2*1024*1024))
}
