package common

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"atsscorer/internal/errors"
	"atsscorer/internal/schema"
	"atsscorer/internal/types"
	"atsscorer/internal/utils"
)

// FileProcessor handles common file operations
type FileProcessor struct {
	logger      *errors.Logger
	maxFileSize int64
}

// NewFileProcessor creates a new file processor instance. Input files larger
// than maxFileSize bytes are rejected; zero means no limit.
func NewFileProcessor(logger *errors.Logger, maxFileSize int64) *FileProcessor {
	return &FileProcessor{logger: logger, maxFileSize: maxFileSize}
}

// ReadFile reads content from a file with proper error handling
func (fp *FileProcessor) ReadFile(filename string) (string, error) {
	file, err := os.Open(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.NewIOError(errors.ErrCodeFileNotFound,
				fmt.Sprintf("File not found: %s", filename), err)
		}
		return "", errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Cannot read file: %s", filename), err)
	}
	defer func() {
		if err := file.Close(); err != nil && fp.logger != nil {
			fp.logger.Warn("Failed to close file", "filename", filename, "error", err)
		}
	}()

	content, err := io.ReadAll(file)
	if err != nil {
		return "", errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Failed to read file content: %s", filename), err)
	}

	return string(content), nil
}

// WriteFile writes content to a file with directory creation
func (fp *FileProcessor) WriteFile(filename, content string) error {
	dir := filepath.Dir(filename)
	if dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return errors.NewIOError("DIRECTORY_CREATE_FAILED",
				fmt.Sprintf("Cannot create directory: %s", dir), err)
		}
	}

	if err := os.WriteFile(filename, []byte(content), 0600); err != nil {
		return errors.NewIOError("FILE_WRITE_FAILED",
			fmt.Sprintf("Cannot write file: %s", filename), err)
	}

	return nil
}

// ValidateAndReadFiles validates and reads multiple input files
func (fp *FileProcessor) ValidateAndReadFiles(filenames ...string) ([]string, error) {
	contents := make([]string, len(filenames))

	for i, filename := range filenames {
		if err := utils.ValidateInputFile(filename, fp.maxFileSize); err != nil {
			return nil, errors.NewValidationError("INVALID_INPUT_FILE",
				fmt.Sprintf("Invalid file %s", filename), err)
		}

		content, err := fp.ReadFile(filename)
		if err != nil {
			return nil, err
		}

		contents[i] = content
	}

	return contents, nil
}

// ReadDocument loads a JSON or YAML résumé file. The content is checked
// against the résumé schema before it is decoded.
func (fp *FileProcessor) ReadDocument(filename string) (types.ResumeDocument, error) {
	contents, err := fp.ValidateAndReadFiles(filename)
	if err != nil {
		return types.ResumeDocument{}, err
	}
	doc, err := DecodeDocument([]byte(contents[0]), utils.IsYAMLFile(filename))
	if err != nil {
		if appErr, ok := errors.As(err); ok {
			return types.ResumeDocument{}, appErr.WithContext("file", filename)
		}
		return types.ResumeDocument{}, err
	}
	return doc, nil
}

// ReadJobDescription loads a job posting as-is; HTML is normalized later by
// its consumers. An empty filename yields an empty description.
func (fp *FileProcessor) ReadJobDescription(filename string) (string, error) {
	if filename == "" {
		return "", nil
	}
	if !utils.IsTextFile(filename) && fp.logger != nil {
		fp.logger.Warn("Job description may not be a text file", "filename", filename)
	}
	contents, err := fp.ValidateAndReadFiles(filename)
	if err != nil {
		return "", err
	}
	return contents[0], nil
}

// DecodeDocument validates and decodes raw résumé bytes. YAML input is
// converted to JSON first so both formats share one schema.
func DecodeDocument(raw []byte, isYAML bool) (types.ResumeDocument, error) {
	var doc types.ResumeDocument

	if isYAML {
		var tree any
		if err := yaml.Unmarshal(raw, &tree); err != nil {
			return doc, errors.NewInputShapeError("document is not valid YAML", err)
		}
		converted, err := json.Marshal(tree)
		if err != nil {
			return doc, errors.NewInputShapeError("YAML document cannot be represented as JSON", err)
		}
		raw = converted
	}

	if err := schema.ValidateResume(raw); err != nil {
		return doc, err
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return doc, errors.NewInputShapeError("document does not match the resume shape", err)
	}
	doc.Normalize()
	return doc, nil
}

// ValidateOutputFile validates output file path
func (fp *FileProcessor) ValidateOutputFile(filename string) error {
	if filename == "" {
		return nil // stdout is valid
	}

	if err := utils.ValidateOutputFile(filename); err != nil {
		return errors.NewValidationError("INVALID_OUTPUT_FILE",
			fmt.Sprintf("Invalid output file: %s", filename), err)
	}

	return nil
}
