package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// loadPromptFiles replaces inline prompts with the content of any configured prompt files.
// Every missing file is reported before anything is read.
func (c *Config) loadPromptFiles() error {
	ops := []struct {
		name    string
		prompts *PromptConfig
	}{
		{"extract", &c.AI.Extract.Prompts},
		{"improve", &c.AI.Improve.Prompts},
	}

	var missing []string
	for _, op := range ops {
		for _, path := range []string{op.prompts.SystemFile, op.prompts.UserFile} {
			if path == "" {
				continue
			}
			if _, err := os.Stat(path); err != nil {
				missing = append(missing, fmt.Sprintf("%s prompt file not found: %s", op.name, path))
			}
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("prompt file validation failed:\n%s", strings.Join(missing, "\n"))
	}

	for _, op := range ops {
		if op.prompts.SystemFile != "" {
			content, err := loadPromptFromFile(op.prompts.SystemFile, "system", op.name)
			if err != nil {
				return err
			}
			op.prompts.System = content
		}
		if op.prompts.UserFile != "" {
			content, err := loadPromptFromFile(op.prompts.UserFile, "user", op.name)
			if err != nil {
				return err
			}
			op.prompts.User = content
		}
	}
	return nil
}

// loadPromptFromFile reads a prompt file and rejects empty content
func loadPromptFromFile(filePath, promptType, operation string) (string, error) {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve absolute path for %s %s prompt file '%s': %w", promptType, operation, filePath, err)
	}

	content, err := os.ReadFile(absPath)
	if err != nil {
		return "", fmt.Errorf("failed to read %s %s prompt file '%s': %w", promptType, operation, absPath, err)
	}

	trimmed := strings.TrimSpace(string(content))
	if trimmed == "" {
		return "", fmt.Errorf("%s %s prompt file '%s' is empty", promptType, operation, absPath)
	}

	log.Printf("[CONFIG] Loaded %s %s prompt from file: %s (%d characters)", promptType, operation, absPath, len(trimmed))
	return trimmed, nil
}
