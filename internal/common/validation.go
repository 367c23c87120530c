package common

import (
	"fmt"
	"slices"

	"atsscorer/internal/formatters"
)

// ValidateOutputFormat validates format against configured supported formats
func ValidateOutputFormat(format string, supportedFormats []string) error {
	if len(supportedFormats) == 0 {
		return nil // No restrictions configured
	}

	if slices.Contains(supportedFormats, format) {
		return nil
	}

	return fmt.Errorf("unsupported output format '%s'. Supported formats: %v",
		format, supportedFormats)
}

// ResolveOutputFormat returns requested, or fallback when requested is
// empty, after checking it against supportedFormats.
func ResolveOutputFormat(requested, fallback string, supportedFormats []string) (string, error) {
	format := requested
	if format == "" {
		format = fallback
	}
	if err := ValidateOutputFormat(format, supportedFormats); err != nil {
		return "", err
	}
	return format, nil
}

// GetSupportedFormats returns the configured formats, or every registered
// format when none are configured.
func GetSupportedFormats(supportedFormats []string) []string {
	if len(supportedFormats) > 0 {
		return supportedFormats
	}
	return formatters.GlobalRegistry.GetSupportedFormats()
}
