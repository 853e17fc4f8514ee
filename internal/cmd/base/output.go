package base

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Output formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// ValidateFormat checks an output format name.
func ValidateFormat(format string) error {
	switch format {
	case "", FormatJSON, FormatYAML:
		return nil
	}
	return fmt.Errorf("unsupported output format %q, use json or yaml", format)
}

// Format renders v as indented JSON or as YAML.
func Format(format string, v any) (string, error) {
	switch format {
	case "", FormatJSON:
		out, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return "", fmt.Errorf("error encoding output: %w", err)
		}
		return string(out), nil
	case FormatYAML:
		// Round-trip through JSON so YAML keys follow the json tags.
		raw, err := json.Marshal(v)
		if err != nil {
			return "", fmt.Errorf("error encoding output: %w", err)
		}
		var generic any
		if err := json.Unmarshal(raw, &generic); err != nil {
			return "", fmt.Errorf("error encoding output: %w", err)
		}
		out, err := yaml.Marshal(generic)
		if err != nil {
			return "", fmt.Errorf("error encoding output: %w", err)
		}
		return strings.TrimRight(string(out), "\n"), nil
	}
	return "", ValidateFormat(format)
}
