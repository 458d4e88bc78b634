package reporting

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// DefaultJSONFormatter implements JSON output functionality
type DefaultJSONFormatter struct{}

// NewDefaultJSONFormatter creates a new JSON formatter
func NewDefaultJSONFormatter() *DefaultJSONFormatter {
	return &DefaultJSONFormatter{}
}

// Format renders v as indented JSON
func (f *DefaultJSONFormatter) Format(v any) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}

// Print writes v as indented JSON followed by a newline
func (f *DefaultJSONFormatter) Print(w io.Writer, v any) error {
	data, err := f.Format(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// WriteJSON writes v to path, creating parent directories
func (f *DefaultJSONFormatter) WriteJSON(v any, path string) error {
	data, err := f.Format(v)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	return os.WriteFile(path, data, 0644)
}

// WriteJSON is a convenience function using the default formatter
func WriteJSON(v any, path string) error {
	return NewDefaultJSONFormatter().WriteJSON(v, path)
}
