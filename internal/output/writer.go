// Package output serializes scan results and run summaries for the CLI.
package output

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Format represents output format types.
type Format string

const (
	FormatJSON  Format = "json"
	FormatJSONL Format = "jsonl"
	FormatYAML  Format = "yaml"
)

// Writer serializes a result set to one destination.
type Writer interface {
	// Write buffers or emits a single item.
	Write(data any) error

	// Flush ensures all buffered data reaches the destination.
	Flush() error
}

// NewWriter creates a writer for the specified format.
func NewWriter(w io.Writer, format Format) (Writer, error) {
	switch format {
	case FormatJSON:
		return &jsonWriter{w: bufio.NewWriter(w)}, nil
	case FormatJSONL:
		return &jsonlWriter{w: bufio.NewWriter(w)}, nil
	case FormatYAML:
		return &yamlWriter{w: bufio.NewWriter(w)}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// jsonWriter buffers items and flushes them as one indented JSON array.
type jsonWriter struct {
	w     *bufio.Writer
	items []any
}

func (j *jsonWriter) Write(data any) error {
	j.items = append(j.items, data)
	return nil
}

func (j *jsonWriter) Flush() error {
	out, err := json.MarshalIndent(j.items, "", "  ")
	if err != nil {
		return err
	}
	if _, err := j.w.Write(out); err != nil {
		return err
	}
	if _, err := j.w.WriteString("\n"); err != nil {
		return err
	}
	return j.w.Flush()
}

// jsonlWriter emits one JSON document per line as items arrive.
type jsonlWriter struct {
	w *bufio.Writer
}

func (j *jsonlWriter) Write(data any) error {
	out, err := json.Marshal(data)
	if err != nil {
		return err
	}
	if _, err := j.w.Write(out); err != nil {
		return err
	}
	if _, err := j.w.WriteString("\n"); err != nil {
		return err
	}
	return nil
}

func (j *jsonlWriter) Flush() error {
	return j.w.Flush()
}

// yamlWriter buffers items and flushes them as one YAML sequence.
type yamlWriter struct {
	w     *bufio.Writer
	items []any
}

func (y *yamlWriter) Write(data any) error {
	y.items = append(y.items, data)
	return nil
}

func (y *yamlWriter) Flush() error {
	out, err := yaml.Marshal(y.items)
	if err != nil {
		return err
	}
	if _, err := y.w.Write(out); err != nil {
		return err
	}
	return y.w.Flush()
}
