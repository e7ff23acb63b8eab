package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/davecgh/go-spew/spew"
	"gopkg.in/yaml.v3"
)

// Format is an output encoding understood by Render.
type Format string

const (
	FormatJSON    Format = "json"     // indented JSON
	FormatJSONMin Format = "json-min" // compact JSON
	FormatYAML    Format = "yaml"
	FormatSpew    Format = "spew" // Go value dump, for debugging
)

// Formats lists every supported format.
var Formats = []Format{FormatJSON, FormatJSONMin, FormatYAML, FormatSpew}

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	for _, f := range Formats {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown output format %q", s)
}

var spewConfig = spew.ConfigState{
	Indent:                  "  ",
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

// ============================================================================
// API Function 7: Render
// ============================================================================

// Render encodes v in the given format. The output always ends in a
// newline.
func Render(v any, format Format) ([]byte, error) {
	var buf bytes.Buffer
	r, err := NewRenderer(&buf, format)
	if err != nil {
		return nil, err
	}
	if err := r.Render(v); err != nil {
		return nil, err
	}
	if err := r.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Renderer writes a stream of values to w. JSON values are written one
// after another, YAML values as separate documents of one stream.
type Renderer struct {
	w      io.Writer
	format Format
	yaml   *yaml.Encoder
}

// NewRenderer returns a Renderer for format. Close must be called once all
// values are written.
func NewRenderer(w io.Writer, format Format) (*Renderer, error) {
	if _, err := ParseFormat(string(format)); err != nil {
		return nil, err
	}
	r := &Renderer{w: w, format: format}
	if format == FormatYAML {
		r.yaml = yaml.NewEncoder(w)
		r.yaml.SetIndent(2)
	}
	return r, nil
}

// Render writes v. Every value ends in a newline.
func (r *Renderer) Render(v any) error {
	var out []byte
	switch r.format {
	case FormatJSON:
		b, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to render json: %w", err)
		}
		out = append(b, '\n')

	case FormatJSONMin:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to render json: %w", err)
		}
		out = append(b, '\n')

	case FormatYAML:
		if err := r.yaml.Encode(v); err != nil {
			return fmt.Errorf("failed to render yaml: %w", err)
		}
		return nil

	case FormatSpew:
		out = []byte(spewConfig.Sdump(v))
	}

	_, err := r.w.Write(out)
	return err
}

// Close flushes any buffered output.
func (r *Renderer) Close() error {
	if r.yaml == nil {
		return nil
	}
	if err := r.yaml.Close(); err != nil {
		return fmt.Errorf("failed to render yaml: %w", err)
	}
	return nil
}
