// Package ui renders command results as styled terminal output, plain text
// or JSON.
package ui

import (
	"io"

	"github.com/arthur-debert/changepack/pkg/errors"
)

// Report is a command result that can describe itself to a person
type Report interface {
	// Status returns a one-line outcome and whether it is a success
	Status() (string, bool)
	// Markdown returns the report body
	Markdown() string
}

// Renderer writes results, errors and messages in one format
type Renderer interface {
	RenderResult(result interface{}) error
	RenderError(err error) error
	RenderMessage(msg string) error
}

// NewRenderer returns the renderer for format, detecting the format of
// output when format is FormatAuto
func NewRenderer(format Format, output io.Writer) (Renderer, error) {
	if format == FormatAuto {
		format = DetectFormat(output)
	}
	switch format {
	case FormatTerminal:
		return newTerminal(output), nil
	case FormatText:
		return newText(output), nil
	case FormatJSON:
		return newJSON(output), nil
	default:
		return nil, errors.Newf(errors.ErrInvalidInput, "unknown format: %v", format)
	}
}
