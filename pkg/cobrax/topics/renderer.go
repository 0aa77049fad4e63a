package topics

import (
	"github.com/charmbracelet/glamour"
)

// Renderer formats topic content for the terminal
type Renderer interface {
	// Render takes raw content and its file extension
	Render(content string, ext string) string
}

// PlainRenderer returns content as-is
type PlainRenderer struct{}

// Render returns the content unchanged
func (PlainRenderer) Render(content string, ext string) string {
	return content
}

// GlamourRenderer renders markdown topics with glamour. Other formats pass
// through untouched, as does anything glamour fails on.
type GlamourRenderer struct {
	// Width wraps the output; 0 keeps glamour's default
	Width int
}

// NewGlamourRenderer creates a markdown renderer that picks its style from
// the terminal background
func NewGlamourRenderer() *GlamourRenderer {
	return &GlamourRenderer{Width: 100}
}

func (r *GlamourRenderer) Render(content string, ext string) string {
	if ext != ".md" {
		return content
	}
	opts := []glamour.TermRendererOption{glamour.WithAutoStyle()}
	if r.Width > 0 {
		opts = append(opts, glamour.WithWordWrap(r.Width))
	}
	tr, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return content
	}
	if out, err := tr.Render(content); err == nil {
		return out
	}
	return content
}
