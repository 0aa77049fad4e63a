package ui

import (
	"fmt"
	"io"
	"strings"
)

type textRenderer struct {
	w io.Writer
}

func newText(w io.Writer) *textRenderer {
	return &textRenderer{w: w}
}

func (r *textRenderer) RenderResult(result interface{}) error {
	report, ok := result.(Report)
	if !ok {
		_, err := fmt.Fprintf(r.w, "%+v\n", result)
		return err
	}
	status, _ := report.Status()
	if _, err := fmt.Fprintln(r.w, status); err != nil {
		return err
	}
	body := strings.TrimRight(report.Markdown(), "\n")
	if body == "" {
		return nil
	}
	_, err := fmt.Fprintf(r.w, "\n%s\n", body)
	return err
}

func (r *textRenderer) RenderError(err error) error {
	_, werr := fmt.Fprintf(r.w, "Error: %v\n", err)
	return werr
}

func (r *textRenderer) RenderMessage(msg string) error {
	_, err := fmt.Fprintln(r.w, msg)
	return err
}
