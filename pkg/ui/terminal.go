package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/pterm/pterm"

	"github.com/arthur-debert/changepack/pkg/logging"
)

var (
	okColor   = lipgloss.AdaptiveColor{Light: "#2E7D32", Dark: "#81C784"}
	failColor = lipgloss.AdaptiveColor{Light: "#C62828", Dark: "#E57373"}
)

type terminalRenderer struct {
	w        io.Writer
	styles   *lipgloss.Renderer
	markdown func(string) (string, error)
}

func newTerminal(w io.Writer) *terminalRenderer {
	return &terminalRenderer{
		w:        w,
		styles:   lipgloss.NewRenderer(w),
		markdown: renderMarkdown,
	}
}

// renderMarkdown renders a report body with glamour, falling back to the
// raw markdown when glamour cannot be set up
func renderMarkdown(body string) (string, error) {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return body, err
	}
	out, err := renderer.Render(body)
	if err != nil {
		return body, err
	}
	return out, nil
}

func (r *terminalRenderer) statusBlock(status string, ok bool) string {
	color := okColor
	if !ok {
		color = failColor
	}
	return r.styles.NewStyle().
		Bold(true).
		Foreground(color).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(color).
		Padding(0, 1).
		Render(status)
}

func (r *terminalRenderer) RenderResult(result interface{}) error {
	report, ok := result.(Report)
	if !ok {
		_, err := fmt.Fprintf(r.w, "%+v\n", result)
		return err
	}

	status, success := report.Status()
	if _, err := fmt.Fprintln(r.w, r.statusBlock(status, success)); err != nil {
		return err
	}

	body := report.Markdown()
	if strings.TrimSpace(body) == "" {
		return nil
	}
	rendered, err := r.markdown(body)
	if err != nil {
		logger := logging.GetLogger("ui")
		logger.Debug().Err(err).Msg("Markdown rendering failed, printing raw report")
	}
	_, err = fmt.Fprint(r.w, rendered)
	return err
}

func (r *terminalRenderer) RenderError(err error) error {
	_, werr := fmt.Fprintf(r.w, "%s %s\n", pterm.Error.Prefix.Text, pterm.Error.MessageStyle.Sprint(err.Error()))
	return werr
}

func (r *terminalRenderer) RenderMessage(msg string) error {
	_, err := fmt.Fprintf(r.w, "%s %s\n", pterm.Info.Prefix.Text, msg)
	return err
}
