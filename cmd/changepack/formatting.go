package changepack

import (
	"os"
	"strings"
	"text/template"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/arthur-debert/changepack/pkg/ui"
)

// formatBold renders s in bold when stdout is a color terminal
func formatBold(s string) string {
	if ui.DetectFormat(os.Stdout) != ui.FormatTerminal {
		return s
	}
	return pterm.Bold.Sprint(s)
}

// initTemplateFormatting adds the bold/upper helpers used by the usage template
func initTemplateFormatting() {
	cobra.AddTemplateFuncs(template.FuncMap{
		"bold":  formatBold,
		"upper": strings.ToUpper,
		"boldUpper": func(s string) string {
			return formatBold(strings.ToUpper(s))
		},
	})
}
