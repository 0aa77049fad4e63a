package artifacts

import (
	"bytes"
	"path"
	"strings"
	"text/template"

	"github.com/arthur-debert/changepack/pkg/errors"
	"github.com/arthur-debert/changepack/pkg/reconcile"
)

// DefaultDeleteCommand removes one file on a Windows target
const DefaultDeleteCommand = `del /F /Q "{{.Path}}"`

// DeleteLine is the data a delete command template is executed with
type DeleteLine struct {
	// Path is the file under the target directory
	Path       string
	Name       string
	ServerPath string
	Changeset  int
}

// RenderDeleteScript renders one command per deletion against target.
// A target written with backslashes gets backslash paths and CRLF line
// endings. It returns nil when there is nothing to delete.
func RenderDeleteScript(command, target string, deletions []reconcile.Deletion) ([]byte, error) {
	if len(deletions) == 0 {
		return nil, nil
	}
	if command == "" {
		command = DefaultDeleteCommand
	}
	tmpl, err := template.New("delete").Option("missingkey=error").Parse(command)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigValid, "invalid delete command template").
			WithDetail("template", command)
	}

	windows := strings.Contains(target, `\`)
	eol := "\n"
	if windows {
		eol = "\r\n"
	}

	var buf bytes.Buffer
	for _, d := range deletions {
		line := DeleteLine{
			Path:       joinTarget(target, d.Name, windows),
			Name:       d.Name,
			ServerPath: d.ServerPath,
			Changeset:  d.Changeset,
		}
		if err := tmpl.Execute(&buf, line); err != nil {
			return nil, errors.Wrapf(err, errors.ErrConfigValid, "failed to render delete command for %s", d.Name)
		}
		buf.WriteString(eol)
	}
	return buf.Bytes(), nil
}

func joinTarget(target, name string, windows bool) string {
	if windows {
		return strings.TrimRight(target, `\`) + `\` + strings.ReplaceAll(name, "/", `\`)
	}
	if target == "" {
		return name
	}
	return path.Join(target, name)
}
