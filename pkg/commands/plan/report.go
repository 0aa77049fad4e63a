package plan

import (
	"fmt"
	"strings"

	"github.com/arthur-debert/changepack/pkg/reconcile"
)

// Status implements ui.Report
func (r *Result) Status() (string, bool) {
	return fmt.Sprintf("Plan %s: %s", r.Name, Counts(r.Plan)), true
}

// Markdown implements ui.Report
func (r *Result) Markdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Plan %s\n\n", r.Name)
	fmt.Fprintf(&b, "Changesets: %s\n\n", joinInts(r.Changesets))
	WriteMarkdown(&b, r.Plan)
	return b.String()
}

// Counts summarizes a plan in one line
func Counts(p *reconcile.Plan) string {
	if p == nil {
		return "nothing planned"
	}
	parts := []string{fmt.Sprintf("%d to deploy", len(p.Deploy))}
	if p.BackupDir != "" {
		parts = append(parts, fmt.Sprintf("%d to back up", len(p.Backup)))
	}
	parts = append(parts, fmt.Sprintf("%d to delete", len(p.Deletions)))
	return strings.Join(parts, ", ")
}

// WriteMarkdown writes the entry lists of a plan as markdown sections
func WriteMarkdown(b *strings.Builder, p *reconcile.Plan) {
	if p == nil {
		return
	}

	b.WriteString("## Deploy\n\n")
	writeEntries(b, entries(p.Deploy))

	if p.BackupDir != "" {
		fmt.Fprintf(b, "## Backup from `%s`\n\n", p.BackupDir)
		writeEntries(b, entries(p.Backup))
	}

	b.WriteString("## Delete\n\n")
	if len(p.Deletions) == 0 {
		b.WriteString("_nothing_\n\n")
	} else {
		b.WriteString("| File | Changeset |\n|---|---|\n")
		for _, d := range p.Deletions {
			fmt.Fprintf(b, "| `%s` | %d |\n", d.Name, d.Changeset)
		}
		b.WriteString("\n")
	}

	if len(p.Skipped) > 0 {
		b.WriteString("## Skipped\n\n| Pass | Item | Changeset | Reason |\n|---|---|---|---|\n")
		for _, s := range p.Skipped {
			fmt.Fprintf(b, "| %s | `%s` | %d | %s |\n", s.Pass, s.ServerPath, s.Changeset, s.Reason)
		}
		b.WriteString("\n")
	}
}

func writeEntries(b *strings.Builder, list []Entry) {
	if len(list) == 0 {
		b.WriteString("_nothing_\n\n")
		return
	}
	b.WriteString("| File | Changeset |\n|---|---|\n")
	for _, e := range list {
		fmt.Fprintf(b, "| `%s` | %d |\n", e.Name, e.Changeset)
	}
	b.WriteString("\n")
}

func joinInts(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprint(id)
	}
	return strings.Join(parts, ", ")
}
