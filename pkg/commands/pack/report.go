package pack

import (
	"fmt"
	"strings"

	"github.com/arthur-debert/changepack/pkg/archive"
	"github.com/arthur-debert/changepack/pkg/commands/plan"
)

// Status implements ui.Report
func (r *Result) Status() (string, bool) {
	switch {
	case r.DryRun:
		return fmt.Sprintf("Dry run %s: %s", r.Name, plan.Counts(r.Plan.Plan)), true
	case r.Failed():
		m := r.Verification.Mismatch
		return fmt.Sprintf("Packaged %s, but the backup does not match %s", r.Name, m.DiskPath), false
	default:
		return fmt.Sprintf("Packaged %s: %s", r.Name, plan.Counts(r.Plan.Plan)), true
	}
}

// Markdown implements ui.Report
func (r *Result) Markdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Package %s\n\n", r.Name)
	fmt.Fprintf(&b, "Run `%s`, changesets %s\n\n", r.RunID, joinInts(r.Changesets))

	if !r.DryRun {
		b.WriteString("## Artifacts\n\n")
		writeArchive(&b, "Deploy archive", r.Deploy)
		writeArchive(&b, "Backup archive", r.Backup)
		if r.DeleteScript != "" {
			fmt.Fprintf(&b, "- Delete script: `%s`\n", r.DeleteScript)
		}
		if r.Manifest != "" {
			fmt.Fprintf(&b, "- Manifest: `%s`\n", r.Manifest)
		}
		b.WriteString("\n")
	}

	if v := r.Verification; v != nil {
		b.WriteString("## Verification\n\n")
		if v.OK {
			fmt.Fprintf(&b, "%d files match `%s`\n\n", v.Checked, v.Dir)
		} else {
			m := v.Mismatch
			fmt.Fprintf(&b, "`%s` differs from `%s` (archive %s, disk %s)\n\n", m.Name, m.DiskPath, m.ArchiveHash, m.DiskHash)
			if m.Diff != "" {
				fmt.Fprintf(&b, "```diff\n%s```\n\n", m.Diff)
			}
		}
	}

	plan.WriteMarkdown(&b, r.Plan.Plan)
	return b.String()
}

func writeArchive(b *strings.Builder, label string, s *archive.Summary) {
	if s == nil {
		return
	}
	fmt.Fprintf(b, "- %s: `%s` (%d entries, %d bytes)\n", label, s.Path, len(s.Entries), s.Bytes)
}

func joinInts(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprint(id)
	}
	return strings.Join(parts, ", ")
}
