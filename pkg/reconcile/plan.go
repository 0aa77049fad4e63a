package reconcile

import (
	"github.com/arthur-debert/changepack/pkg/archive"
)

// Pass names a reconciliation pass
type Pass string

const (
	PassDeploy Pass = "deploy"
	PassBackup Pass = "backup"
	PassDelete Pass = "delete"
)

// Verdict is the outcome of classifying one change
type Verdict int

const (
	Skip Verdict = iota
	Include
)

func (v Verdict) String() string {
	if v == Include {
		return "include"
	}
	return "skip"
}

// Skip reasons
const (
	ReasonFolder          = "not a file"
	ReasonExcluded        = "excluded"
	ReasonAlreadyDeployed = "already deployed by a newer change"
	ReasonAlreadyBackedUp = "already backed up by a newer change"
	ReasonDeleted         = "deleted"
	ReasonAdded           = "added, nothing to restore"
	ReasonUnmapped        = "no mapping under the root"
	ReasonMissingSource   = "not found on disk"
	ReasonExists          = "still on disk"
	ReasonAlreadyListed   = "decided by a newer change"
)

// Decision is the classification of one change in one pass
type Decision struct {
	Verdict Verdict
	Reason  string
	// Name is the archive entry name, set whenever the item could be mapped
	Name string
	// Source is the on-disk file backing up the item (backup pass only)
	Source string
	// Pointer is set when the item is a pointer file
	Pointer bool
}

// Included reports whether the change was included
func (d Decision) Included() bool {
	return d.Verdict == Include
}

// Deletion is a file that no longer exists in the workspace and must be
// removed from the target
type Deletion struct {
	Name       string `json:"name" yaml:"name"`
	ServerPath string `json:"serverPath" yaml:"server_path"`
	Changeset  int    `json:"changeset" yaml:"changeset"`
}

// Skipped records a change left out of a pass
type Skipped struct {
	Pass       Pass   `json:"pass" yaml:"pass"`
	ServerPath string `json:"serverPath" yaml:"server_path"`
	Changeset  int    `json:"changeset" yaml:"changeset"`
	Change     string `json:"change" yaml:"change"`
	Reason     string `json:"reason" yaml:"reason"`
}

// Plan is the result of reconciling a changeset window
type Plan struct {
	Changesets []int              `json:"changesets" yaml:"changesets"`
	Deploy     []archive.Entry    `json:"-" yaml:"-"`
	Backup     []archive.Entry    `json:"-" yaml:"-"`
	Deletions  []Deletion         `json:"deletions" yaml:"deletions"`
	Skipped    []Skipped          `json:"skipped" yaml:"skipped"`
	BackupDir  string             `json:"backupDir,omitempty" yaml:"backup_dir,omitempty"`
	Summary    map[Pass]PassCount `json:"summary" yaml:"summary"`
}

// PassCount counts the decisions of one pass
type PassCount struct {
	Included int `json:"included" yaml:"included"`
	Skipped  int `json:"skipped" yaml:"skipped"`
}

// DeployNames returns the deploy entry names in archive order
func (p *Plan) DeployNames() []string {
	return names(p.Deploy)
}

// BackupNames returns the backup entry names in archive order
func (p *Plan) BackupNames() []string {
	return names(p.Backup)
}

func names(entries []archive.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Name
	}
	return out
}
