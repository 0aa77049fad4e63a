package types

import (
	"fmt"
	"strings"
	"time"
)

// ChangeType is a set of change flags. A single change may carry several,
// e.g. a merge that also edits ("edit, merge").
type ChangeType uint32

// Change flags, using the TFVC bit values
const (
	ChangeNone         ChangeType = 0
	ChangeAdd          ChangeType = 1 << 0
	ChangeEdit         ChangeType = 1 << 1
	ChangeEncoding     ChangeType = 1 << 2
	ChangeRename       ChangeType = 1 << 3
	ChangeDelete       ChangeType = 1 << 4
	ChangeUndelete     ChangeType = 1 << 5
	ChangeBranch       ChangeType = 1 << 6
	ChangeMerge        ChangeType = 1 << 7
	ChangeLock         ChangeType = 1 << 8
	ChangeRollback     ChangeType = 1 << 9
	ChangeSourceRename ChangeType = 1 << 10
	ChangeTargetRename ChangeType = 1 << 11
	ChangeProperty     ChangeType = 1 << 12
)

var changeTypeNames = []struct {
	flag ChangeType
	name string
}{
	{ChangeAdd, "add"},
	{ChangeEdit, "edit"},
	{ChangeEncoding, "encoding"},
	{ChangeRename, "rename"},
	{ChangeDelete, "delete"},
	{ChangeUndelete, "undelete"},
	{ChangeBranch, "branch"},
	{ChangeMerge, "merge"},
	{ChangeLock, "lock"},
	{ChangeRollback, "rollback"},
	{ChangeSourceRename, "sourceRename"},
	{ChangeTargetRename, "targetRename"},
	{ChangeProperty, "property"},
}

// Has reports whether every bit of flag is set
func (c ChangeType) Has(flag ChangeType) bool {
	return c&flag == flag
}

// IsAdd reports whether the change adds the item
func (c ChangeType) IsAdd() bool { return c.Has(ChangeAdd) }

// IsDelete reports whether the change deletes the item
func (c ChangeType) IsDelete() bool { return c.Has(ChangeDelete) }

// IsMerge reports whether the change is a merge
func (c ChangeType) IsMerge() bool { return c.Has(ChangeMerge) }

// String renders the flags the way TFVC does: "add, edit, encoding"
func (c ChangeType) String() string {
	if c == ChangeNone {
		return "none"
	}
	var parts []string
	for _, n := range changeTypeNames {
		if c.Has(n.flag) {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, ", ")
}

// ParseChangeType parses a comma separated list of change flags.
// Names are matched case-insensitively.
func ParseChangeType(s string) (ChangeType, error) {
	var ct ChangeType
	for _, raw := range strings.Split(s, ",") {
		name := strings.TrimSpace(raw)
		if name == "" || strings.EqualFold(name, "none") {
			continue
		}
		found := false
		for _, n := range changeTypeNames {
			if strings.EqualFold(n.name, name) {
				ct |= n.flag
				found = true
				break
			}
		}
		if !found {
			return ChangeNone, fmt.Errorf("unknown change type %q", name)
		}
	}
	return ct, nil
}

// ItemKind distinguishes files from folders
type ItemKind int

const (
	ItemFile ItemKind = iota
	ItemFolder
)

func (k ItemKind) String() string {
	if k == ItemFolder {
		return "folder"
	}
	return "file"
}

// Item is a version-controlled file or folder as seen by one change
type Item struct {
	// ServerPath is the server path, e.g. $/Project/Main/web.config
	ServerPath string
	Kind       ItemKind
	// Version is the changeset the item content belongs to
	Version int
}

// IsFile reports whether the item is a file
func (i Item) IsFile() bool { return i.Kind == ItemFile }

// Change is one item mutation within a changeset
type Change struct {
	Type ChangeType
	Item Item
}

// Changeset is an atomic set of changes recorded by the backend
type Changeset struct {
	ID        int
	Owner     string
	Comment   string
	CreatedAt time.Time
	Changes   []Change
}
