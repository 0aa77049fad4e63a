package reconcile

import (
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/arthur-debert/changepack/pkg/errors"
)

// Exclusions decides which server paths are never packaged. A path is
// excluded when it contains any of the substrings or matches any of the
// doublestar globs.
type Exclusions struct {
	substrings []string
	globs      []string
}

// NewExclusions validates the globs and builds the exclusion set. Empty
// values are ignored.
func NewExclusions(substrings, globs []string) (*Exclusions, error) {
	e := &Exclusions{}
	for _, s := range substrings {
		if s != "" {
			e.substrings = append(e.substrings, s)
		}
	}
	for _, g := range globs {
		if g == "" {
			continue
		}
		if !doublestar.ValidatePattern(g) {
			return nil, errors.Newf(errors.ErrInvalidInput, "invalid exclusion glob %q", g).WithDetail("glob", g)
		}
		e.globs = append(e.globs, g)
	}
	return e, nil
}

// Excluded reports whether serverPath is excluded, and the rule that
// matched
func (e *Exclusions) Excluded(serverPath string) (bool, string) {
	if e == nil {
		return false, ""
	}
	for _, s := range e.substrings {
		if strings.Contains(serverPath, s) {
			return true, s
		}
	}
	for _, g := range e.globs {
		if ok, _ := doublestar.Match(g, serverPath); ok {
			return true, g
		}
	}
	return false, ""
}

// Empty reports whether no rule is configured
func (e *Exclusions) Empty() bool {
	return e == nil || (len(e.substrings) == 0 && len(e.globs) == 0)
}
