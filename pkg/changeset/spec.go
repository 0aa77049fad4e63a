// Package changeset turns a changeset specification into the ordered list
// of changesets a packaging run walks.
//
// Three forms are accepted:
//
//	102          a single changeset
//	100,102,101  a list, walked newest first
//	100~102      an inclusive range, resolved by a history query
package changeset

import (
	"sort"
	"strconv"
	"strings"

	"github.com/arthur-debert/changepack/pkg/errors"
)

// Kind is the form of a changeset specification
type Kind int

const (
	KindSingle Kind = iota
	KindList
	KindRange
)

func (k Kind) String() string {
	switch k {
	case KindList:
		return "list"
	case KindRange:
		return "range"
	default:
		return "single"
	}
}

const (
	listSeparator  = ","
	rangeSeparator = "~"
	nameSeparator  = "_"
)

// Spec is a parsed changeset specification
type Spec struct {
	Kind Kind
	// IDs holds the ids in input order for single and list specs,
	// duplicates included
	IDs []int
	// From and To are the range bounds as given
	From int
	To   int
}

// Single returns a spec for one changeset
func Single(id int) Spec {
	return Spec{Kind: KindSingle, IDs: []int{id}}
}

// List returns a spec for the given changesets
func List(ids ...int) Spec {
	return Spec{Kind: KindList, IDs: append([]int(nil), ids...)}
}

// Range returns a spec for the inclusive range from~to
func Range(from, to int) Spec {
	return Spec{Kind: KindRange, From: from, To: to}
}

// ParseSpec parses "102", "100,101,102" or "100~102". It fails with
// ErrInvalidSpec when a token is not a positive integer or a range does not
// have exactly two bounds.
func ParseSpec(s string) (Spec, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Spec{}, errors.New(errors.ErrInvalidSpec, "changeset specification is empty")
	}

	if strings.Contains(s, rangeSeparator) {
		parts := strings.Split(s, rangeSeparator)
		if len(parts) != 2 {
			return Spec{}, errors.Newf(errors.ErrInvalidSpec,
				"range %q must have exactly two bounds", s).WithDetail("spec", s)
		}
		from, err := parseID(parts[0], s)
		if err != nil {
			return Spec{}, err
		}
		to, err := parseID(parts[1], s)
		if err != nil {
			return Spec{}, err
		}
		return Range(from, to), nil
	}

	if strings.Contains(s, listSeparator) {
		var ids []int
		for _, token := range strings.Split(s, listSeparator) {
			id, err := parseID(token, s)
			if err != nil {
				return Spec{}, err
			}
			ids = append(ids, id)
		}
		return List(ids...), nil
	}

	id, err := parseID(s, s)
	if err != nil {
		return Spec{}, err
	}
	return Single(id), nil
}

func parseID(token, spec string) (int, error) {
	token = strings.TrimSpace(token)
	id, err := strconv.Atoi(token)
	if err != nil || id <= 0 {
		return 0, errors.Newf(errors.ErrInvalidSpec, "%q is not a valid changeset id", token).
			WithDetail("spec", spec)
	}
	return id, nil
}

// Bounds returns the range bounds in ascending order
func (s Spec) Bounds() (int, int) {
	if s.From > s.To {
		return s.To, s.From
	}
	return s.From, s.To
}

// Descending returns the ids of a single or list spec, newest first.
// Duplicates are kept.
func (s Spec) Descending() []int {
	ids := append([]int(nil), s.IDs...)
	sort.SliceStable(ids, func(i, j int) bool { return ids[i] > ids[j] })
	return ids
}

// Name is the base name of the artifacts produced for the spec: the ids
// newest first joined with "_", or "from~to" for a range
func (s Spec) Name() string {
	if s.Kind == KindRange {
		return strconv.Itoa(s.From) + rangeSeparator + strconv.Itoa(s.To)
	}
	ids := s.Descending()
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, nameSeparator)
}

// String renders the spec back in its input form
func (s Spec) String() string {
	if s.Kind == KindRange {
		return s.Name()
	}
	parts := make([]string, len(s.IDs))
	for i, id := range s.IDs {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, listSeparator)
}
