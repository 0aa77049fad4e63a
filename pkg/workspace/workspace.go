// Package workspace maps server paths to local folders the way a TFS
// workspace's working folders do.
//
// A workspace is a list of mappings, each binding a server folder ($/...) to
// a local folder. The most specific (longest) server folder wins, so a
// cloaked sub-folder hides part of a mapped tree. Server paths are compared
// case-insensitively.
package workspace

import (
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/arthur-debert/changepack/pkg/config"
	"github.com/arthur-debert/changepack/pkg/errors"
	"github.com/arthur-debert/changepack/pkg/logging"
)

// Mapping binds a server folder to a local folder. A cloaked mapping has no
// local folder and hides its server folder from the workspace.
type Mapping struct {
	Server string
	Local  string
	Cloak  bool
}

// Workspace implements types.Workspace over a fixed set of mappings
type Workspace struct {
	root     string
	mappings []Mapping
}

// New builds a workspace rooted at root. Relative local folders are resolved
// against root.
func New(root string, mappings ...Mapping) (*Workspace, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrFileAccess, "failed to resolve workspace root %s", root)
	}

	ws := &Workspace{root: filepath.Clean(absRoot)}
	for _, m := range mappings {
		server := normalizeServer(m.Server)
		if !strings.HasPrefix(server, "$/") {
			return nil, errors.Newf(errors.ErrInvalidInput, "server path must start with $/, got %q", m.Server)
		}
		local := ""
		if !m.Cloak {
			if m.Local == "" {
				return nil, errors.Newf(errors.ErrInvalidInput, "mapping for %s has no local folder", m.Server)
			}
			local = m.Local
			if !filepath.IsAbs(local) {
				local = filepath.Join(ws.root, local)
			}
			local = filepath.Clean(local)
		}
		ws.mappings = append(ws.mappings, Mapping{Server: server, Local: local, Cloak: m.Cloak})
	}

	// longest server folder first so the first match is the most specific
	sort.SliceStable(ws.mappings, func(i, j int) bool {
		return len(ws.mappings[i].Server) > len(ws.mappings[j].Server)
	})
	return ws, nil
}

// FromConfig builds the workspace described by the [workspace] section.
// When no mappings are configured, server_root is mapped onto root.
func FromConfig(cfg config.Workspace, root string) (*Workspace, error) {
	var mappings []Mapping
	for _, m := range cfg.Mappings {
		mappings = append(mappings, Mapping{Server: m.Server, Local: m.Local, Cloak: m.Cloak})
	}
	if len(mappings) == 0 && cfg.ServerRoot != "" {
		mappings = append(mappings, Mapping{Server: cfg.ServerRoot, Local: "."})
	}
	if len(mappings) == 0 {
		return nil, errors.New(errors.ErrConfigValid, "workspace has no mappings")
	}

	ws, err := New(root, mappings...)
	if err != nil {
		return nil, err
	}
	logger := logging.GetLogger("workspace")
	logger.Debug().
		Str("root", ws.root).
		Int("mappings", len(ws.mappings)).
		Msg("Workspace loaded")
	return ws, nil
}

// Root returns the absolute workspace root
func (w *Workspace) Root() string {
	return w.root
}

// Mappings returns the normalized mappings, most specific first
func (w *Workspace) Mappings() []Mapping {
	out := make([]Mapping, len(w.mappings))
	copy(out, w.mappings)
	return out
}

// LocalPathFor returns the local path of serverPath. It returns false when
// no mapping covers the path or the covering mapping is cloaked.
func (w *Workspace) LocalPathFor(serverPath string) (string, bool) {
	server := normalizeServer(serverPath)
	for _, m := range w.mappings {
		rest, ok := serverRel(m.Server, server)
		if !ok {
			continue
		}
		if m.Cloak {
			return "", false
		}
		if rest == "" {
			return m.Local, true
		}
		return filepath.Join(m.Local, filepath.FromSlash(rest)), true
	}
	return "", false
}

// ServerPathFor returns the server path mapped to localPath, using the
// mapping with the longest local folder covering it
func (w *Workspace) ServerPathFor(localPath string) (string, error) {
	abs, err := filepath.Abs(localPath)
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrFileAccess, "failed to resolve %s", localPath)
	}
	abs = filepath.Clean(abs)

	var best *Mapping
	var bestRel string
	for i := range w.mappings {
		m := &w.mappings[i]
		if m.Cloak {
			continue
		}
		rel, ok := localRel(m.Local, abs)
		if !ok {
			continue
		}
		if best == nil || len(m.Local) > len(best.Local) {
			best, bestRel = m, rel
		}
	}
	if best == nil {
		return "", errors.Newf(errors.ErrUnmappableItem, "%s is not mapped in the workspace", localPath).
			WithDetail("path", localPath)
	}

	server := best.Server
	if bestRel != "" {
		server = path.Join(server, filepath.ToSlash(bestRel))
	}

	// a cloak below the chosen mapping hides the path
	if _, ok := w.LocalPathFor(server); !ok {
		return "", errors.Newf(errors.ErrUnmappableItem, "%s is cloaked in the workspace", localPath).
			WithDetail("path", localPath)
	}
	return server, nil
}

// normalizeServer converts backslashes and drops a trailing separator
func normalizeServer(p string) string {
	p = strings.ReplaceAll(strings.TrimSpace(p), `\`, "/")
	if len(p) > 2 {
		p = strings.TrimRight(p, "/")
	}
	return p
}

// serverRel returns the part of p below folder, compared case-insensitively
func serverRel(folder, p string) (string, bool) {
	if len(p) < len(folder) || !strings.EqualFold(p[:len(folder)], folder) {
		return "", false
	}
	if len(p) == len(folder) {
		return "", true
	}
	if strings.HasSuffix(folder, "/") {
		return p[len(folder):], true
	}
	if p[len(folder)] != '/' {
		return "", false
	}
	return p[len(folder)+1:], true
}

func localRel(folder, p string) (string, bool) {
	rel, err := filepath.Rel(folder, p)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	if rel == "." {
		return "", true
	}
	return rel, true
}
