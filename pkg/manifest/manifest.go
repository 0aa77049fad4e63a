// Package manifest describes a packaging run in a YAML sidecar written next
// to the archives.
package manifest

import (
	"bytes"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/arthur-debert/changepack/pkg/archive"
	"github.com/arthur-debert/changepack/pkg/errors"
	"github.com/arthur-debert/changepack/pkg/reconcile"
	"github.com/arthur-debert/changepack/pkg/verify"
)

// Version is the manifest format version
const Version = 1

// Manifest is the record of one packaging run
type Manifest struct {
	Version      int                                    `yaml:"version"`
	RunID        string                                 `yaml:"run_id"`
	CreatedAt    time.Time                              `yaml:"created_at"`
	Spec         string                                 `yaml:"spec"`
	Name         string                                 `yaml:"name"`
	Changesets   []int                                  `yaml:"changesets"`
	Deploy       *Archive                               `yaml:"deploy,omitempty"`
	Backup       *Archive                               `yaml:"backup,omitempty"`
	DeleteScript string                                 `yaml:"delete_script,omitempty"`
	Deletions    []reconcile.Deletion                   `yaml:"deletions,omitempty"`
	Verification *verify.Result                         `yaml:"verification,omitempty"`
	Summary      map[reconcile.Pass]reconcile.PassCount `yaml:"summary,omitempty"`
}

// Archive describes one written archive
type Archive struct {
	Path    string                 `yaml:"path"`
	Bytes   int64                  `yaml:"bytes"`
	Entries []archive.EntrySummary `yaml:"entries"`
}

// NewRunID returns a fresh run identifier
func NewRunID() string {
	return uuid.NewString()
}

// New starts a manifest for a run over the given plan
func New(runID, spec, name string, plan *reconcile.Plan) *Manifest {
	m := &Manifest{
		Version:   Version,
		RunID:     runID,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
		Spec:      spec,
		Name:      name,
	}
	if plan != nil {
		m.Changesets = plan.Changesets
		m.Deletions = plan.Deletions
		m.Summary = plan.Summary
	}
	return m
}

// FromSummary converts an archive build summary
func FromSummary(s *archive.Summary) *Archive {
	if s == nil {
		return nil
	}
	return &Archive{Path: s.Path, Bytes: s.Bytes, Entries: s.Entries}
}

// Render encodes the manifest as YAML
func Render(m *Manifest) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(m); err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "failed to encode manifest")
	}
	if err := enc.Close(); err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "failed to encode manifest")
	}
	return buf.Bytes(), nil
}

// Parse decodes a manifest written by Render
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrap(err, errors.ErrInvalidInput, "invalid manifest")
	}
	if m.RunID == "" {
		return nil, errors.New(errors.ErrInvalidInput, "manifest has no run id")
	}
	return &m, nil
}
