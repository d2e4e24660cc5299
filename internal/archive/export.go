// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/qualys-vmdr/pkg/types"
)

// Export is the document written by ExportYAML and ExportJSON: the latest
// snapshot of each kind.
type Export struct {
	Snapshots []Snapshot     `json:"snapshots" yaml:"snapshots"`
	Reports   []types.Report `json:"reports,omitempty" yaml:"reports,omitempty"`
	Hosts     []types.Host   `json:"hosts,omitempty" yaml:"hosts,omitempty"`
}

// ExportYAML writes dir/export.yaml and returns its path.
func (s *Store) ExportYAML(ctx context.Context, dir string) (string, error) {
	doc, err := s.exportDoc(ctx)
	if err != nil {
		return "", err
	}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("marshaling YAML: %w", err)
	}
	return writeExport(dir, "export.yaml", data)
}

// ExportJSON writes dir/export.json and returns its path.
func (s *Store) ExportJSON(ctx context.Context, dir string) (string, error) {
	doc, err := s.exportDoc(ctx)
	if err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling JSON: %w", err)
	}
	return writeExport(dir, "export.json", data)
}

func writeExport(dir, name string, data []byte) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating export directory: %w", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}

func (s *Store) exportDoc(ctx context.Context) (Export, error) {
	var doc Export

	if snap, err := s.Latest(ctx, KindReports); err == nil {
		reports, err := s.Reports(ctx, snap.ID)
		if err != nil {
			return Export{}, err
		}
		doc.Snapshots = append(doc.Snapshots, snap)
		doc.Reports = reports
	} else if !errors.Is(err, ErrNoSnapshot) {
		return Export{}, err
	}

	if snap, err := s.Latest(ctx, KindHosts); err == nil {
		hosts, err := s.Hosts(ctx, snap.ID)
		if err != nil {
			return Export{}, err
		}
		doc.Snapshots = append(doc.Snapshots, snap)
		doc.Hosts = hosts
	} else if !errors.Is(err, ErrNoSnapshot) {
		return Export{}, err
	}

	if len(doc.Snapshots) == 0 {
		return Export{}, fmt.Errorf("nothing to export: %w", ErrNoSnapshot)
	}
	return doc, nil
}
