// Package profiles implements the Profile / Script reference data model of
// spec.md §3: on-disk description loading, parameter bags, and the
// fail-fast accessibility check a profile switch requires before it can
// proceed.
package profiles

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// ScriptRef is a locator sufficient to find both a script's body and its
// sibling manifest. A reference is only valid once both paths have been
// confirmed accessible — see Verify.
type ScriptRef struct {
	Name     string // base file name, e.g. "rainbow.js"
	dir      string
	manifest Manifest
}

// ScriptPath returns the absolute path to the script body.
func (s ScriptRef) ScriptPath() string { return filepath.Join(s.dir, s.Name) }

// ManifestPath returns the absolute path to the script's sibling manifest.
func (s ScriptRef) ManifestPath() string { return manifestPathFor(s.ScriptPath()) }

// Manifest returns the parsed manifest for this script, populated by
// Verify.
func (s ScriptRef) Manifest() Manifest { return s.manifest }

func manifestPathFor(scriptPath string) string {
	ext := filepath.Ext(scriptPath)
	return scriptPath[:len(scriptPath)-len(ext)] + ".manifest.json"
}

// Manifest describes a script's declared parameters, as referenced by
// spec.md §3 ("a sibling manifest describing its declared parameters").
type Manifest struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters"`
}

// Profile is an immutable, loaded profile: an identifier plus an ordered
// script list plus a parameter bag, per spec.md §3. Once constructed by
// Load, a Profile is mutated only by Verify, which fills in each script's
// parsed manifest; a switch always constructs a new one.
type Profile struct {
	ID      string
	Path    string
	Scripts []ScriptRef
	Params  map[string]interface{}
}

// fileDescription is the on-disk JSON shape a profile file is parsed from.
// Parsing the description format itself is an external collaborator's
// concern per spec.md §1; this is the minimal shape the Profile Controller
// needs to consume (the script list and parameter bag).
type fileDescription struct {
	Name       string                 `json:"name"`
	Scripts    []string               `json:"scripts"`
	Parameters map[string]interface{} `json:"parameters"`
}

// Load parses the profile file at path and resolves its script references
// against scriptDir, without yet verifying accessibility (see Verify).
func Load(path, scriptDir string) (*Profile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading profile %s: %w", path, err)
	}

	var desc fileDescription
	if err := json.Unmarshal(raw, &desc); err != nil {
		return nil, fmt.Errorf("parsing profile %s: %w", path, err)
	}

	id := desc.Name
	if id == "" {
		id = filepath.Base(path)
	}

	scripts := make([]ScriptRef, 0, len(desc.Scripts))
	for _, name := range desc.Scripts {
		scripts = append(scripts, ScriptRef{Name: name, dir: scriptDir})
	}

	return &Profile{
		ID:      id,
		Path:    path,
		Scripts: scripts,
		Params:  desc.Parameters,
	}, nil
}

// Verify performs the pre-flight, fail-fast accessibility check spec.md
// §3/§4.7 requires before a switch proceeds: every script body and its
// sibling manifest must be accessible. It populates each ScriptRef's
// parsed Manifest as a side effect of the check, so the Profile Controller
// never has to re-read manifests once a switch has been accepted.
func (p *Profile) Verify() error {
	for i, ref := range p.Scripts {
		if _, err := os.Stat(ref.ScriptPath()); err != nil {
			return fmt.Errorf("script %q is not accessible: %w", ref.Name, err)
		}

		manifestPath := ref.ManifestPath()
		raw, err := os.ReadFile(manifestPath)
		if err != nil {
			return fmt.Errorf("manifest for script %q is not accessible: %w", ref.Name, err)
		}

		var m Manifest
		if err := json.Unmarshal(raw, &m); err != nil {
			return fmt.Errorf("manifest for script %q is malformed: %w", ref.Name, err)
		}
		ref.manifest = m
		p.Scripts[i] = ref
	}
	return nil
}
