package profiles

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeProfile(t *testing.T, dir, name string, scripts []string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	raw, err := json.Marshal(fileDescription{Name: "test-profile", Scripts: scripts})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, raw, 0o644))
	return path
}

func writeScriptAndManifest(t *testing.T, scriptDir, name string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(scriptDir, name), []byte("// noop"), 0o644))
	manifest, err := json.Marshal(Manifest{Name: name})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(scriptDir, manifestPathFor(name)), manifest, 0o644))
}

func TestLoadAndVerifyHappyPath(t *testing.T) {
	profileDir := t.TempDir()
	scriptDir := t.TempDir()

	writeScriptAndManifest(t, scriptDir, "rainbow.js")
	path := writeProfile(t, profileDir, "gaming.json", []string{"rainbow.js"})

	p, err := Load(path, scriptDir)
	require.NoError(t, err)
	assert.Equal(t, "test-profile", p.ID)
	require.Len(t, p.Scripts, 1)

	require.NoError(t, p.Verify())
	assert.Equal(t, "rainbow.js", p.Scripts[0].Manifest().Name)
}

func TestVerifyFailsFastOnMissingManifest(t *testing.T) {
	profileDir := t.TempDir()
	scriptDir := t.TempDir()

	// script X has both files, script Y is missing its manifest
	writeScriptAndManifest(t, scriptDir, "x.js")
	require.NoError(t, os.WriteFile(filepath.Join(scriptDir, "y.js"), []byte("// noop"), 0o644))

	path := writeProfile(t, profileDir, "broken.json", []string{"x.js", "y.js"})

	p, err := Load(path, scriptDir)
	require.NoError(t, err)

	err = p.Verify()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "y.js")
}
