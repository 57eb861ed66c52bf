package engine

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glimmerdev/glimmerd/internal/profiles"
)

func writeTestProfileFile(t *testing.T, dir, profileName, id string, scripts []string) string {
	t.Helper()
	desc := struct {
		Name    string   `json:"name"`
		Scripts []string `json:"scripts"`
	}{Name: id, Scripts: scripts}
	raw, err := json.Marshal(desc)
	require.NoError(t, err)
	path := filepath.Join(dir, profileName)
	require.NoError(t, os.WriteFile(path, raw, 0o644))
	return path
}

func writeTestScript(t *testing.T, scriptDir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(scriptDir, name), []byte(body), 0o644))
	manifest, err := json.Marshal(profiles.Manifest{Name: name})
	require.NoError(t, err)
	ext := filepath.Ext(name)
	manifestName := name[:len(name)-len(ext)] + ".manifest.json"
	require.NoError(t, os.WriteFile(filepath.Join(scriptDir, manifestName), manifest, 0o644))
}

func TestControllerSwitchHappyPath(t *testing.T) {
	scriptDir := t.TempDir()
	profileDir := t.TempDir()
	writeTestScript(t, scriptDir, "solid.js", "function on_render() { set_color_all(1,2,3,255); }")
	path := writeTestProfileFile(t, profileDir, "gaming.json", "gaming", []string{"solid.js"})

	reg := NewRegistry(4, 1)
	barriers := NewSet()
	ctrl := NewController(reg, barriers, scriptDir, 4, nil, nil, zerolog.Nop())

	require.NoError(t, ctrl.Switch(path, 0))
	assert.Len(t, ctrl.Workers(), 1)
	assert.Equal(t, "gaming", reg.ActiveProfile().ID)
	assert.Equal(t, "gaming.json", reg.SlotProfile(0))
}

func TestControllerSwitchAbortsOnVerificationFailure(t *testing.T) {
	scriptDir := t.TempDir()
	profileDir := t.TempDir()
	writeTestScript(t, scriptDir, "solid.js", "function on_render() {}")
	goodPath := writeTestProfileFile(t, profileDir, "good.json", "good", []string{"solid.js"})

	// broken.json references a script with no manifest on disk
	require.NoError(t, os.WriteFile(filepath.Join(scriptDir, "missing.js"), []byte("// noop"), 0o644))
	brokenPath := writeTestProfileFile(t, profileDir, "broken.json", "broken", []string{"missing.js"})

	reg := NewRegistry(4, 1)
	barriers := NewSet()
	ctrl := NewController(reg, barriers, scriptDir, 4, nil, nil, zerolog.Nop())

	require.NoError(t, ctrl.Switch(goodPath, 0))
	originalWorkers := ctrl.Workers()

	err := ctrl.Switch(brokenPath, 0)
	require.Error(t, err)

	assert.Equal(t, "good", reg.ActiveProfile().ID, "current profile must be untouched on verification failure")
	assert.Equal(t, originalWorkers, ctrl.Workers(), "current workers must be untouched on verification failure")
}
