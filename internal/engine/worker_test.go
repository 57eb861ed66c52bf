package engine

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glimmerdev/glimmerd/internal/profiles"
)

// loadTestScript writes a script body plus a matching manifest and returns
// the ScriptRef a real profile load would hand the engine, mirroring
// internal/profiles' own test helpers rather than poking at ScriptRef's
// unexported fields directly.
func loadTestScript(t *testing.T, body string) profiles.ScriptRef {
	t.Helper()
	scriptDir := t.TempDir()
	profileDir := t.TempDir()

	const name = "script.js"
	require.NoError(t, os.WriteFile(filepath.Join(scriptDir, name), []byte(body), 0o644))

	manifest, err := json.Marshal(profiles.Manifest{Name: name})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(scriptDir, "script.manifest.json"), manifest, 0o644))

	desc := struct {
		Name    string   `json:"name"`
		Scripts []string `json:"scripts"`
	}{Name: "test-profile", Scripts: []string{name}}
	raw, err := json.Marshal(desc)
	require.NoError(t, err)
	profilePath := filepath.Join(profileDir, "test.json")
	require.NoError(t, os.WriteFile(profilePath, raw, 0o644))

	p, err := profiles.Load(profilePath, scriptDir)
	require.NoError(t, err)
	require.NoError(t, p.Verify())
	return p.Scripts[0]
}

func newTestWorker(t *testing.T, body string, canvas Canvas, barriers *Set) *Worker {
	t.Helper()
	ref := loadTestScript(t, body)
	var frameGen atomic.Uint64
	w, err := NewWorker(0, ref, len(canvas), canvas, barriers, &frameGen, zerolog.Nop())
	require.NoError(t, err)
	w.Start()
	return w
}

// newTestWorkerWithFrameGen is newTestWorker but exposes the counter
// submit_color_map feeds, for tests that check frame-generation bumps.
func newTestWorkerWithFrameGen(t *testing.T, body string, canvas Canvas, barriers *Set) (*Worker, *atomic.Uint64) {
	t.Helper()
	ref := loadTestScript(t, body)
	frameGen := new(atomic.Uint64)
	w, err := NewWorker(0, ref, len(canvas), canvas, barriers, frameGen, zerolog.Nop())
	require.NoError(t, err)
	w.Start()
	return w, frameGen
}

func TestWorkerKeyDownThenRealizeColorMapBlends(t *testing.T) {
	body := `
		function on_key_down(index) {
			set_color_at(index, 255, 0, 0, 255);
		}
	`
	canvas := NewCanvas(4)
	barriers := NewSet()
	w := newTestWorker(t, body, canvas, barriers)

	barriers.KeyDown.Arm(1)
	require.NoError(t, w.Send(Message{Kind: MsgKeyDown, KeyIndex: 2}))
	assert.False(t, barriers.KeyDown.Wait(time.Second))

	barriers.Render.Arm(1)
	require.NoError(t, w.Send(Message{Kind: MsgRealizeColorMap}))
	assert.False(t, barriers.Render.Wait(time.Second))

	assert.Equal(t, RGBA{R: 255, A: 255}, canvas[2])
	assert.False(t, w.Failed())
}

func TestWorkerTerminatesOnScriptError(t *testing.T) {
	body := `
		function on_key_down(index) {
			throw new Error("boom");
		}
	`
	canvas := NewCanvas(4)
	barriers := NewSet()
	w := newTestWorker(t, body, canvas, barriers)

	barriers.KeyDown.Arm(1)
	require.NoError(t, w.Send(Message{Kind: MsgKeyDown, KeyIndex: 0}))
	assert.False(t, barriers.KeyDown.Wait(time.Second), "barrier still completes for a failing worker")

	select {
	case <-w.Done():
	case <-time.After(time.Second):
		t.Fatal("worker did not exit after script error")
	}

	assert.True(t, w.Failed())
	assert.ErrorIs(t, w.Send(Message{Kind: MsgKeyDown}), ErrWorkerFailed)
}

func TestWorkerUnloadDecrementsQuitBarrierAndExits(t *testing.T) {
	canvas := NewCanvas(4)
	barriers := NewSet()
	w := newTestWorker(t, `function on_unload() {}`, canvas, barriers)

	barriers.Quit.Arm(1)
	require.NoError(t, w.Send(Message{Kind: MsgUnload}))
	assert.False(t, barriers.Quit.Wait(time.Second))

	select {
	case <-w.Done():
	case <-time.After(time.Second):
		t.Fatal("worker did not exit after Unload")
	}
	assert.True(t, w.Failed())
}

// TestWorkerQuitInvokesOnQuitWithExitCode checks that the exit code on a
// Quit message actually reaches the script: on_quit throws if it is
// handed anything other than the code the test sends, which would surface
// as an "on_quit handler failed" warning in the worker's log.
func TestWorkerQuitInvokesOnQuitWithExitCode(t *testing.T) {
	canvas := NewCanvas(4)
	barriers := NewSet()
	ref := loadTestScript(t, `
		function on_quit(code) {
			if (code !== 7) {
				throw new Error("unexpected exit code: " + code);
			}
		}
	`)

	var logBuf bytes.Buffer
	log := zerolog.New(&logBuf)
	var frameGen atomic.Uint64
	w, err := NewWorker(0, ref, len(canvas), canvas, barriers, &frameGen, log)
	require.NoError(t, err)
	w.Start()

	barriers.Quit.Arm(1)
	require.NoError(t, w.Send(Message{Kind: MsgQuit, ExitCode: 7}))
	assert.False(t, barriers.Quit.Wait(time.Second))

	select {
	case <-w.Done():
	case <-time.After(time.Second):
		t.Fatal("worker did not exit after Quit")
	}
	assert.True(t, w.Failed())
	assert.NotContains(t, logBuf.String(), "on_quit handler failed")
}

func TestWorkerSubmitColorMapAdvancesFrameGen(t *testing.T) {
	canvas := NewCanvas(4)
	barriers := NewSet()
	w, frameGen := newTestWorkerWithFrameGen(t, `
		function on_key_down(index) {
			set_color_at(index, 1, 2, 3, 255);
			submit_color_map();
		}
	`, canvas, barriers)

	assert.Equal(t, uint64(0), frameGen.Load())

	barriers.KeyDown.Arm(1)
	require.NoError(t, w.Send(Message{Kind: MsgKeyDown, KeyIndex: 0}))
	assert.False(t, barriers.KeyDown.Wait(time.Second))

	assert.Equal(t, uint64(1), frameGen.Load())
}
