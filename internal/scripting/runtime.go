// Package scripting embeds one JavaScript interpreter per loaded script,
// using github.com/dop251/goja — the corpus's own JS engine of choice (see
// api/pkg/agent/skill/calculator_skill.go) — generalized from a single
// eval call into the full per-worker host API spec.md §4.3 requires:
// upcalls for every input-event kind, a local color map the script paints
// into, and an OnRender hook that hands that map back to the worker, which
// blends it into the shared canvas.
package scripting

import (
	"fmt"

	"github.com/dop251/goja"

	"github.com/glimmerdev/glimmerd/internal/engine/colormap"
)

// Runtime wraps one goja VM along with the local color map the loaded
// script paints into and the host functions it exposes to script code.
type Runtime struct {
	vm       *goja.Runtime
	colorMap colormap.Map
	params   map[string]interface{}
	onSubmit func()

	onKeyDown           goja.Callable
	onKeyUp             goja.Callable
	onMouseButtonDown   goja.Callable
	onMouseButtonUp     goja.Callable
	onMouseWheel        goja.Callable
	onMouseMove         goja.Callable
	onHidEvent          goja.Callable
	onSystemEvent       goja.Callable
	onTick              goja.Callable
	onRender            goja.Callable
	onUnload            goja.Callable
	onQuit              goja.Callable
}

// New constructs a Runtime with numKeys LED cells, evaluates source once
// to register the script's top-level declarations and event handlers, and
// returns an error if the script fails to compile/run. A script that
// declares none of the on_* handlers is accepted; it just receives no
// upcalls. onSubmit is invoked synchronously whenever
// the script calls submit_color_map, per spec.md §3's "a worker
// increments the frame generation whenever it has produced a new frame's
// worth of color data" — it is nil-safe to omit.
func New(source string, numKeys int, params map[string]interface{}, onSubmit func()) (*Runtime, error) {
	r := &Runtime{
		vm:       goja.New(),
		colorMap: colormap.New(numKeys),
		params:   params,
		onSubmit: onSubmit,
	}

	r.vm.Set("NUM_KEYS", numKeys)
	r.installHostAPI()

	if _, err := r.vm.RunString(source); err != nil {
		return nil, fmt.Errorf("running script: %w", err)
	}

	r.bindHandlers()
	return r, nil
}

// installHostAPI exposes the functions a script uses to read its
// parameters and paint its local color map; RealizeColorMap later blends
// that local map into the shared canvas.
func (r *Runtime) installHostAPI() {
	r.vm.Set("get_parameter", func(name string) goja.Value {
		v, ok := r.params[name]
		if !ok {
			return goja.Undefined()
		}
		return r.vm.ToValue(v)
	})

	r.vm.Set("set_color_at", func(index int, red, green, blue, alpha int) {
		r.colorMap.Set(index, red, green, blue, alpha)
	})

	r.vm.Set("set_color_all", func(red, green, blue, alpha int) {
		r.colorMap.Fill(red, green, blue, alpha)
	})

	r.vm.Set("submit_color_map", func() {
		if r.onSubmit != nil {
			r.onSubmit()
		}
	})
}

// bindHandlers looks up whichever of the well-known on_* globals the
// script declared; each is optional, a script may react to only a subset
// of events.
func (r *Runtime) bindHandlers() {
	lookup := func(name string) goja.Callable {
		v := r.vm.Get(name)
		if v == nil || goja.IsUndefined(v) {
			return nil
		}
		fn, ok := goja.AssertFunction(v)
		if !ok {
			return nil
		}
		return fn
	}

	r.onKeyDown = lookup("on_key_down")
	r.onKeyUp = lookup("on_key_up")
	r.onMouseButtonDown = lookup("on_mouse_button_down")
	r.onMouseButtonUp = lookup("on_mouse_button_up")
	r.onMouseWheel = lookup("on_mouse_wheel")
	r.onMouseMove = lookup("on_mouse_move")
	r.onHidEvent = lookup("on_hid_event")
	r.onSystemEvent = lookup("on_system_event")
	r.onTick = lookup("on_tick")
	r.onRender = lookup("on_render")
	r.onUnload = lookup("on_unload")
	r.onQuit = lookup("on_quit")
}

func (r *Runtime) call(fn goja.Callable, args ...goja.Value) error {
	if fn == nil {
		return nil
	}
	_, err := fn(goja.Undefined(), args...)
	if err != nil {
		return fmt.Errorf("script handler: %w", err)
	}
	return nil
}

func (r *Runtime) OnKeyDown(index int) error {
	return r.call(r.onKeyDown, r.vm.ToValue(index))
}

func (r *Runtime) OnKeyUp(index int) error {
	return r.call(r.onKeyUp, r.vm.ToValue(index))
}

func (r *Runtime) OnMouseButtonDown(index int) error {
	return r.call(r.onMouseButtonDown, r.vm.ToValue(index))
}

func (r *Runtime) OnMouseButtonUp(index int) error {
	return r.call(r.onMouseButtonUp, r.vm.ToValue(index))
}

func (r *Runtime) OnMouseWheel(direction int) error {
	return r.call(r.onMouseWheel, r.vm.ToValue(direction))
}

func (r *Runtime) OnMouseMove(dx, dy, dz int) error {
	return r.call(r.onMouseMove, r.vm.ToValue(dx), r.vm.ToValue(dy), r.vm.ToValue(dz))
}

func (r *Runtime) OnHIDEvent(pressed bool, code uint16) error {
	return r.call(r.onHidEvent, r.vm.ToValue(pressed), r.vm.ToValue(code))
}

func (r *Runtime) OnSystemEvent(exec bool, pid int, fileName string) error {
	return r.call(r.onSystemEvent, r.vm.ToValue(exec), r.vm.ToValue(pid), r.vm.ToValue(fileName))
}

func (r *Runtime) OnTick(fraction float64) error {
	return r.call(r.onTick, r.vm.ToValue(fraction))
}

// OnRender invokes the script's optional on_render hook, giving it one
// last chance to paint before the local color map is blended into the
// shared canvas, then returns the local map for the caller to blend.
func (r *Runtime) OnRender() (colormap.Map, error) {
	if err := r.call(r.onRender); err != nil {
		return nil, err
	}
	return r.colorMap, nil
}

func (r *Runtime) OnUnload() error {
	return r.call(r.onUnload)
}

func (r *Runtime) OnQuit(code int) error {
	return r.call(r.onQuit, r.vm.ToValue(code))
}
