package engine

import (
	"errors"
	"fmt"
	"os"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/glimmerdev/glimmerd/internal/profiles"
	"github.com/glimmerdev/glimmerd/internal/queue"
	"github.com/glimmerdev/glimmerd/internal/scripting"
)

// ErrWorkerFailed is returned by Send once a worker has terminated, either
// gracefully (Unload/Quit processed) or with errors (a script handler
// returned an error or panicked). The Dispatcher treats it the same way
// in both cases: skip this worker for the rest of the current broadcast
// and fold it into the render pass's "live minus failed" accounting.
var ErrWorkerFailed = errors.New("worker has terminated")

// Worker is one script's runtime plus its own single-consumer inbox, the
// Worker Harness of spec.md §4.3. Exactly one goroutine (run) ever reads
// the inbox or touches the embedded scripting.Runtime; every other
// goroutine only ever calls Send, Failed, or Done.
type Worker struct {
	Index  int
	Script profiles.ScriptRef

	inbox    *queue.Unbounded[Message]
	runtime  *scripting.Runtime
	barriers *Set
	canvas   Canvas

	failed atomic.Bool
	done   chan struct{}
	log    zerolog.Logger
}

// NewWorker loads and runs a script's top level once, wiring it to the
// shared canvas and barrier set it will participate in, but does not yet
// start its message loop — call Start for that. frameGen is the shared
// Registry.FrameGen counter; it is bumped only when the script itself
// calls submit_color_map, never unconditionally by the main loop.
func NewWorker(index int, ref profiles.ScriptRef, numKeys int, canvas Canvas, barriers *Set, frameGen *atomic.Uint64, log zerolog.Logger) (*Worker, error) {
	source, err := os.ReadFile(ref.ScriptPath())
	if err != nil {
		return nil, fmt.Errorf("reading script %q: %w", ref.Name, err)
	}

	var onSubmit func()
	if frameGen != nil {
		onSubmit = func() { frameGen.Add(1) }
	}

	rt, err := scripting.New(string(source), numKeys, ref.Manifest().Parameters, onSubmit)
	if err != nil {
		return nil, fmt.Errorf("starting script %q: %w", ref.Name, err)
	}

	return &Worker{
		Index:    index,
		Script:   ref,
		inbox:    queue.NewUnbounded[Message](),
		runtime:  rt,
		barriers: barriers,
		canvas:   canvas,
		done:     make(chan struct{}),
		log:      log.With().Str("script", ref.Name).Int("worker", index).Logger(),
	}, nil
}

// Start launches the worker's message loop in its own goroutine.
func (w *Worker) Start() {
	go w.run()
}

// Send enqueues a message for the worker, returning ErrWorkerFailed
// without enqueueing if the worker has already terminated. The Dispatcher
// checks this return value to drive the arm-to-live-minus-failed
// compensation rule of spec.md §4.5.
func (w *Worker) Send(msg Message) error {
	if w.failed.Load() {
		return ErrWorkerFailed
	}
	w.inbox.Enqueue(msg)
	return nil
}

// Failed reports whether the worker has terminated, gracefully or not.
func (w *Worker) Failed() bool {
	return w.failed.Load()
}

// Done is closed once the worker's message loop has returned.
func (w *Worker) Done() <-chan struct{} {
	return w.done
}

func (w *Worker) run() {
	defer close(w.done)

	for {
		msg, ok := w.inbox.Dequeue()
		if !ok {
			return
		}

		terminate := w.handle(msg)
		if terminate {
			return
		}
	}
}

// handle dispatches one message to the script runtime and completes
// whichever barrier that message kind belongs to (if any), reporting
// whether the worker's loop should now exit.
func (w *Worker) handle(msg Message) (terminate bool) {
	err := w.invoke(msg)

	if barrier := w.barriers.For(msg.Kind); barrier != nil {
		barrier.Complete()
	}

	if err != nil {
		w.log.Error().Err(err).Str("kind", msg.Kind.String()).Msg("script handler failed, worker terminated")
		w.failed.Store(true)
		return true
	}

	switch msg.Kind {
	case MsgUnload:
		if err := w.runtime.OnUnload(); err != nil {
			w.log.Warn().Err(err).Msg("on_unload handler failed during shutdown")
		}
		w.failed.Store(true)
		return true
	case MsgQuit:
		if err := w.runtime.OnQuit(msg.ExitCode); err != nil {
			w.log.Warn().Err(err).Msg("on_quit handler failed during shutdown")
		}
		w.failed.Store(true)
		return true
	}
	return false
}

// invoke calls the script handler for msg, recovering from a script-side
// panic (goja itself turns JS exceptions into errors, but a host function
// given bad input can still panic on the Go side) and converting it into
// the same error path as a returned error.
func (w *Worker) invoke(msg Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in handler: %v", r)
		}
	}()

	switch msg.Kind {
	case MsgKeyDown:
		return w.runtime.OnKeyDown(msg.KeyIndex)
	case MsgKeyUp:
		return w.runtime.OnKeyUp(msg.KeyIndex)
	case MsgMouseButtonDown:
		return w.runtime.OnMouseButtonDown(msg.ButtonIndex)
	case MsgMouseButtonUp:
		return w.runtime.OnMouseButtonUp(msg.ButtonIndex)
	case MsgMouseWheel:
		return w.runtime.OnMouseWheel(msg.WheelDir)
	case MsgMouseMove:
		return w.runtime.OnMouseMove(msg.DX, msg.DY, msg.DZ)
	case MsgHIDEvent:
		return w.runtime.OnHIDEvent(msg.HID.Pressed, msg.HID.Code)
	case MsgSystemEvent:
		return w.runtime.OnSystemEvent(msg.System.Kind == SystemEventExec, msg.System.PID, msg.System.FileName)
	case MsgTick:
		return w.runtime.OnTick(msg.TickFraction)
	case MsgRealizeColorMap:
		localMap, err := w.runtime.OnRender()
		if err != nil {
			return err
		}
		if w.canvas != nil {
			w.canvas.BlendMap(localMap)
		}
		return nil
	case MsgUnload, MsgQuit:
		return nil
	default:
		return nil
	}
}
