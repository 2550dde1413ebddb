package dialog

import (
	"context"
	"sync"

	"github.com/medipal-health/appstate-service/internal/telemetry"
)

// Outcome is the resolution of a confirm dialog. Exactly one of the three
// states holds: confirmed, cancelled (Confirmed=false, Dismissed=false), or
// dismissed without an answer.
type Outcome struct {
	Confirmed bool
	Dismissed bool
}

// Options controls how a dialog is presented.
type Options struct {
	OkayLabel   string
	CancelLabel string
	Severe      bool
	Dismissable bool
}

// State is what the UI renders: the single visible dialog, if any.
type State struct {
	Visible     bool
	Text        string
	OkayLabel   string
	CancelLabel string
	Severe      bool
	Dismissable bool
}

// Controller owns the process-wide confirm dialog. At most one dialog is
// visible at a time; showing a new one replaces the current dialog and
// resolves its waiter as dismissed, so no caller is ever left hanging.
type Controller struct {
	mu      sync.Mutex
	state   State
	pending chan Outcome
	metrics *telemetry.Metrics
	notify  func()
}

// NewController creates a dialog controller. The notify callback (may be
// nil) fires after every state change so the UI can re-render.
func NewController(metrics *telemetry.Metrics, notify func()) *Controller {
	return &Controller{metrics: metrics, notify: notify}
}

// State returns the current dialog state for rendering.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Show presents a confirm dialog and returns a channel that receives the
// outcome exactly once. A dialog already on screen is replaced and its
// waiter resolved as dismissed.
func (c *Controller) Show(text string, opts Options) <-chan Outcome {
	if opts.OkayLabel == "" {
		opts.OkayLabel = "OK"
	}
	if opts.CancelLabel == "" {
		opts.CancelLabel = "Cancel"
	}

	c.mu.Lock()
	c.resolveLocked(Outcome{Dismissed: true})

	result := make(chan Outcome, 1)
	c.pending = result
	c.state = State{
		Visible:     true,
		Text:        text,
		OkayLabel:   opts.OkayLabel,
		CancelLabel: opts.CancelLabel,
		Severe:      opts.Severe,
		Dismissable: opts.Dismissable,
	}
	c.mu.Unlock()

	if c.metrics != nil {
		severity := "normal"
		if opts.Severe {
			severity = "severe"
		}
		c.metrics.RecordDialogShown(context.Background(), severity)
	}

	c.changed()
	return result
}

// Confirm resolves the visible dialog with true and hides it.
func (c *Controller) Confirm() {
	c.resolve(Outcome{Confirmed: true})
}

// Cancel resolves the visible dialog with false and hides it.
func (c *Controller) Cancel() {
	c.resolve(Outcome{})
}

// Dismiss hides a dismissable dialog without an answer; the waiter receives
// a dismissed outcome. Non-dismissable dialogs stay up.
func (c *Controller) Dismiss() {
	c.mu.Lock()
	if c.state.Visible && !c.state.Dismissable {
		c.mu.Unlock()
		return
	}
	c.resolveLocked(Outcome{Dismissed: true})
	c.state = State{}
	c.mu.Unlock()
	c.changed()
}

// Hide force-hides the dialog. The pending waiter is always resolved (as
// dismissed) rather than abandoned.
func (c *Controller) Hide() {
	c.resolve(Outcome{Dismissed: true})
}

func (c *Controller) resolve(outcome Outcome) {
	c.mu.Lock()
	c.resolveLocked(outcome)
	c.state = State{}
	c.mu.Unlock()
	c.changed()
}

// resolveLocked delivers the outcome to the pending waiter, if any. The
// channel is buffered so delivery never blocks. Caller must hold the lock.
func (c *Controller) resolveLocked(outcome Outcome) {
	if c.pending != nil {
		c.pending <- outcome
		c.pending = nil
	}
}

func (c *Controller) changed() {
	if c.notify != nil {
		c.notify()
	}
}
