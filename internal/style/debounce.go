package style

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Debouncer coalesces bursts of scale notifications from continuous zoom
// gestures. Only the last scale seen in a window reaches the controller.
// A zero window applies every notification immediately.
type Debouncer struct {
	ctrl   *Controller
	clock  clockwork.Clock
	window time.Duration
	onFire func([]Applied)

	mu      sync.Mutex
	pending float64
	timer   clockwork.Timer
}

// NewDebouncer wraps ctrl. onFire, if set, receives the result of every
// applied scale.
func NewDebouncer(ctrl *Controller, clock clockwork.Clock, window time.Duration, onFire func([]Applied)) *Debouncer {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Debouncer{ctrl: ctrl, clock: clock, window: window, onFire: onFire}
}

// Notify records a scale change.
func (d *Debouncer) Notify(scale float64) {
	if d.window <= 0 {
		d.fire(scale)
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.pending = scale
	if d.timer != nil {
		d.timer.Reset(d.window)
		return
	}
	d.timer = d.clock.AfterFunc(d.window, func() {
		d.mu.Lock()
		s := d.pending
		d.timer = nil
		d.mu.Unlock()
		d.fire(s)
	})
}

// Styles resolves the layer styles scale will produce once applied.
func (d *Debouncer) Styles(scale float64) map[string]Style {
	return d.ctrl.Styles(scale)
}

// Stop drops any pending notification.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

func (d *Debouncer) fire(scale float64) {
	applied := d.ctrl.SetScale(scale)
	if d.onFire != nil {
		d.onFire(applied)
	}
}
