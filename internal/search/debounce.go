// Package search coalesces a stream of text-input changes into one
// triggered query per pause in typing.
package search

import (
	"strings"
	"sync"
	"time"
)

// State is the committed browse/search state after a trigger fires.
type State struct {
	// Query is the trimmed text of the final input. Empty in browsing
	// mode.
	Query     string
	Searching bool
	Page      int
}

type TriggerFunc func(State)

// Debouncer schedules a delayed trigger for every input change and
// cancels the previously scheduled, not-yet-fired one. Cancellation is
// timer-only: a request a consumer already issued from an earlier
// trigger is never interrupted, so the last response to arrive wins.
type Debouncer struct {
	mu      sync.Mutex
	window  time.Duration
	fire    TriggerFunc
	timer   *time.Timer
	pending string

	query     string
	searching bool
	page      int
}

func NewDebouncer(window time.Duration, fire TriggerFunc) *Debouncer {
	return &Debouncer{
		window: window,
		fire:   fire,
		page:   1,
	}
}

// Input records a keystroke's resulting text and (re)schedules the
// trigger one window from now.
func (d *Debouncer) Input(text string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.pending = text
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, d.trigger)
}

func (d *Debouncer) trigger() {
	d.mu.Lock()
	d.timer = nil
	query := strings.TrimSpace(d.pending)
	if query != "" {
		d.query = query
		d.searching = true
		d.page = 1
	} else {
		d.query = ""
		d.searching = false
	}
	state := d.stateLocked()
	fire := d.fire
	d.mu.Unlock()

	if fire != nil {
		fire(state)
	}
}

// SetPage moves pagination without changing mode, for next/previous
// page controls.
func (d *Debouncer) SetPage(page int) {
	if page < 1 {
		page = 1
	}
	d.mu.Lock()
	d.page = page
	d.mu.Unlock()
}

func (d *Debouncer) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stateLocked()
}

func (d *Debouncer) stateLocked() State {
	return State{Query: d.query, Searching: d.searching, Page: d.page}
}

// Stop cancels a scheduled-but-not-fired trigger, if any.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
