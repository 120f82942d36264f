package editsession

import (
	"context"
	"sync"
	"time"
)

// DefaultDebounce is how long the autosaver waits after the last edit
// before saving. Typing bursts collapse into one save.
const DefaultDebounce = 800 * time.Millisecond

// Status is the save state the editor surface shows.
type Status string

const (
	StatusIdle    Status = "idle"    // everything saved
	StatusUnsaved Status = "unsaved" // edits pending, debounce running
	StatusSaving  Status = "saving"  // save request in flight
	StatusError   Status = "error"   // last save failed, edits still pending
)

// SaveFunc pushes the session's pending changes to the server.
type SaveFunc func(ctx context.Context) error

// Autosaver debounces saves for one editing session.
//
// Every MarkDirty resets the timer; the save fires only after the
// editor has been quiet for the debounce window. A failed save latches
// StatusError until a later save succeeds; pending edits are never
// dropped on failure.
type Autosaver struct {
	mu       sync.Mutex
	debounce time.Duration
	save     SaveFunc

	timer   *time.Timer
	status  Status
	lastErr error
	gen     uint64 // bumped on every MarkDirty
	closed  bool

	wg sync.WaitGroup
}

// NewAutosaver creates an idle autosaver. debounce <= 0 selects the
// default window.
func NewAutosaver(save SaveFunc, debounce time.Duration) *Autosaver {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Autosaver{
		debounce: debounce,
		save:     save,
		status:   StatusIdle,
	}
}

// MarkDirty notes an edit and (re)starts the debounce timer.
func (a *Autosaver) MarkDirty() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return
	}

	a.gen++
	if a.status != StatusSaving {
		a.status = StatusUnsaved
	}

	if a.timer != nil {
		a.timer.Stop()
	}
	a.timer = time.AfterFunc(a.debounce, a.fire)
}

func (a *Autosaver) fire() {
	a.mu.Lock()
	if a.closed || a.status == StatusSaving {
		// An in-flight save will re-arm if the generation moved.
		a.mu.Unlock()
		return
	}
	gen := a.gen
	a.status = StatusSaving
	a.wg.Add(1)
	a.mu.Unlock()

	go func() {
		defer a.wg.Done()
		err := a.save(context.Background())

		a.mu.Lock()
		defer a.mu.Unlock()

		if err != nil {
			a.status = StatusError
			a.lastErr = err
			return
		}
		a.lastErr = nil

		if a.gen != gen {
			// Edited while saving: go around again.
			a.status = StatusUnsaved
			if !a.closed {
				if a.timer != nil {
					a.timer.Stop()
				}
				a.timer = time.AfterFunc(a.debounce, a.fire)
			}
			return
		}
		a.status = StatusIdle
	}()
}

// Flush saves immediately, skipping the debounce. No-op when idle.
// A save already in flight is joined, not raced: Flush waits for it and
// only saves again if edits landed after it started.
func (a *Autosaver) Flush(ctx context.Context) error {
	a.mu.Lock()
	for a.status == StatusSaving {
		a.mu.Unlock()
		a.wg.Wait()
		a.mu.Lock()
	}
	if a.status == StatusIdle {
		a.mu.Unlock()
		return nil
	}
	if a.timer != nil {
		a.timer.Stop()
	}
	gen := a.gen
	a.status = StatusSaving
	a.wg.Add(1)
	a.mu.Unlock()

	err := a.save(ctx)

	a.mu.Lock()
	defer a.mu.Unlock()
	defer a.wg.Done()
	if err != nil {
		a.status = StatusError
		a.lastErr = err
		return err
	}
	a.lastErr = nil
	if a.gen != gen {
		a.status = StatusUnsaved
		if !a.closed {
			if a.timer != nil {
				a.timer.Stop()
			}
			a.timer = time.AfterFunc(a.debounce, a.fire)
		}
		return nil
	}
	a.status = StatusIdle
	return nil
}

// Status returns the current state and, when in StatusError, the error
// that latched it.
func (a *Autosaver) Status() (Status, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.status, a.lastErr
}

// Close stops the timer and waits for any in-flight save. Pending
// unsaved edits are NOT flushed; call Flush first when they matter.
func (a *Autosaver) Close() {
	a.mu.Lock()
	a.closed = true
	if a.timer != nil {
		a.timer.Stop()
	}
	a.mu.Unlock()

	a.wg.Wait()
}
