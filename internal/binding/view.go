// Package binding keeps a per-consumer snapshot of one collection consistent
// with the store: an initial list, a push-feed subscription replacing items
// wholesale, and mutation helpers that confirm writes with a re-list.
package binding

import (
	"context"
	"errors"
	"sync"

	"github.com/lumina-studio/api/internal/repositories"
)

// Lister fetches the full collection from the repository.
type Lister[T any] func(ctx context.Context) ([]T, error)

// Watcher opens a push subscription delivering the full collection on change.
type Watcher[T any] func(ctx context.Context, onChange func([]T), onError func(error)) (repositories.StopWatch, error)

// Snapshot is the consistent state exposed to presentation code.
type Snapshot[T any] struct {
	Items   []T
	Loading bool
	Err     string
}

// Options tunes view behaviour.
type Options struct {
	// RefetchAfterWrite re-lists the collection after every successful
	// mutation instead of trusting the locally patched copy. When a live
	// push subscription is active the confirming read is skipped for that
	// collection, since the feed delivers the authoritative snapshot.
	RefetchAfterWrite bool
}

// View merges live store-push updates with explicit refreshes into one
// last-write-wins snapshot. A generation token discards results that land
// after Stop, so late responses never resurrect a torn-down view.
type View[T any] struct {
	list    Lister[T]
	watch   Watcher[T]
	refetch bool

	mu         sync.Mutex
	items      []T
	loading    bool
	errMsg     string
	generation uint64
	stopWatch  repositories.StopWatch
	watching   bool
	stopped    bool
}

// NewView constructs a View over the given list and watch functions. The
// watcher may be nil for collections without push support.
func NewView[T any](list Lister[T], watch Watcher[T], opts Options) (*View[T], error) {
	if list == nil {
		return nil, errors.New("binding: lister is required")
	}
	return &View[T]{
		list:    list,
		watch:   watch,
		refetch: opts.RefetchAfterWrite,
	}, nil
}

// Start issues the initial list and opens the push subscription when
// available. The snapshot reports loading until the first list resolves.
func (v *View[T]) Start(ctx context.Context) {
	v.mu.Lock()
	if v.stopped {
		v.mu.Unlock()
		return
	}
	v.loading = true
	generation := v.generation
	v.mu.Unlock()

	go func() {
		items, err := v.list(ctx)
		v.apply(generation, items, err)
	}()

	if v.watch == nil {
		return
	}
	stop, err := v.watch(ctx,
		func(items []T) { v.applyPush(generation, items) },
		func(err error) { v.applyWatchError(generation, err) },
	)
	if err != nil {
		v.mu.Lock()
		if generation == v.generation {
			v.errMsg = err.Error()
		}
		v.mu.Unlock()
		return
	}

	v.mu.Lock()
	if v.stopped {
		v.mu.Unlock()
		stop()
		return
	}
	v.stopWatch = stop
	v.watching = true
	v.mu.Unlock()
}

// Snapshot returns a copy of the current state.
func (v *View[T]) Snapshot() Snapshot[T] {
	v.mu.Lock()
	defer v.mu.Unlock()
	items := make([]T, len(v.items))
	copy(items, v.items)
	return Snapshot[T]{
		Items:   items,
		Loading: v.loading,
		Err:     v.errMsg,
	}
}

// Refresh re-lists the collection and replaces the snapshot. Refreshes and
// push deliveries are not ordered relative to each other; the last writer
// wins on the local state.
func (v *View[T]) Refresh(ctx context.Context) error {
	v.mu.Lock()
	if v.stopped {
		v.mu.Unlock()
		return nil
	}
	generation := v.generation
	v.mu.Unlock()

	items, err := v.list(ctx)
	v.apply(generation, items, err)
	return err
}

// Mutate runs the action (validation plus repository write, composed by the
// caller) and on success confirms with a re-list when the refetch policy is
// on and no push subscription covers the collection. Failed mutations leave
// the previously rendered items untouched; the error is stored as the Err
// state and returned so callers can surface a message.
func (v *View[T]) Mutate(ctx context.Context, action func(ctx context.Context) error) error {
	if action == nil {
		return errors.New("binding: action is required")
	}

	v.mu.Lock()
	if v.stopped {
		v.mu.Unlock()
		return errors.New("binding: view is stopped")
	}
	generation := v.generation
	watching := v.watching
	v.mu.Unlock()

	if err := action(ctx); err != nil {
		v.mu.Lock()
		if generation == v.generation {
			v.errMsg = err.Error()
		}
		v.mu.Unlock()
		return err
	}

	v.mu.Lock()
	if generation == v.generation {
		v.errMsg = ""
	}
	v.mu.Unlock()

	if v.refetch && !watching {
		return v.Refresh(ctx)
	}
	return nil
}

// Stop tears the view down: the push subscription is cancelled and any
// in-flight list results are discarded rather than applied.
func (v *View[T]) Stop() {
	v.mu.Lock()
	if v.stopped {
		v.mu.Unlock()
		return
	}
	v.stopped = true
	v.generation++
	stop := v.stopWatch
	v.stopWatch = nil
	v.watching = false
	v.mu.Unlock()

	if stop != nil {
		stop()
	}
}

func (v *View[T]) apply(generation uint64, items []T, err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if generation != v.generation {
		return
	}
	v.loading = false
	if err != nil {
		v.errMsg = err.Error()
		return
	}
	v.items = items
	v.errMsg = ""
}

// applyPush replaces items wholesale with the pushed snapshot. No diffing:
// the catalog stays small enough that replacement is cheaper than patching.
func (v *View[T]) applyPush(generation uint64, items []T) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if generation != v.generation {
		return
	}
	v.loading = false
	v.items = items
	v.errMsg = ""
}

func (v *View[T]) applyWatchError(generation uint64, err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if generation != v.generation {
		return
	}
	v.watching = false
	if err != nil {
		v.errMsg = err.Error()
	}
}
