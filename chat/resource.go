package chat

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"

	"github.com/malonaz/botchat/internal/graphql"
)

// Scope selects what a resource follows. NoScope disables the resource.
type Scope string

// NoScope is the empty scope: no requests are issued and the view is empty.
const NoScope Scope = ""

// Source tells where a resource event came from.
type Source int

const (
	// SnapshotSource is a one-shot fetch.
	SnapshotSource Source = iota
	// FeedSource is a live subscription.
	FeedSource
)

func (s Source) String() string {
	if s == FeedSource {
		return "feed"
	}
	return "snapshot"
}

// Push is one payload of a live feed: the full collection, or an error.
type Push[T any] struct {
	Items []T
	Err   error
}

// Loader fetches and follows a collection for a scope.
type Loader[T any] interface {
	Fetch(ctx context.Context, scope Scope) ([]T, error)
	Subscribe(ctx context.Context, scope Scope) (<-chan Push[T], error)
}

// Event carries a loader result back to the goroutine that owns the resource.
type Event[T any] struct {
	Resource   string
	Generation uint64
	Source     Source
	Items      []T
	Err        error
}

// ErrFeedEnded is reported when a live feed closes while its scope is still open.
var ErrFeedEnded = errors.New("live updates interrupted")

// Bounds of the delay between resubscription attempts.
var (
	minResubscribeDelay = time.Second
	maxResubscribeDelay = 30 * time.Second
)

// Dispatch delivers events to the goroutine that owns the resource, e.g. a tea.Program's Send.
type Dispatch func(event any)

// State is everything a resource knows about its current scope.
type State[T any] struct {
	Scope       Scope
	Generation  uint64
	Snapshot    []T
	HasSnapshot bool
	Feed        []T
	HasFeed     bool
	SnapshotErr error
	FeedErr     error
	// Source of the most recent error.
	LastErr Source
}

// View is the reconciled collection shown to the user.
type View[T any] struct {
	Scope   Scope
	Items   []T
	Loading bool
	Err     error
}

// Reconcile derives the displayed view from a resource state.
// The feed's latest payload, once any arrived, supersedes the snapshot entirely.
func Reconcile[T any](state State[T]) View[T] {
	view := View[T]{Scope: state.Scope}
	if state.Scope == NoScope {
		return view
	}
	switch {
	case state.HasFeed:
		view.Items = state.Feed
	case state.HasSnapshot:
		view.Items = state.Snapshot
	default:
		view.Loading = state.SnapshotErr == nil
	}

	view.Err = state.SnapshotErr
	if state.LastErr == FeedSource || view.Err == nil {
		if state.FeedErr != nil {
			view.Err = state.FeedErr
		}
	}
	return view
}

// Resource combines a snapshot fetch with a live feed. It is not safe for concurrent use: one goroutine
// (the UI loop) opens it and applies the events its loader goroutines dispatch.
type Resource[T any] struct {
	name   string
	loader Loader[T]
	state  State[T]
	ctx    context.Context
	cancel context.CancelFunc
}

// NewResource returns a closed resource. `name` routes events back to it.
func NewResource[T any](name string, loader Loader[T]) *Resource[T] {
	return &Resource[T]{name: name, loader: loader}
}

// Name returns the resource name.
func (r *Resource[T]) Name() string { return r.name }

// Scope returns the current scope.
func (r *Resource[T]) Scope() Scope { return r.state.Scope }

// State returns the raw state.
func (r *Resource[T]) State() State[T] { return r.state }

// View returns the reconciled view.
func (r *Resource[T]) View() View[T] { return Reconcile(r.state) }

// Open switches the resource to `scope`: the previous feed is cancelled, the collection cleared and late
// events from the previous scope ignored. A fetch and a feed are started unless scope is NoScope.
func (r *Resource[T]) Open(ctx context.Context, scope Scope, dispatch Dispatch) {
	r.Close()
	r.state = State[T]{Scope: scope, Generation: r.state.Generation + 1}
	if scope == NoScope {
		return
	}
	r.ctx, r.cancel = context.WithCancel(ctx)
	r.fetch(dispatch)
	go r.follow(r.ctx, scope, r.state.Generation, dispatch)
}

// Refetch re-issues the snapshot fetch for the current scope.
func (r *Resource[T]) Refetch(dispatch Dispatch) {
	if r.state.Scope == NoScope || r.ctx == nil {
		return
	}
	r.fetch(dispatch)
}

// Close cancels outstanding work. The state is kept until the next Open.
func (r *Resource[T]) Close() {
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
}

// Apply folds an event into the state. It returns false for events that belong to another resource or
// to a previous scope.
func (r *Resource[T]) Apply(event Event[T]) bool {
	if event.Resource != r.name || event.Generation != r.state.Generation || r.state.Scope == NoScope {
		return false
	}
	switch event.Source {
	case SnapshotSource:
		if event.Err != nil {
			r.state.SnapshotErr = event.Err
			r.state.LastErr = SnapshotSource
			return true
		}
		r.state.Snapshot = event.Items
		r.state.HasSnapshot = true
		r.state.SnapshotErr = nil
	case FeedSource:
		if event.Err != nil {
			// A failed feed's last payload becomes the snapshot, so the next fetch supersedes it.
			if r.state.HasFeed {
				r.state.Snapshot, r.state.HasSnapshot = r.state.Feed, true
				r.state.Feed, r.state.HasFeed = nil, false
			}
			r.state.FeedErr = event.Err
			r.state.LastErr = FeedSource
			return true
		}
		r.state.Feed = event.Items
		r.state.HasFeed = true
		r.state.FeedErr = nil
	}
	return true
}

func (r *Resource[T]) fetch(dispatch Dispatch) {
	ctx, scope, generation := r.ctx, r.state.Scope, r.state.Generation
	go func() {
		items, err := r.loader.Fetch(ctx, scope)
		if ctx.Err() != nil {
			return
		}
		dispatch(Event[T]{Resource: r.name, Generation: generation, Source: SnapshotSource, Items: items, Err: err})
	}()
}

// follow subscribes to the scope's feed and resubscribes with exponential backoff whenever it fails or
// ends, until ctx is cancelled.
func (r *Resource[T]) follow(ctx context.Context, scope Scope, generation uint64, dispatch Dispatch) {
	delay := minResubscribeDelay
	for {
		if r.subscribe(ctx, scope, generation, dispatch) {
			delay = minResubscribeDelay
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
		delay = min(2*delay, maxResubscribeDelay)
	}
}

// subscribe relays one subscription until it ends. It reports whether any payload was delivered.
func (r *Resource[T]) subscribe(ctx context.Context, scope Scope, generation uint64, dispatch Dispatch) bool {
	send := func(items []T, err error) {
		dispatch(Event[T]{Resource: r.name, Generation: generation, Source: FeedSource, Items: items, Err: err})
	}
	pushes, err := r.loader.Subscribe(ctx, scope)
	if err != nil {
		if ctx.Err() == nil {
			send(nil, err)
		}
		return false
	}
	var delivered, failed bool
	for push := range pushes {
		if ctx.Err() != nil {
			continue
		}
		send(push.Items, push.Err)
		delivered = delivered || push.Err == nil
		failed = push.Err != nil
	}
	if ctx.Err() == nil && !failed {
		send(nil, ErrFeedEnded)
	}
	return delivered
}

// relay turns raw subscription events into pushes of the collection stored under `field`.
func relay[T any](ctx context.Context, events <-chan graphql.Event, field string) <-chan Push[T] {
	pushes := make(chan Push[T])
	go func() {
		defer close(pushes)
		for event := range events {
			push := Push[T]{Err: event.Err}
			if event.Err == nil {
				var data map[string][]T
				if err := json.Unmarshal(event.Data, &data); err != nil {
					push.Err = errors.Wrapf(err, "decoding %s", field)
				} else {
					push.Items = data[field]
				}
			}
			select {
			case pushes <- push:
			case <-ctx.Done():
				for range events {
				}
				return
			}
		}
	}()
	return pushes
}
