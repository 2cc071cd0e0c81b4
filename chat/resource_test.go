package chat

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedLoader struct {
	mu        sync.Mutex
	snapshots map[Scope][]string
	fetchErr  error
	fetches   int
	feeds     map[Scope]chan Push[string]
}

func newScriptedLoader() *scriptedLoader {
	return &scriptedLoader{snapshots: map[Scope][]string{}, feeds: map[Scope]chan Push[string]{}}
}

func (l *scriptedLoader) Fetch(ctx context.Context, scope Scope) ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.fetches++
	return l.snapshots[scope], l.fetchErr
}

func (l *scriptedLoader) Subscribe(ctx context.Context, scope Scope) (<-chan Push[string], error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	feed := make(chan Push[string], 8)
	l.feeds[scope] = feed
	return feed, nil
}

func (l *scriptedLoader) feed(t *testing.T, scope Scope) chan Push[string] {
	t.Helper()
	var feed chan Push[string]
	require.Eventually(t, func() bool {
		l.mu.Lock()
		defer l.mu.Unlock()
		feed = l.feeds[scope]
		return feed != nil
	}, time.Second, time.Millisecond)
	return feed
}

func (l *scriptedLoader) fetchCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.fetches
}

// loop stands in for the UI loop: loader goroutines dispatch into it and the test applies events.
type loop struct {
	events chan any
}

func newLoop() *loop { return &loop{events: make(chan any, 32)} }

func (l *loop) dispatch(event any) { l.events <- event }

func (l *loop) next(t *testing.T) Event[string] {
	t.Helper()
	select {
	case event := <-l.events:
		return event.(Event[string])
	case <-time.After(2 * time.Second):
		t.Fatal("no event dispatched")
	}
	return Event[string]{}
}

func (l *loop) quiet(t *testing.T) {
	t.Helper()
	select {
	case event := <-l.events:
		t.Fatalf("unexpected event %+v", event)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestReconcile(t *testing.T) {
	boom := errors.New("boom")
	cases := []struct {
		name  string
		state State[string]
		want  View[string]
	}{
		{
			name:  "no scope is idle",
			state: State[string]{Snapshot: []string{"stale"}, HasSnapshot: true},
			want:  View[string]{},
		},
		{
			name:  "loading until a value arrives",
			state: State[string]{Scope: "c1"},
			want:  View[string]{Scope: "c1", Loading: true},
		},
		{
			name:  "snapshot shown before the feed",
			state: State[string]{Scope: "c1", Snapshot: []string{"a"}, HasSnapshot: true},
			want:  View[string]{Scope: "c1", Items: []string{"a"}},
		},
		{
			name:  "feed supersedes snapshot",
			state: State[string]{Scope: "c1", Snapshot: []string{"a", "b", "c"}, HasSnapshot: true, Feed: []string{"b"}, HasFeed: true},
			want:  View[string]{Scope: "c1", Items: []string{"b"}},
		},
		{
			name:  "empty feed supersedes snapshot",
			state: State[string]{Scope: "c1", Snapshot: []string{"a"}, HasSnapshot: true, Feed: []string{}, HasFeed: true},
			want:  View[string]{Scope: "c1", Items: []string{}},
		},
		{
			name:  "feed error keeps snapshot",
			state: State[string]{Scope: "c1", Snapshot: []string{"a"}, HasSnapshot: true, FeedErr: boom, LastErr: FeedSource},
			want:  View[string]{Scope: "c1", Items: []string{"a"}, Err: boom},
		},
		{
			name:  "snapshot error ends loading",
			state: State[string]{Scope: "c1", SnapshotErr: boom},
			want:  View[string]{Scope: "c1", Err: boom},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Reconcile(tc.state))
		})
	}
}

func TestReconcileReportsLatestError(t *testing.T) {
	snapshotErr, feedErr := errors.New("snapshot"), errors.New("feed")
	state := State[string]{Scope: "c1", SnapshotErr: snapshotErr, FeedErr: feedErr, LastErr: FeedSource}
	assert.Equal(t, feedErr, Reconcile(state).Err)
	state.LastErr = SnapshotSource
	assert.Equal(t, snapshotErr, Reconcile(state).Err)
}

func TestResourceFeedSupersedesSnapshot(t *testing.T) {
	loader := newScriptedLoader()
	loader.snapshots["c1"] = []string{"m1", "m2"}
	l := newLoop()
	r := NewResource[string]("messages", loader)
	defer r.Close()

	r.Open(context.Background(), "c1", l.dispatch)
	assert.True(t, r.View().Loading)

	require.True(t, r.Apply(l.next(t)))
	assert.Equal(t, []string{"m1", "m2"}, r.View().Items)
	assert.False(t, r.View().Loading)

	feed := loader.feed(t, "c1")
	feed <- Push[string]{Items: []string{"m2", "m3"}}
	require.True(t, r.Apply(l.next(t)))
	assert.Equal(t, []string{"m2", "m3"}, r.View().Items)

	// A later snapshot does not displace the feed.
	r.Refetch(l.dispatch)
	require.True(t, r.Apply(l.next(t)))
	assert.Equal(t, []string{"m2", "m3"}, r.View().Items)
	assert.Equal(t, 2, loader.fetchCount())

	feed <- Push[string]{Err: errors.New("lost")}
	require.True(t, r.Apply(l.next(t)))
	assert.Equal(t, []string{"m2", "m3"}, r.View().Items)
	assert.EqualError(t, r.View().Err, "lost")
}

func TestResourceScopeSwitchClearsAndDropsLateEvents(t *testing.T) {
	loader := newScriptedLoader()
	loader.snapshots["c1"] = []string{"old"}
	loader.snapshots["c2"] = []string{"new"}
	l := newLoop()
	r := NewResource[string]("messages", loader)
	defer r.Close()

	r.Open(context.Background(), "c1", l.dispatch)
	require.True(t, r.Apply(l.next(t)))
	oldFeed := loader.feed(t, "c1")
	oldFeed <- Push[string]{Items: []string{"old", "older"}}
	late := l.next(t)

	r.Open(context.Background(), "c2", l.dispatch)
	view := r.View()
	assert.Empty(t, view.Items)
	assert.True(t, view.Loading)
	assert.Equal(t, Scope("c2"), view.Scope)

	assert.False(t, r.Apply(late))
	assert.Empty(t, r.View().Items)

	require.True(t, r.Apply(l.next(t)))
	assert.Equal(t, []string{"new"}, r.View().Items)
}

func TestResourceNoScopeIssuesNothing(t *testing.T) {
	loader := newScriptedLoader()
	l := newLoop()
	r := NewResource[string]("messages", loader)

	r.Open(context.Background(), NoScope, l.dispatch)
	r.Refetch(l.dispatch)
	l.quiet(t)
	assert.Equal(t, 0, loader.fetchCount())
	assert.Equal(t, View[string]{}, r.View())
}

func TestResourceIgnoresOtherResources(t *testing.T) {
	loader := newScriptedLoader()
	l := newLoop()
	r := NewResource[string]("messages", loader)
	defer r.Close()

	r.Open(context.Background(), "c1", l.dispatch)
	event := l.next(t)
	event.Resource = "chats"
	assert.False(t, r.Apply(event))
}

func TestResourceFetchError(t *testing.T) {
	loader := newScriptedLoader()
	loader.fetchErr = errors.New("offline")
	l := newLoop()
	r := NewResource[string]("chats", loader)
	defer r.Close()

	r.Open(context.Background(), "u1", l.dispatch)
	require.True(t, r.Apply(l.next(t)))
	view := r.View()
	assert.False(t, view.Loading)
	assert.EqualError(t, view.Err, "offline")

	loader.feed(t, "u1") <- Push[string]{Items: []string{"c1"}}
	require.True(t, r.Apply(l.next(t)))
	view = r.View()
	assert.Equal(t, []string{"c1"}, view.Items)
	assert.EqualError(t, view.Err, "offline")
}

func TestResourceCloseStopsDispatch(t *testing.T) {
	loader := newScriptedLoader()
	l := newLoop()
	r := NewResource[string]("messages", loader)

	r.Open(context.Background(), "c1", l.dispatch)
	l.next(t)
	feed := loader.feed(t, "c1")
	r.Close()
	feed <- Push[string]{Items: []string{"ignored"}}
	close(feed)
	l.quiet(t)
}

func TestResourceFeedErrorLetsRefetchWin(t *testing.T) {
	loader := newScriptedLoader()
	l := newLoop()
	r := NewResource[string]("chats", loader)
	defer r.Close()

	r.Open(context.Background(), "u1", l.dispatch)
	require.True(t, r.Apply(l.next(t)))
	feed := loader.feed(t, "u1")
	feed <- Push[string]{Items: []string{"old"}}
	require.True(t, r.Apply(l.next(t)))

	feed <- Push[string]{Err: errors.New("connection reset")}
	require.True(t, r.Apply(l.next(t)))
	view := r.View()
	assert.Equal(t, []string{"old"}, view.Items)
	assert.EqualError(t, view.Err, "connection reset")

	loader.mu.Lock()
	loader.snapshots["u1"] = []string{"old", "new"}
	loader.mu.Unlock()
	r.Refetch(l.dispatch)
	require.True(t, r.Apply(l.next(t)))
	assert.Equal(t, []string{"old", "new"}, r.View().Items)

	feed <- Push[string]{Items: []string{"new"}}
	require.True(t, r.Apply(l.next(t)))
	view = r.View()
	assert.Equal(t, []string{"new"}, view.Items)
	assert.NoError(t, view.Err)
}

func TestResourceResubscribesWhenFeedEnds(t *testing.T) {
	defer func(delay time.Duration) { minResubscribeDelay = delay }(minResubscribeDelay)
	minResubscribeDelay = time.Millisecond

	loader := newScriptedLoader()
	l := newLoop()
	r := NewResource[string]("chats", loader)
	defer r.Close()

	r.Open(context.Background(), "u1", l.dispatch)
	require.True(t, r.Apply(l.next(t)))
	first := loader.feed(t, "u1")
	first <- Push[string]{Items: []string{"old"}}
	require.True(t, r.Apply(l.next(t)))

	close(first)
	require.True(t, r.Apply(l.next(t)))
	view := r.View()
	assert.Equal(t, []string{"old"}, view.Items)
	assert.ErrorIs(t, view.Err, ErrFeedEnded)

	var second chan Push[string]
	require.Eventually(t, func() bool {
		loader.mu.Lock()
		defer loader.mu.Unlock()
		second = loader.feeds["u1"]
		return second != first
	}, time.Second, time.Millisecond)
	second <- Push[string]{Items: []string{"old", "new"}}
	require.True(t, r.Apply(l.next(t)))
	view = r.View()
	assert.Equal(t, []string{"old", "new"}, view.Items)
	assert.NoError(t, view.Err)
}
