package projection

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/playq/internal/queue"
)

type row struct {
	id    queue.ID
	title string
}

func (r row) Key() queue.ID { return r.id }

// fakeStore serves rows from a map.
type fakeStore struct {
	rows    map[queue.ID]row
	reverse bool
	err     error
	calls   [][]queue.ID
}

func newStore(ids ...queue.ID) *fakeStore {
	s := &fakeStore{rows: make(map[queue.ID]row)}
	for _, id := range ids {
		s.rows[id] = row{id: id, title: titleOf(id)}
	}
	return s
}

func titleOf(id queue.ID) string {
	return "track-" + string(rune('a'+int(id)%26))
}

func (s *fakeStore) FetchByIDs(_ context.Context, ids []queue.ID) ([]row, error) {
	s.calls = append(s.calls, slices.Clone(ids))
	if s.err != nil {
		return nil, s.err
	}
	var out []row
	for _, id := range ids {
		if r, ok := s.rows[id]; ok {
			out = append(out, r)
		}
	}
	if s.reverse {
		slices.Reverse(out)
	}
	return out, nil
}

func newQueue(pos int, ids ...queue.ID) *queue.Queue {
	q := queue.New()
	q.Replace(ids, pos)
	return q
}

// fetchApply runs one fetch of q through p and applies it.
func fetchApply(t *testing.T, p *Projection[row], q *queue.Queue, last bool) (Result, bool) {
	t.Helper()
	ids := q.IDs()
	snap, err := p.Fetch(context.Background(), ids)
	require.NoError(t, err)
	return p.Apply(snap, ids, q, last)
}

// synced returns a projection over q that needed no cleanup.
func synced(t *testing.T, store *fakeStore, q *queue.Queue) *Projection[row] {
	t.Helper()
	p := New[row](store)
	res, retry := fetchApply(t, p, q, false)
	require.Empty(t, res.Removed)
	require.False(t, retry)
	return p
}

func TestApply_ScenarioC(t *testing.T) {
	store := newStore(1, 3)
	q := newQueue(queue.NoPosition, 1, 2, 3)
	p := New[row](store)

	res, retry := fetchApply(t, p, q, false)

	assert.Equal(t, []queue.ID{2}, res.Removed)
	assert.True(t, retry, "a removal asks for another fetch")
	assert.Equal(t, []queue.ID{1, 3}, q.IDs())

	res, retry = fetchApply(t, p, q, true)

	assert.Empty(t, res.Removed)
	assert.False(t, retry)
	assert.False(t, res.Stale)
	require.Len(t, store.calls, 2)
	assert.Equal(t, []queue.ID{1, 3}, store.calls[1])

	r, err := p.RowAt(0)
	require.NoError(t, err)
	assert.Equal(t, queue.ID(1), r.id)

	r, err = p.RowAt(1)
	require.NoError(t, err)
	assert.Equal(t, queue.ID(3), r.id)
}

func TestApply_EmptyQueueSkipsFetch(t *testing.T) {
	store := newStore(1)
	p := New[row](store)

	res, retry := fetchApply(t, p, queue.New(), false)

	assert.Empty(t, res.Removed)
	assert.False(t, retry)
	assert.Empty(t, store.calls)
	assert.Equal(t, 0, p.Len())
	assert.False(t, p.Stale())
}

func TestApply_FetchesDistinctAscending(t *testing.T) {
	store := newStore(1, 2, 3)
	q := newQueue(0, 3, 1, 3, 2, 1)

	p := synced(t, store, q)

	require.Len(t, store.calls, 1)
	assert.Equal(t, []queue.ID{1, 2, 3}, store.calls[0])
	assert.Equal(t, 5, p.Len())

	for i, want := range []queue.ID{3, 1, 3, 2, 1} {
		r, err := p.RowAt(i)
		require.NoError(t, err)
		assert.Equal(t, want, r.id, "position %d", i)
	}
}

func TestApply_UnsortedStoreResult(t *testing.T) {
	store := newStore(4, 8, 15)
	store.reverse = true
	q := newQueue(0, 15, 4, 8)

	p := synced(t, store, q)

	assert.Equal(t, []queue.ID{4, 8, 15}, p.Snapshot().IDs())
	r, err := p.RowAt(0)
	require.NoError(t, err)
	assert.Equal(t, queue.ID(15), r.id)
}

func TestApply_RemovesAllOccurrencesAndAdjustsPosition(t *testing.T) {
	store := newStore(1, 3)
	q := newQueue(3, 2, 1, 2, 3, 2)
	p := New[row](store)

	res, _ := fetchApply(t, p, q, false)

	assert.Equal(t, []queue.ID{2}, res.Removed)
	assert.Equal(t, []queue.ID{1, 3}, q.IDs())
	pos, ok := q.Position()
	require.True(t, ok)
	assert.Equal(t, 1, pos)
}

func TestApply_PlayingEntryVanishes(t *testing.T) {
	store := newStore(1, 3)
	q := newQueue(1, 1, 2, 3)
	p := New[row](store)

	fetchApply(t, p, q, false)

	_, ok := q.Position()
	assert.False(t, ok)
}

func TestApply_SecondMissLeavesStale(t *testing.T) {
	store := newStore(1, 3)
	q := newQueue(0, 1, 2, 3)
	p := New[row](store)

	_, retry := fetchApply(t, p, q, false)
	require.True(t, retry)
	delete(store.rows, 3)

	res, retry := fetchApply(t, p, q, true)

	assert.False(t, retry)
	assert.True(t, res.Stale)
	assert.Equal(t, []queue.ID{3}, res.Removed)
	assert.Equal(t, []queue.ID{1}, q.IDs())
	assert.True(t, p.Stale())
	assert.Equal(t, 1, p.Len())
	_, err := p.RowAt(0)
	assert.ErrorIs(t, err, ErrStale)
	assert.Len(t, store.calls, 2)
}

func TestApply_QueueGrewDuringFetch(t *testing.T) {
	store := newStore(1, 2, 9)
	q := newQueue(0, 1, 2)
	p := New[row](store)

	requested := q.IDs()
	snap, err := p.Fetch(context.Background(), requested)
	require.NoError(t, err)
	q.Enqueue([]queue.ID{9}, queue.EnqueueLast)

	res, retry := p.Apply(snap, requested, q, false)
	assert.Empty(t, res.Removed)
	assert.True(t, retry)

	res, retry = p.Apply(snap, requested, q, true)
	assert.False(t, retry)
	assert.False(t, res.Stale, "nothing was excised")
	assert.True(t, p.Stale())
	r, err := p.RowAt(1)
	require.NoError(t, err)
	assert.Equal(t, queue.ID(2), r.id)
	_, err = p.RowAt(2)
	assert.ErrorIs(t, err, ErrStale)
}

func TestApply_MissingIDAlreadyDequeued(t *testing.T) {
	store := newStore(1)
	q := newQueue(0, 1, 2)
	p := New[row](store)

	requested := q.IDs()
	snap, err := p.Fetch(context.Background(), requested)
	require.NoError(t, err)
	q.RemoveID(2)

	res, retry := p.Apply(snap, requested, q, false)

	assert.Empty(t, res.Removed)
	assert.False(t, retry)
	assert.False(t, p.Stale())
	assert.Equal(t, 1, p.Len())
}

func TestFetch_Error(t *testing.T) {
	boom := errors.New("database is locked")
	store := newStore(1)
	store.err = boom
	p := New[row](store)

	_, err := p.Fetch(context.Background(), []queue.ID{1})

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, p.Len(), "cache untouched on fetch error")
}

func TestRowAt_OutOfRange(t *testing.T) {
	p := synced(t, newStore(1), newQueue(0, 1))

	for _, pos := range []int{-1, 1, 100} {
		_, err := p.RowAt(pos)
		assert.ErrorIs(t, err, ErrOutOfRange, "position %d", pos)
	}
}

func TestRefresh_ReordersWithoutFetch(t *testing.T) {
	store := newStore(1, 2, 3)
	q := newQueue(0, 1, 2, 3)
	p := synced(t, store, q)

	q.Move(0, 2)
	ok := p.Refresh(q.IDs())

	assert.True(t, ok)
	assert.Len(t, store.calls, 1)
	r, err := p.RowAt(2)
	require.NoError(t, err)
	assert.Equal(t, queue.ID(1), r.id)
}

func TestRefresh_UncoveredIDMarksStale(t *testing.T) {
	store := newStore(1, 2, 9)
	q := newQueue(0, 1, 2)
	p := synced(t, store, q)

	q.Enqueue([]queue.ID{9}, queue.EnqueueLast)
	ok := p.Refresh(q.IDs())

	assert.False(t, ok)
	assert.True(t, p.Stale())
	_, err := p.RowAt(2)
	assert.ErrorIs(t, err, ErrStale)

	// Covered positions stay readable.
	r, err := p.RowAt(1)
	require.NoError(t, err)
	assert.Equal(t, queue.ID(2), r.id)
}

func TestEnqueueNow_ReachableAfterSync(t *testing.T) {
	store := newStore(1, 2, 50, 51)
	q := newQueue(1, 1, 2)

	start, _ := q.Enqueue([]queue.ID{50, 51}, queue.EnqueueNow)
	p := synced(t, store, q)

	pos, ok := q.Position()
	require.True(t, ok)
	assert.Equal(t, start, pos)
	r, err := p.RowAt(pos)
	require.NoError(t, err)
	assert.Equal(t, queue.ID(50), r.id)
}

func TestInstall_ThenReset(t *testing.T) {
	p := New[row](newStore())
	snap := NewSnapshot([]row{{id: 2}, {id: 1}, {id: 2}})

	p.Install(snap, []queue.ID{1, 2, 2})

	assert.Equal(t, 2, snap.Len())
	assert.False(t, p.Stale())
	assert.Equal(t, 3, p.Len())

	p.Reset()

	assert.Equal(t, 0, p.Len())
	assert.Equal(t, 0, p.Snapshot().Len())
}

func TestSnapshot_Missing(t *testing.T) {
	snap := NewSnapshot([]row{{id: 1}, {id: 5}})

	assert.Equal(t, []queue.ID{3, 7}, snap.Missing([]queue.ID{7, 1, 3, 7, 5}))
	assert.Nil(t, snap.Missing([]queue.ID{5, 1}))
}

func TestSnapshot_Index(t *testing.T) {
	snap := NewSnapshot([]row{{id: 10}, {id: 20}, {id: 30}})

	tests := []struct {
		id      queue.ID
		wantIdx int
		wantOK  bool
	}{
		{10, 0, true},
		{30, 2, true},
		{5, -1, false},
		{25, -1, false},
		{31, -1, false},
	}
	for _, tt := range tests {
		idx, ok := snap.Index(tt.id)
		assert.Equal(t, tt.wantIdx, idx, "id %d", tt.id)
		assert.Equal(t, tt.wantOK, ok, "id %d", tt.id)
	}
}
