// internal/playback/service_impl_test.go
package playback

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/playq/internal/library"
	"github.com/llehouerou/playq/internal/player"
	"github.com/llehouerou/playq/internal/projection"
	"github.com/llehouerou/playq/internal/queue"
	"github.com/llehouerou/playq/internal/state"
)

// fakeLibrary serves tracks from a map. onFetch runs once, after the next
// fetch, without the library lock held.
type fakeLibrary struct {
	mu      sync.Mutex
	rows    map[queue.ID]library.Track
	err     error
	calls   int
	onFetch func()
}

func newLibrary(ids ...queue.ID) *fakeLibrary {
	l := &fakeLibrary{rows: make(map[queue.ID]library.Track)}
	for _, id := range ids {
		l.add(id)
	}
	return l
}

func pathOf(id queue.ID) string {
	return fmt.Sprintf("/music/%d.mp3", id)
}

func (l *fakeLibrary) add(id queue.ID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rows[id] = library.Track{ID: id, Path: pathOf(id), Title: fmt.Sprintf("Track %d", id)}
}

func (l *fakeLibrary) remove(id queue.ID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.rows, id)
}

func (l *fakeLibrary) Calls() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}

func (l *fakeLibrary) FetchByIDs(_ context.Context, ids []queue.ID) ([]library.Track, error) {
	l.mu.Lock()
	l.calls++
	hook := l.onFetch
	l.onFetch = nil
	var out []library.Track
	err := l.err
	if err == nil {
		for _, id := range ids {
			if t, ok := l.rows[id]; ok {
				out = append(out, t)
			}
		}
	}
	l.mu.Unlock()

	if hook != nil {
		hook()
	}
	return out, err
}

type fixture struct {
	svc    *serviceImpl
	player *player.Mock
	lib    *fakeLibrary
	saves  *state.Mock
}

func newFixture(t *testing.T, opts Options, ids ...queue.ID) *fixture {
	t.Helper()
	f := &fixture{
		player: player.NewMock(),
		lib:    newLibrary(ids...),
		saves:  state.NewMock(),
	}
	opts.Persister = f.saves
	f.svc = New(f.player, f.lib, opts).(*serviceImpl)
	t.Cleanup(func() { _ = f.svc.Close() })
	return f
}

// loaded returns a fixture playing ids from pos.
func loaded(t *testing.T, pos int, ids ...queue.ID) *fixture {
	t.Helper()
	f := newFixture(t, Options{}, ids...)
	require.NoError(t, f.svc.Load(context.Background(), ids, pos))
	require.Equal(t, StatePlaying, f.svc.State())
	return f
}

func (f *fixture) position(t *testing.T) int {
	t.Helper()
	pos, ok := f.svc.Position()
	if !ok {
		return queue.NoPosition
	}
	return pos
}

func (f *fixture) lastOpened(t *testing.T) string {
	t.Helper()
	calls := f.player.OpenCalls()
	require.NotEmpty(t, calls)
	return calls[len(calls)-1]
}

func TestNew_ReturnsService(t *testing.T) {
	svc := New(player.NewMock(), newLibrary(), Options{})
	require.NotNil(t, svc)
	assert.Equal(t, 0, svc.QueueLen())
	_, ok := svc.Position()
	assert.False(t, ok)
	assert.Equal(t, RepeatNone, svc.RepeatMode())
}

func TestService_State_ReflectsPlayer(t *testing.T) {
	f := newFixture(t, Options{})

	assert.Equal(t, StateStopped, f.svc.State())
	f.player.SetState(player.Playing)
	assert.Equal(t, StatePlaying, f.svc.State())
	assert.True(t, f.svc.IsPlaying())
	f.player.SetState(player.Paused)
	assert.Equal(t, StatePaused, f.svc.State())
}

func TestService_PlayerPositionAndDuration(t *testing.T) {
	f := newFixture(t, Options{})
	f.player.SetPosition(30 * time.Second)
	f.player.SetDuration(3 * time.Minute)

	assert.Equal(t, 30*time.Second, f.svc.PlayerPosition())
	assert.Equal(t, 3*time.Minute, f.svc.PlayerDuration())
}

func TestService_Enqueue_LastDoesNotStartWithoutAutoplay(t *testing.T) {
	f := newFixture(t, Options{}, 1, 2)

	require.NoError(t, f.svc.Enqueue(context.Background(), []queue.ID{1, 2}, queue.EnqueueLast))

	assert.Equal(t, []queue.ID{1, 2}, f.svc.IDs())
	assert.Equal(t, queue.NoPosition, f.position(t))
	assert.Empty(t, f.player.OpenCalls())
	assert.Equal(t, StateStopped, f.svc.State())

	row, err := f.svc.RowAt(1)
	require.NoError(t, err)
	assert.Equal(t, pathOf(2), row.Path)
}

func TestService_Enqueue_AutoplayStartsAtHead(t *testing.T) {
	f := newFixture(t, Options{Autoplay: true}, 1, 2)

	require.NoError(t, f.svc.Enqueue(context.Background(), []queue.ID{1, 2}, queue.EnqueueNext))

	assert.Equal(t, 0, f.position(t))
	assert.Equal(t, []string{pathOf(1)}, f.player.OpenCalls())
	assert.Equal(t, StatePlaying, f.svc.State())
}

func TestService_Enqueue_AutoplayLeavesPlayingQueueAlone(t *testing.T) {
	f := newFixture(t, Options{Autoplay: true}, 1, 2, 3)
	ctx := context.Background()
	require.NoError(t, f.svc.Enqueue(ctx, []queue.ID{1}, queue.EnqueueLast))

	require.NoError(t, f.svc.Enqueue(ctx, []queue.ID{2, 3}, queue.EnqueueLast))

	assert.Equal(t, 0, f.position(t))
	assert.Len(t, f.player.OpenCalls(), 1)
}

func TestService_Enqueue_NowPlaysInsertedEntry(t *testing.T) {
	f := loaded(t, 1, 1, 2, 3)
	f.lib.add(9)

	require.NoError(t, f.svc.Enqueue(context.Background(), []queue.ID{9}, queue.EnqueueNow))

	assert.Equal(t, []queue.ID{1, 9, 2, 3}, f.svc.IDs())
	assert.Equal(t, 1, f.position(t))
	assert.Equal(t, pathOf(9), f.lastOpened(t))
	assert.Equal(t, StatePlaying, f.svc.State())

	cur, ok := f.svc.Current()
	require.True(t, ok)
	assert.Equal(t, queue.ID(9), cur.ID)
}

func TestService_Enqueue_EmptyIsNoop(t *testing.T) {
	f := newFixture(t, Options{Autoplay: true})

	require.NoError(t, f.svc.Enqueue(context.Background(), nil, queue.EnqueueNow))

	assert.Equal(t, 0, f.svc.QueueLen())
	assert.Empty(t, f.player.OpenCalls())
	assert.Empty(t, f.saves.Saves())
	assert.Equal(t, 0, f.lib.Calls())
}

func TestService_Enqueue_ExcisesUnknownIDs(t *testing.T) {
	f := newFixture(t, Options{}, 5)

	require.NoError(t, f.svc.Enqueue(context.Background(), []queue.ID{5, 7, 5}, queue.EnqueueLast))

	assert.Equal(t, []queue.ID{5, 5}, f.svc.IDs())
	for i := range f.svc.QueueLen() {
		_, err := f.svc.RowAt(i)
		assert.NoError(t, err)
	}
}

func TestService_Enqueue_FetchErrorIsReturned(t *testing.T) {
	f := newFixture(t, Options{}, 1)
	f.lib.err = errors.New("database is locked")

	err := f.svc.Enqueue(context.Background(), []queue.ID{1}, queue.EnqueueNow)

	require.Error(t, err)
	assert.ErrorIs(t, err, f.lib.err)
	assert.Empty(t, f.player.OpenCalls())
}

func TestService_Move_KeepsPlayingEntry(t *testing.T) {
	f := loaded(t, 0, 1, 2, 3)

	require.True(t, f.svc.Move(0, 2))

	assert.Equal(t, []queue.ID{2, 3, 1}, f.svc.IDs())
	assert.Equal(t, 2, f.position(t))
	assert.Len(t, f.player.OpenCalls(), 1)
	assert.Equal(t, StatePlaying, f.svc.State())

	row, err := f.svc.RowAt(2)
	require.NoError(t, err)
	assert.Equal(t, queue.ID(1), row.ID)
}

func TestService_Move_EmptyQueue(t *testing.T) {
	f := newFixture(t, Options{})
	assert.False(t, f.svc.Move(0, 1))
}

func TestService_RemoveRange_PlayingEntryFallsBack(t *testing.T) {
	f := loaded(t, 1, 1, 2, 3, 4)

	n, err := f.svc.RemoveRange(context.Background(), 1, 2)

	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []queue.ID{1, 4}, f.svc.IDs())
	assert.Equal(t, 1, f.position(t))
	assert.Equal(t, pathOf(4), f.lastOpened(t))
	assert.Equal(t, StatePlaying, f.svc.State())
}

func TestService_RemoveRange_PausedFallbackStaysPaused(t *testing.T) {
	f := loaded(t, 0, 1, 2)
	f.svc.Pause()

	_, err := f.svc.RemoveRange(context.Background(), 0, 0)

	require.NoError(t, err)
	assert.Equal(t, pathOf(2), f.lastOpened(t))
	assert.Equal(t, StatePaused, f.svc.State())
}

func TestService_RemoveRange_TailStops(t *testing.T) {
	f := loaded(t, 2, 1, 2, 3)

	n, err := f.svc.RemoveRange(context.Background(), 2, 10)

	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, queue.NoPosition, f.position(t))
	assert.Equal(t, StateStopped, f.svc.State())
}

func TestService_RemoveRange_StoppedMovesCursorOnly(t *testing.T) {
	f := loaded(t, 0, 1, 2, 3)
	f.svc.Stop()
	opens := len(f.player.OpenCalls())

	_, err := f.svc.RemoveRange(context.Background(), 0, 0)

	require.NoError(t, err)
	assert.Equal(t, 0, f.position(t))
	assert.Len(t, f.player.OpenCalls(), opens)
	assert.Equal(t, StateStopped, f.svc.State())
}

func TestService_RemoveRange_OtherEntriesKeepPlaying(t *testing.T) {
	f := loaded(t, 2, 1, 2, 3)

	n, err := f.svc.RemoveRange(context.Background(), 0, 0)

	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, f.position(t))
	assert.Len(t, f.player.OpenCalls(), 1)
}

func TestService_RemoveRange_InvalidRange(t *testing.T) {
	f := loaded(t, 0, 1, 2)

	n, err := f.svc.RemoveRange(context.Background(), 5, 8)

	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, []queue.ID{1, 2}, f.svc.IDs())
}

func TestService_Interleave(t *testing.T) {
	f := loaded(t, 0, 1, 2, 3)
	for _, id := range []queue.ID{100, 101, 102} {
		f.lib.add(id)
	}

	require.NoError(t, f.svc.Interleave(context.Background(), []queue.ID{100, 101, 102}, 1, 1))

	assert.Equal(t, []queue.ID{1, 100, 2, 101, 3, 102}, f.svc.IDs())
	assert.Equal(t, 0, f.position(t))
	assert.Len(t, f.player.OpenCalls(), 1)
	row, err := f.svc.RowAt(5)
	require.NoError(t, err)
	assert.Equal(t, queue.ID(102), row.ID)
}

func TestService_Shuffle_KeepsCurrentTrack(t *testing.T) {
	f := newFixture(t, Options{Rand: rand.New(rand.NewPCG(7, 11))}, 1, 2, 3)
	require.NoError(t, f.svc.Load(context.Background(), []queue.ID{1, 2, 3}, 0))

	require.True(t, f.svc.Shuffle())

	ids := f.svc.IDs()
	assert.ElementsMatch(t, []queue.ID{1, 2, 3}, ids)
	pos := f.position(t)
	assert.Equal(t, queue.ID(1), ids[pos])
	assert.Len(t, f.player.OpenCalls(), 1)
}

func TestService_Shuffle_TooShort(t *testing.T) {
	f := loaded(t, 0, 1)
	assert.False(t, f.svc.Shuffle())
}

func TestService_Deduplicate_MovesCursorToKeptOccurrence(t *testing.T) {
	f := loaded(t, 3, 1, 2, 1, 3, 2)
	opens := len(f.player.OpenCalls())
	require.Equal(t, pathOf(3), f.lastOpened(t))

	require.NoError(t, f.svc.SetPosition(context.Background(), 4))
	require.Equal(t, pathOf(2), f.lastOpened(t))
	opens++

	n := f.svc.Deduplicate()

	assert.Equal(t, 2, n)
	assert.Equal(t, []queue.ID{1, 2, 3}, f.svc.IDs())
	assert.Equal(t, 1, f.position(t))
	assert.Len(t, f.player.OpenCalls(), opens)
	assert.Equal(t, StatePlaying, f.svc.State())
}

func TestService_Deduplicate_Nothing(t *testing.T) {
	f := loaded(t, 0, 1, 2)
	assert.Zero(t, f.svc.Deduplicate())
}

func TestService_Load(t *testing.T) {
	tests := []struct {
		name    string
		pos     int
		wantPos int
	}{
		{"valid position", 2, 2},
		{"negative position", -1, 0},
		{"position past end", 7, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, Options{}, 1, 2, 3)

			require.NoError(t, f.svc.Load(context.Background(), []queue.ID{1, 2, 3}, tt.pos))

			assert.Equal(t, tt.wantPos, f.position(t))
			assert.Equal(t, pathOf(queue.ID(tt.wantPos+1)), f.lastOpened(t))
			assert.Equal(t, StatePlaying, f.svc.State())
		})
	}
}

func TestService_Load_EmptyStops(t *testing.T) {
	f := loaded(t, 0, 1)

	require.NoError(t, f.svc.Load(context.Background(), nil, 0))

	assert.Equal(t, 0, f.svc.QueueLen())
	assert.Equal(t, StateStopped, f.svc.State())
}

func TestService_Load_OpenErrorReturnedUnchanged(t *testing.T) {
	f := newFixture(t, Options{}, 1)
	openErr := errors.New("decode failed")
	f.player.SetOpenError(openErr)

	err := f.svc.Load(context.Background(), []queue.ID{1}, 0)

	assert.Same(t, openErr, err)
}

func TestService_Restore(t *testing.T) {
	f := newFixture(t, Options{}, 1, 3)

	err := f.svc.Restore(context.Background(), state.QueueState{
		IDs:        []queue.ID{1, 2, 3},
		Position:   2,
		RepeatMode: int(RepeatAll),
	})

	require.NoError(t, err)
	assert.Equal(t, []queue.ID{1, 3}, f.svc.IDs())
	assert.Equal(t, 1, f.position(t))
	assert.Equal(t, RepeatAll, f.svc.RepeatMode())
	assert.Empty(t, f.player.OpenCalls())
	assert.Equal(t, StateStopped, f.svc.State())

	ok, err := f.svc.Undo(context.Background())
	require.NoError(t, err)
	assert.False(t, ok, "restore resets history")
}

func TestService_Restore_UnknownRepeatMode(t *testing.T) {
	f := newFixture(t, Options{}, 1)

	require.NoError(t, f.svc.Restore(context.Background(), state.QueueState{
		IDs: []queue.ID{1}, Position: 0, RepeatMode: 17,
	}))

	assert.Equal(t, RepeatNone, f.svc.RepeatMode())
}

func TestService_UndoRedo(t *testing.T) {
	f := loaded(t, 0, 1, 2, 3)
	ctx := context.Background()
	_, err := f.svc.RemoveRange(ctx, 2, 2)
	require.NoError(t, err)

	ok, err := f.svc.Undo(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []queue.ID{1, 2, 3}, f.svc.IDs())
	row, err := f.svc.RowAt(2)
	require.NoError(t, err)
	assert.Equal(t, queue.ID(3), row.ID)

	ok, err = f.svc.Redo(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []queue.ID{1, 2}, f.svc.IDs())

	ok, err = f.svc.Redo(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Len(t, f.player.OpenCalls(), 1, "the playing entry never changed")
}

func TestService_Undo_FollowsPlayingEntry(t *testing.T) {
	f := loaded(t, 0, 1, 2)
	ctx := context.Background()
	f.lib.add(9)
	require.NoError(t, f.svc.Enqueue(ctx, []queue.ID{9}, queue.EnqueueNow))
	require.Equal(t, pathOf(9), f.lastOpened(t))

	ok, err := f.svc.Undo(ctx)

	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []queue.ID{1, 2}, f.svc.IDs())
	assert.Equal(t, pathOf(1), f.lastOpened(t))
}

func TestService_Undo_ResyncsVanishedRows(t *testing.T) {
	f := loaded(t, 0, 1, 2, 3)
	ctx := context.Background()
	_, err := f.svc.RemoveRange(ctx, 2, 2)
	require.NoError(t, err)
	f.lib.remove(3)
	_, err = f.svc.Requery(ctx)
	require.NoError(t, err)

	_, err = f.svc.Undo(ctx)

	require.NoError(t, err)
	assert.Equal(t, []queue.ID{1, 2}, f.svc.IDs())
}

func TestService_SetPosition(t *testing.T) {
	f := loaded(t, 0, 1, 2, 3)

	require.NoError(t, f.svc.SetPosition(context.Background(), 2))

	assert.Equal(t, 2, f.position(t))
	assert.Equal(t, pathOf(3), f.lastOpened(t))
	assert.Equal(t, StatePlaying, f.svc.State())
}

func TestService_SetPosition_PausedStaysPaused(t *testing.T) {
	f := loaded(t, 0, 1, 2)
	f.svc.Pause()

	require.NoError(t, f.svc.SetPosition(context.Background(), 1))

	assert.Equal(t, StatePaused, f.svc.State())
}

func TestService_SetPosition_OutOfRange(t *testing.T) {
	f := loaded(t, 0, 1, 2)

	err := f.svc.SetPosition(context.Background(), 2)

	assert.ErrorIs(t, err, ErrOutOfRange)
	assert.Equal(t, 0, f.position(t))
}

func TestService_NextPrevious(t *testing.T) {
	f := loaded(t, 0, 1, 2)
	ctx := context.Background()

	ok, err := f.svc.Previous(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "no wrap at head")

	ok, err = f.svc.Next(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, f.position(t))

	f.svc.SetRepeatMode(RepeatAll)
	ok, err = f.svc.Next(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "manual next ignores the repeat mode")
	assert.Equal(t, 1, f.position(t))

	ok, err = f.svc.Previous(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, pathOf(1), f.lastOpened(t))
}

func TestService_Next_NoPositionStartsAtHead(t *testing.T) {
	f := newFixture(t, Options{}, 1, 2)
	require.NoError(t, f.svc.Enqueue(context.Background(), []queue.ID{1, 2}, queue.EnqueueLast))

	ok, err := f.svc.Next(context.Background())

	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 0, f.position(t))
	assert.Equal(t, StatePlaying, f.svc.State())
}

func TestService_Next_EmptyQueue(t *testing.T) {
	f := newFixture(t, Options{})

	_, err := f.svc.Next(context.Background())

	assert.ErrorIs(t, err, ErrEmptyQueue)
}

func TestService_PreviousOrRestart(t *testing.T) {
	t.Run("past threshold restarts", func(t *testing.T) {
		f := loaded(t, 1, 1, 2)
		f.player.SetPosition(10 * time.Second)

		ok, err := f.svc.PreviousOrRestart(context.Background())

		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, 1, f.position(t))
		assert.Equal(t, []time.Duration{0}, f.player.SeekCalls())
	})

	t.Run("before threshold goes back", func(t *testing.T) {
		f := loaded(t, 1, 1, 2)
		f.player.SetPosition(time.Second)

		ok, err := f.svc.PreviousOrRestart(context.Background())

		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, 0, f.position(t))
		assert.Empty(t, f.player.SeekCalls())
	})
}

func TestService_Play(t *testing.T) {
	f := newFixture(t, Options{}, 1, 2)
	ctx := context.Background()
	require.NoError(t, f.svc.Enqueue(ctx, []queue.ID{1, 2}, queue.EnqueueLast))

	require.NoError(t, f.svc.Play(ctx))

	assert.Equal(t, 0, f.position(t))
	assert.Equal(t, StatePlaying, f.svc.State())

	f.svc.Pause()
	assert.Equal(t, StatePaused, f.svc.State())
	require.NoError(t, f.svc.Play(ctx))
	assert.Equal(t, StatePlaying, f.svc.State())
	assert.Len(t, f.player.OpenCalls(), 1, "resume does not reopen")
}

func TestService_Play_StoppedReopensCursor(t *testing.T) {
	f := loaded(t, 1, 1, 2)
	f.svc.Stop()

	require.NoError(t, f.svc.Play(context.Background()))

	assert.Equal(t, 1, f.position(t))
	assert.Equal(t, []string{pathOf(2), pathOf(2)}, f.player.OpenCalls())
}

func TestService_Play_EmptyQueue(t *testing.T) {
	f := newFixture(t, Options{})
	assert.ErrorIs(t, f.svc.Play(context.Background()), ErrEmptyQueue)
}

func TestService_Toggle(t *testing.T) {
	f := newFixture(t, Options{}, 1)
	ctx := context.Background()
	require.NoError(t, f.svc.Enqueue(ctx, []queue.ID{1}, queue.EnqueueLast))

	require.NoError(t, f.svc.Toggle(ctx))
	assert.Equal(t, StatePlaying, f.svc.State())
	require.NoError(t, f.svc.Toggle(ctx))
	assert.Equal(t, StatePaused, f.svc.State())
	require.NoError(t, f.svc.Toggle(ctx))
	assert.Equal(t, StatePlaying, f.svc.State())
}

func TestService_SeekTo(t *testing.T) {
	f := newFixture(t, Options{})
	assert.ErrorIs(t, f.svc.SeekTo(time.Second), player.ErrNoTrack)

	f = loaded(t, 0, 1)
	require.NoError(t, f.svc.SeekTo(42*time.Second))
	assert.Equal(t, []time.Duration{42 * time.Second}, f.player.SeekCalls())
}

func TestService_CycleRepeatMode(t *testing.T) {
	f := newFixture(t, Options{})

	assert.Equal(t, RepeatAll, f.svc.CycleRepeatMode())
	assert.Equal(t, RepeatCurrent, f.svc.CycleRepeatMode())
	assert.Equal(t, StopAfterCurrent, f.svc.CycleRepeatMode())
	assert.Equal(t, RepeatNone, f.svc.CycleRepeatMode())
}

func TestService_Requery_ExcisesVanishedTracks(t *testing.T) {
	f := loaded(t, 0, 1, 2, 3, 2)
	f.lib.remove(2)

	removed, err := f.svc.Requery(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []queue.ID{2}, removed)
	assert.Equal(t, []queue.ID{1, 3}, f.svc.IDs())
	assert.Equal(t, 0, f.position(t))
	assert.Equal(t, StatePlaying, f.svc.State())
}

func TestService_Requery_PlayingTrackVanishes(t *testing.T) {
	f := loaded(t, 1, 1, 2, 3)
	f.lib.remove(2)

	_, err := f.svc.Requery(context.Background())

	require.NoError(t, err)
	assert.Equal(t, queue.NoPosition, f.position(t))
	assert.Equal(t, StateStopped, f.svc.State())
}

func TestService_Requery_SupersededSyncIsDiscarded(t *testing.T) {
	f := loaded(t, 0, 1, 2)
	ctx := context.Background()
	f.lib.add(4)
	f.lib.onFetch = func() {
		// Runs while the first sync is fetching without the lock.
		require.NoError(t, f.svc.Enqueue(ctx, []queue.ID{4}, queue.EnqueueLast))
	}

	removed, err := f.svc.Requery(ctx)

	require.NoError(t, err)
	assert.Empty(t, removed)
	assert.Equal(t, []queue.ID{1, 2, 4}, f.svc.IDs())
	row, err := f.svc.RowAt(2)
	require.NoError(t, err)
	assert.Equal(t, queue.ID(4), row.ID)
}

func TestService_Requery_RetriesWhenQueueGrows(t *testing.T) {
	f := loaded(t, 0, 1, 2, 3)
	ctx := context.Background()
	_, err := f.svc.RemoveRange(ctx, 2, 2)
	require.NoError(t, err)

	calls := f.lib.Calls()
	f.lib.onFetch = func() {
		// Undo brings 3 back from the cached snapshot without a fetch.
		ok, err := f.svc.Undo(ctx)
		require.NoError(t, err)
		require.True(t, ok)
	}

	_, err = f.svc.Requery(ctx)

	require.NoError(t, err)
	assert.Equal(t, calls+2, f.lib.Calls())
	assert.Equal(t, []queue.ID{1, 2, 3}, f.svc.IDs())
	for i := range 3 {
		_, err := f.svc.RowAt(i)
		assert.NoError(t, err)
	}
}

func TestService_Requery_SecondMissLeavesProjectionStale(t *testing.T) {
	f := loaded(t, 0, 1, 2, 3)
	ctx := context.Background()
	f.lib.remove(2)
	f.lib.onFetch = func() {
		// 3 vanishes before the retry.
		f.lib.remove(3)
	}

	removed, err := f.svc.Requery(ctx)

	require.NoError(t, err)
	assert.Equal(t, []queue.ID{2, 3}, removed)
	assert.Equal(t, []queue.ID{1}, f.svc.IDs())
	assert.Equal(t, 0, f.position(t))
	assert.Equal(t, StatePlaying, f.svc.State())
	_, err = f.svc.RowAt(0)
	assert.ErrorIs(t, err, projection.ErrStale)

	removed, err = f.svc.Requery(ctx)

	require.NoError(t, err)
	assert.Empty(t, removed)
	row, err := f.svc.RowAt(0)
	require.NoError(t, err)
	assert.Equal(t, pathOf(1), row.Path)
}

func TestService_Enqueue_NowVanishedKeepsPlaying(t *testing.T) {
	f := loaded(t, 0, 1, 2)

	err := f.svc.Enqueue(context.Background(), []queue.ID{99}, queue.EnqueueNow)

	require.NoError(t, err)
	assert.Equal(t, []queue.ID{1, 2}, f.svc.IDs())
	assert.Equal(t, 0, f.position(t))
	assert.Equal(t, StatePlaying, f.svc.State())
	assert.Equal(t, []string{pathOf(1)}, f.player.OpenCalls())
}

func TestService_Enqueue_NowVanishedFallsThrough(t *testing.T) {
	f := loaded(t, 1, 1, 2, 3)
	f.lib.add(4)

	err := f.svc.Enqueue(context.Background(), []queue.ID{99, 4}, queue.EnqueueNow)

	require.NoError(t, err)
	assert.Equal(t, []queue.ID{1, 4, 2, 3}, f.svc.IDs())
	assert.Equal(t, 1, f.position(t))
	assert.Equal(t, pathOf(4), f.lastOpened(t))
	assert.Equal(t, StatePlaying, f.svc.State())
}

func TestService_Load_VanishedTarget(t *testing.T) {
	f := newFixture(t, Options{}, 1, 3)

	require.NoError(t, f.svc.Load(context.Background(), []queue.ID{1, 2, 3}, 1))

	assert.Equal(t, []queue.ID{1, 3}, f.svc.IDs())
	assert.Equal(t, 1, f.position(t))
	assert.Equal(t, pathOf(3), f.lastOpened(t))
	assert.Equal(t, StatePlaying, f.svc.State())
}

func TestService_Load_VanishedLastTarget(t *testing.T) {
	f := newFixture(t, Options{}, 1, 2)

	require.NoError(t, f.svc.Load(context.Background(), []queue.ID{1, 2, 9}, 2))

	assert.Equal(t, []queue.ID{1, 2}, f.svc.IDs())
	assert.Equal(t, queue.NoPosition, f.position(t))
	assert.Empty(t, f.player.OpenCalls())
	assert.Equal(t, StateStopped, f.svc.State())
}

func TestService_Persists(t *testing.T) {
	f := newFixture(t, Options{}, 1, 2)
	ctx := context.Background()

	require.NoError(t, f.svc.Load(ctx, []queue.ID{1, 2}, 1))
	f.svc.SetRepeatMode(RepeatCurrent)
	f.svc.Pause()

	saves := f.saves.Saves()
	require.Len(t, saves, 2)
	assert.Equal(t, state.QueueState{IDs: []queue.ID{1, 2}, Position: 1, RepeatMode: int(RepeatNone)}, saves[0])
	assert.Equal(t, int(RepeatCurrent), saves[1].RepeatMode)
	assert.Equal(t, saves[1], f.svc.Snapshot())
}

func TestService_Close(t *testing.T) {
	f := loaded(t, 0, 1)
	sub := f.svc.Subscribe()

	require.NoError(t, f.svc.Close())
	require.NoError(t, f.svc.Close(), "close is idempotent")

	<-sub.Done
	assert.Equal(t, StateStopped, f.svc.State())
	assert.ErrorIs(t, f.svc.Enqueue(context.Background(), []queue.ID{1}, queue.EnqueueLast), ErrClosed)
	assert.ErrorIs(t, f.svc.Play(context.Background()), ErrClosed)
	_, err := f.svc.Requery(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
}
