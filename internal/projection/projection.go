package projection

import (
	"context"
	"slices"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/llehouerou/playq/internal/queue"
)

var (
	// ErrOutOfRange is returned by RowAt for a position outside the queue.
	ErrOutOfRange = errors.New("position out of range")
	// ErrStale is returned by RowAt when the queued id has no cached row.
	// The caller should run a full sync.
	ErrStale = errors.New("projection is stale")
)

// Result describes what Apply did to the queue.
type Result struct {
	// Removed lists the ids excised because their row vanished.
	Removed []queue.ID
	// Stale is set when rows kept vanishing on the last attempt and the
	// projection was left without rows.
	Stale bool
}

// Projection caches the rows for a queue's ids and answers position
// lookups by binary search. It is not safe for concurrent use.
type Projection[R Keyed] struct {
	fetcher Fetcher[R]
	snap    Snapshot[R]
	ids     []queue.ID // queue order, post-cleanup
	stale   bool
}

// New creates an empty projection reading from f.
func New[R Keyed](f Fetcher[R]) *Projection[R] {
	return &Projection[R]{fetcher: f}
}

// Fetch runs a batch fetch through the projection's store without touching
// the cache, so callers can release their locks across it. The result is
// handed to Apply.
func (p *Projection[R]) Fetch(ctx context.Context, ids []queue.ID) (Snapshot[R], error) {
	return Fetch(ctx, p.fetcher, ids)
}

// Apply reconciles q with snap, the rows fetched for requested. Every
// requested id without a row is excised from q. When nothing was excised
// and snap covers q, snap is installed and retry is false.
//
// Otherwise the caller should fetch q again and retry is set, unless last is
// set. On the last attempt a sync that still had to excise leaves an empty,
// stale projection over q; one that only fell behind a growing queue keeps
// snap for the ids it covers.
func (p *Projection[R]) Apply(snap Snapshot[R], requested []queue.ID, q *queue.Queue, last bool) (res Result, retry bool) {
	for _, id := range snap.Missing(requested) {
		if q.RemoveID(id) > 0 {
			res.Removed = append(res.Removed, id)
		}
	}
	if len(res.Removed) > 0 {
		zlog.Debug().
			Bool("last", last).
			Interface("ids", res.Removed).
			Msg("excised queue entries without metadata")
	}

	ids := q.IDs()
	switch {
	case len(res.Removed) == 0 && snap.Covers(ids):
		p.Install(snap, ids)
		return res, false
	case !last:
		return res, true
	case len(res.Removed) > 0:
		p.Install(Snapshot[R]{}, ids)
		res.Stale = p.stale
	default:
		p.Install(snap, ids)
	}
	return res, false
}

// Install caches snap for the queue order ids. The projection is marked
// stale if snap does not cover every id.
func (p *Projection[R]) Install(snap Snapshot[R], ids []queue.ID) {
	p.snap = snap
	p.ids = slices.Clone(ids)
	p.stale = !snap.Covers(ids)
}

// Refresh re-derives the projection for a new queue order without fetching.
// It returns false and marks the projection stale if ids contains an id the
// cached snapshot does not cover; a full sync is then required.
func (p *Projection[R]) Refresh(ids []queue.ID) bool {
	p.ids = slices.Clone(ids)
	p.stale = !p.snap.Covers(ids)
	return !p.stale
}

// RowAt returns the row for queue position pos.
func (p *Projection[R]) RowAt(pos int) (R, error) {
	var zero R
	if pos < 0 || pos >= len(p.ids) {
		return zero, errors.Wrapf(ErrOutOfRange, "position %d", pos)
	}
	row, ok := p.snap.Row(p.ids[pos])
	if !ok {
		return zero, errors.Wrapf(ErrStale, "id %d at position %d", p.ids[pos], pos)
	}
	return row, nil
}

// Snapshot returns the cached snapshot.
func (p *Projection[R]) Snapshot() Snapshot[R] {
	return p.snap
}

// Len returns the number of projected positions.
func (p *Projection[R]) Len() int {
	return len(p.ids)
}

// IDs returns a copy of the projected queue order.
func (p *Projection[R]) IDs() []queue.ID {
	return slices.Clone(p.ids)
}

// Stale reports whether a full sync is required.
func (p *Projection[R]) Stale() bool {
	return p.stale
}

// Reset drops all cached rows.
func (p *Projection[R]) Reset() {
	p.snap = Snapshot[R]{}
	p.ids = nil
	p.stale = false
}
