// Package projection maps queue positions to metadata rows fetched in one
// batch from an id-keyed store.
package projection

import (
	"context"
	"slices"
	"sort"

	"github.com/cockroachdb/errors"

	"github.com/llehouerou/playq/internal/queue"
)

// Keyed is a metadata row addressable by its track ID.
type Keyed interface {
	Key() queue.ID
}

// Fetcher loads rows for a set of IDs. Rows for unknown IDs are simply
// absent. Implementations should return rows sorted by ascending ID.
type Fetcher[R Keyed] interface {
	FetchByIDs(ctx context.Context, ids []queue.ID) ([]R, error)
}

// Snapshot is the result of one batch fetch: the IDs that actually have a
// row, strictly ascending, and the rows in the same order.
type Snapshot[R Keyed] struct {
	ids  []queue.ID
	rows []R
}

// NewSnapshot builds a snapshot from rows in any order. Rows are sorted by
// key and duplicate keys are dropped (first one wins).
func NewSnapshot[R Keyed](rows []R) Snapshot[R] {
	if !ascending(rows) {
		rows = slices.Clone(rows)
		sort.SliceStable(rows, func(i, j int) bool {
			return rows[i].Key() < rows[j].Key()
		})
	}

	s := Snapshot[R]{
		ids:  make([]queue.ID, 0, len(rows)),
		rows: make([]R, 0, len(rows)),
	}
	for _, r := range rows {
		k := r.Key()
		if n := len(s.ids); n > 0 && s.ids[n-1] == k {
			continue
		}
		s.ids = append(s.ids, k)
		s.rows = append(s.rows, r)
	}
	return s
}

func ascending[R Keyed](rows []R) bool {
	for i := 1; i < len(rows); i++ {
		if rows[i-1].Key() > rows[i].Key() {
			return false
		}
	}
	return true
}

// Fetch issues one batch fetch for the distinct members of ids.
// An empty id list returns an empty snapshot without calling the store.
func Fetch[R Keyed](ctx context.Context, f Fetcher[R], ids []queue.ID) (Snapshot[R], error) {
	distinct := Distinct(ids)
	if len(distinct) == 0 {
		return Snapshot[R]{}, nil
	}

	rows, err := f.FetchByIDs(ctx, distinct)
	if err != nil {
		return Snapshot[R]{}, errors.Wrapf(err, "fetch %d ids", len(distinct))
	}
	return NewSnapshot(rows), nil
}

// Distinct returns the unique members of ids in ascending order.
func Distinct(ids []queue.ID) []queue.ID {
	out := slices.Clone(ids)
	slices.Sort(out)
	return slices.Compact(out)
}

// Len returns the number of rows.
func (s Snapshot[R]) Len() int {
	return len(s.ids)
}

// IDs returns a copy of the ascending row keys.
func (s Snapshot[R]) IDs() []queue.ID {
	return slices.Clone(s.ids)
}

// Index binary-searches the row keys for id.
func (s Snapshot[R]) Index(id queue.ID) (int, bool) {
	i := sort.Search(len(s.ids), func(i int) bool { return s.ids[i] >= id })
	if i < len(s.ids) && s.ids[i] == id {
		return i, true
	}
	return -1, false
}

// Row returns the row for id.
func (s Snapshot[R]) Row(id queue.ID) (R, bool) {
	i, ok := s.Index(id)
	if !ok {
		var zero R
		return zero, false
	}
	return s.rows[i], true
}

// Has reports whether id has a row.
func (s Snapshot[R]) Has(id queue.ID) bool {
	_, ok := s.Index(id)
	return ok
}

// Missing returns the distinct members of ids that have no row, ascending.
func (s Snapshot[R]) Missing(ids []queue.ID) []queue.ID {
	var missing []queue.ID
	for _, id := range Distinct(ids) {
		if !s.Has(id) {
			missing = append(missing, id)
		}
	}
	return missing
}

// Covers reports whether every member of ids has a row.
func (s Snapshot[R]) Covers(ids []queue.ID) bool {
	for _, id := range ids {
		if !s.Has(id) {
			return false
		}
	}
	return true
}
