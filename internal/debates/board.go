// Package debates aggregates the independently paginated debate collections
// of one forum: a Board holding per-collection cursors and items, a Fetcher
// that fills it concurrently, the row status rules and the vote/adoption
// Mutator.
package debates

import (
	"fmt"
	"sync"

	"github.com/kingrea/forumterm/internal/forum"
)

// Snapshot is a read-only copy of one collection's state.
type Snapshot struct {
	Collection forum.Collection
	Items      []forum.Debate
	Page       int
	TotalPages int
	Loading    bool
	Loaded     bool
	Err        error
}

type collectionState struct {
	items      []forum.Debate
	page       int
	totalPages int
	loading    bool
	loaded     bool
	err        error
	generation uint64
}

// Board owns the page cursor set and fetched items for every collection of
// one forum. It is safe for concurrent use.
type Board struct {
	forum forum.Ref

	mu          sync.Mutex
	active      forum.Collection
	collections map[forum.Collection]*collectionState
}

// NewBoard returns a board opened on the first collection with every cursor at page 1.
func NewBoard(ref forum.Ref) *Board {
	b := &Board{
		forum:       ref,
		active:      forum.Collections[0],
		collections: make(map[forum.Collection]*collectionState, len(forum.Collections)),
	}
	for _, c := range forum.Collections {
		b.collections[c] = &collectionState{page: 1}
	}
	return b
}

// Forum is the forum the board aggregates.
func (b *Board) Forum() forum.Ref { return b.forum }

// Active returns the selected collection.
func (b *Board) Active() forum.Collection {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.active
}

// Select switches the active tab. It only changes which collection View
// resolves to; no cursor moves and nothing is fetched.
func (b *Board) Select(c forum.Collection) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.collections[c]; !ok {
		return fmt.Errorf("debates: unknown collection %q", c)
	}
	b.active = c
	return nil
}

// Cycle moves the active tab by delta positions, wrapping around.
func (b *Board) Cycle(delta int) forum.Collection {
	b.mu.Lock()
	defer b.mu.Unlock()
	idx := 0
	for i, c := range forum.Collections {
		if c == b.active {
			idx = i
			break
		}
	}
	n := len(forum.Collections)
	idx = ((idx+delta)%n + n) % n
	b.active = forum.Collections[idx]
	return b.active
}

// View returns the active collection's snapshot.
func (b *Board) View() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.snapshotLocked(b.active)
}

// Snapshot returns any collection's state.
func (b *Board) Snapshot(c forum.Collection) Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.snapshotLocked(c)
}

func (b *Board) snapshotLocked(c forum.Collection) Snapshot {
	st, ok := b.collections[c]
	if !ok {
		return Snapshot{Collection: c}
	}
	items := make([]forum.Debate, len(st.items))
	copy(items, st.items)
	return Snapshot{
		Collection: c,
		Items:      items,
		Page:       st.page,
		TotalPages: st.totalPages,
		Loading:    st.loading,
		Loaded:     st.loaded,
		Err:        st.err,
	}
}

// SetPage moves one collection's cursor and reports whether it changed.
// Pages are clamped to [1, totalPages] once the total is known; a loaded
// collection reporting no pages has exactly one.
func (b *Board) SetPage(c forum.Collection, page int) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	st, ok := b.collections[c]
	if !ok {
		return false, fmt.Errorf("debates: unknown collection %q", c)
	}
	if page < 1 {
		page = 1
	}
	limit := st.totalPages
	if st.loaded {
		limit = max(limit, 1)
	}
	if limit > 0 && page > limit {
		page = limit
	}
	if page == st.page {
		return false, nil
	}
	st.page = page
	return true, nil
}

// NextPage advances the active collection's cursor.
func (b *Board) NextPage() (forum.Collection, bool) {
	c := b.Active()
	cur := b.Snapshot(c).Page
	changed, _ := b.SetPage(c, cur+1)
	return c, changed
}

// PrevPage moves the active collection's cursor back.
func (b *Board) PrevPage() (forum.Collection, bool) {
	c := b.Active()
	cur := b.Snapshot(c).Page
	changed, _ := b.SetPage(c, cur-1)
	return c, changed
}

// Ticket identifies one in-flight request for a collection.
type Ticket struct {
	Collection forum.Collection
	Page       int
	generation uint64
}

// Begin marks a collection as loading and returns the ticket its response
// must present to Apply. Any earlier ticket for the collection goes stale.
func (b *Board) Begin(c forum.Collection) (Ticket, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	st, ok := b.collections[c]
	if !ok {
		return Ticket{}, fmt.Errorf("debates: unknown collection %q", c)
	}
	st.generation++
	st.loading = true
	return Ticket{Collection: c, Page: st.page, generation: st.generation}, nil
}

// Apply stores a fetched page. It returns false and drops the response when
// a newer request for the same collection has begun since the ticket.
func (b *Board) Apply(t Ticket, page forum.Page[forum.Debate]) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	st, ok := b.collections[t.Collection]
	if !ok || t.generation != st.generation {
		return false
	}
	st.loading = false
	st.loaded = true
	st.err = nil
	st.items = page.Items
	st.totalPages = page.TotalPages
	if page.Page > 0 {
		st.page = page.Page
	}
	return true
}

// Fail records a failed request, keeping the previous items.
func (b *Board) Fail(t Ticket, err error) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	st, ok := b.collections[t.Collection]
	if !ok || t.generation != st.generation {
		return false
	}
	st.loading = false
	st.err = err
	return true
}

// Find returns the first copy of a debate held by any collection.
func (b *Board) Find(id string) (forum.Debate, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, c := range forum.Collections {
		for _, d := range b.collections[c].items {
			if d.ID == id {
				return d, true
			}
		}
	}
	return forum.Debate{}, false
}

// UpdateDebate applies fn to every copy of the debate across collections and
// returns how many copies changed.
func (b *Board) UpdateDebate(id string, fn func(*forum.Debate)) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, st := range b.collections {
		for i := range st.items {
			if st.items[i].ID == id {
				fn(&st.items[i])
				n++
			}
		}
	}
	return n
}
