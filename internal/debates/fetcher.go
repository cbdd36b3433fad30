package debates

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kingrea/forumterm/internal/forum"
	"github.com/kingrea/forumterm/internal/logbook"
)

// Source serves one page of a debate collection.
type Source interface {
	Debates(ctx context.Context, collection forum.Collection, ref forum.Ref, page, limit int) (forum.Page[forum.Debate], error)
}

// Fetcher issues one request per collection and folds the responses into a Board.
type Fetcher struct {
	source   Source
	pageSize int
	logger   *zap.Logger
	journal  *logbook.Logbook
}

// FetcherOption customizes a Fetcher.
type FetcherOption func(*Fetcher)

// WithLogger attaches a diagnostic logger.
func WithLogger(l *zap.Logger) FetcherOption {
	return func(f *Fetcher) {
		if l != nil {
			f.logger = l
		}
	}
}

// WithJournal routes per-collection failures to the user-facing logbook.
func WithJournal(j *logbook.Logbook) FetcherOption {
	return func(f *Fetcher) {
		f.journal = j
	}
}

// NewFetcher builds a fetcher requesting pageSize debates per page.
func NewFetcher(source Source, pageSize int, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{source: source, pageSize: pageSize, logger: zap.NewNop()}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return f
}

// Refresh fetches the given collections (every collection when none are
// named) concurrently at their current cursors. One collection failing never
// affects the others: its error is logged, kept on the board next to its
// previous items, and returned in the map keyed by collection. Responses that
// were overtaken by a newer request are discarded.
func (f *Fetcher) Refresh(ctx context.Context, board *Board, collections ...forum.Collection) map[forum.Collection]error {
	if len(collections) == 0 {
		collections = forum.Collections
	}
	var (
		mu   sync.Mutex
		errs = map[forum.Collection]error{}
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, c := range uniqueCollections(collections) {
		c := c // per-iteration copy; go directive is below 1.22
		g.Go(func() error {
			if err := f.fetchOne(gctx, board, c); err != nil {
				mu.Lock()
				errs[c] = err
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return errs
}

// RefreshOne fetches a single collection.
func (f *Fetcher) RefreshOne(ctx context.Context, board *Board, c forum.Collection) error {
	return f.fetchOne(ctx, board, c)
}

func (f *Fetcher) fetchOne(ctx context.Context, board *Board, c forum.Collection) error {
	ticket, err := board.Begin(c)
	if err != nil {
		return err
	}
	page, err := f.source.Debates(ctx, c, board.Forum(), ticket.Page, f.pageSize)
	if err != nil {
		if board.Fail(ticket, err) {
			f.logger.Warn("debate collection fetch failed",
				zap.String("collection", string(c)),
				zap.String("forum", board.Forum().String()),
				zap.Int("page", ticket.Page),
				zap.Error(err))
			f.journal.Warn("Could not load %s: %v", c.Title(), err)
		}
		return err
	}
	if !board.Apply(ticket, page) {
		f.logger.Debug("discarded stale debate page",
			zap.String("collection", string(c)),
			zap.Int("page", ticket.Page))
		return nil
	}
	f.logger.Debug("debate collection fetched",
		zap.String("collection", string(c)),
		zap.Int("page", ticket.Page),
		zap.Int("items", len(page.Items)),
		zap.Int("total_pages", page.TotalPages))
	return nil
}

func uniqueCollections(in []forum.Collection) []forum.Collection {
	seen := make(map[forum.Collection]struct{}, len(in))
	out := make([]forum.Collection, 0, len(in))
	for _, c := range in {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}
