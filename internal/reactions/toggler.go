// Package reactions tracks one viewer's likes and votes on rules, chapters
// and debate points, applying each change locally before the server
// confirms it.
package reactions

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/kingrea/forumterm/internal/votes"
)

var ErrNoViewer = errors.New("reactions: a viewer id is required")

// Remote sends one reaction to the server. None clears the viewer's reaction.
type Remote func(ctx context.Context, entityID string, v votes.Value) error

// Toggler holds a ballot per entity.
type Toggler struct {
	remote Remote
	viewer string
	logger *zap.Logger

	mu      sync.Mutex
	ballots map[string]votes.Ballot
}

func NewToggler(viewer string, remote Remote, logger *zap.Logger) *Toggler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Toggler{
		remote:  remote,
		viewer:  strings.TrimSpace(viewer),
		logger:  logger,
		ballots: map[string]votes.Ballot{},
	}
}

// Seed loads the server's view of an entity's up and down sets.
func (t *Toggler) Seed(entityID string, up, down []string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ballots[entityID] = votes.FromSets(up, down)
}

// Value is the viewer's current reaction on an entity.
func (t *Toggler) Value(entityID string) votes.Value {
	t.mu.Lock()
	defer t.mu.Unlock()
	if b, ok := t.ballots[entityID]; ok {
		return b.Value(t.viewer)
	}
	return votes.None
}

// Sets returns the up and down member lists for an entity.
func (t *Toggler) Sets(entityID string) (up, down []string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if b, ok := t.ballots[entityID]; ok {
		return b.Up(), b.Down()
	}
	return nil, nil
}

func (t *Toggler) Tally(entityID string) votes.Tally {
	t.mu.Lock()
	defer t.mu.Unlock()
	if b, ok := t.ballots[entityID]; ok {
		return b.Tally()
	}
	return votes.Tally{}
}

// Cast moves the viewer's reaction to v. It reports false without calling the
// server when v is already the viewer's reaction. A failed remote call puts
// the viewer's previous reaction back unless a later cast has moved it.
func (t *Toggler) Cast(ctx context.Context, entityID string, v votes.Value) (bool, error) {
	if t.viewer == "" {
		return false, ErrNoViewer
	}
	if strings.TrimSpace(entityID) == "" {
		return false, errors.New("reactions: entity id is required")
	}

	t.mu.Lock()
	next := t.ballots[entityID].Clone()
	prev := next.Value(t.viewer)
	if !next.Cast(t.viewer, v) {
		t.mu.Unlock()
		return false, nil
	}
	t.ballots[entityID] = next
	t.mu.Unlock()

	if err := t.remote(ctx, entityID, v); err != nil {
		t.mu.Lock()
		// A newer cast since this one owns the ballot now.
		if cur := t.ballots[entityID]; cur.Value(t.viewer) == v {
			restored := cur.Clone()
			restored.Cast(t.viewer, prev)
			t.ballots[entityID] = restored
		}
		t.mu.Unlock()
		t.logger.Warn("reaction rolled back",
			zap.String("entity", entityID),
			zap.String("value", v.String()),
			zap.Error(err))
		return false, err
	}
	return true, nil
}
