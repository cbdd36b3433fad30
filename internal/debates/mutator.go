package debates

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kingrea/forumterm/internal/forum"
	"github.com/kingrea/forumterm/internal/logbook"
	"github.com/kingrea/forumterm/internal/votes"
)

// Action is a mutation the board can apply to one debate.
type Action string

const (
	ActionUpvote   Action = "upvote"
	ActionDownvote Action = "downvote"
	ActionUnvote   Action = "unvote"
	ActionAdopt    Action = "adopt"
	ActionApprove  Action = "approve"
	ActionReject   Action = "reject"
)

var (
	// ErrNoViewer is returned for votes when no signed-in user is configured.
	ErrNoViewer = errors.New("debates: voting requires a viewer id")
	// ErrUnchanged is returned when a vote would not change the ballot.
	ErrUnchanged = errors.New("debates: vote unchanged")
)

// Mutations is the remote side of the mutator.
type Mutations interface {
	VoteDebate(ctx context.Context, debateID string, v votes.Value) error
	AdoptDebate(ctx context.Context, debateID string, target forum.Ref) error
	ReviewDebate(ctx context.Context, debateID string, review forum.Review) error
}

// Request describes one mutation.
type Request struct {
	Action   Action
	DebateID string
	// Target is the forum adopting the debate.
	Target forum.Ref
	// Reason is mandatory for ActionReject.
	Reason string
}

// Validate checks the request without touching the network.
func (r Request) Validate() error {
	if strings.TrimSpace(r.DebateID) == "" {
		return errors.New("debates: debate id is required")
	}
	switch r.Action {
	case ActionUpvote, ActionDownvote, ActionUnvote, ActionApprove:
		return nil
	case ActionReject:
		return r.review().Validate()
	case ActionAdopt:
		return r.Target.Validate()
	}
	return fmt.Errorf("debates: unknown action %q", r.Action)
}

func (r Request) review() forum.Review {
	return forum.Review{Approve: r.Action == ActionApprove, Reason: strings.TrimSpace(r.Reason)}
}

// Result reports which collections were refetched after a mutation.
type Result struct {
	Refreshed     []forum.Collection
	RefreshErrors map[forum.Collection]error
}

// Mutator applies votes, adoptions and reviews, then refetches what they affect.
type Mutator struct {
	remote  Mutations
	board   *Board
	fetcher *Fetcher
	viewer  string
	logger  *zap.Logger
	journal *logbook.Logbook
}

// NewMutator wires a mutator to a board and the fetcher that refreshes it.
func NewMutator(remote Mutations, board *Board, fetcher *Fetcher, viewer string, logger *zap.Logger, journal *logbook.Logbook) *Mutator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Mutator{
		remote:  remote,
		board:   board,
		fetcher: fetcher,
		viewer:  strings.TrimSpace(viewer),
		logger:  logger,
		journal: journal,
	}
}

// Apply validates and performs one mutation. Invalid requests, including a
// rejection without a reason, fail before any request is sent.
func (m *Mutator) Apply(ctx context.Context, req Request) (Result, error) {
	if err := req.Validate(); err != nil {
		return Result{}, err
	}
	var err error
	switch req.Action {
	case ActionUpvote:
		err = m.vote(ctx, req.DebateID, votes.Up)
	case ActionDownvote:
		err = m.vote(ctx, req.DebateID, votes.Down)
	case ActionUnvote:
		err = m.vote(ctx, req.DebateID, votes.None)
	case ActionAdopt:
		err = m.remote.AdoptDebate(ctx, req.DebateID, req.Target)
	case ActionApprove, ActionReject:
		err = m.remote.ReviewDebate(ctx, req.DebateID, req.review())
	}
	if err != nil {
		if !errors.Is(err, ErrUnchanged) {
			m.logger.Warn("debate mutation failed",
				zap.String("action", string(req.Action)),
				zap.String("debate", req.DebateID),
				zap.Error(err))
			m.journal.Error("%s failed: %v", actionLabel(req.Action), err)
		}
		return Result{}, err
	}
	m.journal.Info("%s applied", actionLabel(req.Action))
	affected := m.affected(req.Action)
	errs := m.fetcher.Refresh(ctx, m.board, affected...)
	return Result{Refreshed: affected, RefreshErrors: errs}, nil
}

func (m *Mutator) affected(a Action) []forum.Collection {
	switch a {
	case ActionAdopt:
		return []forum.Collection{forum.CollectionAll, forum.CollectionMine}
	case ActionApprove, ActionReject:
		return []forum.Collection{forum.CollectionProposed, forum.CollectionAll, forum.CollectionMine}
	}
	return []forum.Collection{m.board.Active()}
}

// vote applies the ballot change to every board copy first. If the server
// refuses it, the viewer's previous value is restored unless a newer vote
// has replaced this one in the meantime.
func (m *Mutator) vote(ctx context.Context, debateID string, v votes.Value) error {
	if m.viewer == "" {
		return ErrNoViewer
	}
	debate, found := m.board.Find(debateID)
	prev := votes.None
	if found {
		ballot := votes.FromSets(debate.Upvotes, debate.Downvotes)
		prev = ballot.Value(m.viewer)
		if !ballot.Cast(m.viewer, v) {
			return ErrUnchanged
		}
		m.board.UpdateDebate(debateID, func(d *forum.Debate) {
			m.recast(d, v, v)
		})
	}
	if err := m.remote.VoteDebate(ctx, debateID, v); err != nil {
		if found {
			m.board.UpdateDebate(debateID, func(d *forum.Debate) {
				m.recast(d, v, prev)
			})
		}
		return err
	}
	return nil
}

// recast moves the viewer to next on d, but only while they still hold
// expect. Other users' votes on the copy are left as they are.
func (m *Mutator) recast(d *forum.Debate, expect, next votes.Value) {
	ballot := votes.FromSets(d.Upvotes, d.Downvotes)
	if expect != next && ballot.Value(m.viewer) != expect {
		return
	}
	if ballot.Cast(m.viewer, next) {
		d.Upvotes, d.Downvotes = ballot.Up(), ballot.Down()
	}
}

func actionLabel(a Action) string {
	switch a {
	case ActionUpvote:
		return "Upvote"
	case ActionDownvote:
		return "Downvote"
	case ActionUnvote:
		return "Vote removal"
	case ActionAdopt:
		return "Adoption"
	case ActionApprove:
		return "Approval"
	case ActionReject:
		return "Rejection"
	}
	return string(a)
}
