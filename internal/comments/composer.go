package comments

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kingrea/forumterm/internal/api"
	"github.com/kingrea/forumterm/internal/forum"
)

var (
	ErrEmptyContent = errors.New("comments: content is required")
	ErrProfane      = errors.New("comments: content was flagged as profane")
)

// Poster is the API surface the composer needs.
type Poster interface {
	PostComment(ctx context.Context, draft api.CommentDraft) (forum.Comment, error)
	CheckProfanity(ctx context.Context, text string) (bool, error)
}

// Posted is the server's copy of the new comment plus any mention problems.
type Posted struct {
	Comment   forum.Comment
	Mentioned []forum.UserRef
	Unknown   []string
}

type Composer struct {
	poster   Poster
	resolver *Resolver
	logger   *zap.Logger
}

func NewComposer(poster Poster, resolver *Resolver, logger *zap.Logger) *Composer {
	if resolver == nil {
		resolver = NewResolver(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Composer{poster: poster, resolver: resolver, logger: logger}
}

// Post validates the draft, refuses profane text and sends it.
func (c *Composer) Post(ctx context.Context, draft api.CommentDraft) (Posted, error) {
	draft.Content = strings.TrimSpace(draft.Content)
	if draft.Content == "" {
		return Posted{}, ErrEmptyContent
	}
	if strings.TrimSpace(draft.EntityID) == "" {
		return Posted{}, errors.New("comments: entity id is required")
	}
	profane, err := c.poster.CheckProfanity(ctx, draft.Content)
	if err != nil {
		return Posted{}, fmt.Errorf("comments: profanity check: %w", err)
	}
	if profane {
		return Posted{}, ErrProfane
	}
	found, unknown := c.resolver.Resolve(draft.Content)
	comment, err := c.poster.PostComment(ctx, draft)
	if err != nil {
		return Posted{}, err
	}
	c.logger.Debug("comment posted",
		zap.String("entity", draft.EntityID),
		zap.String("comment", comment.ID),
		zap.Int("mentions", len(found)))
	return Posted{Comment: comment, Mentioned: found, Unknown: unknown}, nil
}
