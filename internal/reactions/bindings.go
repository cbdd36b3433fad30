package reactions

import (
	"context"
	"fmt"

	"github.com/kingrea/forumterm/internal/votes"
)

// RuleLiker is the rules endpoint pair.
type RuleLiker interface {
	LikeRule(ctx context.Context, ruleID string, v votes.Value) error
}

// ChapterVoter is the chapter upvote/downvote/unvote endpoint set.
type ChapterVoter interface {
	VoteChapter(ctx context.Context, chapterID string, v votes.Value) error
}

// PointVoter marks debate points relevant or irrelevant.
type PointVoter interface {
	VotePoint(ctx context.Context, pointID string, v votes.Value) error
}

// Rules only knows like and unlike, so Down is refused locally.
func Rules(r RuleLiker) Remote {
	return func(ctx context.Context, id string, v votes.Value) error {
		if v == votes.Down {
			return fmt.Errorf("reactions: rules cannot be downvoted")
		}
		return r.LikeRule(ctx, id, v)
	}
}

func Chapters(c ChapterVoter) Remote {
	return c.VoteChapter
}

// Points maps Up to relevant and Down to irrelevant.
func Points(p PointVoter) Remote {
	return p.VotePoint
}
