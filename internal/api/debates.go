package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/kingrea/forumterm/internal/forum"
	"github.com/kingrea/forumterm/internal/votes"
)

var collectionPaths = map[forum.Collection]string{
	forum.CollectionOngoing:  "/debate/ongoing",
	forum.CollectionAll:      "/debate/all-debates",
	forum.CollectionGlobal:   "/debate/global",
	forum.CollectionMine:     "/debate/my-debates",
	forum.CollectionProposed: "/debate/proposed",
}

// Debates fetches one page of a debate collection for a forum.
func (c *Client) Debates(ctx context.Context, collection forum.Collection, ref forum.Ref, page, limit int) (forum.Page[forum.Debate], error) {
	path, ok := collectionPaths[collection]
	if !ok {
		return forum.Page[forum.Debate]{}, fmt.Errorf("api: unknown collection %q", collection)
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = c.settings.PageSize
	}
	query := url.Values{}
	query.Set("entityId", ref.ID)
	query.Set("entity", string(ref.Type))
	query.Set("page", strconv.Itoa(page))
	query.Set("limit", strconv.Itoa(limit))
	var out forum.Page[forum.Debate]
	if err := c.getJSON(ctx, path, query, &out); err != nil {
		return forum.Page[forum.Debate]{}, err
	}
	if out.Page == 0 {
		out.Page = page
	}
	return out, nil
}

// VoteDebate sets the viewer's single vote on a debate.
func (c *Client) VoteDebate(ctx context.Context, debateID string, v votes.Value) error {
	if err := requireID(debateID); err != nil {
		return err
	}
	body := map[string]string{"debateId": debateID, "vote": v.String()}
	return c.doJSON(ctx, http.MethodPut, "/debate/vote", nil, body, nil)
}

// AdoptDebate references a debate from another forum's library.
func (c *Client) AdoptDebate(ctx context.Context, debateID string, target forum.Ref) error {
	if err := requireID(debateID); err != nil {
		return err
	}
	if err := target.Validate(); err != nil {
		return err
	}
	body := map[string]string{"debateId": debateID, "type": string(target.Type)}
	body[string(target.Type)+"Id"] = target.ID
	return c.doJSON(ctx, http.MethodPost, "/debate/adopt", nil, body, nil)
}

// ReviewDebate publishes or rejects a proposed debate. The review must
// already be valid; it is checked again so no request leaves without a reason.
func (c *Client) ReviewDebate(ctx context.Context, debateID string, review forum.Review) error {
	if err := requireID(debateID); err != nil {
		return err
	}
	if err := review.Validate(); err != nil {
		return err
	}
	body := map[string]string{
		"debateId": debateID,
		"status":   string(review.Status()),
		"reason":   review.Reason,
	}
	return c.doJSON(ctx, http.MethodPut, "/debate/review", nil, body, nil)
}

// DebatePoints lists every argument posted on a debate.
func (c *Client) DebatePoints(ctx context.Context, debateID string) ([]forum.Argument, error) {
	if err := requireID(debateID); err != nil {
		return nil, err
	}
	var out []forum.Argument
	if err := c.getJSON(ctx, "/debate/points/"+url.PathEscape(debateID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// VotePoint marks an argument relevant (Up), irrelevant (Down) or clears it.
func (c *Client) VotePoint(ctx context.Context, pointID string, v votes.Value) error {
	if err := requireID(pointID); err != nil {
		return err
	}
	body := map[string]string{"pointId": pointID, "vote": v.String()}
	return c.doJSON(ctx, http.MethodPut, "/points/relevance", nil, body, nil)
}
