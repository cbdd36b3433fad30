package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/kingrea/forumterm/internal/forum"
	"github.com/kingrea/forumterm/internal/votes"
)

// Entity fetches the detail of a node or club.
func (c *Client) Entity(ctx context.Context, ref forum.Ref) (forum.Entity, error) {
	if err := ref.Validate(); err != nil {
		return forum.Entity{}, err
	}
	var path string
	switch ref.Type {
	case forum.TypeNode:
		path = "/node/" + url.PathEscape(ref.ID)
	case forum.TypeClub:
		path = "/clubs/club-members/" + url.PathEscape(ref.ID)
	case forum.TypeChapter:
		path = "/chapters/" + url.PathEscape(ref.ID)
	}
	var out forum.Entity
	if err := c.getJSON(ctx, path, nil, &out); err != nil {
		return forum.Entity{}, err
	}
	out.Ref = ref
	if out.MemberCount == 0 {
		out.MemberCount = len(out.Members)
	}
	return out, nil
}

func requestsBase(t forum.Type) (string, error) {
	switch t {
	case forum.TypeNode:
		return "/node", nil
	case forum.TypeClub:
		return "/clubs", nil
	}
	return "", fmt.Errorf("api: %s has no join requests", t)
}

// PendingRequests lists join requests awaiting a decision.
func (c *Client) PendingRequests(ctx context.Context, ref forum.Ref) ([]forum.JoinRequest, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}
	base, err := requestsBase(ref.Type)
	if err != nil {
		return nil, err
	}
	var out []forum.JoinRequest
	if err := c.getJSON(ctx, base+"/join-requests/"+url.PathEscape(ref.ID), nil, &out); err != nil {
		return nil, err
	}
	pending := out[:0]
	for _, req := range out {
		if req.Status == "" || req.Status == forum.RequestRequested {
			req.Forum = ref
			pending = append(pending, req)
		}
	}
	return pending, nil
}

// HandleRequest accepts or rejects a join request.
func (c *Client) HandleRequest(ctx context.Context, ref forum.Ref, requestID string, status forum.RequestStatus) error {
	if err := ref.Validate(); err != nil {
		return err
	}
	if err := requireID(requestID); err != nil {
		return err
	}
	if !status.Resolved() {
		return fmt.Errorf("api: cannot handle request with status %q", status)
	}
	base, err := requestsBase(ref.Type)
	if err != nil {
		return err
	}
	body := map[string]string{
		string(ref.Type) + "Id": ref.ID,
		"requestId":             requestID,
		"status":                string(status),
	}
	return c.doJSON(ctx, http.MethodPost, base+"/handle-request", nil, body, nil)
}

// LikeRule sets (Up) or clears (None) the viewer's like on a rule.
func (c *Client) LikeRule(ctx context.Context, ruleID string, v votes.Value) error {
	if err := requireID(ruleID); err != nil {
		return err
	}
	path := "/rules-regulations/like-rules"
	switch v {
	case votes.Up:
	case votes.None:
		path = "/rules-regulations/unlike-rules"
	default:
		return fmt.Errorf("api: rules cannot be downvoted")
	}
	return c.doJSON(ctx, http.MethodPut, path, nil, map[string]string{"rulesId": ruleID}, nil)
}

// VoteChapter up/downvotes a proposed chapter or clears the vote.
func (c *Client) VoteChapter(ctx context.Context, chapterID string, v votes.Value) error {
	if err := requireID(chapterID); err != nil {
		return err
	}
	path := "/chapters/unvote"
	switch v {
	case votes.Up:
		path = "/chapters/upvote"
	case votes.Down:
		path = "/chapters/downvote"
	}
	return c.doJSON(ctx, http.MethodPut, path, nil, map[string]string{"chapterId": chapterID}, nil)
}

// ReviewChapter publishes or rejects a proposed chapter.
func (c *Client) ReviewChapter(ctx context.Context, chapterID string, review forum.Review) error {
	if err := requireID(chapterID); err != nil {
		return err
	}
	if err := review.Validate(); err != nil {
		return err
	}
	body := map[string]string{
		"chapterId": chapterID,
		"status":    string(review.Status()),
		"reason":    review.Reason,
	}
	return c.doJSON(ctx, http.MethodPut, "/chapters/review", nil, body, nil)
}
