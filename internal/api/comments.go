package api

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/kingrea/forumterm/internal/forum"
)

// CommentDraft is a new comment or reply.
type CommentDraft struct {
	EntityID string
	ParentID string
	Content  string
	FileName string
	File     io.Reader
}

// Comments lists the flat comment rows of an entity.
func (c *Client) Comments(ctx context.Context, entityID string) ([]forum.Comment, error) {
	if err := requireID(entityID); err != nil {
		return nil, err
	}
	var out []forum.Comment
	if err := c.getJSON(ctx, "/comments/"+url.PathEscape(entityID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// PostComment sends a comment as a multipart form.
func (c *Client) PostComment(ctx context.Context, draft CommentDraft) (forum.Comment, error) {
	if err := requireID(draft.EntityID); err != nil {
		return forum.Comment{}, err
	}
	fields := []multipartField{
		{Name: "content", Value: draft.Content},
		{Name: "entityId", Value: draft.EntityID},
	}
	if parent := strings.TrimSpace(draft.ParentID); parent != "" {
		fields = append(fields, multipartField{Name: "parentId", Value: parent})
	}
	if draft.File != nil {
		name := strings.TrimSpace(draft.FileName)
		if name == "" {
			name = "attachment"
		}
		fields = append(fields, multipartField{Name: "file", FileName: name, File: draft.File})
	}
	var out forum.Comment
	if err := c.doMultipart(ctx, http.MethodPost, "/comments", fields, &out); err != nil {
		return forum.Comment{}, err
	}
	return out, nil
}

// CheckProfanity asks the server whether text is profane.
func (c *Client) CheckProfanity(ctx context.Context, text string) (bool, error) {
	var out struct {
		Profane bool `json:"profane"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/profanity/check", nil, map[string]string{"text": text}, &out); err != nil {
		return false, err
	}
	return out.Profane, nil
}
