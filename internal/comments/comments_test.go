package comments

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kingrea/forumterm/internal/api"
	"github.com/kingrea/forumterm/internal/forum"
)

func at(min int) time.Time {
	return time.Date(2024, 1, 1, 12, min, 0, 0, time.UTC)
}

func flatten(roots []*Node) []string {
	var out []string
	Walk(roots, func(n *Node, depth int) bool {
		out = append(out, strings.Repeat(" ", depth)+n.Comment.ID)
		return true
	})
	return out
}

func TestBuildTreeThreadsReplies(t *testing.T) {
	flat := []forum.Comment{
		{ID: "c2", CreatedAt: at(2)},
		{ID: "r1", ParentID: "c1", CreatedAt: at(5)},
		{ID: "c1", CreatedAt: at(1)},
		{ID: "r0", ParentID: "c1", CreatedAt: at(3)},
		{ID: "rr", ParentID: "r1", CreatedAt: at(6)},
		{ID: "orphan", ParentID: "gone", CreatedAt: at(4)},
	}
	want := []string{"c1", " r0", " r1", "  rr", "c2", "orphan"}
	if diff := cmp.Diff(want, flatten(BuildTree(flat))); diff != "" {
		t.Fatalf("tree mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 6, Count(BuildTree(flat)))
}

func TestBuildTreeBreaksCycles(t *testing.T) {
	flat := []forum.Comment{
		{ID: "a", ParentID: "b", CreatedAt: at(1)},
		{ID: "b", ParentID: "a", CreatedAt: at(2)},
		{ID: "self", ParentID: "self", CreatedAt: at(3)},
	}
	assert.Equal(t, []string{"a", "b", "self"}, flatten(BuildTree(flat)))
}

func TestWalkSkipsCollapsedReplies(t *testing.T) {
	roots := BuildTree([]forum.Comment{
		{ID: "c1", CreatedAt: at(1)},
		{ID: "r1", ParentID: "c1", CreatedAt: at(2)},
	})
	var seen []string
	Walk(roots, func(n *Node, _ int) bool {
		seen = append(seen, n.Comment.ID)
		return false
	})
	assert.Equal(t, []string{"c1"}, seen)
}

func TestExtractMentions(t *testing.T) {
	got := ExtractMentions("hey @alice and @Bob, mail me at me@example.com. @alice again @carol.")
	assert.Equal(t, []string{"alice", "Bob", "carol"}, got)
	assert.Empty(t, ExtractMentions("no handles here"))
}

func TestResolverIsCaseInsensitive(t *testing.T) {
	r := NewResolver([]forum.UserRef{{ID: "1", Username: "Alice"}, {ID: "2", Username: "bob"}})
	found, unknown := r.Resolve("@alice @BOB @dave")
	require.Len(t, found, 2)
	assert.Equal(t, "1", found[0].ID)
	assert.Equal(t, "2", found[1].ID)
	assert.Equal(t, []string{"dave"}, unknown)
}

type fakePoster struct {
	profane  bool
	checkErr error
	posted   []api.CommentDraft
}

func (f *fakePoster) CheckProfanity(context.Context, string) (bool, error) {
	return f.profane, f.checkErr
}

func (f *fakePoster) PostComment(_ context.Context, d api.CommentDraft) (forum.Comment, error) {
	f.posted = append(f.posted, d)
	return forum.Comment{ID: "new", EntityID: d.EntityID, Content: d.Content}, nil
}

func TestComposerPost(t *testing.T) {
	poster := &fakePoster{}
	c := NewComposer(poster, NewResolver([]forum.UserRef{{ID: "1", Username: "alice"}}), nil)

	got, err := c.Post(context.Background(), api.CommentDraft{EntityID: "e1", Content: "  thanks @alice @zed  "})
	require.NoError(t, err)
	assert.Equal(t, "new", got.Comment.ID)
	assert.Equal(t, []string{"zed"}, got.Unknown)
	require.Len(t, poster.posted, 1)
	assert.Equal(t, "thanks @alice @zed", poster.posted[0].Content)
}

func TestComposerRejectsBeforePosting(t *testing.T) {
	cases := map[string]struct {
		poster *fakePoster
		draft  api.CommentDraft
		want   error
	}{
		"empty":   {&fakePoster{}, api.CommentDraft{EntityID: "e1", Content: "   "}, ErrEmptyContent},
		"profane": {&fakePoster{profane: true}, api.CommentDraft{EntityID: "e1", Content: "rude"}, ErrProfane},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewComposer(tc.poster, nil, nil).Post(context.Background(), tc.draft)
			assert.ErrorIs(t, err, tc.want)
			assert.Empty(t, tc.poster.posted)
		})
	}

	checkFail := &fakePoster{checkErr: errors.New("offline")}
	_, err := NewComposer(checkFail, nil, nil).Post(context.Background(), api.CommentDraft{EntityID: "e1", Content: "hi"})
	assert.Error(t, err)
	assert.Empty(t, checkFail.posted)
}
