package reactions

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kingrea/forumterm/internal/votes"
)

type fakeChapters struct {
	mu    sync.Mutex
	calls []votes.Value
	err   error
}

func (f *fakeChapters) VoteChapter(_ context.Context, _ string, v votes.Value) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, v)
	return f.err
}

type fakeRules struct{ calls int }

func (f *fakeRules) LikeRule(context.Context, string, votes.Value) error {
	f.calls++
	return nil
}

func TestChapterUpvoteTwiceKeepsOneEntry(t *testing.T) {
	remote := &fakeChapters{}
	tg := NewToggler("u1", Chapters(remote), nil)
	tg.Seed("ch1", []string{"u2"}, nil)
	ctx := context.Background()

	changed, err := tg.Cast(ctx, "ch1", votes.Up)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = tg.Cast(ctx, "ch1", votes.Up)
	require.NoError(t, err)
	assert.False(t, changed)

	up, down := tg.Sets("ch1")
	assert.Equal(t, []string{"u1", "u2"}, up)
	assert.Empty(t, down)
	assert.Equal(t, []votes.Value{votes.Up}, remote.calls, "second upvote must not reach the server")
}

func TestCastSwitchesSides(t *testing.T) {
	remote := &fakeChapters{}
	tg := NewToggler("u1", Chapters(remote), nil)
	tg.Seed("ch1", []string{"u1"}, nil)

	_, err := tg.Cast(context.Background(), "ch1", votes.Down)
	require.NoError(t, err)
	assert.Equal(t, votes.Down, tg.Value("ch1"))
	assert.Equal(t, votes.Tally{Down: 1}, tg.Tally("ch1"))
}

func TestCastRollsBackOnFailure(t *testing.T) {
	remote := &fakeChapters{err: errors.New("boom")}
	tg := NewToggler("u1", Chapters(remote), nil)
	tg.Seed("ch1", nil, []string{"u1", "u3"})

	changed, err := tg.Cast(context.Background(), "ch1", votes.Up)
	require.Error(t, err)
	assert.False(t, changed)
	assert.Equal(t, votes.Down, tg.Value("ch1"))
	_, down := tg.Sets("ch1")
	assert.Equal(t, []string{"u1", "u3"}, down)
}

func TestConflictingSeedCountsAsNone(t *testing.T) {
	tg := NewToggler("u1", Chapters(&fakeChapters{}), nil)
	tg.Seed("ch1", []string{"u1"}, []string{"u1"})
	assert.Equal(t, votes.None, tg.Value("ch1"))
}

func TestRulesRefuseDownvote(t *testing.T) {
	rules := &fakeRules{}
	tg := NewToggler("u1", Rules(rules), nil)
	_, err := tg.Cast(context.Background(), "r1", votes.Down)
	require.Error(t, err)
	assert.Zero(t, rules.calls)
	assert.Equal(t, votes.None, tg.Value("r1"))

	_, err = tg.Cast(context.Background(), "r1", votes.Up)
	require.NoError(t, err)
	_, err = tg.Cast(context.Background(), "r1", votes.None)
	require.NoError(t, err)
	assert.Equal(t, 2, rules.calls)
}

func TestCastRequiresViewer(t *testing.T) {
	tg := NewToggler(" ", Chapters(&fakeChapters{}), nil)
	_, err := tg.Cast(context.Background(), "ch1", votes.Up)
	assert.ErrorIs(t, err, ErrNoViewer)
}

func TestFailedCastKeepsLaterCast(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	remote := Remote(func(_ context.Context, _ string, v votes.Value) error {
		if v != votes.Up {
			return nil
		}
		close(started)
		<-release
		return errors.New("timeout")
	})
	tg := NewToggler("u1", remote, nil)
	tg.Seed("p1", []string{"u2"}, nil)
	ctx := context.Background()

	upErr := make(chan error, 1)
	go func() {
		_, err := tg.Cast(ctx, "p1", votes.Up)
		upErr <- err
	}()
	<-started
	changed, err := tg.Cast(ctx, "p1", votes.Down)
	require.NoError(t, err)
	assert.True(t, changed)
	close(release)
	require.Error(t, <-upErr)

	assert.Equal(t, votes.Down, tg.Value("p1"))
	up, down := tg.Sets("p1")
	assert.Equal(t, []string{"u2"}, up)
	assert.Equal(t, []string{"u1"}, down)
}
