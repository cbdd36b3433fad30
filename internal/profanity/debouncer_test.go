package profanity

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type verdicts struct {
	mu  sync.Mutex
	got []Verdict
	ch  chan Verdict
}

func newVerdicts() *verdicts { return &verdicts{ch: make(chan Verdict, 16)} }

func (v *verdicts) deliver(vd Verdict) {
	v.mu.Lock()
	v.got = append(v.got, vd)
	v.mu.Unlock()
	v.ch <- vd
}

func (v *verdicts) all() []Verdict {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]Verdict(nil), v.got...)
}

func flagRude(_ context.Context, text string) (bool, error) {
	return strings.Contains(text, "rude"), nil
}

func TestOnlyLatestTextIsChecked(t *testing.T) {
	var mu sync.Mutex
	var checked []string
	check := func(ctx context.Context, text string) (bool, error) {
		mu.Lock()
		checked = append(checked, text)
		mu.Unlock()
		return flagRude(ctx, text)
	}
	out := newVerdicts()
	db := NewDebouncer(check, out.deliver, WithDelay(20*time.Millisecond))
	defer db.Stop()

	db.Submit("r")
	db.Submit("ru")
	db.Submit("rude")

	select {
	case v := <-out.ch:
		assert.Equal(t, Verdict{Text: "rude", Profane: true}, v)
	case <-time.After(2 * time.Second):
		t.Fatal("no verdict delivered")
	}
	mu.Lock()
	assert.Equal(t, []string{"rude"}, checked)
	mu.Unlock()
}

func TestSubmitCancelsRunningCheck(t *testing.T) {
	started := make(chan string, 4)
	check := func(ctx context.Context, text string) (bool, error) {
		started <- text
		if text == "slow" {
			<-ctx.Done()
			return false, ctx.Err()
		}
		return false, nil
	}
	out := newVerdicts()
	db := NewDebouncer(check, out.deliver, WithDelay(5*time.Millisecond))

	db.Submit("slow")
	require.Equal(t, "slow", <-started)
	db.Submit("fast")
	require.Equal(t, "fast", <-started)

	select {
	case v := <-out.ch:
		assert.Equal(t, "fast", v.Text)
		assert.NoError(t, v.Err)
	case <-time.After(2 * time.Second):
		t.Fatal("no verdict delivered")
	}
	db.Stop()
	for _, v := range out.all() {
		assert.NotEqual(t, "slow", v.Text, "stale verdicts must be dropped")
	}
}

func TestStopDropsPendingCheck(t *testing.T) {
	called := false
	check := func(context.Context, string) (bool, error) {
		called = true
		return false, nil
	}
	out := newVerdicts()
	db := NewDebouncer(check, out.deliver, WithDelay(time.Hour))
	db.Submit("never")
	db.Stop()
	db.Submit("ignored")
	assert.False(t, called)
	assert.Empty(t, out.all())
}
