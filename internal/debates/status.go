package debates

import (
	"fmt"
	"strconv"
	"time"

	"github.com/kingrea/forumterm/internal/forum"
	"github.com/kingrea/forumterm/internal/votes"
)

const (
	DisplayOngoing = "ongoing"
	DisplayEnded   = "ended"
)

// DisplayStatus derives the status shown for a debate row.
//
// Aggregate tabs ignore the server's status for published debates and use
// the closing date instead; unpublished debates show their raw status. The
// ongoing tab shows ongoing/ended, the personal and proposed tabs the raw status.
func DisplayStatus(d forum.Debate, c forum.Collection, now time.Time) string {
	switch {
	case c.Aggregate():
		if d.PublishedStatus != forum.StatusPublished {
			return string(d.PublishedStatus)
		}
		return closingStatus(d, now)
	case c == forum.CollectionOngoing:
		return closingStatus(d, now)
	default:
		if d.PublishedStatus == "" {
			return string(forum.StatusDraft)
		}
		return string(d.PublishedStatus)
	}
}

func closingStatus(d forum.Debate, now time.Time) string {
	if d.Closed(now) {
		return DisplayEnded
	}
	return DisplayOngoing
}

// Columns are the table headers matching Rows.
var Columns = []string{"Topic", "For", "Against", "Score", "Closes", "Status"}

// Rows renders debates as table rows for a collection.
func Rows(items []forum.Debate, c forum.Collection, now time.Time) [][]string {
	rows := make([][]string, 0, len(items))
	for _, d := range items {
		tally := votes.FromSets(d.Upvotes, d.Downvotes).Tally()
		rows = append(rows, []string{
			d.Topic,
			strconv.Itoa(d.SupportCount),
			strconv.Itoa(d.AgainstCount),
			fmt.Sprintf("%+d", tally.Score()),
			formatClosing(d.ClosingDate),
			DisplayStatus(d, c, now),
		})
	}
	return rows
}

func formatClosing(t time.Time) string {
	if t.IsZero() {
		return "—"
	}
	return t.Local().Format("2006-01-02")
}

// SideTally summarises the arguments of one debate.
type SideTally struct {
	Support        int
	Against        int
	SupportScore   int
	AgainstScore   int
	ViewerArgument bool
}

// Tally counts arguments per side and sums their relevance scores. viewer
// may be empty; otherwise ViewerArgument reports whether they posted one.
func Tally(args []forum.Argument, viewer string) SideTally {
	var t SideTally
	for _, a := range args {
		score := votes.FromSets(a.Relevant, a.Irrelevant).Tally().Score()
		switch a.Side {
		case forum.SideSupport:
			t.Support++
			t.SupportScore += score
		case forum.SideAgainst:
			t.Against++
			t.AgainstScore += score
		}
		if viewer != "" && a.Participant.ID == viewer {
			t.ViewerArgument = true
		}
	}
	return t
}
