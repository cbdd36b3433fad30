package forum

import (
	"errors"
	"strings"
)

// ErrReasonRequired is returned when a rejection carries no reason.
var ErrReasonRequired = errors.New("a reason is required to reject")

// Review is a privileged reviewer's decision on a proposed debate or chapter.
type Review struct {
	Approve bool
	Reason  string
}

// Validate enforces the mandatory free-text reason on rejections.
func (r Review) Validate() error {
	if !r.Approve && strings.TrimSpace(r.Reason) == "" {
		return ErrReasonRequired
	}
	return nil
}

// Status returns the published status the review moves the entity to.
func (r Review) Status() PublishedStatus {
	if r.Approve {
		return StatusPublished
	}
	return StatusRejected
}
