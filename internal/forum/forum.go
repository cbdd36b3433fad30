// Package forum holds the platform's shared data model: forums, debates,
// arguments, join requests, chapters, rules and comments as the REST API
// returns them.
package forum

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Type names one of the joinable community containers.
type Type string

const (
	TypeNode    Type = "node"
	TypeClub    Type = "club"
	TypeChapter Type = "chapter"
)

// ParseType accepts the canonical names plus the plural forms used in URLs.
func ParseType(value string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "node", "nodes":
		return TypeNode, nil
	case "club", "clubs":
		return TypeClub, nil
	case "chapter", "chapters":
		return TypeChapter, nil
	}
	return "", fmt.Errorf("forum: unknown forum type %q", value)
}

// Ref identifies one forum.
type Ref struct {
	Type Type   `json:"type" yaml:"type"`
	ID   string `json:"id" yaml:"id"`
}

// Validate reports whether the ref can be sent to the API.
func (r Ref) Validate() error {
	if _, err := ParseType(string(r.Type)); err != nil {
		return err
	}
	if strings.TrimSpace(r.ID) == "" {
		return errors.New("forum: id is required")
	}
	return nil
}

func (r Ref) String() string {
	return fmt.Sprintf("%s/%s", r.Type, r.ID)
}

// UserRef is the compact user shape embedded in other entities.
type UserRef struct {
	ID       string `json:"_id"`
	Username string `json:"userName"`
	Name     string `json:"name,omitempty"`
}

// PublishedStatus is a debate's review lifecycle state.
type PublishedStatus string

const (
	StatusDraft     PublishedStatus = "draft"
	StatusProposed  PublishedStatus = "proposed"
	StatusPublished PublishedStatus = "published"
	StatusRejected  PublishedStatus = "rejected"
	StatusArchived  PublishedStatus = "archived"
)

// Adoption is a reference row placing a debate in another forum's library.
type Adoption struct {
	Forum     Ref       `json:"forum"`
	AdoptedAt time.Time `json:"adoptedAt"`
}

// Debate is one debate topic together with its side counts and votes.
type Debate struct {
	ID              string          `json:"_id"`
	Topic           string          `json:"topic"`
	Significance    string          `json:"significance,omitempty"`
	Tags            []string        `json:"tags,omitempty"`
	ClosingDate     time.Time       `json:"closingDate"`
	IsPublic        bool            `json:"isPublic"`
	CreatedBy       UserRef         `json:"createdBy"`
	SupportCount    int             `json:"supportCount"`
	AgainstCount    int             `json:"againstCount"`
	PublishedStatus PublishedStatus `json:"publishedStatus"`
	Upvotes         []string        `json:"upvotes,omitempty"`
	Downvotes       []string        `json:"downvotes,omitempty"`
	Adoptions       []Adoption      `json:"adoptedBy,omitempty"`
}

// Closed reports whether the closing date has passed at now.
func (d Debate) Closed(now time.Time) bool {
	return !d.ClosingDate.IsZero() && d.ClosingDate.Before(now)
}

// Side is the position an argument argues for.
type Side string

const (
	SideSupport Side = "support"
	SideAgainst Side = "against"
)

// Argument is a single point posted to one side of a debate.
type Argument struct {
	ID          string    `json:"_id"`
	DebateID    string    `json:"debate"`
	Side        Side      `json:"side"`
	Participant UserRef   `json:"participant"`
	Content     string    `json:"point"`
	Relevant    []string  `json:"relevant,omitempty"`
	Irrelevant  []string  `json:"irrelevant,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// RequestStatus is the state of a user-to-forum join request.
type RequestStatus string

const (
	RequestRequested RequestStatus = "REQUESTED"
	RequestAccepted  RequestStatus = "ACCEPTED"
	RequestRejected  RequestStatus = "REJECTED"
)

// Resolved reports whether the status is a terminal decision.
func (s RequestStatus) Resolved() bool {
	return s == RequestAccepted || s == RequestRejected
}

// JoinRequest asks for membership in a forum.
type JoinRequest struct {
	ID          string        `json:"_id"`
	User        UserRef       `json:"user"`
	Forum       Ref           `json:"forum"`
	Status      RequestStatus `json:"status"`
	RequestedAt time.Time     `json:"createdAt"`
}

// Chapter is a node sub-community that members vote on before it opens.
type Chapter struct {
	ID        string          `json:"_id"`
	Name      string          `json:"name"`
	NodeID    string          `json:"node"`
	Status    PublishedStatus `json:"status"`
	Upvotes   []string        `json:"upvotes,omitempty"`
	Downvotes []string        `json:"downvotes,omitempty"`
}

// Rule is one entry of a forum's rules and regulations.
type Rule struct {
	ID      string   `json:"_id"`
	Title   string   `json:"title"`
	Body    string   `json:"description"`
	Forum   Ref      `json:"forum"`
	LikedBy []string `json:"likedBy,omitempty"`
}

// Comment is one message in an entity's discussion; ParentID is empty for roots.
type Comment struct {
	ID         string    `json:"_id"`
	EntityID   string    `json:"entityId"`
	ParentID   string    `json:"parentId,omitempty"`
	Author     UserRef   `json:"user"`
	Content    string    `json:"content"`
	Attachment string    `json:"fileUrl,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Entity is the detail view of a forum, as cached by the current-entity stores.
type Entity struct {
	Ref         Ref       `json:"ref"`
	Name        string    `json:"name"`
	About       string    `json:"about,omitempty"`
	MemberCount int       `json:"memberCount"`
	Members     []UserRef `json:"members,omitempty"`
}
