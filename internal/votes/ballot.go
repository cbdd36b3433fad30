// Package votes tracks one vote value per user for an entity. The API still
// reports two id sets (up/down, relevant/irrelevant); a Ballot folds them into
// a single value so a user can never sit in both.
package votes

import (
	"fmt"
	"sort"
	"strings"
)

// Value is a single user's vote.
type Value int8

const (
	None Value = 0
	Up   Value = 1
	Down Value = -1
)

func (v Value) String() string {
	switch v {
	case Up:
		return "up"
	case Down:
		return "down"
	}
	return "none"
}

// ParseValue reads the wire form produced by String.
func ParseValue(s string) (Value, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "up", "upvote", "like", "relevant":
		return Up, nil
	case "down", "downvote", "irrelevant":
		return Down, nil
	case "", "none", "clear", "unlike":
		return None, nil
	}
	return None, fmt.Errorf("votes: unknown vote %q", s)
}

// Tally is the aggregate count of a ballot.
type Tally struct {
	Up   int
	Down int
}

// Score is up minus down.
func (t Tally) Score() int { return t.Up - t.Down }

// Ballot maps user ids to their vote. The zero value is empty and ready to use.
type Ballot struct {
	cast map[string]Value
}

// FromSets builds a ballot from the server's two membership sets. A user
// listed in both has no determinable intent and is counted as None.
func FromSets(up, down []string) Ballot {
	var b Ballot
	inUp := make(map[string]struct{}, len(up))
	for _, id := range up {
		if id = strings.TrimSpace(id); id != "" {
			inUp[id] = struct{}{}
		}
	}
	for _, id := range down {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := inUp[id]; ok {
			delete(inUp, id)
			continue
		}
		b.Cast(id, Down)
	}
	for id := range inUp {
		b.Cast(id, Up)
	}
	return b
}

// Cast records v for user and reports whether anything changed. Casting the
// same value twice is a no-op; casting None retracts.
func (b *Ballot) Cast(user string, v Value) bool {
	user = strings.TrimSpace(user)
	if user == "" {
		return false
	}
	if b.Value(user) == v {
		return false
	}
	if v == None {
		delete(b.cast, user)
		return true
	}
	if b.cast == nil {
		b.cast = make(map[string]Value)
	}
	b.cast[user] = v
	return true
}

// Retract clears the user's vote.
func (b *Ballot) Retract(user string) bool {
	return b.Cast(user, None)
}

// Value returns the user's current vote.
func (b Ballot) Value(user string) Value {
	if b.cast == nil {
		return None
	}
	return b.cast[strings.TrimSpace(user)]
}

// Up returns the sorted ids voting Up.
func (b Ballot) Up() []string { return b.members(Up) }

// Down returns the sorted ids voting Down.
func (b Ballot) Down() []string { return b.members(Down) }

func (b Ballot) members(v Value) []string {
	var ids []string
	for id, cast := range b.cast {
		if cast == v {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// Tally counts the ballot.
func (b Ballot) Tally() Tally {
	var t Tally
	for _, v := range b.cast {
		switch v {
		case Up:
			t.Up++
		case Down:
			t.Down++
		}
	}
	return t
}

// Len is the number of users with a non-None vote.
func (b Ballot) Len() int { return len(b.cast) }

// Clone returns an independent copy for optimistic snapshots.
func (b Ballot) Clone() Ballot {
	if b.cast == nil {
		return Ballot{}
	}
	out := Ballot{cast: make(map[string]Value, len(b.cast))}
	for id, v := range b.cast {
		out.cast[id] = v
	}
	return out
}
