package forum

import (
	"fmt"
	"strings"
)

// Collection names one independently paginated subset of debates.
type Collection string

const (
	CollectionOngoing  Collection = "ongoing"
	CollectionAll      Collection = "all"
	CollectionGlobal   Collection = "global"
	CollectionMine     Collection = "mine"
	CollectionProposed Collection = "proposed"
)

// Collections lists every collection in display order.
var Collections = []Collection{
	CollectionOngoing,
	CollectionAll,
	CollectionGlobal,
	CollectionMine,
	CollectionProposed,
}

// ParseCollection resolves a tab name, accepting a few aliases.
func ParseCollection(value string) (Collection, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "ongoing":
		return CollectionOngoing, nil
	case "all", "all-debates":
		return CollectionAll, nil
	case "global":
		return CollectionGlobal, nil
	case "mine", "my", "my-debates":
		return CollectionMine, nil
	case "proposed":
		return CollectionProposed, nil
	}
	return "", fmt.Errorf("forum: unknown collection %q", value)
}

// Aggregate reports whether the collection mixes debates of every status, in
// which case rows derive their status from the closing date.
func (c Collection) Aggregate() bool {
	return c == CollectionAll || c == CollectionGlobal
}

// Title returns the tab label.
func (c Collection) Title() string {
	switch c {
	case CollectionOngoing:
		return "Ongoing"
	case CollectionAll:
		return "All Debates"
	case CollectionGlobal:
		return "Global"
	case CollectionMine:
		return "My Debates"
	case CollectionProposed:
		return "Proposed"
	}
	return string(c)
}

// Page is one page of a paginated list.
type Page[T any] struct {
	Items      []T `json:"data"`
	Page       int `json:"currentPage"`
	TotalPages int `json:"totalPages"`
}
