// Package comments threads flat comment rows, resolves @mentions and posts
// new comments.
package comments

import (
	"sort"

	"github.com/kingrea/forumterm/internal/forum"
)

// Node is a comment with its replies.
type Node struct {
	Comment forum.Comment
	Replies []*Node
}

// BuildTree links replies to their parents. Siblings are ordered oldest
// first; a reply whose parent is missing becomes a root.
func BuildTree(flat []forum.Comment) []*Node {
	nodes := make(map[string]*Node, len(flat))
	ordered := make([]*Node, 0, len(flat))
	for _, c := range flat {
		if c.ID == "" {
			continue
		}
		if _, dup := nodes[c.ID]; dup {
			continue
		}
		n := &Node{Comment: c}
		nodes[c.ID] = n
		ordered = append(ordered, n)
	}

	var roots []*Node
	for _, n := range ordered {
		parent, ok := nodes[n.Comment.ParentID]
		if !ok || parent == n || n.Comment.ParentID == "" || createsCycle(nodes, n) {
			roots = append(roots, n)
			continue
		}
		parent.Replies = append(parent.Replies, n)
	}
	sortNodes(roots)
	return roots
}

// createsCycle reports whether following parent links from n leads back to n.
func createsCycle(nodes map[string]*Node, n *Node) bool {
	seen := map[string]bool{n.Comment.ID: true}
	cur := n.Comment.ParentID
	for cur != "" {
		if seen[cur] {
			return true
		}
		seen[cur] = true
		p, ok := nodes[cur]
		if !ok {
			return false
		}
		cur = p.Comment.ParentID
	}
	return false
}

func sortNodes(ns []*Node) {
	sort.SliceStable(ns, func(i, j int) bool {
		return ns[i].Comment.CreatedAt.Before(ns[j].Comment.CreatedAt)
	})
	for _, n := range ns {
		sortNodes(n.Replies)
	}
}

// Walk visits the tree depth first. Returning false from fn skips the
// node's replies.
func Walk(roots []*Node, fn func(n *Node, depth int) bool) {
	var visit func(ns []*Node, depth int)
	visit = func(ns []*Node, depth int) {
		for _, n := range ns {
			if fn(n, depth) {
				visit(n.Replies, depth+1)
			}
		}
	}
	visit(roots, 0)
}

// Count is the number of comments in the tree.
func Count(roots []*Node) int {
	total := 0
	Walk(roots, func(*Node, int) bool {
		total++
		return true
	})
	return total
}
