package feed

import "sort"

// BuildThread assembles a flat comment list into a forest of reply trees.
//
// The map pass runs first so forward references resolve regardless of input
// order. A comment whose parentId is unknown becomes a root rather than an
// error. Members of a parent-chain cycle are likewise promoted to roots,
// keeping their non-cycle reply subtrees. Roots are ordered newest-first,
// replies at every level oldest-first.
func BuildThread(comments []Comment) []*ThreadNode {
	nodes := make(map[string]*ThreadNode, len(comments))
	order := make([]*ThreadNode, 0, len(comments))
	for _, c := range comments {
		if c.ID == "" {
			continue
		}
		if _, exists := nodes[c.ID]; exists {
			continue
		}
		node := &ThreadNode{Comment: c}
		nodes[c.ID] = node
		order = append(order, node)
	}

	inCycle := markCycles(nodes)

	roots := make([]*ThreadNode, 0, len(order))
	for _, node := range order {
		parent, ok := nodes[node.ParentID]
		if node.ParentID == "" || !ok || parent == node || inCycle[node.ID] {
			roots = append(roots, node)
			continue
		}
		parent.Replies = append(parent.Replies, node)
	}

	for _, root := range roots {
		setDepth(root, 0)
	}

	sort.SliceStable(roots, func(i, j int) bool {
		return roots[i].CreatedAt.After(roots[j].CreatedAt)
	})
	for _, root := range roots {
		sortReplies(root)
	}
	return roots
}

// markCycles walks each parent chain and reports the ids that sit on a loop.
// Comments hanging off a cycle member are not themselves in the cycle.
func markCycles(nodes map[string]*ThreadNode) map[string]bool {
	const (
		unvisited = iota
		inProgress
		resolved
	)
	state := make(map[string]int, len(nodes))
	inCycle := make(map[string]bool)

	for id := range nodes {
		if state[id] != unvisited {
			continue
		}
		path := []string{}
		current := id
		for {
			if state[current] == resolved {
				break
			}
			if state[current] == inProgress {
				// found the loop: everything from the first occurrence of
				// current in path onward is a member
				start := 0
				for i, p := range path {
					if p == current {
						start = i
						break
					}
				}
				for _, p := range path[start:] {
					inCycle[p] = true
				}
				break
			}
			state[current] = inProgress
			path = append(path, current)

			node := nodes[current]
			parent, ok := nodes[node.ParentID]
			if node.ParentID == "" || !ok || parent == node {
				break
			}
			current = node.ParentID
		}
		for _, p := range path {
			state[p] = resolved
		}
	}
	return inCycle
}

func setDepth(node *ThreadNode, depth int) {
	node.Depth = depth
	for _, reply := range node.Replies {
		setDepth(reply, depth+1)
	}
}

func sortReplies(node *ThreadNode) {
	sort.SliceStable(node.Replies, func(i, j int) bool {
		return node.Replies[i].CreatedAt.Before(node.Replies[j].CreatedAt)
	})
	for _, reply := range node.Replies {
		sortReplies(reply)
	}
}
