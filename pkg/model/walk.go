package model

// Walk visits n and every descendant in pre-order. Nodes without an
// identifier are visited too.
func Walk(n Node, fn func(Node)) {
	if n == nil {
		return
	}
	fn(n)
	n.ForEach(func(child Node) {
		Walk(child, fn)
	})
}

// IDs returns every identifier reachable from n in pre-order.
func IDs(n Node) IDSet {
	var ids IDSet
	Walk(n, func(node Node) {
		if id := node.ID(); id != "" {
			ids.Add(id)
		}
	})
	return ids
}

// Occurrences maps every identifier reachable from n to the nodes carrying
// it, in pre-order.
func Occurrences(n Node) map[string][]Node {
	out := make(map[string][]Node)
	Walk(n, func(node Node) {
		if id := node.ID(); id != "" {
			out[id] = append(out[id], node)
		}
	})
	return out
}

// Find returns the first node with the given identifier, in pre-order.
func Find(n Node, id string) Node {
	var found Node
	Walk(n, func(node Node) {
		if found == nil && node.ID() == id {
			found = node
		}
	})
	return found
}
