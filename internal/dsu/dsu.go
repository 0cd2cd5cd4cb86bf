// Package dsu provides a small disjoint-set (union-find) structure used by
// display-time order clustering. It is independent of the clustering rules.
package dsu

// DisjointSet tracks a partition of n elements with path compression and
// union by size.
type DisjointSet struct {
	parent []int
	size   []int
	count  int
}

// New creates a disjoint set with n singleton elements.
func New(n int) *DisjointSet {
	d := &DisjointSet{
		parent: make([]int, n),
		size:   make([]int, n),
		count:  n,
	}
	for i := range d.parent {
		d.parent[i] = i
		d.size[i] = 1
	}
	return d
}

// Find returns the representative of x's set.
func (d *DisjointSet) Find(x int) int {
	root := x
	for d.parent[root] != root {
		root = d.parent[root]
	}
	// Path compression.
	for d.parent[x] != root {
		d.parent[x], x = root, d.parent[x]
	}
	return root
}

// Union merges the sets containing a and b. Returns false if they were
// already in the same set.
func (d *DisjointSet) Union(a, b int) bool {
	ra, rb := d.Find(a), d.Find(b)
	if ra == rb {
		return false
	}
	if d.size[ra] < d.size[rb] {
		ra, rb = rb, ra
	}
	d.parent[rb] = ra
	d.size[ra] += d.size[rb]
	d.count--
	return true
}

// Connected reports whether a and b are in the same set.
func (d *DisjointSet) Connected(a, b int) bool {
	return d.Find(a) == d.Find(b)
}

// Count returns the number of disjoint sets.
func (d *DisjointSet) Count() int {
	return d.count
}

// Groups returns the members of each set, keyed by representative.
func (d *DisjointSet) Groups() map[int][]int {
	groups := make(map[int][]int)
	for i := range d.parent {
		root := d.Find(i)
		groups[root] = append(groups[root], i)
	}
	return groups
}
