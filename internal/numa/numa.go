// Package numa implements a placement oracle: given N worker ids, it
// groups them into topological rings so a thief can bias steal victims
// toward nearby workers first.
//
// Concrete topology discovery is platform-specific (see numa_linux.go and
// numa_stub.go, selected via build tags); this file holds the
// platform-neutral ring construction.
package numa

// Topology maps worker ids to NUMA node ids. Node -1 means "unknown",
// which Rings never treats as shared locality, so unknown-locality
// workers are still reachable, just not preferred.
type Topology struct {
	// NodeOf[i] is the NUMA node hosting worker i, or -1 if unknown.
	NodeOf []int
}

// Discover builds a Topology for n workers using the best available
// platform backend, falling back to a single uniform node when NUMA
// information cannot be read.
func Discover(n int) Topology {
	if nodes, ok := discoverPlatform(n); ok {
		return Topology{NodeOf: nodes}
	}
	nodes := make([]int, n)
	for i := range nodes {
		nodes[i] = 0
	}
	return Topology{NodeOf: nodes}
}

// Rings returns, for worker i, an ordered list of rings: ring 0 is every
// other worker sharing i's NUMA node, ring 1 is everyone else. Workers on
// an unknown node (-1) are placed in the far ring together with workers
// on other nodes; a worker on an unknown node has no near ring. Empty
// rings are omitted.
func (t Topology) Rings(n int) [][][]int {
	out := make([][][]int, n)
	for i := 0; i < n; i++ {
		out[i] = ringsFor(t, n, i)
	}
	return out
}

func ringsFor(t Topology, n, self int) [][]int {
	mine := -2
	if self < len(t.NodeOf) {
		mine = t.NodeOf[self]
	}

	var near, far []int
	for j := 0; j < n; j++ {
		if j == self {
			continue
		}
		node := -2
		if j < len(t.NodeOf) {
			node = t.NodeOf[j]
		}
		if mine >= 0 && node == mine {
			near = append(near, j)
		} else {
			far = append(far, j)
		}
	}

	var rings [][]int
	if len(near) > 0 {
		rings = append(rings, near)
	}
	if len(far) > 0 {
		rings = append(rings, far)
	}
	return rings
}
