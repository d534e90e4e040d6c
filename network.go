// Copyright 2022 someonegg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package roomalloc

import "math"

// arc is one direction of a residual edge. Every arc added to the network
// has a twin in the opposite direction, adj[dst][rev], which starts with no
// capacity and receives whatever flow is pushed through the arc.
type arc struct {
	dst int
	rev int
	cap int
}

// network is a residual flow network owned by a single Match call.
type network struct {
	adj    [][]arc
	source int
	sink   int
	arcs   int

	// scratch space reused by every search
	prev  []int
	via   []int
	limit []int
	queue []int
}

func newNetwork(nodes, source, sink int) *network {
	return &network{
		adj:    make([][]arc, nodes),
		source: source,
		sink:   sink,
		prev:   make([]int, nodes),
		via:    make([]int, nodes),
		limit:  make([]int, nodes),
		queue:  make([]int, 0, nodes),
	}
}

func (nw *network) addArc(src, dst, capacity int) {
	nw.adj[src] = append(nw.adj[src], arc{dst: dst, rev: len(nw.adj[dst]), cap: capacity})
	nw.adj[dst] = append(nw.adj[dst], arc{dst: src, rev: len(nw.adj[src]) - 1, cap: 0})
	nw.arcs++
}

// shortestPath runs a breadth-first search over arcs with residual capacity
// and returns the bottleneck of the first path that reaches the sink, or 0.
// Arcs are explored in insertion order.
func (nw *network) shortestPath() int {
	for i := range nw.prev {
		nw.prev[i] = -1
	}
	nw.prev[nw.source] = -2
	nw.limit[nw.source] = math.MaxInt

	queue := append(nw.queue[:0], nw.source)
	for head := 0; head < len(queue); head++ {
		node := queue[head]
		for i, a := range nw.adj[node] {
			if nw.prev[a.dst] != -1 || a.cap <= 0 {
				continue
			}
			nw.prev[a.dst] = node
			nw.via[a.dst] = i
			nw.limit[a.dst] = min(nw.limit[node], a.cap)
			if a.dst == nw.sink {
				nw.queue = queue
				return nw.limit[a.dst]
			}
			queue = append(queue, a.dst)
		}
	}
	nw.queue = queue
	return 0
}

// push moves flow along the path found by the last shortestPath call.
func (nw *network) push(flow int) {
	for cur := nw.sink; cur != nw.source; {
		prev := nw.prev[cur]
		a := &nw.adj[prev][nw.via[cur]]
		a.cap -= flow
		nw.adj[cur][a.rev].cap += flow
		cur = prev
	}
}

// maxFlow saturates the network with Edmonds-Karp augmentation.
func (nw *network) maxFlow() (flow, paths int) {
	for {
		f := nw.shortestPath()
		if f <= 0 {
			return
		}
		nw.push(f)
		flow += f
		paths++
	}
}
