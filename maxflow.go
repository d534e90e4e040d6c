// Copyright 2022 someonegg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package roomalloc

import "sort"

type maxFlowMatcher struct {
	logger Logger
}

// MaxFlowMatcher returns a Matcher that places the largest possible number of
// students into rooms they asked for. Each student takes at most one seat and
// a room never receives more students than its capacity.
//
// The network is laid out as source, students, rooms, sink. When several
// maximum matchings exist the one returned follows the order of rooms and
// of their WantedBy lists; callers should not depend on which one it is.
//
// Room ids must be unique. A negative capacity is treated as zero.
func MaxFlowMatcher(logger Logger) Matcher {
	return maxFlowMatcher{orNop(logger)}
}

func (m maxFlowMatcher) Match(rooms []Room) Matching {
	students, index := collectStudents(rooms)

	var (
		nS     = len(students)
		nR     = len(rooms)
		source = 0
		sink   = nS + nR + 1
	)
	studentNode := func(i int) int { return 1 + i }
	roomNode := func(j int) int { return 1 + nS + j }

	nw := newNetwork(nS+nR+2, source, sink)

	for i := range students {
		nw.addArc(source, studentNode(i), 1)
	}

	mark := make([]int, nS) // 1 + index of the last room that linked the student
	for j, room := range rooms {
		nw.addArc(roomNode(j), sink, max(room.Cap, 0))
		for _, id := range room.WantedBy {
			i := index[id]
			if mark[i] == j+1 {
				continue
			}
			mark[i] = j + 1
			nw.addArc(studentNode(i), roomNode(j), 1)
		}
	}

	flow, paths := nw.maxFlow()
	m.logger.Debug("max flow computed",
		"students", nS, "rooms", nR, "arcs", nw.arcs,
		"paths", paths, "flow", flow)

	matching := Matching{Allocation: make(Allocation, nR)}
	allocated := make([]bool, nS)

	for j, room := range rooms {
		var used []int
		for _, a := range nw.adj[roomNode(j)] {
			// a reverse arc carrying one unit means the student was placed here
			if a.dst != sink && a.cap == 1 {
				used = append(used, a.dst-1)
			}
		}
		sort.Ints(used)

		placed := make([]string, len(used))
		for k, i := range used {
			placed[k] = students[i]
			allocated[i] = true
		}
		matching.Allocation[room.ID] = placed

		if len(placed) < room.Cap {
			matching.UnfilledRooms = append(matching.UnfilledRooms, room.ID)
		}
	}

	for i, id := range students {
		if !allocated[i] {
			matching.UnallocatedStudents = append(matching.UnallocatedStudents, id)
		}
	}

	return matching
}

// collectStudents returns the distinct student ids in first-seen order.
func collectStudents(rooms []Room) ([]string, map[string]int) {
	var students []string
	index := make(map[string]int)
	for _, room := range rooms {
		for _, id := range room.WantedBy {
			if _, ok := index[id]; ok {
				continue
			}
			index[id] = len(students)
			students = append(students, id)
		}
	}
	return students, index
}
