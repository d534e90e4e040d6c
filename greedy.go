// Copyright 2022 someonegg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package roomalloc

type greedyAllocator struct {
	matcher Matcher
	logger  Logger
}

// GreedyAllocator returns an Allocator that takes the matching produced by m
// and pours the students it left out into the rooms it left unfilled.
//
// Leftover students are taken in first-seen order and rooms are filled in
// input order, first fit, without looking at what the students asked for.
// Students beyond the spare capacity stay out of the allocation.
func GreedyAllocator(m Matcher, logger Logger) Allocator {
	return greedyAllocator{m, orNop(logger)}
}

func (g greedyAllocator) Allocate(rooms []Room) Allocation {
	matching := g.matcher.Match(rooms)

	caps := make(map[string]int, len(rooms))
	for _, room := range rooms {
		if _, ok := caps[room.ID]; !ok {
			caps[room.ID] = room.Cap
		}
	}

	allocation := matching.Allocation
	if allocation == nil {
		allocation = make(Allocation, len(rooms))
	}
	rest := matching.UnallocatedStudents
	backfilled := 0

	for _, id := range matching.UnfilledRooms {
		if len(rest) == 0 {
			break
		}
		remaining := caps[id] - len(allocation[id])
		if remaining <= 0 {
			continue
		}
		n := min(remaining, len(rest))
		allocation[id] = append(allocation[id], rest[:n]...)
		rest = rest[n:]
		backfilled += n
	}

	g.logger.Debug("backfill done",
		"unfilled_rooms", len(matching.UnfilledRooms),
		"backfilled", backfilled, "unplaced", len(rest))

	return allocation
}
