// Copyright 2022 someonegg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hostel

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/puzpuzpuz/xsync/v4"
	"golang.org/x/sync/errgroup"

	"github.com/someonegg/roomalloc"
)

type settings struct {
	par    int
	logger roomalloc.Logger
}

func (a *Allocator) settings() settings {
	s := settings{
		par:    DefaultParallelism,
		logger: a.Logger,
	}
	if a.Parallelism != nil && *a.Parallelism > 0 {
		s.par = *a.Parallelism
	}
	if s.logger == nil {
		s.logger = roomalloc.NopLogger{}
	}
	return s
}

// Allocate computes an allocation for every room of the building and applies
// it in the given mode. The building is left untouched when validation fails
// or ctx is done before the computation finishes.
func (a *Allocator) Allocate(ctx context.Context, b *Building, mode Mode) (*Result, error) {
	s := a.settings()

	if err := Validate(b); err != nil {
		return nil, fmt.Errorf("building %q: %w", b.ID, err)
	}

	rooms := engineRooms(b)
	digest := Digest(rooms)
	start := time.Now()

	done := make(chan roomalloc.Allocation, 1)
	go func() {
		engine := roomalloc.GreedyAllocator(roomalloc.MaxFlowMatcher(s.logger), s.logger)
		done <- engine.Allocate(rooms)
	}()

	var allocation roomalloc.Allocation
	select {
	case <-ctx.Done():
		s.logger.Warn("allocation abandoned", "building", b.ID, "err", ctx.Err())
		return nil, ctx.Err()
	case allocation = <-done:
	}

	b.Apply(allocation, mode)

	r := &Result{
		Building:   b.ID,
		Mode:       mode.String(),
		Allocation: allocation,
		Digest:     digest,
		Summary:    summarize(rooms, allocation),
	}
	r.Summary.Elapsed = time.Since(start)

	a.Metrics.observe(r)
	s.logger.Info("rooms allocated",
		"building", b.ID, "mode", r.Mode,
		"rooms", r.Summary.RoomsCount, "students", r.Summary.StudentsCount,
		"placed", r.Summary.Placed, "backfilled", r.Summary.Backfilled,
		"unplaced", r.Summary.Unplaced, "elapsed", r.Summary.Elapsed)

	return r, nil
}

// AllocateAll allocates several buildings concurrently. Each building is an
// independent computation; the first failure cancels the others.
func (a *Allocator) AllocateAll(ctx context.Context, buildings []*Building, mode Mode) (map[string]*Result, error) {
	seen := make(map[string]bool, len(buildings))
	for _, b := range buildings {
		if seen[b.ID] {
			return nil, fmt.Errorf("building %q: %w", b.ID, ErrDuplicateBuilding)
		}
		seen[b.ID] = true
	}

	results := xsync.NewMap[string, *Result]()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(a.settings().par)
	for _, b := range buildings {
		g.Go(func() error {
			r, err := a.Allocate(ctx, b, mode)
			if err != nil {
				return err
			}
			results.Store(b.ID, r)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string]*Result, results.Size())
	results.Range(func(id string, r *Result) bool {
		out[id] = r
		return true
	})
	return out, nil
}

// Validate checks the preconditions of the allocation engine. All problems
// found are returned joined. Repeated preferences are not an error, and
// neither is a student wanting many rooms: that limit belongs to Want.
func Validate(b *Building) error {
	var errs []error

	ids := make(map[string]bool, len(b.Rooms))
	for i, room := range b.Rooms {
		if room.ID == "" {
			errs = append(errs, fmt.Errorf("room #%d: %w", i, ErrEmptyRoomID))
		} else if ids[room.ID] {
			errs = append(errs, fmt.Errorf("room %q: %w", room.ID, ErrDuplicateRoom))
		}
		ids[room.ID] = true

		if room.Capacity < 0 {
			errs = append(errs, fmt.Errorf("room %q: %w (%d)", room.ID, ErrInvalidCapacity, room.Capacity))
		}
	}

	return errors.Join(errs...)
}

func engineRooms(b *Building) []roomalloc.Room {
	rooms := make([]roomalloc.Room, len(b.Rooms))
	for i, room := range b.Rooms {
		rooms[i] = roomalloc.Room{
			ID:       room.ID,
			Cap:      room.Capacity,
			WantedBy: room.WantedBy,
		}
	}
	return rooms
}

func summarize(rooms []roomalloc.Room, allocation roomalloc.Allocation) Summary {
	var summ Summary

	students := make(map[string]bool)
	for _, room := range rooms {
		wanted := make(map[string]bool, len(room.WantedBy))
		for _, s := range room.WantedBy {
			wanted[s] = true
			students[s] = true
		}

		placed := allocation[room.ID]
		for _, s := range placed {
			if wanted[s] {
				summ.ByPreference++
			}
		}
		if len(placed) < room.Cap {
			summ.UnfilledRooms++
		}
		summ.Capacity += room.Cap
		summ.Placed += len(placed)
	}

	summ.RoomsCount = len(rooms)
	summ.StudentsCount = len(students)
	summ.Backfilled = summ.Placed - summ.ByPreference
	summ.Unplaced = summ.StudentsCount - summ.Placed
	return summ
}
