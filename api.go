// Copyright 2022 someonegg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package roomalloc provides room allocation algorithms that place students
// into capacity-bounded rooms according to the rooms they asked for.
package roomalloc

type Matcher interface {
	Match(rooms []Room) Matching
}

type Allocator interface {
	Allocate(rooms []Room) Allocation
}

type Room struct {
	ID       string
	Cap      int
	WantedBy []string // student ids, duplicates are ignored
}

type Allocation map[string][]string // roomID

type Matching struct {
	Allocation Allocation

	UnfilledRooms       []string // in input order
	UnallocatedStudents []string // in first-seen order
}

// Logger is the structured logger used by the matchers.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// NopLogger discards everything.
type NopLogger struct{}

func (NopLogger) Debug(string, ...any) {}
func (NopLogger) Info(string, ...any)  {}
func (NopLogger) Warn(string, ...any)  {}
func (NopLogger) Error(string, ...any) {}

func orNop(logger Logger) Logger {
	if logger == nil {
		return NopLogger{}
	}
	return logger
}

// Allocate runs the max-flow matcher and then backfills the remaining seats.
func Allocate(rooms []Room) Allocation {
	return GreedyAllocator(MaxFlowMatcher(nil), nil).Allocate(rooms)
}

// Placed returns the number of students placed by the allocation.
func Placed(a Allocation) int {
	n := 0
	for _, students := range a {
		n += len(students)
	}
	return n
}
