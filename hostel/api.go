// Copyright 2022 someonegg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package hostel uses roomalloc to allocate hostel rooms of a building.
package hostel

import (
	"time"

	"github.com/someonegg/roomalloc"
)

type Building struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	// e.g. "{building}-{block}{floor}{room}", used for rooms without a name
	RoomNaming string  `json:"roomNaming,omitempty"`
	Rooms      []*Room `json:"rooms"`
}

type Room struct {
	ID       string `json:"id"`
	Name     string `json:"name,omitempty"`
	Block    string `json:"block,omitempty"`
	Floor    string `json:"floor,omitempty"`
	Index    int    `json:"index"`
	Capacity int    `json:"capacity"`

	WantedBy      []string `json:"wantedBy"`
	WantedByCount int      `json:"wantedByCount"`

	AllotedTo         []string `json:"allotedTo"`
	ProbableAllotedTo []string `json:"probableAllotedTo"`
}

// Mode tells whether a result is a preview or the final allotment.
type Mode int

const (
	ModePreview Mode = iota
	ModeFinal
)

func (m Mode) String() string {
	if m == ModeFinal {
		return "final"
	}
	return "preview"
}

// Action is the audit action that applying a result in this mode records.
func (m Mode) Action() Action {
	if m == ModeFinal {
		return ActionAllocateRooms
	}
	return ActionPredictAllocation
}

const (
	// Limit applied by Building.Want, never by allocation.
	DefaultMaxWantsPerStudent = 3
	DefaultParallelism        = 4
)

type Allocator struct {
	// Number of buildings allocated at the same time by AllocateAll.
	Parallelism *int `json:"par" yaml:"parallelism"`

	Logger  roomalloc.Logger `json:"-" yaml:"-"`
	Metrics *Metrics         `json:"-" yaml:"-"`
}

type Result struct {
	Building   string               `json:"building"`
	Mode       string               `json:"mode"`
	Allocation roomalloc.Allocation `json:"allocation"`
	Digest     string               `json:"digest"`
	Summary    Summary              `json:"summary"`
}

type Summary struct {
	RoomsCount    int           `json:"rooms"`
	StudentsCount int           `json:"students"`
	Capacity      int           `json:"capacity"`
	Placed        int           `json:"placed"`
	ByPreference  int           `json:"by_preference"`
	Backfilled    int           `json:"backfilled"`
	Unplaced      int           `json:"unplaced"`
	UnfilledRooms int           `json:"unfilled_rooms"`
	Elapsed       time.Duration `json:"elapsed"`
}
