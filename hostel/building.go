// Copyright 2022 someonegg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hostel

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/someonegg/roomalloc"
)

// Room finds a room by id.
func (b *Building) Room(id string) *Room {
	for _, room := range b.Rooms {
		if room.ID == id {
			return room
		}
	}
	return nil
}

// Apply replaces the allotment of every room with the one in allocation.
// Rooms missing from allocation end up with an empty list.
func (b *Building) Apply(allocation roomalloc.Allocation, mode Mode) {
	for _, room := range b.Rooms {
		students := append([]string{}, allocation[room.ID]...)
		if mode == ModeFinal {
			room.AllotedTo = students
		} else {
			room.ProbableAllotedTo = students
		}
	}
}

// Clear drops the final allotment of every room.
func (b *Building) Clear() {
	for _, room := range b.Rooms {
		room.AllotedTo = []string{}
	}
}

// Reset drops every preference and the preview allotment. The final
// allotment is kept.
func (b *Building) Reset() {
	for _, room := range b.Rooms {
		room.WantedBy = []string{}
		room.WantedByCount = 0
		room.ProbableAllotedTo = []string{}
	}
}

// Want records that student is interested in room roomID. maxWants of 0
// disables the per-student limit.
func (b *Building) Want(student, roomID string, maxWants int) error {
	room := b.Room(roomID)
	if room == nil {
		return fmt.Errorf("room %q: %w", roomID, ErrUnknownRoom)
	}
	if slices.Contains(room.WantedBy, student) {
		return fmt.Errorf("room %q: %w", roomID, ErrAlreadyWanted)
	}
	if maxWants > 0 && len(b.WantedRooms(student)) >= maxWants {
		return fmt.Errorf("student %q: %w (max %d)", student, ErrTooManyWants, maxWants)
	}

	room.WantedBy = append(room.WantedBy, student)
	room.WantedByCount = len(room.WantedBy)
	return nil
}

// WantedRooms returns the rooms student is interested in, in building order.
func (b *Building) WantedRooms(student string) []*Room {
	var rooms []*Room
	for _, room := range b.Rooms {
		if slices.Contains(room.WantedBy, student) {
			rooms = append(rooms, room)
		}
	}
	return rooms
}

// CrowdRatio is the number of interested students per seat.
func (r *Room) CrowdRatio() float64 {
	if r.Capacity <= 0 {
		return math.Inf(1)
	}
	return float64(r.WantedByCount) / float64(r.Capacity)
}

type Chance struct {
	Room    string `json:"room"`
	Percent int    `json:"chance"`
}

// Chances estimates, for every room student wants, the percent chance of
// getting it: capacity spread over the competitors and over the number of
// rooms the student asked for. Rooms nobody competes for report 0.
func (b *Building) Chances(student string) []Chance {
	rooms := b.WantedRooms(student)
	chances := make([]Chance, len(rooms))
	for i, room := range rooms {
		chances[i].Room = room.ID
		if room.WantedByCount <= 0 {
			continue
		}
		p := float64(room.Capacity) / float64(room.WantedByCount*len(rooms)) * 100
		chances[i].Percent = int(math.Floor(p))
	}
	return chances
}

type NameParts struct {
	Building string
	Block    string
	Floor    string
	Room     string
}

// RoomName expands the {building}, {block}, {floor} and {room}
// placeholders of convention.
func RoomName(convention string, p NameParts) string {
	name := strings.ReplaceAll(convention, "{building}", p.Building)
	name = strings.ReplaceAll(name, "{block}", p.Block)
	name = strings.ReplaceAll(name, "{floor}", p.Floor)
	return strings.ReplaceAll(name, "{room}", p.Room)
}

// RoomName returns the display name of room: its own name, else the
// building naming convention, else its id.
func (b *Building) RoomName(room *Room) string {
	switch {
	case room.Name != "":
		return room.Name
	case b.RoomNaming != "":
		return RoomName(b.RoomNaming, NameParts{
			Building: b.Name,
			Block:    room.Block,
			Floor:    room.Floor,
			Room:     strconv.Itoa(room.Index),
		})
	}
	return room.ID
}
