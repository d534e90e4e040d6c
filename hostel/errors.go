// Copyright 2022 someonegg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hostel

import "errors"

var (
	ErrEmptyRoomID       = errors.New("empty room id")
	ErrDuplicateRoom     = errors.New("duplicate room id")
	ErrInvalidCapacity   = errors.New("negative room capacity")
	ErrTooManyWants      = errors.New("student wants too many rooms")
	ErrAlreadyWanted     = errors.New("student already wants this room")
	ErrUnknownRoom       = errors.New("room not found")
	ErrDuplicateBuilding = errors.New("duplicate building id")
	ErrUnknownAction     = errors.New("unknown action")
	ErrMissingActor      = errors.New("missing actor")
	ErrAuditNotClearable = errors.New("audit log cannot be truncated")
)
