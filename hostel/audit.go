// Copyright 2022 someonegg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hostel

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/zeebo/xxh3"

	"github.com/someonegg/roomalloc"
)

type Action string

const (
	ActionPredictAllocation Action = "PREDICT_ALLOCATION"
	ActionAllocateRooms     Action = "ALLOCATE_ROOMS"
	ActionClearAllocation   Action = "CLEAR_ALLOCATION"
	ActionResetBuilding     Action = "RESET_BUILDING"
	ActionClearActionLogs   Action = "CLEAR_ACTION_LOGS"
)

// DefaultAuditLimit is the page size ReadAudit falls back to.
const DefaultAuditLimit = 10

func (a Action) Valid() bool {
	switch a {
	case ActionPredictAllocation, ActionAllocateRooms,
		ActionClearAllocation, ActionResetBuilding, ActionClearActionLogs:
		return true
	}
	return false
}

type AuditRecord struct {
	Action      Action    `json:"action"`
	TriggeredBy string    `json:"triggeredBy"`
	Building    string    `json:"building"`
	Digest      string    `json:"digest,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// AuditLog appends audit records to w as JSON lines. It is safe for
// concurrent use.
type AuditLog struct {
	mu  sync.Mutex
	w   io.Writer
	enc *json.Encoder

	now func() time.Time
}

func NewAuditLog(w io.Writer) *AuditLog {
	return &AuditLog{w: w, enc: json.NewEncoder(w), now: time.Now}
}

// Record writes one record. digest may be empty for actions that do not
// run the allocation engine.
func (l *AuditLog) Record(action Action, by, building, digest string) (AuditRecord, error) {
	if !action.Valid() {
		return AuditRecord{}, fmt.Errorf("%q: %w", action, ErrUnknownAction)
	}
	if by == "" {
		return AuditRecord{}, ErrMissingActor
	}

	rec := AuditRecord{
		Action:      action,
		TriggeredBy: by,
		Building:    building,
		Digest:      digest,
		CreatedAt:   l.now().UTC(),
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.enc.Encode(rec); err != nil {
		return AuditRecord{}, fmt.Errorf("write audit record: %w", err)
	}
	return rec, nil
}

// Clear drops every record written so far and leaves a single
// CLEAR_ACTION_LOGS record naming who did it. The underlying writer must
// support truncation, as an *os.File opened with O_APPEND does.
func (l *AuditLog) Clear(by string) (AuditRecord, error) {
	if by == "" {
		return AuditRecord{}, ErrMissingActor
	}
	t, ok := l.w.(interface{ Truncate(size int64) error })
	if !ok {
		return AuditRecord{}, ErrAuditNotClearable
	}

	rec := AuditRecord{
		Action:      ActionClearActionLogs,
		TriggeredBy: by,
		CreatedAt:   l.now().UTC(),
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if err := t.Truncate(0); err != nil {
		return AuditRecord{}, fmt.Errorf("truncate audit log: %w", err)
	}
	if err := l.enc.Encode(rec); err != nil {
		return AuditRecord{}, fmt.Errorf("write audit record: %w", err)
	}
	return rec, nil
}

// ReadAudit decodes the JSON lines in r and returns one page of them, newest
// first. Records with equal timestamps keep the later-written one first.
// A negative offset reads from the start and a non-positive limit means
// DefaultAuditLimit.
func ReadAudit(r io.Reader, offset, limit int) ([]AuditRecord, error) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = DefaultAuditLimit
	}

	var recs []AuditRecord
	dec := json.NewDecoder(r)
	for {
		var rec AuditRecord
		err := dec.Decode(&rec)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read audit record %d: %w", len(recs)+1, err)
		}
		recs = append(recs, rec)
	}

	slices.Reverse(recs)
	slices.SortStableFunc(recs, func(a, b AuditRecord) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	if offset >= len(recs) {
		return []AuditRecord{}, nil
	}
	recs = recs[offset:]
	if len(recs) > limit {
		recs = recs[:limit]
	}
	return recs, nil
}

// Digest fingerprints an allocation input. Room order and preference order
// are significant since both can change which maximum matching is chosen.
func Digest(rooms []roomalloc.Room) string {
	h := xxh3.New()
	var num [8]byte
	sep := []byte{0}

	for _, room := range rooms {
		h.Write([]byte(room.ID))
		h.Write(sep)
		binary.LittleEndian.PutUint64(num[:], uint64(room.Cap)) //nolint:gosec
		h.Write(num[:])
		binary.LittleEndian.PutUint64(num[:], uint64(len(room.WantedBy)))
		h.Write(num[:])
		for _, s := range room.WantedBy {
			h.Write([]byte(s))
			h.Write(sep)
		}
	}

	return strconv.FormatUint(h.Sum64(), 16)
}
