// Copyright 2022 someonegg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hostel

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/someonegg/roomalloc"
)

func TestAuditLog_Record(t *testing.T) {
	buf := &bytes.Buffer{}
	l := NewAuditLog(buf)
	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return at }

	rec, err := l.Record(ActionAllocateRooms, "admin", "b1", "abc")
	require.NoError(t, err)
	require.Equal(t, at, rec.CreatedAt)

	var got AuditRecord
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Equal(t, rec, got)
	require.Contains(t, buf.String(), `"action":"ALLOCATE_ROOMS"`)
	require.Contains(t, buf.String(), `"triggeredBy":"admin"`)

	_, err = l.Record("DROP_EVERYTHING", "admin", "b1", "")
	require.ErrorIs(t, err, ErrUnknownAction)

	_, err = l.Record(ActionClearAllocation, "", "b1", "")
	require.ErrorIs(t, err, ErrMissingActor)
}

func TestAuditLog_Concurrent(t *testing.T) {
	buf := &bytes.Buffer{}
	l := NewAuditLog(buf)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := l.Record(ActionResetBuilding, "admin", "b", "")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	lines := 0
	sc := bufio.NewScanner(buf)
	for sc.Scan() {
		var rec AuditRecord
		require.NoError(t, json.Unmarshal(sc.Bytes(), &rec))
		lines++
	}
	require.Equal(t, 20, lines)
}

func TestAction_Valid(t *testing.T) {
	for _, a := range []Action{
		ActionPredictAllocation, ActionAllocateRooms, ActionClearAllocation,
		ActionResetBuilding, ActionClearActionLogs,
	} {
		require.True(t, a.Valid(), a)
	}
	require.False(t, Action("DROP_EVERYTHING").Valid())
	require.False(t, Action("").Valid())
}

func writeAudit(t *testing.T, actions ...Action) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	l := NewAuditLog(buf)
	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	for i, a := range actions {
		l.now = func() time.Time { return at.Add(time.Duration(i) * time.Minute) }
		_, err := l.Record(a, "admin", "b"+strconv.Itoa(i), "")
		require.NoError(t, err)
	}
	return buf
}

func buildings(recs []AuditRecord) []string {
	ids := make([]string, len(recs))
	for i, rec := range recs {
		ids[i] = rec.Building
	}
	return ids
}

func TestReadAudit(t *testing.T) {
	actions := make([]Action, 12)
	for i := range actions {
		actions[i] = ActionAllocateRooms
	}
	data := writeAudit(t, actions...).String()

	t.Run("DefaultsToNewestTen", func(t *testing.T) {
		recs, err := ReadAudit(strings.NewReader(data), 0, 0)
		require.NoError(t, err)
		require.Len(t, recs, DefaultAuditLimit)
		require.Equal(t, "b11", recs[0].Building)
		require.Equal(t, "b2", recs[9].Building)
	})

	t.Run("OffsetAndLimit", func(t *testing.T) {
		recs, err := ReadAudit(strings.NewReader(data), 3, 2)
		require.NoError(t, err)
		require.Equal(t, []string{"b8", "b7"}, buildings(recs))
	})

	t.Run("NegativeOffset", func(t *testing.T) {
		recs, err := ReadAudit(strings.NewReader(data), -5, 1)
		require.NoError(t, err)
		require.Equal(t, []string{"b11"}, buildings(recs))
	})

	t.Run("PastTheEnd", func(t *testing.T) {
		recs, err := ReadAudit(strings.NewReader(data), 12, 10)
		require.NoError(t, err)
		require.Empty(t, recs)
	})

	t.Run("Empty", func(t *testing.T) {
		recs, err := ReadAudit(strings.NewReader(""), 0, 10)
		require.NoError(t, err)
		require.Empty(t, recs)
	})

	t.Run("Corrupt", func(t *testing.T) {
		_, err := ReadAudit(strings.NewReader(data+"{not json\n"), 0, 10)
		require.Error(t, err)
	})
}

func TestReadAudit_SortsByCreatedAt(t *testing.T) {
	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	for _, rec := range []AuditRecord{
		{Action: ActionAllocateRooms, TriggeredBy: "x", Building: "late", CreatedAt: at.Add(time.Hour)},
		{Action: ActionAllocateRooms, TriggeredBy: "x", Building: "early", CreatedAt: at},
		{Action: ActionAllocateRooms, TriggeredBy: "x", Building: "tie", CreatedAt: at},
	} {
		require.NoError(t, enc.Encode(rec))
	}

	recs, err := ReadAudit(buf, 0, 10)
	require.NoError(t, err)
	require.Equal(t, []string{"late", "tie", "early"}, buildings(recs))
}

func TestAuditLog_Clear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	require.NoError(t, err)
	defer f.Close()

	l := NewAuditLog(f)
	for i := 0; i < 3; i++ {
		_, err := l.Record(ActionResetBuilding, "admin", "b1", "")
		require.NoError(t, err)
	}

	_, err = l.Clear("")
	require.ErrorIs(t, err, ErrMissingActor)

	rec, err := l.Clear("root")
	require.NoError(t, err)
	require.Equal(t, ActionClearActionLogs, rec.Action)
	require.Empty(t, rec.Building)

	_, err = l.Record(ActionClearAllocation, "admin", "b2", "")
	require.NoError(t, err)

	r, err := os.Open(path)
	require.NoError(t, err)
	defer r.Close()
	recs, err := ReadAudit(r, 0, 10)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	require.Equal(t, ActionClearAllocation, recs[0].Action)
	require.Equal(t, ActionClearActionLogs, recs[1].Action)
	require.Equal(t, "root", recs[1].TriggeredBy)
}

func TestAuditLog_ClearNeedsTruncate(t *testing.T) {
	buf := &bytes.Buffer{}
	l := NewAuditLog(buf)
	_, err := l.Record(ActionResetBuilding, "admin", "b1", "")
	require.NoError(t, err)

	_, err = l.Clear("root")
	require.ErrorIs(t, err, ErrAuditNotClearable)
	require.NotEmpty(t, buf.String())
}

func TestModeAction(t *testing.T) {
	require.Equal(t, ActionPredictAllocation, ModePreview.Action())
	require.Equal(t, ActionAllocateRooms, ModeFinal.Action())
}

func TestDigest(t *testing.T) {
	rooms := []roomalloc.Room{
		{ID: "1", Cap: 1, WantedBy: []string{"a", "b"}},
		{ID: "2", Cap: 2, WantedBy: []string{"c"}},
	}
	d := Digest(rooms)

	require.Equal(t, d, Digest(rooms))
	require.NotEqual(t, d, Digest(rooms[:1]))

	swapped := []roomalloc.Room{rooms[1], rooms[0]}
	require.NotEqual(t, d, Digest(swapped))

	moved := []roomalloc.Room{
		{ID: "1", Cap: 1, WantedBy: []string{"a"}},
		{ID: "2", Cap: 2, WantedBy: []string{"b", "c"}},
	}
	require.NotEqual(t, d, Digest(moved))

	recapped := []roomalloc.Room{
		{ID: "1", Cap: 2, WantedBy: []string{"a", "b"}},
		{ID: "2", Cap: 2, WantedBy: []string{"c"}},
	}
	require.NotEqual(t, d, Digest(recapped))
}
