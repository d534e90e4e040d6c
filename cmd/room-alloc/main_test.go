// Copyright 2022 someonegg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/someonegg/roomalloc/hostel"
)

const buildingJSON = `{
  "id": "b1",
  "name": "H1",
  "roomNaming": "{building}-{floor}{room}",
  "rooms": [
    {"id": "1", "floor": "1", "index": 1, "capacity": 1, "wantedBy": ["a", "b", "c"], "wantedByCount": 3},
    {"id": "2", "floor": "1", "index": 2, "capacity": 1, "wantedBy": ["a", "b", "c"], "wantedByCount": 3},
    {"id": "3", "floor": "1", "index": 3, "capacity": 1, "wantedBy": ["a", "b", "c", "d"], "wantedByCount": 4},
    {"id": "4", "floor": "2", "index": 1, "capacity": 1, "wantedBy": ["d", "e", "f"], "wantedByCount": 3},
    {"id": "5", "floor": "2", "index": 2, "capacity": 1, "wantedBy": ["d", "e", "f"], "wantedByCount": 3}
  ]
}`

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	app := newApp()
	app.Writer = out
	app.ErrWriter = &bytes.Buffer{}
	err := app.Run(append([]string{"room-alloc"}, args...))
	return out.String(), err
}

func readBuilding(t *testing.T, path string) *hostel.Building {
	t.Helper()
	b, err := loadBuilding(path)
	require.NoError(t, err)
	return b
}

func TestAllocateCommands(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, "building.json", buildingJSON)
	audit := filepath.Join(dir, "audit.jsonl")
	metrics := filepath.Join(dir, "metrics.prom")

	out, err := run(t, "--audit", audit, "--metrics-file", metrics,
		"predict", "--building", in, "--by", "admin")
	require.NoError(t, err)

	var summ hostel.Summary
	require.NoError(t, json.Unmarshal([]byte(out), &summ))
	require.Equal(t, 5, summ.Placed)
	require.Equal(t, 1, summ.Unplaced)

	b := readBuilding(t, in)
	require.Equal(t, []string{"a"}, b.Rooms[0].ProbableAllotedTo)
	require.Empty(t, b.Rooms[0].AllotedTo)

	final := filepath.Join(dir, "final.json")
	_, err = run(t, "--audit", audit, "allocate", "--building", in, "--out", final, "--by", "admin")
	require.NoError(t, err)
	require.Equal(t, []string{"e"}, readBuilding(t, final).Rooms[4].AllotedTo)

	data, err := os.ReadFile(audit)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)

	var first, second hostel.AuditRecord
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	require.Equal(t, hostel.ActionPredictAllocation, first.Action)
	require.Equal(t, hostel.ActionAllocateRooms, second.Action)
	require.Equal(t, "admin", second.TriggeredBy)
	require.Equal(t, first.Digest, second.Digest)

	prom, err := os.ReadFile(metrics)
	require.NoError(t, err)
	require.Contains(t, string(prom), `roomalloc_runs_total{mode="preview"} 1`)
}

func TestUpdateCommands(t *testing.T) {
	in := writeFile(t, "building.json", buildingJSON)

	_, err := run(t, "allocate", "--building", in, "--by", "admin")
	require.NoError(t, err)
	_, err = run(t, "predict", "--building", in, "--by", "admin")
	require.NoError(t, err)

	_, err = run(t, "clear", "--building", in, "--by", "admin")
	require.NoError(t, err)
	b := readBuilding(t, in)
	require.Empty(t, b.Rooms[0].AllotedTo)
	require.NotEmpty(t, b.Rooms[0].ProbableAllotedTo)

	_, err = run(t, "reset", "--building", in, "--by", "admin")
	require.NoError(t, err)
	b = readBuilding(t, in)
	require.Empty(t, b.Rooms[0].WantedBy)
	require.Empty(t, b.Rooms[0].ProbableAllotedTo)
}

func TestWantAndExport(t *testing.T) {
	in := writeFile(t, "building.json", buildingJSON)

	out, err := run(t, "want", "--building", in, "--student", "e", "--room", "3")
	require.NoError(t, err)

	var chances []hostel.Chance
	require.NoError(t, json.Unmarshal([]byte(out), &chances))
	require.Len(t, chances, 3)
	require.Equal(t, 5, readBuilding(t, in).Rooms[2].WantedByCount)

	_, err = run(t, "want", "--building", in, "--student", "e", "--room", "3")
	require.ErrorIs(t, err, hostel.ErrAlreadyWanted)

	_, err = run(t, "allocate", "--building", in, "--by", "admin")
	require.NoError(t, err)

	csvFile := filepath.Join(t.TempDir(), "allotment.csv")
	_, err = run(t, "export", "--building", in, "--csv", csvFile)
	require.NoError(t, err)

	data, err := os.ReadFile(csvFile)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 6)
	require.Equal(t, "Room,Final Allotment", lines[0])
	require.True(t, strings.HasPrefix(lines[1], "H1-11,"))
}

func TestBatchCommand(t *testing.T) {
	first := writeFile(t, "b1.json", buildingJSON)
	second := writeFile(t, "b2.json", strings.Replace(buildingJSON, `"id": "b1"`, `"id": "b2"`, 1))

	out, err := run(t, "batch", "--building", first, "--building", second, "--final", "--by", "admin")
	require.NoError(t, err)

	var summs map[string]hostel.Summary
	require.NoError(t, json.Unmarshal([]byte(out), &summs))
	require.Len(t, summs, 2)
	require.Equal(t, 5, summs["b2"].Placed)
	require.Equal(t, []string{"a"}, readBuilding(t, second).Rooms[0].AllotedTo)
}

func readLogs(t *testing.T, out string) []hostel.AuditRecord {
	t.Helper()
	var recs []hostel.AuditRecord
	require.NoError(t, json.Unmarshal([]byte(out), &recs))
	return recs
}

func TestLogsCommands(t *testing.T) {
	in := writeFile(t, "building.json", buildingJSON)
	audit := filepath.Join(t.TempDir(), "audit.jsonl")

	for _, cmd := range []string{"predict", "allocate", "reset"} {
		_, err := run(t, "--audit", audit, cmd, "--building", in, "--by", "admin")
		require.NoError(t, err)
	}

	out, err := run(t, "--audit", audit, "logs", "--limit", "2")
	require.NoError(t, err)
	recs := readLogs(t, out)
	require.Len(t, recs, 2)
	require.Equal(t, hostel.ActionResetBuilding, recs[0].Action)
	require.Equal(t, hostel.ActionAllocateRooms, recs[1].Action)

	out, err = run(t, "--audit", audit, "logs", "--offset", "2")
	require.NoError(t, err)
	recs = readLogs(t, out)
	require.Len(t, recs, 1)
	require.Equal(t, hostel.ActionPredictAllocation, recs[0].Action)

	_, err = run(t, "--audit", audit, "clear-logs")
	require.Error(t, err, "--by is required")

	_, err = run(t, "--audit", audit, "clear-logs", "--by", "root")
	require.NoError(t, err)

	out, err = run(t, "--audit", audit, "logs")
	require.NoError(t, err)
	recs = readLogs(t, out)
	require.Len(t, recs, 1)
	require.Equal(t, hostel.ActionClearActionLogs, recs[0].Action)
	require.Equal(t, "root", recs[0].TriggeredBy)
	require.Empty(t, recs[0].Building)

	_, err = run(t, "logs")
	require.ErrorIs(t, err, errNoAuditFile)
	_, err = run(t, "clear-logs", "--by", "root")
	require.ErrorIs(t, err, errNoAuditFile)
}

func TestCommandErrors(t *testing.T) {
	in := writeFile(t, "building.json", buildingJSON)

	_, err := run(t, "allocate", "--building", in)
	require.Error(t, err, "--by is required")

	_, err = run(t, "allocate", "--building", in, "--by", "")
	require.ErrorIs(t, err, hostel.ErrMissingActor)

	bad := writeFile(t, "bad.json", `{"id": "b", "rooms": [{"id": "1", "capacity": -1}]}`)
	_, err = run(t, "allocate", "--building", bad, "--by", "admin")
	require.ErrorIs(t, err, hostel.ErrInvalidCapacity)

	unknown := writeFile(t, "unknown.json", `{"id": "b", "floors": []}`)
	_, err = run(t, "allocate", "--building", unknown, "--by", "admin")
	require.Error(t, err)

	_, err = run(t, "--log-level", "loud", "allocate", "--building", in, "--by", "admin")
	require.Error(t, err)
}
