// Copyright 2022 someonegg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hostel

import (
	"encoding/csv"
	"io"
	"strings"
)

// WriteCSV writes one row per room with its allotment in the given mode.
func WriteCSV(w io.Writer, b *Building, mode Mode) error {
	header := []string{"Room", "Final Allotment"}
	if mode == ModePreview {
		header[1] = "Probable Allotment"
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, room := range b.Rooms {
		students := room.AllotedTo
		if mode == ModePreview {
			students = room.ProbableAllotedTo
		}
		if err := cw.Write([]string{b.RoomName(room), strings.Join(students, ", ")}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
