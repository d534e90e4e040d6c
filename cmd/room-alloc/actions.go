// Copyright 2022 someonegg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/someonegg/roomalloc/hostel"
)

func doAllocate(ctx context.Context, e *env, mode hostel.Mode, inFile, outFile, by string) error {
	if by == "" {
		return hostel.ErrMissingActor
	}

	b, err := loadBuilding(inFile)
	if err != nil {
		return fmt.Errorf("load building file failed: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, e.cfg.Allocation.Timeout)
	defer cancel()

	r, err := e.allocator.Allocate(ctx, b, mode)
	if err != nil {
		return err
	}

	if err := writeBuilding(outFile, b); err != nil {
		return fmt.Errorf("write building file failed: %w", err)
	}
	if _, err := e.audit.Record(mode.Action(), by, b.ID, r.Digest); err != nil {
		return err
	}

	return printJSON(e, r.Summary)
}

func doBatch(ctx context.Context, e *env, mode hostel.Mode, files []string, by string) error {
	if by == "" {
		return hostel.ErrMissingActor
	}

	buildings := make([]*hostel.Building, len(files))
	for i, file := range files {
		b, err := loadBuilding(file)
		if err != nil {
			return fmt.Errorf("load building file %s failed: %w", file, err)
		}
		buildings[i] = b
	}

	ctx, cancel := context.WithTimeout(ctx, e.cfg.Allocation.Timeout)
	defer cancel()

	results, err := e.allocator.AllocateAll(ctx, buildings, mode)
	if err != nil {
		return err
	}

	summs := make(map[string]hostel.Summary, len(results))
	for i, b := range buildings {
		if err := writeBuilding(files[i], b); err != nil {
			return fmt.Errorf("write building file %s failed: %w", files[i], err)
		}
		r := results[b.ID]
		if _, err := e.audit.Record(mode.Action(), by, b.ID, r.Digest); err != nil {
			return err
		}
		summs[b.ID] = r.Summary
	}

	return printJSON(e, summs)
}

// doUpdate applies a non-computing action (clear, reset) to a building file.
func doUpdate(e *env, action hostel.Action, inFile, outFile, by string) error {
	if by == "" {
		return hostel.ErrMissingActor
	}

	b, err := loadBuilding(inFile)
	if err != nil {
		return fmt.Errorf("load building file failed: %w", err)
	}

	switch action {
	case hostel.ActionClearAllocation:
		b.Clear()
	case hostel.ActionResetBuilding:
		b.Reset()
	default:
		return fmt.Errorf("%q: %w", action, hostel.ErrUnknownAction)
	}

	if err := writeBuilding(outFile, b); err != nil {
		return fmt.Errorf("write building file failed: %w", err)
	}
	if _, err := e.audit.Record(action, by, b.ID, ""); err != nil {
		return err
	}

	e.logger.Info("building updated", "building", b.ID, "action", string(action))
	return nil
}

func doWant(e *env, inFile, student, room string) error {
	b, err := loadBuilding(inFile)
	if err != nil {
		return fmt.Errorf("load building file failed: %w", err)
	}
	if err := b.Want(student, room, *e.cfg.Allocation.MaxWantsPerStudent); err != nil {
		return err
	}
	if err := writeBuilding(inFile, b); err != nil {
		return fmt.Errorf("write building file failed: %w", err)
	}
	return printJSON(e, b.Chances(student))
}

func doExport(e *env, inFile, csvFile string, mode hostel.Mode) error {
	b, err := loadBuilding(inFile)
	if err != nil {
		return fmt.Errorf("load building file failed: %w", err)
	}

	var buf bytes.Buffer
	if err := hostel.WriteCSV(&buf, b, mode); err != nil {
		return err
	}
	if err := os.WriteFile(csvFile, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("write csv file failed: %w", err)
	}

	e.logger.Info("allotment exported", "building", b.ID, "file", csvFile, "rooms", len(b.Rooms))
	return nil
}

var errNoAuditFile = errors.New("no audit file configured")

func doLogs(e *env, offset, limit int) error {
	if e.auditFile == nil {
		return errNoAuditFile
	}
	f, err := os.Open(e.cfg.Audit.File)
	if err != nil {
		return fmt.Errorf("open audit file failed: %w", err)
	}
	defer f.Close()

	recs, err := hostel.ReadAudit(f, offset, limit)
	if err != nil {
		return err
	}
	return printJSON(e, recs)
}

func doClearLogs(e *env, by string) error {
	if e.auditFile == nil {
		return errNoAuditFile
	}
	rec, err := e.audit.Clear(by)
	if err != nil {
		return err
	}

	e.logger.Info("audit log cleared", "by", by, "file", e.cfg.Audit.File)
	return printJSON(e, rec)
}

func loadBuilding(file string) (*hostel.Building, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}

	var b hostel.Building

	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&b); err != nil {
		return nil, err
	}

	return &b, nil
}

func writeBuilding(file string, b *hostel.Building) error {
	var buf bytes.Buffer

	encoder := json.NewEncoder(&buf)
	encoder.SetIndent("", "   ")
	if err := encoder.Encode(b); err != nil {
		return err
	}

	return os.WriteFile(file, buf.Bytes(), 0644)
}

func printJSON(e *env, v any) error {
	encoder := json.NewEncoder(e.out)
	encoder.SetIndent("", "   ")
	return encoder.Encode(v)
}
