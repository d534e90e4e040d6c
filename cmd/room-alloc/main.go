// Copyright 2022 someonegg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/someonegg/roomalloc/hostel"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Println("Error: ", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:      "room-alloc",
		Usage:     "Utility for allocating hostel rooms",
		Writer:    os.Stdout,
		ErrWriter: os.Stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "specify the config.yaml",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "specify the log level (debug, info, warn, error)",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "specify the log format (text, json)",
			},
			&cli.StringFlag{
				Name:  "audit",
				Usage: "specify the audit log file (JSON lines, appended)",
			},
			&cli.StringFlag{
				Name:  "metrics-file",
				Usage: "specify the prometheus textfile to write",
			},
		},
		Commands: []*cli.Command{
			allocateCmd(hostel.ModePreview),
			allocateCmd(hostel.ModeFinal),
			batchCmd(),
			updateCmd(hostel.ActionClearAllocation),
			updateCmd(hostel.ActionResetBuilding),
			wantCmd(),
			exportCmd(),
			logsCmd(),
			clearLogsCmd(),
		},
	}
}

func buildingFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "building",
		Required: true,
		Usage:    "specify the building.json",
	}
}

func outFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "out",
		Usage: "specify the output building.json (default: overwrite input)",
	}
}

func byFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "by",
		Required: true,
		Usage:    "specify who triggers the action",
	}
}

func outFile(ctx *cli.Context) string {
	if out := ctx.String("out"); out != "" {
		return out
	}
	return ctx.String("building")
}

func allocateCmd(mode hostel.Mode) *cli.Command {
	cmd := &cli.Command{
		Name:    "allocate",
		Usage:   "Allocate the rooms of a building",
		Aliases: []string{"a"},
		Flags:   []cli.Flag{buildingFlag(), outFlag(), byFlag()},
		Action: withEnv(func(ctx *cli.Context, e *env) error {
			return doAllocate(ctx.Context, e, mode,
				ctx.String("building"), outFile(ctx), ctx.String("by"))
		}),
	}
	if mode == hostel.ModePreview {
		cmd.Name = "predict"
		cmd.Usage = "Compute the probable rooms of a building"
		cmd.Aliases = []string{"p"}
	}
	return cmd
}

func batchCmd() *cli.Command {
	return &cli.Command{
		Name:  "batch",
		Usage: "Allocate the rooms of several buildings in parallel",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:     "building",
				Required: true,
				Usage:    "specify a building.json, may be repeated; files are updated in place",
			},
			&cli.BoolFlag{
				Name:  "final",
				Usage: "write the final allotment instead of the probable one",
			},
			byFlag(),
		},
		Action: withEnv(func(ctx *cli.Context, e *env) error {
			mode := hostel.ModePreview
			if ctx.Bool("final") {
				mode = hostel.ModeFinal
			}
			return doBatch(ctx.Context, e, mode, ctx.StringSlice("building"), ctx.String("by"))
		}),
	}
}

func updateCmd(action hostel.Action) *cli.Command {
	cmd := &cli.Command{
		Name:  "clear",
		Usage: "Clear the final allotment of a building",
		Flags: []cli.Flag{buildingFlag(), outFlag(), byFlag()},
		Action: withEnv(func(ctx *cli.Context, e *env) error {
			return doUpdate(e, action, ctx.String("building"), outFile(ctx), ctx.String("by"))
		}),
	}
	if action == hostel.ActionResetBuilding {
		cmd.Name = "reset"
		cmd.Usage = "Drop the preferences and probable rooms of a building"
	}
	return cmd
}

func wantCmd() *cli.Command {
	return &cli.Command{
		Name:  "want",
		Usage: "Record that a student wants a room",
		Flags: []cli.Flag{
			buildingFlag(),
			&cli.StringFlag{
				Name:     "student",
				Required: true,
				Usage:    "specify the student id",
			},
			&cli.StringFlag{
				Name:     "room",
				Required: true,
				Usage:    "specify the room id",
			},
		},
		Action: withEnv(func(ctx *cli.Context, e *env) error {
			return doWant(e, ctx.String("building"), ctx.String("student"), ctx.String("room"))
		}),
	}
}

func exportCmd() *cli.Command {
	return &cli.Command{
		Name:    "export",
		Usage:   "Export the allotment of a building as CSV",
		Aliases: []string{"e"},
		Flags: []cli.Flag{
			buildingFlag(),
			&cli.StringFlag{
				Name:     "csv",
				Required: true,
				Usage:    "specify the output allotment.csv",
			},
			&cli.BoolFlag{
				Name:  "preview",
				Usage: "export the probable allotment instead of the final one",
			},
		},
		Action: withEnv(func(ctx *cli.Context, e *env) error {
			mode := hostel.ModeFinal
			if ctx.Bool("preview") {
				mode = hostel.ModePreview
			}
			return doExport(e, ctx.String("building"), ctx.String("csv"), mode)
		}),
	}
}

func logsCmd() *cli.Command {
	return &cli.Command{
		Name:  "logs",
		Usage: "Print the audit records, newest first",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "offset",
				Usage: "specify how many of the newest records to skip",
			},
			&cli.IntFlag{
				Name:  "limit",
				Value: hostel.DefaultAuditLimit,
				Usage: "specify how many records to print",
			},
		},
		Action: withEnv(func(ctx *cli.Context, e *env) error {
			return doLogs(e, ctx.Int("offset"), ctx.Int("limit"))
		}),
	}
}

func clearLogsCmd() *cli.Command {
	return &cli.Command{
		Name:  "clear-logs",
		Usage: "Drop every audit record, leaving one that says who did it",
		Flags: []cli.Flag{byFlag()},
		Action: withEnv(func(ctx *cli.Context, e *env) error {
			return doClearLogs(e, ctx.String("by"))
		}),
	}
}
