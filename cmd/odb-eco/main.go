// Copyright (C) 2024  OpenDB Core Authors
//
// SPDX-License-Identifier: GPL-2.0-or-later

// Command odb-eco replays and diffs ECO journal files (§4.7, the C9
// journal) against binary database files (§4.4).
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/datawire/dlib/dlog"
	"github.com/spf13/cobra"

	"github.com/opendb-core/odb/eco"
	"github.com/opendb-core/odb/internal/odbtui"
	"github.com/opendb-core/odb/schema"
	"github.com/opendb-core/odb/stream"
)

func main() {
	verbosity := &odbtui.LogLevelFlag{}

	root := &cobra.Command{
		Use:           "odb-eco",
		Short:         "Replay and diff ECO journal files against OpenDB-core databases",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.PersistentFlags().Var(verbosity, "verbosity", "set the log verbosity (error|warn|info|debug|trace)")

	root.AddCommand(
		newDiffCmd(),
		newReplayCmd(),
	)

	ctx := dlog.WithLogger(context.Background(), verbosity.NewLogger())
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "odb-eco: error: %v\n", err)
		os.Exit(1)
	}
}

func openDB(ctx context.Context, path string) (*schema.Database, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dlog.Debugf(ctx, "reading database %s", path)
	return stream.Read(path, f)
}

func newDiffCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "diff <db-file-a> <db-file-b>",
		Short: "Report net, inst and via differences between two database files",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			dbA, err := openDB(ctx, args[0])
			if err != nil {
				return err
			}
			defer dbA.Close()
			dbB, err := openDB(ctx, args[1])
			if err != nil {
				return err
			}
			defer dbB.Close()

			if asJSON {
				out, err := eco.DiffJSON(dbA, dbB)
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(out)
				return err
			}

			report := eco.Diff(dbA, dbB)
			if len(report) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no differences")
				return nil
			}
			for _, line := range report {
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit the diff report as a JSON array of strings")
	return cmd
}

func newReplayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "replay <base-db-file> <journal-file> <out-db-file>",
		Short: "Replay a journal file onto a copy of the base database and write the result",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, err := openDB(ctx, args[0])
			if err != nil {
				return err
			}
			defer db.Close()

			chip := db.Chip()
			if chip.IsNull() {
				return fmt.Errorf("%s: no chip to replay against", args[0])
			}
			block := db.TopBlock(chip)

			jf, err := os.Open(args[1])
			if err != nil {
				return err
			}
			entries, err := eco.ReadEco(jf)
			jf.Close()
			if err != nil {
				return err
			}
			dlog.Infof(ctx, "replaying %d journal entries onto %s", len(entries), args[0])

			if err := eco.Replay(db, block, entries); err != nil {
				return err
			}

			out, err := os.Create(args[2])
			if err != nil {
				return err
			}
			defer out.Close()
			return stream.Write(db, out)
		},
	}
}
