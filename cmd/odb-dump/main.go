// Copyright (C) 2024  OpenDB Core Authors
//
// SPDX-License-Identifier: GPL-2.0-or-later

// Command odb-dump reads a binary database file (§4.4, the C6 stream
// format) and prints a summary of its contents, or resolves a
// human-readable path (§4.8) to the type tag and oid of the object it names.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/datawire/dlib/dlog"
	"github.com/spf13/cobra"

	"github.com/opendb-core/odb/internal/odbtui"
	"github.com/opendb-core/odb/nameresolver"
	"github.com/opendb-core/odb/schema"
	"github.com/opendb-core/odb/stream"
)

func main() {
	verbosity := &odbtui.LogLevelFlag{}

	root := &cobra.Command{
		Use:           "odb-dump",
		Short:         "Inspect an OpenDB-core binary database file",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.PersistentFlags().Var(verbosity, "verbosity", "set the log verbosity (error|warn|info|debug|trace)")

	root.AddCommand(
		newSummaryCmd(),
		newPathCmd(),
	)

	ctx := dlog.WithLogger(context.Background(), verbosity.NewLogger())
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "odb-dump: error: %v\n", err)
		os.Exit(1)
	}
}

func openDB(ctx context.Context, path string) (*schema.Database, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dlog.Debugf(ctx, "reading %s", path)
	return stream.Read(path, f)
}

func newSummaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary <file>",
		Short: "Print block/net/inst counts for a database file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, err := openDB(ctx, args[0])
			if err != nil {
				return err
			}
			defer db.Close()

			chip := db.Chip()
			if chip.IsNull() {
				fmt.Fprintln(cmd.OutOrStdout(), "database has no chip")
				return nil
			}
			blocks := stream.BlocksOf(db, chip)
			var nets, insts, vias int
			for _, b := range blocks {
				nets += len(db.Nets(b))
				insts += len(db.Insts(b))
				vias += len(db.Vias(b))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d libs, %d blocks, %d nets, %d insts, %d vias\n",
				db.RegistryName(), len(db.Libs()), len(blocks), nets, insts, vias)
			return nil
		},
	}
}

func newPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path <file> <path>",
		Short: "Resolve an entity path (§4.8) against a database file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, err := openDB(ctx, args[0])
			if err != nil {
				return err
			}
			defer db.Close()

			resolved, err := nameresolver.Global.Resolve(db, args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", resolved.Tag, resolved.Oid)
			return nil
		},
	}
}
