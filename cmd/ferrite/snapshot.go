package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ferrite/internal/snapshot"
	"ferrite/internal/tabledef"
	"ferrite/internal/typereg"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Persist built type tables and inspect saved ones",
}

func init() {
	snapshotCmd.AddCommand(snapshotSaveCmd)
	snapshotCmd.AddCommand(snapshotShowCmd)
}

var snapshotSaveCmd = &cobra.Command{
	Use:   "save <manifest.toml> <out.mp>",
	Short: "Build a manifest and write the table to a snapshot file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := tabledef.Load(args[0])
		if err != nil {
			return err
		}
		table, err := tabledef.Build(m)
		if err != nil {
			return err
		}
		for _, dt := range table.Types {
			if err := typereg.Verify(dt); err != nil {
				return err
			}
		}
		if err := snapshot.Save(args[1], table); err != nil {
			return err
		}
		quiet, _ := cmd.Root().PersistentFlags().GetBool("quiet")
		if !quiet {
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %q (%d types) to %s\n",
				table.Name, len(table.Types), args[1])
		}
		return nil
	},
}

var snapshotShowCmd = &cobra.Command{
	Use:   "show <file.mp> [type...]",
	Short: "Print the type table entries stored in a snapshot",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		table, err := snapshot.Load(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "table %q: %d types\n\n", table.Name, len(table.Types))

		names := args[1:]
		if len(names) == 0 {
			for _, dt := range table.Types {
				dt.Describe(cmd.OutOrStdout())
				fmt.Fprintln(cmd.OutOrStdout())
			}
			return nil
		}
		for _, name := range names {
			dt, ok := table.Lookup(name)
			if !ok {
				return fmt.Errorf("snapshot carries no type %q", name)
			}
			dt.Describe(cmd.OutOrStdout())
			fmt.Fprintln(cmd.OutOrStdout())
		}
		return nil
	},
}
