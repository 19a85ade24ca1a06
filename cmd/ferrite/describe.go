package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ferrite/internal/tabledef"
	"ferrite/internal/typereg"
)

var describeCmd = &cobra.Command{
	Use:   "describe <manifest.toml> [type...]",
	Short: "Build a manifest and print its type table entries",
	Args:  cobra.MinimumNArgs(1),
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

		quiet, _ := cmd.Root().PersistentFlags().GetBool("quiet")
		if !quiet {
			fmt.Fprintf(cmd.OutOrStdout(), "table %q: %d types\n\n", table.Name, len(table.Types))
		}

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
				fmt.Fprintf(os.Stderr, "table %q declares no type %q\n", table.Name, name)
				continue
			}
			dt.Describe(cmd.OutOrStdout())
			fmt.Fprintln(cmd.OutOrStdout())
		}
		return nil
	},
}
