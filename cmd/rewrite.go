package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/pgdialect/pgdialect"
)

var rewriteShowChanges bool

var rewriteCmd = &cobra.Command{
	Use:   "rewrite [file.sql]",
	Short: "Rewrite PostgreSQL DDL for DSQL compatibility",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sql, err := readInput(args)
		if err != nil {
			return err
		}

		res := pgdialect.RewriteForDSQL(sql)
		fmt.Fprint(cmd.OutOrStdout(), res.SQL)

		if rewriteShowChanges {
			out := cmd.ErrOrStderr()
			if !res.Modified {
				color.New(color.FgGreen).Fprintln(out, "no changes needed")
				return nil
			}
			for _, c := range res.Changes {
				fmt.Fprintf(out, "%s: %s (x%d)\n", c.Code, c.Description, c.Count)
			}
		}
		return nil
	},
}

func init() {
	rewriteCmd.Flags().BoolVar(&rewriteShowChanges, "show-changes", false, "list applied rules on stderr")
}
