package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pgdialect/pgdialect"
)

var hashCmd = &cobra.Command{
	Use:   "hash [file.sql]",
	Short: "Print the schema fingerprint",
	Long: `Computes the hex SHA-256 of the canonical schema form. Comments and
entity ordering do not affect the fingerprint, so it is stable across
formatting-only edits to the DDL.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sql, err := readInput(args)
		if err != nil {
			return err
		}
		schema, err := pgdialect.ParseSQL(sql)
		if err != nil {
			return err
		}
		h, err := pgdialect.Hash(schema)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), h)
		return nil
	},
}
