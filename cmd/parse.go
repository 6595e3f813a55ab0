package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pgdialect/pgdialect"
)

var parseCmd = &cobra.Command{
	Use:   "parse [file.sql]",
	Short: "Parse DDL and print the schema model as JSON",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sql, err := readInput(args)
		if err != nil {
			return err
		}
		schema, err := pgdialect.ParseSQL(sql)
		if err != nil {
			return err
		}
		out, err := json.MarshalIndent(schema, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}
