package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/pgdialect/pgdialect"
)

var (
	emitImportPath string
	emitExportName string
	emitNoCamel    bool
	emitNoImports  bool
)

var emitCmd = &cobra.Command{
	Use:   "emit [file.sql]",
	Short: "Generate schema-builder code from DDL",
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

		res, err := pgdialect.EmitBuilderCode(schema, pgdialect.EmitOptions{
			ImportPath:     emitImportPath,
			ExportName:     emitExportName,
			SnakeCase:      emitNoCamel,
			IncludeImports: !emitNoImports,
		})
		if err != nil {
			return err
		}

		fmt.Fprint(cmd.OutOrStdout(), res.Code)
		for _, w := range res.Warnings {
			color.New(color.FgYellow).Fprintln(cmd.ErrOrStderr(), "warning:", w)
		}
		return nil
	},
}

func init() {
	emitCmd.Flags().StringVar(&emitImportPath, "import-path", "", "module path for the import statement")
	emitCmd.Flags().StringVar(&emitExportName, "export", "", "export name override (single-table input)")
	emitCmd.Flags().BoolVar(&emitNoCamel, "no-camel", false, "keep snake_case property names")
	emitCmd.Flags().BoolVar(&emitNoImports, "no-imports", false, "omit the import statement")
}
