package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/pgdialect/pgdialect"
	"github.com/pgdialect/pgdialect/ir"
)

var (
	validateDialect string
	validateMacaddr string
	validatePlain   bool
)

var validateCmd = &cobra.Command{
	Use:   "validate [file.sql]",
	Short: "Validate DDL against a dialect's compatibility rules",
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

		res, err := pgdialect.Validate(schema, pgdialect.Dialect(validateDialect), pgdialect.ValidateOptions{
			MacaddrReplacement: validateMacaddr,
		})
		if err != nil {
			return err
		}

		if validatePlain {
			for _, d := range res.Diagnostics {
				fmt.Fprintln(cmd.OutOrStdout(), d.Format())
			}
		} else if len(res.Diagnostics) > 0 {
			renderDiagnostics(cmd, res.Diagnostics)
		}

		errs, warns := len(res.Errors()), len(res.Warnings())
		switch {
		case !res.Valid:
			color.New(color.FgRed, color.Bold).Fprintf(cmd.OutOrStdout(),
				"✗ %d error(s), %d warning(s) for %s\n", errs, warns, validateDialect)
			return fmt.Errorf("schema is not compatible with %s", validateDialect)
		case warns > 0:
			color.New(color.FgYellow).Fprintf(cmd.OutOrStdout(),
				"⚠ compatible with %s, %d warning(s)\n", validateDialect, warns)
		default:
			color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(),
				"✓ compatible with %s\n", validateDialect)
		}
		return nil
	},
}

func renderDiagnostics(cmd *cobra.Command, diags []ir.Diagnostic) {
	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.AppendHeader(table.Row{"Severity", "Code", "Location", "Message"})
	for _, d := range diags {
		t.AppendRow(table.Row{severityCell(d.Severity), d.Code, d.Location, d.Message})
	}
	t.SetStyle(table.StyleLight)
	t.Render()
}

func severityCell(s ir.Severity) string {
	switch s {
	case ir.SeverityError:
		return color.RedString("ERROR")
	case ir.SeverityWarning:
		return color.YellowString("WARN")
	default:
		return color.CyanString("INFO")
	}
}

func init() {
	validateCmd.Flags().StringVarP(&validateDialect, "dialect", "d", "dsql", "target dialect (postgres, cockroachdb, nile, dsql)")
	validateCmd.Flags().StringVar(&validateMacaddr, "macaddr-replacement", "", "replacement type suggested for MAC address columns")
	validateCmd.Flags().BoolVar(&validatePlain, "plain", false, "print diagnostics as plain text instead of a table")
}
