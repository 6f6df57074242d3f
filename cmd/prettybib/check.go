package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/matsen/prettybib/internal/importer"
	"github.com/matsen/prettybib/internal/pipeline"
)

var checkInput string

func init() {
	checkCmd.Flags().StringVarP(&checkInput, "input", "i", "", "BibTeX file to read (default stdin)")
	rootCmd.AddCommand(checkCmd)
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Report problems without rewriting anything",
	Long: `Validate every entry and report diagnostics only.

Exits with status 3 when any error (unparseable record, unknown type,
duplicate key) is found; warnings alone exit 0.`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	data, err := readInput(checkInput, cmd.InOrStdin())
	if err != nil {
		exitWithError(ExitDataError, "%v", err)
	}
	doc := importer.ParseBibTeXBytes(data)

	res := pipeline.Check(doc.Entries)
	res.Diagnostics = append(doc.Diagnostics, res.Diagnostics...)

	printer := newDiagnosticPrinter(cmd.ErrOrStderr(), jsonOutput)
	if err := printer.Print(res.Diagnostics); err != nil {
		return err
	}
	if err := printer.Summary(summarize(res)); err != nil {
		return err
	}

	if res.HasErrors() {
		os.Exit(ExitDataError)
	}
	return nil
}
