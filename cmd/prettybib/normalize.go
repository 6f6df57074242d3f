package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/matsen/prettybib/internal/importer"
	"github.com/matsen/prettybib/internal/metrics"
	"github.com/matsen/prettybib/internal/pipeline"
	"github.com/matsen/prettybib/internal/storage"
)

var (
	normalizeInput       string
	normalizeOutput      string
	normalizeEnrich      bool
	normalizeAnthologies []string
	normalizeMetricsFile string
	normalizeReport      string
)

func init() {
	normalizeCmd.Flags().StringVarP(&normalizeInput, "input", "i", "", "BibTeX file to read (default stdin)")
	normalizeCmd.Flags().StringVarP(&normalizeOutput, "output", "o", "", "File to write (default stdout)")
	normalizeCmd.Flags().BoolVar(&normalizeEnrich, "enrich", false, "Look up TODO fields in external sources")
	normalizeCmd.Flags().StringArrayVar(&normalizeAnthologies, "anthology", nil, "Known-papers BibTeX file to copy TODO fields from (repeatable; works without --enrich)")
	normalizeCmd.Flags().StringVar(&normalizeMetricsFile, "metrics-file", "", "Write Prometheus metrics to this file")
	normalizeCmd.Flags().StringVar(&normalizeReport, "report", "", "Write a JSONL status report to this file")
	rootCmd.AddCommand(normalizeCmd)
}

var normalizeCmd = &cobra.Command{
	Use:   "normalize",
	Short: "Rewrite BibTeX in canonical form",
	Long: `Validate every entry, write TODO for missing required fields, and render
the collection sorted by key.

Examples:
  prettybib normalize -i refs.bib -o refs.bib
  prettybib normalize --enrich < raw.bib > clean.bib
  prettybib normalize --anthology ~/papers/known.bib -i refs.bib
  prettybib normalize --enrich --anthology ~/papers/known.bib -i refs.bib`,
	Args: cobra.NoArgs,
	RunE: runNormalize,
}

func runNormalize(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	logger := mustBuildLogger(cfg)
	defer logger.Sync()

	data, err := readInput(normalizeInput, cmd.InOrStdin())
	if err != nil {
		exitWithError(ExitDataError, "%v", err)
	}
	doc := importer.ParseBibTeXBytes(data)
	logger.Debug("parsed input",
		zap.String("path", normalizeInput),
		zap.Int("entries", len(doc.Entries)),
		zap.Int("problems", len(doc.Diagnostics)))

	var recorder *metrics.Recorder
	if normalizeMetricsFile != "" {
		recorder = metrics.New()
	}

	opts := pipeline.Options{Logger: logger, Metrics: recorder, ParseDiagnostics: doc.Diagnostics}
	// --anthology alone runs the offline strategies; --enrich adds the
	// remote services.
	if normalizeEnrich || len(normalizeAnthologies) > 0 {
		e, closeSources, err := buildEnricher(cfg, mergeAnthologies(cfg.Anthologies, normalizeAnthologies), normalizeEnrich, logger, recorder)
		if err != nil {
			exitWithError(ExitConfigError, "%v", err)
		}
		defer closeSources()
		opts.Enricher = e
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	res, runErr := pipeline.Run(ctx, doc.Entries, opts)

	printer := newDiagnosticPrinter(cmd.ErrOrStderr(), jsonOutput)
	if err := printer.Print(res.Diagnostics); err != nil {
		return err
	}
	if err := printer.Summary(summarize(res)); err != nil {
		return err
	}

	if runErr != nil {
		if errors.Is(runErr, context.Canceled) {
			exitWithError(ExitError, "%v; output not written", runErr)
		}
		return runErr
	}

	if err := writeOutput(normalizeOutput, res.Output, cmd.OutOrStdout()); err != nil {
		exitWithError(ExitError, "%v", err)
	}

	if normalizeReport != "" {
		if err := storage.WriteReportFile(normalizeReport, storage.BuildReport(res.Entries)); err != nil {
			exitWithError(ExitError, "writing report: %v", err)
		}
	}
	if normalizeMetricsFile != "" {
		if err := recorder.WriteFile(normalizeMetricsFile); err != nil {
			exitWithError(ExitError, "writing metrics: %v", err)
		}
	}

	return nil
}

func summarize(res *pipeline.Result) SummaryResponse {
	errs, warns := res.Counts()
	return SummaryResponse{
		Entries:  len(res.Entries),
		Errors:   errs,
		Warnings: warns,
		Statuses: res.StatusCounts(),
	}
}
