package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/himanishpuri/TempoBench/internal/config"
	"github.com/himanishpuri/TempoBench/internal/harness"
	"github.com/himanishpuri/TempoBench/internal/validate"
)

var runFlags struct {
	sets        []string
	catalog     string
	plots       bool
	detector    string
	caseTimeout time.Duration
	estimate    string
	noRecord    bool
	verbose     bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the validation catalog through the detector",
	RunE:  runValidation,
}

func init() {
	f := runCmd.Flags()
	f.StringSliceVar(&runFlags.sets, "set", nil, "Test set to run (repeatable; default: the configured or built-in selection)")
	f.StringVar(&runFlags.catalog, "catalog", "", "YAML catalog file (default: built-in corpus)")
	f.BoolVar(&runFlags.plots, "plots", false, "Save flux plot data for every case")
	f.StringVar(&runFlags.detector, "detector", "", "Detector executable (overrides detector.command)")
	f.DurationVar(&runFlags.caseTimeout, "case-timeout", 0, "Fail a case when the detector takes longer (0: config value)")
	f.StringVar(&runFlags.estimate, "estimate", "", "Tempo estimate scored against ground truth: mode, median or mean")
	f.BoolVar(&runFlags.noRecord, "no-record", false, "Do not save the run to the history")
	f.BoolVarP(&runFlags.verbose, "verbose", "v", false, "Print every case result")
}

func runValidation(cmd *cobra.Command, _ []string) error {
	c := *cfg
	if runFlags.catalog != "" {
		c.Harness.Catalog = runFlags.catalog
	}
	if len(runFlags.sets) > 0 {
		c.Harness.Sets = runFlags.sets
	}
	if runFlags.plots {
		c.Artifacts.Enabled = true
	}
	if runFlags.detector != "" {
		c.Detector.Command = runFlags.detector
	}
	if runFlags.caseTimeout > 0 {
		c.Harness.CaseTimeout = config.Duration{Duration: runFlags.caseTimeout}
	}
	if runFlags.estimate != "" {
		c.Harness.Estimate = runFlags.estimate
	}
	if runFlags.noRecord {
		c.Storage.Record = false
	}

	cat, err := harness.LoadCatalog(c.Harness.Catalog, c.Harness.Sets)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	h, err := harness.FromConfig(&c)
	if err != nil {
		return fmt.Errorf("failed to create harness: %w", err)
	}
	defer h.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "🎵 Validating %d sets (%d cases)...\n", cat.Len(), cat.CaseCount())

	report, err := h.Run(ctx, cat)
	if report != nil {
		printReport(out, report, runFlags.verbose)
	}
	if err != nil {
		if ctx.Err() == context.Canceled {
			fmt.Fprintln(out, "\n⚠️  Interrupted, partial results shown")
		}
		return err
	}
	if c.Storage.Record {
		fmt.Fprintf(out, "\n💾 Recorded run %s\n", report.RunID)
	}
	return nil
}

func printReport(out io.Writer, r *validate.Report, verbose bool) {
	fmt.Fprintln(out)
	for _, s := range r.Sets {
		if s.Total == 0 {
			fmt.Fprintf(out, "   %-14s  (no cases)\n", s.Name)
			continue
		}
		fmt.Fprintf(out, "   %-14s %6.1f%%  %d/%d correct", s.Name, s.Accuracy, s.Correct, s.Total)
		if s.Failed > 0 {
			fmt.Fprintf(out, ", %d failed", s.Failed)
		}
		fmt.Fprintln(out)

		if !verbose {
			continue
		}
		for _, c := range s.Cases {
			mark := "✅"
			switch c.Outcome {
			case validate.OutcomeIncorrect:
				mark = "❌"
			case validate.OutcomeFailed:
				mark = "💥"
			}
			if c.Outcome == validate.OutcomeFailed {
				fmt.Fprintf(out, "      %s %-28s %s\n", mark, c.Label, c.Err)
				continue
			}
			fmt.Fprintf(out, "      %s %-28s expected %6.1f  detected %6.1f  (%s)\n",
				mark, c.Label, c.ExpectedTempo, c.Detected, c.Elapsed.Round(time.Millisecond))
		}
	}

	total, correct, failed := r.Totals()
	fmt.Fprintln(out)
	if r.HasMean {
		fmt.Fprintf(out, "✅ Mean accuracy: %.1f%% over %d sets\n", r.Mean, len(r.Accuracies))
	} else {
		fmt.Fprintln(out, "📭 No set produced an accuracy")
	}
	fmt.Fprintf(out, "   Cases: %s total, %s correct, %s failed\n",
		humanize.Comma(int64(total)), humanize.Comma(int64(correct)), humanize.Comma(int64(failed)))
	if d := r.Duration(); d > 0 {
		fmt.Fprintf(out, "   Started %s, took %s\n", humanize.Time(r.StartedAt), d.Round(time.Second))
	}
}
