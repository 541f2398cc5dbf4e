package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var historyFlags struct {
	limit int
}

var trendFlags struct {
	digest string
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded validation runs",
	RunE:  runHistory,
}

var showCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show a recorded run",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

var trendCmd = &cobra.Command{
	Use:   "trend <set>",
	Short: "Show a test set's accuracy across recorded runs",
	Args:  cobra.ExactArgs(1),
	RunE:  runTrend,
}

var deleteCmd = &cobra.Command{
	Use:   "delete <run-id>",
	Short: "Delete a recorded run",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

func init() {
	historyCmd.Flags().IntVarP(&historyFlags.limit, "limit", "n", 20, "Number of runs to show (0: all)")
	trendCmd.Flags().StringVar(&trendFlags.digest, "digest", "", "Only runs of the catalog with this digest")
	historyCmd.AddCommand(deleteCmd)
}

func runHistory(cmd *cobra.Command, _ []string) error {
	h, err := openHarness()
	if err != nil {
		return err
	}
	defer h.Close()

	runs, err := h.History(historyFlags.limit)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(out, "📭 No recorded runs")
		return nil
	}

	fmt.Fprintf(out, "📚 %d run(s):\n\n", len(runs))
	for _, r := range runs {
		mean := "   n/a"
		if r.HasMean {
			mean = fmt.Sprintf("%5.1f%%", r.Mean)
		}
		fmt.Fprintf(out, "%s  %s  %-16s  estimate=%s  catalog=%s\n",
			r.ID, mean, humanize.Time(r.StartedAt), r.Estimate, shortDigest(r.Digest))
	}
	return nil
}

func runShow(cmd *cobra.Command, args []string) error {
	h, err := openHarness()
	if err != nil {
		return err
	}
	defer h.Close()

	report, err := h.Report(args[0])
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run %s (catalog %s, estimate %s)\n", report.RunID, shortDigest(report.Digest), report.Estimate)
	printReport(out, report, true)
	return nil
}

func runTrend(cmd *cobra.Command, args []string) error {
	h, err := openHarness()
	if err != nil {
		return err
	}
	defer h.Close()

	points, err := h.Trend(args[0], trendFlags.digest)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(points) == 0 {
		fmt.Fprintf(out, "📭 No recorded runs of %s\n", args[0])
		return nil
	}

	fmt.Fprintf(out, "📈 %s over %d run(s):\n\n", args[0], len(points))
	prev := -1.0
	for _, p := range points {
		delta := ""
		if prev >= 0 {
			delta = fmt.Sprintf("%+.1f", p.Accuracy-prev)
		}
		fmt.Fprintf(out, "%s  %-16s %5.1f%%  %6s  (%d/%d, %d failed)\n",
			p.RunID, humanize.Time(p.StartedAt), p.Accuracy, delta, p.Correct, p.Total, p.Failed)
		prev = p.Accuracy
	}
	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	h, err := openHarness()
	if err != nil {
		return err
	}
	defer h.Close()

	if err := h.DeleteRun(args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✅ Deleted run %s\n", args[0])
	return nil
}

func shortDigest(d string) string {
	if len(d) > 12 {
		return d[:12]
	}
	return d
}
