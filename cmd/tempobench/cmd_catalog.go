package main

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/himanishpuri/TempoBench/internal/catalog"
	"github.com/himanishpuri/TempoBench/internal/harness"
	"github.com/himanishpuri/TempoBench/internal/media"
)

var catalogFlags struct {
	file     string
	sets     []string
	parallel int
}

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect the validation catalog",
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List test sets and cases",
	RunE:  runCatalogList,
}

var catalogVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check that every recording exists and fits its analysis window",
	RunE:  runCatalogVerify,
}

var catalogDumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Print the catalog as YAML",
	RunE:  runCatalogDump,
}

func init() {
	pf := catalogCmd.PersistentFlags()
	pf.StringVar(&catalogFlags.file, "catalog", "", "YAML catalog file (default: built-in corpus)")
	pf.StringSliceVar(&catalogFlags.sets, "set", nil, "Restrict to these test sets")
	catalogVerifyCmd.Flags().IntVar(&catalogFlags.parallel, "parallel", 4, "Recordings probed concurrently")

	catalogCmd.AddCommand(catalogListCmd)
	catalogCmd.AddCommand(catalogVerifyCmd)
	catalogCmd.AddCommand(catalogDumpCmd)
}

func selectedCatalog() (*catalog.Catalog, error) {
	file := catalogFlags.file
	if file == "" {
		file = cfg.Harness.Catalog
	}
	sets := catalogFlags.sets
	if len(sets) == 0 {
		sets = cfg.Harness.Sets
	}
	if file == "" && len(sets) == 0 {
		return catalog.BuiltinAll(), nil
	}
	return harness.LoadCatalog(file, sets)
}

func runCatalogList(cmd *cobra.Command, _ []string) error {
	cat, err := selectedCatalog()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "📚 %d sets, %d cases (digest %s)\n", cat.Len(), cat.CaseCount(), cat.Digest()[:12])
	for _, s := range cat.Sets() {
		fmt.Fprintf(out, "\n%s (%d)\n", s.Name, len(s.Cases))
		for _, tc := range s.Cases {
			fmt.Fprintf(out, "   %-28s %6.1f bpm  %-10s range %g-%g  ±%g  %s\n",
				tc.Label, tc.ExpectedTempo, tc.Window, tc.TempoRange.Min, tc.TempoRange.Max, tc.AllowedVariance, tc.MediaRef)
		}
	}
	for _, w := range cat.Warnings() {
		fmt.Fprintf(out, "⚠️  %s\n", w)
	}
	return nil
}

func runCatalogDump(cmd *cobra.Command, _ []string) error {
	cat, err := selectedCatalog()
	if err != nil {
		return err
	}
	data, err := cat.Marshal()
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

func runCatalogVerify(cmd *cobra.Command, _ []string) error {
	cat, err := selectedCatalog()
	if err != nil {
		return err
	}
	if err := cat.Validate(); err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "🔍 Checking %d recordings under %s\n", cat.CaseCount(), cfg.Harness.MediaDir)

	var (
		mu       sync.Mutex
		problems []string
	)
	report := func(format string, args ...any) {
		mu.Lock()
		defer mu.Unlock()
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	g, ctx := errgroup.WithContext(cmd.Context())
	if catalogFlags.parallel > 0 {
		g.SetLimit(catalogFlags.parallel)
	}
	for _, s := range cat.Sets() {
		for _, tc := range s.Cases {
			g.Go(func() error {
				path := tc.MediaRef
				if !filepath.IsAbs(path) {
					path = filepath.Join(cfg.Harness.MediaDir, path)
				}
				meta, err := media.Inspect(ctx, path)
				if err != nil {
					report("%s/%s: %v", s.Name, tc.Label, err)
					return nil
				}
				if err := media.CheckWindow(meta.Duration, tc.Window); err != nil {
					report("%s/%s: %v", s.Name, tc.Label, err)
				}
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if len(problems) == 0 {
		fmt.Fprintln(out, "✅ All recordings present and windows valid")
		return nil
	}
	for _, p := range problems {
		fmt.Fprintf(out, "❌ %s\n", p)
	}
	return fmt.Errorf("%d of %d cases have problems", len(problems), cat.CaseCount())
}
