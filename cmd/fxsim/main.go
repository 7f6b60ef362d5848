package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/san-kum/fxsim/internal/automation"
	"github.com/san-kum/fxsim/internal/config"
	"github.com/san-kum/fxsim/internal/experiment"
	"github.com/san-kum/fxsim/internal/export"
	"github.com/san-kum/fxsim/internal/loader"
	"github.com/san-kum/fxsim/internal/logging"
	"github.com/san-kum/fxsim/internal/viz"
	"github.com/spf13/cobra"
)

// maxPairPoints bounds the points per cell of the pair grid.
const maxPairPoints = 2000

var (
	logLevel  string
	logFormat string

	configFile string
	preset     string

	covPath  string
	initPath string
	mu       []float64
	padDrift bool

	steps  int
	sims   int
	dt     float64
	seed   uint64
	method string

	mode      string
	workers   int
	blockSize int

	asset     int
	pathAsset int
	bins      int

	outDir    string
	outFormat string
	maxPaths  int
	noChart   bool
	metricArg []string

	sweepParam  string
	sweepFrom   float64
	sweepTo     float64
	sweepPoints int
)

// main registers the fxsim commands and exits with status 1 on error.
func main() {
	rootCmd := &cobra.Command{
		Use:           "fxsim",
		Short:         "correlated random-walk simulator with a lognormal reference",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (text, json)")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&preset, "preset", "", "use preset configuration")
	rootCmd.PersistentFlags().StringVar(&covPath, "cov", "", "covariance matrix file (.csv or .xlsx)")
	rootCmd.PersistentFlags().StringVar(&initPath, "init", "", "initial values file (.csv or .xlsx)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "simulate paths and compare against the lognormal reference",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	addSimulationFlags(runCmd)
	runCmd.Flags().IntVar(&asset, "asset", config.DefaultAsset, "quantity compared against the reference")
	runCmd.Flags().IntVar(&pathAsset, "path-asset", 0, "quantity whose paths are plotted")
	runCmd.Flags().IntVar(&bins, "bins", config.DefaultBins, "histogram bins")
	runCmd.Flags().StringVar(&outDir, "out", "", "directory for image export")
	runCmd.Flags().StringVar(&outFormat, "format", config.DefaultFormat, "image format (svg, png)")
	runCmd.Flags().IntVar(&maxPaths, "paths", 10, "number of paths drawn")
	runCmd.Flags().BoolVar(&noChart, "no-chart", false, "skip terminal charts")
	runCmd.Flags().StringArrayVar(&metricArg, "metric", nil, "extra metric name[:asset,step,threshold] (repeatable)")

	inspectCmd := &cobra.Command{
		Use:   "inspect",
		Short: "check the covariance matrix and initial values",
		Args:  cobra.NoArgs,
		RunE:  inspectInputs,
	}

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "benchmark serial and split runs",
		Args:  cobra.NoArgs,
		RunE:  benchRuns,
	}
	addSimulationFlags(benchCmd)

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "repeat a run over a range of one parameter",
		Args:  cobra.NoArgs,
		RunE:  sweepRuns,
	}
	addSimulationFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&sweepParam, "param", automation.ParamSimulations, "parameter to sweep (n_simulations, n_steps, delta_t, block_size)")
	sweepCmd.Flags().Float64Var(&sweepFrom, "from", 100, "first value")
	sweepCmd.Flags().Float64Var(&sweepTo, "to", 10000, "last value")
	sweepCmd.Flags().IntVar(&sweepPoints, "points", 5, "number of values")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tSTEPS\tSIMS\tDT\tPERIODS/YR\tMODE\tFACTORIZATION")
			for _, name := range config.ListPresets() {
				p := config.GetPreset(name)
				fmt.Fprintf(w, "%s\t%d\t%d\t%g\t%g\t%s\t%s\n", name,
					p.Simulation.Steps, p.Simulation.Simulations, p.Simulation.DeltaT,
					p.Analysis.PeriodsPerYear, p.Parallel.Mode, p.Factorization)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Println()
			fmt.Println(viz.Subtle.Render("metrics: " + strings.Join(experiment.NewRegistry().ListMetrics(), ", ")))
			return nil
		},
	}

	rootCmd.AddCommand(runCmd, inspectCmd, benchCmd, sweepCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, viz.StatusFail.Render("error:"), err)
		os.Exit(1)
	}
}

func addSimulationFlags(cmd *cobra.Command) {
	cmd.Flags().Float64SliceVar(&mu, "mu", nil, "drift per step, one value per quantity")
	cmd.Flags().BoolVar(&padDrift, "pad-drift", false, "zero-fill a short --mu")
	cmd.Flags().IntVar(&steps, "steps", config.DefaultSteps, "number of steps")
	cmd.Flags().IntVar(&sims, "sims", config.DefaultSimulations, "number of simulations")
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDeltaT, "step length")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "random seed (time-derived when unset)")
	cmd.Flags().StringVar(&method, "factorization", "cholesky", "covariance factorization (cholesky, eigen)")
	cmd.Flags().StringVar(&mode, "mode", "serial", "run mode (serial, split)")
	cmd.Flags().IntVar(&workers, "workers", 0, "concurrent blocks in split mode (0 = GOMAXPROCS)")
	cmd.Flags().IntVar(&blockSize, "block-size", 1024, "simulations per block in split mode")
}

func newLogger() (*slog.Logger, error) {
	return logging.New(logLevel, logFormat, os.Stderr)
}

// resolveConfig layers the preset, the config file and explicitly set flags.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}

	if configFile != "" {
		var err error
		cfg, err = config.LoadOver(configFile, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	flags := cmd.Flags()
	if flags.Changed("cov") {
		cfg.DataFiles.CovarianceMatrix = covPath
	}
	if flags.Changed("init") {
		cfg.DataFiles.InitValues = initPath
	}
	if flags.Changed("mu") {
		cfg.Simulation.Mu = mu
	}
	if flags.Changed("pad-drift") {
		cfg.PadDrift = padDrift
	}
	if flags.Changed("steps") {
		cfg.Simulation.Steps = steps
	}
	if flags.Changed("sims") {
		cfg.Simulation.Simulations = sims
	}
	if flags.Changed("dt") {
		cfg.Simulation.DeltaT = dt
	}
	if flags.Changed("seed") {
		s := seed
		cfg.RandomSeed = &s
	}
	if flags.Changed("factorization") {
		cfg.Factorization = method
	}
	if flags.Changed("mode") {
		cfg.Parallel.Mode = mode
	}
	if flags.Changed("workers") {
		cfg.Parallel.Workers = workers
	}
	if flags.Changed("block-size") {
		cfg.Parallel.BlockSize = blockSize
	}
	if flags.Changed("asset") {
		cfg.Analysis.Asset = asset
	}
	if flags.Changed("path-asset") {
		cfg.Analysis.PathAsset = pathAsset
	}
	if flags.Changed("bins") {
		cfg.Analysis.Bins = bins
	}
	if flags.Changed("out") {
		cfg.Output.Dir = outDir
	}
	if flags.Changed("format") {
		cfg.Output.Format = outFormat
	}
	if flags.Changed("metric") {
		for _, arg := range metricArg {
			m, err := config.ParseMetric(arg)
			if err != nil {
				return nil, err
			}
			cfg.Metrics = append(cfg.Metrics, m)
		}
	}

	return cfg, cfg.Validate()
}

func runSimulation(cmd *cobra.Command, args []string) error {
	log, err := newLogger()
	if err != nil {
		return err
	}
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	exp := experiment.New(cfg, log)
	if err := exp.Load(); err != nil {
		return err
	}

	rep, err := exp.Run(ctx)
	if err != nil {
		return err
	}

	printReport(rep)

	if cfg.Output.Dir != "" {
		files, err := writeImages(rep, cfg.Output.Dir, cfg.Output.Format)
		if err != nil {
			return err
		}
		for _, f := range files {
			log.Info("wrote image", "path", f)
		}
	}
	return nil
}

func printReport(rep *experiment.Report) {
	res := rep.Result
	sims, dim, points := res.Paths.Shape()
	label := rep.Label(rep.Asset)

	fmt.Println(viz.Title.Render("fxsim run"))
	fmt.Println(viz.Table([]viz.Row{
		{Label: "seed", Value: fmt.Sprintf("%d", res.Seed)},
		{Label: "shape", Value: fmt.Sprintf("%d sims × %d quantities × %d points", sims, dim, points)},
		{Label: "mode", Value: res.Mode.String()},
		{Label: "factorization", Value: res.Factorization.String()},
		{Label: "elapsed", Value: rep.Elapsed.String()},
	}))
	fmt.Println()

	fmt.Println(viz.BoxWithTitle("Summary Statistics for Simulated "+label,
		viz.Table(viz.StatisticsRows(rep.Comparison.Empirical))))
	fmt.Println(viz.BoxWithTitle(fmt.Sprintf("Lognormal reference (mu_annual %.4f, sigma_annual %.4f)", rep.MuAnnual, rep.SigmaAnnual),
		viz.Table(viz.ComparisonRows(rep.Comparison))))
	if len(res.Metrics) > 0 {
		fmt.Println(viz.BoxWithTitle("Metrics", viz.Table(viz.MetricRows(res.Metrics))))
	}

	if noChart {
		return
	}

	if series, err := res.Paths.Series(rep.PathAsset); err == nil {
		fmt.Println()
		fmt.Println(viz.PathChart(series, maxPaths, 80, 12, "simulated paths of "+rep.Label(rep.PathAsset)))
	}
	fmt.Println()
	fmt.Println(viz.DistributionChart(rep.Histogram, &rep.Reference, 80, 10, "terminal density of "+label+" (cyan) vs lognormal pdf (red)"))
}

func writeImages(rep *experiment.Report, dir, format string) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	series, err := rep.Result.Paths.Series(rep.PathAsset)
	if err != nil {
		return nil, err
	}
	label := rep.Label(rep.Asset)
	pathsTitle := "Simulated paths of " + rep.Label(rep.PathAsset)
	distTitle := "Comparison of Simulated and Analytical Distributions of " + label

	var files []string
	switch strings.ToLower(format) {
	case "png":
		paths := filepath.Join(dir, "paths.png")
		if err := export.WritePathsPNG(paths, series, maxPaths, pathsTitle); err != nil {
			return nil, err
		}
		dist := filepath.Join(dir, "distribution.png")
		if err := export.WriteDistributionPNG(dist, rep.Histogram, rep.CurveX, rep.CurveY, distTitle, label); err != nil {
			return nil, err
		}
		files = append(files, paths, dist)
		terminal, err := rep.Result.Paths.Step(rep.Result.Paths.Steps())
		if err != nil {
			return nil, err
		}
		pairs := filepath.Join(dir, "pairs.png")
		if _, err := export.WritePairsPNG(pairs, terminal, rep.Labels, maxPairPoints); err != nil {
			return nil, err
		}
		files = append(files, pairs)
		if rep.Correlation != nil {
			corr := filepath.Join(dir, "correlation.png")
			if err := export.WriteCorrelationPNG(corr, rep.Correlation, rep.Labels, "Correlation Matrix"); err != nil {
				return nil, err
			}
			files = append(files, corr)
		}
	default:
		paths := filepath.Join(dir, "paths.svg")
		if err := os.WriteFile(paths, []byte(export.PathsSVG(series, 800, 400, maxPaths, pathsTitle)), 0644); err != nil {
			return nil, err
		}
		dist := filepath.Join(dir, "distribution.svg")
		if err := os.WriteFile(dist, []byte(export.DistributionSVG(rep.Histogram, rep.CurveX, rep.CurveY, 800, 400, distTitle)), 0644); err != nil {
			return nil, err
		}
		files = append(files, paths, dist)
	}
	return files, nil
}

func inspectInputs(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	tabs, err := loader.Load(cfg.DataFiles.CovarianceMatrix, cfg.DataFiles.InitValues)
	if err != nil {
		return err
	}
	ins, err := experiment.Inspect(tabs.Covariance.Data)
	if err != nil {
		return err
	}

	status := func(err error) string {
		if err == nil {
			return viz.StatusOK.Render("ok")
		}
		return viz.StatusFail.Render(err.Error())
	}

	rows := []viz.Row{
		{Label: "dimension", Value: fmt.Sprintf("%d", ins.Dim)},
		{Label: "initial values", Value: fmt.Sprintf("%v", tabs.Initial)},
		{Label: "symmetric", Value: fmt.Sprintf("%t", ins.Symmetric)},
		{Label: "eigenvalues", Value: fmt.Sprintf("%.6g", ins.Eigenvalues)},
		{Label: "condition", Value: fmt.Sprintf("%.4g", ins.Condition)},
		{Label: "cholesky", Value: status(ins.Cholesky)},
		{Label: "eigen", Value: status(ins.Eigen)},
	}
	if _, err := cfg.DriftVector(ins.Dim); err != nil {
		rows = append(rows, viz.Row{Label: "mu", Value: viz.StatusWarn.Render(err.Error())})
	}

	fmt.Println(viz.BoxWithTitle("Inputs", viz.Table(rows)))
	fmt.Println(viz.BoxWithTitle("Covariance", viz.Matrix(tabs.Covariance.Data, tabs.Labels)))
	if ins.Correlation != nil {
		fmt.Println(viz.BoxWithTitle("Correlation", viz.Matrix(ins.Correlation, tabs.Labels)))
	}
	return nil
}

func benchRuns(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	tabs, err := loader.Load(cfg.DataFiles.CovarianceMatrix, cfg.DataFiles.InitValues)
	if err != nil {
		return err
	}
	if cfg.RandomSeed == nil {
		s := uint64(42)
		cfg.RandomSeed = &s
	}

	type variant struct {
		mode    string
		workers int
	}
	variants := []variant{{"serial", 1}, {"split", 1}}
	if n := runtime.GOMAXPROCS(0); n > 1 {
		variants = append(variants, variant{"split", n})
	}

	p := cfg.Params()
	fmt.Printf("benchmarking %d sims × %d steps × %d quantities\n\n", p.Simulations, p.Steps, len(tabs.Initial))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "MODE\tWORKERS\tTIME\tDRAWS/SEC")

	for _, v := range variants {
		run := *cfg
		run.Parallel.Mode = v.mode
		run.Parallel.Workers = v.workers

		exp := experiment.New(&run, logging.Discard())
		if err := exp.Setup(tabs, nil); err != nil {
			return err
		}

		start := time.Now()
		if _, err := exp.GetSimulator().Run(p); err != nil {
			return err
		}
		elapsed := time.Since(start)

		draws := float64(p.Simulations) * float64(p.Steps)
		fmt.Fprintf(w, "%s\t%d\t%v\t%.0f\n", v.mode, v.workers, elapsed.Round(time.Microsecond), draws/elapsed.Seconds())
	}
	return w.Flush()
}

func sweepRuns(cmd *cobra.Command, args []string) error {
	log, err := newLogger()
	if err != nil {
		return err
	}
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	tabs, err := loader.Load(cfg.DataFiles.CovarianceMatrix, cfg.DataFiles.InitValues)
	if err != nil {
		return err
	}

	sweep, err := automation.NewParameterSweep(sweepParam, sweepFrom, sweepTo, sweepPoints)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	results, err := sweep.Run(ctx, cfg, tabs, log)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tSEED\tMEAN\tVARIANCE\tMEAN DIFF\tVARIANCE DIFF\tTIME\n", strings.ToUpper(sweepParam))
	diffs := make([]float64, len(results))
	for i, r := range results {
		fmt.Fprintf(w, "%g\t%d\t%.4f\t%.4f\t%+.4f\t%+.4f\t%v\n",
			r.Value, r.Seed, r.Mean, r.Variance, r.MeanDiff, r.VarianceDiff, r.Elapsed.Round(time.Microsecond))
		diffs[i] = r.MeanDiff
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if len(diffs) > 1 {
		fmt.Println()
		fmt.Println(viz.Subtle.Render("mean diff ") + viz.SparklineChart(diffs, 40))
	}
	return nil
}
