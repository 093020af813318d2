package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/san-kum/eigensim/internal/config"
	"github.com/san-kum/eigensim/internal/experiment"
	"github.com/san-kum/eigensim/internal/export"
	"github.com/san-kum/eigensim/internal/logger"
	"github.com/san-kum/eigensim/internal/quantum"
	"github.com/san-kum/eigensim/internal/storage"
	"github.com/san-kum/eigensim/internal/viz"
)

var (
	dataDir string
	verbose bool

	hbar    float64
	mass    float64
	alpha   float64
	lambda  float64
	xMin    float64
	xMax    float64
	step    float64
	levels  int
	eMin    float64
	eMax    float64
	samples int
	workers int
	exact   bool

	configFile string
	preset     string
	save       bool
	plot       bool

	plotWidth  int
	plotHeight int

	sweepParam string
	sweepFrom  float64
	sweepTo    float64
	sweepSteps int

	svgOut string
)

// main registers the commands and runs the root command, exiting with
// status 1 on error.
func main() {
	rootCmd := &cobra.Command{
		Use:          "eigensim",
		Short:        "shooting-method bound state solver",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.SetVerbose(verbose)
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".eigensim", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	def := config.DefaultConfig()

	solveCmd := &cobra.Command{
		Use:   "solve",
		Short: "find bound states of the Poschl-Teller well",
		Args:  cobra.NoArgs,
		RunE:  solve,
	}
	solveCmd.Flags().Float64Var(&hbar, "hbar", def.Params.Hbar, "reduced Planck constant")
	solveCmd.Flags().Float64Var(&mass, "mass", def.Params.Mass, "particle mass")
	solveCmd.Flags().Float64Var(&alpha, "alpha", def.Params.Alpha, "inverse well width")
	solveCmd.Flags().Float64Var(&lambda, "lambda", def.Params.Lambda, "well depth parameter (> 1)")
	solveCmd.Flags().Float64Var(&xMin, "xmin", def.Grid.Min, "grid start")
	solveCmd.Flags().Float64Var(&xMax, "xmax", def.Grid.Max, "grid end")
	solveCmd.Flags().Float64Var(&step, "step", def.Grid.Step, "grid spacing")
	solveCmd.Flags().IntVar(&levels, "levels", def.Levels, "number of levels to find")
	solveCmd.Flags().Float64Var(&eMin, "emin", def.Scan.EMin, "scan lower energy")
	solveCmd.Flags().Float64Var(&eMax, "emax", def.Scan.EMax, "scan upper energy")
	solveCmd.Flags().IntVar(&samples, "samples", def.Scan.Samples, "coarse scan samples")
	solveCmd.Flags().IntVar(&workers, "workers", def.Scan.Workers, "parallel scan workers")
	solveCmd.Flags().BoolVar(&exact, "exact", false, "fail unless all levels are found")
	solveCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml or toml)")
	solveCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	solveCmd.Flags().BoolVar(&save, "save", false, "save the run to the data directory")
	solveCmd.Flags().BoolVar(&plot, "plot", false, "plot the potential and each level")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list saved runs",
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "show the report of a saved run",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot the potential and wavefunctions of a saved run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().IntVar(&plotWidth, "width", viz.DefaultWidth, "plot width")
	plotCmd.Flags().IntVar(&plotHeight, "height", viz.DefaultHeight, "plot height")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return storage.New(dataDir).Export(cmd.OutOrStdout(), args[0])
		},
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tLAMBDA\tSTEP\tLEVELS\tSAMPLES\tWORKERS")
			for _, name := range config.ListPresets() {
				c := config.GetPreset(name)
				fmt.Fprintf(w, "%s\t%g\t%g\t%d\t%d\t%d\n",
					name, c.Params.Lambda, c.Grid.Step, c.Levels, c.Scan.Samples, c.Scan.Workers)
			}
			return w.Flush()
		},
	}

	initCmd := &cobra.Command{
		Use:   "init-config [path]",
		Short: "write a config file with the defaults (or a preset)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.DefaultConfig()
			if preset != "" {
				if cfg = config.GetPreset(preset); cfg == nil {
					return fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
				}
			}
			if err := config.Save(args[0], cfg); err != nil {
				return fmt.Errorf("failed to write config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", args[0])
			return nil
		},
	}
	initCmd.Flags().StringVar(&preset, "preset", "", "start from a preset")

	browseCmd := &cobra.Command{
		Use:   "browse [run_id]",
		Short: "page through the levels of a saved run",
		Args:  cobra.ExactArgs(1),
		RunE:  browseRun,
	}

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "time the solver across grid steps and worker counts",
		RunE:  bench,
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "solve across a range of one parameter",
		Args:  cobra.NoArgs,
		RunE:  sweep,
	}
	sweepCmd.Flags().StringVar(&sweepParam, "param", "lambda", "parameter to sweep (hbar, mass, alpha, lambda)")
	sweepCmd.Flags().Float64Var(&sweepFrom, "from", 2, "first value")
	sweepCmd.Flags().Float64Var(&sweepTo, "to", 6, "last value")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 9, "number of values")
	sweepCmd.Flags().IntVar(&workers, "workers", 4, "concurrent solves")
	sweepCmd.Flags().StringVar(&configFile, "config", "", "base config file path (yaml or toml)")
	sweepCmd.Flags().StringVar(&preset, "preset", "", "base preset")

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "export the potential and wavefunctions of a saved run as SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().StringVarP(&svgOut, "output", "o", "", "output file (default <run_id>.svg)")

	rootCmd.AddCommand(solveCmd, listCmd, showCmd, plotCmd, exportJSONCmd, exportSVGCmd, presetsCmd, initCmd, browseCmd, benchCmd, sweepCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// resolveConfig layers defaults, preset, config file and explicitly set
// flags, in that order.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		if cfg = config.GetPreset(preset); cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	floatFlags := map[string]*float64{
		"hbar":   &cfg.Params.Hbar,
		"mass":   &cfg.Params.Mass,
		"alpha":  &cfg.Params.Alpha,
		"lambda": &cfg.Params.Lambda,
		"xmin":   &cfg.Grid.Min,
		"xmax":   &cfg.Grid.Max,
		"step":   &cfg.Grid.Step,
		"emin":   &cfg.Scan.EMin,
		"emax":   &cfg.Scan.EMax,
	}
	floatValues := map[string]float64{
		"hbar": hbar, "mass": mass, "alpha": alpha, "lambda": lambda,
		"xmin": xMin, "xmax": xMax, "step": step, "emin": eMin, "emax": eMax,
	}
	for name, dst := range floatFlags {
		if flags.Changed(name) {
			*dst = floatValues[name]
		}
	}
	if flags.Changed("levels") {
		cfg.Levels = levels
	}
	if flags.Changed("samples") {
		cfg.Scan.Samples = samples
	}
	if flags.Changed("workers") {
		cfg.Scan.Workers = workers
	}
	if flags.Changed("exact") {
		cfg.Scan.RequireExact = exact
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func solve(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	expCfg := cfg.ToExperiment()
	exp := experiment.New(expCfg)
	if err := exp.Setup(); err != nil {
		return fmt.Errorf("setup failed: %w", err)
	}

	result, runErr := exp.Run(ctx)
	if runErr != nil && !errors.Is(runErr, quantum.ErrIncompleteScan) {
		return fmt.Errorf("solve failed: %w", runErr)
	}

	runID := ""
	if save {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		if runID, err = st.Save(result, expCfg); err != nil {
			return fmt.Errorf("failed to save run: %w", err)
		}
	}

	meta := storage.Metadata(runID, result, expCfg)
	out := cmd.OutOrStdout()
	fmt.Fprint(out, viz.RenderReport(&meta))

	if plot {
		if err := printPlots(result.Grid.Points, result.Potential, wavefunctions(result), &meta, viz.DefaultWidth, viz.DefaultHeight); err != nil {
			return err
		}
	}
	if runID != "" {
		fmt.Fprintf(out, "\nrun id: %s\n", runID)
	}

	// An incomplete scan still prints what was found before failing.
	if runErr != nil {
		return runErr
	}
	return nil
}

func wavefunctions(r *experiment.Result) [][]float64 {
	out := make([][]float64, len(r.Levels))
	for i, l := range r.Levels {
		out[i] = l.Wavefunction
	}
	return out
}

func printPlots(xs, vs []float64, psis [][]float64, meta *storage.RunMetadata, width, height int) error {
	graph, err := viz.PlotPotential(xs, vs, width, height)
	if err != nil {
		return err
	}
	fmt.Println()
	fmt.Println(graph)

	for i, psi := range psis {
		if i >= len(meta.Levels) {
			break
		}
		l := meta.Levels[i]
		graph, err := viz.PlotLevel(xs, vs, psi, l.Energy, l.Index, width, height)
		if err != nil {
			return err
		}
		fmt.Println()
		fmt.Println(graph)
	}
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	runs, err := storage.New(dataDir).List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tLAMBDA\tSTEP\tLEVELS\tCOMPLETE\tE0")

	for _, run := range runs {
		e0 := "-"
		if len(run.Levels) > 0 {
			e0 = fmt.Sprintf("%.6f", run.Levels[0].Energy)
		}
		fmt.Fprintf(w, "%s\t%s\t%g\t%g\t%d/%d\t%v\t%s\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Params.Lambda,
			run.Grid.Step,
			len(run.Levels),
			run.Requested,
			run.Complete,
			e0,
		)
	}

	return w.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	meta, err := storage.New(dataDir).Load(args[0])
	if err != nil {
		return fmt.Errorf("failed to load run: %w", err)
	}
	fmt.Print(viz.RenderReport(meta))
	return nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return fmt.Errorf("failed to load run: %w", err)
	}
	xs, vs, psis, err := st.LoadWavefunctions(args[0])
	if err != nil {
		return fmt.Errorf("failed to load wavefunctions: %w", err)
	}

	fmt.Printf("run: %s\n", meta.ID)
	return printPlots(xs, vs, psis, meta, plotWidth, plotHeight)
}

func browseRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return fmt.Errorf("failed to load run: %w", err)
	}
	xs, vs, psis, err := st.LoadWavefunctions(args[0])
	if err != nil {
		return fmt.Errorf("failed to load wavefunctions: %w", err)
	}

	p := tea.NewProgram(viz.NewBrowser(meta, xs, vs, psis), tea.WithAltScreen())
	_, err = p.Run()
	return err
}

func bench(cmd *cobra.Command, args []string) error {
	steps := []float64{0.1, 0.05, 0.02, 0.01}
	workerCounts := []int{1, 4}

	fmt.Println("benchmarking poschl_teller, 3 levels")
	fmt.Println()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tPOINTS\tWORKERS\tEVALS\tTIME\tEVALS/SEC\tMAX REL ERR")

	for _, h := range steps {
		for _, n := range workerCounts {
			cfg := experiment.DefaultConfig()
			cfg.Grid.Step = h
			cfg.Scan.Workers = n

			exp := experiment.New(cfg)
			if err := exp.Setup(); err != nil {
				return err
			}

			start := time.Now()
			result, err := exp.Run(context.Background())
			if err != nil {
				return err
			}
			elapsed := time.Since(start)

			worst := 0.0
			for _, l := range result.Levels {
				worst = max(worst, l.RelError)
			}
			evals := result.Scan.Evaluations
			fmt.Fprintf(w, "%g\t%d\t%d\t%d\t%v\t%.0f\t%.2e\n",
				h, result.Grid.Len(), n, evals, elapsed.Round(time.Microsecond),
				float64(evals)/elapsed.Seconds(), worst)
		}
	}

	return w.Flush()
}

func sweep(cmd *cobra.Command, args []string) error {
	cfg := config.DefaultConfig()
	if preset != "" {
		if cfg = config.GetPreset(preset); cfg == nil {
			return fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	points, err := experiment.Sweep(ctx, cfg.ToExperiment(), sweepParam, sweepFrom, sweepTo, sweepSteps, workers)
	if err != nil {
		return fmt.Errorf("sweep failed: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tLEVELS\tCOMPLETE\tENERGIES\n", sweepParam)
	params := make([]float64, len(points))
	spectra := make([][]float64, len(points))
	for i, pt := range points {
		params[i], spectra[i] = pt.Param, pt.Eigenvalues
		energies := make([]string, len(pt.Eigenvalues))
		for n, e := range pt.Eigenvalues {
			energies[n] = fmt.Sprintf("%.6f", e)
		}
		fmt.Fprintf(w, "%g\t%d\t%v\t%s\n", pt.Param, len(pt.Eigenvalues), pt.Complete, strings.Join(energies, " "))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if graph, err := viz.PlotSweep(params, spectra, sweepParam, viz.DefaultWidth, viz.DefaultHeight); err == nil {
		fmt.Println()
		fmt.Println(graph)
	} else {
		logger.Warn("no plot: %v", err)
	}
	fmt.Printf("\n%d solves in %v\n", len(points), time.Since(start).Round(time.Millisecond))
	return nil
}

func exportSVG(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return fmt.Errorf("failed to load run: %w", err)
	}
	xs, vs, psis, err := st.LoadWavefunctions(args[0])
	if err != nil {
		return fmt.Errorf("failed to load wavefunctions: %w", err)
	}

	path := svgOut
	if path == "" {
		path = meta.ID + ".svg"
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	fig := export.Figure{X: xs, Potential: vs, Wavefunctions: psis, Energies: meta.Eigenvalues()}
	if err := export.LevelsSVG(f, fig, 800, 600); err != nil {
		return fmt.Errorf("failed to render svg: %w", err)
	}
	fmt.Printf("wrote %s\n", path)
	return nil
}
