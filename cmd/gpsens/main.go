package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/gpsens/internal/automation"
	"github.com/san-kum/gpsens/internal/config"
	"github.com/san-kum/gpsens/internal/experiment"
	"github.com/san-kum/gpsens/internal/export"
	"github.com/san-kum/gpsens/internal/gp"
	"github.com/san-kum/gpsens/internal/logging"
	"github.com/san-kum/gpsens/internal/sens"
	"github.com/san-kum/gpsens/internal/storage"
	"github.com/san-kum/gpsens/internal/viz"
)

var (
	dataDir    string
	logLevel   string
	configFile string
	preset     string
	// Analysis settings
	samplesFile string
	ngrid       int
	option      string
	pairsFlag   string
	jointFlag   string
	rangesFlag  string
	workers     int
	noSave      bool
	// Demo experiment
	seed  int64
	runs  int
	draws int
	// Plot and export selection
	inputIdx  int
	outputIdx int
	pairIdx   int
	outPath   string
	outDir    string
	indices   bool
	brief     bool
	// Sweeps and replicates
	sweepParam string
	sweepMin   float64
	sweepMax   float64
	sweepSteps int
	trials     int
	firstSeed  int64
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "gpsens",
		Short:        "variance-based sensitivity analysis of gaussian process emulators",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", config.DefaultStore, "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", config.DefaultLogLevel, "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")

	runCmd := &cobra.Command{
		Use:   "run [bundle]",
		Short: "analyse a fitted emulator bundle",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runAnalysis,
	}
	analysisFlags(runCmd)
	runCmd.Flags().StringVar(&samplesFile, "samples", "", "posterior samples file (yaml) replacing the bundle's draws")

	demoCmd := &cobra.Command{
		Use:   "demo [function]",
		Short: "analyse an emulator built from a synthetic function",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runDemo,
	}
	analysisFlags(demoCmd)
	demoCmd.Flags().Int64Var(&seed, "seed", 42, "random seed")
	demoCmd.Flags().IntVar(&runs, "runs", 30, "design size")
	demoCmd.Flags().IntVar(&draws, "draws", 10, "posterior draws")

	functionsCmd := &cobra.Command{
		Use:   "functions",
		Short: "list synthetic functions for demo",
		RunE:  listFunctions,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "show the indices of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}
	showCmd.Flags().BoolVar(&brief, "brief", false, "print only the stored indices")

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot main effects of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().IntVar(&inputIdx, "input", -1, "active input index (-1 for all)")
	plotCmd.Flags().IntVar(&outputIdx, "output", 0, "output index")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export main effects or indices to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}
	exportCSVCmd.Flags().StringVar(&outPath, "out", "", "output file (default stdout)")
	exportCSVCmd.Flags().BoolVar(&indices, "indices", false, "export indices instead of main effects")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run metadata and result to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVar(&outPath, "out", "", "output file (default stdout)")

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "export main and joint effects to SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().StringVar(&outDir, "out-dir", ".", "output directory")
	exportSVGCmd.Flags().IntVar(&inputIdx, "input", -1, "active input index (-1 for all)")
	exportSVGCmd.Flags().IntVar(&pairIdx, "pair", -1, "pair index (-1 for all)")
	exportSVGCmd.Flags().IntVar(&outputIdx, "output", 0, "output index")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list analysis presets",
		RunE:  listPresets,
	}

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run the analyses of a scenario file",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}
	scenarioCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the runs")

	sweepCmd := &cobra.Command{
		Use:   "sweep [function]",
		Short: "repeat a demo analysis across values of one setting",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSweep,
	}
	analysisFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&sweepParam, "param", "runs", "setting to sweep (ngrid, runs, draws, jitter, lam_ws)")
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 10, "first value")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 50, "last value")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 5, "number of values")

	replicateCmd := &cobra.Command{
		Use:   "replicate [function]",
		Short: "repeat a demo analysis over fresh designs",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runReplicates,
	}
	analysisFlags(replicateCmd)
	replicateCmd.Flags().IntVar(&trials, "trials", 10, "number of designs")
	replicateCmd.Flags().Int64Var(&firstSeed, "seed", 1, "seed of the first design")

	rootCmd.AddCommand(runCmd, demoCmd, functionsCmd, listCmd, showCmd, plotCmd, exportCSVCmd, exportJSONCmd, exportSVGCmd, presetsCmd, scenarioCmd, sweepCmd, replicateCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func analysisFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().IntVar(&ngrid, "ngrid", config.DefaultGrid, "grid points per input")
	cmd.Flags().StringVar(&option, "option", config.DefaultOption, "parameter option (mean, median, samples)")
	cmd.Flags().StringVar(&pairsFlag, "pairs", "", `interaction pairs ("all" or a:b,c:d)`)
	cmd.Flags().StringVar(&jointFlag, "joint", "", "joint input sets (a:b:c,d:e)")
	cmd.Flags().StringVar(&rangesFlag, "ranges", "", "input ranges (lo:hi,lo:hi)")
	cmd.Flags().IntVar(&workers, "workers", 0, "parallel workers (0 for all cpus)")
	cmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")
}

// loadConfig layers the preset, the config file and the command line flags,
// each overriding the last.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
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
	if flags.Changed("data") || cfg.Store == "" {
		cfg.Store = dataDir
	}
	if flags.Changed("log-level") || cfg.LogLevel == "" {
		cfg.LogLevel = logLevel
	}
	if flags.Changed("ngrid") {
		cfg.Grid = ngrid
	}
	if flags.Changed("option") {
		cfg.Option = option
	}
	if flags.Changed("workers") {
		cfg.Workers = workers
	}
	if flags.Changed("samples") {
		cfg.Samples = samplesFile
	}
	if flags.Changed("pairs") {
		p, err := parsePairs(pairsFlag)
		if err != nil {
			return nil, err
		}
		cfg.Pairs = p
	}
	if flags.Changed("joint") {
		sets, err := parseSets(jointFlag)
		if err != nil {
			return nil, err
		}
		cfg.JointSets = sets
	}
	if flags.Changed("ranges") {
		rg, err := parseRanges(rangesFlag)
		if err != nil {
			return nil, err
		}
		cfg.Ranges = rg
	}
	return cfg, nil
}

func runAnalysis(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if len(args) > 0 {
		cfg.Model = args[0]
	}
	if cfg.Model == "" {
		return fmt.Errorf("no model bundle: pass one as argument or set model in the config file")
	}

	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer log.Sync()

	m, err := gp.LoadBundle(cfg.Model)
	if err != nil {
		return err
	}
	log.Debug("loaded bundle", zap.String("path", cfg.Model), zap.Int("inputs", m.Num.NV()), zap.Int("components", m.Num.PU))

	opts, err := cfg.Options(log)
	if err != nil {
		return err
	}
	if cfg.Samples != "" {
		s, err := gp.LoadSamples(cfg.Samples)
		if err != nil {
			return err
		}
		opts = append(opts, sens.WithSamples(s))
	}

	return analyse(cmd.Context(), cfg, log, m, opts, storage.RunMetadata{
		Source: cfg.Model,
		Seed:   cfg.Seed,
		Inputs: m.Num.InputNames(),
	})
}

func runDemo(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	expCfg := cfg.Experiment
	if len(args) > 0 {
		expCfg.Function = args[0]
	}
	if cmd.Flags().Changed("seed") {
		expCfg.Seed = seed
	}
	if cmd.Flags().Changed("runs") {
		expCfg.Runs = runs
	}
	if cmd.Flags().Changed("draws") {
		expCfg.Draws = draws
	}

	registry := experiment.NewRegistry()
	fn, err := registry.Get(expCfg.Function)
	if err != nil {
		return fmt.Errorf("%w (available: %s)", err, strings.Join(registry.List(), ", "))
	}

	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer log.Sync()

	run, err := experiment.New(expCfg, fn).Run(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Printf("%s: %s\n", fn.Name, fn.Doc)
	fmt.Printf("design: %d runs, %d draws, %d basis components\n\n", expCfg.Runs, expCfg.Draws, run.Data.PU())

	opts, err := cfg.Options(log)
	if err != nil {
		return err
	}
	return analyse(cmd.Context(), cfg, log, run.Model, opts, storage.RunMetadata{
		Source: "demo:" + fn.Name,
		Seed:   expCfg.Seed,
		Inputs: fn.InputIDs,
	})
}

func analyse(ctx context.Context, cfg *config.Config, log *zap.Logger, m gp.Model, opts []sens.Option, meta storage.RunMetadata) error {
	start := time.Now()
	res, err := sens.Sensitivity(ctx, m, opts...)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)
	meta.Elapsed = elapsed.Seconds()

	meta.Active = res.Active
	fmt.Println(viz.IndexTable(res, meta.ActiveNames()))
	fmt.Printf("completed in %v\n", elapsed.Round(time.Millisecond))

	if noSave {
		return nil
	}

	st := storage.New(cfg.Store)
	if err := st.Init(); err != nil {
		return err
	}
	runID, err := st.Save(meta, res)
	if err != nil {
		return err
	}
	log.Debug("stored run", zap.String("id", runID), zap.String("dir", cfg.Store))
	fmt.Printf("run id: %s\n", runID)
	return nil
}

func listFunctions(cmd *cobra.Command, args []string) error {
	registry := experiment.NewRegistry()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tINPUTS\tOUTPUTS\tDEFINITION")
	for _, name := range registry.List() {
		fn, err := registry.Get(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%s\n", fn.Name, fn.Inputs, fn.Outputs, fn.Doc)
	}
	return w.Flush()
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	stored, err := st.List()
	if err != nil {
		return err
	}

	if len(stored) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSOURCE\tTIME\tMODE\tDRAWS\tNGRID\tINPUTS\tELAPSED")

	for _, run := range stored {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%s\t%.2fs\n",
			run.ID,
			run.Source,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Mode,
			run.Draws,
			run.Grid,
			strings.Join(run.ActiveNames(), ","),
			run.Elapsed,
		)
	}

	return w.Flush()
}

func loadRun(runID string) (*storage.RunMetadata, *sens.Result, error) {
	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return nil, nil, err
	}
	res, err := st.LoadResult(runID)
	if err != nil {
		return nil, nil, err
	}
	return meta, res, nil
}

func showRun(cmd *cobra.Command, args []string) error {
	if brief {
		return showIndices(os.Stdout, args[0])
	}
	meta, res, err := loadRun(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("source: %s\n", meta.Source)
	fmt.Printf("time: %s\n", meta.Timestamp.Format("2006-01-02 15:04:05"))
	fmt.Printf("grid: %d points\n\n", meta.Grid)
	fmt.Println(viz.IndexTable(res, meta.ActiveNames()))

	for y, mu := range res.TotalMean {
		fmt.Printf("output %d: mean %.6g\n", y, mu)
	}
	if len(res.TotalVar) > 0 {
		fmt.Printf("total variance: %.6g (mean over %d draws)\n", stat.Mean(res.TotalVar, nil), len(res.TotalVar))
	}
	return nil
}

// showIndices prints indices.csv without loading the full result.
func showIndices(out io.Writer, runID string) error {
	rows, err := storage.New(dataDir).LoadIndices(runID)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "KIND\tINPUTS\tVALUE")
	for _, row := range rows {
		fmt.Fprintf(w, "%s\t%s\t%.4f\n", row.Kind, row.Inputs, row.Value)
	}
	return w.Flush()
}

// selected returns the single index sel, or all of 0..n-1 when sel is -1.
func selected(sel, n int, what string) ([]int, error) {
	if sel == -1 {
		out := make([]int, n)
		for i := range out {
			out[i] = i
		}
		return out, nil
	}
	if sel < 0 || sel >= n {
		return nil, fmt.Errorf("%s %d out of range (%d available)", what, sel, n)
	}
	return []int{sel}, nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	meta, res, err := loadRun(args[0])
	if err != nil {
		return err
	}

	ks, err := selected(inputIdx, len(res.Active), "input")
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("source: %s\n\n", meta.Source)

	names := meta.ActiveNames()
	for _, k := range ks {
		graph, err := viz.MainEffectPlot(res, names, k, outputIdx)
		if err != nil {
			return err
		}
		fmt.Println(graph)
		fmt.Println()
	}
	return nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	meta, res, err := loadRun(args[0])
	if err != nil {
		return err
	}

	if outPath != "" && !indices {
		return storage.ExportCSV(outPath, meta, res)
	}

	records := storage.MainEffectRecords(res, meta.ActiveNames())
	if indices {
		records = storage.IndexRecords(res, meta.ActiveNames())
	}

	var out io.Writer = os.Stdout
	if outPath != "" {
		file, err := os.Create(outPath)
		if err != nil {
			return err
		}
		defer file.Close()
		out = file
	}

	w := csv.NewWriter(out)
	return w.WriteAll(records)
}

func exportJSON(cmd *cobra.Command, args []string) error {
	meta, res, err := loadRun(args[0])
	if err != nil {
		return err
	}
	if outPath == "" {
		return storage.ExportJSONStdout(meta, res)
	}
	return storage.ExportJSON(outPath, meta, res)
}

func exportSVG(cmd *cobra.Command, args []string) error {
	meta, res, err := loadRun(args[0])
	if err != nil {
		return err
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return err
	}

	names := meta.ActiveNames()
	ks, err := selected(inputIdx, len(res.Active), "input")
	if err != nil {
		return err
	}
	for _, k := range ks {
		svg, err := export.MainEffectSVG(res, k, outputIdx, 640, 360, "#00ff88")
		if err != nil {
			return err
		}
		path := filepath.Join(outDir, fmt.Sprintf("%s_main_%s_y%d.svg", meta.ID, names[k], outputIdx))
		if err := os.WriteFile(path, []byte(svg), 0644); err != nil {
			return err
		}
		fmt.Println(path)
	}

	if len(res.Pairs) == 0 {
		return nil
	}
	kks, err := selected(pairIdx, len(res.Pairs), "pair")
	if err != nil {
		return err
	}
	for _, kk := range kks {
		svg, err := export.JointEffectSVG(res, kk, outputIdx, 16)
		if err != nil {
			return err
		}
		pr := res.Pairs[kk]
		path := filepath.Join(outDir, fmt.Sprintf("%s_joint_%s_%s_y%d.svg", meta.ID, names[pr[0]], names[pr[1]], outputIdx))
		if err := os.WriteFile(path, []byte(svg), 0644); err != nil {
			return err
		}
		fmt.Println(path)
	}
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tNGRID\tOPTION\tPAIRS")
	for _, name := range config.ListPresets() {
		p := config.Presets[name]
		pairs := "none"
		if p.Pairs.All {
			pairs = "all"
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", name, p.Grid, p.Option, pairs)
	}
	return w.Flush()
}

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}

	log, err := logging.New(logLevel)
	if err != nil {
		return err
	}
	defer log.Sync()

	if sc.Name != "" {
		fmt.Printf("scenario: %s\n", sc.Name)
	}
	if sc.Description != "" {
		fmt.Printf("%s\n", sc.Description)
	}
	fmt.Println()

	results, err := automation.RunScenario(cmd.Context(), sc, experiment.NewRegistry(), log)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if !noSave {
		if err := st.Init(); err != nil {
			return err
		}
	}
	for i, r := range results {
		meta := storage.RunMetadata{Source: r.Target.Source, Seed: r.Target.Seed, Inputs: r.Target.Inputs, Active: r.Result.Active}
		if r.Step.SaveAs != "" {
			meta.Source = r.Step.SaveAs
		}
		fmt.Printf("step %d: %s\n", i+1, meta.Source)
		fmt.Println(viz.IndexTable(r.Result, meta.ActiveNames()))

		if noSave {
			continue
		}
		runID, err := st.Save(meta, r.Result)
		if err != nil {
			return err
		}
		fmt.Printf("run id: %s\n\n", runID)
	}
	return nil
}

func demoConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	cfg.Model = ""
	if len(args) > 0 {
		cfg.Experiment.Function = args[0]
	}
	return cfg, nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := demoConfig(cmd, args)
	if err != nil {
		return err
	}

	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer log.Sync()

	registry := experiment.NewRegistry()
	fn, err := registry.Get(cfg.Experiment.Function)
	if err != nil {
		return fmt.Errorf("%w (available: %s)", err, strings.Join(registry.List(), ", "))
	}

	sweep := &automation.ParameterSweep{
		Base:      *cfg,
		ParamName: sweepParam,
		ParamMin:  sweepMin,
		ParamMax:  sweepMax,
		NumSteps:  sweepSteps,
	}
	results, err := automation.RunSweep(cmd.Context(), sweep, registry, log)
	if err != nil {
		return err
	}

	fmt.Printf("sweep of %s on %s\n\n", sweepParam, fn.Name)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	header := []string{strings.ToUpper(sweepParam)}
	for _, name := range fn.InputIDs {
		header = append(header, "MAIN "+name)
	}
	header = append(header, "VARIANCE")
	fmt.Fprintln(w, strings.Join(header, "\t"))

	for _, r := range results {
		row := []string{fmt.Sprintf("%g", r.ParamValue)}
		for _, v := range r.SmePm {
			row = append(row, fmt.Sprintf("%.4f", v))
		}
		row = append(row, fmt.Sprintf("%.4g", r.MeanVar))
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	return w.Flush()
}

func runReplicates(cmd *cobra.Command, args []string) error {
	cfg, err := demoConfig(cmd, args)
	if err != nil {
		return err
	}

	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer log.Sync()

	registry := experiment.NewRegistry()
	fn, err := registry.Get(cfg.Experiment.Function)
	if err != nil {
		return fmt.Errorf("%w (available: %s)", err, strings.Join(registry.List(), ", "))
	}

	results, err := automation.RunReplicates(cmd.Context(), &automation.ReplicateConfig{
		Base:      *cfg,
		NumTrials: trials,
		Seed:      firstSeed,
	}, registry, log)
	if err != nil {
		return err
	}

	mean, sd := automation.ReplicateStats(results)
	fmt.Printf("%s over %d designs (seeds %d..%d)\n\n", fn.Name, len(results), firstSeed, firstSeed+int64(len(results))-1)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "INPUT\tMAIN MEAN\tMAIN SD")
	for k, name := range fn.InputIDs {
		if k >= len(mean) {
			break
		}
		fmt.Fprintf(w, "%s\t%.4f\t%.4f\n", name, mean[k], sd[k])
	}
	return w.Flush()
}
