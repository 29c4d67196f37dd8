package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/guptarohit/asciigraph"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/san-kum/diceroll/internal/config"
	"github.com/san-kum/diceroll/internal/export"
	"github.com/san-kum/diceroll/internal/gui"
	"github.com/san-kum/diceroll/internal/logging"
	"github.com/san-kum/diceroll/internal/optim"
	"github.com/san-kum/diceroll/internal/rigid"
	"github.com/san-kum/diceroll/internal/storage"
	"github.com/san-kum/diceroll/internal/viz"
	"github.com/san-kum/diceroll/internal/world"
)

var (
	dataDir  string
	logLevel string
	dt       float64
	duration float64
	workers  int
	// physics
	gravity       float64
	restitution   float64
	friction      float64
	restThreshold float64
	// dice
	mass     float64
	size     float64
	posFlag  []float64
	velFlag  []float64
	spinFlag []float64
	numDice  int
	// config file and preset
	configFile string
	preset     string
	// output
	outFile  string
	snapshot bool
	// tune
	metricName string
	gridAxes   []string
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "diceroll",
		Short:        "thrown dice rigid-body simulator",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".diceroll", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	throwCmd := &cobra.Command{
		Use:   "throw",
		Short: "throw dice and record the run",
		Args:  cobra.NoArgs,
		RunE:  throwDice,
	}
	addThrowFlags(throwCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot die height over time",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "print run metadata",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run metadata and trajectories to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "export height plot, or the final scene, to SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")
	exportSVGCmd.Flags().BoolVar(&snapshot, "snapshot", false, "render the final frame instead of the height plot")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available throw presets",
		RunE:  listPresets,
	}

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "benchmark stepping across dice counts and worker counts",
		RunE:  benchWorld,
	}

	tuneCmd := &cobra.Command{
		Use:   "tune",
		Short: "grid search physics parameters to minimise a metric",
		Args:  cobra.NoArgs,
		RunE:  tuneParams,
	}
	addThrowFlags(tuneCmd)
	tuneCmd.Flags().StringVar(&metricName, "metric", "settle_time", "metric to minimise")
	tuneCmd.Flags().StringArrayVar(&gridAxes, "grid", nil, "axis as name=v1,v2,... (repeatable)")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "simulate with a live terminal view",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	addThrowFlags(liveCmd)

	guiCmd := &cobra.Command{
		Use:   "gui",
		Short: "simulate in a 3D window",
		Args:  cobra.NoArgs,
		RunE:  runGUI,
	}
	addThrowFlags(guiCmd)

	rootCmd.AddCommand(throwCmd, listCmd, plotCmd, exportCmd, exportJSONCmd, exportSVGCmd, presetsCmd, benchCmd, tuneCmd, liveCmd, guiCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addThrowFlags(cmd *cobra.Command) {
	p := rigid.DefaultParams()
	sim := world.DefaultConfig()

	cmd.Flags().Float64Var(&dt, "dt", sim.Dt, "timestep")
	cmd.Flags().Float64Var(&duration, "time", sim.Duration, "duration")
	cmd.Flags().IntVar(&workers, "workers", sim.Workers, "parallel stepping workers")
	cmd.Flags().Float64Var(&gravity, "gravity", p.Gravity, "gravitational acceleration")
	cmd.Flags().Float64Var(&restitution, "restitution", p.Restitution, "bounce coefficient [0,1]")
	cmd.Flags().Float64Var(&friction, "friction", p.Friction, "contact velocity scale [0,1]")
	cmd.Flags().Float64Var(&restThreshold, "rest-threshold", p.RestThreshold, "speed below which a die comes to rest")
	cmd.Flags().Float64Var(&mass, "mass", config.DefaultMass, "die mass")
	cmd.Flags().Float64Var(&size, "size", config.DefaultSize, "die edge length")
	cmd.Flags().Float64SliceVar(&posFlag, "pos", nil, "start position x,y,z")
	cmd.Flags().Float64SliceVar(&velFlag, "vel", nil, "start velocity x,y,z")
	cmd.Flags().Float64SliceVar(&spinFlag, "spin", nil, "start angular velocity x,y,z")
	cmd.Flags().IntVar(&numDice, "dice", 1, "number of dice (copies of the first)")
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset throw")
}

// loadConfig layers preset, config file, environment and explicitly set flags,
// in that order.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}

	if configFile != "" {
		if err := config.LoadOver(configFile, cfg); err != nil {
			return nil, err
		}
		if preset != "" {
			cfg.Preset = preset
		}
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("dt") {
		cfg.Sim.Dt = dt
	}
	if flags.Changed("time") {
		cfg.Sim.Duration = duration
	}
	if flags.Changed("workers") {
		cfg.Sim.Workers = workers
	}
	if flags.Changed("gravity") {
		cfg.Physics.Gravity = gravity
	}
	if flags.Changed("restitution") {
		cfg.Physics.Restitution = restitution
	}
	if flags.Changed("friction") {
		cfg.Physics.Friction = friction
	}
	if flags.Changed("rest-threshold") {
		cfg.Physics.RestThreshold = restThreshold
	}

	if len(cfg.Dice) > 0 {
		d := &cfg.Dice[0]
		if flags.Changed("pos") {
			d.Position = posFlag
		}
		if flags.Changed("vel") {
			d.Velocity = velFlag
		}
		if flags.Changed("spin") {
			d.Spin = spinFlag
		}
	}
	for i := range cfg.Dice {
		if flags.Changed("mass") {
			cfg.Dice[i].Mass = mass
		}
		if flags.Changed("size") {
			cfg.Dice[i].Size = size
		}
	}
	if flags.Changed("dice") {
		if err := cfg.Replicate(numDice); err != nil {
			return nil, err
		}
	}

	if logLevel != "" {
		cfg.Log.Level = logLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cfg *config.Config, out io.Writer) zerolog.Logger {
	return logging.New(out, cfg.Log.Level, cfg.Log.Pretty)
}

func throwDice(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log := newLogger(cfg, os.Stderr)

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	w, err := cfg.Build(world.WithLogger(logging.Component(log, "world")))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("throwing %d %s...\n", len(cfg.Dice), plural(len(cfg.Dice), "die", "dice"))
	start := time.Now()

	result, err := w.Run(ctx, cfg.Sim)
	if err != nil {
		return eris.Wrap(err, "run")
	}
	elapsed := time.Since(start)

	runID, err := st.Save(cfg, result)
	if err != nil {
		return err
	}
	log.Info().Str("run", runID).Dur("elapsed", elapsed).Int("steps", result.StepsTaken).Msg("run saved")

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("steps: %d\n", result.StepsTaken)

	final := result.Frames[len(result.Frames)-1]
	fmt.Println("\ndice:")
	for _, p := range final.Poses {
		e := p.Euler()
		settled := "airborne"
		if at, ok := result.SettledAt[p.Name]; ok {
			settled = fmt.Sprintf("rest at %.2fs", at)
		}
		fmt.Printf("  %s: pos=(%.2f, %.2f, %.2f) rot=(%.3f, %.3f, %.3f) %s\n",
			p.Name, p.Position.X(), p.Position.Y(), p.Position.Z(), e.X(), e.Y(), e.Z(), settled)
	}

	fmt.Println("\nmetrics:")
	names := make([]string, 0, len(result.Metrics))
	for name := range result.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %s: %.6f\n", name, result.Metrics[name])
	}
	return nil
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPRESET\tTIME\tDICE\tDT\tSTEPS\tSETTLED")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.4fs\t%d\t%d/%d\n",
			run.ID,
			run.Preset,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			len(run.Dice),
			run.Dt,
			run.StepsTaken,
			len(run.SettledAt),
			len(run.Dice),
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	rows, err := st.LoadFrames(runID)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("no data to plot")
	}

	names, _, heights := storage.Series(rows)

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("preset: %s\n", meta.Preset)
	fmt.Printf("samples: %d\n\n", len(heights[names[0]]))

	for _, name := range names {
		graph := asciigraph.Plot(heights[name],
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(fmt.Sprintf("%s height", name)),
		)
		fmt.Println(graph)
		fmt.Println()
	}
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	fmt.Printf("%s  %s  %d dice  dt=%.4f  steps=%d\n", meta.ID, meta.Preset, len(meta.Dice), meta.Dt, meta.StepsTaken)
	fmt.Printf("physics: g=%.3f e=%.3f f=%.3f rest=%.3f\n",
		meta.Physics.Gravity, meta.Physics.Restitution, meta.Physics.Friction, meta.Physics.RestThreshold)
	return printMetrics(os.Stdout, meta.Metrics)
}

func printMetrics(out io.Writer, m map[string]float64) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %s\t%.6f\n", name, m[name])
	}
	return w.Flush()
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	if outFile != "" {
		if err := st.ExportJSON(args[0], outFile); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", outFile)
		return nil
	}
	return st.WriteJSON(args[0], os.Stdout)
}

func exportSVG(cmd *cobra.Command, args []string) error {
	runID := args[0]
	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	rows, err := st.LoadFrames(runID)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("no data to export")
	}

	var svg string
	if snapshot {
		svg = export.CanvasToSVG(finalScene(meta, rows), 4)
	} else {
		names, times, heights := storage.Series(rows)
		series := make([]export.Series, len(names))
		for i, name := range names {
			series[i] = export.Series{Name: name, T: times[name], Y: heights[name]}
		}
		svg = export.HeightsToSVG(series, 800, 400)
	}

	if outFile == "" {
		_, err := fmt.Println(svg)
		return err
	}
	if err := os.WriteFile(outFile, []byte(svg), 0644); err != nil {
		return eris.Wrapf(err, "write %s", outFile)
	}
	fmt.Printf("wrote %s\n", outFile)
	return nil
}

// finalScene draws the last recorded pose of every die.
func finalScene(meta *storage.RunMetadata, rows []storage.FrameRow) *viz.Canvas {
	sizes := make(map[string]float64, len(meta.Dice))
	for _, d := range meta.Dice {
		sizes[d.Name] = d.Size
	}

	last := make(map[string]storage.FrameRow)
	order := make([]string, 0)
	for _, r := range rows {
		if _, ok := last[r.Die]; !ok {
			order = append(order, r.Die)
		}
		last[r.Die] = r
	}

	frame := world.Frame{Time: rows[len(rows)-1].Time}
	for _, name := range order {
		r := last[name]
		q := mgl64.Quat{W: r.Orientation[0], V: mgl64.Vec3{r.Orientation[1], r.Orientation[2], r.Orientation[3]}}
		frame.Poses = append(frame.Poses, world.NamedPose{
			Name: name,
			Pose: rigid.Pose{
				Position:    mgl64.Vec3(r.Position),
				Orientation: q,
				Size:        sizes[name],
				State:       r.State,
			},
		})
	}

	c := viz.NewCanvas(60, 24)
	viz.NewScene().Draw(c, frame)
	return c
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRESET\tDICE\tSTART")
	for _, name := range config.ListPresets() {
		cfg := config.GetPreset(name)
		start := ""
		for i, d := range cfg.Dice {
			if i > 0 {
				start += " "
			}
			start += fmt.Sprintf("%s%v", d.Name, d.Position)
		}
		fmt.Fprintf(w, "%s\t%d\t%s\n", name, len(cfg.Dice), start)
	}
	return w.Flush()
}

func benchWorld(cmd *cobra.Command, args []string) error {
	counts := []int{1, 8, 64}
	workerCounts := []int{1, 4, 8}

	fmt.Println("benchmarking classic throw")
	fmt.Println()
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DICE\tWORKERS\tSTEPS\tTIME\tBODY-STEPS/SEC")

	for _, n := range counts {
		for _, wk := range workerCounts {
			cfg := config.DefaultConfig()
			cfg.Sim.Workers = wk
			cfg.Sim.StopWhenResting = false
			cfg.Sim.Duration = 5
			if err := cfg.Replicate(n); err != nil {
				return err
			}

			w, err := cfg.Build()
			if err != nil {
				return err
			}

			start := time.Now()
			result, err := w.Run(context.Background(), cfg.Sim)
			if err != nil {
				return err
			}
			elapsed := time.Since(start)

			rate := float64(result.StepsTaken*n) / elapsed.Seconds()
			fmt.Fprintf(tw, "%d\t%d\t%d\t%v\t%.0f\n", n, wk, result.StepsTaken, elapsed, rate)
		}
	}

	return tw.Flush()
}

func parseAxis(arg string) (optim.Axis, error) {
	name, list, ok := strings.Cut(arg, "=")
	if !ok || name == "" || list == "" {
		return optim.Axis{}, fmt.Errorf("bad grid axis %q, want name=v1,v2", arg)
	}
	axis := optim.Axis{Name: strings.TrimSpace(name)}
	for _, field := range strings.Split(list, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
		if err != nil {
			return optim.Axis{}, fmt.Errorf("grid axis %s: %w", name, err)
		}
		axis.Values = append(axis.Values, v)
	}
	return axis, nil
}

func tuneParams(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if len(gridAxes) == 0 {
		return fmt.Errorf("at least one --grid axis is required")
	}

	axes := make([]optim.Axis, 0, len(gridAxes))
	for _, arg := range gridAxes {
		axis, err := parseAxis(arg)
		if err != nil {
			return err
		}
		axes = append(axes, axis)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	g := optim.NewGridSearch(axes, cfg.Sim.Workers)
	best, trials, err := g.Search(ctx, cfg, metricName)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "GRAVITY\tRESTITUTION\tFRICTION\tREST\t%s\n", strings.ToUpper(metricName))
	for _, t := range trials {
		value := fmt.Sprintf("%.4f", t.Value)
		if t.Err != nil {
			value = "error: " + t.Err.Error()
		}
		p := t.Params
		fmt.Fprintf(tw, "%.3f\t%.3f\t%.3f\t%.3f\t%s\n", p.Gravity, p.Restitution, p.Friction, p.RestThreshold, value)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Printf("\nbest %s: %.4f\n", metricName, best.Value)
	tuned, orig := best.Params.GetParams(), cfg.Physics.GetParams()
	names := make([]string, 0, len(tuned))
	for name := range tuned {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if tuned[name] != orig[name] {
			fmt.Printf("  --%s %g\n", strings.ReplaceAll(name, "_", "-"), tuned[name])
		}
	}
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	// the terminal belongs to bubbletea, so logs are dropped
	w, err := cfg.Build(world.WithLogger(zerolog.Nop()))
	if err != nil {
		return err
	}

	m := viz.NewModel(w, cfg.Sim.Dt, cfg.Rethrow, cfg.Preset)
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}

func runGUI(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log := newLogger(cfg, os.Stderr)

	w, err := cfg.Build(world.WithLogger(logging.Component(log, "world")))
	if err != nil {
		return err
	}
	return gui.Run(w, cfg.Sim.Dt, cfg.Rethrow, cfg.Preset, logging.Component(log, "gui"))
}
