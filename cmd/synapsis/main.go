// Package main is the CLI entry point for synapsis.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/eliteGoblin/synapsis/internal/domain"
	"github.com/eliteGoblin/synapsis/internal/infra"
	"github.com/eliteGoblin/synapsis/internal/level"
	"github.com/eliteGoblin/synapsis/internal/profile"
	"github.com/eliteGoblin/synapsis/internal/runner"
	"github.com/eliteGoblin/synapsis/internal/usecase"
	"github.com/eliteGoblin/synapsis/internal/view"
)

var (
	// Version info (set via ldflags)
	Version   = "0.1.0"
	Commit    = "dev"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "synapsis",
	Short: "Network puzzle - link the start node to the finish",
	Long: `synapsis is a network puzzle. Spend energy linking nodes until the
start reaches the finish, while viruses attack your links and silence
waves wipe out the weak ones.

Play in the terminal with "watch", or let the autopilot solve levels
headlessly with "run" and "sweep".`,
	Version: Version,
}

var levelsCmd = &cobra.Command{
	Use:   "levels",
	Short: "List built-in levels",
	RunE:  runLevels,
}

var validateCmd = &cobra.Command{
	Use:   "validate FILE...",
	Short: "Check level files",
	Long:  `Parses and validates level tables in YAML and reports the first problem in each file.`,
	Args:  cobra.MinimumNArgs(1),
	RunE:  runValidate,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Play one level headlessly",
	Long: `Plays a level at simulation speed with a fixed frame step and prints the
result. The same level, seed and pilot setting always produce the same result.`,
	RunE: runRun,
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Play a level in the terminal",
	Long: `Opens the level in the terminal in real time. Click two nodes to link
them. Press r to restart the level and n after a win to move on; unlocks
carry over between levels. Logs go to a file so they do not disturb the board.`,
	RunE: runWatch,
}

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Autopilot every level across many seeds",
	Long: `Runs the autopilot on each selected level once per seed, in parallel,
and prints win rates, stars, event counters and process resource use.`,
	RunE: runSweep,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Prints version, commit, and build time. Use --json for machine-readable output.`,
	Run:   runVersion,
}

var (
	levelNumber int
	levelFile   string
	seed        uint64
	reportPath  string
	verbose     bool
	runPilot    bool
	watchPilot  bool
	logPath     string
	jsonOutput  bool
)

func init() {
	for _, c := range []*cobra.Command{runCmd, watchCmd} {
		c.Flags().IntVarP(&levelNumber, "level", "l", 1, "Built-in level number")
		c.Flags().StringVarP(&levelFile, "file", "f", "", "Load the level from a YAML file instead")
		c.Flags().Uint64Var(&seed, "seed", 0, "Random seed (0 picks one from the clock)")
	}
	runCmd.Flags().StringVar(&reportPath, "report", "", "Write a JSON match report to this path")
	runCmd.Flags().BoolVar(&runPilot, "pilot", true, "Let the autopilot play")
	runCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log match events")
	watchCmd.Flags().BoolVar(&watchPilot, "pilot", false, "Let the autopilot play")
	watchCmd.Flags().StringVar(&logPath, "log", filepath.Join(os.TempDir(), "synapsis.log"), "Log file")
	levelsCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output levels as JSON lines")
	versionCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output version info as JSON")
	initSweepFlags()

	rootCmd.AddCommand(levelsCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(sweepCmd)
	rootCmd.AddCommand(versionCmd)
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00FFFF"))
	wonStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00FF00"))
	lostStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF0000"))
)

func runLevels(cmd *cobra.Command, args []string) error {
	store, err := level.NewStore(nil)
	if err != nil {
		return fmt.Errorf("failed to load levels: %w", err)
	}

	if jsonOutput {
		for _, l := range store.GetAll() {
			fmt.Printf(`{"number":%d,"name":%q,"energy":%d,"time_limit_s":%d,"waves":%t,"nodes":%d}`+"\n",
				l.Number, l.Name, l.StartEnergy, int(l.TimeLimit.Seconds()), l.Waves, len(l.Nodes))
		}
		return nil
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		Headers("#", "Name", "Energy", "Time", "Nodes", "Hazards", "Description")

	for _, l := range store.GetAll() {
		t.Row(
			strconv.Itoa(l.Number),
			l.Name,
			strconv.Itoa(l.StartEnergy),
			formatLimit(l.TimeLimit),
			strconv.Itoa(len(l.Nodes)),
			hazards(l),
			l.Description,
		)
	}
	fmt.Println(t.Render())
	return nil
}

func hazards(l domain.Level) string {
	var out string
	add := func(s string) {
		if out != "" {
			out += ", "
		}
		out += s
	}
	for _, n := range l.Nodes {
		if n.Kind == domain.NodeVirus {
			add("virus")
			break
		}
	}
	if l.Waves {
		add("waves")
	}
	if l.TemporaryConnections {
		add("temporary")
	}
	if out == "" {
		return "-"
	}
	return out
}

func formatLimit(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	return d.String()
}

func runValidate(cmd *cobra.Command, args []string) error {
	fs := infra.NewFileSystem()
	failed := 0
	for _, path := range args {
		data, err := fs.ReadLevelFile(path)
		if err == nil {
			_, err = level.Parse(data)
		}
		if err != nil {
			failed++
			fmt.Printf("%s %s: %v\n", lostStyle.Render("FAIL"), path, err)
			continue
		}
		fmt.Printf("%s %s\n", wonStyle.Render("ok"), path)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d level files invalid", failed, len(args))
	}
	return nil
}

// loadLevel resolves --file or --level. Unknown level numbers fall back to
// level 1 with a warning.
func loadLevel(logger *zap.Logger) (domain.Level, error) {
	if levelFile != "" {
		data, err := infra.NewFileSystem().ReadLevelFile(levelFile)
		if err != nil {
			return domain.Level{}, err
		}
		def, err := level.Parse(data)
		if err != nil {
			return domain.Level{}, err
		}
		return def.ToLevel(), nil
	}

	store, err := level.NewStore(logger)
	if err != nil {
		return domain.Level{}, fmt.Errorf("failed to load levels: %w", err)
	}
	return store.Load(levelNumber), nil
}

func pickSeed() uint64 {
	if seed != 0 {
		return seed
	}
	return uint64(time.Now().UnixNano())
}

func runRun(cmd *cobra.Command, args []string) error {
	logger := infra.NewConsoleLogger(verbose)
	defer func() { _ = logger.Sync() }()

	l, err := loadLevel(logger)
	if err != nil {
		return err
	}
	s := pickSeed()

	m := usecase.NewMatch(l, profile.New(), infra.NewRandom(s), nil, logger)
	var pilot runner.Pilot
	if runPilot {
		pilot = usecase.NewAutopilot(logger)
	}

	started := time.Now()
	result := runner.RunHeadless(m, pilot, runner.DefaultRunnerConfig())

	printResult(result, s)
	fmt.Printf("Wall time: %s\n", time.Since(started).Round(time.Microsecond))

	if reportPath != "" {
		writer := infra.NewReportWriter(infra.NewFileSystem())
		if err := writer.Write(reportPath, infra.NewMatchReport(result, s)); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		fmt.Printf("Report written to %s\n", reportPath)
	}
	return nil
}

func printResult(r domain.MatchResult, s uint64) {
	fmt.Println("\n=== synapsis Result ===")
	fmt.Printf("Level: %d\n", r.Level)
	fmt.Printf("Seed: %d\n", s)
	switch r.State {
	case domain.StateWon:
		fmt.Printf("State: %s\n", wonStyle.Render("WON"))
		fmt.Printf("Stars: %d/%d\n", r.Stars, usecase.MaxStars)
	case domain.StateLost:
		fmt.Printf("State: %s (%s)\n", lostStyle.Render("LOST"), r.Reason)
	default:
		fmt.Printf("State: %s\n", r.State)
	}
	fmt.Printf("Elapsed: %s\n", r.Elapsed.Round(time.Millisecond))
	if r.TimeLeft > 0 {
		fmt.Printf("Time left: %s\n", r.TimeLeft.Round(time.Millisecond))
	}
	fmt.Printf("Energy left: %d\n", r.Energy)
	fmt.Printf("Connections: %d\n", r.Connections)
	fmt.Printf("Viruses: %d\n", r.Viruses)
	fmt.Printf("Silence waves: %d\n", r.Waves)
	fmt.Println("=======================")
}

func runWatch(cmd *cobra.Command, args []string) error {
	logger := infra.NewLogger(logPath)
	defer func() { _ = logger.Sync() }()

	l, err := loadLevel(logger)
	if err != nil {
		return err
	}
	store, err := level.NewStore(logger)
	if err != nil {
		return fmt.Errorf("failed to load levels: %w", err)
	}
	s := pickSeed()

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("failed to open terminal: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("failed to init terminal: %w", err)
	}
	screen.EnableMouse()

	session := usecase.NewSession(store, l, profile.New(), infra.NewRandom(s), nil, logger)
	autopilot := usecase.NewAutopilot(logger)
	var pilot runner.Pilot
	if watchPilot {
		pilot = autopilot
	}

	renderer := view.NewRenderer(screen)
	renderer.Message(view.Help)
	input := view.NewInput(renderer, autopilot)

	// Set up graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigChan:
			logger.Info("received shutdown signal")
			cancel()
		case <-ctx.Done():
		}
	}()

	var current atomic.Pointer[runner.Runner]
	requests := make(chan view.Request, 1)
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			c, req := input.Handle(ev)
			switch req {
			case view.RequestQuit:
				cancel()
				return
			case view.RequestNone:
				r := current.Load()
				if c != nil && r != nil && !r.Submit(c) {
					logger.Warn("input dropped, command queue full")
				}
			default:
				select {
				case requests <- req:
				default:
				}
			}
		}
	}()

	logger.Info("watch started",
		zap.Int("level", l.Number),
		zap.Uint64("seed", s),
		zap.Bool("pilot", watchPilot))

	result, err := watchSession(ctx, session, requests, func(m *usecase.Match) *runner.Runner {
		r := runner.NewRunner(runner.DefaultRunnerConfig(), m, pilot, renderer, logger)
		current.Store(r)
		return r
	}, renderer, logger)
	screen.Fini()

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	if result.State == domain.StatePlaying {
		fmt.Println("Match abandoned.")
		return nil
	}
	printResult(result, s)
	return nil
}

// watchSession runs the session's matches one after another. A restart or
// next-level request stops the running match and swaps in the new one; a
// finished match stays on screen until a request arrives or ctx ends. It
// returns the result of the last match played.
func watchSession(
	ctx context.Context,
	session *usecase.Session,
	requests <-chan view.Request,
	newRunner func(m *usecase.Match) *runner.Runner,
	renderer *view.Renderer,
	logger *zap.Logger,
) (domain.MatchResult, error) {
	for {
		matchCtx, stop := context.WithCancel(ctx)
		r := newRunner(session.Current())

		type outcome struct {
			result domain.MatchResult
			err    error
		}
		done := make(chan outcome, 1)
		go func() {
			result, err := r.Run(matchCtx)
			done <- outcome{result, err}
		}()

		var req view.Request
		var last outcome
		select {
		case req = <-requests:
			stop()
			last = <-done
		case last = <-done:
			select {
			case req = <-requests:
			case <-ctx.Done():
			}
		}
		stop()

		if ctx.Err() != nil {
			return last.result, ctx.Err()
		}
		if last.err != nil && !errors.Is(last.err, context.Canceled) {
			return last.result, last.err
		}

		switch req {
		case view.RequestRestart:
			session.Restart()
			renderer.Message(fmt.Sprintf("level %d restarted", session.Current().Level().Number))
		case view.RequestNext:
			m, err := session.Next()
			if err != nil {
				logger.Debug("next level refused", zap.Error(err))
				renderer.Message(err.Error())
				continue
			}
			renderer.Message(fmt.Sprintf("level %d: %s", m.Level().Number, m.Level().Name))
		}
	}
}

func runVersion(cmd *cobra.Command, args []string) {
	if jsonOutput {
		fmt.Printf(`{"version":"%s","commit":"%s","build_time":"%s"}`+"\n",
			Version, Commit, BuildTime)
	} else {
		fmt.Printf("synapsis %s (commit: %s, built: %s)\n",
			Version, Commit, BuildTime)
	}
}
