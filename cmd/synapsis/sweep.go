package main

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/eliteGoblin/synapsis/internal/domain"
	"github.com/eliteGoblin/synapsis/internal/infra"
	"github.com/eliteGoblin/synapsis/internal/level"
	"github.com/eliteGoblin/synapsis/internal/profile"
	"github.com/eliteGoblin/synapsis/internal/runner"
	"github.com/eliteGoblin/synapsis/internal/usecase"
)

var (
	sweepLevels   []int
	sweepSeeds    int
	sweepFirst    uint64
	sweepParallel int
	sweepReport   string
	sweepDB       string
)

func initSweepFlags() {
	sweepCmd.Flags().IntSliceVar(&sweepLevels, "levels", nil, "Level numbers to run (default all)")
	sweepCmd.Flags().IntVar(&sweepSeeds, "seeds", 20, "Runs per level")
	sweepCmd.Flags().Uint64Var(&sweepFirst, "first-seed", 1, "Seed of the first run; later runs count up")
	sweepCmd.Flags().IntVar(&sweepParallel, "parallel", runtime.NumCPU(), "Matches to run at once")
	sweepCmd.Flags().StringVar(&sweepReport, "report", "", "Write every match report to this path as a JSON array")
	sweepCmd.Flags().StringVar(&sweepDB, "db", "", "Append every match to this SQLite database under a new batch ID")
}

// sweepJob is one level played with one seed.
type sweepJob struct {
	level domain.Level
	seed  uint64
}

type sweepResult struct {
	job    sweepJob
	result domain.MatchResult
}

func runSweep(cmd *cobra.Command, args []string) error {
	logger := infra.NewConsoleLogger(false)
	defer func() { _ = logger.Sync() }()

	if sweepSeeds < 1 {
		return fmt.Errorf("--seeds must be at least 1")
	}

	store, err := level.NewStore(logger)
	if err != nil {
		return fmt.Errorf("failed to load levels: %w", err)
	}
	levels := store.GetAll()
	if len(sweepLevels) > 0 {
		levels = levels[:0:0]
		for _, n := range sweepLevels {
			l, err := store.GetByNumber(n)
			if err != nil {
				return err
			}
			levels = append(levels, *l)
		}
	}

	var jobs []sweepJob
	for _, l := range levels {
		for i := 0; i < sweepSeeds; i++ {
			jobs = append(jobs, sweepJob{level: l, seed: sweepFirst + uint64(i)})
		}
	}

	metrics := infra.NewMetricsRecorder()
	results, err := sweep(cmd.Context(), jobs, sweepParallel, metrics, logger)
	if err != nil {
		return err
	}

	printSweep(results)
	printMetrics(metrics)
	printProcess()

	reports := make([]infra.MatchReport, 0, len(results))
	for _, r := range results {
		reports = append(reports, infra.NewMatchReport(r.result, r.job.seed))
	}

	if sweepReport != "" {
		writer := infra.NewReportWriter(infra.NewFileSystem())
		if err := writer.Write(sweepReport, reports...); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		fmt.Printf("\n%d reports written to %s\n", len(reports), sweepReport)
	}

	if sweepDB != "" {
		batch, err := exportBatch(infra.NewFileSystem().ExpandHome(sweepDB), reports)
		if err != nil {
			return err
		}
		fmt.Printf("\n%d matches stored in %s as batch %s\n", len(reports), sweepDB, batch)
	}
	return nil
}

// exportBatch appends reports to the results database under a fresh batch
// ID and returns the ID.
func exportBatch(path string, reports []infra.MatchReport) (string, error) {
	db, err := infra.OpenResultsDB(path)
	if err != nil {
		return "", err
	}
	defer db.Close()

	batch := uuid.NewString()
	if err := db.Insert(batch, reports...); err != nil {
		return "", fmt.Errorf("failed to export batch: %w", err)
	}
	return batch, nil
}

// sweep plays every job headlessly with at most parallel matches in
// flight. Results come back in job order.
func sweep(
	ctx context.Context,
	jobs []sweepJob,
	parallel int,
	recorder domain.Recorder,
	logger *zap.Logger,
) ([]sweepResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if parallel < 1 {
		parallel = 1
	}

	results := make([]sweepResult, len(jobs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)

	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			m := usecase.NewMatch(job.level, profile.New(), infra.NewRandom(job.seed), recorder, zap.NewNop())
			result := runner.RunHeadless(m, usecase.NewAutopilot(nil), runner.DefaultRunnerConfig())
			results[i] = sweepResult{job: job, result: result}
			logger.Debug("sweep match done",
				zap.Int("level", job.level.Number),
				zap.Uint64("seed", job.seed),
				zap.String("state", string(result.State)))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("sweep interrupted: %w", err)
	}
	return results, nil
}

// levelSummary aggregates one level's runs.
type levelSummary struct {
	number  int
	name    string
	runs    int
	wins    int
	stars   int
	elapsed time.Duration
	reasons map[domain.LoseReason]int
}

func summarize(results []sweepResult) []*levelSummary {
	byLevel := make(map[int]*levelSummary)
	for _, r := range results {
		s, ok := byLevel[r.job.level.Number]
		if !ok {
			s = &levelSummary{
				number:  r.job.level.Number,
				name:    r.job.level.Name,
				reasons: make(map[domain.LoseReason]int),
			}
			byLevel[s.number] = s
		}
		s.runs++
		s.elapsed += r.result.Elapsed
		switch r.result.State {
		case domain.StateWon:
			s.wins++
			s.stars += r.result.Stars
		case domain.StateLost:
			s.reasons[r.result.Reason]++
		default:
			s.reasons["unfinished"]++
		}
	}

	out := make([]*levelSummary, 0, len(byLevel))
	for _, s := range byLevel {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].number < out[j].number })
	return out
}

func printSweep(results []sweepResult) {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		Headers("#", "Name", "Runs", "Won", "Avg stars", "Avg time", "Losses")

	for _, s := range summarize(results) {
		avgStars := "-"
		if s.wins > 0 {
			avgStars = strconv.FormatFloat(float64(s.stars)/float64(s.wins), 'f', 2, 64)
		}
		t.Row(
			strconv.Itoa(s.number),
			s.name,
			strconv.Itoa(s.runs),
			fmt.Sprintf("%d (%.0f%%)", s.wins, 100*float64(s.wins)/float64(s.runs)),
			avgStars,
			(s.elapsed / time.Duration(s.runs)).Round(time.Millisecond).String(),
			formatReasons(s.reasons),
		)
	}
	fmt.Println(t.Render())
}

func formatReasons(reasons map[domain.LoseReason]int) string {
	if len(reasons) == 0 {
		return "-"
	}
	keys := make([]string, 0, len(reasons))
	for r := range reasons {
		keys = append(keys, string(r))
	}
	sort.Strings(keys)
	var out string
	for i, k := range keys {
		if i > 0 {
			out += ", "
		}
		out += fmt.Sprintf("%s=%d", k, reasons[domain.LoseReason(k)])
	}
	return out
}

func printMetrics(m *infra.MetricsRecorder) {
	families, err := m.Registry().Gather()
	if err != nil {
		fmt.Printf("Warning: could not gather metrics: %v\n", err)
		return
	}

	fmt.Println("\n=== Event counters ===")
	for _, f := range families {
		var total float64
		for _, metric := range f.GetMetric() {
			switch {
			case metric.GetCounter() != nil:
				total += metric.GetCounter().GetValue()
			case metric.GetHistogram() != nil:
				total += float64(metric.GetHistogram().GetSampleCount())
			}
		}
		fmt.Printf("%-44s %.0f\n", f.GetName(), total)
	}
}

func printProcess() {
	stats, err := infra.NewProcessStats()
	if err != nil {
		fmt.Printf("Warning: could not read process stats: %v\n", err)
		return
	}
	sample := stats.Sample()
	fmt.Println("\n=== Process ===")
	fmt.Printf("PID: %d\n", sample.PID)
	fmt.Printf("RSS: %.1f MiB\n", float64(sample.RSSBytes)/(1<<20))
	fmt.Printf("CPU: %.1f%%\n", sample.CPUPercent)
	fmt.Printf("Threads: %d\n", sample.Threads)
	fmt.Printf("Goroutines: %d\n", sample.Goroutines)
}
