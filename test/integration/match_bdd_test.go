//go:build integration

package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"go.uber.org/zap"

	"github.com/eliteGoblin/synapsis/internal/domain"
	"github.com/eliteGoblin/synapsis/internal/infra"
	"github.com/eliteGoblin/synapsis/internal/level"
	"github.com/eliteGoblin/synapsis/internal/runner"
	"github.com/eliteGoblin/synapsis/internal/usecase"
	"github.com/eliteGoblin/synapsis/test/fixtures"
)

const frame = 16 * time.Millisecond

// advanceUntil steps m one frame at a time until cond holds or limit of
// simulated time passes.
func advanceUntil(m *usecase.Match, limit time.Duration, cond func() bool) bool {
	for elapsed := time.Duration(0); elapsed < limit; elapsed += frame {
		if cond() {
			return true
		}
		m.Advance(frame)
	}
	return cond()
}

func counterValue(c prometheus.Counter) float64 {
	var metric dto.Metric
	Expect(c.Write(&metric)).To(Succeed())
	return metric.GetCounter().GetValue()
}

var _ = Describe("Match", func() {
	var (
		tmpDir   string
		metrics  *infra.MetricsRecorder
		newMatch func(l domain.Level, seed uint64) *usecase.Match
	)

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "synapsis-integration-*")
		Expect(err).NotTo(HaveOccurred())

		metrics = infra.NewMetricsRecorder()
		newMatch = func(l domain.Level, seed uint64) *usecase.Match {
			return usecase.NewMatch(l, nil, infra.NewRandom(seed), metrics, zap.NewNop())
		}
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	Describe("Level files", func() {
		var dir *fixtures.LevelDir

		BeforeEach(func() {
			dir = fixtures.NewLevelDir(filepath.Join(tmpDir, "levels"))
		})

		Context("when the file is valid", func() {
			It("should be playable to a win and reported", func() {
				path, err := dir.Write("corridor.yaml", fixtures.CorridorYAML)
				Expect(err).NotTo(HaveOccurred())
				Expect(dir.Exists("corridor.yaml")).To(BeTrue())

				fs := infra.NewFileSystemWithHome(tmpDir)
				data, err := fs.ReadLevelFile(path)
				Expect(err).NotTo(HaveOccurred())
				def, err := level.Parse(data)
				Expect(err).NotTo(HaveOccurred())

				m := newMatch(def.ToLevel(), 1)
				result := runner.RunHeadless(m, usecase.NewAutopilot(nil), runner.DefaultRunnerConfig())

				Expect(result.State).To(Equal(domain.StateWon))
				Expect(result.Level).To(Equal(50))
				Expect(result.Stars).To(BeNumerically(">=", 1))
				Expect(counterValue(metrics.VirusesDestroyedTotal.WithLabelValues("isolation"))).To(Equal(1.0))

				reportPath := filepath.Join(tmpDir, "reports", "corridor.json")
				writer := infra.NewReportWriter(fs)
				Expect(writer.Write(reportPath, infra.NewMatchReport(result, 1))).To(Succeed())

				raw, err := os.ReadFile(reportPath)
				Expect(err).NotTo(HaveOccurred())
				var report infra.MatchReport
				Expect(json.Unmarshal(raw, &report)).To(Succeed())
				Expect(report.State).To(Equal("won"))
				Expect(report.MatchID).To(Equal(result.MatchID))
				Expect(report.Seed).To(Equal(uint64(1)))
			})
		})

		Context("when the file is invalid", func() {
			It("should report why", func() {
				path, err := dir.Write("broken.yaml", fixtures.BrokenYAML)
				Expect(err).NotTo(HaveOccurred())

				data, err := infra.NewFileSystem().ReadLevelFile(path)
				Expect(err).NotTo(HaveOccurred())
				_, err = level.Parse(data)
				Expect(err).To(MatchError(ContainSubstring("finish")))
			})
		})

		Context("when the file is missing", func() {
			It("should fail to read", func() {
				_, err := infra.NewFileSystem().ReadLevelFile(filepath.Join(tmpDir, "nope.yaml"))
				Expect(err).To(HaveOccurred())
			})
		})
	})

	Describe("Silence waves", func() {
		Context("when a wave completes", func() {
			It("should wipe normal links and keep enhanced ones", func() {
				m := newMatch(fixtures.Line(fixtures.WithNumber(5), fixtures.WithWaves(2*time.Second, 0.5)), 1)

				Expect(m.Connect(0, 1)).To(Equal(domain.OutcomeCreated))
				Expect(m.ToggleEnhancedMode()).To(BeTrue())
				Expect(m.Connect(1, 2)).To(Equal(domain.OutcomeCreated))

				Expect(advanceUntil(m, 5*time.Second, func() bool { return m.Hazard().Waves() == 1 })).To(BeTrue())

				Expect(m.Graph().ActiveLink(0, 1)).To(BeFalse())
				Expect(m.Graph().ActiveLink(1, 2)).To(BeTrue())
				Expect(counterValue(metrics.WavesTotal)).To(Equal(1.0))
				Expect(counterValue(metrics.ConnectionsSeveredTotal.WithLabelValues("silence"))).To(Equal(1.0))
			})
		})

		Context("when waves are off", func() {
			It("should never fire", func() {
				m := newMatch(fixtures.Line(fixtures.WithTimeLimit(0)), 1)
				Expect(m.Connect(0, 1)).To(Equal(domain.OutcomeCreated))

				advanceUntil(m, 2*time.Minute, func() bool { return false })

				Expect(m.Hazard().Waves()).To(BeZero())
				Expect(m.Graph().ActiveLink(0, 1)).To(BeTrue())
			})
		})
	})

	Describe("Viruses", func() {
		Context("when a virus is linked to a relay", func() {
			It("should infect it within the spread interval", func() {
				m := newMatch(fixtures.Line(fixtures.WithVirusOn(2)), 7)

				infected := advanceUntil(m, 9*time.Second, func() bool {
					return m.Graph().Kind(2) == domain.NodeVirus
				})

				Expect(infected).To(BeTrue())
				Expect(counterValue(metrics.InfectionsTotal)).To(Equal(1.0))
			})

			It("should block a route through the infected relay", func() {
				m := newMatch(fixtures.Line(fixtures.WithVirusOn(2)), 7)
				Expect(m.Connect(0, 1)).To(Equal(domain.OutcomeCreated))
				Expect(m.Connect(1, 2)).To(Equal(domain.OutcomeCreated))
				Expect(m.Connect(2, 3)).To(Equal(domain.OutcomeCreated))

				m.Graph().SetKind(2, domain.NodeVirus)
				Expect(m.Connect(3, 4)).To(Equal(domain.OutcomeCreated))
				m.Advance(frame)

				Expect(m.State()).To(Equal(domain.StatePlaying))
				Expect(m.Connections().IsConnected(m.Start(), m.Finish())).To(BeFalse())
			})
		})

		Context("when the autopilot plays", func() {
			It("should remove the isolated virus and win", func() {
				m := newMatch(fixtures.Line(fixtures.WithNumber(6), fixtures.WithVirusOn(2)), 3)

				result := runner.RunHeadless(m, usecase.NewAutopilot(nil), runner.DefaultRunnerConfig())

				Expect(result.State).To(Equal(domain.StateWon))
				Expect(result.Viruses).To(BeZero())
				Expect(counterValue(metrics.MatchesTotal.WithLabelValues("won", "none"))).To(Equal(1.0))
			})
		})
	})

	Describe("Timer", func() {
		It("should lose on timeout", func() {
			m := newMatch(fixtures.Line(fixtures.WithTimeLimit(3*time.Second)), 1)

			result := runner.RunHeadless(m, nil, runner.DefaultRunnerConfig())

			Expect(result.State).To(Equal(domain.StateLost))
			Expect(result.Reason).To(Equal(domain.LoseTimeout))
			Expect(result.TimeLeft).To(BeZero())
			Expect(counterValue(metrics.MatchesTotal.WithLabelValues("lost", "timeout"))).To(Equal(1.0))
		})
	})

	Describe("Real-time runner", func() {
		It("should finish a match driven by wall-clock tickers", func() {
			m := newMatch(fixtures.Line(), 1)
			config := runner.RunnerConfig{
				FrameInterval:  time.Millisecond,
				PilotInterval:  2 * time.Millisecond,
				StatusInterval: time.Second,
				MaxFrameDelta:  50 * time.Millisecond,
				MaxSimulated:   time.Minute,
			}
			r := runner.NewRunner(config, m, usecase.NewAutopilot(nil), nil, zap.NewNop())

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			result, err := r.Run(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.State).To(Equal(domain.StateWon))
		})
	})

	Describe("Built-in levels", func() {
		store, err := level.NewStore(nil)
		if err != nil {
			panic(err)
		}

		for _, l := range store.GetAll() {
			l := l
			for _, seed := range []uint64{1, 2, 3} {
				seed := seed
				It(fmt.Sprintf("should let the autopilot win level %d with seed %d", l.Number, seed), func() {
					m := newMatch(l, seed)
					result := runner.RunHeadless(m, usecase.NewAutopilot(nil), runner.DefaultRunnerConfig())
					Expect(result.State).To(Equal(domain.StateWon))
				})
			}
		}
	})
})
