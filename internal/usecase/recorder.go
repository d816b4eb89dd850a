package usecase

import "github.com/eliteGoblin/synapsis/internal/domain"

// NopRecorder discards match events.
type NopRecorder struct{}

func (NopRecorder) ConnectionCreated(domain.ConnectionKind) {}
func (NopRecorder) ConnectionRejected(domain.Outcome) {}
func (NopRecorder) ConnectionsSevered(domain.SeverCause, int) {}
func (NopRecorder) WaveCompleted() {}
func (NopRecorder) NodeInfected() {}
func (NopRecorder) VirusMoved() {}
func (NopRecorder) VirusEvolved() {}
func (NopRecorder) VirusDestroyed(domain.DestroyMethod) {}
func (NopRecorder) MatchFinished(domain.MatchResult) {}

// Ensure NopRecorder implements domain.Recorder.
var _ domain.Recorder = NopRecorder{}
