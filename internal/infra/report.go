package infra

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/eliteGoblin/synapsis/internal/domain"
)

// MatchReport is the JSON record of one finished match.
type MatchReport struct {
	MatchID     string    `json:"match_id"`
	Level       int       `json:"level"`
	Seed        uint64    `json:"seed"`
	State       string    `json:"state"`
	Reason      string    `json:"reason,omitempty"`
	Stars       int       `json:"stars"`
	ElapsedMs   int64     `json:"elapsed_ms"`
	TimeLeftMs  int64     `json:"time_left_ms"`
	Energy      int       `json:"energy"`
	Connections int       `json:"connections"`
	Viruses     int       `json:"viruses"`
	Waves       int       `json:"waves"`
	WrittenAt   time.Time `json:"written_at"`
}

// NewMatchReport converts a match result for writing.
func NewMatchReport(r domain.MatchResult, seed uint64) MatchReport {
	return MatchReport{
		MatchID:     r.MatchID,
		Level:       r.Level,
		Seed:        seed,
		State:       string(r.State),
		Reason:      string(r.Reason),
		Stars:       r.Stars,
		ElapsedMs:   r.Elapsed.Milliseconds(),
		TimeLeftMs:  r.TimeLeft.Milliseconds(),
		Energy:      r.Energy,
		Connections: r.Connections,
		Viruses:     r.Viruses,
		Waves:       r.Waves,
	}
}

// ReportWriter stores match reports as JSON files.
type ReportWriter struct {
	fs *FileSystem
}

// NewReportWriter creates a report writer.
func NewReportWriter(fs *FileSystem) *ReportWriter {
	return &ReportWriter{fs: fs}
}

// Write saves reports to path. A single report is written as an object,
// several as an array.
func (w *ReportWriter) Write(path string, reports ...MatchReport) error {
	now := time.Now().UTC()
	for i := range reports {
		reports[i].WrittenAt = now
	}

	var payload any = reports
	if len(reports) == 1 {
		payload = reports[0]
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}

	expanded := w.fs.ExpandHome(path)
	if dir := filepath.Dir(expanded); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create report dir: %w", err)
		}
	}
	return atomicWrite(expanded, append(data, '\n'))
}

// atomicWrite writes data to a temp file then renames it into place.
func atomicWrite(path string, data []byte) error {
	// Unique per process to avoid races between concurrent writers
	tmpPath := fmt.Sprintf("%s.%d.tmp", path, os.Getpid())
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return err
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath) // Clean up on failure
		return err
	}
	return nil
}
