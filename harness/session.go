package harness

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"
)

// SessionLog collects the measurements of one benchmark session and
// mirrors them to an indented JSON file after every record, so that a
// crashing run keeps what it measured.
type SessionLog struct {
	mu      sync.Mutex
	results []Measurement
	path    string
}

// NewSessionLog creates dir if needed and starts a session file named
// after name and the current time. An empty dir keeps results in memory.
func NewSessionLog(dir, name string) (*SessionLog, error) {
	s := &SessionLog{}
	if dir == "" {
		return s, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	timestamp := time.Now().Format("20060102_150405")
	s.path = filepath.Join(dir, fmt.Sprintf("%s_%s.json", name, timestamp))
	return s, s.flushLocked()
}

// Path returns the session file, empty for in-memory sessions
func (s *SessionLog) Path() string {
	return s.path
}

// Record appends m and flushes the session file
func (s *SessionLog) Record(m Measurement) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now()
	}
	s.results = append(s.results, m)
	return s.flushLocked()
}

// Results returns a copy of the recorded measurements
func (s *SessionLog) Results() []Measurement {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Measurement(nil), s.results...)
}

// Failed returns the measurements whose verification failed
func (s *SessionLog) Failed() []Measurement {
	return lo.Filter(s.Results(), func(m Measurement, _ int) bool {
		return m.Status == "fail"
	})
}

func (s *SessionLog) flushLocked() error {
	if s.path == "" {
		return nil
	}
	data, err := json.MarshalIndent(s.results, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	return os.WriteFile(s.path, data, 0o644)
}

// LoadSession reads a session file written by SessionLog
func LoadSession(path string) ([]Measurement, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var results []Measurement
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return results, nil
}

// PrintSummary writes one line per measurement and the totals to w
func PrintSummary(w io.Writer, results []Measurement) {
	fmt.Fprintln(w, strings.Repeat("=", 72))
	counts := lo.CountValuesBy(results, func(m Measurement) string { return m.Status })
	for _, r := range results {
		switch r.Status {
		case "fail":
			fmt.Fprintf(w, "✗ %-40s FAILED: %s\n", r.Name, r.Error)
		default:
			fmt.Fprintf(w, "✓ %-40s %12v %10.3f GB/s\n", r.Name, r.PerIteration, r.BandwidthGBs())
		}
	}
	fmt.Fprintln(w, strings.Repeat("=", 72))
	fmt.Fprintf(w, "Total: %d | Passed: %d | Failed: %d | Unverified: %d\n",
		len(results), counts["pass"], counts["fail"], counts["unverified"])
}
