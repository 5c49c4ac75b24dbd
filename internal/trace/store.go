package trace

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// RunResult is the persisted outcome of one registration run.
type RunResult struct {
	// RunID identifies the run directory.
	RunID string `json:"runId"`

	// Parameters are the final transform parameters.
	Parameters []float64 `json:"parameters"`

	// FinalCost is the metric value at the final parameters on the
	// finest level.
	FinalCost float64 `json:"finalCost"`

	// InitialCost is the metric value at the initial parameters on
	// the coarsest level.
	InitialCost float64 `json:"initialCost"`

	// Levels is the number of resolution levels actually run.
	Levels int `json:"levels"`

	// Iterations is the total optimizer iteration count across levels.
	Iterations int `json:"iterations"`

	// Timestamp records when the result was saved.
	Timestamp time.Time `json:"timestamp"`
}

// NotFoundError reports a missing run artifact.
// Use errors.Is(err, ErrNotFound) to check for it.
type NotFoundError struct {
	RunID string
}

// ErrNotFound is the comparison target for errors.Is.
var ErrNotFound = &NotFoundError{}

func (e *NotFoundError) Error() string {
	if e.RunID != "" {
		return "run not found: " + e.RunID
	}
	return "run not found"
}

func (e *NotFoundError) Is(target error) bool {
	_, ok := target.(*NotFoundError)
	return ok
}

// Store persists run results on the filesystem under
// <baseDir>/runs/<runID>/result.json. Writes are atomic (temp file +
// rename), so concurrent readers never observe a torn file.
type Store struct {
	baseDir string
}

// NewStore creates the store, creating baseDir if needed.
func NewStore(baseDir string) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	return &Store{baseDir: baseDir}, nil
}

func (s *Store) resultPath(runID string) string {
	return filepath.Join(s.baseDir, "runs", runID, "result.json")
}

// Save atomically writes the result for its run.
func (s *Store) Save(result *RunResult) error {
	if result == nil || result.RunID == "" {
		return fmt.Errorf("result must have a run ID")
	}

	runDir := filepath.Dir(s.resultPath(result.RunID))
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return fmt.Errorf("failed to create run directory: %w", err)
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize result: %w", err)
	}

	tempPath := s.resultPath(result.RunID) + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp result file: %w", err)
	}
	finalPath := s.resultPath(result.RunID)
	if err := os.Rename(tempPath, finalPath); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename result file: %w", err)
	}

	slog.Debug("run result saved", "runID", result.RunID, "path", finalPath)
	return nil
}

// Load reads the result for a run. Returns a NotFoundError when the
// run has no saved result.
func (s *Store) Load(runID string) (*RunResult, error) {
	path := s.resultPath(runID)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &NotFoundError{RunID: runID}
		}
		return nil, fmt.Errorf("failed to read result file: %w", err)
	}

	var result RunResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to deserialize result: %w", err)
	}
	return &result, nil
}

// List returns the IDs of runs that have a saved result, in directory
// order.
func (s *Store) List() ([]string, error) {
	runsDir := filepath.Join(s.baseDir, "runs")

	entries, err := os.ReadDir(runsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read runs directory: %w", err)
	}

	var ids []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if _, err := os.Stat(s.resultPath(entry.Name())); err == nil {
			ids = append(ids, entry.Name())
		}
	}
	return ids, nil
}

// Delete removes a run directory and all its artifacts.
func (s *Store) Delete(runID string) error {
	runDir := filepath.Join(s.baseDir, "runs", runID)
	if _, err := os.Stat(runDir); os.IsNotExist(err) {
		return &NotFoundError{RunID: runID}
	} else if err != nil {
		return fmt.Errorf("failed to stat run directory: %w", err)
	}
	if err := os.RemoveAll(runDir); err != nil {
		return fmt.Errorf("failed to remove run directory: %w", err)
	}
	return nil
}
