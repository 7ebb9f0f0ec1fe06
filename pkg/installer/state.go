package installer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Completion records one finished setup step.
type Completion struct {
	Done   bool      `json:"done"`
	At     time.Time `json:"at"`
	Detail string    `json:"detail,omitempty"`
}

// Store persists per-step completion to a JSON file so re-runs skip work
// that is already done. It is safe for concurrent use, though setup itself
// is sequential.
type Store struct {
	mu       sync.RWMutex
	steps    map[string]Completion
	filePath string
}

// fileFormat is the JSON structure written to disk.
type fileFormat struct {
	Steps map[string]Completion `json:"steps"`
}

// OpenState creates a Store backed by the given file. Existing data is
// loaded immediately; a missing file starts empty.
func OpenState(filePath string) (*Store, error) {
	abs, err := filepath.Abs(filePath)
	if err != nil {
		return nil, fmt.Errorf("installer: resolve state path: %w", err)
	}

	s := &Store{
		steps:    make(map[string]Completion),
		filePath: abs,
	}

	if err := s.load(); err != nil {
		return nil, err
	}

	return s, nil
}

// Completed reports whether a step has been recorded as done.
func (s *Store) Completed(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.steps[name].Done
}

// Completion returns the recorded completion for a step, if any.
func (s *Store) Completion(name string) (Completion, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.steps[name]

	return c, ok
}

// MarkCompleted records a step as done and persists the change.
func (s *Store) MarkCompleted(name, detail string) error {
	s.mu.Lock()
	s.steps[name] = Completion{Done: true, At: time.Now().UTC(), Detail: detail}
	snap := s.snapshot()
	s.mu.Unlock()

	return s.persistSnapshot(snap)
}

// Reset forgets all recorded completions and persists the empty state.
func (s *Store) Reset() error {
	s.mu.Lock()
	s.steps = make(map[string]Completion)
	snap := s.snapshot()
	s.mu.Unlock()

	return s.persistSnapshot(snap)
}

func (s *Store) snapshot() fileFormat {
	out := fileFormat{Steps: make(map[string]Completion, len(s.steps))}
	for k, v := range s.steps {
		out.Steps[k] = v
	}

	return out
}

func (s *Store) load() error {
	data, err := os.ReadFile(s.filePath) //nolint:gosec // state file under the install root
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("installer: read state: %w", err)
	}

	var ff fileFormat
	if err := json.Unmarshal(data, &ff); err != nil {
		return fmt.Errorf("installer: parse state: %w", err)
	}

	if ff.Steps != nil {
		s.steps = ff.Steps
	}

	return nil
}

func (s *Store) persistSnapshot(snap fileFormat) error {
	if err := os.MkdirAll(filepath.Dir(s.filePath), 0o750); err != nil {
		return fmt.Errorf("installer: create state dir: %w", err)
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("installer: encode state: %w", err)
	}

	if err := os.WriteFile(s.filePath, data, 0o600); err != nil {
		return fmt.Errorf("installer: write state: %w", err)
	}

	return nil
}
