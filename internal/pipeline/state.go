package pipeline

import (
	"io"
	"sync"
	"time"

	"databoard/internal/analytics"
	"databoard/internal/dataset"
	"databoard/pkg/contracts/domain"
)

// Status represents the overall run status
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// State carries one run from source to board. A run owns its state
// exclusively; the runner and stages are the only writers.
type State struct {
	mu sync.RWMutex

	ID        string     `json:"id"`
	Status    Status     `json:"status"`
	StartTime time.Time  `json:"start_time"`
	EndTime   *time.Time `json:"end_time,omitempty"`

	Stages map[string]*StageState `json:"stages"`

	// Inputs. Exactly one of SourcePath or Source is set; Source is an
	// uploaded stream, rewound between loader attempts.
	SourcePath string             `json:"source_path,omitempty"`
	Source     io.ReadSeeker      `json:"-"`
	SourceName string             `json:"source_name,omitempty"`
	Query      analytics.TopQuery `json:"-"`

	// Intermediate and final outputs, filled in stage order. A pre-filled
	// Table (the service's memoized normalized table) lets the load and
	// normalize stages skip.
	Table *dataset.Table        `json:"-"`
	Rows  []domain.AggregateRow `json:"-"`
	Board domain.Board          `json:"-"`

	// FailedStage and Error summarize why a failed run stopped.
	FailedStage string `json:"failed_stage,omitempty"`
	Error       error  `json:"error,omitempty"`
}

// NewState creates a pending run state.
func NewState(id string) *State {
	return &State{
		ID:        id,
		Status:    StatusPending,
		StartTime: time.Now(),
		Stages:    make(map[string]*StageState),
	}
}

// Start marks the run as running
func (s *State) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Status = StatusRunning
	s.StartTime = time.Now()
}

// Complete marks the run as completed
func (s *State) Complete() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.EndTime = &now
	s.Status = StatusCompleted
}

// Fail marks the run as failed at the given stage
func (s *State) Fail(stageID string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.EndTime = &now
	s.Status = StatusFailed
	s.FailedStage = stageID
	s.Error = err
}

// GetStage returns the state of a specific stage
func (s *State) GetStage(stageID string) *StageState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Stages[stageID]
}

// SetStage records the state of a specific stage
func (s *State) SetStage(stageID string, state *StageState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Stages[stageID] = state
}

// Duration returns the total run duration.
func (s *State) Duration() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.EndTime != nil {
		return s.EndTime.Sub(s.StartTime)
	}
	return time.Since(s.StartTime)
}
