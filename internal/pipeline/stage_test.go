package pipeline

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStageStateLifecycle(t *testing.T) {
	s := NewStageState("load", "Load Dataset")
	assert.Equal(t, StageStatusPending, s.GetStatus())
	assert.Zero(t, s.Duration())

	s.Start()
	assert.Equal(t, StageStatusActive, s.GetStatus())
	require.NotNil(t, s.StartTime)

	s.Complete()
	assert.Equal(t, StageStatusCompleted, s.GetStatus())
	require.NotNil(t, s.EndTime)
	assert.GreaterOrEqual(t, s.Duration(), time.Duration(0))
}

func TestStageStateFail(t *testing.T) {
	s := NewStageState("aggregate", "Filter & Aggregate")
	s.Start()

	wantErr := errors.New("boom")
	s.Fail(wantErr)

	assert.Equal(t, StageStatusFailed, s.GetStatus())
	assert.Equal(t, wantErr, s.Error)
	require.NotNil(t, s.EndTime)
}

func TestStageStateSkip(t *testing.T) {
	s := NewStageState("load", "Load Dataset")
	s.Skip("table supplied by cache")

	assert.Equal(t, StageStatusSkipped, s.GetStatus())
	assert.Equal(t, "table supplied by cache", s.Message)
}

func TestStateFailRecordsStage(t *testing.T) {
	state := NewState("run-1")
	state.Start()
	assert.Equal(t, StatusRunning, state.Status)

	wantErr := errors.New("no rows")
	state.Fail(StageIDAggregate, wantErr)

	assert.Equal(t, StatusFailed, state.Status)
	assert.Equal(t, StageIDAggregate, state.FailedStage)
	assert.Equal(t, wantErr, state.Error)
	require.NotNil(t, state.EndTime)
}
