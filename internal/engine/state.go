package engine

import (
	"time"

	"futureswatch/internal/debounce"
	"futureswatch/internal/series"
)

// State is everything that survives between ticks for one instrument group.
// It is owned by the polling loop and handed to Tick explicitly.
type State struct {
	Group             string
	Series            *series.Store
	BreakoutCooldowns *debounce.Table
	SpreadCooldowns   *debounce.Table
}

// NewState builds empty buffers and cooldown tables. A nil clock uses time.Now.
func NewState(group string, capacity int, clock func() time.Time) *State {
	return &State{
		Group:             group,
		Series:            series.NewStore(capacity),
		BreakoutCooldowns: debounce.New(clock),
		SpreadCooldowns:   debounce.New(clock),
	}
}
