package scenario

// scenario.go defines the contract of a measured unit of interactive work.
// Hooks other than Run are optional; a nil hook is simply skipped.

import (
	"context"
	"fmt"
)

// Hook is one lifecycle step of a scenario.
type Hook func(ctx context.Context) error

// Scenario is a repeatable, configurable unit of interactive work.
type Scenario struct {
	// Unique identifier (e.g. "toggle-class")
	ID string
	// Display name
	Name string
	// JSON schema describing the options the scenario was built with
	Schema Schema

	// Called once before all repeats when not already inside a suite
	SetupSuite Hook
	// Called before every repeat, not measured
	Setup Hook
	// The measured unit of work (required)
	Run Hook
	// Called after every repeat, even when Run failed
	Cleanup Hook
	// Called once after all repeats when not already inside a suite
	CleanupSuite Hook
}

// Validate checks the required capabilities are present.
func (s *Scenario) Validate() error {
	if s == nil {
		return fmt.Errorf("no scenario given")
	}
	if s.ID == "" {
		return fmt.Errorf("scenario has no id")
	}
	if s.Run == nil {
		return fmt.Errorf("scenario %s has no run hook", s.ID)
	}
	return nil
}

// call invokes a hook when present.
func call(ctx context.Context, h Hook) error {
	if h == nil {
		return nil
	}
	return h(ctx)
}

// DoSetupSuite runs the SetupSuite hook if present.
func (s *Scenario) DoSetupSuite(ctx context.Context) error { return call(ctx, s.SetupSuite) }

// DoSetup runs the Setup hook if present.
func (s *Scenario) DoSetup(ctx context.Context) error { return call(ctx, s.Setup) }

// DoCleanup runs the Cleanup hook if present.
func (s *Scenario) DoCleanup(ctx context.Context) error { return call(ctx, s.Cleanup) }

// DoCleanupSuite runs the CleanupSuite hook if present.
func (s *Scenario) DoCleanupSuite(ctx context.Context) error { return call(ctx, s.CleanupSuite) }
