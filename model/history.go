package model

import (
	"fmt"
	"time"
)

// HistoryType represents the type of history entry
type HistoryType string

const (
	HistoryTypeBenchmark   HistoryType = "benchmark"
	HistoryTypeImpact      HistoryType = "impact"
	HistoryTypeSelfProfile HistoryType = "self-profile"
)

// History represents a single uiprof execution.
// It contains common fields shared by all execution types.
type History struct {
	// Unique ID for this execution (16 random bytes, hex encoded)
	ID string `json:"id"`
	// Type of execution
	Type HistoryType `json:"type"`
	// Benchmark that was run (e.g. "time", "style-rule")
	Benchmark string `json:"benchmark"`
	// Scenario that was measured
	Scenario string `json:"scenario"`
	// Page the scenario ran against
	Page string `json:"page,omitempty"`
	// Timestamp when the execution started
	Timestamp time.Time `json:"timestamp"`
	// Command-line arguments (including command name)
	Args []string `json:"args"`
	// Working directory where command was run
	WorkDir string `json:"workdir"`
	// Exit code of the execution
	ExitCode int `json:"exit_code"`
	// Error message of a failed execution
	Error string `json:"error,omitempty"`
	// Duration of execution
	Duration time.Duration `json:"duration"`
	// Git information
	Git *Git `json:"git,omitempty"`
	// Benchmark and scenario options in effect
	Options map[string]any `json:"options,omitempty"`
	// Artifacts generated during this run
	Artifacts []Artifact `json:"artifacts,omitempty"`
}

// Git contains git repository information
type Git struct {
	// Git commit hash at time of execution
	Commit string `json:"commit,omitempty"`
	// Git branch at time of execution
	Branch string `json:"branch,omitempty"`
}

// ArtifactType identifies the type of artifact
type ArtifactType uint8

const (
	ArtifactTypeResult ArtifactType = iota
	ArtifactTypePprofProfile
)

func (t ArtifactType) String() string {
	switch t {
	case ArtifactTypeResult:
		return "result"
	case ArtifactTypePprofProfile:
		return "profile"
	}
	return fmt.Sprintf("artifact(%d)", uint8(t))
}

// Artifact represents a file generated during execution
type Artifact struct {
	Type ArtifactType `json:"type"`
	Size uint64       `json:"size"`
	File string       `json:"file"` // relative to run dir
}

// Artifact returns the first artifact of the given type.
func (h *History) Artifact(t ArtifactType) *Artifact {
	for i := range h.Artifacts {
		if h.Artifacts[i].Type == t {
			return &h.Artifacts[i]
		}
	}
	return nil
}
