package history

// This file contains shared history utilities for recording, loading and
// looking up benchmark runs.

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/perfgo/uiprof/model"
)

// DefaultDir is the results directory used when none is configured.
const DefaultDir = ".uiprof"

// HistoryFile is the name of the run record inside a run directory.
const HistoryFile = "history.json"

type Entry struct {
	History  model.History
	FullPath string
}

// GetRoot returns the results directory. A relative dir is resolved
// against the git repository root, or the working directory outside of a
// repository.
func GetRoot(dir string) (string, error) {
	if dir == "" {
		dir = DefaultDir
	}
	if filepath.IsAbs(dir) {
		return dir, nil
	}

	cmd := exec.Command("git", "rev-parse", "--show-toplevel")
	if output, err := cmd.Output(); err == nil {
		return filepath.Join(strings.TrimSpace(string(output)), dir), nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}
	return filepath.Join(cwd, dir), nil
}

// Prepare creates the directory of a run below root:
// <root>/history/<timestamp>-<commit>-<id>.
func Prepare(root string, h *model.History) (string, error) {
	timestamp := h.Timestamp.Format("20060102-150405")
	shortCommit := "nogit"
	if h.Git != nil && h.Git.Commit != "" {
		shortCommit = shorten(h.Git.Commit)
	}

	runName := fmt.Sprintf("%s-%s-%s", timestamp, shortCommit, shorten(h.ID))
	runDir := filepath.Join(root, "history", runName)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create run directory: %w", err)
	}
	return runDir, nil
}

func shorten(s string) string {
	if len(s) > 8 {
		return s[:8]
	}
	return s
}

// WriteArtifact writes a file into the run directory and registers it on
// the history record.
func WriteArtifact(runDir string, h *model.History, t model.ArtifactType, name string, write func(w io.Writer) error) error {
	path := filepath.Join(runDir, name)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", name, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", name, err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", name, err)
	}
	h.Artifacts = append(h.Artifacts, model.Artifact{
		Type: t,
		Size: uint64(info.Size()),
		File: name,
	})
	return nil
}

// WriteJSON writes v as an indented JSON artifact.
func WriteJSON(runDir string, h *model.History, t model.ArtifactType, name string, v any) error {
	return WriteArtifact(runDir, h, t, name, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	})
}

// Save writes the run record.
func Save(runDir string, h *model.History) error {
	data, err := json.MarshalIndent(h, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}
	if err := os.WriteFile(filepath.Join(runDir, HistoryFile), data, 0644); err != nil {
		return fmt.Errorf("failed to write history: %w", err)
	}
	return nil
}

// LoadEntries loads all history entries below root, newest first.
func LoadEntries(logger zerolog.Logger, root string) ([]Entry, error) {
	var entries []Entry

	if _, err := os.Stat(root); os.IsNotExist(err) {
		return nil, nil
	}

	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			historyPath := filepath.Join(path, HistoryFile)
			if _, err := os.Stat(historyPath); err == nil {
				history, err := parseHistoryJSON(historyPath)
				if err != nil {
					logger.Warn().Err(err).Str("path", historyPath).Msg("Failed to parse history.json")
					return nil
				}

				entries = append(entries, Entry{
					History:  history,
					FullPath: path,
				})
			}
		}

		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to walk results directory: %w", err)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].History.Timestamp.After(entries[j].History.Timestamp)
	})
	return entries, nil
}

// Find selects an entry from entries sorted newest first. arg is 0 for the
// latest run, -1 for the one before and so on, or a prefix of a run ID.
func Find(entries []Entry, arg string) (*Entry, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("no history entries found")
	}

	if parsed, err := strconv.ParseInt(arg, 10, 64); err == nil {
		if parsed > 0 {
			return nil, fmt.Errorf("invalid index: %s (use 0 for last, -1 for second-to-last, -2 for third-to-last, etc.)", arg)
		}
		index := int(-parsed)
		if index >= len(entries) {
			return nil, fmt.Errorf("index %s out of range (only %d history entries)", arg, len(entries))
		}
		return &entries[index], nil
	}

	hexID := strings.ToLower(arg)
	for i := range entries {
		if strings.HasPrefix(strings.ToLower(entries[i].History.ID), hexID) {
			return &entries[i], nil
		}
	}
	return nil, fmt.Errorf("no history entry found matching ID: %s", arg)
}

// ReadJSON decodes an artifact of the entry.
func (e *Entry) ReadJSON(t model.ArtifactType, v any) error {
	artifact := e.History.Artifact(t)
	if artifact == nil {
		return fmt.Errorf("run %s has no %s artifact", shorten(e.History.ID), t)
	}
	data, err := os.ReadFile(filepath.Join(e.FullPath, artifact.File))
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", artifact.File, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", artifact.File, err)
	}
	return nil
}

// parseHistoryJSON parses a history.json file.
func parseHistoryJSON(historyPath string) (model.History, error) {
	data, err := os.ReadFile(historyPath)
	if err != nil {
		return model.History{}, err
	}

	var history model.History
	if err := json.Unmarshal(data, &history); err != nil {
		return model.History{}, err
	}

	return history, nil
}
