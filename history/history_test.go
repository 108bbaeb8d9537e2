package history

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perfgo/uiprof/model"
)

func record(t *testing.T, root, id string, ts time.Time) *model.History {
	t.Helper()
	h := &model.History{
		ID:        id,
		Type:      model.HistoryTypeBenchmark,
		Benchmark: "time",
		Scenario:  "restyle",
		Timestamp: ts,
		Git:       &model.Git{Commit: "0123456789abcdef", Branch: "main"},
	}
	runDir, err := Prepare(root, h)
	require.NoError(t, err)
	require.NoError(t, WriteJSON(runDir, h, model.ArtifactTypeResult, "result.json", model.BenchmarkResult{Times: []float64{1, 2}}))
	require.NoError(t, Save(runDir, h))
	return h
}

func TestSaveAndLoad(t *testing.T) {
	root := t.TempDir()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	record(t, root, "aaaa1111bbbb2222", base)
	record(t, root, "cccc3333dddd4444", base.Add(time.Minute))

	// unparsable records are skipped
	broken := filepath.Join(root, "history", "broken")
	require.NoError(t, os.MkdirAll(broken, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(broken, HistoryFile), []byte("{"), 0644))

	entries, err := LoadEntries(zerolog.Nop(), root)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "cccc3333dddd4444", entries[0].History.ID)
	assert.Equal(t, filepath.Join(root, "history", "20240501-120100-01234567-cccc3333"), entries[0].FullPath)

	var result model.BenchmarkResult
	require.NoError(t, entries[1].ReadJSON(model.ArtifactTypeResult, &result))
	assert.Equal(t, []float64{1, 2}, result.Times)
	assert.Error(t, entries[1].ReadJSON(model.ArtifactTypePprofProfile, &result))

	artifact := entries[1].History.Artifact(model.ArtifactTypeResult)
	require.NotNil(t, artifact)
	assert.Equal(t, "result.json", artifact.File)
	assert.Positive(t, artifact.Size)
}

func TestLoadMissingRoot(t *testing.T) {
	entries, err := LoadEntries(zerolog.Nop(), filepath.Join(t.TempDir(), "missing"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestFind(t *testing.T) {
	entries := []Entry{
		{History: model.History{ID: "abc123"}},
		{History: model.History{ID: "def456"}},
	}

	tests := []struct {
		name    string
		arg     string
		wantID  string
		wantErr bool
	}{
		{name: "latest", arg: "0", wantID: "abc123"},
		{name: "previous", arg: "-1", wantID: "def456"},
		{name: "out of range", arg: "-2", wantErr: true},
		{name: "positive", arg: "1", wantErr: true},
		{name: "prefix", arg: "DEF", wantID: "def456"},
		{name: "unknown", arg: "fff", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := Find(entries, tt.arg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, e.History.ID)
		})
	}

	_, err := Find(nil, "0")
	assert.Error(t, err)
}

func TestGetRoot(t *testing.T) {
	abs := t.TempDir()
	root, err := GetRoot(abs)
	require.NoError(t, err)
	assert.Equal(t, abs, root)

	root, err = GetRoot("")
	require.NoError(t, err)
	assert.Equal(t, DefaultDir, filepath.Base(root))
}
