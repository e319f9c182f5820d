package summary_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lecternlabs/lectern/pkg/summary"
)

func TestLevelIsolation(t *testing.T) {
	levels := summary.NewLevels()
	levels.Append(summary.LevelIntermediate, "only level two")

	assert.Equal(t, "only level two", levels.TextAt(summary.LevelIntermediate))
	for _, l := range []summary.Level{0, 1, 3, 4} {
		assert.Empty(t, levels.TextAt(l), "level %d", l)
	}
}

func TestAppendAccumulates(t *testing.T) {
	levels := summary.NewLevels()
	levels.Append(0, "Hel")
	levels.Append(0, "lo")

	assert.Equal(t, "Hello", levels.TextAt(0))
}

func TestOutOfRangeLevelIgnored(t *testing.T) {
	levels := summary.NewLevels()
	levels.Append(-1, "dropped")
	levels.Append(5, "dropped")
	levels.Append(99, "dropped")

	snap := levels.Snapshot()
	assert.Equal(t, summary.Snapshot{}, snap)
	assert.Empty(t, levels.TextAt(99))
}

func TestReplaceSupersedesAppend(t *testing.T) {
	levels := summary.NewLevels()
	levels.Append(0, "ab")
	levels.Replace(summary.Snapshot{"xyz", "", "", "", ""})

	assert.Equal(t, "xyz", levels.TextAt(0))
}

func TestReplaceClearsAllLevels(t *testing.T) {
	levels := summary.NewLevels()
	for l := summary.Level(0); l < summary.NumLevels; l++ {
		levels.Append(l, "streamed")
	}
	levels.Replace(summary.Snapshot{"a", "b", "c", "d", "e"})

	assert.Equal(t, summary.Snapshot{"a", "b", "c", "d", "e"}, levels.Snapshot())
}
