package results

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/att-innovate/rainman2/internal/qlearning"
)

func testResults() *qlearning.Results {
	return &qlearning.Results{
		Agent: qlearning.AgentNaive,
		Episodes: []qlearning.EpisodeStats{
			{Episode: 1, Steps: 20, TotalReward: 12.5, Handoffs: 4,
				Staying: 16, SLAMeets: 15, SLAViolations: 5, Epsilon: 0.3},
			{Episode: 2, Steps: 20, TotalReward: 18.0, Handoffs: 2,
				Staying: 18, SLAMeets: 17, SLAViolations: 3, Epsilon: 0.29},
		},
		QStates:   11,
		QAPStates: 6,
		Duration:  2 * time.Second,
	}
}

func TestSave(t *testing.T) {
	dir := t.TempDir()
	writer, err := NewWriter(dir, zap.NewNop())
	require.NoError(t, err)

	workbook, chart, err := writer.Save(testResults())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(filepath.Base(workbook), "rainman2_Naive_"))
	assert.True(t, strings.HasSuffix(workbook, ".xlsx"))
	assert.True(t, strings.HasSuffix(chart, ".html"))

	f, err := excelize.OpenFile(workbook)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(episodeSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Episode", rows[0][0])
	assert.Equal(t, "Epsilon", rows[0][7])
	assert.Equal(t, "1", rows[1][0])
	assert.Equal(t, "12.5", rows[1][2])
	assert.Equal(t, "2", rows[2][0])

	html, err := os.ReadFile(chart)
	require.NoError(t, err)
	assert.Contains(t, string(html), "total reward")
	assert.Contains(t, string(html), "handoffs")
}

func TestNewWriterCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "results")
	_, err := NewWriter(dir, zap.NewNop())
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
