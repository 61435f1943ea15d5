// Package results persists experiment outcomes: an xlsx workbook of
// per-episode statistics and a static HTML line chart of rewards and
// handoffs.
package results

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/att-innovate/rainman2/internal/qlearning"
)

const episodeSheet = "Episode_Stats"

// Writer saves experiment results under a base directory.
type Writer struct {
	dir    string
	logger *zap.Logger
}

// NewWriter creates the output directory if needed.
func NewWriter(dir string, logger *zap.Logger) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating results directory: %w", err)
	}
	return &Writer{dir: dir, logger: logger.Named("results")}, nil
}

// Save writes the workbook and the chart, returning their paths.
func (w *Writer) Save(res *qlearning.Results) (workbook, chart string, err error) {
	stamp := time.Now().Format("20060102_150405")
	base := fmt.Sprintf("rainman2_%s_%s", res.Agent, stamp)

	workbook = filepath.Join(w.dir, base+".xlsx")
	if err := w.writeWorkbook(workbook, res); err != nil {
		return "", "", err
	}
	chart = filepath.Join(w.dir, base+".html")
	if err := w.writeChart(chart, res); err != nil {
		return "", "", err
	}

	w.logger.Info("results saved",
		zap.String("workbook", workbook),
		zap.String("chart", chart))
	return workbook, chart, nil
}

func (w *Writer) writeWorkbook(path string, res *qlearning.Results) error {
	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); cerr != nil {
			w.logger.Error("closing workbook", zap.Error(cerr))
		}
	}()

	if _, err := f.NewSheet(episodeSheet); err != nil {
		return fmt.Errorf("creating sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("removing default sheet: %w", err)
	}

	headers := []any{
		"Episode", "Steps", "Total Reward", "Handoffs", "Staying",
		"SLA Meets", "SLA Violations", "Epsilon",
	}
	if err := f.SetSheetRow(episodeSheet, "A1", &headers); err != nil {
		return fmt.Errorf("writing header row: %w", err)
	}

	for i, ep := range res.Episodes {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{
			ep.Episode, ep.Steps, ep.TotalReward, ep.Handoffs, ep.Staying,
			ep.SLAMeets, ep.SLAViolations, ep.Epsilon,
		}
		if err := f.SetSheetRow(episodeSheet, cell, &row); err != nil {
			return fmt.Errorf("writing episode %d: %w", ep.Episode, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving workbook: %w", err)
	}
	return nil
}

func (w *Writer) writeChart(path string, res *qlearning.Results) error {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("Qlearning %s", res.Agent),
			Subtitle: "per-episode reward and handoffs",
		}),
	)

	episodes := make([]string, len(res.Episodes))
	rewards := make([]opts.LineData, len(res.Episodes))
	handoffs := make([]opts.LineData, len(res.Episodes))
	for i, ep := range res.Episodes {
		episodes[i] = fmt.Sprintf("%d", ep.Episode)
		rewards[i] = opts.LineData{Value: ep.TotalReward}
		handoffs[i] = opts.LineData{Value: ep.Handoffs}
	}

	line.SetXAxis(episodes)
	line.AddSeries("total reward", rewards)
	line.AddSeries("handoffs", handoffs)

	page := components.NewPage()
	page.AddCharts(line)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating chart file: %w", err)
	}
	defer f.Close()
	if err := page.Render(f); err != nil {
		return fmt.Errorf("rendering chart: %w", err)
	}
	return nil
}
