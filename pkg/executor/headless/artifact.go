package headless

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ArtifactWriter handles writing execution artifacts
type ArtifactWriter struct {
	outputDir string
	formats   ArtifactConfig
}

// NewArtifactWriter creates a new artifact writer
func NewArtifactWriter(outputDir string, formats ArtifactConfig) *ArtifactWriter {
	return &ArtifactWriter{
		outputDir: outputDir,
		formats:   formats,
	}
}

// Dir returns the directory artifacts are written to.
func (w *ArtifactWriter) Dir() string {
	return w.outputDir
}

// WriteAll writes all configured artifact formats
func (w *ArtifactWriter) WriteAll(summary *ExecutionSummary) error {
	if err := os.MkdirAll(w.outputDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if w.formats.JSON {
		if err := w.WriteExecutionJSON(summary); err != nil {
			return fmt.Errorf("failed to write execution JSON: %w", err)
		}
	}

	if w.formats.Markdown {
		if err := w.WriteSummaryMarkdown(summary); err != nil {
			return fmt.Errorf("failed to write summary markdown: %w", err)
		}
	}

	if w.formats.Metrics {
		if err := w.WriteMetricsJSON(summary); err != nil {
			return fmt.Errorf("failed to write metrics JSON: %w", err)
		}
	}

	return nil
}

// WriteExecutionJSON writes the full execution summary as JSON
func (w *ArtifactWriter) WriteExecutionJSON(summary *ExecutionSummary) error {
	path := filepath.Join(w.outputDir, "execution.json")

	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal execution summary: %w", err)
	}

	if writeErr := os.WriteFile(path, data, 0600); writeErr != nil {
		return fmt.Errorf("failed to write execution JSON: %w", writeErr)
	}

	return nil
}

// WriteSummaryMarkdown writes a human-readable markdown summary
func (w *ArtifactWriter) WriteSummaryMarkdown(summary *ExecutionSummary) error {
	path := filepath.Join(w.outputDir, "summary.md")

	var md strings.Builder

	md.WriteString("# Punch Run Summary\n\n")
	md.WriteString(fmt.Sprintf("**Task:** %s\n\n", summary.Task))
	md.WriteString(fmt.Sprintf("**Mode:** %s\n\n", summary.Mode))
	if summary.RunID != "" {
		md.WriteString(fmt.Sprintf("**Run:** `%s`\n\n", summary.RunID))
	}
	md.WriteString(fmt.Sprintf("**Status:** %s\n\n", summary.Status))
	md.WriteString(fmt.Sprintf("**Started:** %s\n\n", summary.StartTime.Format(time.RFC3339)))
	md.WriteString(fmt.Sprintf("**Completed:** %s\n\n", summary.EndTime.Format(time.RFC3339)))
	md.WriteString(fmt.Sprintf("**Duration:** %s\n\n", summary.Duration.Round(time.Millisecond)))

	md.WriteString("## Result\n\n")
	if summary.Error != "" {
		md.WriteString(fmt.Sprintf("❌ **Error:** %s\n\n", summary.Error))
	} else {
		md.WriteString("✅ **Success**\n\n")
	}

	if len(summary.Dates) > 0 {
		md.WriteString("## Dates\n\n")
		md.WriteString("| # | Date | Before | After | Label | Error |\n")
		md.WriteString("|---|------|--------|-------|-------|-------|\n")
		for _, d := range summary.Dates {
			md.WriteString(fmt.Sprintf("| %d | %s | %s | %s | %s | %s |\n",
				d.Index, d.Date, d.Before, d.After, d.Label, escapeCell(d.Error)))
		}
		md.WriteString("\n")
	}

	md.WriteString("## Metrics\n\n")
	md.WriteString(fmt.Sprintf("- **Dates:** %d\n", summary.Metrics.Dates))
	md.WriteString(fmt.Sprintf("- **Changed:** %d\n", summary.Metrics.Changed))
	md.WriteString(fmt.Sprintf("- **Unchanged:** %d\n", summary.Metrics.Unchanged))
	md.WriteString(fmt.Sprintf("- **Failed:** %d\n", summary.Metrics.Failed))
	md.WriteString(fmt.Sprintf("- **Punches Submitted:** %d\n", summary.Metrics.PunchesSubmitted))
	md.WriteString(fmt.Sprintf("- **Punches Committed:** %d\n", summary.Metrics.PunchesCommitted))
	md.WriteString(fmt.Sprintf("- **Sessions:** %d\n", summary.Metrics.Sessions))

	if writeErr := os.WriteFile(path, []byte(md.String()), 0600); writeErr != nil {
		return fmt.Errorf("failed to write summary markdown: %w", writeErr)
	}

	return nil
}

// WriteMetricsJSON writes execution metrics as JSON
func (w *ArtifactWriter) WriteMetricsJSON(summary *ExecutionSummary) error {
	path := filepath.Join(w.outputDir, "metrics.json")

	data, err := json.MarshalIndent(summary.Metrics, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metrics: %w", err)
	}

	if writeErr := os.WriteFile(path, data, 0600); writeErr != nil {
		return fmt.Errorf("failed to write metrics JSON: %w", writeErr)
	}

	return nil
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}

// ExecutionSummary contains a complete summary of a headless run
type ExecutionSummary struct {
	RunID     string           `json:"run_id,omitempty"`
	Task      string           `json:"task"`
	Mode      string           `json:"mode"`
	Status    string           `json:"status"`
	Error     string           `json:"error,omitempty"`
	StartTime time.Time        `json:"start_time"`
	EndTime   time.Time        `json:"end_time"`
	Duration  time.Duration    `json:"duration"`
	Dates     []DateSummary    `json:"dates"`
	Metrics   ExecutionMetrics `json:"metrics"`
}

// DateSummary is the outcome of one date.
type DateSummary struct {
	Index  int    `json:"index"`
	Date   string `json:"date"`
	State  int    `json:"state"`
	Next   int    `json:"next"`
	Before string `json:"before"`
	After  string `json:"after"`
	Label  string `json:"label,omitempty"`
	Error  string `json:"error,omitempty"`
}

// ExecutionMetrics contains run metrics
type ExecutionMetrics struct {
	Dates             int `json:"dates"`
	Changed           int `json:"changed"`
	Unchanged         int `json:"unchanged"`
	Failed            int `json:"failed"`
	PunchesSubmitted  int `json:"punches_submitted"`
	PunchesCommitted  int `json:"punches_committed"`
	ResponsesCaptured int `json:"responses_captured"`
	Sessions          int `json:"sessions"`
}
