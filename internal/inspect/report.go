// Package inspect renders the live-edit history of a source file and compares
// the last saved edit with what is on disk now.
package inspect

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/mattjoyce/debugbridge/internal/scriptstore"
)

// HistorySource is the part of scriptstore.Store the report reads.
type HistorySource interface {
	History(ctx context.Context, path string) ([]scriptstore.Record, error)
}

// Report is the structured JSON representation of a history report. Drifted is
// set when the file no longer matches the last saved edit.
type Report struct {
	Path        string  `json:"path"`
	Edits       int     `json:"edits"`
	CurrentHash string  `json:"current_hash,omitempty"`
	Missing     bool    `json:"missing"`
	Drifted     bool    `json:"drifted"`
	Entries     []Entry `json:"entries"`
}

// Entry is one saved edit, newest first.
type Entry struct {
	ID       string `json:"id"`
	ScriptID int    `json:"script_id"`
	Hash     string `json:"hash"`
	Size     int    `json:"size"`
	Outcome  string `json:"outcome"`
	SavedAt  string `json:"saved_at"`
}

// BuildReport renders a terminal-friendly history report for path.
func BuildReport(ctx context.Context, src HistorySource, path string) (string, error) {
	report, err := gatherReportData(ctx, src, path)
	if err != nil {
		return "", err
	}

	var out strings.Builder
	fmt.Fprintf(&out, "Live Edit History\n")
	fmt.Fprintf(&out, "Path        : %s\n", report.Path)
	fmt.Fprintf(&out, "Edits       : %d\n", report.Edits)
	switch {
	case report.Missing:
		fmt.Fprintf(&out, "On disk     : <missing>\n")
	default:
		fmt.Fprintf(&out, "On disk     : %s\n", shortHash(report.CurrentHash))
	}
	if report.Drifted {
		fmt.Fprintf(&out, "Status      : DRIFTED (file changed since last saved edit)\n")
	} else {
		fmt.Fprintf(&out, "Status      : in sync\n")
	}
	fmt.Fprintf(&out, "\n")

	if len(report.Entries) == 0 {
		fmt.Fprintf(&out, "No live edits recorded.\n")
		return out.String(), nil
	}

	for i, e := range report.Entries {
		fmt.Fprintf(&out, "[%d] %s\n", i+1, e.SavedAt)
		fmt.Fprintf(&out, "    script_id : %d\n", e.ScriptID)
		fmt.Fprintf(&out, "    outcome   : %s\n", e.Outcome)
		fmt.Fprintf(&out, "    hash      : %s (%d bytes)\n", shortHash(e.Hash), e.Size)
	}
	return out.String(), nil
}

// BuildJSONReport renders the history report as indented JSON.
func BuildJSONReport(ctx context.Context, src HistorySource, path string) (string, error) {
	report, err := gatherReportData(ctx, src, path)
	if err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal json report: %w", err)
	}
	return string(data), nil
}

func gatherReportData(ctx context.Context, src HistorySource, path string) (*Report, error) {
	if path == "" {
		return nil, fmt.Errorf("path is required")
	}
	records, err := src.History(ctx, path)
	if err != nil {
		return nil, err
	}

	report := &Report{
		Path:    path,
		Edits:   len(records),
		Entries: make([]Entry, 0, len(records)),
	}
	for _, rec := range records {
		report.Entries = append(report.Entries, Entry{
			ID:       rec.ID,
			ScriptID: rec.ScriptID,
			Hash:     rec.Hash,
			Size:     rec.Size,
			Outcome:  rec.Outcome,
			SavedAt:  rec.SavedAt.UTC().Format(time.RFC3339),
		})
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		report.CurrentHash = scriptstore.Hash(data)
	case errors.Is(err, fs.ErrNotExist):
		report.Missing = true
	default:
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	if len(records) > 0 {
		report.Drifted = report.Missing || report.CurrentHash != records[0].Hash
	}
	return report, nil
}

func shortHash(h string) string {
	if len(h) <= 16 {
		return h
	}
	return h[:16]
}
