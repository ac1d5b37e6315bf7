package inspect

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mattjoyce/debugbridge/internal/scriptstore"
	"github.com/mattjoyce/debugbridge/internal/storage"
)

func openStore(t *testing.T) *scriptstore.Store {
	t.Helper()
	db, err := storage.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "live_edit.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return scriptstore.New(db)
}

func TestBuildReportRendersHistory(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := openStore(t)
	path := filepath.Join(t.TempDir(), "app.js")

	if _, err := store.Save(ctx, 7, path, "var a = 1;\n"); err != nil {
		t.Fatalf("Save(first): %v", err)
	}
	if _, err := store.Save(ctx, 7, path, "var a = 2;\n"); err != nil {
		t.Fatalf("Save(second): %v", err)
	}

	out, err := BuildReport(ctx, store, path)
	if err != nil {
		t.Fatalf("BuildReport: %v", err)
	}
	for _, want := range []string{"Live Edit History", "Edits       : 2", "in sync", "script_id : 7", "outcome   : written"} {
		if !strings.Contains(out, want) {
			t.Fatalf("report missing %q:\n%s", want, out)
		}
	}
}

func TestBuildJSONReportDetectsDrift(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := openStore(t)
	path := filepath.Join(t.TempDir(), "app.js")

	if _, err := store.Save(ctx, 3, path, "one\n"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := os.WriteFile(path, []byte("edited by hand\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	out, err := BuildJSONReport(ctx, store, path)
	if err != nil {
		t.Fatalf("BuildJSONReport: %v", err)
	}
	var report Report
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !report.Drifted || report.Missing {
		t.Fatalf("expected drifted existing file, got %+v", report)
	}
	if report.Edits != 1 || report.Entries[0].ScriptID != 3 {
		t.Fatalf("unexpected entries: %+v", report.Entries)
	}
	if report.CurrentHash != scriptstore.Hash([]byte("edited by hand\n")) {
		t.Fatalf("current hash = %q", report.CurrentHash)
	}
}

func TestBuildReportMissingFile(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := openStore(t)
	path := filepath.Join(t.TempDir(), "gone.js")

	if _, err := store.Save(ctx, 1, path, "x\n"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := os.Remove(path); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	out, err := BuildReport(ctx, store, path)
	if err != nil {
		t.Fatalf("BuildReport: %v", err)
	}
	if !strings.Contains(out, "<missing>") || !strings.Contains(out, "DRIFTED") {
		t.Fatalf("expected missing and drifted:\n%s", out)
	}
}

func TestBuildReportNoHistory(t *testing.T) {
	t.Parallel()

	out, err := BuildReport(context.Background(), openStore(t), filepath.Join(t.TempDir(), "never.js"))
	if err != nil {
		t.Fatalf("BuildReport: %v", err)
	}
	if !strings.Contains(out, "No live edits recorded.") || strings.Contains(out, "DRIFTED") {
		t.Fatalf("unexpected report:\n%s", out)
	}
}

type failingSource struct{}

func (failingSource) History(context.Context, string) ([]scriptstore.Record, error) {
	return nil, errors.New("db gone")
}

func TestBuildReportErrors(t *testing.T) {
	t.Parallel()

	if _, err := BuildReport(context.Background(), failingSource{}, "/tmp/x.js"); err == nil || !strings.Contains(err.Error(), "db gone") {
		t.Fatalf("expected history error, got %v", err)
	}
	if _, err := BuildJSONReport(context.Background(), failingSource{}, ""); err == nil {
		t.Fatal("expected error for empty path")
	}
}
