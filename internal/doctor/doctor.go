// Package doctor validates debugbridge configuration beyond what the loader
// enforces: listener sanity, persistence paths and risky settings.
package doctor

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/mattjoyce/debugbridge/internal/config"
	"github.com/mattjoyce/debugbridge/internal/storage"
)

// Result holds the outcome of a validation run.
type Result struct {
	Valid    bool    `json:"valid"`
	Errors   []Issue `json:"errors,omitempty"`
	Warnings []Issue `json:"warnings,omitempty"`
}

// Issue describes a single validation error or warning.
type Issue struct {
	Category string `json:"category"`
	Message  string `json:"message"`
	Field    string `json:"field,omitempty"`
}

// Doctor validates a loaded configuration.
type Doctor struct {
	cfg     *config.Config
	inspect func(path string) (storage.HistoryLocation, error)
}

// New creates a Doctor from a loaded config.
func New(cfg *config.Config) *Doctor {
	return &Doctor{cfg: cfg, inspect: storage.InspectHistoryLocation}
}

// Validate runs all checks and returns a result.
func (d *Doctor) Validate() *Result {
	r := &Result{Valid: true}

	d.validateServiceConfig(r)
	d.validateFrontend(r)
	d.validateLiveEdit(r)
	d.warnDebuggerTuning(r)
	d.warnMissingEnvVars(r)

	r.Valid = len(r.Errors) == 0
	return r
}

func (d *Doctor) addError(r *Result, category, field, msg string) {
	r.Errors = append(r.Errors, Issue{Category: category, Field: field, Message: msg})
}

func (d *Doctor) addWarning(r *Result, category, field, msg string) {
	r.Warnings = append(r.Warnings, Issue{Category: category, Field: field, Message: msg})
}

func (d *Doctor) validateServiceConfig(r *Result) {
	if d.cfg.Service.LockPath == "" {
		d.addError(r, "service", "service.lock_path", "lock_path is required")
	}
	if d.cfg.Debugger.Target == config.TargetMemory {
		d.addWarning(r, "debugger", "debugger.target",
			"in-process memory engine selected; no real debuggee will be attached")
	}
}

// validateFrontend checks the listen address and warns when the front end is
// reachable beyond loopback without an api_key.
func (d *Doctor) validateFrontend(r *Result) {
	host, _, err := net.SplitHostPort(d.cfg.Frontend.Listen)
	if err != nil {
		d.addError(r, "frontend", "frontend.listen",
			fmt.Sprintf("invalid listen address %q: %v", d.cfg.Frontend.Listen, err))
		return
	}
	if d.cfg.Frontend.APIKey != "" {
		return
	}
	if !isLoopback(host) {
		d.addWarning(r, "frontend", "frontend.api_key",
			fmt.Sprintf("listening on %q without api_key; /events is unauthenticated", d.cfg.Frontend.Listen))
	}
}

func isLoopback(host string) bool {
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func (d *Doctor) validateLiveEdit(r *Result) {
	if !d.cfg.LiveEdit.Save {
		return
	}
	if d.cfg.LiveEdit.HistoryPath == "" {
		d.addError(r, "live_edit", "live_edit.history_path", "history_path is required when save is enabled")
		return
	}
	dir := filepath.Dir(d.cfg.LiveEdit.HistoryPath)
	if info, err := os.Stat(dir); err != nil {
		d.addWarning(r, "live_edit", "live_edit.history_path",
			fmt.Sprintf("directory %q does not exist yet; it will be created on start", dir))
	} else if !info.IsDir() {
		d.addError(r, "live_edit", "live_edit.history_path",
			fmt.Sprintf("%q is not a directory", dir))
		return
	}

	loc, err := d.inspect(d.cfg.LiveEdit.HistoryPath)
	switch {
	case err != nil:
		d.addWarning(r, "live_edit", "live_edit.history_path",
			fmt.Sprintf("cannot inspect filesystem: %v", err))
	case loc.Remote():
		d.addError(r, "live_edit", "live_edit.history_path",
			fmt.Sprintf("%q is on network filesystem %s; SQLite needs a local disk", loc.Path, loc.FSType))
	}
}

func (d *Doctor) warnDebuggerTuning(r *Result) {
	dbg := d.cfg.Debugger
	if skip := dbg.CallerSkipOrDefault(); skip > 10 {
		d.addWarning(r, "debugger", "debugger.caller_skip",
			fmt.Sprintf("caller_skip %d hides many frames; paused stacks may look empty", skip))
	}
	if dbg.StackTraceLimit > 500 {
		d.addWarning(r, "debugger", "debugger.stack_trace_limit",
			fmt.Sprintf("stack_trace_limit %d is very large", dbg.StackTraceLimit))
	}
	if dbg.RequestTimeout > 0 && dbg.ReadyTimeout > dbg.RequestTimeout {
		d.addWarning(r, "debugger", "debugger.ready_timeout",
			"ready_timeout exceeds request_timeout; enable will be cut short by the request deadline")
	}
	if !dbg.ClearOnConnect() {
		d.addWarning(r, "debugger", "debugger.clear_breakpoints_on_connect",
			"stale breakpoints from a previous bridge will stay armed")
	}
}

var envVarRe = regexp.MustCompile(`\$\{([A-Z_][A-Z0-9_]*)\}`)

// warnMissingEnvVars warns about ${VAR} references the loader left unexpanded.
func (d *Doctor) warnMissingEnvVars(r *Result) {
	fields := map[string]string{
		"frontend.api_key":       d.cfg.Frontend.APIKey,
		"debugger.target":        d.cfg.Debugger.Target,
		"live_edit.history_path": d.cfg.LiveEdit.HistoryPath,
	}
	for _, field := range []string{"debugger.target", "frontend.api_key", "live_edit.history_path"} {
		for _, m := range envVarRe.FindAllStringSubmatch(fields[field], -1) {
			if os.Getenv(m[1]) == "" {
				d.addWarning(r, "env_vars", field,
					fmt.Sprintf("environment variable ${%s} not set", m[1]))
			}
		}
	}
}

// FormatHuman returns a human-readable validation report.
func FormatHuman(r *Result) string {
	var b strings.Builder

	if r.Valid && len(r.Warnings) == 0 {
		b.WriteString("Configuration valid.\n")
		return b.String()
	}

	if r.Valid && len(r.Warnings) > 0 {
		b.WriteString("Configuration valid")
		fmt.Fprintf(&b, " (%d warning(s))\n", len(r.Warnings))
	}

	if !r.Valid {
		fmt.Fprintf(&b, "Configuration invalid (%d error(s), %d warning(s))\n", len(r.Errors), len(r.Warnings))
	}

	for _, e := range r.Errors {
		if e.Field != "" {
			fmt.Fprintf(&b, "  ERROR [%s] %s: %s\n", e.Category, e.Field, e.Message)
		} else {
			fmt.Fprintf(&b, "  ERROR [%s] %s\n", e.Category, e.Message)
		}
	}
	for _, w := range r.Warnings {
		if w.Field != "" {
			fmt.Fprintf(&b, "  WARN  [%s] %s: %s\n", w.Category, w.Field, w.Message)
		} else {
			fmt.Fprintf(&b, "  WARN  [%s] %s\n", w.Category, w.Message)
		}
	}

	return b.String()
}

// FormatJSON returns the result as indented JSON.
func FormatJSON(r *Result) (string, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
