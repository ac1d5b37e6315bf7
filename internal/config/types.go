package config

import "time"

// Config represents the complete debugbridge configuration.
type Config struct {
	Include  []string       `yaml:"include,omitempty"`
	Service  ServiceConfig  `yaml:"service"`
	Debugger DebuggerConfig `yaml:"debugger"`
	LiveEdit LiveEditConfig `yaml:"live_edit"`
	Frontend FrontendConfig `yaml:"frontend"`

	// SourcePath is the absolute path of the root config file.
	SourcePath string `yaml:"-"`
	// Fingerprint is the BLAKE3 hash of the root config file.
	Fingerprint string `yaml:"-"`
}

// ServiceConfig defines core process settings.
type ServiceConfig struct {
	Name      string `yaml:"name"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
	LockPath  string `yaml:"lock_path"`
}

// DebuggerConfig defines how the bridge reaches and drives the debuggee.
type DebuggerConfig struct {
	// Target is the websocket URL of the debuggee's backend host, or "memory"
	// for an in-process engine.
	Target                    string        `yaml:"target"`
	ReadyTimeout              time.Duration `yaml:"ready_timeout"`
	RequestTimeout            time.Duration `yaml:"request_timeout"`
	StackTraceLimit           int           `yaml:"stack_trace_limit"`
	CallerSkip                *int          `yaml:"caller_skip,omitempty"`
	ClearBreakpointsOnConnect *bool         `yaml:"clear_breakpoints_on_connect,omitempty"`
}

// LiveEditConfig controls persistence of sources edited through the bridge.
type LiveEditConfig struct {
	Save        bool   `yaml:"save"`
	HistoryPath string `yaml:"history_path"`
}

// FrontendConfig defines the front-end facing HTTP/websocket server.
type FrontendConfig struct {
	Listen string `yaml:"listen"`
	APIKey string `yaml:"api_key"`
}

// TargetMemory selects the in-process engine.
const TargetMemory = "memory"

// Defaults returns a Config with sensible defaults.
func Defaults() *Config {
	callerSkip := 3
	clear := true
	return &Config{
		Service: ServiceConfig{
			Name:      "debugbridge",
			LogLevel:  "info",
			LogFormat: "json",
			LockPath:  "./data/debugbridge.lock",
		},
		Debugger: DebuggerConfig{
			Target:                    "ws://127.0.0.1:5858/backend",
			ReadyTimeout:              10 * time.Second,
			RequestTimeout:            30 * time.Second,
			StackTraceLimit:           50,
			CallerSkip:                &callerSkip,
			ClearBreakpointsOnConnect: &clear,
		},
		LiveEdit: LiveEditConfig{
			Save:        false,
			HistoryPath: "./data/live_edit.db",
		},
		Frontend: FrontendConfig{
			Listen: "127.0.0.1:9229",
		},
	}
}

// CallerSkipOrDefault returns the configured caller skip.
func (d DebuggerConfig) CallerSkipOrDefault() int {
	if d.CallerSkip == nil {
		return 3
	}
	return *d.CallerSkip
}

// ClearOnConnect reports whether stale breakpoints are cleared on enable.
func (d DebuggerConfig) ClearOnConnect() bool {
	return d.ClearBreakpointsOnConnect == nil || *d.ClearBreakpointsOnConnect
}
