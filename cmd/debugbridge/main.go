package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"runtime/debug"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mattjoyce/debugbridge/internal/config"
	"github.com/mattjoyce/debugbridge/internal/inspect"
	"github.com/mattjoyce/debugbridge/internal/scriptstore"
	"github.com/mattjoyce/debugbridge/internal/storage"
	"github.com/mattjoyce/debugbridge/internal/tui"
)

var (
	version   = "0.1.0-dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	os.Exit(runCLI(os.Args[1:]))
}

func runCLI(cliArgs []string) int {
	if len(cliArgs) < 1 {
		printUsage()
		return 1
	}

	cmd := cliArgs[0]
	args := cliArgs[1:]

	if cmd == "--version" {
		return runVersion(args)
	}

	switch cmd {
	// --- NOUNS ---
	case "system":
		return runSystemNoun(args)
	case "config":
		return runConfigNoun(args)
	case "history":
		return runHistoryNoun(args)

	// --- ROOT ALIASES ---
	case "start":
		return runStart(args)
	case "version":
		return runVersion(args)
	case "help", "--help", "-h":
		printUsage()
		return 0

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		return 1
	}
}

type versionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
}

func runVersion(args []string) int {
	fs := flag.NewFlagSet("version", flag.ContinueOnError)
	jsonOut := fs.Bool("json", false, "Output version metadata as JSON")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}
	if fs.NArg() > 0 {
		fmt.Fprintln(os.Stderr, "Usage: debugbridge version [--json]")
		return 1
	}

	info := currentVersionInfo()

	if *jsonOut {
		data, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to render version JSON: %v\n", err)
			return 1
		}
		fmt.Println(string(data))
		return 0
	}

	fmt.Printf("debugbridge %s\n", info.Version)
	fmt.Printf("commit: %s\n", info.Commit)
	fmt.Printf("built_at: %s\n", info.BuildTime)
	return 0
}

func currentVersionInfo() versionInfo {
	info := versionInfo{
		Version:   strings.TrimSpace(version),
		Commit:    "unknown",
		BuildTime: "unknown",
	}
	if info.Version == "" {
		info.Version = "0.0.0-dev"
	}

	commit := strings.TrimSpace(gitCommit)
	if commit == "" || commit == "unknown" {
		commit = strings.TrimSpace(readBuildSetting("vcs.revision"))
	}
	if commit != "" {
		info.Commit = shortenCommit(commit)
	}

	built := strings.TrimSpace(buildDate)
	if built == "" || built == "unknown" {
		built = strings.TrimSpace(readBuildSetting("vcs.time"))
	}
	if normalized, ok := normalizeBuildTimeUTC(built); ok {
		info.BuildTime = normalized
	}
	return info
}

func shortenCommit(commit string) string {
	if len(commit) <= 12 {
		return commit
	}
	return commit[:12]
}

func normalizeBuildTimeUTC(raw string) (string, bool) {
	if raw == "" || raw == "unknown" {
		return "", false
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return "", false
	}
	return t.UTC().Format(time.RFC3339), true
}

func readBuildSetting(key string) string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, setting := range info.Settings {
		if setting.Key == key {
			return setting.Value
		}
	}
	return ""
}

func printUsage() {
	fmt.Print(`debugbridge - Debugging protocol bridge between a DevTools front end and a script engine

Usage:
  debugbridge <noun> <action> [flags]

Core Resources (Nouns):
  system    Bridge lifecycle and health
  config    Configuration and integrity
  history   Live-edit history

System Commands:
  system start      Start the bridge in the foreground
  system status     Show config, history database and PID lock health
  system monitor    Real-time TUI dashboard

Config Commands:
  config check      Validate syntax, settings and integrity
  config lock       Authorize current state (update integrity hashes)
  config show       Print the effective configuration

History Commands:
  history inspect <path>  Show saved live edits of a source file

General:
  --version         Show version information
  version           Show version information
  help              Show this help message

Use 'debugbridge <noun> help' for resource-specific flags.
`)
}

// --- NOUN DISPATCHERS ---

func runSystemNoun(args []string) int {
	if len(args) < 1 {
		printSystemNounHelp(os.Stderr)
		return 1
	}
	if isHelpToken(args[0]) {
		printSystemNounHelp(os.Stdout)
		return 0
	}

	action := args[0]
	actionArgs := args[1:]

	switch action {
	case "start":
		if hasHelpFlag(actionArgs) {
			printSystemStartHelp()
			return 0
		}
		return runStart(actionArgs)
	case "status":
		if hasHelpFlag(actionArgs) {
			printSystemStatusHelp()
			return 0
		}
		return runSystemStatus(actionArgs)
	case "monitor":
		if hasHelpFlag(actionArgs) {
			printSystemMonitorHelp()
			return 0
		}
		return runMonitor(actionArgs)
	default:
		fmt.Fprintf(os.Stderr, "Unknown system action: %s\n", action)
		printSystemNounHelp(os.Stderr)
		return 1
	}
}

func runConfigNoun(args []string) int {
	if len(args) < 1 {
		printConfigNounHelp(os.Stderr)
		return 1
	}
	if isHelpToken(args[0]) {
		printConfigNounHelp(os.Stdout)
		return 0
	}

	action := args[0]
	actionArgs := args[1:]

	switch action {
	case "check":
		if hasHelpFlag(actionArgs) {
			printConfigCheckHelp()
			return 0
		}
		return runConfigCheck(actionArgs)
	case "lock":
		if hasHelpFlag(actionArgs) {
			printConfigLockHelp()
			return 0
		}
		return runConfigLock(actionArgs)
	case "show":
		if hasHelpFlag(actionArgs) {
			printConfigShowHelp()
			return 0
		}
		return runConfigShow(actionArgs)
	default:
		fmt.Fprintf(os.Stderr, "Unknown config action: %s\n", action)
		return 1
	}
}

func runHistoryNoun(args []string) int {
	if len(args) < 1 {
		printHistoryNounHelp(os.Stderr)
		return 1
	}
	if isHelpToken(args[0]) {
		printHistoryNounHelp(os.Stdout)
		return 0
	}

	action := args[0]
	actionArgs := args[1:]

	switch action {
	case "inspect":
		if hasHelpFlag(actionArgs) {
			printHistoryInspectHelp()
			return 0
		}
		return runHistoryInspect(actionArgs)
	default:
		fmt.Fprintf(os.Stderr, "Unknown history action: %s\n", action)
		return 1
	}
}

func isHelpToken(token string) bool {
	return token == "help" || token == "--help" || token == "-h"
}

func hasHelpFlag(args []string) bool {
	for _, arg := range args {
		if arg == "--help" || arg == "-h" {
			return true
		}
	}
	return false
}

func printSystemNounHelp(w *os.File) {
	fmt.Fprintln(w, "Usage: debugbridge system <action>")
	fmt.Fprintln(w, "Actions: start, status, monitor")
}

func printConfigNounHelp(w *os.File) {
	fmt.Fprintln(w, "Usage: debugbridge config <action> [flags]")
	fmt.Fprintln(w, "Actions: check, lock, show")
}

func printHistoryNounHelp(w *os.File) {
	fmt.Fprintln(w, "Usage: debugbridge history <action>")
	fmt.Fprintln(w, "Actions: inspect")
}

func printSystemStartHelp() {
	fmt.Println("Usage: debugbridge system start [--config PATH]")
	fmt.Println("Start the bridge in the foreground.")
}

func printSystemStatusHelp() {
	fmt.Println("Usage: debugbridge system status [--config PATH] [--json]")
	fmt.Println("Show bridge health (config, history database and PID lock state).")
	fmt.Println("")
	fmt.Println("Exit codes:")
	fmt.Println("  0  All required checks passed")
	fmt.Println("  1  One or more checks failed")
}

func printSystemMonitorHelp() {
	fmt.Println("Usage: debugbridge system monitor [--api-url URL] [--api-key KEY]")
	fmt.Println("Launch the real-time TUI dashboard.")
}

func printConfigCheckHelp() {
	fmt.Println("Usage: debugbridge config check [--config PATH] [--json] [--strict]")
	fmt.Println("Validate configuration. Exit 1 on errors, 2 on warnings with --strict.")
}

func printConfigLockHelp() {
	fmt.Println("Usage: debugbridge config lock [--config PATH] [-v]")
	fmt.Println("Write .checksums for the config file and its includes.")
}

func printConfigShowHelp() {
	fmt.Println("Usage: debugbridge config show [--config PATH]")
	fmt.Println("Print the effective configuration with secrets masked.")
}

func printHistoryInspectHelp() {
	fmt.Println("Usage: debugbridge history inspect <path> [--config PATH] [--json]")
	fmt.Println("Show saved live edits of a source file and whether it drifted since.")
}

func runMonitor(args []string) int {
	fs := flag.NewFlagSet("monitor", flag.ExitOnError)
	apiURL := fs.String("api-url", "http://127.0.0.1:9229", "Bridge API URL")
	apiKey := fs.String("api-key", os.Getenv("DEBUGBRIDGE_API_KEY"), "API Bearer Token")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}

	m := tui.NewMonitor(*apiURL, *apiKey)
	p := tea.NewProgram(m)
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "TUI error: %v\n", err)
		return 1
	}
	return 0
}

func runHistoryInspect(args []string) int {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to configuration file or directory")
	jsonOut := fs.Bool("json", false, "Output as JSON")

	path, rest := splitPositional(args)
	if err := fs.Parse(rest); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}
	if path == "" && fs.NArg() == 1 {
		path = fs.Arg(0)
	}
	if path == "" {
		fmt.Fprintln(os.Stderr, "Usage: debugbridge history inspect <path> [--config PATH] [--json]")
		return 1
	}

	cfg, err := loadConfigForTool(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	ctx := context.Background()
	db, err := storage.OpenSQLite(ctx, cfg.LiveEdit.HistoryPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open history database: %v\n", err)
		return 1
	}
	defer db.Close()

	store := scriptstore.New(db)
	var out string
	if *jsonOut {
		out, err = inspect.BuildJSONReport(ctx, store, path)
	} else {
		out, err = inspect.BuildReport(ctx, store, path)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Inspect failed: %v\n", err)
		return 1
	}
	fmt.Print(out)
	if *jsonOut {
		fmt.Println()
	}
	return 0
}

// splitPositional lifts a leading positional argument out of args so flags may
// follow it.
func splitPositional(args []string) (string, []string) {
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		return args[0], args[1:]
	}
	return "", args
}

// loadConfigForTool resolves configPath (discovering it when empty) and loads it.
func loadConfigForTool(configPath string) (*config.Config, error) {
	if configPath == "" {
		discovered, err := config.DiscoverConfigPath()
		if err != nil {
			return nil, err
		}
		configPath = discovered
	}
	return config.Load(configPath)
}
