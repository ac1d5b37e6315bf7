package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"syscall"

	"gopkg.in/yaml.v3"

	"github.com/mattjoyce/debugbridge/internal/config"
	"github.com/mattjoyce/debugbridge/internal/doctor"
	"github.com/mattjoyce/debugbridge/internal/lock"
	"github.com/mattjoyce/debugbridge/internal/storage"
)

func runConfigCheck(args []string) int {
	var configPath string
	var strict, jsonOut bool

	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	fs.StringVar(&configPath, "config", "", "Path to configuration")
	fs.BoolVar(&strict, "strict", false, "Treat warnings as errors")
	fs.BoolVar(&jsonOut, "json", false, "Output in JSON")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}

	cfg, err := loadConfigForTool(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config load error: %v\n", err)
		return 1
	}

	result := doctor.New(cfg).Validate()
	if jsonOut {
		out, err := doctor.FormatJSON(result)
		if err != nil {
			fmt.Fprintf(os.Stderr, "JSON format error: %v\n", err)
			return 1
		}
		fmt.Println(out)
	} else {
		fmt.Print(doctor.FormatHuman(result))
	}

	if !result.Valid {
		return 1
	}
	if strict && len(result.Warnings) > 0 {
		return 2
	}
	return 0
}

func runConfigLock(args []string) int {
	var configPath string
	var verbose, verboseShort bool

	fs := flag.NewFlagSet("lock", flag.ContinueOnError)
	fs.StringVar(&configPath, "config", "", "Path to configuration")
	fs.BoolVar(&verbose, "verbose", false, "Verbose output")
	fs.BoolVar(&verboseShort, "v", false, "Verbose output")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}

	if configPath == "" {
		discovered, err := config.DiscoverConfigPath()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to discover config: %v\n", err)
			return 1
		}
		configPath = discovered
	}

	reports, err := config.Lock(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to lock config: %v\n", err)
		return 1
	}

	files := 0
	for _, report := range reports {
		if verbose || verboseShort {
			fmt.Printf("Processing directory: %s\n", report.ConfigDir)
			for _, f := range report.Files {
				if f.Exists {
					fmt.Printf("  HASH %s %s\n", f.Hash[:16], f.Filename)
				} else {
					fmt.Printf("  SKIP %s (missing)\n", f.Filename)
				}
			}
			fmt.Printf("  WROTE .checksums: %s\n", report.ChecksumPath)
		}
		files += len(report.Files)
	}
	fmt.Printf("Locked %d file(s) in %d director(ies).\n", files, len(reports))
	return 0
}

func runConfigShow(args []string) int {
	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to configuration")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}

	cfg, err := loadConfigForTool(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config load error: %v\n", err)
		return 1
	}

	shown := *cfg
	shown.Include = nil
	if shown.Frontend.APIKey != "" {
		shown.Frontend.APIKey = "********"
	}

	out, err := yaml.Marshal(&shown)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to render config: %v\n", err)
		return 1
	}
	fmt.Printf("# source: %s\n# fingerprint: %s\n", cfg.SourcePath, cfg.Fingerprint)
	fmt.Print(string(out))
	return 0
}

type statusCheck struct {
	Name      string `json:"name"`
	OK        bool   `json:"ok"`
	Detail    string `json:"detail,omitempty"`
	ActivePID int    `json:"active_pid,omitempty"`
}

type statusReport struct {
	Healthy    bool          `json:"healthy"`
	ConfigPath string        `json:"config_path,omitempty"`
	Checks     []statusCheck `json:"checks"`
}

func runSystemStatus(args []string) int {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to configuration file or directory")
	jsonOut := fs.Bool("json", false, "Output as JSON")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}

	report := buildStatusReport(*configPath)

	if *jsonOut {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to render status JSON: %v\n", err)
			return 1
		}
		fmt.Println(string(data))
	} else {
		for _, c := range report.Checks {
			state := "OK"
			if !c.OK {
				state = "FAIL"
			}
			if c.Detail != "" {
				fmt.Printf("%s: %s (%s)\n", c.Name, state, c.Detail)
			} else {
				fmt.Printf("%s: %s\n", c.Name, state)
			}
		}
	}

	if !report.Healthy {
		return 1
	}
	return 0
}

func buildStatusReport(configPath string) statusReport {
	report := statusReport{Healthy: true}
	add := func(c statusCheck) {
		report.Checks = append(report.Checks, c)
		if !c.OK {
			report.Healthy = false
		}
	}

	cfg, err := loadConfigForTool(configPath)
	if err != nil {
		add(statusCheck{Name: "config_load", Detail: err.Error()})
		add(statusCheck{Name: "config_valid", Detail: "config not loaded"})
		add(statusCheck{Name: "history_db", Detail: "config not loaded"})
		add(statusCheck{Name: "pid_lock", Detail: "config not loaded"})
		return report
	}
	report.ConfigPath = cfg.SourcePath
	add(statusCheck{Name: "config_load", OK: true})

	result := doctor.New(cfg).Validate()
	valid := statusCheck{Name: "config_valid", OK: result.Valid}
	if !result.Valid {
		valid.Detail = fmt.Sprintf("%d error(s)", len(result.Errors))
	} else if len(result.Warnings) > 0 {
		valid.Detail = fmt.Sprintf("%d warning(s)", len(result.Warnings))
	}
	add(valid)

	add(checkHistoryDB(cfg))
	add(checkPIDLock(cfg.Service.LockPath))
	return report
}

func checkHistoryDB(cfg *config.Config) statusCheck {
	c := statusCheck{Name: "history_db"}
	if !cfg.LiveEdit.Save {
		c.OK = true
		c.Detail = "live edit saving disabled"
		return c
	}
	db, err := storage.OpenSQLite(context.Background(), cfg.LiveEdit.HistoryPath)
	if err != nil {
		c.Detail = err.Error()
		return c
	}
	defer db.Close()
	c.OK = true
	c.Detail = cfg.LiveEdit.HistoryPath
	return c
}

// checkPIDLock fails when the lock file names a live process.
func checkPIDLock(lockPath string) statusCheck {
	c := statusCheck{Name: "pid_lock"}
	pid, err := lock.ReadPID(lockPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		c.OK = true
		c.Detail = "not held"
	case err != nil:
		c.Detail = err.Error()
	case processAlive(pid):
		c.ActivePID = pid
		c.Detail = fmt.Sprintf("held by pid %d", pid)
	default:
		c.OK = true
		c.Detail = fmt.Sprintf("stale lock file (pid %d)", pid)
	}
	return c
}

func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := syscall.Kill(pid, 0)
	return err == nil || errors.Is(err, syscall.EPERM)
}
