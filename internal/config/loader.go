package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"gopkg.in/yaml.v3"
)

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Load reads and parses configuration from a file or a directory containing
// config.yaml. Files listed under include are merged in order.
func Load(configPath string) (*Config, error) {
	// Resolve to absolute path for consistent relative path resolution
	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path %q: %w", configPath, err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("config file not found: %s\n"+
			"Hint: Check the path or run with --config flag", absPath)
	}
	if info.IsDir() {
		absPath = filepath.Join(absPath, "config.yaml")
		if _, err := os.Stat(absPath); err != nil {
			return nil, fmt.Errorf("directory provided but config.yaml not found: %s", absPath)
		}
	}

	cfg, err := loadConfigFile(absPath)
	if err != nil {
		return nil, err
	}

	var includedPaths []string
	if len(cfg.Include) > 0 {
		visited := map[string]bool{absPath: true}
		if err := loadIncludes(cfg, cfg.Include, filepath.Dir(absPath), visited); err != nil {
			return nil, err
		}
		for path := range visited {
			if path != absPath {
				includedPaths = append(includedPaths, path)
			}
		}
		sort.Strings(includedPaths)
	}

	cfg = applyConfigDefaults(cfg)

	// Hash-verify all configuration files (root config + all includes)
	if err := verifyAllConfigHashes(append([]string{absPath}, includedPaths...)); err != nil {
		return nil, err
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	cfg.SourcePath = absPath
	cfg.Fingerprint, err = ComputeBlake3Hash(absPath)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// ConfigFiles returns the absolute paths of the root config and every file in
// its include tree, sorted.
func ConfigFiles(configPath string) ([]string, error) {
	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path %q: %w", configPath, err)
	}
	if info, err := os.Stat(absPath); err == nil && info.IsDir() {
		absPath = filepath.Join(absPath, "config.yaml")
	}

	cfg, err := loadConfigFile(absPath)
	if err != nil {
		return nil, err
	}

	visited := map[string]bool{absPath: true}
	if err := loadIncludes(cfg, cfg.Include, filepath.Dir(absPath), visited); err != nil {
		return nil, err
	}

	files := make([]string, 0, len(visited))
	for f := range visited {
		files = append(files, f)
	}
	sort.Strings(files)
	return files, nil
}

// loadIncludes recursively loads and merges files from the include array.
// visited tracks loaded files to prevent cycles.
func loadIncludes(cfg *Config, includes []string, baseDir string, visited map[string]bool) error {
	for i, includePath := range includes {
		includePath = interpolateEnv(includePath)

		resolvedPath := includePath
		if !filepath.IsAbs(includePath) {
			resolvedPath = filepath.Join(baseDir, includePath)
		}
		absPath, err := filepath.Abs(resolvedPath)
		if err != nil {
			return fmt.Errorf("include[%d]: failed to resolve path %q: %w", i, includePath, err)
		}

		if visited[absPath] {
			return fmt.Errorf("include[%d]: circular dependency detected: %s", i, absPath)
		}

		if _, err := os.Stat(absPath); err != nil {
			if os.IsNotExist(err) {
				return fmt.Errorf("include[%d]: file not found: %s\n"+
					"Referenced from: %s\n"+
					"Hint: Check the path is correct and the file exists", i, absPath, baseDir)
			}
			return fmt.Errorf("include[%d]: failed to access file %s: %w", i, absPath, err)
		}
		visited[absPath] = true

		includedCfg, err := loadConfigFile(absPath)
		if err != nil {
			return fmt.Errorf("include[%d] (%s): %w", i, includePath, err)
		}
		deepMergeConfig(cfg, includedCfg)

		if len(includedCfg.Include) > 0 {
			if err := loadIncludes(cfg, includedCfg.Include, filepath.Dir(absPath), visited); err != nil {
				return err
			}
		}
	}
	return nil
}

// loadConfigFile loads and parses a single config file without defaults.
func loadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal([]byte(interpolateEnv(string(data))), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return &cfg, nil
}

// deepMergeConfig merges src into dst, with src taking precedence for non-zero values.
func deepMergeConfig(dst, src *Config) {
	if src.Service.Name != "" {
		dst.Service.Name = src.Service.Name
	}
	if src.Service.LogLevel != "" {
		dst.Service.LogLevel = src.Service.LogLevel
	}
	if src.Service.LogFormat != "" {
		dst.Service.LogFormat = src.Service.LogFormat
	}
	if src.Service.LockPath != "" {
		dst.Service.LockPath = src.Service.LockPath
	}

	if src.Debugger.Target != "" {
		dst.Debugger.Target = src.Debugger.Target
	}
	if src.Debugger.ReadyTimeout != 0 {
		dst.Debugger.ReadyTimeout = src.Debugger.ReadyTimeout
	}
	if src.Debugger.RequestTimeout != 0 {
		dst.Debugger.RequestTimeout = src.Debugger.RequestTimeout
	}
	if src.Debugger.StackTraceLimit != 0 {
		dst.Debugger.StackTraceLimit = src.Debugger.StackTraceLimit
	}
	if src.Debugger.CallerSkip != nil {
		dst.Debugger.CallerSkip = src.Debugger.CallerSkip
	}
	if src.Debugger.ClearBreakpointsOnConnect != nil {
		dst.Debugger.ClearBreakpointsOnConnect = src.Debugger.ClearBreakpointsOnConnect
	}

	if src.LiveEdit.Save {
		dst.LiveEdit.Save = true
	}
	if src.LiveEdit.HistoryPath != "" {
		dst.LiveEdit.HistoryPath = src.LiveEdit.HistoryPath
	}

	if src.Frontend.Listen != "" {
		dst.Frontend.Listen = src.Frontend.Listen
	}
	if src.Frontend.APIKey != "" {
		dst.Frontend.APIKey = src.Frontend.APIKey
	}
}

func verifyAllConfigHashes(paths []string) error {
	// Group paths by directory to avoid loading the same checksums file multiple times
	dirToFiles := make(map[string][]string)
	for _, path := range paths {
		dir := filepath.Dir(path)
		dirToFiles[dir] = append(dirToFiles[dir], path)
	}

	for dir, files := range dirToFiles {
		checksums, err := LoadChecksums(dir)
		if err != nil {
			// If .checksums is missing, we skip verification for this directory.
			continue
		}

		for _, path := range files {
			basename := filepath.Base(path)
			expectedHash, ok := checksums.Hashes[basename]
			if !ok {
				return fmt.Errorf("config file %s has no hash in checksums at %s\n"+
					"Run: debugbridge config lock --config %s", basename, dir, dir)
			}

			if err := VerifyFileHash(path, expectedHash); err != nil {
				return fmt.Errorf("config verification failed for %s: %w\n"+
					"If you edited this file intentionally, run: debugbridge config lock --config %s", path, err, dir)
			}
		}
	}
	return nil
}

// applyConfigDefaults merges default values into config where not explicitly set.
func applyConfigDefaults(cfg *Config) *Config {
	defaults := Defaults()

	if cfg.Service.Name == "" {
		cfg.Service.Name = defaults.Service.Name
	}
	if cfg.Service.LogLevel == "" {
		cfg.Service.LogLevel = defaults.Service.LogLevel
	}
	if cfg.Service.LogFormat == "" {
		cfg.Service.LogFormat = defaults.Service.LogFormat
	}
	if cfg.Service.LockPath == "" {
		cfg.Service.LockPath = defaults.Service.LockPath
	}

	if cfg.Debugger.Target == "" {
		cfg.Debugger.Target = defaults.Debugger.Target
	}
	if cfg.Debugger.ReadyTimeout == 0 {
		cfg.Debugger.ReadyTimeout = defaults.Debugger.ReadyTimeout
	}
	if cfg.Debugger.RequestTimeout == 0 {
		cfg.Debugger.RequestTimeout = defaults.Debugger.RequestTimeout
	}
	if cfg.Debugger.StackTraceLimit == 0 {
		cfg.Debugger.StackTraceLimit = defaults.Debugger.StackTraceLimit
	}
	if cfg.Debugger.CallerSkip == nil {
		cfg.Debugger.CallerSkip = defaults.Debugger.CallerSkip
	}
	if cfg.Debugger.ClearBreakpointsOnConnect == nil {
		cfg.Debugger.ClearBreakpointsOnConnect = defaults.Debugger.ClearBreakpointsOnConnect
	}

	if cfg.LiveEdit.HistoryPath == "" {
		cfg.LiveEdit.HistoryPath = defaults.LiveEdit.HistoryPath
	}

	if cfg.Frontend.Listen == "" {
		cfg.Frontend.Listen = defaults.Frontend.Listen
	}
	return cfg
}

// interpolateEnv replaces ${VAR} with environment variable values.
// Undefined variables are left as-is (not expanded).
func interpolateEnv(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		if value, exists := os.LookupEnv(varName); exists {
			return value
		}
		// If not found, leave the placeholder (will fail validation if required)
		return match
	})
}

// validate performs basic validation on the configuration.
func validate(cfg *Config) error {
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[cfg.Service.LogLevel] {
		return fmt.Errorf("service.log_level must be one of: debug, info, warn, error (got %q)", cfg.Service.LogLevel)
	}
	if cfg.Service.LogFormat != "json" && cfg.Service.LogFormat != "text" {
		return fmt.Errorf("service.log_format must be json or text (got %q)", cfg.Service.LogFormat)
	}

	if cfg.Debugger.Target != TargetMemory {
		u, err := url.Parse(cfg.Debugger.Target)
		if err != nil || (u.Scheme != "ws" && u.Scheme != "wss") || u.Host == "" {
			return fmt.Errorf("debugger.target must be a ws:// or wss:// URL or %q (got %q)", TargetMemory, cfg.Debugger.Target)
		}
	}
	if cfg.Debugger.ReadyTimeout <= 0 {
		return fmt.Errorf("debugger.ready_timeout must be positive")
	}
	if cfg.Debugger.RequestTimeout <= 0 {
		return fmt.Errorf("debugger.request_timeout must be positive")
	}
	if cfg.Debugger.StackTraceLimit <= 0 {
		return fmt.Errorf("debugger.stack_trace_limit must be positive")
	}
	if cfg.Debugger.CallerSkip != nil && *cfg.Debugger.CallerSkip < 0 {
		return fmt.Errorf("debugger.caller_skip must not be negative")
	}

	if cfg.LiveEdit.Save && cfg.LiveEdit.HistoryPath == "" {
		return fmt.Errorf("live_edit.history_path is required when live_edit.save is enabled")
	}

	if cfg.Frontend.Listen == "" {
		return fmt.Errorf("frontend.listen is required")
	}
	if envVarPattern.MatchString(cfg.Frontend.APIKey) {
		matches := envVarPattern.FindStringSubmatch(cfg.Frontend.APIKey)
		return fmt.Errorf("frontend.api_key: environment variable ${%s} is not set", matches[1])
	}
	return nil
}
