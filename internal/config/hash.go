package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/zeebo/blake3"
	"gopkg.in/yaml.v3"
)

// ChecksumManifest is the on-disk .checksums file of a config directory.
type ChecksumManifest struct {
	Version     int               `yaml:"version"`
	GeneratedAt string            `yaml:"generated_at"`
	Hashes      map[string]string `yaml:"hashes"`
}

// HashUpdateFileResult captures checksum generation outcome for one config file.
type HashUpdateFileResult struct {
	Filename string
	Path     string
	Exists   bool
	Hash     string
}

// HashUpdateReport captures checksum generation details for a config directory.
type HashUpdateReport struct {
	ConfigDir    string
	ChecksumPath string
	Written      bool
	Files        []HashUpdateFileResult
}

// ComputeBlake3Hash computes the BLAKE3 hash of a file.
func ComputeBlake3Hash(filePath string) (string, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	hash := blake3.Sum256(data)
	return hex.EncodeToString(hash[:]), nil
}

// VerifyFileHash verifies a file against an expected BLAKE3 hash.
func VerifyFileHash(filePath, expectedHash string) error {
	actualHash, err := ComputeBlake3Hash(filePath)
	if err != nil {
		return fmt.Errorf("failed to compute hash: %w", err)
	}

	if actualHash != expectedHash {
		return fmt.Errorf("hash mismatch for %s: expected %s, got %s",
			filepath.Base(filePath), expectedHash, actualHash)
	}

	return nil
}

// GenerateChecksums computes BLAKE3 hashes for config files and writes .checksums.
func GenerateChecksums(configDir string, files []string) error {
	_, err := GenerateChecksumsWithReport(configDir, files, false)
	return err
}

// GenerateChecksumsWithReport computes config file hashes and optionally writes .checksums.
// When dryRun is true, it computes hashes and returns report details without writing files.
func GenerateChecksumsWithReport(configDir string, files []string, dryRun bool) (*HashUpdateReport, error) {
	manifest := ChecksumManifest{
		Version:     1,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Hashes:      make(map[string]string),
	}

	report := &HashUpdateReport{
		ConfigDir:    configDir,
		ChecksumPath: filepath.Join(configDir, ".checksums"),
		Files:        make([]HashUpdateFileResult, 0, len(files)),
	}

	for _, filename := range files {
		filePath := filepath.Join(configDir, filename)

		// Skip if file doesn't exist (optional files)
		if _, err := os.Stat(filePath); os.IsNotExist(err) {
			report.Files = append(report.Files, HashUpdateFileResult{
				Filename: filename,
				Path:     filePath,
			})
			continue
		}

		hash, err := ComputeBlake3Hash(filePath)
		if err != nil {
			return nil, fmt.Errorf("failed to hash %s: %w", filename, err)
		}

		manifest.Hashes[filename] = hash
		report.Files = append(report.Files, HashUpdateFileResult{
			Filename: filename,
			Path:     filePath,
			Exists:   true,
			Hash:     hash,
		})
	}

	if dryRun {
		return report, nil
	}

	data, err := yaml.Marshal(manifest)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal checksums: %w", err)
	}

	// Write with restrictive permissions (contains expected hashes)
	if err := os.WriteFile(report.ChecksumPath, data, 0600); err != nil {
		return nil, fmt.Errorf("failed to write checksums: %w", err)
	}
	report.Written = true

	return report, nil
}

// LoadChecksums reads the .checksums file from a config directory.
func LoadChecksums(configDir string) (*ChecksumManifest, error) {
	checksumPath := filepath.Join(configDir, ".checksums")

	data, err := os.ReadFile(checksumPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("checksums file not found (run 'debugbridge config lock')")
		}
		return nil, fmt.Errorf("failed to read checksums: %w", err)
	}

	var manifest ChecksumManifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse checksums: %w", err)
	}

	if manifest.Version != 1 {
		return nil, fmt.Errorf("unsupported checksums version: %d", manifest.Version)
	}

	return &manifest, nil
}

// Lock writes .checksums for every file in the include tree of configPath,
// one manifest per directory.
func Lock(configPath string) ([]*HashUpdateReport, error) {
	files, err := ConfigFiles(configPath)
	if err != nil {
		return nil, err
	}

	byDir := make(map[string][]string)
	var dirs []string
	for _, f := range files {
		dir := filepath.Dir(f)
		if _, ok := byDir[dir]; !ok {
			dirs = append(dirs, dir)
		}
		byDir[dir] = append(byDir[dir], filepath.Base(f))
	}

	reports := make([]*HashUpdateReport, 0, len(dirs))
	for _, dir := range dirs {
		report, err := GenerateChecksumsWithReport(dir, byDir[dir], false)
		if err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}
	return reports, nil
}
