package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// ErrNetworkFilesystem marks a history database path whose locks SQLite
// cannot rely on.
var ErrNetworkFilesystem = errors.New("history database on a network filesystem")

var remoteFilesystems = []string{"9p", "afpfs", "cifs", "nfs", "nfs4", "smb2", "smbfs", "webdav"}

// HistoryLocation describes where the live-edit history database would live.
type HistoryLocation struct {
	// Path is the absolute database path.
	Path string
	// Anchor is the nearest existing ancestor of Path, the one inspected.
	Anchor string
	// FSType is empty when the platform cannot report it.
	FSType string
}

// Remote reports whether the location is on a network filesystem.
func (l HistoryLocation) Remote() bool {
	return slices.Contains(remoteFilesystems, strings.ToLower(strings.TrimSpace(l.FSType)))
}

// InspectHistoryLocation resolves path and names the filesystem it lands on.
// The database file and its directory need not exist yet.
func InspectHistoryLocation(path string) (HistoryLocation, error) {
	return inspectHistoryLocation(path, filesystemType)
}

// CheckHistoryLocation refuses history paths on network filesystems.
func CheckHistoryLocation(path string) error {
	return checkHistoryLocation(path, filesystemType)
}

func checkHistoryLocation(path string, fsType func(string) (string, error)) error {
	loc, err := inspectHistoryLocation(path, fsType)
	if err != nil {
		return err
	}
	if loc.Remote() {
		return fmt.Errorf("live edit history %q is on %s: %w; point live_edit.history_path at a local disk",
			path, loc.FSType, ErrNetworkFilesystem)
	}
	return nil
}

func inspectHistoryLocation(path string, fsType func(string) (string, error)) (HistoryLocation, error) {
	if path == "" {
		return HistoryLocation{}, fmt.Errorf("live edit history path is empty")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return HistoryLocation{}, fmt.Errorf("resolve history path %q: %w", path, err)
	}

	anchor := abs
	for {
		_, err := os.Stat(anchor)
		if err == nil {
			break
		}
		if !errors.Is(err, os.ErrNotExist) {
			return HistoryLocation{}, fmt.Errorf("stat %q: %w", anchor, err)
		}
		parent := filepath.Dir(anchor)
		if parent == anchor {
			return HistoryLocation{}, fmt.Errorf("no existing parent for history path %q", abs)
		}
		anchor = parent
	}

	loc := HistoryLocation{Path: abs, Anchor: anchor}
	loc.FSType, err = fsType(anchor)
	if errors.Is(err, errors.ErrUnsupported) {
		return loc, nil
	}
	if err != nil {
		return HistoryLocation{}, fmt.Errorf("filesystem of %q: %w", anchor, err)
	}
	return loc, nil
}
