// Package scripts keeps the bridge-side inventory of scripts loaded in the
// debuggee. The inventory is rebuilt from scratch on every enable.
package scripts

import (
	"fmt"
	"net/url"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/mattjoyce/debugbridge/internal/protocol"
)

// Registry is a concurrency-safe script inventory keyed by script id.
type Registry struct {
	mu     sync.RWMutex
	byID   map[int]protocol.Script
	byPath map[string]int
}

func NewRegistry() *Registry {
	return &Registry{
		byID:   make(map[int]protocol.Script),
		byPath: make(map[string]int),
	}
}

// Reset drops every known script.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID = make(map[int]protocol.Script)
	r.byPath = make(map[string]int)
}

// Add records a script, replacing any previous record with the same id.
func (r *Registry) Add(s protocol.Script) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, ok := r.byID[s.ID]; ok && prev.Name != "" {
		delete(r.byPath, prev.Name)
	}
	r.byID[s.ID] = s
	if s.Name != "" {
		r.byPath[s.Name] = s.ID
	}
}

// FindByID returns the script with the given id.
func (r *Registry) FindByID(id int) (protocol.Script, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byID[id]
	return s, ok
}

// FindByPath returns the most recently added script with the given name.
func (r *Registry) FindByPath(path string) (protocol.Script, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byPath[path]
	if !ok {
		return protocol.Script{}, false
	}
	return r.byID[id], true
}

// All returns every script ordered by id.
func (r *Registry) All() []protocol.Script {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]protocol.Script, 0, len(r.byID))
	for _, s := range r.byID {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len returns the number of known scripts.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

// Source returns the cached source text of a script.
func (r *Registry) Source(id int) (string, error) {
	s, ok := r.FindByID(id)
	if !ok {
		return "", fmt.Errorf("script %d: %w", id, protocol.ErrNotFound)
	}
	return s.Source, nil
}

// OnDisk reports whether a script name looks like a file path, i.e. the script
// was loaded from a file rather than evaluated from a string.
func OnDisk(name string) bool {
	return name != "" && strings.ContainsRune(name, filepath.Separator)
}

// URLToName converts a front-end URL into the engine's script name.
// file:// URLs become plain paths; everything else is returned unchanged.
func URLToName(raw string) string {
	if !strings.HasPrefix(raw, "file://") {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return strings.TrimPrefix(raw, "file://")
	}
	return filepath.FromSlash(u.Path)
}

// NameToURL converts an engine script name into the URL shown by the front end.
func NameToURL(name string) string {
	if !OnDisk(name) || !filepath.IsAbs(name) {
		return name
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(name)}).String()
}
