package dispatch

import (
	"fmt"
	"regexp"
	"slices"
	"sort"
	"strconv"

	"github.com/mattjoyce/debugbridge/internal/protocol"
	"github.com/mattjoyce/debugbridge/internal/scripts"
)

// breakpointCookie is the registered form of a logical breakpoint.
type breakpointCookie struct {
	URL       string
	IsRegex   bool
	Line      int
	Column    int
	Condition string
	Enabled   bool
}

// SetBreakpointResult is the body of Debugger.setBreakpointByUrl.
type SetBreakpointResult struct {
	BreakpointID string              `json:"breakpointId"`
	Locations    []protocol.Location `json:"locations"`
}

// BreakpointKey serializes a logical breakpoint identity.
func BreakpointKey(pattern string, isRegex bool, line, column int) string {
	if isRegex {
		pattern = "/" + pattern + "/"
	}
	return pattern + ":" + strconv.Itoa(line) + ":" + strconv.Itoa(column)
}

func (d *Dispatcher) setBreakpointByURL(c *Call) (Result, error) {
	url, err := c.String("url")
	if err != nil {
		return Result{}, err
	}
	urlRegex, err := c.String("urlRegex")
	if err != nil {
		return Result{}, err
	}

	// A present urlRegex always makes the breakpoint a regex one, even when
	// url is sent alongside it.
	pattern := url
	isRegex := urlRegex != ""
	if isRegex {
		pattern = urlRegex
	}
	if pattern == "" {
		return Result{}, fmt.Errorf("either url or urlRegex must be specified: %w", protocol.ErrInvalidArgument)
	}

	line, err := c.Int("lineNumber")
	if err != nil {
		return Result{}, err
	}
	column, err := c.Int("columnNumber")
	if err != nil {
		return Result{}, err
	}
	if column < 0 {
		return Result{}, fmt.Errorf("incorrect column number %d: %w", column, protocol.ErrInvalidArgument)
	}
	condition, err := c.String("condition")
	if err != nil {
		return Result{}, err
	}

	var re *regexp.Regexp
	if isRegex {
		re, err = regexp.Compile(pattern)
		if err != nil {
			return Result{}, fmt.Errorf("bad urlRegex %q: %v: %w", pattern, err, protocol.ErrInvalidArgument)
		}
	} else {
		pattern = scripts.URLToName(pattern)
	}

	key := BreakpointKey(pattern, isRegex, line, column)
	if _, exists := d.cookies[key]; exists {
		return Result{}, fmt.Errorf("breakpoint at specified location already exists: %w", protocol.ErrAlreadyExists)
	}

	d.cookies[key] = breakpointCookie{
		URL:       pattern,
		IsRegex:   isRegex,
		Line:      line,
		Column:    column,
		Condition: condition,
		Enabled:   true,
	}

	ids := make([]int, 0)
	locations := make([]protocol.Location, 0)
	for _, script := range d.debuggee.Scripts() {
		if !matches(script.Name, pattern, re) || !script.Covers(line) {
			continue
		}

		id, ok := d.debuggee.SetBreakpoint(BreakpointSpec{
			ScriptID:  script.ID,
			Line:      line,
			Column:    column,
			Condition: condition,
		})
		if !ok {
			d.logger.Debug("engine declined breakpoint", "breakpoint_id", key, "script_id", script.ID)
			continue
		}

		ids = append(ids, id)
		locations = append(locations, protocol.Location{
			ScriptID:     strconv.Itoa(script.ID),
			LineNumber:   line,
			ColumnNumber: column,
		})
	}
	d.physical[key] = ids

	d.logger.Info("breakpoint registered", "breakpoint_id", key, "locations", len(locations))
	return Result{Body: SetBreakpointResult{BreakpointID: key, Locations: locations}}, nil
}

func matches(name, pattern string, re *regexp.Regexp) bool {
	if re != nil {
		return re.MatchString(name)
	}
	return name == pattern
}

func (d *Dispatcher) removeBreakpoint(c *Call) (Result, error) {
	key, err := c.String("breakpointId")
	if err != nil {
		return Result{}, err
	}

	delete(d.cookies, key)

	ids, ok := d.physical[key]
	if !ok {
		return Result{}, nil
	}
	for _, id := range ids {
		d.debuggee.RemoveBreakpoint(id)
	}
	delete(d.physical, key)

	d.logger.Info("breakpoint removed", "breakpoint_id", key, "physical", len(ids))
	return Result{}, nil
}

// removeAllBreakpoints forgets every logical breakpoint and the engine
// breakpoints it owns. The bridge sends it when a front end connects.
func (d *Dispatcher) removeAllBreakpoints(*Call) (Result, error) {
	removed := 0
	for key, ids := range d.physical {
		for _, id := range ids {
			d.debuggee.RemoveBreakpoint(id)
		}
		removed += len(ids)
		delete(d.physical, key)
	}
	logical := len(d.cookies)
	clear(d.cookies)

	d.logger.Info("breakpoints reset", "logical", logical, "physical", removed)
	return Result{}, nil
}

func (d *Dispatcher) setBreakpointsActive(c *Call) (Result, error) {
	active, err := c.Bool("active")
	if err != nil {
		return Result{}, err
	}

	for _, bp := range d.debuggee.ListBreakpoints() {
		if err := d.debuggee.ChangeBreakpoint(bp.Number, active); err != nil {
			d.logger.Warn("cannot change breakpoint", "number", bp.Number, "error", err)
		}
	}
	d.debuggee.SetBreakpointsActivated(active)

	for key, cookie := range d.cookies {
		cookie.Enabled = active
		d.cookies[key] = cookie
	}
	return Result{}, nil
}

// Breakpoints returns the registered identity keys, sorted.
func (d *Dispatcher) Breakpoints() []string {
	keys := make([]string, 0, len(d.cookies))
	for k := range d.cookies {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// PhysicalIDs returns the engine breakpoints owned by a logical breakpoint.
func (d *Dispatcher) PhysicalIDs(key string) ([]int, bool) {
	ids, ok := d.physical[key]
	return slices.Clone(ids), ok
}

// Enabled reports the enabled flag of a logical breakpoint.
func (d *Dispatcher) Enabled(key string) (bool, bool) {
	c, ok := d.cookies[key]
	return c.Enabled, ok
}
