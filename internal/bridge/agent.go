package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mattjoyce/debugbridge/internal/backend"
	"github.com/mattjoyce/debugbridge/internal/log"
	"github.com/mattjoyce/debugbridge/internal/protocol"
	"github.com/mattjoyce/debugbridge/internal/scripts"
	"github.com/mattjoyce/debugbridge/internal/scriptstore"
)

// DefaultReadyTimeout bounds the wait for backend readiness in Enable.
const DefaultReadyTimeout = 10 * time.Second

// SourceSaver persists live-edited sources.
type SourceSaver interface {
	Save(ctx context.Context, scriptID int, path, text string) (scriptstore.Record, error)
}

// Agent is the Session Bridge for one debuggee.
type Agent struct {
	client   backend.Client
	sink     Sink
	registry *scripts.Registry
	breaks   *BreakHandler
	saver    SourceSaver
	logger   *slog.Logger

	saveLiveEdit   bool
	clearOnConnect bool
	readyTimeout   time.Duration

	// connecting serializes connect sequences from concurrent sessions.
	connecting sync.Mutex
	mu         sync.Mutex
	synced     bool

	persisting sync.WaitGroup
}

type Option func(*Agent)

func WithLogger(l *slog.Logger) Option {
	return func(a *Agent) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithLiveEditSave enables writing live edits back to disk through saver.
func WithLiveEditSave(saver SourceSaver) Option {
	return func(a *Agent) {
		a.saver = saver
		a.saveLiveEdit = saver != nil
	}
}

// WithClearOnConnect controls removal of stale engine breakpoints on enable.
func WithClearOnConnect(clear bool) Option {
	return func(a *Agent) { a.clearOnConnect = clear }
}

func WithReadyTimeout(d time.Duration) Option {
	return func(a *Agent) {
		if d > 0 {
			a.readyTimeout = d
		}
	}
}

// NewAgent creates an Agent. sink may be nil.
func NewAgent(client backend.Client, sink Sink, opts ...Option) *Agent {
	if sink == nil {
		sink = discard{}
	}
	a := &Agent{
		client:         client,
		sink:           sink,
		registry:       scripts.NewRegistry(),
		logger:         log.WithComponent("bridge"),
		clearOnConnect: true,
		readyTimeout:   DefaultReadyTimeout,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.breaks = newBreakHandler(client, a.registry, sink, a.logger)
	return a
}

type discard struct{}

func (discard) Publish(string, any) {}

func (a *Agent) Registry() *scripts.Registry { return a.registry }

func (a *Agent) Breaks() *BreakHandler { return a.breaks }

// Enabled reports whether any session has completed Enable.
func (a *Agent) Enabled() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.synced
}

// Run feeds backend events to the BreakHandler until events is closed or ctx
// ends.
func (a *Agent) Run(ctx context.Context, events <-chan protocol.Event) {
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			a.breaks.HandleEvent(ctx, ev)
		case <-ctx.Done():
			return
		}
	}
}

// Wait blocks until pending live-edit persistence has finished.
func (a *Agent) Wait() {
	a.persisting.Wait()
}

// Enable waits for the backend and synchronizes a newly enabled session with
// the debuggee: stale breakpoints are cleared, the script registry is rebuilt
// and a paused debuggee is reported. Only a readiness failure is returned.
func (a *Agent) Enable(ctx context.Context) error {
	readyCtx, cancel := context.WithTimeout(ctx, a.readyTimeout)
	defer cancel()
	if err := a.client.Ready(readyCtx); err != nil {
		return fmt.Errorf("debugger not ready: %w", err)
	}

	a.connecting.Lock()
	defer a.connecting.Unlock()
	a.onDebuggerConnect(ctx)

	a.mu.Lock()
	a.synced = true
	a.mu.Unlock()
	a.logger.Info("debugger enabled", "scripts", a.registry.Len())
	return nil
}

func (a *Agent) onDebuggerConnect(ctx context.Context) {
	if a.clearOnConnect {
		a.removeAllBreakpoints(ctx)
	}
	if err := a.reloadScripts(ctx); err != nil {
		a.logger.Warn("cannot load scripts", "error", err)
	}
	if err := a.sendBacktraceIfPaused(ctx); err != nil {
		a.logger.Warn("cannot send backtrace", "error", err)
	}
}

// removeAllBreakpoints forgets the logical breakpoints of a previous session
// and drops any engine breakpoints still armed. Failures are reported as
// warnings and never fail the caller.
func (a *Agent) removeAllBreakpoints(ctx context.Context) {
	a.breaks.clearContinueTarget()
	if _, err := a.client.Request(ctx, protocol.CmdRemoveAllBreakpoints, nil); err != nil {
		a.warn("Warning: cannot reset breakpoints. %v", err)
	}

	body, err := a.client.Request(ctx, protocol.CmdListBreakpoints, nil)
	if err != nil {
		a.warn("Warning: cannot remove old breakpoints. %v", err)
		return
	}
	var list protocol.ListBreakpointsBody
	if err := json.Unmarshal(body, &list); err != nil {
		a.warn("Warning: cannot remove old breakpoints. %v", err)
		return
	}

	var g errgroup.Group
	for _, bp := range list.Breakpoints {
		g.Go(func() error {
			_, err := a.client.Request(ctx, protocol.CmdClearBreakpoint, protocol.ClearBreakpointArgs{Breakpoint: bp.Number})
			if err != nil {
				a.warn("Warning: cannot remove old breakpoint %d. %v", bp.Number, err)
			}
			return nil
		})
	}
	_ = g.Wait()
}

func (a *Agent) reloadScripts(ctx context.Context) error {
	a.registry.Reset()

	body, err := a.client.Request(ctx, protocol.CmdScripts, protocol.ScriptsArgs{IncludeSource: true, Types: protocol.ScriptTypeNormal})
	if err != nil {
		return err
	}
	var loaded []protocol.Script
	if err := json.Unmarshal(body, &loaded); err != nil {
		return fmt.Errorf("decode scripts: %w", err)
	}
	for _, s := range loaded {
		a.registry.Add(s)
		a.sink.Publish(NotifyScriptParsed, scriptParsed(s))
	}
	return nil
}

func (a *Agent) sendBacktraceIfPaused(ctx context.Context) error {
	running, err := a.client.Running(ctx)
	if err != nil {
		return err
	}
	if running {
		return nil
	}
	return a.breaks.SendBacktrace(ctx, "other", nil, nil)
}

// LocationParams names a script position as sent by the front end.
type LocationParams struct {
	ScriptID     string `json:"scriptId"`
	LineNumber   int    `json:"lineNumber"`
	ColumnNumber int    `json:"columnNumber"`
}

// ContinueToLocation sets a one-shot breakpoint at the location and resumes.
func (a *Agent) ContinueToLocation(ctx context.Context, loc LocationParams) error {
	scriptID, err := parseScriptID(loc.ScriptID)
	if err != nil {
		return err
	}

	body, err := a.client.Request(ctx, protocol.CmdSetBreakpoint, protocol.SetBreakpointArgs{
		Type:   "scriptId",
		Target: scriptID,
		Line:   loc.LineNumber,
		Column: loc.ColumnNumber,
	})
	if err != nil {
		return err
	}
	var set protocol.SetBreakpointBody
	if err := json.Unmarshal(body, &set); err != nil {
		return fmt.Errorf("decode setbreakpoint: %w", err)
	}
	a.breaks.setContinueTarget(set.Breakpoint)

	_, err = a.client.Request(ctx, protocol.CmdContinue, nil)
	return err
}

// ScriptSourceResult is the body of Debugger.getScriptSource.
type ScriptSourceResult struct {
	ScriptSource string `json:"scriptSource"`
}

func (a *Agent) GetScriptSource(scriptID string) (ScriptSourceResult, error) {
	id, err := parseScriptID(scriptID)
	if err != nil {
		return ScriptSourceResult{}, err
	}
	src, err := a.registry.Source(id)
	if err != nil {
		return ScriptSourceResult{}, err
	}
	return ScriptSourceResult{ScriptSource: src}, nil
}

// SetScriptSourceResult is the body of Debugger.setScriptSource.
type SetScriptSourceResult struct {
	CallFrames []protocol.CallFrame    `json:"callFrames"`
	Result     protocol.LiveEditResult `json:"result"`
}

// SetScriptSource live-edits a script, persists the new source in the
// background and refreshes the call stack when the edit changed it.
func (a *Agent) SetScriptSource(ctx context.Context, scriptID, source string) (SetScriptSourceResult, error) {
	id, err := parseScriptID(scriptID)
	if err != nil {
		return SetScriptSourceResult{}, err
	}

	body, err := a.client.Request(ctx, protocol.CmdChangeLive, protocol.ChangeLiveArgs{
		ScriptID:    id,
		NewSource:   source,
		PreviewOnly: false,
	})
	if err != nil {
		return SetScriptSourceResult{}, err
	}
	var live protocol.LiveEditResponse
	if err := json.Unmarshal(body, &live); err != nil {
		return SetScriptSourceResult{}, fmt.Errorf("decode changelive: %w", err)
	}

	if s, ok := a.registry.FindByID(id); ok {
		s.Source = source
		a.registry.Add(s)
	}

	a.persisting.Add(1)
	go func() {
		defer a.persisting.Done()
		a.persistScriptChanges(id, source)
	}()

	return SetScriptSourceResult{
		CallFrames: a.callFramesAfterEdit(ctx, live.Result),
		Result:     live.Result,
	}, nil
}

// callFramesAfterEdit recomputes the backtrace only when the edit modified the
// stack and no step-in is needed to settle it.
func (a *Agent) callFramesAfterEdit(ctx context.Context, res protocol.LiveEditResult) []protocol.CallFrame {
	frames := []protocol.CallFrame{}
	if !res.StackModified || res.StackUpdateNeedsStepIn {
		return frames
	}
	bt, err := a.breaks.backtrace(ctx)
	if err != nil {
		a.logger.Warn("cannot refresh backtrace after live edit", "error", err)
		return frames
	}
	if bt != nil {
		frames = bt
	}
	return frames
}

func (a *Agent) persistScriptChanges(scriptID int, source string) {
	if !a.saveLiveEdit {
		a.warn("Saving of live-edit changes back to source files is disabled by configuration.\n" +
			"Change the option \"live_edit.save\" in config.yaml to enable this feature.")
		return
	}

	s, ok := a.registry.FindByID(scriptID)
	if !ok {
		a.warn("Cannot save changes to disk: unknown script id %d", scriptID)
		return
	}
	if !scripts.OnDisk(s.Name) {
		name := s.Name
		if name == "" {
			name = "null"
		}
		a.warn("Cannot save changes to disk: script id %d \"%s\" was not loaded from a file.", scriptID, name)
		return
	}

	rec, err := a.saver.Save(context.Background(), scriptID, s.Name, source)
	if err != nil {
		a.warn("Cannot save changes to disk. %v", err)
		return
	}
	a.logger.Info("live edit saved", "script_id", scriptID, "path", s.Name, "outcome", rec.Outcome, "hash", rec.Hash)
}

var exceptionStates = map[string]bool{"none": true, "uncaught": true, "all": true}

// SetPauseOnExceptions sets both exception-break flavours. Both requests are
// always attempted; the first failure is returned.
func (a *Agent) SetPauseOnExceptions(ctx context.Context, state string) error {
	if !exceptionStates[state] {
		return fmt.Errorf("pause on exceptions state %q: %w", state, protocol.ErrInvalidArgument)
	}

	var g errgroup.Group
	for _, args := range []protocol.ExceptionBreakArgs{
		{Type: "all", Enabled: state == "all"},
		{Type: "uncaught", Enabled: state == "uncaught"},
	} {
		g.Go(func() error {
			_, err := a.client.Request(ctx, protocol.CmdSetExceptionBrk, args)
			return err
		})
	}
	return g.Wait()
}

func (a *Agent) SetSkipAllPauses(skipped bool) error {
	if skipped {
		return fmt.Errorf("skipping all pauses: %w", protocol.ErrNotImplemented)
	}
	return nil
}

// Forward sends a dispatcher command verbatim and returns its body.
func (a *Agent) Forward(ctx context.Context, method string, params json.RawMessage) (json.RawMessage, error) {
	return a.client.Request(ctx, method, params)
}

func (a *Agent) warn(format string, args ...any) {
	text := fmt.Sprintf(format, args...)
	a.logger.Warn(text)
	a.sink.Publish(NotifyConsole, ConsoleEvent{Message: consoleMessage{Source: "other", Level: "warning", Text: text}})
}

func parseScriptID(raw string) (int, error) {
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("script id %q: %w", raw, protocol.ErrInvalidArgument)
	}
	return id, nil
}

func itoa(n int) string { return strconv.Itoa(n) }

func nameToURL(name string) string { return scripts.NameToURL(name) }
