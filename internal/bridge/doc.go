// Package bridge translates front-end debugger commands into backend requests.
//
// An Agent owns the per-debuggee state: the script registry and the
// BreakHandler that turns backend events (break, exception, afterCompile,
// Debugger.resumed) into front-end notifications. A Session is one front-end
// connection. It owns its enablement, so the first Debugger.enable of every
// session re-synchronizes with the debuggee, and it routes front-end method
// names through an explicit table onto the Agent:
// commands the Agent implements itself (enable, continueToLocation,
// getScriptSource, setScriptSource, setPauseOnExceptions, setSkipAllPauses)
// and commands forwarded verbatim to the debuggee's dispatcher.
//
// Front-end notifications and warnings are published to a Sink (normally an
// events.Hub) under their protocol method name, e.g. "Debugger.paused" or
// "Console.messageAdded".
package bridge
