// Package dispatch implements the execution command dispatcher that runs inside
// the debuggee.
//
// The dispatcher owns a fixed table of named commands (Debugger.pause,
// Debugger.setBreakpointByUrl, ...). Each entry declares its parameter list and a
// handler with direct access to the debuggee's paused execution state and its
// loaded-script inventory.
//
// Key features:
//   - Composite breakpoint identity: one logical breakpoint per
//     (pattern kind, pattern, line, column), resolved to one engine breakpoint per
//     matching loaded script
//   - Running/Paused state machine for pause, resume and the three step kinds
//   - stepOver on a frame that is at its return point behaves exactly as stepInto
//   - Backtrace wrapping bounded by a stack trace limit and a fixed caller skip
//
// Concurrency:
//   - Handlers are not safe for concurrent use. The backend host runs them one at
//     a time while the debuggee is suspended, which is the only mutation window
//     for the breakpoint maps.
//
// Error handling:
//   - Missing url/urlRegex, negative column, bad regex → protocol.ErrInvalidArgument
//   - Duplicate breakpoint identity → protocol.ErrAlreadyExists
//   - Unknown command → protocol.ErrUnknownCommand
//   - setVariableValue without engine support → protocol.ErrUnsupported
//   - Precondition misses (e.g. stepInto while running) are silent no-ops
package dispatch
