package protocol

import "errors"

var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrAlreadyExists   = errors.New("already exists")
	ErrNotFound        = errors.New("not found")
	ErrNotImplemented  = errors.New("not implemented")
	ErrUnsupported     = errors.New("unsupported")
	ErrUnknownCommand  = errors.New("unknown command")
)

// Front-end error codes (JSON-RPC flavoured).
const (
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeServerError    = -32000
)

// ErrorCode maps an error to the front-end error code.
func ErrorCode(err error) int {
	switch {
	case errors.Is(err, ErrUnknownCommand):
		return CodeMethodNotFound
	case errors.Is(err, ErrInvalidArgument):
		return CodeInvalidParams
	default:
		return CodeServerError
	}
}

// NewErrorResponse builds the error object sent to the front end.
func NewErrorResponse(err error) *ErrorResponse {
	return &ErrorResponse{Code: ErrorCode(err), Message: err.Error()}
}

var kinds = map[string]error{
	"invalid_argument": ErrInvalidArgument,
	"already_exists":   ErrAlreadyExists,
	"not_found":        ErrNotFound,
	"not_implemented":  ErrNotImplemented,
	"unsupported":      ErrUnsupported,
	"unknown_command":  ErrUnknownCommand,
}

// KindOf returns the wire name of the taxonomy error wrapped by err, or "".
func KindOf(err error) string {
	for kind, sentinel := range kinds {
		if errors.Is(err, sentinel) {
			return kind
		}
	}
	return ""
}

// BackendError is a failure reported by the debuggee in a response envelope.
// It unwraps to the taxonomy sentinel named by Kind so errors.Is keeps working
// across the wire.
type BackendError struct {
	Command string
	Message string
	Kind    string
}

func (e *BackendError) Error() string {
	return e.Command + ": " + e.Message
}

func (e *BackendError) Unwrap() error {
	return kinds[e.Kind]
}
