package dispatch

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/mattjoyce/debugbridge/internal/protocol"
)

// Call holds the arguments of one command invocation, restricted to the
// parameters the command declares.
type Call struct {
	Name string
	args map[string]json.RawMessage
}

func newCall(name string, params []string, raw json.RawMessage) (*Call, error) {
	c := &Call{Name: name, args: make(map[string]json.RawMessage, len(params))}
	if len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return c, nil
	}

	var all map[string]json.RawMessage
	if err := json.Unmarshal(raw, &all); err != nil {
		return nil, fmt.Errorf("%s: arguments must be a JSON object: %w", name, protocol.ErrInvalidArgument)
	}
	for _, p := range params {
		if v, ok := all[p]; ok && !bytes.Equal(v, []byte("null")) {
			c.args[p] = v
		}
	}
	return c, nil
}

// Has reports whether the argument was supplied.
func (c *Call) Has(name string) bool {
	_, ok := c.args[name]
	return ok
}

// Decode unmarshals an argument into v. Missing arguments leave v untouched.
func (c *Call) Decode(name string, v any) error {
	raw, ok := c.args[name]
	if !ok {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%s: bad %q: %w", c.Name, name, protocol.ErrInvalidArgument)
	}
	return nil
}

func (c *Call) String(name string) (string, error) {
	var s string
	err := c.Decode(name, &s)
	return s, err
}

func (c *Call) Int(name string) (int, error) {
	var n int
	err := c.Decode(name, &n)
	return n, err
}

func (c *Call) Bool(name string) (bool, error) {
	var b bool
	err := c.Decode(name, &b)
	return b, err
}

// Object re-encodes the declared arguments as one JSON object and decodes it
// into v.
func (c *Call) Object(v any) error {
	data, err := json.Marshal(c.args)
	if err != nil {
		return fmt.Errorf("%s: encode arguments: %w", c.Name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%s: %v: %w", c.Name, err, protocol.ErrInvalidArgument)
	}
	return nil
}
