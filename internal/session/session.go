// Package session runs show-commands on routers.
package session

import (
	"context"
	"fmt"

	"premigration-validator/internal/device"
	"premigration-validator/internal/parser"
)

// Request is one command to send. Structured requests ask the session to
// decode the table output into rows as well.
type Request struct {
	Command    string
	Structured bool
}

// Text requests raw output only.
func Text(command string) Request { return Request{Command: command} }

// Table requests raw output plus the rows decoded from it.
func Table(command string) Request { return Request{Command: command, Structured: true} }

// Output is the response to a Request. Rows is only set for structured requests.
type Output struct {
	Text string
	Rows []parser.Row
}

// Session is a command-capable connection to a single router.
type Session interface {
	Open(ctx context.Context) error
	Send(ctx context.Context, req Request) (Output, error)
	Close() error
}

// Factory builds an unopened session for a device.
type Factory func(d device.Descriptor) Session

// NewOutput wraps raw command output, decoding rows when the request asks for them.
func NewOutput(req Request, text string) Output {
	out := Output{Text: text}
	if req.Structured {
		out.Rows = parser.DecodeTable(req.Command, text)
	}
	return out
}

// OpenError means the session to a device could not be established.
type OpenError struct {
	Host string
	Err  error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("connect to %s: %v", e.Host, e.Err)
}

func (e *OpenError) Unwrap() error { return e.Err }

// CommandError means a command could not be run on an open session.
type CommandError struct {
	Host    string
	Command string
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %q: %v", e.Host, e.Command, e.Err)
}

func (e *CommandError) Unwrap() error { return e.Err }
