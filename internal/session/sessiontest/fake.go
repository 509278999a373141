// Package sessiontest provides a scripted session.Session for tests.
package sessiontest

import (
	"context"
	"fmt"

	"premigration-validator/internal/device"
	"premigration-validator/internal/session"
)

// Fake replays canned command output. Commands without a canned response
// return an empty output unless Strict is set.
type Fake struct {
	Responses map[string]string
	// Failures makes the named commands fail with the given error.
	Failures map[string]error
	OpenErr  error
	Strict   bool

	Opened bool
	Closed bool
	Sent   []session.Request
}

var _ session.Session = (*Fake)(nil)

func (f *Fake) Open(context.Context) error {
	if f.OpenErr != nil {
		return f.OpenErr
	}
	f.Opened = true
	return nil
}

func (f *Fake) Send(_ context.Context, req session.Request) (session.Output, error) {
	if !f.Opened {
		return session.Output{}, fmt.Errorf("send %q on unopened session", req.Command)
	}
	f.Sent = append(f.Sent, req)
	if err := f.Failures[req.Command]; err != nil {
		return session.Output{}, err
	}
	text, ok := f.Responses[req.Command]
	if !ok && f.Strict {
		return session.Output{}, fmt.Errorf("unexpected command %q", req.Command)
	}
	return session.NewOutput(req, text), nil
}

func (f *Fake) Close() error {
	f.Closed = true
	return nil
}

// Commands returns the command strings sent, in order.
func (f *Fake) Commands() []string {
	cmds := make([]string, len(f.Sent))
	for i, r := range f.Sent {
		cmds[i] = r.Command
	}
	return cmds
}

// Lab maps hostnames to scripted fakes. Every session it hands out is a
// fresh Fake carrying the script of its host, recorded in order so a test
// can inspect sessions after a run. Unknown hosts get an empty script.
type Lab struct {
	Devices map[string]*Fake

	hosts    []string
	sessions []*Fake
}

func (l *Lab) Factory() session.Factory {
	return func(d device.Descriptor) session.Session {
		f := &Fake{}
		if script, ok := l.Devices[d.Hostname]; ok {
			f.Responses = script.Responses
			f.Failures = script.Failures
			f.OpenErr = script.OpenErr
			f.Strict = script.Strict
		}
		l.hosts = append(l.hosts, d.Hostname)
		l.sessions = append(l.sessions, f)
		return f
	}
}

// SessionsFor returns the sessions handed out for hostname, in order.
func (l *Lab) SessionsFor(hostname string) []*Fake {
	var out []*Fake
	for i, h := range l.hosts {
		if h == hostname {
			out = append(out, l.sessions[i])
		}
	}
	return out
}
