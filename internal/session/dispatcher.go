package session

import (
	"context"

	"github.com/go-logr/logr"

	"premigration-validator/internal/device"
)

// Dispatcher runs a fixed battery of commands against one device at a time.
// It never retries and never runs devices in parallel.
type Dispatcher struct {
	factory Factory
	logger  logr.Logger
}

func NewDispatcher(factory Factory, logger logr.Logger) *Dispatcher {
	return &Dispatcher{factory: factory, logger: logger}
}

// Dispatch opens a session to d, sends reqs in order and closes the session,
// also when a command fails. The returned outputs line up with reqs; on a
// command failure they hold everything received before it.
func (dp *Dispatcher) Dispatch(ctx context.Context, d device.Descriptor, reqs []Request) ([]Output, error) {
	logger := dp.logger.WithValues("device", d.Hostname, "address", d.Address)

	sess := dp.factory(d)
	if err := sess.Open(ctx); err != nil {
		return nil, &OpenError{Host: d.Hostname, Err: err}
	}
	defer func() {
		if err := sess.Close(); err != nil {
			logger.V(1).Info("closing session", "error", err)
		}
	}()

	outputs := make([]Output, 0, len(reqs))
	for _, req := range reqs {
		logger.V(1).Info("sending command", "command", req.Command, "structured", req.Structured)
		out, err := sess.Send(ctx, req)
		if err != nil {
			return outputs, &CommandError{Host: d.Hostname, Command: req.Command, Err: err}
		}
		logger.V(1).Info("command completed", "command", req.Command, "bytes", len(out.Text), "rows", len(out.Rows))
		outputs = append(outputs, out)
	}
	return outputs, nil
}
