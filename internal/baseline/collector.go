package baseline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-logr/logr"

	"premigration-validator/internal/device"
	"premigration-validator/internal/parser"
	"premigration-validator/internal/session"
)

const (
	CmdBGPSummary   = "show bgp vpnv4 unicast all summary"
	CmdOSPFNeighbor = "show ospf neighbor"
	CmdInterfaces   = "show interface"
)

// ParseMode picks how BGP and OSPF output is turned into counters.
type ParseMode string

const (
	// ModeText scrapes raw text: newline count for BGP, "Full" count for OSPF.
	ModeText ParseMode = "text"
	// ModeStructured decodes the tables into rows: row counts and the
	// received-prefix sum.
	ModeStructured ParseMode = "structured"
)

func ParseParseMode(s string) (ParseMode, error) {
	switch ParseMode(s) {
	case "", ModeText:
		return ModeText, nil
	case ModeStructured:
		return ModeStructured, nil
	}
	return "", fmt.Errorf("unknown parse mode %q", s)
}

// FailureKind classifies why a device has no usable record.
type FailureKind string

const (
	FailureNone    FailureKind = ""
	FailureConnect FailureKind = "connect"
	FailureCommand FailureKind = "command"
)

// DeviceResult is the outcome of collecting one device.
type DeviceResult struct {
	Hostname string
	Record   Record
	Failure  FailureKind
	Err      error
}

func (r DeviceResult) OK() bool { return r.Failure == FailureNone }

// Collector runs the baseline command battery on each device in turn.
type Collector struct {
	dispatcher *session.Dispatcher
	mode       ParseMode
	logger     logr.Logger
	now        func() time.Time
}

func NewCollector(dispatcher *session.Dispatcher, mode ParseMode, logger logr.Logger) *Collector {
	if mode == "" {
		mode = ModeText
	}
	return &Collector{
		dispatcher: dispatcher,
		mode:       mode,
		logger:     logger,
		now:        time.Now,
	}
}

// Collect queries every device and returns one result per device together
// with the store holding their records. A device that fails is recorded
// with its error and the run moves on to the next one. Collection stops
// early only when ctx is done.
func (c *Collector) Collect(ctx context.Context, devices []device.Descriptor) ([]DeviceResult, *Store) {
	store := NewStore(c.now())
	results := make([]DeviceResult, 0, len(devices))

	for _, d := range devices {
		if ctx.Err() != nil {
			break
		}
		res := c.CollectDevice(ctx, d)
		store.Put(d.Hostname, res.Record)
		results = append(results, res)
	}
	return results, store
}

func (c *Collector) requests() []session.Request {
	if c.mode == ModeStructured {
		return []session.Request{
			session.Table(CmdBGPSummary),
			session.Table(CmdOSPFNeighbor),
			session.Text(CmdInterfaces),
		}
	}
	return []session.Request{
		session.Text(CmdBGPSummary),
		session.Text(CmdOSPFNeighbor),
		session.Text(CmdInterfaces),
	}
}

func (c *Collector) CollectDevice(ctx context.Context, d device.Descriptor) DeviceResult {
	logger := c.logger.WithValues("device", d.Hostname)
	logger.Info("collecting baseline", "address", d.Address, "mode", c.mode)

	outs, err := c.dispatcher.Dispatch(ctx, d, c.requests())
	if err != nil {
		logger.Error(err, "baseline collection failed")
		rec := NewRecord()
		rec.Error = err.Error()
		return DeviceResult{Hostname: d.Hostname, Record: rec, Failure: classify(err), Err: err}
	}

	rec := NewRecord()
	bgp, ospf, intf := outs[0], outs[1], outs[2]
	switch c.mode {
	case ModeStructured:
		rec.BGPSessions = parser.CountRows(bgp.Rows)
		rec.BGPPrefixes = parser.SumField(bgp.Rows, "pfxrcd")
		rec.OSPFNeighbors = parser.CountRows(ospf.Rows)
	default:
		rec.BGPSessions = parser.ApproxBGPSessionsByLineCount(bgp.Text)
		rec.OSPFNeighbors = parser.CountFullAdjacencies(ospf.Text)
	}
	rec.Interfaces = parser.ParseInterfaceRates(intf.Text)

	logger.Info("baseline collected",
		"bgpSessions", rec.BGPSessions,
		"ospfNeighbors", rec.OSPFNeighbors,
		"interfaces", len(rec.Interfaces))
	return DeviceResult{Hostname: d.Hostname, Record: rec}
}

func classify(err error) FailureKind {
	var cmdErr *session.CommandError
	if errors.As(err, &cmdErr) {
		return FailureCommand
	}
	return FailureConnect
}
