// Package app wires the baseline, prerequisite and report phases into one
// pre-migration run.
package app

import (
	"context"
	"fmt"
	"io"

	"github.com/go-logr/logr"

	"premigration-validator/internal/baseline"
	"premigration-validator/internal/check"
	"premigration-validator/internal/config"
	"premigration-validator/internal/device"
	"premigration-validator/internal/report"
	"premigration-validator/internal/session"
)

// Phase limits how far a run goes.
type Phase string

const (
	// PhaseAll collects the baseline, validates prerequisites and writes the report.
	PhaseAll Phase = "all"
	// PhaseBaseline only collects and saves the baseline.
	PhaseBaseline Phase = "baseline"
)

func ParsePhase(s string) (Phase, error) {
	switch Phase(s) {
	case "", PhaseAll:
		return PhaseAll, nil
	case PhaseBaseline:
		return PhaseBaseline, nil
	}
	return "", fmt.Errorf("unknown phase %q", s)
}

// Result summarizes a run.
type Result struct {
	// Go is true when no prerequisite issue was found. In a baseline-only
	// run it is true when every device was collected.
	Go           bool
	BaselinePath string
	ReportPath   string
	Issues       []string
	Devices      []baseline.DeviceResult
}

type Pipeline struct {
	devices    []device.Descriptor
	collector  *baseline.Collector
	checker    *check.Checker
	outputDir  string
	reportPath string
	phase      Phase

	out    io.Writer
	logger logr.Logger
}

// New builds a pipeline over cfg. Sessions come from factory, console
// progress goes to out.
func New(cfg *config.Config, factory session.Factory, phase Phase, out io.Writer, logger logr.Logger) *Pipeline {
	dispatcher := session.NewDispatcher(factory, logger.WithName("dispatcher"))
	return &Pipeline{
		devices:    cfg.Devices,
		collector:  baseline.NewCollector(dispatcher, cfg.Mode(), logger.WithName("collector")),
		checker:    check.NewChecker(dispatcher, cfg.Checks, logger.WithName("checker")),
		outputDir:  cfg.OutputDir,
		reportPath: cfg.ReportPath(),
		phase:      phase,
		out:        out,
		logger:     logger,
	}
}

// Run executes the phases in order. Device failures and prerequisite issues
// are part of the Result; the error is reserved for output files that could
// not be written and for cancellation.
func (p *Pipeline) Run(ctx context.Context) (Result, error) {
	var res Result
	steps := 3
	if p.phase == PhaseBaseline {
		steps = 1
	}

	fmt.Fprintf(p.out, "[1/%d] Collecting baseline data...\n", steps)
	results, store := p.collector.Collect(ctx, p.devices)
	res.Devices = results
	collected := true
	for _, r := range results {
		if r.OK() {
			rec := r.Record
			fmt.Fprintf(p.out, "  ✓ %s: %d BGP, %d OSPF, %d interfaces up\n",
				r.Hostname, rec.BGPSessions, rec.OSPFNeighbors, len(rec.Interfaces))
		} else {
			collected = false
			fmt.Fprintf(p.out, "  ✗ %s: %s failure: %v\n", r.Hostname, r.Failure, r.Err)
		}
	}
	if err := ctx.Err(); err != nil {
		return res, err
	}

	path, err := store.Save(p.outputDir)
	if err != nil {
		return res, err
	}
	res.BaselinePath = path
	fmt.Fprintf(p.out, "  ✓ Baseline saved: %s\n", path)
	p.logger.Info("baseline saved", "path", path, "version", store.Version(), "devices", len(store.Records))

	if p.phase == PhaseBaseline {
		res.Go = collected
		return res, nil
	}

	fmt.Fprintf(p.out, "\n[2/%d] Validating prerequisites...\n", steps)
	res.Issues = p.checker.Validate(ctx, p.devices)
	if err := ctx.Err(); err != nil {
		return res, err
	}
	res.Go = len(res.Issues) == 0
	if res.Go {
		fmt.Fprintln(p.out, "  ✓ All prerequisites met")
	} else {
		fmt.Fprintf(p.out, "  ✗ %d issue(s) found:\n", len(res.Issues))
		for _, issue := range res.Issues {
			fmt.Fprintf(p.out, "    • %s\n", issue)
		}
	}

	fmt.Fprintf(p.out, "\n[3/%d] Generating report...\n", steps)
	if err := report.WriteFile(p.reportPath, store, res.Issues); err != nil {
		return res, err
	}
	res.ReportPath = p.reportPath
	fmt.Fprintf(p.out, "  ✓ Report: %s\n", p.reportPath)

	verdict := "GO"
	if !res.Go {
		verdict = "NO-GO"
	}
	fmt.Fprintf(p.out, "\nRESULT: %s\n", verdict)
	p.logger.Info("pre-migration validation finished", "go", res.Go, "issues", len(res.Issues))
	return res, nil
}
