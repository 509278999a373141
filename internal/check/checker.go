// Package check verifies that routers were pre-staged in a safe state
// before the cutover window: config backed up, new interfaces shut, new
// BGP peering held down.
package check

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-logr/logr"

	"premigration-validator/internal/device"
	"premigration-validator/internal/session"
)

const (
	DefaultBackupMarker        = "pre_mig_backup"
	DefaultNewInterfacePattern = "Bundle-Ether100.*"
	DefaultNewPeerPrefix       = "10.228.201"
)

// Config holds the site specific strings the checks look for.
type Config struct {
	BackupMarker string `yaml:"backup_marker"`
	// BackupCommand defaults to "dir disk0: | include <BackupMarker>".
	BackupCommand       string `yaml:"backup_command"`
	NewInterfacePattern string `yaml:"new_interface_pattern"`
	NewPeerPrefix       string `yaml:"new_peer_prefix"`
}

func (c Config) WithDefaults() Config {
	if c.BackupMarker == "" {
		c.BackupMarker = DefaultBackupMarker
	}
	if c.BackupCommand == "" {
		c.BackupCommand = "dir disk0: | include " + c.BackupMarker
	}
	if c.NewInterfacePattern == "" {
		c.NewInterfacePattern = DefaultNewInterfacePattern
	}
	if c.NewPeerPrefix == "" {
		c.NewPeerPrefix = DefaultNewPeerPrefix
	}
	return c
}

// Check is one pass/fail gate. Output of Command must contain Want,
// otherwise Issue is reported for the device.
type Check struct {
	Name    string
	Roles   []device.Role // empty means every device
	Command string
	Want    string
	Issue   string
}

func (c Check) AppliesTo(d device.Descriptor) bool {
	if len(c.Roles) == 0 {
		return true
	}
	for _, r := range c.Roles {
		if d.Role == r {
			return true
		}
	}
	return false
}

// Evaluate returns the issue text for d, or "" when output passes.
func (c Check) Evaluate(d device.Descriptor, output string) string {
	if strings.Contains(output, c.Want) {
		return ""
	}
	return fmt.Sprintf("%s: %s", d.Hostname, c.Issue)
}

// Checks returns the prerequisite battery in the order it is run.
func Checks(cfg Config) []Check {
	cfg = cfg.WithDefaults()
	return []Check{
		{
			Name:    "config-backup",
			Command: cfg.BackupCommand,
			Want:    cfg.BackupMarker,
			Issue:   "Backup config missing",
		},
		{
			Name:    "new-interfaces-shutdown",
			Roles:   []device.Role{device.RoleNewPE},
			Command: fmt.Sprintf("show interface %s brief", cfg.NewInterfacePattern),
			Want:    "admin-down",
			Issue:   "New interfaces not in shutdown",
		},
		{
			Name:    "new-peer-held-down",
			Roles:   []device.Role{device.RoleLegacyPE},
			Command: "show bgp summary | include " + cfg.NewPeerPrefix,
			Want:    "Idle",
			Issue:   "BGP to new device not admin down",
		},
	}
}

// Checker runs the battery against live output, not against the baseline.
type Checker struct {
	dispatcher *session.Dispatcher
	checks     []Check
	logger     logr.Logger
}

func NewChecker(dispatcher *session.Dispatcher, cfg Config, logger logr.Logger) *Checker {
	return &Checker{dispatcher: dispatcher, checks: Checks(cfg), logger: logger}
}

// Validate checks every device and returns all issues found, in device
// order. An empty result means go.
func (c *Checker) Validate(ctx context.Context, devices []device.Descriptor) []string {
	var issues []string
	for _, d := range devices {
		if ctx.Err() != nil {
			break
		}
		issues = append(issues, c.validateDevice(ctx, d)...)
	}
	return issues
}

func (c *Checker) validateDevice(ctx context.Context, d device.Descriptor) []string {
	logger := c.logger.WithValues("device", d.Hostname, "role", d.Role)

	var (
		applicable []Check
		reqs       []session.Request
	)
	for _, chk := range c.checks {
		if chk.AppliesTo(d) {
			applicable = append(applicable, chk)
			reqs = append(reqs, session.Text(chk.Command))
		}
	}

	outs, err := c.dispatcher.Dispatch(ctx, d, reqs)

	var issues []string
	for i, out := range outs {
		chk := applicable[i]
		if issue := chk.Evaluate(d, out.Text); issue != "" {
			logger.Info("prerequisite not met", "check", chk.Name)
			issues = append(issues, issue)
		} else {
			logger.V(1).Info("prerequisite met", "check", chk.Name)
		}
	}
	if err != nil {
		logger.Error(err, "prerequisite validation incomplete")
		issues = append(issues, fmt.Sprintf("%s: Unable to validate: %s", d.Hostname, cause(err)))
	}
	return issues
}

// cause drops the session error prefix, which repeats the hostname.
func cause(err error) string {
	var openErr *session.OpenError
	if errors.As(err, &openErr) {
		return "connection failed: " + openErr.Err.Error()
	}
	var cmdErr *session.CommandError
	if errors.As(err, &cmdErr) {
		return fmt.Sprintf("%q failed: %v", cmdErr.Command, cmdErr.Err)
	}
	return err.Error()
}
