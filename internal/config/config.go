// Package config loads the device list and run settings. Everything the
// pipeline needs is resolved here, so no other package reads files or the
// environment.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"premigration-validator/internal/baseline"
	"premigration-validator/internal/check"
	"premigration-validator/internal/device"
	"premigration-validator/internal/report"
	"premigration-validator/internal/session"
)

const DefaultFile = "premigration.yaml"

var envRefRe = regexp.MustCompile(`\$\{(\w+)\}`)

// expandEnv replaces ${NAME} references only, so a bare $ in a password
// or check string is left alone.
func expandEnv(s string) string {
	return envRefRe.ReplaceAllStringFunc(s, func(ref string) string {
		return os.Getenv(envRefRe.FindStringSubmatch(ref)[1])
	})
}

// Defaults fill in descriptor fields left empty in the file or inventory.
type Defaults struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Port     int    `yaml:"port"`
	Platform string `yaml:"platform"`
}

type Config struct {
	Devices []device.Descriptor `yaml:"devices"`
	// Inventory is a CSV file of hostname,ip,model,site,role rows. Relative
	// paths are taken from the config file's directory.
	Inventory  string            `yaml:"inventory"`
	Defaults   Defaults          `yaml:"defaults"`
	SSH        session.SSHConfig `yaml:"ssh"`
	ParseMode  string            `yaml:"parse_mode"`
	OutputDir  string            `yaml:"output_dir"`
	ReportFile string            `yaml:"report_file"`
	Checks     check.Config      `yaml:"checks"`

	mode baseline.ParseMode
}

// Load reads the config file at path. ${VAR} references are expanded from
// the environment before the YAML is decoded.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg, err := Parse(strings.NewReader(expandEnv(string(data))), filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes a config document. baseDir anchors a relative inventory path.
func Parse(r io.Reader, baseDir string) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if cfg.Inventory != "" {
		path := cfg.Inventory
		if !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}
		inv, err := LoadInventory(path)
		if err != nil {
			return nil, err
		}
		cfg.Devices = append(cfg.Devices, inv...)
	}

	if err := cfg.resolve(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) resolve() error {
	mode, err := baseline.ParseParseMode(c.ParseMode)
	if err != nil {
		return err
	}
	c.mode = mode
	if c.OutputDir == "" {
		c.OutputDir = "."
	}
	if c.ReportFile == "" {
		c.ReportFile = report.DefaultFilename
	}
	c.Checks = c.Checks.WithDefaults()

	var errs []error
	seen := make(map[string]bool, len(c.Devices))
	for i := range c.Devices {
		d, err := c.resolveDevice(c.Devices[i])
		if err != nil {
			errs = append(errs, fmt.Errorf("device %d: %w", i+1, err))
			continue
		}
		key := strings.ToUpper(d.Hostname)
		if seen[key] {
			errs = append(errs, fmt.Errorf("device %d: duplicate hostname %q", i+1, d.Hostname))
			continue
		}
		seen[key] = true
		c.Devices[i] = d
	}
	return errors.Join(errs...)
}

// resolveDevice applies defaults and settles platform and role. Platform and
// role come from the descriptor when given, otherwise from the chassis model.
func (c *Config) resolveDevice(d device.Descriptor) (device.Descriptor, error) {
	d.Hostname = strings.TrimSpace(d.Hostname)
	d.Address = strings.TrimSpace(d.Address)
	if d.Hostname == "" {
		return d, errors.New("hostname is required")
	}
	if d.Address == "" {
		return d, fmt.Errorf("%s: address is required", d.Hostname)
	}

	if d.Username == "" {
		d.Username = c.Defaults.Username
	}
	if d.Password == "" {
		d.Password = c.Defaults.Password
	}
	if d.Port == 0 {
		d.Port = c.Defaults.Port
	}
	if d.Port == 0 {
		d.Port = device.DefaultSSHPort
	}

	platform := string(d.Platform)
	if platform == "" {
		if p, ok := device.InferPlatform(d.Model); ok {
			platform = string(p)
		} else {
			platform = c.Defaults.Platform
		}
	}
	p, err := device.ParsePlatform(platform)
	if err != nil {
		return d, fmt.Errorf("%s: %w", d.Hostname, err)
	}
	d.Platform = p

	role, err := device.ParseRole(string(d.Role))
	if err != nil {
		return d, fmt.Errorf("%s: %w", d.Hostname, err)
	}
	if role == "" {
		role = device.InferRole(d.Model)
	}
	d.Role = role
	return d, nil
}

// Mode returns the parse mode decoded from parse_mode.
func (c *Config) Mode() baseline.ParseMode {
	return c.mode
}

// ReportPath returns where the report goes: report_file, relative to
// output_dir unless absolute.
func (c *Config) ReportPath() string {
	if filepath.IsAbs(c.ReportFile) {
		return c.ReportFile
	}
	return filepath.Join(c.OutputDir, c.ReportFile)
}
