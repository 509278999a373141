package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-logr/logr/testr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"premigration-validator/internal/baseline"
	"premigration-validator/internal/config"
	"premigration-validator/internal/session/sessiontest"
)

const (
	backupCmd    = "dir disk0: | include pre_mig_backup"
	backupListed = "   64 -rw-r--r-- 1  412331 Oct 18 22:10 pre_mig_backup_20261018.cfg\n"
	oneUpIntf    = `Bundle-Ether100 is up, line protocol is up
  30 second input rate 1000 bits/sec, 1 packets/sec
  30 second output rate 2000 bits/sec, 2 packets/sec
Loopback99 is administratively down, line protocol is administratively down
`
)

func testConfig(t *testing.T, devices string) *config.Config {
	t.Helper()
	doc := fmt.Sprintf("output_dir: %s\ndevices:\n%s", t.TempDir(), devices)
	cfg, err := config.Parse(strings.NewReader(doc), ".")
	require.NoError(t, err)
	return cfg
}

func readBaseline(t *testing.T, path string) map[string]baseline.Record {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var records map[string]baseline.Record
	require.NoError(t, json.Unmarshal(data, &records))
	return records
}

func TestRunSingleDeviceGo(t *testing.T) {
	cfg := testConfig(t, "  - {hostname: UPE9, address: 172.10.1.9}\n")
	lab := &sessiontest.Lab{Devices: map[string]*sessiontest.Fake{
		"UPE9": {Responses: map[string]string{
			baseline.CmdInterfaces: oneUpIntf,
			backupCmd:              backupListed,
		}},
	}}
	var out bytes.Buffer

	res, err := New(cfg, lab.Factory(), PhaseAll, &out, testr.New(t)).Run(context.Background())
	require.NoError(t, err)

	assert.True(t, res.Go)
	assert.Empty(t, res.Issues)
	require.Len(t, res.Devices, 1)
	assert.True(t, res.Devices[0].OK())

	assert.Equal(t, cfg.OutputDir, filepath.Dir(res.BaselinePath))
	assert.Regexp(t, `^baseline_\d{8}_\d{6}\.json$`, filepath.Base(res.BaselinePath))
	records := readBaseline(t, res.BaselinePath)
	require.Contains(t, records, "UPE9")
	require.Len(t, records["UPE9"].Interfaces, 1)
	assert.Equal(t, int64(1000), records["UPE9"].Interfaces["Bundle-Ether100"].InputBps)
	assert.Equal(t, int64(2000), records["UPE9"].Interfaces["Bundle-Ether100"].OutputBps)

	assert.Equal(t, filepath.Join(cfg.OutputDir, "go_nogo_report.html"), res.ReportPath)
	html, err := os.ReadFile(res.ReportPath)
	require.NoError(t, err)
	assert.Contains(t, string(html), "<p>No issues found.</p>")

	// one session for the baseline, one for the prerequisite checks
	assert.Len(t, lab.SessionsFor("UPE9"), 2)

	console := out.String()
	assert.Contains(t, console, "[1/3] Collecting baseline data...")
	assert.Contains(t, console, "  ✓ UPE9: 0 BGP, 0 OSPF, 1 interfaces up")
	assert.Contains(t, console, "  ✓ All prerequisites met")
	assert.Contains(t, console, "RESULT: GO")
}

func TestRunMissingBackupNoGo(t *testing.T) {
	cfg := testConfig(t, "  - {hostname: UPE9, address: 172.10.1.9}\n")
	lab := &sessiontest.Lab{Devices: map[string]*sessiontest.Fake{
		"UPE9": {Responses: map[string]string{backupCmd: "No such file or directory\n"}},
	}}
	var out bytes.Buffer

	res, err := New(cfg, lab.Factory(), PhaseAll, &out, testr.New(t)).Run(context.Background())
	require.NoError(t, err)

	assert.False(t, res.Go)
	assert.Equal(t, []string{"UPE9: Backup config missing"}, res.Issues)

	html, err := os.ReadFile(res.ReportPath)
	require.NoError(t, err)
	assert.Contains(t, string(html), "<li>UPE9: Backup config missing</li>")

	assert.Contains(t, out.String(), "    • UPE9: Backup config missing")
	assert.Contains(t, out.String(), "RESULT: NO-GO")
}

func TestRunEmptyDeviceList(t *testing.T) {
	cfg, err := config.Parse(strings.NewReader("output_dir: "+t.TempDir()+"\n"), ".")
	require.NoError(t, err)

	res, err := New(cfg, (&sessiontest.Lab{}).Factory(), PhaseAll, &bytes.Buffer{}, testr.New(t)).Run(context.Background())
	require.NoError(t, err)

	assert.True(t, res.Go)
	data, err := os.ReadFile(res.BaselinePath)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))

	html, err := os.ReadFile(res.ReportPath)
	require.NoError(t, err)
	assert.Contains(t, string(html), "<pre>{}</pre>")
	assert.Contains(t, string(html), "<p>No issues found.</p>")
}

func TestRunUnreachableDevice(t *testing.T) {
	cfg := testConfig(t, `  - {hostname: UPE1, address: 172.10.1.1}
  - {hostname: UPE9, address: 172.10.1.9}
`)
	lab := &sessiontest.Lab{Devices: map[string]*sessiontest.Fake{
		"UPE1": {OpenErr: errors.New("i/o timeout")},
		"UPE9": {Responses: map[string]string{backupCmd: backupListed}},
	}}
	var out bytes.Buffer

	res, err := New(cfg, lab.Factory(), PhaseAll, &out, testr.New(t)).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, baseline.FailureConnect, res.Devices[0].Failure)
	assert.True(t, res.Devices[1].OK())
	records := readBaseline(t, res.BaselinePath)
	assert.Contains(t, records["UPE1"].Error, "i/o timeout")
	assert.NotNil(t, records["UPE1"].Interfaces)

	assert.False(t, res.Go)
	assert.Equal(t, []string{"UPE1: Unable to validate: connection failed: i/o timeout"}, res.Issues)
	assert.Contains(t, out.String(), "  ✗ UPE1: connect failure:")
}

func TestRunBaselinePhaseOnly(t *testing.T) {
	cfg := testConfig(t, "  - {hostname: UPE9, address: 172.10.1.9}\n")
	lab := &sessiontest.Lab{}
	var out bytes.Buffer

	res, err := New(cfg, lab.Factory(), PhaseBaseline, &out, testr.New(t)).Run(context.Background())
	require.NoError(t, err)

	assert.True(t, res.Go)
	assert.NotEmpty(t, res.BaselinePath)
	assert.Empty(t, res.ReportPath)
	assert.Len(t, lab.SessionsFor("UPE9"), 1)
	assert.NoFileExists(t, filepath.Join(cfg.OutputDir, "go_nogo_report.html"))
	assert.Contains(t, out.String(), "[1/1] Collecting baseline data...")
	assert.NotContains(t, out.String(), "Validating prerequisites")
}

func TestRunCanceled(t *testing.T) {
	cfg := testConfig(t, "  - {hostname: UPE9, address: 172.10.1.9}\n")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := New(cfg, (&sessiontest.Lab{}).Factory(), PhaseAll, &bytes.Buffer{}, testr.New(t)).Run(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, res.BaselinePath)
}

func TestRunUnwritableOutputDir(t *testing.T) {
	file := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	cfg, err := config.Parse(strings.NewReader("output_dir: "+file+"\n"), ".")
	require.NoError(t, err)

	_, err = New(cfg, (&sessiontest.Lab{}).Factory(), PhaseAll, &bytes.Buffer{}, testr.New(t)).Run(context.Background())
	assert.Error(t, err)
}

func TestParsePhase(t *testing.T) {
	p, err := ParsePhase("")
	require.NoError(t, err)
	assert.Equal(t, PhaseAll, p)

	p, err = ParsePhase("baseline")
	require.NoError(t, err)
	assert.Equal(t, PhaseBaseline, p)

	_, err = ParsePhase("post")
	assert.Error(t, err)
}
