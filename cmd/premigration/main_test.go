package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunVersion(t *testing.T) {
	assert.Equal(t, exitGo, run(&options{version: true}))
}

func TestRunFatalErrors(t *testing.T) {
	dir := t.TempDir()
	missingEnv := filepath.Join(dir, ".env")

	assert.Equal(t, exitFatal, run(&options{phase: "post", envFile: missingEnv, configFile: filepath.Join(dir, "premigration.yaml")}))
	assert.Equal(t, exitFatal, run(&options{phase: "all", envFile: missingEnv, configFile: filepath.Join(dir, "premigration.yaml")}))
}

func TestRunNoDevices(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "premigration.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("output_dir: "+filepath.Join(dir, "out")+"\n"), 0o600))

	assert.Equal(t, exitGo, run(&options{phase: "all", envFile: filepath.Join(dir, ".env"), configFile: cfg}))
	assert.FileExists(t, filepath.Join(dir, "out", "go_nogo_report.html"))
}
