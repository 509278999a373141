package report

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"premigration-validator/internal/baseline"
	"premigration-validator/internal/parser"
)

func testStore() *baseline.Store {
	s := baseline.NewStore(time.Date(2026, 10, 19, 21, 5, 9, 0, time.UTC))
	s.Put("UPE9", baseline.Record{
		BGPSessions:   12,
		OSPFNeighbors: 2,
		Interfaces:    map[string]parser.InterfaceRate{"Bundle-Ether100": {InputBps: 1000, OutputBps: 2000}},
	})
	s.Put("UPE10", baseline.Record{OSPFNeighbors: 1})
	return s
}

func TestRenderIdempotent(t *testing.T) {
	issues := []string{"UPE9: Backup config missing"}

	first, err := Render(testStore(), issues)
	require.NoError(t, err)
	second, err := Render(testStore(), issues)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestRenderIssues(t *testing.T) {
	out, err := Render(testStore(), []string{
		"UPE9: Backup config missing",
		"ASR903-AGG7: BGP to new device not admin down",
	})
	require.NoError(t, err)
	html := string(out)

	assert.Contains(t, html, "<title>Go/No-Go Report</title>")
	assert.Contains(t, html, `<span class="overall nogo">NO-GO</span>`)
	assert.Contains(t, html, "<li>UPE9: Backup config missing</li>")
	assert.Contains(t, html, "<li>ASR903-AGG7: BGP to new device not admin down</li>")
	assert.NotContains(t, html, "No issues found.")
	assert.Contains(t, html, "Baseline 20261019_210509")
}

func TestRenderNoIssues(t *testing.T) {
	out, err := Render(testStore(), nil)
	require.NoError(t, err)
	html := string(out)

	assert.Contains(t, html, `<span class="overall go">GO</span>`)
	assert.Contains(t, html, "<p>No issues found.</p>")
	assert.NotContains(t, html, "<ul>")
}

func TestRenderBaselineBlock(t *testing.T) {
	out, err := Render(testStore(), nil)
	require.NoError(t, err)

	// html/template escapes the quotes of the JSON dump.
	assert.Contains(t, string(out), "<pre>{\n  &#34;UPE10&#34;: {\n    &#34;bgp_sessions&#34;: 0,")
	assert.Contains(t, string(out), "&#34;input_bps&#34;: 1000,")
}

func TestRenderEscapesIssues(t *testing.T) {
	out, err := Render(testStore(), []string{"R1: <script>alert(1)</script>"})
	require.NoError(t, err)

	assert.NotContains(t, string(out), "<script>")
	assert.Contains(t, string(out), "&lt;script&gt;")
}

func TestRenderEmptyStore(t *testing.T) {
	out, err := Render(baseline.NewStore(time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)), nil)
	require.NoError(t, err)

	assert.Contains(t, string(out), "<pre>{}</pre>")
	assert.Contains(t, string(out), "<p>No issues found.</p>")
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", DefaultFilename)

	require.NoError(t, WriteFile(path, testStore(), nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	want, err := Render(testStore(), nil)
	require.NoError(t, err)
	assert.Equal(t, want, data)
}
