// Package report renders the go/no-go HTML document from a baseline store
// and the prerequisite issues.
package report

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path/filepath"

	"premigration-validator/internal/baseline"
)

// DefaultFilename is the report name used when none is configured.
const DefaultFilename = "go_nogo_report.html"

var page = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html><head><meta charset="UTF-8"><title>Go/No-Go Report</title>
<style>
body{font-family:Arial,sans-serif;margin:20px;background:#f5f5f5}
.container{max-width:1200px;margin:0 auto;background:#fff;padding:30px;border-radius:10px;box-shadow:0 2px 10px rgba(0,0,0,0.1)}
h1{color:#1a365d;border-bottom:3px solid #3b82f6;padding-bottom:10px}
.overall{padding:15px 30px;border-radius:25px;font-size:1.2em;font-weight:bold;display:inline-block;margin:10px 0;color:#fff}
.overall.go{background:#22c55e}
.overall.nogo{background:#ef4444}
pre{background:#f9fafb;border:1px solid #e5e7eb;padding:15px;overflow-x:auto}
li{color:#991b1b}
.meta{color:#6b7280;font-size:0.9em}
</style></head>
<body><div class="container">
<h1>Go/No-Go Report</h1>
<p class="meta">Baseline {{.Version}}</p>
{{if .Go}}<div><span class="overall go">GO</span></div>{{else}}<div><span class="overall nogo">NO-GO</span></div>{{end}}
<h2>Baseline</h2>
<pre>{{.Baseline}}</pre>
<h2>Issues</h2>
{{if .Issues}}<ul>
{{range .Issues}}<li>{{.}}</li>
{{end}}</ul>{{else}}<p>No issues found.</p>{{end}}
</div></body></html>
`))

type view struct {
	Version  string
	Go       bool
	Baseline string
	Issues   []string
}

// Render produces the report. The output depends only on its arguments, so
// rendering the same store and issues twice yields identical bytes.
func Render(store *baseline.Store, issues []string) ([]byte, error) {
	data, err := store.JSON()
	if err != nil {
		return nil, fmt.Errorf("encoding baseline: %w", err)
	}
	var buf bytes.Buffer
	err = page.Execute(&buf, view{
		Version:  store.Version(),
		Go:       len(issues) == 0,
		Baseline: string(data),
		Issues:   issues,
	})
	if err != nil {
		return nil, fmt.Errorf("rendering report: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteFile renders the report to path, creating its directory if needed.
func WriteFile(path string, store *baseline.Store, issues []string) error {
	out, err := Render(store, issues)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating report directory: %w", err)
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}
