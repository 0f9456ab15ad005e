package report

import (
	"bytes"
	"html/template"
	"sort"
	"time"

	"github.com/talhadevelopes/a11yguard-sub001/internal/domain"
)

var summaryTemplate = template.Must(template.New("summary").Parse(`<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>Accessibility report: {{.Website.Name}}</title></head>
<body>
<h1>{{.Website.Name}}</h1>
<p>{{.Website.URL}}</p>
<p>Generated {{.GeneratedAt.Format "2006-01-02 15:04 MST"}}{{if .Results.AnalyzedAt}}, analyzed {{.Results.AnalyzedAt.Format "2006-01-02 15:04 MST"}}{{end}}</p>
<h2>Summary ({{.Results.Total}} issues)</h2>
<ul>{{range .Counts}}<li>{{.Type}}: {{.Count}}</li>{{end}}</ul>
<h2>Issues</h2>
<table>
<tr><th>Type</th><th>Message</th><th>Selector</th></tr>
{{range .Results.Issues}}<tr><td>{{.Type}}</td><td>{{.Message}}</td><td>{{.Selector}}</td></tr>
{{end}}</table>
</body>
</html>
`))

type typeCount struct {
	Type  string
	Count int
}

// SummaryHTML renders the minimal HTML summary fed to the renderer.
func SummaryHTML(website *domain.Website, results *domain.AccessibilityResults, generatedAt time.Time) ([]byte, error) {
	counts := make([]typeCount, 0, len(results.Counts))
	for t, n := range results.Counts {
		counts = append(counts, typeCount{Type: t, Count: n})
	}
	sort.Slice(counts, func(i, j int) bool { return counts[i].Type < counts[j].Type })

	var buf bytes.Buffer
	err := summaryTemplate.Execute(&buf, struct {
		Website     *domain.Website
		Results     *domain.AccessibilityResults
		Counts      []typeCount
		GeneratedAt time.Time
	}{website, results, counts, generatedAt})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
