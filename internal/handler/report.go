package handler

import (
	"fmt"
	"html/template"
	"math"
	"strings"

	"github.com/clearskyhq/clearsky/internal/domain"
)

// reportTemplate renders the embeddable audit summary returned by the
// non-streaming endpoint.
var reportTemplate = template.Must(template.New("report").Parse(`
<div class="cs-report">
  <div class="cs-header">
    <h2>ClearSky Quick Audit Report</h2>
    <p class="cs-url">URL Analyzed: {{.URL}}</p>
  </div>
  <div class="cs-score-section">
    <div class="cs-score-card">
      <span class="label">Performance</span>
      <span class="value">{{.Performance}}%</span>
    </div>
    <div class="cs-score-card">
      <span class="label">SEO</span>
      <span class="value">{{.SEO}}%</span>
    </div>
    <div class="cs-score-card">
      <span class="label">Best Practices</span>
      <span class="value">{{.BestPractices}}%</span>
    </div>
    <div class="cs-score-card">
      <span class="label">Accessibility</span>
      <span class="value">{{.Accessibility}}%</span>
    </div>
  </div>
  <div class="cs-overall">
    <h3>Overall Score</h3>
    <p class="score">{{.Overall}}%</p>
    <p class="explanation">This score reflects Lighthouse-based performance, SEO readiness, accessibility, and technical health.</p>
  </div>
  <div class="cs-footer">
    <p>Generated by ClearSky Quick Audit</p>
  </div>
</div>
`))

type reportData struct {
	URL           string
	Performance   int
	SEO           int
	BestPractices int
	Accessibility int
	Overall       int
}

// renderReport builds the HTML summary fragment for one audit.
func renderReport(url string, s domain.AuditScores) (string, error) {
	overall := int(math.Round(float64(s.Performance+s.SEO+s.BestPractices+s.Accessibility) / 4))
	var sb strings.Builder
	err := reportTemplate.Execute(&sb, reportData{
		URL:           url,
		Performance:   s.Performance,
		SEO:           s.SEO,
		BestPractices: s.BestPractices,
		Accessibility: s.Accessibility,
		Overall:       overall,
	})
	if err != nil {
		return "", fmt.Errorf("render report: %w", err)
	}
	return sb.String(), nil
}
