package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"os"
	"time"

	"github.com/oraichain/duckdb-http/metrics"
)

// -----------------------------
// Report Generator Interfaces
// -----------------------------

// ReportGenerator defines the methods for generating health reports.
type ReportGenerator interface {
	GenerateHealthReport(run metrics.HealthReport) ([]byte, error)
	GenerateAlertNotification(run metrics.HealthReport) ([]byte, error)
	SaveReportToFile(run metrics.HealthReport, filePath string) error
}

// -----------------------------
// JSON Report Generator
// -----------------------------

// JSONReportGenerator generates JSON reports.
type JSONReportGenerator struct{}

// GenerateHealthReport serializes the HealthReport to JSON.
func (j *JSONReportGenerator) GenerateHealthReport(run metrics.HealthReport) ([]byte, error) {
	return json.MarshalIndent(run, "", "  ")
}

// GenerateAlertNotification generates an alert message in JSON format.
func (j *JSONReportGenerator) GenerateAlertNotification(run metrics.HealthReport) ([]byte, error) {
	alert := map[string]interface{}{
		"alert":     "Endpoint Unhealthy",
		"endpoint":  run.Metadata.Endpoint,
		"failed":    run.FailedChecks(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	return json.MarshalIndent(alert, "", "  ")
}

// SaveReportToFile saves the JSON report to a file.
func (j *JSONReportGenerator) SaveReportToFile(run metrics.HealthReport, filePath string) error {
	data, err := j.GenerateHealthReport(run)
	if err != nil {
		return err
	}
	return os.WriteFile(filePath, data, 0644)
}

// -----------------------------
// HTML Report Generator
// -----------------------------

// HTMLReportGenerator generates HTML reports.
type HTMLReportGenerator struct{}

// HTML template for the report.
const htmlTemplate = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Endpoint Health Report</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        table { width: 100%; border-collapse: collapse; margin-top: 20px; }
        th, td { border: 1px solid #ddd; padding: 8px; text-align: left; }
        th { background-color: #f4f4f4; }
        .status-pass { color: green; }
        .status-fail { color: red; }
    </style>
</head>
<body>
    <h1>Endpoint Health Report</h1>
    <p><strong>Endpoint:</strong> {{.Metadata.Endpoint}}</p>
    {{if .Metadata.Database}}<p><strong>Database:</strong> {{.Metadata.Database}}</p>{{end}}
    {{if .Metadata.ServerVersion}}<p><strong>Server Version:</strong> {{.Metadata.ServerVersion}}</p>{{end}}
    <p><strong>Checked At:</strong> {{.Metadata.StartTime}}</p>
    <p><strong>Overall:</strong> {{if .Healthy}}<span class="status-pass">HEALTHY</span>{{else}}<span class="status-fail">UNHEALTHY</span>{{end}}</p>

    <h2>Checks</h2>
    <table>
        <tr>
            <th>Check</th>
            <th>Status</th>
            <th>Duration</th>
            <th>Detail</th>
        </tr>
        {{range .Checks}}
        <tr>
            <td>{{.Name}}</td>
            <td class="{{if .Passed}}status-pass{{else}}status-fail{{end}}">
                {{if .Passed}}PASS{{else}}FAIL{{end}}
            </td>
            <td>{{.Duration}}</td>
            <td>{{if .Passed}}{{.Detail}}{{else}}{{.Error}}{{end}}</td>
        </tr>
        {{end}}
    </table>

    <footer>
        <p>Generated on {{.Metadata.EndTime}}</p>
    </footer>
</body>
</html>
`

// GenerateHealthReport generates an HTML report from the health run.
func (h *HTMLReportGenerator) GenerateHealthReport(run metrics.HealthReport) ([]byte, error) {
	tmpl, err := template.New("report").Parse(htmlTemplate)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	err = tmpl.Execute(&buf, run)
	if err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// GenerateAlertNotification generates an HTML alert.
func (h *HTMLReportGenerator) GenerateAlertNotification(run metrics.HealthReport) ([]byte, error) {
	alertHTML := fmt.Sprintf(
		`<html><body><h3>Endpoint Unhealthy</h3><p>Failed checks for endpoint %s: %v.</p></body></html>`,
		run.Metadata.Endpoint, run.FailedChecks(),
	)
	return []byte(alertHTML), nil
}

// SaveReportToFile saves the HTML report to a file.
func (h *HTMLReportGenerator) SaveReportToFile(run metrics.HealthReport, filePath string) error {
	data, err := h.GenerateHealthReport(run)
	if err != nil {
		return err
	}
	return os.WriteFile(filePath, data, 0644)
}

// SaveReports saves both JSON and HTML reports.
func SaveReports(run metrics.HealthReport, jsonPath, htmlPath string) error {
	jsonGen := JSONReportGenerator{}
	htmlGen := HTMLReportGenerator{}

	if jsonPath != "" {
		if err := jsonGen.SaveReportToFile(run, jsonPath); err != nil {
			return err
		}
	}

	if htmlPath != "" {
		if err := htmlGen.SaveReportToFile(run, htmlPath); err != nil {
			return err
		}
	}

	return nil
}

// ReportFromFilePath loads a previously saved JSON health report.
func ReportFromFilePath(filePath string) (metrics.HealthReport, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return metrics.HealthReport{}, err
	}
	var report metrics.HealthReport
	if err := json.Unmarshal(data, &report); err != nil {
		return metrics.HealthReport{}, err
	}
	return report, nil
}
