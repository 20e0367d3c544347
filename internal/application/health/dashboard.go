package health

import (
	"bytes"
	"html/template"
	"sort"
)

var dashboardTmpl = template.Must(template.New("dashboard").Parse(`<!DOCTYPE html>
<html lang="ko">
<head>
  <meta charset="UTF-8">
  <title>popfitup · API Status</title>
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <style>
    :root { --pink: #ff5c8a; --ink: #1f1d2b; --muted: #6b7280; --bg: #fff7fa; }
    body { background: var(--bg); color: var(--ink); font-family: system-ui, sans-serif; margin: 0; display: flex; justify-content: center; }
    .wrap { width: 100%; max-width: 960px; padding: 40px 20px; }
    h1 { font-size: 44px; margin: 0 0 8px; letter-spacing: -1px; }
    h1.issue { color: #dc2626; }
    .sub { color: var(--muted); font-weight: 600; margin-bottom: 28px; }
    .grid { display: grid; grid-template-columns: repeat(3, 1fr); gap: 16px; }
    .card { background: white; border-radius: 20px; padding: 24px; box-shadow: 0 10px 40px -20px rgba(255, 92, 138, 0.4); }
    .label { text-transform: uppercase; font-size: 11px; font-weight: 800; letter-spacing: 2px; color: #9ca3af; margin-bottom: 16px; }
    .big { font-size: 36px; font-weight: 900; margin-bottom: 8px; }
    .row { display: flex; justify-content: space-between; padding: 6px 0; font-size: 14px; font-weight: 600; border-bottom: 1px solid #f3f4f6; }
    .ok { color: var(--pink); }
    .err { color: #dc2626; }
    .last { margin-top: 16px; font-family: monospace; font-size: 13px; color: var(--muted); }
    @media (max-width: 800px) { .grid { grid-template-columns: 1fr; } }
  </style>
</head>
<body>
  <div class="wrap">
    {{if eq .Status "ok"}}<h1>All Systems Operational</h1>{{else}}<h1 class="issue">System Issues Detected</h1>{{end}}
    <div class="sub">popfitup catalog API · <a href="/health/json">/health/json</a> · <a href="/health/errors">/health/errors</a></div>
    <div class="grid">
      <div class="card">
        <div class="label">Traffic</div>
        <div class="big">{{.Traffic.TotalRequests}}</div>
        <div class="row"><span>Successful</span><span class="ok">{{.Traffic.SuccessCount}}</span></div>
        <div class="row"><span>Failed</span><span class="err">{{.Traffic.FailedCount}}</span></div>
        <div class="row"><span>Success Rate</span><span>{{.Traffic.SuccessRate}}%</span></div>
        <div class="row"><span>Avg Latency</span><span>{{.Traffic.AvgResponseTime}}ms</span></div>
      </div>
      <div class="card">
        <div class="label">Runtime</div>
        <div class="big">{{.Runtime.UptimeSeconds}}s</div>
        <div class="row"><span>Heap Used</span><span>{{.Runtime.Memory.HeapUsed}} MB</span></div>
        <div class="row"><span>Goroutines</span><span>{{.Runtime.Goroutines}}</span></div>
        <div class="row"><span>Go</span><span>{{.Runtime.GoVersion}}</span></div>
        <div class="row"><span>Platform</span><span>{{.Runtime.Platform}}</span></div>
      </div>
      <div class="card">
        <div class="label">Dependencies</div>
        {{range .Deps}}<div class="row"><span>{{.Name}}</span><span class="{{if .Healthy}}ok{{else}}err{{end}}">{{.Status}}{{with .PingMs}} · {{.}} ms{{end}}</span></div>
        {{end}}
      </div>
    </div>
    {{with .Traffic.LastRequest}}<div class="last">LAST INBOUND {{index . "method"}} {{index . "path"}} {{index . "ip"}}</div>{{end}}
  </div>
  <script>setTimeout(() => location.reload(), 30000)</script>
</body>
</html>`))

type depRow struct {
	Name    string
	Status  string
	PingMs  *int64
	Healthy bool
}

// RenderDashboardHTML returns the HTML for GET /.
func RenderDashboardHTML(health CollectResult) (string, error) {
	deps := make([]depRow, 0, len(health.Dependencies))
	for name, d := range health.Dependencies {
		deps = append(deps, depRow{
			Name:    name,
			Status:  d.Status,
			PingMs:  d.PingMs,
			Healthy: d.Status == "connected" || d.Status == "reachable",
		})
	}
	sort.Slice(deps, func(i, j int) bool { return deps[i].Name < deps[j].Name })

	var buf bytes.Buffer
	err := dashboardTmpl.Execute(&buf, struct {
		CollectResult
		Deps []depRow
	}{health, deps})
	return buf.String(), err
}
