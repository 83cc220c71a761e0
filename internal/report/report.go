// Package report summarizes extraction quality over a document archive, as a
// terminal table or a standalone HTML page.
package report

import (
	"fmt"
	"html/template"
	"io"
	"iter"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/JakeFAU/apodex/internal/apod"
	"github.com/JakeFAU/apodex/internal/day"
	"github.com/JakeFAU/apodex/internal/extract"
	"github.com/JakeFAU/apodex/internal/quality"
)

// Status classifies one day of the report.
type Status int

// Day outcomes, from best to worst.
const (
	StatusOK Status = iota
	StatusWarning
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusWarning:
		return "warning"
	default:
		return "error"
	}
}

// Row is the outcome for one day.
type Row struct {
	Day      day.Index
	Status   Status
	Title    string
	Warnings quality.Set
	Err      error
}

// Detail is the warning list or error message, empty for clean days.
func (r Row) Detail() string {
	if r.Err != nil {
		return r.Err.Error()
	}
	return r.Warnings.String()
}

// Report holds rows in ascending day order plus per-status totals.
type Report struct {
	Rows   []Row
	OK     int
	Warned int
	Failed int
}

// Total is the number of days examined.
func (r Report) Total() int { return len(r.Rows) }

// Build extracts every document in order. docs must yield ascending days.
func Build(docs iter.Seq2[day.Index, apod.Document]) Report {
	var rep Report
	for d, doc := range docs {
		res := extract.Verbose(d, doc.HTML)
		row := Row{Day: d, Title: res.Entry.Title, Warnings: res.Warnings, Err: res.Err}
		switch {
		case !res.OK():
			row.Status = StatusError
			rep.Failed++
		case !res.Warnings.Empty():
			row.Status = StatusWarning
			rep.Warned++
		default:
			rep.OK++
		}
		rep.Rows = append(rep.Rows, row)
	}
	return rep
}

// Problems returns the rows that are not clean.
func (r Report) Problems() []Row {
	var out []Row
	for _, row := range r.Rows {
		if row.Status != StatusOK {
			out = append(out, row)
		}
	}
	return out
}

// WriteTable renders a summary table to w. With all false only problem days
// are listed.
func (r Report) WriteTable(w io.Writer, all bool) {
	rows := r.Rows
	if !all {
		rows = r.Problems()
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle(fmt.Sprintf("%d days: %d ok, %d warnings, %d errors", r.Total(), r.OK, r.Warned, r.Failed))
	t.AppendHeader(table.Row{"Date", "Status", "Title", "Detail"})
	for _, row := range rows {
		t.AppendRow(table.Row{row.Day.String(), row.Status.String(), row.Title, row.Detail()})
	}
	t.AppendFooter(table.Row{"", "", "listed", len(rows)})
	t.Render()
}

// WriteHTML renders a self-contained page with one badge per day and a filter box.
func (r Report) WriteHTML(w io.Writer) error {
	if err := htmlReport.Execute(w, r); err != nil {
		return fmt.Errorf("render html report: %w", err)
	}
	return nil
}

var htmlReport = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>APOD extraction report</title>
<style>
body { font-family: sans-serif; margin: 2em; }
.badge { display: inline-block; padding: 0 .5em; border-radius: .5em; color: #fff; }
.ok { background: #2e7d32; }
.warning { background: #f9a825; }
.error { background: #c62828; }
td { padding: .2em .6em; vertical-align: top; }
</style>
</head>
<body>
<h1>APOD extraction report</h1>
<p>{{.Total}} days: {{.OK}} ok, {{.Warned}} warnings, {{.Failed}} errors</p>
<input id="filter" type="search" placeholder="Filter by date, status or text">
<table id="days">
<thead><tr><th>Date</th><th>Status</th><th>Title</th><th>Detail</th></tr></thead>
<tbody>
{{- range .Rows}}
<tr><td>{{.Day}}</td><td><span class="badge {{.Status}}">{{.Status}}</span></td><td>{{.Title}}</td><td>{{.Detail}}</td></tr>
{{- end}}
</tbody>
</table>
<script>
document.getElementById("filter").addEventListener("input", function (e) {
  var q = e.target.value.toLowerCase();
  document.querySelectorAll("#days tbody tr").forEach(function (tr) {
    tr.style.display = tr.textContent.toLowerCase().indexOf(q) === -1 ? "none" : "";
  });
});
</script>
</body>
</html>
`))
