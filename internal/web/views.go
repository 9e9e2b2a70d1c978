package web

import (
	"fmt"
	"html/template"
	"net/url"
	"strconv"
	"strings"

	"tablero/internal"
	"tablero/internal/connectors"
	"tablero/internal/pipeline"
	"tablero/internal/report"
)

var dashboardTitles = map[internal.Dashboard]string{
	internal.DashboardProjects:  "Dashboard de Proyectos",
	internal.DashboardAugust:    "Proyectos Agosto",
	internal.DashboardMigration: "Migración de Objetos",
}

var templateFuncs = template.FuncMap{
	"title": func(d internal.Dashboard) string { return dashboardTitles[d] },
}

type page struct {
	Title     string
	Dashboard internal.Dashboard
	Session   *session
	ExportURL string
	Query     string

	Error string

	Index     *indexView
	Projects  *projectsView
	August    *augustView
	Migration *migrationView
}

type indexView struct {
	Dashboards []internal.Dashboard
	Inbox      []connectors.InboxFile
	Uploads    []uploadView
}

type uploadView struct {
	internal.UploadRecord
	Categories []internal.CategoryCount
}

type option struct {
	Value    string
	Selected bool
}

type card struct {
	Label  string
	Value  string
	URL    string
	Active bool
}

type rowView struct {
	Style template.CSS
	Cells []string
}

type tableView struct {
	Title   string
	Color   template.CSS
	Headers []string
	Rows    []rowView
}

type projectsView struct {
	Jefaturas  []option
	Indicators []card
	Estados    []option
	Years      []option
	Tables     []tableView
}

type augustView struct {
	Summary []card
	Tables  []tableView
	Groups  []groupSection
	Counts  []tableView
}

type groupSection struct {
	Title  string
	Tables []tableView
}

type migrationView struct {
	Proyectos []option
	KPIs      []card
	Owners    []card
	Tables    []tableView
}

func options(values []string, selected ...string) []option {
	out := make([]option, 0, len(values))
	for _, v := range values {
		sel := false
		for _, s := range selected {
			if s == v {
				sel = true
				break
			}
		}
		out = append(out, option{Value: v, Selected: sel})
	}
	return out
}

func cell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', 1, 64)
	default:
		return fmt.Sprint(x)
	}
}

func sheetTable(s pipeline.Sheet) tableView {
	t := tableView{Title: s.Name, Headers: s.Headers}
	for _, row := range s.Rows {
		rv := rowView{Cells: make([]string, len(row))}
		for i, v := range row {
			rv.Cells[i] = cell(v)
		}
		t.Rows = append(t.Rows, rv)
	}
	return t
}

func rowStyle(st report.RowStyle) template.CSS {
	var parts []string
	if st.Background != "" {
		parts = append(parts, "background-color: "+st.Background)
	}
	if st.Color != "" {
		parts = append(parts, "color: "+st.Color)
	}
	return template.CSS(strings.Join(parts, "; "))
}

// styledTable renders rows restricted to columns, keeping each row's highlight.
func styledTable(title string, color string, columns []string, rows []report.StyledRow) tableView {
	index := map[string]int{}
	for i, h := range pipeline.ProjectHeaders {
		index[h] = i
	}
	t := tableView{Title: title, Color: template.CSS(color), Headers: columns}
	for _, sr := range rows {
		record := pipeline.ProjectRecord(sr.Row)
		rv := rowView{Style: rowStyle(sr.Style), Cells: make([]string, len(columns))}
		for i, c := range columns {
			if j, ok := index[c]; ok {
				rv.Cells[i] = cell(record[j])
			}
		}
		t.Rows = append(t.Rows, rv)
	}
	return t
}

func withParam(q url.Values, key, value string) string {
	next := url.Values{}
	for k, v := range q {
		next[k] = append([]string{}, v...)
	}
	next.Set(key, value)
	return "?" + next.Encode()
}

func projectFilter(q url.Values) report.ProjectFilter {
	f := report.ProjectFilter{
		Indicator:          q.Get("indicator"),
		PreMigrationEstado: q.Get("estado"),
		Year:               q.Get("year"),
	}
	if q.Has("jefatura_set") || q.Has("jefatura") {
		f.Jefaturas = append([]string{}, q["jefatura"]...)
	}
	return f
}

func migrationFilter(q url.Values) report.MigrationFilter {
	return report.MigrationFilter{Proyectos: q["proyecto"]}
}

func buildProjectsView(rep report.ProjectsReport, q url.Values) *projectsView {
	v := &projectsView{
		Jefaturas: options(rep.JefaturaOptions, rep.SelectedJefaturas...),
		Estados:   options(rep.PreMigration.EstadoOptions, rep.PreMigration.Selected),
		Years:     options(rep.Implemented.YearOptions, rep.Implemented.SelectedYear),
	}
	for _, ind := range rep.Indicators {
		v.Indicators = append(v.Indicators, card{
			Label:  ind.Label,
			Value:  strconv.Itoa(ind.Count),
			URL:    withParam(q, "indicator", ind.Label),
			Active: ind.Label == rep.SelectedIndicator,
		})
	}
	if rep.SelectedIndicator != "" {
		v.Tables = append(v.Tables, sheetTable(pipeline.ProjectSheet("Detalle: "+rep.SelectedIndicator, rep.Detail, nil)))
	}
	for _, s := range rep.Sheets() {
		if s.Name == "Indicadores" || s.Name == "Proyectos" {
			continue
		}
		v.Tables = append(v.Tables, sheetTable(s))
	}
	return v
}

func buildAugustView(rep report.AugustReport) *augustView {
	v := &augustView{
		Summary: []card{
			{Label: "Total Proyectos", Value: strconv.Itoa(rep.Summary.Total)},
			{Label: "Presentación " + rep.PresTag, Value: strconv.Itoa(rep.Summary.Pres)},
			{Label: "Posterior Presentación " + rep.PostTag, Value: strconv.Itoa(rep.Summary.Post)},
			{Label: "Implementados", Value: strconv.Itoa(rep.Summary.Implementados)},
		},
		Tables: []tableView{
			styledTable("Antes del Freeze", "", rep.Columns, rep.BeforeFreeze),
			styledTable("Después del Freeze", "", rep.Columns, rep.AfterFreeze),
			styledTable("Implementados", "", rep.Columns, rep.Implemented),
		},
	}

	sections := []struct {
		title  string
		groups []report.Group
	}{
		{"Por Estado", rep.ByEstado},
		{"Por Gerencia", rep.ByGerencia},
		{"Por Asignatario", rep.ByAsignatario},
	}
	for _, sec := range sections {
		gs := groupSection{Title: sec.title}
		for _, g := range sec.groups {
			gs.Tables = append(gs.Tables, styledTable(g.Label, g.Color, rep.Columns, g.Rows))
		}
		v.Groups = append(v.Groups, gs)
	}

	for _, s := range rep.Sheets() {
		switch s.Name {
		case "Por Estado", "Por Etiqueta", "Implementados vs No", "Implementados por Etiqueta", "Implementados por Gerencia":
			v.Counts = append(v.Counts, sheetTable(s))
		}
	}
	return v
}

func buildMigrationView(rep report.MigrationReport) *migrationView {
	k := rep.KPIs
	v := &migrationView{
		Proyectos: options(rep.ProyectoOptions, rep.Selected...),
		KPIs: []card{
			{Label: "Total de Objetos", Value: strconv.Itoa(k.Total)},
			{Label: "Objetos Compilados", Value: strconv.Itoa(k.Compilados)},
			{Label: "Pendientes a Compilar", Value: strconv.Itoa(k.PendientesCompilar)},
			{Label: "XPZ Enviados", Value: strconv.Itoa(k.XPZEnviados)},
			{Label: "XPZ Pend. Envio", Value: strconv.Itoa(k.XPZPendEnvio)},
		},
		Owners: []card{
			{Label: "Sin Asignar", Value: strconv.Itoa(rep.SinAsignar)},
			{Label: "N/A", Value: strconv.Itoa(rep.NoAplica)},
			{Label: "Con Responsable", Value: strconv.Itoa(rep.ConResponsable)},
		},
	}
	for _, s := range rep.Sheets() {
		if s.Name == "KPIs" {
			continue
		}
		v.Tables = append(v.Tables, sheetTable(s))
	}
	return v
}
