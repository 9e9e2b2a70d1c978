package report

import (
	"sort"
	"strings"

	"tablero/internal"
	"tablero/internal/config"
	"tablero/internal/pipeline"
	"tablero/internal/util"
)

const (
	EstadoFinalizado     = "Finalizado"
	EstadoEstabilizacion = "Estabilización"

	AllStates     = "Todos"
	unassignedTab = "Sin Asignar"
	noManager     = "Sin asignar"
)

// ProjectFilter carries the user's selections. A nil Jefaturas slice means
// "use the default selection"; an empty non-nil slice selects nothing.
type ProjectFilter struct {
	Jefaturas          []string
	Indicator          string
	PreMigrationEstado string
	Year               string
}

type Indicator struct {
	Label string
	Count int
}

type indicatorDef struct {
	label string
	match func(internal.ProjectRow) bool
}

var closedOrParked = []string{EstadoEstabilizacion, EstadoFinalizado, "PMO-Detenido", "PMO-No iniciado"}

func estadoIs(v string) func(internal.ProjectRow) bool {
	return func(r internal.ProjectRow) bool { return r.EstadoActual != nil && *r.EstadoActual == v }
}

func estadoHas(v string) func(internal.ProjectRow) bool {
	return func(r internal.ProjectRow) bool { return r.EstadoActual != nil && strings.Contains(*r.EstadoActual, v) }
}

var indicatorDefs = []indicatorDef{
	{"Total Proyectos", func(internal.ProjectRow) bool { return true }},
	{"Finalizados", estadoIs(EstadoFinalizado)},
	{"En Estabilización", estadoIs(EstadoEstabilizacion)},
	{"Para Comité", estadoHas("PROD-Para Comité de Pasajes")},
	{"Análisis Tec (DESA)", estadoHas("DESA-Análisis Técnico")},
	{"En Curso (DESA)", estadoHas("DESA-En Curso")},
	{"En QA", estadoHas("QA-En Pruebas QA")},
	{"En UAT", estadoHas("QA-En Pruebas UAT")},
	{"PMO-Detenido", estadoHas("PMO-Detenido")},
	{"PMO-No iniciado", estadoHas("PMO-No iniciado")},
	{"PMO-Relevamiento PMO", estadoHas("PMO-Relevamiento PMO")},
	{"PMO-Pend. Validación técnica", estadoHas("PMO-Pend. Validación técnica")},
	{"Sin Gestor", func(r internal.ProjectRow) bool { return r.Gestor == nil }},
	{"Sin Fecha Inicio", func(r internal.ProjectRow) bool {
		return r.FechaInicio == nil && !contains(closedOrParked, estado(r))
	}},
	{"En Prod y Sin Fecha Pasaje", func(r internal.ProjectRow) bool {
		return r.FechaPasajeProd == nil && isImplementedEstado(r)
	}},
	{"Sin Fecha Fin", func(r internal.ProjectRow) bool {
		return r.FechaFin == nil && !contains(closedOrParked, estado(r))
	}},
	{"Sin Asignatario", func(r internal.ProjectRow) bool { return r.Asignatario == nil }},
}

// IndicatorLabels lists the key indicators in display order.
func IndicatorLabels() []string {
	out := make([]string, len(indicatorDefs))
	for i, d := range indicatorDefs {
		out[i] = d.label
	}
	return out
}

func isImplementedEstado(r internal.ProjectRow) bool {
	e := estado(r)
	return r.EstadoActual != nil && (e == EstadoFinalizado || e == EstadoEstabilizacion)
}

type ProjectStabilizations struct {
	Code   string
	Nombre string
	Count  int
}

type PreMigration struct {
	EstadoOptions []string
	Selected      string
	Rows          []internal.ProjectRow
	ByEstado      []Count
}

type MonthCount struct {
	Month string
	Year  string
	Count int
}

type TypeProgress struct {
	Tipo          string
	Total         int
	Implementados int
	Pendientes    int
}

type Implemented struct {
	Months       []MonthCount
	YearOptions  []string
	SelectedYear string
	ByMonth      []MonthCount
	ByType       []TypeProgress
}

type ProjectsReport struct {
	JefaturaOptions   []string
	SelectedJefaturas []string
	Rows              []internal.ProjectRow

	Indicators        []Indicator
	SelectedIndicator string
	Detail            []internal.ProjectRow

	Types         []Share
	ByEstado      []Count
	ByAsignatario []Count
	ByJefatura    []Count
	ByEtiqueta    []Count
	ByGestor      []Count

	TopStabilization       []Count
	StabilizationByProject []ProjectStabilizations

	PreMigration PreMigration
	Implemented  Implemented
}

// BuildProjects computes the projects dashboard for the rows of one export.
func BuildProjects(rows []internal.ProjectRow, f ProjectFilter, d config.Dashboards) ProjectsReport {
	var rep ProjectsReport

	var jefaturas []string
	for _, r := range rows {
		jefaturas = append(jefaturas, util.Deref(r.Jefatura))
	}
	rep.JefaturaOptions = sortedUnique(jefaturas)

	if f.Jefaturas == nil {
		rep.SelectedJefaturas = []string{}
		for _, j := range rep.JefaturaOptions {
			if strings.Contains(j, d.Projects.DefaultJefatura) {
				rep.SelectedJefaturas = append(rep.SelectedJefaturas, j)
			}
		}
	} else {
		rep.SelectedJefaturas = f.Jefaturas
	}
	rep.Rows = filterRows(rows, func(r internal.ProjectRow) bool {
		return r.Jefatura != nil && contains(rep.SelectedJefaturas, *r.Jefatura)
	})

	for _, def := range indicatorDefs {
		matched := filterRows(rep.Rows, def.match)
		rep.Indicators = append(rep.Indicators, Indicator{Label: def.label, Count: len(matched)})
		if def.label == f.Indicator {
			rep.SelectedIndicator = def.label
			rep.Detail = matched
		}
	}

	rep.Types = Percentages(ValueCounts(column(rep.Rows, func(r internal.ProjectRow) (string, bool) {
		return string(r.Tipo), true
	})))
	rep.ByEstado = ValueCounts(column(rep.Rows, optional(func(r internal.ProjectRow) *string { return r.EstadoActual })))
	rep.ByAsignatario = ValueCounts(column(rep.Rows, func(r internal.ProjectRow) (string, bool) {
		return util.OrDefault(r.Asignatario, unassignedTab), true
	}))
	rep.ByJefatura = ValueCounts(column(rep.Rows, optional(func(r internal.ProjectRow) *string { return r.Jefatura })))
	rep.ByEtiqueta = ValueCounts(splitTags(rep.Rows))
	rep.ByGestor = ValueCounts(column(rep.Rows, func(r internal.ProjectRow) (string, bool) {
		return util.OrDefault(r.Gestor, noManager), true
	}))

	rep.TopStabilization, rep.StabilizationByProject = stabilizations(rep.Rows, d.Projects.TopStabilization)
	rep.PreMigration = preMigration(rep.Rows, d.Projects.PreMigrationTag, f.PreMigrationEstado)
	rep.Implemented = implemented(rep.Rows, f.Year)
	return rep
}

func column(rows []internal.ProjectRow, get func(internal.ProjectRow) (string, bool)) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		if v, ok := get(r); ok {
			out = append(out, v)
		}
	}
	return out
}

func optional(get func(internal.ProjectRow) *string) func(internal.ProjectRow) (string, bool) {
	return func(r internal.ProjectRow) (string, bool) {
		v := get(r)
		if v == nil {
			return "", false
		}
		return *v, true
	}
}

func splitTags(rows []internal.ProjectRow) []string {
	var out []string
	for _, r := range rows {
		if r.Etiquetas == nil {
			continue
		}
		out = append(out, strings.Split(*r.Etiquetas, ", ")...)
	}
	return out
}

func isStabilization(r internal.ProjectRow) bool {
	return r.CodigoEstabilizacion != nil && strings.HasPrefix(*r.CodigoEstabilizacion, "E")
}

func stabilizations(rows []internal.ProjectRow, top int) ([]Count, []ProjectStabilizations) {
	stab := filterRows(rows, isStabilization)
	byAssignee := ValueCounts(column(stab, func(r internal.ProjectRow) (string, bool) {
		return util.OrDefault(r.Asignatario, unassignedTab), true
	}))
	if top > 0 && len(byAssignee) > top {
		byAssignee = byAssignee[:top]
	}

	idx := map[string]int{}
	var perProject []ProjectStabilizations
	for _, r := range rows {
		if r.CodigoProyecto == nil {
			continue
		}
		code := *r.CodigoProyecto
		i, ok := idx[code]
		if !ok {
			i = len(perProject)
			idx[code] = i
			perProject = append(perProject, ProjectStabilizations{Code: code, Nombre: r.Nombre.Raw})
		}
		if isStabilization(r) {
			perProject[i].Count++
		}
	}
	withStab := perProject[:0]
	for _, p := range perProject {
		if p.Count > 0 {
			withStab = append(withStab, p)
		}
	}
	sort.SliceStable(withStab, func(i, j int) bool { return withStab[i].Count > withStab[j].Count })
	return byAssignee, withStab
}

func preMigration(rows []internal.ProjectRow, tag, selected string) PreMigration {
	pm := PreMigration{Selected: AllStates}
	tagged := filterRows(rows, func(r internal.ProjectRow) bool {
		return r.Etiquetas != nil && strings.Contains(*r.Etiquetas, tag)
	})

	pm.EstadoOptions = []string{AllStates}
	seen := map[string]bool{}
	for _, r := range tagged {
		e := estado(r)
		if r.EstadoActual == nil || seen[e] {
			continue
		}
		seen[e] = true
		pm.EstadoOptions = append(pm.EstadoOptions, e)
	}
	if selected != "" && seen[selected] {
		pm.Selected = selected
	}

	if pm.Selected == AllStates {
		pm.Rows = tagged
	} else {
		pm.Rows = filterRows(tagged, estadoIs(pm.Selected))
	}
	pm.ByEstado = ValueCounts(column(tagged, optional(func(r internal.ProjectRow) *string { return r.EstadoActual })))
	return pm
}

func implemented(rows []internal.ProjectRow, year string) Implemented {
	var im Implemented
	done := filterRows(rows, isImplementedEstado)

	byMonth := map[string]int{}
	for _, r := range done {
		if r.FechaPasajeProd == nil {
			continue
		}
		byMonth[r.FechaPasajeProd.Format("2006-01")]++
	}
	years := map[string]bool{}
	for m, n := range byMonth {
		im.Months = append(im.Months, MonthCount{Month: m, Year: m[:4], Count: n})
		years[m[:4]] = true
	}
	sort.Slice(im.Months, func(i, j int) bool { return im.Months[i].Month < im.Months[j].Month })
	for y := range years {
		im.YearOptions = append(im.YearOptions, y)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(im.YearOptions)))

	if len(im.YearOptions) > 0 {
		im.SelectedYear = im.YearOptions[0]
		if years[year] {
			im.SelectedYear = year
		}
	}
	for _, m := range im.Months {
		if m.Year == im.SelectedYear {
			im.ByMonth = append(im.ByMonth, m)
		}
	}

	doneByType := map[string]int{}
	for _, r := range done {
		doneByType[string(r.Tipo)]++
	}
	for _, c := range ValueCounts(column(rows, func(r internal.ProjectRow) (string, bool) { return string(r.Tipo), true })) {
		im.ByType = append(im.ByType, TypeProgress{
			Tipo:          c.Key,
			Total:         c.Count,
			Implementados: doneByType[c.Key],
			Pendientes:    c.Count - doneByType[c.Key],
		})
	}
	return im
}

// Sheets lays the report out for a spreadsheet export.
func (rep ProjectsReport) Sheets() []pipeline.Sheet {
	sheets := []pipeline.Sheet{pipeline.ProjectSheet("Proyectos", rep.Rows, nil)}

	ind := pipeline.Sheet{Name: "Indicadores", Headers: []string{"Indicador", "Cantidad"}}
	for _, i := range rep.Indicators {
		ind.Rows = append(ind.Rows, []any{i.Label, i.Count})
	}
	types := pipeline.Sheet{Name: "Por Tipo", Headers: []string{"Tipo", "Cantidad", "Porcentaje"}}
	for _, t := range rep.Types {
		types.Rows = append(types.Rows, []any{t.Key, t.Count, t.Percent})
	}
	stab := pipeline.Sheet{Name: "Estabilizaciones", Headers: []string{"codigo_proyecto", "nombre", "cantidad_estabilizaciones"}}
	for _, p := range rep.StabilizationByProject {
		stab.Rows = append(stab.Rows, []any{p.Code, p.Nombre, p.Count})
	}
	months := pipeline.Sheet{Name: "Implementados por Mes", Headers: []string{"Mes", "Año", "Cantidad"}}
	if y := rep.Implemented.SelectedYear; y != "" {
		months.Name += " " + y
	}
	for _, m := range rep.Implemented.ByMonth {
		months.Rows = append(months.Rows, []any{m.Month, m.Year, m.Count})
	}
	byType := pipeline.Sheet{Name: "Implementados por Tipo", Headers: []string{"Tipo", "Total", "Implementados", "Pendientes"}}
	for _, t := range rep.Implemented.ByType {
		byType.Rows = append(byType.Rows, []any{t.Tipo, t.Total, t.Implementados, t.Pendientes})
	}

	return append(sheets,
		ind,
		types,
		countsSheet("Por Estado", "Estado", rep.ByEstado),
		countsSheet("Por Asignatario", "Asignatario", rep.ByAsignatario),
		countsSheet("Por Jefatura", "Jefatura", rep.ByJefatura),
		countsSheet("Por Etiqueta", "Etiqueta", rep.ByEtiqueta),
		countsSheet("Por Gestor", "Gestor", rep.ByGestor),
		countsSheet("Top Estabilizaciones", "Asignatario", rep.TopStabilization),
		stab,
		pipeline.ProjectSheet("Pre-Migración-NBT", rep.PreMigration.Rows, nil),
		countsSheet("Pre-Migración por Estado", "Estado", rep.PreMigration.ByEstado),
		months,
		byType,
	)
}
