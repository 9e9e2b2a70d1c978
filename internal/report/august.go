package report

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"tablero/internal"
	"tablero/internal/config"
	"tablero/internal/pipeline"
	"tablero/internal/util"
)

const (
	colorImplemented = "#2c7873"
	colorPost        = "#ffd700"
	colorFreeze      = "#2980b9"
	colorPMO         = "#51748b"
	colorDESA        = "#27a9ae"
	colorQA          = "#ffd90066"
	colorGerencia    = "#b96329"
	colorAssignee    = "#51748b"

	LabelImplemented    = "Implementado"
	LabelNotImplemented = "No implementado"
	LabelOtherTag       = "Otro"

	noGerencia = "(Sin dato)"
	noAssignee = "(Sin asignatario)"
)

// RowStyle is how one row is highlighted in the August tables.
type RowStyle struct {
	Background string
	Color      string
}

type StyledRow struct {
	Row   internal.ProjectRow
	Style RowStyle
}

type Group struct {
	Label string
	Color string
	Rows  []StyledRow
}

type AugustSummary struct {
	Total         int
	Pres          int
	Post          int
	Implementados int
}

type AugustReport struct {
	Rows    []StyledRow
	Columns []string
	Summary AugustSummary
	PresTag string
	PostTag string

	BeforeFreeze []StyledRow
	AfterFreeze  []StyledRow
	Implemented  []StyledRow

	ByEstado      []Group
	ByGerencia    []Group
	ByAsignatario []Group

	EstadoCounts          []Count
	EtiquetaTipo          []Count
	ImplementedCounts     []Count
	ImplementedByEtiqueta []PairCount
	ImplementedByGerencia []PairCount
}

// BuildAugust computes the August release dashboard: rows tagged for the
// release, split around the change freeze.
func BuildAugust(rows []internal.ProjectRow, d config.Dashboards) AugustReport {
	a := d.August
	rep := AugustReport{
		Columns: visibleColumns(a.HiddenColumns),
		PresTag: tagLabel(a.PresTag),
		PostTag: tagLabel(a.PostTag),
	}

	tagged := filterRows(rows, func(r internal.ProjectRow) bool {
		return r.Etiquetas != nil && strings.Contains(*r.Etiquetas, a.TagFilter)
	})
	rep.Rows = styleRows(tagged, a)

	rep.Summary.Total = len(tagged)
	for _, r := range tagged {
		tags := strings.ToLower(util.Deref(r.Etiquetas))
		if strings.Contains(tags, a.PresTag) {
			rep.Summary.Pres++
		}
		if strings.Contains(tags, a.PostTag) {
			rep.Summary.Post++
		}
		if isImplemented(r, a) {
			rep.Summary.Implementados++
		}
	}

	core := filterRows(tagged, func(r internal.ProjectRow) bool { return isCore(r, a) })
	for _, r := range core {
		sr := StyledRow{Row: r, Style: Highlight(r, a)}
		switch {
		case isImplemented(r, a):
			rep.Implemented = append(rep.Implemented, sr)
		case hasFreezeCode(r, a):
			rep.AfterFreeze = append(rep.AfterFreeze, sr)
		default:
			rep.BeforeFreeze = append(rep.BeforeFreeze, sr)
		}
	}

	rep.ByEstado = estadoGroups(core, d)
	rep.ByGerencia = keyedGroups(core, a, colorGerencia, gerenciaPrincipal)
	rep.ByAsignatario = keyedGroups(core, a, colorAssignee, func(r internal.ProjectRow) string {
		return util.OrDefault(r.Asignatario, noAssignee)
	})

	estadoN := map[string]int{}
	var tipos, impl, gerencias, gerenciaImpl []string
	for _, r := range core {
		estadoN[estado(r)]++
		t := etiquetaTipo(r, a)
		i := implementedLabel(r, a)
		tipos = append(tipos, t)
		impl = append(impl, i)
		if r.Gerencia != nil && strings.TrimSpace(*r.Gerencia) != "" {
			if g := gerenciaPrincipal(r); g != noGerencia {
				gerencias = append(gerencias, g)
				gerenciaImpl = append(gerenciaImpl, i)
			}
		}
	}
	for _, s := range d.StateOrder {
		rep.EstadoCounts = append(rep.EstadoCounts, Count{Key: s, Count: estadoN[s]})
	}
	rep.EtiquetaTipo = ValueCounts(tipos)
	rep.ImplementedCounts = ValueCounts(impl)
	rep.ImplementedByEtiqueta = pairCounts(tipos, impl)
	rep.ImplementedByGerencia = pairCounts(gerencias, gerenciaImpl)
	return rep
}

// Highlight returns the row style. Implemented rows get the green background;
// the Post tag and then a freeze code each override only the text color.
func Highlight(r internal.ProjectRow, a config.AugustSettings) RowStyle {
	var s RowStyle
	if isImplemented(r, a) {
		s = RowStyle{Background: colorImplemented, Color: "#fff"}
	}
	if strings.Contains(strings.ToLower(util.Deref(r.Etiquetas)), a.PostTag) {
		s.Color = colorPost
	}
	if hasFreezeCode(r, a) {
		s.Color = colorFreeze
	}
	return s
}

// EstadoColor picks the group color from the workflow stage prefix.
func EstadoColor(estado string) string {
	switch {
	case strings.HasPrefix(estado, "PMO"):
		return colorPMO
	case strings.HasPrefix(estado, "DESA"):
		return colorDESA
	case strings.HasPrefix(estado, "QA"):
		return colorQA
	default:
		return colorImplemented
	}
}

func isImplemented(r internal.ProjectRow, a config.AugustSettings) bool {
	return contains(a.ImplementedSet, strings.ToLower(strings.TrimSpace(estado(r))))
}

func implementedLabel(r internal.ProjectRow, a config.AugustSettings) string {
	if isImplemented(r, a) {
		return LabelImplemented
	}
	return LabelNotImplemented
}

func isCore(r internal.ProjectRow, a config.AugustSettings) bool {
	return r.Jefatura != nil && util.ContainsAnyFold(*r.Jefatura, a.CoreJefaturas)
}

func hasFreezeCode(r internal.ProjectRow, a config.AugustSettings) bool {
	for _, code := range a.FreezeCodes {
		if strings.Contains(r.Nombre.Raw, code) {
			return true
		}
	}
	return false
}

func etiquetaTipo(r internal.ProjectRow, a config.AugustSettings) string {
	tags := strings.ToLower(util.Deref(r.Etiquetas))
	switch {
	case strings.Contains(tags, a.PostTag):
		return tagLabel(a.PostTag)
	case strings.Contains(tags, a.PresTag):
		return tagLabel(a.PresTag)
	default:
		return LabelOtherTag
	}
}

// gerenciaPrincipal is the first ">" segment of the gerencia path.
func gerenciaPrincipal(r internal.ProjectRow) string {
	if r.Gerencia == nil {
		return noGerencia
	}
	first, _, _ := strings.Cut(*r.Gerencia, ">")
	if first = strings.TrimSpace(first); first == "" {
		return noGerencia
	}
	return first
}

func estadoGroups(core []internal.ProjectRow, d config.Dashboards) []Group {
	var out []Group
	for _, s := range d.StateOrder {
		rows := filterRows(core, estadoIs(s))
		if len(rows) == 0 {
			continue
		}
		out = append(out, Group{Label: s, Color: EstadoColor(s), Rows: styleRows(rows, d.August)})
	}
	return out
}

func keyedGroups(core []internal.ProjectRow, a config.AugustSettings, color string, key func(internal.ProjectRow) string) []Group {
	var keys []string
	for _, r := range core {
		keys = append(keys, key(r))
	}
	var out []Group
	for _, k := range sortedUnique(keys) {
		rows := filterRows(core, func(r internal.ProjectRow) bool { return key(r) == k })
		out = append(out, Group{Label: k, Color: color, Rows: styleRows(rows, a)})
	}
	return out
}

func styleRows(rows []internal.ProjectRow, a config.AugustSettings) []StyledRow {
	out := make([]StyledRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, StyledRow{Row: r, Style: Highlight(r, a)})
	}
	return out
}

func visibleColumns(hidden []string) []string {
	var out []string
	for _, h := range pipeline.ProjectHeaders {
		if containsFold(hidden, h) {
			continue
		}
		out = append(out, h)
	}
	return out
}

func containsFold(list []string, v string) bool {
	for _, x := range list {
		if strings.EqualFold(x, v) {
			return true
		}
	}
	return false
}

// tagLabel renders "post/agos/25" as "Post/Agos/25".
func tagLabel(tag string) string {
	parts := strings.Split(tag, "/")
	for i, p := range parts {
		r, size := utf8.DecodeRuneInString(p)
		if size > 0 {
			parts[i] = string(unicode.ToUpper(r)) + p[size:]
		}
	}
	return strings.Join(parts, "/")
}

func styledSheet(name string, rows []StyledRow) pipeline.Sheet {
	plain := make([]internal.ProjectRow, len(rows))
	for i, r := range rows {
		plain[i] = r.Row
	}
	return pipeline.ProjectSheet(name, plain, nil)
}

func (rep AugustReport) Sheets() []pipeline.Sheet {
	summary := pipeline.Sheet{
		Name:    "Resumen",
		Headers: []string{"Total Proyectos", "Presentación " + rep.PresTag, "Posterior Presentación " + rep.PostTag, "Implementados"},
		Rows:    [][]any{{rep.Summary.Total, rep.Summary.Pres, rep.Summary.Post, rep.Summary.Implementados}},
	}
	return []pipeline.Sheet{
		summary,
		styledSheet("Antes del Freeze", rep.BeforeFreeze),
		styledSheet("Después del Freeze", rep.AfterFreeze),
		styledSheet("Implementados", rep.Implemented),
		countsSheet("Por Estado", "Estado", rep.EstadoCounts),
		countsSheet("Por Etiqueta", "Etiqueta", rep.EtiquetaTipo),
		countsSheet("Implementados vs No", "Estado", rep.ImplementedCounts),
		pairSheet("Implementados por Etiqueta", "Etiqueta", "Estado", rep.ImplementedByEtiqueta),
		pairSheet("Implementados por Gerencia", "Gerencia", "Estado", rep.ImplementedByGerencia),
		styledSheet("Todos", rep.Rows),
	}
}
