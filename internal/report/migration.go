package report

import (
	"sort"
	"strings"

	"tablero/internal"
	"tablero/internal/pipeline"
)

type MigrationFilter struct {
	Proyectos []string
}

type MigrationKPIs struct {
	Total              int
	Compilados         int
	PendientesCompilar int
	XPZEnviados        int
	XPZPendEnvio       int
}

type ResponsableSummary struct {
	Responsable  string
	Asignaciones int
	Compilados   int
	XPZEnviados  int
	XPZPendEnvio int
}

type ProjectXPZ struct {
	N          int
	Proyecto   string
	Total      int
	Compilados int
	Enviados   int
}

type MigrationReport struct {
	ProyectoOptions []string
	Selected        []string
	Rows            []internal.MigrationRow

	KPIs           MigrationKPIs
	Responsables   []ResponsableSummary
	SinAsignar     int
	NoAplica       int
	ConResponsable int

	PendingXPZ []ProjectXPZ
}

func isYes(v string) bool { return strings.Contains(v, "SI") }

func isNA(v string) bool { return strings.Contains(v, pipeline.NoAplica) }

// BuildMigration computes the object migration dashboard. An empty project
// selection keeps every row.
func BuildMigration(set internal.MigrationSet, f MigrationFilter) MigrationReport {
	rep := MigrationReport{Selected: f.Proyectos}

	var proyectos []string
	for _, r := range set.Rows {
		proyectos = append(proyectos, r.Proyecto)
	}
	rep.ProyectoOptions = sortedUnique(proyectos)

	for _, r := range set.Rows {
		if len(f.Proyectos) == 0 || contains(f.Proyectos, r.Proyecto) {
			rep.Rows = append(rep.Rows, r)
		}
	}

	sent := func(r internal.MigrationRow) bool { return set.HasXPZEnviado && isYes(r.XPZEnviado) }

	rep.KPIs.Total = len(rep.Rows)
	for _, r := range rep.Rows {
		if isYes(r.Compilado) {
			rep.KPIs.Compilados++
		} else if !isNA(r.Compilado) {
			rep.KPIs.PendientesCompilar++
		}
		if sent(r) {
			rep.KPIs.XPZEnviados++
		}
	}
	if set.HasXPZEnviado {
		rep.KPIs.XPZPendEnvio = rep.KPIs.Compilados - rep.KPIs.XPZEnviados
	}

	byResp := map[string]*ResponsableSummary{}
	for _, r := range rep.Rows {
		s, ok := byResp[r.ResponsableMigracion]
		if !ok {
			s = &ResponsableSummary{Responsable: r.ResponsableMigracion}
			byResp[r.ResponsableMigracion] = s
		}
		s.Asignaciones++
		if isYes(r.Compilado) {
			s.Compilados++
		}
		if sent(r) {
			s.XPZEnviados++
		}
	}
	for _, s := range byResp {
		s.XPZPendEnvio = s.Compilados - s.XPZEnviados
		rep.Responsables = append(rep.Responsables, *s)
	}
	sort.Slice(rep.Responsables, func(i, j int) bool {
		return rep.Responsables[i].Responsable < rep.Responsables[j].Responsable
	})
	sort.SliceStable(rep.Responsables, func(i, j int) bool {
		a, b := rep.Responsables[i], rep.Responsables[j]
		if responsableRank(a.Responsable) != responsableRank(b.Responsable) {
			return responsableRank(a.Responsable) < responsableRank(b.Responsable)
		}
		return a.Asignaciones > b.Asignaciones
	})

	if s, ok := byResp[pipeline.SinAsignar]; ok {
		rep.SinAsignar = s.Asignaciones
	}
	if s, ok := byResp[pipeline.NoAplica]; ok {
		rep.NoAplica = s.Asignaciones
	}
	rep.ConResponsable = len(rep.Rows) - rep.SinAsignar - rep.NoAplica

	rep.PendingXPZ = pendingXPZ(rep.Rows, sent)
	return rep
}

func responsableRank(r string) int {
	switch r {
	case pipeline.SinAsignar:
		return 0
	case pipeline.NoAplica:
		return 1
	default:
		return 2
	}
}

// pendingXPZ lists projects with compiled objects whose XPZ has not been sent
// for all of them. Objects with Compilado N/A are left out.
func pendingXPZ(rows []internal.MigrationRow, sent func(internal.MigrationRow) bool) []ProjectXPZ {
	idx := map[string]int{}
	var all []ProjectXPZ
	for _, r := range rows {
		if isNA(r.Compilado) {
			continue
		}
		i, ok := idx[r.Proyecto]
		if !ok {
			i = len(all)
			idx[r.Proyecto] = i
			all = append(all, ProjectXPZ{Proyecto: r.Proyecto})
		}
		all[i].Total++
		if isYes(r.Compilado) {
			all[i].Compilados++
		}
		if sent(r) {
			all[i].Enviados++
		}
	}

	var out []ProjectXPZ
	for _, p := range all {
		if p.Compilados > 0 && p.Enviados < p.Compilados {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Total > out[j].Total })
	for i := range out {
		out[i].N = i + 1
	}
	return out
}

func (rep MigrationReport) Sheets() []pipeline.Sheet {
	kpis := pipeline.Sheet{
		Name:    "KPIs",
		Headers: []string{"Total de Objetos", "Objetos Compilados", "Pendientes a Compilar", "XPZ Enviados", "XPZ Pend. Envio"},
		Rows:    [][]any{{rep.KPIs.Total, rep.KPIs.Compilados, rep.KPIs.PendientesCompilar, rep.KPIs.XPZEnviados, rep.KPIs.XPZPendEnvio}},
	}
	resp := pipeline.Sheet{Name: "Por Responsable", Headers: []string{"Responsable_Migracion", "Asignaciones", "Compilados", "XPZ_Enviados", "XPZ_Pend_Envio"}}
	for _, r := range rep.Responsables {
		resp.Rows = append(resp.Rows, []any{r.Responsable, r.Asignaciones, r.Compilados, r.XPZEnviados, r.XPZPendEnvio})
	}
	pending := pipeline.Sheet{Name: "XPZ Pendientes", Headers: []string{"N°", "Proyecto", "Total Objetos", "Objetos Compilados", "XPZ Enviados"}}
	for _, p := range rep.PendingXPZ {
		pending.Rows = append(pending.Rows, []any{p.N, p.Proyecto, p.Total, p.Compilados, p.Enviados})
	}
	return []pipeline.Sheet{kpis, resp, pending, pipeline.MigrationSheet("Objetos", rep.Rows, nil)}
}
