package report

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tablero/internal"
	"tablero/internal/config"
	"tablero/internal/pipeline"
)

func projectsFixture() []internal.ProjectRow {
	return []internal.ProjectRow{
		project("P10/24 Migración Core", withJefatura("Core Bancario"), withEstado("Finalizado"),
			withAsignado("ana"), withGestor("luis"), withTags("Pre-Migración-NBT, Agos"),
			withInicio(day(2024, 1, 1)), withFin(day(2024, 6, 1)), withPasaje(day(2025, 3, 2))),
		project("E1-P10/24 Ajuste post pasaje", withJefatura("Core Bancario"), withEstado("Estabilización"),
			withAsignado("ana"), withPasaje(day(2024, 11, 5))),
		project("E2-P10/24 Otro ajuste", withJefatura("Core Bancario Pagos"), withEstado("DESA-En Curso")),
		project("M5/23 Mantenimiento", withJefatura("Core Bancario"), withEstado("PMO-No iniciado"),
			withTags("Pre-Migración-NBT"), withGestor("luis")),
		project("I9/25 Caída", withJefatura("Canales"), withEstado("QA-En Pruebas QA")),
		project("Sin código", withJefatura("Core Bancario"), withEstado("Estabilización"), withAsignado("beto")),
	}
}

func indicator(rep ProjectsReport, label string) int {
	for _, i := range rep.Indicators {
		if i.Label == label {
			return i.Count
		}
	}
	return -1
}

func TestBuildProjectsDefaultJefaturas(t *testing.T) {
	rep := BuildProjects(projectsFixture(), ProjectFilter{}, config.DefaultDashboards())

	assert.Equal(t, []string{"Canales", "Core Bancario", "Core Bancario Pagos"}, rep.JefaturaOptions)
	assert.Equal(t, []string{"Core Bancario", "Core Bancario Pagos"}, rep.SelectedJefaturas)
	assert.Len(t, rep.Rows, 5)
	assert.Len(t, rep.Indicators, 17)
	assert.Equal(t, IndicatorLabels()[0], rep.Indicators[0].Label)

	assert.Equal(t, 5, indicator(rep, "Total Proyectos"))
	assert.Equal(t, 1, indicator(rep, "Finalizados"))
	assert.Equal(t, 2, indicator(rep, "En Estabilización"))
	assert.Equal(t, 1, indicator(rep, "En Curso (DESA)"))
	assert.Equal(t, 1, indicator(rep, "PMO-No iniciado"))
	assert.Equal(t, 0, indicator(rep, "En QA"))
	assert.Equal(t, 3, indicator(rep, "Sin Gestor"))
	assert.Equal(t, 1, indicator(rep, "Sin Fecha Inicio"), "only rows still in progress count")
	assert.Equal(t, 1, indicator(rep, "Sin Fecha Fin"))
	assert.Equal(t, 1, indicator(rep, "En Prod y Sin Fecha Pasaje"))
	assert.Equal(t, 2, indicator(rep, "Sin Asignatario"))
	assert.Empty(t, rep.SelectedIndicator)
	assert.Nil(t, rep.Detail)
}

func TestBuildProjectsExplicitSelection(t *testing.T) {
	d := config.DefaultDashboards()

	rep := BuildProjects(projectsFixture(), ProjectFilter{Jefaturas: []string{}}, d)
	assert.Empty(t, rep.Rows)
	assert.Equal(t, 0, indicator(rep, "Total Proyectos"))

	rep = BuildProjects(projectsFixture(), ProjectFilter{Jefaturas: []string{"Canales"}, Indicator: "En QA"}, d)
	require.Len(t, rep.Detail, 1)
	assert.Equal(t, "En QA", rep.SelectedIndicator)
	assert.Equal(t, "I9/25 Caída", rep.Detail[0].Nombre.Raw)
}

func TestBuildProjectsDistributions(t *testing.T) {
	rep := BuildProjects(projectsFixture(), ProjectFilter{}, config.DefaultDashboards())

	require.NotEmpty(t, rep.Types)
	assert.Equal(t, string(internal.CategoryStabilization), rep.Types[0].Key)
	assert.InDelta(t, 40.0, rep.Types[0].Percent, 1e-9)

	assert.Equal(t, []Count{{"Estabilización", 2}, {"Finalizado", 1}, {"DESA-En Curso", 1}, {"PMO-No iniciado", 1}}, rep.ByEstado)
	assert.Equal(t, []Count{{"ana", 2}, {"Sin Asignar", 2}, {"beto", 1}}, rep.ByAsignatario)
	assert.Equal(t, []Count{{"Core Bancario", 4}, {"Core Bancario Pagos", 1}}, rep.ByJefatura)
	assert.Equal(t, []Count{{"Pre-Migración-NBT", 2}, {"Agos", 1}}, rep.ByEtiqueta)
	assert.Equal(t, []Count{{"Sin asignar", 3}, {"luis", 2}}, rep.ByGestor)
}

func TestBuildProjectsStabilizations(t *testing.T) {
	rep := BuildProjects(projectsFixture(), ProjectFilter{}, config.DefaultDashboards())

	assert.Equal(t, []Count{{"ana", 1}, {"Sin Asignar", 1}}, rep.TopStabilization)
	require.Len(t, rep.StabilizationByProject, 1)
	got := rep.StabilizationByProject[0]
	assert.Equal(t, "P10/24", got.Code)
	assert.Equal(t, 2, got.Count)
	assert.Equal(t, "P10/24 Migración Core", got.Nombre, "named after the first row with the code")
}

func TestBuildProjectsBlankAsignatario(t *testing.T) {
	rows := []internal.ProjectRow{
		project("P1/25 Alta", withJefatura("Core Bancario"), withAsignado("  ")),
		project("P2/25 Baja", withJefatura("Core Bancario")),
	}
	rep := BuildProjects(rows, ProjectFilter{}, config.DefaultDashboards())
	assert.Equal(t, 1, indicator(rep, "Sin Asignatario"))
	assert.Equal(t, []Count{{"  ", 1}, {"Sin Asignar", 1}}, rep.ByAsignatario)
}

func TestBuildProjectsTopStabilizationLimit(t *testing.T) {
	d := config.DefaultDashboards()
	d.Projects.TopStabilization = 1
	rep := BuildProjects(projectsFixture(), ProjectFilter{}, d)
	assert.Len(t, rep.TopStabilization, 1)
}

func TestBuildProjectsPreMigration(t *testing.T) {
	d := config.DefaultDashboards()

	rep := BuildProjects(projectsFixture(), ProjectFilter{}, d)
	pm := rep.PreMigration
	assert.Equal(t, []string{AllStates, "Finalizado", "PMO-No iniciado"}, pm.EstadoOptions)
	assert.Equal(t, AllStates, pm.Selected)
	assert.Len(t, pm.Rows, 2)
	assert.Len(t, pm.ByEstado, 2)

	rep = BuildProjects(projectsFixture(), ProjectFilter{PreMigrationEstado: "PMO-No iniciado"}, d)
	require.Len(t, rep.PreMigration.Rows, 1)
	assert.Equal(t, "M5/23 Mantenimiento", rep.PreMigration.Rows[0].Nombre.Raw)

	rep = BuildProjects(projectsFixture(), ProjectFilter{PreMigrationEstado: "desconocido"}, d)
	assert.Equal(t, AllStates, rep.PreMigration.Selected)
}

func TestBuildProjectsImplemented(t *testing.T) {
	d := config.DefaultDashboards()

	im := BuildProjects(projectsFixture(), ProjectFilter{}, d).Implemented
	assert.Equal(t, []string{"2025", "2024"}, im.YearOptions)
	assert.Equal(t, "2025", im.SelectedYear)
	assert.Equal(t, []MonthCount{{"2024-11", "2024", 1}, {"2025-03", "2025", 1}}, im.Months)
	assert.Equal(t, []MonthCount{{"2025-03", "2025", 1}}, im.ByMonth)

	im = BuildProjects(projectsFixture(), ProjectFilter{Year: "2024"}, d).Implemented
	assert.Equal(t, []MonthCount{{"2024-11", "2024", 1}}, im.ByMonth)

	byType := map[string]TypeProgress{}
	for _, tp := range im.ByType {
		byType[tp.Tipo] = tp
	}
	assert.Equal(t, TypeProgress{Tipo: "Estabilización", Total: 2, Implementados: 1, Pendientes: 1}, byType["Estabilización"])
	assert.Equal(t, TypeProgress{Tipo: "Otro", Total: 1, Implementados: 1, Pendientes: 0}, byType["Otro"])
	assert.Equal(t, TypeProgress{Tipo: "Mantenimiento", Total: 1, Implementados: 0, Pendientes: 1}, byType["Mantenimiento"])
}

func TestBuildProjectsEmpty(t *testing.T) {
	rep := BuildProjects(nil, ProjectFilter{}, config.DefaultDashboards())
	assert.Empty(t, rep.Rows)
	assert.Empty(t, rep.Implemented.YearOptions)
	assert.Equal(t, "", rep.Implemented.SelectedYear)
	assert.Equal(t, []string{AllStates}, rep.PreMigration.EstadoOptions)
}

func TestProjectsReportSheets(t *testing.T) {
	rep := BuildProjects(projectsFixture(), ProjectFilter{}, config.DefaultDashboards())
	sheets := rep.Sheets()
	require.NotEmpty(t, sheets)
	assert.Equal(t, "Proyectos", sheets[0].Name)
	assert.Len(t, sheets[0].Rows, 5)

	names := map[string]bool{}
	for _, s := range sheets {
		names[s.Name] = true
	}
	assert.True(t, names["Indicadores"])
	assert.True(t, names["Implementados por Tipo"])

	byName := map[string][][]any{}
	for _, s := range sheets {
		byName[s.Name] = s.Rows
	}
	assert.Equal(t, [][]any{{"Finalizado", 1}, {"PMO-No iniciado", 1}}, byName["Pre-Migración por Estado"])
	assert.Equal(t, [][]any{{"2025-03", "2025", 1}}, byName["Implementados por Mes 2025"])

	sheets = BuildProjects(projectsFixture(), ProjectFilter{Year: "2024"}, config.DefaultDashboards()).Sheets()
	var months []pipeline.Sheet
	for _, s := range sheets {
		if strings.HasPrefix(s.Name, "Implementados por Mes") {
			months = append(months, s)
		}
	}
	require.Len(t, months, 1)
	assert.Equal(t, "Implementados por Mes 2024", months[0].Name)
	assert.Equal(t, [][]any{{"2024-11", "2024", 1}}, months[0].Rows)
}
