package internal

import "time"

type Dashboard string

const (
	DashboardProjects  Dashboard = "proyectos"
	DashboardAugust    Dashboard = "agosto"
	DashboardMigration Dashboard = "migracion"
)

func ParseDashboard(s string) (Dashboard, bool) {
	switch Dashboard(s) {
	case DashboardProjects, DashboardAugust, DashboardMigration:
		return Dashboard(s), true
	default:
		return "", false
	}
}

// ValueKind tags a spreadsheet cell as it arrives from the loader.
type ValueKind int

const (
	KindAbsent ValueKind = iota
	KindText
	KindOther
)

// Value is a cell value: text, absent, or some other non-text value (number,
// boolean, date serial) carried verbatim in Raw.
type Value struct {
	Kind ValueKind
	Raw  string
}

func Text(s string) Value { return Value{Kind: KindText, Raw: s} }

func Absent() Value { return Value{Kind: KindAbsent} }

func Other(raw string) Value { return Value{Kind: KindOther, Raw: raw} }

func (v Value) IsText() bool { return v.Kind == KindText }

func (v Value) IsAbsent() bool { return v.Kind == KindAbsent }

func (v Value) String() string { return v.Raw }

type Category string

const (
	CategoryStabilization Category = "Estabilización"
	CategoryIncident      Category = "Incidente"
	CategoryProject       Category = "Proyecto"
	CategoryMaintenance   Category = "Mantenimiento"
	CategoryAudit         Category = "Auditoria"
	CategoryRegulatory    Category = "Normativo"
	CategoryOther         Category = "Otro"
)

var Categories = []Category{
	CategoryStabilization,
	CategoryIncident,
	CategoryProject,
	CategoryMaintenance,
	CategoryAudit,
	CategoryRegulatory,
	CategoryOther,
}

// ClassifiedName is computed once per row from its name cell and never mutated.
type ClassifiedName struct {
	Name              Value
	ProjectCode       *string
	StabilizationCode *string
	Category          Category
}

type ProjectRow struct {
	RowNumber int

	Nombre               Value
	CodigoProyecto       *string
	CodigoEstabilizacion *string
	Tipo                 Category

	EstadoActual    *string
	Jefatura        *string
	Asignatario     *string
	FechaInicio     *time.Time
	FechaFin        *time.Time
	Actualizado     *time.Time
	Etiquetas       *string
	Gestor          *string
	Propietario     *string
	Gerencia        *string
	FechaPasajeProd *time.Time
	Estabilizacion  *string
	Autor           *string

	Extra map[string]string
}

type ProjectSet struct {
	Source       string
	Rows         []ProjectRow
	ExtraColumns []string
}

type MigrationRow struct {
	RowNumber int
	Sheet     string

	ResponsableMigracion string
	Compilado            string
	Testeado             string
	Proyecto             string
	XPZEnviado           string
	FechaXPZ             string
	FechaXPZGX8          string
	FechaObjeto          string

	ProyectoClasificado ClassifiedName

	Extra map[string]string
}

type MigrationSet struct {
	Source        string
	Rows          []MigrationRow
	ExtraColumns  []string
	HasXPZEnviado bool
}

type FetchedMailMessage struct {
	Provider   string
	MessageID  string
	Subject    string
	From       string
	ReceivedAt string
	Raw        []byte
}

type UploadRecord struct {
	ID        string
	Dashboard string
	Source    string
	Hash      string
	Rows      int
	CreatedAt string
}

type CategoryCount struct {
	Category Category
	Count    int
}
