package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Dashboards holds the fixed vocabulary of the three dashboards. The defaults
// match the exports the dashboards were built for; a YAML file may override any
// subset of them.
type Dashboards struct {
	Projects  ProjectsSettings  `yaml:"projects"`
	August    AugustSettings    `yaml:"august"`
	Migration MigrationSettings `yaml:"migration"`

	// StateOrder is the workflow order of "Estado Actual" values.
	StateOrder []string `yaml:"state_order"`
}

type ProjectsSettings struct {
	HeaderRow        int    `yaml:"header_row"`
	DefaultJefatura  string `yaml:"default_jefatura"`
	PreMigrationTag  string `yaml:"pre_migration_tag"`
	TopStabilization int    `yaml:"top_stabilization"`
}

type AugustSettings struct {
	TagFilter      string   `yaml:"tag_filter"`
	PresTag        string   `yaml:"pres_tag"`
	PostTag        string   `yaml:"post_tag"`
	FreezeCodes    []string `yaml:"freeze_codes"`
	CoreJefaturas  []string `yaml:"core_jefaturas"`
	HiddenColumns  []string `yaml:"hidden_columns"`
	ImplementedSet []string `yaml:"implemented_states"`
}

type MigrationSettings struct {
	Sheets []string `yaml:"sheets"`
}

func DefaultDashboards() Dashboards {
	return Dashboards{
		Projects: ProjectsSettings{
			HeaderRow:        4,
			DefaultJefatura:  "Core Bancario",
			PreMigrationTag:  "Pre-Migración-NBT",
			TopStabilization: 10,
		},
		August: AugustSettings{
			TagFilter: "/Agos/25",
			PresTag:   "pres/agos/25",
			PostTag:   "post/agos/25",
			FreezeCodes: []string{
				"M022/24", "M030/25", "M018/25", "M048/25", "M034/25",
				"M041/25", "M136/24", "M043/25", "M034/24",
			},
			CoreJefaturas:  []string{"core bancario", "normativo"},
			HiddenColumns:  []string{"proyecto matriz", "autor", "codigo_proyecto", "estabilizacion", "codigo_estabilizacion"},
			ImplementedSet: []string{"finalizado", "estabilización"},
		},
		Migration: MigrationSettings{
			Sheets: []string{"Dia a Dia", "Incidentes"},
		},
		StateOrder: []string{
			"PMO-Detenido",
			"PMO-No iniciado",
			"PMO-Relevamiento PMO",
			"PMO-Pend. Validación técnica",
			"DESA-Listo p/ Análisis Técnico",
			"DESA-Análisis Técnico",
			"DESA-Pendiente Desarrollo",
			"DESA-En Curso",
			"QA-En Pruebas QA",
			"QA-En Pruebas Detenidas",
			"QA-En Pruebas UAT",
			"PROD-Para Comité de Pasajes",
			"Estabilización",
			"Finalizado",
		},
	}
}

// LoadDashboards returns the defaults, overlaid with the YAML file at path when
// path is not empty. Keys missing from the file keep their default.
func LoadDashboards(path string) (Dashboards, error) {
	d := DefaultDashboards()
	if strings.TrimSpace(path) == "" {
		return d, nil
	}
	blob, err := os.ReadFile(path)
	if err != nil {
		return Dashboards{}, fmt.Errorf("read dashboard config: %w", err)
	}
	if err := yaml.Unmarshal(blob, &d); err != nil {
		return Dashboards{}, fmt.Errorf("parse dashboard config %s: %w", path, err)
	}
	if err := d.Validate(); err != nil {
		return Dashboards{}, fmt.Errorf("dashboard config %s: %w", path, err)
	}
	return d, nil
}

func (d Dashboards) Validate() error {
	if d.Projects.HeaderRow < 1 {
		return fmt.Errorf("projects.header_row must be >= 1, got %d", d.Projects.HeaderRow)
	}
	if len(d.Migration.Sheets) == 0 {
		return fmt.Errorf("migration.sheets must not be empty")
	}
	if strings.TrimSpace(d.August.TagFilter) == "" {
		return fmt.Errorf("august.tag_filter must not be empty")
	}
	return nil
}
