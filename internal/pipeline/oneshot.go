package pipeline

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"tablero/internal"
	"tablero/internal/config"
)

// Dataset is a loaded workbook for one dashboard. The August dashboard reads
// the same export as the projects one.
type Dataset struct {
	Dashboard internal.Dashboard
	Source    string
	Hash      string
	Projects  internal.ProjectSet
	Migration internal.MigrationSet
}

func (ds Dataset) Len() int {
	if ds.Dashboard == internal.DashboardMigration {
		return len(ds.Migration.Rows)
	}
	return len(ds.Projects.Rows)
}

func Load(r io.Reader, source string, kind internal.Dashboard, d config.Dashboards) (Dataset, error) {
	ds := Dataset{Dashboard: kind, Source: source}
	blob, err := io.ReadAll(r)
	if err != nil {
		return ds, loadErr(source, "no se pudo leer el archivo", err)
	}
	sum := sha256.Sum256(blob)
	ds.Hash = hex.EncodeToString(sum[:])

	switch kind {
	case internal.DashboardProjects, internal.DashboardAugust:
		ds.Projects, err = LoadProjects(bytes.NewReader(blob), source, d)
	case internal.DashboardMigration:
		ds.Migration, err = LoadMigration(bytes.NewReader(blob), source, d)
	default:
		return ds, fmt.Errorf("unsupported dashboard: %s", kind)
	}
	return ds, err
}

func LoadFile(path string, kind internal.Dashboard, d config.Dashboards) (Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return Dataset{}, loadErr(filepath.Base(path), "no se pudo abrir el archivo", err)
	}
	defer f.Close()
	return Load(f, filepath.Base(path), kind, d)
}

// Detect guesses the dashboard of a workbook: one carrying every migration
// sheet is a migration export, anything else is read as a projects export.
func Detect(blob []byte, source string, d config.Dashboards) (internal.Dashboard, error) {
	f, err := openWorkbook(bytes.NewReader(blob), source)
	if err != nil {
		return "", err
	}
	defer f.Close()

	present := map[string]bool{}
	for _, name := range f.GetSheetList() {
		present[name] = true
	}
	if len(d.Migration.Sheets) == 0 {
		return internal.DashboardProjects, nil
	}
	for _, name := range d.Migration.Sheets {
		if !present[name] {
			return internal.DashboardProjects, nil
		}
	}
	return internal.DashboardMigration, nil
}

// CategoryCounts tallies the classified rows per category, in Categories order,
// omitting categories with no rows.
func (ds Dataset) CategoryCounts() []internal.CategoryCount {
	counts := map[internal.Category]int{}
	if ds.Dashboard == internal.DashboardMigration {
		for _, r := range ds.Migration.Rows {
			counts[r.ProyectoClasificado.Category]++
		}
	} else {
		for _, r := range ds.Projects.Rows {
			counts[r.Tipo]++
		}
	}

	var out []internal.CategoryCount
	for _, c := range internal.Categories {
		if counts[c] > 0 {
			out = append(out, internal.CategoryCount{Category: c, Count: counts[c]})
		}
	}
	return out
}

// Sheets returns the classified rows ready for WriteWorkbook.
func (ds Dataset) Sheets() []Sheet {
	if ds.Dashboard == internal.DashboardMigration {
		return []Sheet{MigrationSheet("Objetos", ds.Migration.Rows, ds.Migration.ExtraColumns)}
	}
	return []Sheet{ProjectSheet("Proyectos", ds.Projects.Rows, ds.Projects.ExtraColumns)}
}
