package pipeline

import (
	"io"
	"strconv"
	"strings"

	"tablero/internal"
	"tablero/internal/classify"
	"tablero/internal/config"
)

const (
	colResponsable = "RESPONSABLE MIGRACION"
	colCompilado   = "COMPILADO?"
	colTesteado    = "TESTEADO"
	colProyecto    = "PROYECTO"
	colXPZEnviado  = "XPZ enviado"
	colFechaXPZ    = "FECHA XPZ"
	colFechaXPZGX8 = "FECHA XPZ GX8"
	colFechaObjeto = "FECHA OBJETO"

	SinAsignar = "Sin Asignar"
	NoAplica   = "N/A"
)

var migrationColumns = map[string]bool{
	colResponsable: true, colCompilado: true, colTesteado: true, colProyecto: true,
	colXPZEnviado: true, colFechaXPZ: true, colFechaXPZGX8: true, colFechaObjeto: true,
}

var requiredMigrationColumns = []string{colResponsable, colCompilado, colTesteado, colProyecto}

// Values that only mean "nobody"; a literal N/A is kept.
var unassigned = map[string]bool{
	"nan": true, "NaN": true, "None": true, "": true, "nat": true, "0": true,
}

// LoadMigration reads the configured sheets of the migration workbook, header on
// row 1, and concatenates them in order.
func LoadMigration(r io.Reader, source string, d config.Dashboards) (internal.MigrationSet, error) {
	set := internal.MigrationSet{Source: source}

	f, err := openWorkbook(r, source)
	if err != nil {
		return set, err
	}
	defer f.Close()

	present := map[string]bool{}
	for _, s := range f.GetSheetList() {
		present[s] = true
	}

	var tables []*sheetTable
	columns := map[string]bool{}
	for _, name := range d.Migration.Sheets {
		if !present[name] {
			return set, loadErr(source, "falta la hoja \""+name+"\"", nil)
		}
		t, ok, err := readSheet(f, name, 1)
		if err != nil {
			return set, loadErr(source, "no se pudo leer la hoja "+name, err)
		}
		if !ok || t.len() == 0 {
			continue
		}
		for h := range t.index {
			columns[h] = true
		}
		tables = append(tables, t)
	}
	if len(tables) == 0 {
		return set, loadErr(source, "Ambas hojas del archivo están vacías.", nil)
	}
	for _, c := range requiredMigrationColumns {
		if !columns[c] {
			return set, loadErr(source, "falta la columna \""+c+"\"", nil)
		}
	}
	set.HasXPZEnviado = columns[colXPZEnviado]
	set.ExtraColumns = unionExtraColumns(tables)

	for _, t := range tables {
		for i := 0; i < t.len(); i++ {
			row := internal.MigrationRow{
				RowNumber:            t.sheetRows[i],
				Sheet:                t.sheet,
				ResponsableMigracion: cleanResponsable(t.text(i, colResponsable)),
				Compilado:            orDefault(t.text(i, colCompilado), "NO"),
				Testeado:             orDefault(t.text(i, colTesteado), "NO"),
				Proyecto:             t.text(i, colProyecto),
				XPZEnviado:           t.text(i, colXPZEnviado),
				FechaXPZ:             t.dateText(i, colFechaXPZ),
				FechaXPZGX8:          t.dateText(i, colFechaXPZGX8),
				FechaObjeto:          t.dateText(i, colFechaObjeto),
				Extra:                t.extra(i, set.ExtraColumns),
			}
			row.ProyectoClasificado = classify.Name(internal.Text(row.Proyecto))
			set.Rows = append(set.Rows, row)
		}
	}
	return set, nil
}

func cleanResponsable(v string) string {
	v = strings.TrimSpace(v)
	if unassigned[v] {
		return SinAsignar
	}
	return v
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

// dateText keeps date columns as text. Cells stored as date serials are
// rendered as timestamps, everything else stays as displayed.
func (t *sheetTable) dateText(i int, header string) string {
	col, ok := t.index[header]
	if !ok {
		return ""
	}
	raw := pick(t.raw[i], col)
	shown := pick(t.formatted[i], col)
	if _, err := strconv.ParseFloat(raw, 64); err == nil && raw != shown {
		if ts := parseDate(raw, t.date1904); ts != nil {
			return ts.Format("2006-01-02 15:04:05")
		}
	}
	return shown
}

func unionExtraColumns(tables []*sheetTable) []string {
	var out []string
	seen := map[string]bool{}
	for _, t := range tables {
		for _, c := range t.extraColumns(migrationColumns) {
			if !seen[c] {
				seen[c] = true
				out = append(out, c)
			}
		}
	}
	return out
}
