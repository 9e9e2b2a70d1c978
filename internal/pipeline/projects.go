package pipeline

import (
	"bytes"
	"io"

	"github.com/xuri/excelize/v2"

	"tablero/internal"
	"tablero/internal/classify"
	"tablero/internal/config"
)

const (
	colNombre         = "Nombre"
	colEstadoActual   = "Estado Actual"
	colJefatura       = "Jefatura"
	colAsignatario    = "Asignatario predeterminado"
	colFechaInicio    = "Fecha de inicio"
	colFechaFin       = "Fecha de fin"
	colActualizado    = "Actualizado por última vez"
	colEtiquetas      = "Etiquetas"
	colGestor         = "Gestor del proyecto"
	colPropietario    = "Propietario del proyecto"
	colGerencia       = "Gerencia/Unidad"
	colFechaPasaje    = "Fecha Pasaje a Producción"
	colEstabilizacion = "Estabilización"
	colAutor          = "Autor"
)

var projectColumns = map[string]bool{
	colNombre: true, colEstadoActual: true, colJefatura: true, colAsignatario: true,
	colFechaInicio: true, colFechaFin: true, colActualizado: true, colEtiquetas: true,
	colGestor: true, colPropietario: true, colGerencia: true, colFechaPasaje: true,
	colEstabilizacion: true, colAutor: true,
}

// LoadProjects reads the projects export: first sheet, header on the configured
// row. Every row's name goes through the classifier.
func LoadProjects(r io.Reader, source string, d config.Dashboards) (internal.ProjectSet, error) {
	set := internal.ProjectSet{Source: source}

	f, err := openWorkbook(r, source)
	if err != nil {
		return set, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return set, loadErr(source, "el libro no tiene hojas", nil)
	}

	t, ok, err := readSheet(f, sheets[0], d.Projects.HeaderRow)
	if err != nil {
		return set, loadErr(source, "no se pudo leer la hoja "+sheets[0], err)
	}
	if !ok {
		return set, loadErr(source, "la hoja no llega a la fila de encabezados", nil)
	}
	if !t.has(colNombre) {
		return set, loadErr(source, "falta la columna \"Nombre\"", nil)
	}
	set.ExtraColumns = t.extraColumns(projectColumns)

	for i := 0; i < t.len(); i++ {
		cn := classify.Name(t.value(f, i, colNombre))
		row := internal.ProjectRow{
			RowNumber:            t.sheetRows[i],
			Nombre:               cn.Name,
			CodigoProyecto:       cn.ProjectCode,
			CodigoEstabilizacion: cn.StabilizationCode,
			Tipo:                 cn.Category,
			EstadoActual:         t.optText(i, colEstadoActual),
			Jefatura:             t.optText(i, colJefatura),
			Asignatario:          t.optText(i, colAsignatario),
			FechaInicio:          t.date(i, colFechaInicio),
			FechaFin:             t.date(i, colFechaFin),
			Actualizado:          t.date(i, colActualizado),
			Etiquetas:            t.optText(i, colEtiquetas),
			Gestor:               t.optText(i, colGestor),
			Propietario:          t.optText(i, colPropietario),
			Gerencia:             t.optText(i, colGerencia),
			FechaPasajeProd:      t.date(i, colFechaPasaje),
			Estabilizacion:       t.optText(i, colEstabilizacion),
			Autor:                t.optText(i, colAutor),
			Extra:                t.extra(i, set.ExtraColumns),
		}
		set.Rows = append(set.Rows, row)
	}
	return set, nil
}

func openWorkbook(r io.Reader, source string) (*excelize.File, error) {
	blob, err := io.ReadAll(r)
	if err != nil {
		return nil, loadErr(source, "no se pudo leer el archivo", err)
	}
	if len(blob) == 0 {
		return nil, loadErr(source, "el archivo está vacío", nil)
	}
	f, err := excelize.OpenReader(bytes.NewReader(blob))
	if err != nil {
		return nil, loadErr(source, "no es un libro xlsx válido", err)
	}
	return f, nil
}

func (t *sheetTable) extraColumns(known map[string]bool) []string {
	var out []string
	seen := map[string]bool{}
	for _, h := range t.headers {
		if h == "" || known[h] || seen[h] {
			continue
		}
		seen[h] = true
		out = append(out, h)
	}
	return out
}

func (t *sheetTable) extra(i int, cols []string) map[string]string {
	if len(cols) == 0 {
		return nil
	}
	out := make(map[string]string, len(cols))
	for _, c := range cols {
		out[c] = t.text(i, c)
	}
	return out
}
