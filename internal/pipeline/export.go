package pipeline

import (
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"tablero/internal"
	"tablero/internal/util"
)

// Sheet is one worksheet of an exported workbook.
type Sheet struct {
	Name    string
	Headers []string
	Rows    [][]any
}

var ProjectHeaders = []string{
	"fila", "nombre", "codigo_proyecto", "codigo_estabilizacion", "tipo",
	"estado_actual", "jefatura", "asignatario", "fecha_inicio", "fecha_fin", "actualizado",
	"etiquetas", "gestor", "propietario", "gerencia", "fecha_pasaje_prod", "estabilizacion", "autor",
}

var MigrationHeaders = []string{
	"Hoja", "Fila", "Responsable_Migracion", "Compilado", "Testeado", "Proyecto",
	"codigo_proyecto", "tipo", "XPZ enviado", "FECHA XPZ", "FECHA XPZ GX8", "FECHA OBJETO",
}

func ProjectSheet(name string, rows []internal.ProjectRow, extra []string) Sheet {
	s := Sheet{Name: name, Headers: append(append([]string{}, ProjectHeaders...), extra...)}
	for _, r := range rows {
		line := ProjectRecord(r)
		for _, c := range extra {
			line = append(line, r.Extra[c])
		}
		s.Rows = append(s.Rows, line)
	}
	return s
}

// ProjectRecord returns the row's values in ProjectHeaders order.
func ProjectRecord(r internal.ProjectRow) []any {
	return []any{
		r.RowNumber, r.Nombre.Raw, util.Deref(r.CodigoProyecto), util.Deref(r.CodigoEstabilizacion), string(r.Tipo),
		util.Deref(r.EstadoActual), util.Deref(r.Jefatura), util.Deref(r.Asignatario),
		FormatDay(r.FechaInicio), FormatDay(r.FechaFin), formatStamp(r.Actualizado),
		util.Deref(r.Etiquetas), util.Deref(r.Gestor), util.Deref(r.Propietario), util.Deref(r.Gerencia),
		formatStamp(r.FechaPasajeProd), util.Deref(r.Estabilizacion), util.Deref(r.Autor),
	}
}

func MigrationSheet(name string, rows []internal.MigrationRow, extra []string) Sheet {
	s := Sheet{Name: name, Headers: append(append([]string{}, MigrationHeaders...), extra...)}
	for _, r := range rows {
		line := []any{
			r.Sheet, r.RowNumber, r.ResponsableMigracion, r.Compilado, r.Testeado, r.Proyecto,
			util.Deref(r.ProyectoClasificado.ProjectCode), string(r.ProyectoClasificado.Category),
			r.XPZEnviado, r.FechaXPZ, r.FechaXPZGX8, r.FechaObjeto,
		}
		for _, c := range extra {
			line = append(line, r.Extra[c])
		}
		s.Rows = append(s.Rows, line)
	}
	return s
}

// WriteWorkbook writes the sheets, in order, as one xlsx document.
func WriteWorkbook(w io.Writer, sheets []Sheet) error {
	f := excelize.NewFile()
	defer f.Close()

	first := f.GetSheetName(0)
	used := map[string]bool{}
	for i, s := range sheets {
		name := sheetName(s.Name, used)
		if i == 0 {
			if err := f.SetSheetName(first, name); err != nil {
				return err
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return err
		}
		if err := writeSheet(f, name, s); err != nil {
			return err
		}
	}
	_, err := f.WriteTo(w)
	return err
}

func SaveWorkbook(outputPath string, sheets []Sheet) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	out, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	if err := WriteWorkbook(out, sheets); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func writeSheet(f *excelize.File, name string, s Sheet) error {
	header := make([]any, len(s.Headers))
	for i, h := range s.Headers {
		header[i] = h
	}
	if err := f.SetSheetRow(name, "A1", &header); err != nil {
		return err
	}
	for i, row := range s.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(name, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

// sheetName keeps names within Excel's 31 character limit and unique.
func sheetName(name string, used map[string]bool) string {
	repl := strings.NewReplacer(":", "_", "\\", "_", "/", "_", "?", "_", "*", "_", "[", "(", "]", ")")
	name = strings.TrimSpace(repl.Replace(name))
	if name == "" {
		name = "Hoja"
	}
	base := []rune(name)
	if len(base) > 31 {
		base = base[:31]
	}
	out := string(base)
	for n := 2; used[strings.ToLower(out)]; n++ {
		suffix := "_" + strconv.Itoa(n)
		cut := base
		if len(cut)+len(suffix) > 31 {
			cut = cut[:31-len(suffix)]
		}
		out = string(cut) + suffix
	}
	used[strings.ToLower(out)] = true
	return out
}

// FormatDay renders a date as YYYY-MM-DD, or "" when absent.
func FormatDay(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

func formatStamp(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02 15:04:05")
}
