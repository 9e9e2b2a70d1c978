package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("DASHBOARD_CONFIG", "")
	t.Setenv("LOG_LEVEL", "error")

	cmd := rootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestClassifyCommand(t *testing.T) {
	out, err := run(t, "classify", "  E12 - P3/25 Alta clientes", "Reunión semanal")
	require.NoError(t, err)
	assert.Contains(t, out, "E12-P3/25 Alta clientes")
	assert.Contains(t, out, "P3/25")
	assert.Contains(t, out, "Estabilización")
	assert.Contains(t, out, "Otro")
}

func TestReportCommand(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "export.xlsx")

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A4", &[]any{"Nombre", "Estado Actual", "Jefatura"}))
	require.NoError(t, f.SetSheetRow(sheet, "A5", &[]any{"P1/25 Core", "Finalizado", "Core Bancario"}))
	require.NoError(t, f.SaveAs(input))
	require.NoError(t, f.Close())

	output := filepath.Join(dir, "out", "reporte.xlsx")
	out, err := run(t, "report", "proyectos", "--input", input, "--out", output)
	require.NoError(t, err)
	assert.Contains(t, out, "jefaturas: Core Bancario")
	assert.Contains(t, out, "Proyecto: 1 (100.0%)")
	assert.Contains(t, out, "report written to")

	_, err = os.Stat(output)
	assert.NoError(t, err)

	_, err = run(t, "report", "ventas", "--input", input)
	assert.EqualError(t, err, `unknown dashboard "ventas"`)

	_, err = run(t, "report", "migracion", "--input", input)
	assert.ErrorContains(t, err, "Dia a Dia")
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "tablero version dev")
}
