package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDashboardsDefaults(t *testing.T) {
	d, err := LoadDashboards("")
	require.NoError(t, err)
	assert.Equal(t, 4, d.Projects.HeaderRow)
	assert.Equal(t, []string{"Dia a Dia", "Incidentes"}, d.Migration.Sheets)
	assert.Len(t, d.August.FreezeCodes, 9)
	assert.Equal(t, "Finalizado", d.StateOrder[len(d.StateOrder)-1])
}

func TestLoadDashboardsOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dashboards.yaml")
	blob := []byte(`
projects:
  header_row: 1
august:
  tag_filter: "/Sept/25"
  freeze_codes: ["P1/25"]
`)
	require.NoError(t, os.WriteFile(path, blob, 0o644))

	d, err := LoadDashboards(path)
	require.NoError(t, err)
	assert.Equal(t, 1, d.Projects.HeaderRow)
	assert.Equal(t, "Core Bancario", d.Projects.DefaultJefatura)
	assert.Equal(t, "/Sept/25", d.August.TagFilter)
	assert.Equal(t, []string{"P1/25"}, d.August.FreezeCodes)
	assert.Equal(t, []string{"core bancario", "normativo"}, d.August.CoreJefaturas)
}

func TestLoadDashboardsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dashboards.yaml")
	require.NoError(t, os.WriteFile(path, []byte("projects:\n  header_row: 0\n"), 0o644))

	_, err := LoadDashboards(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "header_row")

	_, err = LoadDashboards(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
