package pipeline

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type fixtureSheet struct {
	name string
	rows [][]any
}

func mkXLSX(t *testing.T, sheets ...fixtureSheet) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, s := range sheets {
		if i == 0 {
			require.NoError(t, f.SetSheetName(f.GetSheetName(0), s.name))
		} else {
			_, err := f.NewSheet(s.name)
			require.NoError(t, err)
		}
		for r, row := range s.rows {
			for c, v := range row {
				if v == nil {
					continue
				}
				cell, err := excelize.CoordinatesToCellName(c+1, r+1)
				require.NoError(t, err)
				require.NoError(t, f.SetCellValue(s.name, cell, v))
			}
		}
	}
	buf := bytes.NewBuffer(nil)
	_, err := f.WriteTo(buf)
	require.NoError(t, err)
	return buf.Bytes()
}
