package utils

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestCreateHospitalTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "template.xlsx")
	require.NoError(t, CreateHospitalTemplate(path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{HospitalSheet}, f.GetSheetList())

	rows, err := f.GetRows(HospitalSheet)
	require.NoError(t, err)
	require.Len(t, rows, len(hospitalExamples)+1)
	assert.Equal(t, HospitalTemplateHeader, rows[0])
	assert.Equal(t, "Ankara Şehir Hastanesi", rows[1][0])
}

func TestCreateStatsWorkbook(t *testing.T) {
	rows := []StatsRow{
		{Name: "rawData", Total: 4, Matched: 1, Unmatched: 3, Locked: 1, Percent: 25},
		{Name: "phones", Total: 2, Matched: 2, Percent: 100},
	}
	data, err := CreateStatsWorkbook(rows, time.Date(2025, 11, 7, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Matching", "Info"}, f.GetSheetList())

	got, err := f.GetRows("Matching")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "Entity", got[0][0])
	assert.Equal(t, "rawData", got[1][0])
	assert.Equal(t, "4", got[1][1])

	formats, err := f.GetConditionalFormats("Matching")
	require.NoError(t, err)
	require.Contains(t, formats, "F2:F3")
	rule := formats["F2:F3"][0]
	assert.Equal(t, "greater than or equal to", rule.Criteria)
	require.NotNil(t, rule.Format, "completed rows keep their fill style")

	generated, err := f.GetCellValue("Info", "B1")
	require.NoError(t, err)
	assert.Equal(t, "2025-11-07 09:00:00", generated)
}
