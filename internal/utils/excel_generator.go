package utils

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
)

const (
	HospitalSheet = "Hastaneler"
	statsSheet    = "Matching"
	infoSheet     = "Info"
)

// Колонки импорта больниц.
const (
	ColHospitalName    = "Hastane Adı"
	ColHospitalCity    = "İl"
	ColHospitalType    = "Hastane Türü"
	ColHospitalSubtype = "Alt Tür"
)

var HospitalTemplateHeader = []string{ColHospitalName, ColHospitalCity, ColHospitalType, ColHospitalSubtype}

var hospitalExamples = [][]string{
	{"Ankara Şehir Hastanesi", "Ankara", "kamu", "eğitim araştırma"},
	{"İstanbul Eğitim ve Araştırma Hastanesi", "İstanbul", "kamu", "eğitim araştırma"},
	{"Özel ABC Hastanesi", "İstanbul", "özel", ""},
	{"Dr. Mehmet Yılmaz Muayenehanesi", "Ankara", "muayenehane", ""},
	{"İzmir Devlet Hastanesi", "İzmir", "kamu", "devlet"},
}

// CreateHospitalTemplate сохраняет шаблон импорта больниц с примерами строк.
func CreateHospitalTemplate(path string) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(HospitalSheet)
	if err != nil {
		return err
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	if err := writeHeader(f, HospitalSheet, HospitalTemplateHeader); err != nil {
		return err
	}

	for rowIdx, row := range hospitalExamples {
		cell, _ := excelize.CoordinatesToCellName(1, rowIdx+2) // Заголовок в первой строке
		if err := f.SetSheetRow(HospitalSheet, cell, &row); err != nil {
			return err
		}
	}

	widths := []float64{40, 15, 15, 20}
	for i, w := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(HospitalSheet, col, col, w)
	}

	return f.SaveAs(path)
}

// StatsRow - одна строка листа статистики.
type StatsRow struct {
	Name      string
	Total     int64
	Matched   int64
	Unmatched int64
	Locked    int64
	Percent   float64
}

// CreateStatsWorkbook строит xlsx со статистикой сопоставления и листом метаданных.
func CreateStatsWorkbook(rows []StatsRow, generatedAt time.Time) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(statsSheet)
	if err != nil {
		return nil, err
	}
	f.DeleteSheet("Sheet1")

	headers := []string{"Entity", "Total", "Matched", "Unmatched", "Locked", "Complete (%)"}
	if err := writeHeader(f, statsSheet, headers); err != nil {
		return nil, err
	}

	percentStyle, _ := f.NewStyle(&excelize.Style{NumFmt: 2}) // 0.00
	for rowIdx, r := range rows {
		rowNum := rowIdx + 2
		values := []interface{}{r.Name, r.Total, r.Matched, r.Unmatched, r.Locked, r.Percent}
		if err := f.SetSheetRow(statsSheet, fmt.Sprintf("A%d", rowNum), &values); err != nil {
			return nil, err
		}
		f.SetCellStyle(statsSheet, fmt.Sprintf("F%d", rowNum), fmt.Sprintf("F%d", rowNum), percentStyle)
	}

	for i := 1; i <= len(headers); i++ {
		colName, _ := excelize.ColumnNumberToName(i)
		f.SetColWidth(statsSheet, colName, colName, 16)
	}

	// Зеленый для полностью разобранных сущностей
	if len(rows) > 0 {
		doneRule := []excelize.ConditionalFormatOptions{
			{
				Type:     "cell",
				Criteria: ">=",
				Value:    "100",
				Format:   getConditionalFormatStyle(f, "#CCFFCC"),
			},
		}
		if err := f.SetConditionalFormat(statsSheet, fmt.Sprintf("F2:F%d", len(rows)+1), doneRule); err != nil {
			return nil, err
		}
	}

	createInfoSheet(f, rows, generatedAt)
	f.SetActiveSheet(index)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func createInfoSheet(f *excelize.File, rows []StatsRow, generatedAt time.Time) {
	f.NewSheet(infoSheet)

	var total, matched int64
	for _, r := range rows {
		total += r.Total
		matched += r.Matched
	}

	metadata := [][]interface{}{
		{"Report Generated", generatedAt.Format("2006-01-02 15:04:05")},
		{"Entities", len(rows)},
		{"Total Items", total},
		{"Matched Items", matched},
	}
	for i, row := range metadata {
		f.SetSheetRow(infoSheet, fmt.Sprintf("A%d", i+1), &row)
	}
	f.SetColWidth(infoSheet, "A", "A", 20)
	f.SetColWidth(infoSheet, "B", "B", 22)
}

func writeHeader(f *excelize.File, sheet string, headers []string) error {
	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	for col, header := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, cell, cell, style); err != nil {
			return err
		}
	}
	return nil
}

// getConditionalFormatStyle создает стиль для условного форматирования
func getConditionalFormatStyle(f *excelize.File, color string) *int {
	style, err := f.NewConditionalStyle(&excelize.Style{
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{color},
			Pattern: 1,
		},
	})
	if err != nil {
		return nil
	}
	return &style
}
