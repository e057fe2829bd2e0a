package service

import (
	"context"
	"path/filepath"
	"testing"

	"orubacontacts/internal/models"
	"orubacontacts/internal/repository"
	"orubacontacts/internal/testutil"
	"orubacontacts/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func writeWorkbook(t *testing.T, rows [][]interface{}) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}

	path := filepath.Join(t.TempDir(), "import.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func newImportFixture(t *testing.T) (*gorm.DB, ImportService) {
	db := testutil.NewDB(t)
	return db, NewImportService(repository.NewStore(db), zap.NewNop())
}

func TestImportRawData(t *testing.T) {
	db, svc := newImportFixture(t)
	testutil.CreateRecord(t, db, testutil.RecordFixture{Title: "Var Olan", ListName: "Liste"})

	path := writeWorkbook(t, [][]interface{}{
		{"title", "description", "list_name", "short_url", "full_url"},
		{" Ankara Klinik ", "açıklama", "Liste", "https://trello.com/c/1", ""},
		{"Var Olan", "", "Liste", "", ""},
		{"", "başlıksız", "Liste", "", ""},
		{"İzmir", "-", "Liste", "", "https://trello.com/c/2/izmir"},
	})

	res, err := svc.ImportRawData(context.Background(), path, "")
	require.NoError(t, err)

	assert.Equal(t, 4, res.Run.Total)
	assert.Equal(t, 2, res.Run.Successful)
	assert.Equal(t, 1, res.Run.Skipped)
	assert.Equal(t, 1, res.Run.Failed)
	assert.True(t, res.Failed())
	require.Len(t, res.Errors, 1)
	assert.Equal(t, 4, res.Errors[0].Row)

	var rec models.RawRecord
	require.NoError(t, db.Take(&rec, "title = ?", "Ankara Klinik").Error)
	assert.Equal(t, "açıklama", *rec.Description)
	assert.Equal(t, "https://trello.com/c/1", *rec.ShortURL)
	assert.Nil(t, rec.FullURL)

	var izmir models.RawRecord
	require.NoError(t, db.Take(&izmir, "title = ?", "İzmir").Error)
	assert.Nil(t, izmir.Description)

	var runs []models.ImportRun
	require.NoError(t, db.Find(&runs).Error)
	require.Len(t, runs, 1)
	assert.Equal(t, models.ImportKindRawData, runs[0].Kind)
	assert.Equal(t, "import.xlsx", runs[0].SourceFile)
	assert.JSONEq(t, `[{"row":4,"error":"title and list_name are required"}]`, string(runs[0].Errors))
}

func TestImportRawData_MissingColumns(t *testing.T) {
	_, svc := newImportFixture(t)
	path := writeWorkbook(t, [][]interface{}{{"title", "description"}, {"a", "b"}})

	_, err := svc.ImportRawData(context.Background(), path, "")
	assert.ErrorContains(t, err, "list_name")

	_, err = svc.ImportRawData(context.Background(), filepath.Join(t.TempDir(), "absent.xlsx"), "")
	assert.Error(t, err)
}

func TestImportHospitals(t *testing.T) {
	db, svc := newImportFixture(t)

	path := writeWorkbook(t, [][]interface{}{
		{utils.ColHospitalName, utils.ColHospitalCity, utils.ColHospitalType, utils.ColHospitalSubtype},
		{"Ankara Şehir Hastanesi", "Ankara", "KAMU", "eğitim araştırma"},
		{"Özel ABC Hastanesi", "İstanbul", "Özel", ""},
		{"Eksik Alt Tür", "Ankara", "kamu", ""},
		{"Yanlış Tür", "Ankara", "vakıf", ""},
		{"Ankara Şehir Hastanesi", "Ankara", "kamu", "devlet"},
	})

	res, err := svc.ImportHospitals(context.Background(), path, "")
	require.NoError(t, err)
	assert.Equal(t, 5, res.Run.Total)
	assert.Equal(t, 3, res.Run.Successful)
	assert.Equal(t, 2, res.Run.Failed)
	require.Len(t, res.Errors, 2)
	assert.Equal(t, 4, res.Errors[0].Row)
	assert.Contains(t, res.Errors[0].Error, "required for kamu")
	assert.Contains(t, res.Errors[1].Error, "invalid hospital type")

	var hospitals []models.HospitalReference
	require.NoError(t, db.Preload("Subtype").Preload("Type").Order("name").Find(&hospitals).Error)
	require.Len(t, hospitals, 2)
	assert.Equal(t, "ankara-sehir-hastanesi", hospitals[0].Slug)
	require.NotNil(t, hospitals[0].Subtype)
	assert.Equal(t, "devlet", hospitals[0].Subtype.Name)
	assert.Equal(t, "kamu", hospitals[0].Type.Name)
	assert.Equal(t, "özel", hospitals[1].Type.Name)
	assert.Nil(t, hospitals[1].SubtypeID)

	var cities int64
	require.NoError(t, db.Model(&models.City{}).Count(&cities).Error)
	assert.EqualValues(t, 2, cities)
}

func TestImportJobTitles(t *testing.T) {
	db, svc := newImportFixture(t)

	path := writeWorkbook(t, [][]interface{}{
		{"Title", "Display Name", "Description"},
		{"Başhekim", "Başhekim", "Hastane yöneticisi"},
		{"Satın Alma Sorumlusu", "", ""},
		{"", "Boş", ""},
		{"Başhekim", "Baş Hekim", ""},
	})

	res, err := svc.ImportJobTitles(context.Background(), path, "")
	require.NoError(t, err)
	assert.Equal(t, 3, res.Run.Successful)
	assert.Equal(t, 1, res.Run.Failed)

	var titles []models.JobTitle
	require.NoError(t, db.Order("slug").Find(&titles).Error)
	require.Len(t, titles, 2)
	assert.Equal(t, "bashekim", titles[0].Slug)
	assert.Equal(t, "Baş Hekim", titles[0].DisplayName)
	assert.Equal(t, "satin-alma-sorumlusu", titles[1].Slug)
	assert.Equal(t, "Satın Alma Sorumlusu", titles[1].DisplayName)
	assert.True(t, titles[1].IsActive)
}
