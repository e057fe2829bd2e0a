package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"orubacontacts/internal/models"
	"orubacontacts/internal/repository"
	"orubacontacts/internal/utils"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

type ImportService interface {
	ImportRawData(ctx context.Context, path, sheet string) (*ImportResult, error)
	ImportHospitals(ctx context.Context, path, sheet string) (*ImportResult, error)
	ImportJobTitles(ctx context.Context, path, sheet string) (*ImportResult, error)
}

// ImportResult - итог одного запуска; Run уже сохранен в import_runs.
type ImportResult struct {
	Run    *models.ImportRun
	Errors []models.ImportRowError
}

func (r *ImportResult) Failed() bool {
	return r.Run.Failed > 0
}

// Допустимые типы больниц и их отображаемые названия.
var hospitalTypes = map[string]string{
	"kamu":        "Kamu",
	"özel":        "Özel",
	"muayenehane": "Muayenehane",
}

type importService struct {
	store *repository.Store
	log   *zap.Logger
	now   func() time.Time
}

func NewImportService(store *repository.Store, log *zap.Logger) ImportService {
	return &importService{
		store: store,
		log:   log,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// sheetData - строки листа и индексы колонок по заголовку.
type sheetData struct {
	columns map[string]int
	rows    [][]string
}

func readSheet(path, sheet string) (*sheetData, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %q is empty", sheet)
	}

	data := &sheetData{columns: make(map[string]int), rows: rows[1:]}
	for i, name := range rows[0] {
		data.columns[strings.TrimSpace(name)] = i
	}
	return data, nil
}

func (d *sheetData) require(columns ...string) error {
	var missing []string
	for _, c := range columns {
		if _, ok := d.columns[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing columns: %s", strings.Join(missing, ", "))
	}
	return nil
}

// cell возвращает очищенное значение; "-" и "N/A" считаются пустыми.
func (d *sheetData) cell(row []string, column string) string {
	idx, ok := d.columns[column]
	if !ok || idx >= len(row) {
		return ""
	}
	v := strings.TrimSpace(row[idx])
	if v == "-" || strings.EqualFold(v, "N/A") {
		return ""
	}
	return v
}

// importer собирает статистику запуска.
type importer struct {
	run    *models.ImportRun
	errors []models.ImportRowError
}

func newImporter(kind, path string, startedAt time.Time) *importer {
	return &importer{run: &models.ImportRun{
		Kind:       kind,
		SourceFile: filepath.Base(path),
		StartedAt:  startedAt,
	}}
}

func (im *importer) fail(row int, err error) {
	im.run.Failed++
	im.errors = append(im.errors, models.ImportRowError{Row: row, Error: err.Error()})
}

func (s *importService) finish(ctx context.Context, im *importer) (*ImportResult, error) {
	im.run.FinishedAt = s.now()

	rowErrors := im.errors
	if rowErrors == nil {
		rowErrors = []models.ImportRowError{}
	}
	payload, err := json.Marshal(rowErrors)
	if err != nil {
		return nil, err
	}
	im.run.Errors = datatypes.JSON(payload)

	if err := s.store.Imports.SaveRun(ctx, im.run); err != nil {
		return nil, fmt.Errorf("failed to save import run: %w", err)
	}

	s.log.Info("Import finished",
		zap.String("kind", im.run.Kind),
		zap.String("file", im.run.SourceFile),
		zap.Int("total", im.run.Total),
		zap.Int("successful", im.run.Successful),
		zap.Int("skipped", im.run.Skipped),
		zap.Int("failed", im.run.Failed),
		zap.Duration("duration", im.run.FinishedAt.Sub(im.run.StartedAt)),
	)
	return &ImportResult{Run: im.run, Errors: im.errors}, nil
}

// ImportRawData загружает карточки; пара (title, list_name) уже в базе - строка пропускается.
func (s *importService) ImportRawData(ctx context.Context, path, sheet string) (*ImportResult, error) {
	data, err := readSheet(path, sheet)
	if err != nil {
		return nil, err
	}
	if err := data.require("title", "list_name"); err != nil {
		return nil, err
	}

	im := newImporter(models.ImportKindRawData, path, s.now())
	for i, row := range data.rows {
		rowNum := i + 2 // Заголовок в первой строке
		im.run.Total++

		title := data.cell(row, "title")
		listName := data.cell(row, "list_name")
		if title == "" || listName == "" {
			im.fail(rowNum, errors.New("title and list_name are required"))
			continue
		}

		exists, err := s.store.Imports.RawRecordExists(ctx, title, listName)
		if err != nil {
			im.fail(rowNum, err)
			continue
		}
		if exists {
			im.run.Skipped++
			continue
		}

		record := &models.RawRecord{
			Title:       title,
			ListName:    listName,
			Description: optional(data.cell(row, "description")),
			ShortURL:    optional(data.cell(row, "short_url")),
			FullURL:     optional(data.cell(row, "full_url")),
		}
		if err := s.store.Imports.CreateRawRecord(ctx, record); err != nil {
			im.fail(rowNum, err)
			continue
		}
		im.run.Successful++
	}

	return s.finish(ctx, im)
}

// ImportHospitals делает upsert больниц по названию; города, типы и подтипы создаются по требованию.
func (s *importService) ImportHospitals(ctx context.Context, path, sheet string) (*ImportResult, error) {
	data, err := readSheet(path, sheet)
	if err != nil {
		return nil, err
	}
	if err := data.require(utils.ColHospitalName, utils.ColHospitalCity, utils.ColHospitalType); err != nil {
		return nil, err
	}

	im := newImporter(models.ImportKindHospitals, path, s.now())
	for i, row := range data.rows {
		rowNum := i + 2
		im.run.Total++

		if err := s.importHospital(ctx, data, row); err != nil {
			im.fail(rowNum, err)
			continue
		}
		im.run.Successful++
	}

	return s.finish(ctx, im)
}

func (s *importService) importHospital(ctx context.Context, data *sheetData, row []string) error {
	name := data.cell(row, utils.ColHospitalName)
	city := data.cell(row, utils.ColHospitalCity)
	typeName := utils.TurkishLower(data.cell(row, utils.ColHospitalType))
	subtype := data.cell(row, utils.ColHospitalSubtype)

	var problems []string
	if name == "" {
		problems = append(problems, utils.ColHospitalName+" is required")
	}
	if city == "" {
		problems = append(problems, utils.ColHospitalCity+" is required")
	}
	displayType, validType := hospitalTypes[typeName]
	switch {
	case typeName == "":
		problems = append(problems, utils.ColHospitalType+" is required")
	case !validType:
		problems = append(problems, fmt.Sprintf("invalid hospital type %q: use kamu, özel or muayenehane", typeName))
	case typeName == "kamu" && subtype == "":
		problems = append(problems, utils.ColHospitalSubtype+" is required for kamu hospitals")
	}
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}

	return s.store.Transaction(ctx, func(tx *repository.Store) error {
		c, err := tx.Imports.EnsureCity(ctx, city)
		if err != nil {
			return err
		}
		t, err := tx.Imports.EnsureHospitalType(ctx, typeName, displayType)
		if err != nil {
			return err
		}

		hospital := &models.HospitalReference{
			Name:     name,
			Slug:     utils.Slugify(name),
			CityID:   c.ID,
			TypeID:   t.ID,
			IsActive: true,
		}
		if subtype != "" {
			st, err := tx.Imports.EnsureHospitalSubtype(ctx, t.ID, utils.TurkishLower(subtype), subtype)
			if err != nil {
				return err
			}
			hospital.SubtypeID = &st.ID
		}

		_, err = tx.Imports.UpsertHospital(ctx, hospital)
		return err
	})
}

// ImportJobTitles делает upsert должностей по slug заголовка.
func (s *importService) ImportJobTitles(ctx context.Context, path, sheet string) (*ImportResult, error) {
	data, err := readSheet(path, sheet)
	if err != nil {
		return nil, err
	}
	if err := data.require("Title"); err != nil {
		return nil, err
	}

	im := newImporter(models.ImportKindJobTitles, path, s.now())
	for i, row := range data.rows {
		rowNum := i + 2
		im.run.Total++

		title := data.cell(row, "Title")
		if title == "" {
			im.fail(rowNum, errors.New("title is required"))
			continue
		}
		slug := utils.Slugify(title)
		if slug == "" {
			im.fail(rowNum, fmt.Errorf("title %q produces an empty slug", title))
			continue
		}

		displayName := data.cell(row, "Display Name")
		if displayName == "" {
			displayName = title
		}

		jobTitle := &models.JobTitle{
			Title:       title,
			Slug:        slug,
			DisplayName: displayName,
			Description: optional(data.cell(row, "Description")),
			IsActive:    true,
		}
		if _, err := s.store.Imports.UpsertJobTitle(ctx, jobTitle); err != nil {
			im.fail(rowNum, err)
			continue
		}
		im.run.Successful++
	}

	return s.finish(ctx, im)
}
