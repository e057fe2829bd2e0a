// Package testutil поднимает изолированную sqlite-базу и фикстуры для тестов.
package testutil

import (
	"fmt"
	"testing"
	"time"

	"orubacontacts/internal/models"
	"orubacontacts/pkg/database"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// NewDB возвращает мигрированную in-memory базу, живущую до конца теста.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	cfg := database.Config{
		Driver: "sqlite",
		DSN:    fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
	}
	db, err := database.Connect(cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	require.NoError(t, database.Migrate(db, zap.NewNop()))
	return db
}

// Clock - управляемые часы для сервисов.
type Clock struct {
	Current time.Time
}

func NewClock() *Clock {
	return &Clock{Current: time.Date(2025, 11, 7, 9, 0, 0, 0, time.UTC)}
}

func (c *Clock) Now() time.Time { return c.Current }

func (c *Clock) Advance(d time.Duration) { c.Current = c.Current.Add(d) }

// RecordFixture описывает сырую запись с кандидатами.
type RecordFixture struct {
	Title       string
	ListName    string
	Description string
	Phones      []string
	Emails      []string
	CreatedAt   time.Time
}

// CreateRecord сохраняет запись вместе с телефонами и email и возвращает ее с дочерними строками.
func CreateRecord(t testing.TB, db *gorm.DB, f RecordFixture) *models.RawRecord {
	t.Helper()

	if f.ListName == "" {
		f.ListName = "Inbox"
	}
	record := models.RawRecord{
		Title:     f.Title,
		ListName:  f.ListName,
		CreatedAt: f.CreatedAt,
	}
	if f.Description != "" {
		record.Description = &f.Description
	}
	title := f.Title
	for _, p := range f.Phones {
		record.Phones = append(record.Phones, models.Phone{PhoneNumber: p, TrelloTitle: &title})
	}
	for _, e := range f.Emails {
		record.Emails = append(record.Emails, models.Email{EmailAddress: e, TrelloTitle: &title})
	}

	require.NoError(t, db.Create(&record).Error)
	return &record
}

func CreateJobTitle(t testing.TB, db *gorm.DB, displayName string, active bool) *models.JobTitle {
	t.Helper()

	title := models.JobTitle{
		Title:       displayName,
		Slug:        uuid.NewString(),
		DisplayName: displayName,
		IsActive:    true,
	}
	require.NoError(t, db.Create(&title).Error)
	if !active {
		require.NoError(t, db.Model(&title).Update("is_active", false).Error)
		title.IsActive = false
	}
	return &title
}

func CreateHospital(t testing.TB, db *gorm.DB, name, city string) *models.HospitalReference {
	t.Helper()

	var c models.City
	require.NoError(t, db.Where(models.City{Name: city}).Attrs(models.City{Slug: city}).FirstOrCreate(&c).Error)
	var typ models.HospitalType
	require.NoError(t, db.Where(models.HospitalType{Name: "özel"}).Attrs(models.HospitalType{DisplayName: "Özel"}).FirstOrCreate(&typ).Error)

	hospital := models.HospitalReference{
		Name:     name,
		Slug:     uuid.NewString(),
		CityID:   c.ID,
		TypeID:   typ.ID,
		IsActive: true,
	}
	require.NoError(t, db.Omit("City", "Type", "Subtype").Create(&hospital).Error)
	return &hospital
}
