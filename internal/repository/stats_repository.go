package repository

import (
	"context"

	"orubacontacts/internal/models"

	"gorm.io/gorm"
)

type Progress struct {
	Total           int64   `json:"total"`
	Matched         int64   `json:"matched"`
	Unmatched       int64   `json:"unmatched"`
	Locked          int64   `json:"locked,omitempty"`
	PercentComplete float64 `json:"percentComplete"`
}

type MatchingStats struct {
	RawData Progress `json:"rawData"`
	Phones  Progress `json:"phones"`
	Emails  Progress `json:"emails"`
}

// TableCounts - размеры таблиц для /system/stats.
type TableCounts struct {
	RawRecords int64 `json:"rawRecords"`
	Phones     int64 `json:"phones"`
	Emails     int64 `json:"emails"`
	Contacts   int64 `json:"contacts"`
	JobTitles  int64 `json:"jobTitles"`
	Hospitals  int64 `json:"hospitals"`
	ImportRuns int64 `json:"importRuns"`
}

type StatsRepository interface {
	MatchingStats(ctx context.Context) (*MatchingStats, error)
	TableCounts(ctx context.Context) (*TableCounts, error)
}

type statsRepository struct {
	db *gorm.DB
}

func NewStatsRepository(db *gorm.DB) StatsRepository {
	return &statsRepository{db: db}
}

func (r *statsRepository) MatchingStats(ctx context.Context) (*MatchingStats, error) {
	var stats MatchingStats
	db := r.db.WithContext(ctx)

	counts := []struct {
		model interface{}
		where []interface{}
		dest  *int64
	}{
		{&models.RawRecord{}, nil, &stats.RawData.Total},
		{&models.RawRecord{}, []interface{}{"is_fully_matched = ?", true}, &stats.RawData.Matched},
		{&models.RawRecord{}, []interface{}{"locked_by IS NOT NULL"}, &stats.RawData.Locked},
		{&models.Phone{}, nil, &stats.Phones.Total},
		{&models.Phone{}, []interface{}{"is_matched = ?", true}, &stats.Phones.Matched},
		{&models.Email{}, nil, &stats.Emails.Total},
		{&models.Email{}, []interface{}{"is_matched = ?", true}, &stats.Emails.Matched},
	}

	for _, c := range counts {
		query := db.Model(c.model)
		if len(c.where) > 0 {
			query = query.Where(c.where[0], c.where[1:]...)
		}
		if err := query.Count(c.dest).Error; err != nil {
			return nil, err
		}
	}

	stats.RawData.fill()
	stats.Phones.fill()
	stats.Emails.fill()
	return &stats, nil
}

func (p *Progress) fill() {
	p.Unmatched = p.Total - p.Matched
	if p.Total > 0 {
		p.PercentComplete = float64(p.Matched) / float64(p.Total) * 100
	}
}

func (r *statsRepository) TableCounts(ctx context.Context) (*TableCounts, error) {
	var counts TableCounts
	db := r.db.WithContext(ctx)

	targets := []struct {
		model interface{}
		dest  *int64
	}{
		{&models.RawRecord{}, &counts.RawRecords},
		{&models.Phone{}, &counts.Phones},
		{&models.Email{}, &counts.Emails},
		{&models.Contact{}, &counts.Contacts},
		{&models.JobTitle{}, &counts.JobTitles},
		{&models.HospitalReference{}, &counts.Hospitals},
		{&models.ImportRun{}, &counts.ImportRuns},
	}
	for _, t := range targets {
		if err := db.Model(t.model).Count(t.dest).Error; err != nil {
			return nil, err
		}
	}
	return &counts, nil
}
