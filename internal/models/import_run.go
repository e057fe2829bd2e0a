package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	ImportKindRawData   = "raw_data"
	ImportKindHospitals = "hospitals"
	ImportKindJobTitles = "job_titles"
)

type ImportRowError struct {
	Row   int    `json:"row"`
	Error string `json:"error"`
}

// ImportRun - журнал одного запуска импорта из Excel.
type ImportRun struct {
	ID         string         `gorm:"type:varchar(36);primaryKey" json:"id"`
	Kind       string         `gorm:"type:varchar(50);not null;index" json:"kind"`
	SourceFile string         `gorm:"type:text;not null" json:"sourceFile"`
	Total      int            `gorm:"not null" json:"total"`
	Successful int            `gorm:"not null" json:"successful"`
	Skipped    int            `gorm:"not null" json:"skipped"`
	Failed     int            `gorm:"not null" json:"failed"`
	Errors     datatypes.JSON `json:"errors"`
	StartedAt  time.Time      `gorm:"not null" json:"startedAt"`
	FinishedAt time.Time      `gorm:"not null" json:"finishedAt"`
}

func (ImportRun) TableName() string {
	return "import_runs"
}
