package models

import "time"

type JobTitle struct {
	ID          string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Title       string    `gorm:"type:varchar(200);not null" json:"title"`
	Slug        string    `gorm:"type:varchar(200);not null;uniqueIndex" json:"slug"`
	DisplayName string    `gorm:"type:varchar(200);not null" json:"displayName"`
	Description *string   `gorm:"type:text" json:"description"`
	IsActive    bool      `gorm:"not null;default:true" json:"isActive"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (JobTitle) TableName() string {
	return "job_titles"
}

type City struct {
	ID   string `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name string `gorm:"type:varchar(100);not null;uniqueIndex" json:"name"`
	Slug string `gorm:"type:varchar(100);not null" json:"slug"`
}

func (City) TableName() string {
	return "cities"
}

type HospitalType struct {
	ID          string `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name        string `gorm:"type:varchar(100);not null;uniqueIndex" json:"name"`
	DisplayName string `gorm:"type:varchar(100);not null" json:"displayName"`
}

func (HospitalType) TableName() string {
	return "hospital_types"
}

type HospitalSubtype struct {
	ID          string `gorm:"type:varchar(36);primaryKey" json:"id"`
	TypeID      string `gorm:"type:varchar(36);not null;uniqueIndex:idx_hospital_subtypes_type_name" json:"typeId"`
	Name        string `gorm:"type:varchar(100);not null;uniqueIndex:idx_hospital_subtypes_type_name" json:"name"`
	DisplayName string `gorm:"type:varchar(100);not null" json:"displayName"`
}

func (HospitalSubtype) TableName() string {
	return "hospital_subtypes"
}

// HospitalReference - справочник больниц; Name уникален и служит ключом импорта.
type HospitalReference struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(300);not null;uniqueIndex" json:"name"`
	Slug      string    `gorm:"type:varchar(300);not null" json:"slug"`
	CityID    string    `gorm:"type:varchar(36);not null;index" json:"cityId"`
	TypeID    string    `gorm:"type:varchar(36);not null" json:"typeId"`
	SubtypeID *string   `gorm:"type:varchar(36)" json:"subtypeId"`
	IsActive  bool      `gorm:"not null;default:true" json:"isActive"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`

	City    *City            `gorm:"foreignKey:CityID" json:"city,omitempty"`
	Type    *HospitalType    `gorm:"foreignKey:TypeID" json:"type,omitempty"`
	Subtype *HospitalSubtype `gorm:"foreignKey:SubtypeID" json:"subtype,omitempty"`
}

func (HospitalReference) TableName() string {
	return "hospital_references"
}
