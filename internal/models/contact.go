package models

import "time"

type Contact struct {
	ID          string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	FirstName   string    `gorm:"type:varchar(100);not null" json:"firstName"`
	LastName    *string   `gorm:"type:varchar(100)" json:"lastName"`
	Phone       *string   `gorm:"type:varchar(20);index" json:"phone"`
	Email       *string   `gorm:"type:varchar(320);index" json:"email"`
	Notes       *string   `gorm:"type:text" json:"notes"`
	TrelloTitle *string   `gorm:"type:varchar(500)" json:"trelloTitle"`
	RawRecordID *string   `gorm:"type:varchar(36);index" json:"rawDataId"`
	JobTitleID  *string   `gorm:"type:varchar(36)" json:"jobTitleId"`
	HospitalID  *string   `gorm:"type:varchar(36)" json:"hospitalId"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (Contact) TableName() string {
	return "contacts"
}
