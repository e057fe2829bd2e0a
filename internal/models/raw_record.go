package models

import "time"

// RawRecord - импортированная карточка, ожидающая разбора на контакты.
// LockedBy/LockedAt - рекомендательная блокировка оператора.
type RawRecord struct {
	ID             string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	Title          string     `gorm:"type:varchar(500);not null;uniqueIndex:idx_raw_records_title_list" json:"title"`
	Description    *string    `gorm:"type:text" json:"description"`
	ListName       string     `gorm:"type:varchar(255);not null;uniqueIndex:idx_raw_records_title_list" json:"listName"`
	ShortURL       *string    `gorm:"type:varchar(500)" json:"shortUrl"`
	FullURL        *string    `gorm:"type:text" json:"fullUrl"`
	IsFullyMatched bool       `gorm:"not null;default:false" json:"isFullyMatched"`
	LockedBy       *string    `gorm:"type:varchar(100)" json:"lockedBy"`
	LockedAt       *time.Time `json:"lockedAt"`
	CompletedBy    *string    `gorm:"type:varchar(100)" json:"completedBy"`
	CompletedAt    *time.Time `json:"completedAt"`
	CreatedAt      time.Time  `gorm:"autoCreateTime;index" json:"createdAt"`
	UpdatedAt      time.Time  `gorm:"autoUpdateTime" json:"updatedAt"`

	Phones []Phone `gorm:"foreignKey:RawRecordID;constraint:OnDelete:CASCADE" json:"phones,omitempty"`
	Emails []Email `gorm:"foreignKey:RawRecordID;constraint:OnDelete:CASCADE" json:"emails,omitempty"`
}

func (RawRecord) TableName() string {
	return "raw_records"
}
