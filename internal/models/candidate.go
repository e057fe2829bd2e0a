package models

import "time"

// Phone - номер телефона, извлеченный из RawRecord. IsMatched меняется false -> true ровно один раз.
type Phone struct {
	ID               string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	PhoneNumber      string     `gorm:"type:varchar(20);not null;uniqueIndex" json:"phoneNumber"`
	RawRecordID      string     `gorm:"type:varchar(36);not null;index" json:"rawDataId"`
	TrelloTitle      *string    `gorm:"type:varchar(500)" json:"trelloTitle"`
	IsMatched        bool       `gorm:"not null;default:false;index" json:"isMatched"`
	MatchedContactID *string    `gorm:"type:varchar(36)" json:"matchedContactId"`
	MatchedBy        *string    `gorm:"type:varchar(100)" json:"matchedBy"`
	MatchedAt        *time.Time `json:"matchedAt"`
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (Phone) TableName() string {
	return "phones"
}

type Email struct {
	ID               string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	EmailAddress     string     `gorm:"type:varchar(320);not null;uniqueIndex" json:"emailAddress"`
	RawRecordID      string     `gorm:"type:varchar(36);not null;index" json:"rawDataId"`
	TrelloTitle      *string    `gorm:"type:varchar(500)" json:"trelloTitle"`
	IsMatched        bool       `gorm:"not null;default:false;index" json:"isMatched"`
	MatchedContactID *string    `gorm:"type:varchar(36)" json:"matchedContactId"`
	MatchedBy        *string    `gorm:"type:varchar(100)" json:"matchedBy"`
	MatchedAt        *time.Time `json:"matchedAt"`
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (Email) TableName() string {
	return "emails"
}
