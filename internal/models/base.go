package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// newID выдает строковый UUID: varchar(36) одинаково работает в postgres, mysql и sqlite.
func newID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}

func (r *RawRecord) BeforeCreate(tx *gorm.DB) error         { newID(&r.ID); return nil }
func (p *Phone) BeforeCreate(tx *gorm.DB) error             { newID(&p.ID); return nil }
func (e *Email) BeforeCreate(tx *gorm.DB) error             { newID(&e.ID); return nil }
func (c *Contact) BeforeCreate(tx *gorm.DB) error           { newID(&c.ID); return nil }
func (j *JobTitle) BeforeCreate(tx *gorm.DB) error          { newID(&j.ID); return nil }
func (c *City) BeforeCreate(tx *gorm.DB) error              { newID(&c.ID); return nil }
func (h *HospitalType) BeforeCreate(tx *gorm.DB) error      { newID(&h.ID); return nil }
func (h *HospitalSubtype) BeforeCreate(tx *gorm.DB) error   { newID(&h.ID); return nil }
func (h *HospitalReference) BeforeCreate(tx *gorm.DB) error { newID(&h.ID); return nil }
func (i *ImportRun) BeforeCreate(tx *gorm.DB) error         { newID(&i.ID); return nil }
