package repository

import (
	"context"

	"orubacontacts/internal/models"

	"gorm.io/gorm"
)

type ContactRepository interface {
	Create(ctx context.Context, contact *models.Contact) error
	GetByID(ctx context.Context, id string) (*models.Contact, error)
	ListByRawRecord(ctx context.Context, rawRecordID string) ([]models.Contact, error)
	Count(ctx context.Context) (int64, error)
}

type contactRepository struct {
	db *gorm.DB
}

func NewContactRepository(db *gorm.DB) ContactRepository {
	return &contactRepository{db: db}
}

func (r *contactRepository) Create(ctx context.Context, contact *models.Contact) error {
	return conflict(r.db.WithContext(ctx).Create(contact).Error)
}

func (r *contactRepository) GetByID(ctx context.Context, id string) (*models.Contact, error) {
	var contact models.Contact
	if err := r.db.WithContext(ctx).Take(&contact, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "contact", id)
	}
	return &contact, nil
}

func (r *contactRepository) ListByRawRecord(ctx context.Context, rawRecordID string) ([]models.Contact, error) {
	var contacts []models.Contact
	err := r.db.WithContext(ctx).
		Where("raw_record_id = ?", rawRecordID).
		Order("created_at ASC, id ASC").
		Find(&contacts).
		Error
	return contacts, err
}

func (r *contactRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Contact{}).Count(&count).Error
	return count, err
}
