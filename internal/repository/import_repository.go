package repository

import (
	"context"
	"errors"

	"orubacontacts/internal/models"
	"orubacontacts/internal/utils"

	"gorm.io/gorm"
)

// ImportRepository - запись справочников и сырых данных из Excel.
type ImportRepository interface {
	RawRecordExists(ctx context.Context, title, listName string) (bool, error)
	CreateRawRecord(ctx context.Context, record *models.RawRecord) error
	UpsertJobTitle(ctx context.Context, title *models.JobTitle) (bool, error)
	EnsureCity(ctx context.Context, name string) (*models.City, error)
	EnsureHospitalType(ctx context.Context, name, displayName string) (*models.HospitalType, error)
	EnsureHospitalSubtype(ctx context.Context, typeID, name, displayName string) (*models.HospitalSubtype, error)
	UpsertHospital(ctx context.Context, hospital *models.HospitalReference) (bool, error)
	SaveRun(ctx context.Context, run *models.ImportRun) error
}

type importRepository struct {
	db *gorm.DB
}

func NewImportRepository(db *gorm.DB) ImportRepository {
	return &importRepository{db: db}
}

func (r *importRepository) RawRecordExists(ctx context.Context, title, listName string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.RawRecord{}).
		Where("title = ? AND list_name = ?", title, listName).
		Count(&count).
		Error
	return count > 0, err
}

func (r *importRepository) CreateRawRecord(ctx context.Context, record *models.RawRecord) error {
	return conflict(r.db.WithContext(ctx).Create(record).Error)
}

// UpsertJobTitle создает или обновляет должность по slug. true - запись создана.
func (r *importRepository) UpsertJobTitle(ctx context.Context, title *models.JobTitle) (bool, error) {
	var existing models.JobTitle
	err := r.db.WithContext(ctx).Where("slug = ?", title.Slug).Take(&existing).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return true, r.db.WithContext(ctx).Create(title).Error
	}
	if err != nil {
		return false, err
	}

	title.ID = existing.ID
	title.CreatedAt = existing.CreatedAt
	return false, r.db.WithContext(ctx).Save(title).Error
}

func (r *importRepository) EnsureCity(ctx context.Context, name string) (*models.City, error) {
	city := models.City{}
	err := r.db.WithContext(ctx).
		Where(models.City{Name: name}).
		Attrs(models.City{Slug: utils.Slugify(name)}).
		FirstOrCreate(&city).
		Error
	if err != nil {
		return nil, err
	}
	return &city, nil
}

func (r *importRepository) EnsureHospitalType(ctx context.Context, name, displayName string) (*models.HospitalType, error) {
	hospitalType := models.HospitalType{}
	err := r.db.WithContext(ctx).
		Where(models.HospitalType{Name: name}).
		Attrs(models.HospitalType{DisplayName: displayName}).
		FirstOrCreate(&hospitalType).
		Error
	if err != nil {
		return nil, err
	}
	return &hospitalType, nil
}

func (r *importRepository) EnsureHospitalSubtype(ctx context.Context, typeID, name, displayName string) (*models.HospitalSubtype, error) {
	subtype := models.HospitalSubtype{}
	err := r.db.WithContext(ctx).
		Where(models.HospitalSubtype{TypeID: typeID, Name: name}).
		Attrs(models.HospitalSubtype{DisplayName: displayName}).
		FirstOrCreate(&subtype).
		Error
	if err != nil {
		return nil, err
	}
	return &subtype, nil
}

// UpsertHospital создает или обновляет больницу по названию. true - запись создана.
func (r *importRepository) UpsertHospital(ctx context.Context, hospital *models.HospitalReference) (bool, error) {
	var existing models.HospitalReference
	err := r.db.WithContext(ctx).Where("name = ?", hospital.Name).Take(&existing).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return true, r.db.WithContext(ctx).Omit("City", "Type", "Subtype").Create(hospital).Error
	}
	if err != nil {
		return false, err
	}

	hospital.ID = existing.ID
	hospital.CreatedAt = existing.CreatedAt
	return false, r.db.WithContext(ctx).Omit("City", "Type", "Subtype").Save(hospital).Error
}

func (r *importRepository) SaveRun(ctx context.Context, run *models.ImportRun) error {
	return r.db.WithContext(ctx).Create(run).Error
}
