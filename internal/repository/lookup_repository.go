package repository

import (
	"context"

	"orubacontacts/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LookupRepository читает справочники должностей и больниц.
type LookupRepository interface {
	ActiveJobTitles(ctx context.Context) ([]models.JobTitle, error)
	JobTitleExists(ctx context.Context, id string) (bool, error)
	SearchHospitals(ctx context.Context, search string, limit int) ([]models.HospitalReference, error)
	HospitalExists(ctx context.Context, id string) (bool, error)
}

type lookupRepository struct {
	db *gorm.DB
}

func NewLookupRepository(db *gorm.DB) LookupRepository {
	return &lookupRepository{db: db}
}

func (r *lookupRepository) ActiveJobTitles(ctx context.Context) ([]models.JobTitle, error) {
	var titles []models.JobTitle
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("display_name ASC").
		Find(&titles).
		Error
	return titles, err
}

func (r *lookupRepository) JobTitleExists(ctx context.Context, id string) (bool, error) {
	return exists(r.db.WithContext(ctx), &models.JobTitle{}, id)
}

func (r *lookupRepository) HospitalExists(ctx context.Context, id string) (bool, error) {
	return exists(r.db.WithContext(ctx), &models.HospitalReference{}, id)
}

// cityName - колонка присоединенной таблицы городов; gorm квотирует алиас под диалект.
var cityName = clause.Column{Table: "City", Name: "name"}

// SearchHospitals ищет по подстроке в названии больницы или города.
// search ожидается уже в нижнем регистре.
func (r *lookupRepository) SearchHospitals(ctx context.Context, search string, limit int) ([]models.HospitalReference, error) {
	query := r.db.WithContext(ctx).
		Joins("City").
		Joins("Type").
		Joins("Subtype").
		Where("hospital_references.is_active = ?", true)

	if search != "" {
		pattern := "%" + search + "%"
		query = query.Where("(LOWER(hospital_references.name) LIKE ? OR LOWER(?) LIKE ?)", pattern, cityName, pattern)
	}

	var hospitals []models.HospitalReference
	err := query.
		Order(clause.OrderByColumn{Column: cityName}).
		Order("hospital_references.name ASC").
		Limit(limit).
		Find(&hospitals).
		Error
	return hospitals, err
}

func exists(db *gorm.DB, model interface{}, id string) (bool, error) {
	var count int64
	err := db.Model(model).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}
