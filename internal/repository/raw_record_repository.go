package repository

import (
	"context"
	"time"

	"orubacontacts/internal/models"

	"gorm.io/gorm"
)

type RawRecordRepository interface {
	Create(ctx context.Context, record *models.RawRecord) error
	GetByID(ctx context.Context, id string) (*models.RawRecord, error)
	GetWithUnmatched(ctx context.Context, id string) (*models.RawRecord, error)
	List(ctx context.Context, page, limit int) ([]models.RawRecord, int64, error)
	CountUnmatched(ctx context.Context, id string) (phones, emails int64, err error)

	// блокировки
	ReleaseStaleLocks(ctx context.Context, cutoff time.Time) (int64, error)
	NextClaimable(ctx context.Context, cutoff time.Time) (string, error)
	TryClaim(ctx context.Context, id, operator string, now, cutoff time.Time) (bool, error)
	ReleaseLock(ctx context.Context, id, operator string) (bool, error)

	// завершение
	FinishBatch(ctx context.Context, id, operator string, allMatched bool, now time.Time) (bool, error)
	Complete(ctx context.Context, id, operator string, now time.Time) error
	Reopen(ctx context.Context, id string) (bool, error)
}

type rawRecordRepository struct {
	db *gorm.DB
}

func NewRawRecordRepository(db *gorm.DB) RawRecordRepository {
	return &rawRecordRepository{db: db}
}

func (r *rawRecordRepository) Create(ctx context.Context, record *models.RawRecord) error {
	return conflict(r.db.WithContext(ctx).Create(record).Error)
}

func (r *rawRecordRepository) GetByID(ctx context.Context, id string) (*models.RawRecord, error) {
	var record models.RawRecord
	if err := r.db.WithContext(ctx).Take(&record, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "raw record", id)
	}
	return &record, nil
}

// GetWithUnmatched загружает запись только с непривязанными телефонами и email,
// отсортированными по значению.
func (r *rawRecordRepository) GetWithUnmatched(ctx context.Context, id string) (*models.RawRecord, error) {
	var record models.RawRecord
	err := r.db.WithContext(ctx).
		Preload("Phones", func(db *gorm.DB) *gorm.DB {
			return db.Where("is_matched = ?", false).Order("phone_number ASC")
		}).
		Preload("Emails", func(db *gorm.DB) *gorm.DB {
			return db.Where("is_matched = ?", false).Order("email_address ASC")
		}).
		Take(&record, "id = ?", id).
		Error
	if err != nil {
		return nil, notFound(err, "raw record", id)
	}
	return &record, nil
}

func (r *rawRecordRepository) List(ctx context.Context, page, limit int) ([]models.RawRecord, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 200 {
		limit = 50
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&models.RawRecord{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var records []models.RawRecord
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&records).
		Error
	return records, total, err
}

func (r *rawRecordRepository) CountUnmatched(ctx context.Context, id string) (int64, int64, error) {
	var phones, emails int64
	err := r.db.WithContext(ctx).
		Model(&models.Phone{}).
		Where("raw_record_id = ? AND is_matched = ?", id, false).
		Count(&phones).
		Error
	if err != nil {
		return 0, 0, err
	}

	err = r.db.WithContext(ctx).
		Model(&models.Email{}).
		Where("raw_record_id = ? AND is_matched = ?", id, false).
		Count(&emails).
		Error
	return phones, emails, err
}

func (r *rawRecordRepository) ReleaseStaleLocks(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.RawRecord{}).
		Where("locked_by IS NOT NULL AND locked_at < ? AND is_fully_matched = ?", cutoff, false).
		Updates(map[string]interface{}{"locked_by": nil, "locked_at": nil})
	return res.RowsAffected, res.Error
}

// NextClaimable возвращает id самой старой незавершенной записи без действующей блокировки
// или пустую строку, если очередь пуста.
func (r *rawRecordRepository) NextClaimable(ctx context.Context, cutoff time.Time) (string, error) {
	var records []models.RawRecord
	res := r.db.WithContext(ctx).
		Select("id").
		Where("is_fully_matched = ?", false).
		Where("(locked_by IS NULL OR locked_at < ?)", cutoff).
		Order("created_at ASC, id ASC").
		Limit(1).
		Find(&records)
	if res.Error != nil {
		return "", res.Error
	}
	if res.RowsAffected == 0 {
		return "", nil
	}
	return records[0].ID, nil
}

// TryClaim - атомарный compare-and-swap по полю locked_by. false значит,
// что запись уже забрал другой оператор.
func (r *rawRecordRepository) TryClaim(ctx context.Context, id, operator string, now, cutoff time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.RawRecord{}).
		Where("id = ? AND is_fully_matched = ?", id, false).
		Where("(locked_by IS NULL OR locked_at < ?)", cutoff).
		Updates(map[string]interface{}{"locked_by": operator, "locked_at": now})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *rawRecordRepository) ReleaseLock(ctx context.Context, id, operator string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.RawRecord{}).
		Where("id = ? AND locked_by = ?", id, operator).
		Updates(map[string]interface{}{"locked_by": nil, "locked_at": nil})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// FinishBatch снимает блокировку только если она все еще принадлежит operator.
func (r *rawRecordRepository) FinishBatch(ctx context.Context, id, operator string, allMatched bool, now time.Time) (bool, error) {
	updates := map[string]interface{}{
		"is_fully_matched": allMatched,
		"locked_by":        nil,
		"locked_at":        nil,
		"completed_by":     nil,
		"completed_at":     nil,
	}
	if allMatched {
		updates["completed_by"] = operator
		updates["completed_at"] = now
	}

	res := r.db.WithContext(ctx).
		Model(&models.RawRecord{}).
		Where("id = ? AND locked_by = ?", id, operator).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *rawRecordRepository) Complete(ctx context.Context, id, operator string, now time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&models.RawRecord{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_fully_matched": true,
			"locked_by":        nil,
			"locked_at":        nil,
			"completed_by":     operator,
			"completed_at":     now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound(gorm.ErrRecordNotFound, "raw record", id)
	}
	return nil
}

// Reopen возвращает завершенную запись в очередь: флаг и отметка о завершении сбрасываются.
// false значит, что запись и так не была завершена.
func (r *rawRecordRepository) Reopen(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.RawRecord{}).
		Where("id = ? AND is_fully_matched = ?", id, true).
		Updates(map[string]interface{}{
			"is_fully_matched": false,
			"completed_by":     nil,
			"completed_at":     nil,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
