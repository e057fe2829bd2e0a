package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"orubacontacts/internal/models"

	"gorm.io/gorm"
)

// CandidateFilter - закрытый набор параметров списка телефонов и email.
type CandidateFilter struct {
	Page        int
	Limit       int
	Search      string
	RawRecordID string
	SortBy      string
	SortOrder   string
}

// CandidateStats - общее число строк и число различных значений.
type CandidateStats struct {
	Total  int64 `json:"total"`
	Unique int64 `json:"unique"`
}

// Match - кто и когда привязал кандидатов к контакту.
type Match struct {
	ContactID string
	Operator  string
	At        time.Time
}

type CandidateRepository interface {
	CreatePhone(ctx context.Context, phone *models.Phone) error
	CreateEmail(ctx context.Context, email *models.Email) error
	FindPhoneByNumber(ctx context.Context, number string) (*models.Phone, error)
	FindEmailByAddress(ctx context.Context, address string) (*models.Email, error)
	GetPhone(ctx context.Context, id string) (*models.Phone, error)
	GetEmail(ctx context.Context, id string) (*models.Email, error)
	GetPhones(ctx context.Context, ids []string) ([]models.Phone, error)
	GetEmails(ctx context.Context, ids []string) ([]models.Email, error)
	MarkPhonesMatched(ctx context.Context, ids []string, match Match) (int64, error)
	MarkEmailsMatched(ctx context.Context, ids []string, match Match) (int64, error)
	ListPhones(ctx context.Context, filter CandidateFilter) ([]models.Phone, int64, error)
	ListEmails(ctx context.Context, filter CandidateFilter) ([]models.Email, int64, error)
	PhoneStats(ctx context.Context) (*CandidateStats, error)
	EmailStats(ctx context.Context) (*CandidateStats, error)
}

type candidateRepository struct {
	db *gorm.DB
}

func NewCandidateRepository(db *gorm.DB) CandidateRepository {
	return &candidateRepository{db: db}
}

func (r *candidateRepository) CreatePhone(ctx context.Context, phone *models.Phone) error {
	return conflict(r.db.WithContext(ctx).Create(phone).Error)
}

func (r *candidateRepository) CreateEmail(ctx context.Context, email *models.Email) error {
	return conflict(r.db.WithContext(ctx).Create(email).Error)
}

// FindPhoneByNumber возвращает nil без ошибки, если номер не найден.
func (r *candidateRepository) FindPhoneByNumber(ctx context.Context, number string) (*models.Phone, error) {
	var phone models.Phone
	err := r.db.WithContext(ctx).Take(&phone, "phone_number = ?", number).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &phone, nil
}

func (r *candidateRepository) FindEmailByAddress(ctx context.Context, address string) (*models.Email, error) {
	var email models.Email
	err := r.db.WithContext(ctx).Take(&email, "email_address = ?", address).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &email, nil
}

func (r *candidateRepository) GetPhone(ctx context.Context, id string) (*models.Phone, error) {
	var phone models.Phone
	if err := r.db.WithContext(ctx).Take(&phone, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "phone", id)
	}
	return &phone, nil
}

func (r *candidateRepository) GetEmail(ctx context.Context, id string) (*models.Email, error) {
	var email models.Email
	if err := r.db.WithContext(ctx).Take(&email, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "email", id)
	}
	return &email, nil
}

func (r *candidateRepository) GetPhones(ctx context.Context, ids []string) ([]models.Phone, error) {
	var phones []models.Phone
	if len(ids) == 0 {
		return phones, nil
	}
	err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Order("phone_number ASC").
		Find(&phones).
		Error
	return phones, err
}

func (r *candidateRepository) GetEmails(ctx context.Context, ids []string) ([]models.Email, error) {
	var emails []models.Email
	if len(ids) == 0 {
		return emails, nil
	}
	err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Order("email_address ASC").
		Find(&emails).
		Error
	return emails, err
}

// MarkPhonesMatched переводит только еще свободные телефоны; возвращает число
// затронутых строк, чтобы вызывающий код заметил конкурентную привязку.
func (r *candidateRepository) MarkPhonesMatched(ctx context.Context, ids []string, match Match) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Model(&models.Phone{}).
		Where("id IN ? AND is_matched = ?", ids, false).
		Updates(matchUpdates(match))
	return res.RowsAffected, res.Error
}

func (r *candidateRepository) MarkEmailsMatched(ctx context.Context, ids []string, match Match) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Model(&models.Email{}).
		Where("id IN ? AND is_matched = ?", ids, false).
		Updates(matchUpdates(match))
	return res.RowsAffected, res.Error
}

func matchUpdates(match Match) map[string]interface{} {
	return map[string]interface{}{
		"is_matched":         true,
		"matched_contact_id": match.ContactID,
		"matched_by":         match.Operator,
		"matched_at":         match.At,
	}
}

func (r *candidateRepository) ListPhones(ctx context.Context, filter CandidateFilter) ([]models.Phone, int64, error) {
	var phones []models.Phone
	total, err := r.list(ctx, &models.Phone{}, "phone_number", filter, &phones)
	return phones, total, err
}

func (r *candidateRepository) ListEmails(ctx context.Context, filter CandidateFilter) ([]models.Email, int64, error) {
	var emails []models.Email
	total, err := r.list(ctx, &models.Email{}, "email_address", filter, &emails)
	return emails, total, err
}

// sortColumns - допустимые значения sortBy; все остальное сортируется по created_at.
var sortColumns = map[string]string{
	"created_at":   "created_at",
	"updated_at":   "updated_at",
	"trello_title": "trello_title",
	"raw_data_id":  "raw_record_id",
	"is_matched":   "is_matched",
}

func (r *candidateRepository) list(ctx context.Context, model interface{}, valueColumn string, filter CandidateFilter, dest interface{}) (int64, error) {
	page, limit := filter.Page, filter.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 200 {
		limit = 50
	}

	filtered := func(db *gorm.DB) *gorm.DB {
		if filter.RawRecordID != "" {
			db = db.Where("raw_record_id = ?", filter.RawRecordID)
		}
		if search := strings.ToLower(strings.TrimSpace(filter.Search)); search != "" {
			pattern := "%" + search + "%"
			db = db.Where("(LOWER("+valueColumn+") LIKE ? OR LOWER(trello_title) LIKE ?)", pattern, pattern)
		}
		return db
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(model).Scopes(filtered).Count(&total).Error; err != nil {
		return 0, err
	}

	column, ok := sortColumns[filter.SortBy]
	if filter.SortBy == "phone_number" || filter.SortBy == "email_address" || filter.SortBy == "value" {
		column, ok = valueColumn, true
	}
	if !ok {
		column = "created_at"
	}
	order := "DESC"
	if strings.EqualFold(filter.SortOrder, "asc") {
		order = "ASC"
	}

	err := r.db.WithContext(ctx).
		Model(model).
		Scopes(filtered).
		Order(column + " " + order).
		Order("id ASC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(dest).
		Error
	return total, err
}

func (r *candidateRepository) PhoneStats(ctx context.Context) (*CandidateStats, error) {
	return r.stats(ctx, &models.Phone{}, "phone_number")
}

func (r *candidateRepository) EmailStats(ctx context.Context) (*CandidateStats, error) {
	return r.stats(ctx, &models.Email{}, "email_address")
}

func (r *candidateRepository) stats(ctx context.Context, model interface{}, valueColumn string) (*CandidateStats, error) {
	var stats CandidateStats
	if err := r.db.WithContext(ctx).Model(model).Count(&stats.Total).Error; err != nil {
		return nil, err
	}
	err := r.db.WithContext(ctx).
		Model(model).
		Distinct(valueColumn).
		Count(&stats.Unique).
		Error
	if err != nil {
		return nil, err
	}
	return &stats, nil
}
