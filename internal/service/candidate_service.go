package service

import (
	"context"
	"fmt"
	"strings"

	"orubacontacts/internal/apperrors"
	"orubacontacts/internal/models"
	"orubacontacts/internal/repository"
	"orubacontacts/internal/utils"

	"go.uber.org/zap"
)

type CandidateService interface {
	ListPhones(ctx context.Context, filter repository.CandidateFilter) (*Page[models.Phone], error)
	ListEmails(ctx context.Context, filter repository.CandidateFilter) (*Page[models.Email], error)
	PhoneStats(ctx context.Context) (*repository.CandidateStats, error)
	EmailStats(ctx context.Context) (*repository.CandidateStats, error)
	CreatePhone(ctx context.Context, req CreateCandidateRequest) (*models.Phone, bool, error)
	CreateEmail(ctx context.Context, req CreateCandidateRequest) (*models.Email, bool, error)
}

type CreateCandidateRequest struct {
	Value       string
	RawRecordID string
	TrelloTitle string
}

type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"totalPages"`
}

type Page[T any] struct {
	Data       []T        `json:"data"`
	Pagination Pagination `json:"pagination"`
}

func newPage[T any](data []T, page, limit int, total int64) *Page[T] {
	if data == nil {
		data = []T{}
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 200 {
		limit = 50
	}
	return &Page[T]{
		Data: data,
		Pagination: Pagination{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: (total + int64(limit) - 1) / int64(limit),
		},
	}
}

type candidateService struct {
	store *repository.Store
	cache repository.CacheRepository
	log   *zap.Logger
}

func NewCandidateService(store *repository.Store, cache repository.CacheRepository, log *zap.Logger) CandidateService {
	if cache == nil {
		cache = repository.NewNoopCache()
	}
	return &candidateService{store: store, cache: cache, log: log}
}

func (s *candidateService) ListPhones(ctx context.Context, filter repository.CandidateFilter) (*Page[models.Phone], error) {
	phones, total, err := s.store.Candidates.ListPhones(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list phones: %w", err)
	}
	return newPage(phones, filter.Page, filter.Limit, total), nil
}

func (s *candidateService) ListEmails(ctx context.Context, filter repository.CandidateFilter) (*Page[models.Email], error) {
	emails, total, err := s.store.Candidates.ListEmails(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list emails: %w", err)
	}
	return newPage(emails, filter.Page, filter.Limit, total), nil
}

func (s *candidateService) PhoneStats(ctx context.Context) (*repository.CandidateStats, error) {
	return s.store.Candidates.PhoneStats(ctx)
}

func (s *candidateService) EmailStats(ctx context.Context) (*repository.CandidateStats, error) {
	return s.store.Candidates.EmailStats(ctx)
}

// CreatePhone нормализует номер; если такой номер уже есть, возвращает существующую
// строку и false.
func (s *candidateService) CreatePhone(ctx context.Context, req CreateCandidateRequest) (*models.Phone, bool, error) {
	if strings.TrimSpace(req.Value) == "" {
		return nil, false, apperrors.Validation("phoneNumber", "phone number is required")
	}
	if req.RawRecordID == "" {
		return nil, false, apperrors.Validation("rawDataId", "raw data id is required")
	}

	normalized, err := utils.NormalizePhone(req.Value)
	if err != nil {
		return nil, false, apperrors.WrapValidation("phoneNumber", "invalid phone number format", err)
	}

	existing, err := s.store.Candidates.FindPhoneByNumber(ctx, normalized)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	var phone *models.Phone
	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		title, err := trelloTitle(ctx, tx, req)
		if err != nil {
			return err
		}
		phone = &models.Phone{PhoneNumber: normalized, RawRecordID: req.RawRecordID, TrelloTitle: title}
		if err := tx.Candidates.CreatePhone(ctx, phone); err != nil {
			return fmt.Errorf("failed to create phone: %w", err)
		}
		return s.reopen(ctx, tx, req.RawRecordID)
	})
	if err != nil {
		return nil, false, err
	}

	s.invalidateStats(ctx)
	s.log.Info("Phone created", zap.String("phone_id", phone.ID), zap.String("raw_record_id", req.RawRecordID))
	return phone, true, nil
}

func (s *candidateService) CreateEmail(ctx context.Context, req CreateCandidateRequest) (*models.Email, bool, error) {
	if strings.TrimSpace(req.Value) == "" {
		return nil, false, apperrors.Validation("emailAddress", "email address is required")
	}
	if req.RawRecordID == "" {
		return nil, false, apperrors.Validation("rawDataId", "raw data id is required")
	}

	normalized, err := utils.NormalizeEmail(req.Value)
	if err != nil {
		return nil, false, apperrors.WrapValidation("emailAddress", "invalid email format", err)
	}

	existing, err := s.store.Candidates.FindEmailByAddress(ctx, normalized)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	var email *models.Email
	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		title, err := trelloTitle(ctx, tx, req)
		if err != nil {
			return err
		}
		email = &models.Email{EmailAddress: normalized, RawRecordID: req.RawRecordID, TrelloTitle: title}
		if err := tx.Candidates.CreateEmail(ctx, email); err != nil {
			return fmt.Errorf("failed to create email: %w", err)
		}
		return s.reopen(ctx, tx, req.RawRecordID)
	})
	if err != nil {
		return nil, false, err
	}

	s.invalidateStats(ctx)
	s.log.Info("Email created", zap.String("email_id", email.ID), zap.String("raw_record_id", req.RawRecordID))
	return email, true, nil
}

// reopen возвращает завершенную запись в очередь: у нее снова есть непривязанный кандидат.
func (s *candidateService) reopen(ctx context.Context, tx *repository.Store, recordID string) error {
	reopened, err := tx.RawRecords.Reopen(ctx, recordID)
	if err != nil {
		return fmt.Errorf("failed to reopen raw record: %w", err)
	}
	if reopened {
		s.log.Info("Raw record reopened", zap.String("raw_record_id", recordID))
	}
	return nil
}

func (s *candidateService) invalidateStats(ctx context.Context) {
	if err := s.cache.Delete(ctx, repository.CacheKeyMatchingStats); err != nil {
		s.log.Warn("Failed to invalidate stats cache", zap.Error(err))
	}
}

// trelloTitle берет заголовок из запроса, иначе из сырой записи (которая должна существовать).
func trelloTitle(ctx context.Context, tx *repository.Store, req CreateCandidateRequest) (*string, error) {
	record, err := tx.RawRecords.GetByID(ctx, req.RawRecordID)
	if err != nil {
		return nil, err
	}
	if title := strings.TrimSpace(req.TrelloTitle); title != "" {
		return &title, nil
	}
	return &record.Title, nil
}
